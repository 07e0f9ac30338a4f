// Package replaycmder provides the replay command for running the local
// practice server.
package replaycmder

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tutorloop/tutorstream/pkg/config"
	"github.com/tutorloop/tutorstream/pkg/logger"
	"github.com/tutorloop/tutorstream/pkg/replay"
)

type replayCommander struct {
	listen  string
	script  string
	shuffle bool
	debug   bool
}

const replayLongDesc string = `Run a local practice server.

The replay server speaks the tutor backend's streaming chat protocol from a
scripted set of answers, so "tutor chat" works offline:

  tutor replay &
  tutor chat --target http://localhost:8085

With --shuffle the server delivers each answer's chunks out of order, which
exercises the client's reassembly path end to end.

Scripts are JSON files of the form {"answers": ["...", "..."]}. Without
--script a built-in demo script is served.

Examples:
  tutor replay
  tutor replay --listen :9090 --script ./algebra.json --shuffle`

const replayShortDesc string = "Run a local practice server"

func NewReplayCmd() *cobra.Command {
	cmder := &replayCommander{}
	fs := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "replay",
		Short: replayShortDesc,
		Long:  replayLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, fs, []string{
				config.FlagReplayListen,
				config.FlagReplayScript,
				config.FlagReplayShuffle,
			})

			cfg := config.FromViper(v)
			cmder.listen = cfg.Replay.Listen
			cmder.script = cfg.Replay.Script
			cmder.shuffle = cfg.Replay.Shuffle
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, fs, config.FlagReplayListen, &cmder.listen)
	config.AddStringFlag(cmd, fs, config.FlagReplayScript, &cmder.script)
	config.AddBoolFlag(cmd, fs, config.FlagReplayShuffle, &cmder.shuffle)

	return cmd
}

func (c *replayCommander) run() error {
	log := logger.New(
		logger.WithDebug(c.debug),
		logger.WithPretty(true),
	)

	script := replay.DemoScript()
	if c.script != "" {
		var err error
		script, err = replay.LoadScript(c.script)
		if err != nil {
			return err
		}
	}

	server := replay.NewServer(replay.Config{
		ListenAddr: c.listen,
		Shuffle:    c.shuffle,
	}, script, log)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("replay server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		log.Info("received signal, shutting down", "signal", sig.String())
		return server.Shutdown()
	}
}
