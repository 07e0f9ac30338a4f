// Package chatcmder provides the chat command for interactive streaming
// tutoring sessions against the tutor backend.
package chatcmder

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/tutorloop/tutorstream/pkg/client"
	"github.com/tutorloop/tutorstream/pkg/cliui"
	"github.com/tutorloop/tutorstream/pkg/config"
	"github.com/tutorloop/tutorstream/pkg/history/sqlite"
	"github.com/tutorloop/tutorstream/pkg/logger"
	"github.com/tutorloop/tutorstream/pkg/session"
	"github.com/tutorloop/tutorstream/pkg/utils"
	"github.com/tutorloop/tutorstream/pkg/worker"
)

var (
	userPrompt  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	tutorPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("tutor> ")
)

// historyDBFile is the default history database name inside .tutorstream/.
const historyDBFile = "history.db"

type chatCommander struct {
	target        string
	streamTimeout string
	sqlitePath    string
	configDir     string
	debug         bool

	logger *slog.Logger
}

const chatLongDesc string = `Start an interactive tutoring session.

Questions are sent to the tutor backend's streaming chat endpoint and the
answer streams into the terminal as it is generated. Chunks that arrive out
of order are reassembled before display, so the answer always reads
front-to-back.

If a previous session exists in the .tutorstream/ directory, the
conversation resumes there. Completed question/answer turns are recorded in
the local history database; browse them with "tutor history".

Type /exit or Ctrl+D to quit, /new to start a fresh conversation.

Examples:
  tutor chat
  tutor chat --target http://localhost:8085
  tutor chat --stream-timeout 5m`

const chatShortDesc string = "Interactive streaming tutoring session"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}
	fs := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, fs, []string{
				config.FlagTarget,
				config.FlagStreamTimeout,
				config.FlagSQLite,
			})

			cfg := config.FromViper(v)
			cmder.target = cfg.Client.Target
			cmder.streamTimeout = cfg.Client.StreamTimeout
			cmder.sqlitePath = cfg.History.SQLitePath
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

	config.AddStringFlag(cmd, fs, config.FlagTarget, &cmder.target)
	config.AddStringFlag(cmd, fs, config.FlagStreamTimeout, &cmder.streamTimeout)
	config.AddStringFlag(cmd, fs, config.FlagSQLite, &cmder.sqlitePath)

	return cmd
}

func (c *chatCommander) run() error {
	log := logger.New(
		logger.WithDebug(c.debug),
		logger.WithPretty(true),
		logger.WithWriter(os.Stderr),
	)
	c.logger = log

	store, err := session.NewStore(c.configDir)
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}

	timeout, err := time.ParseDuration(c.streamTimeout)
	if err != nil {
		return fmt.Errorf("parsing stream timeout: %w", err)
	}

	dbPath, err := c.historyPath()
	if err != nil {
		return err
	}

	var driver *sqlite.Driver
	err = cliui.Step(os.Stdout, "Opening answer history", func() error {
		driver, err = sqlite.NewDriver(dbPath)
		return err
	})
	if err != nil {
		return fmt.Errorf("opening history database: %w", err)
	}
	defer func() { _ = driver.Close() }()

	pool, err := worker.NewPool(&worker.Config{
		Driver: driver,
		Logger: log,
	})
	if err != nil {
		return fmt.Errorf("creating history pool: %w", err)
	}
	defer pool.Close()

	cl := client.New(client.Config{
		Target:        c.target,
		StreamTimeout: timeout,
	}, store, log, client.WithHistory(pool))

	c.banner(store)

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print(userPrompt)
		if !scanner.Scan() {
			// EOF or error
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/exit" {
			break
		}
		if input == "/new" {
			if err := store.SetConversation(""); err != nil {
				fmt.Fprintf(os.Stderr, "  %s %v\n", cliui.FailMark, err)
				continue
			}
			cl.Forget(conversationKey)
			fmt.Printf("  %s New conversation\n\n", cliui.DimStyle.Render("●"))
			continue
		}

		if err := c.askAndStream(cl, input); err != nil {
			fmt.Fprintf(os.Stderr, "  %s %v\n", cliui.FailMark, err)
			continue
		}

		fmt.Println()
		fmt.Println()
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Println()
	return nil
}

// conversationKey identifies the single interactive conversation this
// command drives. Asking again on the same key supersedes any answer still
// in flight.
const conversationKey = "chat"

// banner prints the session header: resumed conversation or a fresh one.
func (c *chatCommander) banner(store *session.Store) {
	fmt.Println()

	state, err := store.Load()
	if err == nil && state != nil && state.ConversationID != "" {
		fmt.Printf("  %s Resuming conversation %s\n",
			cliui.SuccessMark,
			cliui.IDStyle.Render(utils.Truncate(state.ConversationID, 16)),
		)
	} else {
		fmt.Printf("  %s New conversation\n", cliui.DimStyle.Render("●"))
	}

	fmt.Printf("  %s %s\n\n",
		cliui.KeyStyle.Render("Backend:"),
		cliui.ValueStyle.Render(c.target),
	)
	fmt.Printf("  %s\n\n", cliui.DimStyle.Render("Type your question and press Enter. /exit or Ctrl+D to quit."))
}

// askAndStream sends one question and renders the streamed answer to stdout.
func (c *chatCommander) askAndStream(cl *client.Client, question string) error {
	updates, err := cl.Ask(context.Background(), conversationKey, question)
	if err != nil {
		return err
	}

	fmt.Print(tutorPrompt)

	var printed string
	var errMsg string

	for u := range updates {
		if u.Status != "" {
			c.logger.Debug("backend status", "status", u.Status)
		}

		if u.Clarification != "" {
			fmt.Printf("\n  %s %s\n%s",
				cliui.KeyStyle.Render("The tutor asks:"),
				u.Clarification,
				tutorPrompt,
			)
		}

		if u.HasText {
			if strings.HasPrefix(u.Text, printed) {
				// The usual case: reconciled text grew at the end.
				fmt.Print(u.Text[len(printed):])
			} else {
				// Authoritative rewrite from a terminal event. Reprint on a
				// fresh line rather than fighting the terminal.
				fmt.Printf("\n%s%s", tutorPrompt, u.Text)
			}
			printed = u.Text
		}

		if u.ErrorMessage != "" {
			errMsg = u.ErrorMessage
		}
	}

	if errMsg != "" {
		return fmt.Errorf("%s", errMsg)
	}
	return nil
}

// historyPath resolves the history database location: the configured path,
// or history.db inside the resolved .tutorstream/ directory.
func (c *chatCommander) historyPath() (string, error) {
	if c.sqlitePath != "" {
		return c.sqlitePath, nil
	}

	dir, err := session.Target(c.configDir)
	if err != nil {
		return "", fmt.Errorf("resolving history path: %w", err)
	}
	return filepath.Join(dir, historyDBFile), nil
}
