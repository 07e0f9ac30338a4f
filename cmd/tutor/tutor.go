// Package tutorcmder
package tutorcmder

import (
	"github.com/spf13/cobra"

	chatcmder "github.com/tutorloop/tutorstream/cmd/tutor/chat"
	configcmder "github.com/tutorloop/tutorstream/cmd/tutor/config"
	historycmder "github.com/tutorloop/tutorstream/cmd/tutor/history"
	replaycmder "github.com/tutorloop/tutorstream/cmd/tutor/replay"
	versioncmder "github.com/tutorloop/tutorstream/cmd/tutor/version"
)

const tutorLongDesc string = `Tutorstream is a streaming CLI client for the math tutoring backend.

Ask questions and watch answers stream in:
  tutor chat             Start an interactive tutoring session
  tutor history          Browse past questions and answers
  tutor replay           Run a local practice server for offline use`

const tutorShortDesc string = "Tutorstream - streaming math tutoring client"

func NewTutorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tutor",
		Short: tutorShortDesc,
		Long:  tutorLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .tutorstream/ directory location")

	// Add subcommands
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(historycmder.NewHistoryCmd())
	cmd.AddCommand(replaycmder.NewReplayCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
