package historycmder

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tutorloop/tutorstream/pkg/cliui"
	"github.com/tutorloop/tutorstream/pkg/config"
	"github.com/tutorloop/tutorstream/pkg/history"
)

const showLongDesc string = `Show one recorded turn with the full answer.

The answer is rendered as markdown, matching how the tutor formats worked
solutions.

Examples:
  tutor history show 4fa2c1d8-9915-4f60-b2d3-0f2a9f4c51aa`

const showShortDesc string = "Show one recorded turn"

func newShowCmd() *cobra.Command {
	var sqlitePath string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: showShortDesc,
		Long:  showLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, args[0])
		},
	}

	config.AddStringFlag(cmd, config.DefaultFlagSet(), config.FlagSQLite, &sqlitePath)

	return cmd
}

func runShow(cmd *cobra.Command, id string) error {
	driver, err := openDriver(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = driver.Close() }()

	turn, err := driver.Get(context.Background(), id)
	if err != nil {
		var notFound history.NotFoundError
		if errors.As(err, &notFound) {
			return fmt.Errorf("no turn with id %q", id)
		}
		return fmt.Errorf("loading turn: %w", err)
	}

	fmt.Printf("\n  %s  %s\n", cliui.KeyStyle.Render("Asked:"), turn.CreatedAt.Format("2006-01-02 15:04:05"))
	if turn.ConversationID != "" {
		fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render("Conversation:"), cliui.IDStyle.Render(turn.ConversationID))
	}
	fmt.Printf("\n  %s %s\n", cliui.KeyStyle.Render("Q:"), turn.Question)

	rendered, err := cliui.RenderMarkdown(turn.Answer)
	if err != nil {
		// Fall back to the raw answer when the terminal renderer fails.
		fmt.Printf("\n%s\n", turn.Answer)
		return nil
	}
	fmt.Println(rendered)

	return nil
}
