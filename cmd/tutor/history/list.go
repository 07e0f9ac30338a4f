package historycmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tutorloop/tutorstream/pkg/cliui"
	"github.com/tutorloop/tutorstream/pkg/config"
	"github.com/tutorloop/tutorstream/pkg/utils"
)

const listLongDesc string = `List recorded tutoring turns, newest first.

Each line shows the turn id, when it was asked, and a preview of the
question. Use "tutor history show <id>" to read the full answer.

Examples:
  tutor history list
  tutor history list --limit 10`

const listShortDesc string = "List recorded tutoring turns"

func newListCmd() *cobra.Command {
	var limit int
	var sqlitePath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of turns to list (0 for all)")
	config.AddStringFlag(cmd, config.DefaultFlagSet(), config.FlagSQLite, &sqlitePath)

	return cmd
}

func runList(cmd *cobra.Command, limit int) error {
	driver, err := openDriver(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = driver.Close() }()

	turns, err := driver.List(context.Background())
	if err != nil {
		return fmt.Errorf("listing history: %w", err)
	}

	if len(turns) == 0 {
		fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render("No recorded turns yet. Ask something with \"tutor chat\"."))
		return nil
	}

	if limit > 0 && len(turns) > limit {
		turns = turns[:limit]
	}

	fmt.Println()
	for _, turn := range turns {
		fmt.Printf("  %s  %s  %s\n",
			cliui.IDStyle.Render(utils.Truncate(turn.ID, 8)),
			cliui.DimStyle.Render(turn.CreatedAt.Format("2006-01-02 15:04")),
			cliui.ValueStyle.Render(utils.Truncate(turn.Question, 60)),
		)
	}
	fmt.Println()

	return nil
}
