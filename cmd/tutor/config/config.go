// Package configcmder provides the config command for managing persistent
// tutorstream configuration stored in the .tutorstream/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent tutorstream configuration.

Configuration is stored as config.toml in the .tutorstream/ directory and
provides default values for command flags. CLI flags always take precedence
over config file values, and TUTORSTREAM_* environment variables sit between
the two.

Keys use dotted notation matching the TOML section structure:
  client.target, client.stream_timeout,
  history.sqlite_path,
  replay.listen, replay.script, replay.shuffle

Use subcommands to get, set, or list configuration values:
  tutor config set <key> <value>    Set a configuration value
  tutor config get <key>            Get a configuration value
  tutor config list                 List all configuration values

Examples:
  tutor config set client.target http://localhost:8085
  tutor config set replay.shuffle true
  tutor config get client.target
  tutor config list`

const configShortDesc string = "Manage persistent tutorstream configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
