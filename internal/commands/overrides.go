package commands

import (
	"github.com/spf13/cobra"

	"github.com/kitsune-sumo/settings/config"
)

// NewOverridesCommand creates the overrides command
func NewOverridesCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "overrides",
		Short: "Print the test override table",
		Long:  "Prints the settings forced for every test session, keyed by dotted path.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeFormatted(cmd.OutOrStdout(), format, config.TestOverrides())
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatYAML, "Output format: yaml or json")

	return cmd
}
