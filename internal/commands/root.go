// Package commands implements the kitsune-settings CLI.
package commands

import "github.com/spf13/cobra"

// NewRootCommand assembles the kitsune-settings command tree.
func NewRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "kitsune-settings",
		Short: "Inspect and validate kitsune settings",
		Long: `Resolves kitsune settings the way the services do and prints or
validates the result. The --test flag applies the override table every
test session runs with.`,
		Version: version,
	}

	root.AddCommand(
		NewShowCommand(),
		NewCheckCommand(),
		NewOverridesCommand(),
		NewVersionCommand(version),
	)
	return root
}
