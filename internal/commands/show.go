package commands

import (
	"github.com/spf13/cobra"

	"github.com/kitsune-sumo/settings/logger"
)

// ShowOptions holds options for the show command
type ShowOptions struct {
	loadOptions
	Format string
	Reveal bool
}

// NewShowCommand creates the show command
func NewShowCommand() *cobra.Command {
	opts := &ShowOptions{}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Long: `Resolves settings from built-in defaults, settings.yaml,
settings.<env>.yaml and KITSUNE_* environment variables, then prints the
merged result. With --test the test override table is applied last.

URL passwords and secret-looking keys are masked unless --reveal is set.`,
		Example: `  # Settings a test session sees
  kitsune-settings show --test

  # JSON, from a specific directory
  kitsune-settings show --dir ./deploy --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShow(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Dir, "dir", "d", "", "Directory containing settings.yaml")
	cmd.Flags().BoolVar(&opts.Testing, "test", false, "Apply the test override table")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", formatYAML, "Output format: yaml or json")
	cmd.Flags().BoolVar(&opts.Reveal, "reveal", false, "Print credentials unmasked")

	return cmd
}

func runShow(cmd *cobra.Command, opts *ShowOptions) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}

	settings := cfg.Raw()
	if !opts.Reveal {
		settings = logger.NewSensitiveDataFilter(nil).FilterFields(settings)
	}
	return writeFormatted(cmd.OutOrStdout(), opts.Format, settings)
}
