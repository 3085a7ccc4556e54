package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/kitsune-sumo/settings/config"
)

const (
	formatYAML = "yaml"
	formatJSON = "json"
)

// loadOptions are the flags shared by commands that resolve settings.
type loadOptions struct {
	Dir     string
	Testing bool
}

func (o *loadOptions) load() (*config.Config, error) {
	return config.LoadWithOptions(config.Options{
		Dir:     o.Dir,
		Testing: o.Testing,
	})
}

func writeFormatted(w io.Writer, format string, v any) error {
	switch format {
	case formatYAML, "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format %q (want %s or %s)", format, formatYAML, formatJSON)
	}
}
