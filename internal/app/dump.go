package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Dump formats.
const (
	DumpYAML = "yaml"
	DumpTOML = "toml"
	DumpText = "text"
	DumpNone = "none"
)

// Dump writes a snapshot of the tree, including both operation logs of
// every coordinator, to w.
func (app *Application) Dump(w io.Writer, format string) error {
	info := app.root.TreeInfo()

	switch strings.ToLower(format) {
	case DumpYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(info); err != nil {
			return fmt.Errorf("encoding yaml dump: %w", err)
		}
		return enc.Close()
	case DumpTOML:
		if err := toml.NewEncoder(w).Encode(info); err != nil {
			return fmt.Errorf("encoding toml dump: %w", err)
		}
		return nil
	case DumpText:
		_, err := io.WriteString(w, info.String())
		return err
	case DumpNone, "":
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDumpFormat, format)
	}
}
