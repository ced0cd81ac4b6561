package format

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the style file fmt reads from the working directory
// and init writes into new projects
const ConfigFileName = ".flatmsg-format.yml"

// maxIndent bounds indent_size; deeper indentation is a typo in practice
const maxIndent = 8

// Config is the layout fmt gives schema declarations
type Config struct {
	IndentSize  int  `yaml:"indent_size"`  // spaces per nesting level of fields and enum values
	AlignFields bool `yaml:"align_fields"` // pad field types and enum names into one column
}

// styleFile is the on-disk shape, settings live under a format key
type styleFile struct {
	Format Config `yaml:"format"`
}

// DefaultConfig returns the canonical schema layout
func DefaultConfig() *Config {
	return &Config{
		IndentSize:  4,
		AlignFields: false,
	}
}

// LoadConfig reads the style file at path. A missing file yields the
// canonical layout, an omitted indent_size keeps the default one. Unknown
// keys are rejected so a misspelt setting does not silently do nothing.
func LoadConfig(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, err
	}

	var style styleFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&style); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	config := &style.Format
	switch {
	case config.IndentSize == 0:
		config.IndentSize = DefaultConfig().IndentSize
	case config.IndentSize < 0 || config.IndentSize > maxIndent:
		return nil, fmt.Errorf("%s: indent_size must be between 1 and %d, got %d", path, maxIndent, config.IndentSize)
	}
	return config, nil
}

// SaveConfig writes config as a style file LoadConfig accepts
func SaveConfig(fs afero.Fs, path string, config *Config) error {
	data, err := yaml.Marshal(styleFile{Format: *config})
	if err != nil {
		return err
	}
	return afero.WriteFile(fs, path, data, 0o644)
}
