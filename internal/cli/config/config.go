package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/flatmessage/flatmsg/internal/compiler/document"
	"github.com/flatmessage/flatmsg/internal/compiler/render"
)

// FileName is the base name of the configuration file
const FileName = "flatmsg"

// EnvPrefix prefixes environment overrides, e.g. FLATMSG_OUTPUT_DIR
const EnvPrefix = "FLATMSG"

// Config represents the compiler configuration
type Config struct {
	OutputDir       string        `mapstructure:"output_dir" yaml:"output_dir"`
	Extension       string        `mapstructure:"extension" yaml:"extension"`
	Template        string        `mapstructure:"template" yaml:"template"`
	Engine          string        `mapstructure:"engine" yaml:"engine"`
	Merge           bool          `mapstructure:"merge" yaml:"merge"`
	IncludeDirs     []string      `mapstructure:"include_dirs" yaml:"include_dirs"`
	IncludePatterns []string      `mapstructure:"include_patterns" yaml:"include_patterns"`
	Threads         int           `mapstructure:"threads" yaml:"threads"`
	Storage         StorageConfig `mapstructure:"storage" yaml:"storage"`
	StrictImports   bool          `mapstructure:"strict_imports" yaml:"strict_imports"`
	VerifySQL       bool          `mapstructure:"verify_sql" yaml:"verify_sql"`
	Log             LogConfig     `mapstructure:"log" yaml:"log"`
}

// StorageConfig selects the storage type mapping exposed to templates
type StorageConfig struct {
	Dialect string            `mapstructure:"dialect" yaml:"dialect"`
	Types   map[string]string `mapstructure:"types" yaml:"types,omitempty"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Development bool   `mapstructure:"development" yaml:"development,omitempty"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		OutputDir:       "generated",
		Extension:       "txt",
		Engine:          render.DefaultEngine,
		IncludeDirs:     []string{},
		IncludePatterns: []string{"*.fmsg", "*.fmdata"},
		Threads:         1,
		Storage:         StorageConfig{Dialect: "sql", Types: map[string]string{}},
		Log:             LogConfig{Level: "info"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("extension", d.Extension)
	v.SetDefault("template", d.Template)
	v.SetDefault("engine", d.Engine)
	v.SetDefault("merge", d.Merge)
	v.SetDefault("include_dirs", d.IncludeDirs)
	v.SetDefault("include_patterns", d.IncludePatterns)
	v.SetDefault("threads", d.Threads)
	v.SetDefault("storage.dialect", d.Storage.Dialect)
	v.SetDefault("storage.types", d.Storage.Types)
	v.SetDefault("strict_imports", d.StrictImports)
	v.SetDefault("verify_sql", d.VerifySQL)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.development", d.Log.Development)
}

// Load loads the configuration. With an empty configFile it looks for
// flatmsg.yaml or flatmsg.yml in the working directory; a missing file
// leaves the defaults in place.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks values that would only fail later, mid-compilation
func (c *Config) Validate() error {
	if c.Threads < 0 {
		return fmt.Errorf("threads must not be negative, got: %d", c.Threads)
	}
	if c.Extension == "" {
		return fmt.Errorf("extension must not be empty")
	}
	if _, err := render.DefaultRegistry().Get(c.Engine); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if _, err := c.StorageMapping(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	return nil
}

// StorageMapping builds the storage type mapping the configuration selects
func (c *Config) StorageMapping() (*document.Storage, error) {
	return document.NewStorage(c.Storage.Dialect, c.Storage.Types)
}

// Write serialises config as YAML to path
func Write(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Find returns the configuration file in dir, if any
func Find(dir string) (string, bool) {
	for _, name := range []string{FileName + ".yaml", FileName + ".yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}
