// Package config loads the vancouver YAML configuration.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/vancouver/internal/foundation/errors"
)

// Config represents the application configuration.
type Config struct {
	Citations CitationsConfig `yaml:"citations"`
	Reader    ReaderConfig    `yaml:"reader"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// CitationsConfig controls citation rewriting and HTML post-processing.
type CitationsConfig struct {
	// HighlightClass is toggled on the reference entry whose citation was clicked.
	HighlightClass string `yaml:"highlight_class"`
	// HeadingShift demotes rendered headings by this many levels.
	HeadingShift int `yaml:"heading_shift"`
	// BootstrapTables adds Bootstrap classes to rendered tables.
	BootstrapTables bool `yaml:"bootstrap_tables"`
}

// ReaderConfig controls which sources the reader handles.
type ReaderConfig struct {
	Enabled    bool     `yaml:"enabled"`
	Extensions []string `yaml:"extensions"`
}

// MetricsConfig controls the optional Prometheus textfile dump.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

const (
	DefaultHighlightClass = "highlight"
	DefaultHeadingShift   = 1
	maxHeadingShift       = 5
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Citations: CitationsConfig{
			HighlightClass:  DefaultHighlightClass,
			HeadingShift:    DefaultHeadingShift,
			BootstrapTables: true,
		},
		Reader: ReaderConfig{
			Enabled:    true,
			Extensions: []string{"md", "markdown", "mkd", "mdown"},
		},
		Logging: LoggingConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
		},
	}
}

// Load reads configPath on top of the defaults. ${VAR} references are
// expanded from the environment after .env files are loaded.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewError(errors.CategoryNotFound, "configuration file not found").
				WithContext("path", configPath).Build()
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read config file").
			WithContext("path", configPath).Build()
	}

	return Parse([]byte(os.ExpandEnv(string(data))))
}

// Parse decodes YAML configuration on top of the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").Fatal().Build()
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads configPath when it exists and falls back to Default otherwise.
func LoadOrDefault(configPath string) (*Config, error) {
	if configPath == "" {
		return Default(), nil
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		loadEnvFiles()
		return Default(), nil
	}
	return Load(configPath)
}

func (c *Config) normalize() {
	c.Citations.HighlightClass = strings.TrimSpace(c.Citations.HighlightClass)
	exts := make([]string, 0, len(c.Reader.Extensions))
	for _, e := range c.Reader.Extensions {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			exts = append(exts, e)
		}
	}
	c.Reader.Extensions = exts
	c.Logging.Level = NormalizeLogLevel(string(c.Logging.Level))
	c.Logging.Format = NormalizeLogFormat(string(c.Logging.Format))
}

var cssClassPattern = regexp.MustCompile(`^-?[_a-zA-Z][_a-zA-Z0-9-]*$`)

// Validate checks the configuration for values the reader cannot work with.
func (c *Config) Validate() error {
	if !cssClassPattern.MatchString(c.Citations.HighlightClass) {
		return errors.ConfigError("citations.highlight_class must be a CSS class name").
			WithContext("value", c.Citations.HighlightClass).Build()
	}
	if c.Citations.HeadingShift < 0 || c.Citations.HeadingShift > maxHeadingShift {
		return errors.ConfigError(fmt.Sprintf("citations.heading_shift must be between 0 and %d", maxHeadingShift)).
			WithContext("value", c.Citations.HeadingShift).Build()
	}
	if c.Reader.Enabled && len(c.Reader.Extensions) == 0 {
		return errors.ConfigError("reader.extensions must not be empty").Build()
	}
	return nil
}

// Init writes the default configuration to configPath.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.NewError(errors.CategoryConfig, "configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).Build()
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal config").Build()
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).Build()
	}
	return nil
}
