// Package config provides the configuration system for the soundsieve CLI.
//
// Configuration lives in a single YAML file under os.UserConfigDir():
//
//	~/Library/Application Support/soundsieve/config.yaml   (macOS)
//	~/.config/soundsieve/config.yaml                       (Linux)
//	%AppData%/soundsieve/config.yaml                       (Windows)
//
// Every field has a working default, so a missing config file is not an
// error — the CLI runs out of the box against ./models.yaml and writes
// its outputs to the working directory.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/soundsieve/soundsieve/pkg/pipeline"
)

const (
	// appDir is the directory name under os.UserConfigDir().
	appDir = "soundsieve"

	// configFile is the configuration file name inside appDir.
	configFile = "config.yaml"

	// defaultManifest is the model manifest looked up relative to the
	// working directory when the config names none.
	defaultManifest = "models.yaml"
)

// Config holds the CLI configuration.
type Config struct {
	// Manifest is the path of the model manifest (models.yaml).
	Manifest string `yaml:"manifest,omitempty"`

	// FeaturesDir is where sound features are written and resolved.
	FeaturesDir string `yaml:"features_dir,omitempty"`

	// ResultsDir is where separated waveforms are written.
	ResultsDir string `yaml:"results_dir,omitempty"`

	// SpillDir is the scratch area for clip outputs of long mixtures.
	// Empty means a directory under os.TempDir().
	SpillDir string `yaml:"spill_dir,omitempty"`

	// SpillMB is the in-RAM clip budget in MiB before spilling.
	// Zero keeps the pipeline default.
	SpillMB int `yaml:"spill_mb,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level,omitempty"`

	// LogFormat is "text" or "json".
	LogFormat string `yaml:"log_format,omitempty"`

	// path is where the config was loaded from, if anywhere.
	path string
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	return &Config{
		Manifest:    defaultManifest,
		FeaturesDir: pipeline.DefaultFeaturesDir,
		ResultsDir:  pipeline.DefaultResultsDir,
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

// Load reads the configuration from the default location. A missing
// file yields the defaults.
func Load() (*Config, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine config directory: %w", err)
	}
	return LoadFrom(filepath.Join(base, appDir, configFile))
}

// LoadFrom reads the configuration from a specific file. A missing
// file yields the defaults; a malformed file is an error.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Path returns where the config was loaded from.
func (c *Config) Path() string {
	return c.path
}

// Save writes the configuration back to its file, creating parent
// directories as needed.
func (c *Config) Save() error {
	if c.path == "" {
		return fmt.Errorf("config has no file path")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("write config %s: %w", c.path, err)
	}
	return nil
}

// applyDefaults fills fields the file left empty.
func (c *Config) applyDefaults() {
	d := Default()
	if c.Manifest == "" {
		c.Manifest = d.Manifest
	}
	if c.FeaturesDir == "" {
		c.FeaturesDir = d.FeaturesDir
	}
	if c.ResultsDir == "" {
		c.ResultsDir = d.ResultsDir
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = d.LogFormat
	}
}

// Validate checks field values that have a closed domain.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	if c.SpillMB < 0 {
		return fmt.Errorf("spill_mb must not be negative, got %d", c.SpillMB)
	}
	return nil
}

// NewLogger builds an slog logger honoring LogLevel and LogFormat.
// Output goes to stderr so command results stay clean on stdout.
func (c *Config) NewLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
