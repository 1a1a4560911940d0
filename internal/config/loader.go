package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	v := viper.New()

	v.SetConfigName(".codesentry")
	v.SetConfigType("yaml")

	// Add search paths in order of priority
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME")
	v.AddConfigPath("/etc/codesentry")

	v.SetEnvPrefix("CODESENTRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

// SetConfigFile sets a specific config file to use.
func (l *Loader) SetConfigFile(path string) {
	l.v.SetConfigFile(path)
}

// Load loads the configuration from all sources and validates it.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()
	l.setDefaults(cfg)

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func (l *Loader) setDefaults(cfg *Config) {
	l.v.SetDefault("review.max_concurrency", cfg.Review.MaxConcurrency)
	l.v.SetDefault("review.max_file_size", cfg.Review.MaxFileSize)
	l.v.SetDefault("review.complexity_threshold", cfg.Review.ComplexityThreshold)
	l.v.SetDefault("review.max_nesting", cfg.Review.MaxNesting)
	l.v.SetDefault("review.max_line_length", cfg.Review.MaxLineLength)
	l.v.SetDefault("review.ignore_patterns", cfg.Review.IgnorePatterns)
	l.v.SetDefault("review.base_ref", cfg.Review.BaseRef)
	l.v.SetDefault("review.repo_path", cfg.Review.RepoPath)

	l.v.SetDefault("output.format", cfg.Output.Format)
	l.v.SetDefault("output.file", cfg.Output.File)
	l.v.SetDefault("output.color", cfg.Output.Color)
	l.v.SetDefault("output.pretty", cfg.Output.Pretty)
	l.v.SetDefault("output.fail_on", cfg.Output.FailOn)

	l.v.SetDefault("rules.files", cfg.Rules.Files)
	l.v.SetDefault("rules.dirs", cfg.Rules.Dirs)
	l.v.SetDefault("rules.include_defaults", cfg.Rules.IncludeDefaults)

	l.v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	l.v.SetDefault("cache.max_entries", cfg.Cache.MaxEntries)
	l.v.SetDefault("cache.dir", cfg.Cache.Dir)
	l.v.SetDefault("cache.ttl", cfg.Cache.TTL)

	l.v.SetDefault("history.enabled", cfg.History.Enabled)
	l.v.SetDefault("history.path", cfg.History.Path)

	l.v.SetDefault("log.level", cfg.Log.Level)
}

// ConfigFileUsed returns the path of the config file used, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Viper returns the underlying viper instance so commands can bind flags.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// LoadFromFile loads configuration from a specific file.
func LoadFromFile(path string) (*Config, error) {
	loader := NewLoader()
	loader.SetConfigFile(path)
	return loader.Load()
}
