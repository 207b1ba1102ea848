// Package config provides configuration management for the leapdoc CLI.
package config

import "time"

// Config holds all CLI configuration options.
type Config struct {
	// Mapping is the mapping file describing a generation job.
	Mapping      string      `koanf:"mapping"`
	Workers      int         `koanf:"workers"`
	KeepGoing    bool        `koanf:"keep_going"`
	StatePath    string      `koanf:"state_path"`
	History      bool        `koanf:"history"`
	Verbose      bool        `koanf:"verbose"`
	OutputFormat string      `koanf:"output"`
	Watch        WatchConfig `koanf:"watch"`

	// ConfigFile is the config file that was loaded, if any.
	ConfigFile string `koanf:"-"`
}

// WatchConfig holds configuration for the watch command.
type WatchConfig struct {
	Debounce time.Duration `koanf:"debounce"`
}

// Default configuration values.
const (
	DefaultStateFile = ".leapdoc/state.db"
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultWorkers   = 1
	DefaultDebounce  = 300 * time.Millisecond
)

// Default returns a Config holding the default values.
func Default() *Config {
	return &Config{
		Workers:      DefaultWorkers,
		StatePath:    DefaultStateFile,
		History:      true,
		OutputFormat: DefaultOutput,
		Watch:        WatchConfig{Debounce: DefaultDebounce},
	}
}
