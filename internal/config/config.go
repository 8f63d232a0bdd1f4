package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Config holds all configurable vitrine settings.
type Config struct {
	APIBaseURL     string `json:"api_base_url"`
	RequestTimeout int    `json:"request_timeout_seconds"`
	Locale         string `json:"locale"`         // collation for client-side sort
	DefaultFormat  string `json:"default_format"` // "markdown" | "json" for exports
	DebugLog       string `json:"debug_log"`      // path for --debug structured logs
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		APIBaseURL:     "http://localhost:8080/api",
		RequestTimeout: 15,
		Locale:         "pt-BR",
		DefaultFormat:  "markdown",
		DebugLog:       "vitrine-debug.log",
	}
}

// LoadGlobal reads ~/.config/vitrine/config.json.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(home, ".config", "vitrine", "config.json")
	return loadFile(path, true)
}

// GlobalPath returns the global config file location.
func GlobalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "vitrine", "config.json"), nil
}

// LoadProject reads .vitrinerc in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(".vitrinerc", false)
}

// loadFile reads and parses a JSON config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Save writes cfg to the global config file, creating the directory if
// needed.
func Save(cfg Config) error {
	path, err := GlobalPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()

	// Apply global values over defaults.
	if global != nil {
		if global.APIBaseURL != "" {
			result.APIBaseURL = global.APIBaseURL
		}
		if global.RequestTimeout > 0 {
			result.RequestTimeout = global.RequestTimeout
		}
		if global.Locale != "" {
			result.Locale = global.Locale
		}
		if global.DefaultFormat != "" {
			result.DefaultFormat = global.DefaultFormat
		}
		if global.DebugLog != "" {
			result.DebugLog = global.DebugLog
		}
	}

	// Apply project values over global.
	if project != nil {
		if project.APIBaseURL != "" {
			result.APIBaseURL = project.APIBaseURL
		}
		if project.RequestTimeout > 0 {
			result.RequestTimeout = project.RequestTimeout
		}
		if project.Locale != "" {
			result.Locale = project.Locale
		}
		if project.DefaultFormat != "" {
			result.DefaultFormat = project.DefaultFormat
		}
		if project.DebugLog != "" {
			result.DebugLog = project.DebugLog
		}
	}

	return result
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
