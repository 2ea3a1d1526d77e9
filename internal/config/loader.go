package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Defaults applied by ApplyDefaults.
const (
	DefaultRoleName  = "OrganizationAccountAccessRole"
	DefaultOutputDir = "reports"
)

// DefaultConfigPath returns ~/.config/soc2-scanner/config.yaml, or an empty
// string when the home directory cannot be determined.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "soc2-scanner", "config.yaml")
}

// FileLoader reads Config from a YAML file.
type FileLoader struct {
	path     string
	explicit bool
}

// NewFileLoader returns a loader for path. An empty path selects the default
// location, which may be absent; an explicit path must exist.
func NewFileLoader(path string) *FileLoader {
	if path == "" {
		return &FileLoader{path: DefaultConfigPath()}
	}
	return &FileLoader{path: path, explicit: true}
}

// ConfigPath implements Loader.
func (l *FileLoader) ConfigPath() string { return l.path }

// Load implements Loader. Unknown keys are rejected so that typos do not
// silently fall back to defaults.
func (l *FileLoader) Load() (*Config, error) {
	if l.path == "" {
		return defaultConfig(), nil
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !l.explicit {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("read config %s: %w", l.path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", l.path, err)
	}
	ApplyDefaults(cfg)
	if errs := Validate(cfg); len(errs) > 0 {
		return nil, fmt.Errorf("invalid config %s: %w", l.path, errors.Join(errs...))
	}
	return cfg, nil
}

// Parse decodes YAML into a Config without validating it. Empty input
// yields the zero Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills unset fields that have a documented default.
func ApplyDefaults(cfg *Config) {
	if cfg.Scan.RoleName == "" {
		cfg.Scan.RoleName = DefaultRoleName
	}
	if cfg.Scan.OutputDir == "" {
		cfg.Scan.OutputDir = DefaultOutputDir
	}
	if cfg.Scan.Format == "" {
		cfg.Scan.Format = "table"
	}
}

func defaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
