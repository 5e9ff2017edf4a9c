// Package config loads the toolrelay TOML configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/toolrelay/pkg/backend"
	"github.com/papercomputeco/toolrelay/pkg/history"
)

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Config is the full toolrelay configuration.
type Config struct {
	Backend   BackendConfig   `toml:"backend"`
	Storage   StorageConfig   `toml:"storage"`
	Artifacts ArtifactsConfig `toml:"artifacts"`
	Server    ServerConfig    `toml:"server"`
	Log       LogConfig       `toml:"log"`
}

// BackendConfig configures the tool backend client.
type BackendConfig struct {
	BaseURL   string            `toml:"base_url"`
	Timeout   Duration          `toml:"timeout"`
	Endpoints backend.Endpoints `toml:"endpoints"`
}

// StorageConfig configures where the conversation history lives.
type StorageConfig struct {
	Driver     string `toml:"driver"` // memory, file, sqlite
	Path       string `toml:"path"`   // directory for file, database for sqlite
	HistoryKey string `toml:"history_key"`
}

// ArtifactsConfig configures where generated files are saved.
type ArtifactsConfig struct {
	Dir string `toml:"dir"`
}

// ServerConfig configures the local HTTP front end.
type ServerConfig struct {
	Listen string `toml:"listen"`
}

// LogConfig configures logging.
type LogConfig struct {
	Debug bool   `toml:"debug"`
	File  string `toml:"file"` // Used by front ends that own the terminal
}

// Duration is a time.Duration written as a string ("90s", "2m") in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Dir returns the toolrelay home directory (~/.toolrelay).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not resolve home directory: %w", err)
	}
	return filepath.Join(home, ".toolrelay"), nil
}

// Default returns the configuration used when no file overrides it.
func Default() Config {
	dir, err := Dir()
	if err != nil {
		dir = ".toolrelay"
	}

	return Config{
		Backend: BackendConfig{
			BaseURL:   "http://localhost:8010",
			Timeout:   Duration{backend.DefaultTimeout},
			Endpoints: backend.DefaultEndpoints(),
		},
		Storage: StorageConfig{
			Driver:     DriverSQLite,
			Path:       filepath.Join(dir, "toolrelay.db"),
			HistoryKey: history.DefaultKey,
		},
		Artifacts: ArtifactsConfig{Dir: "."},
		Server:    ServerConfig{Listen: ":8090"},
		Log:       LogConfig{File: filepath.Join(dir, "toolrelay.log")},
	}
}

// Load reads the TOML file at path over the defaults. A missing file is not
// an error unless required is set.
func Load(path string, required bool) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	path, err := expandHome(path)
	if err != nil {
		return cfg, err
	}

	md, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}

	for _, p := range []*string{&cfg.Storage.Path, &cfg.Artifacts.Dir, &cfg.Log.File} {
		if *p, err = expandHome(*p); err != nil {
			return cfg, err
		}
	}

	return cfg, cfg.Validate()
}

// Validate checks the configuration for values no component can work with.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverFile, DriverSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the %s driver", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Backend.BaseURL == "" {
		return errors.New("backend.base_url is required")
	}
	if c.Backend.Timeout.Duration < 0 {
		return errors.New("backend.timeout must not be negative")
	}

	return nil
}

// BackendClientConfig converts the backend section into a client config.
func (c Config) BackendClientConfig() backend.Config {
	return backend.Config{
		BaseURL:   c.Backend.BaseURL,
		Timeout:   c.Backend.Timeout.Duration,
		Endpoints: c.Backend.Endpoints,
	}
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
