// Package config defines the on-disk YAML configuration surface shared by
// the CLI, the session manager, and the transport layer.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MouseConfig holds a default mouse tracking mode/encoding, per spec.md's
// external-interfaces table. It is loaded and saved with the file; session
// creation does not apply it, so sessions start with mouse tracking off.
type MouseConfig struct {
	Mode     string `yaml:"mode"`     // "off", "normal", "button-event", "all"
	Encoding string `yaml:"encoding"` // "default", "sgr"
}

// PaletteConfig names a color table size and default colors. It is loaded
// and saved with the file; session creation does not apply it, so sessions
// use the built-in 256-color palette and its default colors.
type PaletteConfig struct {
	Size      int    `yaml:"size"` // 16 or 256
	DefaultFg string `yaml:"defaultFg"`
	DefaultBg string `yaml:"defaultBg"`
}

// NgrokConfig holds the optional public-exposure settings for the ngrok
// tunnel backend.
type NgrokConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Authtoken string `yaml:"authtoken"`
}

// TLSConfig holds the optional automatic-TLS settings for the certmagic
// backend, used instead of ngrok when the operator owns a domain.
type TLSConfig struct {
	Enabled bool     `yaml:"enabled"`
	Domains []string `yaml:"domains"`
	Email   string   `yaml:"email"`
}

// Config is the full configuration surface: per-session terminal defaults
// plus the transport/exposure settings for the `serve` command.
type Config struct {
	Cols           int           `yaml:"cols"`
	Rows           int           `yaml:"rows"`
	MaxHistoryRows int           `yaml:"maxHistoryRows"`
	BoldIsBright   bool          `yaml:"boldIsBright"`
	FPS            int           `yaml:"fps"`
	Palette        PaletteConfig `yaml:"palette"`
	Mouse          MouseConfig   `yaml:"mouse"`

	Command []string `yaml:"command"`
	Env     []string `yaml:"env"`

	ListenAddr  string      `yaml:"listenAddr"`
	ControlPath string      `yaml:"controlPath"`
	Ngrok       NgrokConfig `yaml:"ngrok"`
	TLS         TLSConfig   `yaml:"tls"`
}

// Default returns the configuration newly created sessions and the `serve`
// command use absent an on-disk override.
func Default() *Config {
	return &Config{
		Cols:           80,
		Rows:           24,
		MaxHistoryRows: 10000,
		BoldIsBright:   true,
		FPS:            60,
		Palette: PaletteConfig{
			Size:      256,
			DefaultFg: "#e5e5e5",
			DefaultBg: "#000000",
		},
		Mouse: MouseConfig{
			Mode:     "off",
			Encoding: "default",
		},
		Command:     []string{"/bin/sh"},
		ListenAddr:  "127.0.0.1:4023",
		ControlPath: defaultControlPath(),
	}
}

func defaultControlPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".termhost"
	}
	return home + "/.termhost"
}

// Load reads and merges a YAML config file on top of Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML, creating or truncating the file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
