// pkg/core/config.go
package core

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds unipac configuration
type Config struct {
	Debug         bool          `yaml:"debug"`
	NoInteractive bool          `yaml:"no_interactive"`
	CachePath     string        `yaml:"cache_path"`
	Timeout       time.Duration `yaml:"timeout"`
	Editor        string        `yaml:"editor"`

	Pacman  PacmanConfig  `yaml:"pacman"`
	AUR     AURConfig     `yaml:"aur"`
	Flatpak FlatpakConfig `yaml:"flatpak"`
	Cargo   CargoConfig   `yaml:"cargo"`
	Nix     NixConfig     `yaml:"nix"`

	// Logger for debug output; never read from the file
	Logger *log.Logger `yaml:"-"`
}

// PacmanConfig holds pacman-specific configuration
type PacmanConfig struct {
	DBPath     string `yaml:"db_path"`     // Default: /var/lib/pacman
	ConfigFile string `yaml:"config_file"` // Default: /etc/pacman.conf
}

// AURConfig holds AUR-specific configuration
type AURConfig struct {
	URL string `yaml:"url"` // Default: https://aur.archlinux.org
}

// FlatpakConfig holds Flatpak-specific configuration
type FlatpakConfig struct {
	User bool `yaml:"user"` // Install into the per-user installation
}

// CargoConfig holds Cargo-specific configuration
type CargoConfig struct {
	Home     string `yaml:"home"`      // Default: $CARGO_HOME or ~/.cargo
	APIURL   string `yaml:"api_url"`   // Default: https://crates.io/api/v1
	IndexURL string `yaml:"index_url"` // Default: https://index.crates.io
}

// NixConfig holds Nix-specific configuration
type NixConfig struct {
	Flake string `yaml:"flake"` // Default: nixpkgs
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		CachePath: getDefaultCachePath(),
		Timeout:   2 * time.Minute,
		Editor:    os.Getenv("EDITOR"),
		Pacman: PacmanConfig{
			DBPath:     "/var/lib/pacman",
			ConfigFile: "/etc/pacman.conf",
		},
		AUR: AURConfig{
			URL: "https://aur.archlinux.org",
		},
		Flatpak: FlatpakConfig{
			User: true,
		},
		Cargo: CargoConfig{
			Home:     getDefaultCargoHome(),
			APIURL:   "https://crates.io/api/v1",
			IndexURL: "https://index.crates.io",
		},
		Nix: NixConfig{
			Flake: "nixpkgs",
		},
	}
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/unipac/config.yaml
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "unipac", "config.yaml"), nil
}

// LoadConfig loads configuration from file. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return DefaultConfig(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Decode over the defaults so absent keys keep their default value
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to file
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// CacheDir returns a backend cache sub-directory, creating it
func (c *Config) CacheDir(name string) (string, error) {
	dir := filepath.Join(c.CachePath, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating cache directory: %w", err)
	}
	return dir, nil
}

func getDefaultCachePath() string {
	if path := os.Getenv("UNIPAC_CACHE_PATH"); path != "" {
		return path
	}

	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "unipac")
	}

	return filepath.Join(dir, "unipac")
}

func getDefaultCargoHome() string {
	if path := os.Getenv("CARGO_HOME"); path != "" {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".cargo"
	}

	return filepath.Join(home, ".cargo")
}
