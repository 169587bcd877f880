package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/raysh454/phishguard/internal/cache"
	"github.com/raysh454/phishguard/internal/gateway"
	"github.com/raysh454/phishguard/internal/page"
	"github.com/raysh454/phishguard/internal/server"
	"github.com/raysh454/phishguard/internal/webclient"
)

// AppName names the config and data directories.
const AppName = "phishguard"

// ErrConfigNotFound is returned by LoadConfigFile when the file is missing.
var ErrConfigNotFound = errors.New("config file not found")

// NotifyConfig selects alert backends.
type NotifyConfig struct {
	// Desktop enables OS notifications when a display is available.
	Desktop bool `yaml:"desktop"`
}

// BridgeConfig is how a page context reaches the background.
type BridgeConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Config is the full runtime configuration.
type Config struct {
	LogLevel string `yaml:"log_level"`

	// DataDir holds the sqlite activity store.
	DataDir string `yaml:"data_dir"`

	Server    server.Config    `yaml:"server"`
	Gateway   gateway.Config   `yaml:"gateway"`
	Cache     cache.Config     `yaml:"cache"`
	Page      page.Config      `yaml:"page"`
	WebClient webclient.Config `yaml:"webclient"`
	Notify    NotifyConfig     `yaml:"notify"`
	Bridge    BridgeConfig     `yaml:"bridge"`
}

// DefaultConfig returns a Config populated with defaults.
func DefaultConfig() *Config {
	srv := server.DefaultConfig()
	return &Config{
		LogLevel:  "info",
		DataDir:   filepath.Join(xdg.DataHome, AppName),
		Server:    srv,
		Gateway:   gateway.DefaultConfig(),
		Cache:     cache.DefaultConfig(),
		Page:      page.DefaultConfig(),
		WebClient: webclient.DefaultConfig(),
		Notify:    NotifyConfig{Desktop: true},
		Bridge: BridgeConfig{
			URL:     "ws://" + srv.ListenAddr + "/ws/bridge",
			Timeout: 20 * time.Second,
		},
	}
}

// DefaultConfigPath is $XDG_CONFIG_HOME/phishguard/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// LoadConfigFile reads a YAML file over the defaults. Fields absent from the
// file keep their default values.
func LoadConfigFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	p, err := expandPath(path)
	if err != nil {
		return nil, fmt.Errorf("expanding config path: %w", err)
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, p)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", p, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefaultConfig loads the file at DefaultConfigPath, falling back to
// defaults when there is none.
func LoadDefaultConfig() (*Config, error) {
	cfg, err := LoadConfigFile(DefaultConfigPath())
	if errors.Is(err, ErrConfigNotFound) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

// Validate rejects settings the components cannot run with.
func (c *Config) Validate() error {
	switch c.Page.Policy {
	case "", page.FailOpen, page.FailClosed:
	default:
		return fmt.Errorf("invalid page.policy %q: want %q or %q", c.Page.Policy, page.FailOpen, page.FailClosed)
	}
	if c.Cache.TTL < 0 || c.Cache.SweepInterval < 0 {
		return errors.New("cache durations must not be negative")
	}
	if strings.TrimSpace(c.Gateway.BaseURL) == "" {
		return errors.New("gateway.base_url is required")
	}
	return nil
}

// DatabasePath is the sqlite file inside DataDir.
func (c *Config) DatabasePath() (string, error) {
	dir, err := expandPath(c.DataDir)
	if err != nil {
		return "", fmt.Errorf("expanding data dir: %w", err)
	}
	return filepath.Join(dir, "activity.db"), nil
}

func expandPath(p string) (string, error) {
	if len(p) > 0 && p[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, p[1:]), nil
	}
	return p, nil
}
