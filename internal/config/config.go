package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/finora-dev/finora/internal/money"
)

// FileName is the config file looked up in the working directory.
const FileName = "finora.yaml"

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DiscordTokenEnv holds the bot token for Discord notifications.
const DiscordTokenEnv = "FINORA_DISCORD_TOKEN"

// Config represents the top-level finora.yaml configuration.
type Config struct {
	Owner         OwnerConfig         `yaml:"owner"`
	Currency      string              `yaml:"currency"`
	Store         StoreConfig         `yaml:"store"`
	Notifications NotificationsConfig `yaml:"notifications"`
}

// OwnerConfig is the identity signed in when the CLI starts.
type OwnerConfig struct {
	UID         string `yaml:"uid"`
	DisplayName string `yaml:"display_name"`
}

// StoreConfig selects the ledger store. Path is used by the sqlite driver;
// postgres reads its connection settings from POSTGRES_* variables.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path,omitempty"`
}

// NotificationsConfig controls where mutation notifications go.
type NotificationsConfig struct {
	Enabled        bool   `yaml:"enabled"`
	LogFile        string `yaml:"log_file"`
	DiscordChannel string `yaml:"discord_channel,omitempty"`
}

// Load reads a finora.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new ledger.
func Default(uid, displayName string) *Config {
	return &Config{
		Owner: OwnerConfig{
			UID:         uid,
			DisplayName: displayName,
		},
		Currency: money.DefaultCurrency,
		Store: StoreConfig{
			Driver: DriverSQLite,
			Path:   "finora.db",
		},
		Notifications: NotificationsConfig{
			Enabled: true,
			LogFile: "notifications.csv",
		},
	}
}

// Validate checks the driver and currency.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.Path == "" {
			return errors.New("store.path is required for the sqlite driver")
		}
	case DriverPostgres:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if !money.Known(c.Currency) {
		return fmt.Errorf("unknown currency %q", c.Currency)
	}
	return nil
}

// Resolve returns p relative to dir unless it is absolute.
func Resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// LoadEnv loads dir/.env into the environment without overriding variables
// that are already set. A missing file is not an error.
func LoadEnv(dir string) error {
	err := godotenv.Load(filepath.Join(dir, ".env"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// DiscordToken returns the Discord bot token from the environment.
func DiscordToken() string {
	return strings.TrimSpace(os.Getenv(DiscordTokenEnv))
}
