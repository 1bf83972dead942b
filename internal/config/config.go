package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/StreetFDN/telegram-mcp/internal/domain"
)

type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	LogLevel string         `yaml:"log_level"`
	LogFile  string         `yaml:"log_file"`
}

type TelegramConfig struct {
	APIID   int    `yaml:"api_id"`
	APIHash string `yaml:"api_hash"`
	// Session is an optional persisted session token; with it set, login
	// reconnects without repeating phone/code verification.
	Session string `yaml:"session"`
}

func Dir() string {
	cfgDir, err := os.UserConfigDir()
	if err != nil {
		cfgDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(cfgDir, "telegram-mcp")
}

// Load reads the config file at path, then applies environment overrides.
// A missing file is not an error when the environment supplies complete
// credentials.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case os.IsNotExist(err):
		// Fall through to environment-only configuration.
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnv(&cfg)

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(Dir(), "telegram-mcp.log")
	}

	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TELEGRAM_API_ID"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			cfg.Telegram.APIID = id
		}
	}
	if v := os.Getenv("TELEGRAM_API_HASH"); v != "" {
		cfg.Telegram.APIHash = v
	}
	if v := os.Getenv("TELEGRAM_SESSION"); v != "" {
		cfg.Telegram.Session = v
	}
}

// Validate rejects unusable credentials. This is a terminal configuration
// error; nothing retries it.
func (c *Config) Validate() error {
	if c.Telegram.APIID <= 0 {
		return domain.NewError(domain.ErrInvalidCredentials, "api_id must be a positive integer")
	}
	if c.Telegram.APIHash == "" {
		return domain.NewError(domain.ErrInvalidCredentials, "api_hash is required")
	}
	return nil
}
