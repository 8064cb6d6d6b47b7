// Package config loads the coinfolio.toml configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Storage struct {
		Driver string `toml:"driver"` // sqlite or postgres
		DSN    string `toml:"dsn"`
	} `toml:"storage"`

	Oracle struct {
		BaseURL    string            `toml:"base_url"`
		APIKey     string            `toml:"api_key"`
		TimeoutSec int               `toml:"timeout_sec"`
		Symbols    map[string]string `toml:"symbols"` // extra symbol -> coingecko id
	} `toml:"oracle"`

	Cache struct {
		Enabled  bool   `toml:"enabled"`
		Addr     string `toml:"addr"`
		Password string `toml:"password"`
		DB       int    `toml:"db"`
		Prefix   string `toml:"prefix"`
		TTLSec   int    `toml:"ttl_sec"`
	} `toml:"cache"`

	Server struct {
		Addr          string `toml:"addr"`
		PollEverySec  int    `toml:"poll_every_sec"`
		AllowedOrigin string `toml:"allowed_origin"`
	} `toml:"server"`

	Log struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"log"`

	Assist struct {
		Model string `toml:"model"`
	} `toml:"assist"`
}

// Load reads the file at path, which may not exist, then applies defaults, environment overrides and validation.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("could not read config %q: %w", path, err)
		}
	}
	ApplyDefaults(&cfg)
	ApplyEnv(&cfg, os.Getenv)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func ApplyDefaults(cfg *Config) {
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.DSN == "" && cfg.Storage.Driver == "sqlite" {
		cfg.Storage.DSN = "portfolio.db"
	}
	if cfg.Oracle.BaseURL == "" {
		cfg.Oracle.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if cfg.Oracle.TimeoutSec <= 0 {
		cfg.Oracle.TimeoutSec = 10
	}
	if cfg.Cache.Addr == "" {
		cfg.Cache.Addr = "localhost:6379"
	}
	if cfg.Cache.Prefix == "" {
		cfg.Cache.Prefix = "coinfolio"
	}
	if cfg.Cache.TTLSec <= 0 {
		cfg.Cache.TTLSec = 60
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":4000"
	}
	if cfg.Server.PollEverySec <= 0 {
		cfg.Server.PollEverySec = 30
	}
	if cfg.Server.AllowedOrigin == "" {
		cfg.Server.AllowedOrigin = "*"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Assist.Model == "" {
		cfg.Assist.Model = "gemini-2.5-flash"
	}
}

// ApplyEnv overrides cfg with the environment, read through getenv.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if v := strings.TrimSpace(getenv("CFL_DB_DRIVER")); v != "" {
		cfg.Storage.Driver = v
	}
	if v := strings.TrimSpace(getenv("CFL_DB_DSN")); v != "" {
		cfg.Storage.DSN = v
	}
	if v := strings.TrimSpace(getenv("COINGECKO_API_KEY")); v != "" {
		cfg.Oracle.APIKey = v
	}
	if v := strings.TrimSpace(getenv("PORT")); v != "" {
		cfg.Server.Addr = ":" + v
	}
	if v := strings.TrimSpace(getenv("CFL_LOG_LEVEL")); v != "" {
		cfg.Log.Level = v
	}
}

func Validate(cfg *Config) error {
	var errs []error
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	switch cfg.Storage.Driver {
	case "sqlite", "postgres", "pgx":
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is neither sqlite nor postgres", cfg.Storage.Driver))
	}
	if strings.TrimSpace(cfg.Storage.DSN) == "" {
		errs = append(errs, errors.New("storage.dsn is empty"))
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is neither console nor json", cfg.Log.Format))
	}
	cfg.Oracle.Symbols = normalizeSymbols(cfg.Oracle.Symbols)
	return errors.Join(errs...)
}

// normalizeSymbols upper cases symbols and drops empty entries.
func normalizeSymbols(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for symbol, id := range in {
		s := strings.ToUpper(strings.TrimSpace(symbol))
		id = strings.TrimSpace(id)
		if s == "" || id == "" {
			continue
		}
		out[s] = id
	}
	return out
}

// Timeout returns the oracle request timeout.
func (c *Config) Timeout() time.Duration { return time.Duration(c.Oracle.TimeoutSec) * time.Second }

// CacheTTL returns how long cached prices live.
func (c *Config) CacheTTL() time.Duration { return time.Duration(c.Cache.TTLSec) * time.Second }

// PollEvery returns the period of the server valuation refresh.
func (c *Config) PollEvery() time.Duration { return time.Duration(c.Server.PollEverySec) * time.Second }
