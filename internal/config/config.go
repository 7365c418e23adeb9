// Package config loads the service configuration from a YAML file with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/matthewbaird/signify/internal/logging"
)

// Store and cache drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"

	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Store  StoreConfig  `yaml:"store"`
	Cache  CacheConfig  `yaml:"cache"`
	Bus    BusConfig    `yaml:"bus"`
	Seed   SeedConfig   `yaml:"seed"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type CacheConfig struct {
	Driver   string        `yaml:"driver"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type BusConfig struct {
	Buffer int `yaml:"buffer"`
}

type SeedConfig struct {
	Demo bool `yaml:"demo"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{Port: 8080, ShutdownTimeout: 10 * time.Second},
		Log:    LogConfig{Level: "info", Format: "json"},
		Store:  StoreConfig{Driver: StoreMemory},
		Cache:  CacheConfig{Driver: CacheMemory, Addr: "localhost:6379", TTL: 5 * time.Minute},
		Bus:    BusConfig{Buffer: 256},
		Seed:   SeedConfig{Demo: true},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("loading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("loading config: %w", err)
		}
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return Config{}, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("SIGNIFY_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SIGNIFY_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := getenv("SIGNIFY_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("SIGNIFY_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := getenv("SIGNIFY_STORE_DRIVER"); v != "" {
		c.Store.Driver = v
	}
	if v := getenv("SIGNIFY_STORE_DSN"); v != "" {
		c.Store.DSN = v
	}
	if v := getenv("SIGNIFY_CACHE_DRIVER"); v != "" {
		c.Cache.Driver = v
	}
	if v := getenv("SIGNIFY_REDIS_ADDR"); v != "" {
		c.Cache.Addr = v
	}
	if v := getenv("SIGNIFY_REDIS_PASSWORD"); v != "" {
		c.Cache.Password = v
	}
	if v := getenv("SIGNIFY_REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SIGNIFY_REDIS_DB: %w", err)
		}
		c.Cache.DB = db
	}
	return nil
}

// Validate rejects unknown drivers and levels and out-of-range numbers.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server shutdown_timeout must not be negative")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}

	switch c.Store.Driver {
	case StoreMemory:
	case StoreSQLite:
		if strings.TrimSpace(c.Store.DSN) == "" {
			return fmt.Errorf("store dsn is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	switch c.Cache.Driver {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if strings.TrimSpace(c.Cache.Addr) == "" {
			return fmt.Errorf("cache addr is required for the redis driver")
		}
	default:
		return fmt.Errorf("unknown cache driver %q", c.Cache.Driver)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl must not be negative")
	}
	if c.Bus.Buffer < 0 {
		return fmt.Errorf("bus buffer must not be negative")
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
