// Package config loads the formflow server configuration from YAML with
// environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formflow/pkg/validation"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "formflow.yml"

	defaultPort      = 8383
	defaultEnv       = "development"
	defaultLogLevel  = "info"
	defaultMongoDB   = "formflow"
	defaultCacheTTL  = 10 * time.Minute
	defaultMySQLHost = "127.0.0.1"
	defaultMySQLPort = 3306
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverMySQL  = "mysql"
	DriverMongo  = "mongo"
)

// Config holds runtime startup configuration.
type Config struct {
	Port           int               `yaml:"port"`
	Env            string            `yaml:"env"`
	LogLevel       string            `yaml:"log_level"`
	AllowedOrigins []string          `yaml:"allowed_origins"`
	SchemasDir     string            `yaml:"schemas_dir"`
	Limits         validation.Limits `yaml:"limits"`
	Store          StoreConfig       `yaml:"store"`
	Cache          CacheConfig       `yaml:"cache"`
	Assets         AssetsConfig      `yaml:"assets"`
	Theme          ThemeConfig       `yaml:"theme"`
}

// StoreConfig selects and configures the schema store.
type StoreConfig struct {
	Driver string      `yaml:"driver"`
	MySQL  MySQLConfig `yaml:"mysql"`
	Mongo  MongoConfig `yaml:"mongo"`
}

// MongoConfig configures the document store.
type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// CacheConfig enables the Redis read-through cache when RedisURL is set.
type CacheConfig struct {
	RedisURL string        `yaml:"redis_url"`
	TTL      time.Duration `yaml:"ttl"`
	Prefix   string        `yaml:"prefix"`
}

// AssetsConfig controls how the browser runtime is delivered.
type AssetsConfig struct {
	// Prefix links runtime assets from this URL prefix instead of inlining
	// them into every form.
	Prefix string `yaml:"prefix"`
	Minify bool   `yaml:"minify"`
}

// IsDev reports whether the server runs in development mode.
func (c *Config) IsDev() bool {
	return c.Env != "production"
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Port:     defaultPort,
		Env:      defaultEnv,
		LogLevel: defaultLogLevel,
		Limits:   validation.DefaultLimits(),
		Store: StoreConfig{
			Driver: DriverMemory,
			MySQL: MySQLConfig{
				Host:        defaultMySQLHost,
				Port:        defaultMySQLPort,
				AutoMigrate: true,
			},
			Mongo: MongoConfig{Database: defaultMongoDB},
		},
		Cache:  CacheConfig{TTL: defaultCacheTTL},
		Assets: AssetsConfig{Minify: true},
	}
}

// Load reads path, applies environment overrides and validates the result.
// A missing file at the default path yields the defaults; a missing file at
// an explicit path is an error.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = DefaultConfigPath
	}

	cfg := Default()
	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(content, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	return &cfg, nil
}

// Parse decodes YAML content over the defaults without reading the
// environment.
func Parse(content []byte) (*Config, error) {
	cfg := Default()
	if err := decode(content, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decode(content []byte, cfg *Config) error {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil
	}
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	return decoder.Decode(cfg)
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("FORMFLOW_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid FORMFLOW_PORT %q: %w", v, err)
		}
		cfg.Port = port
	}
	if v, ok := get("FORMFLOW_ENV"); ok {
		cfg.Env = v
	}
	if v, ok := get("FORMFLOW_LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := get("FORMFLOW_ALLOWED_ORIGINS"); ok {
		cfg.AllowedOrigins = normalizeOrigins(strings.Split(v, ","))
	}
	if v, ok := get("FORMFLOW_SCHEMAS_DIR"); ok {
		cfg.SchemasDir = v
	}
	if v, ok := get("FORMFLOW_STORE_DRIVER"); ok {
		cfg.Store.Driver = v
	}
	if v, ok := get("FORMFLOW_MYSQL_DSN"); ok {
		cfg.Store.MySQL.DSN = v
	}
	if v, ok := get("FORMFLOW_MONGO_URI"); ok {
		cfg.Store.Mongo.URI = v
	}
	if v, ok := get("FORMFLOW_REDIS_URL"); ok {
		cfg.Cache.RedisURL = v
	}
	if v, ok := get("FORMFLOW_CACHE_TTL"); ok {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid FORMFLOW_CACHE_TTL %q: %w", v, err)
		}
		cfg.Cache.TTL = ttl
	}
	if v, ok := get("FORMFLOW_ASSET_PREFIX"); ok {
		cfg.Assets.Prefix = v
	}
	return nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d, expected 1-65535", c.Port)
	}
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case "":
		c.Store.Driver = DriverMemory
	case DriverMemory:
	case DriverMySQL:
		if _, err := c.Store.MySQL.DSNValue(); err != nil {
			return err
		}
	case DriverMongo:
		if strings.TrimSpace(c.Store.Mongo.URI) == "" {
			return errors.New("store.mongo.uri is required for the mongo driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q, expected memory, mysql or mongo", c.Store.Driver)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("invalid cache.ttl %s, expected >= 0", c.Cache.TTL)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	c.AllowedOrigins = normalizeOrigins(c.AllowedOrigins)
	return nil
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	seen := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "" {
			continue
		}
		if _, ok := seen[origin]; ok {
			continue
		}
		seen[origin] = struct{}{}
		out = append(out, origin)
	}
	return out
}
