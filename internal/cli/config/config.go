package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/conduit-lang/assetimport/internal/metastore"
	"github.com/conduit-lang/assetimport/internal/optcache"
	"github.com/conduit-lang/assetimport/internal/pipeline"
	"github.com/conduit-lang/assetimport/pkg/core"
)

// FileName is the config file looked up in the working directory, without
// its extension.
const FileName = "assetimport"

// EnvPrefix prefixes environment overrides, e.g. ASSETIMPORT_STORE_DRIVER.
const EnvPrefix = "ASSETIMPORT"

// Cache backends
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config represents the assetimport configuration
type Config struct {
	SourceDir   string      `mapstructure:"source_dir"`
	Workers     int         `mapstructure:"workers"`
	Force       bool        `mapstructure:"force"`
	Compression string      `mapstructure:"compression"`
	Store       StoreConfig `mapstructure:"store"`
	Cache       CacheConfig `mapstructure:"cache"`
	Log         LogConfig   `mapstructure:"log"`
}

// StoreConfig selects the metadata store
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// CacheConfig selects the options/state cache
type CacheConfig struct {
	Backend    string        `mapstructure:"backend"`
	RedisAddr  string        `mapstructure:"redis_addr"`
	Prefix     string        `mapstructure:"prefix"`
	TTL        time.Duration `mapstructure:"ttl"`
	MaxEntries int           `mapstructure:"max_entries"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("source_dir", "assets")
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("force", false)
	v.SetDefault("compression", core.CompressionNone.String())
	v.SetDefault("store.driver", metastore.DriverFile)
	v.SetDefault("store.dsn", "")
	v.SetDefault("cache.backend", CacheNone)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.prefix", optcache.DefaultConfig().Prefix)
	v.SetDefault("cache.ttl", "0s")
	v.SetDefault("cache.max_entries", optcache.DefaultMaxEntries)
	v.SetDefault("log.level", "warn")

	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load loads the configuration from assetimport.yml or assetimport.yaml in
// the working directory. A missing file means defaults.
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName(FileName)
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return decode(v)
}

// LoadFile loads the configuration from an explicit path, which must exist.
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// FindConfigFile walks up from dir looking for assetimport.yml or
// assetimport.yaml.
func FindConfigFile(dir string) (string, error) {
	for {
		for _, ext := range []string{".yml", ".yaml"} {
			candidate := filepath.Join(dir, FileName+ext)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s.yml found", FileName)
		}
		dir = parent
	}
}

// CompressionType returns the parsed artifact compression.
func (c *Config) CompressionType() core.CompressionType {
	// validated in Load
	ct, _ := core.ParseCompressionType(c.Compression)
	return ct
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() zapcore.Level {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// PipelineOptions maps the config onto pipeline options.
func (c *Config) PipelineOptions() pipeline.Options {
	opts := pipeline.DefaultOptions()
	if c.Workers > 0 {
		opts.Workers = c.Workers
	}
	opts.Force = c.Force
	opts.Compression = c.CompressionType()
	return opts
}

// OpenStore opens the configured metadata store.
func (c *Config) OpenStore() (metastore.Store, error) {
	return metastore.Open(c.Store.Driver, c.Store.DSN)
}

// OpenCache connects the configured options cache. It returns nil when
// caching is disabled.
func (c *Config) OpenCache() (*optcache.OptionsCache, error) {
	cacheConfig := optcache.Config{
		DefaultTTL: c.Cache.TTL,
		Prefix:     c.Cache.Prefix,
		MaxEntries: c.Cache.MaxEntries,
	}
	if cacheConfig.DefaultTTL == 0 {
		cacheConfig.DefaultTTL = -1
	}

	switch c.Cache.Backend {
	case CacheMemory:
		return optcache.NewOptionsCache(optcache.NewMemoryCacheWithConfig(cacheConfig)), nil
	case CacheRedis:
		redisConfig := optcache.DefaultRedisConfig()
		redisConfig.Addr = c.Cache.RedisAddr
		redisConfig.Cache = cacheConfig
		backend, err := optcache.NewRedisCacheWithConfig(redisConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", c.Cache.RedisAddr, err)
		}
		return optcache.NewOptionsCache(backend), nil
	default:
		return nil, nil
	}
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got: %d", cfg.Workers)
	}

	if _, err := core.ParseCompressionType(cfg.Compression); err != nil {
		return fmt.Errorf("invalid compression: %w", err)
	}

	switch cfg.Store.Driver {
	case metastore.DriverFile:
	case metastore.DriverSQLite, metastore.DriverPostgres:
		if cfg.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the %s driver", cfg.Store.Driver)
		}
	default:
		return fmt.Errorf("store.driver must be one of file, sqlite3, pgx, got: %s", cfg.Store.Driver)
	}

	switch cfg.Cache.Backend {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if cfg.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend must be one of none, memory, redis, got: %s", cfg.Cache.Backend)
	}

	if cfg.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache.max_entries must not be negative, got: %d", cfg.Cache.MaxEntries)
	}

	if cfg.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got: %s", cfg.Cache.TTL)
	}

	if _, err := zapcore.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level: %w", err)
	}

	return nil
}
