package cli

import (
	"context"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/PainterQubits/paramdb/pkg/errors"
	"github.com/PainterQubits/paramdb/pkg/store"
)

// defaultConfigFile is looked up in the working directory when --config is
// not given.
const defaultConfigFile = "paramdb.toml"

// Config selects the store backend and its connection settings.
type Config struct {
	Store StoreConfig `toml:"store"`
	Redis RedisConfig `toml:"redis"`
	Mongo MongoConfig `toml:"mongo"`
}

// StoreConfig selects the backend.
type StoreConfig struct {
	// Backend is one of "file", "redis", or "mongo".
	Backend string `toml:"backend"`
	// Path is the commit directory for the file backend.
	Path string `toml:"path"`
}

// RedisConfig carries redis backend settings.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// MongoConfig carries mongo backend settings.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// defaultConfig is used when no config file exists.
func defaultConfig() Config {
	return Config{Store: StoreConfig{Backend: "file", Path: "./params"}}
}

// loadConfig reads the config file named by --config, falling back to
// paramdb.toml in the working directory, falling back to defaults.
func (c *CLI) loadConfig() (Config, error) {
	path := c.configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err != nil {
			return defaultConfig(), nil
		}
		path = defaultConfigFile
	}
	return parseConfig(path)
}

func parseConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	switch cfg.Store.Backend {
	case "file", "redis", "mongo":
	default:
		return Config{}, errors.New(errors.ErrCodeInvalidInput,
			"unknown backend %q in %s (expected file, redis, or mongo)", cfg.Store.Backend, path)
	}
	return cfg, nil
}

// openBackend opens the backend the config selects.
func openBackend(ctx context.Context, cfg Config) (store.Backend, error) {
	switch cfg.Store.Backend {
	case "redis":
		return store.NewRedisBackend(ctx, store.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
	case "mongo":
		return store.NewMongoBackend(ctx, store.MongoConfig{
			URI:        cfg.Mongo.URI,
			Database:   cfg.Mongo.Database,
			Collection: cfg.Mongo.Collection,
		})
	default:
		return store.NewFileBackend(cfg.Store.Path)
	}
}
