// Package config reads listcache settings from the environment (and
// optionally a yaml/toml/json/env file) and builds the matching provider
// and store.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/listcache"
	"github.com/unkn0wn-root/listcache/provider"
	"github.com/unkn0wn-root/listcache/provider/bigcache"
	"github.com/unkn0wn-root/listcache/provider/memory"
	"github.com/unkn0wn-root/listcache/provider/redis"
	"github.com/unkn0wn-root/listcache/provider/ristretto"
)

const (
	ProviderMemory    = "memory"
	ProviderRistretto = "ristretto"
	ProviderBigcache  = "bigcache"
	ProviderRedis     = "redis"
)

type Query struct {
	StaleTime    time.Duration `env:"LC_STALE_TIME" env-default:"5m" yaml:"stale_time"`
	RetryCount   int           `env:"LC_RETRY_COUNT" env-default:"3" yaml:"retry_count"`
	RetryDelay   time.Duration `env:"LC_RETRY_DELAY" env-default:"1s" yaml:"retry_delay"`
	ItemsPerPage int           `env:"LC_ITEMS_PER_PAGE" env-default:"25" yaml:"items_per_page"`
}

type Store struct {
	Provider  string        `env:"LC_PROVIDER" env-default:"memory" yaml:"provider"`
	Namespace string        `env:"LC_NAMESPACE" env-default:"default" yaml:"namespace"`
	Retention time.Duration `env:"LC_RETENTION" env-default:"0" yaml:"retention"`
}

type Redis struct {
	Addr      string `env:"LC_REDIS_ADDR" env-default:"localhost:6379" yaml:"addr"`
	Password  string `env:"LC_REDIS_PASSWORD" yaml:"password"`
	DB        int    `env:"LC_REDIS_DB" env-default:"0" yaml:"db"`
	ScanCount int64  `env:"LC_REDIS_SCAN_COUNT" env-default:"256" yaml:"scan_count"`
}

type Ristretto struct {
	NumCounters int64 `env:"LC_RISTRETTO_NUM_COUNTERS" env-default:"100000" yaml:"num_counters"`
	MaxCost     int64 `env:"LC_RISTRETTO_MAX_COST" env-default:"67108864" yaml:"max_cost"`
	BufferItems int64 `env:"LC_RISTRETTO_BUFFER_ITEMS" env-default:"64" yaml:"buffer_items"`
}

type Bigcache struct {
	LifeWindow  time.Duration `env:"LC_BIGCACHE_LIFE_WINDOW" env-default:"10m" yaml:"life_window"`
	CleanWindow time.Duration `env:"LC_BIGCACHE_CLEAN_WINDOW" env-default:"1m" yaml:"clean_window"`
	Shards      int           `env:"LC_BIGCACHE_SHARDS" env-default:"64" yaml:"shards"`
	HardMaxMB   int           `env:"LC_BIGCACHE_HARD_MAX_MB" env-default:"0" yaml:"hard_max_mb"`
}

type Config struct {
	Query     Query     `yaml:"query"`
	Store     Store     `yaml:"store"`
	Redis     Redis     `yaml:"redis"`
	Ristretto Ristretto `yaml:"ristretto"`
	Bigcache  Bigcache  `yaml:"bigcache"`

	LogLevel string `env:"LC_LOG_LEVEL" env-default:"info" yaml:"log_level"`
	APIBase  string `env:"LC_API_BASE_URL" env-default:"http://localhost:8080" yaml:"api_base_url"`
}

// Load reads the environment. Unset variables take their defaults.
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: read env: %w", err)
	}
	return cfg, cfg.Validate()
}

// LoadFile reads path, then lets the environment override it.
func LoadFile(path string) (Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	switch c.Store.Provider {
	case ProviderMemory, ProviderRistretto, ProviderBigcache, ProviderRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q", c.Store.Provider))
	}
	if c.Query.RetryCount < 1 {
		errs = append(errs, errors.New("retry count must be >= 1"))
	}
	if c.Query.ItemsPerPage < 1 {
		errs = append(errs, errors.New("items per page must be >= 1"))
	}
	if c.Store.Retention < 0 {
		errs = append(errs, errors.New("retention must be >= 0"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Usage describes every environment variable.
func Usage() string {
	var b strings.Builder
	cleanenv.FUsage(&b, &Config{}, nil)()
	return b.String()
}

// Provider opens the configured byte store. The caller owns it.
func (c Config) Provider(ctx context.Context) (provider.Provider, error) {
	switch c.Store.Provider {
	case ProviderRistretto:
		p, err := ristretto.New(ristretto.Config{
			NumCounters: c.Ristretto.NumCounters,
			MaxCost:     c.Ristretto.MaxCost,
			BufferItems: c.Ristretto.BufferItems,
		})
		if err != nil {
			return nil, fmt.Errorf("config: ristretto: %w", err)
		}
		return p, nil
	case ProviderBigcache:
		p, err := bigcache.New(ctx, bigcache.Config{
			LifeWindow:         c.Bigcache.LifeWindow,
			CleanWindow:        c.Bigcache.CleanWindow,
			Shards:             c.Bigcache.Shards,
			HardMaxCacheSizeMB: c.Bigcache.HardMaxMB,
		})
		if err != nil {
			return nil, fmt.Errorf("config: bigcache: %w", err)
		}
		return p, nil
	case ProviderRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("config: redis %s: %w", c.Redis.Addr, err)
		}
		p, err := redis.New(redis.Config{Client: client, CloseClient: true, ScanCount: c.Redis.ScanCount})
		if err != nil {
			return nil, err
		}
		return p, nil
	case ProviderMemory, "":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("config: unknown provider %q", c.Store.Provider)
	}
}

// NewStore opens the provider and wraps it in a store.
func (c Config) NewStore(ctx context.Context, log listcache.Logger, hooks listcache.Hooks) (*listcache.Store, error) {
	p, err := c.Provider(ctx)
	if err != nil {
		return nil, err
	}
	return listcache.NewStore(listcache.StoreOptions{
		Provider:  p,
		Namespace: c.Store.Namespace,
		Retention: c.Store.Retention,
		Logger:    log,
		Hooks:     hooks,
	}), nil
}

// Apply copies the query settings onto opts where opts leaves them unset.
func Apply[T any](c Config, opts *listcache.Options[T]) {
	if opts.StaleTime == 0 {
		opts.StaleTime = c.Query.StaleTime
	}
	if opts.RetryCount == 0 {
		opts.RetryCount = c.Query.RetryCount
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = c.Query.RetryDelay
	}
	if opts.ItemsPerPage == 0 {
		opts.ItemsPerPage = c.Query.ItemsPerPage
	}
}
