package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/listcache"
	"github.com/unkn0wn-root/listcache/provider/bigcache"
	"github.com/unkn0wn-root/listcache/provider/memory"
	"github.com/unkn0wn-root/listcache/provider/ristretto"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.Query.StaleTime)
	assert.Equal(t, 3, cfg.Query.RetryCount)
	assert.Equal(t, time.Second, cfg.Query.RetryDelay)
	assert.Equal(t, 25, cfg.Query.ItemsPerPage)
	assert.Equal(t, ProviderMemory, cfg.Store.Provider)
	assert.Equal(t, "default", cfg.Store.Namespace)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LC_STALE_TIME", "30s")
	t.Setenv("LC_RETRY_COUNT", "5")
	t.Setenv("LC_ITEMS_PER_PAGE", "10")
	t.Setenv("LC_PROVIDER", "ristretto")
	t.Setenv("LC_NAMESPACE", "app:prod")
	t.Setenv("LC_API_BASE_URL", "https://api.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Query.StaleTime)
	assert.Equal(t, 5, cfg.Query.RetryCount)
	assert.Equal(t, 10, cfg.Query.ItemsPerPage)
	assert.Equal(t, ProviderRistretto, cfg.Store.Provider)
	assert.Equal(t, "app:prod", cfg.Store.Namespace)
	assert.Equal(t, "https://api.example.com", cfg.APIBase)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("LC_PROVIDER", "memcached")
	t.Setenv("LC_ITEMS_PER_PAGE", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider "memcached"`)
	assert.Contains(t, err.Error(), "items per page")
}

func TestLoadFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listcache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
query:
  stale_time: 2m
  items_per_page: 50
store:
  provider: bigcache
  namespace: from-file
`), 0o600))
	t.Setenv("LC_NAMESPACE", "from-env")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.Query.StaleTime)
	assert.Equal(t, 50, cfg.Query.ItemsPerPage)
	assert.Equal(t, ProviderBigcache, cfg.Store.Provider)
	assert.Equal(t, "from-env", cfg.Store.Namespace)
}

func TestProviderSelection(t *testing.T) {
	ctx := context.Background()
	cfg, err := Load()
	require.NoError(t, err)

	p, err := cfg.Provider(ctx)
	require.NoError(t, err)
	assert.IsType(t, &memory.Memory{}, p)
	require.NoError(t, p.Close(ctx))

	cfg.Store.Provider = ProviderRistretto
	p, err = cfg.Provider(ctx)
	require.NoError(t, err)
	assert.IsType(t, &ristretto.Provider{}, p)
	require.NoError(t, p.Close(ctx))

	cfg.Store.Provider = ProviderBigcache
	p, err = cfg.Provider(ctx)
	require.NoError(t, err)
	assert.IsType(t, &bigcache.Provider{}, p)
	require.NoError(t, p.Close(ctx))

	cfg.Ristretto.MaxCost = 0
	cfg.Store.Provider = ProviderRistretto
	_, err = cfg.Provider(ctx)
	assert.ErrorIs(t, err, ristretto.ErrInvalidConfig)
}

func TestNewStoreUsesNamespace(t *testing.T) {
	ctx := context.Background()
	cfg, err := Load()
	require.NoError(t, err)
	cfg.Store.Namespace = "tenant-a"

	s, err := cfg.NewStore(ctx, nil, nil)
	require.NoError(t, err)
	defer s.Close(ctx)
	require.NoError(t, s.Set(ctx, "contacts-1", listcache.Entry{Timestamp: time.Now()}))
	assert.Equal(t, 1, s.Stats().Entries)
}

func TestApplyKeepsExplicitOptions(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	opts := listcache.Options[string]{ItemsPerPage: 100}
	Apply(cfg, &opts)
	assert.Equal(t, 100, opts.ItemsPerPage)
	assert.Equal(t, cfg.Query.StaleTime, opts.StaleTime)
	assert.Equal(t, cfg.Query.RetryCount, opts.RetryCount)
}

func TestUsageListsVariables(t *testing.T) {
	u := Usage()
	assert.Contains(t, u, "LC_PROVIDER")
	assert.Contains(t, u, "LC_REDIS_ADDR")
}
