// Command listcache reads one page of a REST list resource through a cached
// query and prints the resulting state as JSON.
//
//	listcache -resource contacts -page 2 -param status=ACTIVE
//	listcache -config listcache.yaml -resource budgets -repeat 3
//	listcache -usage
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/listcache"
	"github.com/unkn0wn-root/listcache/config"
	"github.com/unkn0wn-root/listcache/hooks/prom"
	lczap "github.com/unkn0wn-root/listcache/log/zap"
	"github.com/unkn0wn-root/listcache/restfetch"
	"github.com/unkn0wn-root/listcache/tracing"
)

type paramFlag listcache.Params

func (p paramFlag) String() string { return fmt.Sprint(listcache.Params(p)) }

func (p paramFlag) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok || k == "" {
		return fmt.Errorf("param %q: want key=value", s)
	}
	p[k] = v
	return nil
}

type output struct {
	Resource        string           `json:"resource"`
	Items           []map[string]any `json:"items"`
	Total           int              `json:"total"`
	Page            int              `json:"page"`
	ItemsPerPage    int              `json:"itemsPerPage"`
	TotalPages      int              `json:"totalPages"`
	HasNextPage     bool             `json:"hasNextPage"`
	HasPreviousPage bool             `json:"hasPreviousPage"`
	Status          string           `json:"status"`
	Error           string           `json:"error,omitempty"`
	Store           listcache.Stats  `json:"store"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "listcache:", err)
		os.Exit(1)
	}
}

func run() error {
	params := paramFlag{}
	resource := flag.String("resource", "", "resource to read, e.g. contacts")
	page := flag.Int("page", 1, "page to read")
	limit := flag.Int("limit", 0, "items per page (0 = config)")
	repeat := flag.Int("repeat", 1, "read the page this many times (shows cache hits)")
	invalidate := flag.Bool("invalidate", false, "invalidate the resource before reading")
	cfgFile := flag.String("config", "", "optional yaml/toml/json/env config file")
	metricsAddr := flag.String("metrics", "", "serve prometheus metrics on this address while running")
	usage := flag.Bool("usage", false, "print environment variables and exit")
	flag.Var(params, "param", "request param key=value (repeatable)")
	flag.Parse()

	if *usage {
		fmt.Print(config.Usage())
		return nil
	}
	if *resource == "" {
		return errors.New("-resource is required")
	}

	cfg, err := loadConfig(*cfgFile)
	if err != nil {
		return err
	}

	zl, err := newZap(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()
	logger := lczap.New(zl)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	hooks := prom.New(reg)
	if *metricsAddr != "" {
		srv := &http.Server{
			Addr:              *metricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zl.Error("metrics server", zap.Error(err))
			}
		}()
		defer srv.Close()
	}

	store, err := cfg.NewStore(ctx, logger, hooks)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	fetch, err := restfetch.New[map[string]any](restfetch.Config{
		BaseURL: cfg.APIBase,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}, *resource)
	if err != nil {
		return err
	}

	opts := listcache.Options[map[string]any]{
		Resource:      *resource,
		Fetch:         tracing.WrapFetch(tracing.Config{}, *resource, fetch),
		Store:         store,
		InitialParams: listcache.Params(params),
		ItemsPerPage:  *limit,
		Logger:        logger,
		Hooks:         hooks,
		Notifier: listcache.NotifierFunc(func(_ context.Context, n listcache.Notification) {
			zl.Warn(n.Title, zap.String("resource", n.Resource), zap.String("description", n.Description), zap.Error(n.Err))
		}),
	}
	config.Apply(cfg, &opts)

	q, err := listcache.New(opts)
	if err != nil {
		return err
	}
	defer q.Close()

	if *invalidate {
		if err := q.InvalidateCache(ctx); err != nil {
			zl.Warn("invalidate", zap.Error(err))
		}
	}

	for i := 0; i < max(*repeat, 1); i++ {
		if i == 0 && *page != 1 {
			err = q.SetPage(ctx, *page)
		} else {
			err = q.Load(ctx)
		}
		if err != nil {
			return err
		}
	}

	st := q.State()
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(output{
		Resource:        *resource,
		Items:           st.Items,
		Total:           st.Total,
		Page:            st.Page,
		ItemsPerPage:    st.ItemsPerPage,
		TotalPages:      st.TotalPages,
		HasNextPage:     st.HasNextPage,
		HasPreviousPage: st.HasPreviousPage,
		Status:          st.Status.String(),
		Error:           st.Error,
		Store:           store.Stats(),
	})
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func newZap(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}
