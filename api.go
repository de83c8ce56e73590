package listcache

import (
	"context"
	"errors"
	"time"

	c "github.com/unkn0wn-root/listcache/codec"
)

// Params are opaque request parameters (filters, sort, search...). Merges are
// shallow; a nil value removes the key.
type Params map[string]any

// Page is one fetch result: a page of items and the unbounded total count.
type Page[T any] struct {
	Items []T `json:"data"`
	Total int `json:"total"`
}

// FetchFunc loads one page. p always carries "page" and "limit" on top of the
// caller's params. It must honour ctx; the query cancels it on Close.
type FetchFunc[T any] func(ctx context.Context, p Params) (Page[T], error)

// Options tune a Query. Only Resource and Fetch are required.
type Options[T any] struct {
	// Required
	Resource string // key root and invalidation prefix. e.g. "contacts", "budgets"
	Fetch    FetchFunc[T]

	Store         *Store           // shared store; nil => a private memory store closed with the query
	Codec         c.Codec[[]T]     // nil => codec.JSON
	InitialParams Params           // copied
	StaleTime     time.Duration    // 0 => 5m; negative => every read fetches
	RetryCount    int              // attempts in total; 0 => 3
	RetryDelay    time.Duration    // fixed pause between attempts; 0 => 1s, negative => none
	ItemsPerPage  int              // 0 => 25
	Disabled      bool             // bypass the store entirely
	Logger        Logger           // if nil, NopLogger is used
	Hooks         Hooks            // if nil, NopHooks is used
	Notifier      Notifier         // if nil, NopNotifier is used
	Now           func() time.Time // clock; nil => time.Now
}

func New[T any](opts Options[T]) (*Query[T], error) {
	if opts.Resource == "" {
		return nil, errors.New("listcache: resource is required")
	}
	if opts.Fetch == nil {
		return nil, errors.New("listcache: fetch func is required")
	}
	if opts.ItemsPerPage < 0 {
		return nil, ErrInvalidPageSize
	}
	if opts.RetryCount < 0 {
		return nil, errors.New("listcache: retry count must be >= 0")
	}
	return newQuery(opts), nil
}
