package listcache

import (
	"context"
	"errors"
	"maps"
	"reflect"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	c "github.com/unkn0wn-root/listcache/codec"
	"github.com/unkn0wn-root/listcache/internal/util"
	"github.com/unkn0wn-root/listcache/retry"
)

// Query is one consumer of a resource: it owns page, page size and params,
// and the state derived from the last applied read. Safe for concurrent use.
//
// Every trigger (Load, Refetch, SetPage, SetItemsPerPage, SetParams) issues a
// new sequence number; a read is applied only while its number is the latest,
// so a slow response can never overwrite a newer one.
type Query[T any] struct {
	resource   string
	fetch      FetchFunc[T]
	store      *Store
	ownStore   bool
	codec      c.Codec[[]T]
	staleTime  time.Duration
	retryCount int
	retryDelay time.Duration
	disabled   bool
	log        Logger
	hooks      Hooks
	notifier   Notifier
	now        func() time.Time

	// lifetime; cancelled by Close
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	closed  bool
	seq     uint64
	page    int
	perPage int
	params  Params
	items   []T
	total   int
	loading bool
	errMsg  string
	err     error
	status  Status
}

// fetched is what a shared (singleflight) load hands to every waiter.
type fetched[T any] struct {
	page     Page[T]
	attempts int
}

func newQuery[T any](opts Options[T]) *Query[T] {
	q := &Query[T]{
		resource:   opts.Resource,
		fetch:      opts.Fetch,
		store:      opts.Store,
		codec:      opts.Codec,
		disabled:   opts.Disabled,
		now:        opts.Now,
		page:       1,
		params:     mergeParams(nil, opts.InitialParams),
		status:     StatusIdle,
		staleTime:  coalesce(opts.StaleTime, DefaultStaleTime),
		retryCount: coalesce(opts.RetryCount, DefaultRetryCount),
		retryDelay: coalesce(opts.RetryDelay, DefaultRetryDelay),
		perPage:    coalesce(opts.ItemsPerPage, DefaultItemsPerPage),
	}
	q.log = coalesce[Logger](opts.Logger, NopLogger{})
	q.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	q.notifier = coalesce[Notifier](opts.Notifier, NopNotifier{})
	if q.codec == nil {
		q.codec = c.JSON[[]T]{}
	}
	if q.now == nil {
		q.now = time.Now
	}
	if q.store == nil {
		q.store = NewStore(StoreOptions{Logger: q.log, Hooks: q.hooks})
		q.ownStore = true
	}
	q.ctx, q.cancel = context.WithCancel(context.Background())
	return q
}

// Load runs the read path for the current page; the first call is the
// initial load of a consumer.
func (q *Query[T]) Load(ctx context.Context) error {
	return q.trigger(ctx, false, nil)
}

// Refetch fetches the current page bypassing freshness and overwrites its
// entry. A non-empty override is merged into the params and kept for later
// reads, not applied to this fetch only; if it changes the params the page
// goes back to 1.
func (q *Query[T]) Refetch(ctx context.Context, override Params) error {
	return q.trigger(ctx, true, func() error {
		if len(override) == 0 {
			return nil
		}
		merged := mergeParams(q.params, override)
		if !reflect.DeepEqual(merged, q.params) {
			q.params = merged
			q.page = 1
		}
		return nil
	})
}

// SetPage moves to page. Pages past the last one are accepted and simply
// read an empty page.
func (q *Query[T]) SetPage(ctx context.Context, page int) error {
	if page < 1 {
		return ErrInvalidPage
	}
	return q.trigger(ctx, false, func() error {
		q.page = page
		return nil
	})
}

// SetItemsPerPage changes the page size and goes back to page 1.
func (q *Query[T]) SetItemsPerPage(ctx context.Context, n int) error {
	if n <= 0 {
		return ErrInvalidPageSize
	}
	return q.trigger(ctx, false, func() error {
		q.perPage = n
		q.page = 1
		return nil
	})
}

// SetParams shallow-merges partial into the params and goes back to page 1.
func (q *Query[T]) SetParams(ctx context.Context, partial Params) error {
	return q.trigger(ctx, false, func() error {
		q.params = mergeParams(q.params, partial)
		q.page = 1
		return nil
	})
}

// InvalidateCache removes every entry of this resource (all pages, all
// params) from the store. Idempotent.
func (q *Query[T]) InvalidateCache(ctx context.Context) error {
	n, err := q.store.DeleteByPrefix(ctx, q.resource)
	q.log.Debug("invalidated resource", Fields{"resource": q.resource, "removed": n})
	return err
}

// State returns a snapshot with derived pagination.
func (q *Query[T]) State() State[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	tp := TotalPages(q.total, q.perPage)
	return State[T]{
		Items:           slices.Clone(q.items),
		Total:           q.total,
		Page:            q.page,
		ItemsPerPage:    q.perPage,
		Params:          maps.Clone(q.params),
		Loading:         q.loading,
		Error:           q.errMsg,
		Err:             q.err,
		Status:          q.status,
		TotalPages:      tp,
		HasNextPage:     HasNextPage(q.page, tp),
		HasPreviousPage: HasPreviousPage(q.page),
	}
}

// Close tears the consumer down: in-flight fetches are cancelled, late
// responses ignored and further triggers fail with ErrClosed. A private
// store is closed too.
func (q *Query[T]) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	q.loading = false
	q.mu.Unlock()

	q.cancel()
	if q.ownStore {
		return q.store.Close(context.Background())
	}
	return nil
}

// trigger applies mutate and issues a read under one lock so the read sees
// exactly the state the mutation produced.
func (q *Query[T]) trigger(ctx context.Context, force bool, mutate func() error) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	if mutate != nil {
		if err := mutate(); err != nil {
			q.mu.Unlock()
			return err
		}
	}
	q.seq++
	seq := q.seq
	params := q.requestParams()
	q.mu.Unlock()

	q.read(ctx, seq, params, force)
	return nil
}

// requestParams must be called with q.mu held.
func (q *Query[T]) requestParams() Params {
	p := make(Params, len(q.params)+2)
	maps.Copy(p, q.params)
	p["page"] = q.page
	p["limit"] = q.perPage
	return p
}

func (q *Query[T]) read(ctx context.Context, seq uint64, params Params, force bool) {
	key, err := util.QueryKey(q.resource, params)
	if err != nil {
		q.fail(ctx, seq, &FetchError{Resource: q.resource, Err: err})
		return
	}

	ctx, cancel := q.bind(ctx)
	defer cancel()

	if !force && !q.disabled {
		if page, ok := q.cached(ctx, key); ok {
			q.hooks.CacheHit(q.resource, key)
			q.log.Debug("cache hit", Fields{"resource": q.resource, "key": key})
			q.apply(seq, page)
			return
		}
		q.hooks.CacheMiss(q.resource, key)
		q.log.Debug("cache miss", Fields{"resource": q.resource, "key": key})
	}

	q.begin(seq)
	page, attempts, err := q.load(ctx, key, params, force)
	if err != nil {
		if ctx.Err() != nil && isContextErr(err) {
			q.abandon(seq)
			return
		}
		q.fail(ctx, seq, &FetchError{Resource: q.resource, Attempts: attempts, Err: err})
		return
	}
	q.apply(seq, page)
}

// bind derives a context cancelled by either the caller or Close.
func (q *Query[T]) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(q.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// cached returns a fresh, decodable entry for key.
func (q *Query[T]) cached(ctx context.Context, key string) (Page[T], bool) {
	e, ok, err := q.store.Get(ctx, key)
	if err != nil {
		q.log.Warn("store read failed", Fields{"resource": q.resource, "key": key, "err": err})
		return Page[T]{}, false
	}
	if !ok || q.now().Sub(e.Timestamp) >= q.staleTime {
		return Page[T]{}, false
	}
	items, err := q.codec.Decode(e.Payload)
	if err != nil {
		_ = q.store.Delete(ctx, key) // self-heal
		q.hooks.EntryCorrupt(key, "decode")
		q.log.Warn("dropped undecodable entry", Fields{"resource": q.resource, "key": key, "err": err})
		return Page[T]{}, false
	}
	return Page[T]{Items: items, Total: e.Total}, true
}

// load fetches key. Plain reads of the same key from queries sharing the
// store are collapsed into one fetch; forced reads always go to the source.
// A query waiting on another query's fetch still stops when its own ctx is
// done.
func (q *Query[T]) load(ctx context.Context, key string, params Params, force bool) (Page[T], int, error) {
	started := q.now()
	if force || q.disabled {
		return q.fetchAndStore(ctx, key, params, started)
	}

	ch := q.store.group.DoChan(key, func() (any, error) {
		page, n, err := q.fetchAndStore(ctx, key, params, started)
		return fetched[T]{page: page, attempts: n}, err
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return Page[T]{}, 0, ctx.Err()
	}

	r, typed := res.Val.(fetched[T])
	switch {
	case res.Err != nil && res.Shared && isContextErr(res.Err) && ctx.Err() == nil:
		// the leader was cancelled, not us
		return q.fetchAndStore(ctx, key, params, started)
	case res.Err != nil:
		return Page[T]{}, r.attempts, res.Err
	case typed:
		return r.page, r.attempts, nil
	}
	// joined a load for another item type under the same key
	if page, ok := q.cached(ctx, key); ok {
		return page, 0, nil
	}
	return q.fetchAndStore(ctx, key, params, started)
}

func (q *Query[T]) fetchAndStore(ctx context.Context, key string, params Params, started time.Time) (Page[T], int, error) {
	cfg := retry.Config{
		Attempts: q.retryCount,
		Delay:    q.retryDelay,
		OnRetry: func(attempt int, err error) {
			q.hooks.FetchRetry(q.resource, attempt, err)
			q.log.Warn("fetch attempt failed, retrying", Fields{
				"resource": q.resource, "attempt": attempt, "delay": q.retryDelay.String(), "err": err,
			})
		},
	}
	page, n, err := retry.Do(ctx, cfg, func(ctx context.Context) (Page[T], error) {
		return q.fetch(ctx, maps.Clone(params))
	})
	if err != nil {
		return Page[T]{}, n, err
	}

	if page.Total < 0 || page.Total < len(page.Items) {
		q.hooks.TotalMismatch(q.resource, len(page.Items), page.Total)
		q.log.Warn("total inconsistent with page", Fields{
			"resource": q.resource, "items": len(page.Items), "total": page.Total,
		})
	}

	if !q.disabled {
		q.storePage(ctx, key, params, page, started)
	}
	return page, n, nil
}

// storePage is best effort: a page that cannot be cached is still shown.
// The entry is stamped with the time the read started, and an entry written
// by a read that started later is left in place.
func (q *Query[T]) storePage(ctx context.Context, key string, params Params, page Page[T], started time.Time) {
	if cur, ok, err := q.store.Get(ctx, key); err == nil && ok && cur.Timestamp.After(started) {
		q.log.Debug("newer entry in store, skipping write", Fields{"resource": q.resource, "key": key})
		return
	}
	payload, err := q.codec.Encode(page.Items)
	if err != nil {
		q.log.Warn("encode page failed", Fields{"resource": q.resource, "key": key, "err": err})
		return
	}
	pb, err := util.CanonicalJSON(params)
	if err != nil {
		q.log.Warn("encode params failed", Fields{"resource": q.resource, "key": key, "err": err})
		return
	}
	e := Entry{Payload: payload, Total: page.Total, Timestamp: started, Params: pb}
	if err := q.store.Set(ctx, key, e); err != nil {
		q.log.Warn("store write failed", Fields{"resource": q.resource, "key": key, "err": err})
	}
}

func (q *Query[T]) begin(seq uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if seq != q.seq || q.closed {
		return
	}
	q.loading = true
	q.errMsg = ""
	q.err = nil
	q.status = StatusLoading
}

func (q *Query[T]) apply(seq uint64, page Page[T]) {
	q.mu.Lock()
	latest := q.seq
	if seq != latest || q.closed {
		q.mu.Unlock()
		q.hooks.ResponseDiscarded(q.resource, seq, latest)
		return
	}
	q.items = page.Items
	q.total = page.Total
	q.loading = false
	q.errMsg = ""
	q.err = nil
	q.status = StatusSuccess
	q.mu.Unlock()
}

// fail records err and notifies, leaving the previous items and total in
// place.
func (q *Query[T]) fail(ctx context.Context, seq uint64, err *FetchError) {
	q.hooks.FetchFailed(q.resource, err.Attempts, err.Err)
	q.log.Error("fetch failed", Fields{"resource": q.resource, "attempts": err.Attempts, "err": err.Err})

	q.mu.Lock()
	latest := q.seq
	if seq != latest || q.closed {
		q.mu.Unlock()
		q.hooks.ResponseDiscarded(q.resource, seq, latest)
		return
	}
	q.loading = false
	q.errMsg = message(err)
	q.err = err
	q.status = StatusFailure
	q.mu.Unlock()

	q.notifier.Notify(ctx, Notification{
		Resource:    q.resource,
		Title:       failureTitle,
		Description: failureDescription,
		Variant:     VariantDestructive,
		Err:         err,
	})
}

// abandon ends a read cancelled by its caller or by Close. Nothing is
// recorded; the consumer keeps what it had.
func (q *Query[T]) abandon(seq uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if seq != q.seq || q.closed {
		return
	}
	q.loading = false
	if q.status == StatusLoading {
		q.status = StatusIdle
	}
}

func mergeParams(dst, src Params) Params {
	out := make(Params, len(dst)+len(src))
	maps.Copy(out, dst)
	for k, v := range src {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
