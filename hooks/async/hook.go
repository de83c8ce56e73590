// Package asynchook moves listcache hook calls off the read path.
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{HitEvery: 100})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	q, _ := listcache.New(listcache.Options[Contact]{
//	    Resource: "contacts",
//	    Fetch:    fetchContacts,
//	    Hooks:    hooks, // or raw if you don't want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/listcache"
)

// Hooks forwards events to inner on a bounded queue. Events are dropped,
// never blocked on, when the queue is full.
type Hooks struct {
	inner   listcache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

var _ listcache.Hooks = (*Hooks)(nil)

func New(inner listcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for range workers {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events after Close are
// dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped reports events lost to a full queue or a closed hook.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) CacheHit(r, k string)  { h.try(func() { h.inner.CacheHit(r, k) }) }
func (h *Hooks) CacheMiss(r, k string) { h.try(func() { h.inner.CacheMiss(r, k) }) }
func (h *Hooks) FetchRetry(r string, attempt int, err error) {
	h.try(func() { h.inner.FetchRetry(r, attempt, err) })
}
func (h *Hooks) FetchFailed(r string, attempts int, err error) {
	h.try(func() { h.inner.FetchFailed(r, attempts, err) })
}
func (h *Hooks) ResponseDiscarded(r string, seq, latest uint64) {
	h.try(func() { h.inner.ResponseDiscarded(r, seq, latest) })
}
func (h *Hooks) TotalMismatch(r string, items, total int) {
	h.try(func() { h.inner.TotalMismatch(r, items, total) })
}
func (h *Hooks) Invalidated(p string, n int)   { h.try(func() { h.inner.Invalidated(p, n) }) }
func (h *Hooks) EntryCorrupt(k, reason string) { h.try(func() { h.inner.EntryCorrupt(k, reason) }) }
func (h *Hooks) ProviderSetRejected(k string)  { h.try(func() { h.inner.ProviderSetRejected(k) }) }
