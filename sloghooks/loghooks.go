// Package sloghooks reports listcache events through log/slog.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/listcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	HitEvery  uint64
	MissEvery uint64
	// Optional key redactor. Cache keys embed request params (search terms,
	// ids). Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	hitCtr  atomic.Uint64
	missCtr atomic.Uint64
}

var _ listcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) CacheHit(resource, key string) {
	if h.l == nil || !sample(h.opts.HitEvery, &h.hitCtr) {
		return
	}
	h.l.Debug("listcache.cache_hit",
		"resource", resource,
		"key", h.redact(key))
}

func (h *Hooks) CacheMiss(resource, key string) {
	if h.l == nil || !sample(h.opts.MissEvery, &h.missCtr) {
		return
	}
	h.l.Debug("listcache.cache_miss",
		"resource", resource,
		"key", h.redact(key))
}

func (h *Hooks) FetchRetry(resource string, attempt int, err error) {
	if h.l == nil {
		return
	}
	h.l.Info("listcache.fetch_retry",
		"resource", resource,
		"attempt", attempt,
		"err", err)
}

func (h *Hooks) FetchFailed(resource string, attempts int, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("listcache.fetch_failed",
		"resource", resource,
		"attempts", attempts,
		"err", err)
}

func (h *Hooks) ResponseDiscarded(resource string, seq, latest uint64) {
	if h.l == nil {
		return
	}
	h.l.Debug("listcache.response_discarded",
		"resource", resource,
		"seq", seq,
		"latest", latest)
}

func (h *Hooks) TotalMismatch(resource string, items, total int) {
	if h.l == nil {
		return
	}
	h.l.Warn("listcache.total_mismatch",
		"resource", resource,
		"items", items,
		"total", total)
}

func (h *Hooks) Invalidated(prefix string, removed int) {
	if h.l == nil {
		return
	}
	h.l.Info("listcache.invalidated",
		"prefix", prefix,
		"removed", removed)
}

func (h *Hooks) EntryCorrupt(key, reason string) {
	if h.l == nil {
		return
	}
	h.l.Warn("listcache.entry_corrupt",
		"key", h.redact(key),
		"reason", reason)
}

func (h *Hooks) ProviderSetRejected(key string) {
	if h.l == nil {
		return
	}
	h.l.Warn("listcache.provider_set_rejected",
		"key", h.redact(key))
}
