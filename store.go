package listcache

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/unkn0wn-root/listcache/internal/wire"
	pr "github.com/unkn0wn-root/listcache/provider"
	"github.com/unkn0wn-root/listcache/provider/memory"
)

// Entry is one cached page. Written whole and never mutated; a newer fetch
// replaces it.
type Entry struct {
	Payload   []byte // codec-encoded items
	Total     int
	Timestamp time.Time
	Params    []byte // canonical JSON of the request params
}

// SetCostFunc computes the provider cost of a stored entry. Default: len(raw).
type SetCostFunc func(key string, raw []byte) int64

type StoreOptions struct {
	Provider    pr.Provider   // nil => provider/memory
	Namespace   string        // keyspace isolation on shared providers; "" => "default". ":" and "%" are escaped
	Retention   time.Duration // TTL passed to the provider; 0 => keep until invalidated
	ComputeCost SetCostFunc
	Logger      Logger
	Hooks       Hooks
}

type Stats struct {
	Entries int
	Keys    []string // cache keys (without namespace), sorted
	Bytes   int64    // encoded size of indexed entries
}

// Store maps cache keys to entries. One store is normally shared by every
// query of a process; tests build isolated ones. Safe for concurrent use.
//
// The store remembers the keys it wrote (and keys it read from a shared
// provider) so prefix deletes and stats work on providers that cannot
// enumerate their contents.
type Store struct {
	prefix    string
	provider  pr.Provider
	retention time.Duration
	cost      SetCostFunc
	log       Logger
	hooks     Hooks

	mu    sync.Mutex
	index map[string]int // cache key -> encoded size

	group singleflight.Group
}

// nsEscaper keeps ":" out of the namespace so "a" is never a prefix of "a:b".
var nsEscaper = strings.NewReplacer("%", "%25", ":", "%3A")

func NewStore(opts StoreOptions) *Store {
	s := &Store{
		prefix:    "lc:" + nsEscaper.Replace(coalesce(opts.Namespace, DefaultNamespace)) + ":",
		provider:  opts.Provider,
		retention: opts.Retention,
		cost:      opts.ComputeCost,
		index:     make(map[string]int),
	}
	if s.provider == nil {
		s.provider = memory.New()
	}
	if s.cost == nil {
		s.cost = func(_ string, raw []byte) int64 { return int64(len(raw)) }
	}
	s.log = coalesce[Logger](opts.Logger, NopLogger{})
	s.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	return s
}

// NewMemoryStore returns an isolated in-process store.
func NewMemoryStore() *Store { return NewStore(StoreOptions{}) }

func (s *Store) storageKey(key string) string { return s.prefix + key }

// Get returns the entry for key without judging freshness.
// Corrupt entries are deleted and reported as a miss.
func (s *Store) Get(ctx context.Context, key string) (Entry, bool, error) {
	sk := s.storageKey(key)
	raw, ok, err := s.provider.Get(ctx, sk)
	if err != nil {
		return Entry{}, false, fmt.Errorf("listcache: store get: %w", err)
	}
	if !ok {
		s.forget(key)
		return Entry{}, false, nil
	}

	we, err := wire.DecodeEntry(raw)
	if err != nil || we.Total > math.MaxInt {
		_ = s.provider.Del(ctx, sk) // self-heal corrupt
		s.forget(key)
		s.hooks.EntryCorrupt(key, "wire")
		s.log.Warn("dropped corrupt entry", Fields{"key": key})
		return Entry{}, false, nil
	}
	s.remember(key, len(raw))

	return Entry{
		Payload:   we.Payload,
		Total:     int(we.Total),
		Timestamp: time.Unix(0, we.Timestamp),
		Params:    we.Params,
	}, true, nil
}

func (s *Store) Set(ctx context.Context, key string, e Entry) error {
	if e.Total < 0 {
		return fmt.Errorf("listcache: store set %q: negative total %d", key, e.Total)
	}
	sk := s.storageKey(key)
	raw := wire.EncodeEntry(wire.Entry{
		Timestamp: e.Timestamp.UnixNano(),
		Total:     uint64(e.Total),
		Params:    e.Params,
		Payload:   e.Payload,
	})
	ok, err := s.provider.Set(ctx, sk, raw, s.cost(sk, raw), s.retention)
	if err != nil {
		return fmt.Errorf("listcache: store set: %w", err)
	}
	if !ok {
		s.hooks.ProviderSetRejected(key)
		s.log.Debug("Set rejected by provider (pressure)", Fields{"key": key})
		return nil
	}
	s.remember(key, len(raw))
	return nil
}

// Delete removes one entry. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.forget(key)
	if err := s.provider.Del(ctx, s.storageKey(key)); err != nil {
		return fmt.Errorf("listcache: store delete: %w", err)
	}
	return nil
}

// DeleteByPrefix removes every entry whose cache key starts with prefix and
// returns how many were removed. Idempotent; an empty prefix clears the
// namespace.
func (s *Store) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	s.mu.Lock()
	var keys []string
	for k := range s.index {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
			delete(s.index, k)
		}
	}
	s.mu.Unlock()

	var errs []error
	removed := 0
	if pd, ok := s.provider.(pr.PrefixDeleter); ok {
		n, err := pd.DeleteByPrefix(ctx, s.storageKey(prefix))
		if err == nil {
			s.hooks.Invalidated(prefix, n)
			return n, nil
		}
		// fall back to the keys we know about
		errs = append(errs, err)
	}

	for _, k := range keys {
		if err := s.provider.Del(ctx, s.storageKey(k)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", k, err))
			continue
		}
		removed++
	}

	s.hooks.Invalidated(prefix, removed)
	if len(errs) > 0 {
		return removed, &InvalidateError{Prefix: prefix, Removed: removed, Errs: errs}
	}
	return removed, nil
}

// Clear removes every entry of the namespace.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.DeleteByPrefix(ctx, "")
	return err
}

// Stats reports what this process knows about. Entries written by other
// processes to a shared provider show up once they have been read here.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{Entries: len(s.index), Keys: make([]string, 0, len(s.index))}
	for k, n := range s.index {
		st.Keys = append(st.Keys, k)
		st.Bytes += int64(n)
	}
	sort.Strings(st.Keys)
	return st
}

func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	s.index = make(map[string]int)
	s.mu.Unlock()
	return s.provider.Close(ctx)
}

func (s *Store) remember(key string, size int) {
	s.mu.Lock()
	s.index[key] = size
	s.mu.Unlock()
}

func (s *Store) forget(key string) {
	s.mu.Lock()
	delete(s.index, key)
	s.mu.Unlock()
}
