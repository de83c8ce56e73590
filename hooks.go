package listcache

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking; wrap slow sinks with
// hooks/async.
type Hooks interface {
	// A fresh entry served a read; no fetch happened.
	CacheHit(resource, key string)
	// No usable entry (missing, stale or undecodable); a fetch follows.
	CacheMiss(resource, key string)

	// A fetch attempt failed and will be retried. attempt is 1-based.
	FetchRetry(resource string, attempt int, err error)
	// All attempts failed; the consumer now shows an error.
	FetchFailed(resource string, attempts int, err error)

	// A read resolved after a newer one was issued on the same query and
	// was not applied to its state.
	ResponseDiscarded(resource string, seq, latest uint64)

	// The fetch returned a total smaller than the page or negative.
	// The value is trusted anyway.
	TotalMismatch(resource string, items, total int)

	// Prefix invalidation finished. removed counts deleted entries.
	Invalidated(prefix string, removed int)

	// An entry was deleted by the store on read.
	// reason ∈ {"wire", "decode"}
	EntryCorrupt(key, reason string)

	// Provider returned ok=false on Set (backpressure/admission).
	ProviderSetRejected(key string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) CacheHit(string, string)                  {}
func (NopHooks) CacheMiss(string, string)                 {}
func (NopHooks) FetchRetry(string, int, error)            {}
func (NopHooks) FetchFailed(string, int, error)           {}
func (NopHooks) ResponseDiscarded(string, uint64, uint64) {}
func (NopHooks) TotalMismatch(string, int, int)           {}
func (NopHooks) Invalidated(string, int)                  {}
func (NopHooks) EntryCorrupt(string, string)              {}
func (NopHooks) ProviderSetRejected(string)               {}
