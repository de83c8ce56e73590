// Package prom exports listcache events as Prometheus counters.
//
//	h := prom.New(prometheus.DefaultRegisterer)
//	q, _ := listcache.New(listcache.Options[Contact]{..., Hooks: h})
package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/listcache"
)

const namespace = "listcache"

type Hooks struct {
	hits       *prometheus.CounterVec
	misses     *prometheus.CounterVec
	retries    *prometheus.CounterVec
	failures   *prometheus.CounterVec
	discarded  *prometheus.CounterVec
	mismatches *prometheus.CounterVec
	removed    prometheus.Counter
	corrupt    *prometheus.CounterVec
	rejected   prometheus.Counter
}

var _ listcache.Hooks = (*Hooks)(nil)

// New registers the counters with reg. A nil reg leaves them unregistered.
// Registering twice on the same registry panics, as with any collector.
func New(reg prometheus.Registerer) *Hooks {
	byResource := func(name, help string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, []string{"resource"})
	}
	h := &Hooks{
		hits:       byResource("cache_hits_total", "Reads served from a fresh entry."),
		misses:     byResource("cache_misses_total", "Reads that needed a fetch."),
		retries:    byResource("fetch_retries_total", "Failed fetch attempts that were retried."),
		failures:   byResource("fetch_failures_total", "Reads that failed after every attempt."),
		discarded:  byResource("responses_discarded_total", "Reads superseded before they resolved."),
		mismatches: byResource("total_mismatches_total", "Pages whose total was below their item count."),
		removed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalidated_entries_total",
			Help:      "Entries removed by prefix invalidation.",
		}),
		corrupt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "corrupt_entries_total",
			Help:      "Entries dropped on read.",
		}, []string{"reason"}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_set_rejected_total",
			Help:      "Writes the provider refused.",
		}),
	}
	if reg != nil {
		reg.MustRegister(h.collectors()...)
	}
	return h
}

func (h *Hooks) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		h.hits, h.misses, h.retries, h.failures, h.discarded,
		h.mismatches, h.removed, h.corrupt, h.rejected,
	}
}

func (h *Hooks) CacheHit(resource, _ string)  { h.hits.WithLabelValues(resource).Inc() }
func (h *Hooks) CacheMiss(resource, _ string) { h.misses.WithLabelValues(resource).Inc() }
func (h *Hooks) FetchRetry(resource string, _ int, _ error) {
	h.retries.WithLabelValues(resource).Inc()
}
func (h *Hooks) FetchFailed(resource string, _ int, _ error) {
	h.failures.WithLabelValues(resource).Inc()
}
func (h *Hooks) ResponseDiscarded(resource string, _, _ uint64) {
	h.discarded.WithLabelValues(resource).Inc()
}
func (h *Hooks) TotalMismatch(resource string, _, _ int) {
	h.mismatches.WithLabelValues(resource).Inc()
}
func (h *Hooks) Invalidated(_ string, removed int) { h.removed.Add(float64(removed)) }
func (h *Hooks) EntryCorrupt(_, reason string)     { h.corrupt.WithLabelValues(reason).Inc() }
func (h *Hooks) ProviderSetRejected(string)        { h.rejected.Inc() }
