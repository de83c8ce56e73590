package asynchook

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/unkn0wn-root/listcache"
)

type counting struct {
	listcache.NopHooks
	mu    sync.Mutex
	hits  int
	fails int
	block chan struct{}
}

func (c *counting) CacheHit(string, string) {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
}

func (c *counting) FetchFailed(string, int, error) {
	c.mu.Lock()
	c.fails++
	c.mu.Unlock()
}

func TestForwardsAndDrainsOnClose(t *testing.T) {
	inner := &counting{}
	h := New(inner, 2, 64)

	for range 10 {
		h.CacheHit("contacts", "k")
	}
	h.FetchFailed("contacts", 3, nil)
	h.Close()

	assert.Equal(t, 10, inner.hits)
	assert.Equal(t, 1, inner.fails)
	assert.Zero(t, h.Dropped())
}

func TestDropsWhenFull(t *testing.T) {
	inner := &counting{block: make(chan struct{})}
	h := New(inner, 1, 1)

	// one event held by the worker, at most one queued; the rest drop
	for range 10 {
		h.CacheHit("contacts", "k")
	}
	close(inner.block)
	h.Close()

	assert.Equal(t, uint64(10), uint64(inner.hits)+h.Dropped())
	assert.GreaterOrEqual(t, h.Dropped(), uint64(8))
}

func TestEventsAfterCloseAreDropped(t *testing.T) {
	inner := &counting{}
	h := New(inner, 1, 4)
	h.Close()
	h.Close()

	h.CacheHit("contacts", "k")
	assert.Equal(t, uint64(1), h.Dropped())
	assert.Zero(t, inner.hits)
}
