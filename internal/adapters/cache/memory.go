package cache

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Cache metrics
	// Note: cacheHits uses no labels to avoid allocation overhead on the hot path
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlement_cache_hits_total",
		Help: "Total number of aggregate cache hits",
	})

	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_cache_misses_total",
		Help: "Total number of aggregate cache misses",
	}, []string{"reason"}) // expired, not_found

	cacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "settlement_cache_size",
		Help: "Current number of entries in the aggregate cache",
	})

	cacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlement_cache_evictions_total",
		Help: "Total number of cache evictions due to size limit",
	})
)

// entry stores a cached value with expiration
type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process TTL cache for aggregate results. Expired entries
// are dropped lazily on read and swept whenever an insert pushes the map
// past maxSize; when the sweep is not enough the entries closest to expiry
// go first.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	maxSize int
	now     func() time.Time
}

// NewMemory creates an in-process cache holding at most maxSize entries.
// maxSize <= 0 means unbounded.
func NewMemory(maxSize int) *Memory {
	return &Memory{
		entries: make(map[string]entry),
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Get returns the cached value and true on a hit
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		cacheMisses.WithLabelValues("not_found").Inc()
		return nil, false, nil
	}

	if m.now().After(e.expiresAt) {
		m.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have refreshed it
		if cur, ok := m.entries[key]; ok && m.now().After(cur.expiresAt) {
			delete(m.entries, key)
			cacheSize.Set(float64(len(m.entries)))
		}
		m.mu.Unlock()

		cacheMisses.WithLabelValues("expired").Inc()
		return nil, false, nil
	}

	cacheHits.Inc()
	return e.value, true, nil
}

// Set stores value under key for at most ttl
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = entry{value: value, expiresAt: m.now().Add(ttl)}

	if m.maxSize > 0 && len(m.entries) > m.maxSize {
		m.evictLocked()
	}
	cacheSize.Set(float64(len(m.entries)))

	return nil
}

// Delete evicts a key. Deleting an absent key is not an error.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	cacheSize.Set(float64(len(m.entries)))
	m.mu.Unlock()

	return nil
}

// evictLocked brings the map back under maxSize. Expired entries go first,
// then the entries closest to expiry. Caller holds the write lock.
func (m *Memory) evictLocked() {
	now := m.now()
	for key, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, key)
			cacheEvictions.Inc()
		}
	}

	for len(m.entries) > m.maxSize {
		var (
			oldestKey string
			oldestAt  time.Time
			first     = true
		)
		for key, e := range m.entries {
			if first || e.expiresAt.Before(oldestAt) {
				oldestKey = key
				oldestAt = e.expiresAt
				first = false
			}
		}
		delete(m.entries, oldestKey)
		cacheEvictions.Inc()
	}
}
