package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Decision is one admission outcome, recorded for observability only.
type Decision struct {
	Limiter    string
	Identifier string
	Allowed    bool
	At         time.Time
}

// Counts aggregates decisions for one limiter and identifier.
type Counts struct {
	Allowed int64
	Denied  int64
}

// StatsStore persists decision counters.
type StatsStore interface {
	Record(ctx context.Context, d Decision) error
}

const defaultStatsTTL = 24 * time.Hour

// MemoryStats keeps counters in process memory. Like the redis store, an
// entry expires ttl after its last decision; Sweep drops expired entries.
type MemoryStats struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	counts map[string]*statsEntry
}

type statsEntry struct {
	Counts
	lastSeen time.Time
}

// MemoryStatsOption customises a MemoryStats.
type MemoryStatsOption func(*MemoryStats)

// WithStatsClock replaces time.Now.
func WithStatsClock(now func() time.Time) MemoryStatsOption {
	return func(m *MemoryStats) { m.now = now }
}

// NewMemoryStats builds an empty store. A ttl <= 0 uses 24h.
func NewMemoryStats(ttl time.Duration, opts ...MemoryStatsOption) *MemoryStats {
	if ttl <= 0 {
		ttl = defaultStatsTTL
	}
	m := &MemoryStats{
		ttl:    ttl,
		now:    time.Now,
		counts: make(map[string]*statsEntry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemoryStats) Record(_ context.Context, d Decision) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	key := statsKey(d.Limiter, d.Identifier)
	e, ok := m.counts[key]
	if !ok || m.expired(e, now) {
		e = &statsEntry{}
		m.counts[key] = e
	}
	if d.Allowed {
		e.Allowed++
	} else {
		e.Denied++
	}
	e.lastSeen = now
	return nil
}

func (m *MemoryStats) Get(limiter, identifier string) Counts {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.counts[statsKey(limiter, identifier)]
	if !ok || m.expired(e, m.now()) {
		return Counts{}
	}
	return e.Counts
}

// Sweep removes expired entries and returns how many were dropped.
func (m *MemoryStats) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for key, e := range m.counts {
		if m.expired(e, now) {
			delete(m.counts, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired ones included.
func (m *MemoryStats) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.counts)
}

// StartJanitor runs Sweep every period until ctx is done.
func (m *MemoryStats) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = defaultSweepEvery
	}
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Sweep()
			}
		}
	}()
}

func (m *MemoryStats) expired(e *statsEntry, now time.Time) bool {
	return now.Sub(e.lastSeen) > m.ttl
}

func statsKey(limiter, identifier string) string {
	return limiter + "\x00" + identifier
}
