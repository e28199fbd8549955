// Package ratelimit implements per-identifier token buckets with lazy
// refill and age-based eviction. State lives in process memory.
package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Tokens are tracked in thousandths so fractional refill rates such as 0.1
// add up exactly.
const tokenScale = 1000

const (
	defaultRefillInterval = time.Second
	defaultSweepEvery     = 5 * time.Minute
	defaultStaleAfter     = 10 * time.Minute
)

// Checker is the admission interface used by HTTP middleware.
type Checker interface {
	Check(identifier string) bool
	Remaining(identifier string) int
}

// Config describes one bucket shape.
type Config struct {
	// MaxTokens is the burst capacity.
	MaxTokens int
	// RefillRate is added once per whole elapsed RefillInterval.
	RefillRate float64
	// RefillInterval defaults to one second.
	RefillInterval time.Duration
}

type bucket struct {
	tokens     int64
	lastRefill time.Time
}

// Limiter is a token-bucket limiter keyed by client identifier.
type Limiter struct {
	name       string
	maxTokens  int
	max        int64
	refill     int64
	interval   time.Duration
	sweepEvery time.Duration
	staleAfter time.Duration
	now        func() time.Time
	log        zerolog.Logger

	mu      sync.Mutex
	buckets map[string]*bucket
}

type Option func(*Limiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithSweepEvery sets how often the janitor runs Sweep.
func WithSweepEvery(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.sweepEvery = d
		}
	}
}

// WithStaleAfter sets the idle age after which a bucket is evicted.
func WithStaleAfter(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.staleAfter = d
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(l *Limiter) { l.log = log }
}

// New builds a limiter. MaxTokens below one is raised to one.
func New(name string, cfg Config, opts ...Option) *Limiter {
	if cfg.MaxTokens < 1 {
		cfg.MaxTokens = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = defaultRefillInterval
	}
	refill := int64(math.Round(cfg.RefillRate * tokenScale))
	if refill < 0 {
		refill = 0
	}

	l := &Limiter{
		name:       name,
		maxTokens:  cfg.MaxTokens,
		max:        int64(cfg.MaxTokens) * tokenScale,
		refill:     refill,
		interval:   cfg.RefillInterval,
		sweepEvery: defaultSweepEvery,
		staleAfter: defaultStaleAfter,
		now:        time.Now,
		log:        zerolog.Nop(),
		buckets:    make(map[string]*bucket),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Limiter) Name() string { return l.name }

// MaxTokens returns the burst capacity.
func (l *Limiter) MaxTokens() int { return l.maxTokens }

// Check consumes one token for identifier and reports whether the request
// is admitted. The first request from an identifier is always admitted.
func (l *Limiter) Check(identifier string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[identifier]
	if !ok {
		l.buckets[identifier] = &bucket{tokens: l.max - tokenScale, lastRefill: now}
		return true
	}

	// The refill clock only moves when at least one whole interval has
	// elapsed, so partial intervals carry over to the next call.
	if add := l.refillAmount(b, now); add > 0 {
		b.tokens = min(l.max, b.tokens+add)
		b.lastRefill = now
	}

	if b.tokens >= tokenScale {
		b.tokens -= tokenScale
		return true
	}
	return false
}

// Remaining returns the whole tokens the next Check would see, without
// changing any state. Unknown identifiers report the full capacity.
func (l *Limiter) Remaining(identifier string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[identifier]
	if !ok {
		return l.maxTokens
	}

	tokens := b.tokens
	if add := l.refillAmount(b, l.now()); add > 0 {
		tokens = min(l.max, tokens+add)
	}
	return int(tokens / tokenScale)
}

func (l *Limiter) refillAmount(b *bucket, now time.Time) int64 {
	elapsed := now.Sub(b.lastRefill)
	if elapsed < l.interval {
		return 0
	}
	return int64(elapsed/l.interval) * l.refill
}

// Sweep evicts buckets whose last refill is older than the staleness
// window and returns how many were removed.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for id, b := range l.buckets {
		if now.Sub(b.lastRefill) > l.staleAfter {
			delete(l.buckets, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked identifiers.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// StartJanitor runs Sweep every sweep period until ctx is done.
func (l *Limiter) StartJanitor(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(l.sweepEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := l.Sweep(); n > 0 {
					l.log.Debug().
						Str("limiter", l.name).
						Int("evicted", n).
						Int("tracked", l.Len()).
						Msg("rate limit buckets swept")
				}
			}
		}
	}()
}
