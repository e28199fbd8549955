package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

var fivePerSecond = Config{MaxTokens: 5, RefillRate: 1, RefillInterval: time.Second}

func TestLimiter_BurstThenDenyThenRefill(t *testing.T) {
	t.Parallel()
	clock := newClock()
	l := New("test", fivePerSecond, WithClock(clock.Now))

	for i := 0; i < 5; i++ {
		require.True(t, l.Check("1.2.3.4"), "call %d", i+1)
		clock.Advance(100 * time.Millisecond)
	}
	assert.False(t, l.Check("1.2.3.4"), "6th call within the second")

	clock.Advance(time.Second)
	assert.True(t, l.Check("1.2.3.4"))
	assert.False(t, l.Check("1.2.3.4"))
}

func TestLimiter_IdentifiersAreIndependent(t *testing.T) {
	t.Parallel()
	clock := newClock()
	l := New("test", Config{MaxTokens: 1, RefillRate: 1}, WithClock(clock.Now))

	assert.True(t, l.Check("a"))
	assert.False(t, l.Check("a"))
	assert.True(t, l.Check("b"))
}

func TestLimiter_PartialIntervalsCarryOver(t *testing.T) {
	t.Parallel()
	clock := newClock()
	l := New("test", Config{MaxTokens: 1, RefillRate: 1, RefillInterval: time.Second}, WithClock(clock.Now))

	require.True(t, l.Check("x"))
	clock.Advance(600 * time.Millisecond)
	require.False(t, l.Check("x"))
	clock.Advance(600 * time.Millisecond)
	assert.True(t, l.Check("x"), "1.2s since the last refill must add a token")
}

func TestLimiter_FractionalRefill(t *testing.T) {
	t.Parallel()
	clock := newClock()
	l := New("auth", AuthConfig, WithClock(clock.Now))

	for i := 0; i < 5; i++ {
		require.True(t, l.Check("ip"))
	}
	require.False(t, l.Check("ip"))

	// One tenth of a token per second: nine seconds are not enough.
	for i := 0; i < 9; i++ {
		clock.Advance(time.Second)
		require.False(t, l.Check("ip"), "second %d", i+1)
	}
	clock.Advance(time.Second)
	assert.True(t, l.Check("ip"))
	assert.Equal(t, 0, l.Remaining("ip"))
}

func TestLimiter_RefillSaturatesAtMax(t *testing.T) {
	t.Parallel()
	clock := newClock()
	l := New("test", fivePerSecond, WithClock(clock.Now))

	require.True(t, l.Check("x"))
	clock.Advance(time.Hour)

	assert.Equal(t, 5, l.Remaining("x"))
	for i := 0; i < 5; i++ {
		require.True(t, l.Check("x"))
	}
	assert.False(t, l.Check("x"))
}

func TestLimiter_Remaining(t *testing.T) {
	t.Parallel()
	clock := newClock()
	l := New("test", fivePerSecond, WithClock(clock.Now))

	assert.Equal(t, 5, l.Remaining("new"), "unseen identifiers report capacity")

	l.Check("x")
	assert.Equal(t, 4, l.Remaining("x"))

	for i := 0; i < 10; i++ {
		l.Check("x")
	}
	assert.Equal(t, 0, l.Remaining("x"))

	clock.Advance(2 * time.Second)
	assert.Equal(t, 2, l.Remaining("x"))
	assert.Equal(t, 2, l.Remaining("x"), "remaining must not mutate state")

	clock.Advance(time.Hour)
	assert.Equal(t, 5, l.Remaining("x"))
}

func TestLimiter_RemainingStaysInBounds(t *testing.T) {
	t.Parallel()
	clock := newClock()
	l := New("test", Config{MaxTokens: 3, RefillRate: 0.5}, WithClock(clock.Now))

	steps := []time.Duration{0, 10 * time.Millisecond, time.Second, 3 * time.Second, 0, 0, 0, 0, 20 * time.Second, 0}
	for _, step := range steps {
		clock.Advance(step)
		l.Check("x")
		r := l.Remaining("x")
		assert.GreaterOrEqual(t, r, 0)
		assert.LessOrEqual(t, r, 3)
	}
}

func TestLimiter_Sweep(t *testing.T) {
	t.Parallel()
	clock := newClock()
	l := New("test", fivePerSecond, WithClock(clock.Now), WithStaleAfter(10*time.Minute))

	l.Check("idle")
	clock.Advance(9 * time.Minute)
	l.Check("busy")

	assert.Equal(t, 0, l.Sweep())
	assert.Equal(t, 2, l.Len())

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 1, l.Sweep())
	assert.Equal(t, 1, l.Len())

	// An evicted identifier starts over with a fresh bucket.
	assert.Equal(t, 5, l.Remaining("idle"))
}

func TestLimiter_StartJanitor(t *testing.T) {
	t.Parallel()
	clock := newClock()
	l := New("test", fivePerSecond,
		WithClock(clock.Now),
		WithStaleAfter(time.Minute),
		WithSweepEvery(5*time.Millisecond),
	)

	l.Check("x")
	clock.Advance(2 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l.StartJanitor(ctx)

	assert.Eventually(t, func() bool { return l.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestLimiter_ConcurrentChecksNeverExceedCapacity(t *testing.T) {
	t.Parallel()
	clock := newClock()
	l := New("test", Config{MaxTokens: 30, RefillRate: 1}, WithClock(clock.Now))

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if l.Check("shared") {
					allowed.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(30), allowed.Load())
	assert.Equal(t, 0, l.Remaining("shared"))
}

func TestNew_ClampsConfig(t *testing.T) {
	t.Parallel()
	l := New("zero", Config{})

	assert.Equal(t, 1, l.MaxTokens())
	assert.True(t, l.Check("x"))
	assert.False(t, l.Check("x"))
}
