package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewSet_Shapes(t *testing.T) {
	t.Parallel()
	s := NewSet()

	assert.Equal(t, "auth", s.Auth.Name())
	assert.Equal(t, 5, s.Auth.MaxTokens())
	assert.Equal(t, 30, s.API.MaxTokens())
	assert.Equal(t, 3, s.Strict.MaxTokens())
	assert.Len(t, s.All(), 3)
}

func TestStrictLimiter_RefillsOneTokenPerTwentySeconds(t *testing.T) {
	t.Parallel()
	clock := newClock()
	s := NewSet(WithClock(clock.Now))

	for i := 0; i < 3; i++ {
		assert.True(t, s.Strict.Check("x"))
	}
	assert.False(t, s.Strict.Check("x"))

	clock.Advance(19 * time.Second)
	assert.Equal(t, 0, s.Strict.Remaining("x"))
	clock.Advance(time.Second)
	assert.Equal(t, 1, s.Strict.Remaining("x"))
}

func TestSet_StartJanitors(t *testing.T) {
	t.Parallel()
	clock := newClock()
	s := NewSet(WithClock(clock.Now), WithStaleAfter(time.Second), WithSweepEvery(5*time.Millisecond))

	s.Auth.Check("a")
	s.API.Check("b")
	clock.Advance(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.StartJanitors(ctx)

	assert.Eventually(t, func() bool {
		return s.Auth.Len() == 0 && s.API.Len() == 0
	}, time.Second, 5*time.Millisecond)
}
