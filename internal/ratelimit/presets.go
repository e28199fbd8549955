package ratelimit

import (
	"context"
	"time"
)

// Named limiter shapes.
var (
	// AuthConfig guards login and registration: burst 5, one token per 10s.
	AuthConfig = Config{MaxTokens: 5, RefillRate: 0.1, RefillInterval: time.Second}
	// APIConfig guards authenticated CRUD: burst 30, one token per second.
	APIConfig = Config{MaxTokens: 30, RefillRate: 1, RefillInterval: time.Second}
	// StrictConfig is reserved for sensitive operations: burst 3, one token per 20s.
	StrictConfig = Config{MaxTokens: 3, RefillRate: 0.05, RefillInterval: time.Second}
)

// Set holds the process-wide limiters. Build it once at startup and pass it
// to whatever needs it.
type Set struct {
	Auth   *Limiter
	API    *Limiter
	Strict *Limiter
}

// NewSet builds the three named limiters with shared options.
func NewSet(opts ...Option) *Set {
	return &Set{
		Auth:   New("auth", AuthConfig, opts...),
		API:    New("api", APIConfig, opts...),
		Strict: New("strict", StrictConfig, opts...),
	}
}

// StartJanitors starts the sweep loop of every limiter in the set.
func (s *Set) StartJanitors(ctx context.Context) {
	for _, l := range s.All() {
		l.StartJanitor(ctx)
	}
}

func (s *Set) All() []*Limiter {
	return []*Limiter{s.Auth, s.API, s.Strict}
}
