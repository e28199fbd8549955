package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeLimiter struct {
	name string
	n    int
}

func (f fakeLimiter) Name() string { return f.name }
func (f fakeLimiter) Len() int     { return f.n }

func TestRegisterLimiterGauges(t *testing.T) {
	reg := prometheus.NewRegistry()

	if err := RegisterLimiterGauges(reg, fakeLimiter{"auth", 3}, fakeLimiter{"api", 7}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if n, err := testutil.GatherAndCount(reg, "entity_manager_ratelimit_buckets"); err != nil || n != 2 {
		t.Fatalf("expected 2 series, got %d (%v)", n, err)
	}

	if err := RegisterLimiterGauges(reg, fakeLimiter{"auth", 1}); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}
