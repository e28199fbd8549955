package queue

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/entityhub/entity-manager/internal/api/metrics"
	"github.com/entityhub/entity-manager/internal/ratelimit"
)

type blockingStore struct {
	release chan struct{}
	mu      sync.Mutex
	seen    int
}

func (s *blockingStore) Record(ctx context.Context, _ ratelimit.Decision) error {
	select {
	case <-s.release:
	case <-ctx.Done():
	}
	s.mu.Lock()
	s.seen++
	s.mu.Unlock()
	return nil
}

func TestStatsRecorder_DrainsToStore(t *testing.T) {
	store := ratelimit.NewMemoryStats(time.Hour)
	r := NewStatsRecorder(3, store, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx)

	for i := 0; i < 4; i++ {
		r.Observe(ratelimit.Decision{Limiter: "auth", Identifier: "1.2.3.4", Allowed: i < 3})
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if c := store.Get("auth", "1.2.3.4"); c.Allowed == 3 && c.Denied == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("decisions not recorded: %+v", store.Get("auth", "1.2.3.4"))
}

func TestStatsRecorder_ShardIsStable(t *testing.T) {
	r := NewStatsRecorder(8, ratelimit.NewMemoryStats(time.Hour), zerolog.Nop())

	first := r.shardIndex("10.0.0.1")
	for i := 0; i < 10; i++ {
		if got := r.shardIndex("10.0.0.1"); got != first {
			t.Fatalf("shard changed: %d != %d", got, first)
		}
	}
	if first < 0 || first >= 8 {
		t.Fatalf("shard out of range: %d", first)
	}
}

func TestStatsRecorder_ObserveNeverBlocks(t *testing.T) {
	store := &blockingStore{release: make(chan struct{})}
	r := NewStatsRecorder(1, store, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)

	done := make(chan struct{})
	go func() {
		for i := 0; i < channelBuffer*2; i++ {
			r.Observe(ratelimit.Decision{Limiter: "api", Identifier: "x"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Observe blocked with a full buffer")
	}

	cancel()
	close(store.release)
}

func TestNewStatsRecorder_DefaultWorkers(t *testing.T) {
	r := NewStatsRecorder(0, ratelimit.NewMemoryStats(time.Hour), zerolog.Nop())
	if len(r.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(r.workers))
	}
}

func TestStatsRecorder_QueueDepthTracksBufferedDecisions(t *testing.T) {
	// Shards 8 and above are not used by the other tests in this package.
	r := NewStatsRecorder(16, ratelimit.NewMemoryStats(time.Hour), zerolog.Nop())

	id := ""
	for i := 0; ; i++ {
		id = fmt.Sprintf("client-%d", i)
		if r.shardIndex(id) >= 8 {
			break
		}
	}
	depth := metrics.StatsQueueDepth.WithLabelValues(strconv.Itoa(r.shardIndex(id)))
	depthBefore := testutil.ToFloat64(depth)
	droppedBefore := testutil.ToFloat64(metrics.StatsDroppedTotal)

	// Workers are not started, so the shard fills and the rest is dropped.
	for i := 0; i < channelBuffer+5; i++ {
		r.Observe(ratelimit.Decision{Limiter: "api", Identifier: id})
	}

	if got := testutil.ToFloat64(depth) - depthBefore; got != channelBuffer {
		t.Fatalf("expected depth +%d, got %+v", channelBuffer, got)
	}
	if got := testutil.ToFloat64(metrics.StatsDroppedTotal) - droppedBefore; got != 5 {
		t.Fatalf("expected 5 dropped, got %v", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)
	defer cancel()

	deadline := time.Now().Add(2 * time.Second)
	for testutil.ToFloat64(depth) != depthBefore {
		if time.Now().After(deadline) {
			t.Fatalf("depth did not drain: %v", testutil.ToFloat64(depth))
		}
		time.Sleep(5 * time.Millisecond)
	}
}
