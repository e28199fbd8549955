package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/entityhub/entity-manager/internal/api/metrics"
	"github.com/entityhub/entity-manager/internal/ratelimit"
)

const (
	defaultWorkers = 4
	channelBuffer  = 1024
	recordTimeout  = 2 * time.Second
)

// StatsRecorder moves rate-limit decisions to a StatsStore off the request
// path. Decisions are sharded by identifier so each identifier's counters
// are written by a single worker.
type StatsRecorder struct {
	workers []chan ratelimit.Decision
	store   ratelimit.StatsStore
	log     zerolog.Logger
}

// NewStatsRecorder creates a recorder with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewStatsRecorder(numWorkers int, store ratelimit.StatsStore, log zerolog.Logger) *StatsRecorder {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	r := &StatsRecorder{
		workers: make([]chan ratelimit.Decision, numWorkers),
		store:   store,
		log:     log,
	}
	for i := range r.workers {
		r.workers[i] = make(chan ratelimit.Decision, channelBuffer)
	}
	return r
}

// Start launches the workers. They stop when ctx is cancelled.
func (r *StatsRecorder) Start(ctx context.Context) {
	for i, ch := range r.workers {
		go r.runWorker(ctx, i, ch)
	}
}

// Observe queues d. It never blocks: when the worker's buffer is full the
// decision is dropped and counted.
func (r *StatsRecorder) Observe(d ratelimit.Decision) {
	idx := r.shardIndex(d.Identifier)
	depth := metrics.StatsQueueDepth.WithLabelValues(strconv.Itoa(idx))
	// Count before the send so a fast worker's Dec never precedes it.
	depth.Inc()
	select {
	case r.workers[idx] <- d:
	default:
		depth.Dec()
		metrics.StatsDroppedTotal.Inc()
	}
}

func (r *StatsRecorder) shardIndex(identifier string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(identifier))
	return int(h.Sum32() % uint32(len(r.workers)))
}

func (r *StatsRecorder) runWorker(ctx context.Context, id int, ch <-chan ratelimit.Decision) {
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case d := <-ch:
			metrics.StatsQueueDepth.WithLabelValues(label).Dec()

			recCtx, cancel := context.WithTimeout(ctx, recordTimeout)
			err := r.store.Record(recCtx, d)
			cancel()
			if err != nil {
				r.log.Error().Err(err).
					Str("limiter", d.Limiter).
					Int("worker_id", id).
					Msg("rate limit stats write failed")
			}
		}
	}
}
