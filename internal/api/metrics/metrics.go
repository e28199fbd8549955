// Package metrics defines the custom Prometheus metrics of the entity
// manager API. HTTP request metrics come from echoprometheus; everything
// here is domain specific.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "entity_manager"

// ── Rate limiting ─────────────────────────────────────────────────────────────

// RateLimitDecisionsTotal counts admission decisions.
// Labels:
//   - limiter: "auth", "api" or "strict"
//   - result: "allowed" or "denied"
var RateLimitDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ratelimit_decisions_total",
		Help:      "Total number of rate limit decisions, by limiter and result.",
	},
	[]string{"limiter", "result"},
)

// TrackedLimiter is satisfied by *ratelimit.Limiter.
type TrackedLimiter interface {
	Name() string
	Len() int
}

// RegisterLimiterGauges exposes the number of tracked identifiers of each
// limiter as entity_manager_ratelimit_buckets{limiter="..."}.
func RegisterLimiterGauges(reg prometheus.Registerer, limiters ...TrackedLimiter) error {
	for _, l := range limiters {
		g := prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "ratelimit_buckets",
				Help:        "Number of tracked client identifiers per limiter.",
				ConstLabels: prometheus.Labels{"limiter": l.Name()},
			},
			func() float64 { return float64(l.Len()) },
		)
		if err := reg.Register(g); err != nil {
			return err
		}
	}
	return nil
}

// StatsQueueDepth is the number of decisions waiting per recorder worker.
var StatsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ratelimit_stats_queue_depth",
		Help:      "Decisions pending in each stats recorder worker channel.",
	},
	[]string{"worker_id"},
)

// StatsDroppedTotal counts decisions dropped because a worker was full.
var StatsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ratelimit_stats_dropped_total",
		Help:      "Rate limit decisions dropped by the stats recorder.",
	},
)

// ── Authentication ────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts register and login attempts.
// Labels:
//   - action: "register" or "login"
//   - result: "success", "invalid_credentials", "user_exists", "error"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of authentication attempts, by action and result.",
	},
	[]string{"action", "result"},
)

// TokenRejectionsTotal counts requests carrying a missing or invalid token.
// Label:
//   - reason: "missing" or "invalid"
var TokenRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_rejections_total",
		Help:      "Requests rejected by bearer authentication.",
	},
	[]string{"reason"},
)

// PasswordHashDuration measures bcrypt hashing time.
var PasswordHashDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "password_hash_duration_seconds",
		Help:      "Time spent hashing passwords.",
		Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1},
	},
)

// ── Entities ──────────────────────────────────────────────────────────────────

// EntityOperationsTotal counts entity writes.
// Label:
//   - op: "create", "update" or "delete"
var EntityOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "entity_operations_total",
		Help:      "Total number of entity write operations.",
	},
	[]string{"op"},
)
