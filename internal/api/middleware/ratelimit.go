package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/entityhub/entity-manager/internal/api/metrics"
	"github.com/entityhub/entity-manager/internal/ratelimit"
)

const (
	// UnknownClient is the shared identifier of requests carrying neither
	// X-Forwarded-For nor X-Real-IP.
	UnknownClient = "unknown"

	retryAfter         = 60 * time.Second
	rateLimitedReason  = "Too many requests"
	rateLimitedMessage = "Rate limit exceeded. Please try again later."

	headerRealIP             = "X-Real-IP"
	headerRateLimitRemaining = "X-RateLimit-Remaining"
)

// Rejection describes a request refused by a limiter.
type Rejection struct {
	Status     int
	Reason     string
	Message    string
	Remaining  int
	RetryAfter time.Duration
}

type rateLimitResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Remaining int    `json:"remaining"`
}

// DecisionSink receives every admission decision. Implementations must not
// block.
type DecisionSink interface {
	Observe(d ratelimit.Decision)
}

// ClientIdentifier picks the bucket key for r: the first X-Forwarded-For
// entry, else X-Real-IP, else UnknownClient.
func ClientIdentifier(r *http.Request) string {
	if fwd := r.Header.Get(echo.HeaderXForwardedFor); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if ip := strings.TrimSpace(r.Header.Get(headerRealIP)); ip != "" {
		return ip
	}
	return UnknownClient
}

// Guard applies limiter to r and returns nil when the request may proceed.
func Guard(r *http.Request, limiter ratelimit.Checker) *Rejection {
	return guard(ClientIdentifier(r), limiter)
}

func guard(id string, limiter ratelimit.Checker) *Rejection {
	if limiter.Check(id) {
		return nil
	}
	return &Rejection{
		Status:     http.StatusTooManyRequests,
		Reason:     rateLimitedReason,
		Message:    rateLimitedMessage,
		Remaining:  limiter.Remaining(id),
		RetryAfter: retryAfter,
	}
}

// RateLimitOptions configures RateLimit. Sink and Now are optional.
type RateLimitOptions struct {
	Name   string
	Sink   DecisionSink
	Logger zerolog.Logger
	Now    func() time.Time
}

// RateLimit rejects requests over limiter's budget with a 429 JSON body.
func RateLimit(limiter ratelimit.Checker, opts RateLimitOptions) echo.MiddlewareFunc {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	// Denials arrive in floods; log the first and then at most one every 10s.
	sampled := &rate.Sometimes{First: 1, Interval: 10 * time.Second}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := ClientIdentifier(c.Request())
			rej := guard(id, limiter)
			allowed := rej == nil

			result := "allowed"
			if !allowed {
				result = "denied"
			}
			metrics.RateLimitDecisionsTotal.WithLabelValues(opts.Name, result).Inc()
			if opts.Sink != nil {
				opts.Sink.Observe(ratelimit.Decision{
					Limiter:    opts.Name,
					Identifier: id,
					Allowed:    allowed,
					At:         opts.Now(),
				})
			}

			if allowed {
				return next(c)
			}

			sampled.Do(func() {
				opts.Logger.Warn().
					Str("limiter", opts.Name).
					Str("client", id).
					Str("path", c.Path()).
					Msg("rate limit exceeded")
			})
			return writeRejection(c, rej)
		}
	}
}

func writeRejection(c echo.Context, rej *Rejection) error {
	h := c.Response().Header()
	h.Set(echo.HeaderRetryAfter, strconv.Itoa(int(rej.RetryAfter.Seconds())))
	h.Set(headerRateLimitRemaining, strconv.Itoa(rej.Remaining))
	return c.JSON(rej.Status, rateLimitResponse{
		Error:     rej.Reason,
		Message:   rej.Message,
		Remaining: rej.Remaining,
	})
}
