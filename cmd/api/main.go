// Command api serves the entity manager HTTP API.
//
//	@title						Entity Manager API
//	@version					1.0
//	@description				Multi-tenant entity manager with JWT sessions and per-client rate limiting.
//	@host						localhost:8080
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	_ "github.com/entityhub/entity-manager/docs"
	"github.com/entityhub/entity-manager/internal/api"
	"github.com/entityhub/entity-manager/internal/api/metrics"
	"github.com/entityhub/entity-manager/internal/auth"
	mongodb "github.com/entityhub/entity-manager/internal/infrastructure/db/mongo"
	redisdb "github.com/entityhub/entity-manager/internal/infrastructure/db/redis"
	"github.com/entityhub/entity-manager/internal/infrastructure/http/handlers"
	"github.com/entityhub/entity-manager/internal/infrastructure/queue"
	"github.com/entityhub/entity-manager/internal/pkg/config"
	"github.com/entityhub/entity-manager/internal/ratelimit"
	"github.com/entityhub/entity-manager/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log := logger.Get()
		log.Fatal().Err(err).Msg("api exited")
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		// The logger is not configured yet; write the failure to stderr.
		logger.Init(logger.Options{Output: os.Stderr})
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "entity-manager",
	})

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer disconnect(log, "mongodb", func(ctx context.Context) error { return mongoClient.Disconnect(ctx) })

	users := mongodb.NewUserRepository(db)
	entities := mongodb.NewEntityRepository(db)
	if err := mongodb.EnsureIndexes(ctx, users, entities); err != nil {
		return err
	}

	checks := []handlers.DependencyCheck{{Name: "mongodb", Check: mongodb.PingCheck(db)}}

	var stats ratelimit.StatsStore
	if cfg.Redis.Addr != "" {
		rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer disconnect(log, "redis", func(context.Context) error { return rdb.Close() })

		stats = redisdb.NewRateLimitStats(rdb, cfg.RateLimit.StatsTTL)
		checks = append(checks, handlers.DependencyCheck{Name: "redis", Check: redisdb.PingCheck(rdb)})
	} else {
		log.Info().Msg("REDIS_ADDR is empty, keeping rate limit stats in memory")
		mem := ratelimit.NewMemoryStats(cfg.RateLimit.StatsTTL)
		mem.StartJanitor(ctx, cfg.RateLimit.SweepEvery)
		stats = mem
	}

	// --- Rate limiting ---
	limiters := ratelimit.NewSet(
		ratelimit.WithSweepEvery(cfg.RateLimit.SweepEvery),
		ratelimit.WithStaleAfter(cfg.RateLimit.StaleAfter),
		ratelimit.WithLogger(log),
	)
	limiters.StartJanitors(ctx)
	if err := metrics.RegisterLimiterGauges(prometheus.DefaultRegisterer, limiters.Auth, limiters.API, limiters.Strict); err != nil {
		return err
	}

	recorder := queue.NewStatsRecorder(cfg.RateLimit.StatsWorkers, stats, log)
	recorder.Start(ctx)

	// --- Auth ---
	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost, auth.WithHashObserver(func(d time.Duration) {
		metrics.PasswordHashDuration.Observe(d.Seconds())
	}))
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, log)

	e := api.NewRouter(api.Dependencies{
		Users:        users,
		Entities:     entities,
		Hasher:       hasher,
		Tokens:       tokens,
		Limiters:     limiters,
		Sink:         recorder,
		Logger:       log,
		SecureCookie: cfg.Auth.CookieSecure,
		HealthChecks: checks,
		Registerer:   prometheus.DefaultRegisterer,
		Gatherer:     prometheus.DefaultGatherer,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// disconnect closes a store with a bounded timeout, logging failures.
func disconnect(log zerolog.Logger, name string, closeFn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := closeFn(ctx); err != nil {
		log.Warn().Err(err).Str("store", name).Msg("disconnect failed")
	}
}
