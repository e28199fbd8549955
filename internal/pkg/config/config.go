package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port            string        `env:"PORT,             default=8080"`
	Env             string        `env:"ENV,              default=development"`
	LogLevel        string        `env:"LOG_LEVEL,        default=info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`

	Auth      AuthConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
}

type AuthConfig struct {
	// JWTSecret may be empty; the token service then falls back to a
	// development secret and warns at startup.
	JWTSecret    string `env:"JWT_SECRET"`
	BcryptCost   int    `env:"BCRYPT_COST,   default=10"`
	CookieSecure bool   `env:"COOKIE_SECURE, default=false"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=entity_manager"`
}

type RedisConfig struct {
	// Addr empty disables redis; rate-limit stats then stay in memory.
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type RateLimitConfig struct {
	SweepEvery   time.Duration `env:"RATE_LIMIT_SWEEP_EVERY,  default=5m"`
	StaleAfter   time.Duration `env:"RATE_LIMIT_STALE_AFTER,  default=10m"`
	StatsTTL     time.Duration `env:"RATE_LIMIT_STATS_TTL,    default=24h"`
	StatsWorkers int           `env:"RATE_LIMIT_STATS_WORKERS, default=4"`
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration from an arbitrary lookuper.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
