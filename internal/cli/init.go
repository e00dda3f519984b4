// Package cli provides common initialization shared by cmd/seta and
// cmd/seta-report.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"seta/internal/backend"
	"seta/internal/cache"
	"seta/internal/config"
	"seta/internal/core"
	"seta/internal/insight"
	applog "seta/internal/log"
	"seta/internal/profile"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the application logger from LOG_LEVEL and LOG_FORMAT
// and makes it the slog default.
func SetupLogger(cfg *config.Config) *applog.Logger {
	level, err := applog.ParseLevel(cfg.LogLevel)
	logger := applog.New(applog.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: applog.ComponentApp,
		Output:    os.Stdout,
	})
	applog.SetDefault(logger)
	if err != nil {
		logger.Warn("Falling back to info level", applog.FieldError, err)
	}
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig() (*config.Config, *applog.Logger) {
	cfg := config.Load()
	logger := SetupLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// InitStore builds the configured record store. Returns the store or exits
// the process on failure.
func InitStore(ctx context.Context, logger *applog.Logger, cfg *config.Config, obs core.Observer) *backend.BackendResult {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Slog(), obs).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize record store", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return res
}

// InitRedis connects to REDIS_ADDRESS. Without an address, or when Redis is
// unreachable, it returns nil and callers fall back to in-process state.
func InitRedis(ctx context.Context, logger *applog.Logger, cfg *config.Config) *redis.Client {
	if cfg.RedisAddress == "" {
		return nil
	}
	client, err := cache.Connect(ctx, cfg.RedisAddress)
	if err != nil {
		logger.Warn("Redis unavailable, using in-process caches", applog.FieldError, err)
		return nil
	}
	logger.Info("Connected to Redis", "address", cfg.RedisAddress)
	return client
}

// InitAdvisor builds the insight advisor. Without GEMINI_API_KEY the
// advisor answers with the unavailable copy. A Redis client adds a
// cross-instance lock per owner and window.
func InitAdvisor(ctx context.Context, logger *applog.Logger, cfg *config.Config, rdb *redis.Client) *insight.Advisor {
	insightLogger := logger.WithComponent(applog.ComponentInsight)
	opts := []insight.Option{
		insight.WithLogger(insightLogger.Slog()),
		insight.WithTimeout(cfg.InsightTimeout),
	}
	if rdb != nil {
		opts = append(opts, insight.WithLocker(insight.NewRedisLocker(rdb, 0)))
	}

	if cfg.GeminiAPIKey == "" {
		insightLogger.Warn("GEMINI_API_KEY not set, insights unavailable")
		return insight.NewAdvisor(nil, opts...)
	}
	gen, err := insight.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		insightLogger.Error("Failed to create Gemini client, insights unavailable", applog.FieldError, err)
		return insight.NewAdvisor(nil, opts...)
	}
	return insight.NewAdvisor(gen, opts...)
}

// NewProfileCache keeps profiles in Redis when available so every replica
// sees the same display name, otherwise in an LRU registered with manager.
func NewProfileCache(rdb *redis.Client, manager *cache.Manager) cache.Cache[profile.Profile] {
	if rdb != nil {
		return cache.NewRedis[profile.Profile](rdb, "seta:profile:", 24*time.Hour)
	}
	lru := cache.NewLRUCache[profile.Profile](1000, 24*time.Hour)
	manager.Register(lru)
	return lru
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
