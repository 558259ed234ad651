package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"premium-estimator/internal/config"
	"premium-estimator/internal/db"
	"premium-estimator/internal/features"
	apihttp "premium-estimator/internal/http"
	"premium-estimator/internal/model"
	"premium-estimator/internal/repository"
	"premium-estimator/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg.LogLevel)
	defer logger.Sync()

	profile := features.DefaultProfile()
	if cfg.ProfilePath != "" {
		profile, err = features.LoadProfile(cfg.ProfilePath)
		if err != nil {
			logger.Fatal("load profile", zap.String("path", cfg.ProfilePath), zap.Error(err))
		}
	}

	adapter, err := model.Open(cfg.ModelPath, model.RemoteOptions{
		APIKey:  cfg.ScorerAPIKey,
		Timeout: cfg.ScorerTimeout,
		Logger:  logger.Named("scorer"),
	})
	if err != nil {
		logger.Fatal("load model artifact", zap.String("path", cfg.ModelPath), zap.Error(err))
	}
	artifact := adapter.Artifact()
	if profile.ModelVersion != "" && profile.ModelVersion != artifact.Version {
		logger.Fatal("profile does not match model artifact",
			zap.String("profile", profile.Name),
			zap.String("profile_model_version", profile.ModelVersion),
			zap.String("artifact_version", artifact.Version),
		)
	}
	logger.Info("model loaded",
		zap.String("name", artifact.Name),
		zap.String("version", artifact.Version),
		zap.String("estimator", artifact.Estimator.Kind),
		zap.Int("columns", len(artifact.Schema)),
		zap.String("profile", profile.Name),
	)

	var quoteRepo repository.QuoteRepository
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer pool.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := db.Ping(ctxPing, pool); err != nil {
			logger.Warn("db ping failed", zap.Error(err))
		}
		cancel()
		quoteRepo = repository.NewPgQuoteRepository(pool)
	} else {
		logger.Warn("database not configured, quote audit log disabled")
	}

	var (
		cache       service.EstimateCache
		limiter     service.QuoteRateLimiter
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			cache = service.NewRedisEstimateCache(redisClient)
			limiter = service.NewRedisQuoteRateLimiter(redisClient, cfg.RateLimitWindow, cfg.RateLimitMax)
		}
		cancel()
	}
	if cache == nil {
		cache = service.NewMemoryEstimateCache()
	}
	if limiter == nil {
		limiter = service.NewQuoteRateLimiter(cfg.RateLimitWindow, cfg.RateLimitMax)
	}

	tokenSvc := service.NewTokenService(cfg.JWTSecret, time.Duration(cfg.JWTTTLMinutes)*time.Minute)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured, quote routes are open")
	}

	quoteSvc := service.NewQuoteService(logger, features.NewDeriver(profile), adapter, quoteRepo).
		WithCache(cache, cfg.EstimateCacheTTL).
		WithRateLimiter(limiter)

	quoteHandler := apihttp.NewQuoteHandler(logger, quoteSvc)
	authHandler := apihttp.NewAuthHandler(logger, tokenSvc, cfg.AdminAPIKey)
	router := apihttp.NewRouter(logger, quoteHandler, authHandler, tokenSvc)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

func newLogger(level string) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := zcfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
