package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/freteaz/fretebot/internal/config"
	"github.com/freteaz/fretebot/internal/quote"
	"github.com/freteaz/fretebot/internal/ratelimit"
	"github.com/freteaz/fretebot/internal/respcache"
	"github.com/freteaz/fretebot/internal/telemetry"
	"github.com/freteaz/fretebot/internal/throttle"
	"github.com/freteaz/fretebot/internal/tokencache"
	"github.com/freteaz/fretebot/pkg/carrier/postaja"
	"github.com/freteaz/fretebot/pkg/cep"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initTracer(ctx context.Context, cfg *config.Config) (trace.Tracer, func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return nil, func(context.Context) error { return nil }, nil
	}
	return telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
}

// pipeline bundles everything the server needs.
type pipeline struct {
	quotes       *quote.Service
	cache        *respcache.Cache
	limits       *ratelimit.Store
	metrics      *telemetry.Metrics
	redisEnabled bool
}

// initPipeline wires the token cache, authenticator, carrier client,
// throttle and caches from configuration.
func initPipeline(ctx context.Context, cfg *config.Config, logger *otelzap.Logger, tracer trace.Tracer) (*pipeline, error) {
	tariff, services, err := cfg.LoadTariff()
	if err != nil {
		return nil, err
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		rdb = redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			// Redis being down at boot is survivable: the token cache
			// falls back to the file and the response cache misses.
			logger.Warn("redis unreachable at startup", zap.Error(err))
		}
	}

	fileStore := tokencache.NewFileStore(cfg.TokenFile, logger)
	var tokens postaja.TokenStore = fileStore
	if rdb != nil {
		tokens = tokencache.NewFallbackStore(
			tokencache.NewRedisStore(rdb, cfg.RedisPrefix, logger),
			fileStore,
			logger,
		)
	}

	metrics := telemetry.NewMetrics()

	client := postaja.New(postaja.Config{
		BaseURL:          cfg.BackBase,
		Timeout:          cfg.UpstreamTimeout,
		Services:         services,
		Tariff:           tariff,
		MinDeclaredValue: cfg.MinDeclaredValue,
		UseMock:          cfg.UseMockCarrier,
	}, tokens, postaja.AuthConfig{
		Usuario:     cfg.Usuario,
		Senha:       cfg.Senha,
		FallbackTTL: cfg.TokenFallbackTTL,
		OnRefresh:   metrics.RecordTokenRefresh,
	}, cep.NewClient(), logger, tracer)

	limits := ratelimit.NewStore(cfg.RateLimitRPS, cfg.RateLimitBurst)
	limits.StartJanitor(ctx)

	return &pipeline{
		quotes:       quote.NewService(client, throttle.New(cfg.ThrottleInterval), logger, metrics),
		cache:        respcache.New(rdb, cfg.RedisPrefix, cfg.RespCacheTTL, logger),
		limits:       limits,
		metrics:      metrics,
		redisEnabled: rdb != nil,
	}, nil
}
