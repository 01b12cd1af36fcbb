package main

import (
	"context"
	"crypto/tls"
	"errors"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/trapline-ai/trapline/internal/api/router"
	appconfig "github.com/trapline-ai/trapline/internal/config"
	"github.com/trapline-ai/trapline/internal/engagement"
	"github.com/trapline-ai/trapline/internal/report"
	"github.com/trapline-ai/trapline/pkg/logging"
)

func main() {
	// Load .env if present; real deployments use injected env vars.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting trapline API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	metricsHandler, metrics := setupMetrics()

	store := setupSessionStore(context.Background(), cfg, logger)

	llmClient := setupLLMClient(context.Background(), cfg, logger)
	composer := engagement.NewReplyComposer(llmClient, "", cfg.LLMTimeout, logger, metrics)
	selector := engagement.NewTopicSelector(setupRand(cfg.PhrasingSeed))

	deliverer := report.NewClient(report.Config{
		DefaultURL:  cfg.ReportCallbackURL,
		APIKey:      cfg.ReportAPIKey,
		MaxAttempts: cfg.ReportMaxAttempts,
		Backoff:     cfg.ReportBackoff,
		Timeout:     cfg.ReportTimeout,
	}, logger, metrics)

	engine := engagement.NewEngine(store, composer, selector, deliverer, logger, metrics, engagement.EngineOptions{
		TurnCap:       cfg.TurnCap,
		HistoryWindow: cfg.HistoryWindow,
		Retention:     cfg.SessionRetention,
	})

	r := router.New(&router.Config{
		Logger:             logger,
		Engagement:         engagement.NewHandler(engine, logger),
		MetricsHandler:     metricsHandler,
		APIKey:             cfg.APIKey,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server exited")
}

// setupMetrics builds an isolated registry so tests never trip duplicate
// registration on the global default.
func setupMetrics() (http.Handler, *engagement.Metrics) {
	registry := prometheus.NewRegistry()
	metrics := engagement.NewMetrics(registry)
	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return handler, metrics
}

func setupSessionStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) engagement.SessionStore {
	if cfg.UseMemoryStore {
		logger.Info("using in-memory session store")
		return engagement.NewMemorySessionStore()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, falling back to in-memory session store", "error", err)
		return engagement.NewMemorySessionStore()
	}
	logger.Info("using redis session store", "addr", cfg.RedisAddr)
	return engagement.NewRedisSessionStore(client, cfg.SessionTTL, nil)
}

// setupLLMClient picks the generation backend: OpenAI primary with an
// optional Gemini fallback. With no credentials configured the composer
// still works, it just always degrades to the safe fallback reply.
func setupLLMClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) engagement.LLMClient {
	var primary, fallback engagement.LLMClient

	if cfg.LLMProvider == "auto" || cfg.LLMProvider == "openai" {
		if client, err := engagement.NewOpenAILLMClient(cfg.OpenAIAPIKey, cfg.OpenAIModel); err == nil {
			primary = client
		} else {
			logger.Warn("openai client not configured", "error", err)
		}
	}
	if cfg.LLMProvider == "auto" || cfg.LLMProvider == "gemini" {
		if client, err := engagement.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel); err == nil {
			if primary == nil {
				primary = client
			} else {
				fallback = client
			}
		} else {
			logger.Warn("gemini client not configured", "error", err)
		}
	}

	if primary == nil {
		logger.Warn("no generation backend configured; replies degrade to the safe fallback")
		return unconfiguredLLMClient{}
	}
	return engagement.NewFallbackLLMClient(primary, fallback, logger)
}

func setupRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// unconfiguredLLMClient always errors so the composer's degradation path
// takes over.
type unconfiguredLLMClient struct{}

func (unconfiguredLLMClient) Complete(context.Context, engagement.LLMRequest) (engagement.LLMResponse, error) {
	return engagement.LLMResponse{}, errors.New("no generation backend configured")
}
