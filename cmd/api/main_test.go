package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appconfig "github.com/trapline-ai/trapline/internal/config"
	"github.com/trapline-ai/trapline/internal/engagement"
	"github.com/trapline-ai/trapline/pkg/logging"
)

func TestSetupMetricsExposesMetrics(t *testing.T) {
	handler, metrics := setupMetrics()
	if handler == nil || metrics == nil {
		t.Fatalf("expected non-nil handler and metrics")
	}

	metrics.ObserveTurn("bank_fraud", "success")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "trapline_engagement_turns_total") {
		t.Fatalf("expected turn counter to be exported")
	}
}

func TestSetupSessionStoreMemoryPath(t *testing.T) {
	logger := logging.New("error")
	cfg := &appconfig.Config{UseMemoryStore: true}

	store := setupSessionStore(context.Background(), cfg, logger)
	if _, ok := store.(*engagement.MemorySessionStore); !ok {
		t.Fatalf("expected in-memory session store, got %T", store)
	}
}

func TestSetupSessionStoreRedisUnavailableFallsBack(t *testing.T) {
	logger := logging.New("error")
	cfg := &appconfig.Config{RedisAddr: "127.0.0.1:1"}

	store := setupSessionStore(context.Background(), cfg, logger)
	if _, ok := store.(*engagement.MemorySessionStore); !ok {
		t.Fatalf("expected fallback to in-memory store, got %T", store)
	}
}

func TestSetupLLMClientUnconfigured(t *testing.T) {
	logger := logging.New("error")
	cfg := &appconfig.Config{LLMProvider: "auto"}

	client := setupLLMClient(context.Background(), cfg, logger)
	if _, err := client.Complete(context.Background(), engagement.LLMRequest{}); err == nil {
		t.Fatalf("expected unconfigured client to error")
	}
}

func TestSetupRandSeeded(t *testing.T) {
	a := setupRand(42)
	b := setupRand(42)
	if a.Intn(1000) != b.Intn(1000) {
		t.Fatalf("expected identical sequences for identical seeds")
	}
}
