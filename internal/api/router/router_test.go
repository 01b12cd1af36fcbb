package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/trapline-ai/trapline/internal/engagement"
	"github.com/trapline-ai/trapline/pkg/logging"
)

type noopDeliverer struct{}

func (noopDeliverer) Deliver(ctx context.Context, callbackURL string, report engagement.FinalReport) error {
	return nil
}

func testRouter(t *testing.T, apiKey string) http.Handler {
	t.Helper()
	logger := logging.New("error")
	composer := engagement.NewReplyComposer(nil, "", time.Second, logger, nil)
	selector := engagement.NewTopicSelector(nil)
	engine := engagement.NewEngine(engagement.NewMemorySessionStore(), composer, selector, noopDeliverer{}, logger, nil, engagement.EngineOptions{})
	return New(&Config{
		Logger:     logger,
		Engagement: engagement.NewHandler(engine, logger),
		APIKey:     apiKey,
	})
}

func TestDescribeService(t *testing.T) {
	r := testRouter(t, "")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["service"] != "trapline" {
		t.Errorf("service = %v", body["service"])
	}
}

func TestHealthCheck(t *testing.T) {
	r := testRouter(t, "")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v", body["status"])
	}
}

func TestConversationRequiresAPIKey(t *testing.T) {
	r := testRouter(t, "router-secret")

	payload := []byte(`{"sessionId":"r-1","message":{"sender":"scammer","text":"Your SBI account is blocked."}}`)

	req := httptest.NewRequest(http.MethodPost, "/api/conversation", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d without key, got %d", http.StatusUnauthorized, rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/conversation", bytes.NewReader(payload))
	req.Header.Set("X-Api-Key", "router-secret")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d with key, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var resp engagement.ConversationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Status != "success" {
		t.Errorf("status = %q", resp.Status)
	}
	if resp.Reply == "" {
		t.Errorf("expected a non-empty reply")
	}
}

func TestConversationRoutesBySessionID(t *testing.T) {
	r := testRouter(t, "")

	payload := []byte(`{"sessionId":"r-2","message":{"sender":"scammer","text":"Your parcel is held at customs, pay the fee."}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/conversation", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/conversation/r-2", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected transcript status %d, got %d", http.StatusOK, rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/conversation/r-2", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected reset status %d, got %d", http.StatusOK, rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/conversation/r-2", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected %d after reset, got %d", http.StatusNotFound, rec.Code)
	}
}
