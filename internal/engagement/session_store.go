package engagement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// ErrSessionNotFound is returned when a session ID has no stored state.
var ErrSessionNotFound = errors.New("engagement: session not found")

// SessionStore persists engagement sessions keyed by session ID.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*Session, error)
	Put(ctx context.Context, session *Session) error
	Delete(ctx context.Context, sessionID string) error
}

// RedisSessionStore stores sessions as JSON blobs with a TTL.
type RedisSessionStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration, tracer trace.Tracer) *RedisSessionStore {
	if client == nil {
		panic("engagement: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if tracer == nil {
		tracer = otel.Tracer("trapline.internal.engagement.sessions")
	}
	return &RedisSessionStore{
		redis:  client,
		ttl:    ttl,
		tracer: tracer,
	}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "engagement.load_session")
	defer span.End()

	data, err := s.redis.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSessionNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("engagement: failed to load session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("engagement: failed to decode session: %w", err)
	}
	return &session, nil
}

func (s *RedisSessionStore) Put(ctx context.Context, session *Session) error {
	ctx, span := s.tracer.Start(ctx, "engagement.save_session")
	defer span.End()

	data, err := json.Marshal(session)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("engagement: failed to marshal session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(session.SessionID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("engagement: failed to persist session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	ctx, span := s.tracer.Start(ctx, "engagement.delete_session")
	defer span.End()

	if err := s.redis.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("engagement: failed to delete session: %w", err)
	}
	return nil
}

// MemorySessionStore keeps sessions in process memory. Used for local
// development and tests when Redis is not available.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*Session)}
}

func (s *MemorySessionStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return cloneSession(stored), nil
}

func (s *MemorySessionStore) Put(ctx context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.SessionID] = cloneSession(session)
	return nil
}

func (s *MemorySessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

// cloneSession copies a session so callers cannot mutate stored state.
func cloneSession(in *Session) *Session {
	out := *in
	out.History = make([]Turn, len(in.History))
	copy(out.History, in.History)
	out.Intelligence = NewIntelligence()
	out.Intelligence.Merge(in.Intelligence)
	return &out
}
