package engagement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/trapline-ai/trapline/pkg/logging"
)

// Termination reasons reported to the inbound caller.
const (
	ReasonTurnLimitReached  = "turn_limit_reached"
	ReasonAlreadyTerminated = "session_already_terminated"
)

// ReportDeliverer hands a final report to a collaborator endpoint. Delivery
// failures stay inside the deliverer; the engine only logs them.
type ReportDeliverer interface {
	Deliver(ctx context.Context, callbackURL string, report FinalReport) error
}

// TurnRequest is one inbound fraudster message plus optional seed context.
type TurnRequest struct {
	SessionID   string
	Message     Turn
	History     []Turn
	CallbackURL string
}

// TurnResult is what the engine hands back for one processed turn.
type TurnResult struct {
	Reply             string
	ScamType          ScamCategory
	Terminated        bool
	TerminationReason string
}

// Engine runs the per-turn pipeline: classify, extract, track asked topics,
// select the next topic, compose the reply, and drive the session state
// machine.
type Engine struct {
	store     SessionStore
	composer  *ReplyComposer
	selector  *TopicSelector
	deliverer ReportDeliverer
	logger    *logging.Logger
	metrics   *Metrics
	tracer    trace.Tracer

	turnCap       int
	historyWindow int
	retention     time.Duration

	// locks serializes processing per session ID. HTTP exposure makes
	// concurrent requests for the same session possible, and lost updates
	// to the intelligence accumulator or a double-fired delivery are not
	// acceptable.
	locks sync.Map

	now func() time.Time
}

// EngineOptions carries the engine's tunables.
type EngineOptions struct {
	TurnCap       int
	HistoryWindow int
	Retention     time.Duration
}

func NewEngine(store SessionStore, composer *ReplyComposer, selector *TopicSelector, deliverer ReportDeliverer, logger *logging.Logger, metrics *Metrics, opts EngineOptions) *Engine {
	if store == nil {
		panic("engagement: session store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if opts.TurnCap <= 0 {
		opts.TurnCap = 10
	}
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = 20
	}
	if opts.Retention <= 0 {
		opts.Retention = time.Minute
	}
	return &Engine{
		store:         store,
		composer:      composer,
		selector:      selector,
		deliverer:     deliverer,
		logger:        logger,
		metrics:       metrics,
		tracer:        otel.Tracer("trapline.internal.engagement.engine"),
		turnCap:       opts.TurnCap,
		historyWindow: opts.HistoryWindow,
		retention:     opts.Retention,
		now:           time.Now,
	}
}

func (e *Engine) lockSession(sessionID string) *sync.Mutex {
	mu, _ := e.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// ProcessTurn runs the full pipeline for one inbound message. It only returns
// an error for store failures; generation and delivery failures degrade
// internally and still produce a successful turn.
func (e *Engine) ProcessTurn(ctx context.Context, req TurnRequest) (TurnResult, error) {
	ctx, span := e.tracer.Start(ctx, "engagement.process_turn")
	defer span.End()

	if strings.TrimSpace(req.SessionID) == "" {
		return TurnResult{}, errors.New("engagement: session id is required")
	}
	if strings.TrimSpace(req.Message.Text) == "" {
		return TurnResult{}, errors.New("engagement: message text is required")
	}

	mu := e.lockSession(req.SessionID)
	mu.Lock()
	defer mu.Unlock()

	session, err := e.store.Get(ctx, req.SessionID)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			return TurnResult{}, err
		}
		session = NewSession(req.SessionID, e.now())
		for _, turn := range req.History {
			if strings.TrimSpace(turn.Text) == "" {
				continue
			}
			session.AppendTurn(turn, e.historyWindow)
		}
	}

	// TERMINATED is absorbing. Late duplicates get a terminal answer and
	// never re-fire delivery.
	if session.State == StateTerminated {
		return TurnResult{
			ScamType:          session.ScamCategory,
			Terminated:        true,
			TerminationReason: ReasonAlreadyTerminated,
		}, nil
	}

	incoming := req.Message
	incoming.Sender = SenderScammer
	if incoming.Timestamp.IsZero() {
		incoming.Timestamp = e.now()
	}
	session.AppendTurn(incoming, e.historyWindow)
	session.TurnCount++

	scammerText := session.ScammerText()

	// Category is re-evaluated every turn; the latest value wins.
	category, detected := Classify(scammerText)
	session.ScamCategory = category
	if detected {
		session.ScamDetected = true
	}

	extracted := Extract(scammerText)
	before := snapshotCounts(session.Intelligence)
	session.Intelligence.Merge(extracted)
	for _, cat := range intelCategories {
		e.metrics.ObserveIntelligence(cat, len(session.Intelligence[cat])-before[cat])
	}

	// Recomputed fresh from the retained history, never cached.
	asked := AskedTopics(session.History)
	sel := e.selector.Select(category, asked, incoming.Text, session.AgentReplies())
	reply := e.composer.Compose(ctx, category, session.History, incoming.Text, asked, sel)

	session.AppendTurn(Turn{Sender: SenderAgent, Text: reply, Timestamp: e.now()}, e.historyWindow)

	result := TurnResult{Reply: reply, ScamType: category}
	if session.TurnCount >= e.turnCap {
		session.State = StateTerminated
		result.Terminated = true
		result.TerminationReason = ReasonTurnLimitReached
	}

	if err := e.store.Put(ctx, session); err != nil {
		return TurnResult{}, err
	}
	e.metrics.ObserveTurn(string(category), "success")

	if result.Terminated {
		e.terminate(session, req.CallbackURL)
	}
	return result, nil
}

// terminate assembles the final report, fires delivery in the background and
// schedules the deferred purge. Called exactly once per session, under the
// session lock, at the ACTIVE to TERMINATED transition.
func (e *Engine) terminate(session *Session, callbackURL string) {
	report := e.buildFinalReport(session)
	e.metrics.ObserveTermination(ReasonTurnLimitReached)
	e.logger.Info("session terminated",
		"session_id", session.SessionID,
		"scam_type", string(session.ScamCategory),
		"turns", session.TurnCount,
		"artifacts", session.Intelligence.Total(),
	)

	if e.deliverer != nil {
		go func() {
			if err := e.deliverer.Deliver(context.Background(), callbackURL, report); err != nil {
				e.logger.Error("final report delivery failed",
					"session_id", report.SessionID,
					"error", err.Error(),
				)
			}
		}()
	}

	// Keep terminated state around briefly so late duplicates see the
	// absorbing state instead of spawning a fresh session.
	sessionID := session.SessionID
	time.AfterFunc(e.retention, func() {
		if err := e.store.Delete(context.Background(), sessionID); err != nil {
			e.logger.Warn("deferred session purge failed", "session_id", sessionID, "error", err.Error())
		}
		e.locks.Delete(sessionID)
	})
}

func (e *Engine) buildFinalReport(session *Session) FinalReport {
	total := session.TurnCount * 2
	duration := int64(e.now().Sub(session.CreatedAt).Seconds())
	if duration < 0 {
		duration = 0
	}
	return FinalReport{
		SessionID:              session.SessionID,
		ScamDetected:           session.ScamDetected,
		ScamType:               session.ScamCategory,
		TotalMessagesExchanged: total,
		ExtractedIntelligence:  session.Intelligence,
		AgentNotes:             synthesizeAgentNotes(session),
		EngagementMetrics: EngagementMetrics{
			TotalMessagesExchanged:    total,
			EngagementDurationSeconds: duration,
		},
	}
}

// synthesizeAgentNotes builds a deterministic summary of the engagement from
// the intelligence snapshot.
func synthesizeAgentNotes(session *Session) string {
	var parts []string
	for _, cat := range intelCategories {
		if n := len(session.Intelligence[cat]); n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, cat))
		}
	}
	captured := "no identifying artifacts"
	if len(parts) > 0 {
		captured = strings.Join(parts, ", ")
	}
	return fmt.Sprintf("Engaged suspected %s scam for %d turns; captured %s.",
		session.ScamCategory, session.TurnCount, captured)
}

func snapshotCounts(intel Intelligence) map[string]int {
	counts := make(map[string]int, len(intelCategories))
	for _, cat := range intelCategories {
		counts[cat] = len(intel[cat])
	}
	return counts
}

// Snapshot returns the stored state for a session. Used by the transcript
// debug endpoint.
func (e *Engine) Snapshot(ctx context.Context, sessionID string) (*Session, error) {
	return e.store.Get(ctx, sessionID)
}

// Reset deletes a session immediately.
func (e *Engine) Reset(ctx context.Context, sessionID string) error {
	mu := e.lockSession(sessionID)
	mu.Lock()
	defer mu.Unlock()
	if err := e.store.Delete(ctx, sessionID); err != nil {
		return err
	}
	e.locks.Delete(sessionID)
	return nil
}
