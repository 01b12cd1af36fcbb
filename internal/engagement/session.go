package engagement

import (
	"time"
)

// Sender identifies who authored a conversation turn.
type Sender string

const (
	SenderScammer Sender = "scammer"
	SenderAgent   Sender = "agent"
)

// Turn is a single message in a conversation. Immutable once recorded.
type Turn struct {
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionState models the one-way engagement lifecycle.
type SessionState string

const (
	StateActive     SessionState = "active"
	StateTerminated SessionState = "terminated"
)

// Session holds the mutable per-conversation state. The asked-topic set is
// deliberately absent: it is recomputed from History on every turn so it can
// never go stale.
type Session struct {
	SessionID    string       `json:"sessionId"`
	CreatedAt    time.Time    `json:"createdAt"`
	State        SessionState `json:"state"`
	TurnCount    int          `json:"turnCount"`
	ScamDetected bool         `json:"scamDetected"`
	ScamCategory ScamCategory `json:"scamCategory"`
	Intelligence Intelligence `json:"intelligence"`

	// History retains the most recent turns (both senders) up to the
	// configured window. Extraction and topic tracking operate over this
	// window; retaining less history trades recall for memory.
	History []Turn `json:"history"`
}

// NewSession creates an active session with an empty intelligence accumulator.
func NewSession(sessionID string, now time.Time) *Session {
	return &Session{
		SessionID:    sessionID,
		CreatedAt:    now.UTC(),
		State:        StateActive,
		Intelligence: NewIntelligence(),
	}
}

// AppendTurn records a turn and trims History to the given window.
func (s *Session) AppendTurn(turn Turn, window int) {
	s.History = append(s.History, turn)
	if window > 0 && len(s.History) > window {
		s.History = s.History[len(s.History)-window:]
	}
}

// ScammerText concatenates all fraudster-authored text in the retained
// history, oldest first.
func (s *Session) ScammerText() string {
	var out []byte
	for _, t := range s.History {
		if t.Sender != SenderScammer {
			continue
		}
		if len(out) > 0 {
			out = append(out, ' ')
		}
		out = append(out, t.Text...)
	}
	return string(out)
}

// AgentReplies returns the agent-authored texts in the retained history,
// oldest first. The topic selector uses these to avoid reusing phrasings.
func (s *Session) AgentReplies() []string {
	var replies []string
	for _, t := range s.History {
		if t.Sender == SenderAgent {
			replies = append(replies, t.Text)
		}
	}
	return replies
}

// EngagementMetrics summarizes how long and how much the session engaged.
type EngagementMetrics struct {
	TotalMessagesExchanged    int   `json:"totalMessagesExchanged"`
	EngagementDurationSeconds int64 `json:"engagementDurationSeconds"`
}

// FinalReport is assembled exactly once, at the ACTIVE to TERMINATED
// transition, and handed to the delivery callback.
type FinalReport struct {
	SessionID              string            `json:"sessionId"`
	ScamDetected           bool              `json:"scamDetected"`
	ScamType               ScamCategory      `json:"scamType"`
	TotalMessagesExchanged int               `json:"totalMessagesExchanged"`
	ExtractedIntelligence  Intelligence      `json:"extractedIntelligence"`
	AgentNotes             string            `json:"agentNotes"`
	EngagementMetrics      EngagementMetrics `json:"engagementMetrics"`
}
