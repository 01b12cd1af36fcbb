package engagement

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/trapline-ai/trapline/pkg/logging"
)

// ConversationTurn is the wire shape of one turn in the inbound payload.
type ConversationTurn struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationRequest is the inbound turn payload.
type ConversationRequest struct {
	SessionID           string             `json:"sessionId"`
	Message             ConversationTurn   `json:"message"`
	ConversationHistory []ConversationTurn `json:"conversationHistory"`
	Metadata            struct {
		CallbackURL string `json:"callbackUrl"`
	} `json:"metadata"`
}

// ConversationResponse is the outbound turn payload.
type ConversationResponse struct {
	Status            string `json:"status"`
	Reply             string `json:"reply"`
	ScamType          string `json:"scamType"`
	Terminated        bool   `json:"terminated,omitempty"`
	TerminationReason string `json:"terminationReason,omitempty"`
}

// Handler wires HTTP requests to the engagement engine.
type Handler struct {
	engine *Engine
	logger *logging.Logger
}

// NewHandler creates an engagement handler.
func NewHandler(engine *Engine, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		engine: engine,
		logger: logger,
	}
}

// Message handles POST /api/conversation.
func (h *Handler) Message(w http.ResponseWriter, r *http.Request) {
	var req ConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode conversation request", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Reject before any session state is touched.
	if strings.TrimSpace(req.SessionID) == "" {
		h.writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}
	if strings.TrimSpace(req.Message.Text) == "" {
		h.writeError(w, http.StatusBadRequest, "message.text is required")
		return
	}

	result, err := h.engine.ProcessTurn(r.Context(), TurnRequest{
		SessionID:   req.SessionID,
		Message:     toTurn(req.Message),
		History:     toTurns(req.ConversationHistory),
		CallbackURL: req.Metadata.CallbackURL,
	})
	if err != nil {
		h.logger.Error("failed to process turn", "session_id", req.SessionID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to process message")
		return
	}

	h.writeJSON(w, http.StatusOK, ConversationResponse{
		Status:            "success",
		Reply:             result.Reply,
		ScamType:          string(result.ScamType),
		Terminated:        result.Terminated,
		TerminationReason: result.TerminationReason,
	})
}

// Transcript handles GET /api/conversation/{sessionID}. Debug surface.
func (h *Handler) Transcript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	session, err := h.engine.Snapshot(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			h.writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		h.logger.Error("failed to load session", "session_id", sessionID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to load session")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"session":    session,
		"transcript": Transcript(session.History),
	})
}

// Reset handles DELETE /api/conversation/{sessionID}.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := h.engine.Reset(r.Context(), sessionID); err != nil {
		h.logger.Error("failed to reset session", "session_id", sessionID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to reset session")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "success", "sessionId": sessionID})
}

func toTurn(in ConversationTurn) Turn {
	sender := SenderScammer
	if strings.EqualFold(in.Sender, string(SenderAgent)) {
		sender = SenderAgent
	}
	return Turn{Sender: sender, Text: in.Text, Timestamp: in.Timestamp}
}

func toTurns(in []ConversationTurn) []Turn {
	if len(in) == 0 {
		return nil
	}
	turns := make([]Turn, 0, len(in))
	for _, t := range in {
		turns = append(turns, toTurn(t))
	}
	return turns
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"status": "error", "error": message})
}
