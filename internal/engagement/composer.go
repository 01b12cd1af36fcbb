package engagement

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/trapline-ai/trapline/pkg/logging"
)

// safeFallbackReply is returned whenever the generation capability fails or
// produces nothing usable. It carries exactly one question and no topic, so
// it can never repeat an asked topic.
const safeFallbackReply = "Sir I am confused, what is this about?"

// roleLabelRE strips role-label artifacts a generation backend may prepend,
// at the start of the text or after a newline.
var roleLabelRE = regexp.MustCompile(`(?im)^\s*(?:agent|assistant|you|reply|response|ai|victim|user)\s*:\s*`)

var whitespaceRE = regexp.MustCompile(`\s+`)

// sentenceUnitRE splits text into sentence units keeping their terminators.
var sentenceUnitRE = regexp.MustCompile(`[^.!?]+[.!?]*`)

// ReplyComposer wraps the generation capability with the safety net that
// makes arbitrary generated text safe: exactly one question, no repeated
// topic, at most two sentences.
type ReplyComposer struct {
	client  LLMClient
	model   string
	timeout time.Duration
	logger  *logging.Logger
	metrics *Metrics
}

// NewReplyComposer creates a composer around the given generation client.
func NewReplyComposer(client LLMClient, model string, timeout time.Duration, logger *logging.Logger, metrics *Metrics) *ReplyComposer {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ReplyComposer{
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  logger,
		metrics: metrics,
	}
}

// Compose produces the next reply for a session turn. Generation failures
// never propagate: the composed reply always satisfies the single-question,
// no-repetition and sentence-budget guarantees.
func (c *ReplyComposer) Compose(ctx context.Context, category ScamCategory, history []Turn, latestMessage string, asked TopicSet, sel Selection) string {
	raw := c.generate(ctx, category, history, latestMessage, sel)
	if strings.TrimSpace(raw) == "" {
		return safeFallbackReply
	}
	return Repair(raw, asked, sel)
}

func (c *ReplyComposer) generate(ctx context.Context, category ScamCategory, history []Turn, latestMessage string, sel Selection) string {
	if c.client == nil {
		return ""
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := LLMRequest{
		Model:       c.model,
		System:      []string{PersonaInstructions(category, sel.Question)},
		Messages:    buildGenerationMessages(history, latestMessage),
		MaxTokens:   150,
		Temperature: 0.8,
	}

	start := time.Now()
	resp, err := c.client.Complete(callCtx, req)
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.metrics.ObserveLLMLatency(status, time.Since(start).Seconds())
	if err != nil {
		c.logger.Warn("generation failed, using safe fallback", "error", err, "category", category)
		return ""
	}
	return resp.Text
}

func buildGenerationMessages(history []Turn, latestMessage string) []ChatMessage {
	messages := make([]ChatMessage, 0, len(history)+1)
	for _, t := range history {
		role := ChatRoleUser
		if t.Sender == SenderAgent {
			role = ChatRoleAssistant
		}
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		messages = append(messages, ChatMessage{Role: role, Content: t.Text})
	}
	// The latest message is already the last history entry when the engine
	// appends before composing; only add it when it isn't.
	if len(messages) == 0 || messages[len(messages)-1].Content != latestMessage {
		messages = append(messages, ChatMessage{Role: ChatRoleUser, Content: latestMessage})
	}
	return messages
}

// Repair turns arbitrary generated text into a safe reply: role labels
// stripped, exactly one question (appending or substituting the selector's
// question as needed), and at most two sentences. Pure function.
func Repair(raw string, asked TopicSet, sel Selection) string {
	text := raw
	for {
		// Backends sometimes stack labels ("Agent: Reply: ...").
		next := roleLabelRE.ReplaceAllString(text, "")
		if next == text {
			break
		}
		text = next
	}
	text = strings.TrimSpace(whitespaceRE.ReplaceAllString(text, " "))
	if text == "" {
		return ensureQuestionForm(sel.Question)
	}

	units := splitSentenceUnits(text)

	// Locate question units: explicit "?" sentences or implicit imperative
	// requests that repeat a topic.
	firstQuestion := -1
	for i, u := range units {
		if isQuestionUnit(u) {
			firstQuestion = i
			break
		}
	}

	if firstQuestion == -1 {
		// No question at all: keep one declarative lead-in, append the
		// selector's question.
		lead := ensureDeclarativeForm(units[0])
		if lead == "" {
			return ensureQuestionForm(sel.Question)
		}
		return lead + " " + ensureQuestionForm(sel.Question)
	}

	question := units[firstQuestion]
	if asked.ContainsAny(ClassifyQuestion(question)) {
		// The generated question repeats an asked topic: substitute the
		// selector's question in its place.
		question = sel.Question
	}
	question = ensureQuestionForm(question)
	if question == "?" {
		// Punctuation-only output carries no usable question.
		question = ensureQuestionForm(sel.Question)
	}

	// Everything after the question is truncated; at most one declarative
	// lead-in survives the two-sentence budget.
	if firstQuestion == 0 {
		return question
	}
	lead := ensureDeclarativeForm(units[0])
	if lead == "" {
		return question
	}
	return lead + " " + question
}

func splitSentenceUnits(text string) []string {
	var units []string
	for _, u := range sentenceUnitRE.FindAllString(text, -1) {
		u = strings.TrimSpace(u)
		if u != "" {
			units = append(units, u)
		}
	}
	if len(units) == 0 {
		units = []string{text}
	}
	return units
}

func isQuestionUnit(unit string) bool {
	if strings.HasSuffix(unit, "?") {
		return true
	}
	stripped := unit
	for {
		next := leadingFillerRE.ReplaceAllString(stripped, "")
		if next == stripped {
			break
		}
		stripped = next
	}
	for _, re := range imperativeREs {
		if re.MatchString(stripped) {
			return true
		}
	}
	return false
}

// ensureQuestionForm strips internal terminators and guarantees a single
// trailing question mark.
func ensureQuestionForm(q string) string {
	q = strings.TrimSpace(q)
	q = strings.TrimRight(q, ".!?")
	q = strings.ReplaceAll(q, "?", "")
	return q + "?"
}

// ensureDeclarativeForm guarantees the lead-in contributes no question mark
// and ends as a sentence.
func ensureDeclarativeForm(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "?", "")
	s = strings.TrimRight(s, ".!")
	if s == "" {
		return ""
	}
	return s + "."
}
