package engagement

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/trapline-ai/trapline/pkg/logging"
)

type stubLLMClient struct {
	text string
	err  error
}

func (s stubLLMClient) Complete(_ context.Context, _ LLMRequest) (LLMResponse, error) {
	if s.err != nil {
		return LLMResponse{}, s.err
	}
	return LLMResponse{Text: s.text}, nil
}

func testComposer(client LLMClient) *ReplyComposer {
	return NewReplyComposer(client, "", time.Second, logging.New("error"), nil)
}

func TestRepairAppendsQuestionWhenMissing(t *testing.T) {
	sel := Selection{Topic: TopicEmpID, Question: "What is your employee id number?"}
	got := Repair("Oh no, my account is blocked.", TopicSet{}, sel)
	want := "Oh no, my account is blocked. What is your employee id number?"
	if got != want {
		t.Errorf("Repair() = %q, want %q", got, want)
	}
}

func TestRepairKeepsNonCollidingQuestion(t *testing.T) {
	sel := Selection{Topic: TopicOrg, Question: "Which bank are you calling from, sir?"}
	got := Repair("Ok sir. What is your employee id number?", TopicSet{}, sel)
	if got != "Ok sir. What is your employee id number?" {
		t.Errorf("Repair() = %q", got)
	}
}

func TestRepairSubstitutesCollidingQuestion(t *testing.T) {
	asked := TopicSet{TopicEmpID: true}
	sel := Selection{Topic: TopicOrg, Question: "Which bank are you calling from, sir?"}
	got := Repair("Ok sir. What is your employee id number?", asked, sel)
	want := "Ok sir. Which bank are you calling from, sir?"
	if got != want {
		t.Errorf("Repair() = %q, want %q", got, want)
	}
}

func TestRepairStripsRoleLabels(t *testing.T) {
	sel := Selection{Topic: TopicAmount, Question: "How much amount do I need to pay exactly?"}
	got := Repair("Agent: I am very worried now.", TopicSet{}, sel)
	if strings.Contains(got, "Agent:") {
		t.Errorf("role label survived: %q", got)
	}
	if !strings.HasPrefix(got, "I am very worried now.") {
		t.Errorf("lead-in lost: %q", got)
	}
}

func TestRepairClampsToTwoSentences(t *testing.T) {
	sel := Selection{Topic: TopicOrg, Question: "Which bank are you calling from, sir?"}
	raw := "I see. That sounds serious. I am scared. What is the case id or reference number for this? Also call me."
	got := Repair(raw, TopicSet{}, sel)

	units := splitSentenceUnits(got)
	if len(units) > 2 {
		t.Errorf("reply exceeds two sentences: %q", got)
	}
	if countQuestionMarks(got) != 1 {
		t.Errorf("reply must contain exactly one question mark: %q", got)
	}
}

func TestRepairCollapsesMultipleQuestions(t *testing.T) {
	sel := Selection{Topic: TopicOrg, Question: "Which bank are you calling from, sir?"}
	got := Repair("What is your name? Where is your office? Who sent you?", TopicSet{}, sel)
	if countQuestionMarks(got) != 1 {
		t.Errorf("expected exactly one question mark, got %q", got)
	}
}

func TestRepairAlwaysExactlyOneQuestion(t *testing.T) {
	sel := Selection{Topic: TopicEmpID, Question: "What is your employee id number?"}
	raws := []string{
		"",
		"???",
		"ok",
		"Agent: Reply: hello there",
		"Something happened!!! Really!!!",
		"Is it urgent? Yes? No?",
		"Please share the link. Please share the link. Please share the link.",
	}
	for _, raw := range raws {
		got := Repair(raw, TopicSet{}, sel)
		if countQuestionMarks(got) != 1 {
			t.Errorf("Repair(%q) = %q, want exactly one question mark", raw, got)
		}
		if units := splitSentenceUnits(got); len(units) > 2 {
			t.Errorf("Repair(%q) = %q, exceeds two sentences", raw, got)
		}
	}
}

func TestRepairImplicitQuestionCollision(t *testing.T) {
	// An imperative request that repeats an asked topic counts as a question
	// and gets substituted.
	asked := TopicSet{TopicLink: true}
	sel := Selection{Topic: TopicOrg, Question: "Which bank are you calling from, sir?"}
	got := Repair("Please share the link again.", asked, sel)
	if !strings.Contains(got, "Which bank are you calling from, sir?") {
		t.Errorf("colliding implicit question not substituted: %q", got)
	}
	if set := TopicsInText(got); set[TopicLink] {
		t.Errorf("asked topic resurfaced: %q", got)
	}
}

func TestRepairPleaseRequestCollision(t *testing.T) {
	// "Please" + a verb outside the tell/share/provide/send list still counts
	// as an implicit question, so the repeated topic is substituted away.
	asked := TopicSet{TopicUPI: true}
	sel := Selection{Topic: TopicOrg, Question: "Which bank are you calling from, sir?"}
	got := Repair("Please confirm the UPI id now.", asked, sel)
	if !strings.Contains(got, "Which bank are you calling from, sir?") {
		t.Errorf("colliding please request not substituted: %q", got)
	}
	if set := TopicsInText(got); set[TopicUPI] {
		t.Errorf("asked topic resurfaced: %q", got)
	}
}

func TestComposeGenerationErrorDegradesToSafeFallback(t *testing.T) {
	c := testComposer(stubLLMClient{err: errors.New("backend down")})
	sel := Selection{Topic: TopicEmpID, Question: "What is your employee id number?"}

	got := c.Compose(context.Background(), CategoryBankFraud, nil, "your account is blocked", TopicSet{}, sel)
	if got != safeFallbackReply {
		t.Errorf("Compose() = %q, want safe fallback", got)
	}
}

func TestComposeEmptyGenerationDegradesToSafeFallback(t *testing.T) {
	c := testComposer(stubLLMClient{text: "   "})
	sel := Selection{Topic: TopicEmpID, Question: "What is your employee id number?"}

	got := c.Compose(context.Background(), CategoryBankFraud, nil, "hello", TopicSet{}, sel)
	if got != safeFallbackReply {
		t.Errorf("Compose() = %q, want safe fallback", got)
	}
}

func TestComposeNilClientDegradesToSafeFallback(t *testing.T) {
	c := testComposer(nil)
	sel := Selection{Topic: TopicEmpID, Question: "What is your employee id number?"}

	got := c.Compose(context.Background(), CategoryBankFraud, nil, "hello", TopicSet{}, sel)
	if got != safeFallbackReply {
		t.Errorf("Compose() = %q, want safe fallback", got)
	}
}

func TestComposeRepairsGeneratedText(t *testing.T) {
	c := testComposer(stubLLMClient{text: "Oh god, this is scary."})
	sel := Selection{Topic: TopicEmpID, Question: "What is your employee id number?"}

	got := c.Compose(context.Background(), CategoryBankFraud, nil, "your account is blocked", TopicSet{}, sel)
	if !strings.Contains(got, sel.Question) {
		t.Errorf("selector question missing from %q", got)
	}
	if countQuestionMarks(got) != 1 {
		t.Errorf("expected exactly one question mark in %q", got)
	}
}

func TestPersonaInstructionsCarryQuestion(t *testing.T) {
	q := "Which bank are you calling from, sir?"
	instructions := PersonaInstructions(CategoryBankFraud, q)
	if !strings.Contains(instructions, q) {
		t.Errorf("instructions missing question: %q", instructions)
	}
	if !strings.Contains(instructions, PersonaTag(CategoryBankFraud)) {
		t.Errorf("instructions missing persona tag")
	}
}

func TestTranscriptLabelsSenders(t *testing.T) {
	history := []Turn{
		{Sender: SenderScammer, Text: "pay now"},
		{Sender: SenderAgent, Text: "why sir"},
	}
	got := Transcript(history)
	if !strings.Contains(got, "Them: pay now") || !strings.Contains(got, "You: why sir") {
		t.Errorf("Transcript() = %q", got)
	}
}
