package engagement

import (
	"regexp"
	"strings"
)

// QuestionTopic is a canonical tag for the kind of information a question
// asks for.
type QuestionTopic string

const (
	TopicCallback QuestionTopic = "callback"
	TopicEmail    QuestionTopic = "email"
	TopicEmpID    QuestionTopic = "empid"
	TopicCaseID   QuestionTopic = "caseid"
	TopicLink     QuestionTopic = "link"
	TopicUPI      QuestionTopic = "upi"
	TopicAmount   QuestionTopic = "amount"
	TopicTracking QuestionTopic = "tracking"
	TopicChallan  QuestionTopic = "challan"
	TopicConsumer QuestionTopic = "consumer"
	TopicVehicle  QuestionTopic = "vehicle"
	TopicApp      QuestionTopic = "app"
	TopicOrg      QuestionTopic = "org"
	TopicIFSC     QuestionTopic = "ifsc"
	TopicTxnID    QuestionTopic = "txnid"
)

// TopicSet is a set of question topics.
type TopicSet map[QuestionTopic]bool

// Union merges other into the set.
func (s TopicSet) Union(other TopicSet) {
	for t := range other {
		s[t] = true
	}
}

// Contains reports whether any of the given topics is in the set.
func (s TopicSet) ContainsAny(topics []QuestionTopic) bool {
	for _, t := range topics {
		if s[t] {
			return true
		}
	}
	return false
}

var sentenceSplitRE = regexp.MustCompile(`[.!?\n]+`)

// questionSentenceRE captures sentence fragments that end in a question mark,
// including the mark itself.
var questionSentenceRE = regexp.MustCompile(`[^.!?\n]+\?`)

// leadingFillerRE strips polite noise before testing a sentence against the
// imperative-request grammar. "please" is deliberately absent: it anchors the
// first imperative rule and must survive stripping.
var leadingFillerRE = regexp.MustCompile(`(?i)^(?:ok(?:ay)?|sir|madam|ma'am|fine|alright|also|and|so|now)[\s,]+`)

// Imperative-request grammar: sentences with no question mark that still ask
// for something.
var imperativeREs = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:please|kindly)[\s,]+\w+`),
	regexp.MustCompile(`(?i)^(?:can|could|would|will)\s+you\b`),
	regexp.MustCompile(`(?i)^(?:tell|share|provide|send|give)\s+(?:me|your|us|the)\b`),
	regexp.MustCompile(`(?i)^(?:what|which|who|whom|where|when|how|why)\b`),
}

// topicDetectors classifies question strings into topics. A question may map
// to zero, one, or several topics.
var topicDetectors = []struct {
	topic QuestionTopic
	re    *regexp.Regexp
}{
	{TopicCallback, regexp.MustCompile(`(?i)call\s*back|callback|helpline|which number|contact number|phone number|number to call|call you|your number`)},
	{TopicEmail, regexp.MustCompile(`(?i)\be-?mail\b`)},
	{TopicEmpID, regexp.MustCompile(`(?i)employee\s*(?:id|number|code)|emp\s*id|badge|staff id|your id`)},
	{TopicCaseID, regexp.MustCompile(`(?i)case\s*(?:id|number)|reference\s*(?:id|number)?|ticket|complaint number|fir number`)},
	{TopicLink, regexp.MustCompile(`(?i)\blink\b|website|\burl\b|portal|official site`)},
	{TopicUPI, regexp.MustCompile(`(?i)\bupi\b|upi id|paytm number|gpay|phonepe|vpa`)},
	{TopicAmount, regexp.MustCompile(`(?i)how much|amount|\bfee\b|charge|rupees|\brs\b`)},
	{TopicTracking, regexp.MustCompile(`(?i)tracking|consignment|awb|parcel number|shipment number`)},
	{TopicChallan, regexp.MustCompile(`(?i)challan`)},
	{TopicConsumer, regexp.MustCompile(`(?i)consumer\s*(?:id|number)`)},
	{TopicVehicle, regexp.MustCompile(`(?i)vehicle|registration number|number plate`)},
	{TopicApp, regexp.MustCompile(`(?i)which app|app name|\bapp\b|application|install|download`)},
	{TopicOrg, regexp.MustCompile(`(?i)which bank|which company|company name|organi[sz]ation|department|branch|office|who are you|where are you calling`)},
	{TopicIFSC, regexp.MustCompile(`(?i)\bifsc\b`)},
	{TopicTxnID, regexp.MustCompile(`(?i)transaction\s*(?:id|number)|\btxn\b|\butr\b|payment reference`)},
}

// ExtractQuestions returns the distinct question strings a block of text
// raises: explicit "?" sentences plus implicit imperative requests normalized
// to a synthetic question form. Deduplication is case-insensitive.
func ExtractQuestions(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var questions []string
	seen := map[string]bool{}
	appendQuestion := func(q string) {
		q = strings.TrimSpace(q)
		if q == "" || q == "?" {
			return
		}
		key := strings.ToLower(q)
		if seen[key] {
			return
		}
		seen[key] = true
		questions = append(questions, q)
	}

	// Step 1: explicit questions.
	for _, frag := range questionSentenceRE.FindAllString(text, -1) {
		appendQuestion(frag)
	}

	// Step 2: implicit requests in non-question sentences.
	remainder := questionSentenceRE.ReplaceAllString(text, " ")
	for _, sentence := range sentenceSplitRE.Split(remainder, -1) {
		sentence = strings.TrimSpace(sentence)
		for {
			stripped := leadingFillerRE.ReplaceAllString(sentence, "")
			if stripped == sentence {
				break
			}
			sentence = stripped
		}
		if sentence == "" {
			continue
		}
		for _, re := range imperativeREs {
			if re.MatchString(sentence) {
				appendQuestion(sentence + "?")
				break
			}
		}
	}

	return questions
}

// ClassifyQuestion maps a single question string to the set of topics it
// raises.
func ClassifyQuestion(question string) []QuestionTopic {
	var topics []QuestionTopic
	for _, d := range topicDetectors {
		if d.re.MatchString(question) {
			topics = append(topics, d.topic)
		}
	}
	return topics
}

// TopicsInText returns the union of topic sets over every question the text
// raises.
func TopicsInText(text string) TopicSet {
	set := TopicSet{}
	for _, q := range ExtractQuestions(text) {
		for _, t := range ClassifyQuestion(q) {
			set[t] = true
		}
	}
	return set
}

// AskedTopics recomputes the asked-topic set from every turn in the retained
// history. Both senders are scanned to tolerate ambiguous sender tagging in
// harness-supplied transcripts. Never cached: derived state stays consistent
// under partial data loss or rehydration.
func AskedTopics(history []Turn) TopicSet {
	set := TopicSet{}
	for _, turn := range history {
		set.Union(TopicsInText(turn.Text))
	}
	return set
}
