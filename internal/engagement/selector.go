package engagement

import (
	"math/rand"
	"strings"
)

// topicPriorities orders each category's question topics by intelligence
// value. The selector walks the list and picks the first topic that is both
// unasked and plausible in context.
var topicPriorities = map[ScamCategory][]QuestionTopic{
	CategoryLotteryPrize:    {TopicOrg, TopicAmount, TopicUPI, TopicLink, TopicCallback, TopicCaseID, TopicEmail},
	CategoryBankFraud:       {TopicEmpID, TopicOrg, TopicCallback, TopicEmail, TopicCaseID, TopicTxnID, TopicAmount, TopicIFSC},
	CategoryUPIFraud:        {TopicUPI, TopicTxnID, TopicAmount, TopicCallback, TopicOrg, TopicCaseID},
	CategoryFakeDelivery:    {TopicTracking, TopicOrg, TopicAmount, TopicCallback, TopicLink, TopicCaseID},
	CategoryElectricityBill: {TopicConsumer, TopicAmount, TopicOrg, TopicCallback, TopicCaseID, TopicUPI},
	CategoryTrafficChallan:  {TopicChallan, TopicVehicle, TopicAmount, TopicLink, TopicOrg, TopicCallback},
	CategoryKYCUpdate:       {TopicOrg, TopicEmpID, TopicLink, TopicCallback, TopicCaseID, TopicEmail},
	CategoryInvestmentScam:  {TopicOrg, TopicAmount, TopicUPI, TopicLink, TopicTxnID, TopicCallback, TopicEmail},
	CategoryEcommerce:       {TopicOrg, TopicCaseID, TopicTracking, TopicAmount, TopicCallback, TopicLink},
	CategoryAPKRemote:       {TopicApp, TopicLink, TopicOrg, TopicEmpID, TopicCallback, TopicCaseID},
	CategoryTaxRefund:       {TopicOrg, TopicCaseID, TopicAmount, TopicLink, TopicCallback, TopicEmail},
}

var (
	paymentVocab  = []string{"pay", "payment", "upi", "transfer", "amount", "money", "rs", "rupees", "refund", "deposit"}
	parcelVocab   = []string{"parcel", "courier", "package", "shipment", "delivery", "consignment"}
	appVocab      = []string{"app", "install", "download", "apk", "screen"}
	challanVocab  = []string{"challan", "violation", "fine", "traffic"}
	consumerVocab = []string{"consumer", "electricity", "meter", "bill", "power"}
	vehicleVocab  = []string{"vehicle", "car", "bike", "registration", "rto"}
	bankVocab     = []string{"bank", "account", "ifsc", "branch", "neft", "transfer"}
	txnVocab      = []string{"transaction", "payment", "paid", "utr", "txn", "transfer"}
)

func containsAnyWord(text string, vocab []string) bool {
	for _, w := range vocab {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// topicEligible is the context gate: asking about a topic must be plausible
// given the current message and scam category.
func topicEligible(topic QuestionTopic, category ScamCategory, message string) bool {
	msg := strings.ToLower(message)
	switch topic {
	case TopicUPI:
		return category == CategoryUPIFraud || category == CategoryLotteryPrize ||
			category == CategoryInvestmentScam || category == CategoryElectricityBill ||
			containsAnyWord(msg, paymentVocab)
	case TopicTracking:
		return category == CategoryFakeDelivery || containsAnyWord(msg, parcelVocab)
	case TopicApp:
		return category == CategoryAPKRemote || containsAnyWord(msg, appVocab)
	case TopicChallan:
		return category == CategoryTrafficChallan || containsAnyWord(msg, challanVocab)
	case TopicConsumer:
		return category == CategoryElectricityBill || containsAnyWord(msg, consumerVocab)
	case TopicVehicle:
		return category == CategoryTrafficChallan || containsAnyWord(msg, vehicleVocab)
	case TopicIFSC:
		return category == CategoryBankFraud || containsAnyWord(msg, bankVocab)
	case TopicTxnID:
		return category == CategoryUPIFraud || category == CategoryBankFraud ||
			category == CategoryInvestmentScam || containsAnyWord(msg, txnVocab)
	case TopicAmount:
		return category != CategoryAPKRemote || containsAnyWord(msg, paymentVocab)
	default:
		// callback, email, empid, caseid, link, org are always plausible.
		return true
	}
}

// phrasings holds the fixed question variants per topic. Variants stay short
// and in the persona's register.
var phrasings = map[QuestionTopic][]string{
	TopicCallback: {
		"Which number should I call you back on?",
		"Sir my phone may disconnect, what is your callback number?",
		"Is there any helpline number I can call?",
	},
	TopicEmail: {
		"Can you send me the details on email, what is your email id?",
		"What is your official email address?",
	},
	TopicEmpID: {
		"What is your employee id number?",
		"Sir can you share your employee id for my record?",
	},
	TopicCaseID: {
		"What is the case id or reference number for this?",
		"Can you give me the complaint ticket number?",
	},
	TopicLink: {
		"Which website should I open, can you send the link?",
		"Please share the official link once more, it is not opening.",
	},
	TopicUPI: {
		"Which UPI id should I send it to?",
		"It is asking for the UPI id, what is it exactly?",
	},
	TopicAmount: {
		"How much amount do I need to pay exactly?",
		"What is the total amount including all charges?",
	},
	TopicTracking: {
		"What is the tracking number of my parcel?",
		"Can you tell me the consignment number?",
	},
	TopicChallan: {
		"What is the challan number?",
		"Can you send me the challan number so I can check?",
	},
	TopicConsumer: {
		"Which consumer number is this for?",
		"My bill has two consumer numbers, which one are you seeing?",
	},
	TopicVehicle: {
		"Which vehicle number is this notice for?",
		"Can you confirm the vehicle registration number?",
	},
	TopicApp: {
		"Which app do I need to install exactly?",
		"What is the name of the app in play store?",
	},
	TopicOrg: {
		"Which bank are you calling from, sir?",
		"Which company or department is this exactly?",
	},
	TopicIFSC: {
		"What is the IFSC code for the transfer?",
		"It is asking IFSC code also, can you tell?",
	},
	TopicTxnID: {
		"What is the transaction id showing on your side?",
		"Can you give me the UTR number of that transaction?",
	},
}

// fallbackQuestion is the universal topic-less delay phrasing used when every
// topic in the priority list is asked or gated out. The selector never
// returns an empty question.
const fallbackQuestion = "I am driving right now, is it ok if I message you again in ten minutes?"

// Selection is the topic selector's output.
type Selection struct {
	Topic    QuestionTopic // empty for the universal fallback
	Question string
}

// TopicSelector picks the next unasked, context-relevant question. Topic
// choice is deterministic given identical inputs; phrasing-variant choice is
// randomized through the injected source so tests can pin a seed.
type TopicSelector struct {
	rng *rand.Rand
}

// NewTopicSelector creates a selector with the given random source. A nil rng
// makes variant choice deterministic (always the first unused variant).
func NewTopicSelector(rng *rand.Rand) *TopicSelector {
	return &TopicSelector{rng: rng}
}

// Select walks the category's priority list and returns the first topic that
// is unasked and passes its context gate, with a phrasing not yet used in
// recentReplies. Falls back to the universal delay question.
func (ts *TopicSelector) Select(category ScamCategory, asked TopicSet, message string, recentReplies []string) Selection {
	priorities, ok := topicPriorities[category]
	if !ok {
		priorities = topicPriorities[DefaultCategory]
	}
	for _, topic := range priorities {
		if asked[topic] {
			continue
		}
		if !topicEligible(topic, category, message) {
			continue
		}
		return Selection{Topic: topic, Question: ts.pickVariant(topic, recentReplies)}
	}
	return Selection{Question: fallbackQuestion}
}

// pickVariant prefers a variant whose normalized text has not appeared in the
// recent reply history; when every variant has been used, the first one is
// reused.
func (ts *TopicSelector) pickVariant(topic QuestionTopic, recentReplies []string) string {
	variants := phrasings[topic]
	if len(variants) == 0 {
		return fallbackQuestion
	}
	start := 0
	if ts.rng != nil {
		start = ts.rng.Intn(len(variants))
	}
	for i := 0; i < len(variants); i++ {
		v := variants[(start+i)%len(variants)]
		if !variantUsed(v, recentReplies) {
			return v
		}
	}
	return variants[0]
}

func variantUsed(variant string, recentReplies []string) bool {
	needle := strings.ToLower(strings.TrimSpace(variant))
	for _, reply := range recentReplies {
		if strings.Contains(strings.ToLower(reply), needle) {
			return true
		}
	}
	return false
}
