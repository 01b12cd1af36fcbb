package engagement

import (
	"fmt"
	"strings"
)

// personaTags bind each scam category to the victim persona the generation
// capability should play.
var personaTags = map[ScamCategory]string{
	CategoryLotteryPrize:    "excited first-time prize winner",
	CategoryBankFraud:       "worried account holder",
	CategoryUPIFraud:        "confused UPI user",
	CategoryFakeDelivery:    "anxious online shopper waiting for a parcel",
	CategoryElectricityBill: "stressed householder afraid of disconnection",
	CategoryTrafficChallan:  "surprised vehicle owner",
	CategoryKYCUpdate:       "compliant customer afraid of account freeze",
	CategoryInvestmentScam:  "cautious saver tempted by returns",
	CategoryEcommerce:       "puzzled customer about an order",
	CategoryAPKRemote:       "non-technical phone user",
	CategoryTaxRefund:       "hopeful taxpayer expecting a refund",
}

// PersonaTag returns the persona bound to a category.
func PersonaTag(category ScamCategory) string {
	if tag, ok := personaTags[category]; ok {
		return tag
	}
	return personaTags[DefaultCategory]
}

const personaInstructionsTemplate = `You are roleplaying as a real person replying to a suspicious message. Persona: %s.

RULES
- Language: plain Indian English, natural texting style, slightly imperfect.
- Reply length: one or two short lines only.
- Stay believable and keep the other party talking. Never confront or accuse.
- Never mention scam, fraud, police, AI, or detection.
- Never share any real OTP, PIN, CVV, password or account number. If asked, use safe friction only (OTP not received, app stuck, network issue).
- End your reply with this exact question: %s`

// PersonaInstructions renders the system instructions for the generation
// capability: the category persona plus the question the engine needs asked.
func PersonaInstructions(category ScamCategory, question string) string {
	return fmt.Sprintf(personaInstructionsTemplate, PersonaTag(category), question)
}

// Transcript renders the retained history for the generation request, latest
// turn last.
func Transcript(history []Turn) string {
	var b strings.Builder
	for _, t := range history {
		label := "Them"
		if t.Sender == SenderAgent {
			label = "You"
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(t.Text)
		b.WriteString("\n")
	}
	return b.String()
}
