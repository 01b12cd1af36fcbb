package engagement

import (
	"regexp"
	"strings"
)

// Intelligence maps a fixed set of entity categories to the unique values
// captured for each. Values are case-sensitive and trimmed; a category's set
// only ever grows once merged into a session.
type Intelligence map[string][]string

// Entity category names. The set is closed; every snapshot carries all of
// them, empty or not, so report consumers see a stable shape.
const (
	IntelPhoneNumbers       = "phoneNumbers"
	IntelBankAccounts       = "bankAccounts"
	IntelUPIIDs             = "upiIds"
	IntelPhishingLinks      = "phishingLinks"
	IntelEmailAddresses     = "emailAddresses"
	IntelTrackingIDs        = "trackingIds"
	IntelChallanNumbers     = "challanNumbers"
	IntelConsumerNumbers    = "consumerNumbers"
	IntelVehicleNumbers     = "vehicleNumbers"
	IntelEmployeeIDs        = "employeeIds"
	IntelIFSCCodes          = "ifscCodes"
	IntelCaseIDs            = "caseIds"
	IntelAppNames           = "appNames"
	IntelSuspiciousKeywords = "suspiciousKeywords"
	IntelAmounts            = "amounts"
	IntelCallbackNumbers    = "callbackNumbers"
)

// intelCategories is the canonical order for snapshots and iteration.
var intelCategories = []string{
	IntelPhoneNumbers,
	IntelBankAccounts,
	IntelUPIIDs,
	IntelPhishingLinks,
	IntelEmailAddresses,
	IntelTrackingIDs,
	IntelChallanNumbers,
	IntelConsumerNumbers,
	IntelVehicleNumbers,
	IntelEmployeeIDs,
	IntelIFSCCodes,
	IntelCaseIDs,
	IntelAppNames,
	IntelSuspiciousKeywords,
	IntelAmounts,
	IntelCallbackNumbers,
}

// NewIntelligence returns an empty accumulator with every category present.
func NewIntelligence() Intelligence {
	intel := make(Intelligence, len(intelCategories))
	for _, c := range intelCategories {
		intel[c] = []string{}
	}
	return intel
}

// Merge unions other into intel. Existing values are never dropped or
// overwritten; new values append in first-seen order.
func (intel Intelligence) Merge(other Intelligence) {
	for _, c := range intelCategories {
		for _, v := range other[c] {
			intel.add(c, v)
		}
	}
}

// Total counts captured values across all categories.
func (intel Intelligence) Total() int {
	n := 0
	for _, vals := range intel {
		n += len(vals)
	}
	return n
}

func (intel Intelligence) add(category, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	for _, existing := range intel[category] {
		if existing == value {
			return
		}
	}
	intel[category] = append(intel[category], value)
}

// ---------- package-level compiled patterns ----------

var (
	phoneRE       = regexp.MustCompile(`(?:\+?91[\s-]?)?[6-9]\d{9}\b`)
	bankAccountRE = regexp.MustCompile(`\b\d{9,18}\b`)
	upiRE         = regexp.MustCompile(`\b[a-zA-Z0-9._-]{2,}@[a-zA-Z]{2,}\b`)
	urlRE         = regexp.MustCompile(`https?://[^\s<>"]+`)
	bareDomainRE  = regexp.MustCompile(`(?i)\b(?:[a-z0-9-]+\.)+(?:com|in|org|net|info|xyz|co|io|ly|app|online|site|top|club)\b(?:/[^\s<>"]*)?`)
	emailRE       = regexp.MustCompile(`\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`)

	// The labeled-ID patterns anchor on a case-insensitive keyword but the
	// capture class stays case-sensitive, so prose after the label ("number
	// is ...") is never mistaken for the ID itself.
	trackingRE     = regexp.MustCompile(`(?i:tracking|consignment|awb|shipment|parcel)[\s:#-]*(?i:id|no|number)?[\s:#.-]*([A-Z0-9][A-Z0-9-]{5,19})`)
	challanRE      = regexp.MustCompile(`(?i:challan)[\s:#-]*(?i:id|no|number)?[\s:#.-]*([A-Z0-9][A-Z0-9/-]{3,19})`)
	consumerRE     = regexp.MustCompile(`(?i:consumer)[\s:#-]*(?i:id|no|number)?[\s:#.-]*([A-Z0-9][A-Z0-9-]{3,15})`)
	vehicleRE      = regexp.MustCompile(`\b[A-Z]{2}[\s-]?\d{1,2}[\s-]?[A-Z]{1,3}[\s-]?\d{3,4}\b`)
	employeeRE     = regexp.MustCompile(`(?i:employee|emp|officer|agent|badge)[\s:#-]*(?i:id|code|no|number)?[\s:#.-]*([A-Z0-9][A-Z0-9-]{2,11})`)
	employeeBareRE = regexp.MustCompile(`\bEMP[-\s]?\d{2,8}\b`)
	ifscRE         = regexp.MustCompile(`\b[A-Z]{4}0[A-Z0-9]{6}\b`)
	caseRE         = regexp.MustCompile(`(?i:case|ref|reference|ticket|complaint|fir)[\s:#-]*(?i:id|no|number)?[\s:#.-]*([A-Z0-9][A-Z0-9/-]{2,19})`)
	amountRE       = regexp.MustCompile(`(?i)(?:rs\.?|inr|₹)\s?[\d,]+(?:\.\d{1,2})?`)
	amountWordRE   = regexp.MustCompile(`(?i)\b[\d,]{2,}\s?(?:rupees|rs|lakh|lakhs|crore|crores)\b`)
	callbackRE     = regexp.MustCompile(`(?i)(?:call|contact|dial|whatsapp|helpline|missed call)(?:\s+(?:us|me|him|back|on|at|to|this|number))*[\s:.-]*((?:\+?91[\s-]?)?[6-9]\d{9})\b`)
)

// appVocabulary is the fixed set of remote-access and sideload app names the
// extractor looks for. Matching is case-insensitive whole-substring.
var appVocabulary = []string{
	"anydesk",
	"teamviewer",
	"quick support",
	"quicksupport",
	"rustdesk",
	"airdroid",
	"alpemix",
	"screen share",
}

// suspiciousVocabulary captures urgency, authority and action keywords. Recall
// over precision: a benign "verify" still gets recorded.
var suspiciousVocabulary = []string{
	"urgent",
	"immediately",
	"verify",
	"blocked",
	"block",
	"suspend",
	"frozen",
	"freeze",
	"unauthorized",
	"otp",
	"pin",
	"cvv",
	"kyc",
	"expire",
	"last warning",
	"final notice",
	"legal action",
	"arrest",
	"police",
	"penalty",
	"fine",
	"lottery",
	"winner",
	"prize",
	"refund",
	"install",
	"download",
	"click",
	"share",
	"disconnect",
}

// Extract runs every category's patterns over the given text and returns a
// deduplicated result. It is a pure function: same text, same output, and it
// never fails on empty or malformed input.
//
// Values captured as callback numbers are mirrored into phoneNumbers (union,
// not move) so the phone set is always a superset of the callback set.
func Extract(text string) Intelligence {
	intel := NewIntelligence()
	if strings.TrimSpace(text) == "" {
		return intel
	}
	lower := strings.ToLower(text)

	for _, m := range phoneRE.FindAllString(text, -1) {
		intel.add(IntelPhoneNumbers, normalizeNumber(m))
	}
	for _, m := range bankAccountRE.FindAllString(text, -1) {
		intel.add(IntelBankAccounts, m)
	}
	for _, loc := range upiRE.FindAllStringIndex(text, -1) {
		// An email address continues with a dotted domain after the bank
		// token; a UPI handle ends there. Emails are captured separately.
		if loc[1] < len(text) && text[loc[1]] == '.' {
			continue
		}
		intel.add(IntelUPIIDs, text[loc[0]:loc[1]])
	}
	for _, m := range urlRE.FindAllString(text, -1) {
		intel.add(IntelPhishingLinks, strings.TrimRight(m, ".,;)"))
	}
	for _, m := range bareDomainRE.FindAllString(text, -1) {
		m = strings.TrimRight(m, ".,;)")
		if emailRE.MatchString(m) {
			continue
		}
		intel.add(IntelPhishingLinks, m)
	}
	for _, m := range emailRE.FindAllString(text, -1) {
		intel.add(IntelEmailAddresses, m)
	}
	for _, m := range trackingRE.FindAllStringSubmatch(text, -1) {
		intel.add(IntelTrackingIDs, m[1])
	}
	for _, m := range challanRE.FindAllStringSubmatch(text, -1) {
		intel.add(IntelChallanNumbers, m[1])
	}
	for _, m := range consumerRE.FindAllStringSubmatch(text, -1) {
		intel.add(IntelConsumerNumbers, m[1])
	}
	for _, m := range vehicleRE.FindAllString(text, -1) {
		intel.add(IntelVehicleNumbers, m)
	}
	for _, m := range employeeRE.FindAllStringSubmatch(text, -1) {
		intel.add(IntelEmployeeIDs, m[1])
	}
	for _, m := range employeeBareRE.FindAllString(text, -1) {
		intel.add(IntelEmployeeIDs, m)
	}
	for _, m := range ifscRE.FindAllString(text, -1) {
		intel.add(IntelIFSCCodes, m)
	}
	for _, m := range caseRE.FindAllStringSubmatch(text, -1) {
		intel.add(IntelCaseIDs, m[1])
	}
	for _, app := range appVocabulary {
		if strings.Contains(lower, app) {
			intel.add(IntelAppNames, app)
		}
	}
	for _, kw := range suspiciousVocabulary {
		if strings.Contains(lower, kw) {
			intel.add(IntelSuspiciousKeywords, kw)
		}
	}
	for _, m := range amountRE.FindAllString(text, -1) {
		intel.add(IntelAmounts, m)
	}
	for _, m := range amountWordRE.FindAllString(text, -1) {
		intel.add(IntelAmounts, m)
	}
	for _, m := range callbackRE.FindAllStringSubmatch(text, -1) {
		num := normalizeNumber(m[1])
		intel.add(IntelCallbackNumbers, num)
		intel.add(IntelPhoneNumbers, num)
	}

	return intel
}

func normalizeNumber(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
