package engagement

import "strings"

// ScamCategory is a closed classification of the fraud pattern believed to be
// in progress.
type ScamCategory string

const (
	CategoryLotteryPrize    ScamCategory = "lottery_prize"
	CategoryBankFraud       ScamCategory = "bank_fraud"
	CategoryUPIFraud        ScamCategory = "upi_fraud"
	CategoryFakeDelivery    ScamCategory = "fake_delivery"
	CategoryElectricityBill ScamCategory = "electricity_bill"
	CategoryTrafficChallan  ScamCategory = "traffic_challan"
	CategoryKYCUpdate       ScamCategory = "kyc_update"
	CategoryInvestmentScam  ScamCategory = "investment_scam"
	CategoryEcommerce       ScamCategory = "ecommerce"
	CategoryAPKRemote       ScamCategory = "apk_remote"
	CategoryTaxRefund       ScamCategory = "tax_refund"
)

// DefaultCategory is returned when no category scores a single keyword hit.
// An arbitrary but stable policy choice; most cold-open scam texts in the
// field turn out to be bank impersonation.
const DefaultCategory = CategoryBankFraud

// categoryRule scores one category: each keyword class is an independent
// boolean test, so a category scores 0, 1 or 2.
type categoryRule struct {
	category ScamCategory
	classes  [][]string
}

// categoryRules is the canonical ordering of the category list. Ties in the
// classifier break toward the earlier entry; never rely on map iteration.
var categoryRules = []categoryRule{
	{CategoryLotteryPrize, [][]string{
		{"lottery", "prize", "winner", "jackpot", "lucky draw", "you have won", "you won"},
		{"congratulations", "claim your", "reward", "gift voucher"},
	}},
	{CategoryBankFraud, [][]string{
		{"bank", "account", "debit card", "credit card", "net banking", "atm"},
		{"sbi", "hdfc", "icici", "axis", "kotak", "pnb", "canara", "rbi"},
	}},
	{CategoryUPIFraud, [][]string{
		{"upi", "collect request", "upi pin"},
		{"paytm", "phonepe", "gpay", "google pay", "bhim"},
	}},
	{CategoryFakeDelivery, [][]string{
		{"parcel", "courier", "package", "shipment", "delivery", "consignment"},
		{"fedex", "dhl", "bluedart", "dtdc", "india post", "ekart", "delhivery"},
	}},
	{CategoryElectricityBill, [][]string{
		{"electricity", "power supply", "meter", "disconnected tonight"},
		{"bill pending", "consumer number", "bill not updated"},
	}},
	{CategoryTrafficChallan, [][]string{
		{"challan", "traffic violation", "traffic police"},
		{"rto", "parivahan", "vehicle seized", "driving licence", "driving license"},
	}},
	{CategoryKYCUpdate, [][]string{
		{"kyc", "re-kyc", "kyc update", "kyc pending"},
		{"aadhaar", "aadhar", "pan card", "update your details"},
	}},
	{CategoryInvestmentScam, [][]string{
		{"investment", "trading", "stock tips", "mutual fund", "forex", "crypto", "bitcoin"},
		{"guaranteed returns", "double your money", "high returns", "profit daily"},
	}},
	{CategoryEcommerce, [][]string{
		{"order", "cart", "gift card", "cashback offer"},
		{"amazon", "flipkart", "myntra", "meesho", "shopping"},
	}},
	{CategoryAPKRemote, [][]string{
		{"apk", "install the app", "download the app", "screen sharing", "remote access"},
		{"anydesk", "teamviewer", "quick support", "quicksupport", "rustdesk"},
	}},
	{CategoryTaxRefund, [][]string{
		{"income tax", "tax refund", "itr", "tds"},
		{"refund approved", "assessment", "tax department"},
	}},
}

// Categories returns the canonical category list, in tie-break order.
func Categories() []ScamCategory {
	out := make([]ScamCategory, len(categoryRules))
	for i, r := range categoryRules {
		out[i] = r.category
	}
	return out
}

// Classify scores the fraudster-authored text against every category and
// returns the best match. Pure and total: empty input yields DefaultCategory.
// The boolean reports whether any category scored at all.
func Classify(text string) (ScamCategory, bool) {
	lower := strings.ToLower(text)

	best := DefaultCategory
	bestScore := 0
	for _, rule := range categoryRules {
		score := 0
		for _, class := range rule.classes {
			for _, kw := range class {
				if strings.Contains(lower, kw) {
					score++
					break
				}
			}
		}
		// Strictly greater keeps the earliest canonical entry on ties.
		if score > bestScore {
			best = rule.category
			bestScore = score
		}
	}
	return best, bestScore > 0
}
