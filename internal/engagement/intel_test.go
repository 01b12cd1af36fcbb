package engagement

import (
	"testing"
)

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func TestExtractPhoneAndKeywords(t *testing.T) {
	intel := Extract("Your SBI account is blocked, share OTP now! Call 9876543210")

	if !contains(intel[IntelPhoneNumbers], "9876543210") {
		t.Errorf("phoneNumbers = %v, want 9876543210", intel[IntelPhoneNumbers])
	}
	if !contains(intel[IntelSuspiciousKeywords], "blocked") {
		t.Errorf("suspiciousKeywords = %v, want blocked", intel[IntelSuspiciousKeywords])
	}
	if !contains(intel[IntelSuspiciousKeywords], "otp") {
		t.Errorf("suspiciousKeywords = %v, want otp", intel[IntelSuspiciousKeywords])
	}
}

func TestExtractCallbackMirroredIntoPhones(t *testing.T) {
	intel := Extract("Please call back on 9898989898 for verification")

	if !contains(intel[IntelCallbackNumbers], "9898989898") {
		t.Fatalf("callbackNumbers = %v, want 9898989898", intel[IntelCallbackNumbers])
	}
	// Phone set must be a superset of the callback set.
	for _, cb := range intel[IntelCallbackNumbers] {
		if !contains(intel[IntelPhoneNumbers], cb) {
			t.Errorf("callback %q missing from phoneNumbers %v", cb, intel[IntelPhoneNumbers])
		}
	}
}

func TestExtractCountryCodeNormalized(t *testing.T) {
	intel := Extract("contact me at +91 9876543210")
	if !contains(intel[IntelPhoneNumbers], "+919876543210") {
		t.Errorf("phoneNumbers = %v, want +919876543210", intel[IntelPhoneNumbers])
	}
}

func TestExtractCategories(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		category string
		want     string
	}{
		{"bank account", "transfer to account 123456789012", IntelBankAccounts, "123456789012"},
		{"upi handle", "send money to fraudster@ybl today", IntelUPIIDs, "fraudster@ybl"},
		{"url", "verify at http://sbi-secure.xyz/login now", IntelPhishingLinks, "http://sbi-secure.xyz/login"},
		{"bare domain", "open kyc-update.online to continue", IntelPhishingLinks, "kyc-update.online"},
		{"email", "mail us at support@refund-desk.com", IntelEmailAddresses, "support@refund-desk.com"},
		{"tracking id", "your parcel tracking id: AWB1234567 is on hold", IntelTrackingIDs, "AWB1234567"},
		{"challan number", "pending challan no. MH12AB34567 must be paid", IntelChallanNumbers, "MH12AB34567"},
		{"consumer number", "consumer number 98231456 shows unpaid bill", IntelConsumerNumbers, "98231456"},
		{"vehicle number", "challan issued for MH 12 AB 3456 yesterday", IntelVehicleNumbers, "MH 12 AB 3456"},
		{"employee id", "my employee id is EMP-4521 from head office", IntelEmployeeIDs, "EMP-4521"},
		{"ifsc code", "use IFSC SBIN0001234 for the transfer", IntelIFSCCodes, "SBIN0001234"},
		{"case id", "your case number CYB/2024/881 is registered", IntelCaseIDs, "CYB/2024/881"},
		{"app name", "install anydesk and share the code", IntelAppNames, "anydesk"},
		{"amount rupee sign", "pay Rs. 4,999 immediately", IntelAmounts, "Rs. 4,999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intel := Extract(tt.text)
			if !contains(intel[tt.category], tt.want) {
				t.Errorf("Extract(%q)[%s] = %v, want %q", tt.text, tt.category, intel[tt.category], tt.want)
			}
		})
	}
}

func TestExtractEmailNotTreatedAsUPI(t *testing.T) {
	intel := Extract("write to officer@cybercell.gov.in for the case")
	if len(intel[IntelUPIIDs]) != 0 {
		t.Errorf("email-shaped handle leaked into upiIds: %v", intel[IntelUPIIDs])
	}
	if !contains(intel[IntelEmailAddresses], "officer@cybercell.gov.in") {
		t.Errorf("emailAddresses = %v", intel[IntelEmailAddresses])
	}
}

func TestExtractEmptyInput(t *testing.T) {
	intel := Extract("")
	if intel.Total() != 0 {
		t.Errorf("expected empty result, got %v", intel)
	}
	for _, c := range intelCategories {
		if _, ok := intel[c]; !ok {
			t.Errorf("category %s missing from empty snapshot", c)
		}
	}
}

func TestExtractDeduplicates(t *testing.T) {
	intel := Extract("call 9876543210 or call 9876543210 again")
	if n := len(intel[IntelPhoneNumbers]); n != 1 {
		t.Errorf("expected 1 unique phone, got %d: %v", n, intel[IntelPhoneNumbers])
	}
}

func TestMergeIsMonotonic(t *testing.T) {
	acc := NewIntelligence()
	acc.Merge(Extract("call 9876543210 about your sbi account"))

	snapshot := map[string][]string{}
	for _, c := range intelCategories {
		snapshot[c] = append([]string(nil), acc[c]...)
	}

	acc.Merge(Extract("pay Rs. 500 to winner@upi now"))

	for _, c := range intelCategories {
		for _, v := range snapshot[c] {
			if !contains(acc[c], v) {
				t.Errorf("merge dropped %q from %s", v, c)
			}
		}
	}
	if !contains(acc[IntelUPIIDs], "winner@upi") {
		t.Errorf("merge failed to add new value: %v", acc[IntelUPIIDs])
	}
}

func TestMergeDeduplicates(t *testing.T) {
	acc := NewIntelligence()
	acc.Merge(Extract("call 9876543210"))
	acc.Merge(Extract("call 9876543210"))
	if n := len(acc[IntelPhoneNumbers]); n != 1 {
		t.Errorf("expected 1 unique phone after double merge, got %d", n)
	}
}
