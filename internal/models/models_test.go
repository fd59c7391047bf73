package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParsePaymentSource(t *testing.T) {
	tests := []struct {
		input   string
		want    PaymentSource
		wantErr bool
	}{
		{"settled", SourceSettled, false},
		{"ledger", SourceSettled, false},
		{"SETTLED", SourceSettled, false},
		{"pending_queue", SourcePendingQueue, false},
		{"queue", SourcePendingQueue, false},
		{"pending", SourcePendingQueue, false},
		{"refunds", "", true},
		{"", "", true},
	}

	for _, tc := range tests {
		got, err := ParsePaymentSource(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParsePaymentSource(%q): expected an error", tc.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePaymentSource(%q): %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParsePaymentSource(%q) = %s, want %s", tc.input, got, tc.want)
		}
	}
}

func TestParseDecimalFromString(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"125.50", "125.5", false},
		{"1,250.50", "1250.5", false},
		{"$99.99", "99.99", false},
		{"  10  ", "10", false},
		{"", "", true},
		{"abc", "", true},
	}

	for _, tc := range tests {
		got, err := ParseDecimalFromString(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseDecimalFromString(%q): expected an error", tc.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDecimalFromString(%q): %v", tc.input, err)
			continue
		}
		if got.String() != tc.want {
			t.Errorf("ParseDecimalFromString(%q) = %s, want %s", tc.input, got, tc.want)
		}
	}
}

func TestSplitMultiValue(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"a@x.com;b@x.com", []string{"a@x.com", "b@x.com"}},
		{"a@x.com | b@x.com", []string{"a@x.com", "b@x.com"}},
		{" a@x.com ; ; b@x.com ", []string{"a@x.com", "b@x.com"}},
		{"solo", []string{"solo"}},
		{"", []string{}},
		// Semicolon wins when both separators appear
		{"a;b|c", []string{"a", "b|c"}},
	}

	for _, tc := range tests {
		got := SplitMultiValue(tc.input)
		if len(got) != len(tc.want) {
			t.Errorf("SplitMultiValue(%q) = %v, want %v", tc.input, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("SplitMultiValue(%q)[%d] = %q, want %q", tc.input, i, got[i], tc.want[i])
			}
		}
	}
}

func TestSortTimestamp(t *testing.T) {
	paidAt := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	createdAt := time.Date(2026, 2, 1, 11, 0, 0, 0, time.UTC)

	withPaid := &PaymentEvidence{PaidAt: &paidAt, CreatedAt: createdAt}
	if got := withPaid.SortTimestamp(); !got.Equal(paidAt) {
		t.Errorf("expected paid_at to win, got %v", got)
	}

	withoutPaid := &PaymentEvidence{CreatedAt: createdAt}
	if got := withoutPaid.SortTimestamp(); !got.Equal(createdAt) {
		t.Errorf("expected created_at fallback, got %v", got)
	}

	zeroPaid := time.Time{}
	withZeroPaid := &PaymentEvidence{PaidAt: &zeroPaid, CreatedAt: createdAt}
	if got := withZeroPaid.SortTimestamp(); !got.Equal(createdAt) {
		t.Errorf("zero paid_at must fall back to created_at, got %v", got)
	}
}

func TestKnownProfileAllEmailsAndPhones(t *testing.T) {
	profile := NewKnownProfile("P1", "Ivan Petrov")
	profile.Email = "primary@example.com"
	profile.SecondaryEmails = []string{"second@example.com", ""}
	profile.Phone = "+375291234567"
	profile.SecondaryPhones = []string{"80291112233"}

	emails := profile.AllEmails()
	if len(emails) != 2 || emails[0] != "primary@example.com" {
		t.Errorf("unexpected emails %v", emails)
	}

	phones := profile.AllPhones()
	if len(phones) != 2 || phones[0] != "+375291234567" {
		t.Errorf("unexpected phones %v", phones)
	}
}

func TestPaymentEvidenceValidate(t *testing.T) {
	createdAt := time.Date(2026, 2, 1, 11, 0, 0, 0, time.UTC)

	valid := &PaymentEvidence{
		Source:     SourceSettled,
		NaturalKey: "pay-001",
		Amount:     decimal.NewFromInt(10),
		CreatedAt:  createdAt,
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid evidence must pass: %v", err)
	}

	noTimestamp := &PaymentEvidence{
		Source:     SourceSettled,
		NaturalKey: "pay-002",
		Amount:     decimal.NewFromInt(10),
	}
	if err := noTimestamp.Validate(); err == nil {
		t.Error("evidence without any timestamp must fail validation")
	}

	negative := &PaymentEvidence{
		Source:     SourceSettled,
		NaturalKey: "pay-003",
		Amount:     decimal.NewFromInt(-10),
		CreatedAt:  createdAt,
	}
	if err := negative.Validate(); err == nil {
		t.Error("negative amount must fail validation")
	}
}

func TestMatchTierIsExact(t *testing.T) {
	exact := []MatchTier{TierExternalID, TierEmail, TierPhone, TierTelegram, TierNameExact}
	for _, tier := range exact {
		if !tier.IsExact() {
			t.Errorf("%s must be exact", tier)
		}
	}
	for _, tier := range []MatchTier{TierNameFuzzy, TierNone} {
		if tier.IsExact() {
			t.Errorf("%s must not be exact", tier)
		}
	}
}
