package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MatchTier is a priority level in the exact-match chain. Tiers encode a
// trust hierarchy: structured unique identifiers first, display names last.
type MatchTier string

const (
	TierExternalID MatchTier = "external_id"
	TierEmail      MatchTier = "email"
	TierPhone      MatchTier = "phone"
	TierTelegram   MatchTier = "telegram"
	TierNameExact  MatchTier = "name_exact"
	TierNameFuzzy  MatchTier = "name_fuzzy"
	TierNone       MatchTier = "none"
)

// String returns the string representation of MatchTier
func (t MatchTier) String() string {
	return string(t)
}

// IsExact reports whether the tier was produced by an exact index lookup
func (t MatchTier) IsExact() bool {
	switch t {
	case TierExternalID, TierEmail, TierPhone, TierTelegram, TierNameExact:
		return true
	}
	return false
}

// ExternalContact is one contact record from an imported CRM batch. It is
// immutable once parsed; matching never mutates the contact.
type ExternalContact struct {
	ExternalID     string    `json:"external_id" csv:"external_id"`
	DisplayName    string    `json:"display_name" csv:"display_name"`
	FirstName      string    `json:"first_name,omitempty" csv:"first_name"`
	LastName       string    `json:"last_name,omitempty" csv:"last_name"`
	Emails         []string  `json:"emails,omitempty" csv:"emails"`
	Phones         []string  `json:"phones,omitempty" csv:"phones"`
	TelegramHandle string    `json:"telegram_handle,omitempty" csv:"telegram_handle"`
	CreatedAt      time.Time `json:"created_at" csv:"created_at"`
}

// NewExternalContact creates a new ExternalContact instance. Collection
// fields default to empty slices so index insertion needs no nil checks.
func NewExternalContact(externalID, displayName string) *ExternalContact {
	return &ExternalContact{
		ExternalID:  externalID,
		DisplayName: displayName,
		Emails:      []string{},
		Phones:      []string{},
	}
}

// Validate performs basic validation on the ExternalContact
func (c *ExternalContact) Validate() error {
	if strings.TrimSpace(c.ExternalID) == "" {
		return fmt.Errorf("contact external ID cannot be empty")
	}

	if strings.TrimSpace(c.DisplayName) == "" && len(c.Emails) == 0 && len(c.Phones) == 0 {
		return fmt.Errorf("contact must carry a display name, an email or a phone")
	}

	return nil
}

// PrimaryEmail returns the first candidate email, or empty when none
func (c *ExternalContact) PrimaryEmail() string {
	if len(c.Emails) == 0 {
		return ""
	}
	return c.Emails[0]
}

// String returns a string representation of the ExternalContact
func (c *ExternalContact) String() string {
	return fmt.Sprintf("ExternalContact{ID: %s, Name: %s, Emails: %d, Phones: %d}",
		c.ExternalID, c.DisplayName, len(c.Emails), len(c.Phones))
}

// KnownProfile is one internal member profile from the snapshot read at
// batch start. Profiles are read-only during a matching pass.
type KnownProfile struct {
	ID              string   `json:"id" csv:"id"`
	DisplayName     string   `json:"display_name" csv:"display_name"`
	Email           string   `json:"email,omitempty" csv:"email"`
	SecondaryEmails []string `json:"secondary_emails,omitempty" csv:"secondary_emails"`
	Phone           string   `json:"phone,omitempty" csv:"phone"`
	SecondaryPhones []string `json:"secondary_phones,omitempty" csv:"secondary_phones"`
	TelegramHandle  string   `json:"telegram_handle,omitempty" csv:"telegram_handle"`
	ExternalID      string   `json:"external_id,omitempty" csv:"external_id"`
}

// NewKnownProfile creates a new KnownProfile instance with empty collections
func NewKnownProfile(id, displayName string) *KnownProfile {
	return &KnownProfile{
		ID:              id,
		DisplayName:     displayName,
		SecondaryEmails: []string{},
		SecondaryPhones: []string{},
	}
}

// Validate performs basic validation on the KnownProfile
func (p *KnownProfile) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("profile ID cannot be empty")
	}
	return nil
}

// AllEmails returns the primary email followed by every secondary email.
// Empty values are skipped.
func (p *KnownProfile) AllEmails() []string {
	emails := make([]string, 0, 1+len(p.SecondaryEmails))
	if p.Email != "" {
		emails = append(emails, p.Email)
	}
	for _, e := range p.SecondaryEmails {
		if e != "" {
			emails = append(emails, e)
		}
	}
	return emails
}

// AllPhones returns the primary phone followed by every secondary phone.
// Empty values are skipped.
func (p *KnownProfile) AllPhones() []string {
	phones := make([]string, 0, 1+len(p.SecondaryPhones))
	if p.Phone != "" {
		phones = append(phones, p.Phone)
	}
	for _, ph := range p.SecondaryPhones {
		if ph != "" {
			phones = append(phones, ph)
		}
	}
	return phones
}

// String returns a string representation of the KnownProfile
func (p *KnownProfile) String() string {
	return fmt.Sprintf("KnownProfile{ID: %s, Name: %s, ExternalID: %s}",
		p.ID, p.DisplayName, p.ExternalID)
}

// LinkedCard is one payment card recorded against a profile. Multiple cards
// may share a last-4 within the same profile; that is the ambiguity
// condition the payment merger must detect.
type LinkedCard struct {
	ProfileID string `json:"profile_id" csv:"profile_id"`
	Last4     string `json:"last4" csv:"last4"`
	Brand     string `json:"brand,omitempty" csv:"brand"`
}

// Validate performs basic validation on the LinkedCard
func (c *LinkedCard) Validate() error {
	if strings.TrimSpace(c.ProfileID) == "" {
		return fmt.Errorf("linked card profile ID cannot be empty")
	}

	if len(c.Last4) != 4 {
		return fmt.Errorf("card last4 must be exactly 4 digits, got %q", c.Last4)
	}

	for _, r := range c.Last4 {
		if r < '0' || r > '9' {
			return fmt.Errorf("card last4 must be digits only, got %q", c.Last4)
		}
	}

	return nil
}

// HasKnownBrand reports whether the card carries a usable brand label
func (c *LinkedCard) HasKnownBrand() bool {
	return strings.TrimSpace(c.Brand) != ""
}

// PaymentSource tags which ledger a piece of evidence came from
type PaymentSource string

const (
	// SourceSettled is the settled ledger of completed payments
	SourceSettled PaymentSource = "settled"
	// SourcePendingQueue is the pending-reconciliation queue; rows are only
	// surfaced once their source marks them resolved
	SourcePendingQueue PaymentSource = "pending_queue"
)

// IsValid checks if the payment source is valid
func (s PaymentSource) IsValid() bool {
	return s == SourceSettled || s == SourcePendingQueue
}

// PaymentEvidence is one payment row from either source. Two rows from
// different sources describe the same real-world payment only when they
// share a natural key; evidence rows are never fuzzy-matched to each other.
type PaymentEvidence struct {
	Source     PaymentSource   `json:"source"`
	NaturalKey string          `json:"natural_key"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	PaidAt     *time.Time      `json:"paid_at,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	CardLast4  string          `json:"card_last4,omitempty"`
	CardBrand  string          `json:"card_brand,omitempty"`
	OrderRef   string          `json:"order_ref,omitempty"`
	ProfileID  string          `json:"profile_id,omitempty"`
}

// Validate performs basic validation on the PaymentEvidence
func (e *PaymentEvidence) Validate() error {
	if !e.Source.IsValid() {
		return fmt.Errorf("invalid payment source: %s", e.Source)
	}

	if strings.TrimSpace(e.NaturalKey) == "" {
		return fmt.Errorf("payment evidence natural key cannot be empty")
	}

	if e.Amount.IsNegative() {
		return fmt.Errorf("payment evidence amount cannot be negative")
	}

	if e.SortTimestamp().IsZero() {
		return fmt.Errorf("payment evidence must carry a paid or created timestamp")
	}

	return nil
}

// SortTimestamp returns the timestamp used for ordering: the payment time
// when present, otherwise the row creation time.
func (e *PaymentEvidence) SortTimestamp() time.Time {
	if e.PaidAt != nil && !e.PaidAt.IsZero() {
		return *e.PaidAt
	}
	return e.CreatedAt
}

// HasKnownBrand reports whether the evidence carries a usable brand label
func (e *PaymentEvidence) HasKnownBrand() bool {
	return strings.TrimSpace(e.CardBrand) != ""
}

// String returns a string representation of the PaymentEvidence
func (e *PaymentEvidence) String() string {
	return fmt.Sprintf("PaymentEvidence{Key: %s, Source: %s, Amount: %s %s, Card: *%s}",
		e.NaturalKey, e.Source, e.Amount.String(), e.Currency, e.CardLast4)
}

// MarshalJSON implements custom JSON marshaling for PaymentEvidence
func (e *PaymentEvidence) MarshalJSON() ([]byte, error) {
	type Alias PaymentEvidence
	return json.Marshal(&struct {
		Amount string `json:"amount"`
		*Alias
	}{
		Amount: e.Amount.String(),
		Alias:  (*Alias)(e),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for PaymentEvidence
func (e *PaymentEvidence) UnmarshalJSON(data []byte) error {
	type Alias PaymentEvidence
	aux := &struct {
		Amount string `json:"amount"`
		*Alias
	}{
		Alias: (*Alias)(e),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	e.Amount, err = decimal.NewFromString(aux.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount format: %w", err)
	}

	return nil
}

// Utility functions for type conversion and validation

// ParseDecimalFromString parses a decimal value from string with validation
func ParseDecimalFromString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	// Remove thousand separators and currency markers
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}

	return d, nil
}

// ParsePaymentSource parses and validates a payment source from string
func ParsePaymentSource(s string) (PaymentSource, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "settled", "ledger":
		return SourceSettled, nil
	case "pending_queue", "queue", "pending":
		return SourcePendingQueue, nil
	default:
		return "", fmt.Errorf("invalid payment source '%s': must be settled or pending_queue", s)
	}
}

// ParseTimeWithFormats attempts to parse time from string using multiple common formats
func ParseTimeWithFormats(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("time string cannot be empty")
	}

	formats := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02",
		"02.01.2006 15:04:05",
		"02.01.2006",
	}

	var lastErr error
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse time '%s': %w", s, lastErr)
}

// SplitMultiValue splits a CSV multi-value cell (semicolon or pipe
// separated) into trimmed non-empty parts.
func SplitMultiValue(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{}
	}

	sep := ";"
	if !strings.Contains(s, ";") && strings.Contains(s, "|") {
		sep = "|"
	}

	parts := strings.Split(s, sep)
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
