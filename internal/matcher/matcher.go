// Package matcher resolves externally-sourced contacts against a snapshot of
// known profiles. Exact resolution walks a strict tier chain over the
// identity index; contacts no exact tier can place fall through to fuzzy
// name scoring for operator review.
package matcher

import (
	"strings"

	"identity-reconciliation-service/internal/models"
	"identity-reconciliation-service/internal/normalize"
)

// MatchResult is the decision for one external contact. At most one result
// exists per contact per pass; the tier ordering is authoritative and never
// re-evaluated after a hit.
type MatchResult struct {
	ContactExternalID string           `json:"contact_external_id"`
	ProfileID         string           `json:"profile_id,omitempty"`
	ProfileName       string           `json:"profile_name,omitempty"`
	Tier              models.MatchTier `json:"tier"`
	Confidence        float64          `json:"confidence"`
}

// Matched reports whether the contact was resolved to a profile
func (r *MatchResult) Matched() bool {
	return r.Tier != models.TierNone && r.ProfileID != ""
}

// MatchContact evaluates the exact tiers in strict priority order, stopping
// at the first hit:
//
//  1. external-id already recorded against a profile
//  2. any candidate email, in the contact's own list order
//  3. any candidate phone, same tie-break
//  4. messaging handle, case-insensitive
//  5. exact normalized display name
//
// The function is pure over the index; persisting the decision is the
// caller's responsibility. Exact tiers carry confidence 1.0.
func MatchContact(contact *models.ExternalContact, index *IdentityIndex) *MatchResult {
	result := &MatchResult{
		ContactExternalID: contact.ExternalID,
		Tier:              models.TierNone,
	}

	if key := strings.TrimSpace(contact.ExternalID); key != "" {
		if entry, ok := index.LookupExternalID(key); ok {
			return result.hit(entry, models.TierExternalID)
		}
	}

	for _, email := range contact.Emails {
		if key := normalize.Email(email); key != "" {
			if entry, ok := index.LookupEmail(key); ok {
				return result.hit(entry, models.TierEmail)
			}
		}
	}

	for _, phone := range contact.Phones {
		key := normalize.Phone(phone)
		if !normalize.IsIndexablePhone(key) {
			continue
		}
		if entry, ok := index.LookupPhone(key); ok {
			return result.hit(entry, models.TierPhone)
		}
	}

	if key := normalize.Handle(contact.TelegramHandle); key != "" {
		if entry, ok := index.LookupHandle(key); ok {
			return result.hit(entry, models.TierTelegram)
		}
	}

	if key := normalize.Name(contact.DisplayName); key != "" {
		if entry, ok := index.LookupName(key); ok {
			return result.hit(entry, models.TierNameExact)
		}
	}

	return result
}

func (r *MatchResult) hit(entry IndexEntry, tier models.MatchTier) *MatchResult {
	r.ProfileID = entry.ProfileID
	r.ProfileName = entry.DisplayName
	r.Tier = tier
	r.Confidence = 1.0
	return r
}
