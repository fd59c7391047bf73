package matcher

import (
	"strings"

	"identity-reconciliation-service/internal/models"
	"identity-reconciliation-service/internal/normalize"
)

// IndexEntry is the value stored under every identity key: just enough to
// identify the owning profile without holding the whole record.
type IndexEntry struct {
	ProfileID   string
	DisplayName string
}

// IdentityIndex provides O(1) exact lookups over a profile snapshot by five
// independent identity keys. The index is built once per batch and treated
// as an immutable read-only snapshot for the whole matching pass.
//
// Duplicate keys across profiles follow a last-writer-wins policy: when two
// profiles carry the same canonical identity value, the profile appearing
// later in the snapshot owns the key. This is a deliberate invariant, not an
// accident of map insertion; exact-key collisions across profiles are rare.
type IdentityIndex struct {
	byEmail      map[string]IndexEntry
	byPhone      map[string]IndexEntry
	byHandle     map[string]IndexEntry
	byExternalID map[string]IndexEntry
	byName       map[string]IndexEntry

	profileCount int
}

// BuildIndex builds a fresh IdentityIndex from a profile snapshot. Every
// available identity value is indexed, secondary emails and phones
// included. Build cost is O(total identity values).
func BuildIndex(profiles []*models.KnownProfile) *IdentityIndex {
	index := &IdentityIndex{
		byEmail:      make(map[string]IndexEntry),
		byPhone:      make(map[string]IndexEntry),
		byHandle:     make(map[string]IndexEntry),
		byExternalID: make(map[string]IndexEntry),
		byName:       make(map[string]IndexEntry),
		profileCount: len(profiles),
	}

	for _, profile := range profiles {
		entry := IndexEntry{ProfileID: profile.ID, DisplayName: profile.DisplayName}

		for _, email := range profile.AllEmails() {
			if key := normalize.Email(email); key != "" {
				index.byEmail[key] = entry
			}
		}

		for _, phone := range profile.AllPhones() {
			key := normalize.Phone(phone)
			if normalize.IsIndexablePhone(key) {
				index.byPhone[key] = entry
			}
		}

		if key := normalize.Handle(profile.TelegramHandle); key != "" {
			index.byHandle[key] = entry
		}

		if key := strings.TrimSpace(profile.ExternalID); key != "" {
			index.byExternalID[key] = entry
		}

		if key := normalize.Name(profile.DisplayName); key != "" {
			index.byName[key] = entry
		}
	}

	return index
}

// LookupEmail looks up a canonical email key
func (ix *IdentityIndex) LookupEmail(canonical string) (IndexEntry, bool) {
	entry, ok := ix.byEmail[canonical]
	return entry, ok
}

// LookupPhone looks up a canonical phone key
func (ix *IdentityIndex) LookupPhone(canonical string) (IndexEntry, bool) {
	entry, ok := ix.byPhone[canonical]
	return entry, ok
}

// LookupHandle looks up a canonical messaging-handle key
func (ix *IdentityIndex) LookupHandle(canonical string) (IndexEntry, bool) {
	entry, ok := ix.byHandle[canonical]
	return entry, ok
}

// LookupExternalID looks up an external-system identifier
func (ix *IdentityIndex) LookupExternalID(externalID string) (IndexEntry, bool) {
	entry, ok := ix.byExternalID[externalID]
	return entry, ok
}

// LookupName looks up a canonical exact-name key
func (ix *IdentityIndex) LookupName(canonical string) (IndexEntry, bool) {
	entry, ok := ix.byName[canonical]
	return entry, ok
}

// IndexStats provides statistics about index key coverage
type IndexStats struct {
	Profiles    int `json:"profiles"`
	EmailKeys   int `json:"email_keys"`
	PhoneKeys   int `json:"phone_keys"`
	HandleKeys  int `json:"handle_keys"`
	ExternalIDs int `json:"external_ids"`
	NameKeys    int `json:"name_keys"`
}

// Stats returns statistics about the built index
func (ix *IdentityIndex) Stats() IndexStats {
	return IndexStats{
		Profiles:    ix.profileCount,
		EmailKeys:   len(ix.byEmail),
		PhoneKeys:   len(ix.byPhone),
		HandleKeys:  len(ix.byHandle),
		ExternalIDs: len(ix.byExternalID),
		NameKeys:    len(ix.byName),
	}
}
