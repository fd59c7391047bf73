package reconciler

import (
	"context"
	"sync"

	"identity-reconciliation-service/pkg/errors"
)

// LinkSink records confirmed contact-to-profile links
type LinkSink interface {
	// CurrentLink returns the profile currently linked to the contact,
	// or "" when no link exists.
	CurrentLink(ctx context.Context, contactExternalID string) (string, error)

	// RecordLink persists a confirmed link
	RecordLink(ctx context.Context, contactExternalID, profileID string) error
}

// MemoryLinkSink is an in-memory LinkSink
type MemoryLinkSink struct {
	mu    sync.RWMutex
	links map[string]string
}

// NewMemoryLinkSink creates an empty in-memory link sink
func NewMemoryLinkSink() *MemoryLinkSink {
	return &MemoryLinkSink{links: make(map[string]string)}
}

func (s *MemoryLinkSink) CurrentLink(ctx context.Context, contactExternalID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.links[contactExternalID], nil
}

func (s *MemoryLinkSink) RecordLink(ctx context.Context, contactExternalID, profileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links[contactExternalID] = profileID
	return nil
}

// Len returns the number of recorded links
func (s *MemoryLinkSink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.links)
}

// ConfirmLink records a contact-to-profile link. Re-confirming the same
// pair is a no-op. Confirming a contact against a different profile than
// its existing link is rejected: an operator has to clear the old link
// explicitly before moving a contact.
func ConfirmLink(ctx context.Context, sink LinkSink, contactExternalID, profileID string) error {
	if contactExternalID == "" || profileID == "" {
		return errors.LinkError(errors.CodeInvalidLink, contactExternalID, profileID, nil).
			WithSuggestion("Provide both a contact external ID and a profile ID")
	}

	existing, err := sink.CurrentLink(ctx, contactExternalID)
	if err != nil {
		return errors.InternalError("lookup existing link", err)
	}

	switch existing {
	case "":
		// no link yet, fall through to record
	case profileID:
		return nil
	default:
		return errors.LinkError(errors.CodeConflictingLink, contactExternalID, profileID, nil).
			WithContext("existing_profile_id", existing).
			WithSuggestion("Unlink the contact from its current profile before relinking")
	}

	if err := sink.RecordLink(ctx, contactExternalID, profileID); err != nil {
		return errors.InternalError("record link", err)
	}
	return nil
}
