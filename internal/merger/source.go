package merger

import (
	"context"
	"strings"

	"identity-reconciliation-service/internal/models"
)

// EvidenceFilter selects payment evidence rows from one source. Exactly one
// of the selection modes is used per query: by profile tag, or by card
// last-4 with an optional brand constraint.
type EvidenceFilter struct {
	// ProfileID selects rows tagged directly to a profile
	ProfileID string

	// Last4 selects rows by card last-4 digits
	Last4 string

	// Brands constrains Last4 queries to a case-insensitive brand alias
	// set; nil means no brand constraint
	Brands []string

	// UnknownBrandOnly constrains Last4 queries to rows with no brand label
	UnknownBrandOnly bool
}

// EvidenceSource is one independently queryable payment-evidence backend.
// Implementations must return only resolved/successful rows; pending or
// unresolved statuses are invisible to the merger.
type EvidenceSource interface {
	// Name identifies the source in merge results
	Name() models.PaymentSource

	// Query returns all rows matching the filter
	Query(ctx context.Context, filter EvidenceFilter) ([]*models.PaymentEvidence, error)
}

// SliceSource is an in-memory EvidenceSource over a pre-loaded snapshot.
// Used by the CLI (CSV snapshots) and by tests.
type SliceSource struct {
	source models.PaymentSource
	rows   []*models.PaymentEvidence
}

// NewSliceSource creates a SliceSource. Rows are expected to be pre-filtered
// to resolved statuses by whoever produced the snapshot.
func NewSliceSource(source models.PaymentSource, rows []*models.PaymentEvidence) *SliceSource {
	return &SliceSource{source: source, rows: rows}
}

// Name identifies the source in merge results
func (s *SliceSource) Name() models.PaymentSource {
	return s.source
}

// Query returns all rows matching the filter
func (s *SliceSource) Query(_ context.Context, filter EvidenceFilter) ([]*models.PaymentEvidence, error) {
	var matched []*models.PaymentEvidence
	for _, row := range s.rows {
		if matchesFilter(row, filter) {
			matched = append(matched, row)
		}
	}
	return matched, nil
}

// failingSource is an EvidenceSource whose backend is known to be down.
// Every query fails with the recorded cause, so the merge reports the
// source as unavailable instead of silently producing an empty view.
type failingSource struct {
	source models.PaymentSource
	err    error
}

// FailingSource wraps a source-level failure (an unreadable snapshot, a
// connection error) as an EvidenceSource.
func FailingSource(source models.PaymentSource, err error) EvidenceSource {
	return &failingSource{source: source, err: err}
}

func (s *failingSource) Name() models.PaymentSource {
	return s.source
}

func (s *failingSource) Query(context.Context, EvidenceFilter) ([]*models.PaymentEvidence, error) {
	return nil, s.err
}

func matchesFilter(row *models.PaymentEvidence, filter EvidenceFilter) bool {
	if filter.ProfileID != "" {
		return row.ProfileID == filter.ProfileID
	}

	if filter.Last4 == "" || row.CardLast4 != filter.Last4 {
		return false
	}

	if filter.UnknownBrandOnly {
		return !row.HasKnownBrand()
	}

	if len(filter.Brands) > 0 {
		if !row.HasKnownBrand() {
			return false
		}
		rowBrand := strings.ToLower(strings.TrimSpace(row.CardBrand))
		for _, brand := range filter.Brands {
			if rowBrand == strings.ToLower(brand) {
				return true
			}
		}
		return false
	}

	return true
}
