// Package merger combines payment evidence scattered across the settled
// ledger and the pending-reconciliation queue into one consistent,
// deduplicated payment history per profile. Its central correctness
// property is the ambiguity guard: evidence is never attributed through a
// card match that a sibling card on the same profile could equally claim.
package merger

import (
	"context"
	"sort"
	"sync"

	"identity-reconciliation-service/internal/models"
	"identity-reconciliation-service/pkg/errors"
	"identity-reconciliation-service/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// MergedPayment is one deduplicated evidence row keyed by a global id
type MergedPayment struct {
	ID       string                  `json:"id"`
	Evidence *models.PaymentEvidence `json:"evidence"`
}

// MergedPaymentView is the merged, time-sorted payment history for one
// profile. No two entries share a natural key. ContributingSources and
// FailedSources together tell the caller whether the view is complete; a
// partial result is never silent.
type MergedPaymentView struct {
	ProfileID           string                 `json:"profile_id"`
	Payments            []*MergedPayment       `json:"payments"`
	ContributingSources []models.PaymentSource `json:"contributing_sources"`
	FailedSources       []models.PaymentSource `json:"failed_sources,omitempty"`
}

// Complete reports whether every source contributed to the view
func (v *MergedPaymentView) Complete() bool {
	return len(v.FailedSources) == 0
}

// Merger gathers evidence for a profile from both payment sources
type Merger struct {
	sources []EvidenceSource
	logger  logger.Logger
}

// NewMerger creates a merger over the given evidence sources
func NewMerger(sources ...EvidenceSource) *Merger {
	return &Merger{
		sources: sources,
		logger:  logger.GetGlobalLogger().WithComponent("payment_merger"),
	}
}

// evidenceQuery is one independent (source, filter) pair. Queries are
// logically independent and run concurrently; results keep query order so
// dedup stays deterministic.
type evidenceQuery struct {
	source EvidenceSource
	filter EvidenceFilter
}

// MergePayments builds the merged payment view for one profile:
//
//  1. gather evidence per linked card, brand-constrained where the brand is
//     known, last-4-only where the ambiguity guard allows
//  2. union with evidence tagged directly to the profile (a stronger signal
//     than card matching)
//  3. deduplicate by natural key, last writer in query order wins
//  4. sort by timestamp descending and truncate to limit (0 = unlimited)
//
// A source that cannot be queried is reported in FailedSources and the
// merge proceeds with the rest; only total source failure is an error.
func (m *Merger) MergePayments(ctx context.Context, profileID string, cards []*models.LinkedCard, limit int) (*MergedPaymentView, error) {
	last4Counts := CountLast4(cards)
	queries := m.buildQueries(profileID, cards, last4Counts)

	results := make([][]*models.PaymentEvidence, len(queries))
	failed := make(map[models.PaymentSource]bool)
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			rows, err := q.source.Query(gCtx, q.filter)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed[q.source.Name()] = true
				m.logger.WithError(err).WithField("source", q.source.Name()).
					Warn("Evidence source query failed, merge continues without it")
				return nil
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.InternalError("evidence gathering", err)
	}

	if len(failed) == len(m.sources) && len(m.sources) > 0 {
		return nil, errors.SourceError(errors.CodeAllSourcesFailed, "", nil)
	}

	view := &MergedPaymentView{ProfileID: profileID}
	for _, source := range m.sources {
		if failed[source.Name()] {
			view.FailedSources = append(view.FailedSources, source.Name())
		} else {
			view.ContributingSources = append(view.ContributingSources, source.Name())
		}
	}

	view.Payments = dedupeAndSort(results, limit)

	m.logger.WithFields(logger.Fields{
		"profile_id": profileID,
		"cards":      len(cards),
		"queries":    len(queries),
		"payments":   len(view.Payments),
		"complete":   view.Complete(),
	}).Debug("Merged payment view built")

	return view, nil
}

// buildQueries expands the linked-card set into per-source filters. The
// ambiguity guard is consulted through one predicate for both sources.
func (m *Merger) buildQueries(profileID string, cards []*models.LinkedCard, last4Counts map[string]int) []evidenceQuery {
	var queries []evidenceQuery

	addForAllSources := func(filter EvidenceFilter) {
		for _, source := range m.sources {
			queries = append(queries, evidenceQuery{source: source, filter: filter})
		}
	}

	for _, card := range cards {
		if card.HasKnownBrand() {
			addForAllSources(EvidenceFilter{Last4: card.Last4, Brands: BrandAliases(card.Brand)})

			// Unknown-brand evidence is only attributable when there is no
			// sibling card to confuse it with
			if CanMatchByLast4Only(card, last4Counts) {
				addForAllSources(EvidenceFilter{Last4: card.Last4, UnknownBrandOnly: true})
			}
			continue
		}

		// Brand unknown on our side: last-4 alone, and only when
		// unambiguous; otherwise skip the card entirely rather than guess
		if CanMatchByLast4Only(card, last4Counts) {
			addForAllSources(EvidenceFilter{Last4: card.Last4})
		}
	}

	// Direct profile tags beat card matching; queried last so the
	// last-writer-wins dedup prefers them on key collisions
	if profileID != "" {
		addForAllSources(EvidenceFilter{ProfileID: profileID})
	}

	return queries
}

// dedupeAndSort flattens gathered rows in query order, deduplicates by
// natural key (last writer wins; divergent duplicates are an accepted
// data-quality gap, not an error), sorts newest-first and truncates.
func dedupeAndSort(results [][]*models.PaymentEvidence, limit int) []*MergedPayment {
	byKey := make(map[string]*models.PaymentEvidence)
	var order []string

	for _, rows := range results {
		for _, row := range rows {
			if _, seen := byKey[row.NaturalKey]; !seen {
				order = append(order, row.NaturalKey)
			}
			byKey[row.NaturalKey] = row
		}
	}

	payments := make([]*MergedPayment, 0, len(order))
	for _, key := range order {
		payments = append(payments, &MergedPayment{
			ID:       uuid.NewString(),
			Evidence: byKey[key],
		})
	}

	sort.Slice(payments, func(i, j int) bool {
		ti, tj := payments[i].Evidence.SortTimestamp(), payments[j].Evidence.SortTimestamp()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return payments[i].Evidence.NaturalKey > payments[j].Evidence.NaturalKey
	})

	if limit > 0 && len(payments) > limit {
		payments = payments[:limit]
	}

	return payments
}
