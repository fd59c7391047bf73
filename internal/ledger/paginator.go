// Package ledger serves the raw payment-evidence ledger for browsing via
// stable keyset pagination. The ledger is append-mostly; seek pagination
// keeps page boundaries stable under concurrent inserts, which numeric
// offsets cannot.
package ledger

import (
	"sort"
	"strings"
	"sync"

	"identity-reconciliation-service/internal/models"
	"identity-reconciliation-service/pkg/errors"
)

// DefaultPageSize is used when a request does not specify a size
const DefaultPageSize = 50

// MaxPageSize caps a single page request
const MaxPageSize = 500

// Filter narrows a statement page request. Structured filters are pushed
// into the seek scan; Search is applied as a post-filter over the fetched
// page only, so a filtered page can be shorter than the page size even when
// more data exists. Callers must keep following cursors until a short page
// with no cursor is returned.
type Filter struct {
	Source    models.PaymentSource `json:"source,omitempty"`
	Currency  string               `json:"currency,omitempty"`
	CardLast4 string               `json:"card_last4,omitempty"`
	ProfileID string               `json:"profile_id,omitempty"`
	Search    string               `json:"search,omitempty"`
}

// PageRequest asks for one page of ledger rows
type PageRequest struct {
	PageSize int         `json:"page_size"`
	Cursor   *SeekCursor `json:"cursor,omitempty"`
	Filter   Filter      `json:"filter"`
}

// Page is one page of ledger rows. NextCursor is present only when the page
// was full; a short page means end-of-data.
type Page struct {
	Rows       []*models.PaymentEvidence `json:"rows"`
	NextCursor *SeekCursor               `json:"next_cursor,omitempty"`
}

// Store is an in-memory ledger ordered by the composite sort key. Reads
// take a read lock so pagination stays consistent under appends.
type Store struct {
	mu   sync.RWMutex
	rows []*models.PaymentEvidence
}

// NewStore creates a ledger store over the given rows
func NewStore(rows []*models.PaymentEvidence) *Store {
	store := &Store{rows: make([]*models.PaymentEvidence, len(rows))}
	copy(store.rows, rows)
	store.sortLocked()
	return store
}

// Append adds rows to the ledger, keeping sort order
func (s *Store) Append(rows ...*models.PaymentEvidence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, rows...)
	s.sortLocked()
}

// Len returns the number of ledger rows
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

func (s *Store) sortLocked() {
	sort.Slice(s.rows, func(i, j int) bool {
		return keyOf(s.rows[j]).isBefore(keyOf(s.rows[i]))
	})
}

// FetchPage serves one page of the ledger in descending sort order. The
// seek constraint is "sort key strictly before cursor"; the next cursor is
// the last row of a full page.
func (s *Store) FetchPage(req PageRequest) (*Page, error) {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	if req.Cursor != nil && req.Cursor.Timestamp.IsZero() && req.Cursor.NaturalKey == "" {
		return nil, errors.QueryError(errors.CodeInvalidCursor, "cursor carries no sort key", nil)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var boundary sortKey
	seeking := req.Cursor != nil
	if seeking {
		boundary = keyOfCursor(req.Cursor)
	}

	page := &Page{}
	for _, row := range s.rows {
		if seeking && !keyOf(row).isBefore(boundary) {
			continue
		}
		if !matchesStructured(row, req.Filter) {
			continue
		}

		page.Rows = append(page.Rows, row)
		if len(page.Rows) == pageSize {
			break
		}
	}

	// Fewer rows than the page size means end-of-data: no cursor
	if len(page.Rows) == pageSize {
		last := keyOf(page.Rows[len(page.Rows)-1])
		page.NextCursor = &SeekCursor{Timestamp: last.ts, NaturalKey: last.key}
	}

	// Free-text search post-filters the fetched page only; it never moves
	// the seek boundary
	if req.Filter.Search != "" {
		page.Rows = searchFilter(page.Rows, req.Filter.Search)
	}

	return page, nil
}

func matchesStructured(row *models.PaymentEvidence, filter Filter) bool {
	if filter.Source != "" && row.Source != filter.Source {
		return false
	}
	if filter.Currency != "" && !strings.EqualFold(row.Currency, filter.Currency) {
		return false
	}
	if filter.CardLast4 != "" && row.CardLast4 != filter.CardLast4 {
		return false
	}
	if filter.ProfileID != "" && row.ProfileID != filter.ProfileID {
		return false
	}
	return true
}

func searchFilter(rows []*models.PaymentEvidence, query string) []*models.PaymentEvidence {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return rows
	}

	var filtered []*models.PaymentEvidence
	for _, row := range rows {
		haystack := strings.ToLower(strings.Join([]string{
			row.NaturalKey,
			row.OrderRef,
			row.CardLast4,
			row.CardBrand,
			row.Amount.String(),
		}, " "))
		if strings.Contains(haystack, q) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}
