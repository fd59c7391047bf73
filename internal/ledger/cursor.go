package ledger

import (
	"time"

	"identity-reconciliation-service/internal/models"
)

// SeekCursor identifies the last row of the previous page. Callers treat it
// as an opaque token; its components are the row's sort timestamp and the
// natural key tiebreak. Cursors are strictly decreasing across pages for
// the descending sort order.
type SeekCursor struct {
	Timestamp  time.Time `json:"ts"`
	NaturalKey string    `json:"key"`
}

// sortKey is the composite ledger sort key: the coalesced timestamp with
// the natural key as tiebreak, descending on both components. One isBefore
// predicate defines both the seek constraint and cursor emission, so the
// two can never disagree.
type sortKey struct {
	ts  time.Time
	key string
}

func keyOf(row *models.PaymentEvidence) sortKey {
	return sortKey{ts: row.SortTimestamp(), key: row.NaturalKey}
}

func keyOfCursor(cursor *SeekCursor) sortKey {
	return sortKey{ts: cursor.Timestamp, key: cursor.NaturalKey}
}

// isBefore reports whether k sorts strictly after the page boundary b in
// descending order, i.e. k belongs to a later page. Expressed as the OR
// decomposition ts < b.ts OR (ts == b.ts AND key < b.key) because not every
// backing store supports native tuple comparison.
func (k sortKey) isBefore(b sortKey) bool {
	if k.ts.Before(b.ts) {
		return true
	}
	return k.ts.Equal(b.ts) && k.key < b.key
}
