package ledger

import (
	"fmt"
	"testing"
	"time"

	"identity-reconciliation-service/internal/models"
	"identity-reconciliation-service/pkg/errors"

	"github.com/shopspring/decimal"
)

func ledgerRow(key string, paidAt *time.Time, createdAt time.Time) *models.PaymentEvidence {
	return &models.PaymentEvidence{
		Source:     models.SourceSettled,
		NaturalKey: key,
		Amount:     decimal.NewFromFloat(10.00),
		Currency:   "BYN",
		PaidAt:     paidAt,
		CreatedAt:  createdAt,
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func createTestLedger(n int) *Store {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := make([]*models.PaymentEvidence, 0, n)
	for i := 0; i < n; i++ {
		paid := base.Add(time.Duration(i) * time.Hour)
		rows = append(rows, ledgerRow(fmt.Sprintf("pay-%03d", i), &paid, paid.Add(-time.Minute)))
	}
	return NewStore(rows)
}

func TestFetchPageWalksAllRows(t *testing.T) {
	store := createTestLedger(5)

	var pages [][]*models.PaymentEvidence
	var cursor *SeekCursor
	for {
		page, err := store.FetchPage(PageRequest{PageSize: 2, Cursor: cursor})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		pages = append(pages, page.Rows)
		if page.NextCursor == nil {
			break
		}
		cursor = page.NextCursor
	}

	if len(pages) != 3 {
		t.Fatalf("expected 3 pages for 5 rows at size 2, got %d", len(pages))
	}
	if len(pages[0]) != 2 || len(pages[1]) != 2 || len(pages[2]) != 1 {
		t.Errorf("expected page sizes 2,2,1, got %d,%d,%d", len(pages[0]), len(pages[1]), len(pages[2]))
	}

	// Exhaustive iteration equals one unbounded query, without duplicates
	seen := map[string]bool{}
	total := 0
	for _, page := range pages {
		for _, row := range page {
			if seen[row.NaturalKey] {
				t.Errorf("row %s appeared twice across pages", row.NaturalKey)
			}
			seen[row.NaturalKey] = true
			total++
		}
	}
	if total != 5 {
		t.Errorf("expected all 5 rows across pages, got %d", total)
	}
}

func TestFetchPageNoCursorOnShortPage(t *testing.T) {
	store := createTestLedger(3)

	page, err := store.FetchPage(PageRequest{PageSize: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.NextCursor != nil {
		t.Error("a short page must not carry a next cursor")
	}
}

func TestFetchPageCursorOnExactBoundary(t *testing.T) {
	// 4 rows at page size 2: the second page is full, so it carries a
	// cursor, and the third page comes back empty
	store := createTestLedger(4)

	first, err := store.FetchPage(PageRequest{PageSize: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := store.FetchPage(PageRequest{PageSize: 2, Cursor: first.NextCursor})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.NextCursor == nil {
		t.Fatal("full page must carry a cursor even at end-of-data")
	}

	third, err := store.FetchPage(PageRequest{PageSize: 2, Cursor: second.NextCursor})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(third.Rows) != 0 || third.NextCursor != nil {
		t.Errorf("expected an empty final page, got %d rows", len(third.Rows))
	}
}

func TestFetchPageDescendingOrder(t *testing.T) {
	store := createTestLedger(5)

	page, err := store.FetchPage(PageRequest{PageSize: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 1; i < len(page.Rows); i++ {
		prev, cur := page.Rows[i-1].SortTimestamp(), page.Rows[i].SortTimestamp()
		if cur.After(prev) {
			t.Errorf("rows not in descending timestamp order at %d", i)
		}
	}
	if page.Rows[0].NaturalKey != "pay-004" {
		t.Errorf("expected the newest row first, got %s", page.Rows[0].NaturalKey)
	}
}

func TestFetchPageCoalescedTimestamp(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// One row has no payment time; its creation time slots it between the
	// other two
	store := NewStore([]*models.PaymentEvidence{
		ledgerRow("pay-paid-old", timePtr(base.Add(-2*time.Hour)), base.Add(-3*time.Hour)),
		ledgerRow("pay-created-only", nil, base.Add(-time.Hour)),
		ledgerRow("pay-paid-new", timePtr(base), base.Add(-3*time.Hour)),
	})

	page, err := store.FetchPage(PageRequest{PageSize: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{"pay-paid-new", "pay-created-only", "pay-paid-old"}
	for i, key := range expected {
		if page.Rows[i].NaturalKey != key {
			t.Errorf("position %d: expected %s, got %s", i, key, page.Rows[i].NaturalKey)
		}
	}
}

func TestFetchPageTimestampTieBreak(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	store := NewStore([]*models.PaymentEvidence{
		ledgerRow("pay-a", timePtr(ts), ts),
		ledgerRow("pay-b", timePtr(ts), ts),
		ledgerRow("pay-c", timePtr(ts), ts),
	})

	// Page through one row at a time; equal timestamps must not lose or
	// repeat rows thanks to the natural-key tiebreak
	var keys []string
	var cursor *SeekCursor
	for {
		page, err := store.FetchPage(PageRequest{PageSize: 1, Cursor: cursor})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, row := range page.Rows {
			keys = append(keys, row.NaturalKey)
		}
		if page.NextCursor == nil {
			break
		}
		cursor = page.NextCursor
	}

	expected := []string{"pay-c", "pay-b", "pay-a"}
	if len(keys) != len(expected) {
		t.Fatalf("expected %d rows, got %d: %v", len(expected), len(keys), keys)
	}
	for i := range expected {
		if keys[i] != expected[i] {
			t.Errorf("position %d: expected %s, got %s", i, expected[i], keys[i])
		}
	}
}

func TestFetchPageInvalidCursor(t *testing.T) {
	store := createTestLedger(3)

	_, err := store.FetchPage(PageRequest{PageSize: 2, Cursor: &SeekCursor{}})
	if err == nil {
		t.Fatal("expected an error for an empty cursor")
	}
	if !errors.HasCode(err, errors.CodeInvalidCursor) {
		t.Errorf("expected code %s, got %v", errors.CodeInvalidCursor, err)
	}
}

func TestFetchPageStructuredFilter(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	settled := ledgerRow("pay-settled", timePtr(base), base)
	queue := ledgerRow("pay-queue", timePtr(base.Add(time.Hour)), base)
	queue.Source = models.SourcePendingQueue
	byn := ledgerRow("pay-byn", timePtr(base.Add(2*time.Hour)), base)
	usd := ledgerRow("pay-usd", timePtr(base.Add(3*time.Hour)), base)
	usd.Currency = "USD"

	store := NewStore([]*models.PaymentEvidence{settled, queue, byn, usd})

	page, err := store.FetchPage(PageRequest{
		PageSize: 10,
		Filter:   Filter{Source: models.SourceSettled, Currency: "byn"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(page.Rows) != 2 {
		t.Fatalf("expected 2 filtered rows, got %d", len(page.Rows))
	}
	for _, row := range page.Rows {
		if row.Source != models.SourceSettled {
			t.Errorf("filter leaked row from source %s", row.Source)
		}
	}
}

func TestFetchPageSearchPostFilter(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	match := ledgerRow("pay-order", timePtr(base.Add(time.Hour)), base)
	match.OrderRef = "ORDER-55"
	other := ledgerRow("pay-plain", timePtr(base), base)

	store := NewStore([]*models.PaymentEvidence{match, other})

	// Page size covers both rows; search trims the page afterwards
	page, err := store.FetchPage(PageRequest{
		PageSize: 2,
		Filter:   Filter{Search: "order-55"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(page.Rows) != 1 || page.Rows[0].NaturalKey != "pay-order" {
		t.Fatalf("expected only the searched row, got %v", page.Rows)
	}

	// The page was full before the search filter, so the cursor is still
	// present; the caller keeps paging until a short page with no cursor
	if page.NextCursor == nil {
		t.Error("search must not suppress the cursor of a full page")
	}
}

func TestFetchPageSizeDefaults(t *testing.T) {
	store := createTestLedger(DefaultPageSize + 10)

	page, err := store.FetchPage(PageRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Rows) != DefaultPageSize {
		t.Errorf("expected default page size %d, got %d", DefaultPageSize, len(page.Rows))
	}

	capped, err := store.FetchPage(PageRequest{PageSize: MaxPageSize * 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(capped.Rows) > MaxPageSize {
		t.Errorf("page size not capped: got %d rows", len(capped.Rows))
	}
}

func TestStoreAppendKeepsOrder(t *testing.T) {
	store := createTestLedger(3)
	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	store.Append(ledgerRow("pay-appended", timePtr(base), base))

	page, err := store.FetchPage(PageRequest{PageSize: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Rows[0].NaturalKey != "pay-appended" {
		t.Errorf("expected the appended newest row first, got %s", page.Rows[0].NaturalKey)
	}
	if store.Len() != 4 {
		t.Errorf("expected 4 rows, got %d", store.Len())
	}
}
