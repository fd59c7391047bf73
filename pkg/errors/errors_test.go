package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestEngineErrorMessage(t *testing.T) {
	err := New(CategoryParse, CodeInvalidFormat, "bad value")
	if err.Error() != "bad value" {
		t.Errorf("unexpected message: %s", err.Error())
	}

	err.WithSuggestion("fix the value")
	if !strings.Contains(err.Error(), "suggestion: fix the value") {
		t.Errorf("suggestion missing from message: %s", err.Error())
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("disk on fire")
	err := Wrap(cause, CategoryInternal, CodeUnexpectedError, "write failed")

	if err.Unwrap() != cause {
		t.Error("expected the wrapped cause to be reachable")
	}
	if Wrap(nil, CategoryInternal, CodeUnexpectedError, "nothing") != nil {
		t.Error("wrapping nil must return nil")
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		want     int
	}{
		{CategoryParse, 2},
		{CategoryMatching, 3},
		{CategoryMerge, 3},
		{CategoryConfig, 4},
		{CategoryLink, 5},
		{CategoryQuery, 5},
		{CategoryInternal, 6},
	}

	for _, tc := range tests {
		err := New(tc.category, "x", "test")
		if got := err.GetExitCode(); got != tc.want {
			t.Errorf("exit code for %s = %d, want %d", tc.category, got, tc.want)
		}
	}
}

func TestWithContext(t *testing.T) {
	err := New(CategoryLink, CodeConflictingLink, "conflict").
		WithContext("contact_id", "c-1").
		WithContext("profile_id", "P1")

	if err.Context["contact_id"] != "c-1" || err.Context["profile_id"] != "P1" {
		t.Errorf("unexpected context: %v", err.Context)
	}
}

func TestHasCode(t *testing.T) {
	err := MatchingError(CodeEmptyBatch, "match batch", nil)

	if !HasCode(err, CodeEmptyBatch) {
		t.Error("expected HasCode to match")
	}
	if HasCode(err, CodeProcessingError) {
		t.Error("expected HasCode to reject a different code")
	}
	if HasCode(fmt.Errorf("plain"), CodeEmptyBatch) {
		t.Error("plain errors carry no code")
	}

	// Codes survive wrapping
	wrapped := fmt.Errorf("outer: %w", err)
	if !HasCode(wrapped, CodeEmptyBatch) {
		t.Error("expected HasCode to unwrap")
	}
}

func TestRowErrorContext(t *testing.T) {
	err := RowError(CodeRowMissingField, "profiles.csv", 7, "id", nil)

	if err.Category != CategoryParse {
		t.Errorf("expected parse category, got %s", err.Category)
	}
	if err.Context["line"] != 7 || err.Context["field"] != "id" {
		t.Errorf("unexpected context: %v", err.Context)
	}
	if !strings.Contains(err.Error(), "row 7") {
		t.Errorf("line number missing from message: %s", err.Error())
	}
}

func TestErrorSummary(t *testing.T) {
	errs := []*EngineError{
		RowError(CodeRowMissingField, "a.csv", 2, "id", nil),
		RowError(CodeInvalidFormat, "a.csv", 3, "amount", nil),
		MatchingError(CodeProcessingError, "batch", nil),
	}

	summary := NewErrorSummary(errs)

	if summary.Total != 3 {
		t.Errorf("expected total 3, got %d", summary.Total)
	}
	if summary.ByCategory[CategoryParse] != 2 {
		t.Errorf("expected 2 parse errors, got %d", summary.ByCategory[CategoryParse])
	}
	if !summary.HasCode(CodeInvalidFormat) {
		t.Error("expected invalid_format in the summary")
	}
	if !summary.HasCategory(CategoryMatching) {
		t.Error("expected the matching category in the summary")
	}
	// Matching (3) outranks parse (2)
	if summary.GetExitCode() != 3 {
		t.Errorf("expected exit code 3, got %d", summary.GetExitCode())
	}
}

func TestErrorSummarySamplesCapped(t *testing.T) {
	var errs []*EngineError
	for i := 0; i < 8; i++ {
		errs = append(errs, RowError(CodeInvalidFormat, "a.csv", i, "amount", nil))
	}

	summary := NewErrorSummary(errs)
	if len(summary.SampleErrors) != 5 {
		t.Errorf("expected 5 sample errors, got %d", len(summary.SampleErrors))
	}
	if len(summary.Errors) != 8 {
		t.Errorf("all errors must be retained, got %d", len(summary.Errors))
	}
}

func TestErrorSummaryEmpty(t *testing.T) {
	summary := NewErrorSummary(nil)
	if summary.Total != 0 {
		t.Errorf("expected empty summary, got total %d", summary.Total)
	}
	if summary.GetExitCode() != 0 {
		t.Errorf("empty summary must exit 0, got %d", summary.GetExitCode())
	}
	if summary.Error() != "no errors" {
		t.Errorf("unexpected message: %s", summary.Error())
	}
}
