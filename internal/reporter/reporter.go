// Package reporter renders matching and payment-merge results for operators.
//
// Supported output formats:
//   - Console: human-readable tabular output for terminal display
//   - JSON: structured output for programmatic consumption
//   - CSV: flat per-contact rows for spreadsheet review
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"identity-reconciliation-service/internal/matcher"
	"identity-reconciliation-service/internal/merger"
	"identity-reconciliation-service/internal/models"
	"identity-reconciliation-service/internal/reconciler"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds report generation options
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// Detail level options
	IncludeMatched     bool `json:"include_matched"`
	IncludeUnmatched   bool `json:"include_unmatched"`
	IncludeFuzzyReview bool `json:"include_fuzzy_review"`
	IncludeIndexStats  bool `json:"include_index_stats"`

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`

	// Console options
	MaxListItems int `json:"max_list_items"`
}

// DefaultReportConfig returns the standard report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:             FormatConsole,
		IncludeMatched:     true,
		IncludeUnmatched:   true,
		IncludeFuzzyReview: true,
		IncludeIndexStats:  true,
		CSVDelimiter:       ',',
		CSVHeaders:         true,
		MaxListItems:       10,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	if c.MaxListItems < 1 {
		return fmt.Errorf("max list items must be at least 1, got %d", c.MaxListItems)
	}
	return nil
}

// ReportGenerator renders batch and merge results
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a report generator
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}
	return &ReportGenerator{config: config}, nil
}

// GenerateMatchReport renders a batch matching result to the writer
func (rg *ReportGenerator) GenerateMatchReport(result *reconciler.BatchResult, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("batch result cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.matchConsole(result, writer)
	case FormatJSON:
		return rg.matchJSON(result, writer)
	case FormatCSV:
		return rg.matchCSV(result, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

// GenerateStatementReport renders a merged payment view to the writer
func (rg *ReportGenerator) GenerateStatementReport(view *merger.MergedPaymentView, writer io.Writer) error {
	if view == nil {
		return fmt.Errorf("merged payment view cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.statementConsole(view, writer)
	case FormatJSON:
		return rg.statementJSON(view, writer)
	case FormatCSV:
		return rg.statementCSV(view, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

func (rg *ReportGenerator) matchConsole(result *reconciler.BatchResult, writer io.Writer) error {
	fmt.Fprintf(writer, "IDENTITY MATCHING REPORT\n")
	fmt.Fprintf(writer, "Job: %s\n", result.JobID)
	fmt.Fprintf(writer, "Processing Duration: %v\n\n", result.Summary.ProcessingTime)

	fmt.Fprintf(writer, "=== SUMMARY ===\n")
	rg.printSummary(result.Summary, writer)
	fmt.Fprintf(writer, "\n")

	fmt.Fprintf(writer, "=== TIER BREAKDOWN ===\n")
	rg.printTierTable(result.Summary, writer)
	fmt.Fprintf(writer, "\n")

	if rg.config.IncludeMatched {
		matched := filterResults(result.Results, true)
		if len(matched) > 0 {
			fmt.Fprintf(writer, "=== MATCHED CONTACTS ===\n")
			rg.printResultList(matched, writer)
			fmt.Fprintf(writer, "\n")
		}
	}

	if rg.config.IncludeUnmatched {
		unmatched := filterResults(result.Results, false)
		if len(unmatched) > 0 {
			fmt.Fprintf(writer, "=== UNMATCHED CONTACTS ===\n")
			rg.printResultList(unmatched, writer)
			fmt.Fprintf(writer, "\n")
		}
	}

	if rg.config.IncludeFuzzyReview && len(result.FuzzyReview) > 0 {
		fmt.Fprintf(writer, "=== FUZZY REVIEW QUEUE ===\n")
		rg.printFuzzyReview(result.FuzzyReview, writer)
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.IncludeIndexStats {
		fmt.Fprintf(writer, "=== INDEX COVERAGE ===\n")
		rg.printIndexStats(result.IndexStats, writer)
	}

	if result.Errors != nil && result.Errors.Total > 0 {
		fmt.Fprintf(writer, "\n=== ERRORS ===\n")
		fmt.Fprintf(writer, "%s\n", result.Errors.Error())
	}

	return nil
}

func (rg *ReportGenerator) matchJSON(result *reconciler.BatchResult, writer io.Writer) error {
	output := map[string]interface{}{
		"job_id":  result.JobID,
		"summary": result.Summary,
	}

	if rg.config.IncludeMatched || rg.config.IncludeUnmatched {
		filtered := make([]*matcher.MatchResult, 0, len(result.Results))
		for _, r := range result.Results {
			if r.Matched() && rg.config.IncludeMatched {
				filtered = append(filtered, r)
			}
			if !r.Matched() && rg.config.IncludeUnmatched {
				filtered = append(filtered, r)
			}
		}
		output["results"] = filtered
	}

	if rg.config.IncludeFuzzyReview && len(result.FuzzyReview) > 0 {
		output["fuzzy_review"] = result.FuzzyReview
	}
	if rg.config.IncludeIndexStats {
		output["index_stats"] = result.IndexStats
	}
	if result.Errors != nil && result.Errors.Total > 0 {
		output["errors"] = result.Errors
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func (rg *ReportGenerator) matchCSV(result *reconciler.BatchResult, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter
	defer csvWriter.Flush()

	if rg.config.CSVHeaders {
		headers := []string{
			"Contact_External_ID",
			"Profile_ID",
			"Profile_Name",
			"Tier",
			"Confidence",
			"Review_Candidates",
		}
		if err := csvWriter.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	for _, r := range result.Results {
		if r.Matched() && !rg.config.IncludeMatched {
			continue
		}
		if !r.Matched() && !rg.config.IncludeUnmatched {
			continue
		}

		record := []string{
			r.ContactExternalID,
			r.ProfileID,
			r.ProfileName,
			string(r.Tier),
			strconv.FormatFloat(r.Confidence, 'f', 2, 64),
			formatCandidates(result.FuzzyReview[r.ContactExternalID]),
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write match record: %w", err)
		}
	}

	return nil
}

func (rg *ReportGenerator) statementConsole(view *merger.MergedPaymentView, writer io.Writer) error {
	fmt.Fprintf(writer, "PAYMENT STATEMENT\n")
	fmt.Fprintf(writer, "Profile: %s\n", view.ProfileID)
	fmt.Fprintf(writer, "Sources: %s", joinSources(view.ContributingSources))
	if !view.Complete() {
		fmt.Fprintf(writer, " (unavailable: %s)", joinSources(view.FailedSources))
	}
	fmt.Fprintf(writer, "\n\n")

	fmt.Fprintf(writer, "Payments: %d\n", len(view.Payments))
	for i, payment := range view.Payments {
		ev := payment.Evidence
		timestamp := "-"
		if ts := ev.SortTimestamp(); !ts.IsZero() {
			timestamp = ts.Format(time.RFC3339)
		}
		fmt.Fprintf(writer, "  %d. %s %s  %s  source=%s", i+1,
			ev.Amount.StringFixed(2), ev.Currency, timestamp, ev.Source)
		if ev.CardLast4 != "" {
			fmt.Fprintf(writer, "  card=*%s", ev.CardLast4)
		}
		if ev.OrderRef != "" {
			fmt.Fprintf(writer, "  order=%s", ev.OrderRef)
		}
		fmt.Fprintf(writer, "\n")

		if i >= rg.config.MaxListItems-1 && len(view.Payments) > rg.config.MaxListItems {
			fmt.Fprintf(writer, "  ... and %d more\n", len(view.Payments)-rg.config.MaxListItems)
			break
		}
	}

	return nil
}

func (rg *ReportGenerator) statementJSON(view *merger.MergedPaymentView, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(view)
}

func (rg *ReportGenerator) statementCSV(view *merger.MergedPaymentView, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter
	defer csvWriter.Flush()

	if rg.config.CSVHeaders {
		headers := []string{
			"Payment_ID",
			"Source",
			"Natural_Key",
			"Amount",
			"Currency",
			"Timestamp",
			"Card_Last4",
			"Card_Brand",
			"Order_Ref",
		}
		if err := csvWriter.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	for _, payment := range view.Payments {
		ev := payment.Evidence
		timestamp := ""
		if ts := ev.SortTimestamp(); !ts.IsZero() {
			timestamp = ts.Format(time.RFC3339)
		}
		record := []string{
			payment.ID,
			string(ev.Source),
			ev.NaturalKey,
			ev.Amount.StringFixed(2),
			ev.Currency,
			timestamp,
			ev.CardLast4,
			ev.CardBrand,
			ev.OrderRef,
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write payment record: %w", err)
		}
	}

	return nil
}

// Console helpers

func (rg *ReportGenerator) printSummary(summary *reconciler.BatchSummary, writer io.Writer) {
	fmt.Fprintf(writer, "Contacts:\n")
	fmt.Fprintf(writer, "  Total:        %d\n", summary.TotalContacts)
	fmt.Fprintf(writer, "  Matched:      %d (%.1f%%)\n",
		summary.Matched,
		percentage(summary.Matched, summary.TotalContacts))
	fmt.Fprintf(writer, "  Unmatched:    %d (%.1f%%)\n",
		summary.Unmatched,
		percentage(summary.Unmatched, summary.TotalContacts))
	fmt.Fprintf(writer, "  Needs Review: %d\n", summary.NeedsReview)
	fmt.Fprintf(writer, "\nProfiles Indexed: %d\n", summary.ProfilesIndexed)
}

func (rg *ReportGenerator) printTierTable(summary *reconciler.BatchSummary, writer io.Writer) {
	tiers := []models.MatchTier{
		models.TierExternalID,
		models.TierEmail,
		models.TierPhone,
		models.TierTelegram,
		models.TierNameExact,
		models.TierNameFuzzy,
		models.TierNone,
	}

	for _, tier := range tiers {
		count := summary.ByTier[tier]
		if count == 0 {
			continue
		}
		fmt.Fprintf(writer, "%-14s %d (%.1f%%)\n",
			tier+":", count, percentage(count, summary.TotalContacts))
	}
}

func (rg *ReportGenerator) printResultList(results []*matcher.MatchResult, writer io.Writer) {
	for i, r := range results {
		if r.Matched() {
			fmt.Fprintf(writer, "  %d. %s -> %s (%s, tier=%s)\n",
				i+1, r.ContactExternalID, r.ProfileID, r.ProfileName, r.Tier)
		} else {
			fmt.Fprintf(writer, "  %d. %s (no match)\n", i+1, r.ContactExternalID)
		}

		if i >= rg.config.MaxListItems-1 && len(results) > rg.config.MaxListItems {
			fmt.Fprintf(writer, "  ... and %d more\n", len(results)-rg.config.MaxListItems)
			break
		}
	}
}

func (rg *ReportGenerator) printFuzzyReview(review map[string][]*matcher.MatchCandidate, writer io.Writer) {
	contactIDs := make([]string, 0, len(review))
	for id := range review {
		contactIDs = append(contactIDs, id)
	}
	sort.Strings(contactIDs)

	for _, id := range contactIDs {
		fmt.Fprintf(writer, "%s:\n", id)
		for _, candidate := range review[id] {
			fmt.Fprintf(writer, "  - %s (%s) score=%.2f scored-as=%q\n",
				candidate.DisplayName, candidate.ProfileID, candidate.Score, candidate.Transliterated)
		}
	}
}

func (rg *ReportGenerator) printIndexStats(stats matcher.IndexStats, writer io.Writer) {
	fmt.Fprintf(writer, "Email Keys:    %d\n", stats.EmailKeys)
	fmt.Fprintf(writer, "Phone Keys:    %d\n", stats.PhoneKeys)
	fmt.Fprintf(writer, "Handle Keys:   %d\n", stats.HandleKeys)
	fmt.Fprintf(writer, "External IDs:  %d\n", stats.ExternalIDs)
	fmt.Fprintf(writer, "Name Keys:     %d\n", stats.NameKeys)
}

func filterResults(results []*matcher.MatchResult, matched bool) []*matcher.MatchResult {
	filtered := make([]*matcher.MatchResult, 0, len(results))
	for _, r := range results {
		if r.Matched() == matched {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func formatCandidates(candidates []*matcher.MatchCandidate) string {
	if len(candidates) == 0 {
		return ""
	}
	parts := make([]string, 0, len(candidates))
	for _, c := range candidates {
		parts = append(parts, fmt.Sprintf("%s:%.2f", c.ProfileID, c.Score))
	}
	return strings.Join(parts, "; ")
}

func joinSources(sources []models.PaymentSource) string {
	parts := make([]string, 0, len(sources))
	for _, source := range sources {
		parts = append(parts, string(source))
	}
	return strings.Join(parts, ", ")
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(part) / float64(total) * 100.0
}
