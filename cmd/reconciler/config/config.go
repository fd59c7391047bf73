// Package config builds engine configurations from CLI flag values.
package config

import (
	"identity-reconciliation-service/internal/matcher"
	"identity-reconciliation-service/internal/reconciler"
	"identity-reconciliation-service/internal/reporter"
	"identity-reconciliation-service/pkg/logger"
)

// CreateServiceConfig creates a matching-service configuration from CLI flags
func CreateServiceConfig(strictFuzzy, fuzzyReview bool) *reconciler.Config {
	config := reconciler.DefaultConfig()
	config.FuzzyReview = fuzzyReview
	if strictFuzzy {
		config.Matching = matcher.StrictMatchingConfig()
	}
	return config
}

// ParseReportFormat validates a format flag value
func ParseReportFormat(format string) (reporter.OutputFormat, error) {
	return reporter.FormatFromString(format)
}

// CreateReportGenerator creates a report generator for the requested format.
// Console output shows everything; JSON stays focused on summary plus the
// review queue; CSV is flat per-row data with no stats sections.
func CreateReportGenerator(format string, log logger.Logger) (*reporter.SafeReportGenerator, error) {
	parsed, err := ParseReportFormat(format)
	if err != nil {
		return nil, err
	}

	config := reporter.DefaultReportConfig()
	config.Format = parsed

	switch parsed {
	case reporter.FormatJSON:
		config.IncludeMatched = false
		config.IncludeUnmatched = true
		config.IncludeFuzzyReview = true
		config.IncludeIndexStats = true
	case reporter.FormatCSV:
		config.IncludeMatched = true
		config.IncludeUnmatched = true
		config.IncludeFuzzyReview = true
		config.IncludeIndexStats = false
	}

	return reporter.NewSafeReportGenerator(config, log)
}
