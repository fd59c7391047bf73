package cmd

import (
	"fmt"
	"os"
	"strings"

	"identity-reconciliation-service/pkg/errors"
	"identity-reconciliation-service/pkg/logger"

	"github.com/spf13/viper"
)

// CLIErrorHandler turns engine errors into user-facing messages and exit codes
type CLIErrorHandler struct {
	logger  logger.Logger
	verbose bool
}

// NewCLIErrorHandler creates a new CLI error handler
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
	}
}

// HandleError prints a user-friendly message and returns the process exit code
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Error("Command failed")

	if engineErr, ok := errors.AsEngineError(err); ok {
		return h.handleEngineError(engineErr)
	}

	return h.handleGenericError(err)
}

func (h *CLIErrorHandler) handleEngineError(err *errors.EngineError) int {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		fmt.Fprintf(os.Stderr, "\nContext:\n")
		for key, value := range err.Context {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", key, value)
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "\nSuggestion: %s\n", err.Suggestion)
	}

	fmt.Fprintf(os.Stderr, "\n%s\n", h.getCategoryHelp(err.Category))

	if h.verbose && err.Cause != nil {
		fmt.Fprintf(os.Stderr, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

func (h *CLIErrorHandler) handleGenericError(err error) int {
	if os.IsNotExist(err) || strings.Contains(err.Error(), "no such file or directory") {
		fmt.Fprintf(os.Stderr, "Error: File not found\n")
		fmt.Fprintf(os.Stderr, "Suggestion: Check if the file path is correct and the file exists\n")
		return 2
	}

	if os.IsPermission(err) || strings.Contains(err.Error(), "permission denied") {
		fmt.Fprintf(os.Stderr, "Error: Permission denied\n")
		fmt.Fprintf(os.Stderr, "Suggestion: Check file permissions and ensure you have read access\n")
		return 2
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	if !h.verbose {
		fmt.Fprintf(os.Stderr, "\nRun with --verbose for more detail\n")
	}

	return 1
}

func (h *CLIErrorHandler) getCategoryHelp(category errors.ErrorCategory) string {
	switch category {
	case errors.CategoryParse:
		return `Parse error help:
• Verify the CSV file format and structure
• Check for proper column headers and data types
• Ensure the file uses UTF-8 encoding
• Rows that fail to parse are skipped; check the logs for per-row detail`

	case errors.CategoryMatching:
		return `Matching error help:
• Check that the profile snapshot and contact batch are non-empty
• Verify identifier columns are populated
• Try --strict-fuzzy or --no-fuzzy-review to adjust candidate collection`

	case errors.CategoryLink:
		return `Link error help:
• A contact keeps its confirmed profile until explicitly unlinked
• Re-confirming the same pair is harmless; conflicting pairs are rejected
• Verify both the contact external id and the profile id`

	case errors.CategoryMerge:
		return `Merge error help:
• Check that at least one evidence snapshot is readable
• A single unavailable source produces a partial view, not an error
• Use --require-complete to treat partial views as failures`

	case errors.CategoryQuery:
		return `Query error help:
• Cursors are only valid against the ledger that issued them
• Restart pagination from the first page after an invalid cursor
• Check the filter parameters`

	case errors.CategoryConfig:
		return `Configuration error help:
• Check your command-line flags and arguments
• Verify configuration file syntax if using --config
• Use 'reconciler <command> --help' to see all available options`

	default:
		return `For more help:
• Use 'reconciler --help' for general help
• Use 'reconciler <command> --help' for command-specific help`
	}
}

// FormatParseSummary formats an accumulated parse error summary for stderr
func FormatParseSummary(summary *errors.ErrorSummary) string {
	if summary == nil || summary.Total == 0 {
		return ""
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("Found %d row error(s):", summary.Total))
	for i, err := range summary.SampleErrors {
		lines = append(lines, fmt.Sprintf("  %d. %s", i+1, err.Message))
	}
	if summary.Total > len(summary.SampleErrors) {
		lines = append(lines, fmt.Sprintf("  ... and %d more", summary.Total-len(summary.SampleErrors)))
	}

	return strings.Join(lines, "\n")
}
