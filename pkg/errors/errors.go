package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryParse    ErrorCategory = "parse"
	CategoryMatching ErrorCategory = "matching"
	CategoryLink     ErrorCategory = "link"
	CategoryMerge    ErrorCategory = "merge"
	CategoryQuery    ErrorCategory = "query"
	CategoryConfig   ErrorCategory = "config"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// Parse errors
	CodeRowMissingField ErrorCode = "row_missing_field"
	CodeInvalidFormat   ErrorCode = "invalid_format"
	CodeMissingColumn   ErrorCode = "missing_column"
	CodeFileNotFound    ErrorCode = "file_not_found"

	// Matching errors
	CodeIndexNotBuilt   ErrorCode = "index_not_built"
	CodeEmptyBatch      ErrorCode = "empty_batch"
	CodeProcessingError ErrorCode = "processing_error"

	// Link errors
	CodeInvalidLink     ErrorCode = "invalid_link"
	CodeConflictingLink ErrorCode = "conflicting_link"
	CodeUnknownProfile  ErrorCode = "unknown_profile"
	CodeUnknownContact  ErrorCode = "unknown_contact"

	// Merge errors
	CodeSourceUnavailable ErrorCode = "source_unavailable"
	CodeAllSourcesFailed  ErrorCode = "all_sources_failed"

	// Query errors
	CodeInvalidCursor ErrorCode = "invalid_cursor"
	CodeInvalidFilter ErrorCode = "invalid_filter"

	// Config errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// EngineError is the base error type for all application errors
type EngineError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *EngineError) GetExitCode() int {
	switch e.Category {
	case CategoryParse:
		return 2
	case CategoryMatching, CategoryMerge:
		return 3
	case CategoryConfig:
		return 4
	case CategoryLink, CategoryQuery:
		return 5
	case CategoryInternal:
		return 6
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *EngineError) WithContext(key string, value interface{}) *EngineError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *EngineError) WithSuggestion(suggestion string) *EngineError {
	e.Suggestion = suggestion
	return e
}

// New creates a new EngineError
func New(category ErrorCategory, code ErrorCode, message string) *EngineError {
	return &EngineError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with EngineError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *EngineError {
	if err == nil {
		return nil
	}

	return &EngineError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Specific error constructors

// RowError creates a parse error for one malformed snapshot row. Row errors
// never abort a batch; they are accumulated into an ErrorSummary.
func RowError(code ErrorCode, source string, line int, field string, err error) *EngineError {
	var message string
	var suggestion string

	switch code {
	case CodeRowMissingField:
		message = fmt.Sprintf("row %d in %s is missing required field '%s'", line, source, field)
		suggestion = "fill in the field or remove the row from the import batch"
	case CodeInvalidFormat:
		message = fmt.Sprintf("row %d in %s has an invalid value in field '%s'", line, source, field)
		suggestion = "check the value format against the import template"
	case CodeMissingColumn:
		message = fmt.Sprintf("required column '%s' not found in %s", field, source)
		suggestion = "verify the file header names all required columns"
	default:
		message = fmt.Sprintf("row %d in %s could not be parsed", line, source)
		suggestion = "check the row data and try again"
	}

	var result *EngineError
	if err != nil {
		result = Wrap(err, CategoryParse, code, message)
	} else {
		result = New(CategoryParse, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("source", source).
		WithContext("line", line).
		WithContext("field", field)
}

// FileError creates an error for an unreadable snapshot file
func FileError(path string, err error) *EngineError {
	return Wrap(err, CategoryParse, CodeFileNotFound,
		fmt.Sprintf("snapshot file could not be opened: %s", path)).
		WithSuggestion("check that the file path is correct and readable").
		WithContext("file_path", path)
}

// MatchingError creates a matching-related error
func MatchingError(code ErrorCode, operation string, err error) *EngineError {
	var message string
	var suggestion string

	switch code {
	case CodeIndexNotBuilt:
		message = fmt.Sprintf("identity index not built before %s", operation)
		suggestion = "load the profile snapshot and build the index first"
	case CodeEmptyBatch:
		message = fmt.Sprintf("no contacts to process in %s", operation)
		suggestion = "check the contact batch file contents"
	case CodeProcessingError:
		message = fmt.Sprintf("processing error during %s", operation)
		suggestion = "check the input data and try again"
	default:
		message = fmt.Sprintf("matching error during %s", operation)
		suggestion = "review the batch data and configuration"
	}

	var result *EngineError
	if err != nil {
		result = Wrap(err, CategoryMatching, code, message)
	} else {
		result = New(CategoryMatching, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// LinkError creates a link-confirmation error. Conflicting links are
// rejected outright; the attempted link is never applied.
func LinkError(code ErrorCode, contactID, profileID string, err error) *EngineError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidLink:
		message = fmt.Sprintf("link request is missing an identifier (contact=%q, profile=%q)", contactID, profileID)
		suggestion = "provide both identifiers"
	case CodeConflictingLink:
		message = fmt.Sprintf("contact %s is already linked to a different profile than %s", contactID, profileID)
		suggestion = "unlink the existing profile before confirming this candidate"
	case CodeUnknownProfile:
		message = fmt.Sprintf("profile %s not found in the current snapshot", profileID)
		suggestion = "refresh the profile snapshot and retry"
	case CodeUnknownContact:
		message = fmt.Sprintf("contact %s not found in the current batch", contactID)
		suggestion = "verify the contact identifier"
	default:
		message = fmt.Sprintf("link error for contact %s and profile %s", contactID, profileID)
		suggestion = "check the identifiers and try again"
	}

	var result *EngineError
	if err != nil {
		result = Wrap(err, CategoryLink, code, message)
	} else {
		result = New(CategoryLink, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("contact_id", contactID).
		WithContext("profile_id", profileID)
}

// SourceError creates a payment-source availability error
func SourceError(code ErrorCode, source string, err error) *EngineError {
	var message string
	var suggestion string

	switch code {
	case CodeSourceUnavailable:
		message = fmt.Sprintf("payment source %s could not be queried", source)
		suggestion = "the merge proceeds with the remaining sources; retry later for a complete view"
	case CodeAllSourcesFailed:
		message = "no payment source could be queried"
		suggestion = "check connectivity to the settled ledger and the pending queue"
	default:
		message = fmt.Sprintf("payment source error: %s", source)
		suggestion = "check the source availability and try again"
	}

	var result *EngineError
	if err != nil {
		result = Wrap(err, CategoryMerge, code, message)
	} else {
		result = New(CategoryMerge, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("source", source)
}

// QueryError creates a statement-query error
func QueryError(code ErrorCode, detail string, err error) *EngineError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidCursor:
		message = fmt.Sprintf("invalid page cursor: %s", detail)
		suggestion = "restart pagination from the first page"
	case CodeInvalidFilter:
		message = fmt.Sprintf("invalid statement filter: %s", detail)
		suggestion = "check the filter parameters"
	default:
		message = fmt.Sprintf("query error: %s", detail)
		suggestion = "check the query parameters and try again"
	}

	var result *EngineError
	if err != nil {
		result = Wrap(err, CategoryQuery, code, message)
	} else {
		result = New(CategoryQuery, code, message)
	}

	return result.WithSuggestion(suggestion)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *EngineError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this configuration setting or use a config file"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	var result *EngineError
	if err != nil {
		result = Wrap(err, CategoryConfig, code, message)
	} else {
		result = New(CategoryConfig, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// InternalError creates an internal error
func InternalError(operation string, err error) *EngineError {
	message := fmt.Sprintf("unexpected error during %s", operation)

	var result *EngineError
	if err != nil {
		result = Wrap(err, CategoryInternal, CodeUnexpectedError, message)
	} else {
		result = New(CategoryInternal, CodeUnexpectedError, message)
	}

	return result.
		WithSuggestion("this is likely a bug - please report it with the error details").
		WithContext("operation", operation)
}

// ErrorSummary provides a summary of multiple errors accumulated during a
// continue-on-error batch operation.
type ErrorSummary struct {
	Total        int                   `json:"total"`
	ByCategory   map[ErrorCategory]int `json:"by_category"`
	ByCode       map[ErrorCode]int     `json:"by_code"`
	Errors       []*EngineError        `json:"errors"`
	SampleErrors []*EngineError        `json:"sample_errors,omitempty"`
}

// NewErrorSummary creates a new error summary
func NewErrorSummary(errs []*EngineError) *ErrorSummary {
	summary := &ErrorSummary{
		Total:      len(errs),
		ByCategory: make(map[ErrorCategory]int),
		ByCode:     make(map[ErrorCode]int),
		Errors:     errs,
	}
	if len(errs) == 0 {
		summary.Errors = []*EngineError{}
		return summary
	}

	for _, err := range errs {
		summary.ByCategory[err.Category]++
		summary.ByCode[err.Code]++
	}

	// Include sample errors (max 5)
	maxSamples := 5
	if len(errs) > maxSamples {
		summary.SampleErrors = errs[:maxSamples]
	} else {
		summary.SampleErrors = errs
	}

	return summary
}

// Error returns a formatted error message for the summary
func (es *ErrorSummary) Error() string {
	if es.Total == 0 {
		return "no errors"
	}

	if es.Total == 1 {
		return es.Errors[0].Error()
	}

	var categories []string
	for category, count := range es.ByCategory {
		categories = append(categories, fmt.Sprintf("%s: %d", category, count))
	}

	return fmt.Sprintf("%d errors occurred (%s)", es.Total, strings.Join(categories, ", "))
}

// HasCategory checks if the summary contains errors of the given category
func (es *ErrorSummary) HasCategory(category ErrorCategory) bool {
	count, exists := es.ByCategory[category]
	return exists && count > 0
}

// HasCode checks if the summary contains errors with the given code
func (es *ErrorSummary) HasCode(code ErrorCode) bool {
	count, exists := es.ByCode[code]
	return exists && count > 0
}

// GetExitCode returns the highest priority exit code from all errors
func (es *ErrorSummary) GetExitCode() int {
	if es.Total == 0 {
		return 0
	}

	maxCode := 1
	for _, err := range es.Errors {
		if code := err.GetExitCode(); code > maxCode {
			maxCode = code
		}
	}

	return maxCode
}

// Utility functions

// IsEngineError checks if an error is an EngineError
func IsEngineError(err error) bool {
	_, ok := err.(*EngineError)
	return ok
}

// AsEngineError extracts an EngineError from an error chain
func AsEngineError(err error) (*EngineError, bool) {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given structured error code
func HasCode(err error, code ErrorCode) bool {
	if engineErr, ok := AsEngineError(err); ok {
		return engineErr.Code == code
	}
	return false
}
