package reporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"identity-reconciliation-service/internal/merger"
	"identity-reconciliation-service/internal/reconciler"
	"identity-reconciliation-service/pkg/errors"
	"identity-reconciliation-service/pkg/logger"
)

// SafeReportGenerator wraps ReportGenerator with logging and output-file
// handling for CLI use.
type SafeReportGenerator struct {
	*ReportGenerator
	logger logger.Logger
}

// NewSafeReportGenerator creates a report generator with error handling
func NewSafeReportGenerator(config *ReportConfig, log logger.Logger) (*SafeReportGenerator, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	generator, err := NewReportGenerator(config)
	if err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig, "report_config", config, err)
	}

	return &SafeReportGenerator{
		ReportGenerator: generator,
		logger:          log.WithComponent("reporter"),
	}, nil
}

// WriteMatchReport renders a batch result to the writer, logging the outcome
func (srg *SafeReportGenerator) WriteMatchReport(result *reconciler.BatchResult, writer io.Writer) error {
	srg.logger.WithFields(logger.Fields{
		"format": srg.config.Format,
		"job_id": result.JobID,
	}).Info("Generating match report")

	if err := srg.GenerateMatchReport(result, writer); err != nil {
		srg.logger.WithError(err).Error("Match report generation failed")
		return errors.InternalError("generate match report", err)
	}
	return nil
}

// WriteStatementReport renders a merged payment view to the writer
func (srg *SafeReportGenerator) WriteStatementReport(view *merger.MergedPaymentView, writer io.Writer) error {
	srg.logger.WithFields(logger.Fields{
		"format":     srg.config.Format,
		"profile_id": view.ProfileID,
	}).Info("Generating statement report")

	if err := srg.GenerateStatementReport(view, writer); err != nil {
		srg.logger.WithError(err).Error("Statement report generation failed")
		return errors.InternalError("generate statement report", err)
	}
	return nil
}

// WriteMatchReportToFile writes a match report to the given path. The file
// is written to a temporary sibling first so a failed render never leaves a
// truncated report behind.
func (srg *SafeReportGenerator) WriteMatchReportToFile(result *reconciler.BatchResult, path string) error {
	return srg.writeToFile(path, func(w io.Writer) error {
		return srg.WriteMatchReport(result, w)
	})
}

// WriteStatementReportToFile writes a statement report to the given path
func (srg *SafeReportGenerator) WriteStatementReportToFile(view *merger.MergedPaymentView, path string) error {
	return srg.writeToFile(path, func(w io.Writer) error {
		return srg.WriteStatementReport(view, w)
	})
}

func (srg *SafeReportGenerator) writeToFile(path string, render func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.InternalError("create report directory", err).
			WithContext("path", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.InternalError("create report file", err).
			WithContext("path", path)
	}
	tmpName := tmp.Name()

	if err := render(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.InternalError("close report file", err).
			WithContext("path", path)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.InternalError("finalize report file", err).
			WithContext("path", path)
	}

	srg.logger.WithField("path", path).Info("Report written")
	return nil
}

// FormatFromString parses a format flag value
func FormatFromString(value string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(value)))
	if !format.IsValid() {
		return "", fmt.Errorf("unsupported report format %q (expected console, json or csv)", value)
	}
	return format, nil
}
