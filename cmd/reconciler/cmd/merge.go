package cmd

import (
	"context"
	"fmt"
	"os"

	"identity-reconciliation-service/cmd/reconciler/config"
	"identity-reconciliation-service/internal/merger"
	"identity-reconciliation-service/internal/models"
	"identity-reconciliation-service/internal/parsers"
	"identity-reconciliation-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the merge command
var (
	mergeProfileID  string
	cardsFile       string
	settledFile     string
	queueFile       string
	mergeLimit      int
	mergeFormat     string
	mergeOutputFile string
	requireComplete bool
)

// mergeCmd represents the merge command
var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge payment evidence into one per-profile history",
	Long: `Merge gathers payment evidence for one profile from the settled ledger
and the pending-reconciliation queue, attributes card-matched evidence only
where the linked-card set makes the match unambiguous, deduplicates by
natural key and produces a newest-first payment history.

A source that cannot be read is reported and skipped; the merge fails only
when no source at all is available.

Examples:
  # Merge both sources for one profile
  reconciler merge --profile-id 42 --cards cards.csv \
    --settled settled.csv --queue queue.csv

  # JSON statement, newest 20 payments only
  reconciler merge --profile-id 42 --cards cards.csv --settled s.csv \
    --queue q.csv --output-format json --limit 20

  # Fail instead of returning a partial view
  reconciler merge --profile-id 42 --cards cards.csv --settled s.csv \
    --queue q.csv --require-complete`,

	PreRunE: validateMergeFlags,
	RunE:    runMerge,
}

func init() {
	rootCmd.AddCommand(mergeCmd)

	mergeCmd.Flags().StringVar(&mergeProfileID, "profile-id", "", "profile to build the payment history for (required)")
	mergeCmd.Flags().StringVar(&cardsFile, "cards", "", "path to linked-cards CSV file")
	mergeCmd.Flags().StringVar(&settledFile, "settled", "", "path to settled-ledger CSV file")
	mergeCmd.Flags().StringVar(&queueFile, "queue", "", "path to pending-queue CSV file")
	mergeCmd.Flags().IntVar(&mergeLimit, "limit", 0, "maximum payments in the view (0 = unlimited)")
	mergeCmd.Flags().StringVarP(&mergeFormat, "output-format", "f", "console", "output format: console, json, csv")
	mergeCmd.Flags().StringVarP(&mergeOutputFile, "output-file", "o", "", "output file path (default: stdout)")
	mergeCmd.Flags().BoolVar(&requireComplete, "require-complete", false, "fail when any source is unavailable")

	mergeCmd.MarkFlagRequired("profile-id")

	viper.BindPFlag("profile-id", mergeCmd.Flags().Lookup("profile-id"))
	viper.BindPFlag("cards", mergeCmd.Flags().Lookup("cards"))
	viper.BindPFlag("settled", mergeCmd.Flags().Lookup("settled"))
	viper.BindPFlag("queue", mergeCmd.Flags().Lookup("queue"))
	viper.BindPFlag("limit", mergeCmd.Flags().Lookup("limit"))
	viper.BindPFlag("merge-output-format", mergeCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("merge-output-file", mergeCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("require-complete", mergeCmd.Flags().Lookup("require-complete"))
}

func validateMergeFlags(cmd *cobra.Command, args []string) error {
	mergeProfileID = viper.GetString("profile-id")
	cardsFile = viper.GetString("cards")
	settledFile = viper.GetString("settled")
	queueFile = viper.GetString("queue")
	mergeLimit = viper.GetInt("limit")
	mergeFormat = viper.GetString("merge-output-format")
	mergeOutputFile = viper.GetString("merge-output-file")
	requireComplete = viper.GetBool("require-complete")

	if mergeProfileID == "" {
		return fmt.Errorf("profile-id is required")
	}
	if settledFile == "" && queueFile == "" {
		return fmt.Errorf("at least one of --settled or --queue is required")
	}
	if mergeLimit < 0 {
		return fmt.Errorf("limit cannot be negative")
	}

	if cardsFile != "" {
		if err := validateFileExists(cardsFile, "linked-cards file"); err != nil {
			return err
		}
	}

	if _, err := config.ParseReportFormat(mergeFormat); err != nil {
		return err
	}

	return nil
}

func runMerge(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	log := logger.GetGlobalLogger()

	var cards []*models.LinkedCard
	if cardsFile != "" {
		cardParser := parsers.NewCardParser(parsers.DefaultCardParserConfig())
		parsed, stats, err := cardParser.ParseCards(cardsFile)
		if err != nil {
			return err
		}
		logParseStats(log, "linked cards", cardsFile, stats)
		cards = parsed
	}

	// A source file that cannot be loaded becomes a failing source rather
	// than a hard error; availability is judged inside the merge.
	var sources []merger.EvidenceSource
	if settledFile != "" {
		sources = append(sources, loadEvidenceSource(log, models.SourceSettled, settledFile))
	}
	if queueFile != "" {
		sources = append(sources, loadEvidenceSource(log, models.SourcePendingQueue, queueFile))
	}

	m := merger.NewMerger(sources...)
	view, err := m.MergePayments(ctx, mergeProfileID, cards, mergeLimit)
	if err != nil {
		return err
	}

	if requireComplete && !view.Complete() {
		return fmt.Errorf("payment view for profile %s is incomplete: %d source(s) unavailable",
			mergeProfileID, len(view.FailedSources))
	}

	generator, err := config.CreateReportGenerator(mergeFormat, log)
	if err != nil {
		return err
	}

	if mergeOutputFile != "" {
		return generator.WriteStatementReportToFile(view, mergeOutputFile)
	}
	return generator.WriteStatementReport(view, os.Stdout)
}

func loadEvidenceSource(log logger.Logger, source models.PaymentSource, path string) merger.EvidenceSource {
	parser := parsers.NewEvidenceParser(source, parsers.DefaultEvidenceParserConfig())
	rows, stats, err := parser.ParseEvidence(path)
	if err != nil {
		log.WithError(err).WithFields(logger.Fields{
			"source": source,
			"file":   path,
		}).Warn("Evidence source could not be loaded")
		return merger.FailingSource(source, err)
	}

	logParseStats(log, string(source)+" evidence", path, stats)
	return merger.NewSliceSource(source, rows)
}
