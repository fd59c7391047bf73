package cmd

import (
	"fmt"
	"os"
	"time"

	"identity-reconciliation-service/internal/ledger"
	"identity-reconciliation-service/internal/models"
	"identity-reconciliation-service/internal/parsers"
	"identity-reconciliation-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the ledger command
var (
	ledgerSettledFile string
	ledgerQueueFile   string
	ledgerPageSize    int
	ledgerMaxPages    int
	ledgerSource      string
	ledgerCurrency    string
	ledgerLast4       string
	ledgerProfileID   string
	ledgerSearch      string
)

// ledgerCmd represents the ledger command
var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Browse the raw payment-evidence ledger page by page",
	Long: `Ledger loads evidence snapshots into an in-memory ledger and walks it
with keyset pagination, newest first. Structured filters narrow the scan;
free-text search filters each fetched page, so a searched page can come back
short even when more data exists.

Examples:
  # Page through everything, 50 rows at a time
  reconciler ledger --settled settled.csv --queue queue.csv

  # Filter by source and currency
  reconciler ledger --settled settled.csv --source settled --currency BYN

  # Search within pages for one card
  reconciler ledger --settled s.csv --queue q.csv --search 1234 --page-size 20`,

	PreRunE: validateLedgerFlags,
	RunE:    runLedger,
}

func init() {
	rootCmd.AddCommand(ledgerCmd)

	ledgerCmd.Flags().StringVar(&ledgerSettledFile, "settled", "", "path to settled-ledger CSV file")
	ledgerCmd.Flags().StringVar(&ledgerQueueFile, "queue", "", "path to pending-queue CSV file")
	ledgerCmd.Flags().IntVar(&ledgerPageSize, "page-size", ledger.DefaultPageSize, "rows per page")
	ledgerCmd.Flags().IntVar(&ledgerMaxPages, "max-pages", 0, "stop after this many pages (0 = all)")
	ledgerCmd.Flags().StringVar(&ledgerSource, "source", "", "filter by source: settled or pending_queue")
	ledgerCmd.Flags().StringVar(&ledgerCurrency, "currency", "", "filter by currency code")
	ledgerCmd.Flags().StringVar(&ledgerLast4, "card-last4", "", "filter by card last-4 digits")
	ledgerCmd.Flags().StringVar(&ledgerProfileID, "profile-id", "", "filter by tagged profile id")
	ledgerCmd.Flags().StringVar(&ledgerSearch, "search", "", "free-text search within each page")

	// settled/queue/profile-id keys are prefixed to keep them apart from
	// the merge command's bindings
	viper.BindPFlag("ledger-settled", ledgerCmd.Flags().Lookup("settled"))
	viper.BindPFlag("ledger-queue", ledgerCmd.Flags().Lookup("queue"))
	viper.BindPFlag("page-size", ledgerCmd.Flags().Lookup("page-size"))
	viper.BindPFlag("max-pages", ledgerCmd.Flags().Lookup("max-pages"))
	viper.BindPFlag("source", ledgerCmd.Flags().Lookup("source"))
	viper.BindPFlag("currency", ledgerCmd.Flags().Lookup("currency"))
	viper.BindPFlag("card-last4", ledgerCmd.Flags().Lookup("card-last4"))
	viper.BindPFlag("ledger-profile-id", ledgerCmd.Flags().Lookup("profile-id"))
	viper.BindPFlag("search", ledgerCmd.Flags().Lookup("search"))
}

func validateLedgerFlags(cmd *cobra.Command, args []string) error {
	ledgerSettledFile = viper.GetString("ledger-settled")
	ledgerQueueFile = viper.GetString("ledger-queue")
	ledgerPageSize = viper.GetInt("page-size")
	ledgerMaxPages = viper.GetInt("max-pages")
	ledgerSource = viper.GetString("source")
	ledgerCurrency = viper.GetString("currency")
	ledgerLast4 = viper.GetString("card-last4")
	ledgerProfileID = viper.GetString("ledger-profile-id")
	ledgerSearch = viper.GetString("search")

	if ledgerSettledFile == "" && ledgerQueueFile == "" {
		return fmt.Errorf("at least one of --settled or --queue is required")
	}
	if ledgerSettledFile != "" {
		if err := validateFileExists(ledgerSettledFile, "settled-ledger file"); err != nil {
			return err
		}
	}
	if ledgerQueueFile != "" {
		if err := validateFileExists(ledgerQueueFile, "pending-queue file"); err != nil {
			return err
		}
	}
	if ledgerPageSize < 1 || ledgerPageSize > ledger.MaxPageSize {
		return fmt.Errorf("page-size must be between 1 and %d", ledger.MaxPageSize)
	}
	if ledgerMaxPages < 0 {
		return fmt.Errorf("max-pages cannot be negative")
	}

	if ledgerSource != "" {
		if _, err := models.ParsePaymentSource(ledgerSource); err != nil {
			return err
		}
	}

	return nil
}

func runLedger(cmd *cobra.Command, args []string) error {
	log := logger.GetGlobalLogger()

	var rows []*models.PaymentEvidence
	load := func(source models.PaymentSource, path string) error {
		parser := parsers.NewEvidenceParser(source, parsers.DefaultEvidenceParserConfig())
		parsed, stats, err := parser.ParseEvidence(path)
		if err != nil {
			return err
		}
		logParseStats(log, string(source)+" evidence", path, stats)
		rows = append(rows, parsed...)
		return nil
	}

	if ledgerSettledFile != "" {
		if err := load(models.SourceSettled, ledgerSettledFile); err != nil {
			return err
		}
	}
	if ledgerQueueFile != "" {
		if err := load(models.SourcePendingQueue, ledgerQueueFile); err != nil {
			return err
		}
	}

	store := ledger.NewStore(rows)

	filter := ledger.Filter{
		Currency:  ledgerCurrency,
		CardLast4: ledgerLast4,
		ProfileID: ledgerProfileID,
		Search:    ledgerSearch,
	}
	if ledgerSource != "" {
		source, _ := models.ParsePaymentSource(ledgerSource)
		filter.Source = source
	}

	var cursor *ledger.SeekCursor
	pageNum := 0
	printed := 0
	for {
		page, err := store.FetchPage(ledger.PageRequest{
			PageSize: ledgerPageSize,
			Cursor:   cursor,
			Filter:   filter,
		})
		if err != nil {
			return err
		}

		pageNum++
		fmt.Fprintf(os.Stdout, "--- page %d (%d rows) ---\n", pageNum, len(page.Rows))
		for _, row := range page.Rows {
			printLedgerRow(row)
			printed++
		}

		if page.NextCursor == nil {
			break
		}
		if ledgerMaxPages > 0 && pageNum >= ledgerMaxPages {
			fmt.Fprintf(os.Stdout, "... more rows available, stopped at --max-pages\n")
			break
		}
		cursor = page.NextCursor
	}

	fmt.Fprintf(os.Stdout, "%d rows across %d page(s)\n", printed, pageNum)
	return nil
}

func printLedgerRow(row *models.PaymentEvidence) {
	timestamp := "-"
	if ts := row.SortTimestamp(); !ts.IsZero() {
		timestamp = ts.Format(time.RFC3339)
	}
	fmt.Fprintf(os.Stdout, "%-22s %-14s %10s %s  %s", row.NaturalKey, row.Source,
		row.Amount.StringFixed(2), row.Currency, timestamp)
	if row.CardLast4 != "" {
		fmt.Fprintf(os.Stdout, "  *%s %s", row.CardLast4, row.CardBrand)
	}
	fmt.Fprintf(os.Stdout, "\n")
}
