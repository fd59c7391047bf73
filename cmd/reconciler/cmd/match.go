package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"identity-reconciliation-service/cmd/reconciler/config"
	"identity-reconciliation-service/internal/parsers"
	"identity-reconciliation-service/internal/reconciler"
	"identity-reconciliation-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the match command
var (
	profilesFile  string
	contactsFile  string
	outputFormat  string
	outputFile    string
	strictFuzzy   bool
	noFuzzyReview bool
)

// matchCmd represents the match command
var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match external contacts against known profiles",
	Long: `Match resolves a batch of externally-sourced contacts against a snapshot
of known profiles. Each contact walks the exact tier chain (external id,
email, phone, messaging handle, exact name); contacts no exact tier can
place get ranked fuzzy name candidates for operator review.

Examples:
  # Basic matching with a console report
  reconciler match --profiles profiles.csv --contacts contacts.csv

  # JSON report written to a file
  reconciler match --profiles profiles.csv --contacts contacts.csv \
    --output-format json --output-file report.json

  # Stricter fuzzy scoring, or none at all
  reconciler match --profiles p.csv --contacts c.csv --strict-fuzzy
  reconciler match --profiles p.csv --contacts c.csv --no-fuzzy-review`,

	PreRunE: validateMatchFlags,
	RunE:    runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringVarP(&profilesFile, "profiles", "p", "", "path to profile snapshot CSV file (required)")
	matchCmd.Flags().StringVarP(&contactsFile, "contacts", "c", "", "path to contact batch CSV file (required)")

	matchCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	matchCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")

	matchCmd.Flags().BoolVar(&strictFuzzy, "strict-fuzzy", false, "use stricter fuzzy candidate thresholds")
	matchCmd.Flags().BoolVar(&noFuzzyReview, "no-fuzzy-review", false, "skip fuzzy candidate collection for unmatched contacts")

	matchCmd.MarkFlagRequired("profiles")
	matchCmd.MarkFlagRequired("contacts")

	viper.BindPFlag("profiles", matchCmd.Flags().Lookup("profiles"))
	viper.BindPFlag("contacts", matchCmd.Flags().Lookup("contacts"))
	viper.BindPFlag("output-format", matchCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", matchCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("strict-fuzzy", matchCmd.Flags().Lookup("strict-fuzzy"))
	viper.BindPFlag("no-fuzzy-review", matchCmd.Flags().Lookup("no-fuzzy-review"))
}

func validateMatchFlags(cmd *cobra.Command, args []string) error {
	profilesFile = viper.GetString("profiles")
	contactsFile = viper.GetString("contacts")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	strictFuzzy = viper.GetBool("strict-fuzzy")
	noFuzzyReview = viper.GetBool("no-fuzzy-review")

	if err := validateFileExists(profilesFile, "profile snapshot file"); err != nil {
		return err
	}
	if err := validateFileExists(contactsFile, "contact batch file"); err != nil {
		return err
	}

	if _, err := config.ParseReportFormat(outputFormat); err != nil {
		return err
	}

	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

func runMatch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	log := logger.GetGlobalLogger()

	profileParser := parsers.NewProfileParser(parsers.DefaultProfileParserConfig())
	profiles, profileStats, err := profileParser.ParseProfiles(profilesFile)
	if err != nil {
		return err
	}
	logParseStats(log, "profiles", profilesFile, profileStats)

	contactParser := parsers.NewContactParser(parsers.DefaultContactParserConfig())
	contacts, contactStats, err := contactParser.ParseContacts(contactsFile)
	if err != nil {
		return err
	}
	logParseStats(log, "contacts", contactsFile, contactStats)

	serviceConfig := config.CreateServiceConfig(strictFuzzy, !noFuzzyReview)
	service, err := reconciler.NewMatchingService(serviceConfig, log)
	if err != nil {
		return err
	}

	result, err := service.MatchBatch(ctx, &reconciler.BatchRequest{
		Profiles: profiles,
		Contacts: contacts,
	})
	if err != nil {
		return err
	}

	generator, err := config.CreateReportGenerator(outputFormat, log)
	if err != nil {
		return err
	}

	if outputFile != "" {
		return generator.WriteMatchReportToFile(result, outputFile)
	}
	return generator.WriteMatchReport(result, os.Stdout)
}

func logParseStats(log logger.Logger, kind, path string, stats *parsers.ParseStats) {
	entry := log.WithFields(logger.Fields{
		"file":    path,
		"total":   stats.TotalRows,
		"parsed":  stats.ParsedRows,
		"skipped": stats.SkippedRows,
	})
	if stats.SkippedRows > 0 {
		entry.Warnf("Loaded %s with skipped rows", kind)
		if detail := FormatParseSummary(stats.Summary()); detail != "" {
			fmt.Fprintln(os.Stderr, detail)
		}
	} else {
		entry.Infof("Loaded %s", kind)
	}
}
