package parsers

import (
	"identity-reconciliation-service/internal/models"
	"identity-reconciliation-service/pkg/errors"
	"identity-reconciliation-service/pkg/logger"
)

// ProfileParser loads the known-profile snapshot taken at batch start
type ProfileParser struct {
	*baseParser
	logger logger.Logger
}

// profileColumns are the canonical column names of a profile snapshot
var profileColumns = struct {
	id, displayName, email, secondaryEmails, phone, secondaryPhones, telegram, externalID string
}{
	id:              "id",
	displayName:     "display_name",
	email:           "email",
	secondaryEmails: "secondary_emails",
	phone:           "phone",
	secondaryPhones: "secondary_phones",
	telegram:        "telegram_handle",
	externalID:      "external_id",
}

// DefaultProfileParserConfig returns the profile snapshot CSV options
func DefaultProfileParserConfig() *ParseConfig {
	return &ParseConfig{
		HasHeader: true,
		Delimiter: ',',
		ColumnAliases: map[string]string{
			"profile_id": "id",
			"name":       "display_name",
			"full_name":  "display_name",
			"emails":     "secondary_emails",
			"phones":     "secondary_phones",
			"telegram":   "telegram_handle",
			"tg":         "telegram_handle",
			"crm_id":     "external_id",
		},
	}
}

// NewProfileParser creates a profile snapshot parser
func NewProfileParser(config *ParseConfig) *ProfileParser {
	if config == nil {
		config = DefaultProfileParserConfig()
	}
	return &ProfileParser{
		baseParser: newBaseParser(config),
		logger:     logger.GetGlobalLogger().WithComponent("profile_parser"),
	}
}

// ParseProfiles reads the full profile snapshot from a CSV file. Malformed
// rows are skipped and recorded in the returned stats.
func (pp *ProfileParser) ParseProfiles(path string) ([]*models.KnownProfile, *ParseStats, error) {
	file, reader, err := pp.open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	stats := NewParseStats()

	required := []string{profileColumns.id, profileColumns.displayName}
	if err := pp.readHeaders(reader, path, required); err != nil {
		return nil, stats, err
	}

	var profiles []*models.KnownProfile
	err = pp.drain(reader, path, stats, func(record []string) {
		profile, rowErr := pp.parseRow(record, path)
		if rowErr != nil {
			stats.RecordError(rowErr)
			return
		}
		profiles = append(profiles, profile)
		stats.ParsedRows++
	})
	if err != nil {
		return profiles, stats, err
	}

	pp.logger.WithFields(logger.Fields{
		"file":    path,
		"parsed":  stats.ParsedRows,
		"skipped": stats.SkippedRows,
	}).Info("Parsed profile snapshot")

	return profiles, stats, nil
}

func (pp *ProfileParser) parseRow(record []string, path string) (*models.KnownProfile, *errors.EngineError) {
	id, rowErr := pp.requireField(record, profileColumns.id, path)
	if rowErr != nil {
		return nil, rowErr
	}

	profile := models.NewKnownProfile(id, pp.field(record, profileColumns.displayName))
	profile.Email = pp.field(record, profileColumns.email)
	profile.SecondaryEmails = models.SplitMultiValue(pp.field(record, profileColumns.secondaryEmails))
	profile.Phone = pp.field(record, profileColumns.phone)
	profile.SecondaryPhones = models.SplitMultiValue(pp.field(record, profileColumns.secondaryPhones))
	profile.TelegramHandle = pp.field(record, profileColumns.telegram)
	profile.ExternalID = pp.field(record, profileColumns.externalID)

	if err := profile.Validate(); err != nil {
		return nil, errors.RowError(errors.CodeInvalidFormat, path, pp.line, profileColumns.id, err)
	}

	return profile, nil
}
