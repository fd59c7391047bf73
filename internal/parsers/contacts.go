package parsers

import (
	"identity-reconciliation-service/internal/models"
	"identity-reconciliation-service/pkg/errors"
	"identity-reconciliation-service/pkg/logger"
)

// ContactParser loads imported CRM contact batches
type ContactParser struct {
	*baseParser
	logger logger.Logger
}

var contactColumns = struct {
	externalID, displayName, firstName, lastName, emails, phones, telegram, createdAt string
}{
	externalID:  "external_id",
	displayName: "display_name",
	firstName:   "first_name",
	lastName:    "last_name",
	emails:      "emails",
	phones:      "phones",
	telegram:    "telegram_handle",
	createdAt:   "created_at",
}

// DefaultContactParserConfig returns the contact batch CSV options
func DefaultContactParserConfig() *ParseConfig {
	return &ParseConfig{
		HasHeader: true,
		Delimiter: ',',
		ColumnAliases: map[string]string{
			"id":       "external_id",
			"crm_id":   "external_id",
			"name":     "display_name",
			"email":    "emails",
			"phone":    "phones",
			"telegram": "telegram_handle",
			"tg":       "telegram_handle",
			"created":  "created_at",
		},
	}
}

// NewContactParser creates a contact batch parser
func NewContactParser(config *ParseConfig) *ContactParser {
	if config == nil {
		config = DefaultContactParserConfig()
	}
	return &ContactParser{
		baseParser: newBaseParser(config),
		logger:     logger.GetGlobalLogger().WithComponent("contact_parser"),
	}
}

// ParseContacts reads one contact batch from a CSV file. A row missing its
// required fields is skipped and recorded; the batch continues.
func (cp *ContactParser) ParseContacts(path string) ([]*models.ExternalContact, *ParseStats, error) {
	file, reader, err := cp.open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	stats := NewParseStats()

	required := []string{contactColumns.externalID}
	if err := cp.readHeaders(reader, path, required); err != nil {
		return nil, stats, err
	}

	var contacts []*models.ExternalContact
	err = cp.drain(reader, path, stats, func(record []string) {
		contact, rowErr := cp.parseRow(record, path)
		if rowErr != nil {
			stats.RecordError(rowErr)
			return
		}
		contacts = append(contacts, contact)
		stats.ParsedRows++
	})
	if err != nil {
		return contacts, stats, err
	}

	cp.logger.WithFields(logger.Fields{
		"file":    path,
		"parsed":  stats.ParsedRows,
		"skipped": stats.SkippedRows,
	}).Info("Parsed contact batch")

	return contacts, stats, nil
}

func (cp *ContactParser) parseRow(record []string, path string) (*models.ExternalContact, *errors.EngineError) {
	externalID, rowErr := cp.requireField(record, contactColumns.externalID, path)
	if rowErr != nil {
		return nil, rowErr
	}

	contact := models.NewExternalContact(externalID, cp.field(record, contactColumns.displayName))
	contact.FirstName = cp.field(record, contactColumns.firstName)
	contact.LastName = cp.field(record, contactColumns.lastName)
	contact.Emails = models.SplitMultiValue(cp.field(record, contactColumns.emails))
	contact.Phones = models.SplitMultiValue(cp.field(record, contactColumns.phones))
	contact.TelegramHandle = cp.field(record, contactColumns.telegram)

	if raw := cp.field(record, contactColumns.createdAt); raw != "" {
		createdAt, err := models.ParseTimeWithFormats(raw)
		if err != nil {
			return nil, errors.RowError(errors.CodeInvalidFormat, path, cp.line, contactColumns.createdAt, err)
		}
		contact.CreatedAt = createdAt
	}

	if err := contact.Validate(); err != nil {
		return nil, errors.RowError(errors.CodeRowMissingField, path, cp.line, contactColumns.displayName, err)
	}

	return contact, nil
}
