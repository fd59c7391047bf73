package parsers

import (
	"identity-reconciliation-service/internal/models"
	"identity-reconciliation-service/pkg/errors"
	"identity-reconciliation-service/pkg/logger"
)

// EvidenceParser loads payment-evidence snapshots for one source. The
// snapshot must already be filtered to resolved/successful rows.
type EvidenceParser struct {
	*baseParser
	source models.PaymentSource
	logger logger.Logger
}

var evidenceColumns = struct {
	naturalKey, amount, currency, paidAt, createdAt, cardLast4, cardBrand, orderRef, profileID string
}{
	naturalKey: "natural_key",
	amount:     "amount",
	currency:   "currency",
	paidAt:     "paid_at",
	createdAt:  "created_at",
	cardLast4:  "card_last4",
	cardBrand:  "card_brand",
	orderRef:   "order_ref",
	profileID:  "profile_id",
}

// DefaultEvidenceParserConfig returns the evidence snapshot CSV options
func DefaultEvidenceParserConfig() *ParseConfig {
	return &ParseConfig{
		HasHeader: true,
		Delimiter: ',',
		ColumnAliases: map[string]string{
			"uid":        "natural_key",
			"payment_id": "natural_key",
			"key":        "natural_key",
			"sum":        "amount",
			"value":      "amount",
			"paid":       "paid_at",
			"created":    "created_at",
			"last4":      "card_last4",
			"brand":      "card_brand",
			"order":      "order_ref",
			"order_id":   "order_ref",
		},
	}
}

// NewEvidenceParser creates an evidence snapshot parser for one source
func NewEvidenceParser(source models.PaymentSource, config *ParseConfig) *EvidenceParser {
	if config == nil {
		config = DefaultEvidenceParserConfig()
	}
	return &EvidenceParser{
		baseParser: newBaseParser(config),
		source:     source,
		logger: logger.GetGlobalLogger().
			WithComponent("evidence_parser").
			WithField("source", source),
	}
}

// ParseEvidence reads one source's evidence snapshot from a CSV file
func (ep *EvidenceParser) ParseEvidence(path string) ([]*models.PaymentEvidence, *ParseStats, error) {
	file, reader, err := ep.open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	stats := NewParseStats()

	required := []string{evidenceColumns.naturalKey, evidenceColumns.amount}
	if err := ep.readHeaders(reader, path, required); err != nil {
		return nil, stats, err
	}

	var rows []*models.PaymentEvidence
	err = ep.drain(reader, path, stats, func(record []string) {
		row, rowErr := ep.parseRow(record, path)
		if rowErr != nil {
			stats.RecordError(rowErr)
			return
		}
		rows = append(rows, row)
		stats.ParsedRows++
	})
	if err != nil {
		return rows, stats, err
	}

	ep.logger.WithFields(logger.Fields{
		"file":    path,
		"parsed":  stats.ParsedRows,
		"skipped": stats.SkippedRows,
	}).Info("Parsed evidence snapshot")

	return rows, stats, nil
}

func (ep *EvidenceParser) parseRow(record []string, path string) (*models.PaymentEvidence, *errors.EngineError) {
	naturalKey, rowErr := ep.requireField(record, evidenceColumns.naturalKey, path)
	if rowErr != nil {
		return nil, rowErr
	}

	amountRaw, rowErr := ep.requireField(record, evidenceColumns.amount, path)
	if rowErr != nil {
		return nil, rowErr
	}
	amount, err := models.ParseDecimalFromString(amountRaw)
	if err != nil {
		return nil, errors.RowError(errors.CodeInvalidFormat, path, ep.line, evidenceColumns.amount, err)
	}

	row := &models.PaymentEvidence{
		Source:     ep.source,
		NaturalKey: naturalKey,
		Amount:     amount,
		Currency:   ep.field(record, evidenceColumns.currency),
		CardLast4:  ep.field(record, evidenceColumns.cardLast4),
		CardBrand:  ep.field(record, evidenceColumns.cardBrand),
		OrderRef:   ep.field(record, evidenceColumns.orderRef),
		ProfileID:  ep.field(record, evidenceColumns.profileID),
	}

	if raw := ep.field(record, evidenceColumns.paidAt); raw != "" {
		paidAt, err := models.ParseTimeWithFormats(raw)
		if err != nil {
			return nil, errors.RowError(errors.CodeInvalidFormat, path, ep.line, evidenceColumns.paidAt, err)
		}
		row.PaidAt = &paidAt
	}

	if raw := ep.field(record, evidenceColumns.createdAt); raw != "" {
		createdAt, err := models.ParseTimeWithFormats(raw)
		if err != nil {
			return nil, errors.RowError(errors.CodeInvalidFormat, path, ep.line, evidenceColumns.createdAt, err)
		}
		row.CreatedAt = createdAt
	}

	if err := row.Validate(); err != nil {
		return nil, errors.RowError(errors.CodeInvalidFormat, path, ep.line, evidenceColumns.naturalKey, err)
	}

	return row, nil
}

// CardParser loads a profile's linked-card snapshot
type CardParser struct {
	*baseParser
	logger logger.Logger
}

var cardColumns = struct {
	profileID, last4, brand string
}{
	profileID: "profile_id",
	last4:     "last4",
	brand:     "brand",
}

// DefaultCardParserConfig returns the linked-card CSV options
func DefaultCardParserConfig() *ParseConfig {
	return &ParseConfig{
		HasHeader: true,
		Delimiter: ',',
		ColumnAliases: map[string]string{
			"profile":    "profile_id",
			"card_last4": "last4",
			"card_brand": "brand",
		},
	}
}

// NewCardParser creates a linked-card snapshot parser
func NewCardParser(config *ParseConfig) *CardParser {
	if config == nil {
		config = DefaultCardParserConfig()
	}
	return &CardParser{
		baseParser: newBaseParser(config),
		logger:     logger.GetGlobalLogger().WithComponent("card_parser"),
	}
}

// ParseCards reads a linked-card snapshot from a CSV file
func (cp *CardParser) ParseCards(path string) ([]*models.LinkedCard, *ParseStats, error) {
	file, reader, err := cp.open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	stats := NewParseStats()

	required := []string{cardColumns.profileID, cardColumns.last4}
	if err := cp.readHeaders(reader, path, required); err != nil {
		return nil, stats, err
	}

	var cards []*models.LinkedCard
	err = cp.drain(reader, path, stats, func(record []string) {
		card := &models.LinkedCard{
			ProfileID: cp.field(record, cardColumns.profileID),
			Last4:     cp.field(record, cardColumns.last4),
			Brand:     cp.field(record, cardColumns.brand),
		}
		if err := card.Validate(); err != nil {
			stats.RecordError(errors.RowError(errors.CodeInvalidFormat, path, cp.line, cardColumns.last4, err))
			return
		}
		cards = append(cards, card)
		stats.ParsedRows++
	})
	if err != nil {
		return cards, stats, err
	}

	cp.logger.WithFields(logger.Fields{
		"file":    path,
		"parsed":  stats.ParsedRows,
		"skipped": stats.SkippedRows,
	}).Info("Parsed linked-card snapshot")

	return cards, stats, nil
}
