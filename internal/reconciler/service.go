// Package reconciler orchestrates identity resolution over snapshot batches:
// it builds the identity index, walks each contact through the exact tier
// chain, collects fuzzy review candidates for the leftovers, and tracks the
// batch as an import job.
package reconciler

import (
	"context"
	"time"

	"identity-reconciliation-service/internal/matcher"
	"identity-reconciliation-service/internal/models"
	"identity-reconciliation-service/pkg/errors"
	"identity-reconciliation-service/pkg/logger"
)

// Config holds matching-service settings
type Config struct {
	Matching *matcher.MatchingConfig `json:"matching"`

	// FuzzyReview enables fuzzy candidate collection for contacts no
	// exact tier could place.
	FuzzyReview bool `json:"fuzzy_review"`

	// ProgressInterval controls how often batch progress is logged
	ProgressInterval time.Duration `json:"progress_interval"`
}

// DefaultConfig returns the standard service configuration
func DefaultConfig() *Config {
	return &Config{
		Matching:         matcher.DefaultMatchingConfig(),
		FuzzyReview:      true,
		ProgressInterval: 5 * time.Second,
	}
}

// Validate checks the service configuration
func (c *Config) Validate() error {
	if c.Matching == nil {
		return errors.ConfigurationError(errors.CodeMissingConfig, "matching", nil, nil)
	}
	return c.Matching.Validate()
}

// BatchRequest is one contact batch to resolve against a profile snapshot
type BatchRequest struct {
	Profiles []*models.KnownProfile
	Contacts []*models.ExternalContact
}

// BatchSummary aggregates the outcome of one batch pass
type BatchSummary struct {
	TotalContacts   int                      `json:"total_contacts"`
	Matched         int                      `json:"matched"`
	Unmatched       int                      `json:"unmatched"`
	NeedsReview     int                      `json:"needs_review"`
	ByTier          map[models.MatchTier]int `json:"by_tier"`
	ProcessingTime  time.Duration            `json:"processing_time"`
	ProfilesIndexed int                      `json:"profiles_indexed"`
}

// BatchResult is the full outcome of one batch pass. Results preserve the
// input contact order. FuzzyReview holds ranked candidates, keyed by contact
// external ID, for contacts that fell through every exact tier.
type BatchResult struct {
	JobID       string                               `json:"job_id"`
	Results     []*matcher.MatchResult               `json:"results"`
	FuzzyReview map[string][]*matcher.MatchCandidate `json:"fuzzy_review,omitempty"`
	Summary     *BatchSummary                        `json:"summary"`
	IndexStats  matcher.IndexStats                   `json:"index_stats"`
	Errors      *errors.ErrorSummary                 `json:"errors,omitempty"`
}

// MatchingService resolves contact batches against profile snapshots
type MatchingService struct {
	config *Config
	logger logger.Logger
}

// NewMatchingService creates a matching service
func NewMatchingService(config *Config, log logger.Logger) (*MatchingService, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	return &MatchingService{
		config: config,
		logger: log.WithComponent("matching_service"),
	}, nil
}

// MatchBatch resolves every contact in the request against the profile
// snapshot. Individual contacts never abort the batch; per-contact problems
// are accumulated into the result's error summary. Cancellation mid-batch is
// not supported: a started batch runs to completion and the caller discards
// the result if it is no longer wanted.
func (s *MatchingService) MatchBatch(ctx context.Context, request *BatchRequest) (*BatchResult, error) {
	if request == nil || len(request.Contacts) == 0 {
		return nil, errors.MatchingError(errors.CodeEmptyBatch, "match batch", nil)
	}

	job := NewImportJob(int64(len(request.Contacts)))
	return s.process(ctx, job, request)
}

// process runs one batch against its job. Any error moves the job to the
// failed terminal so it never sticks in processing.
func (s *MatchingService) process(ctx context.Context, job *ImportJob, request *BatchRequest) (result *BatchResult, err error) {
	defer func() {
		if err != nil {
			job.Fail(err)
		}
	}()

	if err := job.Start(); err != nil {
		return nil, errors.InternalError("start import job", err)
	}

	start := time.Now()
	index := matcher.BuildIndex(request.Profiles)
	stats := index.Stats()

	s.logger.WithFields(logger.Fields{
		"job_id":   job.ID,
		"contacts": len(request.Contacts),
		"profiles": len(request.Profiles),
		"emails":   stats.EmailKeys,
		"phones":   stats.PhoneKeys,
	}).Info("Starting batch matching")

	tracker := logger.NewProgressTracker(logger.ProgressConfig{
		Operation:   "match_batch",
		Total:       int64(len(request.Contacts)),
		LogInterval: s.config.ProgressInterval,
		Logger:      s.logger,
	})

	result = &BatchResult{
		JobID:   job.ID,
		Results: make([]*matcher.MatchResult, 0, len(request.Contacts)),
		Summary: &BatchSummary{
			TotalContacts:   len(request.Contacts),
			ByTier:          make(map[models.MatchTier]int),
			ProfilesIndexed: stats.Profiles,
		},
		IndexStats: stats,
	}
	if s.config.FuzzyReview {
		result.FuzzyReview = make(map[string][]*matcher.MatchCandidate)
	}

	var batchErrors []*errors.EngineError

	for _, contact := range request.Contacts {
		if contact == nil {
			batchErrors = append(batchErrors, errors.MatchingError(
				errors.CodeProcessingError, "match batch", nil).
				WithContext("reason", "nil contact in batch"))
			job.Advance(1)
			tracker.Increment()
			continue
		}

		match := matcher.MatchContact(contact, index)
		result.Results = append(result.Results, match)
		result.Summary.ByTier[match.Tier]++

		if match.Matched() {
			result.Summary.Matched++
		} else {
			result.Summary.Unmatched++
			if s.config.FuzzyReview {
				candidates := matcher.FuzzyCandidates(contact, request.Profiles, s.config.Matching)
				if len(candidates) > 0 {
					result.FuzzyReview[contact.ExternalID] = candidates
					result.Summary.NeedsReview++
				}
			}
		}

		job.Advance(1)
		tracker.Increment()
	}

	result.Summary.ProcessingTime = time.Since(start)
	if len(batchErrors) > 0 {
		result.Errors = errors.NewErrorSummary(batchErrors)
	}

	tracker.Complete()
	if err := job.Complete(); err != nil {
		return nil, errors.InternalError("complete import job", err)
	}

	s.logger.WithFields(logger.Fields{
		"job_id":       job.ID,
		"matched":      result.Summary.Matched,
		"unmatched":    result.Summary.Unmatched,
		"needs_review": result.Summary.NeedsReview,
		"duration":     result.Summary.ProcessingTime.String(),
	}).Info("Batch matching completed")

	return result, nil
}

// MatchRate returns the fraction of contacts resolved by an exact tier
func (s *BatchSummary) MatchRate() float64 {
	if s.TotalContacts == 0 {
		return 0
	}
	return float64(s.Matched) / float64(s.TotalContacts)
}
