package matcher

import "fmt"

// MatchingConfig holds tunable parameters for contact matching
type MatchingConfig struct {
	// FuzzyWordThreshold is the minimum bigram score for one word of a
	// contact name to count as matching one word of a profile name
	FuzzyWordThreshold float64 `json:"fuzzy_word_threshold"`

	// MinCandidateScore is the minimum whole-name similarity for a profile
	// to be surfaced as a fuzzy candidate
	MinCandidateScore float64 `json:"min_candidate_score"`

	// MaxFuzzyCandidates caps how many ranked candidates are returned for
	// operator review
	MaxFuzzyCandidates int `json:"max_fuzzy_candidates"`

	// MinWordLength excludes very short name tokens (initials, particles)
	// from word-level scoring
	MinWordLength int `json:"min_word_length"`
}

// DefaultMatchingConfig returns the production matching configuration
func DefaultMatchingConfig() *MatchingConfig {
	return &MatchingConfig{
		FuzzyWordThreshold: 0.8,
		MinCandidateScore:  0.5,
		MaxFuzzyCandidates: 3,
		MinWordLength:      2,
	}
}

// StrictMatchingConfig returns a configuration that surfaces only
// near-certain fuzzy candidates
func StrictMatchingConfig() *MatchingConfig {
	return &MatchingConfig{
		FuzzyWordThreshold: 0.9,
		MinCandidateScore:  0.8,
		MaxFuzzyCandidates: 1,
		MinWordLength:      2,
	}
}

// Validate validates the matching configuration
func (c *MatchingConfig) Validate() error {
	if c.FuzzyWordThreshold < 0 || c.FuzzyWordThreshold > 1 {
		return fmt.Errorf("fuzzy word threshold must be between 0 and 1, got %f", c.FuzzyWordThreshold)
	}

	if c.MinCandidateScore < 0 || c.MinCandidateScore > 1 {
		return fmt.Errorf("min candidate score must be between 0 and 1, got %f", c.MinCandidateScore)
	}

	if c.MaxFuzzyCandidates <= 0 {
		return fmt.Errorf("max fuzzy candidates must be positive, got %d", c.MaxFuzzyCandidates)
	}

	if c.MinWordLength < 1 {
		return fmt.Errorf("min word length must be at least 1, got %d", c.MinWordLength)
	}

	return nil
}

// Clone returns a copy of the configuration
func (c *MatchingConfig) Clone() *MatchingConfig {
	clone := *c
	return &clone
}
