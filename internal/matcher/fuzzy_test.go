package matcher

import (
	"math"
	"testing"

	"identity-reconciliation-service/internal/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestBigramSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{"identical", "ivan", "ivan", 1.0},
		{"completely different", "abab", "cdcd", 0.0},
		{"partial overlap", "night", "nacht", 0.25},
		{"single char scores zero", "a", "ivan", 0.0},
		{"empty scores zero", "", "ivan", 0.0},
		{"both short", "a", "b", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BigramSimilarity(tt.a, tt.b); !almostEqual(got, tt.expected) {
				t.Errorf("BigramSimilarity(%q, %q) = %f, want %f", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestBigramSimilaritySymmetric(t *testing.T) {
	pairs := [][2]string{
		{"ivan", "ivan"},
		{"night", "nacht"},
		{"petrov", "petroff"},
		{"smirnova", "smirnov"},
	}

	for _, pair := range pairs {
		ab := BigramSimilarity(pair[0], pair[1])
		ba := BigramSimilarity(pair[1], pair[0])
		if !almostEqual(ab, ba) {
			t.Errorf("BigramSimilarity not symmetric for %q/%q: %f vs %f", pair[0], pair[1], ab, ba)
		}
	}
}

func TestBigramSimilarityRepeatedBigramsNotDoubleCounted(t *testing.T) {
	// "aaaa" has three "aa" bigrams; against "aa" (one bigram) only one
	// can be consumed: 2*1/(3+1) = 0.5
	if got := BigramSimilarity("aaaa", "aa"); !almostEqual(got, 0.5) {
		t.Errorf("BigramSimilarity(aaaa, aa) = %f, want 0.5", got)
	}
}

func TestFuzzyCandidatesCrossScript(t *testing.T) {
	profiles := []*models.KnownProfile{
		{ID: "P1", DisplayName: "Ivan Petrov"},
		{ID: "P2", DisplayName: "Anna Smirnova"},
	}

	contact := models.NewExternalContact("c-1", "Иван Петров")
	candidates := FuzzyCandidates(contact, profiles, DefaultMatchingConfig())

	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].ProfileID != "P1" {
		t.Errorf("expected P1, got %s", candidates[0].ProfileID)
	}
	if !almostEqual(candidates[0].Score, 1.0) {
		t.Errorf("expected transliterated exact name to score 1.0, got %f", candidates[0].Score)
	}
}

func TestFuzzyCandidatesSameScriptTypo(t *testing.T) {
	profiles := []*models.KnownProfile{
		{ID: "P1", DisplayName: "Ivan Petrov"},
	}

	// One word exact, one word slightly off: petrov vs petrof shares 4 of
	// (5+5) bigrams, 0.8, right at the word threshold
	contact := models.NewExternalContact("c-1", "Ivan Petrof")
	candidates := FuzzyCandidates(contact, profiles, DefaultMatchingConfig())

	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if !almostEqual(candidates[0].Score, 1.0) {
		t.Errorf("expected both words matched (score 1.0), got %f", candidates[0].Score)
	}
}

func TestFuzzyCandidatesPartialWordMatch(t *testing.T) {
	profiles := []*models.KnownProfile{
		{ID: "P1", DisplayName: "Ivan Petrov"},
	}

	// Only the first name matches; score = 1 matched / 2 words
	contact := models.NewExternalContact("c-1", "Ivan Sidorov")
	candidates := FuzzyCandidates(contact, profiles, DefaultMatchingConfig())

	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if !almostEqual(candidates[0].Score, 0.5) {
		t.Errorf("expected score 0.5, got %f", candidates[0].Score)
	}
}

func TestFuzzyCandidatesBelowFloorExcluded(t *testing.T) {
	profiles := []*models.KnownProfile{
		{ID: "P1", DisplayName: "Ivan Petrov Sidorov"},
	}

	// One of three profile words matches: 1/3 < 0.5 floor
	contact := models.NewExternalContact("c-1", "Ivan")
	candidates := FuzzyCandidates(contact, profiles, DefaultMatchingConfig())

	if len(candidates) != 0 {
		t.Errorf("expected no candidates below the score floor, got %d", len(candidates))
	}
}

func TestFuzzyCandidatesTopN(t *testing.T) {
	profiles := []*models.KnownProfile{
		{ID: "P1", DisplayName: "Ivan Petrov"},
		{ID: "P2", DisplayName: "Ivan Petrenko"},
		{ID: "P3", DisplayName: "Ivan Sidorov"},
		{ID: "P4", DisplayName: "Ivan Kuznetsov"},
		{ID: "P5", DisplayName: "Ivan Smirnov"},
	}

	contact := models.NewExternalContact("c-1", "Ivan Petrov")
	config := DefaultMatchingConfig()
	candidates := FuzzyCandidates(contact, profiles, config)

	if len(candidates) != config.MaxFuzzyCandidates {
		t.Fatalf("expected exactly %d candidates, got %d", config.MaxFuzzyCandidates, len(candidates))
	}
	if candidates[0].ProfileID != "P1" {
		t.Errorf("expected the exact name first, got %s", candidates[0].ProfileID)
	}
	for i := 1; i < len(candidates); i++ {
		if candidates[i].Score > candidates[i-1].Score {
			t.Errorf("candidates not sorted by score descending at %d", i)
		}
	}
}

func TestFuzzyCandidatesDeterministicTieBreak(t *testing.T) {
	profiles := []*models.KnownProfile{
		{ID: "P2", DisplayName: "Ivan Petrov"},
		{ID: "P1", DisplayName: "Ivan Petrov"},
	}

	contact := models.NewExternalContact("c-1", "Ivan Petrov")
	candidates := FuzzyCandidates(contact, profiles, DefaultMatchingConfig())

	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].ProfileID != "P1" || candidates[1].ProfileID != "P2" {
		t.Errorf("equal scores must order by profile ID: got %s, %s",
			candidates[0].ProfileID, candidates[1].ProfileID)
	}
}

func TestFuzzyCandidatesFirstLastFallback(t *testing.T) {
	profiles := []*models.KnownProfile{
		{ID: "P1", DisplayName: "Ivan Petrov"},
	}

	contact := models.NewExternalContact("c-1", "")
	contact.FirstName = "Ivan"
	contact.LastName = "Petrov"

	candidates := FuzzyCandidates(contact, profiles, DefaultMatchingConfig())
	if len(candidates) != 1 || !almostEqual(candidates[0].Score, 1.0) {
		t.Fatalf("expected first+last fallback to score 1.0, got %v", candidates)
	}
}

func TestFuzzyCandidatesEmptyName(t *testing.T) {
	profiles := createTestProfiles()

	contact := models.NewExternalContact("c-1", "")
	if candidates := FuzzyCandidates(contact, profiles, nil); candidates != nil {
		t.Errorf("expected nil candidates for empty name, got %v", candidates)
	}
}

func TestMatchingConfigValidate(t *testing.T) {
	config := DefaultMatchingConfig()
	if err := config.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}

	bad := DefaultMatchingConfig()
	bad.FuzzyWordThreshold = 1.5
	if err := bad.Validate(); err == nil {
		t.Error("expected error for threshold above 1")
	}

	bad = DefaultMatchingConfig()
	bad.MaxFuzzyCandidates = 0
	if err := bad.Validate(); err == nil {
		t.Error("expected error for zero candidate cap")
	}
}
