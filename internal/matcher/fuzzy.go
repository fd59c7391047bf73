package matcher

import (
	"sort"
	"strings"

	"identity-reconciliation-service/internal/models"
	"identity-reconciliation-service/internal/normalize"
	"identity-reconciliation-service/internal/translit"
)

// MatchCandidate is one ranked fuzzy suggestion for operator review. The
// output is advisory only; nothing is linked until an operator confirms a
// candidate explicitly.
type MatchCandidate struct {
	ProfileID      string  `json:"profile_id"`
	DisplayName    string  `json:"display_name"`
	Score          float64 `json:"score"`
	Transliterated string  `json:"transliterated"`
}

// BigramSimilarity computes the Sørensen–Dice coefficient over character
// bigrams: 2 × shared bigrams / (len(a)-1 + len(b)-1). Identical strings
// score 1.0; a string shorter than 2 characters scores 0 against anything.
// Each bigram of b is consumed at most once within one comparison.
func BigramSimilarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) < 2 || len(rb) < 2 {
		return 0
	}
	if a == b {
		return 1.0
	}

	bigramsB := make([]string, len(rb)-1)
	for i := 0; i < len(rb)-1; i++ {
		bigramsB[i] = string(rb[i : i+2])
	}
	used := make([]bool, len(bigramsB))

	shared := 0
	for i := 0; i < len(ra)-1; i++ {
		bigram := string(ra[i : i+2])
		for j, candidate := range bigramsB {
			if !used[j] && candidate == bigram {
				used[j] = true
				shared++
				break
			}
		}
	}

	return 2 * float64(shared) / float64(len(ra)-1+len(rb)-1)
}

// scoreWords computes word-level name similarity: every word of a claims its
// best-scoring word of b, counting as matched when the bigram score reaches
// the threshold. The result is matched words over the longer word count.
// A profile word may be claimed by more than one source word; no global
// assignment lock is enforced.
func scoreWords(wordsA, wordsB []string, threshold float64) float64 {
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	matched := 0
	for _, wa := range wordsA {
		best := 0.0
		for _, wb := range wordsB {
			if s := BigramSimilarity(wa, wb); s > best {
				best = s
			}
		}
		if best >= threshold {
			matched++
		}
	}

	longer := len(wordsA)
	if len(wordsB) > longer {
		longer = len(wordsB)
	}

	return float64(matched) / float64(longer)
}

// splitWords tokenizes a canonical name into scoring words, dropping tokens
// shorter than minLen (initials, particles).
func splitWords(name string, minLen int) []string {
	fields := strings.Fields(name)
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) >= minLen {
			words = append(words, f)
		}
	}
	return words
}

// contactName picks the name to score for a contact: the display name, or
// first+last when the display name is empty.
func contactName(contact *models.ExternalContact) string {
	if strings.TrimSpace(contact.DisplayName) != "" {
		return contact.DisplayName
	}
	return strings.TrimSpace(contact.FirstName + " " + contact.LastName)
}

// FuzzyCandidates scores every profile with a non-empty display name against
// the contact's name and returns the top candidates above the configured
// score floor. Both names are transliterated into Latin and into Cyrillic
// and scored in each script; either side may be the foreign one, so the
// better direction wins.
func FuzzyCandidates(contact *models.ExternalContact, profiles []*models.KnownProfile, config *MatchingConfig) []*MatchCandidate {
	if config == nil {
		config = DefaultMatchingConfig()
	}

	name := normalize.Name(contactName(contact))
	if name == "" {
		return nil
	}

	latinName := translit.ToLatin(name)
	cyrillicName := translit.ToCyrillic(name)
	latinWords := splitWords(latinName, config.MinWordLength)
	cyrillicWords := splitWords(cyrillicName, config.MinWordLength)

	var candidates []*MatchCandidate
	for _, profile := range profiles {
		profileName := normalize.Name(profile.DisplayName)
		if profileName == "" {
			continue
		}

		latinScore := scoreWords(latinWords, splitWords(translit.ToLatin(profileName), config.MinWordLength), config.FuzzyWordThreshold)
		cyrillicScore := scoreWords(cyrillicWords, splitWords(translit.ToCyrillic(profileName), config.MinWordLength), config.FuzzyWordThreshold)

		score, form := latinScore, latinName
		if cyrillicScore > latinScore {
			score, form = cyrillicScore, cyrillicName
		}

		if score >= config.MinCandidateScore {
			candidates = append(candidates, &MatchCandidate{
				ProfileID:      profile.ID,
				DisplayName:    profile.DisplayName,
				Score:          score,
				Transliterated: form,
			})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ProfileID < candidates[j].ProfileID
	})

	if len(candidates) > config.MaxFuzzyCandidates {
		candidates = candidates[:config.MaxFuzzyCandidates]
	}

	return candidates
}
