package merger

import (
	"strings"

	"identity-reconciliation-service/internal/models"
)

// brandAliasGroups lists brand labels that different processors use for the
// same card network. Queries expand a known brand to its whole group.
var brandAliasGroups = [][]string{
	{"mastercard", "master", "mc"},
	{"belkart", "belcard"},
	{"visa", "vi"},
	{"mir", "мир"},
}

// BrandAliases expands a brand label to its case-insensitive alias set. An
// unrecognized brand maps to itself; an empty brand maps to nil.
func BrandAliases(brand string) []string {
	b := strings.ToLower(strings.TrimSpace(brand))
	if b == "" {
		return nil
	}

	for _, group := range brandAliasGroups {
		for _, alias := range group {
			if alias == b {
				return group
			}
		}
	}

	return []string{b}
}

// CountLast4 counts how many distinct linked cards share each last-4 value
// within one profile. A last-4 with a count above one is ambiguous.
func CountLast4(cards []*models.LinkedCard) map[string]int {
	counts := make(map[string]int, len(cards))
	for _, card := range cards {
		counts[card.Last4]++
	}
	return counts
}

// CanMatchByLast4Only is the shared ambiguity guard: evidence without a
// usable brand may be attributed to a card through its last-4 alone only
// when no sibling card on the same profile shares that last-4. Both source
// queries consult this one predicate so the guard cannot drift between
// them.
func CanMatchByLast4Only(card *models.LinkedCard, last4Counts map[string]int) bool {
	return last4Counts[card.Last4] == 1
}
