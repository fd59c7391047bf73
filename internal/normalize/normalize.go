// Package normalize canonicalizes identity values (phone numbers, emails,
// free-text names, messaging handles) into the comparable forms used as
// identity index keys. All functions are pure and idempotent: applying a
// normalizer twice yields the same result as applying it once.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MinPhoneDigits is the minimum canonical length for an indexable phone
// number. Shorter numbers are treated as invalid and excluded from indexing.
const MinPhoneDigits = 9

// belarusMobilePrefixes are 9-digit national numbers that get the 375
// country code prefixed.
var belarusMobilePrefixes = []string{"29", "33", "44", "25"}

// Phone canonicalizes a raw phone number to a pure digit string:
//   - strips every character that is not a digit
//   - rewrites an 11-digit "80"-trunk number with a known mobile prefix to
//     the "375" country-code form
//   - rewrites the remaining legacy 11-digit "8"-prefixed numbers to the "7"
//     country code
//   - prefixes "375" to 9-digit numbers starting with a known mobile prefix
func Phone(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if len(digits) == 11 && digits[0] == '8' {
		if strings.HasPrefix(digits, "80") && hasMobilePrefix(digits[2:]) {
			digits = "375" + digits[2:]
		} else {
			digits = "7" + digits[1:]
		}
	}

	if len(digits) == 9 && hasMobilePrefix(digits) {
		digits = "375" + digits
	}

	return digits
}

func hasMobilePrefix(digits string) bool {
	for _, prefix := range belarusMobilePrefixes {
		if strings.HasPrefix(digits, prefix) {
			return true
		}
	}
	return false
}

// IsIndexablePhone reports whether a canonical phone number is long enough
// to be used as an index key.
func IsIndexablePhone(canonical string) bool {
	return len(canonical) >= MinPhoneDigits
}

// Email canonicalizes a raw email address. Empty input yields an empty
// string, never an error.
func Email(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Handle canonicalizes a messaging handle: lowercase, trimmed, without a
// leading "@".
func Handle(raw string) string {
	h := strings.ToLower(strings.TrimSpace(raw))
	return strings.TrimPrefix(h, "@")
}

// diacriticStripper removes combining marks after NFD decomposition, so
// accented letters compare equal to their base form.
var diacriticStripper = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Name canonicalizes a free-text person name for exact-name index keys:
// folds diacritics, lowercases, strips every character that is not a letter
// (any script) or whitespace, and collapses whitespace runs. Fuzzy scoring
// uses its own tokenization; this form is only for exact comparison.
func Name(raw string) string {
	folded, _, err := transform.String(diacriticStripper, raw)
	if err != nil {
		folded = raw
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
