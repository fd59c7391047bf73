// Package translit rewrites person names between Latin and Cyrillic scripts
// so names entered in either script can be compared. Round-trips are lossy;
// the fuzzy matcher scores both directions and takes the better one.
package translit

import (
	"strings"
	"unicode/utf8"
)

var cyrillicToLatin = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d",
	'е': "e", 'ё': "yo", 'ж': "zh", 'з': "z", 'и': "i",
	'й': "y", 'к': "k", 'л': "l", 'м': "m", 'н': "n",
	'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t",
	'у': "u", 'ф': "f", 'х': "kh", 'ц': "ts", 'ч': "ch",
	'ш': "sh", 'щ': "shch", 'ъ': "", 'ы': "y", 'ь': "",
	'э': "e", 'ю': "yu", 'я': "ya",
	// Belarusian and Ukrainian letters seen in member names
	'і': "i", 'ў': "u", 'ґ': "g", 'є': "ye", 'ї': "yi",
}

// latinSequences are matched longest-first before single letters
var latinSequences = []struct {
	seq string
	out string
}{
	{"shch", "щ"},
	{"sch", "щ"},
	{"zh", "ж"},
	{"kh", "х"},
	{"ts", "ц"},
	{"ch", "ч"},
	{"sh", "ш"},
	{"yo", "ё"},
	{"yu", "ю"},
	{"ya", "я"},
	{"ye", "е"},
	{"x", "кс"},
}

var latinToCyrillic = map[byte]string{
	'a': "а", 'b': "б", 'c': "к", 'd': "д", 'e': "е",
	'f': "ф", 'g': "г", 'h': "х", 'i': "и", 'j': "й",
	'k': "к", 'l': "л", 'm': "м", 'n': "н", 'o': "о",
	'p': "п", 'q': "к", 'r': "р", 's': "с", 't': "т",
	'u': "у", 'v': "в", 'w': "в", 'y': "й", 'z': "з",
}

// ToLatin rewrites Cyrillic letters in s to their Latin transliteration.
// Characters outside the table pass through unchanged. Input is expected to
// be lowercase.
func ToLatin(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if lat, ok := cyrillicToLatin[r]; ok {
			b.WriteString(lat)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ToCyrillic rewrites Latin letters in s to their Cyrillic transliteration,
// consuming multi-letter sequences (zh, shch, ...) before single letters.
// Characters outside the table pass through unchanged. Input is expected to
// be lowercase.
func ToCyrillic(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	i := 0
	for i < len(s) {
		if s[i] >= 0x80 {
			// Non-ASCII rune (already Cyrillic or other): pass through whole
			r, size := utf8.DecodeRuneInString(s[i:])
			b.WriteRune(r)
			i += size
			continue
		}

		matched := false
		for _, entry := range latinSequences {
			if strings.HasPrefix(s[i:], entry.seq) {
				b.WriteString(entry.out)
				i += len(entry.seq)
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		if cyr, ok := latinToCyrillic[s[i]]; ok {
			b.WriteString(cyr)
		} else {
			b.WriteByte(s[i])
		}
		i++
	}

	return b.String()
}
