package translit

import "testing"

func TestToLatin(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"basic name", "иван петров", "ivan petrov"},
		{"digraphs", "жанна щукина", "zhanna shchukina"},
		{"kh and ts", "михаил цветков", "mikhail tsvetkov"},
		{"soft and hard signs dropped", "подъезд ольга", "podezd olga"},
		{"belarusian letters", "аляксандр іваноў", "alyaksandr ivanou"},
		{"latin passes through", "ivan petrov", "ivan petrov"},
		{"mixed scripts", "иvан", "ivan"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToLatin(tt.input); got != tt.expected {
				t.Errorf("ToLatin(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestToCyrillic(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"basic name", "ivan petrov", "иван петров"},
		{"zh digraph", "zhanna", "жанна"},
		{"shch before sh", "shchukina", "щукина"},
		{"sch variant", "schukina", "щукина"},
		{"kh digraph", "mikhail", "михаил"},
		{"x expands", "max", "макс"},
		{"cyrillic passes through", "иван", "иван"},
		{"spaces kept", "anna maria", "анна мариа"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToCyrillic(tt.input); got != tt.expected {
				t.Errorf("ToCyrillic(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRoundTripComparable(t *testing.T) {
	// Round-trips are lossy, but a name transliterated to Latin and back
	// must still land on the same Cyrillic form both ways for the common
	// letters the matcher relies on
	cyr := "иван петров"
	lat := ToLatin(cyr)
	back := ToCyrillic(lat)
	if back != cyr {
		t.Errorf("round trip %q -> %q -> %q, want %q", cyr, lat, back, cyr)
	}
}
