package normalize

import "testing"

func TestPhone(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"formatted international", "+375 (29) 123-45-67", "375291234567"},
		{"already canonical", "375291234567", "375291234567"},
		{"national with leading 80", "80291234567", "375291234567"},
		{"legacy 8 prefix rewritten to 7", "89161234567", "79161234567"},
		{"nine digit mobile 29", "291234567", "375291234567"},
		{"nine digit mobile 33", "331234567", "375331234567"},
		{"nine digit mobile 44", "441234567", "375441234567"},
		{"nine digit mobile 25", "251234567", "375251234567"},
		{"nine digit non-mobile prefix kept", "171234567", "171234567"},
		{"short number kept as digits", "12345", "12345"},
		{"letters stripped", "tel: 375-29-123-45-67", "375291234567"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Phone(tt.input); got != tt.expected {
				t.Errorf("Phone(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestPhoneIdempotent(t *testing.T) {
	inputs := []string{
		"+375 (29) 123-45-67",
		"80291234567",
		"89161234567",
		"291234567",
		"12345",
	}

	for _, input := range inputs {
		once := Phone(input)
		twice := Phone(once)
		if once != twice {
			t.Errorf("Phone not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestPhoneEquivalentFormats(t *testing.T) {
	// The same subscriber written three different ways must canonicalize
	// to one index key
	forms := []string{"+375291234567", "80291234567", "291234567"}
	expected := "375291234567"

	for _, form := range forms {
		if got := Phone(form); got != expected {
			t.Errorf("Phone(%q) = %q, want %q", form, got, expected)
		}
	}
}

func TestIsIndexablePhone(t *testing.T) {
	tests := []struct {
		canonical string
		expected  bool
	}{
		{"375291234567", true},
		{"171234567", true},
		{"12345678", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsIndexablePhone(tt.canonical); got != tt.expected {
			t.Errorf("IsIndexablePhone(%q) = %v, want %v", tt.canonical, got, tt.expected)
		}
	}
}

func TestEmail(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"A@B.com", "a@b.com"},
		{"  User@Example.COM  ", "user@example.com"},
		{"", ""},
		{"already@lower.case", "already@lower.case"},
	}

	for _, tt := range tests {
		if got := Email(tt.input); got != tt.expected {
			t.Errorf("Email(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestHandle(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"@IvanPetrov", "ivanpetrov"},
		{"ivanpetrov", "ivanpetrov"},
		{"  @Some_User  ", "some_user"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Handle(tt.input); got != tt.expected {
			t.Errorf("Handle(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "Ivan Petrov", "ivan petrov"},
		{"whitespace collapsed", "  Ivan   Petrov  ", "ivan petrov"},
		{"punctuation stripped", "O'Brien, John-Paul", "obrien johnpaul"},
		{"diacritics folded", "José Gärcia", "jose garcia"},
		{"cyrillic preserved", "Иван Петров", "иван петров"},
		{"digits stripped", "Ivan Petrov 2", "ivan petrov"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Name(tt.input); got != tt.expected {
				t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNameIdempotent(t *testing.T) {
	inputs := []string{"José Gärcia", "Иван Петров", "O'Brien, John-Paul"}

	for _, input := range inputs {
		once := Name(input)
		twice := Name(once)
		if once != twice {
			t.Errorf("Name not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}
