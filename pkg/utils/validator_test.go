package utils

import "testing"

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		valid bool
	}{
		{"user@example.com", true},
		{"first.last+tag@sub.example.co", true},
		{"USER@EXAMPLE.COM", true},
		{"", false},
		{"not-an-email", false},
		{"missing@domain", false},
		{"@example.com", false},
		{"user@.com", false},
		{"user @example.com", false},
	}

	for _, tt := range tests {
		if got := IsValidEmail(tt.email); got != tt.valid {
			t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.valid)
		}
	}
}

func TestIsValidLoginCode(t *testing.T) {
	tests := []struct {
		code  string
		valid bool
	}{
		{"123456", true},
		{"000000", true},
		{"12345", false},
		{"1234567", false},
		{"12345a", false},
		{"", false},
		{" 123456", false},
	}

	for _, tt := range tests {
		if got := IsValidLoginCode(tt.code); got != tt.valid {
			t.Errorf("IsValidLoginCode(%q) = %v, want %v", tt.code, got, tt.valid)
		}
	}
}
