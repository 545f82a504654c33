package validator

import "testing"

func TestValidDisplayName(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		valid bool
	}{
		{"minimum length", "abc", true},
		{"with digits and underscore", "user_01", true},
		{"maximum length", "abcdefghij0123456789", true},
		{"too short", "ab", false},
		{"too long", "abcdefghij0123456789x", false},
		{"spaces", "has spaces", false},
		{"hyphen", "has-hyphen", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidDisplayName(tt.in); got != tt.valid {
				t.Errorf("ValidDisplayName(%q) = %v, want %v", tt.in, got, tt.valid)
			}
		})
	}
}

func TestValidEmail(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		valid bool
	}{
		{"plain address", "foo@bar.com", true},
		{"subdomain", "a@mail.example.org", true},
		{"two-char tld", "x@y.io", true},
		{"no tld", "foo@bar", false},
		{"one-char tld", "foo@bar.c", false},
		{"missing local part", "@bar.com", false},
		{"missing domain", "foo@", false},
		{"embedded space", "foo @bar.com", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidEmail(tt.in); got != tt.valid {
				t.Errorf("ValidEmail(%q) = %v, want %v", tt.in, got, tt.valid)
			}
		})
	}
}

func TestValidCategoryName(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		valid bool
	}{
		{"two characters", "ab", true},
		{"typical name", "Groceries", true},
		{"trims before measuring", "  ab  ", true},
		{"twenty characters", "abcdefghijklmnopqrst", true},
		{"one character", "a", false},
		{"whitespace only", "   ", false},
		{"twenty-one characters", "abcdefghijklmnopqrstu", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidCategoryName(tt.in); got != tt.valid {
				t.Errorf("ValidCategoryName(%q) = %v, want %v", tt.in, got, tt.valid)
			}
		})
	}
}
