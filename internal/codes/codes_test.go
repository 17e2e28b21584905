package codes_test

import (
	"testing"

	"samplesort/internal/codes"
	"samplesort/internal/config"
)

func TestDefaultRules(t *testing.T) {
	cfg := config.Default()
	v, err := codes.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	tests := []struct {
		code string
		want bool
	}{
		{"LAB-7", true},
		{" LAB-7 ", true},
		{"AB12345", true},
		{"KIT-04-0012", true},
		{"", false},
		{"   ", false},
		{"lab-7", false},
		{"red bottle", false},
		{"LAB-", false},
	}
	for _, tc := range tests {
		if got := v.Valid(tc.code); got != tc.want {
			t.Fatalf("Valid(%q) = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestCustomRules(t *testing.T) {
	v, err := codes.NewValidator([]string{`^S[0-9]{3}$`, ""})
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	if !v.Valid("S123") || v.Valid("LAB-7") {
		t.Fatal("unexpected validation result for custom rules")
	}
}

func TestInvalidPattern(t *testing.T) {
	if _, err := codes.NewValidator([]string{"(["}); err == nil {
		t.Fatal("expected compile error")
	}
}

func TestNormalize(t *testing.T) {
	if got := codes.Normalize("  KIT   04 "); got != "KIT 04" {
		t.Fatalf("Normalize = %q", got)
	}
}

func TestNilValidatorRejects(t *testing.T) {
	var v *codes.Validator
	if v.Valid("LAB-7") {
		t.Fatal("nil validator should reject")
	}
}
