package service_test

import (
	"regexp"
	"testing"

	"github.com/fixmycity/fixmycity/internal/service"
)

var sixDigits = regexp.MustCompile(`^[0-9]{6}$`)

func TestOTPIssuer_IssueFormat(t *testing.T) {
	issuer := service.NewOTPIssuer(false)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := issuer.Issue()
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		if !sixDigits.MatchString(code) {
			t.Fatalf("expected six digit code, got %q", code)
		}
		seen[code] = true
	}

	// 50 draws from a million codes: a handful of repeats at most.
	if len(seen) < 45 {
		t.Fatalf("expected fresh codes per call, got only %d distinct of 50", len(seen))
	}
}

func TestOTPIssuer_Check(t *testing.T) {
	tests := []struct {
		name      string
		demoMode  bool
		submitted string
		expected  string
		want      bool
	}{
		{"exact match", false, "482913", "482913", true},
		{"surrounding whitespace", false, " 482913 ", "482913", true},
		{"mismatch", false, "482914", "482913", false},
		{"empty submission", true, "", "482913", false},
		{"bypass in demo mode", true, service.BypassCode, "482913", true},
		{"bypass without demo mode", false, service.BypassCode, "482913", false},
		{"leading zeros kept", false, "004217", "004217", true},
		{"no expected code", false, "000000", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			issuer := service.NewOTPIssuer(tc.demoMode)
			if got := issuer.Check(tc.submitted, tc.expected); got != tc.want {
				t.Fatalf("Check(%q, %q) = %v, want %v", tc.submitted, tc.expected, got, tc.want)
			}
		})
	}
}
