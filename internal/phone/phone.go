package phone

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Result holds the outcome of normalizing a raw phone number. The
// Normalized form is the system-wide customer identity key.
type Result struct {
	IsValid     bool   `json:"is_valid"`
	Normalized  string `json:"normalized"`
	Formatted   string `json:"formatted"`
	CountryCode string `json:"country_code"`
}

// Generic international shape: optional +, at least 10 digits once
// punctuation is stripped.
var validPattern = regexp.MustCompile(`^\+?[0-9][0-9 \-()]{9,}$`)

var dialingCodes = map[string]string{
	"+1":   "US",
	"+44":  "UK",
	"+91":  "IN",
	"+86":  "CN",
	"+33":  "FR",
	"+49":  "DE",
	"+81":  "JP",
	"+82":  "KR",
	"+61":  "AU",
	"+55":  "BR",
	"+254": "KE",
	"+234": "NG",
	"+27":  "ZA",
}

// prefixes holds the dialing codes longest-first so prefix matching is
// unambiguous (+254 wins over +2...).
var prefixes = sortedPrefixes()

func sortedPrefixes() []string {
	out := make([]string, 0, len(dialingCodes))
	for p := range dialingCodes {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}

// Normalize canonicalizes a raw phone number. Bare 10-digit numbers
// are treated as US/Canada; an 11-digit number starting with 1 gets a
// plus; anything longer is assumed to already carry a country code.
func Normalize(raw string) Result {
	cleaned := clean(raw)
	if !validPattern.MatchString(cleaned) {
		return Result{CountryCode: "UNKNOWN"}
	}

	normalized := cleaned
	if !strings.HasPrefix(normalized, "+") {
		digits := normalized
		switch {
		case len(digits) == 11 && digits[0] == '1':
			normalized = "+" + digits
		case len(digits) == 10:
			normalized = "+1" + digits
		case len(digits) > 10:
			normalized = "+" + digits
		}
	}

	return Result{
		IsValid:     true,
		Normalized:  normalized,
		Formatted:   format(normalized),
		CountryCode: countryFor(normalized),
	}
}

// Equal reports whether two raw inputs identify the same number. A
// number that fails normalization never equals anything.
func Equal(a, b string) bool {
	ra, rb := Normalize(a), Normalize(b)
	if !ra.IsValid || !rb.IsValid {
		return false
	}
	return ra.Normalized == rb.Normalized
}

// clean strips everything except digits and a leading plus.
func clean(raw string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && b.Len() == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func countryFor(normalized string) string {
	for _, p := range prefixes {
		if strings.HasPrefix(normalized, p) {
			return dialingCodes[p]
		}
	}
	return "UNKNOWN"
}

func format(normalized string) string {
	if strings.HasPrefix(normalized, "+1") && len(normalized) == 12 {
		d := normalized[2:]
		return fmt.Sprintf("+1 (%s) %s-%s", d[0:3], d[3:6], d[6:])
	}
	return normalized
}
