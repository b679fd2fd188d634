package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePunctuationVariants(t *testing.T) {
	variants := []string{
		"(555) 123-4567",
		"555-123-4567",
		"5551234567",
		"555 123 4567",
	}

	for _, raw := range variants {
		result := Normalize(raw)
		require.True(t, result.IsValid, "expected %q to be valid", raw)
		assert.Equal(t, "+15551234567", result.Normalized, "input %q", raw)
		assert.Equal(t, "US", result.CountryCode)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"5551234567",
		"+15551234567",
		"15551234567",
		"+442071838750",
		"+254712345678",
	}

	for _, raw := range inputs {
		first := Normalize(raw)
		require.True(t, first.IsValid)
		second := Normalize(first.Normalized)
		require.True(t, second.IsValid)
		assert.Equal(t, first.Normalized, second.Normalized, "input %q", raw)
	}
}

func TestNormalizeElevenDigitUS(t *testing.T) {
	result := Normalize("15551234567")
	require.True(t, result.IsValid)
	assert.Equal(t, "+15551234567", result.Normalized)
}

func TestNormalizeFormatted(t *testing.T) {
	result := Normalize("5551234567")
	require.True(t, result.IsValid)
	assert.Equal(t, "+1 (555) 123-4567", result.Formatted)

	// Re-normalizing the formatted form round-trips.
	again := Normalize(result.Formatted)
	assert.Equal(t, result.Normalized, again.Normalized)
}

func TestNormalizeCountryCodes(t *testing.T) {
	cases := map[string]string{
		"+15551234567":   "US",
		"+442071838750":  "UK",
		"+919876543210":  "IN",
		"+8613912345678": "CN",
		"+33123456789":   "FR",
		"+4915123456789": "DE",
		"+819012345678":  "JP",
		"+821012345678":  "KR",
		"+61412345678":   "AU",
		"+5511912345678": "BR",
		"+254712345678":  "KE",
		"+2348012345678": "NG",
		"+27821234567":   "ZA",
		"+998901234567":  "UNKNOWN",
	}

	for raw, want := range cases {
		result := Normalize(raw)
		require.True(t, result.IsValid, "input %q", raw)
		assert.Equal(t, want, result.CountryCode, "input %q", raw)
	}
}

func TestNormalizeInvalid(t *testing.T) {
	for _, raw := range []string{"", "12345", "not a phone", "555-1234"} {
		result := Normalize(raw)
		assert.False(t, result.IsValid, "input %q", raw)
		assert.Empty(t, result.Normalized)
		assert.Equal(t, "UNKNOWN", result.CountryCode)
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("(555) 123-4567", "5551234567"))
	assert.True(t, Equal("+15551234567", "1 555 123 4567"))
	assert.False(t, Equal("5551234567", "5551234568"))

	// Normalization failure never equals anything, including itself.
	assert.False(t, Equal("garbage", "garbage"))
	assert.False(t, Equal("", "5551234567"))
}
