package loyalty

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/loyalty/internal/models"
)

func newTestEngine() *OTPEngine {
	return NewOTPEngine(6, 5*time.Minute, 3, 60*time.Second)
}

// wrongCodeFor picks an input guaranteed not to match the stored code.
func wrongCodeFor(code string) string {
	if code == "000000" {
		return "000001"
	}
	return "000000"
}

func TestGenerateProducesZeroPaddedCode(t *testing.T) {
	engine := newTestEngine()
	customer := &models.Customer{}
	now := time.Now()

	code, err := engine.Generate(customer, now)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), code)

	require.NotNil(t, customer.OTPCode)
	assert.Equal(t, code, *customer.OTPCode)
	require.NotNil(t, customer.OTPExpiresAt)
	assert.Equal(t, now.Add(5*time.Minute), *customer.OTPExpiresAt)
	assert.Equal(t, 0, customer.OTPAttempts)
}

func TestGenerateOverwritesPriorCode(t *testing.T) {
	engine := newTestEngine()
	customer := &models.Customer{}
	now := time.Now()

	_, err := engine.Generate(customer, now)
	require.NoError(t, err)
	customer.OTPAttempts = 2

	later := now.Add(2 * time.Minute)
	code, err := engine.Generate(customer, later)
	require.NoError(t, err)

	assert.Equal(t, code, *customer.OTPCode)
	assert.Equal(t, later.Add(5*time.Minute), *customer.OTPExpiresAt)
	assert.Equal(t, 0, customer.OTPAttempts)
}

func TestVerifyNoCode(t *testing.T) {
	engine := newTestEngine()
	customer := &models.Customer{}

	err := engine.Verify(customer, "123456", time.Now())
	assert.ErrorIs(t, err, ErrNoOTP)
}

func TestVerifyExpired(t *testing.T) {
	engine := newTestEngine()
	customer := &models.Customer{}
	now := time.Now()

	code, err := engine.Generate(customer, now)
	require.NoError(t, err)

	err = engine.Verify(customer, code, now.Add(5*time.Minute+time.Second))
	assert.ErrorIs(t, err, ErrOTPExpired)
}

func TestVerifyWrongCodeAdvancesAttempts(t *testing.T) {
	engine := newTestEngine()
	customer := &models.Customer{}
	now := time.Now()

	code, err := engine.Generate(customer, now)
	require.NoError(t, err)

	err = engine.Verify(customer, wrongCodeFor(code), now)
	assert.ErrorIs(t, err, ErrInvalidOTP)
	assert.Equal(t, 1, customer.OTPAttempts)
	assert.NotNil(t, customer.OTPCode, "failed attempt must not clear the code")
}

func TestVerifyLockoutBeatsCorrectCode(t *testing.T) {
	engine := newTestEngine()
	customer := &models.Customer{}
	now := time.Now()

	code, err := engine.Generate(customer, now)
	require.NoError(t, err)

	wrong := wrongCodeFor(code)
	for i := 0; i < 3; i++ {
		err := engine.Verify(customer, wrong, now)
		assert.ErrorIs(t, err, ErrInvalidOTP)
	}
	assert.Equal(t, 3, customer.OTPAttempts)

	// The attempt cap is checked before the comparison.
	err = engine.Verify(customer, code, now)
	assert.ErrorIs(t, err, ErrTooManyAttempts)
	assert.False(t, customer.IsVerified)
}

func TestVerifySuccessClearsState(t *testing.T) {
	engine := newTestEngine()
	customer := &models.Customer{}
	now := time.Now()

	code, err := engine.Generate(customer, now)
	require.NoError(t, err)

	err = engine.Verify(customer, wrongCodeFor(code), now)
	require.ErrorIs(t, err, ErrInvalidOTP)

	err = engine.Verify(customer, code, now.Add(time.Minute))
	require.NoError(t, err)

	assert.Nil(t, customer.OTPCode)
	assert.Nil(t, customer.OTPExpiresAt)
	assert.Equal(t, 0, customer.OTPAttempts)
	assert.True(t, customer.IsVerified)
}

func TestCheckResendCooldown(t *testing.T) {
	engine := newTestEngine()
	customer := &models.Customer{}
	now := time.Now()

	// Nothing on record: no cooldown.
	require.NoError(t, engine.CheckResend(customer, now))

	_, err := engine.Generate(customer, now)
	require.NoError(t, err)

	err = engine.CheckResend(customer, now.Add(30*time.Second))
	var limited *RateLimitedError
	require.ErrorAs(t, err, &limited)
	assert.Equal(t, 30*time.Second, limited.RetryAfter)
	assert.Contains(t, limited.Error(), "30 seconds")

	assert.NoError(t, engine.CheckResend(customer, now.Add(61*time.Second)))
}

func TestEngineDefaults(t *testing.T) {
	engine := NewOTPEngine(0, 0, 0, 0)
	assert.Equal(t, 6, engine.Digits)
	assert.Equal(t, 5*time.Minute, engine.TTL)
	assert.Equal(t, 3, engine.MaxAttempts)
	assert.Equal(t, 60*time.Second, engine.ResendCooldown)
}
