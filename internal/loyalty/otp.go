package loyalty

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/example/loyalty/internal/models"
)

// OTP verification failures.
var (
	ErrNoOTP           = errors.New("no verification code on record")
	ErrOTPExpired      = errors.New("verification code expired")
	ErrTooManyAttempts = errors.New("too many verification attempts")
	ErrInvalidOTP      = errors.New("invalid verification code")
)

// RateLimitedError reports how long the caller must wait before
// requesting another code.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("please wait %d seconds before requesting a new code", int(e.RetryAfter.Seconds()))
}

// OTPEngine generates and verifies one-time codes stored on the
// customer record. The engine only mutates the record in memory; the
// caller persists it, including the advanced attempt counter after a
// failed verify.
type OTPEngine struct {
	Digits         int
	TTL            time.Duration
	MaxAttempts    int
	ResendCooldown time.Duration
}

// NewOTPEngine constructs an engine; zero values fall back to 6 digits,
// 5 minutes, 3 attempts and a 60 second resend cooldown.
func NewOTPEngine(digits int, ttl time.Duration, maxAttempts int, cooldown time.Duration) *OTPEngine {
	e := &OTPEngine{Digits: digits, TTL: ttl, MaxAttempts: maxAttempts, ResendCooldown: cooldown}
	if e.Digits <= 0 {
		e.Digits = 6
	}
	if e.TTL <= 0 {
		e.TTL = 5 * time.Minute
	}
	if e.MaxAttempts <= 0 {
		e.MaxAttempts = 3
	}
	if e.ResendCooldown <= 0 {
		e.ResendCooldown = 60 * time.Second
	}
	return e
}

// Generate issues a fresh code, unconditionally replacing any prior
// sub-record.
func (e *OTPEngine) Generate(c *models.Customer, now time.Time) (string, error) {
	code, err := numericCode(e.Digits)
	if err != nil {
		return "", err
	}

	expires := now.Add(e.TTL)
	c.OTPCode = &code
	c.OTPExpiresAt = &expires
	c.OTPAttempts = 0
	return code, nil
}

// CheckResend enforces the cooldown between consecutive codes. The
// issuance instant is derived from the stored expiry.
func (e *OTPEngine) CheckResend(c *models.Customer, now time.Time) error {
	if c.OTPCode == nil || c.OTPExpiresAt == nil {
		return nil
	}

	issuedAt := c.OTPExpiresAt.Add(-e.TTL)
	elapsed := now.Sub(issuedAt)
	if elapsed < e.ResendCooldown {
		return &RateLimitedError{RetryAfter: e.ResendCooldown - elapsed}
	}
	return nil
}

// Verify checks input against the stored code. The attempt cap is
// checked before the comparison, so a locked-out customer fails even
// with the right code. Success clears the sub-record and marks the
// customer verified.
func (e *OTPEngine) Verify(c *models.Customer, input string, now time.Time) error {
	if c.OTPCode == nil || c.OTPExpiresAt == nil {
		return ErrNoOTP
	}
	if now.After(*c.OTPExpiresAt) {
		return ErrOTPExpired
	}
	if c.OTPAttempts >= e.MaxAttempts {
		return ErrTooManyAttempts
	}
	if *c.OTPCode != input {
		c.OTPAttempts++
		return ErrInvalidOTP
	}

	c.OTPCode = nil
	c.OTPExpiresAt = nil
	c.OTPAttempts = 0
	c.IsVerified = true
	return nil
}

func numericCode(digits int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}
