package loyalty

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNewRedemptionCodeShape(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-Z0-9]{8}$`)
	for i := 0; i < 100; i++ {
		code, err := NewRedemptionCode(8)
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
	}
}

func TestNewRedemptionCodeLength(t *testing.T) {
	for _, length := range []int{4, 8, 12} {
		code, err := NewRedemptionCode(length)
		require.NoError(t, err)
		assert.Len(t, code, length)
	}
}

func TestNewRedemptionCodeUniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		code, err := NewRedemptionCode(8)
		require.NoError(t, err)
		_, dup := seen[code]
		require.False(t, dup, "duplicate code %q after %d draws", code, i)
		seen[code] = struct{}{}
	}
}

func TestInsertWithUniqueCodeRetriesOnCollision(t *testing.T) {
	calls := 0
	code, err := InsertWithUniqueCode(8, 5, func(code string) error {
		calls++
		if calls <= 2 {
			return fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, code, 8)
}

func TestInsertWithUniqueCodeExhaustsRetries(t *testing.T) {
	calls := 0
	_, err := InsertWithUniqueCode(8, 4, func(code string) error {
		calls++
		return gorm.ErrDuplicatedKey
	})

	require.Error(t, err)
	assert.NotErrorIs(t, err, gorm.ErrDuplicatedKey, "exhaustion must not look like a plain conflict")
	assert.Equal(t, 5, calls)
	assert.True(t, strings.Contains(err.Error(), "unique redemption code"))
}

func TestInsertWithUniqueCodeStopsOnOtherErrors(t *testing.T) {
	boom := errors.New("connection reset")
	calls := 0
	_, err := InsertWithUniqueCode(8, 5, func(code string) error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}
