package loyalty

import (
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/loyalty/internal/models"
)

func intPtr(v int) *int              { return &v }
func timePtr(v time.Time) *time.Time { return &v }

func activeReward() *models.Reward {
	return &models.Reward{
		Name:           "Free Coffee",
		PointsRequired: 100,
		IsActive:       true,
	}
}

// mustDate builds a UTC instant; 2024-01-01 was a Monday.
func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}

func TestEvaluateActiveReward(t *testing.T) {
	evaluator := NewEvaluator(time.UTC)
	assert.NoError(t, evaluator.Evaluate(activeReward(), 0, time.Now()))
}

func TestEvaluateInactive(t *testing.T) {
	evaluator := NewEvaluator(time.UTC)
	reward := activeReward()
	reward.IsActive = false
	assert.ErrorIs(t, evaluator.Evaluate(reward, 0, time.Now()), ErrRewardInactive)
}

func TestEvaluateValidityWindow(t *testing.T) {
	evaluator := NewEvaluator(time.UTC)
	now := mustDate(t, "2024-06-15T12:00:00Z")

	reward := activeReward()
	reward.ValidFrom = timePtr(now.Add(time.Hour))
	assert.ErrorIs(t, evaluator.Evaluate(reward, 0, now), ErrRewardNotStarted)

	reward = activeReward()
	reward.ValidUntil = timePtr(now.Add(-time.Hour))
	assert.ErrorIs(t, evaluator.Evaluate(reward, 0, now), ErrRewardEnded)

	reward = activeReward()
	reward.ValidFrom = timePtr(now.Add(-time.Hour))
	reward.ValidUntil = timePtr(now.Add(time.Hour))
	assert.NoError(t, evaluator.Evaluate(reward, 0, now))
}

func TestEvaluateTotalRedemptionCap(t *testing.T) {
	evaluator := NewEvaluator(time.UTC)
	reward := activeReward()
	reward.MaxTotalRedemptions = intPtr(5)

	reward.TotalRedemptions = 4
	assert.NoError(t, evaluator.Evaluate(reward, 0, time.Now()))

	reward.TotalRedemptions = 5
	assert.ErrorIs(t, evaluator.Evaluate(reward, 0, time.Now()), ErrRewardExhausted)
}

func TestEvaluatePerCustomerCap(t *testing.T) {
	evaluator := NewEvaluator(time.UTC)
	reward := activeReward()
	reward.MaxRedemptionsPerCustomer = intPtr(2)

	assert.NoError(t, evaluator.Evaluate(reward, 1, time.Now()))
	assert.ErrorIs(t, evaluator.Evaluate(reward, 2, time.Now()), ErrCustomerLimit)
}

func TestEvaluateAvailableDays(t *testing.T) {
	evaluator := NewEvaluator(time.UTC)
	reward := activeReward()
	reward.AvailableDays = pq.StringArray{"monday"}

	monday := mustDate(t, "2024-01-01T12:00:00Z")
	tuesday := mustDate(t, "2024-01-02T12:00:00Z")

	assert.NoError(t, evaluator.Evaluate(reward, 0, monday))
	assert.ErrorIs(t, evaluator.Evaluate(reward, 0, tuesday), ErrDayNotAvailable)

	// Case and whitespace in the stored day names are tolerated.
	reward.AvailableDays = pq.StringArray{" Monday "}
	assert.NoError(t, evaluator.Evaluate(reward, 0, monday))
}

func TestEvaluateWeekdayUsesConfiguredTimezone(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	evaluator := NewEvaluator(tokyo)

	reward := activeReward()
	reward.AvailableDays = pq.StringArray{"tuesday"}

	// Monday 22:00 UTC is already Tuesday in Tokyo.
	mondayEveningUTC := mustDate(t, "2024-01-01T22:00:00Z")
	assert.NoError(t, evaluator.Evaluate(reward, 0, mondayEveningUTC))

	utcEvaluator := NewEvaluator(time.UTC)
	assert.ErrorIs(t, utcEvaluator.Evaluate(reward, 0, mondayEveningUTC), ErrDayNotAvailable)
}

func TestEvaluateTimeOfDayWindow(t *testing.T) {
	evaluator := NewEvaluator(time.UTC)
	reward := activeReward()
	reward.AvailableTimeStart = "09:00"
	reward.AvailableTimeEnd = "17:00"

	assert.ErrorIs(t, evaluator.Evaluate(reward, 0, mustDate(t, "2024-01-01T08:59:00Z")), ErrTimeNotAvailable)
	assert.NoError(t, evaluator.Evaluate(reward, 0, mustDate(t, "2024-01-01T09:00:00Z")))
	assert.NoError(t, evaluator.Evaluate(reward, 0, mustDate(t, "2024-01-01T17:00:00Z")))
	assert.ErrorIs(t, evaluator.Evaluate(reward, 0, mustDate(t, "2024-01-01T17:01:00Z")), ErrTimeNotAvailable)
}

func TestEvaluateCheckOrderShortCircuits(t *testing.T) {
	evaluator := NewEvaluator(time.UTC)
	reward := activeReward()
	reward.IsActive = false
	reward.AvailableDays = pq.StringArray{"monday"}

	// Inactive wins over the day check even on a Tuesday.
	tuesday := mustDate(t, "2024-01-02T12:00:00Z")
	assert.ErrorIs(t, evaluator.Evaluate(reward, 0, tuesday), ErrRewardInactive)
}

func TestValidateTimeWindow(t *testing.T) {
	assert.NoError(t, ValidateTimeWindow("", ""))
	assert.NoError(t, ValidateTimeWindow("09:00", "17:00"))
	assert.NoError(t, ValidateTimeWindow("00:00", "23:59"))

	assert.ErrorIs(t, ValidateTimeWindow("09:00", ""), ErrInvalidTimeRange)
	assert.ErrorIs(t, ValidateTimeWindow("", "17:00"), ErrInvalidTimeRange)
	assert.ErrorIs(t, ValidateTimeWindow("9:00", "17:00"), ErrInvalidTimeRange)
	assert.ErrorIs(t, ValidateTimeWindow("24:00", "25:00"), ErrInvalidTimeRange)
	assert.ErrorIs(t, ValidateTimeWindow("09:60", "17:00"), ErrInvalidTimeRange)
	assert.ErrorIs(t, ValidateTimeWindow("17:00", "09:00"), ErrInvalidTimeRange)
	assert.ErrorIs(t, ValidateTimeWindow("09:00", "09:00"), ErrInvalidTimeRange)
}
