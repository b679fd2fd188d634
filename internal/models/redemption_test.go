package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRedeemable(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	base := Redemption{
		Status:    RedemptionStatusConfirmed,
		ExpiresAt: future,
	}
	assert.True(t, base.Redeemable(now))

	expired := base
	expired.ExpiresAt = past
	assert.False(t, expired.Redeemable(now))

	used := base
	usedAt := now
	used.Status = RedemptionStatusUsed
	used.UsedAt = &usedAt
	assert.False(t, used.Redeemable(now))

	consumedButConfirmed := base
	consumedButConfirmed.UsedAt = &usedAt
	assert.False(t, consumedButConfirmed.Redeemable(now))

	for _, status := range []string{
		RedemptionStatusPending,
		RedemptionStatusExpired,
		RedemptionStatusCancelled,
	} {
		other := base
		other.Status = status
		assert.False(t, other.Redeemable(now), "status %s", status)
	}
}

func TestPointHoldingStatuses(t *testing.T) {
	assert.ElementsMatch(t,
		[]string{RedemptionStatusPending, RedemptionStatusConfirmed, RedemptionStatusUsed},
		PointHoldingStatuses)
	assert.NotContains(t, PointHoldingStatuses, RedemptionStatusExpired)
	assert.NotContains(t, PointHoldingStatuses, RedemptionStatusCancelled)
}
