package models

import (
	"time"

	"github.com/google/uuid"
)

// Redemption status values. Used, expired and cancelled are terminal.
const (
	RedemptionStatusPending   = "pending"
	RedemptionStatusConfirmed = "confirmed"
	RedemptionStatusUsed      = "used"
	RedemptionStatusExpired   = "expired"
	RedemptionStatusCancelled = "cancelled"
)

// PointHoldingStatuses are the redemption states that still hold points
// against the customer's balance. Cancelled and expired redemptions
// release their points.
var PointHoldingStatuses = []string{
	RedemptionStatusPending,
	RedemptionStatusConfirmed,
	RedemptionStatusUsed,
}

// Redemption joins a customer, business and reward at a point in time.
type Redemption struct {
	BaseModel
	CustomerID uuid.UUID `gorm:"type:uuid;index" json:"customer_id"`
	BusinessID uuid.UUID `gorm:"type:uuid;index" json:"business_id"`
	RewardID   uuid.UUID `gorm:"type:uuid;index" json:"reward_id"`
	Customer   *Customer `json:"customer,omitempty"`
	Reward     *Reward   `json:"reward,omitempty"`

	PointsUsed int    `json:"points_used"`
	Status     string `json:"status"`

	// Assigned exactly once at creation, never regenerated.
	RedemptionCode string `gorm:"uniqueIndex" json:"redemption_code"`

	ExpiresAt         time.Time  `json:"expires_at"`
	UsedAt            *time.Time `json:"used_at"`
	UsedBy            *uuid.UUID `gorm:"type:uuid" json:"used_by"`
	TransactionAmount *float64   `json:"transaction_amount"`
	DiscountApplied   *float64   `json:"discount_applied"`
}

// Redeemable reports whether the redemption can still be marked used:
// confirmed, unexpired and not yet consumed.
func (r *Redemption) Redeemable(now time.Time) bool {
	return r.Status == RedemptionStatusConfirmed && r.ExpiresAt.After(now) && r.UsedAt == nil
}
