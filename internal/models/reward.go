package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Reward is a business-owned offer that customers redeem points for.
type Reward struct {
	BaseModel
	BusinessID uuid.UUID `gorm:"type:uuid;index" json:"business_id"`
	Business   *Business `json:"business,omitempty"`

	Name           string  `json:"name"`
	Description    string  `json:"description"`
	PointsRequired int     `json:"points_required"`
	RewardType     string  `json:"reward_type"`
	RewardValue    float64 `json:"reward_value"`
	IsActive       bool    `json:"is_active"`

	MaxRedemptionsPerCustomer *int       `json:"max_redemptions_per_customer"`
	MaxTotalRedemptions       *int       `json:"max_total_redemptions"`
	ValidFrom                 *time.Time `json:"valid_from"`
	ValidUntil                *time.Time `json:"valid_until"`

	// Lowercase weekday names; empty means every day.
	AvailableDays      pq.StringArray `gorm:"type:text[]" json:"available_days"`
	AvailableTimeStart string         `json:"available_time_start"`
	AvailableTimeEnd   string         `json:"available_time_end"`

	MinimumPurchase float64 `json:"minimum_purchase"`

	// Cached count, incremented exactly once per created redemption
	// inside the redemption-create transaction. It feeds the
	// max-total-redemptions cap, so it must move with the insert.
	TotalRedemptions int `json:"total_redemptions"`
}
