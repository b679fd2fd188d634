package models

import (
	"time"
)

// Customer is identified by its normalized phone number.
type Customer struct {
	BaseModel
	Phone      string `gorm:"uniqueIndex" json:"phone"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	IsVerified bool   `json:"is_verified"`

	// Volatile OTP sub-record, written and cleared as a unit.
	OTPCode      *string    `json:"-"`
	OTPExpiresAt *time.Time `json:"-"`
	OTPAttempts  int        `json:"-"`

	// Cached statistics recomputed from visit/redemption rows.
	// Dashboard data only, never consulted for eligibility.
	TotalVisits       int64 `json:"total_visits"`
	TotalPointsEarned int64 `json:"total_points_earned"`
	TotalRedemptions  int64 `json:"total_redemptions"`
}
