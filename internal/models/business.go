package models

// LoyaltySettings configures how a business issues and redeems points.
type LoyaltySettings struct {
	PointsPerVisit       int     `json:"points_per_visit"`
	RedemptionThreshold  int     `json:"redemption_threshold"`
	RewardValue          float64 `json:"reward_value"`
	MaxRedemptionsPerDay int     `json:"max_redemptions_per_day"`
}

// Business represents a participating merchant account.
type Business struct {
	BaseModel
	Name         string `json:"name"`
	Email        string `gorm:"uniqueIndex" json:"email"`
	Phone        string `json:"phone"`
	PasswordHash string `json:"-"`

	LoyaltySettings LoyaltySettings `gorm:"embedded;embeddedPrefix:loyalty_" json:"loyalty_settings"`

	// Cached statistics recomputed from visit/redemption rows.
	// Dashboard data only, never consulted for eligibility.
	TotalCustomers    int64 `json:"total_customers"`
	TotalVisits       int64 `json:"total_visits"`
	TotalPointsIssued int64 `json:"total_points_issued"`
	TotalRedemptions  int64 `json:"total_redemptions"`
}
