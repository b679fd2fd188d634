package models

import (
	"time"

	"github.com/google/uuid"
)

// Visit is an immutable point-issuance fact. PointsEarned is computed
// once at creation from the business loyalty settings and never changes.
type Visit struct {
	BaseModel
	CustomerID uuid.UUID `gorm:"type:uuid;index" json:"customer_id"`
	BusinessID uuid.UUID `gorm:"type:uuid;index" json:"business_id"`
	Customer   *Customer `json:"customer,omitempty"`
	Business   *Business `json:"business,omitempty"`

	VisitDate        time.Time `json:"visit_date"`
	PointsEarned     int       `json:"points_earned"`
	PointsMultiplier float64   `json:"points_multiplier"`
	ServiceType      string    `json:"service_type"`
	Amount           float64   `json:"amount"`
}
