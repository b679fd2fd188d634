package services

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/loyalty/internal/models"
)

// BusinessPoints is one row of a customer's cross-business summary.
type BusinessPoints struct {
	BusinessID     uuid.UUID `json:"business_id"`
	BusinessName   string    `json:"business_name"`
	PointsEarned   int64     `json:"points_earned"`
	PointsRedeemed int64     `json:"points_redeemed"`
	Balance        int64     `json:"balance"`
}

// LedgerService derives point balances from the authoritative visit and
// redemption rows. The cached counters on Business/Customer are never
// consulted here.
type LedgerService struct {
	db *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{db: db}
}

// Balance returns the customer's redeemable points at one business:
// points earned across visits minus points held by pending, confirmed
// and used redemptions.
func (s *LedgerService) Balance(customerID, businessID uuid.UUID) (int64, error) {
	return s.BalanceTx(s.db, customerID, businessID)
}

// BalanceTx computes the balance on an existing transaction handle, so
// the redemption-create path can read under its row lock.
func (s *LedgerService) BalanceTx(tx *gorm.DB, customerID, businessID uuid.UUID) (int64, error) {
	var earned int64
	if err := tx.Model(&models.Visit{}).
		Where("customer_id = ? AND business_id = ?", customerID, businessID).
		Select("COALESCE(SUM(points_earned), 0)").
		Scan(&earned).Error; err != nil {
		return 0, err
	}

	var redeemed int64
	if err := tx.Model(&models.Redemption{}).
		Where("customer_id = ? AND business_id = ? AND status IN ?",
			customerID, businessID, models.PointHoldingStatuses).
		Select("COALESCE(SUM(points_used), 0)").
		Scan(&redeemed).Error; err != nil {
		return 0, err
	}

	return earned - redeemed, nil
}

// Summary returns per-business earned/redeemed/balance rows for every
// business the customer has visited.
func (s *LedgerService) Summary(customerID uuid.UUID) ([]BusinessPoints, error) {
	var rows []BusinessPoints
	if err := s.db.Model(&models.Visit{}).
		Select("visits.business_id AS business_id, businesses.name AS business_name, COALESCE(SUM(visits.points_earned), 0) AS points_earned").
		Joins("JOIN businesses ON businesses.id = visits.business_id").
		Where("visits.customer_id = ?", customerID).
		Group("visits.business_id, businesses.name").
		Order("points_earned desc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for i := range rows {
		var redeemed int64
		if err := s.db.Model(&models.Redemption{}).
			Where("customer_id = ? AND business_id = ? AND status IN ?",
				customerID, rows[i].BusinessID, models.PointHoldingStatuses).
			Select("COALESCE(SUM(points_used), 0)").
			Scan(&redeemed).Error; err != nil {
			return nil, err
		}
		rows[i].PointsRedeemed = redeemed
		rows[i].Balance = rows[i].PointsEarned - redeemed
	}

	return rows, nil
}
