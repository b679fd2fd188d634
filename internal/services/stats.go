package services

import (
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/loyalty/internal/models"
)

// StatsService recomputes the cached counters on business and customer
// rows from the authoritative visit/redemption tables. The caches feed
// dashboards only, so a failed refresh is logged and swallowed rather
// than failing the request that triggered it.
type StatsService struct {
	db *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

// RefreshBusiness recomputes a business's counters by aggregation.
func (s *StatsService) RefreshBusiness(businessID uuid.UUID) {
	var totalVisits, totalCustomers, totalPoints, totalRedemptions int64

	if err := s.db.Model(&models.Visit{}).
		Where("business_id = ?", businessID).
		Count(&totalVisits).Error; err != nil {
		log.Printf("[Stats] business %s visit count failed: %v", businessID, err)
		return
	}

	if err := s.db.Model(&models.Visit{}).
		Where("business_id = ?", businessID).
		Distinct("customer_id").
		Count(&totalCustomers).Error; err != nil {
		log.Printf("[Stats] business %s customer count failed: %v", businessID, err)
		return
	}

	if err := s.db.Model(&models.Visit{}).
		Where("business_id = ?", businessID).
		Select("COALESCE(SUM(points_earned), 0)").
		Scan(&totalPoints).Error; err != nil {
		log.Printf("[Stats] business %s points sum failed: %v", businessID, err)
		return
	}

	if err := s.db.Model(&models.Redemption{}).
		Where("business_id = ?", businessID).
		Count(&totalRedemptions).Error; err != nil {
		log.Printf("[Stats] business %s redemption count failed: %v", businessID, err)
		return
	}

	if err := s.db.Model(&models.Business{}).
		Where("id = ?", businessID).
		Updates(map[string]interface{}{
			"total_visits":        totalVisits,
			"total_customers":     totalCustomers,
			"total_points_issued": totalPoints,
			"total_redemptions":   totalRedemptions,
		}).Error; err != nil {
		log.Printf("[Stats] business %s counter update failed: %v", businessID, err)
	}
}

// RefreshCustomer recomputes a customer's counters by aggregation.
func (s *StatsService) RefreshCustomer(customerID uuid.UUID) {
	var totalVisits, totalPoints, totalRedemptions int64

	if err := s.db.Model(&models.Visit{}).
		Where("customer_id = ?", customerID).
		Count(&totalVisits).Error; err != nil {
		log.Printf("[Stats] customer %s visit count failed: %v", customerID, err)
		return
	}

	if err := s.db.Model(&models.Visit{}).
		Where("customer_id = ?", customerID).
		Select("COALESCE(SUM(points_earned), 0)").
		Scan(&totalPoints).Error; err != nil {
		log.Printf("[Stats] customer %s points sum failed: %v", customerID, err)
		return
	}

	if err := s.db.Model(&models.Redemption{}).
		Where("customer_id = ?", customerID).
		Count(&totalRedemptions).Error; err != nil {
		log.Printf("[Stats] customer %s redemption count failed: %v", customerID, err)
		return
	}

	if err := s.db.Model(&models.Customer{}).
		Where("id = ?", customerID).
		Updates(map[string]interface{}{
			"total_visits":        totalVisits,
			"total_points_earned": totalPoints,
			"total_redemptions":   totalRedemptions,
		}).Error; err != nil {
		log.Printf("[Stats] customer %s counter update failed: %v", customerID, err)
	}
}
