package handlers

import (
	"errors"
	"math"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/loyalty/internal/middleware"
	"github.com/example/loyalty/internal/models"
	"github.com/example/loyalty/internal/phone"
	"github.com/example/loyalty/internal/services"
	"github.com/example/loyalty/internal/utils"
)

// VisitHandler manages visit check-in endpoints.
type VisitHandler struct {
	db    *gorm.DB
	stats *services.StatsService
}

// NewVisitHandler constructs VisitHandler.
func NewVisitHandler(db *gorm.DB, stats *services.StatsService) *VisitHandler {
	return &VisitHandler{db: db, stats: stats}
}

type createVisitRequest struct {
	CustomerID       string  `json:"customer_id"`
	CustomerPhone    string  `json:"customer_phone"`
	VisitDate        string  `json:"visit_date"`
	PointsMultiplier float64 `json:"points_multiplier"`
	ServiceType      string  `json:"service_type"`
	Amount           float64 `json:"amount"`
}

// CreateVisit records a business-initiated check-in. Points are
// computed once here from the business loyalty settings and frozen on
// the visit row.
func (h *VisitHandler) CreateVisit(c *fiber.Ctx) error {
	businessID, ok := middleware.CurrentBusinessID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createVisitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var business models.Business
	if err := h.db.First(&business, "id = ?", businessID).Error; err != nil {
		return err
	}

	customer, err := h.resolveCustomer(req.CustomerID, req.CustomerPhone)
	if err != nil {
		return err
	}

	multiplier := req.PointsMultiplier
	if multiplier <= 0 {
		multiplier = 1
	}

	visitDate := time.Now()
	if req.VisitDate != "" {
		parsed, err := time.Parse(time.RFC3339, req.VisitDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "visit_date must be RFC3339")
		}
		visitDate = parsed
	}

	visit := models.Visit{
		CustomerID:       customer.ID,
		BusinessID:       businessID,
		VisitDate:        visitDate,
		PointsEarned:     int(math.Floor(float64(business.LoyaltySettings.PointsPerVisit) * multiplier)),
		PointsMultiplier: multiplier,
		ServiceType:      req.ServiceType,
		Amount:           req.Amount,
	}

	if err := h.db.Create(&visit).Error; err != nil {
		return err
	}

	go func() {
		h.stats.RefreshBusiness(businessID)
		h.stats.RefreshCustomer(customer.ID)
	}()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    visit,
	})
}

// ListVisits returns visits scoped to the caller: a business sees its
// own visits, a customer sees theirs.
func (h *VisitHandler) ListVisits(c *fiber.Ctx) error {
	subjectID, actorType, ok := middleware.CurrentSubject(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Visit{})

	switch actorType {
	case utils.ActorBusiness:
		query = query.Where("business_id = ?", subjectID)
		if customerID := c.Query("customer_id"); customerID != "" {
			id, err := uuid.Parse(customerID)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid customer_id")
			}
			query = query.Where("customer_id = ?", id)
		}
	case utils.ActorCustomer:
		query = query.Where("customer_id = ?", subjectID)
		if businessID := c.Query("business_id"); businessID != "" {
			id, err := uuid.Parse(businessID)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid business_id")
			}
			query = query.Where("business_id = ?", id)
		}
	default:
		return fiber.NewError(fiber.StatusForbidden, "insufficient permissions")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var visits []models.Visit
	if err := query.Order("visit_date desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&visits).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       visits,
		"pagination": utils.PageMeta(pg, total),
	})
}

// GetVisit returns a single visit for the owning business or customer.
func (h *VisitHandler) GetVisit(c *fiber.Ctx) error {
	subjectID, actorType, ok := middleware.CurrentSubject(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var visit models.Visit
	if err := h.db.First(&visit, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "visit not found")
		}
		return err
	}

	owned := (actorType == utils.ActorBusiness && visit.BusinessID == subjectID) ||
		(actorType == utils.ActorCustomer && visit.CustomerID == subjectID)
	if !owned {
		return fiber.NewError(fiber.StatusForbidden, "visit belongs to another account")
	}

	return c.JSON(fiber.Map{"success": true, "data": visit})
}

type updateVisitRequest struct {
	VisitDate   *string  `json:"visit_date"`
	ServiceType *string  `json:"service_type"`
	Amount      *float64 `json:"amount"`
}

// UpdateVisit lets a business administratively correct a visit. The
// earned points stay frozen; only descriptive fields move.
func (h *VisitHandler) UpdateVisit(c *fiber.Ctx) error {
	businessID, ok := middleware.CurrentBusinessID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var visit models.Visit
	if err := h.db.First(&visit, "id = ? AND business_id = ?", id, businessID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "visit not found")
		}
		return err
	}

	var req updateVisitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}
	if req.VisitDate != nil {
		parsed, err := time.Parse(time.RFC3339, *req.VisitDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "visit_date must be RFC3339")
		}
		updates["visit_date"] = parsed
	}
	if req.ServiceType != nil {
		updates["service_type"] = *req.ServiceType
	}
	if req.Amount != nil {
		updates["amount"] = *req.Amount
	}
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
	}

	if err := h.db.Model(&visit).Updates(updates).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": visit})
}

// DeleteVisit removes a visit, which also removes its issued points
// from the customer's derived balance.
func (h *VisitHandler) DeleteVisit(c *fiber.Ctx) error {
	businessID, ok := middleware.CurrentBusinessID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var visit models.Visit
	if err := h.db.First(&visit, "id = ? AND business_id = ?", id, businessID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "visit not found")
		}
		return err
	}

	if err := h.db.Delete(&visit).Error; err != nil {
		return err
	}

	go func() {
		h.stats.RefreshBusiness(businessID)
		h.stats.RefreshCustomer(visit.CustomerID)
	}()

	return c.SendStatus(fiber.StatusNoContent)
}

// resolveCustomer finds the customer by ID or by normalized phone.
func (h *VisitHandler) resolveCustomer(customerID, customerPhone string) (*models.Customer, error) {
	var customer models.Customer

	switch {
	case customerID != "":
		id, err := uuid.Parse(customerID)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "invalid customer_id")
		}
		if err := h.db.First(&customer, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fiber.NewError(fiber.StatusNotFound, "customer not found")
			}
			return nil, err
		}
	case customerPhone != "":
		normalized := phone.Normalize(customerPhone)
		if !normalized.IsValid {
			return nil, fiber.NewError(fiber.StatusBadRequest, "invalid customer_phone")
		}
		if err := h.db.Where("phone = ?", normalized.Normalized).First(&customer).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fiber.NewError(fiber.StatusNotFound, "customer not found")
			}
			return nil, err
		}
	default:
		return nil, fiber.NewError(fiber.StatusBadRequest, "customer_id or customer_phone is required")
	}

	return &customer, nil
}
