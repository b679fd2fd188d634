package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/loyalty/internal/middleware"
	"github.com/example/loyalty/internal/models"
	"github.com/example/loyalty/internal/services"
	"github.com/example/loyalty/internal/utils"
)

// RedemptionHandler manages the redemption lifecycle endpoints.
type RedemptionHandler struct {
	db          *gorm.DB
	redemptions *services.RedemptionService
	stats       *services.StatsService
}

// NewRedemptionHandler constructs RedemptionHandler.
func NewRedemptionHandler(db *gorm.DB, redemptions *services.RedemptionService, stats *services.StatsService) *RedemptionHandler {
	return &RedemptionHandler{db: db, redemptions: redemptions, stats: stats}
}

type redeemRequest struct {
	RewardID string `json:"reward_id"`
}

// Redeem creates a redemption for the authenticated customer. The
// service re-checks eligibility and balance atomically with the insert.
func (h *RedemptionHandler) Redeem(c *fiber.Ctx) error {
	customerID, ok := middleware.CurrentCustomerID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req redeemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	rewardID, err := uuid.Parse(req.RewardID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid reward_id")
	}

	redemption, err := h.redemptions.Create(customerID, rewardID, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "reward not found")
		}
		return err
	}

	go func() {
		h.stats.RefreshBusiness(redemption.BusinessID)
		h.stats.RefreshCustomer(customerID)
	}()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":              redemption.ID,
			"redemption_code": redemption.RedemptionCode,
			"points_used":     redemption.PointsUsed,
			"status":          redemption.Status,
			"expires_at":      redemption.ExpiresAt,
		},
	})
}

// VerifyCode looks a redemption up by its in-store code for the owning
// business and reports whether it can still be used.
func (h *RedemptionHandler) VerifyCode(c *fiber.Ctx) error {
	businessID, ok := middleware.CurrentBusinessID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	code := strings.ToUpper(strings.TrimSpace(c.Params("code")))
	if code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "code is required")
	}

	result, err := h.redemptions.VerifyByCode(code, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "redemption not found")
		}
		return err
	}

	if result.Redemption.BusinessID != businessID {
		return fiber.NewError(fiber.StatusForbidden, "redemption belongs to another business")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"redemption": result.Redemption,
			"is_valid":   result.Valid,
		},
	})
}

type useRedemptionRequest struct {
	TransactionAmount *float64 `json:"transaction_amount"`
	DiscountApplied   *float64 `json:"discount_applied"`
}

// UseRedemption marks a redemption consumed in store, stamping the
// verifying business as the actor.
func (h *RedemptionHandler) UseRedemption(c *fiber.Ctx) error {
	businessID, ok := middleware.CurrentBusinessID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req useRedemptionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var record models.Redemption
	if err := h.db.First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "redemption not found")
		}
		return err
	}
	if record.BusinessID != businessID {
		return fiber.NewError(fiber.StatusForbidden, "redemption belongs to another business")
	}

	updated, err := h.redemptions.MarkUsed(id, services.UseParams{
		UsedBy:            businessID,
		TransactionAmount: req.TransactionAmount,
		DiscountApplied:   req.DiscountApplied,
	}, time.Now())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": updated})
}

// CancelRedemption manually concludes a redemption, releasing its
// points back to the customer.
func (h *RedemptionHandler) CancelRedemption(c *fiber.Ctx) error {
	businessID, ok := middleware.CurrentBusinessID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var record models.Redemption
	if err := h.db.First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "redemption not found")
		}
		return err
	}
	if record.BusinessID != businessID {
		return fiber.NewError(fiber.StatusForbidden, "redemption belongs to another business")
	}

	updated, err := h.redemptions.Cancel(id)
	if err != nil {
		return err
	}

	go h.stats.RefreshCustomer(updated.CustomerID)

	return c.JSON(fiber.Map{"success": true, "data": updated})
}

// ListRedemptions returns redemptions scoped to the caller.
func (h *RedemptionHandler) ListRedemptions(c *fiber.Ctx) error {
	subjectID, actorType, ok := middleware.CurrentSubject(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Redemption{})

	switch actorType {
	case utils.ActorBusiness:
		query = query.Where("business_id = ?", subjectID)
	case utils.ActorCustomer:
		query = query.Where("customer_id = ?", subjectID)
	default:
		return fiber.NewError(fiber.StatusForbidden, "insufficient permissions")
	}

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var redemptions []models.Redemption
	if err := query.Preload("Reward").Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&redemptions).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       redemptions,
		"pagination": utils.PageMeta(pg, total),
	})
}

// ExpireRedemptions runs the expiry sweep. Intended to be hit by an
// external scheduler; safe to call at any frequency.
func (h *RedemptionHandler) ExpireRedemptions(c *fiber.Ctx) error {
	count, err := h.redemptions.ExpireSweep(time.Now())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"expired": count},
	})
}
