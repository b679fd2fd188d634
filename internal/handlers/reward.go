package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/example/loyalty/internal/loyalty"
	"github.com/example/loyalty/internal/middleware"
	"github.com/example/loyalty/internal/models"
	"github.com/example/loyalty/internal/services"
	"github.com/example/loyalty/internal/utils"
)

// RewardHandler manages reward CRUD and the customer-facing catalog.
type RewardHandler struct {
	db        *gorm.DB
	ledger    *services.LedgerService
	evaluator *loyalty.Evaluator
}

// NewRewardHandler constructs RewardHandler.
func NewRewardHandler(db *gorm.DB, ledger *services.LedgerService, evaluator *loyalty.Evaluator) *RewardHandler {
	return &RewardHandler{db: db, ledger: ledger, evaluator: evaluator}
}

type rewardRequest struct {
	Name                      string     `json:"name"`
	Description               string     `json:"description"`
	PointsRequired            int        `json:"points_required"`
	RewardType                string     `json:"reward_type"`
	RewardValue               float64    `json:"reward_value"`
	IsActive                  *bool      `json:"is_active"`
	MaxRedemptionsPerCustomer *int       `json:"max_redemptions_per_customer"`
	MaxTotalRedemptions       *int       `json:"max_total_redemptions"`
	ValidFrom                 *time.Time `json:"valid_from"`
	ValidUntil                *time.Time `json:"valid_until"`
	AvailableDays             []string   `json:"available_days"`
	AvailableTimeStart        string     `json:"available_time_start"`
	AvailableTimeEnd          string     `json:"available_time_end"`
	MinimumPurchase           float64    `json:"minimum_purchase"`
}

// CreateReward persists a new reward for the authenticated business.
func (h *RewardHandler) CreateReward(c *fiber.Ctx) error {
	businessID, ok := middleware.CurrentBusinessID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req rewardRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Name == "" || req.PointsRequired <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "name and a positive points_required are required")
	}
	if err := loyalty.ValidateTimeWindow(req.AvailableTimeStart, req.AvailableTimeEnd); err != nil {
		return err
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	reward := models.Reward{
		BusinessID:                businessID,
		Name:                      req.Name,
		Description:               req.Description,
		PointsRequired:            req.PointsRequired,
		RewardType:                req.RewardType,
		RewardValue:               req.RewardValue,
		IsActive:                  active,
		MaxRedemptionsPerCustomer: req.MaxRedemptionsPerCustomer,
		MaxTotalRedemptions:       req.MaxTotalRedemptions,
		ValidFrom:                 req.ValidFrom,
		ValidUntil:                req.ValidUntil,
		AvailableDays:             pq.StringArray(req.AvailableDays),
		AvailableTimeStart:        req.AvailableTimeStart,
		AvailableTimeEnd:          req.AvailableTimeEnd,
		MinimumPurchase:           req.MinimumPurchase,
	}

	if err := h.db.Create(&reward).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": reward})
}

// UpdateReward updates an existing reward owned by the business.
func (h *RewardHandler) UpdateReward(c *fiber.Ctx) error {
	businessID, ok := middleware.CurrentBusinessID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var reward models.Reward
	if err := h.db.First(&reward, "id = ? AND business_id = ?", id, businessID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "reward not found")
		}
		return err
	}

	var req rewardRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	start, end := reward.AvailableTimeStart, reward.AvailableTimeEnd
	if req.AvailableTimeStart != "" {
		start = req.AvailableTimeStart
	}
	if req.AvailableTimeEnd != "" {
		end = req.AvailableTimeEnd
	}
	if err := loyalty.ValidateTimeWindow(start, end); err != nil {
		return err
	}

	if req.Name != "" {
		reward.Name = req.Name
	}
	if req.Description != "" {
		reward.Description = req.Description
	}
	if req.PointsRequired > 0 {
		reward.PointsRequired = req.PointsRequired
	}
	if req.RewardType != "" {
		reward.RewardType = req.RewardType
	}
	if req.RewardValue > 0 {
		reward.RewardValue = req.RewardValue
	}
	if req.IsActive != nil {
		reward.IsActive = *req.IsActive
	}
	if req.MaxRedemptionsPerCustomer != nil {
		reward.MaxRedemptionsPerCustomer = req.MaxRedemptionsPerCustomer
	}
	if req.MaxTotalRedemptions != nil {
		reward.MaxTotalRedemptions = req.MaxTotalRedemptions
	}
	if req.ValidFrom != nil {
		reward.ValidFrom = req.ValidFrom
	}
	if req.ValidUntil != nil {
		reward.ValidUntil = req.ValidUntil
	}
	if req.AvailableDays != nil {
		reward.AvailableDays = pq.StringArray(req.AvailableDays)
	}
	reward.AvailableTimeStart = start
	reward.AvailableTimeEnd = end
	if req.MinimumPurchase > 0 {
		reward.MinimumPurchase = req.MinimumPurchase
	}

	if err := h.db.Save(&reward).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": reward})
}

// DeleteReward removes a reward owned by the business.
func (h *RewardHandler) DeleteReward(c *fiber.Ctx) error {
	businessID, ok := middleware.CurrentBusinessID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	result := h.db.Where("id = ? AND business_id = ?", id, businessID).Delete(&models.Reward{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "reward not found")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ListRewards returns rewards. A business sees its own catalog; a
// customer sees active rewards annotated with their points and whether
// they can redeem each one right now.
func (h *RewardHandler) ListRewards(c *fiber.Ctx) error {
	subjectID, actorType, ok := middleware.CurrentSubject(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Reward{})

	switch actorType {
	case utils.ActorBusiness:
		query = query.Where("business_id = ?", subjectID)
	case utils.ActorCustomer:
		query = query.Where("is_active = ?", true)
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

	var rewards []models.Reward
	if err := query.Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&rewards).Error; err != nil {
		return err
	}

	if actorType == utils.ActorCustomer {
		views, err := h.customerViews(subjectID, rewards)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"success":    true,
			"data":       views,
			"pagination": utils.PageMeta(pg, total),
		})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       rewards,
		"pagination": utils.PageMeta(pg, total),
	})
}

// GetReward returns a single reward, with the customer annotations when
// a customer asks.
func (h *RewardHandler) GetReward(c *fiber.Ctx) error {
	subjectID, actorType, ok := middleware.CurrentSubject(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var reward models.Reward
	if err := h.db.First(&reward, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "reward not found")
		}
		return err
	}

	if actorType == utils.ActorBusiness {
		if reward.BusinessID != subjectID {
			return fiber.NewError(fiber.StatusForbidden, "reward belongs to another business")
		}
		return c.JSON(fiber.Map{"success": true, "data": reward})
	}

	views, err := h.customerViews(subjectID, []models.Reward{reward})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": views[0]})
}

// customerRewardView decorates a reward with the asking customer's
// standing against it.
type customerRewardView struct {
	models.Reward
	CustomerPoints    int64 `json:"customer_points"`
	CustomerCanRedeem bool  `json:"customer_can_redeem"`
}

func (h *RewardHandler) customerViews(customerID uuid.UUID, rewards []models.Reward) ([]customerRewardView, error) {
	now := time.Now()
	views := make([]customerRewardView, 0, len(rewards))
	balances := map[uuid.UUID]int64{}

	for _, reward := range rewards {
		balance, cached := balances[reward.BusinessID]
		if !cached {
			var err error
			balance, err = h.ledger.Balance(customerID, reward.BusinessID)
			if err != nil {
				return nil, err
			}
			balances[reward.BusinessID] = balance
		}

		var priorCount int64
		if err := h.db.Model(&models.Redemption{}).
			Where("customer_id = ? AND reward_id = ?", customerID, reward.ID).
			Count(&priorCount).Error; err != nil {
			return nil, err
		}

		canRedeem := h.evaluator.Evaluate(&reward, priorCount, now) == nil &&
			balance >= int64(reward.PointsRequired)

		views = append(views, customerRewardView{
			Reward:            reward,
			CustomerPoints:    balance,
			CustomerCanRedeem: canRedeem,
		})
	}

	return views, nil
}
