package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/loyalty/internal/middleware"
	"github.com/example/loyalty/internal/services"
)

// CustomerHandler serves the customer-facing balance views.
type CustomerHandler struct {
	db     *gorm.DB
	ledger *services.LedgerService
}

// NewCustomerHandler constructs CustomerHandler.
func NewCustomerHandler(db *gorm.DB, ledger *services.LedgerService) *CustomerHandler {
	return &CustomerHandler{db: db, ledger: ledger}
}

// Points returns the customer's per-business balance summary, derived
// from the visit/redemption ledger.
func (h *CustomerHandler) Points(c *fiber.Ctx) error {
	customerID, ok := middleware.CurrentCustomerID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	summary, err := h.ledger.Summary(customerID)
	if err != nil {
		return err
	}

	var totalBalance, totalEarned, totalRedeemed int64
	for _, row := range summary {
		totalBalance += row.Balance
		totalEarned += row.PointsEarned
		totalRedeemed += row.PointsRedeemed
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"businesses":     summary,
			"total_earned":   totalEarned,
			"total_redeemed": totalRedeemed,
			"total_balance":  totalBalance,
		},
	})
}
