package handlers

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/loyalty/internal/config"
	"github.com/example/loyalty/internal/loyalty"
	"github.com/example/loyalty/internal/models"
	"github.com/example/loyalty/internal/phone"
	"github.com/example/loyalty/internal/services"
	"github.com/example/loyalty/internal/utils"
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	db  *gorm.DB
	cfg *config.Config
	otp *loyalty.OTPEngine
	sms *services.SMSService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config, otp *loyalty.OTPEngine, sms *services.SMSService) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg, otp: otp, sms: sms}
}

type businessRegisterRequest struct {
	Name                 string   `json:"name"`
	Email                string   `json:"email"`
	Phone                string   `json:"phone"`
	Password             string   `json:"password"`
	PointsPerVisit       *int     `json:"points_per_visit"`
	RedemptionThreshold  *int     `json:"redemption_threshold"`
	RewardValue          *float64 `json:"reward_value"`
	MaxRedemptionsPerDay *int     `json:"max_redemptions_per_day"`
}

// RegisterBusiness creates a new business account.
func (h *AuthHandler) RegisterBusiness(c *fiber.Ctx) error {
	var req businessRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing required fields")
	}
	if len(req.Password) < 6 {
		return fiber.NewError(fiber.StatusBadRequest, "password must be at least 6 characters")
	}

	var existing models.Business
	if err := h.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return fiber.NewError(fiber.StatusConflict, "business already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	settings := models.LoyaltySettings{
		PointsPerVisit:      10,
		RedemptionThreshold: 100,
		RewardValue:         10,
	}
	if req.PointsPerVisit != nil {
		settings.PointsPerVisit = *req.PointsPerVisit
	}
	if req.RedemptionThreshold != nil {
		settings.RedemptionThreshold = *req.RedemptionThreshold
	}
	if req.RewardValue != nil {
		settings.RewardValue = *req.RewardValue
	}
	if req.MaxRedemptionsPerDay != nil {
		settings.MaxRedemptionsPerDay = *req.MaxRedemptionsPerDay
	}

	business := models.Business{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		PasswordHash:    passwordHash,
		LoyaltySettings: settings,
	}

	if err := h.db.Create(&business).Error; err != nil {
		return err
	}

	token, err := h.issueToken(c, business.ID, utils.ActorBusiness)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"business": fiber.Map{
				"id":               business.ID,
				"name":             business.Name,
				"email":            business.Email,
				"loyalty_settings": business.LoyaltySettings,
			},
			"token": token,
		},
	})
}

type businessLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginBusiness authenticates an existing business.
func (h *AuthHandler) LoginBusiness(c *fiber.Ctx) error {
	var req businessLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var business models.Business
	if err := h.db.Where("email = ?", req.Email).First(&business).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
		}
		return err
	}

	if !utils.CheckPassword(business.PasswordHash, req.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := h.issueToken(c, business.ID, utils.ActorBusiness)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"business": fiber.Map{
				"id":    business.ID,
				"name":  business.Name,
				"email": business.Email,
			},
			"token": token,
		},
	})
}

type customerRegisterRequest struct {
	Phone     string `json:"phone"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// RegisterCustomer creates or refreshes a customer keyed by normalized
// phone and sends a verification code. Two raw inputs that normalize
// identically resolve to the same customer row.
func (h *AuthHandler) RegisterCustomer(c *fiber.Ctx) error {
	var req customerRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	normalized := phone.Normalize(req.Phone)
	if !normalized.IsValid {
		return fiber.NewError(fiber.StatusBadRequest, "invalid phone number")
	}

	var customer models.Customer
	err := h.db.Where("phone = ?", normalized.Normalized).First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		customer = models.Customer{
			Phone:     normalized.Normalized,
			FirstName: req.FirstName,
			LastName:  req.LastName,
		}
		if err := h.db.Create(&customer).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	return h.sendOTP(c, &customer, fiber.StatusCreated)
}

type verifyOTPRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// VerifyOTP validates the submitted code. A failed attempt advances and
// persists the attempt counter before the error is returned.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	normalized := phone.Normalize(req.Phone)
	if !normalized.IsValid {
		return fiber.NewError(fiber.StatusBadRequest, "invalid phone number")
	}

	var customer models.Customer
	if err := h.db.Where("phone = ?", normalized.Normalized).First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "customer not found")
		}
		return err
	}

	if err := h.otp.Verify(&customer, req.Code, time.Now()); err != nil {
		if errors.Is(err, loyalty.ErrInvalidOTP) {
			if saveErr := h.db.Save(&customer).Error; saveErr != nil {
				return saveErr
			}
		}
		return err
	}

	if err := h.db.Save(&customer).Error; err != nil {
		return err
	}

	token, err := h.issueToken(c, customer.ID, utils.ActorCustomer)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"customer": fiber.Map{
				"id":          customer.ID,
				"phone":       customer.Phone,
				"first_name":  customer.FirstName,
				"last_name":   customer.LastName,
				"is_verified": customer.IsVerified,
			},
			"token": token,
		},
	})
}

type resendOTPRequest struct {
	Phone string `json:"phone"`
}

// ResendOTP issues a fresh code, subject to the resend cooldown.
func (h *AuthHandler) ResendOTP(c *fiber.Ctx) error {
	var req resendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	normalized := phone.Normalize(req.Phone)
	if !normalized.IsValid {
		return fiber.NewError(fiber.StatusBadRequest, "invalid phone number")
	}

	var customer models.Customer
	if err := h.db.Where("phone = ?", normalized.Normalized).First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "customer not found")
		}
		return err
	}

	return h.sendOTP(c, &customer, fiber.StatusOK)
}

// sendOTP enforces the resend cooldown, persists a fresh code, then
// hands it to the notifier. Delivery failure is logged, never surfaced:
// the code is already accepted into state.
func (h *AuthHandler) sendOTP(c *fiber.Ctx, customer *models.Customer, status int) error {
	now := time.Now()

	if err := h.otp.CheckResend(customer, now); err != nil {
		var limited *loyalty.RateLimitedError
		if errors.As(err, &limited) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success":     false,
				"message":     limited.Error(),
				"retry_after": int(limited.RetryAfter.Seconds()),
			})
		}
		return err
	}

	code, err := h.otp.Generate(customer, now)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate verification code")
	}

	if err := h.db.Save(customer).Error; err != nil {
		return err
	}

	if err := h.sms.Send(customer.Phone, code); err != nil {
		log.Printf("[Auth] OTP delivery to %s failed: %v", customer.Phone, err)
	}

	data := fiber.Map{
		"phone":      customer.Phone,
		"expires_in": int(h.otp.TTL.Seconds()),
	}
	if h.cfg.AppEnv == "development" {
		data["code"] = code
	}

	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

func (h *AuthHandler) issueToken(c *fiber.Ctx, subjectID uuid.UUID, actorType string) (string, error) {
	token, err := utils.GenerateToken(h.cfg.JWTSecret, subjectID, actorType, h.cfg.TokenExpires)
	if err != nil {
		return "", fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	c.Cookie(&fiber.Cookie{
		Name:     "token",
		Value:    token,
		Expires:  time.Now().Add(h.cfg.TokenExpires),
		HTTPOnly: true,
		SameSite: "Lax",
	})

	return token, nil
}
