package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/loyalty/internal/config"
	"github.com/example/loyalty/internal/utils"
)

const (
	subjectIDKey   = "authSubjectID"
	subjectTypeKey = "authSubjectType"
)

// RequireBusiness admits only business tokens.
func RequireBusiness(cfg *config.Config) fiber.Handler {
	return requireActor(cfg, utils.ActorBusiness)
}

// RequireCustomer admits only customer tokens.
func RequireCustomer(cfg *config.Config) fiber.Handler {
	return requireActor(cfg, utils.ActorCustomer)
}

// RequireEither admits any authenticated actor.
func RequireEither(cfg *config.Config) fiber.Handler {
	return requireActor(cfg, "")
}

// Optional loads the identity when a token is present and continues
// either way.
func Optional(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, actorType, err := authenticate(cfg, c); err == nil {
			c.Locals(subjectIDKey, id)
			c.Locals(subjectTypeKey, actorType)
		}
		return c.Next()
	}
}

func requireActor(cfg *config.Config, actorType string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, parsedType, err := authenticate(cfg, c)
		if err != nil {
			return err
		}
		if actorType != "" && parsedType != actorType {
			return fiber.NewError(fiber.StatusForbidden, "insufficient permissions")
		}

		c.Locals(subjectIDKey, id)
		c.Locals(subjectTypeKey, parsedType)
		return c.Next()
	}
}

// authenticate resolves the bearer token from the Authorization header
// or the token cookie.
func authenticate(cfg *config.Config, c *fiber.Ctx) (uuid.UUID, string, error) {
	tokenString := ""

	if authHeader := c.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return uuid.Nil, "", fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}
		tokenString = parts[1]
	} else if cookie := c.Cookies("token"); cookie != "" {
		tokenString = cookie
	}

	if tokenString == "" {
		return uuid.Nil, "", fiber.NewError(fiber.StatusUnauthorized, "missing authorization token")
	}

	id, actorType, err := utils.ParseToken(cfg.JWTSecret, tokenString)
	if err != nil {
		return uuid.Nil, "", fiber.NewError(fiber.StatusUnauthorized, "invalid token")
	}

	return id, actorType, nil
}

// CurrentSubject extracts the authenticated subject from context.
func CurrentSubject(c *fiber.Ctx) (uuid.UUID, string, bool) {
	id, ok := c.Locals(subjectIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, "", false
	}
	actorType, ok := c.Locals(subjectTypeKey).(string)
	if !ok {
		return uuid.Nil, "", false
	}
	return id, actorType, true
}

// CurrentBusinessID extracts the authenticated business ID from context.
func CurrentBusinessID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, actorType, ok := CurrentSubject(c)
	if !ok || actorType != utils.ActorBusiness {
		return uuid.Nil, false
	}
	return id, true
}

// CurrentCustomerID extracts the authenticated customer ID from context.
func CurrentCustomerID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, actorType, ok := CurrentSubject(c)
	if !ok || actorType != utils.ActorCustomer {
		return uuid.Nil, false
	}
	return id, true
}
