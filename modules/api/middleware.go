package api

import (
	"strings"

	"github.com/example/trivia-rooms/domain/account"
	"github.com/example/trivia-rooms/modules/identity"
	"github.com/gofiber/fiber/v2"
)

const (
	// UserContextKey is the key used to store the session's profile in the Fiber context.
	UserContextKey = "user"
)

// AuthMiddleware creates a middleware that validates session tokens.
func AuthMiddleware(identityPort identity.IdentityPort) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Authorization header is required. Use: Bearer <sessionToken>",
			})
		}

		profile, err := identityPort.Authenticate(c.UserContext(), token)
		if err != nil {
			return writeError(c, err)
		}

		c.Locals(UserContextKey, profile)
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return token, token != ""
}

// currentUser returns the profile stored by AuthMiddleware.
func currentUser(c *fiber.Ctx) *account.Profile {
	profile, _ := c.Locals(UserContextKey).(*account.Profile)
	return profile
}
