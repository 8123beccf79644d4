package middleware

import (
	"strings"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/jwt"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"

	"github.com/ashmitsharp/moneybook-api/internal/utils"
)

// ClerkAuth validates Clerk session tokens. Session storage and sign-in live
// in Clerk; the API only checks the bearer token and records the subject.
func ClerkAuth(secretKey string, log zerolog.Logger) fiber.Handler {
	clerk.SetKey(secretKey)

	return func(c fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return utils.NewUnauthorizedError("Missing authorization token")
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader || token == "" {
			return utils.NewUnauthorizedError("Invalid authorization header format")
		}

		if secretKey == "" {
			return utils.NewUnauthorizedError("Server misconfiguration: CLERK_SECRET_KEY not set")
		}

		claims, err := jwt.Verify(c.Context(), &jwt.VerifyParams{
			Token: token,
		})
		if err != nil {
			log.Debug().Err(err).Str("path", c.Path()).Msg("Rejected session token")
			return utils.NewUnauthorizedError("Invalid or expired token")
		}

		c.Locals("user_id", claims.Subject)
		return c.Next()
	}
}

// RequireSession returns ClerkAuth when enabled and a pass-through otherwise
func RequireSession(enabled bool, secretKey string, log zerolog.Logger) fiber.Handler {
	if !enabled {
		return func(c fiber.Ctx) error {
			return c.Next()
		}
	}
	return ClerkAuth(secretKey, log)
}
