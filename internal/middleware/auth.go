// Package middleware provides authentication, logging, tracing, metrics and
// rate limiting middleware for the application.
package middleware

import (
	"context"
	"strings"

	"heartbridge/internal/models"

	"github.com/gofiber/fiber/v2"
)

// TokenVerifier validates a bearer token and returns the member id it was
// issued for.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header.
func BearerToken(c *fiber.Ctx) (string, bool) {
	parts := strings.Split(c.Get("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// requestToken reads the bearer token. Event stream upgrades may pass it as
// the token query parameter instead, since browsers cannot set headers on a
// websocket handshake.
func requestToken(c *fiber.Ctx) (string, bool) {
	if token, ok := BearerToken(c); ok {
		return token, true
	}
	if strings.HasPrefix(c.Path(), "/api/ws") {
		if token := c.Query("token"); token != "" {
			return token, true
		}
	}
	return "", false
}

// UserID returns the authenticated member id stored by AuthRequired or
// OptionalAuth.
func UserID(c *fiber.Ctx) string {
	uid, _ := c.Locals("userID").(string)
	return uid
}

func setUser(c *fiber.Ctx, uid string) {
	c.Locals("userID", uid)
	c.SetUserContext(WithUserID(c.UserContext(), uid))
}

// AuthRequired rejects requests without a valid bearer token.
func AuthRequired(v TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := requestToken(c)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthenticatedError())
		}

		uid, err := v.VerifyToken(c.UserContext(), token)
		if err != nil {
			Logger.DebugContext(c.UserContext(), "bearer token rejected", "error", err)
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		setUser(c, uid)
		return c.Next()
	}
}

// OptionalAuth records the member id when a valid token is present and lets
// anonymous requests through.
func OptionalAuth(v TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token, ok := BearerToken(c); ok {
			if uid, err := v.VerifyToken(c.UserContext(), token); err == nil {
				setUser(c, uid)
			}
		}
		return c.Next()
	}
}
