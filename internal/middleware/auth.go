package middleware

import (
	"context"
	"errors"

	"pintu/internal/models"
	"pintu/internal/repositories"
	"pintu/internal/session"
	"pintu/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

const principalKey = "principal"

// NoticeLoginRequired is flashed when an anonymous caller hits a protected page.
const NoticeLoginRequired = "Please log in to see this page."

// UserLoader resolves a session's user id to a stored user.
type UserLoader interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
}

// LoadPrincipal resolves the session's principal once per request and stores
// it in the Fiber context. Sessions pointing at a missing user are cleared.
func LoadPrincipal(sessions *session.Manager, users UserLoader, log logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok, err := sessions.UserID(c)
		if err != nil {
			return err
		}
		if !ok {
			return c.Next()
		}

		user, err := users.GetUser(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				log.Warn("Session bound to missing user, clearing", "user_id", id)
				if err := sessions.Logout(c); err != nil {
					return err
				}
				return c.Next()
			}
			return err
		}

		c.Locals(principalKey, user)
		return c.Next()
	}
}

// LoginRequired redirects anonymous callers to the login page.
func LoginRequired(sessions *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if Principal(c) != nil {
			return c.Next()
		}
		if err := sessions.AddFlash(c, NoticeLoginRequired); err != nil {
			return err
		}
		return c.Redirect("/login")
	}
}

// Principal returns the authenticated user of the request, or nil.
func Principal(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(principalKey).(*models.User)
	return user
}
