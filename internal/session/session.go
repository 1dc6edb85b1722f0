// Package session tracks the authenticated principal and one-shot flash
// notices in server-side sessions. The cookie only carries the session id.
package session

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
)

const (
	// CookieName is the session cookie.
	CookieName = "pintu_session"

	keyUserID  = "user_id"
	keyFlashes = "_flashes"
)

// Config configures a Manager.
type Config struct {
	Expiration   time.Duration
	Storage      fiber.Storage // nil selects in-process memory storage
	CookieSecure bool
}

// Manager reads and writes principal state on the request's session.
type Manager struct {
	store *fibersession.Store
}

// NewManager creates a Manager over a fiber session store.
func NewManager(cfg Config) *Manager {
	store := fibersession.New(fibersession.Config{
		Expiration:     cfg.Expiration,
		Storage:        cfg.Storage,
		KeyLookup:      "cookie:" + CookieName,
		CookieHTTPOnly: true,
		CookieSecure:   cfg.CookieSecure,
		CookieSameSite: fiber.CookieSameSiteLaxMode,
		KeyGenerator:   uuid.NewString,
	})
	return &Manager{store: store}
}

// UserID returns the principal bound to the session, if any.
func (m *Manager) UserID(c *fiber.Ctx) (uint, bool, error) {
	sess, err := m.store.Get(c)
	if err != nil {
		return 0, false, fmt.Errorf("failed to load session: %w", err)
	}
	id, ok := sess.Get(keyUserID).(uint)
	if !ok || id == 0 {
		return 0, false, nil
	}
	return id, true, nil
}

// Login binds userID to a fresh session id.
func (m *Manager) Login(c *fiber.Ctx, userID uint) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if err := sess.Regenerate(); err != nil {
		return fmt.Errorf("failed to regenerate session: %w", err)
	}
	sess.Set(keyUserID, userID)
	if err := sess.Save(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Logout unbinds the principal. Pending flashes survive.
func (m *Manager) Logout(c *fiber.Ctx) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	sess.Delete(keyUserID)
	if err := sess.Regenerate(); err != nil {
		return fmt.Errorf("failed to regenerate session: %w", err)
	}
	if err := sess.Save(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// AddFlash queues a notice for the next rendered page.
func (m *Manager) AddFlash(c *fiber.Ctx, notice string) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	flashes, _ := sess.Get(keyFlashes).([]string)
	sess.Set(keyFlashes, append(flashes, notice))
	if err := sess.Save(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// PopFlashes returns and clears queued notices.
func (m *Manager) PopFlashes(c *fiber.Ctx) ([]string, error) {
	sess, err := m.store.Get(c)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	flashes, _ := sess.Get(keyFlashes).([]string)
	if len(flashes) == 0 {
		return nil, nil
	}
	sess.Delete(keyFlashes)
	if err := sess.Save(); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return flashes, nil
}
