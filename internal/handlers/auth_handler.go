package handlers

import (
	"errors"

	"pintu/internal/metrics"
	"pintu/internal/middleware"
	"pintu/internal/services"
	"pintu/internal/session"
	"pintu/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// NoticeRegistered is flashed on the login page after a successful registration.
const NoticeRegistered = "Registration successful! Please log in."

// CredentialsForm is the login and registration form.
type CredentialsForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

// AuthHandler handles registration, login and logout.
type AuthHandler struct {
	accounts *services.AccountService
	sessions *session.Manager
	pages    *Renderer
	metrics  *metrics.Metrics
	log      logger.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(accounts *services.AccountService, sessions *session.Manager, pages *Renderer, m *metrics.Metrics, log logger.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		sessions: sessions,
		pages:    pages,
		metrics:  m,
		log:      log,
	}
}

// RegisterRoutes registers the authentication routes. loginRequired guards logout.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, loginRequired fiber.Handler) {
	router.Get("/login", h.HandleLoginPage)
	router.Post("/login", h.HandleLogin)
	router.Get("/logout", loginRequired, h.HandleLogout)
	router.Get("/register", h.HandleRegisterPage)
	router.Post("/register", h.HandleRegister)
}

// HandleLoginPage renders the login form.
func (h *AuthHandler) HandleLoginPage(c *fiber.Ctx) error {
	if middleware.Principal(c) != nil {
		return c.Redirect("/")
	}
	return h.pages.Page(c, "login", "Login")
}

// HandleLogin authenticates the submitted credentials and binds the session.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	if middleware.Principal(c) != nil {
		return c.Redirect("/")
	}

	form := h.parseCredentials(c)

	user, err := h.accounts.Authenticate(c.UserContext(), form.Username, form.Password)
	h.metrics.ObserveWorkflow(metrics.WorkflowLogin, err)
	if err != nil {
		var accountErr *services.AccountError
		if errors.As(err, &accountErr) {
			h.log.Info("Login failed", "reason", services.KindLabel(err))
			return h.pages.Page(c, "login", "Login", accountErr.Notice)
		}
		return err
	}

	if err := h.sessions.Login(c, user.ID); err != nil {
		return err
	}
	h.log.Info("User logged in", "user_id", user.ID)
	return c.Redirect("/")
}

// HandleLogout clears the principal from the session.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	principal := middleware.Principal(c)
	err := h.sessions.Logout(c)
	h.metrics.ObserveWorkflow(metrics.WorkflowLogout, err)
	if err != nil {
		return err
	}
	h.log.Info("User logged out", "user_id", principal.ID)
	return c.Redirect("/")
}

// HandleRegisterPage renders the registration form.
func (h *AuthHandler) HandleRegisterPage(c *fiber.Ctx) error {
	if middleware.Principal(c) != nil {
		return c.Redirect("/")
	}
	return h.pages.Page(c, "register", "Register")
}

// HandleRegister creates an account and sends the caller to the login page.
// Failed submissions re-render an empty form with the notice.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	if middleware.Principal(c) != nil {
		return c.Redirect("/")
	}

	form := h.parseCredentials(c)

	_, err := h.accounts.Register(c.UserContext(), form.Username, form.Password)
	h.metrics.ObserveWorkflow(metrics.WorkflowRegister, err)
	if err != nil {
		var accountErr *services.AccountError
		if errors.As(err, &accountErr) {
			return h.pages.Page(c, "register", "Register", accountErr.Notice)
		}
		return err
	}

	if err := h.sessions.AddFlash(c, NoticeRegistered); err != nil {
		return err
	}
	return c.Redirect("/login")
}

// parseCredentials reads the submitted form. An unreadable body counts as
// empty fields so the caller sees the usual notice.
func (h *AuthHandler) parseCredentials(c *fiber.Ctx) CredentialsForm {
	var form CredentialsForm
	if err := c.BodyParser(&form); err != nil {
		h.log.Debug("Unreadable credentials form", "path", c.Path(), "error", err)
		return CredentialsForm{}
	}
	return form
}
