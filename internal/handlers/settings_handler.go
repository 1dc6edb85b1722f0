package handlers

import (
	"errors"

	"pintu/internal/metrics"
	"pintu/internal/middleware"
	"pintu/internal/services"
	"pintu/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Settings actions and their success notices.
const (
	ActionChangeUsername = "change_username"
	ActionChangePassword = "change_password"

	NoticeUsernameUpdated = "Username updated successfully."
	NoticePasswordUpdated = "Password updated successfully."
)

// SettingsForm carries both settings forms; Action selects which fields apply.
type SettingsForm struct {
	Action          string `form:"action" validate:"required,oneof=change_username change_password"`
	NewUsername     string `form:"new_username"`
	CurrentPassword string `form:"current_password"`
	NewPassword     string `form:"new_password"`
	ConfirmPassword string `form:"confirm_password"`
}

// SettingsHandler handles the authenticated account settings page.
type SettingsHandler struct {
	accounts *services.AccountService
	pages    *Renderer
	metrics  *metrics.Metrics
	validate *validator.Validate
	log      logger.Logger
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(accounts *services.AccountService, pages *Renderer, m *metrics.Metrics, log logger.Logger) *SettingsHandler {
	return &SettingsHandler{
		accounts: accounts,
		pages:    pages,
		metrics:  m,
		validate: validator.New(),
		log:      log,
	}
}

// RegisterRoutes registers the settings routes behind loginRequired.
func (h *SettingsHandler) RegisterRoutes(router fiber.Router, loginRequired fiber.Handler) {
	router.Get("/settings", loginRequired, h.HandleSettingsPage)
	router.Post("/settings", loginRequired, h.HandleSettings)
}

// HandleSettingsPage renders the settings forms.
func (h *SettingsHandler) HandleSettingsPage(c *fiber.Ctx) error {
	return h.pages.Page(c, "settings", "Settings")
}

// HandleSettings applies one settings action and re-renders the page with its outcome.
func (h *SettingsHandler) HandleSettings(c *fiber.Ctx) error {
	var form SettingsForm
	if err := c.BodyParser(&form); err != nil {
		h.log.Debug("Unreadable settings form", "error", err)
		form = SettingsForm{}
	}
	if err := h.validate.Struct(form); err != nil {
		return h.pages.Page(c, "settings", "Settings", services.NoticeUnknownAction)
	}

	principal := middleware.Principal(c)
	ctx := c.UserContext()

	var (
		workflow string
		success  string
		err      error
	)
	switch form.Action {
	case ActionChangeUsername:
		workflow, success = metrics.WorkflowChangeUsername, NoticeUsernameUpdated
		err = h.accounts.ChangeUsername(ctx, principal, form.NewUsername)
	case ActionChangePassword:
		workflow, success = metrics.WorkflowChangePassword, NoticePasswordUpdated
		err = h.accounts.ChangePassword(ctx, principal, form.CurrentPassword, form.NewPassword, form.ConfirmPassword)
	}
	h.metrics.ObserveWorkflow(workflow, err)

	if err != nil {
		var accountErr *services.AccountError
		if errors.As(err, &accountErr) {
			return h.pages.Page(c, "settings", "Settings", accountErr.Notice)
		}
		return err
	}
	return h.pages.Page(c, "settings", "Settings", success)
}
