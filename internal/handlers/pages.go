package handlers

import (
	"pintu/internal/middleware"
	"pintu/internal/session"

	"github.com/gofiber/fiber/v2"
)

// Renderer renders full pages with the principal and pending notices bound.
type Renderer struct {
	sessions *session.Manager
}

// NewRenderer creates a new Renderer.
func NewRenderer(sessions *session.Manager) *Renderer {
	return &Renderer{sessions: sessions}
}

// Page renders view inside the base layout. Queued flashes are shown first,
// followed by notices produced by the current request.
func (r *Renderer) Page(c *fiber.Ctx, view, title string, notices ...string) error {
	flashes, err := r.sessions.PopFlashes(c)
	if err != nil {
		return err
	}
	return c.Render(view, fiber.Map{
		"Title":     title,
		"Principal": middleware.Principal(c),
		"Flashes":   append(flashes, notices...),
	})
}

// PageHandler serves pages without workflow logic.
type PageHandler struct {
	pages *Renderer
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(pages *Renderer) *PageHandler {
	return &PageHandler{pages: pages}
}

// RegisterRoutes registers the page routes.
func (h *PageHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/", h.HandleIndex)
}

// HandleIndex renders the home page.
func (h *PageHandler) HandleIndex(c *fiber.Ctx) error {
	return h.pages.Page(c, "index", "Home")
}
