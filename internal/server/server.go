package server

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"time"

	"pintu/internal/config"
	"pintu/internal/handlers"
	"pintu/internal/metrics"
	"pintu/internal/middleware"
	"pintu/internal/services"
	"pintu/internal/session"
	"pintu/internal/views"
	"pintu/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Dependencies are the services the HTTP layer is built from. They are
// constructed once at startup and shared by every request.
type Dependencies struct {
	Config   *config.Config
	Logger   logger.Logger
	Accounts *services.AccountService
	Sessions *session.Manager
	Metrics  *metrics.Metrics
}

// NewApp builds the Fiber application with all middleware and routes.
func NewApp(deps Dependencies) (*fiber.App, error) {
	engine, err := views.Engine()
	if err != nil {
		return nil, err
	}

	cfg := deps.Config
	app := fiber.New(fiber.Config{
		AppName:               cfg.ServiceName,
		Views:                 engine,
		ViewsLayout:           views.Layout,
		DisableStartupMessage: cfg.RunMode == config.ModeTest,
		ErrorHandler:          errorHandler(deps.Logger),
	})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Next: func(*fiber.Ctx) bool { return cfg.RunMode == config.ModeTest },
	}))
	app.Use(middleware.RequestTimer(deps.Logger))
	app.Use(compress.New())
	app.Use(cors.New())
	app.Use(encryptcookie.New(encryptcookie.Config{Key: CookieKey(cfg.SecretKey)}))
	app.Use("/static", filesystem.New(filesystem.Config{
		Root:       views.Static(),
		PathPrefix: "static",
	}))

	// --- Operational endpoints ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	app.Get("/metrics", deps.Metrics.Handler())

	// --- Pages ---
	app.Use(middleware.LoadPrincipal(deps.Sessions, deps.Accounts, deps.Logger))
	loginRequired := middleware.LoginRequired(deps.Sessions)
	pages := handlers.NewRenderer(deps.Sessions)

	handlers.NewPageHandler(pages).RegisterRoutes(app)
	handlers.NewAuthHandler(deps.Accounts, deps.Sessions, pages, deps.Metrics, deps.Logger).RegisterRoutes(app, loginRequired)
	handlers.NewSettingsHandler(deps.Accounts, pages, deps.Metrics, deps.Logger).RegisterRoutes(app, loginRequired)

	return app, nil
}

// CookieKey derives the cookie encryption key from the secret key.
func CookieKey(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// errorHandler answers unexpected failures with a plain status page and logs server errors.
func errorHandler(log logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
			message = fiberErr.Message
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("Request failed", "method", c.Method(), "path", c.Path(), "error", err)
		}

		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.Status(code).SendString(message)
	}
}
