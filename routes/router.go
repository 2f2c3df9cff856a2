package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nawawimhz/surat-generator/handlers"
	"github.com/nawawimhz/surat-generator/middleware"
)

type Deps struct {
	Letters  *handlers.LetterHandler
	Drafts   *session.Store
	Registry *prometheus.Registry
	Logger   *zap.Logger
}

// NewApp builds the fiber app with every route registered.
func NewApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "surat-generator",
		ErrorHandler: handlers.ErrorHandler,
	})
	Register(app, d)
	return app
}

func Register(app *fiber.App, d Deps) {
	app.Use(middleware.NewLoggingMiddleware(d.Logger).LogRequest())

	if d.Registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api", middleware.RequireDraft(d.Drafts))

	// Form surat
	api.Get("/letters/options", d.Letters.Options)
	api.Get("/letters/:type", d.Letters.GetLetter)
	api.Patch("/letters/:type", d.Letters.UpdateLetter)
	api.Delete("/letters/:type", d.Letters.ResetLetter)

	// Preview, cetak & ekspor
	api.Post("/letters/:type/preview", d.Letters.Preview)
	api.Delete("/letters/:type/preview", d.Letters.ClosePreview)
	api.Get("/letters/:type/print", d.Letters.Print)
	api.Post("/letters/:type/export", d.Letters.Export)

	app.Use(handlers.NotFound)
}
