// Package server assembles the Fiber application from already-built services.
package server

import (
	"errors"
	"io"
	"time"

	"perfpredict/internal/handlers"
	"perfpredict/internal/metrics"
	"perfpredict/internal/middleware"
	"perfpredict/internal/repositories"
	"perfpredict/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

// Deps is the explicitly constructed service context handed to every route.
type Deps struct {
	Auth        *services.AuthService
	Predictions *services.PredictionService
	Stats       *services.StatsService
	Inference   *services.InferenceService
	StorageMode repositories.Mode
	Log         logrus.FieldLogger
	AccessLog   io.Writer // nil disables the request log
}

// New builds the Fiber app with all routes registered.
func New(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler(deps.Log),
	})

	// --- Middleware ---
	app.Use(recover.New())
	if deps.AccessLog != nil {
		app.Use(fiberlogger.New(fiberlogger.Config{Output: deps.AccessLog}))
	}
	app.Use(middleware.Metrics())

	// --- Operational endpoints ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":       "healthy",
			"storage_mode": deps.StorageMode,
			"persistent":   deps.StorageMode.Persistent(),
			"time":         time.Now().Format(time.RFC3339),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	// --- API Routes ---
	api := app.Group("/api")
	api.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Student Performance Prediction API is running"})
	})

	// Public routes go first: the protected group below is a prefix
	// middleware that would otherwise intercept them.
	handlers.NewAuthHandler(deps.Auth, deps.Log).RegisterRoutes(api)

	protected := api.Group("", middleware.AuthRequired(deps.Auth, deps.Log))
	handlers.NewUserHandler(deps.Auth, deps.Log).RegisterRoutes(protected)
	handlers.NewPredictionHandler(deps.Inference, deps.Predictions, deps.Stats, deps.Log).RegisterRoutes(protected)

	return app
}

// errorHandler renders errors that escape handlers (unknown routes, recovered
// panics) in the same {error: message} shape as everything else.
func errorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
		}

		log.WithError(err).WithField("path", c.Path()).Error("Unhandled error")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}
