package handlers

import (
	"perfpredict/internal/middleware"
	"perfpredict/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// PredictionHandler serves inference, history and statistics.
type PredictionHandler struct {
	inference   *services.InferenceService
	predictions *services.PredictionService
	stats       *services.StatsService
	log         logrus.FieldLogger
}

// NewPredictionHandler creates a new PredictionHandler.
func NewPredictionHandler(
	inference *services.InferenceService,
	predictions *services.PredictionService,
	stats *services.StatsService,
	log logrus.FieldLogger,
) *PredictionHandler {
	return &PredictionHandler{
		inference:   inference,
		predictions: predictions,
		stats:       stats,
		log:         log,
	}
}

// RegisterRoutes registers the prediction routes. router must already require authentication.
func (h *PredictionHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/predict", h.HandlePredict)
	router.Get("/user/predictions", h.HandleGetPredictions)
	router.Get("/stats", h.HandleGetStats)
}

// HandlePredict classifies the submitted features and records the result.
func (h *PredictionHandler) HandlePredict(c *fiber.Ctx) error {
	var input services.FeatureInput
	if err := c.BodyParser(&input); err != nil {
		return badBody(c, h.log, err)
	}

	result, err := h.inference.Predict(c.UserContext(), middleware.UserID(c), input)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(result)
}

// HandleGetPredictions returns the caller's history, newest first.
func (h *PredictionHandler) HandleGetPredictions(c *fiber.Ctx) error {
	history, err := h.predictions.History(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"predictions": history})
}

// HandleGetStats returns the caller's aggregate statistics.
func (h *PredictionHandler) HandleGetStats(c *fiber.Ctx) error {
	stats, err := h.stats.Stats(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(stats)
}
