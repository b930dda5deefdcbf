package services

import (
	"context"
	"encoding/json"
	"time"

	"perfpredict/internal/models"
	"perfpredict/internal/repositories"

	"github.com/sirupsen/logrus"
)

// PredictionRecordedKey is the routing key of the event published after a
// prediction is stored.
const PredictionRecordedKey = "prediction.recorded"

// EventPublisher delivers domain events to a message broker.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// PredictionService records predictions and serves per-user history.
type PredictionService struct {
	store     repositories.Storage
	publisher EventPublisher // optional
	log       logrus.FieldLogger
}

// NewPredictionService creates a new PredictionService. publisher may be nil.
func NewPredictionService(store repositories.Storage, publisher EventPublisher, log logrus.FieldLogger) *PredictionService {
	return &PredictionService{
		store:     store,
		publisher: publisher,
		log:       log,
	}
}

// Record appends the prediction. Identical submissions are stored as separate records.
func (s *PredictionService) Record(ctx context.Context, prediction *models.Prediction) error {
	if err := s.store.InsertPrediction(ctx, prediction); err != nil {
		return err
	}
	s.publishRecorded(prediction)
	return nil
}

// History returns the user's predictions, newest first.
func (s *PredictionService) History(ctx context.Context, userID string) ([]models.Prediction, error) {
	return s.store.ListPredictionsForUser(ctx, userID)
}

// publishRecorded is best effort; a broker outage never fails a prediction.
func (s *PredictionService) publishRecorded(prediction *models.Prediction) {
	if s.publisher == nil {
		return
	}

	body, err := json.Marshal(map[string]interface{}{
		"user_id":    prediction.UserID,
		"prediction": prediction.Label,
		"confidence": prediction.Confidence,
		"timestamp":  prediction.CreatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		s.log.WithError(err).Error("Failed to marshal prediction event")
		return
	}
	if err := s.publisher.Publish(PredictionRecordedKey, body); err != nil {
		s.log.WithError(err).WithField("user_id", prediction.UserID).Warn("Failed to publish prediction event")
	}
}
