package services

import (
	"context"
	"fmt"
	"strings"

	"perfpredict/internal/apperrors"
	"perfpredict/internal/classifier"
	"perfpredict/internal/metrics"
	"perfpredict/internal/models"

	"github.com/sirupsen/logrus"
)

// FeatureInput is a raw feature submission. Categorical fields are optional;
// values the model never saw are encoded as classifier.UnknownCategory.
type FeatureInput struct {
	Gender            string `json:"gender"`
	RaceEthnicity     string `json:"race_ethnicity"`
	ParentalEducation string `json:"parental_education"`
	Lunch             string `json:"lunch"`
	TestPreparation   string `json:"test_preparation"`
	MathScore         *int   `json:"math_score" validate:"required,min=0,max=100"`
	ReadingScore      *int   `json:"reading_score" validate:"required,min=0,max=100"`
	WritingScore      *int   `json:"writing_score" validate:"required,min=0,max=100"`
}

// PredictionResult is returned to the caller of Predict.
type PredictionResult struct {
	Prediction string                 `json:"prediction"`
	Confidence float64                `json:"confidence"`
	InputData  models.FeatureSnapshot `json:"input_data"`
}

// InferenceService encodes submissions, runs the classifier and records the outcome.
type InferenceService struct {
	model    classifier.Classifier
	recorder *PredictionService
	log      logrus.FieldLogger
}

// NewInferenceService creates a new InferenceService.
func NewInferenceService(model classifier.Classifier, recorder *PredictionService, log logrus.FieldLogger) *InferenceService {
	return &InferenceService{
		model:    model,
		recorder: recorder,
		log:      log,
	}
}

// Predict classifies input on behalf of userID and records the result.
func (s *InferenceService) Predict(ctx context.Context, userID string, input FeatureInput) (*PredictionResult, error) {
	if err := ValidateStruct(input); err != nil {
		return nil, err
	}

	snapshot := normalize(input)
	label, probabilities, err := s.model.Classify(s.encode(snapshot))
	if err != nil {
		return nil, fmt.Errorf("%w: classify: %v", apperrors.ErrInternal, err)
	}
	confidence := classifier.Confidence(probabilities)

	record := &models.Prediction{
		UserID:     userID,
		Input:      snapshot,
		Label:      label,
		Confidence: confidence,
	}
	if err := s.recorder.Record(ctx, record); err != nil {
		return nil, err
	}
	metrics.ObservePrediction(label)

	s.log.WithFields(logrus.Fields{
		"user_id":    userID,
		"prediction": label,
		"confidence": confidence,
	}).Debug("Prediction recorded")

	return &PredictionResult{
		Prediction: label,
		Confidence: confidence,
		InputData:  snapshot,
	}, nil
}

// encode builds the vector in the fixed column order the model was trained on.
func (s *InferenceService) encode(snapshot models.FeatureSnapshot) []float64 {
	categorical := []string{
		snapshot.Gender,
		snapshot.RaceEthnicity,
		snapshot.ParentalEducation,
		snapshot.Lunch,
		snapshot.TestPreparation,
	}

	vector := make([]float64, 0, len(categorical)+3)
	for i, column := range classifier.CategoricalColumns {
		vector = append(vector, float64(s.model.Encode(column, categorical[i])))
	}
	return append(vector,
		float64(snapshot.MathScore),
		float64(snapshot.ReadingScore),
		float64(snapshot.WritingScore),
	)
}

// normalize trims categorical values and dereferences the validated scores.
func normalize(input FeatureInput) models.FeatureSnapshot {
	return models.FeatureSnapshot{
		Gender:            strings.TrimSpace(input.Gender),
		RaceEthnicity:     strings.TrimSpace(input.RaceEthnicity),
		ParentalEducation: strings.TrimSpace(input.ParentalEducation),
		Lunch:             strings.TrimSpace(input.Lunch),
		TestPreparation:   strings.TrimSpace(input.TestPreparation),
		MathScore:         *input.MathScore,
		ReadingScore:      *input.ReadingScore,
		WritingScore:      *input.WritingScore,
	}
}
