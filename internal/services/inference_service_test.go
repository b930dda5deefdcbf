package services_test

import (
	"context"
	"errors"
	"testing"

	"perfpredict/internal/apperrors"
	"perfpredict/internal/classifier"
	"perfpredict/internal/logger"
	"perfpredict/internal/repositories"
	"perfpredict/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClassifier returns a fixed answer and remembers the last vector it saw.
type stubClassifier struct {
	label         string
	probabilities map[string]float64
	err           error
	codes         map[string]map[string]int
	lastVector    []float64
}

func (s *stubClassifier) Classify(vector []float64) (string, map[string]float64, error) {
	s.lastVector = append([]float64(nil), vector...)
	return s.label, s.probabilities, s.err
}

func (s *stubClassifier) Encode(column, value string) int {
	if code, ok := s.codes[column][value]; ok {
		return code
	}
	return classifier.UnknownCategory
}

func intPtr(v int) *int { return &v }

func validInput() services.FeatureInput {
	return services.FeatureInput{
		Gender:            "male",
		RaceEthnicity:     "group C",
		ParentalEducation: "bachelor's degree",
		Lunch:             "standard",
		TestPreparation:   "completed",
		MathScore:         intPtr(80),
		ReadingScore:      intPtr(85),
		WritingScore:      intPtr(90),
	}
}

type inferenceFixture struct {
	inference   *services.InferenceService
	predictions *services.PredictionService
	auth        *services.AuthService
	userID      string
}

func newInferenceFixture(t *testing.T, model classifier.Classifier) inferenceFixture {
	t.Helper()
	log := logger.Discard()
	store := repositories.NewMemoryStorage()
	auth := services.NewAuthService(store, testJWTSecret, log)
	predictions := services.NewPredictionService(store, nil, log)
	return inferenceFixture{
		inference:   services.NewInferenceService(model, predictions, log),
		predictions: predictions,
		auth:        auth,
		userID:      register(t, auth, "alice", "alice@x.com", "secret1"),
	}
}

func TestInferenceService_PredictWithSampleModel(t *testing.T) {
	model, err := classifier.Load("../../model/student_model.json")
	require.NoError(t, err)
	fx := newInferenceFixture(t, model)
	ctx := context.Background()

	result, err := fx.inference.Predict(ctx, fx.userID, validInput())
	require.NoError(t, err)
	assert.Equal(t, "High", result.Prediction)
	assert.InDelta(t, 0.8, result.Confidence, 1e-9)
	assert.Equal(t, "male", result.InputData.Gender)
	assert.Equal(t, 90, result.InputData.WritingScore)

	history, err := fx.predictions.History(ctx, fx.userID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "High", history[0].Label)
	assert.InDelta(t, 0.8, history[0].Confidence, 1e-9)
	assert.Equal(t, result.InputData, history[0].Input)
	assert.False(t, history[0].CreatedAt.IsZero())
}

func TestInferenceService_EncodesInModelOrder(t *testing.T) {
	stub := &stubClassifier{
		label:         "Medium",
		probabilities: map[string]float64{"High": 0.2, "Low": 0.1, "Medium": 0.7},
		codes: map[string]map[string]int{
			classifier.ColumnGender:            {"female": 0, "male": 1},
			classifier.ColumnRaceEthnicity:     {"group A": 0, "group C": 2},
			classifier.ColumnParentalEducation: {"associate's degree": 0, "bachelor's degree": 1},
			classifier.ColumnLunch:             {"free/reduced": 0, "standard": 1},
			classifier.ColumnTestPreparation:   {"completed": 0, "none": 1},
		},
	}
	fx := newInferenceFixture(t, stub)

	input := validInput()
	input.Gender = "  male "
	input.TestPreparation = "none"

	result, err := fx.inference.Predict(context.Background(), fx.userID, input)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 1, 1, 1, 80, 85, 90}, stub.lastVector)
	assert.Equal(t, "Medium", result.Prediction)
	assert.InDelta(t, 0.7, result.Confidence, 1e-9)
	assert.Equal(t, "male", result.InputData.Gender)
}

func TestInferenceService_UnknownCategoryEncodesAsZero(t *testing.T) {
	stub := &stubClassifier{
		label:         "Low",
		probabilities: map[string]float64{"Low": 1},
		codes: map[string]map[string]int{
			classifier.ColumnGender: {"female": 0, "male": 1},
		},
	}
	fx := newInferenceFixture(t, stub)

	input := validInput()
	input.Gender = "other"
	input.RaceEthnicity = ""

	_, err := fx.inference.Predict(context.Background(), fx.userID, input)
	require.NoError(t, err)
	assert.Equal(t, float64(classifier.UnknownCategory), stub.lastVector[0])
	assert.Equal(t, float64(classifier.UnknownCategory), stub.lastVector[1])
}

func TestInferenceService_RejectsInvalidScores(t *testing.T) {
	stub := &stubClassifier{label: "High", probabilities: map[string]float64{"High": 1}}
	fx := newInferenceFixture(t, stub)
	ctx := context.Background()

	cases := map[string]func(in *services.FeatureInput){
		"missing math":    func(in *services.FeatureInput) { in.MathScore = nil },
		"missing reading": func(in *services.FeatureInput) { in.ReadingScore = nil },
		"above range":     func(in *services.FeatureInput) { in.WritingScore = intPtr(101) },
		"below range":     func(in *services.FeatureInput) { in.MathScore = intPtr(-1) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			input := validInput()
			mutate(&input)
			_, err := fx.inference.Predict(ctx, fx.userID, input)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}

	// Boundary scores are accepted.
	input := validInput()
	input.MathScore, input.ReadingScore, input.WritingScore = intPtr(0), intPtr(100), intPtr(0)
	_, err := fx.inference.Predict(ctx, fx.userID, input)
	require.NoError(t, err)

	history, err := fx.predictions.History(ctx, fx.userID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestInferenceService_ClassifierFailureIsInternal(t *testing.T) {
	stub := &stubClassifier{err: errors.New("bad vector")}
	fx := newInferenceFixture(t, stub)
	ctx := context.Background()

	_, err := fx.inference.Predict(ctx, fx.userID, validInput())
	assert.ErrorIs(t, err, apperrors.ErrInternal)

	history, err := fx.predictions.History(ctx, fx.userID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestInferenceService_DeletedUserCannotRecord(t *testing.T) {
	stub := &stubClassifier{label: "High", probabilities: map[string]float64{"High": 1}}
	fx := newInferenceFixture(t, stub)
	ctx := context.Background()

	require.NoError(t, fx.auth.DeleteAccount(ctx, fx.userID))

	_, err := fx.inference.Predict(ctx, fx.userID, validInput())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
