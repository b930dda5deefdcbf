package services_test

import (
	"context"
	"fmt"
	"testing"

	"perfpredict/internal/apperrors"
	"perfpredict/internal/logger"
	"perfpredict/internal/models"
	"perfpredict/internal/repositories"
	"perfpredict/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStats(t *testing.T) (*services.StatsService, *services.PredictionService, string) {
	t.Helper()
	store := repositories.NewMemoryStorage()
	auth := services.NewAuthService(store, testJWTSecret, logger.Discard())
	userID := register(t, auth, "alice", "alice@x.com", "secret1")
	predictions := services.NewPredictionService(store, nil, logger.Discard())
	return services.NewStatsService(predictions), predictions, userID
}

func TestStatsService_EmptyHistory(t *testing.T) {
	stats, _, userID := newStats(t)

	summary, err := stats.Stats(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalPredictions)
	assert.NotNil(t, summary.PerformanceDistribution)
	assert.Empty(t, summary.PerformanceDistribution)
	assert.Equal(t, 0.0, summary.AverageConfidence)
}

func TestStatsService_Aggregates(t *testing.T) {
	stats, predictions, userID := newStats(t)
	ctx := context.Background()

	require.NoError(t, predictions.Record(ctx, &models.Prediction{UserID: userID, Label: "High", Confidence: 0.8}))
	require.NoError(t, predictions.Record(ctx, &models.Prediction{UserID: userID, Label: "Low", Confidence: 0.6}))

	summary, err := stats.Stats(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalPredictions)
	assert.Equal(t, map[string]int{"High": 1, "Low": 1}, summary.PerformanceDistribution)
	assert.Equal(t, 0.7, summary.AverageConfidence)
}

func TestStatsService_RoundsToTwoDecimals(t *testing.T) {
	stats, predictions, userID := newStats(t)
	ctx := context.Background()

	for _, c := range []float64{0.9, 0.8, 0.8} {
		require.NoError(t, predictions.Record(ctx, &models.Prediction{UserID: userID, Label: "Medium", Confidence: c}))
	}

	summary, err := stats.Stats(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalPredictions)
	assert.Equal(t, map[string]int{"Medium": 3}, summary.PerformanceDistribution)
	assert.Equal(t, 0.83, summary.AverageConfidence)

	var total int
	for _, n := range summary.PerformanceDistribution {
		total += n
	}
	assert.Equal(t, summary.TotalPredictions, total)
}

func TestStatsService_StorageFailure(t *testing.T) {
	mockStore := new(MockStorage)
	predictions := services.NewPredictionService(mockStore, nil, logger.Discard())
	stats := services.NewStatsService(predictions)
	ctx := context.Background()

	mockStore.On("ListPredictionsForUser", ctx, "user-123").
		Return(nil, fmt.Errorf("list: %w", apperrors.ErrStorageUnavailable)).Once()

	_, err := stats.Stats(ctx, "user-123")
	assert.ErrorIs(t, err, apperrors.ErrStorageUnavailable)
	mockStore.AssertExpectations(t)
}
