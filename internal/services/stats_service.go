package services

import (
	"context"
	"math"

	"perfpredict/internal/models"
)

// StatsService aggregates a user's prediction history. It keeps no state of its own.
type StatsService struct {
	predictions *PredictionService
}

// NewStatsService creates a new StatsService.
func NewStatsService(predictions *PredictionService) *StatsService {
	return &StatsService{
		predictions: predictions,
	}
}

// Stats folds the user's history into counts, a label distribution and the
// average confidence rounded to two decimals.
func (s *StatsService) Stats(ctx context.Context, userID string) (*models.Stats, error) {
	history, err := s.predictions.History(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &models.Stats{
		PerformanceDistribution: make(map[string]int),
	}
	if len(history) == 0 {
		return stats, nil
	}

	var totalConfidence float64
	for _, p := range history {
		stats.PerformanceDistribution[p.Label]++
		totalConfidence += p.Confidence
	}
	stats.TotalPredictions = len(history)
	stats.AverageConfidence = roundTo(totalConfidence/float64(len(history)), 2)
	return stats, nil
}

// roundTo rounds half away from zero.
func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
