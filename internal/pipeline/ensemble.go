package pipeline

import (
	"context"
	"fmt"
	"math"

	"github.com/ternarybob/arbor"

	"github.com/srajal-87/DealSense-AI/internal/models"
)

// categoryMarkup approximates the typical list-price markup over the
// advertised deal price, per category. Discounted feeds run deep in
// some categories and shallow in others.
var categoryMarkup = map[string]float64{
	"Electronics":      1.9,
	"Computers":        1.8,
	"Automotive":       1.5,
	"Smart Home":       1.8,
	"Home & Garden":    1.6,
	"Health & Fitness": 1.7,
	"Clothing":         2.1,
	"Kids & Toys":      1.7,
	"Sports & Fitness": 1.7,
	"Office":           1.6,
	"Special Occasion": 1.8,
}

const defaultMarkup = 1.6

// HeuristicEstimator prices a deal from its advertised price and a
// per-category markup table. It needs no network and no credentials.
type HeuristicEstimator struct {
	logger arbor.ILogger
}

// NewHeuristicEstimator creates the markup-based estimator
func NewHeuristicEstimator(logger arbor.ILogger) *HeuristicEstimator {
	return &HeuristicEstimator{logger: logger}
}

// Estimate returns the markup-adjusted market price for the deal
func (e *HeuristicEstimator) Estimate(_ context.Context, deal models.Deal) (float64, error) {
	if deal.Price <= 0 {
		return 0, fmt.Errorf("deal has no advertised price")
	}

	markup, ok := categoryMarkup[deal.Category]
	if !ok {
		markup = defaultMarkup
	}

	estimate := math.Round(deal.Price*markup*100) / 100
	return estimate, nil
}

// ensembleMember is one weighted estimator in the ensemble
type ensembleMember struct {
	name      string
	estimator Estimator
	weight    float64
}

// EnsembleEstimator blends several estimators into one price by
// weighted average. A member that fails is dropped from that
// estimate; the ensemble errors only when every member fails.
type EnsembleEstimator struct {
	members []ensembleMember
	logger  arbor.ILogger
}

// NewEnsembleEstimator creates an empty ensemble
func NewEnsembleEstimator(logger arbor.ILogger) *EnsembleEstimator {
	return &EnsembleEstimator{logger: logger}
}

// Add registers a weighted member. Non-positive weights are ignored.
func (e *EnsembleEstimator) Add(name string, estimator Estimator, weight float64) {
	if estimator == nil || weight <= 0 {
		return
	}
	e.members = append(e.members, ensembleMember{name: name, estimator: estimator, weight: weight})
}

// Size returns the number of registered members
func (e *EnsembleEstimator) Size() int {
	return len(e.members)
}

// Estimate returns the weighted average of the surviving members
func (e *EnsembleEstimator) Estimate(ctx context.Context, deal models.Deal) (float64, error) {
	if len(e.members) == 0 {
		return 0, fmt.Errorf("ensemble has no estimators")
	}

	var weightedSum, totalWeight float64
	var lastErr error

	for _, member := range e.members {
		estimate, err := member.estimator.Estimate(ctx, deal)
		if err != nil {
			lastErr = err
			e.logger.Warn().
				Str("estimator", member.name).
				Str("title", deal.Title).
				Err(err).
				Msg("Ensemble member failed, continuing without it")
			continue
		}
		weightedSum += estimate * member.weight
		totalWeight += member.weight
	}

	if totalWeight == 0 {
		return 0, fmt.Errorf("every ensemble estimator failed: %w", lastErr)
	}

	return math.Round(weightedSum/totalWeight*100) / 100, nil
}
