package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srajal-87/DealSense-AI/internal/common"
	"github.com/srajal-87/DealSense-AI/internal/models"
)

// fixedEstimator always returns the same estimate or error
type fixedEstimator struct {
	estimate float64
	err      error
}

func (e *fixedEstimator) Estimate(_ context.Context, _ models.Deal) (float64, error) {
	return e.estimate, e.err
}

func TestHeuristicEstimator_CategoryMarkup(t *testing.T) {
	estimator := NewHeuristicEstimator(common.GetLogger())

	estimate, err := estimator.Estimate(context.Background(), models.Deal{
		Price:    100,
		Category: "Electronics",
	})
	require.NoError(t, err)
	assert.InDelta(t, 190.0, estimate, 0.001)
}

func TestHeuristicEstimator_UnknownCategoryUsesDefault(t *testing.T) {
	estimator := NewHeuristicEstimator(common.GetLogger())

	estimate, err := estimator.Estimate(context.Background(), models.Deal{
		Price:    50,
		Category: "Jetpacks",
	})
	require.NoError(t, err)
	assert.InDelta(t, 80.0, estimate, 0.001)
}

func TestHeuristicEstimator_RejectsMissingPrice(t *testing.T) {
	estimator := NewHeuristicEstimator(common.GetLogger())

	_, err := estimator.Estimate(context.Background(), models.Deal{Category: "Electronics"})
	assert.Error(t, err)
}

func TestEnsemble_WeightedAverage(t *testing.T) {
	ensemble := NewEnsembleEstimator(common.GetLogger())
	ensemble.Add("low", &fixedEstimator{estimate: 100}, 1)
	ensemble.Add("high", &fixedEstimator{estimate: 160}, 2)

	estimate, err := ensemble.Estimate(context.Background(), models.Deal{Price: 80})
	require.NoError(t, err)
	assert.InDelta(t, 140.0, estimate, 0.001)
}

func TestEnsemble_SurvivesFailedMember(t *testing.T) {
	ensemble := NewEnsembleEstimator(common.GetLogger())
	ensemble.Add("flaky", &fixedEstimator{err: errors.New("api unavailable")}, 2)
	ensemble.Add("steady", &fixedEstimator{estimate: 120}, 1)

	estimate, err := ensemble.Estimate(context.Background(), models.Deal{Price: 80})
	require.NoError(t, err)
	assert.InDelta(t, 120.0, estimate, 0.001)
}

func TestEnsemble_AllMembersFailed(t *testing.T) {
	ensemble := NewEnsembleEstimator(common.GetLogger())
	ensemble.Add("flaky", &fixedEstimator{err: errors.New("api unavailable")}, 1)

	_, err := ensemble.Estimate(context.Background(), models.Deal{Price: 80})
	assert.Error(t, err)
}

func TestEnsemble_Empty(t *testing.T) {
	ensemble := NewEnsembleEstimator(common.GetLogger())

	assert.Equal(t, 0, ensemble.Size())
	_, err := ensemble.Estimate(context.Background(), models.Deal{Price: 80})
	assert.Error(t, err)
}

func TestEnsemble_IgnoresInvalidMembers(t *testing.T) {
	ensemble := NewEnsembleEstimator(common.GetLogger())
	ensemble.Add("nil", nil, 1)
	ensemble.Add("weightless", &fixedEstimator{estimate: 100}, 0)
	ensemble.Add("valid", &fixedEstimator{estimate: 100}, 1)

	assert.Equal(t, 1, ensemble.Size())
}

func TestEnsemble_FeedsThePipeline(t *testing.T) {
	scanner := &fakeScanner{deals: []models.Deal{deal("a", 100)}}

	ensemble := NewEnsembleEstimator(common.GetLogger())
	ensemble.Add("heuristic", NewHeuristicEstimator(common.GetLogger()), 1)

	p := New(scanner, ensemble, nil, pipelineConfig(), common.GetLogger())
	opportunities, err := p.Run(context.Background(), []string{"Electronics"})
	require.NoError(t, err)
	require.Len(t, opportunities, 1)
	assert.InDelta(t, 90.0, opportunities[0].Discount, 0.001)
}
