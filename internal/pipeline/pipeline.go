package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/ternarybob/arbor"

	"github.com/srajal-87/DealSense-AI/internal/common"
	"github.com/srajal-87/DealSense-AI/internal/interfaces"
	"github.com/srajal-87/DealSense-AI/internal/models"
)

// DealScanner produces deal candidates for a category set
type DealScanner interface {
	Scan(ctx context.Context, categories []string) ([]models.Deal, error)
}

// Pipeline turns category feeds into ranked deal opportunities:
// scan, drop already-known URLs, price with the estimator, keep
// deals whose discount clears the threshold, take the best few.
type Pipeline struct {
	scanner          DealScanner
	estimator        Estimator
	store            interfaces.OpportunityStore
	threshold        float64
	maxOpportunities int
	logger           arbor.ILogger
}

// New creates a pipeline. The opportunity store is optional; without
// it, deduplication against earlier runs is skipped.
func New(scanner DealScanner, estimator Estimator, store interfaces.OpportunityStore, config *common.PipelineConfig, logger arbor.ILogger) *Pipeline {
	threshold := config.DealThreshold
	if threshold <= 0 {
		threshold = 50
	}
	maxOpportunities := config.MaxOpportunities
	if maxOpportunities <= 0 {
		maxOpportunities = 3
	}

	return &Pipeline{
		scanner:          scanner,
		estimator:        estimator,
		store:            store,
		threshold:        threshold,
		maxOpportunities: maxOpportunities,
		logger:           logger,
	}
}

// Run executes one full search over the given categories
func (p *Pipeline) Run(ctx context.Context, categories []string) ([]models.Opportunity, error) {
	deals, err := p.scanner.Scan(ctx, categories)
	if err != nil {
		return nil, fmt.Errorf("feed scan failed: %w", err)
	}

	p.logger.Info().Int("candidates", len(deals)).Msg("Feed scan finished")

	candidates := p.dropKnown(deals)
	if len(candidates) == 0 {
		p.logger.Info().Msg("No new deal candidates to evaluate")
		return nil, nil
	}

	var opportunities []models.Opportunity
	for _, deal := range candidates {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		estimate, err := p.estimator.Estimate(ctx, deal)
		if err != nil {
			p.logger.Warn().Err(err).Str("title", deal.Title).Msg("Estimate failed, skipping deal")
			continue
		}

		discount := estimate - deal.Price
		if discount < p.threshold {
			p.logger.Debug().
				Str("title", deal.Title).
				Float64("discount", discount).
				Msg("Deal below threshold")
			continue
		}

		p.logger.Info().
			Str("title", deal.Title).
			Float64("price", deal.Price).
			Float64("estimate", estimate).
			Float64("discount", discount).
			Msg("Opportunity found")

		opportunities = append(opportunities, models.Opportunity{
			Deal:     deal,
			Estimate: estimate,
			Discount: discount,
		})
	}

	sort.Slice(opportunities, func(i, j int) bool {
		return opportunities[i].Discount > opportunities[j].Discount
	})

	if len(opportunities) > p.maxOpportunities {
		opportunities = opportunities[:p.maxOpportunities]
	}
	return opportunities, nil
}

// dropKnown filters out deals whose URL was surfaced on an earlier run
func (p *Pipeline) dropKnown(deals []models.Deal) []models.Deal {
	if p.store == nil {
		return deals
	}

	fresh := make([]models.Deal, 0, len(deals))
	for _, deal := range deals {
		known, err := p.store.Known(deal.URL)
		if err != nil {
			p.logger.Warn().Err(err).Str("url", deal.URL).Msg("Dedup lookup failed, keeping deal")
			fresh = append(fresh, deal)
			continue
		}
		if known {
			continue
		}
		fresh = append(fresh, deal)
	}
	return fresh
}
