package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/srajal-87/DealSense-AI/internal/interfaces"
	"github.com/srajal-87/DealSense-AI/internal/models"
)

// opportunityRecord is the stored form of a surfaced opportunity,
// keyed by deal URL
type opportunityRecord struct {
	URL         string    `badgerhold:"key"`
	Opportunity models.Opportunity
	SurfacedAt  time.Time
}

// OpportunityStorage persists surfaced opportunities in Badger
type OpportunityStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewOpportunityStorage creates an OpportunityStorage instance
func NewOpportunityStorage(db *BadgerDB, logger arbor.ILogger) interfaces.OpportunityStore {
	return &OpportunityStorage{
		db:     db,
		logger: logger,
	}
}

// SaveAll upserts a batch of opportunities keyed by deal URL
func (s *OpportunityStorage) SaveAll(opportunities []models.Opportunity) error {
	now := time.Now().UTC()
	for _, opp := range opportunities {
		if opp.Deal.URL == "" {
			return fmt.Errorf("opportunity is missing a deal URL")
		}
		record := opportunityRecord{
			URL:         opp.Deal.URL,
			Opportunity: opp,
			SurfacedAt:  now,
		}
		if err := s.db.Store().Upsert(record.URL, &record); err != nil {
			return fmt.Errorf("failed to save opportunity: %w", err)
		}
	}

	s.logger.Debug().Int("count", len(opportunities)).Msg("Opportunities persisted")
	return nil
}

// Known reports whether an opportunity with this URL was already surfaced
func (s *OpportunityStorage) Known(url string) (bool, error) {
	var record opportunityRecord
	err := s.db.Store().Get(url, &record)
	if err == badgerhold.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up opportunity: %w", err)
	}
	return true, nil
}

// Recent returns up to limit opportunities, most recently surfaced first
func (s *OpportunityStorage) Recent(limit int) ([]models.Opportunity, error) {
	if limit <= 0 {
		limit = 10
	}

	var records []opportunityRecord
	query := badgerhold.Where("URL").Ne("").SortBy("SurfacedAt").Reverse().Limit(limit)
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list opportunities: %w", err)
	}

	opportunities := make([]models.Opportunity, 0, len(records))
	for _, record := range records {
		opportunities = append(opportunities, record.Opportunity)
	}
	return opportunities, nil
}

// Count returns the number of opportunities surfaced to date
func (s *OpportunityStorage) Count() (int, error) {
	var records []opportunityRecord
	if err := s.db.Store().Find(&records, badgerhold.Where("URL").Ne("")); err != nil {
		return 0, fmt.Errorf("failed to count opportunities: %w", err)
	}
	return len(records), nil
}

// Close releases the underlying store
func (s *OpportunityStorage) Close() error {
	return s.db.Close()
}
