package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/srajal-87/DealSense-AI/internal/common"
	"github.com/srajal-87/DealSense-AI/internal/interfaces"
)

// Scheduler starts a recurring deal search on a cron schedule.
// At most one scheduled search runs at a time: a tick that lands
// while the previous run is still active is skipped.
type Scheduler struct {
	config   *common.SchedulerConfig
	registry interfaces.JobRegistry
	executor interfaces.JobExecutor
	logger   arbor.ILogger

	cron      *cron.Cron
	mu        sync.Mutex
	running   bool
	inFlight  bool
	lastRun   *time.Time
	lastJobID string
}

// NewScheduler creates a scheduler from configuration
func NewScheduler(config *common.SchedulerConfig, registry interfaces.JobRegistry, executor interfaces.JobExecutor, logger arbor.ILogger) *Scheduler {
	return &Scheduler{
		config:   config,
		registry: registry,
		executor: executor,
		logger:   logger,
		cron:     cron.New(),
	}
}

// Start registers the recurring search and starts the cron loop.
// A disabled scheduler starts as a no-op.
func (s *Scheduler) Start() error {
	if !s.config.Enabled {
		s.logger.Debug().Msg("Scheduler disabled")
		return nil
	}

	if len(s.config.Categories) == 0 {
		return fmt.Errorf("scheduler requires at least one category")
	}

	if _, err := s.cron.AddFunc(s.config.Schedule, s.runScheduledSearch); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.config.Schedule, err)
	}

	s.cron.Start()

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	s.logger.Info().
		Str("schedule", s.config.Schedule).
		Strs("categories", s.config.Categories).
		Msg("Recurring deal search scheduled")
	return nil
}

// Stop halts the cron loop. Searches already handed to the executor
// keep running.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("Scheduler stopped")
}

// IsRunning reports whether the cron loop is active
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// LastRun returns when the last scheduled search started, if any
func (s *Scheduler) LastRun() (time.Time, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastRun == nil {
		return time.Time{}, "", false
	}
	return *s.lastRun, s.lastJobID, true
}

func (s *Scheduler) runScheduledSearch() {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		s.logger.Warn().Msg("Previous scheduled search still running, skipping tick")
		return
	}
	s.inFlight = true
	s.mu.Unlock()

	job := s.registry.Create(s.config.Categories)

	now := time.Now().UTC()
	s.mu.Lock()
	s.lastRun = &now
	s.lastJobID = job.ID
	s.mu.Unlock()

	s.logger.Info().Str("job_id", job.ID).Msg("Scheduled deal search starting")
	s.executor.Execute(context.Background(), job)

	// Poll the registry until the job reaches a terminal state so the
	// next tick knows whether to skip.
	go func() {
		defer func() {
			s.mu.Lock()
			s.inFlight = false
			s.mu.Unlock()
		}()

		for {
			time.Sleep(time.Second)
			current, ok := s.registry.Get(job.ID)
			if !ok || current.Status.IsTerminal() {
				return
			}
		}
	}()
}
