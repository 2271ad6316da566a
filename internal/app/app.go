package app

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/srajal-87/DealSense-AI/internal/common"
	"github.com/srajal-87/DealSense-AI/internal/handlers"
	"github.com/srajal-87/DealSense-AI/internal/interfaces"
	"github.com/srajal-87/DealSense-AI/internal/logs"
	"github.com/srajal-87/DealSense-AI/internal/pipeline"
	"github.com/srajal-87/DealSense-AI/internal/services/events"
	"github.com/srajal-87/DealSense-AI/internal/services/jobs"
	"github.com/srajal-87/DealSense-AI/internal/services/scheduler"
	"github.com/srajal-87/DealSense-AI/internal/services/status"
	badgerstorage "github.com/srajal-87/DealSense-AI/internal/storage/badger"
)

// App holds the wired application components
type App struct {
	Config  *common.Config
	Logger  arbor.ILogger
	Version string

	Bridge      *events.Bridge
	Interceptor *logs.Interceptor
	Registry    *jobs.Registry
	Executor    *jobs.Executor
	Pipeline    interfaces.DealPipeline
	Store       interfaces.OpportunityStore
	Scheduler   *scheduler.Scheduler
	Broadcaster *status.Broadcaster

	WSHandler     *handlers.WebSocketHandler
	SearchHandler *handlers.SearchHandler

	db *badgerstorage.BadgerDB
}

// New wires the application from configuration.
// Wiring order matters: the log interceptor must be installed before
// services start logging, and the WebSocket handler must be attached
// to the bridge before the interceptor forwards events.
func New(cfg *common.Config, logger arbor.ILogger, version string) (*App, error) {
	app := &App{
		Config:  cfg,
		Logger:  logger,
		Version: version,
	}

	// Event bridge and log interception
	app.Bridge = events.NewBridge(logger)
	app.Interceptor = logs.NewInterceptor(app.Bridge, cfg.WebSocket.MinLevel, cfg.WebSocket.ExcludePatterns)
	if err := app.Interceptor.Start(); err != nil {
		return nil, fmt.Errorf("failed to start log interceptor: %w", err)
	}
	logger.SetChannel("stream", app.Interceptor.Channel())

	// Storage
	db, err := badgerstorage.NewBadgerDB(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.db = db
	app.Store = badgerstorage.NewOpportunityStorage(db, logger)

	// Search pipeline
	scanner, err := pipeline.NewScanner(&cfg.Pipeline, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize feed scanner: %w", err)
	}

	// Pricing ensemble: the heuristic always participates, Claude
	// joins with a heavier weight when credentials are configured.
	ensemble := pipeline.NewEnsembleEstimator(logger)
	ensemble.Add("heuristic", pipeline.NewHeuristicEstimator(logger), 1)
	if cfg.Claude.APIKey != "" {
		claude, err := pipeline.NewClaudeEstimator(&cfg.Claude, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Claude estimator: %w", err)
		}
		ensemble.Add("claude", claude, 2)
	} else {
		logger.Info().Msg("No Anthropic API key configured, pricing with the heuristic estimator only")
	}

	app.Pipeline = pipeline.New(scanner, ensemble, app.Store, &cfg.Pipeline, logger)

	// Job orchestration
	app.Registry = jobs.NewRegistry(logger)
	app.Executor = jobs.NewExecutor(app.Registry, app.Pipeline, app.Store, logger)

	// Streaming
	statusInterval, err := time.ParseDuration(cfg.WebSocket.StatusInterval)
	if err != nil {
		statusInterval = 30 * time.Second
	}

	app.Broadcaster = status.NewBroadcaster(app.Bridge, app.Registry, func() int {
		if app.WSHandler == nil {
			return 0
		}
		return app.WSHandler.ClientCount()
	}, statusInterval, logger)

	app.WSHandler = handlers.NewWebSocketHandler(app.Broadcaster.Payload, logger)
	app.Bridge.Attach(app.WSHandler)
	app.Broadcaster.Start()

	// HTTP API
	app.SearchHandler = handlers.NewSearchHandler(app.Registry, app.Executor, app.Store, cfg, logger)

	// Recurring searches
	app.Scheduler = scheduler.NewScheduler(&cfg.Scheduler, app.Registry, app.Executor, logger)
	if err := app.Scheduler.Start(); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	logger.Info().
		Int("categories", len(cfg.Pipeline.Feeds)).
		Bool("scheduler", cfg.Scheduler.Enabled).
		Msg("Application initialized")

	return app, nil
}

// Close shuts the application down in reverse wiring order
func (a *App) Close() error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.Broadcaster != nil {
		a.Broadcaster.Stop()
	}
	if a.Executor != nil {
		a.Executor.Wait()
	}
	if a.Interceptor != nil {
		if err := a.Interceptor.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop log interceptor")
		}
	}
	if a.Bridge != nil {
		a.Bridge.Close()
	}
	if a.WSHandler != nil {
		a.WSHandler.CloseAll()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
			return err
		}
	}
	return nil
}
