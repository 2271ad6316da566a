package status

import (
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/srajal-87/DealSense-AI/internal/interfaces"
	"github.com/srajal-87/DealSense-AI/internal/models"
)

// Broadcaster pushes a periodic status event through the event
// bridge so connected clients see liveness even when nothing logs.
type Broadcaster struct {
	bridge      interfaces.EventBridge
	registry    interfaces.JobRegistry
	clientCount func() int
	interval    time.Duration
	logger      arbor.ILogger

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
}

// NewBroadcaster creates a status broadcaster. The clientCount
// callback reports connected WebSocket peers.
func NewBroadcaster(bridge interfaces.EventBridge, registry interfaces.JobRegistry, clientCount func() int, interval time.Duration, logger arbor.ILogger) *Broadcaster {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Broadcaster{
		bridge:      bridge,
		registry:    registry,
		clientCount: clientCount,
		interval:    interval,
		logger:      logger,
		stop:        make(chan struct{}),
	}
}

// Payload builds the current status snapshot
func (b *Broadcaster) Payload() models.StatusPayload {
	return models.StatusPayload{
		ActiveJobs:     b.registry.ActiveCount(),
		TotalJobs:      b.registry.Count(),
		ConnectedPeers: b.clientCount(),
		ServerTime:     time.Now().UTC(),
	}
}

// Start launches the periodic push goroutine
func (b *Broadcaster) Start() {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if b.clientCount() == 0 {
					continue
				}
				b.bridge.Enqueue(models.NewStreamEvent(models.StreamEventStatus, b.Payload()))
			case <-b.stop:
				return
			}
		}
	}()

	b.logger.Debug().Dur("interval", b.interval).Msg("Status broadcaster started")
}

// Stop halts the periodic push goroutine
func (b *Broadcaster) Stop() {
	b.stopOnce.Do(func() {
		close(b.stop)
		b.wg.Wait()
	})
}
