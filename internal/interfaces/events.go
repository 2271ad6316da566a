package interfaces

import (
	"github.com/srajal-87/DealSense-AI/internal/models"
)

// StreamObserver consumes ordered stream events. The event bridge
// delivers events to its observer from a single goroutine.
type StreamObserver interface {
	// Deliver hands one event to the observer. Errors are logged to
	// stderr by the bridge; delivery continues with the next event.
	Deliver(event models.StreamEvent) error
}

// EventBridge decouples event producers from the streaming layer.
// Enqueue is safe from any goroutine; a single consumer drains the
// queue in FIFO order to the attached observer.
type EventBridge interface {
	// Enqueue adds an event to the queue. Never blocks: when the
	// queue is full the event is dropped and noted on stderr.
	Enqueue(event models.StreamEvent)

	// Attach installs the observer and starts the consumer. Only the
	// first observer is honored.
	Attach(observer StreamObserver)

	// Close stops the consumer after draining queued events
	Close()
}

// OpportunityStore persists surfaced opportunities across runs
type OpportunityStore interface {
	// SaveAll upserts a batch of opportunities
	SaveAll(opportunities []models.Opportunity) error

	// Known reports whether an opportunity with this URL was already surfaced
	Known(url string) (bool, error)

	// Recent returns up to limit of the most recently stored opportunities
	Recent(limit int) ([]models.Opportunity, error)

	// Count returns the number of opportunities surfaced to date
	Count() (int, error)

	// Close releases the underlying store
	Close() error
}
