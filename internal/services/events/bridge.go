package events

import (
	"fmt"
	"os"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/srajal-87/DealSense-AI/internal/interfaces"
	"github.com/srajal-87/DealSense-AI/internal/models"
)

const defaultQueueSize = 1000

// Bridge carries stream events from producer goroutines to a single
// observer. Producers enqueue from anywhere; one consumer goroutine
// drains the queue in FIFO order once an observer attaches.
type Bridge struct {
	queue    chan models.StreamEvent
	logger   arbor.ILogger
	observer interfaces.StreamObserver

	attachOnce sync.Once
	closeOnce  sync.Once
	done       chan struct{}
	wg         sync.WaitGroup
}

// NewBridge creates a bridge with the default queue capacity
func NewBridge(logger arbor.ILogger) *Bridge {
	return NewBridgeWithCapacity(logger, defaultQueueSize)
}

// NewBridgeWithCapacity creates a bridge with an explicit queue capacity
func NewBridgeWithCapacity(logger arbor.ILogger, capacity int) *Bridge {
	if capacity <= 0 {
		capacity = defaultQueueSize
	}
	return &Bridge{
		queue:  make(chan models.StreamEvent, capacity),
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Enqueue adds an event to the queue without blocking. When the queue
// is full the event is dropped; the drop is noted on stderr because
// logging it would feed the log interceptor and loop back here.
func (b *Bridge) Enqueue(event models.StreamEvent) {
	select {
	case b.queue <- event:
	default:
		fmt.Fprintf(os.Stderr, "event bridge queue full, dropping %s event\n", event.Type)
	}
}

// Attach installs the observer and starts the consumer goroutine.
// Only the first call takes effect.
func (b *Bridge) Attach(observer interfaces.StreamObserver) {
	b.attachOnce.Do(func() {
		b.observer = observer
		b.wg.Add(1)
		go b.consume()
	})
}

// Close stops the consumer after draining already-queued events
func (b *Bridge) Close() {
	b.closeOnce.Do(func() {
		close(b.done)
		b.wg.Wait()
	})
}

func (b *Bridge) consume() {
	defer b.wg.Done()

	for {
		select {
		case event := <-b.queue:
			b.deliver(event)
		case <-b.done:
			// Drain whatever was queued before shutdown.
			for {
				select {
				case event := <-b.queue:
					b.deliver(event)
				default:
					return
				}
			}
		}
	}
}

// deliver hands one event to the observer. Observer errors are noted
// on stderr and delivery continues with the next event.
func (b *Bridge) deliver(event models.StreamEvent) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "event bridge observer panic: %v\n", r)
		}
	}()

	if err := b.observer.Deliver(event); err != nil {
		fmt.Fprintf(os.Stderr, "event bridge delivery failed: %v\n", err)
	}
}
