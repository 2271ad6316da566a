package logs

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/phuslu/log"
	"github.com/ternarybob/arbor"
	arborlevels "github.com/ternarybob/arbor/levels"
	arbormodels "github.com/ternarybob/arbor/models"

	"github.com/srajal-87/DealSense-AI/internal/interfaces"
	"github.com/srajal-87/DealSense-AI/internal/models"
)

// Interceptor taps the logger's event channel and forwards matching
// log lines to the event bridge for WebSocket streaming. Its own
// failures go to stderr, never back through the logger.
type Interceptor struct {
	bridge          interfaces.EventBridge
	channel         chan []arbormodels.LogEvent
	minLevel        arbor.LogLevel
	excludePatterns []string
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup
}

// NewInterceptor creates an interceptor publishing to the given bridge
func NewInterceptor(bridge interfaces.EventBridge, minLevel string, excludePatterns []string) *Interceptor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Interceptor{
		bridge:          bridge,
		channel:         make(chan []arbormodels.LogEvent, 10),
		minLevel:        parseLogLevel(minLevel),
		excludePatterns: excludePatterns,
		ctx:             ctx,
		cancel:          cancel,
	}
}

// parseLogLevel converts string log level to arbor.LogLevel
func parseLogLevel(levelStr string) arbor.LogLevel {
	switch strings.ToLower(levelStr) {
	case "debug":
		return arbor.DebugLevel
	case "info":
		return arbor.InfoLevel
	case "warn", "warning":
		return arbor.WarnLevel
	case "error":
		return arbor.ErrorLevel
	default:
		return arbor.InfoLevel
	}
}

// Channel returns the channel to register with the logger via SetChannel
func (i *Interceptor) Channel() chan []arbormodels.LogEvent {
	return i.channel
}

// Start launches the forwarding goroutine
func (i *Interceptor) Start() error {
	i.wg.Add(1)
	go i.consume()
	return nil
}

// Stop shuts down the forwarding goroutine
func (i *Interceptor) Stop() error {
	if i.cancel != nil {
		i.cancel()
	}
	i.wg.Wait()
	return nil
}

func (i *Interceptor) consume() {
	defer i.wg.Done()

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "log interceptor panic recovered: %v\n", r)
		}
	}()

	for {
		select {
		case batch, ok := <-i.channel:
			if !ok {
				return
			}
			for _, event := range batch {
				if !i.shouldForward(event) {
					continue
				}
				i.forward(event)
			}

		case <-i.ctx.Done():
			return
		}
	}
}

// shouldForward applies the level threshold and exclusion patterns
func (i *Interceptor) shouldForward(event arbormodels.LogEvent) bool {
	if arborlevels.FromLogLevel(event.Level) < i.minLevel {
		return false
	}

	// Transport noise would echo back to the clients that caused it.
	if event.Message == "HTTP request" ||
		strings.Contains(event.Message, "WebSocket client") {
		return false
	}

	for _, pattern := range i.excludePatterns {
		if strings.Contains(event.Message, pattern) {
			return false
		}
	}
	return true
}

// forward converts one log event and hands it to the bridge
func (i *Interceptor) forward(event arbormodels.LogEvent) {
	i.bridge.Enqueue(models.NewStreamEvent(models.StreamEventLog, transformEvent(event)))
}

// transformEvent converts an arbor LogEvent into a stream log entry
func transformEvent(event arbormodels.LogEvent) models.LogEntry {
	message := event.Message
	if len(event.Fields) > 0 {
		var extra []string
		for key, value := range event.Fields {
			extra = append(extra, fmt.Sprintf("%s=%v", key, value))
		}
		message += " " + strings.Join(extra, " ")
	}

	level := normalizeLevel(event.Level)
	timestamp := event.Timestamp.Format("15:04:05")

	return models.LogEntry{
		Timestamp: timestamp,
		Level:     level,
		Message:   message,
		Formatted: formatEntry(timestamp, level, message),
	}
}

// normalizeLevel maps logger levels to the display names clients expect
func normalizeLevel(level log.Level) string {
	switch arborlevels.FromLogLevel(level) {
	case arbor.DebugLevel:
		return "DEBUG"
	case arbor.InfoLevel:
		return "INFO"
	case arbor.WarnLevel:
		return "WARN"
	case arbor.ErrorLevel:
		return "ERROR"
	default:
		return strings.ToUpper(level.String())
	}
}

// levelColors maps display levels to the UI's severity palette
var levelColors = map[string]string{
	"DEBUG": "#9e9e9e",
	"INFO":  "#4caf50",
	"WARN":  "#ff9800",
	"ERROR": "#f44336",
}

// formatEntry renders a level-colored HTML line for the log panel
func formatEntry(timestamp, level, message string) string {
	color, ok := levelColors[level]
	if !ok {
		color = levelColors["INFO"]
	}
	return fmt.Sprintf(
		"<span style=\"color:%s\">[%s] %s</span> %s",
		color, timestamp, level, message,
	)
}
