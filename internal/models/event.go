package models

import (
	"time"
)

// StreamEventType identifies the kind of message pushed to WebSocket clients
type StreamEventType string

const (
	StreamEventLog     StreamEventType = "log"
	StreamEventStatus  StreamEventType = "status"
	StreamEventError   StreamEventType = "error"
	StreamEventPong    StreamEventType = "pong"
	StreamEventHistory StreamEventType = "history"
)

// StreamEvent is the envelope for every message sent over /ws/logs
type StreamEvent struct {
	Type      StreamEventType `json:"type"`
	Payload   interface{}     `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewStreamEvent stamps an event with the current time
func NewStreamEvent(eventType StreamEventType, payload interface{}) StreamEvent {
	return StreamEvent{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// LogEntry is the payload of a StreamEventLog message
type LogEntry struct {
	Timestamp string `json:"timestamp"` // Wall-clock time, "15:04:05"
	Level     string `json:"level"`     // "DEBUG", "INFO", "WARN", "ERROR"
	Message   string `json:"message"`
	Formatted string `json:"formatted_message"` // Level-colored HTML rendering
}

// StatusPayload is the payload of a StreamEventStatus message
type StatusPayload struct {
	ActiveJobs     int       `json:"active_jobs"`
	TotalJobs      int       `json:"total_jobs"`
	ConnectedPeers int       `json:"connected_peers"`
	ServerTime     time.Time `json:"server_time"`
}
