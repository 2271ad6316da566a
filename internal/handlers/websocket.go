package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"

	"github.com/srajal-87/DealSense-AI/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// clientMessage is what clients send over /ws/logs
type clientMessage struct {
	Type string `json:"type"`
}

// WebSocketHandler owns the set of log stream connections and fans
// stream events out to them. It is the event bridge's observer.
type WebSocketHandler struct {
	logger           arbor.ILogger
	clients          map[*websocket.Conn]bool
	clientMutex      map[*websocket.Conn]*sync.Mutex
	mu               sync.RWMutex
	status           func() models.StatusPayload
	serverInstanceID string // Unique ID generated on startup - clients use it to detect server restart
}

// NewWebSocketHandler creates the log stream handler. The status
// provider supplies the payload for initial and periodic status events.
func NewWebSocketHandler(status func() models.StatusPayload, logger arbor.ILogger) *WebSocketHandler {
	h := &WebSocketHandler{
		logger:           logger,
		clients:          make(map[*websocket.Conn]bool),
		clientMutex:      make(map[*websocket.Conn]*sync.Mutex),
		status:           status,
		serverInstanceID: uuid.New().String(),
	}

	logger.Info().Str("server_instance_id", h.serverInstanceID).Msg("WebSocket handler initialized")
	return h
}

// HandleLogStream handles GET /ws/logs
func (h *WebSocketHandler) HandleLogStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.clientMutex[conn] = &sync.Mutex{}
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Msgf("WebSocket client connected (total: %d)", clientCount)

	// A fresh client always hears a status event before any log event.
	h.sendToClient(conn, models.NewStreamEvent(models.StreamEventStatus, h.status()))

	defer func() {
		h.detach(conn)
		h.mu.RLock()
		remaining := len(h.clients)
		h.mu.RUnlock()
		h.logger.Debug().Msgf("WebSocket client disconnected (remaining: %d)", remaining)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket client read error")
			}
			return
		}
		h.handleClientMessage(conn, data)
	}
}

// handleClientMessage answers ping and history requests. Malformed or
// unrecognized messages get an error event back.
func (h *WebSocketHandler) handleClientMessage(conn *websocket.Conn, data []byte) {
	msgType := strings.TrimSpace(string(data))

	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err == nil && msg.Type != "" {
		msgType = msg.Type
	}

	switch msgType {
	case "ping":
		h.sendToClient(conn, models.NewStreamEvent(models.StreamEventPong, nil))
	case "request_history":
		// History is not retained server-side; clients get an empty
		// list and build their view from the live stream.
		h.sendToClient(conn, models.NewStreamEvent(models.StreamEventHistory, []models.LogEntry{}))
	default:
		h.sendToClient(conn, models.NewStreamEvent(models.StreamEventError, map[string]string{
			"message": "Unrecognized message",
		}))
	}
}

// Deliver implements the stream observer: every event from the
// bridge is fanned out to all connected clients.
func (h *WebSocketHandler) Deliver(event models.StreamEvent) error {
	h.Broadcast(event)
	return nil
}

// Broadcast sends one event to every connected client. A client whose
// write fails is detached so one dead connection cannot stall the rest.
func (h *WebSocketHandler) Broadcast(event models.StreamEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal stream event")
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	mutexes := make([]*sync.Mutex, 0, len(h.clients))
	for conn := range h.clients {
		clients = append(clients, conn)
		mutexes = append(mutexes, h.clientMutex[conn])
	}
	h.mu.RUnlock()

	for i, conn := range clients {
		mutex := mutexes[i]
		mutex.Lock()
		err := conn.WriteMessage(websocket.TextMessage, data)
		mutex.Unlock()

		if err != nil {
			h.logger.Warn().Err(err).Msg("Dropping unresponsive WebSocket client")
			h.detach(conn)
		}
	}
}

// sendToClient sends one event to a single client
func (h *WebSocketHandler) sendToClient(conn *websocket.Conn, event models.StreamEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal stream event")
		return
	}

	h.mu.RLock()
	mutex := h.clientMutex[conn]
	h.mu.RUnlock()

	if mutex == nil {
		return
	}

	mutex.Lock()
	err = conn.WriteMessage(websocket.TextMessage, data)
	mutex.Unlock()

	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to send event to client")
		h.detach(conn)
	}
}

// detach removes a client from the registry and closes its connection
func (h *WebSocketHandler) detach(conn *websocket.Conn) {
	h.mu.Lock()
	_, present := h.clients[conn]
	delete(h.clients, conn)
	delete(h.clientMutex, conn)
	h.mu.Unlock()

	if present {
		conn.Close()
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll disconnects every client, used during shutdown
func (h *WebSocketHandler) CloseAll() {
	h.mu.Lock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
		delete(h.clientMutex, conn)
	}
	h.mu.Unlock()
}
