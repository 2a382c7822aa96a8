package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"clcconvert/internal/infrastructure"
	"clcconvert/internal/operations"
)

// Message types sent to clients
const (
	TypeConnection     = "connection"
	TypeBatchStarted   = "conversion:batch_started"
	TypeFileConverted  = "conversion:file"
	TypeBatchCompleted = "conversion:batch_completed"
)

// Message is the envelope of every event pushed to clients
type Message struct {
	Type      string      `json:"type"`
	TraceID   string      `json:"trace_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// FileEvent is the data of a conversion:file message
type FileEvent struct {
	BatchID  string            `json:"batch_id"`
	Position int               `json:"position"`
	Notice   string            `json:"notice"`
	Result   operations.Result `json:"result"`
}

// Hub maintains the set of active clients and broadcasts conversion events
// to all of them. It implements operations.Notifier.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	logger  *slog.Logger
	quit    chan struct{}
	running bool
}

// NewHub creates a new Hub instance
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     infrastructure.WithComponent(logger, "websocket.hub"),
		quit:       make(chan struct{}),
	}
}

// Start runs the hub loop in the background. Repeated calls are no-ops;
// a stopped hub can be started again.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return
	}
	select {
	case <-h.quit:
		h.quit = make(chan struct{})
	default:
	}
	h.running = true
	go h.run(h.quit)
}

// Stop ends the hub loop and disconnects every client
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running {
		return
	}
	h.running = false
	close(h.quit)
}

func (h *Hub) run(quit <-chan struct{}) {
	for {
		select {
		case <-quit:
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Info("hub_stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()

			ctx := infrastructure.WithTraceID(context.Background(), client.traceID)
			h.logger.InfoContext(ctx, "client_registered",
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr),
				slog.Int("total_clients", count))

			if data, err := encode(TypeConnection, client.traceID, map[string]string{
				"status":    "connected",
				"client_id": client.id,
			}); err == nil {
				client.trySend(data)
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()

			ctx := infrastructure.WithTraceID(context.Background(), client.traceID)
			h.logger.InfoContext(ctx, "client_unregistered",
				slog.String("client_id", client.id),
				slog.Duration("connection_duration", time.Since(client.connectedAt)),
				slog.Int("total_clients", count))

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if !client.trySend(message) {
					// slow consumer
					delete(h.clients, client)
					close(client.send)
					h.logger.Warn("client_dropped", slog.String("client_id", client.id))
				}
			}
			h.mu.Unlock()
		}
	}
}

// Running reports whether the hub loop is active
func (h *Hub) Running() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}

func (h *Hub) quitChan() <-chan struct{} {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.quit
}

func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.quitChan():
		return false
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quitChan():
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues an event for every client. Events are dropped when the
// hub is not running or its queue is full.
func (h *Hub) Broadcast(ctx context.Context, msgType string, data interface{}) {
	payload, err := encode(msgType, infrastructure.GetTraceID(ctx), data)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to encode event",
			slog.String("type", msgType),
			slog.String("error", err.Error()))
		return
	}

	if !h.Running() {
		return
	}

	select {
	case h.broadcast <- payload:
	default:
		h.logger.WarnContext(ctx, "event_dropped", slog.String("type", msgType))
	}
}

// BatchStarted implements operations.Notifier
func (h *Hub) BatchStarted(ctx context.Context, batchID string, files int) {
	h.Broadcast(ctx, TypeBatchStarted, map[string]interface{}{
		"batch_id": batchID,
		"files":    files,
	})
}

// FileConverted implements operations.Notifier
func (h *Hub) FileConverted(ctx context.Context, batchID string, position int, res operations.Result) {
	h.Broadcast(ctx, TypeFileConverted, FileEvent{
		BatchID:  batchID,
		Position: position,
		Notice:   res.Notice(),
		Result:   res,
	})
}

// BatchCompleted implements operations.Notifier
func (h *Hub) BatchCompleted(ctx context.Context, report *operations.BatchReport) {
	h.Broadcast(ctx, TypeBatchCompleted, map[string]interface{}{
		"batch_id":    report.ID,
		"succeeded":   report.Succeeded,
		"failed":      report.Failed,
		"duration_ms": report.DurationMS,
	})
}

func encode(msgType, traceID string, data interface{}) ([]byte, error) {
	return json.Marshal(Message{
		Type:      msgType,
		TraceID:   traceID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
}
