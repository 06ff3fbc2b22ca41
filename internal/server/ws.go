package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	clientBuffer = 16
	writeWait    = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// StatusSource publishes status line changes.
type StatusSource interface {
	Status() string
	SubscribeStatus(fn func(string)) (cancel func())
}

type statusMessage struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

// StatusHub pushes status line changes to WebSocket clients. Each client
// gets the current status on connect and every change after that.
type StatusHub struct {
	source StatusSource
	logger *zap.Logger
	cancel func()

	mu      sync.Mutex
	clients map[*websocket.Conn]chan statusMessage
	closed  bool
}

// NewStatusHub creates a hub following source.
func NewStatusHub(source StatusSource, logger *zap.Logger) *StatusHub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &StatusHub{
		source:  source,
		logger:  logger.Named("ws"),
		clients: make(map[*websocket.Conn]chan statusMessage),
	}
	h.cancel = source.SubscribeStatus(h.broadcast)
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *StatusHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade error", zap.Error(err))
		return
	}
	defer conn.Close()

	send := make(chan statusMessage, clientBuffer)
	send <- newStatusMessage(h.source.Status())

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.clients[conn] = send
	h.mu.Unlock()

	defer h.remove(conn)

	// Reading detects the client going away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.remove(conn)
				return
			}
		}
	}()

	for msg := range send {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// Clients returns the number of connected clients.
func (h *StatusHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close stops following the status source and disconnects every client.
func (h *StatusHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	h.cancel()
	for conn, send := range h.clients {
		close(send)
		delete(h.clients, conn)
	}
}

// broadcast queues status for every client. A client that is too slow to
// keep up misses intermediate updates.
func (h *StatusHub) broadcast(status string) {
	msg := newStatusMessage(status)

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, send := range h.clients {
		select {
		case send <- msg:
		default:
		}
	}
}

func (h *StatusHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if send, ok := h.clients[conn]; ok {
		close(send)
		delete(h.clients, conn)
	}
}

func newStatusMessage(status string) statusMessage {
	return statusMessage{Status: status, Timestamp: time.Now().UnixMilli()}
}
