package messaging

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mmcdole/moviemate/internal/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

// Hub fans push messages out to websocket subscribers
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu          sync.RWMutex
	subscribers map[uuid.UUID]chan Push
	closed      bool
}

// NewHub creates a Hub. checkOrigin may be nil to accept any origin.
func NewHub(checkOrigin func(r *http.Request) bool, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		subscribers: make(map[uuid.UUID]chan Push),
	}
}

// NotifyBlocked implements adblock.Notifier
func (h *Hub) NotifyBlocked(count int64) {
	h.Broadcast(Push{Type: AdBlocked, Count: count})
}

// Broadcast delivers p to every subscriber. Slow subscribers miss messages
// rather than blocking the sender.
func (h *Hub) Broadcast(p Push) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.subscribers {
		select {
		case ch <- p:
		default:
			h.logger.Warn("push dropped for slow subscriber", "subscriber", id)
		}
	}
}

// Len returns the number of connected subscribers
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Close disconnects every subscriber
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, id)
	}
	metrics.PushSubscribers.Set(0)
}

func (h *Hub) register() (uuid.UUID, chan Push, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return uuid.Nil, nil, false
	}
	id := uuid.New()
	ch := make(chan Push, sendBuffer)
	h.subscribers[id] = ch
	metrics.PushSubscribers.Inc()
	return id, ch, true
}

func (h *Hub) unregister(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subscribers[id]; ok {
		close(ch)
		delete(h.subscribers, id)
		metrics.PushSubscribers.Dec()
	}
}

// ServeHTTP upgrades the connection and streams pushes until either side closes
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade websocket", "error", err)
		return
	}

	id, send, ok := h.register()
	if !ok {
		_ = conn.Close()
		return
	}
	h.logger.Info("push subscriber connected", "subscriber", id, "total", h.Len())

	go h.writePump(conn, send)
	h.readPump(conn)

	h.unregister(id)
	h.logger.Info("push subscriber disconnected", "subscriber", id, "total", h.Len())
}

// readPump discards client frames and detects disconnects
func (h *Hub) readPump(conn *websocket.Conn) {
	defer conn.Close()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("unexpected websocket close", "error", err)
			}
			return
		}
	}
}

func (h *Hub) writePump(conn *websocket.Conn, send <-chan Push) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case p, ok := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			data, err := marshal(p)
			if err != nil {
				h.logger.Error("failed to encode push", "error", err)
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
