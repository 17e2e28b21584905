package broadcast

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"samplesort/internal/logging"
)

const (
	sendBuffer     = 64
	broadcastQueue = 256
	writeTimeout   = 10 * time.Second
)

type client struct {
	send chan []byte
}

// Hub tracks websocket observers and broadcasts deltas to them.
type Hub struct {
	logger     *slog.Logger
	origins    []string
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// NewHub constructs a hub. originPatterns are passed to websocket.Accept for
// cross-origin browser clients; same-origin and non-browser clients are
// always accepted.
func NewHub(logger *slog.Logger, originPatterns ...string) *Hub {
	return &Hub{
		logger:     logging.NewComponentLogger(logger, "broadcast"),
		origins:    originPatterns,
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, broadcastQueue),
		done:       make(chan struct{}),
		clients:    make(map[*client]struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		h.mu.Lock()
		for c := range h.clients {
			close(c.send)
			delete(h.clients, c)
		}
		h.mu.Unlock()
		close(h.done)
	}()

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("observer connected", logging.Int("clients", count))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("observer disconnected", logging.Int("clients", count))

		case data := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					close(c.send)
					delete(h.clients, c)
					logging.WarnWithContext(h.logger, "dropping slow observer", "observer_dropped",
						logging.String(logging.FieldImpact, "observer must reconnect and refetch state"),
					)
				}
			}
			h.mu.Unlock()

		case <-ctx.Done():
			return
		}
	}
}

// Notify queues delta for every connected observer. It never blocks; when the
// queue is full the delta is dropped.
func (h *Hub) Notify(delta Delta) {
	if h == nil {
		return
	}
	if delta.At.IsZero() {
		delta.At = time.Now().UTC()
	}
	data, err := json.Marshal(delta)
	if err != nil {
		h.logger.Error("marshal delta", logging.Error(err))
		return
	}
	select {
	case h.broadcast <- data:
	default:
		logging.WarnWithContext(h.logger, "broadcast queue full, dropping delta", "delta_dropped",
			logging.String(logging.FieldItemID, delta.ItemID),
		)
	}
}

// ClientCount returns the number of connected observers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) add(c *client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(c *client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ServeHTTP upgrades the request and streams deltas until the observer
// disconnects, falls behind, or the hub stops. Messages sent by the client
// are ignored.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err != nil {
		h.logger.Debug("websocket upgrade failed", logging.Error(err))
		return
	}

	c := &client{send: make(chan []byte, sendBuffer)}
	if !h.add(c) {
		_ = conn.Close(websocket.StatusGoingAway, "shutting down")
		return
	}
	defer h.remove(c)

	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "observer dropped")
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "")
			return
		}
	}
}
