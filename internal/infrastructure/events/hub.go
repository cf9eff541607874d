package events

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/creatorpulse/creatorpulse/internal/infrastructure/logging"
)

// HubConfig tunes websocket keepalive and buffering.
type HubConfig struct {
	// WriteWait is the time allowed to write a message to the peer.
	WriteWait time.Duration
	// PongWait is the time allowed to read the next pong from the peer.
	PongWait time.Duration
	// PingPeriod must be less than PongWait.
	PingPeriod time.Duration
	// MaxMessageSize bounds messages read from the peer.
	MaxMessageSize int64
	// SendBuffer is the per-client queue; a full queue drops messages.
	SendBuffer int
}

// DefaultHubConfig returns the default websocket configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     (60 * time.Second * 9) / 10,
		MaxMessageSize: 4096,
		SendBuffer:     32,
	}
}

type client struct {
	conn   *websocket.Conn
	send   chan []byte
	userID string
}

// Hub keeps the live trend stream connections grouped by user.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
	config  HubConfig
	onCount func(int)
	logger  *logging.Logger
}

// NewHub creates an empty hub.
func NewHub(config HubConfig, logger *logging.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*client]struct{}),
		config:  config,
		logger:  logger.WithComponent("trend_stream"),
	}
}

// WithClientGauge reports the connection count after every change.
func (h *Hub) WithClientGauge(fn func(int)) *Hub {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onCount = fn
	return h
}

// Serve pumps messages to conn until the peer disconnects.
// blocks for the lifetime of the connection.
func (h *Hub) Serve(userID string, conn *websocket.Conn) {
	c := &client{
		conn:   conn,
		send:   make(chan []byte, h.config.SendBuffer),
		userID: userID,
	}

	h.register(c)
	go h.writePump(c)
	h.readPump(c)
	h.unregister(c)
}

// Broadcast queues msg for every connection of the user.
// returns how many connections it was queued for.
func (h *Hub) Broadcast(userID string, msg []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.clients[userID] {
		select {
		case c.send <- msg:
			delivered++
		default:
			h.logger.Warn("stream client too slow, message dropped",
				"user_id", userID,
			)
		}
	}
	return delivered
}

// ClientCount returns the number of open connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.countLocked()
}

// Close disconnects every client. used on shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, set := range h.clients {
		for c := range set {
			close(c.send)
		}
		delete(h.clients, userID)
	}
	h.reportLocked()
}

func (h *Hub) countLocked() int {
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

func (h *Hub) reportLocked() {
	if h.onCount != nil {
		h.onCount(h.countLocked())
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
	h.reportLocked()

	h.logger.Debug("stream client connected", "user_id", c.userID)
}

// unregister closes the send queue under the lock, so Broadcast never
// writes to a closed channel.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	close(c.send)
	h.reportLocked()

	h.logger.Debug("stream client disconnected", "user_id", c.userID)
}

// readPump only handles control frames, clients don't send data.
func (h *Hub) readPump(c *client) {
	defer c.conn.Close()

	c.conn.SetReadLimit(h.config.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(h.config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(h.config.PongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("stream read error", "user_id", c.userID, "error", err.Error())
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(h.config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteWait))
			if !ok {
				// hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
