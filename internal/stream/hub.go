package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sensorhub/sensorhub/internal/metrics"
	"github.com/sensorhub/sensorhub/internal/sensor"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong response before treating the
	// connection as dead.
	pongWait = 60 * time.Second

	// pingPeriod controls how often the server sends WebSocket ping frames.
	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufSize is the per-client outgoing message buffer depth.
	sendBufSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Origin checks are handled by the CORS layer in front of the hub.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Source is the slice of the registry the hub reads from.
type Source interface {
	List() []sensor.Sensor
}

// Reading is one sensor's contribution to a broadcast frame: fresh
// measurements or the failure message, never both.
type Reading struct {
	Measurements map[string]float64 `json:"measurements,omitempty"`
	Error        string             `json:"error,omitempty"`
}

// Payload is the data half of a broadcast frame.
type Payload struct {
	Sensors     map[string]Reading `json:"sensors"`
	GeneratedAt string             `json:"generated_at"` // RFC3339
}

// Message is the JSON envelope sent to clients on every broadcast tick.
type Message struct {
	Event string  `json:"event"`
	Data  Payload `json:"data"`
}

// Hub manages WebSocket client connections and broadcasts fresh sensor
// readings to all connected clients every interval. Each tick is one read
// per sensor through the serialized registry, so a slow driver throttles
// the stream rather than racing it.
type Hub struct {
	src       Source
	interval  time.Duration
	authorize func(*http.Request) bool

	// mu guards clients. A client's send channel is only written to and
	// closed while mu is held, so a disconnect can never race a broadcast
	// into a send on a closed channel.
	mu      sync.RWMutex
	clients map[*client]struct{}
}

// client represents one connected WebSocket client.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// New creates a Hub reading from src every interval. authorize gates the
// upgrade; nil allows every connection.
func New(src Source, interval time.Duration, authorize func(*http.Request) bool) *Hub {
	return &Hub{
		src:       src,
		interval:  interval,
		authorize: authorize,
		clients:   make(map[*client]struct{}),
	}
}

// Run starts the broadcast ticker loop. Ticks with no connected clients
// skip the sensor reads entirely. Run blocks until ctx is cancelled, then
// closes all active connections.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-t.C:
			if h.Count() > 0 {
				h.broadcast()
			}
		}
	}
}

// ServeHTTP upgrades the HTTP connection to WebSocket and serves the
// client. A fresh readings frame is sent immediately on connect; further
// frames arrive from the ticker loop. Blocks until the connection closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.authorize != nil && !h.authorize(r) {
		http.Error(w, "invalid or missing API key", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBufSize),
	}
	h.register(c)
	defer h.unregister(c)

	if data, err := h.buildMessage(); err == nil {
		h.trySend(c, data)
	}

	go c.writePump()
	c.readPump() // blocks until connection closes
}

// Count returns the number of currently connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// --- internal ---------------------------------------------------------------

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// trySend queues data for c if it is still registered. Dropping the frame
// when the buffer is full is fine; the next tick replaces it.
func (h *Hub) trySend(c *client, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (h *Hub) broadcast() {
	data, err := h.buildMessage()
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Client's outgoing buffer is full — disconnect it.
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// buildMessage reads every sensor once and marshals the frame.
func (h *Hub) buildMessage() ([]byte, error) {
	readings := make(map[string]Reading)
	for _, s := range h.src.List() {
		id := s.Info().ID
		res := s.Read()
		metrics.RecordRead(id, res)
		if res.OK() {
			readings[id] = Reading{Measurements: res.Measurements}
		} else {
			readings[id] = Reading{Error: res.Err.Error()}
		}
	}

	msg := Message{
		Event: "readings",
		Data: Payload{
			Sensors:     readings,
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		},
	}
	return json.Marshal(msg)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// writePump drains the client's send channel and forwards messages to the
// WebSocket connection. It also sends periodic ping frames. Runs in its own
// goroutine per client.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				// Channel was closed (hub is shutting down or client removed).
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads frames from the connection to process control messages
// (pong, close) and detect disconnects. Blocks until the connection closes.
func (c *client) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
