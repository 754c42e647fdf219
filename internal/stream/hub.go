package stream

import (
	"log/slog"
	"sync"
	"time"

	"github.com/efreitasn/allocdash/internal/engine"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 16
	maxReadSize    = 512
)

// Encoder renders a monitor snapshot as a websocket text frame.
type Encoder func(engine.Snapshot) ([]byte, error)

// Hub fans monitor snapshots out to every connected websocket client.
// Each client has a buffered send queue drained by its own writer
// goroutine; a client whose queue is full misses that message.
type Hub struct {
	encode Encoder
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

type client struct {
	conn    *websocket.Conn
	send    chan []byte
	version uint64 // newest snapshot queued for this client
}

// NewHub creates a hub that encodes snapshots with encode.
func NewHub(encode Encoder, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		encode:  encode,
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

// PublishSnapshot implements engine.Publisher. A client only receives
// snapshots newer than the last one queued for it, so a publish racing a
// registration never overwrites the client's first frame with older state.
func (h *Hub) PublishSnapshot(s engine.Snapshot) {
	if h.Len() == 0 {
		return
	}
	msg, err := h.encode(s)
	if err != nil {
		h.logger.Error("encode snapshot", slog.String("error", err.Error()))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	dropped := 0
	for c := range h.clients {
		if s.Version <= c.version {
			continue
		}
		select {
		case c.send <- msg:
			c.version = s.Version
		default:
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Debug("websocket clients too slow, snapshot dropped", slog.Int("dropped", dropped))
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Serve registers conn, queues the snapshot returned by current as its
// first frame and blocks reading until the peer goes away. current is
// called after the client is registered, so no later change is missed.
// The connection is closed on return.
func (h *Hub) Serve(conn *websocket.Conn, current func() engine.Snapshot) {
	c := &client{conn: conn, send: make(chan []byte, sendBufferSize)}
	if !h.register(c, current) {
		conn.Close()
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writeLoop(c)
	}()

	h.readLoop(c)
	h.unregister(c)
	<-done
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) register(c *client, current func() engine.Snapshot) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	if current != nil {
		snap := current()
		msg, err := h.encode(snap)
		if err != nil {
			h.logger.Error("encode snapshot", slog.String("error", err.Error()))
			return false
		}
		c.send <- msg
		c.version = snap.Version
	}
	h.clients[c] = struct{}{}
	h.logger.Info("websocket client registered",
		slog.String("remote", c.conn.RemoteAddr().String()),
		slog.Int("clients", len(h.clients)),
	)
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.logger.Info("websocket client unregistered",
		slog.String("remote", c.conn.RemoteAddr().String()),
		slog.Int("clients", len(h.clients)),
	)
}

// readLoop discards inbound frames and keeps the read deadline alive on
// pongs. It returns when the connection fails or closes.
func (h *Hub) readLoop(c *client) {
	c.conn.SetReadLimit(maxReadSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket unexpected close", slog.String("error", err.Error()))
			}
			return
		}
	}
}

// writeLoop drains the send queue and pings the peer. When the queue is
// closed it sends a close frame and closes the connection, which also
// unblocks readLoop.
func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
