package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/voxrelay/domain/entities"
	"github.com/satriahrh/voxrelay/internal/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Time allowed for the registration frame after connect.
	registerWait = 10 * time.Second

	// Outbound frame buffer per receiver.
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Clients are trusted field devices on a closed network.
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Processor accepts reassembled segments for asynchronous enrichment.
type Processor interface {
	Dispatch(segment entities.AudioSegment)
}

// Hub owns the connection registry (sender and receiver sets) and the
// per-connection pending-header map used for chunk reassembly. These are the
// relay's only shared mutable state; every access goes through the mutex.
type Hub struct {
	mu        sync.RWMutex
	senders   map[*Client]struct{}
	receivers map[*Client]struct{}
	pending   map[*Client]*entities.SegmentHeader

	processor      Processor
	maxMessageSize int64
	metrics        *metrics.Metrics
	logger         *zap.Logger
}

// NewHub creates a hub. SetProcessor must be called before serving.
func NewHub(maxMessageSize int64, m *metrics.Metrics, logger *zap.Logger) *Hub {
	return &Hub{
		senders:        make(map[*Client]struct{}),
		receivers:      make(map[*Client]struct{}),
		pending:        make(map[*Client]*entities.SegmentHeader),
		maxMessageSize: maxMessageSize,
		metrics:        m,
		logger:         logger,
	}
}

// SetProcessor wires the segment pipeline. Separate from NewHub because the
// pipeline needs the hub as its broadcaster.
func (h *Hub) SetProcessor(p Processor) {
	h.processor = p
}

// Register adds a client to the set matching its role.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch c.role {
	case RoleSender:
		h.senders[c] = struct{}{}
		h.metrics.ActiveSenders.Set(float64(len(h.senders)))
	case RoleReceiver:
		h.receivers[c] = struct{}{}
		h.metrics.ActiveReceivers.Set(float64(len(h.receivers)))
	}

	h.logger.Info("Client registered",
		zap.String("clientID", c.id),
		zap.String("role", string(c.role)),
		zap.String("sessionID", c.sessionID))
}

// Unregister removes a client from whichever role-set it was in and clears
// any pending reassembly state. Idempotent; safe on never-registered clients.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, wasSender := h.senders[c]
	_, wasReceiver := h.receivers[c]
	delete(h.senders, c)
	delete(h.receivers, c)
	delete(h.pending, c)
	h.metrics.ActiveSenders.Set(float64(len(h.senders)))
	h.metrics.ActiveReceivers.Set(float64(len(h.receivers)))
	h.mu.Unlock()

	c.close()

	if wasSender || wasReceiver {
		h.logger.Info("Client unregistered",
			zap.String("clientID", c.id),
			zap.String("role", string(c.role)))
	}
}

// ReceiversSnapshot returns a point-in-time copy of the live receiver set so
// fan-out iteration never races with connects and disconnects.
func (h *Hub) ReceiversSnapshot() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	snapshot := make([]*Client, 0, len(h.receivers))
	for c := range h.receivers {
		snapshot = append(snapshot, c)
	}
	return snapshot
}

// handleText stores or overwrites the pending header for a connection. A
// malformed frame or unrecognized type is ignored, never fatal. A second
// header before the binary frame silently replaces the first; the transport
// guarantees in-order delivery so pairing is otherwise unambiguous.
func (h *Hub) handleText(c *Client, data []byte) {
	header, err := ParseHeader(data)
	if err != nil {
		h.logger.Debug("Ignoring malformed text frame",
			zap.String("clientID", c.id), zap.Error(err))
		return
	}
	if header.Type != string(MessageTypeAudioChunk) {
		h.logger.Debug("Ignoring unrecognized frame type",
			zap.String("clientID", c.id), zap.String("type", header.Type))
		return
	}

	if header.SessionID == "" {
		header.SessionID = c.sessionID
	}

	h.mu.Lock()
	h.pending[c] = header
	h.mu.Unlock()
}

// handleBinary pairs the pending header with the binary payload and hands the
// reassembled segment to the pipeline. A payload with no pending header gets a
// synthesized header from the connection's registered identity.
func (h *Hub) handleBinary(c *Client, data []byte) {
	h.mu.Lock()
	header, ok := h.pending[c]
	delete(h.pending, c)
	h.mu.Unlock()

	if !ok {
		header = &entities.SegmentHeader{
			SessionID: c.sessionID,
			CaptureTs: float64(time.Now().UnixNano()) / 1e9,
		}
	}

	h.processor.Dispatch(entities.AudioSegment{
		SessionID: header.SessionID,
		CaptureTs: header.CaptureTs,
		Audio:     data,
	})
}

// Broadcast delivers one enriched result to every receiver in the current
// snapshot, concurrently. A failed receiver is unregistered and does not
// affect delivery to the others; no retry, no ordering, no acknowledgment.
func (h *Hub) Broadcast(result *entities.EnrichedResult) {
	frame, err := NewSemanticFrame(result)
	if err != nil {
		h.logger.Error("Failed to serialize semantic frame", zap.Error(err))
		return
	}

	receivers := h.ReceiversSnapshot()

	var wg sync.WaitGroup
	for _, receiver := range receivers {
		wg.Add(1)
		go func(rc *Client) {
			defer wg.Done()
			if !rc.enqueue(WriteData{Type: websocket.TextMessage, Payload: frame}) {
				h.metrics.BroadcastFailures.Inc()
				h.logger.Warn("Dropping receiver after failed delivery",
					zap.String("clientID", rc.id))
				h.Unregister(rc)
				return
			}
			h.metrics.BroadcastsSent.Inc()
		}(receiver)
	}
	wg.Wait()
}

// WriteData is one outbound websocket frame.
type WriteData struct {
	// Type is websocket.TextMessage or websocket.BinaryMessage.
	Type    int
	Payload []byte
}

// Client is a middleman between one websocket connection and the hub. Its
// role is assigned at registration and immutable afterwards.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// Buffered channel of outbound frames.
	send chan WriteData

	id        string
	role      Role
	sessionID string

	logger *zap.Logger

	mu     sync.Mutex
	closed bool
}

// enqueue places a frame on the client's send buffer. Reports false when the
// client is gone or its buffer is saturated; callers treat both as a failed
// delivery.
func (c *Client) enqueue(data WriteData) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// close shuts the send channel exactly once.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ServeWS handles a websocket request: upgrade, read the mandatory
// registration frame, then start the read and write pumps. Anything other
// than a valid registration closes the connection immediately.
func ServeWS(hub *Hub, c echo.Context, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	conn.SetReadLimit(hub.maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(registerWait))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return nil
	}

	reg, err := ParseRegister(frame)
	if err != nil {
		logger.Warn("Rejecting connection", zap.Error(err))
		conn.Close()
		return nil
	}

	client := &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan WriteData, sendBufferSize),
		id:        uuid.NewString(),
		role:      reg.Role,
		sessionID: reg.SessionID,
		logger:    logger,
	}

	hub.Register(client)

	go client.writePump()
	go client.readPump()

	return nil
}

// readPump pumps frames from the websocket connection into the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error",
					zap.String("clientID", c.id), zap.Error(err))
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			c.hub.handleText(c, message)
		case websocket.BinaryMessage:
			c.hub.handleBinary(c, message)
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// writePump pumps frames from the send buffer to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Debug("Failed to write message",
					zap.String("clientID", c.id), zap.Error(err))
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
