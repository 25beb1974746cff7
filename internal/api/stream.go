package api

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub manages WebSocket clients and delivers two kinds of push traffic to
// them with different drop semantics: periodic snapshots are coalesced
// (only the newest one matters, since a stale quote snapshot is just
// superseded by the next tick), while fills are queued individually on a
// separate channel that the hub always drains first — a client watching
// inventory move fill-by-fill should never lose one behind a backlog of
// snapshot ticks.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client

	fills    chan []byte // one slot per fill, never coalesced
	snapshot chan []byte // capacity 1: newest snapshot replaces any pending one

	mu     sync.RWMutex
	logger *slog.Logger
}

// Client represents a connected WebSocket client
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a new WebSocket hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		fills:      make(chan []byte, 256),
		snapshot:   make(chan []byte, 1),
		logger:     logger.With("component", "ws-hub"),
	}
}

// Run starts the hub's main loop (should be called in a goroutine)
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Info("client connected", "count", len(h.clients))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Info("client disconnected", "count", len(h.clients))

		case message := <-h.fills:
			h.deliver(message)

		case message := <-h.snapshot:
			// Fills that queued up while this snapshot was pending are all
			// delivered first, so none waits behind stale pricing state.
			for drained := false; !drained; {
				select {
				case pending := <-h.fills:
					h.deliver(pending)
				default:
					drained = true
				}
			}
			h.deliver(message)
		}
	}
}

// deliver fans a marshaled message out to every connected client, dropping
// any client whose send buffer is already full rather than blocking the
// hub on a slow reader.
func (h *Hub) deliver(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
}

// BroadcastFill sends a fill notification to all connected clients. Fills
// are queued rather than coalesced — unlike a pricing snapshot, each one is
// a distinct event a client tracking inventory needs to see, so an earlier
// undelivered fill is never silently replaced by a later one.
func (h *Hub) BroadcastFill(fill FillView) {
	data, err := json.Marshal(DashboardEvent{Type: "fill", Timestamp: time.Now(), Data: fill})
	if err != nil {
		h.logger.Error("failed to marshal fill event", "error", err)
		return
	}
	select {
	case h.fills <- data:
	default:
		h.logger.Warn("fill channel full, dropping fill notification", "order_id", fill.OrderID)
	}
}

// BroadcastSnapshot pushes the latest pricing/ladder snapshot to all
// connected clients, replacing any snapshot still waiting to be picked up
// by the hub's loop — a client only ever needs the current state, not a
// history of ticks it fell behind on.
func (h *Hub) BroadcastSnapshot(snapshot DashboardSnapshot) {
	data, err := json.Marshal(DashboardEvent{Type: "snapshot", Timestamp: time.Now(), Data: snapshot})
	if err != nil {
		h.logger.Error("failed to marshal snapshot", "error", err)
		return
	}

	select {
	case h.snapshot <- data:
		return
	default:
	}

	// A snapshot is already pending delivery; swap it for the newer one.
	select {
	case <-h.snapshot:
	default:
	}
	select {
	case h.snapshot <- data:
	default:
	}
}

// sendTo marshals evt and delivers it to a single client, used to prime a
// newly connected client with the current state without waiting for the
// next periodic broadcast.
func (h *Hub) sendTo(client *Client, evt DashboardEvent) {
	data, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("failed to marshal event for new client", "error", err)
		return
	}
	select {
	case client.send <- data:
	default:
		h.logger.Warn("failed to send initial payload to new client")
	}
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024 // 512 KB
)

// writePump pumps messages from the hub to the websocket connection
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
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Error("websocket error", "error", err)
			}
			break
		}
		// Dashboard is read-only, ignore any client messages
	}
}

// NewClient creates a new WebSocket client and starts its pumps
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	client := &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	client.hub.register <- client

	// Start pumps
	go client.writePump()
	go client.readPump()

	return client
}
