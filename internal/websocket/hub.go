package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"erp/internal/middleware"
	"erp/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// EventSnapshotUpdated is sent after a snapshot rebuild commits.
	EventSnapshotUpdated = "snapshot.updated"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 256
)

// Event is the envelope written to clients.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type message struct {
	tenantID uuid.UUID
	payload  []byte
}

// Client represents a single connected WebSocket client
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	tenantID uuid.UUID
	send     chan []byte
}

// Hub fans snapshot events out to the connected clients of the owning tenant.
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	log        *slog.Logger
	upgrader   websocket.Upgrader
}

// NewHub builds a hub. allowedOrigins empty means any origin.
func NewHub(log *slog.Logger, allowedOrigins ...string) *Hub {
	h := &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan message, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log.With("component", "websocket"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// Run dispatches until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.mu.Unlock()
			h.log.Debug("client connected", "tenant_id", client.tenantID)
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.log.Debug("client disconnected", "tenant_id", client.tenantID)
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if client.tenantID != msg.tenantID {
					continue
				}
				select {
				case client.send <- msg.payload:
				default:
					// slow consumer
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Clients counts connected clients of a tenant.
func (h *Hub) Clients(tenantID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.clients {
		if c.tenantID == tenantID {
			n++
		}
	}
	return n
}

// PublishSnapshot queues a snapshot.updated event for the snapshot's tenant.
// It never blocks the recompute worker; a full queue drops the event.
func (h *Hub) PublishSnapshot(snap *model.ProjectSnapshot) {
	payload, err := json.Marshal(Event{Type: EventSnapshotUpdated, Data: snap})
	if err != nil {
		h.log.Error("encode snapshot event", "project_id", snap.ProjectID, "error", err)
		return
	}
	select {
	case h.broadcast <- message{tenantID: snap.TenantID, payload: payload}:
	default:
		h.log.Warn("websocket broadcast queue full, event dropped", "project_id", snap.ProjectID)
	}
}

// writePump handles writing messages from the Hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains the connection so pongs and close frames are seen.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("websocket read failed", "error", err)
			}
			return
		}
	}
}

// ServeWs authenticates the token query parameter and attaches the
// connection to the caller's tenant.
func (h *Hub) ServeWs(c *gin.Context, secret []byte) {
	tokenString := c.Query("token")
	if tokenString == "" {
		h.log.Info("websocket rejected: missing token")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	id, err := middleware.ParseToken(secret, tokenString)
	if err != nil {
		h.log.Info("websocket rejected: invalid token", "error", err)
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	client := &Client{hub: h, conn: conn, tenantID: id.TenantID, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
