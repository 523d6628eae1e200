package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	applog "invoicing/internal/log"
	"invoicing/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	EventInvoiceCreated = "invoice.created"
	EventInvoiceUpdated = "invoice.updated"
	EventInvoiceDeleted = "invoice.deleted"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for dev simplicity
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Event is the JSON frame pushed to clients
type Event struct {
	Type    string    `json:"type"`
	AgentID uuid.UUID `json:"agent_id"`
	Data    any       `json:"data"`
	At      time.Time `json:"at"`
}

// Client represents a single connected WebSocket client
type Client struct {
	Hub      *Hub
	Conn     *websocket.Conn
	Send     chan []byte
	AgentID  uuid.UUID
	Director bool
}

type delivery struct {
	owner uuid.UUID
	data  []byte
}

// Hub maintains the set of active clients and routes invoice events to the
// owning agent and to every director.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan delivery
	register   chan *Client
	unregister chan *Client
	done       chan struct{} // closed when Run returns
	logger     *applog.Logger
}

// NewHub initializes a new WS Hub instance
func NewHub(logger *applog.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan delivery, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		logger:     logger.WithComponent(applog.ComponentWebsocket),
	}
}

// Run starts the dispatch loop. It returns when ctx is done, closing every
// client's send queue. Run must be called at most once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("websocket client connected", applog.FieldAgentID, client.AgentID.String())
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.logger.Debug("websocket client disconnected", applog.FieldAgentID, client.AgentID.String())
			}
		case msg := <-h.broadcast:
			for client := range h.clients {
				if !client.Director && client.AgentID != msg.owner {
					continue
				}
				select {
				case client.Send <- msg.data:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// join adds c to the hub. It reports false once the hub has stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// leave removes c. After shutdown Run has already dropped every client.
func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish queues an event for the owning agent and all directors. Events are
// dropped when the queue is full.
func (h *Hub) Publish(eventType string, owner uuid.UUID, data any) {
	payload, err := json.Marshal(Event{Type: eventType, AgentID: owner, Data: data, At: time.Now()})
	if err != nil {
		h.logger.Error("failed to encode websocket event", applog.FieldError, err)
		return
	}
	select {
	case h.broadcast <- delivery{owner: owner, data: payload}:
	default:
		h.logger.Warn("websocket queue full, dropping event", "type", eventType)
	}
}

// writePump handles writing messages from the Hub to the WebSocket connection
func (c *Client) writePump() {
	defer func() {
		_ = c.Conn.Close()
	}()
	for message := range c.Send {
		w, err := c.Conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		_, _ = w.Write(message)

		// Fast track writing queued messages
		n := len(c.Send)
		for i := 0; i < n; i++ {
			_, _ = w.Write([]byte{'\n'})
			_, _ = w.Write(<-c.Send)
		}

		if err := w.Close(); err != nil {
			return
		}
	}
	_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump drains the connection until the peer goes away
func (c *Client) readPump() {
	defer func() {
		c.Hub.leave(c)
		_ = c.Conn.Close()
	}()
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("websocket read failed", applog.FieldError, err)
			}
			return
		}
	}
}

// Authenticator resolves a bearer token to its live session.
type Authenticator func(ctx context.Context, token string) (*session.Session, error)

// ServeWs upgrades an authenticated request. The token comes from the
// token query parameter since browsers cannot set headers on websocket dials.
func ServeWs(hub *Hub, c *gin.Context, authenticate Authenticator) {
	tokenString := c.Query("token")
	if tokenString == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	sess, err := authenticate(c.Request.Context(), tokenString)
	if err != nil {
		hub.logger.Info("websocket connection rejected", applog.FieldError, err)
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.logger.Warn("websocket upgrade failed", applog.FieldError, err)
		return
	}
	client := &Client{
		Hub:      hub,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		AgentID:  sess.AgentID,
		Director: sess.IsDirector(),
	}
	if !hub.join(client) {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
