package web

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/justestif/go-moodify/internal/flow"
	"github.com/justestif/go-moodify/internal/history"
)

const (
	pingInterval  = 30 * time.Second
	readDeadline  = 60 * time.Second
	writeDeadline = 10 * time.Second
	sendBuffer    = 64
)

// Event types pushed to websocket clients.
const (
	EventFlowState       = "flow.state"
	EventSessionAppended = "session.appended"
	EventHistoryCleared  = "history.cleared"
)

// Event is a message pushed to a visitor's open pages.
type Event struct {
	Type      string `json:"type"`
	Payload   any    `json:"payload,omitempty"`
	Timestamp string `json:"timestamp"`
}

// SessionPayload is the payload of session.appended.
type SessionPayload struct {
	Session history.Session `json:"session"`
	Label   string          `json:"label"`
	Emoji   string          `json:"emoji"`
	Link    string          `json:"link"`
	HTML    string          `json:"html,omitempty"`
}

// Hub fans events out to the websocket connections of each visitor.
type Hub struct {
	upgrader websocket.Upgrader
	log      *zap.Logger

	mu      sync.RWMutex
	clients map[string]map[*wsClient]bool
}

type wsClient struct {
	conn    *websocket.Conn
	send    chan []byte
	visitor string
	hub     *Hub
}

// NewHub creates a Hub.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log:     log,
		clients: make(map[string]map[*wsClient]bool),
	}
}

// ServeWS upgrades the request and subscribes it to the visitor's events.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	visitor := visitorFrom(r.Context())
	if visitor == "" {
		http.Error(w, "Missing visitor", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &wsClient{
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		visitor: visitor,
		hub:     h,
	}

	h.mu.Lock()
	if h.clients[visitor] == nil {
		h.clients[visitor] = make(map[*wsClient]bool)
	}
	h.clients[visitor][c] = true
	h.mu.Unlock()

	go c.writePump()
	go c.readPump()
}

// Publish sends an event to every connection of visitor. Slow clients drop
// events rather than block the caller.
func (h *Hub) Publish(visitor, eventType string, payload any) {
	data, err := json.Marshal(Event{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		h.log.Error("encoding event", zap.String("type", eventType), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[visitor] {
		select {
		case c.send <- data:
		default:
			h.log.Debug("client buffer full, dropping event", zap.String("type", eventType))
		}
	}
}

// Connections returns the number of open connections for visitor.
func (h *Hub) Connections(visitor string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[visitor])
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for visitor, set := range h.clients {
		for c := range set {
			close(c.send)
		}
		delete(h.clients, visitor)
	}
}

func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.visitor]
	if !ok || !set[c] {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.visitor)
	}
}

// readPump discards client messages and detects disconnects.
func (c *wsClient) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(readDeadline))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("websocket read error", zap.Error(err))
			}
			return
		}
	}
}

// writePump writes queued events and keeps the connection alive.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// visitorObserver forwards flow events for one visitor to the hub.
type visitorObserver struct {
	hub       *Hub
	visitor   string
	templates *Templates
	card      func(history.Session) SessionData
}

func (o visitorObserver) Transition(_ context.Context, t flow.Transition) {
	o.hub.Publish(o.visitor, EventFlowState, map[string]string{
		"from": t.From.String(),
		"to":   t.To.String(),
		"mood": string(t.Mood),
	})
}

func (o visitorObserver) Appended(_ context.Context, s history.Session) {
	card := o.card(s)
	payload := SessionPayload{
		Session: s,
		Label:   card.Meta.Label,
		Emoji:   card.Meta.Emoji,
		Link:    card.Link,
	}

	if o.templates != nil {
		var buf strings.Builder
		if err := o.templates.RenderPartial(&buf, "session_card", card); err != nil {
			o.hub.log.Warn("rendering session card", zap.Error(err))
		} else {
			payload.HTML = buf.String()
		}
	}

	o.hub.Publish(o.visitor, EventSessionAppended, payload)
}
