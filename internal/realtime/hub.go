// Package realtime pushes refresh events to websocket clients subscribed to
// a group, so open clients reload the roster after joins, kicks, leaves and
// deletions.
package realtime

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Refresh reasons sent to clients.
const (
	ReasonMembersChanged = "members_changed"
	ReasonGroupUpdated   = "group_updated"
	ReasonGroupDeleted   = "group_deleted"
)

// Event is the JSON frame written to subscribers.
type Event struct {
	Type    string `json:"type"`
	GroupID string `json:"group_id"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

type client struct {
	conn   *websocket.Conn
	userID uint
	mu     sync.Mutex // serializes writes; gorilla allows one concurrent writer
}

func (c *client) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

func (c *client) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

// Hub tracks websocket connections per group.
type Hub struct {
	upgrader websocket.Upgrader
	log      *zap.Logger

	mu      sync.RWMutex
	clients map[uint]map[*client]struct{}
}

// NewHub returns a hub accepting upgrades from the given origins.
func NewHub(allowedOrigins []string, log *zap.Logger) *Hub {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
		log:     log,
		clients: make(map[uint]map[*client]struct{}),
	}
}

// Subscribers returns the number of open connections for a group.
func (h *Hub) Subscribers(groupID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[groupID])
}

// BroadcastRefresh tells every subscriber of groupID to reload. Connections
// that fail to receive the event are dropped.
func (h *Hub) BroadcastRefresh(groupID uint, reason string) {
	h.mu.RLock()
	subscribers := make([]*client, 0, len(h.clients[groupID]))
	for c := range h.clients[groupID] {
		subscribers = append(subscribers, c)
	}
	h.mu.RUnlock()

	if len(subscribers) == 0 {
		return
	}

	event := Event{
		Type:    "refresh",
		GroupID: strconv.FormatUint(uint64(groupID), 10),
		Reason:  reason,
		Message: "Group data updated",
	}

	for _, c := range subscribers {
		if err := c.writeJSON(event); err != nil {
			h.log.Warn("failed to broadcast refresh", zap.Uint("group_id", groupID), zap.Error(err))
			h.remove(groupID, c)
			c.conn.Close()
		}
	}
}

// Drop closes every connection userID holds on groupID. Used once the user
// stops being a participant of the group.
func (h *Hub) Drop(groupID, userID uint) {
	h.mu.Lock()
	var dropped []*client
	for c := range h.clients[groupID] {
		if c.userID == userID {
			dropped = append(dropped, c)
			delete(h.clients[groupID], c)
		}
	}
	if len(h.clients[groupID]) == 0 {
		delete(h.clients, groupID)
	}
	h.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "removed from group")
	for _, c := range dropped {
		if err := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
			h.log.Debug("failed to send close frame", zap.Uint("group_id", groupID), zap.Error(err))
		}
		c.conn.Close()
	}
}

// Serve upgrades the request and keeps the connection of userID subscribed
// to groupID until the client goes away or is dropped. It blocks for the
// connection's lifetime.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, groupID, userID uint) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, userID: userID}
	log := h.log.With(zap.Uint("group_id", groupID), zap.Uint("user_id", userID))

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Warn("failed to set initial read deadline", zap.Error(err))
		conn.Close()
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	h.add(groupID, c)
	defer func() {
		h.remove(groupID, c)
		conn.Close()
		log.Debug("websocket connection closed")
	}()

	err = c.writeJSON(Event{
		Type:    "connected",
		GroupID: strconv.FormatUint(uint64(groupID), 10),
		Message: "WebSocket connection established",
	})
	if err != nil {
		log.Warn("failed to send welcome message", zap.Error(err))
		return
	}

	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := c.ping(); err != nil {
					log.Debug("ping failed", zap.Error(err))
					return
				}
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn("websocket error", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) add(groupID uint, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[groupID] == nil {
		h.clients[groupID] = make(map[*client]struct{})
	}
	h.clients[groupID][c] = struct{}{}
}

func (h *Hub) remove(groupID uint, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.clients[groupID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.clients, groupID)
		}
	}
}
