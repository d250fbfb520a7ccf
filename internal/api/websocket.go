package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"coinpilot/internal/events"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser dashboards connect cross-origin in development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

// WSClient is one connected websocket consumer.
type WSClient struct {
	conn   *websocket.Conn
	send   chan []byte
	userID string
}

// WSHub fans events out to connected websocket clients. Events carrying
// a user ID go only to that user's connections; the rest broadcast.
type WSHub struct {
	mu         sync.RWMutex
	clients    map[*WSClient]bool
	register   chan *WSClient
	unregister chan *WSClient
	broadcast  chan events.Event
	stop       chan struct{}
	stopOnce   sync.Once
	logger     zerolog.Logger
}

func NewWSHub(bus *events.Bus, logger zerolog.Logger) *WSHub {
	hub := &WSHub{
		clients:    make(map[*WSClient]bool),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
		broadcast:  make(chan events.Event, 4096),
		stop:       make(chan struct{}),
		logger:     logger.With().Str("component", "ws-hub").Logger(),
	}

	bus.SubscribeAll(func(event events.Event) {
		select {
		case hub.broadcast <- event:
		default:
			hub.logger.Warn().Str("type", string(event.Type)).Msg("event dropped, broadcast buffer full")
		}
	})

	return hub
}

// Run processes registrations and event fan-out until Stop is called.
func (h *WSHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info().Str("user", client.userID).Int("clients", count).Msg("websocket connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info().Str("user", client.userID).Int("clients", count).Msg("websocket disconnected")

		case event := <-h.broadcast:
			h.deliver(event)

		case <-h.stop:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *WSHub) deliver(event events.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Msg("event marshal failed")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if event.UserID != "" && client.userID != event.UserID {
			continue
		}
		select {
		case client.send <- payload:
		default:
			// Slow consumer; drop the message rather than block the hub.
		}
	}
}

func (h *WSHub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// handleWebSocket upgrades the connection and pumps events to it. The
// user ID comes from the X-User-ID header or a userId query parameter.
func (s *Server) handleWebSocket(c *gin.Context) {
	uid := c.GetHeader("X-User-ID")
	if uid == "" {
		uid = c.Query("userId")
	}
	if uid == "" {
		uid = "demo"
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &WSClient{
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: uid,
	}
	s.hub.register <- client

	go client.writePump()
	go client.readPump(s.hub)
}

func (c *WSClient) writePump() {
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

// readPump drains inbound frames so pongs and close frames are processed.
// Client messages carry no commands today.
func (c *WSClient) readPump(hub *WSHub) {
	defer func() {
		hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(1024)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
