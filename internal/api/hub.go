/*
Package api
File: hub.go
Description:

	The WebSocket Hub is the event loop of the server.

	It owns the registry of connected clients and the Coordinator, and it is
	the only goroutine that touches either. Reads from every socket funnel into
	one inbound channel, so the Coordinator sees events strictly in arrival
	order and needs no locks.

	Architecture:
	- Hub: the loop (register, unregister, inbound frames, read queries).
	  A registered client is greeted with its player id.
	- Client: one socket with its read and write pumps.
	- ServeWs: the HTTP handler that upgrades a GET to a WebSocket.
*/
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/everforgeworks/domefall/internal/game"
)

// ErrHubStopped is returned by queries after the loop has exited.
var ErrHubStopped = errors.New("hub stopped")

// HubConfig tunes the per-connection transport.
type HubConfig struct {
	SendBuffer   int
	PingInterval time.Duration
	PongWait     time.Duration
	WriteWait    time.Duration
	MaxFrame     int64
}

// DefaultHubConfig matches the settings defaults.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		SendBuffer:   256,
		PingInterval: 25 * time.Second,
		PongWait:     60 * time.Second,
		WriteWait:    10 * time.Second,
		MaxFrame:     1 << 20,
	}
}

// Client is one connected player.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte // outbound frames; closed by the hub
}

type frame struct {
	client *Client
	data   []byte
}

// Hub maintains the connected clients and drives the Coordinator.
type Hub struct {
	log   zerolog.Logger
	cfg   HubConfig
	coord *Coordinator

	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	inbound    chan frame
	queries    chan func()
	done       chan struct{}

	// clients dropped by Send during the current event
	evicted []string
}

// NewHub creates the hub and its Coordinator. Run must be started before
// ServeWs is used.
func NewHub(log zerolog.Logger, cfg HubConfig, rules *game.Rules, arbiter game.Arbiter, metrics *Metrics) *Hub {
	def := DefaultHubConfig()
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = def.PingInterval
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = def.PongWait
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = def.WriteWait
	}
	if cfg.MaxFrame <= 0 {
		cfg.MaxFrame = def.MaxFrame
	}
	h := &Hub{
		log:        log.With().Str("component", "hub").Logger(),
		cfg:        cfg,
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan frame),
		queries:    make(chan func()),
		done:       make(chan struct{}),
	}
	h.coord = NewCoordinator(log, h, rules, arbiter, metrics)
	return h
}

// Coordinator exposes the hub's Coordinator. Only Rules and SetRules are safe
// outside the loop.
func (h *Hub) Coordinator() *Coordinator { return h.coord }

// Run is the hub loop. It blocks until ctx is cancelled, then closes every
// connection.
func (h *Hub) Run(ctx context.Context) error {
	defer func() {
		close(h.done)
		for id, c := range h.clients {
			close(c.send)
			delete(h.clients, id)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case c := <-h.register:
			h.clients[c.id] = c
			h.log.Info().Str("client", c.id).Int("clients", len(h.clients)).Msg("connection registered")
			h.coord.send(c.id, MsgWelcome, Welcome{PlayerID: c.id})

		case c := <-h.unregister:
			// Already gone if Send evicted it.
			if _, ok := h.clients[c.id]; ok {
				delete(h.clients, c.id)
				close(c.send)
				h.log.Info().Str("client", c.id).Msg("connection closed")
				h.coord.Disconnect(c.id)
			}

		case f := <-h.inbound:
			if _, live := h.clients[f.client.id]; !live {
				break
			}
			msg, err := DecodeInbound(f.data)
			if err != nil {
				h.log.Warn().Err(err).Str("client", f.client.id).Msg("dropping frame")
				break
			}
			h.coord.Handle(f.client.id, msg)

		case fn := <-h.queries:
			fn()
		}
		h.flushEvictions()
	}
}

// Send queues a frame for one client. It never blocks: a client whose buffer
// is full is dropped and treated as disconnected. Loop goroutine only.
func (h *Hub) Send(clientID string, data []byte) {
	c, ok := h.clients[clientID]
	if !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		h.log.Warn().Str("client", clientID).Msg("send buffer full, dropping client")
		close(c.send)
		delete(h.clients, clientID)
		h.evicted = append(h.evicted, clientID)
	}
}

func (h *Hub) flushEvictions() {
	for len(h.evicted) > 0 {
		id := h.evicted[0]
		h.evicted = h.evicted[1:]
		h.coord.Disconnect(id)
	}
}

// Query runs fn on the hub loop and waits for it.
func (h *Hub) Query(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	wrapped := func() {
		fn()
		close(ran)
	}
	select {
	case h.queries <- wrapped:
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-ran
	return nil
}

// Status reads the lobby state through the loop.
func (h *Hub) Status(ctx context.Context) (LobbyStatus, error) {
	var st LobbyStatus
	err := h.Query(ctx, func() { st = h.coord.Status() })
	return st, err
}

// upgrader configures the WebSocket handshake.
// CheckOrigin returns true to allow connections from any host.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWs upgrades the request and starts the client's pumps. The connection
// identity is assigned here and is the player id for the rest of its life.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade")
		return
	}

	c := &Client{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, max(1, h.cfg.SendBuffer)),
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump forwards frames to the hub until the socket fails.
func (c *Client) readPump() {
	h := c.hub
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(h.cfg.MaxFrame)
	_ = c.conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Debug().Err(err).Str("client", c.id).Msg("read")
			}
			return
		}
		select {
		case h.inbound <- frame{client: c, data: data}:
		case <-h.done:
			return
		}
	}
}

// writePump drains the send channel and keeps the connection alive with
// pings. It exits when the hub closes the channel.
func (c *Client) writePump() {
	h := c.hub
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
