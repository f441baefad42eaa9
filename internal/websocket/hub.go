package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/scythe504/sketchguess-backend/internal"
	"github.com/scythe504/sketchguess-backend/internal/game"
	"github.com/scythe504/sketchguess-backend/internal/utils"
)

// =============================================================================
// HUB
// =============================================================================

const (
	DefaultRatePerSecond = 5
	DefaultRateBurst     = 10
)

// Hub owns the live websocket connections and routes their messages to
// rooms in the registry.
type Hub struct {
	mu    sync.Mutex
	conns map[string]sender

	registry *game.Registry
	bindings *game.Bindings
	upgrader websocket.Upgrader
	validate *validator.Validate
	log      *slog.Logger

	maxPlayers int
	ratePerSec rate.Limit
	burst      int
	limiters   *ipLimiters
}

type Option func(*Hub)

func WithLogger(log *slog.Logger) Option {
	return func(h *Hub) { h.log = log }
}

func WithMaxPlayers(n int) Option {
	return func(h *Hub) { h.maxPlayers = n }
}

// WithRateLimit sets the inbound message budget per client address.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(h *Hub) {
		h.ratePerSec = rate.Limit(perSecond)
		h.burst = burst
	}
}

// WithAllowedOrigin restricts upgrades to one Origin. "*" allows any.
func WithAllowedOrigin(origin string) Option {
	return func(h *Hub) {
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			return origin == "*" || r.Header.Get("Origin") == origin
		}
	}
}

func NewHub(reg *game.Registry, opts ...Option) *Hub {
	h := &Hub{
		conns:    make(map[string]sender),
		registry: reg,
		bindings: reg.Bindings(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		validate:   validator.New(),
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxPlayers: internal.MaxPlayersPerRoom,
		ratePerSec: DefaultRatePerSecond,
		burst:      DefaultRateBurst,
		limiters:   newIPLimiters(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeWS upgrades the request and serves the connection until it closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	ip := clientIP(r)
	c := newClient(utils.GenerateID(), ip, conn, h.limiters.acquire(ip, h.ratePerSec, h.burst), h.log)
	h.register(c)
	go c.writePump()

	h.sendTo(c, internal.MsgInitSync, internal.InitSyncData{ServerTime: time.Now().UnixMilli()})

	c.readPump(func(raw []byte) {
		if !c.limiter.Allow() {
			h.sendError(c, "Too many requests. Slow down!")
			return
		}
		h.handleMessage(c, raw)
	})

	h.disconnect(c)
}

// Broadcast sends a room snapshot to every member with a live connection.
// It is the sink handed to every room and never blocks.
func (h *Hub) Broadcast(state internal.GameState) {
	payload, err := json.Marshal(internal.Message[internal.GameState]{
		Type: internal.MsgGameUpdate,
		Data: state,
	})
	if err != nil {
		h.log.Error("Failed to encode game update", "room", state.ID, "error", err)
		return
	}

	for clientID := range state.Players {
		connID, ok := h.bindings.ConnOf(clientID)
		if !ok {
			continue
		}
		s, ok := h.conn(connID)
		if !ok {
			continue
		}
		if !s.Send(payload) {
			h.log.Warn("Dropping slow connection", "conn", connID, "client", clientID, "room", state.ID)
			s.Close()
		}
	}
}

// ConnCount returns the number of open connections.
func (h *Hub) ConnCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// CloseAll closes every connection, used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	conns := make([]sender, 0, len(h.conns))
	for _, s := range h.conns {
		conns = append(conns, s)
	}
	h.mu.Unlock()

	for _, s := range conns {
		s.Close()
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.conns[c.id] = c
	n := len(h.conns)
	h.mu.Unlock()
	h.log.Info("Connection opened", "conn", c.id, "ip", c.ip, "conns", n)
}

func (h *Hub) conn(connID string) (sender, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.conns[connID]
	return s, ok
}

// disconnect drops the connection and marks its player offline. A client
// that already reconnected on another socket is left alone.
func (h *Hub) disconnect(c *client) {
	c.Close()

	h.mu.Lock()
	delete(h.conns, c.id)
	h.mu.Unlock()
	h.limiters.release(c.ip)

	clientID, roomID, ok := h.bindings.Unbind(c.id)
	if !ok {
		h.log.Info("Connection closed", "conn", c.id)
		return
	}
	if room, found := h.registry.ByID(roomID); found {
		room.SetConnectionStatus(clientID, false)
	}
	h.log.Info("Connection closed", "conn", c.id, "client", clientID, "room", roomID)
}

func (h *Hub) sendTo(s sender, msgType string, data any) {
	payload, err := json.Marshal(internal.Message[any]{Type: msgType, Data: data})
	if err != nil {
		h.log.Error("Failed to encode message", "type", msgType, "error", err)
		return
	}
	s.Send(payload)
}

func (h *Hub) sendError(s sender, message string) {
	h.sendTo(s, internal.MsgError, internal.ErrorData{Message: message})
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.ServeWS(w, r)
}
