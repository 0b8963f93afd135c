package ws

import (
	"context"
	"log/slog"
	"sync"

	"schnicken/internal/domain"
	"schnicken/internal/logger"
	"schnicken/internal/service"

	"github.com/prometheus/client_golang/prometheus"
)

var Connections = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "schnicken_ws_connections",
		Help: "Open WebSocket connections",
	},
)

func init() {
	prometheus.MustRegister(Connections)
}

// Actions is what a connected player may do over the socket.
type Actions interface {
	SubmitNumber(ctx context.Context, gameID, playerID string, round domain.Round, value int) (*service.SubmitResult, error)
	SetWager(ctx context.Context, gameID, playerID string, wager int) (*domain.Game, error)
}

// Hub keeps the open connections per player and pushes game events to both
// participants of a game. A player may have several connections.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	actions Actions
	log     *slog.Logger
}

func NewHub(actions Actions) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		actions: actions,
		log:     logger.With("component", "ws"),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	set, ok := h.clients[c.PlayerID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.PlayerID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()

	Connections.Inc()
	h.log.Debug("client registered", "player_id", c.PlayerID)
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	set, ok := h.clients[c.PlayerID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := set[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.PlayerID)
	}
	h.mu.Unlock()

	c.closeSend()
	Connections.Dec()
	h.log.Debug("client unregistered", "player_id", c.PlayerID)
}

// Connected returns the number of open connections of playerID.
func (h *Hub) Connected(playerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[playerID])
}

// HandleEvent is an events.Handler: it sends e to both players of the game.
func (h *Hub) HandleEvent(_ context.Context, e domain.Event) {
	g := e.Snapshot()
	if g == nil {
		return
	}
	for _, playerID := range g.Players() {
		msg, ok, err := eventMessage(e, playerID)
		if err != nil {
			h.log.Error("encode event", "type", e.Type(), "game_id", g.ID, "error", err)
			return
		}
		if ok {
			h.SendTo(playerID, msg)
		}
	}
}

// SendTo queues msg on every connection of playerID. Connections whose
// buffer is full are dropped.
func (h *Hub) SendTo(playerID string, msg []byte) {
	h.mu.RLock()
	var slow []*Client
	for c := range h.clients[playerID] {
		if !c.trySend(msg) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn("dropping slow client", "player_id", c.PlayerID)
		h.Unregister(c)
	}
}
