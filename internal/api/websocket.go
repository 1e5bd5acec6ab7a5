package api

import (
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"ironfront/internal/rts"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP is the maximum WebSocket connections per IP
	MaxWSConnectionsPerIP = 10

	broadcastInterval = 50 * time.Millisecond // 20Hz, subsampled relative to the 60Hz sim

	// maxInputsPerSecond caps how fast one session can push rtsInput
	// frames into its game's tick queue; excess frames are dropped.
	maxInputsPerSecond = 30
	inputBurst         = 60
)

// wsOriginAllowed permits local development hosts; a production deploy
// fronts this server with its own origin policy at the proxy.
func wsOriginAllowed(origin string) bool {
	return strings.HasPrefix(origin, "http://localhost") ||
		strings.HasPrefix(origin, "http://127.0.0.1")
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if wsOriginAllowed(origin) {
			return true
		}
		log.Printf("websocket connection rejected from origin: %s", origin)
		RecordConnectionRejected("origin")
		return false
	},
}

// wsEnvelope is both the inbound and outbound message shape: "type" tags
// the payload, and an rtsInput message carries its fields inline rather
// than nested (§6 inbound message).
type wsEnvelope struct {
	Type string `json:"type"`
	rts.RTSInput
}

// hubClient is one connected session inside a gameHub.
type hubClient struct {
	conn      *websocket.Conn
	ip        string
	team      rts.Team
	factionID rts.EntityID

	writeMu sync.Mutex
}

func (c *hubClient) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return c.conn.WriteJSON(v)
}

// gameHub multiplexes every session connected to one game: a single
// broadcast loop reads Game.SnapshotForTeam per client (never touching
// live entities) and a single watcher forwards the one-shot gameOver
// signal to every client, matching the teacher's single-broadcast-loop
// hub shape generalized to per-game scope.
type gameHub struct {
	gameID string
	game   *rts.Game

	mu      sync.Mutex
	clients map[*hubClient]bool

	stopOnce sync.Once
	stopCh   chan struct{}
}

func newGameHub(gameID string, g *rts.Game, onDone func()) *gameHub {
	h := &gameHub{
		gameID:  gameID,
		game:    g,
		clients: make(map[*hubClient]bool),
		stopCh:  make(chan struct{}),
	}
	go h.run(onDone)
	return h
}

func (h *gameHub) add(c *hubClient) {
	h.mu.Lock()
	h.clients[c] = true
	n := len(h.clients)
	h.mu.Unlock()
	UpdateWSConnections(n)
}

func (h *gameHub) remove(c *hubClient) {
	h.mu.Lock()
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	UpdateWSConnections(n)
}

func (h *gameHub) snapshot() []*hubClient {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*hubClient, 0, len(h.clients))
	for c := range h.clients {
		out = append(out, c)
	}
	return out
}

// run is the hub's only goroutine: it owns the broadcast ticker and the
// one-shot game-over watch, and never reads g.Entities directly. onDone
// fires exactly once, however the loop exits, so the owning server can
// drop this hub from its registry.
func (h *gameHub) run(onDone func()) {
	defer onDone()
	ticker := time.NewTicker(broadcastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopCh:
			return
		case reason := <-h.game.GameOver():
			h.broadcastGameOver(reason)
			return
		case <-ticker.C:
			h.broadcastState()
		}
	}
}

func (h *gameHub) broadcastState() {
	for _, c := range h.snapshot() {
		view := h.game.SnapshotForTeam(c.team)
		if err := c.writeJSON(map[string]interface{}{
			"type":      "gameState",
			"tick":      view.Tick,
			"worldWidth": view.WorldW,
			"worldHeight": view.WorldH,
			"visionRange": h.game.Config.VisionRadius,
			"biome":       h.game.Config.Biome,
			"units":      view.Units,
			"buildings":  view.Buildings,
			"obstacles":  view.Obstacles,
			"wallSegments": view.WallSegments,
			"projectiles": view.Projectiles,
			"beams":       view.Beams,
			"fieldEffects": view.FieldEffects,
			"factions":    view.Factions,
		}); err != nil {
			c.conn.Close()
			continue
		}
		for _, n := range h.game.DrainNotices(c.factionID) {
			c.writeJSON(map[string]interface{}{
				"type":            "gameEvent",
				"message":         n.Message,
				"category":        n.Category,
				"color":           n.Color,
				"displayDuration": n.DisplayDuration,
			})
		}
		IncrementWSMessages()
	}
}

func (h *gameHub) broadcastGameOver(reason rts.GameOverReason) {
	for _, c := range h.snapshot() {
		c.writeJSON(map[string]interface{}{
			"type":        "gameOver",
			"winningTeam": reason.WinningTeam,
			"reason":      reason.Reason,
		})
		c.conn.Close()
	}
}

func (h *gameHub) stop() {
	h.stopOnce.Do(func() { close(h.stopCh) })
}

// WSServer owns every per-game hub, lazily created on first connection
// and torn down once its game ends.
type WSServer struct {
	lobby LobbyInterface

	mu   sync.Mutex
	hubs map[string]*gameHub

	connCap     *ConnCap
	totalMu     sync.Mutex
	totalActive int
}

func NewWSServer(lobby LobbyInterface) *WSServer {
	return &WSServer{
		lobby:   lobby,
		hubs:    make(map[string]*gameHub),
		connCap: NewConnCap(MaxWSConnectionsPerIP),
	}
}

func (s *WSServer) hubFor(gameID string, g *rts.Game) *gameHub {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.hubs[gameID]; ok {
		return h
	}
	h := newGameHub(gameID, g, func() {
		s.mu.Lock()
		delete(s.hubs, gameID)
		s.mu.Unlock()
	})
	s.hubs[gameID] = h
	return h
}

// HandleWebSocket upgrades the per-game connection at /rts/{gameId},
// validating the session token handed out at matchmaking time before
// accepting any input from the client (§4.8).
func (s *WSServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameId")
	sessionToken := r.URL.Query().Get("sessionToken")

	res, err := s.lobby.ResolveSession(gameID, sessionToken)
	if err != nil {
		http.Error(w, "invalid session", http.StatusUnauthorized)
		return
	}
	g, err := s.lobby.Resolve(gameID)
	if err != nil {
		http.Error(w, "game not ready", http.StatusConflict)
		return
	}

	ip := clientIP(r)

	s.totalMu.Lock()
	total := s.totalActive
	s.totalMu.Unlock()
	if total >= MaxWSConnectionsTotal {
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}
	if !s.connCap.Acquire(ip) {
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.connCap.Release(ip)
		return
	}

	client := &hubClient{conn: conn, ip: ip, team: rts.Team(res.Slot), factionID: res.FactionID}

	s.totalMu.Lock()
	s.totalActive++
	s.totalMu.Unlock()

	hub := s.hubFor(gameID, g)
	hub.add(client)

	client.writeJSON(map[string]interface{}{"type": "playerId", "playerId": res.FactionID})

	go s.readLoop(hub, client, g)
}

// readLoop decodes every inbound frame and, for anything but a ping,
// applies it inside the tick via Enqueue (§5 input ordering: inputs are
// applied atomically at the next tick's start).
func (s *WSServer) readLoop(hub *gameHub, c *hubClient, g *rts.Game) {
	defer func() {
		hub.remove(c)
		s.connCap.Release(c.ip)
		s.totalMu.Lock()
		s.totalActive--
		s.totalMu.Unlock()
		c.conn.Close()
	}()

	factionID := c.factionID
	inputLimiter := rate.NewLimiter(maxInputsPerSecond, inputBurst)
	for {
		var env wsEnvelope
		if err := c.conn.ReadJSON(&env); err != nil {
			return
		}
		if env.Type == "ping" {
			c.writeJSON(map[string]string{"type": "pong"})
			continue
		}
		if !inputLimiter.Allow() {
			continue // flooding session, drop the frame rather than the sim
		}
		input := env.RTSInput
		g.Enqueue(rts.InputCommand{
			SessionID: c.ip,
			FactionID: factionID,
			Apply: func(g *rts.Game) {
				rts.ApplyInput(g, factionID, input)
			},
		})
	}
}
