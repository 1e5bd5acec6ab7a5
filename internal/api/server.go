package api

import (
	"log"
	"net/http"
	"time"

	"ironfront/internal/rts"

	"github.com/go-chi/chi/v5"
)

const metricsPollInterval = 2 * time.Second

// Server is the HTTP API server with per-game WebSocket support. It
// combines the chi router with the WSServer that multiplexes every
// active game's broadcast loop.
type Server struct {
	lobby               *rts.Lobby
	router              *chi.Mux
	wsServer            *WSServer
	throttle            *Throttle
	matchmakingThrottle *Throttle
	stopMetrics         chan struct{}
}

// NewServer creates a new API server with default production configuration
// and no operator auth (the admin surface stays open, for local use).
//
// The lobby sweeper, per-game tick loops, and metrics poller are already
// running by construction time; only the network listener waits for
// Start(). This lets tests drive the router via httptest without ever
// calling Start().
//
// For testing HTTP endpoints without WebSocket support, use NewRouter() directly.
func NewServer(lobby *rts.Lobby, cfgTemplate rts.GameConfig) *Server {
	return NewServerWithAuth(lobby, cfgTemplate, "")
}

// NewServerWithAuth creates an API server whose admin surface (stats,
// force-end) is gated behind the given operator key. An empty key leaves
// the surface open.
func NewServerWithAuth(lobby *rts.Lobby, cfgTemplate rts.GameConfig, operatorKey string) *Server {
	s := &Server{
		lobby:       lobby,
		wsServer:    NewWSServer(lobby),
		stopMetrics: make(chan struct{}),
	}

	s.throttle = NewThrottle(ThrottleAPI)
	s.matchmakingThrottle = NewThrottle(ThrottleMatchmaking)

	var operator *OperatorAuth
	if operatorKey != "" {
		operator = NewOperatorAuth(operatorKey)
	}

	s.router = NewRouter(RouterConfig{
		Lobby:               lobby,
		GameConfigTemplate:  cfgTemplate,
		Throttle:            s.throttle,
		MatchmakingThrottle: s.matchmakingThrottle,
		Operator:            operator,
		WSHandler:           s.wsServer.HandleWebSocket,
	})

	go s.pollMetrics()

	return s
}

// pollMetrics periodically pulls aggregate lobby stats into the
// Prometheus gauges (§12). The lobby itself never touches these metrics
// types, keeping rts free of an api import.
func (s *Server) pollMetrics() {
	ticker := time.NewTicker(metricsPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopMetrics:
			return
		case <-ticker.C:
			st := s.lobby.Stats()
			UpdateActiveGameCount(st.ActiveGames)
			UpdateFactionCount(st.Factions)
			UpdateUnitCount(st.Units)
			UpdateEventLogStats(st.EventsTotal, st.EventsDropped)
			RecordTick(st.AvgTick)
		}
	}
}

// Start begins the HTTP server. Background workers (the lobby sweeper,
// per-game tick loops) are already running by construction time; this
// is the only method that opens a network listener.
//
// Call this method only once. To stop the server, signal the process.
func (s *Server) Start(addr string) error {
	log.Printf("API server starting on %s", addr)
	log.Printf("Admin panel: http://localhost%s/admin", addr)
	return http.ListenAndServe(addr, s.router)
}

// Router returns the HTTP handler for use with httptest.
// Use this in integration tests instead of calling Start().
//
// Example:
//
//	server := api.NewServer(lobby, cfgTemplate)
//	ts := httptest.NewServer(server.Router())
//	defer ts.Close()
//	resp, _ := http.Get(ts.URL + "/api/rts/factions/armored")
func (s *Server) Router() http.Handler {
	return s.router
}

// Stop performs graceful shutdown of background workers.
func (s *Server) Stop() {
	close(s.stopMetrics)
	if s.throttle != nil {
		s.throttle.Stop()
	}
	if s.matchmakingThrottle != nil {
		s.matchmakingThrottle.Stop()
	}
	s.lobby.Shutdown()
}
