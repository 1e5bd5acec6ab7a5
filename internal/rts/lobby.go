package rts

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// worldSizeForPlayers is the step function from §4.8: world area grows
// with the lobby size so a 4-player map isn't as cramped as a 2-player one.
func worldSizeForPlayers(n int) float64 {
	switch {
	case n <= 2:
		return 3000
	case n == 3:
		return 3500
	default:
		return 4000
	}
}

// Reservation binds an opaque session token to a faction slot in a
// matchmaking game, issued at joinMatchmaking time and consumed once the
// WebSocket handshake presents it.
type Reservation struct {
	GameID       string
	SessionToken string
	Faction      string
	Slot         int
	FactionID    EntityID
}

// matchmakingGame is a pre-start slot holder: a Game exists underneath it
// (so production/research config can be inspected before full), but its
// tick loop does not start until every slot fills.
type matchmakingGame struct {
	game        *Game
	maxPlayers  int
	reservations []Reservation
	createdAt   time.Time
	started     bool
}

// Lobby owns every live game's lifecycle: creation, matchmaking slot
// reservation, and periodic sweeping of stale entries. Exactly one Lobby
// exists per process; it never holds its lock across a game tick (§4.8
// locking discipline) — callers only ever get references out and then
// release the lock before touching a Game.
type Lobby struct {
	mu sync.Mutex

	games       map[string]*Game
	matchmaking map[string]*matchmakingGame

	// sessions holds every issued reservation by gameId, surviving the
	// matchmaking-to-active promotion so a WebSocket handshake can still
	// resolve a session token after the game has started (§4.8).
	sessions map[string][]Reservation

	maxGames int
	cfgBase  GameConfig

	stopCh chan struct{}
}

// NewLobby constructs a lobby bounded by maxGames, using cfgBase as the
// template for every matchmaking game (WorldW/H is overridden per-game by
// worldSizeForPlayers). CreateGame uses the config its caller passes in.
func NewLobby(maxGames int, cfgBase GameConfig) *Lobby {
	l := &Lobby{
		games:       make(map[string]*Game),
		matchmaking: make(map[string]*matchmakingGame),
		sessions:    make(map[string][]Reservation),
		maxGames:    maxGames,
		cfgBase:     cfgBase,
		stopCh:      make(chan struct{}),
	}
	go l.sweepLoop()
	return l
}

// CreateGame starts a standalone game outside matchmaking (direct API
// creation), rejecting above the global cap.
func (l *Lobby) CreateGame(cfg GameConfig) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.games)+len(l.matchmaking) >= l.maxGames {
		return "", capacityErr("createGame", ErrGameFull)
	}
	id := uuid.NewString()
	g := NewGame(id, cfg)
	g.Start()
	l.games[id] = g
	return id, nil
}

// JoinMatchmaking implements §4.8: join an existing matchmaking game by
// id, or start a new one when gameID is empty. biome and density are
// config-passthrough map-generation parameters (§1 Out-of-scope: this
// core does not generate terrain from them, it only carries and echoes
// them back in the game state) set once by whoever starts the game and
// ignored on subsequent joins. Returns a Reservation whose SessionToken
// the caller hands back to the client.
func (l *Lobby) JoinMatchmaking(gameID, biome, density, faction string, maxPlayers int) (Reservation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if gameID != "" {
		mm, ok := l.matchmaking[gameID]
		if !ok {
			return Reservation{}, validationErr("joinMatchmaking", ErrGameNotFound)
		}
		if len(mm.reservations) >= mm.maxPlayers {
			return Reservation{}, capacityErr("joinMatchmaking", ErrGameFull)
		}
		for _, r := range mm.reservations {
			if r.Faction == faction {
				return Reservation{}, validationErr("joinMatchmaking", ErrFactionTaken)
			}
		}
		slot := len(mm.reservations)
		res := Reservation{
			GameID: gameID, SessionToken: uuid.NewString(),
			Faction: faction, Slot: slot,
		}
		f := mm.game.SpawnFaction(faction, res.SessionToken, Team(slot), slot, mm.maxPlayers)
		res.FactionID = f.ID
		mm.reservations = append(mm.reservations, res)
		l.sessions[gameID] = append(l.sessions[gameID], res)
		return res, nil
	}

	if len(l.games)+len(l.matchmaking) >= l.maxGames {
		return Reservation{}, capacityErr("joinMatchmaking", ErrGameFull)
	}
	id := uuid.NewString()
	cfg := l.cfgBase
	cfg.WorldW = worldSizeForPlayers(maxPlayers)
	cfg.WorldH = cfg.WorldW
	cfg.Biome = biome
	cfg.Density = density
	mm := &matchmakingGame{
		game:       NewGame(id, cfg),
		maxPlayers: maxPlayers,
		createdAt:  time.Now(),
	}
	res := Reservation{GameID: id, SessionToken: uuid.NewString(), Faction: faction, Slot: 0}
	f := mm.game.SpawnFaction(faction, res.SessionToken, Team(0), 0, maxPlayers)
	res.FactionID = f.ID
	mm.reservations = append(mm.reservations, res)
	l.sessions[id] = append(l.sessions[id], res)
	l.matchmaking[id] = mm
	return res, nil
}

// LeaveMatchmaking releases a reserved slot; if the game becomes empty it
// is removed entirely rather than left to the sweeper.
func (l *Lobby) LeaveMatchmaking(gameID, sessionToken string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	mm, ok := l.matchmaking[gameID]
	if !ok {
		return validationErr("leaveMatchmaking", ErrGameNotFound)
	}
	kept := mm.reservations[:0]
	for _, r := range mm.reservations {
		if r.SessionToken != sessionToken {
			kept = append(kept, r)
		}
	}
	mm.reservations = kept
	if len(mm.reservations) == 0 {
		mm.game.Stop()
		delete(l.matchmaking, gameID)
		delete(l.sessions, gameID)
	}
	return nil
}

// IsGameReady reports whether a matchmaking game has filled every slot.
func (l *Lobby) IsGameReady(gameID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	mm, ok := l.matchmaking[gameID]
	if !ok {
		return false
	}
	return len(mm.reservations) >= mm.maxPlayers
}

// Resolve looks up a live game by id, promoting a filled matchmaking game
// to a started game on first access after it becomes ready.
func (l *Lobby) Resolve(gameID string) (*Game, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if g, ok := l.games[gameID]; ok {
		return g, nil
	}
	mm, ok := l.matchmaking[gameID]
	if !ok {
		return nil, validationErr("resolve", ErrGameNotFound)
	}
	if len(mm.reservations) >= mm.maxPlayers && !mm.started {
		mm.started = true
		mm.game.Start()
		l.games[gameID] = mm.game
		delete(l.matchmaking, gameID)
		return mm.game, nil
	}
	if mm.started {
		return mm.game, nil
	}
	return nil, transientErr("resolve", fmt.Errorf("game %s has not started", gameID))
}

// ResolveSession validates a session token against the reservation issued
// at joinMatchmaking time, whether or not the game has since been
// promoted out of matchmaking (§4.8: the WS handshake presents the
// token, the server resolves faction and slot from it).
func (l *Lobby) ResolveSession(gameID, sessionToken string) (Reservation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.sessions[gameID] {
		if r.SessionToken == sessionToken {
			return r, nil
		}
	}
	return Reservation{}, validationErr("resolveSession", ErrSessionInvalid)
}

// ForceEnd terminates a running game on operator request: its gameOver
// fires with an operator_shutdown reason so subscribed sessions learn
// why, and the sweeper's finished-game pass evicts it. Matchmaking games
// that never started are torn down immediately.
func (l *Lobby) ForceEnd(gameID string) error {
	l.mu.Lock()
	if mm, ok := l.matchmaking[gameID]; ok && !mm.started {
		delete(l.matchmaking, gameID)
		delete(l.sessions, gameID)
		l.mu.Unlock()
		mm.game.Stop()
		return nil
	}
	g, ok := l.games[gameID]
	l.mu.Unlock()
	if !ok {
		return validationErr("forceEnd", ErrGameNotFound)
	}
	g.terminate(GameOverReason{WinningTeam: -1, Reason: "operator_shutdown"})
	return nil
}

func (l *Lobby) sweepLoop() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

// sweep removes finished games, idle empty games over 5 minutes old, and
// matchmaking reservations that never filled within 10 minutes (§4.8).
func (l *Lobby) sweep() {
	l.mu.Lock()
	var toStop []*Game
	emptyCutoff := time.Now().Add(-5 * time.Minute)
	for id, g := range l.games {
		select {
		case <-g.GameOver():
			toStop = append(toStop, g)
			delete(l.games, id)
			delete(l.sessions, id)
			continue
		default:
		}
		if g.PlayerCount() == 0 && g.CreatedAt.Before(emptyCutoff) {
			toStop = append(toStop, g)
			delete(l.games, id)
			delete(l.sessions, id)
		}
	}
	cutoff := time.Now().Add(-10 * time.Minute)
	for id, mm := range l.matchmaking {
		if mm.createdAt.Before(cutoff) {
			toStop = append(toStop, mm.game)
			delete(l.matchmaking, id)
			delete(l.sessions, id)
		}
	}
	l.mu.Unlock()

	for _, g := range toStop {
		g.Stop()
	}
}

// LobbyStats is a point-in-time aggregate across every active game, for
// the operator metrics poller (§12). Reads only atomics and map lengths
// taken under the lobby lock, never a game's live entity maps.
type LobbyStats struct {
	ActiveGames  int
	Factions     int
	Units        int
	AvgTick      time.Duration
	EventsTotal  uint64
	EventsDropped uint64
}

// Stats aggregates ActiveGames/Factions/Units/AvgTick/event-log counters
// across every live game, for periodic Prometheus gauge updates.
func (l *Lobby) Stats() LobbyStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := LobbyStats{ActiveGames: len(l.games)}
	var tickSum time.Duration
	for _, g := range l.games {
		st.Factions += g.PlayerCount()
		st.Units += g.UnitCount()
		tickSum += g.LastTickDuration()
		evStats := g.Events.Stats()
		st.EventsTotal += evStats["total"]
		st.EventsDropped += evStats["dropped"]
	}
	if len(l.games) > 0 {
		st.AvgTick = tickSum / time.Duration(len(l.games))
	}
	return st
}

// Shutdown stops the sweeper and every live game. Used on process exit.
func (l *Lobby) Shutdown() {
	close(l.stopCh)
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, g := range l.games {
		g.Stop()
	}
	for _, mm := range l.matchmaking {
		mm.game.Stop()
	}
}
