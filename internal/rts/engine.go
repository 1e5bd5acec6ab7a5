package rts

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"ironfront/internal/rts/spatial"
)

// GameConfig are the boot-time parameters for a single game's simulation,
// injected rather than read from process-wide constants (§9).
type GameConfig struct {
	TickRate   int // ticks per second, fixed-step (§4.7: 60Hz / 16.67ms)
	WorldW     float64
	WorldH     float64
	VisionRadius float64
	Biome      string // map biome name, config-passthrough echoed to clients (§4.8, §6)
	Density    string // resource/obstacle density tier, config-passthrough (§4.8)
	Limits     Limits
	Economy    EconomyConfig
}

// Limits are the DoS-shaped resource caps every game enforces, grounded
// on the reference stack's ResourceLimits (MaxParticles/MaxProjectiles/...
// generalized to this domain's entity families).
type Limits struct {
	MaxUnitsPerFaction int
	MaxProjectiles     int
	MaxBeams           int
	MaxFieldEffects    int
	MaxInputsPerTick   int
}

var DefaultLimits = Limits{
	MaxUnitsPerFaction: 400,
	MaxProjectiles:     600,
	MaxBeams:           200,
	MaxFieldEffects:    300,
	MaxInputsPerTick:   2000,
}

// InputCommand is one queued client order, drained at tick start (§4.7
// step 1, §5 ordering guarantees: FIFO arrival, applied before tick T).
type InputCommand struct {
	SessionID string
	FactionID EntityID
	Apply     func(g *Game)
}

// Game is a single self-contained simulation: its own entity world,
// input queue, snapshot pool, and event log. Nothing outside its own
// tick goroutine mutates Entities.
type Game struct {
	ID        string
	Config    GameConfig
	CreatedAt time.Time

	WorldW, WorldH float64
	Tick           uint64

	Entities *GameEntities
	Paths    *Pathfinder
	Economy  EconomyConfig
	Grid     *spatial.Grid // coarse separation grid, rebuilt every tick from unit positions

	Snapshots *SnapshotPool
	Events    *EventLog

	inputMu sync.Mutex
	inputs  []InputCommand

	noticeMu sync.Mutex
	notices  map[EntityID][]Notice

	rng *rand.Rand

	cooldowns *unitCooldowns

	lastTickNanos atomic.Int64
	liveUnits     atomic.Int64

	winningTeam   Team
	hasWinner     bool
	gameOverCh    chan GameOverReason

	stopCh  chan struct{}
	stopped bool
}

// GameOverReason is the payload for the outbound gameOver message.
type GameOverReason struct {
	WinningTeam int
	Reason      string
}

// NewGame constructs a game ready to run; Start begins its tick loop on
// a goroutine.
func NewGame(id string, cfg GameConfig) *Game {
	if cfg.TickRate <= 0 {
		cfg.TickRate = 60
	}
	entities := NewGameEntities()
	g := &Game{
		ID: id, Config: cfg, CreatedAt: time.Now(),
		WorldW: cfg.WorldW, WorldH: cfg.WorldH,
		Entities:  entities,
		Paths:     NewPathfinder(entities, cfg.WorldW, cfg.WorldH),
		Economy:   cfg.Economy,
		Grid:      spatial.NewGrid(cfg.WorldW, cfg.WorldH, 64),
		Snapshots: NewSnapshotPool(),
		Events:    NewEventLog(),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		cooldowns: newUnitCooldowns(),
		gameOverCh: make(chan GameOverReason, 1),
		stopCh:    make(chan struct{}),
		winningTeam: -1,
		notices:   make(map[EntityID][]Notice),
	}
	g.Events.Start("") // no file path: buffered and rate-limited, not persisted
	return g
}

// Enqueue adds a validated input command to the game's thread-safe
// input buffer. Over MaxInputsPerTick the oldest queued input is
// dropped (latest-wins backpressure, §5 suspension points).
func (g *Game) Enqueue(cmd InputCommand) {
	g.inputMu.Lock()
	defer g.inputMu.Unlock()
	if len(g.inputs) >= g.Config.Limits.MaxInputsPerTick {
		g.inputs = g.inputs[1:]
	}
	g.inputs = append(g.inputs, cmd)
}

// Notice is a wire-ready `gameEvent` message (§6/§7): capacity rejections
// and other player-visible warnings that don't block an input batch but
// do need surfacing, since the next snapshot alone wouldn't explain why
// an order had no effect.
type Notice struct {
	Message         string `json:"message"`
	Category        string `json:"category"`
	Color           string `json:"color,omitempty"`
	DisplayDuration int    `json:"displayDuration,omitempty"`
}

const maxNoticesPerFaction = 20

// Notify queues a gameEvent for one faction's sessions. Called only from
// inside the tick (production/build/research rejection paths); the
// broadcast loop drains it from another goroutine, hence the lock.
func (g *Game) Notify(factionID EntityID, n Notice) {
	g.noticeMu.Lock()
	defer g.noticeMu.Unlock()
	q := g.notices[factionID]
	if len(q) >= maxNoticesPerFaction {
		q = q[1:]
	}
	g.notices[factionID] = append(q, n)
}

// DrainNotices returns and clears every queued notice for a faction.
// Safe to call from any goroutine.
func (g *Game) DrainNotices(factionID EntityID) []Notice {
	g.noticeMu.Lock()
	defer g.noticeMu.Unlock()
	q := g.notices[factionID]
	delete(g.notices, factionID)
	return q
}

func (g *Game) drainInputs() []InputCommand {
	g.inputMu.Lock()
	defer g.inputMu.Unlock()
	drained := g.inputs
	g.inputs = nil
	return drained
}

// Start runs the fixed-step tick loop on its own goroutine until Stop is
// called. The game's event log runs its own writer and cleanup
// goroutines, which NewGame starts.
func (g *Game) Start() {
	go g.run()
}

func (g *Game) run() {
	interval := time.Second / time.Duration(g.Config.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-g.stopCh:
			return
		case <-ticker.C:
			g.runTickSafely()
		}
	}
}

// runTickSafely recovers a panicking tick into a Fatal-per-game error
// (§7): this game terminates, others are unaffected.
func (g *Game) runTickSafely() {
	defer func() {
		if r := recover(); r != nil {
			ferr := fatalErr("tick", fmt.Errorf("panic: %v", r))
			log.Printf("game %s: %v", g.ID, ferr)
			g.terminate(GameOverReason{WinningTeam: -1, Reason: "internal_error"})
		}
	}()
	start := time.Now()
	g.step(1.0 / float64(g.Config.TickRate))
	g.lastTickNanos.Store(time.Since(start).Nanoseconds())
	g.liveUnits.Store(int64(len(g.Entities.Units)))
}

// LastTickDuration reports how long the most recently completed tick took,
// for the operator metrics poller (§12). Safe to call from any goroutine.
func (g *Game) LastTickDuration() time.Duration {
	return time.Duration(g.lastTickNanos.Load())
}

// UnitCount reports the live unit count as of the last completed tick.
// Safe to call from any goroutine: it never touches the entity maps
// directly, only the atomic count stored at tick end.
func (g *Game) UnitCount() int { return int(g.liveUnits.Load()) }

// step runs one fixed tick in the ten-stage order of §4.7.
func (g *Game) step(dt float64) {
	g.Tick++

	inputs := g.drainInputs()
	for _, in := range inputs {
		in.Apply(g)
	}

	ctx := &TickContext{
		Entities: g.Entities, Paths: g.Paths, Cooldowns: g.cooldowns,
		Tick: g.Tick, TickRate: g.Config.TickRate, DeltaSec: dt,
		WorldW: g.WorldW, WorldH: g.WorldH,
	}

	g.Grid.Clear()
	for id, u := range g.Entities.Units {
		g.Grid.Insert(uint64(id), u.X, u.Y)
	}

	for _, u := range g.Entities.Units {
		if !u.Command.Update(u, ctx) {
			u.AdvanceCommand()
		}
		nearby := g.nearbyUnitIDs(u)
		u.Command.UpdateMovement(u, ctx, nearby)
	}

	g.stepPhysics(dt)

	for _, u := range g.Entities.Units {
		items := u.Command.UpdateCombat(u, ctx)
		g.addOrdinance(items)
	}
	g.tickBuildingTurrets(ctx)

	g.advanceProjectiles()
	g.resolveBeams()
	g.tickFieldEffects()
	g.tickEconomy()
	g.cullInactive()
	g.checkVictory()
	g.BuildSnapshot()
}

// nearbyUnitIDs is the performance-optimization path named in §9's Open
// Question (b): a spatial-hash query equivalent to a direct store scan,
// cheapening separation/steering for dense unit clumps. The ids are
// copied out of the grid's reused scratch buffer into a new slice.
func (g *Game) nearbyUnitIDs(u *Unit) []EntityID {
	raw := g.Grid.QueryRadius(u.X, u.Y, 64)
	ids := make([]EntityID, 0, len(raw))
	for _, id := range raw {
		if EntityID(id) == u.id {
			continue
		}
		ids = append(ids, EntityID(id))
	}
	return ids
}

// stepPhysics integrates velocity into position and resolves simple
// circle-circle separation (§4.1's lightweight kinematic integrator).
func (g *Game) stepPhysics(dt float64) {
	for _, u := range g.Entities.Units {
		u.X += u.VX * dt
		u.Y += u.VY * dt
		if u.X < 0 {
			u.X = 0
		} else if u.X > g.WorldW {
			u.X = g.WorldW
		}
		if u.Y < 0 {
			u.Y = 0
		} else if u.Y > g.WorldH {
			u.Y = g.WorldH
		}
	}
	g.resolveUnitCollisions()
}

func (g *Game) resolveUnitCollisions() {
	units := make([]*Unit, 0, len(g.Entities.Units))
	for _, u := range g.Entities.Units {
		units = append(units, u)
	}
	for i := 0; i < len(units); i++ {
		for j := i + 1; j < len(units); j++ {
			a, b := units[i], units[j]
			dx, dy := b.X-a.X, b.Y-a.Y
			distSq := dx*dx + dy*dy
			minDist := a.Radius + b.Radius
			if distSq >= minDist*minDist || distSq == 0 {
				continue
			}
			dist := math.Sqrt(distSq)
			overlap := (minDist - dist) / 2
			nx, ny := dx/dist, dy/dist
			a.X -= nx * overlap
			a.Y -= ny * overlap
			b.X += nx * overlap
			b.Y += ny * overlap
		}
	}
}

// cullInactive removes inactive units, buildings and wall segments
// (§4.7 step 8); projectiles/beams/field-effects are already removed by
// their own Advance loops.
func (g *Game) cullInactive() {
	for id, u := range g.Entities.Units {
		if !u.Active() {
			if f, ok := g.Entities.Factions[u.Owner]; ok {
				f.ReleaseUpkeep(u.Upkeep)
			}
			g.Events.EmitSimple(EventUnitDestroyed, g.Tick, u.Owner, id)
			g.Entities.RemoveUnit(id)
		}
	}
	occupancyChanged := false
	for id, b := range g.Entities.Buildings {
		if !b.active && b.Health <= 0 {
			if f, ok := g.Entities.Factions[b.Owner]; ok {
				f.ReleaseUpkeep(b.Upkeep)
			}
			g.Events.EmitSimple(EventBuildingDestroyed, g.Tick, b.Owner, id)
			g.Entities.RemoveBuilding(id)
			occupancyChanged = true
		}
	}
	for id, w := range g.Entities.WallSegments {
		if !w.Active() {
			delete(g.Entities.WallSegments, id)
			occupancyChanged = true
		}
	}
	if occupancyChanged {
		g.Paths.Invalidate()
	}
}

// checkVictory implements §4.7 step 9 / property 6: a team wins when it
// is the sole team with a live headquarters; gameOver fires at most once.
func (g *Game) checkVictory() {
	if g.hasWinner || len(g.Entities.Factions) == 0 {
		return
	}
	live := g.Entities.LiveHeadquartersTeams()
	for _, f := range g.Entities.Factions {
		if !f.eliminated && !live[f.Team] {
			f.eliminated = true
			g.Events.EmitSimple(EventFactionEliminated, g.Tick, f.ID, nil)
		}
	}
	if len(live) == 1 {
		for t := range live {
			g.winningTeam = t
		}
		g.hasWinner = true
		g.terminate(GameOverReason{WinningTeam: int(g.winningTeam), Reason: "elimination"})
	} else if len(live) == 0 {
		g.hasWinner = true
		g.terminate(GameOverReason{WinningTeam: -1, Reason: "simultaneous_wipe"})
	}
}

func (g *Game) terminate(reason GameOverReason) {
	select {
	case g.gameOverCh <- reason:
	default:
	}
}

// GameOver returns a channel that receives exactly once when the game
// ends, by victory, operator shutdown (Lobby.ForceEnd) or fatal error.
func (g *Game) GameOver() <-chan GameOverReason { return g.gameOverCh }

// PlayerCount reports how many factions are currently seated, for the
// lobby sweeper's "no players" idle-game rule (§4.8).
func (g *Game) PlayerCount() int { return len(g.Entities.Factions) }

// Stop cancels the tick loop and the event log.
func (g *Game) Stop() {
	if g.stopped {
		return
	}
	g.stopped = true
	close(g.stopCh)
	g.Events.Stop()
}
