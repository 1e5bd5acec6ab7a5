package rts

import (
	"math"
	"sync/atomic"
)

// wireFloat formats a damage/health value for the wire per §6's numeric
// semantics: two-decimal precision, with +Inf clamped to a large sentinel
// rather than serialized as a non-JSON-numeric value.
func wireFloat(v float64) float64 {
	if math.IsInf(v, 1) {
		return 999999
	}
	if math.IsInf(v, -1) {
		return -999999
	}
	return math.Round(v*100) / 100
}

// UnitSnapshot is an immutable, wire-ready projection of a Unit.
type UnitSnapshot struct {
	ID        EntityID `json:"id"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Rotation  float64  `json:"rotation"`
	Type      string   `json:"type"`
	OwnerID   EntityID `json:"ownerId"`
	Team      int      `json:"team"`
	Health    float64  `json:"health"`
	MaxHealth float64  `json:"maxHealth"`
	Selected  bool     `json:"selected"`
	Elevation string   `json:"elevation"`
	Cloaked   bool     `json:"cloaked"`
	SpecialAbilityActive bool `json:"specialAbilityActive"`
	Command   CommandSnapshot `json:"currentCommand"`
}

// CommandSnapshot projects the minimal currentCommand shape the wire
// format requires (§6 snapshot entity shapes).
type CommandSnapshot struct {
	Type           string   `json:"type"`
	Phase          string   `json:"phase,omitempty"`
	TargetLocation *[2]float64 `json:"targetLocation,omitempty"`
	HomeLocation   *[2]float64 `json:"homeLocation,omitempty"`
}

// commandSnapshotOf projects whatever detail a command type carries that
// a client needs to render it distinctly (sortie phase, attack-move
// anchor); commands with no extra wire detail just report their name.
func commandSnapshotOf(cmd UnitCommand) CommandSnapshot {
	switch c := cmd.(type) {
	case *SortieCommand:
		phase := [...]string{"outbound", "attack", "inbound", "landing"}[c.Phase]
		return CommandSnapshot{Type: c.Name(), Phase: phase, TargetLocation: &[2]float64{c.TargetX, c.TargetY}}
	case *AttackMoveCommand:
		snap := CommandSnapshot{Type: c.Name(), TargetLocation: &[2]float64{c.GoalX, c.GoalY}}
		if c.ReturnToAnchor {
			snap.HomeLocation = &[2]float64{c.AnchorX, c.AnchorY}
		}
		return snap
	case *MoveCommand:
		return CommandSnapshot{Type: c.Name(), TargetLocation: &[2]float64{c.GoalX, c.GoalY}}
	case *AttackGroundCommand:
		return CommandSnapshot{Type: c.Name(), TargetLocation: &[2]float64{c.X, c.Y}}
	case *HarvestCommand:
		phases := [...]string{"to_site", "working", "returning"}
		return CommandSnapshot{Type: c.Name(), Phase: phases[c.phase]}
	case *MineCommand:
		phases := [...]string{"to_site", "working", "returning"}
		return CommandSnapshot{Type: c.Name(), Phase: phases[c.phase]}
	case *ConstructCommand:
		phases := [...]string{"to_site", "working", "returning"}
		return CommandSnapshot{Type: c.Name(), Phase: phases[c.phase]}
	default:
		return CommandSnapshot{Type: cmd.Name()}
	}
}

type BuildingSnapshot struct {
	ID        EntityID `json:"id"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Rotation  float64  `json:"rotation"`
	Type      string   `json:"type"`
	OwnerID   EntityID `json:"ownerId"`
	Team      int      `json:"team"`
	Health    float64  `json:"health"`
	MaxHealth float64  `json:"maxHealth"`
	UnderConstruction bool `json:"underConstruction"`
	BuildProgress     float64 `json:"buildProgress"`

	HangarOccupied int  `json:"hangarOccupied,omitempty"`
	HangarOnSortie bool `json:"hangarOnSortie,omitempty"`
}

type ObstacleSnapshot struct {
	ID                EntityID `json:"id"`
	X                 float64  `json:"x"`
	Y                 float64  `json:"y"`
	Radius            float64  `json:"radius"`
	ResourceType      string   `json:"resourceType,omitempty"`
	ResourceRemaining float64  `json:"resourceRemaining,omitempty"`
	Health            float64  `json:"health,omitempty"`
	MaxHealth         float64  `json:"maxHealth,omitempty"`
}

type WallSegmentSnapshot struct {
	ID        EntityID `json:"id"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Team      int      `json:"team"`
	Health    float64  `json:"health"`
	MaxHealth float64  `json:"maxHealth"`
}

type ProjectileSnapshot struct {
	ID       EntityID `json:"id"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Rotation float64  `json:"rotation"`
}

type BeamSnapshot struct {
	ID             EntityID `json:"id"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

type FieldEffectSnapshot struct {
	ID     EntityID `json:"id"`
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	Radius float64  `json:"radius"`
	Type   string   `json:"type"`
}

type FactionSnapshot struct {
	ID            EntityID `json:"id"`
	Type          string   `json:"type"`
	Team          int      `json:"team"`
	Credits       int      `json:"credits"`
	CurrentUpkeep float64  `json:"currentUpkeep"`
	MaxUpkeep     float64  `json:"maxUpkeep"`
	HasLowPower   bool     `json:"hasLowPower"`
}

// GameSnapshot is the full per-tick immutable world projection, built
// once per tick together with one pre-filtered view per team (PerTeam),
// so every subscriber reads from the same build.
type GameSnapshot struct {
	Tick        uint64
	WorldW      float64
	WorldH      float64
	Units        []UnitSnapshot
	Buildings    []BuildingSnapshot
	Obstacles    []ObstacleSnapshot
	WallSegments []WallSegmentSnapshot
	Projectiles []ProjectileSnapshot
	Beams       []BeamSnapshot
	FieldEffects []FieldEffectSnapshot
	Factions    []FactionSnapshot

	// PerTeam holds the pre-filtered view for each team with a live
	// faction, computed once inside the tick goroutine (BuildSnapshot) so
	// broadcast readers never touch the live entity store concurrently
	// with the simulation (§5 locking discipline).
	PerTeam map[Team]GameSnapshot
}

// SnapshotPool is a lock-free triple buffer: the tick goroutine writes
// into one slot, readers (the broadcast loop) read the most recently
// published slot without ever blocking the tick.
type SnapshotPool struct {
	slots    [3]GameSnapshot
	writeIdx uint32
	readIdx  uint32
	sequence uint64
}

func NewSnapshotPool() *SnapshotPool {
	return &SnapshotPool{writeIdx: 0, readIdx: 0}
}

// AcquireWrite returns the slot safe to write into this tick: never the
// one currently being read.
func (p *SnapshotPool) AcquireWrite() *GameSnapshot {
	cur := atomic.LoadUint32(&p.readIdx)
	next := (cur + 1) % 3
	if next == atomic.LoadUint32(&p.writeIdx) {
		next = (next + 1) % 3
	}
	slot := &p.slots[next]
	*slot = GameSnapshot{
		Units:        slot.Units[:0],
		Buildings:    slot.Buildings[:0],
		Projectiles:  slot.Projectiles[:0],
		Beams:        slot.Beams[:0],
		FieldEffects: slot.FieldEffects[:0],
		Factions:     slot.Factions[:0],
	}
	atomic.StoreUint32(&p.writeIdx, next)
	return slot
}

// PublishWrite makes the just-written slot visible to readers.
func (p *SnapshotPool) PublishWrite() {
	atomic.StoreUint32(&p.readIdx, atomic.LoadUint32(&p.writeIdx))
	atomic.AddUint64(&p.sequence, 1)
}

// AcquireRead returns the most recently published snapshot.
func (p *SnapshotPool) AcquireRead() *GameSnapshot {
	return &p.slots[atomic.LoadUint32(&p.readIdx)]
}

// BuildSnapshot fills a pool slot from the current entity store. Called
// once per tick (§4.7 step 10); it also runs FilterForFaction once for
// each team with a faction and stores the results in PerTeam, which
// SnapshotForTeam returns to readers.
func (g *Game) BuildSnapshot() {
	snap := g.Snapshots.AcquireWrite()
	snap.Tick = g.Tick
	snap.WorldW = g.WorldW
	snap.WorldH = g.WorldH

	for _, u := range g.Entities.Units {
		snap.Units = append(snap.Units, UnitSnapshot{
			ID: u.id, X: wireFloat(u.X), Y: wireFloat(u.Y), Rotation: u.Rotation,
			Type: u.Type, OwnerID: u.Owner, Team: int(u.Team),
			Health: wireFloat(u.Health), MaxHealth: wireFloat(u.MaxHealth), Selected: u.Selected,
			Elevation: u.Elevation.String(), Cloaked: u.Cloak != nil,
			SpecialAbilityActive: u.SpecialAbilityActive,
			Command:              commandSnapshotOf(u.Command),
		})
	}
	for _, b := range g.Entities.Buildings {
		bs := BuildingSnapshot{
			ID: b.id, X: wireFloat(b.X), Y: wireFloat(b.Y), Rotation: b.Rotation, Type: b.Type, OwnerID: b.Owner, Team: int(b.Team),
			Health: wireFloat(b.Health), MaxHealth: wireFloat(b.MaxHealth),
			UnderConstruction: b.UnderConstruction, BuildProgress: b.BuildProgress,
		}
		if b.Hangar != nil {
			bs.HangarOccupied = len(b.Hangar.Housed)
			bs.HangarOnSortie = len(b.Hangar.OnSortie) > 0
		}
		snap.Buildings = append(snap.Buildings, bs)
	}
	for _, o := range g.Entities.Obstacles {
		snap.Obstacles = append(snap.Obstacles, ObstacleSnapshot{
			ID: o.id, X: wireFloat(o.X), Y: wireFloat(o.Y), Radius: o.Radius,
			ResourceType: o.ResourceType, ResourceRemaining: wireFloat(o.ResourceRemaining),
			Health: wireFloat(o.Health), MaxHealth: wireFloat(o.MaxHealth),
		})
	}
	for _, w := range g.Entities.WallSegments {
		snap.WallSegments = append(snap.WallSegments, WallSegmentSnapshot{
			ID: w.id, X: wireFloat(w.X), Y: wireFloat(w.Y), Team: int(w.Team), Health: wireFloat(w.Health), MaxHealth: wireFloat(w.MaxHealth),
		})
	}
	for _, p := range g.Entities.Projectiles {
		snap.Projectiles = append(snap.Projectiles, ProjectileSnapshot{ID: p.id, X: wireFloat(p.X), Y: wireFloat(p.Y), Rotation: p.Rotation})
	}
	for _, b := range g.Entities.Beams {
		snap.Beams = append(snap.Beams, BeamSnapshot{ID: b.id, X1: wireFloat(b.X1), Y1: wireFloat(b.Y1), X2: wireFloat(b.X2), Y2: wireFloat(b.Y2)})
	}
	for _, f := range g.Entities.FieldEffects {
		snap.FieldEffects = append(snap.FieldEffects, FieldEffectSnapshot{ID: f.id, X: wireFloat(f.X), Y: wireFloat(f.Y), Radius: f.Radius, Type: f.Type.String()})
	}
	teams := make(map[Team]bool)
	for _, id := range g.Entities.SortedFactionIDs() {
		f := g.Entities.Factions[id]
		snap.Factions = append(snap.Factions, FactionSnapshot{
			ID: f.ID, Type: f.Type, Team: int(f.Team), Credits: f.Credits,
			CurrentUpkeep: f.CurrentUpkeep, MaxUpkeep: f.MaxUpkeep, HasLowPower: f.HasLowPower,
		})
		teams[f.Team] = true
	}

	snap.PerTeam = make(map[Team]GameSnapshot, len(teams))
	for team := range teams {
		snap.PerTeam[team] = FilterForFaction(snap, g.Entities, team, g.Config.VisionRadius)
	}

	g.Snapshots.PublishWrite()
}

// SnapshotForTeam returns the most recently published view for a team,
// safe to call from any goroutine: it only ever reads the published
// snapshot slot, never the live entity store.
func (g *Game) SnapshotForTeam(team Team) GameSnapshot {
	full := g.Snapshots.AcquireRead()
	if view, ok := full.PerTeam[team]; ok {
		return view
	}
	return *full
}

// FilterForFaction projects a full snapshot down to what a given team
// may see: own entities always included, others only if within vision
// of a friendly unit/building (§6 snapshot visibility).
func FilterForFaction(full *GameSnapshot, entities *GameEntities, team Team, visionRadius float64) GameSnapshot {
	visible := entities.VisibleTo(team, visionRadius)
	out := GameSnapshot{Tick: full.Tick, WorldW: full.WorldW, WorldH: full.WorldH}
	for _, u := range full.Units {
		if visible[u.ID] {
			out.Units = append(out.Units, u)
		}
	}
	for _, b := range full.Buildings {
		if visible[b.ID] {
			out.Buildings = append(out.Buildings, b)
		}
	}
	for _, w := range full.WallSegments {
		if visible[w.ID] || w.Team == int(team) {
			out.WallSegments = append(out.WallSegments, w)
		}
	}
	for _, p := range full.Projectiles {
		if visible[p.ID] {
			out.Projectiles = append(out.Projectiles, p)
		}
	}
	for _, o := range full.Obstacles {
		if visible[o.ID] {
			out.Obstacles = append(out.Obstacles, o)
		}
	}
	for _, b := range full.Beams {
		if visible[b.ID] {
			out.Beams = append(out.Beams, b)
		}
	}
	for _, e := range full.FieldEffects {
		if visible[e.ID] {
			out.FieldEffects = append(out.FieldEffects, e)
		}
	}
	out.Factions = full.Factions
	return out
}
