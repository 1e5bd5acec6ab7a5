package rts

import "sort"

// GameEntities is the per-game bundle of keyed collections the tick
// mutates. All cross-entity references into it are by EntityID; nothing
// outside a game's own tick goroutine may touch it.
type GameEntities struct {
	gen idGen

	Units        map[EntityID]*Unit
	Buildings    map[EntityID]*Building
	Obstacles    map[EntityID]*Obstacle
	WallSegments map[EntityID]*WallSegment
	Projectiles  map[EntityID]*Projectile
	Beams        map[EntityID]*Beam
	FieldEffects map[EntityID]*FieldEffect
	Factions     map[EntityID]*Faction

	unitsByTeam    map[Team]map[EntityID]bool
	buildingsByOwner map[EntityID]map[EntityID]bool

	// scratch is reused scratch space for FindNearestEnemyTargetable
	// candidate scans. Safe to reuse across calls because each game owns
	// its own GameEntities and never touches another game's store.
	scratch []Targetable
}

// NewGameEntities constructs an empty entity store.
func NewGameEntities() *GameEntities {
	return &GameEntities{
		Units:            make(map[EntityID]*Unit),
		Buildings:        make(map[EntityID]*Building),
		Obstacles:        make(map[EntityID]*Obstacle),
		WallSegments:     make(map[EntityID]*WallSegment),
		Projectiles:      make(map[EntityID]*Projectile),
		Beams:            make(map[EntityID]*Beam),
		FieldEffects:     make(map[EntityID]*FieldEffect),
		Factions:         make(map[EntityID]*Faction),
		unitsByTeam:      make(map[Team]map[EntityID]bool),
		buildingsByOwner: make(map[EntityID]map[EntityID]bool),
	}
}

// NextID hands out the next monotonic entity id for this game.
func (s *GameEntities) NextID() EntityID { return s.gen.next_() }

func (s *GameEntities) AddUnit(u *Unit) {
	s.Units[u.id] = u
	if s.unitsByTeam[u.Team] == nil {
		s.unitsByTeam[u.Team] = make(map[EntityID]bool)
	}
	s.unitsByTeam[u.Team][u.id] = true
}

func (s *GameEntities) RemoveUnit(id EntityID) {
	if u, ok := s.Units[id]; ok {
		delete(s.unitsByTeam[u.Team], id)
		delete(s.Units, id)
	}
}

func (s *GameEntities) AddBuilding(b *Building) {
	s.Buildings[b.id] = b
	if s.buildingsByOwner[b.Owner] == nil {
		s.buildingsByOwner[b.Owner] = make(map[EntityID]bool)
	}
	s.buildingsByOwner[b.Owner][b.id] = true
}

func (s *GameEntities) RemoveBuilding(id EntityID) {
	if b, ok := s.Buildings[id]; ok {
		delete(s.buildingsByOwner[b.Owner], id)
		delete(s.Buildings, id)
	}
}

// Targetable resolves any entity id that satisfies the Targetable
// capability (unit, building, or wall segment), or nil if none does.
func (s *GameEntities) Targetable(id EntityID) Targetable {
	if u, ok := s.Units[id]; ok {
		return u
	}
	if b, ok := s.Buildings[id]; ok {
		return b
	}
	if w, ok := s.WallSegments[id]; ok {
		return w
	}
	return nil
}

// FindNearestEnemyTargetable implements property 2 (targeting
// determinism): among active, elevation-hittable, visible-through-cloak
// candidates on an opposing team within searchRadius, returns the
// nearest, ties broken by lower id.
func (s *GameEntities) FindNearestEnemyTargetable(observerX, observerY float64, observerTeam Team, weapon Weapon, searchRadius float64) Targetable {
	s.scratch = s.scratch[:0]
	for _, u := range s.Units {
		if u.Team == observerTeam || !u.Active() {
			continue
		}
		if !weapon.CanHit(u.Elevation) {
			continue
		}
		if !u.CloakVisibleTo(observerX, observerY) {
			continue
		}
		s.scratch = append(s.scratch, u)
	}
	for _, b := range s.Buildings {
		if b.Team == observerTeam || !b.Active() {
			continue
		}
		if !weapon.CanHit(ElevationGround) {
			continue
		}
		s.scratch = append(s.scratch, b)
	}
	for _, w := range s.WallSegments {
		if w.Team == observerTeam || !w.Active() {
			continue
		}
		if !weapon.CanHit(ElevationGround) {
			continue
		}
		s.scratch = append(s.scratch, w)
	}

	maxDistSq := searchRadius * searchRadius
	var best Targetable
	var bestDistSq float64
	for _, t := range s.scratch {
		tx, ty := t.Pos()
		dx, dy := tx-observerX, ty-observerY
		distSq := dx*dx + dy*dy
		if distSq > maxDistSq {
			continue
		}
		if best == nil || distSq < bestDistSq || (distSq == bestDistSq && t.ID() < best.ID()) {
			best = t
			bestDistSq = distSq
		}
	}
	return best
}

// VisibleTo returns every entity id within vision radius of any unit or
// building owned by the given team, for snapshot visibility filtering
// (entities on the observer's own team are always included).
func (s *GameEntities) VisibleTo(team Team, visionRadius float64) map[EntityID]bool {
	visible := make(map[EntityID]bool)
	var observers []struct{ x, y float64 }
	for _, u := range s.Units {
		if u.Team == team {
			observers = append(observers, struct{ x, y float64 }{u.X, u.Y})
		}
	}
	for _, b := range s.Buildings {
		if b.Team == team {
			observers = append(observers, struct{ x, y float64 }{b.X, b.Y})
		}
	}

	withinAny := func(x, y float64) bool {
		for _, o := range observers {
			dx, dy := x-o.x, y-o.y
			if dx*dx+dy*dy <= visionRadius*visionRadius {
				return true
			}
		}
		return false
	}

	for id, u := range s.Units {
		if u.Team == team || withinAny(u.X, u.Y) {
			visible[id] = true
		}
	}
	for id, b := range s.Buildings {
		if b.Team == team || withinAny(b.X, b.Y) {
			visible[id] = true
		}
	}
	for id, w := range s.WallSegments {
		if w.Team == team || withinAny(w.X, w.Y) {
			visible[id] = true
		}
	}
	for id, p := range s.Projectiles {
		if p.Team == team || withinAny(p.X, p.Y) {
			visible[id] = true
		}
	}
	for id, b := range s.Beams {
		if b.Team == team || withinAny(b.X1, b.Y1) || withinAny(b.X2, b.Y2) {
			visible[id] = true
		}
	}
	for id, f := range s.FieldEffects {
		if f.Team == team || withinAny(f.X, f.Y) {
			visible[id] = true
		}
	}
	for id, o := range s.Obstacles {
		if withinAny(o.X, o.Y) {
			visible[id] = true
		}
	}
	return visible
}

// LiveHeadquartersTeams returns the set of teams with at least one active
// headquarters building, used by victory resolution (property 6).
func (s *GameEntities) LiveHeadquartersTeams() map[Team]bool {
	teams := make(map[Team]bool)
	for _, b := range s.Buildings {
		if b.IsHeadquarters && b.Active() {
			teams[b.Team] = true
		}
	}
	return teams
}

// SortedFactionIDs returns faction ids in ascending order, for
// deterministic iteration in snapshot building and tests.
func (s *GameEntities) SortedFactionIDs() []EntityID {
	ids := make([]EntityID, 0, len(s.Factions))
	for id := range s.Factions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
