package rts

import "ironfront/internal/rts/spatial"

// Pathfinder wraps a flow-field manager, re-stamping occupancy from the
// current obstacle/building layout whenever a field is (re)built for a
// new goal cell. Airborne movers get an all-clear field — walls and
// ground obstacles never block flight per §4.3.
type Pathfinder struct {
	ground   *spatial.Manager
	air      *spatial.Manager
	entities *GameEntities
	worldW, worldH float64
}

func NewPathfinder(entities *GameEntities, worldW, worldH float64) *Pathfinder {
	const cell = 40.0
	return &Pathfinder{
		ground:   spatial.NewManager(worldW, worldH, cell),
		air:      spatial.NewManager(worldW, worldH, cell),
		entities: entities,
		worldW:   worldW,
		worldH:   worldH,
	}
}

// FieldFor returns the cached (or freshly generated) flow field steering
// toward (goalX, goalY), selecting the airborne or ground occupancy set.
func (p *Pathfinder) FieldFor(goalX, goalY float64, airborne bool) *spatial.FlowField {
	mgr := p.ground
	if airborne {
		mgr = p.air
	}
	return mgr.GetOrCreate(goalX, goalY, func(f *spatial.FlowField) {
		if airborne {
			return // airborne movers ignore ground occupancy entirely
		}
		for _, o := range p.entities.Obstacles {
			if o.Active() {
				f.SetBlocked(o.X, o.Y, true)
			}
		}
		for _, b := range p.entities.Buildings {
			if b.Active() && !b.UnderConstruction {
				f.SetBlocked(b.X, b.Y, true)
			}
		}
		// walls block ground movement; flight passes over them (§4.3)
		for _, w := range p.entities.WallSegments {
			if w.Active() {
				f.SetBlocked(w.X, w.Y, true)
			}
		}
	})
}

// Invalidate drops every cached field; called when construction finishes
// or an obstacle is cleared, since occupancy changed.
func (p *Pathfinder) Invalidate() {
	p.ground.Invalidate()
	p.air.Invalidate()
}
