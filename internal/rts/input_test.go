package rts

import "testing"

// TestBuildOrderPlacesWallSegment verifies a "wall" build order spends
// credits and places an attackable WallSegment rather than a Building.
func TestBuildOrderPlacesWallSegment(t *testing.T) {
	g := NewGame("wall1", testGameConfig())
	f := NewFaction(g.Entities.NextID(), "armored", Team(0), "p1", 40, 1000)
	g.Entities.Factions[f.ID] = f

	applyBuildOrder(g, f.ID, nil, "wall", Point{X: 500, Y: 500})

	if len(g.Entities.WallSegments) != 1 {
		t.Fatalf("expected one wall segment placed, got %d", len(g.Entities.WallSegments))
	}
	if len(g.Entities.Buildings) != 0 {
		t.Error("a wall order must not place a Building")
	}
	if f.Credits != 940 {
		t.Errorf("expected the wall's 60 credits debited, got %d left", f.Credits)
	}
	for _, w := range g.Entities.WallSegments {
		if !w.Active() || w.Team != f.Team {
			t.Errorf("expected an active wall on the builder's team, got %+v", w)
		}
	}
}

// TestPathfinderWallsBlockGroundNotAir verifies §4.3's elevation rule for
// walls: ground occupancy treats a wall cell as blocked, flight does not.
func TestPathfinderWallsBlockGroundNotAir(t *testing.T) {
	g := NewGame("wall2", testGameConfig())
	id := g.Entities.NextID()
	g.Entities.WallSegments[id] = NewWallSegment(id, 1, Team(0), 500, 500, 40, 250)

	ground := g.Paths.FieldFor(900, 900, false)
	if _, _, ok := ground.Lookup(500, 500); ok {
		t.Error("ground flow field must treat the wall's cell as blocked")
	}

	air := g.Paths.FieldFor(900, 900, true)
	if _, _, ok := air.Lookup(500, 500); !ok {
		t.Error("airborne flow field must pass over walls")
	}
}
