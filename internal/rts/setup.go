package rts

import "math"

const startingCredits = 5000
const startingMaxUpkeep = 40

// spawnLayout returns symmetric starting positions around the world
// center for up to 4 factions, evenly spaced on a ring (§4.8 map
// generation: every faction starts with equal distance to the center).
func spawnLayout(worldW, worldH float64, slot, totalSlots int) (float64, float64) {
	cx, cy := worldW/2, worldH/2
	radius := math.Min(worldW, worldH) * 0.38
	angle := 2 * math.Pi * float64(slot) / float64(totalSlots)
	return cx + radius*math.Cos(angle), cy + radius*math.Sin(angle)
}

// SpawnFaction creates a faction's starting economy, headquarters, and
// worker roster at a symmetric slot position, grounded on the same
// "everyone starts equal" rule the teacher's team assignment enforces in
// internal/game/team.go.
func (g *Game) SpawnFaction(factionType, playerID string, team Team, slot, totalSlots int) *Faction {
	x, y := spawnLayout(g.WorldW, g.WorldH, slot, totalSlots)

	factionID := g.Entities.NextID()
	f := NewFaction(factionID, factionType, team, playerID, startingMaxUpkeep, startingCredits)
	g.Entities.Factions[factionID] = f

	hqID := g.Entities.NextID()
	hq := NewBuilding(hqID, "headquarters", factionID, team, x, y, 48, 2000)
	hq.IsHeadquarters = true
	f.HomeHQ = hqID

	maxHealth, speed, radius := 80.0, 70.0, 14.0
	upkeep, carryCap := 0.01, 50.0
	if entry, ok := FactionCatalog(factionType); ok {
		for _, u := range entry.Units {
			if u.Type == "worker" {
				maxHealth, speed, radius = u.MaxHealth, u.Speed, u.Radius
				upkeep, carryCap = u.Upkeep, u.CarryCapacity
				break
			}
		}
		for _, b := range entry.Buildings {
			if b.Type == "headquarters" {
				hq.PowerGenerated = b.PowerGenerated
				hq.PowerConsumed = b.PowerConsumed
				break
			}
		}
	}
	g.Entities.AddBuilding(hq)

	const startingWorkers = 3
	for i := 0; i < startingWorkers; i++ {
		wx := x + float64(i-1)*40
		wy := y + 70
		id := g.Entities.NextID()
		w := NewUnit(id, "worker", factionID, team, wx, wy, maxHealth, speed, radius, "")
		w.Upkeep = upkeep
		w.Carry = &WorkerCarryComponent{Capacity: carryCap, MineHealth: 100}
		f.CurrentUpkeep += upkeep
		g.Entities.AddUnit(w)
	}

	return f
}
