package rts

// EconomyConfig holds the balance numbers the economy tick reads;
// injected at game construction rather than hardcoded, per §9's "no
// process-wide mutable constants" design note.
type EconomyConfig struct {
	BaseCreditsPerTick   float64
	RefineryCreditsPerTick float64
	ResearchTicksDefault int
}

// DefaultEconomyConfig mirrors reasonable RTS balance defaults;
// internal/config applies environment overrides on top of it.
var DefaultEconomyConfig = EconomyConfig{
	BaseCreditsPerTick:     0.05,
	RefineryCreditsPerTick: 0.5,
	ResearchTicksDefault:   1800, // 30s at 60 TPS
}

// tickEconomy runs §4.6's faction economy step: power balance, credit
// income, production progress/completion, and research progress/
// completion.
func (g *Game) tickEconomy() {
	for _, f := range g.Entities.Factions {
		if f.Eliminated() {
			continue
		}
		g.updatePower(f)
		refineries := g.countRefineries(f.ID)
		income := g.Economy.BaseCreditsPerTick + float64(refineries)*g.Economy.RefineryCreditsPerTick*f.ProductionModifier()
		f.Accrue(income)

		g.tickProduction(f)
		g.tickResearch(f)
	}
}

// updatePower recomputes a faction's generated/consumed power balance from
// its completed buildings. A deficit halves production speed
// (ProductionModifier) and powers down defensive structures.
func (g *Game) updatePower(f *Faction) {
	var generated, consumed float64
	for _, b := range g.Entities.Buildings {
		if b.Owner != f.ID || !b.Active() {
			continue
		}
		generated += b.PowerGenerated
		consumed += b.PowerConsumed
	}
	f.PowerGenerated = generated
	f.PowerConsumed = consumed
	f.HasLowPower = consumed > generated

	for _, b := range g.Entities.Buildings {
		if b.Owner == f.ID && b.WeaponID != "" {
			b.Powered = !f.HasLowPower
		}
	}
}

func (g *Game) countRefineries(factionID EntityID) int {
	n := 0
	for _, b := range g.Entities.Buildings {
		if b.Owner == factionID && b.Type == "refinery" && b.Active() {
			n++
		}
	}
	return n
}

func (g *Game) tickProduction(f *Faction) {
	for _, b := range g.Entities.Buildings {
		if b.Owner != f.ID || len(b.Queue) == 0 || !b.Active() {
			continue
		}
		item := b.Queue[0]
		b.ProductionTicks += f.ProductionModifier()
		if b.ProductionTicks >= float64(item.Ticks) {
			b.ProductionTicks = 0
			b.Queue = b.Queue[1:]
			g.spawnProducedUnit(f, b, item)
			g.Events.EmitSimple(EventProductionComplete, g.Tick, f.ID, item.UnitType)
		}
	}
}

// spawnProducedUnit materializes a finished production-queue item using
// the catalog stats captured on the item at enqueue time (§4.6), so a
// produced "tank" gets the tank's own weapon/health/speed rather than a
// one-size-fits-all placeholder.
func (g *Game) spawnProducedUnit(f *Faction, b *Building, item ProductionItem) {
	spawnX, spawnY := b.X+b.Radius+20, b.Y
	if b.HasRally {
		spawnX, spawnY = b.RallyX, b.RallyY
	}
	id := g.Entities.NextID()
	u := NewUnit(id, item.UnitType, f.ID, f.Team, spawnX, spawnY, item.MaxHealth, item.Speed, item.Radius, item.WeaponID)
	u.Elevation = item.Elevation
	u.Upkeep = item.Upkeep
	if item.CarryCapacity > 0 {
		u.Carry = &WorkerCarryComponent{Capacity: item.CarryCapacity, MineHealth: 100}
	}
	if item.CloakDetectionRange > 0 {
		u.Cloak = &CloakComponent{DetectionRange: item.CloakDetectionRange}
	}
	if u.Elevation != ElevationGround {
		// aircraft fly home to the facility that produced them when dry
		u.HomeHangarID = b.id
		u.Fuel = &FuelAmmoComponent{Fuel: 120, MaxFuel: 120, Ammo: 8, MaxAmmo: 8}
	}
	g.Entities.AddUnit(u)
}

// EnqueueProduction validates credits/upkeep caps before accepting an
// order (§4.6 reject rule; S6 production gating).
func (g *Game) EnqueueProduction(b *Building, f *Faction, item ProductionItem) bool {
	if !f.CanAfford(item.Cost, item.Upkeep) {
		return false
	}
	f.Spend(item.Cost, item.Upkeep)
	b.Queue = append(b.Queue, item)
	return true
}

func (g *Game) tickResearch(f *Faction) {
	slots := f.ParallelResearchSlots()
	active := 0
	for buildingID, prog := range f.ActiveResearch {
		if active >= slots {
			break
		}
		active++
		prog.Progress += 1.0 / float64(g.Economy.ResearchTicksDefault)
		if prog.Progress >= 1 {
			f.CompletedResearch[prog.ResearchID] = true
			delete(f.ActiveResearch, buildingID)
			g.Events.EmitSimple(EventResearchComplete, g.Tick, f.ID, prog.ResearchID)
		}
	}
}

// StartResearch begins a research item on a building if a slot is free,
// the item isn't already done or running, its prerequisites are met, and
// the faction can pay. Research ids absent from the catalog carry no cost
// or prerequisites (engine-level upgrades like PARALLEL_RESEARCH_k).
func (g *Game) StartResearch(f *Faction, buildingID EntityID, researchID string) bool {
	if len(f.ActiveResearch) >= f.ParallelResearchSlots() {
		return false
	}
	if f.CompletedResearch[researchID] {
		return false
	}
	for _, prog := range f.ActiveResearch {
		if prog.ResearchID == researchID {
			return false
		}
	}
	if entry, ok := FactionCatalog(f.Type); ok {
		for _, r := range entry.Research {
			if r.ID != researchID {
				continue
			}
			for _, pre := range r.Prerequisites {
				if !f.CompletedResearch[pre] {
					return false
				}
			}
			if !f.CanAfford(r.Cost, 0) {
				return false
			}
			f.Spend(r.Cost, 0)
			break
		}
	}
	f.ActiveResearch[buildingID] = &ResearchProgress{ResearchID: researchID}
	return true
}

// CancelResearch drops an in-progress research with no refund (§4.6).
func (g *Game) CancelResearch(f *Faction, buildingID EntityID) {
	delete(f.ActiveResearch, buildingID)
}
