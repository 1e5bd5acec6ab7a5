package rts

import "math"

// Point is a wire-format 2D coordinate.
type Point struct {
	X, Y float64
}

// RTSInput mirrors the inbound `rtsInput` WebSocket message (§6): every
// field is optional, unknown fields are ignored by the decoder, and
// orders referencing an id that no longer resolves are silently dropped
// (§7 Validation/Transient handling) rather than rejected with an error.
type RTSInput struct {
	SelectUnits []EntityID `json:"selectUnits"`

	MoveOrder        *Point `json:"moveOrder"`
	AttackMoveOrder  *Point `json:"attackMoveOrder"`
	ForceAttackOrder *Point `json:"forceAttackOrder"`

	AttackUnitOrder        *EntityID `json:"attackUnitOrder"`
	AttackBuildingOrder    *EntityID `json:"attackBuildingOrder"`
	AttackWallSegmentOrder *EntityID `json:"attackWallSegmentOrder"`

	HarvestOrder   *EntityID `json:"harvestOrder"`
	MineOrder      *EntityID `json:"mineOrder"`
	ConstructOrder *EntityID `json:"constructOrder"`
	GarrisonOrder  *EntityID `json:"garrisonOrder"`

	UngarrisonBuildingID *EntityID `json:"ungarrisonBuildingId"`
	UngarrisonAll        bool      `json:"ungarrisonAll"`

	BuildOrder    string `json:"buildOrder"`
	BuildLocation *Point `json:"buildLocation"`

	ProduceUnitOrder  string    `json:"produceUnitOrder"`
	ProduceBuildingID *EntityID `json:"produceBuildingId"`

	SetRallyBuildingID *EntityID `json:"setRallyBuildingId"`
	RallyPoint         *Point    `json:"rallyPoint"`

	StartResearchOrder       string    `json:"startResearchOrder"`
	ResearchBuildingID       *EntityID `json:"researchBuildingId"`
	CancelResearchBuildingID *EntityID `json:"cancelResearchBuildingId"`

	SortieHangarID       *EntityID `json:"sortieHangarId"`
	SortieTargetLocation *Point    `json:"sortieTargetLocation"`

	OnStationOrder *Point `json:"onStationOrder"` // patrol anchor for gunship/interceptor airframes (§4.4)

	ActivateSpecialAbility bool      `json:"activateSpecialAbility"`
	SpecialAbilityTargetID *EntityID `json:"specialAbilityTargetId"`

	// QueueOrder appends the order behind the active command (shift-queue)
	// instead of replacing it.
	QueueOrder bool `json:"queueOrder"`
}

// ApplyInput translates one decoded rtsInput message into command/economy
// mutations, scoped to the faction that owns the session (§6 inbound
// message, §7 error-kind handling: bad ids are dropped, not rejected).
// Must run inside the tick goroutine (called from an InputCommand.Apply).
func ApplyInput(g *Game, factionID EntityID, in RTSInput) {
	if in.SelectUnits != nil {
		for _, u := range g.Entities.Units {
			if u.Owner == factionID {
				u.Selected = false
			}
		}
		for _, id := range in.SelectUnits {
			if u, ok := g.Entities.Units[id]; ok && u.Owner == factionID {
				u.Selected = true
			}
		}
	}

	selected := ownedSelected(g, factionID)
	queued := in.QueueOrder

	switch {
	case in.MoveOrder != nil:
		for _, u := range selected {
			u.PushCommand(&MoveCommand{GoalX: in.MoveOrder.X, GoalY: in.MoveOrder.Y}, queued)
		}
	case in.AttackMoveOrder != nil:
		for _, u := range selected {
			u.PushCommand(&AttackMoveCommand{GoalX: in.AttackMoveOrder.X, GoalY: in.AttackMoveOrder.Y}, queued)
		}
	case in.ForceAttackOrder != nil:
		for _, u := range selected {
			u.PushCommand(&AttackGroundCommand{X: in.ForceAttackOrder.X, Y: in.ForceAttackOrder.Y}, queued)
		}
	case in.AttackUnitOrder != nil:
		applyAttackTargetable(g, selected, *in.AttackUnitOrder, queued)
	case in.AttackBuildingOrder != nil:
		applyAttackTargetable(g, selected, *in.AttackBuildingOrder, queued)
	case in.AttackWallSegmentOrder != nil:
		applyAttackTargetable(g, selected, *in.AttackWallSegmentOrder, queued)
	case in.HarvestOrder != nil:
		applyHarvest(g, factionID, selected, *in.HarvestOrder)
	case in.MineOrder != nil:
		applyMine(g, factionID, selected, *in.MineOrder)
	case in.ConstructOrder != nil:
		if b, ok := g.Entities.Buildings[*in.ConstructOrder]; ok && b.Owner == factionID {
			for _, u := range selected {
				u.PushCommand(&ConstructCommand{BuildingID: b.id}, false)
			}
		}
	case in.GarrisonOrder != nil:
		if b, ok := g.Entities.Buildings[*in.GarrisonOrder]; ok && b.Owner == factionID && b.Garrison != nil {
			for _, u := range selected {
				u.PushCommand(&GarrisonBunkerCommand{BunkerID: b.id}, false)
			}
		}
	case in.OnStationOrder != nil:
		applyOnStationOrder(selected, in.OnStationOrder.X, in.OnStationOrder.Y)
	}

	if in.UngarrisonBuildingID != nil {
		applyUngarrison(g, factionID, *in.UngarrisonBuildingID, in.UngarrisonAll)
	}
	if in.BuildOrder != "" && in.BuildLocation != nil {
		applyBuildOrder(g, factionID, selected, in.BuildOrder, *in.BuildLocation)
	}
	if in.ProduceUnitOrder != "" && in.ProduceBuildingID != nil {
		applyProduceOrder(g, factionID, *in.ProduceBuildingID, in.ProduceUnitOrder)
	}
	if in.SetRallyBuildingID != nil && in.RallyPoint != nil {
		if b, ok := g.Entities.Buildings[*in.SetRallyBuildingID]; ok && b.Owner == factionID {
			b.RallyX, b.RallyY, b.HasRally = in.RallyPoint.X, in.RallyPoint.Y, true
		}
	}
	if in.StartResearchOrder != "" && in.ResearchBuildingID != nil {
		if f, ok := g.Entities.Factions[factionID]; ok {
			if b, bok := g.Entities.Buildings[*in.ResearchBuildingID]; bok && b.Owner == factionID {
				g.StartResearch(f, b.id, in.StartResearchOrder)
			}
		}
	}
	if in.CancelResearchBuildingID != nil {
		if f, ok := g.Entities.Factions[factionID]; ok {
			g.CancelResearch(f, *in.CancelResearchBuildingID)
		}
	}
	if in.SortieHangarID != nil && in.SortieTargetLocation != nil {
		applySortieOrder(g, factionID, *in.SortieHangarID, *in.SortieTargetLocation)
	}
	if in.ActivateSpecialAbility {
		for _, u := range selected {
			u.SpecialAbilityActive = true
		}
	}
}

func ownedSelected(g *Game, factionID EntityID) []*Unit {
	var out []*Unit
	for _, u := range g.Entities.Units {
		if u.Owner == factionID && u.Selected {
			out = append(out, u)
		}
	}
	return out
}

func applyAttackTargetable(g *Game, selected []*Unit, targetID EntityID, queued bool) {
	if g.Entities.Targetable(targetID) == nil {
		return
	}
	for _, u := range selected {
		u.PushCommand(&AttackTargetableCommand{TargetID: targetID}, queued)
	}
}

// nearestOwnedDepot finds the closest active refinery or headquarters
// owned by factionID, the drop-off point for harvested/mined resources.
func nearestOwnedDepot(g *Game, factionID EntityID, x, y float64) (*Building, bool) {
	var best *Building
	bestDist := math.MaxFloat64
	for _, b := range g.Entities.Buildings {
		if b.Owner != factionID || !b.Active() {
			continue
		}
		if b.Type != "refinery" && !b.IsHeadquarters {
			continue
		}
		dx, dy := b.X-x, b.Y-y
		dist := dx*dx + dy*dy
		if dist < bestDist {
			best, bestDist = b, dist
		}
	}
	return best, best != nil
}

func applyHarvest(g *Game, factionID EntityID, selected []*Unit, obstacleID EntityID) {
	o, ok := g.Entities.Obstacles[obstacleID]
	if !ok || !o.Active() {
		return
	}
	for _, u := range selected {
		if u.Carry == nil {
			continue
		}
		depot, found := nearestOwnedDepot(g, factionID, o.X, o.Y)
		if !found {
			continue
		}
		u.PushCommand(&HarvestCommand{ObstacleID: obstacleID, DepotID: depot.id}, false)
	}
}

func applyMine(g *Game, factionID EntityID, selected []*Unit, obstacleID EntityID) {
	o, ok := g.Entities.Obstacles[obstacleID]
	if !ok || !o.Active() {
		return
	}
	for _, u := range selected {
		if u.Carry == nil {
			continue
		}
		depot, found := nearestOwnedDepot(g, factionID, o.X, o.Y)
		if !found {
			continue
		}
		u.PushCommand(&MineCommand{ObstacleID: obstacleID, DepotID: depot.id}, false)
	}
}

// applyUngarrison restores one or all occupants of a bunker back into the
// entity store at the building's position.
func applyUngarrison(g *Game, factionID EntityID, buildingID EntityID, all bool) {
	b, ok := g.Entities.Buildings[buildingID]
	if !ok || b.Owner != factionID || b.Garrison == nil {
		return
	}
	n := 1
	if all {
		n = len(b.Garrison.Occupants)
	}
	for i := 0; i < n && len(b.Garrison.Occupants) > 0; i++ {
		last := len(b.Garrison.Occupants) - 1
		u := b.Garrison.Occupants[last]
		b.Garrison.Occupants = b.Garrison.Occupants[:last]
		u.X, u.Y = b.X+b.Radius+10, b.Y
		g.Entities.AddUnit(u)
	}
}

// applyBuildOrder spends a selected worker's faction credits on a new
// foundation building, placing it under construction at buildLocation;
// the worker is then ordered to construct it (§4.6 production gating).
func applyBuildOrder(g *Game, factionID EntityID, selected []*Unit, buildingType string, loc Point) {
	f, ok := g.Entities.Factions[factionID]
	if !ok {
		return
	}
	entry, ok := FactionCatalog(f.Type)
	if !ok {
		return
	}
	var def *BuildingDef
	for i := range entry.Buildings {
		if entry.Buildings[i].Type == buildingType {
			def = &entry.Buildings[i]
			break
		}
	}
	if def == nil {
		return
	}
	if !f.CanAfford(def.Cost, def.Upkeep) {
		g.Notify(factionID, Notice{Message: "insufficient credits or upkeep for " + buildingType, Category: "warning"})
		return
	}
	f.Spend(def.Cost, def.Upkeep)

	if buildingType == "wall" {
		// walls go down as segments, not construction-site buildings: placed
		// whole, attackable immediately, ground-blocking until destroyed
		length := def.Radius * 2
		if length <= 0 {
			length = 40
		}
		id := g.Entities.NextID()
		g.Entities.WallSegments[id] = NewWallSegment(id, factionID, f.Team, loc.X, loc.Y, length, def.MaxHealth)
		g.Paths.Invalidate()
		return
	}

	radius, health := def.Radius, def.MaxHealth
	if radius <= 0 {
		radius = 32
	}
	if health <= 0 {
		health = 500
	}
	id := g.Entities.NextID()
	b := NewBuilding(id, buildingType, factionID, f.Team, loc.X, loc.Y, radius, health)
	b.UnderConstruction = true
	b.BuildProgress = 0
	b.WeaponID = def.WeaponID
	b.Upkeep = def.Upkeep
	b.PowerGenerated = def.PowerGenerated
	b.PowerConsumed = def.PowerConsumed
	g.Entities.AddBuilding(b)

	for _, u := range selected {
		if u.Carry == nil {
			continue // only worker types carry the construct loop
		}
		u.PushCommand(&ConstructCommand{BuildingID: id}, false)
	}
}

// applyProduceOrder enqueues a unit in a building's production queue
// after validating cost/upkeep against the faction ledger.
func applyProduceOrder(g *Game, factionID EntityID, buildingID EntityID, unitType string) {
	f, ok := g.Entities.Factions[factionID]
	if !ok {
		return
	}
	b, ok := g.Entities.Buildings[buildingID]
	if !ok || b.Owner != factionID || !b.Active() {
		return
	}
	entry, ok := FactionCatalog(f.Type)
	if !ok {
		return
	}
	var def *UnitDef
	for i := range entry.Units {
		if entry.Units[i].Type == unitType {
			def = &entry.Units[i]
			break
		}
	}
	if def == nil {
		return
	}
	item := ProductionItem{
		UnitType: def.Type, Cost: def.Cost, Upkeep: def.Upkeep, Ticks: def.BuildTicks,
		WeaponID: def.WeaponID, MaxHealth: def.MaxHealth, Speed: def.Speed, Radius: def.Radius, Elevation: def.Elevation,
		CarryCapacity: def.CarryCapacity, CloakDetectionRange: def.CloakDetectionRange,
	}
	if !g.EnqueueProduction(b, f, item) {
		g.Notify(factionID, Notice{Message: "cannot queue " + def.Type + ": over upkeep cap or insufficient credits", Category: "warning"})
	}
}

// applyOnStationOrder sends gunship and interceptor airframes into a
// polygon patrol loop around the given anchor (§4.4 OnStationCommand).
// A gunship engages targets of opportunity while continuing to patrol; an
// interceptor breaks off to fully engage, then resumes the patrol loop —
// the split is driven by unit type since only those two airframes carry
// anti-air weapons suited to standing station. Other selected unit types
// are left untouched.
func applyOnStationOrder(selected []*Unit, anchorX, anchorY float64) {
	for _, u := range selected {
		switch u.Type {
		case "gunship":
			u.PushCommand(NewOnStationCommand(anchorX, anchorY, 0, 0, false), false)
		case "fighter":
			u.PushCommand(NewOnStationCommand(anchorX, anchorY, 0, 0, true), false)
		}
	}
}

// applySortieOrder launches a housed aircraft from a hangar on a bombing
// run (§4.4 SortieCommand).
func applySortieOrder(g *Game, factionID EntityID, hangarID EntityID, target Point) {
	hb, ok := g.Entities.Buildings[hangarID]
	if !ok || hb.Owner != factionID || hb.Hangar == nil || len(hb.Hangar.Housed) == 0 {
		return
	}
	housed := hb.Hangar.Housed[0]
	hb.Hangar.Housed = hb.Hangar.Housed[1:]

	// The unit left the store while housed (ReturnToHangarCommand removes
	// it); the hangar kept a full definition snapshot so the respawned
	// airframe on launch matches what actually landed, not a placeholder.
	f := g.Entities.Factions[factionID]
	id := g.Entities.NextID()
	u := NewUnit(id, housed.Type, factionID, f.Team, hb.X, hb.Y, housed.MaxHealth, housed.Speed, housed.Radius, housed.WeaponID)
	u.Elevation = housed.Elevation
	u.Upkeep = housed.Upkeep
	if housed.Fuel != nil {
		fuelCopy := *housed.Fuel
		u.Fuel = &fuelCopy
	}
	if hb.Hangar.OnSortie == nil {
		hb.Hangar.OnSortie = make(map[EntityID]bool)
	}
	hb.Hangar.OnSortie[id] = true
	u.PushCommand(&SortieCommand{HangarID: hangarID, TargetX: target.X, TargetY: target.Y}, false)
	// once the sortie's landing phase completes, the aircraft hands itself
	// back to the hangar and is re-housed
	u.PushCommand(&ReturnToHangarCommand{HangarID: hangarID}, true)
	g.Entities.AddUnit(u)
}
