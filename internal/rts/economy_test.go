package rts

import "testing"

// TestCanAffordRespectsUpkeepCap verifies a faction with enough credits
// but insufficient upkeep headroom cannot afford a purchase.
func TestCanAffordRespectsUpkeepCap(t *testing.T) {
	f := NewFaction(1, "armored", Team(0), "p1", 10, 1000)
	f.CurrentUpkeep = 9
	if f.CanAfford(100, 2) {
		t.Error("purchase should be rejected: upkeep would exceed the cap")
	}
	if f.CanAfford(100, 1) == false {
		t.Error("purchase exactly at the upkeep cap should be allowed")
	}
}

// TestSpendFloorsCreditsAtZero guards the conservation invariant: credits
// never go negative even if Spend is called beyond CanAfford's guard.
func TestSpendFloorsCreditsAtZero(t *testing.T) {
	f := NewFaction(1, "armored", Team(0), "p1", 100, 50)
	f.Spend(80, 0)
	if f.Credits != 0 {
		t.Errorf("credits should floor at 0, got %d", f.Credits)
	}
}

// TestEnqueueProductionRejectsWithoutSideEffects verifies a rejected
// production order leaves the faction ledger and building queue
// untouched (§4.6 reject rule).
func TestEnqueueProductionRejectsWithoutSideEffects(t *testing.T) {
	g := NewGame("econ-test", GameConfig{WorldW: 1000, WorldH: 1000})
	f := NewFaction(g.Entities.NextID(), "armored", Team(0), "p1", 40, 10)
	g.Entities.Factions[f.ID] = f
	b := NewBuilding(g.Entities.NextID(), "barracks", f.ID, f.Team, 0, 0, 32, 500)
	g.Entities.AddBuilding(b)

	item := ProductionItem{UnitType: "infantry", Cost: 1000, Upkeep: 1, Ticks: 10}
	if g.EnqueueProduction(b, f, item) {
		t.Fatal("expected rejection: insufficient credits")
	}
	if f.Credits != 10 {
		t.Errorf("credits must be untouched on rejection, got %d", f.Credits)
	}
	if len(b.Queue) != 0 {
		t.Errorf("queue must be untouched on rejection, got %d items", len(b.Queue))
	}
}

// TestEnqueueProductionDebitsExactly verifies an accepted order debits
// exactly cost/upkeep once (conservation: no double-spend, no drift).
func TestEnqueueProductionDebitsExactly(t *testing.T) {
	g := NewGame("econ-test-2", GameConfig{WorldW: 1000, WorldH: 1000})
	f := NewFaction(g.Entities.NextID(), "armored", Team(0), "p1", 40, 500)
	g.Entities.Factions[f.ID] = f
	b := NewBuilding(g.Entities.NextID(), "barracks", f.ID, f.Team, 0, 0, 32, 500)
	g.Entities.AddBuilding(b)

	item := ProductionItem{UnitType: "infantry", Cost: 100, Upkeep: 2, Ticks: 5}
	if !g.EnqueueProduction(b, f, item) {
		t.Fatal("expected acceptance: order is affordable")
	}
	if f.Credits != 400 {
		t.Errorf("expected 400 credits remaining, got %d", f.Credits)
	}
	if f.CurrentUpkeep != 2 {
		t.Errorf("expected upkeep 2, got %v", f.CurrentUpkeep)
	}
	if len(b.Queue) != 1 || b.Queue[0].UnitType != "infantry" {
		t.Errorf("expected the item queued once, got %+v", b.Queue)
	}
}

// TestParallelResearchSlotsScalesWithUpgrades verifies the base-plus-
// upgrades slot formula.
func TestParallelResearchSlotsScalesWithUpgrades(t *testing.T) {
	f := NewFaction(1, "armored", Team(0), "p1", 40, 100)
	if f.ParallelResearchSlots() != 1 {
		t.Fatalf("expected 1 base slot, got %d", f.ParallelResearchSlots())
	}
	f.CompletedResearch["PARALLEL_RESEARCH_1"] = true
	if f.ParallelResearchSlots() != 2 {
		t.Errorf("expected 2 slots after one upgrade, got %d", f.ParallelResearchSlots())
	}
	f.CompletedResearch["ARMOR_PLATING"] = true // unrelated research
	if f.ParallelResearchSlots() != 2 {
		t.Errorf("unrelated research must not grant a slot, got %d", f.ParallelResearchSlots())
	}
}

// TestStartResearchRespectsSlotCap verifies research requests beyond the
// available parallel slots are rejected.
func TestStartResearchRespectsSlotCap(t *testing.T) {
	g := NewGame("econ-test-3", GameConfig{WorldW: 1000, WorldH: 1000})
	f := NewFaction(g.Entities.NextID(), "armored", Team(0), "p1", 40, 100)
	g.Entities.Factions[f.ID] = f

	if !g.StartResearch(f, 1, "ARMOR_PLATING") {
		t.Fatal("first research should start: one base slot free")
	}
	if g.StartResearch(f, 2, "RAPID_FIRE") {
		t.Error("second research should be rejected: no free slot")
	}
}

// TestAccrueCarriesFractionalIncome verifies sub-credit per-tick income
// accumulates across ticks instead of truncating to zero (conservation:
// income must actually arrive).
func TestAccrueCarriesFractionalIncome(t *testing.T) {
	f := NewFaction(1, "armored", Team(0), "p1", 40, 0)
	for i := 0; i < 10; i++ {
		f.Accrue(0.55)
	}
	if f.Credits != 5 {
		t.Errorf("expected 5 whole credits from 10 ticks of 0.55, got %d", f.Credits)
	}
}

// TestUpdatePowerDeficitHalvesProductionAndDisablesTurrets verifies the
// low-power rule: consumption over generation halves the production
// modifier and powers down weaponized structures.
func TestUpdatePowerDeficitHalvesProductionAndDisablesTurrets(t *testing.T) {
	g := NewGame("power-test", testGameConfig())
	f := NewFaction(g.Entities.NextID(), "armored", Team(0), "p1", 40, 1000)
	g.Entities.Factions[f.ID] = f

	plant := NewBuilding(g.Entities.NextID(), "power_plant", f.ID, f.Team, 0, 0, 28, 400)
	plant.PowerGenerated = 100
	g.Entities.AddBuilding(plant)

	turret := NewBuilding(g.Entities.NextID(), "bunker", f.ID, f.Team, 100, 0, 20, 500)
	turret.WeaponID = "cannon"
	turret.PowerConsumed = 15
	g.Entities.AddBuilding(turret)

	g.updatePower(f)
	if f.HasLowPower {
		t.Fatal("generation 100 vs consumption 15 must not be a deficit")
	}
	if !turret.Powered {
		t.Fatal("turret should be powered at full generation")
	}
	if f.ProductionModifier() != 1.0 {
		t.Errorf("expected full production speed, got %v", f.ProductionModifier())
	}

	plant.TakeDamage(5000, 0)
	g.updatePower(f)
	if !f.HasLowPower {
		t.Fatal("losing the power plant must flip the faction into deficit")
	}
	if turret.Powered {
		t.Error("turret should power down under a deficit")
	}
	if f.ProductionModifier() != 0.5 {
		t.Errorf("expected half production speed under deficit, got %v", f.ProductionModifier())
	}
}

// TestStartResearchDebitsCostAndChecksPrerequisites verifies catalog
// research requires its prerequisites and debits credits once.
func TestStartResearchDebitsCostAndChecksPrerequisites(t *testing.T) {
	g := NewGame("research-test", testGameConfig())
	f := NewFaction(g.Entities.NextID(), "armored", Team(0), "p1", 40, 5000)
	g.Entities.Factions[f.ID] = f

	if g.StartResearch(f, 1, "composite_rounds") {
		t.Fatal("composite_rounds requires improved_armor first")
	}
	if !g.StartResearch(f, 1, "improved_armor") {
		t.Fatal("improved_armor has no prerequisites and is affordable")
	}
	if f.Credits != 3500 {
		t.Errorf("expected 1500 debited for improved_armor, got %d credits left", f.Credits)
	}
	f.CompletedResearch["improved_armor"] = true
	delete(f.ActiveResearch, 1)
	if !g.StartResearch(f, 1, "composite_rounds") {
		t.Error("composite_rounds should start once its prerequisite completes")
	}
}

// TestSpawnProducedUnitUsesItemStats verifies a spawned unit gets the
// weapon/health/speed/radius/elevation carried on its ProductionItem
// rather than a fixed placeholder, so a "tank" doesn't come out armed
// like a rifleman.
func TestSpawnProducedUnitUsesItemStats(t *testing.T) {
	g := NewGame("econ-test-4", GameConfig{WorldW: 1000, WorldH: 1000})
	f := NewFaction(g.Entities.NextID(), "armored", Team(0), "p1", 40, 10000)
	g.Entities.Factions[f.ID] = f
	b := NewBuilding(g.Entities.NextID(), "war_factory", f.ID, f.Team, 0, 0, 32, 500)
	g.Entities.AddBuilding(b)

	item := ProductionItem{
		UnitType: "tank", WeaponID: "cannon", MaxHealth: 400, Speed: 60, Radius: 20, Elevation: ElevationGround,
	}
	g.spawnProducedUnit(f, b, item)

	var spawned *Unit
	for _, u := range g.Entities.Units {
		spawned = u
	}
	if spawned == nil {
		t.Fatal("expected a unit to be added to the store")
	}
	if spawned.WeaponID != "cannon" {
		t.Errorf("expected weapon cannon, got %q", spawned.WeaponID)
	}
	if spawned.MaxHealth != 400 || spawned.Speed != 60 || spawned.Radius != 20 {
		t.Errorf("expected tank stats 400/60/20, got %v/%v/%v", spawned.MaxHealth, spawned.Speed, spawned.Radius)
	}
}

// TestSpawnProducedUnitAttachesComponents verifies worker and cloak
// production items come out with their carry/cloak components attached.
func TestSpawnProducedUnitAttachesComponents(t *testing.T) {
	g := NewGame("econ-test-5", GameConfig{WorldW: 1000, WorldH: 1000})
	f := NewFaction(g.Entities.NextID(), "armored", Team(0), "p1", 40, 10000)
	g.Entities.Factions[f.ID] = f
	b := NewBuilding(g.Entities.NextID(), "barracks", f.ID, f.Team, 0, 0, 32, 500)
	g.Entities.AddBuilding(b)

	g.spawnProducedUnit(f, b, ProductionItem{UnitType: "worker", MaxHealth: 80, Speed: 70, Radius: 14, CarryCapacity: 50})
	g.spawnProducedUnit(f, b, ProductionItem{UnitType: "cloak_tank", WeaponID: "cannon", MaxHealth: 320, Speed: 65, Radius: 20, CloakDetectionRange: 140})

	var worker, cloaked *Unit
	for _, u := range g.Entities.Units {
		switch u.Type {
		case "worker":
			worker = u
		case "cloak_tank":
			cloaked = u
		}
	}
	if worker == nil || worker.Carry == nil || worker.Carry.Capacity != 50 {
		t.Error("expected the produced worker to carry a harvest component")
	}
	if cloaked == nil || cloaked.Cloak == nil || cloaked.Cloak.DetectionRange != 140 {
		t.Error("expected the produced cloak_tank to carry a cloak component")
	}
}
