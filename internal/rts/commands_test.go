package rts

import (
	"math"
	"testing"
)

func testTickContext(g *Game) *TickContext {
	return &TickContext{
		Entities: g.Entities, Paths: g.Paths, Cooldowns: g.cooldowns,
		Tick: g.Tick, TickRate: g.Config.TickRate, DeltaSec: 1.0 / 60,
		WorldW: g.WorldW, WorldH: g.WorldH,
	}
}

// TestOnStationCommandAdvancesPatrolVertex verifies arriving at one
// polygon patrol stop advances to the next vertex instead of sitting at
// the anchor forever.
func TestOnStationCommandAdvancesPatrolVertex(t *testing.T) {
	g := NewGame("onstation1", testGameConfig())
	ctx := testTickContext(g)

	anchorX, anchorY := 500.0, 500.0
	cmd := NewOnStationCommand(anchorX, anchorY, 4, 200, false)
	firstGoalX, firstGoalY := cmd.GoalX, cmd.GoalY

	u := NewUnit(g.Entities.NextID(), "gunship", 0, Team(0), firstGoalX, firstGoalY, 150, 130, 16, "flak")
	g.Entities.AddUnit(u)

	cmd.UpdateMovement(u, ctx, nil)

	if cmd.patrolVertex != 1 {
		t.Fatalf("expected patrol vertex to advance to 1, got %d", cmd.patrolVertex)
	}
	if cmd.GoalX == firstGoalX && cmd.GoalY == firstGoalY {
		t.Error("expected the next patrol goal to differ from the first vertex")
	}
}

// TestOnStationInterceptorBreaksOffAndResumes verifies an interceptor
// finding a target swaps to an AttackTargetableCommand immediately and
// queues a resume-patrol command behind it, rather than sitting on the
// found target's AutoTargetID like a gunship does.
func TestOnStationInterceptorBreaksOffAndResumes(t *testing.T) {
	g := NewGame("onstation2", testGameConfig())
	ctx := testTickContext(g)

	anchorX, anchorY := 500.0, 500.0
	cmd := NewOnStationCommand(anchorX, anchorY, 6, 200, true)
	cmd.scanTimer = scanCadenceTicks

	u := NewUnit(g.Entities.NextID(), "fighter", 0, Team(0), anchorX, anchorY, 180, 220, 16, "sam")
	u.Elevation = ElevationHigh
	u.Command = cmd
	g.Entities.AddUnit(u)

	enemy := NewUnit(g.Entities.NextID(), "bomber", 0, Team(1), anchorX+50, anchorY, 260, 150, 22, "")
	enemy.Elevation = ElevationHigh
	g.Entities.AddUnit(enemy)

	keepGoing := cmd.Update(u, ctx)
	if !keepGoing {
		t.Fatal("Update must return true after swapping commands so AdvanceCommand doesn't overwrite them")
	}
	attack, ok := u.Command.(*AttackTargetableCommand)
	if !ok {
		t.Fatalf("expected the unit's command to become AttackTargetableCommand, got %T", u.Command)
	}
	if attack.TargetID != enemy.id {
		t.Errorf("expected the attack command to target the found enemy, got %v", attack.TargetID)
	}
	if len(u.CommandQueue) != 1 {
		t.Fatalf("expected one queued resume command, got %d", len(u.CommandQueue))
	}
	if _, ok := u.CommandQueue[0].(*AttackMoveCommand); !ok {
		t.Errorf("expected the queued command to resume the patrol, got %T", u.CommandQueue[0])
	}
}

// TestFaceAndFireLeadsMovingTarget verifies predictive aim: the spawned
// projectile flies toward the intercept point computed from the target's
// velocity in world-units/sec, not toward where the target currently is
// (and not toward a lead inflated by any per-tick velocity scaling).
func TestFaceAndFireLeadsMovingTarget(t *testing.T) {
	g := NewGame("lead1", testGameConfig())
	ctx := testTickContext(g)

	shooter := NewUnit(g.Entities.NextID(), "rifleman", 0, Team(0), 0, 0, 100, 90, 12, "rifle")
	g.Entities.AddUnit(shooter)

	target := NewUnit(g.Entities.NextID(), "rifleman", 0, Team(1), 300, 0, 100, 90, 12, "rifle")
	target.VX, target.VY = 0, 50 // crossing at 50 units/sec
	g.Entities.AddUnit(target)

	out := faceAndFire(shooter, ctx, target, ctx.Cooldowns)
	if len(out) != 1 {
		t.Fatalf("expected one projectile, got %d items", len(out))
	}
	p, ok := out[0].(*Projectile)
	if !ok {
		t.Fatalf("expected a projectile, got %T", out[0])
	}

	// rifle flies 600/sec, so it covers 300 units in 0.5s; the target moves
	// 25 units up in that time, putting the intercept at (300, 25)
	wantAngle := math.Atan2(25, 300)
	if math.Abs(p.Rotation-wantAngle) > 0.02 {
		t.Errorf("expected lead angle %.4f toward (300, 25), got %.4f", wantAngle, p.Rotation)
	}
}

// TestHarvestCommandLoopDeliversCredits drives the full worker loop:
// extract at the site until full, return to the depot, deliver, repeat.
func TestHarvestCommandLoopDeliversCredits(t *testing.T) {
	g := NewGame("harvest1", testGameConfig())
	ctx := testTickContext(g)

	f := NewFaction(g.Entities.NextID(), "armored", Team(0), "p1", 40, 0)
	g.Entities.Factions[f.ID] = f

	depot := NewBuilding(g.Entities.NextID(), "refinery", f.ID, f.Team, 500, 500, 36, 600)
	g.Entities.AddBuilding(depot)

	ore := NewObstacle(g.Entities.NextID(), ObstacleCircle, 520, 500, 16)
	ore.ResourceType = "ore"
	ore.ResourceRemaining = 1000
	g.Entities.Obstacles[ore.ID()] = ore

	w := NewUnit(g.Entities.NextID(), "worker", f.ID, f.Team, 520, 500, 80, 70, 14, "")
	w.Carry = &WorkerCarryComponent{Capacity: 50, MineHealth: 100}
	g.Entities.AddUnit(w)

	cmd := &HarvestCommand{ObstacleID: ore.ID(), DepotID: depot.ID()}
	w.Command = cmd

	for i := 0; i < 120; i++ {
		cmd.Update(w, ctx)
		cmd.UpdateMovement(w, ctx, nil)
		cmd.UpdateCombat(w, ctx)
	}

	if f.Credits == 0 {
		t.Error("expected at least one delivery's worth of credits after 120 ticks")
	}
	if ore.ResourceRemaining >= 1000 {
		t.Error("expected the obstacle's resource to deplete as it is harvested")
	}
}

// TestMineCommandPhaseLoop verifies the mine loop actually advances
// through its phases on the command's own state rather than resetting
// each tick.
func TestMineCommandPhaseLoop(t *testing.T) {
	g := NewGame("mine1", testGameConfig())
	ctx := testTickContext(g)

	f := NewFaction(g.Entities.NextID(), "armored", Team(0), "p1", 40, 0)
	g.Entities.Factions[f.ID] = f

	depot := NewBuilding(g.Entities.NextID(), "refinery", f.ID, f.Team, 500, 500, 36, 600)
	g.Entities.AddBuilding(depot)

	rock := NewObstacle(g.Entities.NextID(), ObstacleCircle, 520, 500, 16)
	g.Entities.Obstacles[rock.ID()] = rock

	w := NewUnit(g.Entities.NextID(), "worker", f.ID, f.Team, 520, 500, 80, 70, 14, "")
	w.Carry = &WorkerCarryComponent{Capacity: 50, MineHealth: 100}
	g.Entities.AddUnit(w)

	cmd := &MineCommand{ObstacleID: rock.ID(), DepotID: depot.ID()}
	w.Command = cmd

	cmd.UpdateMovement(w, ctx, nil)
	if cmd.phase != workerPhaseWorking {
		t.Fatalf("expected the worker at the site to enter the working phase, got %v", cmd.phase)
	}
	for i := 0; i < 60 && cmd.phase == workerPhaseWorking; i++ {
		cmd.UpdateCombat(w, ctx)
	}
	if cmd.phase != workerPhaseReturning {
		t.Fatalf("expected a full carry to flip the command into returning, got %v", cmd.phase)
	}
	cmd.UpdateMovement(w, ctx, nil)
	if f.Credits == 0 {
		t.Error("expected the carried load delivered as credits at the depot")
	}
	if cmd.phase != workerPhaseToSite {
		t.Errorf("expected the loop to head back to the site after delivery, got %v", cmd.phase)
	}
}

// TestSortieOrderQueuesReturnToHangar verifies a launched sortie carries a
// queued return-to-hangar command so the aircraft re-houses after landing.
func TestSortieOrderQueuesReturnToHangar(t *testing.T) {
	g := NewGame("sortie2", testGameConfig())
	f := NewFaction(g.Entities.NextID(), "armored", Team(0), "p1", 40, 10000)
	g.Entities.Factions[f.ID] = f

	hangarID := g.Entities.NextID()
	hangar := NewBuilding(hangarID, "airfield", f.ID, f.Team, 0, 0, 44, 700)
	hangar.Hangar = &HangarComponent{Capacity: 4, OnSortie: make(map[EntityID]bool)}
	hangar.Hangar.Housed = append(hangar.Hangar.Housed, HousedAircraft{
		Type: "bomber", Elevation: ElevationHigh, MaxHealth: 260, Speed: 150, Radius: 22,
	})
	g.Entities.AddBuilding(hangar)

	applySortieOrder(g, f.ID, hangarID, Point{X: 1500, Y: 0})

	var bomber *Unit
	for _, u := range g.Entities.Units {
		bomber = u
	}
	if bomber == nil {
		t.Fatal("expected the sortied bomber in the store")
	}
	if _, ok := bomber.Command.(*SortieCommand); !ok {
		t.Fatalf("expected an active SortieCommand, got %T", bomber.Command)
	}
	if len(bomber.CommandQueue) != 1 {
		t.Fatalf("expected one queued command behind the sortie, got %d", len(bomber.CommandQueue))
	}
	rth, ok := bomber.CommandQueue[0].(*ReturnToHangarCommand)
	if !ok {
		t.Fatalf("expected a queued ReturnToHangarCommand, got %T", bomber.CommandQueue[0])
	}
	if rth.HangarID != hangarID {
		t.Errorf("expected the return command bound to the launching hangar, got %v", rth.HangarID)
	}
}

// TestSortieReconstructsHousedAircraft verifies a sortied unit matches
// the airframe that was actually housed, not a fixed placeholder type.
func TestSortieReconstructsHousedAircraft(t *testing.T) {
	g := NewGame("sortie1", testGameConfig())
	f := NewFaction(g.Entities.NextID(), "insurgent", Team(0), "p1", 40, 10000)
	g.Entities.Factions[f.ID] = f

	hangarID := g.Entities.NextID()
	hangar := NewBuilding(hangarID, "workshop", f.ID, f.Team, 0, 0, 32, 800)
	hangar.Hangar = &HangarComponent{Capacity: 4, OnSortie: make(map[EntityID]bool)}
	hangar.Hangar.Housed = append(hangar.Hangar.Housed, HousedAircraft{
		Type: "gunship", WeaponID: "flak", Elevation: ElevationLow, MaxHealth: 150, Speed: 130, Radius: 16,
	})
	g.Entities.AddBuilding(hangar)

	applySortieOrder(g, f.ID, hangarID, Point{X: 900, Y: 900})

	var sortied *Unit
	for _, u := range g.Entities.Units {
		sortied = u
	}
	if sortied == nil {
		t.Fatal("expected a sortied unit to be added to the store")
	}
	if sortied.Type != "gunship" {
		t.Errorf("expected the sortied unit to stay a gunship, got %q", sortied.Type)
	}
	if sortied.WeaponID != "flak" || sortied.Elevation != ElevationLow {
		t.Errorf("expected flak/low-elevation airframe, got %q/%v", sortied.WeaponID, sortied.Elevation)
	}
	if len(hangar.Hangar.Housed) != 0 {
		t.Error("expected the housed slot to be consumed by the sortie")
	}
}
