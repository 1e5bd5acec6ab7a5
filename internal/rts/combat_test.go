package rts

import "testing"

// TestTickBuildingTurretsFiresAtNearestEnemy verifies a powered defensive
// structure with a WeaponID acquires and fires at an enemy in range and
// turns to face it.
func TestTickBuildingTurretsFiresAtNearestEnemy(t *testing.T) {
	g := NewGame("turret1", testGameConfig())
	ctx := &TickContext{Entities: g.Entities, Cooldowns: g.cooldowns, Tick: g.Tick, TickRate: g.Config.TickRate, WorldW: g.WorldW, WorldH: g.WorldH}

	turretID := g.Entities.NextID()
	turret := NewBuilding(turretID, "bunker", 0, Team(0), 100, 100, 20, 500)
	turret.WeaponID = "cannon"
	g.Entities.AddBuilding(turret)

	enemyID := g.Entities.NextID()
	enemy := NewUnit(enemyID, "rifleman", 0, Team(1), 150, 150, 100, 90, 12, "rifle")
	g.Entities.AddUnit(enemy)

	g.tickBuildingTurrets(ctx)

	if len(g.Entities.Projectiles) == 0 && len(g.Entities.Beams) == 0 {
		t.Fatal("expected the turret to fire ordinance at the enemy in range")
	}
	if turret.Rotation == 0 {
		t.Error("expected the turret to rotate toward its target")
	}
}

// TestTickBuildingTurretsIgnoresUnpoweredOrUnarmed verifies a turret with
// no WeaponID, and a powered-off turret, never fire.
func TestTickBuildingTurretsIgnoresUnpoweredOrUnarmed(t *testing.T) {
	g := NewGame("turret2", testGameConfig())
	ctx := &TickContext{Entities: g.Entities, Cooldowns: g.cooldowns, Tick: g.Tick, TickRate: g.Config.TickRate, WorldW: g.WorldW, WorldH: g.WorldH}

	unarmedID := g.Entities.NextID()
	unarmed := NewBuilding(unarmedID, "headquarters", 0, Team(0), 100, 100, 48, 2000)
	g.Entities.AddBuilding(unarmed)

	unpoweredID := g.Entities.NextID()
	unpowered := NewBuilding(unpoweredID, "bunker", 0, Team(0), 300, 300, 20, 500)
	unpowered.WeaponID = "cannon"
	unpowered.Powered = false
	g.Entities.AddBuilding(unpowered)

	enemyID := g.Entities.NextID()
	enemy := NewUnit(enemyID, "rifleman", 0, Team(1), 320, 300, 100, 90, 12, "rifle")
	g.Entities.AddUnit(enemy)

	g.tickBuildingTurrets(ctx)

	if len(g.Entities.Projectiles) != 0 || len(g.Entities.Beams) != 0 {
		t.Error("expected no ordinance from an unarmed or unpowered turret")
	}
}
