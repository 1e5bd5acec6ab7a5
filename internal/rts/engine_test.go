package rts

import (
	"testing"
	"time"
)

func testGameConfig() GameConfig {
	return GameConfig{
		TickRate:     60,
		WorldW:       1000,
		WorldH:       1000,
		VisionRadius: 400,
		Limits:       DefaultLimits,
		Economy:      DefaultEconomyConfig,
	}
}

// TestStepAdvancesTickAndBuildsSnapshot verifies one manual step runs the
// full ten-stage order without panicking and leaves a readable snapshot
// behind.
func TestStepAdvancesTickAndBuildsSnapshot(t *testing.T) {
	g := NewGame("g1", testGameConfig())
	g.SpawnFaction("armored", "p1", Team(0), 0, 2)
	g.SpawnFaction("insurgent", "p2", Team(1), 1, 2)

	g.step(1.0 / 60)
	if g.Tick != 1 {
		t.Fatalf("expected tick 1, got %d", g.Tick)
	}

	view := g.SnapshotForTeam(Team(0))
	if view.Tick != 1 {
		t.Errorf("expected snapshot tick 1, got %d", view.Tick)
	}
	if len(view.Factions) == 0 {
		t.Error("expected faction entries in the snapshot")
	}
}

// TestCheckVictorySoleSurvivorWins verifies property 6: the game ends
// exactly once a single team holds the only live headquarters.
func TestCheckVictorySoleSurvivorWins(t *testing.T) {
	g := NewGame("g2", testGameConfig())
	fa := g.SpawnFaction("armored", "p1", Team(0), 0, 2)
	g.SpawnFaction("insurgent", "p2", Team(1), 1, 2)

	for _, b := range g.Entities.Buildings {
		if b.Team != fa.Team && b.IsHeadquarters {
			b.TakeDamage(5000, 0)
		}
	}
	g.checkVictory()

	select {
	case reason := <-g.GameOver():
		if reason.WinningTeam != int(fa.Team) {
			t.Errorf("expected team %d to win, got %d", fa.Team, reason.WinningTeam)
		}
	default:
		t.Fatal("expected gameOver to fire once the only other HQ is destroyed")
	}
}

// TestCheckVictorySimultaneousWipe verifies the no-winner path when every
// headquarters is destroyed in the same tick.
func TestCheckVictorySimultaneousWipe(t *testing.T) {
	g := NewGame("g3", testGameConfig())
	g.SpawnFaction("armored", "p1", Team(0), 0, 2)
	g.SpawnFaction("insurgent", "p2", Team(1), 1, 2)

	for _, b := range g.Entities.Buildings {
		if b.IsHeadquarters {
			b.TakeDamage(5000, 0)
		}
	}
	g.checkVictory()

	select {
	case reason := <-g.GameOver():
		if reason.WinningTeam != -1 || reason.Reason != "simultaneous_wipe" {
			t.Errorf("expected simultaneous wipe with no winner, got %+v", reason)
		}
	default:
		t.Fatal("expected gameOver to fire on simultaneous elimination")
	}
}

// TestCheckVictoryFiresOnlyOnce guards against a duplicate gameOver send
// once hasWinner is latched (the channel is buffered 1; once the first
// reason is read, a second send would deliver a second gameOver).
func TestCheckVictoryFiresOnlyOnce(t *testing.T) {
	g := NewGame("g4", testGameConfig())
	fa := g.SpawnFaction("armored", "p1", Team(0), 0, 2)
	g.SpawnFaction("insurgent", "p2", Team(1), 1, 2)

	for _, b := range g.Entities.Buildings {
		if b.Team != fa.Team && b.IsHeadquarters {
			b.TakeDamage(5000, 0)
		}
	}
	g.checkVictory()
	<-g.GameOver()
	g.checkVictory() // must be a no-op now

	select {
	case reason := <-g.GameOver():
		t.Errorf("gameOver should not fire twice, got %+v", reason)
	default:
	}
}

// TestCooldownsAreIsolatedPerGame guards against the cross-game EntityID
// collision bug: two concurrently running games must never share a
// weapon-cooldown state, since entity ids are only unique within a game.
func TestCooldownsAreIsolatedPerGame(t *testing.T) {
	g1 := NewGame("iso-1", testGameConfig())
	g2 := NewGame("iso-2", testGameConfig())

	if g1.cooldowns == g2.cooldowns {
		t.Fatal("each game must own a distinct cooldown tracker")
	}

	const sharedID = EntityID(7)
	g1.cooldowns.arm(sharedID, 100)
	if g2.cooldowns.remaining(sharedID) != 0 {
		t.Error("arming a cooldown in one game must not leak into another game with the same entity id")
	}
}

// TestNearbyUnitIDsExcludesSelf verifies the spatial-grid lookup used for
// separation/steering never reports the querying unit as its own
// neighbor.
func TestNearbyUnitIDsExcludesSelf(t *testing.T) {
	g := NewGame("grid-test", testGameConfig())
	a := NewUnit(g.Entities.NextID(), "infantry", 1, Team(0), 500, 500, 50, 50, 10, "rifle")
	b := NewUnit(g.Entities.NextID(), "infantry", 1, Team(0), 510, 500, 50, 50, 10, "rifle")
	g.Entities.AddUnit(a)
	g.Entities.AddUnit(b)

	g.Grid.Clear()
	g.Grid.Insert(uint64(a.id), a.X, a.Y)
	g.Grid.Insert(uint64(b.id), b.X, b.Y)

	nearby := g.nearbyUnitIDs(a)
	for _, id := range nearby {
		if id == a.id {
			t.Error("nearbyUnitIDs must not include the querying unit itself")
		}
	}
	found := false
	for _, id := range nearby {
		if id == b.id {
			found = true
		}
	}
	if !found {
		t.Error("expected the nearby unit to be found within query radius")
	}
}

// TestEnqueueDropsOldestOverCapacity verifies the latest-wins backpressure
// rule when a game's input queue exceeds its configured limit.
func TestEnqueueDropsOldestOverCapacity(t *testing.T) {
	cfg := testGameConfig()
	cfg.Limits.MaxInputsPerTick = 2
	g := NewGame("backpressure", cfg)

	tags := []string{"first", "second", "third"}
	for _, tag := range tags {
		tag := tag
		g.Enqueue(InputCommand{SessionID: tag})
	}

	drained := g.drainInputs()
	if len(drained) != 2 {
		t.Fatalf("expected queue capped at 2, got %d", len(drained))
	}
	if drained[0].SessionID != "second" || drained[1].SessionID != "third" {
		t.Errorf("expected the oldest input dropped, got %v", drained)
	}
}

// TestStopIsIdempotent verifies a double Stop never panics (closing a
// closed channel would).
func TestStopIsIdempotent(t *testing.T) {
	g := NewGame("stop-test", testGameConfig())
	g.Start()
	time.Sleep(5 * time.Millisecond)
	g.Stop()
	g.Stop()
}

// TestCheckVictoryIgnoresEmptyGame guards against a freshly created game
// with no seated factions declaring a simultaneous wipe on its first tick.
func TestCheckVictoryIgnoresEmptyGame(t *testing.T) {
	g := NewGame("empty-game", testGameConfig())
	g.checkVictory()
	select {
	case reason := <-g.GameOver():
		t.Errorf("gameOver must not fire for a game with no factions, got %+v", reason)
	default:
	}
}

// TestCullInactiveReleasesUpkeep verifies a destroyed unit returns its
// upkeep headroom to its owner, keeping CurrentUpkeep the sum of live
// holdings (conservation property 1).
func TestCullInactiveReleasesUpkeep(t *testing.T) {
	g := NewGame("upkeep-release", testGameConfig())
	f := NewFaction(g.Entities.NextID(), "armored", Team(0), "p1", 40, 1000)
	g.Entities.Factions[f.ID] = f

	u := NewUnit(g.Entities.NextID(), "tank", f.ID, f.Team, 100, 100, 400, 60, 20, "cannon")
	u.Upkeep = 0.08
	f.CurrentUpkeep = 0.08
	g.Entities.AddUnit(u)

	u.TakeDamage(1000, 0)
	g.cullInactive()

	if _, ok := g.Entities.Units[u.id]; ok {
		t.Fatal("expected the dead unit removed from the store")
	}
	if f.CurrentUpkeep != 0 {
		t.Errorf("expected the unit's upkeep released on death, got %v", f.CurrentUpkeep)
	}
}

// TestPlayerCountReflectsSeatedFactions backs the lobby sweeper's
// empty-game rule.
func TestPlayerCountReflectsSeatedFactions(t *testing.T) {
	g := NewGame("playercount-test", testGameConfig())
	if g.PlayerCount() != 0 {
		t.Fatalf("expected 0 players on a fresh game, got %d", g.PlayerCount())
	}
	g.SpawnFaction("armored", "p1", Team(0), 0, 1)
	if g.PlayerCount() != 1 {
		t.Errorf("expected 1 player after spawning a faction, got %d", g.PlayerCount())
	}
}
