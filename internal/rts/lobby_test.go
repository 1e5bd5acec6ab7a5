package rts

import "testing"

func testLobbyConfig() GameConfig {
	return GameConfig{TickRate: 60, VisionRadius: 400, Limits: DefaultLimits, Economy: DefaultEconomyConfig}
}

// TestWorldSizeForPlayersStepFunction locks in §4.8's map-size step
// function so a future edit notices if it silently changes.
func TestWorldSizeForPlayersStepFunction(t *testing.T) {
	cases := map[int]float64{1: 3000, 2: 3000, 3: 3500, 4: 4000, 8: 4000}
	for players, want := range cases {
		if got := worldSizeForPlayers(players); got != want {
			t.Errorf("worldSizeForPlayers(%d) = %v, want %v", players, got, want)
		}
	}
}

// TestJoinMatchmakingFillsSlotsThenReady verifies a matchmaking game
// becomes ready only once every slot is reserved, and rejects a faction
// already taken.
func TestJoinMatchmakingFillsSlotsThenReady(t *testing.T) {
	l := NewLobby(8, testLobbyConfig())
	defer l.Shutdown()

	res1, err := l.JoinMatchmaking("", "temperate", "normal", "armored", 2)
	if err != nil {
		t.Fatalf("first join should succeed: %v", err)
	}
	if l.IsGameReady(res1.GameID) {
		t.Fatal("game should not be ready with only 1 of 2 slots filled")
	}

	if _, err := l.JoinMatchmaking(res1.GameID, "", "", "armored", 2); err == nil {
		t.Error("expected rejection: faction slot already taken")
	}

	res2, err := l.JoinMatchmaking(res1.GameID, "", "", "insurgent", 2)
	if err != nil {
		t.Fatalf("second join should succeed: %v", err)
	}
	if res2.GameID != res1.GameID {
		t.Fatal("second reservation should join the same matchmaking game")
	}
	if !l.IsGameReady(res1.GameID) {
		t.Fatal("game should be ready once every slot is filled")
	}
}

// TestResolvePromotesReadyMatchmakingGame verifies a filled matchmaking
// game is promoted to an active, ticking game on first Resolve.
func TestResolvePromotesReadyMatchmakingGame(t *testing.T) {
	l := NewLobby(8, testLobbyConfig())
	defer l.Shutdown()

	res1, _ := l.JoinMatchmaking("", "temperate", "normal", "armored", 1)

	g, err := l.Resolve(res1.GameID)
	if err != nil {
		t.Fatalf("expected promotion to succeed: %v", err)
	}
	if g == nil {
		t.Fatal("expected a live game back")
	}

	g2, err := l.Resolve(res1.GameID)
	if err != nil || g2 != g {
		t.Fatalf("expected the same promoted game on a second resolve, got %v / %v", g2, err)
	}
}

// TestResolveSessionRejectsUnknownToken verifies the WS handshake rejects
// a session token that was never issued.
func TestResolveSessionRejectsUnknownToken(t *testing.T) {
	l := NewLobby(8, testLobbyConfig())
	defer l.Shutdown()

	res, _ := l.JoinMatchmaking("", "temperate", "normal", "armored", 1)
	if _, err := l.ResolveSession(res.GameID, "not-a-real-token"); err == nil {
		t.Error("expected rejection for an unknown session token")
	}
	if _, err := l.ResolveSession(res.GameID, res.SessionToken); err != nil {
		t.Errorf("expected the issued token to resolve, got %v", err)
	}
}

// TestLeaveMatchmakingRemovesEmptyGame verifies leaving the only
// reserved slot tears the matchmaking game down immediately rather than
// waiting for the sweeper.
func TestLeaveMatchmakingRemovesEmptyGame(t *testing.T) {
	l := NewLobby(8, testLobbyConfig())
	defer l.Shutdown()

	res, _ := l.JoinMatchmaking("", "temperate", "normal", "armored", 2)
	if err := l.LeaveMatchmaking(res.GameID, res.SessionToken); err != nil {
		t.Fatalf("leave should succeed: %v", err)
	}
	if _, err := l.Resolve(res.GameID); err == nil {
		t.Error("expected the matchmaking game to be gone after its only reservation left")
	}
}

// TestCreateGameRejectsOverCapacity verifies the global game cap.
func TestCreateGameRejectsOverCapacity(t *testing.T) {
	l := NewLobby(1, testLobbyConfig())
	defer l.Shutdown()

	if _, err := l.CreateGame(testLobbyConfig()); err != nil {
		t.Fatalf("first game should succeed: %v", err)
	}
	if _, err := l.CreateGame(testLobbyConfig()); err == nil {
		t.Error("expected rejection: lobby is at capacity")
	}
}

// TestSweepRemovesFinishedGames verifies the sweeper reaps a game whose
// GameOver channel has already fired.
func TestSweepRemovesFinishedGames(t *testing.T) {
	l := NewLobby(8, testLobbyConfig())
	defer l.Shutdown()

	id, _ := l.CreateGame(testLobbyConfig())
	g, err := l.Resolve(id)
	if err != nil {
		t.Fatalf("resolve should succeed: %v", err)
	}
	g.terminate(GameOverReason{WinningTeam: -1, Reason: "test"})

	l.sweep()

	if _, err := l.Resolve(id); err == nil {
		t.Error("expected the finished game to be swept from the lobby")
	}
}

// TestStatsAggregatesAcrossGames verifies Stats sums player/unit counts
// across every active game rather than reporting only the last one.
func TestStatsAggregatesAcrossGames(t *testing.T) {
	l := NewLobby(8, testLobbyConfig())
	defer l.Shutdown()

	id1, _ := l.CreateGame(testLobbyConfig())
	id2, _ := l.CreateGame(testLobbyConfig())
	g1, _ := l.Resolve(id1)
	g2, _ := l.Resolve(id2)
	g1.SpawnFaction("armored", "p1", Team(0), 0, 1)
	g2.SpawnFaction("insurgent", "p2", Team(0), 0, 1)

	st := l.Stats()
	if st.ActiveGames != 2 {
		t.Errorf("expected 2 active games, got %d", st.ActiveGames)
	}
	if st.Factions != 2 {
		t.Errorf("expected 2 factions summed across games, got %d", st.Factions)
	}
}
