package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ironfront/internal/rts"
)

func testRouterConfig(lobby *rts.Lobby) RouterConfig {
	generous := ThrottleClass{Name: "test", PerSec: 1000, Burst: 1000}
	return RouterConfig{
		Lobby:               lobby,
		GameConfigTemplate:  rts.GameConfig{TickRate: 60, VisionRadius: 400, Limits: rts.DefaultLimits, Economy: rts.DefaultEconomyConfig},
		Throttle:            NewThrottle(generous),
		MatchmakingThrottle: NewThrottle(generous),
		DisableLogging:      true,
	}
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

// TestGetFactionReturnsCatalogEntry drives the static faction data
// endpoint end to end through the router.
func TestGetFactionReturnsCatalogEntry(t *testing.T) {
	lobby := rts.NewLobby(4, rts.GameConfig{TickRate: 60})
	defer lobby.Shutdown()
	ts := httptest.NewServer(NewRouter(testRouterConfig(lobby)))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/rts/factions/armored")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var entry rts.FactionCatalogEntry
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry.Type != "armored" || len(entry.Units) == 0 || len(entry.Buildings) == 0 {
		t.Errorf("expected a populated armored catalog entry, got %+v", entry)
	}
}

func TestGetFactionUnknownTypeIs404(t *testing.T) {
	lobby := rts.NewLobby(4, rts.GameConfig{TickRate: 60})
	defer lobby.Shutdown()
	ts := httptest.NewServer(NewRouter(testRouterConfig(lobby)))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/rts/factions/does-not-exist")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for an unknown faction type, got %d", resp.StatusCode)
	}
}

// TestCreateGameReturnsID drives POST /api/rts/games.
func TestCreateGameReturnsID(t *testing.T) {
	lobby := rts.NewLobby(4, rts.GameConfig{TickRate: 60})
	defer lobby.Shutdown()
	ts := httptest.NewServer(NewRouter(testRouterConfig(lobby)))
	defer ts.Close()

	resp := postJSON(t, ts, "/api/rts/games", map[string]string{})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["gameId"] == "" {
		t.Error("expected a non-empty gameId")
	}
}

// TestMatchmakingSlotFlow walks the full reservation sequence: create a
// 2-player matchmaking game, fill the second slot, observe ready, and
// have a third join rejected with a full-game error.
func TestMatchmakingSlotFlow(t *testing.T) {
	lobby := rts.NewLobby(4, rts.GameConfig{TickRate: 60})
	defer lobby.Shutdown()
	ts := httptest.NewServer(NewRouter(testRouterConfig(lobby)))
	defer ts.Close()

	resp := postJSON(t, ts, "/api/rts/matchmaking/join", map[string]interface{}{
		"biome": "temperate", "density": "normal", "faction": "armored", "maxPlayers": 2,
	})
	var first map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&first); err != nil {
		t.Fatalf("decode first join: %v", err)
	}
	resp.Body.Close()
	if first["gameId"] == "" || first["sessionToken"] == "" {
		t.Fatalf("expected gameId and sessionToken, got %v", first)
	}

	readyResp, err := http.Get(ts.URL + "/api/rts/matchmaking/" + first["gameId"] + "/ready")
	if err != nil {
		t.Fatalf("ready poll: %v", err)
	}
	var ready map[string]bool
	json.NewDecoder(readyResp.Body).Decode(&ready)
	readyResp.Body.Close()
	if ready["ready"] {
		t.Fatal("game must not be ready with one of two slots filled")
	}

	resp = postJSON(t, ts, "/api/rts/matchmaking/join", map[string]interface{}{
		"gameId": first["gameId"], "faction": "insurgent", "maxPlayers": 2,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("second join should fill the game, got %d", resp.StatusCode)
	}

	readyResp, _ = http.Get(ts.URL + "/api/rts/matchmaking/" + first["gameId"] + "/ready")
	json.NewDecoder(readyResp.Body).Decode(&ready)
	readyResp.Body.Close()
	if !ready["ready"] {
		t.Fatal("game should be ready once both slots are reserved")
	}

	resp = postJSON(t, ts, "/api/rts/matchmaking/join", map[string]interface{}{
		"gameId": first["gameId"], "faction": "armored", "maxPlayers": 2,
	})
	resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		t.Error("third join into a full game must be rejected")
	}
}

// TestAdminStatsEndpoint verifies the operator stats endpoint responds
// when operator auth is not configured.
func TestAdminStatsEndpoint(t *testing.T) {
	lobby := rts.NewLobby(4, rts.GameConfig{TickRate: 60})
	defer lobby.Shutdown()
	ts := httptest.NewServer(NewRouter(testRouterConfig(lobby)))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/admin/stats")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var st rts.LobbyStats
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

// TestOperatorAuthGatesForceEnd drives the operator flow end to end:
// force-end is rejected without a token, a bad key is rejected at login,
// and a good key yields a token that unlocks ending a running game.
func TestOperatorAuthGatesForceEnd(t *testing.T) {
	lobby := rts.NewLobby(4, rts.GameConfig{TickRate: 60})
	defer lobby.Shutdown()
	cfg := testRouterConfig(lobby)
	cfg.Operator = NewOperatorAuth("hunter2")
	ts := httptest.NewServer(NewRouter(cfg))
	defer ts.Close()

	gameID, err := lobby.CreateGame(rts.GameConfig{TickRate: 60})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	resp := postJSON(t, ts, "/api/admin/games/"+gameID+"/end", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("force-end without a token must be 401, got %d", resp.StatusCode)
	}

	resp = postJSON(t, ts, "/api/auth/login", map[string]string{"operatorKey": "wrong"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("a wrong operator key must be rejected, got %d", resp.StatusCode)
	}

	resp = postJSON(t, ts, "/api/auth/login", map[string]string{"operatorKey": "hunter2"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login with the configured key should succeed, got %d", resp.StatusCode)
	}
	var token *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == operatorCookieName {
			token = c
		}
	}
	if token == nil {
		t.Fatal("expected an operator token cookie on login")
	}

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/admin/games/"+gameID+"/end", nil)
	req.AddCookie(token)
	endResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("force-end: %v", err)
	}
	endResp.Body.Close()
	if endResp.StatusCode != http.StatusOK {
		t.Fatalf("authenticated force-end should succeed, got %d", endResp.StatusCode)
	}

	g, err := lobby.Resolve(gameID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	select {
	case reason := <-g.GameOver():
		if reason.Reason != "operator_shutdown" {
			t.Errorf("expected operator_shutdown, got %+v", reason)
		}
	default:
		t.Error("expected the game's gameOver to have fired")
	}
}
