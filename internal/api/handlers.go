package api

import (
	"encoding/json"
	"net/http"

	"ironfront/internal/rts"

	"github.com/go-chi/chi/v5"
)

// Handler methods for routerHandlers. These serve the RTS HTTP surface
// (§6): game creation, static faction catalog lookup, and matchmaking.

func (h *routerHandlers) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FactionType string `json:"factionType"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req) // body is optional

	cfg := h.cfgTpl
	gameID, err := h.lobby.CreateGame(cfg)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, map[string]string{"gameId": gameID})
}

// handleAdminStats returns the lobby's aggregate game/faction/unit
// counters, gated behind operator auth when configured.
func (h *routerHandlers) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.lobby.Stats())
}

// handleForceEndGame terminates a running game on operator request; its
// sessions receive a gameOver with an operator_shutdown reason.
func (h *routerHandlers) handleForceEndGame(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameId")
	if err := h.lobby.ForceEnd(gameID); err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"ended": true})
}

func (h *routerHandlers) handleGetFaction(w http.ResponseWriter, r *http.Request) {
	factionType := chi.URLParam(r, "factionType")
	entry, ok := rts.FactionCatalog(factionType)
	if !ok {
		writeError(w, "unknown faction type", http.StatusNotFound)
		return
	}
	writeJSON(w, entry)
}

func (h *routerHandlers) handleMatchmakingJoin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GameID     string `json:"gameId"`
		Biome      string `json:"biome"`
		Density    string `json:"density"`
		Faction    string `json:"faction"`
		MaxPlayers int    `json:"maxPlayers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Faction == "" {
		writeError(w, "faction is required", http.StatusBadRequest)
		return
	}
	if req.MaxPlayers <= 0 {
		req.MaxPlayers = 2
	}

	res, err := h.lobby.JoinMatchmaking(req.GameID, req.Biome, req.Density, req.Faction, req.MaxPlayers)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, map[string]string{"gameId": res.GameID, "sessionToken": res.SessionToken})
}

func (h *routerHandlers) handleMatchmakingLeave(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GameID       string `json:"gameId"`
		SessionToken string `json:"sessionToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := h.lobby.LeaveMatchmaking(req.GameID, req.SessionToken); err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handleMatchmakingReady(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameId")
	writeJSON(w, map[string]bool{"ready": h.lobby.IsGameReady(gameID)})
}

// writeGameError maps an rts.GameError's ErrorKind onto an HTTP status
// per §7: validation/not-found errors are client mistakes (400), capacity
// errors mean "try again later" (503), transient errors such as a game
// that has not started yet are 409, and fatal errors are 500.
func writeGameError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch rts.KindOf(err) {
	case rts.KindValidation:
		status = http.StatusBadRequest
	case rts.KindCapacity:
		status = http.StatusServiceUnavailable
	case rts.KindTransient:
		status = http.StatusConflict
	}
	writeError(w, err.Error(), status)
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
