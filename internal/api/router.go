package api

import (
	"net/http"

	"ironfront/internal/rts"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// LobbyInterface defines the lobby methods the API layer calls. This
// enables mocking in tests without driving a full simulation loop.
type LobbyInterface interface {
	CreateGame(cfg rts.GameConfig) (string, error)
	JoinMatchmaking(gameID, biome, density, faction string, maxPlayers int) (rts.Reservation, error)
	LeaveMatchmaking(gameID, sessionToken string) error
	IsGameReady(gameID string) bool
	Resolve(gameID string) (*rts.Game, error)
	ResolveSession(gameID, sessionToken string) (rts.Reservation, error)
	ForceEnd(gameID string) error
	Stats() rts.LobbyStats
}

// RouterConfig contains all dependencies needed to construct the HTTP
// router. Designed for dependency injection and testability.
type RouterConfig struct {
	// Lobby owns every active and matchmaking game (required).
	Lobby LobbyInterface

	// GameConfigTemplate is the GameConfig every CreateGame call passes to
	// the lobby unchanged. Matchmaking games are built from the lobby's own
	// base config, with world size set by player count.
	GameConfigTemplate rts.GameConfig

	// Throttle budgets general API traffic; defaults to ThrottleAPI.
	Throttle *Throttle

	// MatchmakingThrottle budgets /matchmaking/join specifically, tighter
	// than the general throttle since a join seats a faction and, for a
	// fresh gameId, spins up an entire Game tick loop. Defaults to
	// ThrottleMatchmaking.
	MatchmakingThrottle *Throttle

	// CORSOrigins is an optional list of allowed CORS origins.
	CORSOrigins []string

	// StaticFilesDir serves the operator admin panel. Defaults to "./admin-panel".
	StaticFilesDir string

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool

	// Operator gates the admin surface (stats, force-end). Nil leaves the
	// admin routes open, for local development.
	Operator *OperatorAuth

	// WSHandler serves the per-game WebSocket upgrade at /rts/{gameId}.
	WSHandler http.HandlerFunc
}

// routerHandlers holds the handler functions for the router.
type routerHandlers struct {
	lobby  LobbyInterface
	cfgTpl rts.GameConfig
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// It opens no network listeners, so it is safe to use with
// httptest.NewServer. It starts no goroutines when both Throttle and
// MatchmakingThrottle are supplied; each one left nil is created here
// with NewThrottle, which starts that throttle's idle-eviction goroutine.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	throttle := cfg.Throttle
	if throttle == nil {
		throttle = NewThrottle(ThrottleAPI)
	}
	r.Use(throttle.Middleware)

	matchmakingThrottle := cfg.MatchmakingThrottle
	if matchmakingThrottle == nil {
		matchmakingThrottle = NewThrottle(ThrottleMatchmaking)
	}

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	h := &routerHandlers{lobby: cfg.Lobby, cfgTpl: cfg.GameConfigTemplate}

	r.Route("/api/rts", func(r chi.Router) {
		r.Post("/games", h.handleCreateGame)
		r.Get("/factions/{factionType}", h.handleGetFaction)
		r.With(matchmakingThrottle.Middleware).Post("/matchmaking/join", h.handleMatchmakingJoin)
		r.Post("/matchmaking/leave", h.handleMatchmakingLeave)
		r.Get("/matchmaking/{gameId}/ready", h.handleMatchmakingReady)
	})

	if cfg.WSHandler != nil {
		r.Get("/rts/{gameId}", cfg.WSHandler)
	}

	staticDir := cfg.StaticFilesDir
	if staticDir == "" {
		staticDir = "./admin-panel"
	}

	r.Get("/login", handleLoginPage(cfg))
	if cfg.Operator != nil {
		r.Post("/api/auth/login", cfg.Operator.HandleLogin)
		r.Get("/logout", cfg.Operator.HandleLogout)
		r.Get("/api/auth/status", cfg.Operator.HandleStatus)
		r.Group(func(r chi.Router) {
			r.Use(cfg.Operator.Require)
			r.Handle("/admin/*", http.StripPrefix("/admin/", http.FileServer(http.Dir(staticDir))))
			r.Get("/admin", func(w http.ResponseWriter, req *http.Request) {
				http.Redirect(w, req, "/admin/", http.StatusMovedPermanently)
			})
			r.Get("/api/admin/stats", h.handleAdminStats)
			r.Post("/api/admin/games/{gameId}/end", h.handleForceEndGame)
		})
	} else {
		r.Get("/logout", func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, "/admin/", http.StatusFound)
		})
		r.Get("/api/auth/status", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"authenticated":true,"message":"auth disabled"}`))
		})
		r.Handle("/admin/*", http.StripPrefix("/admin/", http.FileServer(http.Dir(staticDir))))
		r.Get("/admin", func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, "/admin/", http.StatusMovedPermanently)
		})
		r.Get("/api/admin/stats", h.handleAdminStats)
		r.Post("/api/admin/games/{gameId}/end", h.handleForceEndGame)
	}

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/admin/", http.StatusFound)
	})

	return r
}

// handleLoginPage returns the operator login page handler.
func handleLoginPage(cfg RouterConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Operator != nil && cfg.Operator.Authenticated(r) {
			http.Redirect(w, r, "/admin/", http.StatusFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(loginPageHTML))
	}
}

// loginPageHTML is the embedded operator login page for the admin panel.
const loginPageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Ironfront - Admin Login</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            background: linear-gradient(135deg, #1a1a2e 0%, #16213e 50%, #0f3460 100%);
            min-height: 100vh;
            display: flex;
            align-items: center;
            justify-content: center;
            color: #fff;
        }
        .login-container {
            background: rgba(255, 255, 255, 0.05);
            backdrop-filter: blur(10px);
            border-radius: 20px;
            padding: 40px;
            width: 100%;
            max-width: 400px;
            border: 1px solid rgba(255, 255, 255, 0.1);
            box-shadow: 0 25px 50px rgba(0, 0, 0, 0.3);
        }
        .logo { text-align: center; margin-bottom: 30px; }
        .logo h1 {
            font-size: 2.5rem;
            background: linear-gradient(135deg, #4ecdc4, #44a08d);
            -webkit-background-clip: text;
            -webkit-text-fill-color: transparent;
            background-clip: text;
        }
        .logo p { color: #888; margin-top: 5px; }
        form { display: flex; flex-direction: column; gap: 12px; }
        input {
            padding: 12px 16px;
            border-radius: 10px;
            border: 1px solid rgba(255, 255, 255, 0.15);
            background: rgba(255, 255, 255, 0.05);
            color: #fff;
        }
        .login-btn {
            padding: 16px 24px;
            background: linear-gradient(135deg, #4ecdc4 0%, #3db9b9 100%);
            color: #000;
            border: none;
            border-radius: 12px;
            font-size: 1.1rem;
            font-weight: 600;
            cursor: pointer;
        }
        .info {
            margin-top: 24px;
            padding: 16px;
            background: rgba(255, 255, 255, 0.05);
            border-radius: 10px;
            font-size: 0.9rem;
            color: #aaa;
            text-align: center;
        }
        .error-msg {
            background: rgba(255, 82, 82, 0.2);
            border: 1px solid rgba(255, 82, 82, 0.3);
            color: #ff5252;
            padding: 12px;
            border-radius: 8px;
            margin-bottom: 20px;
            text-align: center;
        }
    </style>
</head>
<body>
    <div class="login-container">
        <div class="logo">
            <h1>Ironfront</h1>
            <p>Operator Admin Panel</p>
        </div>
        <div id="error" class="error-msg" style="display: none;"></div>
        <form id="login-form">
            <input type="password" id="operator-key" placeholder="Operator key" autocomplete="off">
            <button class="login-btn" type="submit">Sign in</button>
        </form>
        <div class="info">
            Server-operator access only. The operator key is configured by
            whoever runs this deployment; there is no self-service signup.
        </div>
    </div>
    <script>
        document.getElementById('login-form').addEventListener('submit', async (e) => {
            e.preventDefault();
            const resp = await fetch('/api/auth/login', {
                method: 'POST',
                headers: { 'Content-Type': 'application/json' },
                body: JSON.stringify({ operatorKey: document.getElementById('operator-key').value }),
            });
            if (resp.ok) {
                window.location.href = '/admin/';
            } else {
                document.getElementById('error').textContent = 'Access denied.';
                document.getElementById('error').style.display = 'block';
            }
        });
    </script>
</body>
</html>
`
