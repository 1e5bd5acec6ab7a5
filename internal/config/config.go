// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for all game server settings.
//
// IMPORTANT: When changing values, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"os"
	"strconv"

	"ironfront/internal/rts"
)

// =============================================================================
// SIMULATION CONFIGURATION
// =============================================================================

// SimConfig holds the fixed-step tick rate and the snapshot vision radius.
type SimConfig struct {
	TickRate     int     // ticks per second
	VisionRadius float64 // vision radius used by the per-faction snapshot filter
}

// DefaultSim returns the default simulation configuration.
func DefaultSim() SimConfig {
	return SimConfig{
		TickRate:     60,
		VisionRadius: 400,
	}
}

// SimFromEnv returns simulation configuration with environment overrides.
func SimFromEnv() SimConfig {
	cfg := DefaultSim()
	if tr := getEnvInt("TICK_RATE", 0); tr > 0 {
		cfg.TickRate = tr
	}
	if vr := getEnvFloat("VISION_RADIUS", -1); vr >= 0 {
		cfg.VisionRadius = vr
	}
	return cfg
}

// =============================================================================
// GAME RESOURCE LIMITS
// =============================================================================

// DefaultLimits returns the default per-game resource limits (DoS
// protection and performance bounds), mirroring the reference stack's
// ResourceLimits shape one family of entities at a time.
func DefaultLimits() rts.Limits {
	return rts.Limits{
		MaxUnitsPerFaction: getEnvInt("MAX_UNITS_PER_FACTION", 400),
		MaxProjectiles:     getEnvInt("MAX_PROJECTILES", 600),
		MaxBeams:           getEnvInt("MAX_BEAMS", 200),
		MaxFieldEffects:    getEnvInt("MAX_FIELD_EFFECTS", 300),
		MaxInputsPerTick:   getEnvInt("MAX_INPUTS_PER_TICK", 2000),
	}
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int
	MaxGames int
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:     3000,
		MaxGames: 64,
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()
	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if mg := getEnvInt("MAX_GAMES", 0); mg > 0 {
		cfg.MaxGames = mg
	}
	return cfg
}

// =============================================================================
// SPATIAL CONFIGURATION
// =============================================================================

// SpatialConfig holds spatial indexing settings.
type SpatialConfig struct {
	GridCellSize      int // separation grid cell size, world units
	FlowFieldCellSize int // flow field cell size, world units (smaller = smoother navigation)
}

// DefaultSpatial returns the default spatial configuration.
func DefaultSpatial() SpatialConfig {
	return SpatialConfig{
		GridCellSize:      64,
		FlowFieldCellSize: 40,
	}
}

// =============================================================================
// ECONOMY CONFIGURATION
// =============================================================================

// EconomyFromEnv returns the faction economy balance config, falling back
// to rts.DefaultEconomyConfig for anything not overridden.
func EconomyFromEnv() rts.EconomyConfig {
	cfg := rts.DefaultEconomyConfig
	if v := getEnvFloat("BASE_CREDITS_PER_TICK", -1); v >= 0 {
		cfg.BaseCreditsPerTick = v
	}
	if v := getEnvFloat("REFINERY_CREDITS_PER_TICK", -1); v >= 0 {
		cfg.RefineryCreditsPerTick = v
	}
	if v := getEnvInt("RESEARCH_TICKS_DEFAULT", 0); v > 0 {
		cfg.ResearchTicksDefault = v
	}
	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Sim     SimConfig
	Server  ServerConfig
	Limits  rts.Limits
	Spatial SpatialConfig
	Economy rts.EconomyConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Sim:     SimFromEnv(),
		Server:  ServerFromEnv(),
		Limits:  DefaultLimits(),
		Spatial: DefaultSpatial(),
		Economy: EconomyFromEnv(),
	}
}

// GameConfig builds the rts.GameConfig template every new game is
// constructed from.
func (a AppConfig) GameConfig(worldW, worldH float64) rts.GameConfig {
	return rts.GameConfig{
		TickRate:     a.Sim.TickRate,
		WorldW:       worldW,
		WorldH:       worldH,
		VisionRadius: a.Sim.VisionRadius,
		Limits:       a.Limits,
		Economy:      a.Economy,
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
