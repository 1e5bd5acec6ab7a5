package rts

// The catalog is static per-deployment configuration: which buildings and
// units a faction type can build, their costs/upkeep, and the research
// tree gating advanced options. A real deployment loads this from a data
// file; a usable default ships here the way DefaultWeapons does.

type UnitDef struct {
	Type       string  `json:"type"`
	Cost       int     `json:"cost"`
	Upkeep     float64 `json:"upkeep"`
	BuildTicks int     `json:"buildTicks"`
	WeaponID   string  `json:"weaponId,omitempty"`
	MaxHealth  float64 `json:"maxHealth"`
	Speed      float64 `json:"speed"`
	Radius     float64 `json:"radius"`
	Elevation  Elevation `json:"elevation"`

	// CarryCapacity > 0 marks a worker unit: it gets a carry component
	// and can harvest/mine/construct.
	CarryCapacity float64 `json:"carryCapacity,omitempty"`
	// CloakDetectionRange > 0 marks a cloaked unit: enemies acquire it only
	// inside this range.
	CloakDetectionRange float64 `json:"cloakDetectionRange,omitempty"`
}

type BuildingDef struct {
	Type      string   `json:"type"`
	Cost      int      `json:"cost"`
	Upkeep    float64  `json:"upkeep"`
	MaxHealth float64  `json:"maxHealth"`
	Radius    float64  `json:"radius"`
	Produces  []string `json:"produces,omitempty"`
	WeaponID  string   `json:"weaponId,omitempty"` // turret weapon for defensive structures

	PowerGenerated float64 `json:"powerGenerated,omitempty"`
	PowerConsumed  float64 `json:"powerConsumed,omitempty"`
}

type ResearchDef struct {
	ID           string   `json:"id"`
	Cost         int      `json:"cost"`
	Prerequisites []string `json:"prerequisites,omitempty"`
}

type FactionCatalogEntry struct {
	Type      string        `json:"type"`
	Buildings []BuildingDef `json:"buildings"`
	Units     []UnitDef     `json:"units"`
	Research  []ResearchDef `json:"research"`
}

// DefaultCatalog is keyed by faction type name (e.g. "armored", "insurgent").
var DefaultCatalog = map[string]FactionCatalogEntry{
	"armored": {
		Type: "armored",
		Buildings: []BuildingDef{
			{Type: "headquarters", Cost: 0, Upkeep: 0, MaxHealth: 2000, Radius: 48, PowerGenerated: 40},
			{Type: "power_plant", Cost: 800, Upkeep: 0.02, MaxHealth: 400, Radius: 28, PowerGenerated: 100},
			{Type: "refinery", Cost: 1400, Upkeep: 0.1, MaxHealth: 600, Radius: 36, PowerConsumed: 30, Produces: []string{"worker"}},
			{Type: "barracks", Cost: 600, Upkeep: 0.05, MaxHealth: 500, Radius: 32, PowerConsumed: 20, Produces: []string{"rifleman", "worker"}},
			{Type: "war_factory", Cost: 2000, Upkeep: 0.2, MaxHealth: 800, Radius: 40, PowerConsumed: 40, Produces: []string{"tank", "flak_track"}},
			{Type: "airfield", Cost: 1800, Upkeep: 0.15, MaxHealth: 700, Radius: 44, PowerConsumed: 30, Produces: []string{"fighter", "bomber"}},
			{Type: "bunker", Cost: 500, Upkeep: 0.02, MaxHealth: 500, Radius: 20, PowerConsumed: 15, WeaponID: "cannon"},
			// walls are placed as WallSegment entities, not Buildings: they
			// block ground movement, are attackable, and need no power
			{Type: "wall", Cost: 60, Upkeep: 0, MaxHealth: 250, Radius: 20},
		},
		Units: []UnitDef{
			{Type: "worker", Cost: 200, Upkeep: 0.01, BuildTicks: 300, MaxHealth: 80, Speed: 70, Radius: 14, CarryCapacity: 50},
			{Type: "rifleman", Cost: 150, Upkeep: 0.02, BuildTicks: 240, WeaponID: "rifle", MaxHealth: 100, Speed: 90, Radius: 12},
			{Type: "tank", Cost: 900, Upkeep: 0.08, BuildTicks: 600, WeaponID: "cannon", MaxHealth: 400, Speed: 60, Radius: 20},
			{Type: "flak_track", Cost: 700, Upkeep: 0.06, BuildTicks: 540, WeaponID: "flak", MaxHealth: 220, Speed: 75, Radius: 18},
			// fighter is the interceptor airframe: anti-air-only weapon, engages
			// an on-station patrol by switching to AttackTargetableCommand
			// (§4.4 OnStationCommand interceptor mode).
			{Type: "fighter", Cost: 1200, Upkeep: 0.1, BuildTicks: 900, WeaponID: "sam", MaxHealth: 180, Speed: 220, Radius: 16, Elevation: ElevationHigh},
			{Type: "bomber", Cost: 1600, Upkeep: 0.12, BuildTicks: 1100, MaxHealth: 260, Speed: 150, Radius: 22, Elevation: ElevationHigh},
			// cloak_tank acquires normally but is itself acquired only inside
			// its detection range (§4.2 cloak visibility).
			{Type: "cloak_tank", Cost: 1400, Upkeep: 0.1, BuildTicks: 800, WeaponID: "cannon", MaxHealth: 320, Speed: 65, Radius: 20, CloakDetectionRange: 140},
		},
		Research: []ResearchDef{
			{ID: "improved_armor", Cost: 1500},
			{ID: "composite_rounds", Cost: 1800, Prerequisites: []string{"improved_armor"}},
			{ID: "radar_uplink", Cost: 2200},
		},
	},
	"insurgent": {
		Type: "insurgent",
		Buildings: []BuildingDef{
			{Type: "headquarters", Cost: 0, Upkeep: 0, MaxHealth: 2000, Radius: 48, PowerGenerated: 40},
			{Type: "power_plant", Cost: 700, Upkeep: 0.02, MaxHealth: 350, Radius: 28, PowerGenerated: 90},
			{Type: "refinery", Cost: 1200, Upkeep: 0.1, MaxHealth: 550, Radius: 36, PowerConsumed: 30, Produces: []string{"worker"}},
			{Type: "camp", Cost: 450, Upkeep: 0.04, MaxHealth: 450, Radius: 32, PowerConsumed: 15, Produces: []string{"raider", "worker"}},
			{Type: "workshop", Cost: 1600, Upkeep: 0.15, MaxHealth: 700, Radius: 40, PowerConsumed: 35, Produces: []string{"technical", "mortar_team", "gunship"}},
			{Type: "bunker", Cost: 400, Upkeep: 0.02, MaxHealth: 450, Radius: 20, PowerConsumed: 15, WeaponID: "flak"},
			{Type: "wall", Cost: 40, Upkeep: 0, MaxHealth: 200, Radius: 20},
		},
		Units: []UnitDef{
			{Type: "worker", Cost: 180, Upkeep: 0.01, BuildTicks: 300, MaxHealth: 75, Speed: 65, Radius: 14, CarryCapacity: 45},
			{Type: "raider", Cost: 120, Upkeep: 0.015, BuildTicks: 210, WeaponID: "rifle", MaxHealth: 90, Speed: 95, Radius: 12},
			{Type: "technical", Cost: 650, Upkeep: 0.05, BuildTicks: 480, WeaponID: "flak", MaxHealth: 180, Speed: 85, Radius: 17},
			{Type: "mortar_team", Cost: 500, Upkeep: 0.04, BuildTicks: 420, WeaponID: "cannon", MaxHealth: 90, Speed: 50, Radius: 14},
			// gunship is the LOW-elevation patrol airframe: its flak weapon
			// hits LOW/HIGH, so it engages on-station targets of opportunity
			// without breaking its patrol loop (§4.4 OnStationCommand gunship
			// mode), unlike the interceptor which commits to a full engagement.
			{Type: "gunship", Cost: 1100, Upkeep: 0.09, BuildTicks: 850, WeaponID: "flak", MaxHealth: 150, Speed: 130, Radius: 16, Elevation: ElevationLow},
		},
		Research: []ResearchDef{
			{ID: "camouflage_nets", Cost: 1200},
			{ID: "scavenged_armor", Cost: 1600, Prerequisites: []string{"camouflage_nets"}},
		},
	},
}

// FactionCatalog returns the static catalog entry for a faction type, or
// false if the type is unknown.
func FactionCatalog(factionType string) (FactionCatalogEntry, bool) {
	entry, ok := DefaultCatalog[factionType]
	return entry, ok
}
