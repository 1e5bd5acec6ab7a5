package rts

// OrdinanceType distinguishes travelling ordinance from instant beams.
type OrdinanceType int

const (
	OrdinanceProjectile OrdinanceType = iota
	OrdinanceBeam
)

// Weapon is the static declaration a unit or building turret fires with.
// Balance numbers are configuration input, not hardcoded per spec §1.
type Weapon struct {
	ID            string
	Range         float64
	Damage        float64
	RateOfFire    float64 // shots per second
	Ordinance     OrdinanceType
	ProjectileMPS float64 // projectile speed, world units/sec (ignored for beams)
	SplashRadius  float64 // 0 means single-target
	FriendlyFire  bool
	Elevations    map[Elevation]bool // which target elevations this weapon can hit
}

// CanHit reports whether this weapon's elevation capability covers the
// given target elevation (property 3: elevation rule).
func (w Weapon) CanHit(e Elevation) bool {
	if w.Elevations == nil {
		return e == ElevationGround
	}
	return w.Elevations[e]
}

// CooldownTicks converts rate-of-fire into a tick count at the given tick
// rate, floored at 1 so a weapon always has some cooldown.
func (w Weapon) CooldownTicks(tickRate int) int {
	if w.RateOfFire <= 0 {
		return tickRate
	}
	ticks := int(float64(tickRate) / w.RateOfFire)
	if ticks < 1 {
		ticks = 1
	}
	return ticks
}

// DefaultWeapons is the static weapon table; a real deployment loads this
// from faction configuration, but a usable default set ships here the
// way the reference stack ships a default weapons table.
var DefaultWeapons = map[string]Weapon{
	"rifle": {
		ID: "rifle", Range: 220, Damage: 8, RateOfFire: 3, Ordinance: OrdinanceProjectile,
		ProjectileMPS: 600, Elevations: map[Elevation]bool{ElevationGround: true},
	},
	"cannon": {
		ID: "cannon", Range: 320, Damage: 35, RateOfFire: 0.8, Ordinance: OrdinanceProjectile,
		ProjectileMPS: 420, SplashRadius: 48, Elevations: map[Elevation]bool{ElevationGround: true},
	},
	"flak": {
		ID: "flak", Range: 280, Damage: 14, RateOfFire: 2, Ordinance: OrdinanceProjectile,
		ProjectileMPS: 500, SplashRadius: 24,
		Elevations: map[Elevation]bool{ElevationLow: true, ElevationHigh: true},
	},
	"laser": {
		ID: "laser", Range: 260, Damage: 18, RateOfFire: 1.5, Ordinance: OrdinanceBeam,
		Elevations: map[Elevation]bool{ElevationGround: true, ElevationLow: true},
	},
	"sam": {
		ID: "sam", Range: 400, Damage: 45, RateOfFire: 0.5, Ordinance: OrdinanceProjectile,
		ProjectileMPS: 700, Elevations: map[Elevation]bool{ElevationHigh: true},
	},
	// bomb is the sortie payload: dropped, not aimed (Range 0), and
	// indiscriminate — the explosion hits whatever is under it.
	"bomb": {
		ID: "bomb", Range: 0, Damage: 60, Ordinance: OrdinanceProjectile,
		SplashRadius: 40, FriendlyFire: true,
		Elevations: map[Elevation]bool{ElevationGround: true, ElevationLow: true},
	},
}

// GetWeapon returns the named weapon, defaulting to "rifle" when unknown
// rather than failing the tick (§4.1 failure semantics: never throw).
func GetWeapon(id string) Weapon {
	if w, ok := DefaultWeapons[id]; ok {
		return w
	}
	return DefaultWeapons["rifle"]
}
