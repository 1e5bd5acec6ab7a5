package rts

import "math"

// Components carried by only some unit types; kept as a pointer bag on
// Unit instead of an inheritance hierarchy so any unit can opt into zero
// or more of them.
type HangarComponent struct {
	Housed   []HousedAircraft // aircraft currently stored, full definition kept for sortie respawn
	Capacity int
	OnSortie map[EntityID]bool
}

// HousedAircraft is the definition snapshot a hangar keeps for an aircraft
// that has landed (ReturnToHangarCommand), so a later sortie order can
// respawn the exact same airframe instead of fabricating a placeholder.
type HousedAircraft struct {
	Type      string
	WeaponID  string
	Elevation Elevation
	MaxHealth float64
	Speed     float64
	Radius    float64
	Upkeep    float64
	Fuel      *FuelAmmoComponent
}

type CloakComponent struct {
	DetectionRange float64 // enemies within this range still see the unit
}

type FuelAmmoComponent struct {
	Fuel, MaxFuel   float64
	Ammo, MaxAmmo   int
}

type WorkerCarryComponent struct {
	ResourceType string
	Carried      float64
	Capacity     float64
	MineHealth   float64 // pickaxe durability, depletes with use
}

// Unit is any mobile, combat-or-economy-capable actor owned by a faction.
type Unit struct {
	id    EntityID
	Type  string
	Owner EntityID // faction id
	Team  Team

	X, Y, Rotation float64
	VX, VY         float64

	Health, MaxHealth float64

	Stance    Stance
	Elevation Elevation
	WeaponID  string

	Speed     float64 // world units/sec
	TurnRate  float64 // radians/sec
	Radius    float64
	Upkeep    float64 // counted against the owner's cap, released on death
	HomeX     float64
	HomeY     float64
	Selected  bool

	SpecialAbilityActive bool

	Command      UnitCommand
	CommandQueue []UnitCommand

	Hangar *HangarComponent
	Cloak  *CloakComponent
	Fuel   *FuelAmmoComponent
	Carry  *WorkerCarryComponent

	// HomeHangarID links an aircraft to the building it returns to when
	// its fuel or ammo runs dry. Zero for ground units.
	HomeHangarID EntityID

	active bool
}

// NewUnit constructs an active unit with an Idle command and no queue.
func NewUnit(id EntityID, unitType string, owner EntityID, team Team, x, y float64, maxHealth, speed, radius float64, weaponID string) *Unit {
	u := &Unit{
		id: id, Type: unitType, Owner: owner, Team: team,
		X: x, Y: y, HomeX: x, HomeY: y,
		Health: maxHealth, MaxHealth: maxHealth,
		Speed: speed, TurnRate: math.Pi * 2, Radius: radius,
		WeaponID: weaponID,
		active:   true,
	}
	u.Command = &IdleCommand{}
	return u
}

func (u *Unit) ID() EntityID          { return u.id }
func (u *Unit) Pos() (float64, float64) { return u.X, u.Y }
func (u *Unit) TeamOf() Team          { return u.Team }
func (u *Unit) ElevationOf() Elevation { return u.Elevation }
func (u *Unit) TargetSize() float64   { return u.Radius }
func (u *Unit) TargetType() string    { return u.Type }
func (u *Unit) Active() bool          { return u.active && u.Health > 0 }

// TakeDamage applies damage, respecting cloaked-but-still-targeted rules
// (cloak only affects acquisition, not damage once targeted).
func (u *Unit) TakeDamage(amount float64, sourceID EntityID) {
	if !u.active {
		return
	}
	u.Health -= amount
	if u.Health < 0 {
		u.Health = 0
	}
	if u.Health <= 0 {
		u.active = false
	}
}

// Weapon resolves this unit's current weapon declaration.
func (u *Unit) Weapon() Weapon { return GetWeapon(u.WeaponID) }

// CanAttack reports whether the unit has a usable weapon at all.
func (u *Unit) CanAttack() bool { return u.WeaponID != "" }

// CloakVisibleTo reports whether an observer at (ox, oy) can see this
// unit despite cloak (property 4).
func (u *Unit) CloakVisibleTo(ox, oy float64) bool {
	if u.Cloak == nil {
		return true
	}
	dx, dy := u.X-ox, u.Y-oy
	dist := math.Hypot(dx, dy)
	return dist <= u.Cloak.DetectionRange
}

// PushCommand replaces the active command (player orders) unless queued.
func (u *Unit) PushCommand(cmd UnitCommand, queue bool) {
	if queue {
		u.CommandQueue = append(u.CommandQueue, cmd)
		return
	}
	if u.Command != nil {
		u.Command.OnCancel(u)
	}
	u.Command = cmd
	u.CommandQueue = nil
}

// AdvanceCommand drops to the next queued command, or Idle, when the
// active command reports it is no longer active.
func (u *Unit) AdvanceCommand() {
	if len(u.CommandQueue) > 0 {
		u.Command = u.CommandQueue[0]
		u.CommandQueue = u.CommandQueue[1:]
		return
	}
	u.Command = &IdleCommand{}
}
