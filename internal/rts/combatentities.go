package rts

import "math"

// Projectile is a travelling ordinance, grounded on the reference
// stack's ring-buffer trail + lifetime projectile, generalized to carry
// an id-based owner/target and optional homing.
type Projectile struct {
	id       EntityID
	OwnerID  EntityID
	Team     Team
	X, Y     float64
	VX, VY   float64
	Speed    float64
	Damage   float64
	SplashRadius float64
	HitRadius float64
	Rotation float64

	HomingTargetID EntityID // zero means ballistic, no homing

	// FriendlyFire carries the firing weapon's config into any splash
	// FieldEffect spawned on detonation (§4.5).
	FriendlyFire bool

	TicksRemaining int
	active         bool
}

const projectileLifetimeTicks = 180 // 3s at 60 TPS

// NewProjectile fires from (x,y) toward (targetX,targetY) at the given
// speed (world units/sec), converted to a fixed-step per-tick velocity.
func NewProjectile(id, owner EntityID, team Team, x, y, targetX, targetY, speed, damage, splash float64, tickRate int) *Projectile {
	dx, dy := targetX-x, targetY-y
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		dist = 1
	}
	dirX, dirY := dx/dist, dy/dist
	perTick := speed / float64(tickRate)
	return &Projectile{
		id: id, OwnerID: owner, Team: team,
		X: x, Y: y,
		VX: dirX * perTick, VY: dirY * perTick,
		Speed: perTick, Damage: damage, SplashRadius: splash,
		HitRadius: 6, Rotation: math.Atan2(dy, dx),
		TicksRemaining: projectileLifetimeTicks, active: true,
	}
}

func (p *Projectile) ID() EntityID { return p.id }

// Advance moves the projectile one tick and reports whether it is still
// alive (within the world bounds and lifetime).
func (p *Projectile) Advance(worldW, worldH float64) bool {
	p.X += p.VX
	p.Y += p.VY
	p.TicksRemaining--
	if p.X < -50 || p.X > worldW+50 || p.Y < -50 || p.Y > worldH+50 {
		p.active = false
	}
	if p.TicksRemaining <= 0 {
		p.active = false
	}
	return p.active
}

// Hits reports whether this projectile has reached collision distance
// of the given targetable.
func (p *Projectile) Hits(t Targetable) bool {
	if !t.Active() || t.TeamOf() == p.Team {
		return false
	}
	tx, ty := t.Pos()
	dist := math.Hypot(tx-p.X, ty-p.Y)
	return dist <= p.HitRadius+t.TargetSize()
}

// Beam is an instant-hit ordinance; damage is applied the tick it spawns
// and it persists only for its visual duration.
type Beam struct {
	id                 EntityID
	OwnerID            EntityID
	Team               Team
	X1, Y1, X2, Y2     float64
	BeamType           string
	SpawnTick          uint64
	TicksRemaining     int
}

func NewBeam(id, owner EntityID, team Team, x1, y1, x2, y2 float64, beamType string, spawnTick uint64) *Beam {
	return &Beam{id: id, OwnerID: owner, Team: team, X1: x1, Y1: y1, X2: x2, Y2: y2, BeamType: beamType, SpawnTick: spawnTick, TicksRemaining: 10}
}

func (b *Beam) ID() EntityID { return b.id }

func (b *Beam) Advance() bool {
	b.TicksRemaining--
	return b.TicksRemaining > 0
}

// FieldEffectType enumerates the area-effect variants.
type FieldEffectType int

const (
	FieldExplosion FieldEffectType = iota
	FieldElectric
	FieldSandstorm
	FieldFlakExplosion
	FieldFire
)

func (t FieldEffectType) String() string {
	switch t {
	case FieldElectric:
		return "ELECTRIC"
	case FieldSandstorm:
		return "SANDSTORM"
	case FieldFlakExplosion:
		return "FLAK_EXPLOSION"
	case FieldFire:
		return "FIRE"
	default:
		return "EXPLOSION"
	}
}

// FieldEffect is a transient area entity dealing one-shot or
// damage-over-time effects to anything inside its radius.
type FieldEffect struct {
	id        EntityID
	Type      FieldEffectType
	X, Y      float64
	Radius    float64
	DamagePerTick float64
	Team      Team // for friendly-fire rules
	FriendlyFire bool

	TicksRemaining int
	tickIntervalTicks int
	ticksSinceLastDamage int

	appliedOneShot bool
}

func NewFieldEffect(id EntityID, t FieldEffectType, x, y, radius, damagePerTick float64, team Team, friendlyFire bool, lifetimeTicks, tickIntervalTicks int) *FieldEffect {
	return &FieldEffect{
		id: id, Type: t, X: x, Y: y, Radius: radius,
		DamagePerTick: damagePerTick, Team: team, FriendlyFire: friendlyFire,
		TicksRemaining: lifetimeTicks, tickIntervalTicks: tickIntervalTicks,
	}
}

func (f *FieldEffect) ID() EntityID { return f.id }

// Contains reports whether a targetable's center lies within the
// effect's radius.
func (f *FieldEffect) Contains(t Targetable) bool {
	tx, ty := t.Pos()
	return math.Hypot(tx-f.X, ty-f.Y) <= f.Radius
}

// AppliesTo reports whether friendly-fire rules permit damaging this team.
func (f *FieldEffect) AppliesTo(team Team) bool {
	return f.FriendlyFire || team != f.Team
}

// Advance decrements the effect's lifetime and its damage-tick counter,
// returning whether damage should be applied this tick.
func (f *FieldEffect) Advance() (aliveNow bool, shouldDamage bool) {
	f.TicksRemaining--
	if f.Type == FieldExplosion || f.Type == FieldFlakExplosion {
		shouldDamage = !f.appliedOneShot
		f.appliedOneShot = true
	} else {
		f.ticksSinceLastDamage++
		if f.ticksSinceLastDamage >= f.tickIntervalTicks {
			f.ticksSinceLastDamage = 0
			shouldDamage = true
		}
	}
	return f.TicksRemaining > 0, shouldDamage
}
