package rts

import "math"

// TickContext is the shared context every command hook operates against:
// the owning unit, the game's entity store, the pathfinder, and the
// current tick number. Passed by value (it's all pointers/value types)
// so commands never close over game internals beyond this.
type TickContext struct {
	Entities  *GameEntities
	Paths     *Pathfinder
	Cooldowns *unitCooldowns
	Tick      uint64
	TickRate  int
	DeltaSec  float64
	WorldW    float64
	WorldH    float64
}

// UnitCommand is the polymorphic per-unit behavior hook set. Each active
// command on a unit has Update, UpdateMovement and UpdateCombat invoked,
// in this order, once per tick (§4.4); OnCancel runs when an unqueued
// order replaces it.
type UnitCommand interface {
	// Update advances non-movement, non-combat state and reports whether
	// the command is still active; false causes the unit to advance to
	// its next queued command or Idle.
	Update(u *Unit, ctx *TickContext) bool
	// UpdateMovement sets the unit's velocity for this tick.
	UpdateMovement(u *Unit, ctx *TickContext, nearby []EntityID)
	// UpdateCombat fires the unit's weapon if appropriate, returning any
	// newly spawned ordinance for the caller to add to the entity store.
	UpdateCombat(u *Unit, ctx *TickContext) []any
	// OnCancel zeroes movement intent when a command is interrupted.
	OnCancel(u *Unit)
	// Name identifies the command for snapshot `currentCommand.type`.
	Name() string
}

const scanCadenceTicks = 30 // idle/attack-move target scans, matches §4.4

func arrive(u *Unit, ctx *TickContext, goalX, goalY, arriveThreshold float64) (reached bool) {
	dx, dy := goalX-u.X, goalY-u.Y
	dist := math.Hypot(dx, dy)
	if dist <= arriveThreshold {
		u.VX, u.VY = 0, 0
		return true
	}
	field := ctx.Paths.FieldFor(goalX, goalY, u.Elevation == ElevationHigh || u.Elevation == ElevationLow)
	fx, fy, ok := field.Lookup(u.X, u.Y)
	if !ok {
		fx, fy = dx/dist, dy/dist
	}
	u.VX = fx * u.Speed
	u.VY = fy * u.Speed
	u.Rotation = math.Atan2(fy, fx)
	return false
}

func faceAndFire(u *Unit, ctx *TickContext, target Targetable, cooldowns *unitCooldowns) []any {
	tx, ty := target.Pos()
	dx, dy := tx-u.X, ty-u.Y
	u.Rotation = math.Atan2(dy, dx)

	if cooldowns.remaining(u.id) > 0 {
		cooldowns.tick(u.id)
		return nil
	}
	weapon := u.Weapon()
	if !weapon.CanHit(target.ElevationOf()) {
		return nil
	}
	cooldowns.arm(u.id, weapon.CooldownTicks(ctx.TickRate))
	if u.Fuel != nil && u.Fuel.Ammo > 0 {
		u.Fuel.Ammo--
	}

	if weapon.Ordinance == OrdinanceBeam {
		id := ctx.Entities.NextID()
		return []any{NewBeam(id, u.id, u.Team, u.X, u.Y, tx, ty, weapon.ID, ctx.Tick)}
	}

	aimX, aimY := tx, ty
	if mover, ok := target.(*Unit); ok && (mover.VX != 0 || mover.VY != 0) {
		// Unit velocities are already world-units/sec
		aimX, aimY = interceptPoint(u.X, u.Y, mover.X, mover.Y, mover.VX, mover.VY, weapon.ProjectileMPS)
	}
	id := ctx.Entities.NextID()
	p := NewProjectile(id, u.id, u.Team, u.X, u.Y, aimX, aimY, weapon.ProjectileMPS, weapon.Damage, weapon.SplashRadius, ctx.TickRate)
	p.FriendlyFire = weapon.FriendlyFire
	return []any{p}
}

// interceptPoint computes a simple linear lead for predictive aiming
// against a moving target (§4.4 AttackTargetableCommand predictive aim).
func interceptPoint(sx, sy, tx, ty, tvx, tvy, projectileSpeed float64) (float64, float64) {
	if projectileSpeed <= 0 {
		return tx, ty
	}
	dx, dy := tx-sx, ty-sy
	dist := math.Hypot(dx, dy)
	timeToReach := dist / projectileSpeed
	return tx + tvx*timeToReach, ty + tvy*timeToReach
}

// unitCooldowns tracks per-unit weapon cooldown in ticks. Held by the
// Game, not the command, since commands are frequently replaced but
// cooldown should persist across a command swap (you don't reset your
// gun's heat by issuing a new order).
type unitCooldowns struct {
	remainingTicks map[EntityID]int
}

func newUnitCooldowns() *unitCooldowns { return &unitCooldowns{remainingTicks: make(map[EntityID]int)} }
func (c *unitCooldowns) remaining(id EntityID) int { return c.remainingTicks[id] }
func (c *unitCooldowns) arm(id EntityID, ticks int) { c.remainingTicks[id] = ticks }
func (c *unitCooldowns) tick(id EntityID) {
	if c.remainingTicks[id] > 0 {
		c.remainingTicks[id]--
	}
}

// --- IdleCommand ---

type IdleCommand struct {
	scanTimer int
}

func (c *IdleCommand) Name() string { return "idle" }

func (c *IdleCommand) Update(u *Unit, ctx *TickContext) bool {
	c.scanTimer++
	if c.scanTimer < scanCadenceTicks {
		return true
	}
	c.scanTimer = 0
	if !u.CanAttack() || u.Stance == StanceHoldPosition {
		return true
	}
	searchRadius := u.Weapon().Range * 1.5
	target := ctx.Entities.FindNearestEnemyTargetable(u.X, u.Y, u.Team, u.Weapon(), searchRadius)
	if target != nil && u.Stance == StanceDefensive {
		// defensive units never chase beyond 300 of their home position
		tx, ty := target.Pos()
		if math.Hypot(tx-u.HomeX, ty-u.HomeY) > 300 {
			target = nil
		}
	}
	if target != nil {
		u.PushCommand(&AttackTargetableCommand{TargetID: target.ID()}, false)
	}
	return true
}

func (c *IdleCommand) UpdateMovement(u *Unit, ctx *TickContext, nearby []EntityID) { u.VX, u.VY = 0, 0 }
func (c *IdleCommand) UpdateCombat(u *Unit, ctx *TickContext) []any                { return nil }
func (c *IdleCommand) OnCancel(u *Unit)                                           { u.VX, u.VY = 0, 0 }

// --- MoveCommand ---

type MoveCommand struct {
	GoalX, GoalY float64
	reached      bool
}

func (c *MoveCommand) Name() string { return "move" }
func (c *MoveCommand) Update(u *Unit, ctx *TickContext) bool { return !c.reached }
func (c *MoveCommand) UpdateMovement(u *Unit, ctx *TickContext, nearby []EntityID) {
	if arrive(u, ctx, c.GoalX, c.GoalY, 10) {
		c.reached = true
	}
}
func (c *MoveCommand) UpdateCombat(u *Unit, ctx *TickContext) []any { return nil }
func (c *MoveCommand) OnCancel(u *Unit)                            { u.VX, u.VY = 0, 0 }

// --- AttackMoveCommand ---

const defaultPatrolSides = 6
const defaultPatrolRadius = 200

type AttackMoveCommand struct {
	GoalX, GoalY   float64
	AutoTargetID   EntityID
	scanTimer      int
	reached        bool
	ReturnToAnchor bool // consolidates the teacher's OnStationCommand: polygon patrol around a station anchor
	AnchorX, AnchorY float64
	PatrolSides    int     // polygon side count; 0 defaults to defaultPatrolSides
	PatrolRadius   float64 // 0 defaults to defaultPatrolRadius
	patrolVertex   int     // current polygon vertex index, advances on arrival

	// InterceptorMode governs how a found target is handled while on
	// station (§4.4): false engages it without breaking the patrol loop
	// (gunship), true hands off to a dedicated AttackTargetableCommand and
	// resumes the patrol once that command ends (interceptor).
	InterceptorMode bool
}

// NewOnStationCommand builds a polygon patrol loop around (anchorX,
// anchorY): sides vertices spaced evenly around radius, re-issued on
// completion (§4.4 OnStationCommand). sides <= 0 and radius <= 0 fall
// back to the defaults.
func NewOnStationCommand(anchorX, anchorY float64, sides int, radius float64, interceptor bool) *AttackMoveCommand {
	if sides <= 0 {
		sides = defaultPatrolSides
	}
	if radius <= 0 {
		radius = defaultPatrolRadius
	}
	c := &AttackMoveCommand{
		ReturnToAnchor: true, InterceptorMode: interceptor,
		AnchorX: anchorX, AnchorY: anchorY, PatrolSides: sides, PatrolRadius: radius,
	}
	c.GoalX, c.GoalY = patrolVertex(anchorX, anchorY, radius, sides, 0)
	return c
}

// patrolVertex returns the position of vertex index around a regular
// polygon of the given side count and radius centered on (cx, cy).
func patrolVertex(cx, cy, radius float64, sides, index int) (float64, float64) {
	angle := 2 * math.Pi * float64(index%sides) / float64(sides)
	return cx + radius*math.Cos(angle), cy + radius*math.Sin(angle)
}

func (c *AttackMoveCommand) Name() string { return "attack_move" }

func (c *AttackMoveCommand) Update(u *Unit, ctx *TickContext) bool {
	if c.ReturnToAnchor && u.Fuel != nil {
		u.Fuel.Fuel -= ctx.DeltaSec
		if (u.Fuel.Fuel <= 0 || u.Fuel.Ammo <= 0) && u.HomeHangarID != 0 {
			u.PushCommand(&ReturnToHangarCommand{HangarID: u.HomeHangarID}, false)
			return true // command already swapped, keep AdvanceCommand away
		}
	}
	if c.AutoTargetID != 0 {
		t := ctx.Entities.Targetable(c.AutoTargetID)
		if t == nil || !t.Active() {
			c.AutoTargetID = 0
		}
	}
	c.scanTimer++
	if c.scanTimer >= scanCadenceTicks {
		c.scanTimer = 0
		if c.AutoTargetID == 0 && u.CanAttack() {
			if t := ctx.Entities.FindNearestEnemyTargetable(u.X, u.Y, u.Team, u.Weapon(), u.Weapon().Range*1.5); t != nil {
				if c.ReturnToAnchor && c.InterceptorMode {
					resume := &AttackMoveCommand{
						ReturnToAnchor: true, InterceptorMode: true,
						AnchorX: c.AnchorX, AnchorY: c.AnchorY,
						PatrolSides: c.PatrolSides, PatrolRadius: c.PatrolRadius, patrolVertex: c.patrolVertex,
					}
					resume.GoalX, resume.GoalY = patrolVertex(c.AnchorX, c.AnchorY, c.PatrolRadius, c.PatrolSides, c.patrolVertex)
					u.PushCommand(&AttackTargetableCommand{TargetID: t.ID()}, false)
					u.PushCommand(resume, true)
					return true // u.Command was just replaced above; AdvanceCommand must not run
				}
				c.AutoTargetID = t.ID()
			}
		}
	}
	if c.reached && !c.ReturnToAnchor {
		return false
	}
	return true
}

func (c *AttackMoveCommand) UpdateMovement(u *Unit, ctx *TickContext, nearby []EntityID) {
	if c.AutoTargetID != 0 {
		t := ctx.Entities.Targetable(c.AutoTargetID)
		if t != nil {
			tx, ty := t.Pos()
			dist := math.Hypot(tx-u.X, ty-u.Y)
			if dist <= u.Weapon().Range+t.TargetSize() {
				u.VX, u.VY = 0, 0
				return
			}
		}
	}
	if arrive(u, ctx, c.GoalX, c.GoalY, 0.75*u.Radius) {
		if c.ReturnToAnchor {
			c.patrolVertex++
			sides := c.PatrolSides
			if sides <= 0 {
				sides = defaultPatrolSides
			}
			radius := c.PatrolRadius
			if radius <= 0 {
				radius = defaultPatrolRadius
			}
			c.GoalX, c.GoalY = patrolVertex(c.AnchorX, c.AnchorY, radius, sides, c.patrolVertex)
		} else {
			c.reached = true
		}
	}
}

func (c *AttackMoveCommand) UpdateCombat(u *Unit, ctx *TickContext) []any {
	if c.AutoTargetID == 0 {
		return nil
	}
	t := ctx.Entities.Targetable(c.AutoTargetID)
	if t == nil {
		return nil
	}
	return faceAndFire(u, ctx, t, ctx.Cooldowns)
}

func (c *AttackMoveCommand) OnCancel(u *Unit) { u.VX, u.VY = 0, 0 }

// --- AttackTargetableCommand ---

type AttackTargetableCommand struct {
	TargetID      EntityID
	lastPathX     float64
	lastPathY     float64
	havePath      bool
}

func (c *AttackTargetableCommand) Name() string { return "attack_targetable" }

func (c *AttackTargetableCommand) target(ctx *TickContext) Targetable { return ctx.Entities.Targetable(c.TargetID) }

func (c *AttackTargetableCommand) Update(u *Unit, ctx *TickContext) bool {
	t := c.target(ctx)
	return t != nil && t.Active()
}

func (c *AttackTargetableCommand) UpdateMovement(u *Unit, ctx *TickContext, nearby []EntityID) {
	t := c.target(ctx)
	if t == nil {
		return
	}
	tx, ty := t.Pos()
	effRange := u.Weapon().Range + t.TargetSize()
	dist := math.Hypot(tx-u.X, ty-u.Y)

	if dist > 0.9*effRange {
		moved := math.Hypot(tx-c.lastPathX, ty-c.lastPathY)
		if !c.havePath || moved > 50 {
			c.lastPathX, c.lastPathY = tx, ty
			c.havePath = true
		}
		arrive(u, ctx, c.lastPathX, c.lastPathY, 0.9*effRange)
		return
	}
	u.VX, u.VY = 0, 0
	dx, dy := tx-u.X, ty-u.Y
	u.Rotation = math.Atan2(dy, dx)
}

func (c *AttackTargetableCommand) UpdateCombat(u *Unit, ctx *TickContext) []any {
	t := c.target(ctx)
	if t == nil {
		return nil
	}
	tx, ty := t.Pos()
	effRange := u.Weapon().Range + t.TargetSize()
	if math.Hypot(tx-u.X, ty-u.Y) > effRange {
		return nil
	}
	return faceAndFire(u, ctx, t, ctx.Cooldowns)
}

func (c *AttackTargetableCommand) OnCancel(u *Unit) { u.VX, u.VY = 0, 0 }

// --- AttackGroundCommand ---

type AttackGroundCommand struct {
	X, Y float64
}

func (c *AttackGroundCommand) Name() string                                       { return "attack_ground" }
func (c *AttackGroundCommand) Update(u *Unit, ctx *TickContext) bool               { return true }
func (c *AttackGroundCommand) UpdateMovement(u *Unit, ctx *TickContext, n []EntityID) {
	dist := math.Hypot(c.X-u.X, c.Y-u.Y)
	if dist > u.Weapon().Range {
		arrive(u, ctx, c.X, c.Y, u.Weapon().Range*0.9)
		return
	}
	u.VX, u.VY = 0, 0
}
func (c *AttackGroundCommand) UpdateCombat(u *Unit, ctx *TickContext) []any {
	if math.Hypot(c.X-u.X, c.Y-u.Y) > u.Weapon().Range {
		return nil
	}
	if ctx.Cooldowns.remaining(u.id) > 0 {
		ctx.Cooldowns.tick(u.id)
		return nil
	}
	weapon := u.Weapon()
	ctx.Cooldowns.arm(u.id, weapon.CooldownTicks(ctx.TickRate))
	id := ctx.Entities.NextID()
	p := NewProjectile(id, u.id, u.Team, u.X, u.Y, c.X, c.Y, weapon.ProjectileMPS, weapon.Damage, weapon.SplashRadius, ctx.TickRate)
	p.FriendlyFire = weapon.FriendlyFire
	return []any{p}
}
func (c *AttackGroundCommand) OnCancel(u *Unit) { u.VX, u.VY = 0, 0 }

// --- worker loop base: Construct / Harvest / Mine ---

type workerPhase int

const (
	workerPhaseToSite workerPhase = iota
	workerPhaseWorking
	workerPhaseReturning
)

// ConstructCommand advances a building's BuildProgress while the worker
// stands at the site.
type ConstructCommand struct {
	BuildingID EntityID
	phase      workerPhase
}

func (c *ConstructCommand) Name() string { return "construct" }
func (c *ConstructCommand) Update(u *Unit, ctx *TickContext) bool {
	b, ok := ctx.Entities.Buildings[c.BuildingID]
	return ok && b.Active() && b.UnderConstruction
}
func (c *ConstructCommand) UpdateMovement(u *Unit, ctx *TickContext, n []EntityID) {
	b, ok := ctx.Entities.Buildings[c.BuildingID]
	if !ok {
		return
	}
	if arrive(u, ctx, b.X, b.Y, b.Radius+10) {
		c.phase = workerPhaseWorking
	}
}
func (c *ConstructCommand) UpdateCombat(u *Unit, ctx *TickContext) []any {
	if c.phase != workerPhaseWorking {
		return nil
	}
	b, ok := ctx.Entities.Buildings[c.BuildingID]
	if !ok {
		return nil
	}
	b.BuildProgress += 1.0 / (30 * float64(ctx.TickRate)) // ~30s nominal build
	if b.BuildProgress >= 1 {
		b.BuildProgress = 1
		b.UnderConstruction = false
		ctx.Paths.Invalidate() // completed building now blocks ground movement
	}
	return nil
}
func (c *ConstructCommand) OnCancel(u *Unit) { u.VX, u.VY = 0, 0 }

// HarvestCommand loops a worker between a harvestable obstacle and the
// nearest refinery/HQ building.
type HarvestCommand struct {
	ObstacleID   EntityID
	DepotID      EntityID
	phase        workerPhase
}

func (c *HarvestCommand) Name() string { return "harvest" }
func (c *HarvestCommand) Update(u *Unit, ctx *TickContext) bool {
	o, ok := ctx.Entities.Obstacles[c.ObstacleID]
	if !ok || !o.Active() {
		return u.Carry != nil && u.Carry.Carried > 0 // finish delivering what we have
	}
	return true
}
func (c *HarvestCommand) UpdateMovement(u *Unit, ctx *TickContext, n []EntityID) {
	if u.Carry == nil {
		return
	}
	switch c.phase {
	case workerPhaseToSite:
		o, ok := ctx.Entities.Obstacles[c.ObstacleID]
		if !ok {
			c.phase = workerPhaseReturning
			return
		}
		if arrive(u, ctx, o.X, o.Y, o.Radius+10) {
			c.phase = workerPhaseWorking
		}
	case workerPhaseWorking:
		u.VX, u.VY = 0, 0
	case workerPhaseReturning:
		d, ok := ctx.Entities.Buildings[c.DepotID]
		if !ok {
			return
		}
		if arrive(u, ctx, d.X, d.Y, d.Radius+10) {
			if f, ok := ctx.Entities.Factions[u.Owner]; ok && u.Carry.Carried > 0 {
				f.Credits += int(u.Carry.Carried)
				u.Carry.Carried = 0
			}
			c.phase = workerPhaseToSite
		}
	}
}
func (c *HarvestCommand) UpdateCombat(u *Unit, ctx *TickContext) []any {
	if u.Carry == nil || c.phase != workerPhaseWorking {
		return nil
	}
	o, ok := ctx.Entities.Obstacles[c.ObstacleID]
	if !ok || !o.Harvestable() {
		c.phase = workerPhaseReturning
		return nil
	}
	taken := o.Extract(u.Carry.Capacity / float64(ctx.TickRate) * 4)
	u.Carry.Carried += taken
	u.Carry.ResourceType = o.ResourceType
	if u.Carry.Carried >= u.Carry.Capacity {
		u.Carry.Carried = u.Carry.Capacity
		c.phase = workerPhaseReturning
	}
	return nil
}
func (c *HarvestCommand) OnCancel(u *Unit) { u.VX, u.VY = 0, 0 }

// MineCommand is Harvest's sibling for depletable "pickaxe" mining
// (the pickaxe itself degrades with use instead of the site depleting).
type MineCommand struct {
	ObstacleID EntityID
	DepotID    EntityID
	phase      workerPhase
}

func (c *MineCommand) Name() string { return "mine" }
func (c *MineCommand) Update(u *Unit, ctx *TickContext) bool {
	return u.Carry != nil && u.Carry.MineHealth > 0
}
func (c *MineCommand) UpdateMovement(u *Unit, ctx *TickContext, n []EntityID) {
	if u.Carry == nil {
		return
	}
	switch c.phase {
	case workerPhaseToSite:
		o, ok := ctx.Entities.Obstacles[c.ObstacleID]
		if !ok {
			c.phase = workerPhaseReturning
			return
		}
		if arrive(u, ctx, o.X, o.Y, o.Radius+10) {
			c.phase = workerPhaseWorking
		}
	case workerPhaseWorking:
		u.VX, u.VY = 0, 0
	case workerPhaseReturning:
		d, ok := ctx.Entities.Buildings[c.DepotID]
		if !ok {
			return
		}
		if arrive(u, ctx, d.X, d.Y, d.Radius+10) {
			if f, ok := ctx.Entities.Factions[u.Owner]; ok && u.Carry.Carried > 0 {
				f.Credits += int(u.Carry.Carried)
				u.Carry.Carried = 0
			}
			c.phase = workerPhaseToSite
		}
	}
}
func (c *MineCommand) UpdateCombat(u *Unit, ctx *TickContext) []any {
	if u.Carry == nil {
		return nil
	}
	if c.phase == workerPhaseWorking {
		u.Carry.MineHealth -= 1.0 / float64(ctx.TickRate)
		u.Carry.Carried += u.Carry.Capacity / float64(ctx.TickRate) * 2
		if u.Carry.Carried >= u.Carry.Capacity || u.Carry.MineHealth <= 0 {
			c.phase = workerPhaseReturning
		}
	}
	return nil
}
func (c *MineCommand) OnCancel(u *Unit) { u.VX, u.VY = 0, 0 }

// --- GarrisonBunkerCommand ---

type GarrisonBunkerCommand struct {
	BunkerID EntityID
	done     bool
}

func (c *GarrisonBunkerCommand) Name() string { return "garrison" }
func (c *GarrisonBunkerCommand) Update(u *Unit, ctx *TickContext) bool { return !c.done }
func (c *GarrisonBunkerCommand) UpdateMovement(u *Unit, ctx *TickContext, n []EntityID) {
	b, ok := ctx.Entities.Buildings[c.BunkerID]
	if !ok || b.Garrison == nil {
		c.done = true
		return
	}
	if arrive(u, ctx, b.X, b.Y, b.Radius+5) {
		if len(b.Garrison.Occupants) < b.Garrison.Capacity {
			b.Garrison.Occupants = append(b.Garrison.Occupants, u)
			ctx.Entities.RemoveUnit(u.id)
		}
		c.done = true
	}
}
func (c *GarrisonBunkerCommand) UpdateCombat(u *Unit, ctx *TickContext) []any { return nil }
func (c *GarrisonBunkerCommand) OnCancel(u *Unit)                            { u.VX, u.VY = 0, 0 }

// --- SortieCommand (four-phase aircraft mission) ---

type SortiePhase int

const (
	SortieOutbound SortiePhase = iota
	SortieAttack
	SortieInbound
	SortieLanding
)

type SortieCommand struct {
	HangarID       EntityID
	TargetX, TargetY float64
	Phase          SortiePhase
	phaseTicks     int
	payloadDropped bool
}

func (c *SortieCommand) Name() string { return "sortie" }

func (c *SortieCommand) Update(u *Unit, ctx *TickContext) bool {
	if hb, ok := ctx.Entities.Buildings[c.HangarID]; !ok || !hb.Active() {
		// home hangar destroyed: the aircraft has nowhere to land and is lost
		u.TakeDamage(u.Health, 0)
		return false
	}
	c.phaseTicks++
	return c.Phase != SortieLanding || c.phaseTicks < ctx.TickRate/2
}

func (c *SortieCommand) UpdateMovement(u *Unit, ctx *TickContext, n []EntityID) {
	switch c.Phase {
	case SortieOutbound:
		if arrive(u, ctx, c.TargetX, c.TargetY, 30) {
			c.Phase = SortieAttack
			c.phaseTicks = 0
		}
	case SortieAttack:
		dx, dy := c.TargetX-u.X, c.TargetY-u.Y
		dist := math.Hypot(dx, dy)
		if dist > 1 {
			u.VX = (dx / dist) * u.Speed * 0.5
			u.VY = (dy / dist) * u.Speed * 0.5
		}
		if c.phaseTicks >= 2*ctx.TickRate {
			c.Phase = SortieInbound
			c.phaseTicks = 0
		}
	case SortieInbound:
		hb, ok := ctx.Entities.Buildings[c.HangarID]
		if ok && arrive(u, ctx, hb.X, hb.Y, 30) {
			c.Phase = SortieLanding
			c.phaseTicks = 0
		}
	case SortieLanding:
		u.VX, u.VY = 0, 0
	}
}

func (c *SortieCommand) UpdateCombat(u *Unit, ctx *TickContext) []any {
	if c.Phase != SortieAttack || c.payloadDropped {
		return nil
	}
	if c.phaseTicks < ctx.TickRate { // drop at t=1s into the attack phase
		return nil
	}
	c.payloadDropped = true
	bomb := GetWeapon("bomb")
	var out []any
	for i := 0; i < 5; i++ {
		ox := c.TargetX + float64(i-2)*20
		id := ctx.Entities.NextID()
		out = append(out, NewFieldEffect(id, FieldExplosion, ox, c.TargetY, bomb.SplashRadius, bomb.Damage, u.Team, bomb.FriendlyFire, ctx.TickRate/2, 1))
	}
	return out
}

func (c *SortieCommand) OnCancel(u *Unit) { u.VX, u.VY = 0, 0 }

// --- ReturnToHangarCommand ---

type ReturnToHangarCommand struct {
	HangarID EntityID
	housed   bool
}

func (c *ReturnToHangarCommand) Name() string { return "return_to_hangar" }
func (c *ReturnToHangarCommand) Update(u *Unit, ctx *TickContext) bool { return !c.housed }
func (c *ReturnToHangarCommand) UpdateMovement(u *Unit, ctx *TickContext, n []EntityID) {
	hb, ok := ctx.Entities.Buildings[c.HangarID]
	if !ok {
		c.housed = true
		return
	}
	if arrive(u, ctx, hb.X, hb.Y, 30) {
		if hb.Hangar == nil {
			hb.Hangar = &HangarComponent{Capacity: 4, OnSortie: make(map[EntityID]bool)}
		}
		if u.Fuel != nil {
			u.Fuel.Fuel = u.Fuel.MaxFuel
			u.Fuel.Ammo = u.Fuel.MaxAmmo
		}
		housed := HousedAircraft{
			Type: u.Type, WeaponID: u.WeaponID, Elevation: u.Elevation,
			MaxHealth: u.MaxHealth, Speed: u.Speed, Radius: u.Radius,
			Upkeep: u.Upkeep,
		}
		if u.Fuel != nil {
			fuelCopy := *u.Fuel
			housed.Fuel = &fuelCopy
		}
		hb.Hangar.Housed = append(hb.Hangar.Housed, housed)
		delete(hb.Hangar.OnSortie, u.id)
		ctx.Entities.RemoveUnit(u.id)
		c.housed = true
	}
}
func (c *ReturnToHangarCommand) UpdateCombat(u *Unit, ctx *TickContext) []any { return nil }
func (c *ReturnToHangarCommand) OnCancel(u *Unit)                            { u.VX, u.VY = 0, 0 }

