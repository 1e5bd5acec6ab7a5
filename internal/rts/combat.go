package rts

import "math"

// tickBuildingTurrets fires each powered defensive structure's turret
// weapon at the nearest enemy Targetable in range, the building-side
// counterpart of a unit command's UpdateCombat hook (§4.5 defensive
// structures, §4.6 turret firing).
func (g *Game) tickBuildingTurrets(ctx *TickContext) {
	for _, b := range g.Entities.Buildings {
		if b.WeaponID == "" || !b.Active() || !b.Powered {
			continue
		}
		weapon := GetWeapon(b.WeaponID)
		target := g.Entities.FindNearestEnemyTargetable(b.X, b.Y, b.Team, weapon, weapon.Range)
		if target == nil {
			continue
		}
		g.addOrdinance(buildingFaceAndFire(b, ctx, target, g.cooldowns))
	}
}

// buildingFaceAndFire is faceAndFire's building-side counterpart: a
// turret has no movement to drive, only rotation and weapon cooldown.
func buildingFaceAndFire(b *Building, ctx *TickContext, target Targetable, cooldowns *unitCooldowns) []any {
	tx, ty := target.Pos()
	b.Rotation = math.Atan2(ty-b.Y, tx-b.X)

	if cooldowns.remaining(b.id) > 0 {
		cooldowns.tick(b.id)
		return nil
	}
	weapon := GetWeapon(b.WeaponID)
	if !weapon.CanHit(target.ElevationOf()) {
		return nil
	}
	cooldowns.arm(b.id, weapon.CooldownTicks(ctx.TickRate))

	if weapon.Ordinance == OrdinanceBeam {
		id := ctx.Entities.NextID()
		return []any{NewBeam(id, b.id, b.Team, b.X, b.Y, tx, ty, weapon.ID, ctx.Tick)}
	}
	id := ctx.Entities.NextID()
	p := NewProjectile(id, b.id, b.Team, b.X, b.Y, tx, ty, weapon.ProjectileMPS, weapon.Damage, weapon.SplashRadius, ctx.TickRate)
	p.FriendlyFire = weapon.FriendlyFire
	return []any{p}
}

// addOrdinance appends a command's returned ordinance (Projectile,
// Beam, or FieldEffect values produced by UpdateCombat) into the entity
// store. Commands return []any because a single combat tick can yield
// either a projectile/beam (from weapon fire) or a batch of field
// effects (sortie payload drops); the store is the single place that
// needs to know the concrete type.
func (g *Game) addOrdinance(items []any) {
	for _, item := range items {
		switch v := item.(type) {
		case *Projectile:
			g.Entities.Projectiles[v.ID()] = v
		case *Beam:
			g.Entities.Beams[v.ID()] = v
		case *FieldEffect:
			g.Entities.FieldEffects[v.ID()] = v
		}
	}
}

// advanceProjectiles moves every live projectile, resolves hits, applies
// damage, and spawns area FieldEffects for splash ordinance (§4.7 step 5).
func (g *Game) advanceProjectiles() {
	for id, p := range g.Entities.Projectiles {
		if !p.Advance(g.WorldW, g.WorldH) {
			delete(g.Entities.Projectiles, id)
			continue
		}
		hit := g.findProjectileHit(p)
		if hit == nil {
			continue
		}
		hit.TakeDamage(p.Damage, p.OwnerID)
		if p.SplashRadius > 0 {
			effectID := g.Entities.NextID()
			fx, fy := hit.Pos()
			g.Entities.FieldEffects[effectID] = NewFieldEffect(effectID, FieldExplosion, fx, fy, p.SplashRadius, p.Damage*0.5, p.Team, p.FriendlyFire, 10, 1)
		}
		delete(g.Entities.Projectiles, id)
	}
}

func (g *Game) findProjectileHit(p *Projectile) Targetable {
	for _, u := range g.Entities.Units {
		if p.Hits(u) {
			return u
		}
	}
	for _, b := range g.Entities.Buildings {
		if p.Hits(b) {
			return b
		}
	}
	for _, w := range g.Entities.WallSegments {
		if p.Hits(w) {
			return w
		}
	}
	return nil
}

// resolveBeams applies beam damage at spawn and then expires them once
// their visual duration elapses.
func (g *Game) resolveBeams() {
	for id, b := range g.Entities.Beams {
		if b.SpawnTick == g.Tick {
			g.applyBeamDamage(b)
		}
		if !b.Advance() {
			delete(g.Entities.Beams, id)
		}
	}
}

func (g *Game) applyBeamDamage(b *Beam) {
	weapon := GetWeapon(b.BeamType)
	if target := g.lineNearestTarget(b); target != nil {
		target.TakeDamage(weapon.Damage, b.OwnerID)
	}
}

func (g *Game) lineNearestTarget(b *Beam) Targetable {
	// A beam in this core always targets whatever was acquired when it
	// fired; the command already resolved that target, so the beam's
	// endpoint (x2,y2) is exactly the target's position at spawn time.
	var best Targetable
	bestDist := 1e18
	for _, u := range g.Entities.Units {
		if u.Team == b.Team || !u.Active() {
			continue
		}
		ux, uy := u.Pos()
		d := (ux-b.X2)*(ux-b.X2) + (uy-b.Y2)*(uy-b.Y2)
		if d < bestDist {
			bestDist, best = d, u
		}
	}
	for _, bu := range g.Entities.Buildings {
		if bu.Team == b.Team || !bu.Active() {
			continue
		}
		bx, by := bu.Pos()
		d := (bx-b.X2)*(bx-b.X2) + (by-b.Y2)*(by-b.Y2)
		if d < bestDist {
			bestDist, best = d, bu
		}
	}
	return best
}

// tickFieldEffects advances lifetime and area damage for field effects
// (§4.7 step 6).
func (g *Game) tickFieldEffects() {
	for id, f := range g.Entities.FieldEffects {
		alive, shouldDamage := f.Advance()
		if shouldDamage {
			g.applyFieldDamage(f)
		}
		if !alive {
			delete(g.Entities.FieldEffects, id)
		}
	}
}

func (g *Game) applyFieldDamage(f *FieldEffect) {
	for _, u := range g.Entities.Units {
		if u.Active() && f.Contains(u) && f.AppliesTo(u.Team) {
			u.TakeDamage(f.DamagePerTick, 0)
		}
	}
	for _, b := range g.Entities.Buildings {
		if b.Active() && f.Contains(b) && f.AppliesTo(b.Team) {
			b.TakeDamage(f.DamagePerTick, 0)
		}
	}
	for _, w := range g.Entities.WallSegments {
		if w.Active() && f.Contains(w) && f.AppliesTo(w.Team) {
			w.TakeDamage(f.DamagePerTick, 0)
		}
	}
}
