package engine

import (
	"math"

	"fieldmind/internal/behavior"
	"fieldmind/internal/world"
)

const distressHealthFraction = 0.5

// buildContext snapshots everything the state machine needs for one decision:
// nearby ally/enemy counts, target visibility and memory, health, the damage
// clock, and stuck detection. It also refreshes the agent's persistent target
// so chases do not flicker between equidistant enemies.
func (e *Engine) buildContext(a *Agent, ent world.Entity, now float64) behavior.Context {
	ctx := behavior.Context{
		HealthFraction: 1,
		DetectionRange: a.detectionRange(),
		AttackRange:    a.AttackRange,
	}
	if h, ok := ent.Health(); ok {
		ctx.HealthFraction = h.Fraction()
	}
	if a.damaged {
		ctx.TimeSinceDamage = now - a.lastDamageAt
	} else {
		ctx.TimeSinceDamage = math.MaxFloat64
	}

	a.noteMovement(a.position)
	ctx.Stuck = a.stuck()

	a.hasThreat = false
	a.hasSupport = false

	faction := ent.Faction()
	var nearestEnemy world.ID
	nearestDist := math.MaxFloat64

	for _, id := range e.index.Query(a.position, ctx.DetectionRange) {
		if id == a.ID {
			continue
		}
		other, ok := e.world.Entity(id)
		if !ok {
			continue
		}
		pos, ok := other.Position()
		if !ok {
			continue
		}
		if other.Faction() == faction {
			ctx.AlliesNearby++
			if h, ok := other.Health(); ok && h.Fraction() < distressHealthFraction && h.Current > 0 {
				ctx.AllyInDistress = true
				a.supportPos = pos
				a.hasSupport = true
			}
			continue
		}
		if h, ok := other.Health(); ok && h.Current <= 0 {
			continue
		}
		ctx.EnemiesNearby++
		if d := a.position.DistanceTo(pos); d < nearestDist {
			nearestDist = d
			nearestEnemy = id
		}
	}

	// Keep the current target while it lives; acquire the nearest enemy
	// otherwise.
	if a.TargetID != "" {
		target, ok := e.world.Entity(a.TargetID)
		if !ok {
			a.TargetID = ""
		} else if h, ok := target.Health(); ok && h.Current <= 0 {
			delete(a.lastKnown, a.TargetID)
			a.TargetID = ""
		}
	}
	if a.TargetID == "" && nearestEnemy != "" {
		a.TargetID = nearestEnemy
	}

	if a.TargetID != "" {
		if target, ok := e.world.Entity(a.TargetID); ok {
			if tpos, ok := target.Position(); ok {
				ctx.HasTarget = true
				ctx.TargetDistance = a.position.DistanceTo(tpos)
				ctx.TargetVisible = ctx.TargetDistance <= a.SightRadius
				if ctx.TargetVisible {
					a.lastKnown[a.TargetID] = tpos
					a.threatPos = tpos
					a.hasThreat = true
				}
			}
		}
	}
	if last, ok := a.lastKnown[a.TargetID]; ok && a.TargetID != "" {
		ctx.HasLastKnown = true
		if !a.hasThreat {
			a.threatPos = last
			a.hasThreat = true
		}
	}

	ctx.NearHome = a.position.DistanceTo(a.Home) <= guardPostRadius
	return ctx
}
