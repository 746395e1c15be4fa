package behavior

// Next returns the state an agent should occupy given its context. It is a
// pure function: callers compare the result against the current state and
// treat equality as a no-op (no notification, no re-entry work).
func Next(ctx Context, current State, p Personality) State {
	if current == StateDead {
		return StateDead
	}
	if ctx.HealthFraction <= 0 {
		return StateDead
	}
	p = p.Normalized()

	// Low health preempts everything but death.
	if inCombat(current) && ctx.HealthFraction < p.FleeHealthFraction {
		return StateFlee
	}

	// Detection range widens with aggression: a 0-aggression agent reacts
	// only at half range, a max-aggression agent at 1.5x.
	detection := ctx.DetectionRange * (0.5 + p.EffectiveAggression(ctx))

	switch current {
	case StateIdle, StatePatrol:
		if enemySpotted(ctx, detection) {
			return StateChase
		}
		if p.Role == RoleSupport && ctx.AllyInDistress {
			return StateSupport
		}
		if p.Role == RoleGuard && !ctx.NearHome {
			return StateGuard
		}
		return current

	case StateChase:
		if !ctx.HasTarget {
			return StateIdle
		}
		if !ctx.TargetVisible {
			if ctx.HasLastKnown {
				return StateInvestigate
			}
			return StateIdle
		}
		if ctx.TargetDistance <= ctx.AttackRange {
			return StateAttack
		}
		return StateChase

	case StateAttack:
		if !ctx.HasTarget || !ctx.TargetVisible {
			if ctx.HasLastKnown {
				return StateInvestigate
			}
			return StateIdle
		}
		if ctx.TargetDistance > ctx.AttackRange {
			return StateChase
		}
		return StateAttack

	case StateFlee:
		// Recovered enough and shaken pursuit: withdraw deliberately.
		if ctx.HealthFraction >= p.FleeHealthFraction*2 || ctx.EnemiesNearby == 0 {
			return StateRetreat
		}
		return StateFlee

	case StateRetreat:
		if ctx.EnemiesNearby == 0 && ctx.TimeSinceDamage > 5 {
			if p.Role == RoleGuard {
				return StateGuard
			}
			return StateIdle
		}
		if enemySpotted(ctx, detection) && ctx.HealthFraction >= p.FleeHealthFraction {
			return StateChase
		}
		return StateRetreat

	case StateInvestigate:
		if enemySpotted(ctx, detection) {
			return StateChase
		}
		if !ctx.HasLastKnown {
			return StateIdle
		}
		return StateInvestigate

	case StateSupport:
		if p.Role != RoleSupport {
			return StateIdle
		}
		if !ctx.AllyInDistress {
			return StateIdle
		}
		if enemySpotted(ctx, ctx.AttackRange) {
			return StateFlee
		}
		return StateSupport

	case StateGuard:
		if p.Role != RoleGuard {
			return StateIdle
		}
		if enemySpotted(ctx, detection) {
			return StateChase
		}
		return StateGuard

	default:
		return StateIdle
	}
}

func inCombat(s State) bool {
	return s == StateChase || s == StateAttack
}

func enemySpotted(ctx Context, detection float64) bool {
	return ctx.HasTarget && ctx.TargetVisible && ctx.TargetDistance <= detection
}
