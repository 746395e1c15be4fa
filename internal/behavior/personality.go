package behavior

// Personality shapes one agent's transitions and movement blending.
type Personality struct {
	// Aggression scales detection range when acquiring targets; 0..1.
	Aggression float64
	// SpeedMultiplier scales base movement speed.
	SpeedMultiplier float64
	// FleeHealthFraction is the health fraction below which combat states
	// give way to flee.
	FleeHealthFraction float64
	// Swarm enables separation/alignment/cohesion blending in the movement
	// executor.
	Swarm bool
	// Role gates support/guard transitions.
	Role Role
	// AggressionModifier optionally rescales Aggression per decision from a
	// scripted expression; nil leaves Aggression untouched.
	AggressionModifier *Modifier
}

// DefaultPersonality returns neutral parameters.
func DefaultPersonality() Personality {
	return Personality{
		Aggression:         0.5,
		SpeedMultiplier:    1.0,
		FleeHealthFraction: 0.25,
	}
}

// Normalized clamps out-of-range parameters rather than rejecting them.
func (p Personality) Normalized() Personality {
	if p.Aggression < 0 {
		p.Aggression = 0
	}
	if p.Aggression > 1 {
		p.Aggression = 1
	}
	if p.SpeedMultiplier <= 0 {
		p.SpeedMultiplier = 1
	}
	if p.FleeHealthFraction < 0 {
		p.FleeHealthFraction = 0
	}
	if p.FleeHealthFraction > 1 {
		p.FleeHealthFraction = 1
	}
	return p
}

// EffectiveAggression applies the scripted modifier, if any, to the base
// aggression. A failing script leaves the base value unchanged.
func (p Personality) EffectiveAggression(ctx Context) float64 {
	base := p.Normalized().Aggression
	if p.AggressionModifier == nil {
		return base
	}
	return p.AggressionModifier.Evaluate(base, ctx)
}
