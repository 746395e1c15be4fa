package engine

import (
	"fieldmind/internal/behavior"
	"fieldmind/internal/world"
)

// Per-agent perception defaults used when AgentSpec leaves them zero.
const (
	defaultSightRadius   = 200.0
	defaultHearingRadius = 150.0
	defaultAttackRange   = 40.0
	guardPostRadius      = 50.0
	stuckThreshold       = 3
	stuckEpsilon         = 1.0
)

// AgentSpec describes an entity handed over to the engine.
type AgentSpec struct {
	Personality   behavior.Personality
	SightRadius   float64
	HearingRadius float64
	AttackRange   float64
	Home          world.Vec2
}

// Agent is the engine's per-entity record. It carries everything the state
// machine and the movement executor need between ticks; the authoritative
// position and health stay in the world.
type Agent struct {
	ID          world.ID
	State       behavior.State
	Personality behavior.Personality

	SightRadius   float64
	HearingRadius float64
	AttackRange   float64
	Home          world.Vec2

	// TargetID persists across ticks so chases do not flicker between
	// equidistant enemies.
	TargetID world.ID
	// lastKnown remembers where each target was last seen.
	lastKnown map[world.ID]world.Vec2

	// Path is replaced atomically when a queued request completes.
	Path      []world.Vec2
	PathIndex int
	Velocity  world.Vec2

	nextUpdateAt  float64
	pathReadyAt   float64
	pendingPath   bool
	stuckCounter  int
	lastSeenPos   world.Vec2
	hasLastSeen   bool
	lastHealth    float64
	hasLastHealth bool
	lastDamageAt  float64
	damaged       bool

	position world.Vec2
	active   bool

	// Transient perception captured by the context builder for the action
	// pass of the same decision.
	threatPos   world.Vec2
	hasThreat   bool
	supportPos  world.Vec2
	hasSupport  bool
	lastGoal    world.Vec2
	hasLastGoal bool
}

func newAgent(id world.ID, spec AgentSpec) *Agent {
	personality := spec.Personality
	if personality == (behavior.Personality{}) {
		personality = behavior.DefaultPersonality()
	}
	a := &Agent{
		ID:            id,
		State:         behavior.StateIdle,
		Personality:   personality.Normalized(),
		SightRadius:   spec.SightRadius,
		HearingRadius: spec.HearingRadius,
		AttackRange:   spec.AttackRange,
		Home:          spec.Home,
		lastKnown:     make(map[world.ID]world.Vec2),
	}
	if a.SightRadius <= 0 {
		a.SightRadius = defaultSightRadius
	}
	if a.HearingRadius <= 0 {
		a.HearingRadius = defaultHearingRadius
	}
	if a.AttackRange <= 0 {
		a.AttackRange = defaultAttackRange
	}
	return a
}

// setPath installs a freshly computed path and resets progress. Agents only
// ever observe a complete path, never a partially updated one.
func (a *Agent) setPath(path []world.Vec2) {
	a.Path = path
	a.PathIndex = 0
	a.pendingPath = false
}

func (a *Agent) clearPath() {
	a.Path = nil
	a.PathIndex = 0
}

// detectionRange is the widest perception radius, covering both sight and
// hearing.
func (a *Agent) detectionRange() float64 {
	if a.HearingRadius > a.SightRadius {
		return a.HearingRadius
	}
	return a.SightRadius
}

// noteHealth tracks health decreases so the context can report time since the
// agent last took damage.
func (a *Agent) noteHealth(fraction, now float64) {
	if a.hasLastHealth && fraction < a.lastHealth {
		a.lastDamageAt = now
		a.damaged = true
	}
	a.lastHealth = fraction
	a.hasLastHealth = true
}

// noteMovement feeds the stuck detector. An agent that keeps a path but
// barely moves between decision passes is counted toward the threshold.
func (a *Agent) noteMovement(pos world.Vec2) {
	if a.hasLastSeen && len(a.Path) > 0 {
		if pos.DistanceTo(a.lastSeenPos) < stuckEpsilon {
			a.stuckCounter++
		} else {
			a.stuckCounter = 0
		}
	}
	a.lastSeenPos = pos
	a.hasLastSeen = true
}

func (a *Agent) stuck() bool {
	return a.stuckCounter >= stuckThreshold
}
