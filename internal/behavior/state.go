// Package behavior holds the per-agent discrete state machine: a state enum,
// a personality parameter bundle, and a pure transition function driven by a
// situational context snapshot.
package behavior

// State is one discrete behavior mode.
type State string

const (
	StateIdle        State = "idle"
	StatePatrol      State = "patrol"
	StateChase       State = "chase"
	StateAttack      State = "attack"
	StateFlee        State = "flee"
	StateInvestigate State = "investigate"
	StateRetreat     State = "retreat"
	StateSupport     State = "support"
	StateGuard       State = "guard"
	// StateDead is terminal and absorbing: once entered no transition ever
	// leaves it.
	StateDead State = "dead"
)

// Role gates the support/guard transition rules to agents that carry it.
type Role string

const (
	RoleNone    Role = ""
	RoleSupport Role = "support"
	RoleGuard   Role = "guard"
)

// Context is the per-agent situational snapshot built by the orchestrator
// each decision. It is the sole input to transitions and to the decision of
// whether to request a new path.
type Context struct {
	AlliesNearby  int
	EnemiesNearby int

	HasTarget      bool
	TargetVisible  bool
	TargetDistance float64
	HasLastKnown   bool

	HealthFraction  float64
	TimeSinceDamage float64
	Stuck           bool

	DetectionRange float64
	AttackRange    float64

	// AllyInDistress is set when a support-role agent sees a nearby ally
	// below half health.
	AllyInDistress bool
	// NearHome is set while a guard-role agent stands within its guard
	// radius of its post.
	NearHome bool
}
