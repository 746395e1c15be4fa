// Package world defines the narrow surface the engine shares with the
// surrounding entity/component store. The engine never owns entities; it
// reads derived projections (position, health, movement) through handles and
// publishes notifications through a fire-and-forget sink.
package world

// ID identifies an entity owned by the surrounding world.
type ID string

// ComponentType enumerates the component kinds the engine can require from a
// collaborator entity.
type ComponentType uint8

const (
	ComponentPosition ComponentType = iota
	ComponentMovement
	ComponentHealth
	ComponentAI
)

// Health mirrors an entity's health component.
type Health struct {
	Current float64
	Max     float64
}

// Fraction returns current health as a 0..1 fraction of max.
func (h Health) Fraction() float64 {
	if h.Max <= 0 {
		return 0
	}
	return Clamp(h.Current/h.Max, 0, 1)
}

// Movement mirrors an entity's movement component.
type Movement struct {
	Velocity  Vec2
	BaseSpeed float64
}

// Entity is a read-only handle onto one collaborator-owned entity. Component
// lookups return ok=false when the entity lacks that component; callers skip
// the operation rather than treating the gap as an error.
type Entity interface {
	ID() ID
	Faction() string
	Position() (Vec2, bool)
	Health() (Health, bool)
	Movement() (Movement, bool)
}

// World is the collaborator interface consumed by the engine.
type World interface {
	// Entity resolves an id to a live handle; ok=false means the entity no
	// longer exists and any queued work referencing it must be skipped.
	Entity(id ID) (Entity, bool)
	// EntitiesWith returns handles for every entity carrying all of the
	// required component types.
	EntitiesWith(required ...ComponentType) []Entity
	// Emit delivers a fire-and-forget notification. Delivery is not
	// guaranteed and downstream return values are ignored.
	Emit(event string, payload any)
}

// Event names published by the engine.
const (
	EventStateChanged     = "ai.state_changed"
	EventPathfindingStats = "ai.pathfinding_stats"
)

// StateChangedPayload accompanies EventStateChanged.
type StateChangedPayload struct {
	AgentID ID     `json:"agentId"`
	From    string `json:"from"`
	To      string `json:"to"`
	Tick    uint64 `json:"tick"`
}
