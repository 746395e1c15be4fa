// Package steering converts an agent's current waypoint plus local avoidance
// and flocking forces into a single velocity command.
package steering

import (
	"fieldmind/internal/world"
)

// Blend weights. Desired direction dominates; avoidance corrects locally.
// Swarm agents mix separation/alignment/cohesion on top before the final
// velocity is assigned.
const (
	defaultArrivalRadius   = 10.0
	defaultAvoidanceRadius = 40.0

	desiredWeight   = 0.7
	avoidanceWeight = 0.3

	separationWeight = 0.5
	alignmentWeight  = 0.3
	cohesionWeight   = 0.2
)

// Neighbor is the positional snapshot of one nearby agent.
type Neighbor struct {
	Position world.Vec2
	Velocity world.Vec2
}

// Command is the movement decision for one agent this tick.
type Command struct {
	// Velocity is the assigned velocity in units per second.
	Velocity world.Vec2
	// PathIndex is the (possibly advanced) waypoint index.
	PathIndex int
	// PathDone reports that the final waypoint was reached and the path
	// should be cleared.
	PathDone bool
}

// Executor computes movement commands. The zero value is unusable; use
// NewExecutor so radii are populated.
type Executor struct {
	ArrivalRadius   float64
	AvoidanceRadius float64
}

// NewExecutor returns an executor with the given avoidance radius, clamped
// to the default when non-positive.
func NewExecutor(avoidanceRadius float64) *Executor {
	if avoidanceRadius <= 0 {
		avoidanceRadius = defaultAvoidanceRadius
	}
	return &Executor{
		ArrivalRadius:   defaultArrivalRadius,
		AvoidanceRadius: avoidanceRadius,
	}
}

// Steer reads the agent's current waypoint, advancing past any already
// reached, and blends the desired direction with avoidance (and flocking for
// swarm personalities) into a velocity command. An empty or exhausted path
// yields a zero velocity.
func (e *Executor) Steer(position world.Vec2, path []world.Vec2, pathIndex int, speed float64, neighbors []Neighbor, swarm bool) Command {
	if e == nil {
		return Command{PathIndex: pathIndex}
	}
	arrival := e.ArrivalRadius
	if arrival <= 0 {
		arrival = defaultArrivalRadius
	}

	idx := pathIndex
	if idx < 0 {
		idx = 0
	}
	for idx < len(path) && position.DistanceTo(path[idx]) <= arrival {
		idx++
	}
	if idx >= len(path) {
		return Command{PathIndex: idx, PathDone: len(path) > 0, Velocity: world.Vec2{}}
	}

	desired := path[idx].Sub(position).Normalized()
	direction := desired.Scale(desiredWeight)

	if avoid := e.avoidance(position, neighbors); avoid.LengthSq() > 0 {
		direction = direction.Add(avoid.Scale(avoidanceWeight))
	}
	if swarm && len(neighbors) > 0 {
		direction = direction.Add(e.flocking(position, neighbors))
	}

	direction = direction.Normalized()
	if direction.LengthSq() == 0 {
		direction = desired
	}
	return Command{
		Velocity:  direction.Scale(speed),
		PathIndex: idx,
	}
}

// avoidance sums repulsion away from each neighbor inside the avoidance
// radius, weighted by inverse distance so closer agents push harder.
func (e *Executor) avoidance(position world.Vec2, neighbors []Neighbor) world.Vec2 {
	var repulsion world.Vec2
	for _, n := range neighbors {
		offset := position.Sub(n.Position)
		dist := offset.Length()
		if dist <= 0 || dist > e.AvoidanceRadius {
			continue
		}
		repulsion = repulsion.Add(offset.Scale(1.0 / dist / dist))
	}
	return repulsion.Normalized()
}

// flocking blends separation, alignment toward the average neighbor
// velocity, and cohesion toward the neighbor centroid.
func (e *Executor) flocking(position world.Vec2, neighbors []Neighbor) world.Vec2 {
	var separation world.Vec2
	var velocitySum world.Vec2
	var centroid world.Vec2
	count := 0.0
	for _, n := range neighbors {
		offset := position.Sub(n.Position)
		if d := offset.Length(); d > 0 {
			separation = separation.Add(offset.Scale(1.0 / d))
		}
		velocitySum = velocitySum.Add(n.Velocity)
		centroid = centroid.Add(n.Position)
		count++
	}
	if count == 0 {
		return world.Vec2{}
	}
	alignment := velocitySum.Scale(1.0 / count).Normalized()
	cohesion := centroid.Scale(1.0 / count).Sub(position).Normalized()

	force := separation.Normalized().Scale(separationWeight)
	force = force.Add(alignment.Scale(alignmentWeight))
	force = force.Add(cohesion.Scale(cohesionWeight))
	return force
}
