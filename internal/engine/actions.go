package engine

import (
	"time"

	"fieldmind/internal/behavior"
	"fieldmind/internal/nav"
	"fieldmind/internal/world"
)

const (
	patrolRadius   = 150.0
	fleeDistance   = 220.0
	repathDistance = 30.0
	arrivedRadius  = 15.0
)

// act decides, per state, whether the agent needs a (new) path and enqueues
// the request. Requests respect the per-agent cooldown and the pending flag;
// computation itself happens later, in the budgeted queue drain.
func (e *Engine) act(a *Agent, ctx behavior.Context, now float64) {
	switch a.State {
	case behavior.StateIdle, behavior.StateAttack:
		// Both states hold position. Attackers face their target; the world
		// resolves the actual strikes.
		a.clearPath()

	case behavior.StatePatrol:
		if len(a.Path) == 0 && !a.pendingPath {
			e.requestPath(a, e.wanderGoal(a), now)
		}

	case behavior.StateChase:
		if !a.hasThreat {
			return
		}
		if e.needsRepath(a, a.threatPos) {
			e.requestPath(a, a.threatPos, now)
		}

	case behavior.StateFlee:
		if len(a.Path) > 0 || a.pendingPath {
			return
		}
		away := a.position
		if a.hasThreat {
			dir := a.position.Sub(a.threatPos).Normalized()
			if dir.LengthSq() == 0 {
				dir = world.Vec2{X: 1}
			}
			away = a.position.Add(dir.Scale(fleeDistance))
		} else {
			away = a.Home
		}
		e.requestPath(a, e.cfg.Bounds.Clamp(away), now)

	case behavior.StateInvestigate:
		last, ok := a.lastKnown[a.TargetID]
		if !ok || a.TargetID == "" {
			return
		}
		if a.position.DistanceTo(last) <= arrivedRadius && len(a.Path) == 0 {
			// Arrived with nothing found; forget the sighting so the next
			// decision falls back to idle.
			delete(a.lastKnown, a.TargetID)
			a.TargetID = ""
			return
		}
		if len(a.Path) == 0 && !a.pendingPath {
			e.requestPath(a, last, now)
		}

	case behavior.StateRetreat, behavior.StateGuard:
		if ctx.NearHome {
			a.clearPath()
			return
		}
		if len(a.Path) == 0 && !a.pendingPath {
			e.requestPath(a, a.Home, now)
		}

	case behavior.StateSupport:
		if !a.hasSupport {
			return
		}
		if e.needsRepath(a, a.supportPos) {
			e.requestPath(a, a.supportPos, now)
		}

	case behavior.StateDead:
		a.clearPath()
	}
}

// needsRepath reports whether a moving goal drifted far enough from the last
// requested goal to justify a fresh computation.
func (e *Engine) needsRepath(a *Agent, goal world.Vec2) bool {
	if a.pendingPath {
		return false
	}
	if len(a.Path) == 0 {
		return true
	}
	if !a.hasLastGoal {
		return true
	}
	return a.lastGoal.DistanceTo(goal) > repathDistance
}

// requestPath enqueues a computation unless the agent's cooldown is still
// running.
func (e *Engine) requestPath(a *Agent, goal world.Vec2, now float64) {
	if a.pendingPath || now < a.pathReadyAt {
		return
	}
	e.planner.Enqueue(nav.Request{
		AgentID:    a.ID,
		Goal:       goal,
		EnqueuedAt: time.Now(),
	})
	a.pendingPath = true
	a.pathReadyAt = now + e.cfg.PathCooldownSeconds
	a.lastGoal = goal
	a.hasLastGoal = true
}

// wanderGoal picks a patrol destination near the agent's home, clamped to the
// navigable bounds.
func (e *Engine) wanderGoal(a *Agent) world.Vec2 {
	offset := world.Vec2{
		X: (e.rng.Float64()*2 - 1) * patrolRadius,
		Y: (e.rng.Float64()*2 - 1) * patrolRadius,
	}
	return e.cfg.Bounds.Clamp(a.Home.Add(offset))
}
