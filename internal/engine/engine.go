// Package engine orchestrates NPC decisions and movement. One Update call per
// simulation tick runs, in order, a spatial refresh, a budgeted drain of the
// pathfinding queue, a staggered and budgeted decision pass, and a movement
// pass. Everything runs on the caller's goroutine; the engine holds no locks.
package engine

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"fieldmind/internal/behavior"
	"fieldmind/internal/nav"
	"fieldmind/internal/spatial"
	"fieldmind/internal/steering"
	"fieldmind/internal/telemetry"
	"fieldmind/internal/world"
	"fieldmind/logging"
)

const (
	defaultAgentRadius = 16.0
	statsEventInterval = 30
)

// TickContext carries the shared clock through one Update call.
type TickContext struct {
	Tick  uint64
	Delta float64
	Total float64
}

// Deps are the optional collaborators an Engine reports through. Nil fields
// are replaced with no-op implementations.
type Deps struct {
	Publisher logging.Publisher
	Logger    telemetry.Logger
	Metrics   telemetry.Metrics
	// ApplyVelocity pushes each agent's computed velocity back into the
	// owning world. Nil leaves velocities readable on the agent records only.
	ApplyVelocity func(id world.ID, velocity world.Vec2)
	// Rand seeds wander goal selection. Nil falls back to a time-seeded
	// source.
	Rand *rand.Rand
}

// Stats is the per-tick report exposed after each Update.
type Stats struct {
	Tick           uint64 `json:"tick"`
	AgentUpdates   int    `json:"agentUpdates"`
	Pathfinds      int    `json:"pathfinds"`
	PathCacheSize  int    `json:"pathCacheSize"`
	FieldCacheSize int    `json:"fieldCacheSize"`
	QueueDepth     int    `json:"queueDepth"`
	Agents         int    `json:"agents"`
	Invocations    uint64 `json:"invocations"`
	CacheHits      uint64 `json:"cacheHits"`
}

// Sample flattens the stats for the telemetry recorders.
func (s Stats) Sample(durationMillis, totalSeconds float64) telemetry.TickSample {
	return telemetry.TickSample{
		Tick:            s.Tick,
		AgentUpdates:    s.AgentUpdates,
		Pathfinds:       s.Pathfinds,
		PathCacheSize:   s.PathCacheSize,
		FieldCacheSize:  s.FieldCacheSize,
		QueueDepth:      s.QueueDepth,
		Agents:          s.Agents,
		DurationMillis:  durationMillis,
		TotalTimeSecond: totalSeconds,
	}
}

// Engine drives every registered agent. It is not safe for concurrent use;
// the surrounding world calls Update from its single tick goroutine.
type Engine struct {
	cfg      Config
	world    world.World
	index    *spatial.Index
	planner  *nav.Planner
	executor *steering.Executor

	publisher logging.Publisher
	logger    telemetry.Logger
	metrics   telemetry.Metrics
	applyVel  func(world.ID, world.Vec2)
	rng       *rand.Rand

	agents  map[world.ID]*Agent
	order   []world.ID
	indexed map[world.ID]struct{}

	tick  uint64
	stats Stats
}

// New validates the configuration and wires the spatial index, planner and
// movement executor. Construction is the only place configuration errors
// surface; after New succeeds every per-tick failure degrades silently.
func New(w world.World, cfg Config, deps Deps) (*Engine, error) {
	if w == nil {
		return nil, fmt.Errorf("engine: world must not be nil")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.clamped()

	index, err := spatial.NewIndex(cfg.CellSize)
	if err != nil {
		return nil, err
	}
	planner, err := nav.NewPlanner(nav.PlannerConfig{
		Algorithm:     cfg.Algorithm,
		Bounds:        cfg.Bounds,
		Resolution:    cfg.FlowFieldResolution,
		CacheCapacity: cfg.CacheCapacity,
		Passable:      cfg.Passable,
		Mesh:          cfg.Mesh,
	})
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:       cfg,
		world:     w,
		index:     index,
		planner:   planner,
		executor:  steering.NewExecutor(cfg.AvoidanceRadius),
		publisher: deps.Publisher,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
		applyVel:  deps.ApplyVelocity,
		rng:       deps.Rand,
		agents:    make(map[world.ID]*Agent),
		indexed:   make(map[world.ID]struct{}),
	}
	if e.publisher == nil {
		e.publisher = logging.NopPublisher()
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return e, nil
}

// AddAgent registers an entity for AI control. The entity itself stays owned
// by the world; the engine only tracks the derived record.
func (e *Engine) AddAgent(id world.ID, spec AgentSpec) error {
	if id == "" {
		return fmt.Errorf("engine: agent id must not be empty")
	}
	if _, ok := e.agents[id]; ok {
		return fmt.Errorf("engine: agent %s already registered", id)
	}
	a := newAgent(id, spec)
	e.agents[id] = a
	e.order = append(e.order, id)
	if ent, ok := e.world.Entity(id); ok {
		if pos, ok := ent.Position(); ok {
			a.position = pos
			e.indexEntity(id, pos)
		}
	}
	return nil
}

// RemoveAgent drops an agent, its spatial entry, and any queued path requests.
func (e *Engine) RemoveAgent(id world.ID) {
	if _, ok := e.agents[id]; !ok {
		return
	}
	delete(e.agents, id)
	for i, other := range e.order {
		if other == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	e.index.Remove(id)
	delete(e.indexed, id)
	e.planner.Invalidate(id)
}

// Agent returns the live record for an id, for inspection by callers and
// tests.
func (e *Engine) Agent(id world.ID) (*Agent, bool) {
	a, ok := e.agents[id]
	return a, ok
}

// AgentCount returns the number of registered agents.
func (e *Engine) AgentCount() int {
	return len(e.agents)
}

// Stats returns the report for the most recent tick.
func (e *Engine) Stats() Stats {
	return e.stats
}

// InvalidateField forces a rebuild of the cached flow field covering goal.
// Callers use it when a shared destination moves materially.
func (e *Engine) InvalidateField(goal world.Vec2) {
	e.planner.InvalidateField(goal)
}

// Update advances every agent by one tick.
func (e *Engine) Update(ctx context.Context, tc TickContext) Stats {
	e.tick = tc.Tick

	e.refresh(tc)
	pathfinds := e.drainPathfinding()
	updates := e.decide(ctx, tc)
	e.move(tc)

	pathLen, fieldLen := e.planner.CacheSizes()
	e.stats = Stats{
		Tick:           tc.Tick,
		AgentUpdates:   updates,
		Pathfinds:      pathfinds,
		PathCacheSize:  pathLen,
		FieldCacheSize: fieldLen,
		QueueDepth:     e.planner.QueueLen(),
		Agents:         len(e.agents),
		Invocations:    e.planner.Invocations(),
		CacheHits:      e.planner.CacheHits(),
	}
	e.report(ctx, tc)
	return e.stats
}

// refresh synchronizes the spatial index with every positioned entity in the
// world, then updates the agent records: agents whose entities vanished are
// dropped, the rest pull fresh positions and feed the damage clock.
func (e *Engine) refresh(tc TickContext) {
	seen := make(map[world.ID]struct{}, len(e.indexed))
	for _, ent := range e.world.EntitiesWith(world.ComponentPosition) {
		pos, ok := ent.Position()
		if !ok {
			continue
		}
		id := ent.ID()
		seen[id] = struct{}{}
		e.indexEntity(id, pos)
	}
	for id := range e.indexed {
		if _, ok := seen[id]; !ok {
			e.index.Remove(id)
			delete(e.indexed, id)
		}
	}

	for _, id := range append([]world.ID(nil), e.order...) {
		a := e.agents[id]
		if a == nil {
			continue
		}
		ent, ok := e.world.Entity(id)
		if !ok {
			e.RemoveAgent(id)
			continue
		}
		pos, ok := ent.Position()
		if !ok {
			// Entities without a position are skipped this tick; they keep
			// their record and resume when the component returns.
			a.active = false
			continue
		}
		a.active = true
		a.position = pos
		if h, ok := ent.Health(); ok {
			a.noteHealth(h.Fraction(), tc.Total)
		}
	}
}

func (e *Engine) indexEntity(id world.ID, pos world.Vec2) {
	if _, ok := e.indexed[id]; ok {
		e.index.Update(id, pos)
		return
	}
	e.index.Insert(id, pos, defaultAgentRadius)
	e.indexed[id] = struct{}{}
}

// drainPathfinding serves queued requests under the per-tick budget. Requests
// for agents that died or despawned are skipped without consuming budget.
func (e *Engine) drainPathfinding() int {
	return e.planner.Drain(e.cfg.MaxPathfindsPerTick,
		func(id world.ID) (world.Vec2, bool) {
			a, ok := e.agents[id]
			if !ok {
				return world.Vec2{}, false
			}
			if !a.active || a.State == behavior.StateDead {
				// The request is dropped, not deferred; let the agent ask
				// again once it is back.
				a.pendingPath = false
				return world.Vec2{}, false
			}
			return a.position, true
		},
		func(id world.ID, path []world.Vec2) {
			if a, ok := e.agents[id]; ok {
				a.setPath(path)
			}
		})
}

// decide runs the state machine for every agent whose stagger timer expired,
// capped by the per-tick update budget. Agents past the cap simply run next
// tick; their timers stay expired.
func (e *Engine) decide(ctx context.Context, tc TickContext) int {
	updates := 0
	for _, id := range e.order {
		a := e.agents[id]
		if a == nil || !a.active {
			continue
		}
		if a.State == behavior.StateDead {
			continue
		}
		if tc.Total < a.nextUpdateAt {
			continue
		}
		if updates >= e.cfg.MaxAgentUpdatesPerTick {
			break
		}
		updates++
		a.nextUpdateAt = tc.Total + e.cfg.UpdateIntervalSeconds

		ent, ok := e.world.Entity(id)
		if !ok {
			continue
		}
		bctx := e.buildContext(a, ent, tc.Total)

		next := behavior.Next(bctx, a.State, a.Personality)
		if next != a.State {
			e.transition(ctx, a, next, tc.Tick)
		}
		if bctx.Stuck {
			// A stuck agent abandons its path and repaths immediately.
			a.clearPath()
			a.pendingPath = false
			a.pathReadyAt = tc.Total
			a.stuckCounter = 0
		}
		e.act(a, bctx, tc.Total)
	}
	return updates
}

// transition applies a state change and notifies the world and the publisher.
func (e *Engine) transition(ctx context.Context, a *Agent, next behavior.State, tick uint64) {
	from := a.State
	a.State = next
	if next == behavior.StateDead {
		a.clearPath()
		a.pendingPath = false
		a.Velocity = world.Vec2{}
		e.planner.Invalidate(a.ID)
	}
	payload := world.StateChangedPayload{
		AgentID: a.ID,
		From:    string(from),
		To:      string(next),
		Tick:    tick,
	}
	e.world.Emit(world.EventStateChanged, payload)
	e.publisher.Publish(ctx, logging.Event{
		Type:     logging.EventTypeStateChanged,
		Tick:     tick,
		AgentID:  string(a.ID),
		Severity: logging.SeverityInfo,
		Payload:  payload,
	})
	if e.logger != nil {
		e.logger.Printf("agent %s %s -> %s", a.ID, from, next)
	}
}

// move runs the movement executor for every live agent and applies the
// resulting velocities.
func (e *Engine) move(tc TickContext) {
	for _, id := range e.order {
		a := e.agents[id]
		if a == nil || !a.active {
			continue
		}
		if a.State == behavior.StateDead {
			e.assignVelocity(a, world.Vec2{})
			continue
		}
		ent, ok := e.world.Entity(id)
		if !ok {
			continue
		}
		mv, ok := ent.Movement()
		if !ok {
			// No movement component means the decision layer still runs but
			// nothing to steer.
			continue
		}
		speed := mv.BaseSpeed * a.Personality.SpeedMultiplier
		neighbors := e.steeringNeighbors(a)
		swarm := a.Personality.Swarm && e.cfg.GroupBehaviorEnabled
		cmd := e.executor.Steer(a.position, a.Path, a.PathIndex, speed, neighbors, swarm)
		a.PathIndex = cmd.PathIndex
		if cmd.PathDone {
			a.clearPath()
		}
		e.assignVelocity(a, cmd.Velocity)
	}
}

func (e *Engine) assignVelocity(a *Agent, v world.Vec2) {
	a.Velocity = v
	if e.applyVel != nil {
		e.applyVel(a.ID, v)
	}
}

// steeringNeighbors snapshots nearby entities for avoidance and flocking.
// Agents contribute their freshly computed velocity; other entities fall back
// to their movement component.
func (e *Engine) steeringNeighbors(a *Agent) []steering.Neighbor {
	ids := e.index.Query(a.position, e.cfg.AvoidanceRadius)
	neighbors := make([]steering.Neighbor, 0, len(ids))
	for _, id := range ids {
		if id == a.ID {
			continue
		}
		if other, ok := e.agents[id]; ok {
			if other.active {
				neighbors = append(neighbors, steering.Neighbor{
					Position: other.position,
					Velocity: other.Velocity,
				})
			}
			continue
		}
		ent, ok := e.world.Entity(id)
		if !ok {
			continue
		}
		pos, ok := ent.Position()
		if !ok {
			continue
		}
		n := steering.Neighbor{Position: pos}
		if mv, ok := ent.Movement(); ok {
			n.Velocity = mv.Velocity
		}
		neighbors = append(neighbors, n)
	}
	return neighbors
}

// report publishes counters and, periodically, the aggregated pathfinding
// stats event.
func (e *Engine) report(ctx context.Context, tc TickContext) {
	if e.metrics != nil {
		e.metrics.Add("engine.agent_updates", uint64(e.stats.AgentUpdates))
		e.metrics.Add("engine.pathfinds", uint64(e.stats.Pathfinds))
		e.metrics.Store("engine.queue_depth", uint64(e.stats.QueueDepth))
		e.metrics.Store("engine.agents", uint64(e.stats.Agents))
	}
	if tc.Tick%statsEventInterval != 0 {
		return
	}
	e.world.Emit(world.EventPathfindingStats, e.stats)
	e.publisher.Publish(ctx, logging.Event{
		Type:     logging.EventTypePathfindingStats,
		Tick:     tc.Tick,
		Severity: logging.SeverityDebug,
		Payload:  e.stats,
	})
}
