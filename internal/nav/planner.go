package nav

import (
	"fmt"
	"time"

	"fieldmind/internal/world"
)

// Request is one queued pathfinding computation. Requests are never computed
// synchronously on demand; the orchestrator drains them under a per-tick
// budget, strictly FIFO.
type Request struct {
	AgentID    world.ID
	Goal       world.Vec2
	EnqueuedAt time.Time
}

// PlannerConfig selects the active strategy and sizes the shared caches.
type PlannerConfig struct {
	Algorithm     Algorithm
	Bounds        world.Rect
	Resolution    float64
	CacheCapacity int
	Passable      func(col, row int) bool
	Mesh          *Mesh
}

// Planner owns the active strategy, the path and flow-field caches, and the
// FIFO request queue. It is mutated only by the orchestrator during its
// single-threaded tick.
type Planner struct {
	strategy Strategy
	flow     *FlowField
	quantum  float64

	paths  *PathCache
	fields *FieldCache
	queue  []Request

	invocations uint64
	cacheHits   uint64
}

// NewPlanner builds a planner for the configured algorithm. Unknown algorithm
// names are rejected; an unset name defaults to A*.
func NewPlanner(cfg PlannerConfig) (*Planner, error) {
	resolution := cfg.Resolution
	if resolution <= 0 {
		resolution = defaultAStarCellSize
	}
	p := &Planner{
		quantum: resolution,
		paths:   NewPathCache(cfg.CacheCapacity),
		fields:  NewFieldCache(cfg.CacheCapacity),
	}
	switch cfg.Algorithm {
	case AlgorithmDirect:
		p.strategy = NewDirect()
	case AlgorithmAStar, "":
		p.strategy = NewAStar(cfg.Passable)
	case AlgorithmFlowField:
		p.flow = NewFlowField(cfg.Bounds, resolution, cfg.Passable)
		p.strategy = p.flow
	case AlgorithmDijkstra:
		p.strategy = NewDijkstra(cfg.Passable)
	case AlgorithmNavMesh:
		p.strategy = NewNavMesh(cfg.Mesh)
	default:
		return nil, fmt.Errorf("nav: unknown algorithm %q", cfg.Algorithm)
	}
	return p, nil
}

// Algorithm returns the active strategy name.
func (p *Planner) Algorithm() Algorithm {
	if p == nil || p.strategy == nil {
		return ""
	}
	return p.strategy.Name()
}

// Enqueue appends a request to the FIFO queue.
func (p *Planner) Enqueue(req Request) {
	if p == nil || req.AgentID == "" {
		return
	}
	if req.EnqueuedAt.IsZero() {
		req.EnqueuedAt = time.Now()
	}
	p.queue = append(p.queue, req)
}

// QueueLen returns the number of pending requests.
func (p *Planner) QueueLen() int {
	if p == nil {
		return 0
	}
	return len(p.queue)
}

// Invalidate drops every pending request for an agent, typically because the
// owning entity was destroyed.
func (p *Planner) Invalidate(id world.ID) {
	if p == nil || id == "" {
		return
	}
	kept := p.queue[:0]
	for _, req := range p.queue {
		if req.AgentID != id {
			kept = append(kept, req)
		}
	}
	p.queue = kept
}

// Drain serves up to budget requests in FIFO order. start resolves an agent
// id to its current position; ok=false means the agent no longer exists and
// the request is silently skipped without consuming budget. deliver hands the
// computed path back to the agent. Requests beyond budget stay queued for the
// next tick. Returns the number of paths computed or served from cache.
func (p *Planner) Drain(budget int, start func(world.ID) (world.Vec2, bool), deliver func(world.ID, []world.Vec2)) int {
	if p == nil || budget <= 0 || start == nil {
		return 0
	}
	served := 0
	consumed := 0
	for consumed < len(p.queue) {
		if served >= budget {
			break
		}
		req := p.queue[consumed]
		consumed++
		from, ok := start(req.AgentID)
		if !ok {
			continue
		}
		path := p.ComputePath(from, req.Goal)
		served++
		if deliver != nil {
			deliver(req.AgentID, path)
		}
	}
	p.queue = append(p.queue[:0], p.queue[consumed:]...)
	return served
}

// ComputePath returns a waypoint path from start to goal, consulting the
// path cache first. Identical quantized (start, goal) pairs return the same
// waypoint sequence without re-invoking the strategy.
func (p *Planner) ComputePath(start, goal world.Vec2) []world.Vec2 {
	if p == nil || p.strategy == nil {
		return nil
	}
	key := p.keyFor(start, goal)
	if cached, ok := p.paths.Get(key); ok {
		p.cacheHits++
		return cached
	}
	path := p.computeUncached(start, goal)
	if len(path) == 0 {
		path = NewDirect().FindPath(start, goal)
	}
	p.paths.Put(key, path)
	return path
}

func (p *Planner) computeUncached(start, goal world.Vec2) []world.Vec2 {
	if p.flow != nil {
		col, row := p.flow.GoalCell(goal)
		field, ok := p.fields.Get(col, row)
		if !ok {
			p.invocations++
			field = p.flow.Build(goal)
			if field == nil {
				return NewDirect().FindPath(start, goal)
			}
			p.fields.Put(col, row, field)
		}
		return field.Walk(start, goal)
	}
	p.invocations++
	return p.strategy.FindPath(start, goal)
}

// InvalidateField regenerates the cached field whose shared goal has moved
// materially (its quantized cell changed).
func (p *Planner) InvalidateField(goal world.Vec2) {
	if p == nil || p.flow == nil {
		return
	}
	col, row := p.flow.GoalCell(goal)
	p.fields.Invalidate(col, row)
}

// Invocations returns the number of strategy computations performed.
func (p *Planner) Invocations() uint64 {
	if p == nil {
		return 0
	}
	return p.invocations
}

// CacheHits returns the number of path-cache hits.
func (p *Planner) CacheHits() uint64 {
	if p == nil {
		return 0
	}
	return p.cacheHits
}

// CacheSizes returns the path-cache and field-cache entry counts.
func (p *Planner) CacheSizes() (paths, fields int) {
	return p.paths.Len(), p.fields.Len()
}

func (p *Planner) keyFor(start, goal world.Vec2) pathKey {
	return pathKey{
		StartCol: quantize(start.X, p.quantum),
		StartRow: quantize(start.Y, p.quantum),
		GoalCol:  quantize(goal.X, p.quantum),
		GoalRow:  quantize(goal.Y, p.quantum),
	}
}
