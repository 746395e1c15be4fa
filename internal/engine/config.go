package engine

import (
	"fmt"

	"fieldmind/internal/nav"
	"fieldmind/internal/world"
)

// Defaults applied by DefaultConfig and by clamping.
const (
	defaultCellSize            = 100.0
	defaultMaxAgentUpdates     = 64
	defaultMaxPathfinds        = 10
	defaultFlowFieldResolution = 20.0
	defaultAvoidanceRadius     = 40.0
	defaultCacheCapacity       = 256
	defaultUpdateInterval      = 0.15
	defaultPathCooldown        = 0.5
)

// Config is the orchestrator's static configuration. Cell size and the two
// per-tick budgets are validated fail-fast at construction because every
// spatial and scheduling decision depends on them; the remaining numerics are
// clamped to safe defaults instead of rejected.
type Config struct {
	// Algorithm selects the active pathfinding strategy.
	Algorithm nav.Algorithm
	// Bounds is the navigable region, used by flow fields and wander goals.
	Bounds world.Rect
	// CellSize is the spatial index resolution. Must be positive.
	CellSize float64
	// MaxAgentUpdatesPerTick bounds state-machine evaluations per tick.
	// Must be positive.
	MaxAgentUpdatesPerTick int
	// MaxPathfindsPerTick bounds queue drains per tick. Must be positive.
	MaxPathfindsPerTick int
	// FlowFieldResolution is the flow-field cell size.
	FlowFieldResolution float64
	// AvoidanceRadius bounds the local-avoidance neighbor query.
	AvoidanceRadius float64
	// GroupBehaviorEnabled gates swarm (boids) blending globally.
	GroupBehaviorEnabled bool
	// CacheCapacity bounds the path and flow-field caches.
	CacheCapacity int
	// UpdateIntervalSeconds staggers per-agent decisions.
	UpdateIntervalSeconds float64
	// PathCooldownSeconds is the minimum spacing between one agent's path
	// requests.
	PathCooldownSeconds float64
	// Passable optionally reports grid-cell passability to the strategies.
	Passable func(col, row int) bool
	// Mesh is the optional navigation mesh for the navmesh strategy.
	Mesh *nav.Mesh
}

// DefaultConfig returns a runnable configuration for the given region.
func DefaultConfig(bounds world.Rect) Config {
	return Config{
		Algorithm:              nav.AlgorithmAStar,
		Bounds:                 bounds,
		CellSize:               defaultCellSize,
		MaxAgentUpdatesPerTick: defaultMaxAgentUpdates,
		MaxPathfindsPerTick:    defaultMaxPathfinds,
		FlowFieldResolution:    defaultFlowFieldResolution,
		AvoidanceRadius:        defaultAvoidanceRadius,
		GroupBehaviorEnabled:   true,
		CacheCapacity:          defaultCacheCapacity,
		UpdateIntervalSeconds:  defaultUpdateInterval,
		PathCooldownSeconds:    defaultPathCooldown,
	}
}

// validate rejects configuration that would invalidate every subsequent
// spatial or scheduling operation.
func (c Config) validate() error {
	if c.CellSize <= 0 {
		return fmt.Errorf("engine: cell size must be positive, got %v", c.CellSize)
	}
	if c.MaxAgentUpdatesPerTick <= 0 {
		return fmt.Errorf("engine: max agent updates per tick must be positive, got %d", c.MaxAgentUpdatesPerTick)
	}
	if c.MaxPathfindsPerTick <= 0 {
		return fmt.Errorf("engine: max pathfinds per tick must be positive, got %d", c.MaxPathfindsPerTick)
	}
	return nil
}

// clamped fills the remaining numerics with safe defaults.
func (c Config) clamped() Config {
	if c.FlowFieldResolution <= 0 {
		c.FlowFieldResolution = defaultFlowFieldResolution
	}
	if c.AvoidanceRadius <= 0 {
		c.AvoidanceRadius = defaultAvoidanceRadius
	}
	if c.CacheCapacity <= 0 {
		c.CacheCapacity = defaultCacheCapacity
	}
	if c.UpdateIntervalSeconds <= 0 {
		c.UpdateIntervalSeconds = defaultUpdateInterval
	}
	if c.PathCooldownSeconds < 0 {
		c.PathCooldownSeconds = defaultPathCooldown
	}
	if c.Bounds.Width() <= 0 || c.Bounds.Height() <= 0 {
		c.Bounds = world.Rect{MinX: -1e6, MinY: -1e6, MaxX: 1e6, MaxY: 1e6}
	}
	return c
}
