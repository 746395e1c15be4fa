// Package nav turns start/goal pairs into waypoint sequences. Strategies are
// interchangeable behind one interface; the Planner owns the shared path and
// flow-field caches and the budgeted FIFO request queue.
package nav

import (
	"math"

	"fieldmind/internal/world"
)

// Algorithm names the available pathfinding strategies.
type Algorithm string

const (
	AlgorithmDirect    Algorithm = "direct"
	AlgorithmAStar     Algorithm = "astar"
	AlgorithmFlowField Algorithm = "flowfield"
	AlgorithmDijkstra  Algorithm = "dijkstra"
	AlgorithmNavMesh   Algorithm = "navmesh"
)

// Strategy computes a waypoint path from start to goal. A nil or empty result
// means the strategy could not produce a route; callers fall back to Direct.
type Strategy interface {
	Name() Algorithm
	FindPath(start, goal world.Vec2) []world.Vec2
}

type gridPoint struct {
	Col int
	Row int
}

type gridNeighbor struct {
	col      int
	row      int
	cost     float64
	diagonal bool
}

// Eight-directional expansion with sqrt2-weighted diagonals, cardinals first.
var gridNeighborOffsets = [...]gridNeighbor{
	{col: 0, row: -1, cost: 1},
	{col: 1, row: 0, cost: 1},
	{col: 0, row: 1, cost: 1},
	{col: -1, row: 0, cost: 1},
	{col: 1, row: -1, cost: math.Sqrt2, diagonal: true},
	{col: 1, row: 1, cost: math.Sqrt2, diagonal: true},
	{col: -1, row: 1, cost: math.Sqrt2, diagonal: true},
	{col: -1, row: -1, cost: math.Sqrt2, diagonal: true},
}

func quantize(value, cellSize float64) int {
	return int(math.Floor(value / cellSize))
}

func pointForCell(col, row int, cellSize float64) world.Vec2 {
	return world.Vec2{
		X: (float64(col) + 0.5) * cellSize,
		Y: (float64(row) + 0.5) * cellSize,
	}
}

func cellForPoint(p world.Vec2, cellSize float64) gridPoint {
	return gridPoint{Col: quantize(p.X, cellSize), Row: quantize(p.Y, cellSize)}
}
