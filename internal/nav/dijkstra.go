package nav

import "fieldmind/internal/world"

// Dijkstra delegates to the A* search with a zero heuristic, making the
// expansion order uniform-cost. Within the same grid quantization the result
// is a guaranteed shortest path rather than a distinct implementation.
type Dijkstra struct {
	search *AStar
}

// NewDijkstra returns a uniform-cost strategy over the same implicit grid as
// A*.
func NewDijkstra(passable func(col, row int) bool) *Dijkstra {
	return &Dijkstra{search: NewAStar(passable)}
}

// Name implements Strategy.
func (d *Dijkstra) Name() Algorithm { return AlgorithmDijkstra }

// FindPath implements Strategy.
func (d *Dijkstra) FindPath(start, goal world.Vec2) []world.Vec2 {
	if d == nil || d.search == nil {
		return nil
	}
	return d.search.findPath(start, goal, func(_, _ gridPoint) float64 { return 0 })
}
