package nav

import "fieldmind/internal/world"

// defaultDirectSpacing is the approximate distance between interpolated
// waypoints.
const defaultDirectSpacing = 50.0

// Direct linearly interpolates between start and goal, ignoring obstacles.
// It doubles as the universal fallback for every other strategy.
type Direct struct {
	Spacing float64
}

// NewDirect returns a Direct strategy with the standard waypoint spacing.
func NewDirect() *Direct {
	return &Direct{Spacing: defaultDirectSpacing}
}

// Name implements Strategy.
func (d *Direct) Name() Algorithm { return AlgorithmDirect }

// FindPath implements Strategy. The result always ends exactly at goal.
func (d *Direct) FindPath(start, goal world.Vec2) []world.Vec2 {
	spacing := defaultDirectSpacing
	if d != nil && d.Spacing > 0 {
		spacing = d.Spacing
	}
	distance := start.DistanceTo(goal)
	if distance == 0 {
		return []world.Vec2{goal}
	}
	segments := int(distance / spacing)
	path := make([]world.Vec2, 0, segments+1)
	for i := 1; i <= segments; i++ {
		t := float64(i) * spacing / distance
		path = append(path, world.Vec2{
			X: start.X + (goal.X-start.X)*t,
			Y: start.Y + (goal.Y-start.Y)*t,
		})
	}
	last := goal
	if len(path) == 0 || path[len(path)-1].DistanceTo(last) > 1e-9 {
		path = append(path, last)
	}
	return path
}
