package nav

import (
	"math"

	"fieldmind/internal/world"
)

const unreachableCost = math.MaxFloat64

// Field is a precomputed direction/cost grid toward one goal cell. Many
// agents sharing a goal read the same field instead of each running a search.
type Field struct {
	cols     int
	rows     int
	cellSize float64
	origin   world.Vec2
	goal     gridPoint
	cost     []float64
	dirX     []float64
	dirY     []float64
}

// FlowField builds and walks Fields over a bounded region. Bounds anchor the
// grid; positions outside bounds fall back to Direct.
type FlowField struct {
	Bounds     world.Rect
	Resolution float64
	Passable   func(col, row int) bool

	fallback *Direct
}

// NewFlowField returns a flow-field strategy with the given region and cell
// resolution.
func NewFlowField(bounds world.Rect, resolution float64, passable func(col, row int) bool) *FlowField {
	if resolution <= 0 {
		resolution = defaultAStarCellSize
	}
	return &FlowField{
		Bounds:     bounds,
		Resolution: resolution,
		Passable:   passable,
		fallback:   NewDirect(),
	}
}

// Name implements Strategy.
func (f *FlowField) Name() Algorithm { return AlgorithmFlowField }

// FindPath implements Strategy by building (or implicitly reusing via the
// Planner's field cache) a field for the goal and walking steepest descent
// from start.
func (f *FlowField) FindPath(start, goal world.Vec2) []world.Vec2 {
	if f == nil {
		return nil
	}
	field := f.Build(goal)
	if field == nil {
		return f.direct().FindPath(start, goal)
	}
	path := field.Walk(start, goal)
	if len(path) == 0 {
		return f.direct().FindPath(start, goal)
	}
	return path
}

// GoalCell quantizes a goal position to the field cache key.
func (f *FlowField) GoalCell(goal world.Vec2) (int, int) {
	p := f.cellFor(goal)
	return p.Col, p.Row
}

// Build runs a breadth-first cost wave outward from the goal cell (cost 0)
// until every reachable cell holds its best cost, then points each cell at
// its lowest-cost neighbor. Returns nil when the goal lies outside bounds.
func (f *FlowField) Build(goal world.Vec2) *Field {
	if f == nil || !f.Bounds.Contains(goal) {
		return nil
	}
	cols := int(math.Ceil(f.Bounds.Width() / f.Resolution))
	rows := int(math.Ceil(f.Bounds.Height() / f.Resolution))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	field := &Field{
		cols:     cols,
		rows:     rows,
		cellSize: f.Resolution,
		origin:   world.Vec2{X: f.Bounds.MinX, Y: f.Bounds.MinY},
		goal:     f.cellFor(goal),
		cost:     make([]float64, cols*rows),
		dirX:     make([]float64, cols*rows),
		dirY:     make([]float64, cols*rows),
	}
	for i := range field.cost {
		field.cost[i] = unreachableCost
	}

	goalIdx := field.index(field.goal.Col, field.goal.Row)
	if goalIdx < 0 {
		return nil
	}
	field.cost[goalIdx] = 0

	// Cost wave. The frontier is a plain FIFO; revisits relax costs the way
	// the cardinal/diagonal weights require.
	queue := make([]int, 0, cols*rows)
	queue = append(queue, goalIdx)
	for head := 0; head < len(queue); head++ {
		currentIdx := queue[head]
		col := currentIdx % cols
		row := currentIdx / cols
		currentCost := field.cost[currentIdx]
		for _, delta := range gridNeighborOffsets {
			nc := col + delta.col
			nr := row + delta.row
			nextIdx := field.index(nc, nr)
			if nextIdx < 0 {
				continue
			}
			if f.Passable != nil && !f.Passable(nc, nr) {
				continue
			}
			next := currentCost + delta.cost
			if next < field.cost[nextIdx] {
				field.cost[nextIdx] = next
				queue = append(queue, nextIdx)
			}
		}
	}

	// Point every reachable cell at its cheapest neighbor.
	for idx := range field.cost {
		if field.cost[idx] == unreachableCost {
			continue
		}
		col := idx % cols
		row := idx / cols
		best := field.cost[idx]
		bestDX, bestDY := 0.0, 0.0
		for _, delta := range gridNeighborOffsets {
			nextIdx := field.index(col+delta.col, row+delta.row)
			if nextIdx < 0 {
				continue
			}
			if field.cost[nextIdx] < best {
				best = field.cost[nextIdx]
				bestDX = float64(delta.col)
				bestDY = float64(delta.row)
			}
		}
		length := math.Hypot(bestDX, bestDY)
		if length > 0 {
			field.dirX[idx] = bestDX / length
			field.dirY[idx] = bestDY / length
		}
	}
	return field
}

func (f *FlowField) cellFor(p world.Vec2) gridPoint {
	return gridPoint{
		Col: quantize(p.X-f.Bounds.MinX, f.Resolution),
		Row: quantize(p.Y-f.Bounds.MinY, f.Resolution),
	}
}

func (f *FlowField) direct() *Direct {
	if f != nil && f.fallback != nil {
		return f.fallback
	}
	return NewDirect()
}

// Walk follows steepest-descent directions cell by cell from start until the
// cursor is within one step of the goal, then appends the goal itself. A start
// outside the field returns nil; callers fall back to Direct.
func (field *Field) Walk(start, goal world.Vec2) []world.Vec2 {
	if field == nil {
		return nil
	}
	current := field.cellForWorld(start)
	if field.index(current.Col, current.Row) < 0 {
		return nil
	}
	path := make([]world.Vec2, 0, 16)
	// Bounded by the cell count so degenerate fields cannot loop forever.
	for steps := 0; steps < field.cols*field.rows; steps++ {
		if withinOneCell(current, field.goal) {
			break
		}
		idx := field.index(current.Col, current.Row)
		if idx < 0 || field.cost[idx] == unreachableCost {
			break
		}
		dx, dy := field.dirX[idx], field.dirY[idx]
		if dx == 0 && dy == 0 {
			break
		}
		next := gridPoint{
			Col: current.Col + sign(dx),
			Row: current.Row + sign(dy),
		}
		if next == current {
			break
		}
		current = next
		path = append(path, field.worldForCell(current))
	}
	if len(path) == 0 || path[len(path)-1].DistanceTo(goal) > field.cellSize {
		path = append(path, goal)
	} else {
		path[len(path)-1] = goal
	}
	return path
}

// Cost returns the propagation cost at a world position, or unreachableCost
// when the position is outside the field or cut off.
func (field *Field) Cost(p world.Vec2) float64 {
	idx := field.index(field.cellForWorld(p).Col, field.cellForWorld(p).Row)
	if idx < 0 {
		return unreachableCost
	}
	return field.cost[idx]
}

// CostAt returns the propagation cost at a cell coordinate.
func (field *Field) CostAt(col, row int) float64 {
	idx := field.index(col, row)
	if idx < 0 {
		return unreachableCost
	}
	return field.cost[idx]
}

// Goal returns the field's goal cell.
func (field *Field) Goal() (int, int) {
	return field.goal.Col, field.goal.Row
}

// Size returns the field dimensions in cells.
func (field *Field) Size() (cols, rows int) {
	return field.cols, field.rows
}

func (field *Field) index(col, row int) int {
	if col < 0 || row < 0 || col >= field.cols || row >= field.rows {
		return -1
	}
	return row*field.cols + col
}

func (field *Field) cellForWorld(p world.Vec2) gridPoint {
	return gridPoint{
		Col: quantize(p.X-field.origin.X, field.cellSize),
		Row: quantize(p.Y-field.origin.Y, field.cellSize),
	}
}

func (field *Field) worldForCell(p gridPoint) world.Vec2 {
	return world.Vec2{
		X: field.origin.X + (float64(p.Col)+0.5)*field.cellSize,
		Y: field.origin.Y + (float64(p.Row)+0.5)*field.cellSize,
	}
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
