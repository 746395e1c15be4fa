package nav

import (
	"container/heap"
	"math"

	"fieldmind/internal/world"
)

const (
	defaultAStarCellSize = 20.0
	defaultAStarMaxNodes = 2048
)

// AStar searches an implicit grid quantized at CellSize. Passable reports
// whether a cell may be entered; a nil hook treats every cell as open. The
// search gives up and falls back to Direct once the closed set exceeds
// MaxNodes.
type AStar struct {
	CellSize float64
	MaxNodes int
	Passable func(col, row int) bool

	fallback *Direct
}

// NewAStar returns an A* strategy with the standard grid resolution and node
// budget.
func NewAStar(passable func(col, row int) bool) *AStar {
	return &AStar{
		CellSize: defaultAStarCellSize,
		MaxNodes: defaultAStarMaxNodes,
		Passable: passable,
		fallback: NewDirect(),
	}
}

// Name implements Strategy.
func (a *AStar) Name() Algorithm { return AlgorithmAStar }

// FindPath implements Strategy.
func (a *AStar) FindPath(start, goal world.Vec2) []world.Vec2 {
	return a.findPath(start, goal, a.heuristic)
}

// findPath runs the shared search with a pluggable heuristic so the Dijkstra
// strategy can reuse it with h=0.
func (a *AStar) findPath(start, goal world.Vec2, h func(from, to gridPoint) float64) []world.Vec2 {
	if a == nil {
		return nil
	}
	cellSize := a.CellSize
	if cellSize <= 0 {
		cellSize = defaultAStarCellSize
	}
	maxNodes := a.MaxNodes
	if maxNodes <= 0 {
		maxNodes = defaultAStarMaxNodes
	}

	startCell := cellForPoint(start, cellSize)
	goalCell := cellForPoint(goal, cellSize)

	open := &nodeQueue{}
	heap.Init(open)
	heap.Push(open, &searchNode{point: startCell, f: h(startCell, goalCell)})
	gScore := map[gridPoint]float64{startCell: 0}
	closed := make(map[gridPoint]struct{})

	for open.Len() > 0 {
		current := heap.Pop(open).(*searchNode)
		if _, seen := closed[current.point]; seen {
			continue
		}
		closed[current.point] = struct{}{}
		if len(closed) > maxNodes {
			return a.direct().FindPath(start, goal)
		}
		if withinOneCell(current.point, goalCell) {
			return a.reconstruct(current, goal, cellSize)
		}

		for _, delta := range gridNeighborOffsets {
			next := gridPoint{Col: current.point.Col + delta.col, Row: current.point.Row + delta.row}
			if !a.passable(next) {
				continue
			}
			if delta.diagonal && !a.canCutCorner(current.point, delta) {
				continue
			}
			if _, seen := closed[next]; seen {
				continue
			}
			tentative := current.g + delta.cost
			if prev, ok := gScore[next]; ok && tentative >= prev {
				continue
			}
			gScore[next] = tentative
			heap.Push(open, &searchNode{
				point:  next,
				g:      tentative,
				f:      tentative + h(next, goalCell),
				parent: current,
			})
		}
	}
	return a.direct().FindPath(start, goal)
}

// reconstruct walks parent links from the reached node back to the start and
// reverses the result into world-space waypoints ending exactly at goal.
func (a *AStar) reconstruct(end *searchNode, goal world.Vec2, cellSize float64) []world.Vec2 {
	cells := make([]gridPoint, 0, 8)
	for node := end; node != nil; node = node.parent {
		cells = append(cells, node.point)
	}
	for i, j := 0, len(cells)-1; i < j; i, j = i+1, j-1 {
		cells[i], cells[j] = cells[j], cells[i]
	}
	path := make([]world.Vec2, 0, len(cells))
	for _, cell := range cells {
		path = append(path, pointForCell(cell.Col, cell.Row, cellSize))
	}
	if len(path) == 0 {
		return []world.Vec2{goal}
	}
	if path[len(path)-1].DistanceTo(goal) > cellSize {
		path = append(path, goal)
	} else {
		path[len(path)-1] = goal
	}
	return path
}

func (a *AStar) passable(p gridPoint) bool {
	if a == nil || a.Passable == nil {
		return true
	}
	return a.Passable(p.Col, p.Row)
}

// canCutCorner forbids diagonal steps whose two adjacent cardinal cells are
// not both passable.
func (a *AStar) canCutCorner(from gridPoint, delta gridNeighbor) bool {
	if a == nil || a.Passable == nil {
		return true
	}
	if !a.Passable(from.Col+delta.col, from.Row) {
		return false
	}
	if !a.Passable(from.Col, from.Row+delta.row) {
		return false
	}
	return true
}

// heuristic is the octile distance in cell units.
func (a *AStar) heuristic(from, to gridPoint) float64 {
	dx := math.Abs(float64(from.Col - to.Col))
	dy := math.Abs(float64(from.Row - to.Row))
	if dx > dy {
		return dx + (math.Sqrt2-1)*dy
	}
	return dy + (math.Sqrt2-1)*dx
}

func (a *AStar) direct() *Direct {
	if a != nil && a.fallback != nil {
		return a.fallback
	}
	return NewDirect()
}

func withinOneCell(p, goal gridPoint) bool {
	dc := p.Col - goal.Col
	dr := p.Row - goal.Row
	return dc >= -1 && dc <= 1 && dr >= -1 && dr <= 1
}

type searchNode struct {
	point  gridPoint
	g      float64
	f      float64
	index  int
	parent *searchNode
}

type nodeQueue []*searchNode

func (q nodeQueue) Len() int { return len(q) }

func (q nodeQueue) Less(i, j int) bool { return q[i].f < q[j].f }

func (q nodeQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *nodeQueue) Push(x any) {
	node := x.(*searchNode)
	node.index = len(*q)
	*q = append(*q, node)
}

func (q *nodeQueue) Pop() any {
	old := *q
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.index = -1
	*q = old[:n-1]
	return node
}
