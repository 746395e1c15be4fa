package nav

import (
	"math"
	"testing"

	"fieldmind/internal/world"
)

func testBounds() world.Rect {
	return world.Rect{MinX: 0, MinY: 0, MaxX: 400, MaxY: 400}
}

func TestFlowFieldGoalCellCostZero(t *testing.T) {
	ff := NewFlowField(testBounds(), 20, nil)
	goal := world.Vec2{X: 210, Y: 210}
	field := ff.Build(goal)
	if field == nil {
		t.Fatalf("expected field")
	}
	goalCol, goalRow := field.Goal()
	if cost := field.CostAt(goalCol, goalRow); cost != 0 {
		t.Fatalf("expected goal cost 0, got %v", cost)
	}
}

func TestFlowFieldCardinalNeighborsCostOne(t *testing.T) {
	ff := NewFlowField(testBounds(), 20, nil)
	field := ff.Build(world.Vec2{X: 210, Y: 210})
	goalCol, goalRow := field.Goal()
	cardinals := [][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}
	for _, d := range cardinals {
		cost := field.CostAt(goalCol+d[0], goalRow+d[1])
		if cost != 1 {
			t.Fatalf("expected cardinal neighbor cost 1, got %v at %v", cost, d)
		}
	}
}

func TestFlowFieldAdjacentCostDelta(t *testing.T) {
	ff := NewFlowField(testBounds(), 20, nil)
	field := ff.Build(world.Vec2{X: 110, Y: 110})
	cols, rows := field.Size()
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			current := field.CostAt(col, row)
			if current == unreachableCost {
				continue
			}
			for _, delta := range gridNeighborOffsets {
				neighbor := field.CostAt(col+delta.col, row+delta.row)
				if neighbor == unreachableCost {
					continue
				}
				if diff := math.Abs(current - neighbor); diff > math.Sqrt2+1e-9 {
					t.Fatalf("cost delta %v exceeds diagonal weight between (%d,%d) and neighbor %+v",
						diff, col, row, delta)
				}
			}
		}
	}
}

func TestFlowFieldWalkReachesGoal(t *testing.T) {
	ff := NewFlowField(testBounds(), 20, nil)
	goal := world.Vec2{X: 350, Y: 350}
	field := ff.Build(goal)
	path := field.Walk(world.Vec2{X: 10, Y: 10}, goal)
	if len(path) == 0 {
		t.Fatalf("expected waypoints")
	}
	if path[len(path)-1] != goal {
		t.Fatalf("expected walk to end at goal, got %+v", path[len(path)-1])
	}
	// Costs along the walk must be non-increasing.
	prev := field.Cost(world.Vec2{X: 10, Y: 10})
	for _, wp := range path[:len(path)-1] {
		cost := field.Cost(wp)
		if cost > prev+1e-9 {
			t.Fatalf("walk climbed the cost field: %v -> %v at %+v", prev, cost, wp)
		}
		prev = cost
	}
}

func TestFlowFieldRespectsBlockedCells(t *testing.T) {
	// Block column 10 entirely; left half becomes unreachable from a goal on
	// the right.
	passable := func(col, row int) bool { return col != 10 }
	ff := NewFlowField(testBounds(), 20, passable)
	field := ff.Build(world.Vec2{X: 390, Y: 200})
	if field == nil {
		t.Fatalf("expected field")
	}
	if cost := field.CostAt(2, 5); cost != unreachableCost {
		t.Fatalf("expected cells behind the wall to stay unreachable, got %v", cost)
	}
}

func TestFlowFieldStartOutsideBounds(t *testing.T) {
	ff := NewFlowField(testBounds(), 20, nil)
	start := world.Vec2{X: -500, Y: -500}
	goal := world.Vec2{X: 210, Y: 210}

	field := ff.Build(goal)
	if field == nil {
		t.Fatalf("expected field for in-bounds goal")
	}
	if path := field.Walk(start, goal); path != nil {
		t.Fatalf("walk from outside the field should return nil, got %v", path)
	}

	got := ff.FindPath(start, goal)
	want := NewDirect().FindPath(start, goal)
	if len(got) != len(want) {
		t.Fatalf("expected direct fallback (%d waypoints), got %d", len(want), len(got))
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("waypoint %d: got %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestFlowFieldGoalOutsideBounds(t *testing.T) {
	ff := NewFlowField(testBounds(), 20, nil)
	if field := ff.Build(world.Vec2{X: 5000, Y: 5000}); field != nil {
		t.Fatalf("expected nil field for out-of-bounds goal")
	}
	// FindPath still produces a route via the Direct fallback.
	path := ff.FindPath(world.Vec2{X: 10, Y: 10}, world.Vec2{X: 5000, Y: 5000})
	if len(path) == 0 {
		t.Fatalf("expected direct fallback path")
	}
}
