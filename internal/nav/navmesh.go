package nav

import "fieldmind/internal/world"

// Polygon is one convex region of a navigation mesh.
type Polygon struct {
	Vertices  []world.Vec2
	Neighbors []int
}

// Center returns the vertex centroid.
func (p Polygon) Center() world.Vec2 {
	if len(p.Vertices) == 0 {
		return world.Vec2{}
	}
	var sum world.Vec2
	for _, v := range p.Vertices {
		sum = sum.Add(v)
	}
	return sum.Scale(1.0 / float64(len(p.Vertices)))
}

// Contains reports whether the point lies inside the polygon (ray cast).
func (p Polygon) Contains(point world.Vec2) bool {
	inside := false
	n := len(p.Vertices)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		vi, vj := p.Vertices[i], p.Vertices[j]
		if (vi.Y > point.Y) != (vj.Y > point.Y) &&
			point.X < (vj.X-vi.X)*(point.Y-vi.Y)/(vj.Y-vi.Y)+vi.X {
			inside = !inside
		}
	}
	return inside
}

// Mesh is a set of polygons with adjacency links.
type Mesh struct {
	Polygons []Polygon
}

// NavMesh routes across mesh polygon adjacency. True polygon navigation
// (portal funneling, edge midpoints) is out of scope; polygon centers stand
// in as waypoints. With no mesh loaded every query falls back to Direct.
type NavMesh struct {
	mesh     *Mesh
	fallback *Direct
}

// NewNavMesh returns a mesh strategy. The mesh may be nil.
func NewNavMesh(mesh *Mesh) *NavMesh {
	return &NavMesh{mesh: mesh, fallback: NewDirect()}
}

// Name implements Strategy.
func (n *NavMesh) Name() Algorithm { return AlgorithmNavMesh }

// LoadMesh replaces the active mesh.
func (n *NavMesh) LoadMesh(mesh *Mesh) {
	if n == nil {
		return
	}
	n.mesh = mesh
}

// FindPath implements Strategy.
func (n *NavMesh) FindPath(start, goal world.Vec2) []world.Vec2 {
	if n == nil {
		return nil
	}
	if n.mesh == nil || len(n.mesh.Polygons) == 0 {
		return n.direct().FindPath(start, goal)
	}
	startPoly := n.locate(start)
	goalPoly := n.locate(goal)
	if startPoly < 0 || goalPoly < 0 {
		return n.direct().FindPath(start, goal)
	}
	if startPoly == goalPoly {
		return []world.Vec2{goal}
	}
	chain := n.polygonChain(startPoly, goalPoly)
	if chain == nil {
		return n.direct().FindPath(start, goal)
	}
	path := make([]world.Vec2, 0, len(chain)+1)
	for _, idx := range chain[1:] {
		path = append(path, n.mesh.Polygons[idx].Center())
	}
	path = append(path, goal)
	return path
}

func (n *NavMesh) locate(point world.Vec2) int {
	for i, poly := range n.mesh.Polygons {
		if poly.Contains(point) {
			return i
		}
	}
	return -1
}

// polygonChain breadth-first searches the adjacency graph and returns the
// polygon index sequence from start to goal inclusive, or nil when the goal
// is unreachable.
func (n *NavMesh) polygonChain(start, goal int) []int {
	parent := map[int]int{start: -1}
	queue := []int{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == goal {
			chain := []int{}
			for at := goal; at != -1; at = parent[at] {
				chain = append(chain, at)
			}
			for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
				chain[i], chain[j] = chain[j], chain[i]
			}
			return chain
		}
		for _, next := range n.mesh.Polygons[current].Neighbors {
			if next < 0 || next >= len(n.mesh.Polygons) {
				continue
			}
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = current
			queue = append(queue, next)
		}
	}
	return nil
}

func (n *NavMesh) direct() *Direct {
	if n != nil && n.fallback != nil {
		return n.fallback
	}
	return NewDirect()
}
