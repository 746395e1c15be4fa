// Package spatial provides a uniform-grid index over entity positions for
// radius and k-nearest proximity queries. The index stores only ids and
// derived positions; entity lifetime stays with the surrounding world.
package spatial

import (
	"fmt"
	"math"
	"sort"

	"fieldmind/internal/world"
)

type cellKey struct {
	X int
	Y int
}

type entry struct {
	position world.Vec2
	radius   float64
	cells    []cellKey
}

// Index buckets entity bounding circles into fixed-size grid cells. Insert,
// update and remove touch only the cells the circle overlaps, so cost scales
// with entity footprint rather than population.
type Index struct {
	cellSize    float64
	invCellSize float64
	cells       map[cellKey][]world.ID
	entries     map[world.ID]*entry
}

// NewIndex builds an empty index. A non-positive cell size would corrupt
// every subsequent bucket computation, so it is rejected outright.
func NewIndex(cellSize float64) (*Index, error) {
	if cellSize <= 0 {
		return nil, fmt.Errorf("spatial: cell size must be positive, got %v", cellSize)
	}
	return &Index{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cells:       make(map[cellKey][]world.ID),
		entries:     make(map[world.ID]*entry),
	}, nil
}

// CellSize returns the configured grid resolution.
func (idx *Index) CellSize() float64 {
	if idx == nil {
		return 0
	}
	return idx.cellSize
}

// Count returns the number of tracked entities.
func (idx *Index) Count() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}

// Insert registers an entity's bounding circle. Inserting an id that already
// exists behaves like Update with a new radius.
func (idx *Index) Insert(id world.ID, position world.Vec2, radius float64) {
	if idx == nil || id == "" {
		return
	}
	if radius < 0 {
		radius = 0
	}
	if existing, ok := idx.entries[id]; ok {
		idx.removeFromCells(id, existing.cells)
	}
	cells := idx.cellsForCircle(position, radius)
	idx.entries[id] = &entry{position: position, radius: radius, cells: cells}
	for _, cell := range cells {
		idx.cells[cell] = append(idx.cells[cell], id)
	}
}

// Update moves an entity to a new position, keeping its registered radius.
// Unknown ids are ignored.
func (idx *Index) Update(id world.ID, position world.Vec2) {
	if idx == nil || id == "" {
		return
	}
	existing, ok := idx.entries[id]
	if !ok {
		return
	}
	idx.Insert(id, position, existing.radius)
}

// Remove drops an entity from the index. Unknown ids are ignored.
func (idx *Index) Remove(id world.ID) {
	if idx == nil || id == "" {
		return
	}
	existing, ok := idx.entries[id]
	if !ok {
		return
	}
	idx.removeFromCells(id, existing.cells)
	delete(idx.entries, id)
}

// Query returns the ids of every tracked entity whose bounding circle
// intersects the search circle. Results are ordered nearest first with ids
// breaking distance ties so repeated queries are deterministic.
func (idx *Index) Query(position world.Vec2, radius float64) []world.ID {
	if idx == nil {
		return nil
	}
	if radius < 0 {
		radius = 0
	}
	candidates := idx.collectCandidates(position, radius)
	matches := candidates[:0]
	for _, cand := range candidates {
		reach := radius + cand.radius
		if cand.distSq <= reach*reach {
			matches = append(matches, cand)
		}
	}
	return idsOf(matches)
}

// KNearest returns up to k entity ids ordered by distance from position. The
// search radius starts at one cell size and doubles until at least k
// candidates are found or maxRadius is reached.
func (idx *Index) KNearest(position world.Vec2, k int, maxRadius float64) []world.ID {
	if idx == nil || k <= 0 {
		return nil
	}
	if maxRadius <= 0 {
		return nil
	}
	radius := idx.cellSize
	if radius > maxRadius {
		radius = maxRadius
	}
	var candidates []candidate
	for {
		candidates = idx.collectCandidates(position, radius)
		if len(candidates) >= k || radius >= maxRadius {
			break
		}
		radius *= 2
		if radius > maxRadius {
			radius = maxRadius
		}
	}
	maxSq := maxRadius * maxRadius
	within := candidates[:0]
	for _, cand := range candidates {
		if cand.distSq <= maxSq {
			within = append(within, cand)
		}
	}
	if len(within) > k {
		within = within[:k]
	}
	return idsOf(within)
}

type candidate struct {
	id     world.ID
	radius float64
	distSq float64
}

// collectCandidates unions the buckets overlapped by the search circle and
// sorts them nearest first. Coarse bucketing admits false positives; callers
// apply their own exact filter.
func (idx *Index) collectCandidates(position world.Vec2, radius float64) []candidate {
	minX := idx.coordToCell(position.X - radius)
	maxX := idx.coordToCell(position.X + radius)
	minY := idx.coordToCell(position.Y - radius)
	maxY := idx.coordToCell(position.Y + radius)

	seen := make(map[world.ID]struct{})
	candidates := make([]candidate, 0, 16)
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			for _, id := range idx.cells[cellKey{X: x, Y: y}] {
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				ent := idx.entries[id]
				if ent == nil {
					continue
				}
				candidates = append(candidates, candidate{
					id:     id,
					radius: ent.radius,
					distSq: position.DistanceSqTo(ent.position),
				})
			}
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].distSq != candidates[j].distSq {
			return candidates[i].distSq < candidates[j].distSq
		}
		return candidates[i].id < candidates[j].id
	})
	return candidates
}

func (idx *Index) removeFromCells(id world.ID, cells []cellKey) {
	for _, cell := range cells {
		bucket := idx.cells[cell]
		for i := range bucket {
			if bucket[i] != id {
				continue
			}
			bucket[i] = bucket[len(bucket)-1]
			bucket = bucket[:len(bucket)-1]
			break
		}
		if len(bucket) == 0 {
			delete(idx.cells, cell)
		} else {
			idx.cells[cell] = bucket
		}
	}
}

func (idx *Index) cellsForCircle(position world.Vec2, radius float64) []cellKey {
	minX := idx.coordToCell(position.X - radius)
	maxX := idx.coordToCell(position.X + radius)
	minY := idx.coordToCell(position.Y - radius)
	maxY := idx.coordToCell(position.Y + radius)
	cells := make([]cellKey, 0, (maxX-minX+1)*(maxY-minY+1))
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			cells = append(cells, cellKey{X: x, Y: y})
		}
	}
	return cells
}

func (idx *Index) coordToCell(value float64) int {
	return int(math.Floor(value * idx.invCellSize))
}

func idsOf(candidates []candidate) []world.ID {
	ids := make([]world.ID, 0, len(candidates))
	for _, cand := range candidates {
		ids = append(ids, cand.id)
	}
	return ids
}
