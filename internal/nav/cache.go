package nav

import (
	"time"

	"fieldmind/internal/world"
)

const defaultCacheCapacity = 256

// pathKey quantizes a (start, goal) pair onto the planner grid.
type pathKey struct {
	StartCol int
	StartRow int
	GoalCol  int
	GoalRow  int
}

type pathEntry struct {
	waypoints []world.Vec2
	inserted  time.Time
}

// PathCache memoizes computed waypoint paths keyed by quantized start/goal
// cells. It is size-bounded: on overflow the oldest half of the entries, by
// insertion order, is evicted.
type PathCache struct {
	capacity int
	entries  map[pathKey]pathEntry
	order    []pathKey
}

// NewPathCache builds a cache holding at most capacity paths. Non-positive
// capacities fall back to the default.
func NewPathCache(capacity int) *PathCache {
	if capacity <= 0 {
		capacity = defaultCacheCapacity
	}
	return &PathCache{
		capacity: capacity,
		entries:  make(map[pathKey]pathEntry, capacity),
	}
}

// Len returns the number of cached paths.
func (c *PathCache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Get returns the cached waypoints for key, if present.
func (c *PathCache) Get(key pathKey) ([]world.Vec2, bool) {
	if c == nil {
		return nil, false
	}
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return entry.waypoints, true
}

// Put stores waypoints under key, evicting the oldest half on overflow.
func (c *PathCache) Put(key pathKey, waypoints []world.Vec2) {
	if c == nil {
		return
	}
	if _, exists := c.entries[key]; !exists {
		if len(c.entries) >= c.capacity {
			c.evictOldestHalf()
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = pathEntry{waypoints: waypoints, inserted: time.Now()}
}

func (c *PathCache) evictOldestHalf() {
	drop := len(c.order) / 2
	if drop == 0 {
		drop = 1
	}
	for _, key := range c.order[:drop] {
		delete(c.entries, key)
	}
	c.order = append(c.order[:0], c.order[drop:]...)
}

type fieldKey struct {
	Col int
	Row int
}

// FieldCache memoizes flow fields keyed by quantized goal cell, with the
// same oldest-half eviction policy as PathCache.
type FieldCache struct {
	capacity int
	fields   map[fieldKey]*Field
	order    []fieldKey
}

// NewFieldCache builds a cache holding at most capacity fields.
func NewFieldCache(capacity int) *FieldCache {
	if capacity <= 0 {
		capacity = defaultCacheCapacity
	}
	return &FieldCache{
		capacity: capacity,
		fields:   make(map[fieldKey]*Field, capacity),
	}
}

// Len returns the number of cached fields.
func (c *FieldCache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.fields)
}

// Get returns the cached field for a goal cell, if present.
func (c *FieldCache) Get(col, row int) (*Field, bool) {
	if c == nil {
		return nil, false
	}
	field, ok := c.fields[fieldKey{Col: col, Row: row}]
	return field, ok
}

// Put stores a field under its goal cell.
func (c *FieldCache) Put(col, row int, field *Field) {
	if c == nil || field == nil {
		return
	}
	key := fieldKey{Col: col, Row: row}
	if _, exists := c.fields[key]; !exists {
		if len(c.fields) >= c.capacity {
			c.evictOldestHalf()
		}
		c.order = append(c.order, key)
	}
	c.fields[key] = field
}

// Invalidate drops the field for a goal cell, forcing regeneration when the
// shared target has moved materially.
func (c *FieldCache) Invalidate(col, row int) {
	if c == nil {
		return
	}
	key := fieldKey{Col: col, Row: row}
	if _, exists := c.fields[key]; !exists {
		return
	}
	delete(c.fields, key)
	for i, existing := range c.order {
		if existing == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *FieldCache) evictOldestHalf() {
	drop := len(c.order) / 2
	if drop == 0 {
		drop = 1
	}
	for _, key := range c.order[:drop] {
		delete(c.fields, key)
	}
	c.order = append(c.order[:0], c.order[drop:]...)
}
