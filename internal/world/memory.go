package world

// MemoryWorld is a minimal in-process World used by the demo daemon and by
// tests. Entities are plain records; component presence is tracked per field.
type MemoryWorld struct {
	entities map[ID]*MemoryEntity
	order    []ID
	sink     func(event string, payload any)
}

// NewMemoryWorld returns an empty world. The sink may be nil, in which case
// emitted events are dropped.
func NewMemoryWorld(sink func(event string, payload any)) *MemoryWorld {
	return &MemoryWorld{
		entities: make(map[ID]*MemoryEntity),
		sink:     sink,
	}
}

// MemoryEntity is one record in a MemoryWorld.
type MemoryEntity struct {
	EntityID     ID
	Side         string
	Pos          Vec2
	HasPos       bool
	HP           Health
	HasHP        bool
	Move         Movement
	HasMove      bool
	AIControlled bool
}

func (e *MemoryEntity) ID() ID          { return e.EntityID }
func (e *MemoryEntity) Faction() string { return e.Side }

func (e *MemoryEntity) Position() (Vec2, bool) {
	if e == nil || !e.HasPos {
		return Vec2{}, false
	}
	return e.Pos, true
}

func (e *MemoryEntity) Health() (Health, bool) {
	if e == nil || !e.HasHP {
		return Health{}, false
	}
	return e.HP, true
}

func (e *MemoryEntity) Movement() (Movement, bool) {
	if e == nil || !e.HasMove {
		return Movement{}, false
	}
	return e.Move, true
}

func (e *MemoryEntity) has(c ComponentType) bool {
	switch c {
	case ComponentPosition:
		return e.HasPos
	case ComponentHealth:
		return e.HasHP
	case ComponentMovement:
		return e.HasMove
	case ComponentAI:
		return e.AIControlled
	default:
		return false
	}
}

// Put inserts or replaces an entity record.
func (w *MemoryWorld) Put(e *MemoryEntity) {
	if w == nil || e == nil || e.EntityID == "" {
		return
	}
	if _, exists := w.entities[e.EntityID]; !exists {
		w.order = append(w.order, e.EntityID)
	}
	w.entities[e.EntityID] = e
}

// Delete removes an entity record if present.
func (w *MemoryWorld) Delete(id ID) {
	if w == nil {
		return
	}
	if _, exists := w.entities[id]; !exists {
		return
	}
	delete(w.entities, id)
	for i, existing := range w.order {
		if existing == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

// Get returns the mutable record for id, if any.
func (w *MemoryWorld) Get(id ID) (*MemoryEntity, bool) {
	if w == nil {
		return nil, false
	}
	e, ok := w.entities[id]
	return e, ok
}

// Entity implements World.
func (w *MemoryWorld) Entity(id ID) (Entity, bool) {
	e, ok := w.Get(id)
	if !ok {
		return nil, false
	}
	return e, true
}

// EntitiesWith implements World. Results follow insertion order so callers
// iterate deterministically.
func (w *MemoryWorld) EntitiesWith(required ...ComponentType) []Entity {
	if w == nil {
		return nil
	}
	matches := make([]Entity, 0, len(w.order))
	for _, id := range w.order {
		e := w.entities[id]
		if e == nil {
			continue
		}
		ok := true
		for _, c := range required {
			if !e.has(c) {
				ok = false
				break
			}
		}
		if ok {
			matches = append(matches, e)
		}
	}
	return matches
}

// Emit implements World.
func (w *MemoryWorld) Emit(event string, payload any) {
	if w == nil || w.sink == nil {
		return
	}
	w.sink(event, payload)
}
