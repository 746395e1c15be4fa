package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"fieldmind/internal/engine"
	"fieldmind/internal/nav"
	"fieldmind/internal/profiles"
	"fieldmind/internal/telemetry"
	"fieldmind/internal/world"
	"fieldmind/logging"
)

const (
	fieldSize      = 1000.0
	intruderID     = world.ID("intruder")
	intruderSpeed  = 60.0
	intruderRadius = 350.0
)

type simulationConfig struct {
	Algorithm nav.Algorithm
	Agents    int
	TickRate  int
	Catalog   *profiles.Catalog
	Publisher logging.Publisher
	Metrics   telemetry.Metrics
	Recorder  *telemetry.Recorder
	Journal   *telemetry.Journal
	Hub       *hub
}

// simulation owns the demo world and drives the engine from a single
// goroutine, mirroring how a game server would embed it.
type simulation struct {
	cfg    simulationConfig
	world  *world.MemoryWorld
	engine *engine.Engine

	mu        sync.Mutex
	catalog   *profiles.Catalog
	lastStats engine.Stats

	tick  uint64
	total float64
}

func newSimulation(cfg simulationConfig) (*simulation, error) {
	if cfg.TickRate <= 0 {
		return nil, fmt.Errorf("tick rate must be positive, got %d", cfg.TickRate)
	}

	w := world.NewMemoryWorld(nil)

	engineCfg := engine.DefaultConfig(world.Rect{MaxX: fieldSize, MaxY: fieldSize})
	engineCfg.Algorithm = cfg.Algorithm

	sim := &simulation{cfg: cfg, world: w, catalog: cfg.Catalog}

	eng, err := engine.New(w, engineCfg, engine.Deps{
		Publisher: cfg.Publisher,
		Metrics:   cfg.Metrics,
		Logger:    telemetry.WrapLogger(log.Default()),
		ApplyVelocity: func(id world.ID, v world.Vec2) {
			if ent, ok := w.Get(id); ok {
				ent.Move.Velocity = v
			}
		},
	})
	if err != nil {
		return nil, err
	}
	sim.engine = eng

	if err := sim.seed(cfg.Agents); err != nil {
		return nil, err
	}
	return sim, nil
}

// seed populates the field with NPC agents and one scripted intruder the
// agents treat as hostile.
func (s *simulation) seed(count int) error {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	names := s.profileNames()

	for i := 0; i < count; i++ {
		id := world.ID(uuid.NewString())
		home := world.Vec2{
			X: 100 + rng.Float64()*(fieldSize-200),
			Y: 100 + rng.Float64()*(fieldSize-200),
		}
		s.world.Put(&world.MemoryEntity{
			EntityID:     id,
			Side:         "npc",
			Pos:          home,
			HasPos:       true,
			HP:           world.Health{Current: 100, Max: 100},
			HasHP:        true,
			Move:         world.Movement{BaseSpeed: 120},
			HasMove:      true,
			AIControlled: true,
		})

		spec := engine.AgentSpec{Home: home}
		if len(names) > 0 {
			if profile, ok := s.lookupProfile(names[i%len(names)]); ok {
				spec = profile.Spec(home)
			}
		}
		if err := s.engine.AddAgent(id, spec); err != nil {
			return err
		}
	}

	s.world.Put(&world.MemoryEntity{
		EntityID: intruderID,
		Side:     "player",
		Pos:      world.Vec2{X: fieldSize / 2, Y: fieldSize / 2},
		HasPos:   true,
		HP:       world.Health{Current: 100, Max: 100},
		HasHP:    true,
		Move:     world.Movement{BaseSpeed: intruderSpeed},
		HasMove:  true,
	})
	return nil
}

// Run steps the simulation until stop closes.
func (s *simulation) Run(stop <-chan struct{}) {
	interval := time.Second / time.Duration(s.cfg.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	delta := interval.Seconds()
	ctx := context.Background()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.step(ctx, delta)
		}
	}
}

func (s *simulation) step(ctx context.Context, delta float64) {
	s.tick++
	s.total += delta

	s.moveIntruder()

	started := time.Now()
	stats := s.engine.Update(ctx, engine.TickContext{
		Tick:  s.tick,
		Delta: delta,
		Total: s.total,
	})
	elapsed := time.Since(started)

	s.integrate(delta)
	s.record(stats, elapsed)
}

// moveIntruder walks the scripted target along a slow circle around the field
// center so the agents always have something to notice.
func (s *simulation) moveIntruder() {
	ent, ok := s.world.Get(intruderID)
	if !ok {
		return
	}
	angle := s.total * intruderSpeed / intruderRadius
	ent.Pos = world.Vec2{
		X: fieldSize/2 + math.Cos(angle)*intruderRadius,
		Y: fieldSize/2 + math.Sin(angle)*intruderRadius,
	}
}

// integrate applies the velocities the engine assigned this tick.
func (s *simulation) integrate(delta float64) {
	bounds := world.Rect{MaxX: fieldSize, MaxY: fieldSize}
	for _, ent := range s.world.EntitiesWith(world.ComponentPosition, world.ComponentMovement, world.ComponentAI) {
		rec, ok := s.world.Get(ent.ID())
		if !ok {
			continue
		}
		rec.Pos = bounds.Clamp(rec.Pos.Add(rec.Move.Velocity.Scale(delta)))
	}
}

func (s *simulation) record(stats engine.Stats, elapsed time.Duration) {
	sample := stats.Sample(float64(elapsed.Microseconds())/1000.0, s.total)
	if s.cfg.Recorder != nil {
		if err := s.cfg.Recorder.Record(sample); err != nil {
			log.Printf("record tick %d: %v", stats.Tick, err)
		}
	}
	if s.cfg.Journal != nil {
		if err := s.cfg.Journal.Write(sample); err != nil {
			log.Printf("journal tick %d: %v", stats.Tick, err)
		}
	}
	if s.cfg.Hub != nil {
		s.cfg.Hub.Broadcast(sample)
	}

	s.mu.Lock()
	s.lastStats = stats
	s.mu.Unlock()
}

// Stats returns the latest engine report. Safe to call from HTTP handlers
// while the tick loop runs.
func (s *simulation) Stats() engine.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastStats
}

// SwapCatalog installs a reloaded profile catalog. Existing agents keep their
// personalities; the new catalog applies to future spawns.
func (s *simulation) SwapCatalog(catalog *profiles.Catalog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = catalog
}

func (s *simulation) profileNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Names()
}

func (s *simulation) lookupProfile(name string) (profiles.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Get(name)
}
