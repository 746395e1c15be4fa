package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"fieldmind/internal/behavior"
	"fieldmind/internal/nav"
	"fieldmind/internal/world"
)

func testConfig() Config {
	cfg := DefaultConfig(world.Rect{MinX: 0, MinY: 0, MaxX: 1000, MaxY: 1000})
	cfg.Algorithm = nav.AlgorithmDirect
	cfg.UpdateIntervalSeconds = 0.05
	cfg.PathCooldownSeconds = 0
	return cfg
}

func newTestEngine(t *testing.T, w *world.MemoryWorld, cfg Config) *Engine {
	t.Helper()
	e, err := New(w, cfg, Deps{Rand: rand.New(rand.NewSource(1))})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func putNPC(w *world.MemoryWorld, id world.ID, pos world.Vec2) *world.MemoryEntity {
	ent := &world.MemoryEntity{
		EntityID:     id,
		Side:         "npc",
		Pos:          pos,
		HasPos:       true,
		HP:           world.Health{Current: 100, Max: 100},
		HasHP:        true,
		Move:         world.Movement{BaseSpeed: 100},
		HasMove:      true,
		AIControlled: true,
	}
	w.Put(ent)
	return ent
}

func putPlayer(w *world.MemoryWorld, id world.ID, pos world.Vec2) *world.MemoryEntity {
	ent := &world.MemoryEntity{
		EntityID: id,
		Side:     "player",
		Pos:      pos,
		HasPos:   true,
		HP:       world.Health{Current: 100, Max: 100},
		HasHP:    true,
	}
	w.Put(ent)
	return ent
}

func runTicks(e *Engine, n int, start uint64, total float64) (uint64, float64) {
	for i := 0; i < n; i++ {
		start++
		total += 0.1
		e.Update(context.Background(), TickContext{Tick: start, Delta: 0.1, Total: total})
	}
	return start, total
}

func TestNewValidation(t *testing.T) {
	w := world.NewMemoryWorld(nil)

	if _, err := New(nil, testConfig(), Deps{}); err == nil {
		t.Fatalf("expected error for nil world")
	}

	cfg := testConfig()
	cfg.CellSize = 0
	if _, err := New(w, cfg, Deps{}); err == nil {
		t.Fatalf("expected error for zero cell size")
	}

	cfg = testConfig()
	cfg.MaxAgentUpdatesPerTick = 0
	if _, err := New(w, cfg, Deps{}); err == nil {
		t.Fatalf("expected error for zero update budget")
	}

	cfg = testConfig()
	cfg.MaxPathfindsPerTick = -1
	if _, err := New(w, cfg, Deps{}); err == nil {
		t.Fatalf("expected error for negative pathfind budget")
	}

	cfg = testConfig()
	cfg.Algorithm = "warp"
	if _, err := New(w, cfg, Deps{}); err == nil {
		t.Fatalf("expected error for unknown algorithm")
	}
}

func TestClampedNumericsStillConstruct(t *testing.T) {
	w := world.NewMemoryWorld(nil)
	cfg := testConfig()
	cfg.FlowFieldResolution = -5
	cfg.AvoidanceRadius = 0
	cfg.CacheCapacity = -1
	cfg.UpdateIntervalSeconds = 0
	if _, err := New(w, cfg, Deps{}); err != nil {
		t.Fatalf("clamped numerics should not fail construction: %v", err)
	}
}

func TestDistantEnemyKeepsIdle(t *testing.T) {
	w := world.NewMemoryWorld(nil)
	e := newTestEngine(t, w, testConfig())

	putNPC(w, "guard-1", world.Vec2{})
	putPlayer(w, "raider", world.Vec2{X: 500})
	if err := e.AddAgent("guard-1", AgentSpec{SightRadius: 200, HearingRadius: 200}); err != nil {
		t.Fatalf("AddAgent: %v", err)
	}

	runTicks(e, 3, 0, 0)

	a, _ := e.Agent("guard-1")
	if a.State != behavior.StateIdle {
		t.Fatalf("enemy at distance 500 with detection 200 should leave agent idle, got %s", a.State)
	}
}

func TestVisibleEnemyTriggersChase(t *testing.T) {
	var events []string
	w := world.NewMemoryWorld(func(event string, payload any) {
		events = append(events, event)
	})
	e := newTestEngine(t, w, testConfig())

	putNPC(w, "guard-1", world.Vec2{})
	putPlayer(w, "raider", world.Vec2{X: 150})
	if err := e.AddAgent("guard-1", AgentSpec{SightRadius: 200, HearingRadius: 200}); err != nil {
		t.Fatalf("AddAgent: %v", err)
	}

	tick, total := runTicks(e, 1, 0, 0)

	a, _ := e.Agent("guard-1")
	if a.State != behavior.StateChase {
		t.Fatalf("visible enemy at 150 should trigger chase, got %s", a.State)
	}
	if e.Stats().QueueDepth != 1 {
		t.Fatalf("chase should enqueue one path request, queue depth %d", e.Stats().QueueDepth)
	}
	found := false
	for _, name := range events {
		if name == world.EventStateChanged {
			found = true
		}
	}
	if !found {
		t.Fatalf("state change should emit %s, got %v", world.EventStateChanged, events)
	}

	// Next tick drains the queue and steers along the path.
	runTicks(e, 1, tick, total)
	if e.Stats().Pathfinds != 1 {
		t.Fatalf("expected 1 pathfind, got %d", e.Stats().Pathfinds)
	}
	if len(a.Path) == 0 {
		t.Fatalf("path should be delivered after drain")
	}
	if a.Velocity.X <= 0 {
		t.Fatalf("chasing agent should move toward +X, velocity %+v", a.Velocity)
	}
	if math.Abs(a.Velocity.Length()-100) > 1e-6 {
		t.Fatalf("velocity magnitude should equal base speed, got %v", a.Velocity.Length())
	}
}

func TestAttackWithinRange(t *testing.T) {
	w := world.NewMemoryWorld(nil)
	e := newTestEngine(t, w, testConfig())

	putNPC(w, "guard-1", world.Vec2{})
	putPlayer(w, "raider", world.Vec2{X: 20})
	if err := e.AddAgent("guard-1", AgentSpec{}); err != nil {
		t.Fatalf("AddAgent: %v", err)
	}

	// First decision enters chase, second closes into attack.
	runTicks(e, 2, 0, 0)

	a, _ := e.Agent("guard-1")
	if a.State != behavior.StateAttack {
		t.Fatalf("enemy inside attack range should yield attack, got %s", a.State)
	}
	if a.Velocity.LengthSq() != 0 {
		t.Fatalf("attacking agent holds position, velocity %+v", a.Velocity)
	}
	if len(a.Path) != 0 {
		t.Fatalf("attack should clear the path")
	}
}

func TestDeadStateIsAbsorbing(t *testing.T) {
	w := world.NewMemoryWorld(nil)
	e := newTestEngine(t, w, testConfig())

	npc := putNPC(w, "guard-1", world.Vec2{})
	if err := e.AddAgent("guard-1", AgentSpec{}); err != nil {
		t.Fatalf("AddAgent: %v", err)
	}

	npc.HP.Current = 0
	tick, total := runTicks(e, 1, 0, 0)

	a, _ := e.Agent("guard-1")
	if a.State != behavior.StateDead {
		t.Fatalf("zero health should transition to dead, got %s", a.State)
	}

	// Healing afterwards must not revive the state machine.
	npc.HP.Current = 100
	runTicks(e, 3, tick, total)
	if a.State != behavior.StateDead {
		t.Fatalf("dead is absorbing, got %s", a.State)
	}
	if a.Velocity.LengthSq() != 0 {
		t.Fatalf("dead agent must not move, velocity %+v", a.Velocity)
	}
}

func TestDecisionBudgetCapsUpdates(t *testing.T) {
	w := world.NewMemoryWorld(nil)
	cfg := testConfig()
	cfg.MaxAgentUpdatesPerTick = 3
	e := newTestEngine(t, w, cfg)

	for i := 0; i < 8; i++ {
		id := world.ID(fmt.Sprintf("npc-%d", i))
		putNPC(w, id, world.Vec2{X: float64(i) * 120})
		if err := e.AddAgent(id, AgentSpec{}); err != nil {
			t.Fatalf("AddAgent: %v", err)
		}
	}

	runTicks(e, 1, 0, 0)
	if got := e.Stats().AgentUpdates; got != 3 {
		t.Fatalf("update budget 3 with 8 due agents should run 3, got %d", got)
	}
}

func TestUpdateStaggerSkipsRecentlyDecided(t *testing.T) {
	w := world.NewMemoryWorld(nil)
	cfg := testConfig()
	cfg.UpdateIntervalSeconds = 0.5
	e := newTestEngine(t, w, cfg)

	putNPC(w, "npc-1", world.Vec2{})
	if err := e.AddAgent("npc-1", AgentSpec{}); err != nil {
		t.Fatalf("AddAgent: %v", err)
	}

	tick, total := runTicks(e, 1, 0, 0)
	if got := e.Stats().AgentUpdates; got != 1 {
		t.Fatalf("first tick should decide once, got %d", got)
	}
	runTicks(e, 1, tick, total)
	if got := e.Stats().AgentUpdates; got != 0 {
		t.Fatalf("interval 0.5 should skip the next 0.1s tick, got %d updates", got)
	}
}

func TestPathfindBudgetLeavesQueueRemainder(t *testing.T) {
	w := world.NewMemoryWorld(nil)
	cfg := testConfig()
	cfg.MaxPathfindsPerTick = 5
	e := newTestEngine(t, w, cfg)

	putPlayer(w, "raider", world.Vec2{X: 150, Y: 150})
	for i := 0; i < 12; i++ {
		id := world.ID(fmt.Sprintf("npc-%d", i))
		putNPC(w, id, world.Vec2{X: float64(100 + i*3), Y: 100})
		if err := e.AddAgent(id, AgentSpec{}); err != nil {
			t.Fatalf("AddAgent: %v", err)
		}
	}

	// Tick 1: every agent spots the raider and enqueues a request.
	tick, total := runTicks(e, 1, 0, 0)
	if depth := e.Stats().QueueDepth; depth != 12 {
		t.Fatalf("expected 12 queued requests, got %d", depth)
	}

	tick, total = runTicks(e, 1, tick, total)
	if got := e.Stats().Pathfinds; got != 5 {
		t.Fatalf("budget 5 should serve 5 requests, got %d", got)
	}
	if depth := e.Stats().QueueDepth; depth != 7 {
		t.Fatalf("7 requests should remain queued, got %d", depth)
	}

	runTicks(e, 1, tick, total)
	if depth := e.Stats().QueueDepth; depth != 2 {
		t.Fatalf("2 requests should remain after the second drain, got %d", depth)
	}
}

func TestMissingPositionSkipsAgent(t *testing.T) {
	w := world.NewMemoryWorld(nil)
	e := newTestEngine(t, w, testConfig())

	npc := putNPC(w, "npc-1", world.Vec2{})
	npc.HasPos = false
	if err := e.AddAgent("npc-1", AgentSpec{}); err != nil {
		t.Fatalf("AddAgent: %v", err)
	}

	tick, total := runTicks(e, 1, 0, 0)
	if got := e.Stats().AgentUpdates; got != 0 {
		t.Fatalf("agent without position must be skipped, got %d updates", got)
	}

	npc.HasPos = true
	runTicks(e, 1, tick, total)
	if got := e.Stats().AgentUpdates; got != 1 {
		t.Fatalf("agent should resume once the position returns, got %d updates", got)
	}
}

func TestDespawnedEntityRemovesAgent(t *testing.T) {
	w := world.NewMemoryWorld(nil)
	e := newTestEngine(t, w, testConfig())

	putNPC(w, "npc-1", world.Vec2{})
	if err := e.AddAgent("npc-1", AgentSpec{}); err != nil {
		t.Fatalf("AddAgent: %v", err)
	}

	w.Delete("npc-1")
	runTicks(e, 1, 0, 0)

	if e.AgentCount() != 0 {
		t.Fatalf("despawned entity should remove its agent, count %d", e.AgentCount())
	}
	if _, ok := e.Agent("npc-1"); ok {
		t.Fatalf("agent record should be gone")
	}
}

func TestLowHealthCombatFlees(t *testing.T) {
	w := world.NewMemoryWorld(nil)
	e := newTestEngine(t, w, testConfig())

	npc := putNPC(w, "npc-1", world.Vec2{})
	putPlayer(w, "raider", world.Vec2{X: 150})
	spec := AgentSpec{Personality: behavior.Personality{
		Aggression:         0.5,
		SpeedMultiplier:    1,
		FleeHealthFraction: 0.5,
	}}
	if err := e.AddAgent("npc-1", spec); err != nil {
		t.Fatalf("AddAgent: %v", err)
	}

	tick, total := runTicks(e, 1, 0, 0)
	a, _ := e.Agent("npc-1")
	if a.State != behavior.StateChase {
		t.Fatalf("setup should reach chase, got %s", a.State)
	}

	npc.HP.Current = 20
	runTicks(e, 1, tick, total)
	if a.State != behavior.StateFlee {
		t.Fatalf("health 0.2 below threshold 0.5 in combat should flee, got %s", a.State)
	}
}

func TestLostTargetInvestigatesLastKnownPosition(t *testing.T) {
	w := world.NewMemoryWorld(nil)
	e := newTestEngine(t, w, testConfig())

	npc := putNPC(w, "npc-1", world.Vec2{})
	raider := putPlayer(w, "raider", world.Vec2{X: 150})
	if err := e.AddAgent("npc-1", AgentSpec{}); err != nil {
		t.Fatalf("AddAgent: %v", err)
	}

	tick, total := runTicks(e, 1, 0, 0)
	a, _ := e.Agent("npc-1")
	if a.State != behavior.StateChase {
		t.Fatalf("setup should reach chase, got %s", a.State)
	}

	// Target escapes out of sight; the agent heads for the last sighting.
	raider.Pos = world.Vec2{X: 1000, Y: 1000}
	tick, total = runTicks(e, 1, tick, total)
	if a.State != behavior.StateInvestigate {
		t.Fatalf("invisible target with a last-known position should investigate, got %s", a.State)
	}

	// Arriving at the sighting with nothing there forgets it and settles
	// back to idle.
	npc.Pos = world.Vec2{X: 150}
	runTicks(e, 3, tick, total)
	if a.State != behavior.StateIdle {
		t.Fatalf("exhausted investigation should return to idle, got %s", a.State)
	}
	if a.TargetID != "" {
		t.Fatalf("forgotten target should clear, got %q", a.TargetID)
	}
}

func TestVelocityCallbackReceivesCommands(t *testing.T) {
	w := world.NewMemoryWorld(nil)
	applied := make(map[world.ID]world.Vec2)
	cfg := testConfig()
	e, err := New(w, cfg, Deps{
		Rand: rand.New(rand.NewSource(1)),
		ApplyVelocity: func(id world.ID, v world.Vec2) {
			applied[id] = v
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	putNPC(w, "npc-1", world.Vec2{})
	putPlayer(w, "raider", world.Vec2{X: 150})
	if err := e.AddAgent("npc-1", AgentSpec{}); err != nil {
		t.Fatalf("AddAgent: %v", err)
	}

	runTicks(e, 2, 0, 0)

	a, _ := e.Agent("npc-1")
	if got, ok := applied["npc-1"]; !ok || got != a.Velocity {
		t.Fatalf("callback should receive the agent velocity, got %+v want %+v", got, a.Velocity)
	}
}

func TestDroppedRequestDoesNotWedgeAgent(t *testing.T) {
	w := world.NewMemoryWorld(nil)
	e := newTestEngine(t, w, testConfig())

	npc := putNPC(w, "npc-1", world.Vec2{})
	putPlayer(w, "raider", world.Vec2{X: 150})
	if err := e.AddAgent("npc-1", AgentSpec{}); err != nil {
		t.Fatalf("AddAgent: %v", err)
	}

	tick, total := runTicks(e, 1, 0, 0)
	a, _ := e.Agent("npc-1")
	if a.State != behavior.StateChase || e.Stats().QueueDepth != 1 {
		t.Fatalf("setup should reach chase with one queued request, state %s depth %d",
			a.State, e.Stats().QueueDepth)
	}

	// The position component vanishes for one tick, so the drain drops the
	// queued request instead of serving it.
	npc.HasPos = false
	tick, total = runTicks(e, 1, tick, total)
	if e.Stats().QueueDepth != 0 {
		t.Fatalf("request for an inactive agent should be dropped, depth %d", e.Stats().QueueDepth)
	}

	// Once the component returns the agent must be able to request again and
	// receive a path.
	npc.HasPos = true
	runTicks(e, 3, tick, total)
	if a.pendingPath && len(a.Path) == 0 {
		t.Fatalf("dropped request must not block future enqueues")
	}
	if len(a.Path) == 0 {
		t.Fatalf("agent should have repathed after recovering, state %s depth %d",
			a.State, e.Stats().QueueDepth)
	}
	if a.Velocity.X <= 0 {
		t.Fatalf("recovered agent should chase toward +X, velocity %+v", a.Velocity)
	}
}

func TestStuckAgentRepaths(t *testing.T) {
	w := world.NewMemoryWorld(nil)
	e := newTestEngine(t, w, testConfig())

	npc := putNPC(w, "npc-1", world.Vec2{})
	putPlayer(w, "raider", world.Vec2{X: 150})
	if err := e.AddAgent("npc-1", AgentSpec{}); err != nil {
		t.Fatalf("AddAgent: %v", err)
	}

	// Tick 1 enters chase and enqueues; tick 2 delivers the path. The world
	// never integrates velocities here, so the agent holds a path while its
	// position stays frozen, which is exactly the stuck condition.
	tick, total := runTicks(e, 2, 0, 0)
	a, _ := e.Agent("npc-1")
	if len(a.Path) == 0 {
		t.Fatalf("setup should deliver a path")
	}

	tick, total = runTicks(e, 1, tick, total)
	if a.stuckCounter != 2 {
		t.Fatalf("two frozen decisions with a path should count 2, got %d", a.stuckCounter)
	}

	// The third frozen decision trips the threshold: the path is abandoned
	// and a fresh request goes out immediately.
	tick, total = runTicks(e, 1, tick, total)
	if a.stuckCounter != 0 {
		t.Fatalf("stuck repath should reset the counter, got %d", a.stuckCounter)
	}
	if len(a.Path) != 0 {
		t.Fatalf("stuck repath should abandon the current path")
	}
	if e.Stats().QueueDepth != 1 {
		t.Fatalf("stuck repath should enqueue a fresh request, depth %d", e.Stats().QueueDepth)
	}

	// Let the new path arrive, accumulate stuck ticks again, then move the
	// agent: the counter must clear once movement resumes.
	tick, total = runTicks(e, 2, tick, total)
	if a.stuckCounter == 0 {
		t.Fatalf("frozen agent should be accumulating stuck ticks again")
	}
	npc.Pos = world.Vec2{X: 10}
	runTicks(e, 1, tick, total)
	if a.stuckCounter != 0 {
		t.Fatalf("movement should clear the stuck counter, got %d", a.stuckCounter)
	}
}

func TestDuplicateAgentRejected(t *testing.T) {
	w := world.NewMemoryWorld(nil)
	e := newTestEngine(t, w, testConfig())

	putNPC(w, "npc-1", world.Vec2{})
	if err := e.AddAgent("npc-1", AgentSpec{}); err != nil {
		t.Fatalf("AddAgent: %v", err)
	}
	if err := e.AddAgent("npc-1", AgentSpec{}); err == nil {
		t.Fatalf("duplicate registration should fail")
	}
	if err := e.AddAgent("", AgentSpec{}); err == nil {
		t.Fatalf("empty id should fail")
	}
}
