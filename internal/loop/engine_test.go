package loop

import (
	"errors"
	"io"
	"math"
	"math/rand"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/kingofdarck/idle-garden-sub001/internal/input"
	"github.com/kingofdarck/idle-garden-sub001/internal/loop/config"
	"github.com/kingofdarck/idle-garden-sub001/internal/object"
	"github.com/kingofdarck/idle-garden-sub001/internal/pool"
)

// quietSettings disables random spawning and level ups so tests control every entity.
func quietSettings() config.Settings {
	s := config.Default()
	s.Difficulty.SpawnRate = 1e12
	s.Difficulty.Interval = 1e12
	return s
}

func newTestEngine(t *testing.T, s config.Settings) *Engine {
	t.Helper()
	e, err := New(s, Options{Logger: log.New(io.Discard), Rand: rand.New(rand.NewSource(1))})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

func startedEngine(t *testing.T, s config.Settings) *Engine {
	t.Helper()
	e := newTestEngine(t, s)
	if err := e.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	drainEvents(e)
	return e
}

func drainEvents(e *Engine) []Event {
	var out []Event
	for {
		select {
		case ev := <-e.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func countEvents(events []Event, t EventType) int {
	n := 0
	for _, ev := range events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

func spawn(t *testing.T, e *Engine, req object.SpawnRequest) object.Entity {
	t.Helper()
	ent, err := e.pool.Acquire(req.Kind, req)
	if err != nil {
		t.Fatalf("acquire %s: %v", req.Kind, err)
	}
	e.entities = append(e.entities, ent)
	return ent
}

func containsEntity(list []object.Entity, target object.Entity) bool {
	for _, ent := range list {
		if ent == target {
			return true
		}
	}
	return false
}

func TestNewRejectsInvalidSettings(t *testing.T) {
	s := config.Default()
	s.Game.PlanetHealth = 0
	if _, err := New(s, Options{}); !errors.Is(err, config.ErrInvalidSettings) {
		t.Errorf("expected ErrInvalidSettings, got %v", err)
	}
}

func TestPhaseTransitions(t *testing.T) {
	e := newTestEngine(t, quietSettings())
	if e.Phase() != PhaseLoading {
		t.Fatalf("expected loading, got %s", e.Phase())
	}

	if err := e.Pause(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("pause from loading: expected ErrInvalidTransition, got %v", err)
	}
	if err := e.Resume(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("resume from loading: expected ErrInvalidTransition, got %v", err)
	}

	if err := e.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if e.Phase() != PhaseRunning || e.Ship() == nil {
		t.Fatalf("expected running with a ship, got %s", e.Phase())
	}
	if err := e.Start(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("start while running: expected ErrInvalidTransition, got %v", err)
	}

	if err := e.TogglePause(); err != nil || e.Phase() != PhasePaused {
		t.Fatalf("expected paused, got %s (%v)", e.Phase(), err)
	}
	if err := e.Pause(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("double pause: expected ErrInvalidTransition, got %v", err)
	}
	if err := e.TogglePause(); err != nil || e.Phase() != PhaseRunning {
		t.Fatalf("expected running, got %s (%v)", e.Phase(), err)
	}

	events := drainEvents(e)
	if countEvents(events, EventStarted) != 1 || countEvents(events, EventPaused) != 1 || countEvents(events, EventResumed) != 1 {
		t.Errorf("unexpected events %+v", events)
	}
}

func TestPausedEngineDoesNotTick(t *testing.T) {
	e := startedEngine(t, quietSettings())
	a := spawn(t, e, object.SpawnRequest{Kind: object.KindAsteroid, X: 10, Y: 10, Size: object.AsteroidMedium})
	y := a.Base().Position.Y

	_ = e.Pause()
	for i := 0; i < 10; i++ {
		if err := e.Update(16, input.State{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if a.Base().Position.Y != y || e.Now() != 0 {
		t.Errorf("expected no movement while paused, y %v -> %v, clock %v", y, a.Base().Position.Y, e.Now())
	}

	_ = e.Resume()
	_ = e.Update(16, input.State{})
	if a.Base().Position.Y <= y {
		t.Error("expected movement after resume")
	}
}

func TestPauseKeyIsEdgeTriggered(t *testing.T) {
	e := startedEngine(t, quietSettings())
	pause := input.NewState(input.KeyPause)

	_ = e.Update(16, pause)
	if e.Phase() != PhasePaused {
		t.Fatalf("expected paused, got %s", e.Phase())
	}
	_ = e.Update(16, pause)
	_ = e.Update(16, input.State{})
	if e.Phase() != PhasePaused {
		t.Fatalf("expected held key not to toggle again, got %s", e.Phase())
	}
	_ = e.Update(16, pause)
	if e.Phase() != PhaseRunning {
		t.Fatalf("expected running after second press, got %s", e.Phase())
	}
	if e.Now() != 16 {
		t.Errorf("expected only the resuming tick to advance the clock, got %v", e.Now())
	}
}

func TestBottomAsteroidRemovedAndDamages(t *testing.T) {
	s := quietSettings()
	e := startedEngine(t, s)
	a := spawn(t, e, object.SpawnRequest{Kind: object.KindAsteroid, X: 10, Y: s.Screen.Height, Size: object.AsteroidSmall})
	before := e.PoolStats(object.KindAsteroid)

	if err := e.Update(16, input.State{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if containsEntity(e.Entities(), a) {
		t.Error("expected landed asteroid removed from the live list")
	}
	if got := e.State().PlanetHealth; got != s.Game.PlanetHealth-s.Game.DamagePerHit {
		t.Errorf("expected health %d, got %d", s.Game.PlanetHealth-s.Game.DamagePerHit, got)
	}
	after := e.PoolStats(object.KindAsteroid)
	if after.Available != before.Available+1 || after.InUse != before.InUse-1 {
		t.Errorf("expected asteroid returned to pool, before %+v after %+v", before, after)
	}
	if countEvents(drainEvents(e), EventPlanetHit) != 1 {
		t.Error("expected one planet hit event")
	}

	// Applied once: the next tick does not hurt again.
	_ = e.Update(16, input.State{})
	if got := e.State().PlanetHealth; got != s.Game.PlanetHealth-s.Game.DamagePerHit {
		t.Errorf("expected damage applied once, health %d", got)
	}
}

func TestLowHealthGameOver(t *testing.T) {
	s := quietSettings()
	s.Game.PlanetHealth = 5
	e := startedEngine(t, s)
	spawn(t, e, object.SpawnRequest{Kind: object.KindAsteroid, X: 10, Y: s.Screen.Height, Size: object.AsteroidSmall})

	_ = e.Update(16, input.State{})

	st := e.State()
	if !st.GameOver || e.Phase() != PhaseGameOver {
		t.Fatalf("expected game over, got %+v in %s", st, e.Phase())
	}
	if !e.CheckGameOver() || !e.CheckGameOver() {
		t.Error("expected repeated game over checks to stay true")
	}

	clock := e.Now()
	_ = e.Update(16, input.State{})
	if e.Now() != clock || e.State() != st {
		t.Error("expected no ticks after game over")
	}
	if n := countEvents(drainEvents(e), EventGameOver); n != 1 {
		t.Errorf("expected one game over event, got %d", n)
	}
}

func TestEnterRestartsAfterGameOver(t *testing.T) {
	s := quietSettings()
	s.Game.PlanetHealth = 1
	e := startedEngine(t, s)
	spawn(t, e, object.SpawnRequest{Kind: object.KindAsteroid, X: 10, Y: s.Screen.Height, Size: object.AsteroidSmall})
	spawn(t, e, object.SpawnRequest{Kind: object.KindAsteroid, X: 40, Y: 10, Size: object.AsteroidLarge})
	_ = e.Update(16, input.State{})
	if e.Phase() != PhaseGameOver {
		t.Fatalf("expected game over, got %s", e.Phase())
	}

	if err := e.Update(16, input.NewState(input.KeyEnter)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Phase() != PhaseRunning {
		t.Fatalf("expected running after enter, got %s", e.Phase())
	}
	st := e.State()
	if st.GameOver || st.PlanetHealth != 1 || st.Score != 0 || st.Level != 1 {
		t.Errorf("expected fresh game state, got %+v", st)
	}
	if len(e.Entities()) != 1 || e.Entities()[0] != e.Ship() {
		t.Errorf("expected only the new ship alive, got %d entities", len(e.Entities()))
	}
	if inUse := e.PoolStats(object.KindAsteroid).InUse; inUse != 0 {
		t.Errorf("expected all asteroids returned to the pool, %d in use", inUse)
	}
}

func TestKillScores(t *testing.T) {
	s := quietSettings()
	e := startedEngine(t, s)
	a := spawn(t, e, object.SpawnRequest{Kind: object.KindAsteroid, X: 50, Y: 30, Size: object.AsteroidMedium})
	p := spawn(t, e, object.SpawnRequest{Kind: object.KindProjectile, X: 53, Y: 37})

	_ = e.Update(16, input.State{})

	if e.State().Score != s.Game.ScorePerKill {
		t.Errorf("expected score %d, got %d", s.Game.ScorePerKill, e.State().Score)
	}
	if a.Active() || p.Active() || containsEntity(e.Entities(), a) || containsEntity(e.Entities(), p) {
		t.Error("expected both entities destroyed and removed")
	}
	events := drainEvents(e)
	if countEvents(events, EventKill) != 1 || events[0].Count != 1 {
		t.Errorf("expected one kill event, got %+v", events)
	}
}

func TestFireSpawnsFromPool(t *testing.T) {
	e := startedEngine(t, quietSettings())
	fire := input.NewState(input.KeyFire)

	_ = e.Update(100, fire)
	if n := len(e.Entities()); n != 1 {
		t.Fatalf("expected no shot before the fire rate elapsed, got %d entities", n)
	}

	_ = e.Update(150, fire)
	if n := len(e.Entities()); n != 2 {
		t.Fatalf("expected one projectile, got %d entities", n)
	}
	if e.Entities()[1].Kind() != object.KindProjectile {
		t.Errorf("expected a projectile, got %s", e.Entities()[1].Kind())
	}
	st := e.PoolStats(object.KindProjectile)
	if st.TotalReused != 1 || st.TotalCreated != config.InitialProjectilePool {
		t.Errorf("expected shot drawn from the warm pool, got %+v", st)
	}
	if countEvents(drainEvents(e), EventFire) != 1 {
		t.Error("expected one fire event")
	}
}

func TestProjectileLeavingTopReturnsToPool(t *testing.T) {
	e := startedEngine(t, quietSettings())
	p := spawn(t, e, object.SpawnRequest{Kind: object.KindProjectile, X: 10, Y: 1})

	_ = e.Update(100, input.State{})
	if containsEntity(e.Entities(), p) || p.Active() {
		t.Error("expected projectile gone after leaving the top")
	}
	if e.pool.InUse(object.KindProjectile, p) {
		t.Error("expected projectile released to the pool")
	}
}

func TestSidewaysDriftRemoved(t *testing.T) {
	s := quietSettings()
	e := startedEngine(t, s)
	a := spawn(t, e, object.SpawnRequest{Kind: object.KindAsteroid, X: s.Screen.Width + 1, Y: 10, Size: object.AsteroidSmall})
	above := spawn(t, e, object.SpawnRequest{Kind: object.KindAsteroid, X: 20, Y: -9, Size: object.AsteroidLarge})

	_ = e.Update(16, input.State{})
	if containsEntity(e.Entities(), a) {
		t.Error("expected asteroid off the right edge removed")
	}
	if !containsEntity(e.Entities(), above) {
		t.Error("expected asteroid entering from above to stay")
	}
	if e.State().PlanetHealth != s.Game.PlanetHealth {
		t.Error("expected no damage for sideways exits")
	}
}

func TestDifficultyRewards(t *testing.T) {
	s := quietSettings()
	s.Difficulty.Interval = 1000
	e := startedEngine(t, s)

	for i := 0; i < 4; i++ {
		_ = e.Update(250, input.State{})
	}
	if e.State().Level != 2 {
		t.Fatalf("expected level 2, got %d", e.State().Level)
	}
	if !e.Ship().Boosted() || e.Ship().MultiShot != 1 {
		t.Errorf("expected boost only, got boosted=%v multishot=%d", e.Ship().Boosted(), e.Ship().MultiShot)
	}

	for i := 0; i < 8; i++ {
		_ = e.Update(250, input.State{})
	}
	if e.State().Level != 4 || e.Ship().MultiShot != 2 {
		t.Errorf("expected level 4 with double shot, got level %d multishot %d", e.State().Level, e.Ship().MultiShot)
	}
	if n := countEvents(drainEvents(e), EventLevelUp); n != 3 {
		t.Errorf("expected 3 level up events, got %d", n)
	}
}

func TestScheduledAsteroidSpawn(t *testing.T) {
	s := config.Default()
	s.Difficulty.SpawnRate = 500
	s.Difficulty.MinSpawnRate = 500
	e := startedEngine(t, s)

	countAsteroids := func() []object.Entity {
		var out []object.Entity
		for _, ent := range e.Entities() {
			if ent.Kind() == object.KindAsteroid {
				out = append(out, ent)
			}
		}
		return out
	}

	_ = e.Update(250, input.State{})
	_ = e.Update(250, input.State{})
	first := countAsteroids()
	if len(first) != 1 {
		t.Fatalf("expected one asteroid after 500ms, got %d", len(first))
	}
	if b := first[0].Bounds(); b.Bottom != 0 {
		t.Errorf("expected new asteroid just above the screen, got %+v", b)
	}

	_ = e.Update(250, input.State{})
	_ = e.Update(250, input.State{})
	if n := len(countAsteroids()); n != 2 {
		t.Errorf("expected 2 asteroids after 1000ms at a 500ms rate, got %d", n)
	}
}

func TestUnknownKindDisablesSpawner(t *testing.T) {
	s := config.Default()
	s.Difficulty.SpawnRate = 500
	s.Difficulty.MinSpawnRate = 500
	e := newTestEngine(t, s)
	e.pool = pool.New() // nothing registered
	_ = e.Start()

	for i := 0; i < 8; i++ {
		if err := e.Update(250, input.NewState(input.KeyFire)); err != nil {
			t.Fatalf("expected tick to continue, got %v", err)
		}
	}
	if !e.disabled[object.KindAsteroid] || !e.disabled[object.KindProjectile] {
		t.Errorf("expected both spawners disabled, got %v", e.disabled)
	}
	if len(e.Entities()) != 1 {
		t.Errorf("expected only the ship, got %d entities", len(e.Entities()))
	}
}

func TestFailingEntityIsDestroyed(t *testing.T) {
	e := startedEngine(t, quietSettings())
	bad := object.NewBody(object.KindAsteroid, 10, 10, 1, 1)
	bad.Velocity.X = math.NaN()
	e.entities = append(e.entities, &bad)
	good := spawn(t, e, object.SpawnRequest{Kind: object.KindAsteroid, X: 30, Y: 10, Size: object.AsteroidSmall})

	if err := e.Update(16, input.State{}); err != nil {
		t.Fatalf("expected tick to continue, got %v", err)
	}
	if bad.Active() || containsEntity(e.Entities(), &bad) {
		t.Error("expected failing entity destroyed and removed")
	}
	if !good.Active() || good.Base().Position.Y <= 10 {
		t.Error("expected the remaining entities to keep updating")
	}
}

type panicEntity struct {
	object.Body
}

func (p *panicEntity) Update(object.UpdateContext) error {
	panic("corrupt entity")
}

func TestPanicHaltsEngine(t *testing.T) {
	e := startedEngine(t, quietSettings())
	e.entities = append(e.entities, &panicEntity{Body: object.NewBody(object.KindAsteroid, 0, 0, 1, 1)})

	err := e.Update(16, input.State{})
	if !errors.Is(err, ErrHalted) {
		t.Fatalf("expected ErrHalted, got %v", err)
	}
	if again := e.Update(16, input.State{}); again != err {
		t.Errorf("expected the same terminal error, got %v", again)
	}
}

func TestSanitizeDelta(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{16, 16},
		{0, 0},
		{-5, 0},
		{math.NaN(), 0},
		{math.Inf(1), 0},
		{10000, config.MaxFrameDeltaMs},
	}
	for _, tt := range tests {
		if got := SanitizeDelta(tt.in); got != tt.want {
			t.Errorf("SanitizeDelta(%v): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestSnapshotSkipsInactive(t *testing.T) {
	e := startedEngine(t, quietSettings())
	live := spawn(t, e, object.SpawnRequest{Kind: object.KindAsteroid, X: 30, Y: 10, Size: object.AsteroidLarge})
	dead := spawn(t, e, object.SpawnRequest{Kind: object.KindProjectile, X: 60, Y: 40})
	dead.Destroy()

	snap := e.Snapshot()
	if snap.Phase != PhaseRunning || snap.Width != e.screen.Width {
		t.Errorf("unexpected snapshot header %+v", snap)
	}
	if len(snap.Entities) != 1 {
		t.Fatalf("expected one visible entity, got %d", len(snap.Entities))
	}
	v := snap.Entities[0]
	if v.Kind != object.KindAsteroid || v.Size != int(object.AsteroidLarge) || v.X != live.Base().Position.X {
		t.Errorf("unexpected view %+v", v)
	}
	if snap.Ship.Kind != object.KindShip || snap.MultiShot != 1 {
		t.Errorf("unexpected ship view %+v", snap.Ship)
	}
}
