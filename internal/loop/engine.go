// Package loop runs the simulation: one Engine per game, ticked by a frontend.
package loop

import (
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kingofdarck/idle-garden-sub001/internal/collision"
	"github.com/kingofdarck/idle-garden-sub001/internal/difficulty"
	"github.com/kingofdarck/idle-garden-sub001/internal/input"
	"github.com/kingofdarck/idle-garden-sub001/internal/loop/config"
	"github.com/kingofdarck/idle-garden-sub001/internal/object"
	"github.com/kingofdarck/idle-garden-sub001/internal/pool"
)

// pooledKinds are the entity kinds recycled through the pool.
var pooledKinds = [...]object.Kind{object.KindAsteroid, object.KindProjectile}

// Options configures an Engine.
type Options struct {
	Logger *log.Logger // Defaults to a discarding logger
	Rand   *rand.Rand  // Source for spawn positions; seeded from the clock when nil
}

// Engine owns the live entity list and game state for one game.
// It is single-threaded: Update and the phase methods must be called from
// the goroutine that drives the frame loop.
type Engine struct {
	settings config.Settings
	screen   object.Screen
	logger   *log.Logger
	rng      *rand.Rand

	pool       *pool.Pool
	collisions *collision.System
	difficulty *difficulty.Controller

	phase    Phase
	state    GameState
	ship     *object.Ship
	entities []object.Entity       // Live list, ship first
	toSpawn  []object.SpawnRequest // Spawns queued during the current tick
	released []object.Entity       // Reusable cleanup buffer

	now       float64 // Game clock in ms; only advances while running
	lastSpawn float64
	disabled  map[object.Kind]bool // Spawners switched off after a pool error
	halted    error

	pauseKey *input.Edge
	enterKey *input.Edge

	events  chan Event
	dropped int
}

// New creates an engine in the Loading phase.
func New(settings config.Settings, opts Options) (*Engine, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("new engine: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	screen := object.Screen{Width: settings.Screen.Width, Height: settings.Screen.Height}
	d := settings.Difficulty

	e := &Engine{
		settings: settings,
		screen:   screen,
		logger:   logger,
		rng:      rng,
		pool:     pool.New(),
		collisions: collision.NewSystem(
			collision.Rules{ScorePerKill: settings.Game.ScorePerKill, DamagePerHit: settings.Game.DamagePerHit},
			screen,
			config.CollisionGridCellSize,
		),
		difficulty: difficulty.New(difficulty.Params{
			Interval:     d.Interval,
			Decay:        d.Decay,
			MinSpawnRate: d.MinSpawnRate,
			SpawnRate:    d.SpawnRate,
		}, 0),
		phase:    PhaseLoading,
		state:    newGameState(settings.Game.PlanetHealth),
		disabled: make(map[object.Kind]bool),
		pauseKey: input.NewEdge(input.KeyPause),
		enterKey: input.NewEdge(input.KeyEnter),
		events:   make(chan Event, config.EventBufferSize),
	}
	e.registerPools()
	return e, nil
}

func (e *Engine) registerPools() {
	h := e.screen.Height
	e.pool.Register(object.KindAsteroid,
		func(req object.SpawnRequest) object.Entity {
			a := &object.Asteroid{}
			a.Reset(req, h)
			return a
		},
		func(ent object.Entity, req object.SpawnRequest) {
			ent.(*object.Asteroid).Reset(req, h)
		},
		e.settings.Spawn.AsteroidPool,
	)
	e.pool.Register(object.KindProjectile,
		func(req object.SpawnRequest) object.Entity {
			return object.NewProjectile(req.X, req.Y, req.Speed)
		},
		func(ent object.Entity, req object.SpawnRequest) {
			ent.(*object.Projectile).Reset(req.X, req.Y, req.Speed)
		},
		e.settings.Spawn.ProjectilePool,
	)
}

// Phase returns the current lifecycle phase.
func (e *Engine) Phase() Phase {
	return e.phase
}

// State returns a copy of the game state.
func (e *Engine) State() GameState {
	return e.state
}

// Ship returns the player ship, or nil before the first Start.
func (e *Engine) Ship() *object.Ship {
	return e.ship
}

// Now returns the game clock in milliseconds.
func (e *Engine) Now() float64 {
	return e.now
}

// Entities returns the live list. The slice is owned by the engine.
func (e *Engine) Entities() []object.Entity {
	return e.entities
}

// PoolStats returns pool counters for kind.
func (e *Engine) PoolStats(kind object.Kind) pool.Stats {
	return e.pool.Stats(kind)
}

// Start begins a new game from Loading or GameOver.
func (e *Engine) Start() error {
	if e.phase != PhaseLoading && e.phase != PhaseGameOver {
		return transitionError(e.phase, "start")
	}

	for _, ent := range e.entities {
		ent.Destroy()
	}
	e.release()

	e.now = 0
	e.lastSpawn = 0
	e.toSpawn = e.toSpawn[:0]
	e.state = newGameState(e.settings.Game.PlanetHealth)
	e.difficulty.Reset(0)

	w, h := e.screen.Width, e.screen.Height
	e.ship = object.NewShip((w-object.ShipWidth)/2, h-object.ShipHeight-2, w, h)
	e.ship.Speed = e.settings.Ship.Speed
	e.ship.FireRate = e.settings.Ship.FireRate
	e.entities = append(e.entities[:0], e.ship)

	e.phase = PhaseRunning
	e.logger.Info("game started", "health", e.state.PlanetHealth)
	e.emit(EventStarted, 0)
	return nil
}

// Pause stops ticking until Resume.
func (e *Engine) Pause() error {
	if e.phase != PhaseRunning {
		return transitionError(e.phase, "pause")
	}
	e.phase = PhasePaused
	e.emit(EventPaused, 0)
	return nil
}

// Resume continues a paused game.
func (e *Engine) Resume() error {
	if e.phase != PhasePaused {
		return transitionError(e.phase, "resume")
	}
	e.phase = PhaseRunning
	e.emit(EventResumed, 0)
	return nil
}

// TogglePause switches between Running and Paused.
func (e *Engine) TogglePause() error {
	if e.phase == PhasePaused {
		return e.Resume()
	}
	return e.Pause()
}

// Update runs one frame tick of delta milliseconds.
// Pause toggles on the Pause key and Enter starts a game from Loading or GameOver.
// Outside the Running phase nothing else happens.
func (e *Engine) Update(delta float64, in input.State) (err error) {
	if e.halted != nil {
		return e.halted
	}

	e.applyControls(in)
	if e.phase != PhaseRunning {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			e.halted = fmt.Errorf("%w: tick at %.0fms: %v", ErrHalted, e.now, r)
			e.logger.Error("tick panicked, engine halted", "err", e.halted)
			err = e.halted
		}
	}()

	delta = SanitizeDelta(delta)
	e.now += delta
	e.advance(delta, in)
	e.HandleCollisions()
	e.CleanupEntities()
	e.UpdateDifficulty(e.now)
	e.CheckGameOver()
	return nil
}

func (e *Engine) applyControls(in input.State) {
	pause := e.pauseKey.Pressed(in)
	enter := e.enterKey.Pressed(in)

	switch e.phase {
	case PhaseRunning, PhasePaused:
		if pause {
			_ = e.TogglePause()
		}
	case PhaseLoading, PhaseGameOver:
		if enter {
			_ = e.Start()
		}
	}
}

// advance updates every active entity, then adds what was spawned during the tick.
func (e *Engine) advance(delta float64, in input.State) {
	ctx := object.UpdateContext{Delta: delta, Now: e.now, Input: in, Screen: e.screen}

	for _, ent := range e.entities {
		if !ent.Active() {
			continue
		}
		if err := ent.Update(ctx); err != nil {
			e.logger.Warn("entity update failed", "kind", ent.Kind(), "err", err)
			ent.Destroy()
		}
	}

	if in.IsKeyPressed(input.KeyFire) {
		if shots := e.ship.TryFire(e.now); len(shots) > 0 {
			e.toSpawn = append(e.toSpawn, shots...)
			e.emit(EventFire, len(shots))
		}
	}

	if e.now-e.lastSpawn >= e.difficulty.SpawnRate {
		e.lastSpawn = e.now
		e.toSpawn = append(e.toSpawn, e.nextAsteroid())
	}

	e.flushSpawned()
}

// nextAsteroid picks a size, column and drift for a new asteroid just above the screen.
func (e *Engine) nextAsteroid() object.SpawnRequest {
	sp := e.settings.Spawn

	size := object.AsteroidMedium
	switch roll := e.rng.Float64(); {
	case roll < sp.LargeChance:
		size = object.AsteroidLarge
	case roll < sp.LargeChance+sp.SmallChance:
		size = object.AsteroidSmall
	}

	dim := object.AsteroidDim(size)
	return object.SpawnRequest{
		Kind:   object.KindAsteroid,
		X:      e.rng.Float64() * max(e.screen.Width-dim, 0),
		Y:      -dim,
		Size:   size,
		DriftX: (e.rng.Float64()*2 - 1) * sp.MaxDrift,
	}
}

func (e *Engine) flushSpawned() {
	for _, req := range e.toSpawn {
		if e.disabled[req.Kind] {
			continue
		}
		ent, err := e.pool.Acquire(req.Kind, req)
		if err != nil {
			e.disabled[req.Kind] = true
			e.logger.Error("spawner disabled", "kind", req.Kind, "err", err)
			continue
		}
		e.entities = append(e.entities, ent)
	}
	e.toSpawn = e.toSpawn[:0]
}

// HandleCollisions resolves this frame's collisions and applies score and damage.
func (e *Engine) HandleCollisions() collision.Result {
	pairs := e.collisions.Check(e.entities)
	if len(pairs) == 0 {
		return collision.Result{}
	}

	res := e.collisions.Process(pairs, e.state.PlanetHealth)
	e.state.Score += res.ScoreIncrease
	e.state.PlanetHealth -= res.PlanetDamage

	if res.Kills > 0 {
		e.emit(EventKill, res.Kills)
	}
	if res.Hits > 0 {
		e.logger.Debug("planet hit", "hits", res.Hits, "health", e.state.PlanetHealth)
		e.emit(EventPlanetHit, res.Hits)
	}
	return res
}

// CleanupEntities drops inactive entities from the live list and returns them
// to the pool. Non-ship entities that drifted fully off the left or right edge
// are destroyed first. It returns the number removed.
func (e *Engine) CleanupEntities() int {
	for _, ent := range e.entities {
		if ent.Active() && ent.Kind() != object.KindShip && e.offscreenSideways(ent) {
			ent.Destroy()
		}
	}
	return e.release()
}

func (e *Engine) offscreenSideways(ent object.Entity) bool {
	b := ent.Bounds()
	return b.Right < 0 || b.Left > e.screen.Width
}

// release compacts the live list and hands inactive entities back to the pool.
func (e *Engine) release() int {
	e.released = e.released[:0]
	kept := e.entities[:0]
	for _, ent := range e.entities {
		if ent.Active() {
			kept = append(kept, ent)
		} else {
			e.released = append(e.released, ent)
		}
	}
	clear(e.entities[len(kept):])
	e.entities = kept

	for _, kind := range pooledKinds {
		e.pool.AutoRelease(kind, e.released)
	}
	return len(e.released)
}

// UpdateDifficulty delegates to the difficulty controller and grants level rewards.
func (e *Engine) UpdateDifficulty(now float64) bool {
	if !e.difficulty.Update(now) {
		return false
	}
	e.state.Level = e.difficulty.Level

	sh := e.settings.Ship
	if e.ship != nil {
		e.ship.Boost(sh.BoostFactor, now, sh.BoostDuration)
		if (e.state.Level-1)%sh.MultiShotEvery == 0 && e.ship.MultiShot < sh.MaxMultiShot {
			e.ship.MultiShot++
		}
	}

	e.logger.Info("level up", "level", e.state.Level, "spawn_rate", e.difficulty.SpawnRate)
	e.emit(EventLevelUp, 1)
	return true
}

// CheckGameOver ends the game once planet health is gone. Calling it again is a no-op.
func (e *Engine) CheckGameOver() bool {
	if e.phase == PhaseGameOver {
		return true
	}
	if e.state.PlanetHealth > 0 {
		return false
	}

	e.state.GameOver = true
	e.phase = PhaseGameOver
	e.logger.Info("game over", "score", e.state.Score, "level", e.state.Level)
	e.emit(EventGameOver, 0)
	return true
}
