// Package collision finds overlapping entities each frame and turns them into score and damage.
package collision

import (
	"fmt"

	"github.com/kingofdarck/idle-garden-sub001/internal/object"
	"github.com/kingofdarck/idle-garden-sub001/internal/physics"
)

// Category tags the kind of collision a pair represents.
type Category int

const (
	// AsteroidProjectile is a shot hitting a rock. A is the asteroid, B the projectile.
	AsteroidProjectile Category = iota
	// AsteroidPlanet is a rock reaching the bottom edge. Only A is set.
	AsteroidPlanet
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case AsteroidProjectile:
		return "asteroid-projectile"
	case AsteroidPlanet:
		return "asteroid-planet-boundary"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// Pair is one collision found during a frame.
type Pair struct {
	Category Category
	A        object.Entity
	B        object.Entity
}

// Result aggregates the effects of all pairs in a frame.
type Result struct {
	Destroyed     []object.Entity // Entities deactivated by this frame's collisions, each once
	ScoreIncrease int
	PlanetDamage  int
	Kills         int // Distinct asteroids destroyed by projectiles
	Hits          int // Distinct asteroids that reached the planet
	GameOver      bool
}

// Rules holds the fixed amounts applied per event.
type Rules struct {
	ScorePerKill int
	DamagePerHit int
}

// System detects and resolves collisions. It keeps reusable buffers between frames
// and must only be used from the goroutine that owns the engine.
type System struct {
	rules Rules

	grid        *physics.SpatialGrid
	asteroids   []*object.Asteroid
	projectiles []*object.Projectile
	pairs       []Pair
}

// NewSystem creates a collision system for a screen of the given size.
// cellSize must be at least the largest entity dimension.
func NewSystem(rules Rules, screen object.Screen, cellSize float64) *System {
	return &System{
		rules: rules,
		grid:  physics.NewSpatialGrid(screen.Width, screen.Height, cellSize),
	}
}

// Rules returns the scoring rules in use.
func (s *System) Rules() Rules {
	return s.rules
}

// Check returns this frame's collision pairs among active entities.
// Each asteroid/projectile pair is reported once, and every active asteroid that
// has reached the bottom yields one AsteroidPlanet pair.
// The returned slice is reused by the next call.
func (s *System) Check(entities []object.Entity) []Pair {
	s.collect(entities)
	s.pairs = s.pairs[:0]

	for _, a := range s.asteroids {
		if a.HasReachedBottom() {
			s.pairs = append(s.pairs, Pair{Category: AsteroidPlanet, A: a})
		}
	}

	if len(s.asteroids) == 0 || len(s.projectiles) == 0 {
		return s.pairs
	}

	s.grid.Clear()
	for i, p := range s.projectiles {
		b := p.Bounds()
		s.grid.Insert(b.CenterX, b.CenterY, i)
	}

	for _, a := range s.asteroids {
		ab := a.Bounds()
		s.grid.QueryAround(ab.CenterX, ab.CenterY, func(j int) bool {
			p := s.projectiles[j]
			if ab.Overlaps(p.Bounds()) {
				s.pairs = append(s.pairs, Pair{Category: AsteroidProjectile, A: a, B: p})
			}
			return false
		})
	}

	return s.pairs
}

// collect splits active entities into reusable per-kind slices.
func (s *System) collect(entities []object.Entity) {
	s.asteroids = s.asteroids[:0]
	s.projectiles = s.projectiles[:0]

	for _, e := range entities {
		if e == nil || !e.Active() {
			continue
		}
		switch o := e.(type) {
		case *object.Asteroid:
			s.asteroids = append(s.asteroids, o)
		case *object.Projectile:
			s.projectiles = append(s.projectiles, o)
		}
	}
}

// Process resolves pairs, deactivating the entities involved.
// Totals depend only on the set of pairs, not their order: every entity
// appearing in a pair is destroyed, score accrues once per distinct asteroid
// shot down and damage once per distinct asteroid that reached the planet.
// An asteroid that was shot while touching the bottom counts for both.
// GameOver reports whether planetHealth minus the damage drops to zero or below.
func (s *System) Process(pairs []Pair, planetHealth int) Result {
	var res Result
	killed := make(map[object.Entity]struct{})
	landed := make(map[object.Entity]struct{})
	destroyed := make(map[object.Entity]struct{})

	mark := func(e object.Entity) {
		if e == nil {
			return
		}
		if _, seen := destroyed[e]; seen {
			return
		}
		destroyed[e] = struct{}{}
		res.Destroyed = append(res.Destroyed, e)
	}

	for _, pair := range pairs {
		switch pair.Category {
		case AsteroidProjectile:
			if _, seen := killed[pair.A]; !seen {
				killed[pair.A] = struct{}{}
				res.Kills++
			}
			mark(pair.A)
			mark(pair.B)
		case AsteroidPlanet:
			if _, seen := landed[pair.A]; !seen {
				landed[pair.A] = struct{}{}
				res.Hits++
			}
			mark(pair.A)
		}
	}

	for _, e := range res.Destroyed {
		e.Destroy()
	}

	res.ScoreIncrease = res.Kills * s.rules.ScorePerKill
	res.PlanetDamage = res.Hits * s.rules.DamagePerHit
	res.GameOver = planetHealth-res.PlanetDamage <= 0
	return res
}
