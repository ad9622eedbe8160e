// Package difficulty raises the level on a fixed interval and speeds up asteroid spawning.
package difficulty

import "math"

// Defaults, all times in milliseconds.
const (
	DefaultInterval     = 10000.0
	DefaultDecay        = 0.9
	DefaultMinSpawnRate = 500.0
	DefaultSpawnRate    = 2000.0
)

// Params configures a Controller.
type Params struct {
	Interval     float64 // Time between level increases
	Decay        float64 // Spawn rate multiplier per level, in (0, 1]
	MinSpawnRate float64 // Floor for SpawnRate
	SpawnRate    float64 // Initial time between asteroid spawns
}

// DefaultParams returns the standard progression.
func DefaultParams() Params {
	return Params{
		Interval:     DefaultInterval,
		Decay:        DefaultDecay,
		MinSpawnRate: DefaultMinSpawnRate,
		SpawnRate:    DefaultSpawnRate,
	}
}

// Controller tracks the level and current spawn rate.
type Controller struct {
	params Params

	Level        int
	SpawnRate    float64
	LastIncrease float64
}

// New creates a controller at level 1 whose first interval starts at start.
func New(p Params, start float64) *Controller {
	c := &Controller{params: p}
	c.Reset(start)
	return c
}

// Reset returns to level 1 with the initial spawn rate.
func (c *Controller) Reset(start float64) {
	c.Level = 1
	c.SpawnRate = math.Max(c.params.MinSpawnRate, c.params.SpawnRate)
	c.LastIncrease = start
}

// Params returns the configuration in use.
func (c *Controller) Params() Params {
	return c.params
}

// Update raises the level at most once if a full interval has passed since the
// last increase, and reports whether it did.
func (c *Controller) Update(now float64) bool {
	if now-c.LastIncrease < c.params.Interval {
		return false
	}
	c.Level++
	c.SpawnRate = math.Max(c.params.MinSpawnRate, c.SpawnRate*c.params.Decay)
	c.LastIncrease = now
	return true
}
