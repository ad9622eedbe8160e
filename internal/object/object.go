// Package object defines the simulated entities: the player ship, asteroids and projectiles.
package object

import (
	"errors"
	"fmt"
	"math"

	"github.com/kingofdarck/idle-garden-sub001/internal/input"
	"github.com/kingofdarck/idle-garden-sub001/internal/physics"
)

// ErrNonFinite is returned by Update when an entity's position stops being a finite number.
var ErrNonFinite = errors.New("non-finite position")

// Kind tags the entity variant.
type Kind int

const (
	KindShip Kind = iota
	KindAsteroid
	KindProjectile
)

// String returns a short lowercase name for the kind.
func (k Kind) String() string {
	switch k {
	case KindShip:
		return "ship"
	case KindAsteroid:
		return "asteroid"
	case KindProjectile:
		return "projectile"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Vec2 is a 2D vector in world units.
type Vec2 struct {
	X, Y float64
}

// Size is a width/height pair in world units.
type Size struct {
	Width, Height float64
}

// Screen holds the playfield dimensions in world units.
type Screen struct {
	Width  float64
	Height float64
}

// Input is sampled once per tick by entities that react to keys.
type Input interface {
	IsKeyPressed(k input.Key) bool
}

// UpdateContext provides everything an entity needs during one tick.
// Delta and Now are milliseconds.
type UpdateContext struct {
	Delta  float64
	Now    float64
	Input  Input
	Screen Screen
}

// Entity is a moving, bounded object driven by the frame loop.
type Entity interface {
	// Kind returns the variant tag.
	Kind() Kind
	// Update advances the entity by ctx.Delta. Inactive entities do nothing.
	Update(ctx UpdateContext) error
	// Bounds returns the current axis-aligned bounds.
	Bounds() physics.Bounds
	// Destroy deactivates the entity. Calling it twice is a no-op.
	Destroy()
	// Active reports whether the entity still takes part in the simulation.
	Active() bool
	// IsOnScreen reports whether the bounds overlap the [0,w]x[0,h] area.
	IsOnScreen(w, h float64) bool
	// Base exposes the shared motion record.
	Base() *Body
}

// SpawnRequest describes an entity to create, either from a constructor or a pool.
type SpawnRequest struct {
	Kind Kind
	X, Y float64 // Top-left corner; projectiles use X as their center line and Y as their bottom edge
	// Asteroid only
	Size   AsteroidSize
	DriftX float64 // Horizontal velocity (units/ms)
	Speed  float64 // Overrides the default speed when > 0
}

// Body is the plain data record shared by all entities.
type Body struct {
	Position Vec2
	Velocity Vec2 // units per millisecond
	Size     Size
	active   bool
	kind     Kind
}

// NewBody creates an active body.
func NewBody(kind Kind, x, y, width, height float64) Body {
	return Body{
		Position: Vec2{X: x, Y: y},
		Size:     Size{Width: width, Height: height},
		active:   true,
		kind:     kind,
	}
}

// Base returns the body itself.
func (b *Body) Base() *Body {
	return b
}

// Kind returns the variant tag.
func (b *Body) Kind() Kind {
	return b.kind
}

// Active reports whether the body is still simulated.
func (b *Body) Active() bool {
	return b.active
}

// Destroy deactivates the body.
func (b *Body) Destroy() {
	b.active = false
}

// Advance integrates position by dt using the current velocity (Euler step).
func (b *Body) Advance(dt float64) {
	if !b.active {
		return
	}
	b.Position.X += b.Velocity.X * dt
	b.Position.Y += b.Velocity.Y * dt
}

// Update is the default behavior: move by velocity.
func (b *Body) Update(ctx UpdateContext) error {
	if !b.active {
		return nil
	}
	b.Advance(ctx.Delta)
	return b.checkFinite()
}

// Bounds returns the axis-aligned bounds.
func (b *Body) Bounds() physics.Bounds {
	return physics.NewBounds(b.Position.X, b.Position.Y, b.Size.Width, b.Size.Height)
}

// IsOnScreen reports whether any part of the body overlaps the screen.
func (b *Body) IsOnScreen(w, h float64) bool {
	return b.Bounds().WithinScreen(w, h)
}

// reset reactivates the body at a new position with zero velocity.
func (b *Body) reset(x, y float64) {
	b.Position = Vec2{X: x, Y: y}
	b.Velocity = Vec2{}
	b.active = true
}

func (b *Body) checkFinite() error {
	p := b.Position
	if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
		return fmt.Errorf("%s at (%v, %v): %w", b.kind, p.X, p.Y, ErrNonFinite)
	}
	return nil
}
