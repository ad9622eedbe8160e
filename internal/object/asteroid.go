package object

import (
	"math"
	"math/rand"
)

// AsteroidSize represents the size category of an asteroid.
type AsteroidSize int

const (
	AsteroidSmall  AsteroidSize = 1
	AsteroidMedium AsteroidSize = 2
	AsteroidLarge  AsteroidSize = 3
)

// Edge length of the square bounds for each size.
var asteroidDims = map[AsteroidSize]float64{
	AsteroidSmall:  4.0,
	AsteroidMedium: 6.0,
	AsteroidLarge:  9.0,
}

// Fall speed (units/ms) for each size. Small rocks fall faster.
var asteroidSpeeds = map[AsteroidSize]float64{
	AsteroidSmall:  0.030,
	AsteroidMedium: 0.020,
	AsteroidLarge:  0.012,
}

// MaxAsteroidDim is the largest asteroid edge; broad-phase cells must be at least this big.
const MaxAsteroidDim = 9.0

// AsteroidDim returns the edge length for a size, defaulting to medium.
func AsteroidDim(size AsteroidSize) float64 {
	if d, ok := asteroidDims[size]; ok {
		return d
	}
	return asteroidDims[AsteroidMedium]
}

// AsteroidSpeed returns the default fall speed for a size, defaulting to medium.
func AsteroidSpeed(size AsteroidSize) float64 {
	if s, ok := asteroidSpeeds[size]; ok {
		return s
	}
	return asteroidSpeeds[AsteroidMedium]
}

// Asteroid is a rock falling toward the planet at the bottom of the screen.
type Asteroid struct {
	Body
	SizeClass    AsteroidSize
	ScreenHeight float64

	// Irregular outline for renderers: vertex distances from the center, as a
	// fraction of the radius. Generated once per instance and kept across reuse.
	Outline []float64
	Angle   float64
	Spin    float64 // radians per millisecond
}

// NewAsteroid creates an asteroid with its top-left corner at (x, y).
func NewAsteroid(x, y float64, size AsteroidSize, screenHeight float64) *Asteroid {
	a := &Asteroid{}
	a.Reset(SpawnRequest{Kind: KindAsteroid, X: x, Y: y, Size: size}, screenHeight)
	return a
}

// Reset reinitializes a pooled asteroid from a spawn request.
func (a *Asteroid) Reset(req SpawnRequest, screenHeight float64) {
	size := req.Size
	if _, ok := asteroidDims[size]; !ok {
		size = AsteroidMedium
	}
	dim := AsteroidDim(size)

	speed := req.Speed
	if speed <= 0 {
		speed = AsteroidSpeed(size)
	}

	a.Body = NewBody(KindAsteroid, req.X, req.Y, dim, dim)
	a.Velocity = Vec2{X: req.DriftX, Y: speed}
	a.SizeClass = size
	a.ScreenHeight = screenHeight

	if len(a.Outline) == 0 {
		// 8-12 vertices with ±30% radius variation
		n := 8 + rand.Intn(5)
		a.Outline = make([]float64, n)
		for i := range a.Outline {
			a.Outline[i] = 0.7 + rand.Float64()*0.6
		}
	}
	a.Angle = rand.Float64() * 2 * math.Pi
	a.Spin = (rand.Float64() - 0.5) * 0.002
}

// Update moves and rotates the asteroid.
// Reaching the bottom is resolved by the collision system, not here.
func (a *Asteroid) Update(ctx UpdateContext) error {
	if !a.active {
		return nil
	}
	a.Advance(ctx.Delta)
	a.Angle += a.Spin * ctx.Delta
	return a.checkFinite()
}

// HasReachedBottom reports whether the asteroid has hit the planet surface.
func (a *Asteroid) HasReachedBottom() bool {
	return a.Position.Y >= a.ScreenHeight
}

// Radius returns half the edge length, used for drawing the outline.
func (a *Asteroid) Radius() float64 {
	return a.Size.Width / 2
}
