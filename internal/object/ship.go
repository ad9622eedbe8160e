package object

import (
	"github.com/kingofdarck/idle-garden-sub001/internal/input"
	"github.com/kingofdarck/idle-garden-sub001/internal/physics"
)

// Ship defaults. Speeds are units per millisecond, times are milliseconds.
const (
	ShipWidth        = 7.0
	ShipHeight       = 5.0
	ShipSpeed        = 0.06
	ShipFireRate     = 250.0
	MultiShotSpacing = 3.0 // Horizontal gap between parallel shots
)

// Ship is the player-controlled defender. It moves freely but never leaves the screen.
type Ship struct {
	Body

	Speed        float64 // Movement speed (units/ms)
	FireRate     float64 // Minimum milliseconds between shots
	MultiShot    int     // Projectiles per shot (>= 1)
	ScreenWidth  float64
	ScreenHeight float64

	lastFireTime float64

	// Temporary speed boost; restored once Now reaches boostUntil
	boostFactor float64
	boostUntil  float64
}

// NewShip creates a ship at (x, y) confined to a screen of the given size.
func NewShip(x, y, screenWidth, screenHeight float64) *Ship {
	s := &Ship{
		Body:         NewBody(KindShip, x, y, ShipWidth, ShipHeight),
		Speed:        ShipSpeed,
		FireRate:     ShipFireRate,
		MultiShot:    1,
		ScreenWidth:  screenWidth,
		ScreenHeight: screenHeight,
	}
	s.EnforceScreenBounds()
	return s
}

// Update steers from input, moves, and clamps to the screen.
func (s *Ship) Update(ctx UpdateContext) error {
	if !s.active {
		return nil
	}

	if s.boostFactor != 0 && ctx.Now >= s.boostUntil {
		s.boostFactor = 0
	}

	s.Steer(ctx.Input)
	s.Advance(ctx.Delta)
	s.EnforceScreenBounds()
	return s.checkFinite()
}

// Steer sets the velocity from the four direction keys.
// Opposite keys are not exclusive; pressing both cancels out.
func (s *Ship) Steer(in Input) {
	s.Velocity = Vec2{}
	if in == nil {
		return
	}

	speed := s.CurrentSpeed()
	if in.IsKeyPressed(input.KeyLeft) {
		s.Velocity.X -= speed
	}
	if in.IsKeyPressed(input.KeyRight) {
		s.Velocity.X += speed
	}
	if in.IsKeyPressed(input.KeyUp) {
		s.Velocity.Y -= speed
	}
	if in.IsKeyPressed(input.KeyDown) {
		s.Velocity.Y += speed
	}
}

// EnforceScreenBounds clamps the position to [0, W-width] x [0, H-height].
func (s *Ship) EnforceScreenBounds() {
	s.Position.X = physics.Clamp(s.Position.X, 0, s.ScreenWidth-s.Size.Width)
	s.Position.Y = physics.Clamp(s.Position.Y, 0, s.ScreenHeight-s.Size.Height)
}

// TryFire returns projectile spawn requests if the fire rate allows a shot at now.
// The gate is inclusive: a shot exactly FireRate after the previous one fires.
func (s *Ship) TryFire(now float64) []SpawnRequest {
	if !s.active || now-s.lastFireTime < s.FireRate {
		return nil
	}
	s.lastFireTime = now

	count := s.MultiShot
	if count < 1 {
		count = 1
	}

	b := s.Bounds()
	shots := make([]SpawnRequest, count)
	for i := range shots {
		offset := (float64(i) - float64(count-1)/2) * MultiShotSpacing
		shots[i] = SpawnRequest{
			Kind: KindProjectile,
			X:    b.CenterX + offset,
			Y:    b.Top,
		}
	}
	return shots
}

// LastFireTime returns the timestamp of the last successful shot.
func (s *Ship) LastFireTime() float64 {
	return s.lastFireTime
}

// Boost multiplies the ship speed by factor until now+duration.
// A new boost replaces the running one.
func (s *Ship) Boost(factor, now, duration float64) {
	if factor <= 0 || duration <= 0 {
		return
	}
	s.boostFactor = factor
	s.boostUntil = now + duration
}

// Boosted reports whether a speed boost is in effect.
func (s *Ship) Boosted() bool {
	return s.boostFactor != 0
}

// BoostRemaining returns milliseconds left on the boost at now.
func (s *Ship) BoostRemaining(now float64) float64 {
	if s.boostFactor == 0 || now >= s.boostUntil {
		return 0
	}
	return s.boostUntil - now
}

// CurrentSpeed returns the speed including any active boost.
func (s *Ship) CurrentSpeed() float64 {
	if s.boostFactor != 0 {
		return s.Speed * s.boostFactor
	}
	return s.Speed
}
