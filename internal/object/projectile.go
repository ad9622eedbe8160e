package object

// Projectile defaults.
const (
	ProjectileWidth  = 1.0
	ProjectileHeight = 2.0
	ProjectileSpeed  = 0.12 // units/ms, upward
)

// Projectile is a shot fired straight up by the ship.
type Projectile struct {
	Body
	Speed float64
}

// NewProjectile creates a projectile centered on x with its bottom edge at y.
func NewProjectile(x, y, speed float64) *Projectile {
	p := &Projectile{}
	p.Reset(x, y, speed)
	return p
}

// Reset reinitializes a pooled projectile.
func (p *Projectile) Reset(x, y, speed float64) {
	if speed <= 0 {
		speed = ProjectileSpeed
	}
	p.Body = NewBody(KindProjectile, x-ProjectileWidth/2, y-ProjectileHeight, ProjectileWidth, ProjectileHeight)
	p.Speed = speed
	p.Velocity = Vec2{X: 0, Y: -speed}
}

// Update moves the projectile and destroys it once it has left through the top.
func (p *Projectile) Update(ctx UpdateContext) error {
	if !p.active {
		return nil
	}
	p.Advance(ctx.Delta)
	if p.HasReachedTop() {
		p.Destroy()
	}
	return p.checkFinite()
}

// HasReachedTop reports whether the projectile is fully above the screen.
func (p *Projectile) HasReachedTop() bool {
	return p.Position.Y+p.Size.Height < 0
}
