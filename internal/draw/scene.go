// Package draw renders engine snapshots to ANSI terminals using half-block pixels.
package draw

import (
	"math"

	"github.com/kingofdarck/idle-garden-sub001/internal/loop"
	"github.com/kingofdarck/idle-garden-sub001/internal/object"
)

// Scene palette.
const (
	ShipColor       = ColorCyan
	BoostColor      = ColorYellow
	AsteroidColor   = ColorWhite
	ProjectileColor = ColorYellow
	SurfaceColor    = ColorGreen
	DamagedColor    = ColorRed
)

// Scene clears c and draws the snapshot. Nothing but the surface is drawn before
// a game starts.
func Scene(c *Canvas, s *loop.Snapshot, maxHealth int) {
	c.Clear()
	if s == nil {
		return
	}

	drawSurface(c, s, maxHealth)
	if s.Phase == loop.PhaseLoading {
		return
	}

	for i := range s.Entities {
		v := &s.Entities[i]
		switch v.Kind {
		case object.KindAsteroid:
			c.SetColor(AsteroidColor)
			c.DrawPolygon(AsteroidPoints(*v, c.BorrowPoints(len(v.Outline))), false)
		case object.KindProjectile:
			c.SetColor(ProjectileColor)
			c.FillRect(v.X, v.Y, v.Width, v.Height)
		}
	}

	if s.Phase != loop.PhaseGameOver {
		drawShip(c, s)
	}
}

// drawSurface draws the planet along the bottom edge. The lit share of the
// surface follows the remaining health.
func drawSurface(c *Canvas, s *loop.Snapshot, maxHealth int) {
	y := s.Height - 1
	healthy := s.Width
	if maxHealth > 0 {
		healthy = s.Width * float64(min(max(s.State.PlanetHealth, 0), maxHealth)) / float64(maxHealth)
	}
	if healthy > 0 {
		c.SetColor(SurfaceColor)
		c.FillRect(0, y, healthy, 1)
	}
	if healthy < s.Width {
		c.SetColor(DamagedColor)
		c.FillRect(healthy, y, s.Width-healthy, 1)
	}
}

func drawShip(c *Canvas, s *loop.Snapshot) {
	v := s.Ship
	if v.Width == 0 {
		return
	}
	if s.Boost > 0 {
		// Exhaust under the hull
		c.SetColor(BoostColor)
		cx := v.X + v.Width/2
		c.DrawLine(Point{cx, v.Y + v.Height}, Point{cx, v.Y + v.Height + 1.5})
	}
	c.SetColor(ShipColor)
	c.DrawPolygon(ShipPoints(v, c.BorrowPoints(3)), true)
}

// ShipPoints writes the hull triangle, nose up, into dst (len >= 3).
func ShipPoints(v loop.EntityView, dst []Point) []Point {
	dst = dst[:3]
	dst[0] = Point{v.X + v.Width/2, v.Y}
	dst[1] = Point{v.X + v.Width, v.Y + v.Height}
	dst[2] = Point{v.X, v.Y + v.Height}
	return dst
}

// AsteroidPoints writes the rotated outline of an asteroid into dst, one vertex
// per outline radius. An asteroid without an outline is drawn as its bounding box.
func AsteroidPoints(v loop.EntityView, dst []Point) []Point {
	cx, cy := v.X+v.Width/2, v.Y+v.Height/2
	r := v.Width / 2

	if len(v.Outline) < 3 {
		if cap(dst) < 4 {
			dst = make([]Point, 4)
		}
		dst = dst[:4]
		dst[0] = Point{v.X, v.Y}
		dst[1] = Point{v.X + v.Width, v.Y}
		dst[2] = Point{v.X + v.Width, v.Y + v.Height}
		dst[3] = Point{v.X, v.Y + v.Height}
		return dst
	}

	n := len(v.Outline)
	dst = dst[:n]
	for i, k := range v.Outline {
		a := v.Angle + 2*math.Pi*float64(i)/float64(n)
		dst[i] = Point{cx + math.Cos(a)*r*k, cy + math.Sin(a)*r*k}
	}
	return dst
}
