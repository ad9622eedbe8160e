package draw

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kingofdarck/idle-garden-sub001/internal/loop"
	"github.com/kingofdarck/idle-garden-sub001/internal/object"
)

// unitCanvas maps one logical unit to one pixel.
func unitCanvas(cols, rows int) *Canvas {
	return NewScaledCanvas(cols, rows, float64(cols), float64(rows*2))
}

func render(t *testing.T, c *Canvas) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func TestPlotAndFillRect(t *testing.T) {
	c := unitCanvas(10, 5)
	c.Plot(2, 3)
	if c.Pixel(2, 3) != ColorWhite {
		t.Errorf("expected plotted pixel to be lit")
	}
	if c.Pixel(-1, 0) != ColorNone || c.Pixel(10, 0) != ColorNone {
		t.Errorf("expected out-of-range pixels to be unlit")
	}

	c.SetColor(ColorRed)
	c.FillRect(5.2, 5.2, 0.1, 0.1)
	if c.Pixel(5, 5) != ColorRed {
		t.Errorf("expected tiny rect to light one pixel")
	}

	c.Clear()
	if c.Pixel(2, 3) != ColorNone {
		t.Errorf("expected Clear to unset pixels")
	}
}

func TestDrawLineAndPolygon(t *testing.T) {
	c := unitCanvas(10, 5)
	c.DrawLine(Point{0, 0}, Point{4, 4})
	for i := 0; i <= 4; i++ {
		if c.Pixel(i, i) == ColorNone {
			t.Errorf("expected diagonal pixel (%d,%d)", i, i)
		}
	}

	c.Clear()
	square := []Point{{1, 1}, {5, 1}, {5, 5}, {1, 5}}
	c.DrawPolygon(square, false)
	if c.Pixel(3, 3) != ColorNone {
		t.Errorf("expected outline only")
	}
	c.DrawPolygon(square, true)
	if c.Pixel(3, 3) == ColorNone {
		t.Errorf("expected filled interior")
	}
}

func TestRenderOnlyWritesChangedCells(t *testing.T) {
	c := unitCanvas(10, 5)
	c.Plot(0, 0)

	first := render(t, c)
	if !strings.Contains(first, string(BlockUpperHalf)) {
		t.Fatalf("expected upper half block in first frame")
	}
	if got := render(t, c); got != "" {
		t.Errorf("expected no output for an unchanged frame, got %q", got)
	}

	c.Clear()
	want := "\033[1;1H\033[39;49m \033[0m"
	if got := render(t, c); got != want {
		t.Errorf("expected erase of one cell %q, got %q", want, got)
	}
}

func TestRenderMixedCellColors(t *testing.T) {
	c := unitCanvas(4, 2)
	c.SetColor(ColorRed)
	c.Plot(0, 0)
	c.SetColor(ColorGreen)
	c.Plot(0, 1)

	if out := render(t, c); !strings.Contains(out, "\033[91;102m"+string(BlockUpperHalf)) {
		t.Errorf("expected red over green half block, got %q", out)
	}
}

func TestMarkTextDirtyAndOffset(t *testing.T) {
	c := unitCanvas(4, 2)
	render(t, c)

	c.MarkTextDirty(1, 1, 2)
	out := render(t, c)
	if !strings.Contains(out, "\033[1;1H") || !strings.Contains(out, "\033[1;2H") || strings.Contains(out, "\033[1;3H") {
		t.Errorf("expected exactly the dirty cells rewritten, got %q", out)
	}

	c.SetOffset(3, 2)
	if out := render(t, c); !strings.HasPrefix(out, "\033[3;4H") {
		t.Errorf("expected offset applied and full redraw, got %q", out)
	}
}

type countingWriter struct {
	writes, largest int
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.writes++
	w.largest = max(w.largest, len(p))
	return len(p), nil
}

func TestRenderChunks(t *testing.T) {
	c := unitCanvas(200, 50)
	c.FillRect(0, 0, 200, 100)

	var w countingWriter
	if err := c.Render(&w); err != nil {
		t.Fatal(err)
	}
	if w.writes < 2 || w.largest > maxChunkSize {
		t.Errorf("expected several writes of at most %d bytes, got %d writes, largest %d", maxChunkSize, w.writes, w.largest)
	}
}

func TestChunkWriterOffset(t *testing.T) {
	var buf bytes.Buffer
	cw := NewChunkWriter(&buf, 2, 3)
	cw.WriteAt(1, 1, "hi")
	if err := cw.Flush(); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "\033[4;3Hhi" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		name         string
		termW, termH int
		want         Layout
	}{
		{"large terminal is centered", 200, 60, Layout{Width: 120, Height: 40, OffsetCol: 40, OffsetRow: 9}},
		{"small terminal is filled", 80, 20, Layout{Width: 80, Height: 18}},
		{"degenerate terminal", 0, 0, Layout{Width: 1, Height: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fit(tt.termW, tt.termH, 120, 40, 2); got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func testSnapshot(phase loop.Phase) *loop.Snapshot {
	return &loop.Snapshot{
		Phase:  phase,
		State:  loop.GameState{PlanetHealth: 50},
		Width:  120,
		Height: 80,
		Ship:   loop.EntityView{Kind: object.KindShip, X: 56, Y: 73, Width: 7, Height: 5},
		Entities: []loop.EntityView{
			{Kind: object.KindAsteroid, X: 50, Y: 20, Width: 9, Height: 9, Outline: []float64{1, 1, 1, 1, 1, 1}},
			{Kind: object.KindProjectile, X: 10, Y: 30, Width: 1, Height: 2},
		},
	}
}

func TestScene(t *testing.T) {
	c := NewScaledCanvas(120, 40, 120, 80)
	Scene(c, testSnapshot(loop.PhaseRunning), 100)

	checks := []struct {
		name string
		x, y int
		want Color
	}{
		{"healthy surface", 10, 79, SurfaceColor},
		{"damaged surface", 100, 79, DamagedColor},
		{"asteroid vertex", 58, 24, AsteroidColor},
		{"asteroid hollow center", 54, 24, ColorNone},
		{"projectile", 10, 31, ProjectileColor},
		{"ship nose", 59, 73, ShipColor},
		{"ship hull", 59, 76, ShipColor},
	}
	for _, ck := range checks {
		if got := c.Pixel(ck.x, ck.y); got != ck.want {
			t.Errorf("%s: expected color %d at (%d,%d), got %d", ck.name, ck.want, ck.x, ck.y, got)
		}
	}
}

func TestSceneByPhase(t *testing.T) {
	c := NewScaledCanvas(120, 40, 120, 80)

	Scene(c, testSnapshot(loop.PhaseGameOver), 100)
	if c.Pixel(59, 73) != ColorNone {
		t.Errorf("expected no ship after game over")
	}
	if c.Pixel(58, 24) == ColorNone {
		t.Errorf("expected asteroids to stay visible after game over")
	}

	Scene(c, testSnapshot(loop.PhaseLoading), 100)
	if c.Pixel(58, 24) != ColorNone || c.Pixel(10, 79) == ColorNone {
		t.Errorf("expected only the surface before a game starts")
	}

	Scene(c, nil, 100)
	if c.Pixel(10, 79) != ColorNone {
		t.Errorf("expected nil snapshot to clear the canvas")
	}
}

func TestAsteroidPointsWithoutOutline(t *testing.T) {
	v := loop.EntityView{Kind: object.KindAsteroid, X: 1, Y: 2, Width: 4, Height: 4}
	pts := AsteroidPoints(v, nil)
	if len(pts) != 4 || pts[2] != (Point{5, 6}) {
		t.Errorf("expected bounding box, got %v", pts)
	}
}
