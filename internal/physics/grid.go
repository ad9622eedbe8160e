package physics

import "math"

// SpatialGrid is a uniform grid for broad-phase collision detection on a bounded screen.
// Items are inserted by the center of their bounds and an index, then candidates
// are gathered from the 3x3 cell neighborhood around a query point.
//
// Cell size must be >= the largest dimension of any inserted rectangle so that
// every overlapping pair lands in adjacent cells. Positions outside the screen
// clamp to the edge cells, which keeps that guarantee for off-screen entities.
type SpatialGrid struct {
	cellSize    float64
	invCellSize float64
	cols        int
	rows        int
	cells       []gridCell
}

// gridCell stores item indices. The slice is reused between frames.
type gridCell struct {
	items []int
}

// NewSpatialGrid creates a grid covering a width x height area.
func NewSpatialGrid(width, height, cellSize float64) *SpatialGrid {
	if cellSize <= 0 {
		cellSize = 1
	}
	cols := int(math.Ceil(width / cellSize))
	rows := int(math.Ceil(height / cellSize))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	return &SpatialGrid{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cols:        cols,
		rows:        rows,
		cells:       make([]gridCell, cols*rows),
	}
}

// CellSize returns the configured cell size.
func (g *SpatialGrid) CellSize() float64 {
	return g.cellSize
}

// Clear removes all items without releasing cell memory.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i].items = g.cells[i].items[:0]
	}
}

// Insert adds an item at the given position.
func (g *SpatialGrid) Insert(x, y float64, index int) {
	col, row := g.posToCell(x, y)
	idx := row*g.cols + col
	g.cells[idx].items = append(g.cells[idx].items, index)
}

// QueryAround calls fn for each item in the 3x3 neighborhood of (x, y).
// Neighbors past the grid edge are skipped, so an item is visited at most once.
// Iteration stops early when fn returns true.
func (g *SpatialGrid) QueryAround(x, y float64, fn func(index int) bool) {
	col, row := g.posToCell(x, y)

	for r := row - 1; r <= row+1; r++ {
		if r < 0 || r >= g.rows {
			continue
		}
		rowOffset := r * g.cols
		for c := col - 1; c <= col+1; c++ {
			if c < 0 || c >= g.cols {
				continue
			}
			for _, itemIdx := range g.cells[rowOffset+c].items {
				if fn(itemIdx) {
					return
				}
			}
		}
	}
}

// posToCell converts a position to clamped cell coordinates.
func (g *SpatialGrid) posToCell(x, y float64) (col, row int) {
	col = clampIndex(math.Floor(x*g.invCellSize), g.cols)
	row = clampIndex(math.Floor(y*g.invCellSize), g.rows)
	return col, row
}

func clampIndex(v float64, n int) int {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v >= float64(n) {
		return n - 1
	}
	return int(v)
}
