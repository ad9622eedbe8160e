package draw

import (
	"io"
	"math"
	"sort"
	"strconv"
)

// Color is a pen color. ColorNone is an unlit pixel.
type Color uint8

const (
	ColorNone Color = iota
	ColorWhite
	ColorGray
	ColorRed
	ColorGreen
	ColorYellow
	ColorCyan
	ColorMagenta
	colorCount
)

// ANSI foreground codes per color; background is +10.
var colorCodes = [colorCount]int{
	ColorNone:    39,
	ColorWhite:   97,
	ColorGray:    90,
	ColorRed:     91,
	ColorGreen:   92,
	ColorYellow:  93,
	ColorCyan:    96,
	ColorMagenta: 95,
}

// Escape sequences used by text overlays.
const (
	ColorReset      = "\033[0m"
	ColorBrightCyan = "\033[96m"
	ColorBrightRed  = "\033[91m"
	ColorBrightYel  = "\033[93m"
)

// Point represents a 2D coordinate.
type Point struct {
	X, Y float64
}

// Block characters for drawing.
const (
	BlockFull      = '█'
	BlockUpperHalf = '▀'
	BlockLowerHalf = '▄'
)

// maxChunkSize is the maximum bytes to write at once for optimal network flow.
// 1500 bytes matches typical MTU size for smooth SSH/network transmission.
const maxChunkSize = 1400

// staleCell never matches a real cell, forcing a rewrite.
const staleCell = 0xFF

// Canvas is a drawing buffer with 2x vertical resolution using half-block characters.
// It scales logical coordinates to terminal pixels and only re-emits cells that
// changed since the previous Render.
type Canvas struct {
	termWidth      int     // Actual terminal columns
	termHeight     int     // Actual terminal rows
	subPixelHeight int     // termHeight * 2
	pixels         []Color // Flat slice: [y * termWidth + x]
	prev           []uint8 // Cell codes written by the last Render, one per column/row

	logicalWidth  float64
	logicalHeight float64
	scaleX        float64 // termWidth / logicalWidth
	scaleY        float64 // (termHeight*2) / logicalHeight

	// 0-based terminal offsets for centering the render area
	offsetCol int
	offsetRow int

	pen Color

	renderBuf       []byte
	scaledBuf       []Point
	intersectionBuf []float64
	polygonBuf      []Point
}

// NewScaledCanvas creates a canvas that scales from logical coordinates to terminal pixels.
func NewScaledCanvas(termWidth, termHeight int, logicalWidth, logicalHeight float64) *Canvas {
	c := &Canvas{logicalWidth: logicalWidth, logicalHeight: logicalHeight, pen: ColorWhite}
	c.Resize(termWidth, termHeight)
	return c
}

// Resize updates the canvas for new terminal dimensions while keeping logical size.
// A size change forces a full redraw.
func (c *Canvas) Resize(termWidth, termHeight int) {
	termWidth = max(termWidth, 1)
	termHeight = max(termHeight, 1)
	if termWidth != c.termWidth || termHeight != c.termHeight {
		c.termWidth = termWidth
		c.termHeight = termHeight
		c.subPixelHeight = termHeight * 2
		c.pixels = make([]Color, c.subPixelHeight*termWidth)
		c.prev = make([]uint8, termHeight*termWidth)
		c.ForceRedraw()
	}
	c.scaleX = float64(termWidth) / c.logicalWidth
	c.scaleY = float64(c.subPixelHeight) / c.logicalHeight
}

// SetOffset sets the column and row offset for centering the canvas.
func (c *Canvas) SetOffset(col, row int) {
	if col != c.offsetCol || row != c.offsetRow {
		c.ForceRedraw()
	}
	c.offsetCol = col
	c.offsetRow = row
}

// OffsetCol returns the column offset used for centering.
func (c *Canvas) OffsetCol() int {
	return c.offsetCol
}

// OffsetRow returns the row offset used for centering.
func (c *Canvas) OffsetRow() int {
	return c.offsetRow
}

// Clear unsets all pixels. The previous frame is kept for diffing.
func (c *Canvas) Clear() {
	clear(c.pixels)
}

// ForceRedraw makes the next Render write every cell, e.g. after the screen was cleared.
func (c *Canvas) ForceRedraw() {
	for i := range c.prev {
		c.prev[i] = staleCell
	}
}

// MarkTextDirty makes the next Render rewrite n cells starting at the 1-based
// canvas position (col, row), erasing text drawn over the canvas.
func (c *Canvas) MarkTextDirty(col, row, n int) {
	r := row - 1
	if r < 0 || r >= c.termHeight {
		return
	}
	for x := max(col-1, 0); x < min(col-1+n, c.termWidth); x++ {
		c.prev[r*c.termWidth+x] = staleCell
	}
}

// SetColor selects the pen for subsequent drawing.
func (c *Canvas) SetColor(col Color) {
	if col >= colorCount {
		col = ColorWhite
	}
	c.pen = col
}

// Pixel returns the color at pixel coordinates, ColorNone outside the canvas.
func (c *Canvas) Pixel(x, y int) Color {
	if x < 0 || x >= c.termWidth || y < 0 || y >= c.subPixelHeight {
		return ColorNone
	}
	return c.pixels[y*c.termWidth+x]
}

func (c *Canvas) setPixel(x, y int) {
	if x >= 0 && x < c.termWidth && y >= 0 && y < c.subPixelHeight {
		c.pixels[y*c.termWidth+x] = c.pen
	}
}

// ToPixel converts logical coordinates to pixel coordinates.
func (c *Canvas) ToPixel(x, y float64) (int, int) {
	return int(math.Floor(x * c.scaleX)), int(math.Floor(y * c.scaleY))
}

// Plot sets the pixel under a logical point.
func (c *Canvas) Plot(x, y float64) {
	c.setPixel(c.ToPixel(x, y))
}

// FillRect fills a logical rectangle, lighting at least one pixel.
func (c *Canvas) FillRect(x, y, w, h float64) {
	x0, y0 := c.ToPixel(x, y)
	x1 := int(math.Ceil((x+w)*c.scaleX)) - 1
	y1 := int(math.Ceil((y+h)*c.scaleY)) - 1
	for py := y0; py <= max(y1, y0); py++ {
		for px := x0; px <= max(x1, x0); px++ {
			c.setPixel(px, py)
		}
	}
}

// DrawLine draws a line between logical points using Bresenham's algorithm.
func (c *Canvas) DrawLine(p1, p2 Point) {
	x1, y1 := c.ToPixel(p1.X, p1.Y)
	x2, y2 := c.ToPixel(p2.X, p2.Y)

	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy
	for {
		c.setPixel(x1, y1)
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// DrawPolygon draws a closed polygon, optionally filled with a scanline pass.
func (c *Canvas) DrawPolygon(points []Point, filled bool) {
	if len(points) < 3 {
		return
	}
	if filled {
		c.fillPolygon(points)
	}
	n := len(points)
	for i := 0; i < n; i++ {
		c.DrawLine(points[i], points[(i+1)%n])
	}
}

// fillPolygon fills in pixel space so scaling does not leave gaps.
func (c *Canvas) fillPolygon(points []Point) {
	if cap(c.scaledBuf) < len(points) {
		c.scaledBuf = make([]Point, len(points))
	}
	scaled := c.scaledBuf[:len(points)]
	minY, maxY := math.Inf(1), math.Inf(-1)
	for i, p := range points {
		scaled[i] = Point{X: p.X * c.scaleX, Y: p.Y * c.scaleY}
		minY = math.Min(minY, scaled[i].Y)
		maxY = math.Max(maxY, scaled[i].Y)
	}

	yStart := max(int(math.Floor(minY)), 0)
	yEnd := min(int(math.Ceil(maxY)), c.subPixelHeight-1)
	for y := yStart; y <= yEnd; y++ {
		scanY := float64(y) + 0.5
		xs := c.intersectionBuf[:0]
		for i := range scaled {
			p1, p2 := scaled[i], scaled[(i+1)%len(scaled)]
			if (p1.Y <= scanY && p2.Y > scanY) || (p2.Y <= scanY && p1.Y > scanY) {
				t := (scanY - p1.Y) / (p2.Y - p1.Y)
				xs = append(xs, p1.X+t*(p2.X-p1.X))
			}
		}
		c.intersectionBuf = xs
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			for x := int(math.Ceil(xs[i])); x <= int(math.Floor(xs[i+1])); x++ {
				c.setPixel(x, y)
			}
		}
	}
}

// BorrowPoints returns a reusable slice of n Points, valid until the next call.
func (c *Canvas) BorrowPoints(n int) []Point {
	if cap(c.polygonBuf) < n {
		c.polygonBuf = make([]Point, n)
	}
	return c.polygonBuf[:n]
}

// cellCode packs the two half-pixel colors of a terminal cell.
func cellCode(top, bottom Color) uint8 {
	return uint8(top)<<4 | uint8(bottom)
}

// Render writes the cells that changed since the last Render using half-block
// characters, in chunks sized for network writes.
func (c *Canvas) Render(w io.Writer) error {
	buf := c.renderBuf[:0]
	var fg, bg = -1, -1

	for row := 0; row < c.termHeight; row++ {
		topOff := row * 2 * c.termWidth
		botOff := topOff + c.termWidth
		for col := 0; col < c.termWidth; col++ {
			top, bottom := c.pixels[topOff+col], c.pixels[botOff+col]
			code := cellCode(top, bottom)
			idx := row*c.termWidth + col
			if c.prev[idx] == code {
				continue
			}
			c.prev[idx] = code

			buf = append(buf, "\033["...)
			buf = strconv.AppendInt(buf, int64(row+1+c.offsetRow), 10)
			buf = append(buf, ';')
			buf = strconv.AppendInt(buf, int64(col+1+c.offsetCol), 10)
			buf = append(buf, 'H')

			var ch rune
			wantFg, wantBg := colorCodes[ColorNone], colorCodes[ColorNone]+10
			switch {
			case top == ColorNone && bottom == ColorNone:
				ch = ' '
			case top == bottom:
				ch, wantFg = BlockFull, colorCodes[top]
			case bottom == ColorNone:
				ch, wantFg = BlockUpperHalf, colorCodes[top]
			case top == ColorNone:
				ch, wantFg = BlockLowerHalf, colorCodes[bottom]
			default:
				ch, wantFg, wantBg = BlockUpperHalf, colorCodes[top], colorCodes[bottom]+10
			}
			if wantFg != fg || wantBg != bg {
				buf = append(buf, "\033["...)
				buf = strconv.AppendInt(buf, int64(wantFg), 10)
				buf = append(buf, ';')
				buf = strconv.AppendInt(buf, int64(wantBg), 10)
				buf = append(buf, 'm')
				fg, bg = wantFg, wantBg
			}
			buf = append(buf, string(ch)...)
		}
	}
	if fg != -1 {
		buf = append(buf, ColorReset...)
	}
	c.renderBuf = buf

	for len(buf) > 0 {
		n := min(len(buf), maxChunkSize)
		if _, err := w.Write(buf[:n]); err != nil {
			return err
		}
		buf = buf[n:]
	}
	return nil
}

// RenderBorder draws a box around the canvas area when the terminal exceeds
// the render resolution on either axis.
func (c *Canvas) RenderBorder(cw *ChunkWriter) {
	hasH := c.offsetCol >= 1 // Room for left/right bars
	hasV := c.offsetRow >= 1 // Room for top/bottom bars

	// Relative to the canvas origin; the ChunkWriter adds the offset.
	left, right := 0, c.termWidth+1
	top, bottom := 0, c.termHeight+1

	line := make([]rune, c.termWidth)
	for i := range line {
		line[i] = '─'
	}
	if hasV {
		if hasH {
			cw.WriteAt(left, top, "┌"+string(line)+"┐")
			cw.WriteAt(left, bottom, "└"+string(line)+"┘")
		} else {
			cw.WriteAt(1, top, string(line))
			cw.WriteAt(1, bottom, string(line))
		}
	}
	if hasH {
		for row := 1; row <= c.termHeight; row++ {
			cw.WriteAt(left, row, "│")
			cw.WriteAt(right, row, "│")
		}
	}
}

// TerminalWidth returns the canvas column count.
func (c *Canvas) TerminalWidth() int {
	return c.termWidth
}

// TerminalHeight returns the canvas row count.
func (c *Canvas) TerminalHeight() int {
	return c.termHeight
}

// LogicalToTerminal converts logical coordinates to a 1-based canvas cell (col, row).
func (c *Canvas) LogicalToTerminal(x, y float64) (col, row int) {
	px, py := c.ToPixel(x, y)
	return px + 1, py/2 + 1
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
