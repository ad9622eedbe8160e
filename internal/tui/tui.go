// Package tui runs a local game in a tcell screen.
package tui

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gdamore/tcell/v2"

	"github.com/kingofdarck/idle-garden-sub001/internal/draw"
	"github.com/kingofdarck/idle-garden-sub001/internal/input"
	"github.com/kingofdarck/idle-garden-sub001/internal/loop"
	"github.com/kingofdarck/idle-garden-sub001/internal/loop/config"
	"github.com/kingofdarck/idle-garden-sub001/internal/notify"
)

// holdDuration is how long a key counts as held after its last repeat.
// Terminals report no key releases.
const holdDuration = 150 * time.Millisecond

var cellColors = map[draw.Color]tcell.Color{
	draw.ColorWhite:   tcell.ColorWhite,
	draw.ColorGray:    tcell.ColorGray,
	draw.ColorRed:     tcell.ColorRed,
	draw.ColorGreen:   tcell.ColorGreen,
	draw.ColorYellow:  tcell.ColorYellow,
	draw.ColorCyan:    tcell.ColorAqua,
	draw.ColorMagenta: tcell.ColorFuchsia,
}

var toastStyles = [...]tcell.Style{
	notify.Info:    tcell.StyleDefault,
	notify.Success: tcell.StyleDefault.Foreground(tcell.ColorAqua).Bold(true),
	notify.Warning: tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true),
	notify.Error:   tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true),
}

// KeyTracker turns key events into held-key state.
type KeyTracker struct {
	lastSeen map[input.Key]time.Time
}

// NewKeyTracker creates an empty tracker.
func NewKeyTracker() *KeyTracker {
	return &KeyTracker{lastSeen: make(map[input.Key]time.Time)}
}

// Press records k as seen at now.
func (t *KeyTracker) Press(k input.Key, now time.Time) {
	t.lastSeen[k] = now
}

// State returns the keys seen within the hold window.
func (t *KeyTracker) State(now time.Time) input.State {
	var st input.State
	for k, seen := range t.lastSeen {
		if now.Sub(seen) < holdDuration {
			st.Press(k)
		}
	}
	return st
}

// Reset forgets all keys.
func (t *KeyTracker) Reset() {
	clear(t.lastSeen)
}

// KeyFor maps a tcell key event to a game key.
func KeyFor(ev *tcell.EventKey) (input.Key, bool) {
	switch ev.Key() {
	case tcell.KeyLeft:
		return input.KeyLeft, true
	case tcell.KeyRight:
		return input.KeyRight, true
	case tcell.KeyUp:
		return input.KeyUp, true
	case tcell.KeyDown:
		return input.KeyDown, true
	case tcell.KeyEnter:
		return input.KeyEnter, true
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return input.KeyQuit, true
	case tcell.KeyRune:
		return input.KeyForRune(ev.Rune())
	}
	return 0, false
}

// Options configures a Frontend.
type Options struct {
	Logger  *log.Logger
	OnEvent func(loop.Event) // Called for every engine event, e.g. for sound
}

// Frontend draws an engine into a tcell screen and feeds it keyboard input.
type Frontend struct {
	screen    tcell.Screen
	engine    *loop.Engine
	canvas    *draw.Canvas
	keys      *KeyTracker
	toasts    *notify.Board
	onEvent   func(loop.Event)
	logger    *log.Logger
	maxHealth int
	quit      bool
}

// New creates a frontend for an initialized screen.
func New(screen tcell.Screen, engine *loop.Engine, maxHealth int, opts Options) *Frontend {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	snap := engine.Snapshot()
	f := &Frontend{
		screen:    screen,
		engine:    engine,
		canvas:    draw.NewScaledCanvas(1, 1, snap.Width, snap.Height),
		keys:      NewKeyTracker(),
		toasts:    notify.NewDefaultBoard(),
		onEvent:   opts.OnEvent,
		logger:    logger,
		maxHealth: maxHealth,
	}
	f.resize()
	return f
}

// Quit reports whether the player asked to leave.
func (f *Frontend) Quit() bool {
	return f.quit
}

func (f *Frontend) resize() {
	w, h := f.screen.Size()
	l := draw.Fit(w, h, config.MaxTermWidth, config.MaxTermHeight, config.HUDRows)
	f.canvas.Resize(l.Width, l.Height)
	f.canvas.SetOffset(l.OffsetCol, l.OffsetRow)
}

// HandleEvent applies one tcell event at now.
func (f *Frontend) HandleEvent(ev tcell.Event, now time.Time) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		k, ok := KeyFor(ev)
		if !ok {
			return
		}
		if k == input.KeyQuit {
			f.quit = true
			return
		}
		f.keys.Press(k, now)
	case *tcell.EventResize:
		f.resize()
		f.screen.Sync()
	}
}

// Step ticks the engine by delta with the keys held at now and redraws.
func (f *Frontend) Step(now time.Time, delta time.Duration) error {
	if err := f.engine.Update(loop.DeltaMs(delta), f.keys.State(now)); err != nil {
		return err
	}

	events := f.engine.Events()
drain:
	for {
		select {
		case ev := <-events:
			f.toasts.Handle(ev)
			if f.onEvent != nil {
				f.onEvent(ev)
			}
			if ev.Type == loop.EventStarted {
				f.keys.Reset()
			}
		default:
			break drain
		}
	}

	f.Draw()
	return nil
}

// Draw renders the current snapshot and shows the screen.
func (f *Frontend) Draw() {
	snap := f.engine.Snapshot()
	draw.Scene(f.canvas, snap, f.maxHealth)

	f.screen.Clear()
	offCol, offRow := f.canvas.OffsetCol(), f.canvas.OffsetRow()
	for row := 0; row < f.canvas.TerminalHeight(); row++ {
		for col := 0; col < f.canvas.TerminalWidth(); col++ {
			top, bottom := f.canvas.Pixel(col, row*2), f.canvas.Pixel(col, row*2+1)
			r, style := cell(top, bottom)
			if r != ' ' {
				f.screen.SetContent(offCol+col, offRow+row, r, nil, style)
			}
		}
	}

	f.drawText(snap)
	f.screen.Show()
}

// cell picks the half-block rune and style for two stacked pixels.
func cell(top, bottom draw.Color) (rune, tcell.Style) {
	style := tcell.StyleDefault
	switch {
	case top == draw.ColorNone && bottom == draw.ColorNone:
		return ' ', style
	case top == bottom:
		return draw.BlockFull, style.Foreground(cellColors[top])
	case bottom == draw.ColorNone:
		return draw.BlockUpperHalf, style.Foreground(cellColors[top])
	case top == draw.ColorNone:
		return draw.BlockLowerHalf, style.Foreground(cellColors[bottom])
	default:
		return draw.BlockUpperHalf, style.Foreground(cellColors[top]).Background(cellColors[bottom])
	}
}

func (f *Frontend) drawText(snap *loop.Snapshot) {
	offCol, offRow := f.canvas.OffsetCol(), f.canvas.OffsetRow()
	width, height := f.canvas.TerminalWidth(), f.canvas.TerminalHeight()
	center := height / 2

	put := func(col, row int, s string, style tcell.Style) {
		for i, r := range []rune(s) {
			f.screen.SetContent(offCol+col+i, offRow+row, r, nil, style)
		}
	}
	centered := func(row int, s string) {
		put(max(width/2-len(s)/2, 0), row, s, tcell.StyleDefault.Bold(true))
	}

	switch snap.Phase {
	case loop.PhaseLoading:
		centered(center-2, "DEFENDER")
		centered(center, "WASD / arrows move, SPACE fires, P pauses, Q quits")
		centered(center+2, "Press ENTER to start")
	case loop.PhasePaused:
		centered(center, "PAUSED")
	case loop.PhaseGameOver:
		centered(center-1, "GAME OVER")
		centered(center+1, fmt.Sprintf("Score: %d   Level: %d", snap.State.Score, snap.State.Level))
		centered(center+3, "Press ENTER to play again")
	case loop.PhaseRunning:
		for i, t := range f.toasts.Active(snap.Time) {
			msg := " " + t.Message + " "
			put(max(width-len(msg), 0), i, msg, toastStyles[t.Severity])
		}
	}

	hud := fmt.Sprintf("Score: %-8d Health: %-4d Level: %-3d x%d", snap.State.Score, max(snap.State.PlanetHealth, 0), snap.State.Level, snap.MultiShot)
	if snap.Boost > 0 {
		hud += fmt.Sprintf("  BOOST %.1fs", snap.Boost/1000)
	}
	put(0, height, hud, tcell.StyleDefault)
}

// Run polls the screen and ticks the engine at the target frame rate until
// the player quits, the context ends or the engine halts.
func (f *Frontend) Run(ctx context.Context) error {
	eventCh := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := f.screen.PollEvent()
			if ev == nil {
				close(eventCh)
				return
			}
			eventCh <- ev
		}
	}()

	ticker := time.NewTicker(config.ClientTargetFrameTime)
	defer ticker.Stop()

	last := time.Now()
	for !f.quit {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-eventCh:
			if !ok {
				return nil
			}
			f.HandleEvent(ev, time.Now())
		case now := <-ticker.C:
			if err := f.Step(now, now.Sub(last)); err != nil {
				f.logger.Error("engine stopped", "err", err)
				return err
			}
			last = now
		}
	}
	return nil
}
