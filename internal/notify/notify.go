// Package notify turns engine events into short-lived toast messages for the HUD.
package notify

import (
	"fmt"

	"github.com/kingofdarck/idle-garden-sub001/internal/loop"
	"github.com/kingofdarck/idle-garden-sub001/internal/loop/config"
)

// Severity selects toast styling.
type Severity uint8

const (
	Info    Severity = iota // Neutral
	Success                 // Positive, e.g. level up
	Warning                 // Planet damaged
	Error                   // Game over
)

// Toast is one message with its expiry on the game clock.
type Toast struct {
	Message  string
	Severity Severity
	Expires  float64 // ms
}

// Board keeps the most recent toasts. Not safe for concurrent use.
type Board struct {
	toasts   []Toast
	max      int
	duration float64
	streak   int // Kills since the planet was last hit
}

// NewBoard creates a board holding at most limit toasts, each shown for duration ms.
func NewBoard(limit int, duration float64) *Board {
	if limit < 1 {
		limit = 1
	}
	return &Board{max: limit, duration: duration}
}

// NewDefaultBoard creates a board with the standard limits.
func NewDefaultBoard() *Board {
	return NewBoard(config.MaxToasts, config.ToastDurationMs)
}

// Push adds a toast shown from now. The oldest toast is dropped when full.
func (b *Board) Push(msg string, sev Severity, now float64) {
	if len(b.toasts) == b.max {
		copy(b.toasts, b.toasts[1:])
		b.toasts = b.toasts[:len(b.toasts)-1]
	}
	b.toasts = append(b.toasts, Toast{Message: msg, Severity: sev, Expires: now + b.duration})
}

// Active prunes expired toasts and returns the rest, oldest first.
// The returned slice is only valid until the next call.
func (b *Board) Active(now float64) []Toast {
	kept := b.toasts[:0]
	for _, t := range b.toasts {
		if now < t.Expires {
			kept = append(kept, t)
		}
	}
	b.toasts = kept
	return b.toasts
}

// Clear drops every toast and the kill streak.
func (b *Board) Clear() {
	b.toasts = b.toasts[:0]
	b.streak = 0
}

// Handle posts a toast for the engine events worth announcing.
func (b *Board) Handle(ev loop.Event) {
	switch ev.Type {
	case loop.EventStarted:
		b.Clear()
	case loop.EventKill:
		before := b.streak / config.KillStreakToast
		b.streak += ev.Count
		if after := b.streak / config.KillStreakToast; after > before {
			b.Push(fmt.Sprintf("Streak x%d!", after*config.KillStreakToast), Success, ev.Time)
		}
	case loop.EventPlanetHit:
		b.streak = 0
		b.Push(fmt.Sprintf("Planet hit! Health %d", max(ev.State.PlanetHealth, 0)), Warning, ev.Time)
	case loop.EventLevelUp:
		b.Push(fmt.Sprintf("Level %d", ev.State.Level), Success, ev.Time)
	case loop.EventGameOver:
		b.Push(fmt.Sprintf("Game over - score %d", ev.State.Score), Error, ev.Time)
	}
}
