package loop

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/kingofdarck/idle-garden-sub001/internal/loop/config"
)

var (
	// ErrInvalidTransition is returned when a phase change is not allowed from the current phase.
	ErrInvalidTransition = errors.New("invalid phase transition")
	// ErrHalted is returned by every Update after a tick failed unrecoverably.
	ErrHalted = errors.New("engine halted")
)

// Phase is the engine lifecycle stage.
type Phase int

const (
	PhaseLoading  Phase = iota // Created, waiting for Start
	PhaseRunning               // Ticking
	PhasePaused                // Ticks are ignored
	PhaseGameOver              // Planet destroyed, waiting for a new game
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseRunning:
		return "running"
	case PhasePaused:
		return "paused"
	case PhaseGameOver:
		return "game-over"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// GameState is the score and health bookkeeping for one game.
type GameState struct {
	Score        int  `msgpack:"score"`
	PlanetHealth int  `msgpack:"health"`
	Level        int  `msgpack:"level"`
	GameOver     bool `msgpack:"over"`
}

func newGameState(planetHealth int) GameState {
	return GameState{PlanetHealth: planetHealth, Level: 1}
}

func transitionError(from Phase, op string) error {
	return fmt.Errorf("%s from %s: %w", op, from, ErrInvalidTransition)
}

// SanitizeDelta turns a raw frame delta (ms) into one the engine accepts:
// NaN, infinite and negative values become 0, long stalls are clamped.
func SanitizeDelta(ms float64) float64 {
	if math.IsNaN(ms) || math.IsInf(ms, 0) || ms < 0 {
		return 0
	}
	return math.Min(ms, config.MaxFrameDeltaMs)
}

// DeltaMs converts a frame duration to engine milliseconds.
func DeltaMs(d time.Duration) float64 {
	return SanitizeDelta(float64(d) / float64(time.Millisecond))
}
