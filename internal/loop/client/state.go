package client

import (
	"time"

	"github.com/kingofdarck/idle-garden-sub001/internal/input"
	"github.com/kingofdarck/idle-garden-sub001/internal/loop"
)

// ClientState holds per-session state outside the engine.
// Each client has its own instance, managed by the Client.
type ClientState struct {
	Input         input.State
	Running       bool          // Client loop running
	ShuttingDown  bool          // Lobby announced shutdown
	Rank          int           // Leaderboard rank of the last finished game, 0 if none
	delta         time.Duration // Frame delta time
	shutdownTimer float64       // Countdown before auto-disconnect on shutdown, seconds
	isInactive    bool          // Whether the client is in inactive warning state

	// Previous frame, for full clears on screen transitions
	prevPhase   loop.Phase
	wasInactive bool
	wasShutdown bool
}

// NewClientState creates a new initialized client state.
func NewClientState() *ClientState {
	return &ClientState{
		Running:   true,
		prevPhase: loop.PhaseLoading,
	}
}
