package loop

import "fmt"

// EventType identifies an engine notification.
type EventType int

const (
	EventStarted EventType = iota
	EventFire
	EventKill
	EventPlanetHit
	EventLevelUp
	EventGameOver
	EventPaused
	EventResumed
)

// String returns the event name.
func (t EventType) String() string {
	switch t {
	case EventStarted:
		return "started"
	case EventFire:
		return "fire"
	case EventKill:
		return "kill"
	case EventPlanetHit:
		return "planet-hit"
	case EventLevelUp:
		return "level-up"
	case EventGameOver:
		return "game-over"
	case EventPaused:
		return "paused"
	case EventResumed:
		return "resumed"
	default:
		return fmt.Sprintf("event(%d)", int(t))
	}
}

// Event is sent to collaborators (audio, toasts) without waiting for them.
type Event struct {
	Type  EventType
	Time  float64   // Game clock in ms
	Count int       // Kills, hits or shots in this tick
	State GameState // State after the event was applied
}

// emit sends ev without blocking. A full buffer drops the event.
func (e *Engine) emit(t EventType, count int) {
	ev := Event{Type: t, Time: e.now, Count: count, State: e.state}
	select {
	case e.events <- ev:
	default:
		e.dropped++
		e.logger.Debug("event dropped", "type", t, "dropped", e.dropped)
	}
}

// Events returns the notification channel. It is never closed.
func (e *Engine) Events() <-chan Event {
	return e.events
}
