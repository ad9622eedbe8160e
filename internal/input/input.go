// Package input turns raw key sources into per-tick key state.
package input

import (
	"bufio"
	"strings"
	"time"
)

// keyHoldDuration is how long a key is considered "held" after its last press.
// Terminals only report presses (with auto-repeat), never releases.
const keyHoldDuration = 120 * time.Millisecond

// Key identifies a logical game key.
type Key int

const (
	KeyLeft Key = iota
	KeyRight
	KeyUp
	KeyDown
	KeyFire
	KeyPause
	KeyEnter
	KeyQuit
	keyCount
)

var keyNames = [keyCount]string{
	KeyLeft:  "left",
	KeyRight: "right",
	KeyUp:    "up",
	KeyDown:  "down",
	KeyFire:  "fire",
	KeyPause: "pause",
	KeyEnter: "enter",
	KeyQuit:  "quit",
}

// String returns the wire name of the key.
func (k Key) String() string {
	if k < 0 || k >= keyCount {
		return "unknown"
	}
	return keyNames[k]
}

// ParseKey resolves a wire name to a key.
func ParseKey(name string) (Key, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range keyNames {
		if n == name {
			return Key(k), true
		}
	}
	return 0, false
}

// State is the set of keys pressed during one tick.
type State struct {
	pressed [keyCount]bool
}

// NewState builds a state with the given keys pressed.
func NewState(keys ...Key) State {
	var s State
	for _, k := range keys {
		s.Press(k)
	}
	return s
}

// Press marks a key as pressed.
func (s *State) Press(k Key) {
	if k >= 0 && k < keyCount {
		s.pressed[k] = true
	}
}

// IsKeyPressed reports whether k is pressed this tick.
func (s State) IsKeyPressed(k Key) bool {
	if k < 0 || k >= keyCount {
		return false
	}
	return s.pressed[k]
}

// Any reports whether at least one key is pressed.
func (s State) Any() bool {
	for _, p := range s.pressed {
		if p {
			return true
		}
	}
	return false
}

// Keys returns the pressed keys in declaration order.
func (s State) Keys() []Key {
	var keys []Key
	for k, p := range s.pressed {
		if p {
			keys = append(keys, Key(k))
		}
	}
	return keys
}

// Edge tracks a key across ticks and reports presses once.
// Used for toggles like pause where a held key must not flip state every frame.
type Edge struct {
	key  Key
	down bool
}

// NewEdge creates an edge detector for k.
func NewEdge(k Key) *Edge {
	return &Edge{key: k}
}

// Pressed returns true only on the tick the key goes down.
func (e *Edge) Pressed(s State) bool {
	now := s.IsKeyPressed(e.key)
	fired := now && !e.down
	e.down = now
	return fired
}

// Stream delivers terminal bytes via a channel and keeps per-key timestamps
// so that simultaneous keys can be detected.
type Stream struct {
	ch       chan byte
	lastSeen [keyCount]time.Time
}

// StartStream spawns a goroutine that reads from r and feeds the stream.
func StartStream(r *bufio.Reader) *Stream {
	s := &Stream{ch: make(chan byte, 128)}
	go func() {
		for {
			b, err := r.ReadByte()
			if err != nil {
				close(s.ch)
				return
			}
			s.ch <- b
		}
	}()
	return s
}

// Read drains all pending bytes (non-blocking) and returns the key state.
// The second result is false once the underlying reader has closed.
func (s *Stream) Read() (State, bool) {
	now := time.Now()
	var buf []byte
	open := true

drain:
	for {
		select {
		case b, ok := <-s.ch:
			if !ok {
				open = false
				break drain
			}
			buf = append(buf, b)
		default:
			break drain
		}
	}

	s.apply(buf, now)
	return s.state(now), open
}

// Reset forgets all held keys, e.g. after a screen transition.
func (s *Stream) Reset() {
	s.lastSeen = [keyCount]time.Time{}
}

// apply decodes buf and stamps every key it contains with now.
func (s *Stream) apply(buf []byte, now time.Time) {
	for i := 0; i < len(buf); i++ {
		b := buf[i]

		// CSI sequence: ESC [ <code>
		if b == '\x1b' && i+2 < len(buf) && buf[i+1] == '[' {
			if k, ok := arrowKey(buf[i+2]); ok {
				s.lastSeen[k] = now
				i += 2
				continue
			}
		}

		if k, ok := byteKey(b); ok {
			s.lastSeen[k] = now
		}
	}
}

// state reports keys seen within the hold window.
func (s *Stream) state(now time.Time) State {
	var st State
	for k, seen := range s.lastSeen {
		if !seen.IsZero() && now.Sub(seen) < keyHoldDuration {
			st.pressed[k] = true
		}
	}
	return st
}

func arrowKey(code byte) (Key, bool) {
	switch code {
	case 'A':
		return KeyUp, true
	case 'B':
		return KeyDown, true
	case 'C':
		return KeyRight, true
	case 'D':
		return KeyLeft, true
	}
	return 0, false
}

// KeyForRune maps a typed character to its game key.
func KeyForRune(r rune) (Key, bool) {
	if r > 0x7f {
		return 0, false
	}
	return byteKey(byte(r))
}

func byteKey(b byte) (Key, bool) {
	switch b {
	case 'q', 'Q', 0x03: // Ctrl+C arrives as a byte in raw mode
		return KeyQuit, true
	case 'a', 'A', 'h', 'H':
		return KeyLeft, true
	case 'd', 'D', 'l', 'L':
		return KeyRight, true
	case 'w', 'W', 'k', 'K':
		return KeyUp, true
	case 's', 'S', 'j', 'J':
		return KeyDown, true
	case ' ':
		return KeyFire, true
	case 'p', 'P':
		return KeyPause, true
	case '\n', '\r':
		return KeyEnter, true
	}
	return 0, false
}
