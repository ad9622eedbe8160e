// Package server tracks the play sessions connected to one process and the
// leaderboard they share. Every session simulates its own engine; the lobby
// only sees registrations and final scores.
package server

import (
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/charmbracelet/log"

	"github.com/kingofdarck/idle-garden-sub001/internal/loop/config"
)

// GameServer is the interface sessions use to communicate with the lobby.
// Decouples the Client from the concrete Lobby, enabling testing.
type GameServer interface {
	RegisterClient(username string) *ClientHandle
	UnregisterClient(clientID int)
	ReportScore(clientID, score int) int
	TopScores() []TopScoreEntry
}

// Lobby manages connected sessions and the leaderboard.
type Lobby struct {
	mu           sync.RWMutex
	clients      map[int]*ClientHandle
	nextClientID int
	board        leaderboard
	logger       *log.Logger
}

// Compile-time check that Lobby implements GameServer.
var _ GameServer = (*Lobby)(nil)

// ClientHandle represents a session's registration with the lobby.
type ClientHandle struct {
	ID       int
	Username string           // Display name for this client
	EventsCh chan ClientEvent // Events sent to the session; closed on unregister
}

// ClientEvent represents an event sent from the lobby to a session.
type ClientEvent struct {
	Type ClientEventType
	Rank int // Leaderboard position for EventHighScore, 1-based
}

// ClientEventType identifies the type of client event.
type ClientEventType int

const (
	EventHighScore ClientEventType = iota
	EventServerShutdown
)

// NewLobby creates an empty lobby. logger may be nil.
func NewLobby(logger *log.Logger) *Lobby {
	if logger == nil {
		logger = log.Default()
	}
	return &Lobby{
		clients:      make(map[int]*ClientHandle),
		nextClientID: 1,
		board:        newLeaderboard(config.LeaderboardSize),
		logger:       logger,
	}
}

// SanitizeUsername trims and shortens a display name, dropping control
// characters. An empty result falls back to "pilot-<id>".
func SanitizeUsername(name string, id int) string {
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(name))

	if r := []rune(name); len(r) > config.MaxUsernameLength {
		name = string(r[:config.MaxUsernameLength])
	}
	if name == "" {
		name = "pilot-" + strconv.Itoa(id)
	}
	return name
}

// RegisterClient registers a new client with the given username and returns its handle.
func (l *Lobby) RegisterClient(username string) *ClientHandle {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextClientID
	l.nextClientID++
	handle := &ClientHandle{
		ID:       id,
		Username: SanitizeUsername(username, id),
		EventsCh: make(chan ClientEvent, 16),
	}
	l.clients[id] = handle
	l.logger.Info("client registered", "id", id, "username", handle.Username, "players", len(l.clients))
	return handle
}

// UnregisterClient removes a client and closes its event channel.
// Its leaderboard entries are kept.
func (l *Lobby) UnregisterClient(clientID int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	handle, ok := l.clients[clientID]
	if !ok {
		return
	}
	close(handle.EventsCh)
	delete(l.clients, clientID)
	l.logger.Info("client unregistered", "id", clientID, "players", len(l.clients))
}

// Players returns the number of registered clients.
func (l *Lobby) Players() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.clients)
}

// ReportScore records a finished game and returns its leaderboard rank,
// or 0 when it did not place. A placing client is sent EventHighScore.
func (l *Lobby) ReportScore(clientID, score int) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	handle, ok := l.clients[clientID]
	if !ok {
		return 0
	}
	rank := l.board.submit(TopScoreEntry{Username: handle.Username, Score: score, clientID: clientID})
	if rank > 0 {
		l.logger.Info("high score", "username", handle.Username, "score", score, "rank", rank)
		select {
		case handle.EventsCh <- ClientEvent{Type: EventHighScore, Rank: rank}:
		default:
		}
	}
	return rank
}

// TopScores returns a copy of the leaderboard, best first.
func (l *Lobby) TopScores() []TopScoreEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.board.snapshot()
}

// Shutdown gracefully shuts down the lobby by notifying all connected clients
// and waiting for them to disconnect (up to the given timeout).
func (l *Lobby) Shutdown(timeout time.Duration) {
	l.mu.RLock()
	for _, handle := range l.clients {
		select {
		case handle.EventsCh <- ClientEvent{Type: EventServerShutdown}:
		default:
		}
	}
	l.logger.Info("shutdown requested", "players", len(l.clients))
	l.mu.RUnlock()

	// Wait for all clients to disconnect, or timeout
	deadline := time.After(timeout)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.Players() == 0 {
			return
		}
		select {
		case <-deadline:
			l.logger.Warn("shutdown timed out", "players", l.Players())
			return
		case <-ticker.C:
		}
	}
}
