package client

import (
	"bufio"
	"bytes"
	"io"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kingofdarck/idle-garden-sub001/internal/input"
	"github.com/kingofdarck/idle-garden-sub001/internal/loop"
	"github.com/kingofdarck/idle-garden-sub001/internal/loop/config"
	"github.com/kingofdarck/idle-garden-sub001/internal/loop/server"
)

func fixedSize(w, h int) func() (int, int, error) {
	return func() (int, int, error) { return w, h, nil }
}

type testSession struct {
	client *Client
	lobby  *server.Lobby
	out    *bytes.Buffer
	events []loop.Event
}

// newTestSession creates a client whose input never arrives, so tests drive
// c.state.Input directly.
func newTestSession(t *testing.T, settings *config.Settings) *testSession {
	t.Helper()
	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })

	ts := &testSession{
		lobby: server.NewLobby(log.New(io.Discard)),
		out:   &bytes.Buffer{},
	}
	c, err := NewClient(ts.lobby, bufio.NewReader(pr), ts.out, ClientOptions{
		TermSizeFunc: fixedSize(120, 41),
		Username:     "tester",
		Settings:     settings,
		Rand:         rand.New(rand.NewSource(1)),
		OnEvent:      func(ev loop.Event) { ts.events = append(ts.events, ev) },
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	ts.client = c
	return ts
}

func (ts *testSession) tick(t *testing.T, delta time.Duration, keys ...input.Key) {
	t.Helper()
	ts.client.state.Input = input.NewState(keys...)
	ts.client.state.delta = delta
	if err := ts.client.frame(); err != nil {
		t.Fatalf("frame: %v", err)
	}
}

func (ts *testSession) has(typ loop.EventType) bool {
	for _, ev := range ts.events {
		if ev.Type == typ {
			return true
		}
	}
	return false
}

func TestNewClientRegisters(t *testing.T) {
	ts := newTestSession(t, nil)
	if ts.lobby.Players() != 1 {
		t.Errorf("expected client to register, got %d players", ts.lobby.Players())
	}
	if ts.client.canvas.TerminalWidth() != config.MaxTermWidth || ts.client.canvas.TerminalHeight() != config.MaxTermHeight {
		t.Errorf("unexpected canvas %dx%d", ts.client.canvas.TerminalWidth(), ts.client.canvas.TerminalHeight())
	}
}

func TestNewClientRejectsInvalidSettings(t *testing.T) {
	bad := config.Default()
	bad.Game.PlanetHealth = 0
	lobby := server.NewLobby(log.New(io.Discard))
	if _, err := NewClient(lobby, bufio.NewReader(strings.NewReader("")), io.Discard, ClientOptions{
		TermSizeFunc: fixedSize(80, 24),
		Settings:     &bad,
	}); err == nil {
		t.Fatal("expected invalid settings to be rejected")
	}
	if lobby.Players() != 0 {
		t.Errorf("expected no registration on error")
	}
}

func TestStartScreenThenPlay(t *testing.T) {
	ts := newTestSession(t, nil)

	ts.tick(t, 16*time.Millisecond)
	if !strings.Contains(ts.out.String(), "Controls") {
		t.Errorf("expected start screen")
	}
	if ts.client.Engine().Phase() != loop.PhaseLoading {
		t.Fatalf("expected loading phase before Enter")
	}

	ts.tick(t, 16*time.Millisecond, input.KeyEnter)
	if ts.client.Engine().Phase() != loop.PhaseRunning {
		t.Fatalf("expected running after Enter, got %s", ts.client.Engine().Phase())
	}
	if !ts.has(loop.EventStarted) {
		t.Errorf("expected started event forwarded")
	}
	if !strings.Contains(ts.out.String(), "Score: 0") {
		t.Errorf("expected HUD in output")
	}

	ts.out.Reset()
	ts.tick(t, 16*time.Millisecond, input.KeyPause)
	if ts.client.Engine().Phase() != loop.PhasePaused || !strings.Contains(ts.out.String(), "PAUSED") {
		t.Errorf("expected paused screen")
	}
}

func TestGameOverReportsToLobby(t *testing.T) {
	settings := config.Default()
	settings.Game.PlanetHealth = 10
	settings.Game.DamagePerHit = 10
	settings.Difficulty.SpawnRate = 100
	settings.Difficulty.MinSpawnRate = 100
	settings.Spawn.MaxDrift = 0
	ts := newTestSession(t, &settings)

	ts.tick(t, 16*time.Millisecond, input.KeyEnter)
	for i := 0; i < 400 && ts.client.Engine().Phase() != loop.PhaseGameOver; i++ {
		ts.tick(t, 250*time.Millisecond)
	}
	if ts.client.Engine().Phase() != loop.PhaseGameOver {
		t.Fatal("expected the planet to fall")
	}
	if !ts.has(loop.EventGameOver) {
		t.Errorf("expected game over event forwarded")
	}

	ts.out.Reset()
	ts.tick(t, 16*time.Millisecond)
	if !strings.Contains(ts.out.String(), "Score: 0") {
		t.Errorf("expected final score on game over screen")
	}
}

func TestHighScoreEventShowsRank(t *testing.T) {
	ts := newTestSession(t, nil)
	ts.lobby.ReportScore(ts.client.handle.ID, 500)

	ts.tick(t, 16*time.Millisecond, input.KeyEnter)
	if ts.client.state.Rank != 0 {
		t.Errorf("expected rank cleared when a new game starts, got %d", ts.client.state.Rank)
	}

	ts.lobby.ReportScore(ts.client.handle.ID, 900)
	ts.tick(t, 16*time.Millisecond)
	if ts.client.state.Rank != 1 {
		t.Errorf("expected rank 1 from lobby event, got %d", ts.client.state.Rank)
	}
}

func TestShutdownCountdown(t *testing.T) {
	ts := newTestSession(t, nil)
	go ts.lobby.Shutdown(10 * time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for !ts.client.state.ShuttingDown && time.Now().Before(deadline) {
		ts.tick(t, time.Millisecond)
	}
	if !ts.client.state.ShuttingDown {
		t.Fatal("expected shutdown event")
	}
	if !strings.Contains(ts.out.String(), "SERVER SHUTTING DOWN") {
		t.Errorf("expected shutdown screen")
	}

	ts.tick(t, time.Duration(config.ShutdownDisplaySeconds+1)*time.Second)
	if ts.client.state.Running {
		t.Errorf("expected client to stop after the countdown")
	}
}

func TestRunEndsWhenInputCloses(t *testing.T) {
	lobby := server.NewLobby(log.New(io.Discard))
	var out bytes.Buffer
	c, err := NewClient(lobby, bufio.NewReader(strings.NewReader("")), &out, ClientOptions{
		TermSizeFunc: fixedSize(80, 24),
	})
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- c.Run() }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop after input closed")
	}
	if lobby.Players() != 0 {
		t.Errorf("expected client unregistered")
	}
	if !strings.HasSuffix(out.String(), "\033[?25h") {
		t.Errorf("expected cursor restored on exit")
	}
}
