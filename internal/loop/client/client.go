// Package client runs one game session on an ANSI terminal, e.g. an SSH channel.
package client

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kingofdarck/idle-garden-sub001/internal/draw"
	"github.com/kingofdarck/idle-garden-sub001/internal/input"
	"github.com/kingofdarck/idle-garden-sub001/internal/loop"
	"github.com/kingofdarck/idle-garden-sub001/internal/loop/config"
	"github.com/kingofdarck/idle-garden-sub001/internal/loop/server"
	"github.com/kingofdarck/idle-garden-sub001/internal/notify"
)

// Client handles the engine, rendering and input for a single connection.
type Client struct {
	server       server.GameServer
	handle       *server.ClientHandle
	engine       *loop.Engine
	state        *ClientState
	toasts       *notify.Board
	canvas       *draw.Canvas
	chunkWriter  *draw.ChunkWriter // Accumulates UI text for chunked output
	writer       io.Writer
	inputStream  *input.Stream
	lastInput    time.Time
	termSizeFunc draw.TermSizeFunc
	onEvent      func(loop.Event)
	logger       *log.Logger
	maxHealth    int
}

// ClientOptions configures the client.
type ClientOptions struct {
	TermSizeFunc draw.TermSizeFunc
	Username     string
	Settings     *config.Settings // Defaults to config.Default()
	Logger       *log.Logger      // Defaults to a discarding logger
	Rand         *rand.Rand
	OnEvent      func(loop.Event) // Called for every engine event, e.g. for sound
}

// NewClient registers with the lobby and creates the session's engine.
func NewClient(gs server.GameServer, r *bufio.Reader, w io.Writer, opts ClientOptions) (*Client, error) {
	settings := config.Default()
	if opts.Settings != nil {
		settings = *opts.Settings
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	engine, err := loop.New(settings, loop.Options{Logger: logger, Rand: opts.Rand})
	if err != nil {
		return nil, err
	}

	termSizeFunc := opts.TermSizeFunc
	if termSizeFunc == nil {
		termSizeFunc = draw.DefaultTermSizeFunc
	}

	handle := gs.RegisterClient(opts.Username)
	logger = logger.With("client", handle.ID, "username", handle.Username)

	// Create canvas with clamped dimensions for max render resolution
	termWidth, termHeight, _ := termSizeFunc()
	layout := fitTerminal(termWidth, termHeight)
	canvas := draw.NewScaledCanvas(layout.Width, layout.Height, settings.Screen.Width, settings.Screen.Height)
	canvas.SetOffset(layout.OffsetCol, layout.OffsetRow)

	return &Client{
		server:       gs,
		handle:       handle,
		engine:       engine,
		state:        NewClientState(),
		toasts:       notify.NewDefaultBoard(),
		canvas:       canvas,
		chunkWriter:  draw.NewChunkWriter(w, layout.OffsetCol, layout.OffsetRow),
		writer:       w,
		lastInput:    time.Now(),
		inputStream:  input.StartStream(r),
		termSizeFunc: termSizeFunc,
		onEvent:      opts.OnEvent,
		logger:       logger,
		maxHealth:    settings.Game.PlanetHealth,
	}, nil
}

// Engine returns the session's engine.
func (c *Client) Engine() *loop.Engine {
	return c.engine
}

// Run starts the client loop. Blocks until the client disconnects or the lobby stops.
func (c *Client) Run() error {
	draw.HideCursor(c.writer)
	defer draw.ShowCursor(c.writer)
	draw.ClearScreen(c.writer)
	defer c.server.UnregisterClient(c.handle.ID)

	lastTime := time.Now()
	for c.state.Running {
		frameStart := time.Now()
		c.state.delta = frameStart.Sub(lastTime)
		lastTime = frameStart

		c.processInput()
		if err := c.frame(); err != nil {
			return err
		}

		// Frame timing
		elapsed := time.Since(frameStart)
		if elapsed < config.ClientTargetFrameTime {
			time.Sleep(config.ClientTargetFrameTime - elapsed)
		}
	}

	draw.ClearScreen(c.writer)
	c.logger.Info("session ended", "score", c.engine.State().Score)
	return nil
}

// frame runs one tick with the current input and draws it.
func (c *Client) frame() error {
	c.processServerEvents()
	c.updateScreen()

	if c.state.ShuttingDown {
		c.updateShutdownState()
	} else if err := c.engine.Update(loop.DeltaMs(c.state.delta), c.state.Input); err != nil {
		if errors.Is(err, loop.ErrHalted) {
			c.state.Running = false
		}
		return fmt.Errorf("client %d: %w", c.handle.ID, err)
	}

	c.processEngineEvents()
	return c.drawFrame()
}

// processInput reads the key state and tracks inactivity.
func (c *Client) processInput() {
	in, open := c.inputStream.Read()
	c.state.Input = in
	if !open {
		c.state.Running = false
		return
	}

	if in.Any() {
		c.lastInput = time.Now()
		c.state.isInactive = false
	} else if time.Since(c.lastInput).Seconds() > config.InactivityDisconnectUser {
		c.logger.Info("disconnecting inactive client")
		c.state.Running = false
	} else if time.Since(c.lastInput).Seconds() > config.InactivityWarnUser {
		c.state.isInactive = true
	}

	if in.IsKeyPressed(input.KeyQuit) {
		c.state.Running = false
	}
}

// processServerEvents handles events from the lobby.
func (c *Client) processServerEvents() {
	for {
		select {
		case event, ok := <-c.handle.EventsCh:
			if !ok {
				// Lobby closed the channel
				c.state.Running = false
				return
			}
			switch event.Type {
			case server.EventHighScore:
				c.state.Rank = event.Rank
				c.toasts.Push(fmt.Sprintf("New high score! #%d", event.Rank), notify.Success, c.engine.Now())
			case server.EventServerShutdown:
				c.state.ShuttingDown = true
				c.state.shutdownTimer = config.ShutdownDisplaySeconds
			}
		default:
			return
		}
	}
}

// processEngineEvents feeds engine events to the toast board and reports
// finished games to the lobby.
func (c *Client) processEngineEvents() {
	events := c.engine.Events()
	for {
		select {
		case ev := <-events:
			c.toasts.Handle(ev)
			if c.onEvent != nil {
				c.onEvent(ev)
			}
			switch ev.Type {
			case loop.EventStarted:
				c.state.Rank = 0
				c.inputStream.Reset()
			case loop.EventGameOver:
				c.server.ReportScore(c.handle.ID, ev.State.Score)
			}
		default:
			return
		}
	}
}

// fitTerminal clamps to the max render resolution, keeping room for the HUD.
func fitTerminal(termWidth, termHeight int) draw.Layout {
	return draw.Fit(termWidth, termHeight, config.MaxTermWidth, config.MaxTermHeight, config.HUDRows)
}

// updateScreen handles terminal resize, clamping to max render resolution.
// On actual size changes, clears the terminal to remove residual pixels
// outside the new canvas area (e.g. old borders or offset content).
func (c *Client) updateScreen() {
	termWidth, termHeight, err := c.termSizeFunc()
	if err != nil {
		return
	}
	l := fitTerminal(termWidth, termHeight)

	if l.Width != c.canvas.TerminalWidth() || l.Height != c.canvas.TerminalHeight() ||
		l.OffsetCol != c.canvas.OffsetCol() || l.OffsetRow != c.canvas.OffsetRow() {
		draw.ClearScreen(c.chunkWriter)
		c.canvas.ForceRedraw()
	}

	c.canvas.Resize(l.Width, l.Height)
	c.canvas.SetOffset(l.OffsetCol, l.OffsetRow)
	c.chunkWriter.SetOffset(l.OffsetCol, l.OffsetRow)
}

// updateShutdownState handles the shutdown screen countdown.
func (c *Client) updateShutdownState() {
	c.state.shutdownTimer -= c.state.delta.Seconds()
	if c.state.shutdownTimer <= 0 {
		c.state.Running = false
	}
}
