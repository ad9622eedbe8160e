// Package netplay serves game sessions over websockets. Each connection owns
// one engine; clients send JSON key state and receive msgpack frames.
package netplay

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/kingofdarck/idle-garden-sub001/internal/input"
	"github.com/kingofdarck/idle-garden-sub001/internal/loop"
	"github.com/kingofdarck/idle-garden-sub001/internal/loop/config"
	"github.com/kingofdarck/idle-garden-sub001/internal/loop/server"
)

const (
	maxMessageSize = 1024
	writeWait      = time.Second
)

// ErrUnknownKey is returned for input messages naming keys that do not exist.
var ErrUnknownKey = errors.New("unknown key")

// clientMessage is a JSON message from the browser.
type clientMessage struct {
	Type string   `json:"type"`
	Keys []string `json:"keys,omitempty"`
}

// EventMessage is the wire form of an engine event.
type EventMessage struct {
	Type  string  `msgpack:"type"`
	Time  float64 `msgpack:"time"`
	Count int     `msgpack:"count,omitempty"`
}

// Frame is one msgpack message to the browser.
type Frame struct {
	Snapshot *loop.Snapshot  `msgpack:"snapshot"`
	Events   []EventMessage  `msgpack:"events,omitempty"`
	Leaders  []LeaderMessage `msgpack:"leaders,omitempty"` // Sent outside the running phase
	Rank     int             `msgpack:"rank,omitempty"`    // Leaderboard rank of the last game
}

// LeaderMessage is one leaderboard row.
type LeaderMessage struct {
	Username string `msgpack:"username"`
	Score    int    `msgpack:"score"`
}

// HandlerConfig configures a Handler.
type HandlerConfig struct {
	Logger       *log.Logger
	Settings     *config.Settings // Defaults to config.Default()
	Lobby        *server.Lobby    // Defaults to a private lobby
	TickInterval time.Duration    // Defaults to config.ClientTargetFrameTime
	Seed         int64            // Engine seed; 0 seeds from the clock
}

// Handler upgrades HTTP requests and runs one game per connection.
type Handler struct {
	settings config.Settings
	lobby    *server.Lobby
	logger   *log.Logger
	tick     time.Duration
	seed     int64
	upgrader websocket.Upgrader
	wg       sync.WaitGroup
}

// NewHandler creates a handler.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	settings := config.Default()
	if cfg.Settings != nil {
		settings = *cfg.Settings
	}
	lobby := cfg.Lobby
	if lobby == nil {
		lobby = server.NewLobby(logger)
	}
	tick := cfg.TickInterval
	if tick <= 0 {
		tick = config.ClientTargetFrameTime
	}

	return &Handler{
		settings: settings,
		lobby:    lobby,
		logger:   logger,
		tick:     tick,
		seed:     cfg.Seed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Wait blocks until every session has ended.
func (h *Handler) Wait() {
	h.wg.Wait()
}

// ParseKeys decodes an input message's key names into a key state.
func ParseKeys(names []string) (input.State, error) {
	var st input.State
	for _, name := range names {
		k, ok := input.ParseKey(name)
		if !ok {
			return input.State{}, fmt.Errorf("%w: %q", ErrUnknownKey, name)
		}
		st.Press(k)
	}
	return st, nil
}

// Handle upgrades the request and plays until the client leaves.
// The optional name query parameter sets the leaderboard name.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	h.wg.Add(1)
	defer h.wg.Done()
	defer conn.Close()

	seed := h.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	engine, err := loop.New(h.settings, loop.Options{Logger: h.logger, Rand: rand.New(rand.NewSource(seed))})
	if err != nil {
		h.logger.Error("engine setup failed", "err", err)
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "engine setup failed"))
		return
	}

	handle := h.lobby.RegisterClient(r.URL.Query().Get("name"))
	defer h.lobby.UnregisterClient(handle.ID)
	s := &session{
		handler: h,
		conn:    conn,
		engine:  engine,
		handle:  handle,
		logger:  h.logger.With("client", handle.ID, "remote", r.RemoteAddr),
		inputs:  make(chan input.State, 16),
		done:    make(chan struct{}),
	}
	go s.readLoop()
	s.run()
}

type session struct {
	handler *Handler
	conn    *websocket.Conn
	engine  *loop.Engine
	handle  *server.ClientHandle
	logger  *log.Logger
	inputs  chan input.State
	done    chan struct{} // Closed when the reader stops
	rank    int
}

// readLoop decodes client messages until the connection fails or the client quits.
func (s *session) readLoop() {
	defer close(s.done)
	s.conn.SetReadLimit(maxMessageSize)

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("read ended", "err", err)
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logger.Warn("discarding malformed message", "err", err)
			continue
		}

		switch msg.Type {
		case "input":
			st, err := ParseKeys(msg.Keys)
			if err != nil {
				s.logger.Warn("discarding input", "err", err)
				continue
			}
			select {
			case s.inputs <- st:
			default:
				// Latest state wins; drop when the game loop lags
			}
		case "quit":
			return
		default:
			s.logger.Warn("discarding message", "type", msg.Type)
		}
	}
}

// run ticks the engine and streams frames until the client leaves or the lobby shuts down.
func (s *session) run() {
	ticker := time.NewTicker(s.handler.tick)
	defer ticker.Stop()

	var held input.State
	last := time.Now()
	for {
		select {
		case <-s.done:
			s.logger.Info("session ended", "score", s.engine.State().Score)
			return
		case st := <-s.inputs:
			held = st
		case ev, ok := <-s.handle.EventsCh:
			if !ok || ev.Type == server.EventServerShutdown {
				s.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(writeWait))
				return
			}
			if ev.Type == server.EventHighScore {
				s.rank = ev.Rank
			}
		case now := <-ticker.C:
			if err := s.engine.Update(loop.DeltaMs(now.Sub(last)), held); err != nil {
				s.logger.Error("engine halted", "err", err)
				s.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "engine halted"),
					time.Now().Add(writeWait))
				return
			}
			last = now
			if err := s.sendFrame(); err != nil {
				s.logger.Debug("write failed", "err", err)
				return
			}
		}
	}
}

// sendFrame writes the snapshot with the events raised since the last frame.
func (s *session) sendFrame() error {
	frame := Frame{Snapshot: s.engine.Snapshot(), Rank: s.rank}

	events := s.engine.Events()
drain:
	for {
		select {
		case ev := <-events:
			frame.Events = append(frame.Events, EventMessage{Type: ev.Type.String(), Time: ev.Time, Count: ev.Count})
			switch ev.Type {
			case loop.EventStarted:
				s.rank = 0
				frame.Rank = 0
			case loop.EventGameOver:
				s.rank = s.handler.lobby.ReportScore(s.handle.ID, ev.State.Score)
				frame.Rank = s.rank
			}
		default:
			break drain
		}
	}

	if frame.Snapshot.Phase != loop.PhaseRunning {
		for _, e := range s.handler.lobby.TopScores() {
			frame.Leaders = append(frame.Leaders, LeaderMessage{Username: e.Username, Score: e.Score})
		}
	}

	data, err := msgpack.Marshal(&frame)
	if err != nil {
		return err
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.BinaryMessage, data)
}
