package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/kingofdarck/idle-garden-sub001/internal/audio"
	"github.com/kingofdarck/idle-garden-sub001/internal/config"
	"github.com/kingofdarck/idle-garden-sub001/internal/loop"
	"github.com/kingofdarck/idle-garden-sub001/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "game error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// The screen owns the terminal, so logs go to GAME_LOG if set
	var logOut io.Writer = io.Discard
	if path := config.GetEnv("GAME_LOG", ""); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := config.NewLogger(logOut, "game")
	settings := config.LoadSettings(logger)

	engine, err := loop.New(settings, loop.Options{Logger: logger})
	if err != nil {
		return err
	}

	sounds := audio.NewSoundManager(audio.LoadConfig(), logger)
	if err := sounds.Initialize(); err != nil {
		// Non-fatal, game can run without sound
		logger.Warn("audio initialization failed", "err", err)
	}
	defer sounds.Cleanup()

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	screen.HideCursor()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f := tui.New(screen, engine, settings.Game.PlanetHealth, tui.Options{
		Logger:  logger,
		OnEvent: sounds.Handle,
	})
	if err := f.Run(ctx); err != nil {
		return err
	}
	logger.Info("game ended", "score", engine.State().Score, "level", engine.State().Level)
	return nil
}
