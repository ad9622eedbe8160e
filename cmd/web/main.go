package main

import (
	"context"
	_ "embed"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kingofdarck/idle-garden-sub001/internal/config"
	"github.com/kingofdarck/idle-garden-sub001/internal/loop/server"
	"github.com/kingofdarck/idle-garden-sub001/internal/netplay"
)

const (
	defaultHost = "0.0.0.0"
	defaultPort = "8080"
)

//go:embed index.html
var htmlPage string

func main() {
	logger := config.NewLogger(os.Stderr, "web")

	host := config.GetEnv("WEB_HOST", defaultHost)
	port := config.GetEnv("WEB_PORT", defaultPort)
	sshHost := config.GetEnv("SSH_DISPLAY_HOST", "your-server.com")
	settings := config.LoadSettings(logger)

	lobby := server.NewLobby(logger.WithPrefix("lobby"))
	handler := netplay.NewHandler(netplay.HandlerConfig{
		Logger:   logger,
		Settings: &settings,
		Lobby:    lobby,
	})

	page := strings.ReplaceAll(htmlPage, "{{.SSHHost}}", sshHost)
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(page))
	})
	mux.HandleFunc("/ws", handler.Handle)

	srv := &http.Server{
		Addr:              net.JoinHostPort(host, port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting web server", "addr", "http://"+srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", "err", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	// Hijacked websocket connections are not tracked by the http server
	lobby.Shutdown(5 * time.Second)
	handler.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
}
