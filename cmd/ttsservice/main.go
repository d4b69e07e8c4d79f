// Command ttsservice runs the TTS job manager: text segmentation, per-segment
// synthesis against an external inferencer, and crossfaded concatenation,
// fronted by an asynchronous job submit/poll/cancel/cleanup HTTP surface.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/config"
	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/models"
	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/ttsjob"
)

const httpPoolSize = 16

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg := config.LoadTTS()

	ttsClient := models.NewTTSClient(cfg.TTSURL, httpPoolSize)
	manager := ttsjob.NewManager(cfg, ttsClient, ttsClient.Warmup)

	mux := http.NewServeMux()
	registerRoutes(mux, manager)

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	go awaitShutdown(srv)

	slog.Info("ttsservice starting", "addr", cfg.ListenAddr, "workers", cfg.WorkerCount)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("ttsservice stopped")
}

func awaitShutdown(srv *http.Server) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("shutting down", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
}
