package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/princekumarofficial/songs-service/internal/config"
	"github.com/princekumarofficial/songs-service/internal/services/media"
	"github.com/princekumarofficial/songs-service/internal/storage"
	"github.com/princekumarofficial/songs-service/internal/sweeper"
)

func main() {
	// Load config
	cfg := config.MustLoad()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// A private in-memory catalog knows no songs and would sweep every blob
	if cfg.CatalogBackend == config.BackendMemory {
		log.Fatal("orphan sweeper requires the postgres catalog backend")
	}

	// Initialize database connection
	store, err := storage.New(cfg)
	if err != nil {
		log.Fatal("Failed to initialize catalog store:", err)
	}
	defer store.Close()

	mediaService, err := media.NewService(cfg)
	if err != nil {
		log.Fatal("Failed to initialize media service:", err)
	}

	s := sweeper.New(mediaService, store, cfg.Sweeper, cfg.Ingest, logger)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		logger.Info("Received shutdown signal")
		cancel()
	}()

	logger.Info("Orphan sweeper started",
		slog.String("interval", cfg.Sweeper.Interval.String()),
		slog.String("grace_period", cfg.Sweeper.GracePeriod.String()),
	)

	if err := s.Run(ctx); err != nil {
		logger.Error("Sweeper stopped with error", slog.String("error", err.Error()))
		return
	}

	logger.Info("Orphan sweeper stopped")
}
