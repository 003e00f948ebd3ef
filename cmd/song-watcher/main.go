package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/princekumarofficial/songs-service/internal/config"
	"github.com/princekumarofficial/songs-service/internal/ingest"
	"github.com/princekumarofficial/songs-service/internal/services/media"
	"github.com/princekumarofficial/songs-service/internal/storage"
	"github.com/princekumarofficial/songs-service/internal/watcher"
)

func main() {
	// Load config
	cfg := config.MustLoad()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	store, err := storage.New(cfg)
	if err != nil {
		log.Fatal("Failed to initialize catalog store:", err)
	}
	defer store.Close()

	mediaService, err := media.NewService(cfg)
	if err != nil {
		log.Fatal("Failed to initialize media service:", err)
	}

	reconciler := ingest.NewReconciler(mediaService, store, ingest.Options{
		MaxParallel:  cfg.Ingest.MaxParallel,
		Folder:       cfg.Ingest.Folder,
		ResourceType: cfg.Ingest.ResourceType,
	}, logger)

	w, err := watcher.New(cfg.Watcher, reconciler, cfg.Media.MaxFileSize, logger)
	if err != nil {
		log.Fatal("Failed to start watcher:", err)
	}

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

	if err := w.Run(ctx); err != nil {
		logger.Error("Watcher stopped with error", slog.String("error", err.Error()))
		return
	}

	logger.Info("Song watcher stopped")
}
