package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/princekumarofficial/songs-service/internal/cache"
	"github.com/princekumarofficial/songs-service/internal/catalog"
	"github.com/princekumarofficial/songs-service/internal/config"
	"github.com/princekumarofficial/songs-service/internal/events"
	songHandlers "github.com/princekumarofficial/songs-service/internal/http/handlers/songs"
	wsHandlers "github.com/princekumarofficial/songs-service/internal/http/handlers/websocket"
	"github.com/princekumarofficial/songs-service/internal/http/middleware"
	"github.com/princekumarofficial/songs-service/internal/ingest"
	"github.com/princekumarofficial/songs-service/internal/services/media"
	"github.com/princekumarofficial/songs-service/internal/storage"
	"github.com/princekumarofficial/songs-service/internal/utils/response"
	"github.com/princekumarofficial/songs-service/internal/utils/validation"
	"github.com/princekumarofficial/songs-service/internal/websocket"
)

// @title Songs Service API
// @version 1.0
// @description Songs catalog with keyset pagination, random picks and batch MP3 uploads.
// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// load config
	cfg := config.MustLoad()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// database setup
	store, err := storage.New(cfg)
	if err != nil {
		log.Fatal("Failed to initialize catalog store:", err)
	}
	defer store.Close()
	slog.Info("Catalog store ready", slog.String("backend", cfg.CatalogBackend))

	// redis setup
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	slog.Info("Connected to Redis", slog.String("addr", cfg.Redis.Addr))

	cachedStore := cache.NewCachedStore(store, redisClient, cfg.Redis.SongTTL)

	// blob store setup
	mediaService, err := media.NewService(cfg)
	if err != nil {
		log.Fatal("Failed to initialize media service:", err)
	}
	slog.Info("Connected to MinIO", slog.String("bucket", cfg.MinIO.BucketName))

	// realtime events
	hub := websocket.NewHub()
	go hub.Run(ctx)
	publisher := events.NewEventPublisher(hub)

	logger := slog.Default()
	catalogService := catalog.NewService(cachedStore, mediaService, cfg.Ingest.ResourceType, logger)
	reconciler := ingest.NewReconciler(mediaService, cachedStore, ingest.Options{
		MaxParallel:  cfg.Ingest.MaxParallel,
		Folder:       cfg.Ingest.Folder,
		ResourceType: cfg.Ingest.ResourceType,
	}, logger).WithPublisher(publisher)

	songs := songHandlers.NewSongHandlers(catalogService, reconciler, publisher, validation.New(), cfg.Media)

	auth := middleware.AuthMiddleware(cfg.JWTSecret)
	rateLimits := middleware.NewRateLimitConfig(redisClient, cfg.RateLimit)

	// setup server
	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, response.RequestOK("ok", map[string]any{
			"cache":             cache.GetStats(r.Context(), redisClient),
			"websocket_clients": hub.GetClientCount(),
		}))
	})
	router.Handle("GET /metrics", promhttp.Handler())
	router.HandleFunc("GET /ws", wsHandlers.WebSocketHandler(hub, cfg.JWTSecret))

	router.HandleFunc("GET /songs", songs.List())
	router.HandleFunc("GET /songs/random", songs.Random())
	router.HandleFunc("GET /songs/{id}", songs.Get())
	router.HandleFunc("POST /songs/{id}/play", songs.Play())
	router.Handle("POST /songs/upload", auth(rateLimits.RateLimitMiddleware(middleware.ActionUploads)(songs.Upload())))
	router.Handle("PATCH /songs/{id}", auth(songs.Update()))
	router.Handle("DELETE /songs/{id}", auth(songs.Delete()))

	server := http.Server{
		Addr:    cfg.HTTPServer.Address,
		Handler: middleware.Metrics(router),
	}

	log.Println("server started on", cfg.HTTPServer.Address)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %s", err)
		}
	}()

	<-done

	slog.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
	}
	cancel()

	slog.Info("Server stopped")
}
