package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/pulsemaps/pulsemap/internal/api"
	"github.com/pulsemaps/pulsemap/internal/chat"
	"github.com/pulsemaps/pulsemap/internal/config"
	"github.com/pulsemaps/pulsemap/internal/feeds"
	"github.com/pulsemaps/pulsemap/internal/logging"
	"github.com/pulsemaps/pulsemap/internal/models"
	"github.com/pulsemaps/pulsemap/internal/observability"
	"github.com/pulsemaps/pulsemap/internal/repository"
	"github.com/pulsemaps/pulsemap/internal/reveal"
	"github.com/pulsemaps/pulsemap/internal/selection"
	"github.com/pulsemaps/pulsemap/internal/updates"
	"github.com/pulsemaps/pulsemap/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessionID, err := repository.EnsureSession(ctx, db)
	if err != nil {
		logging.Fatalf("Failed to establish session identity: %v", err)
	}
	slog.Info("session ready", "session_id", sessionID)

	metrics := observability.NewMetrics()

	// Feed refreshes run through a bounded worker pool
	pool := worker.NewPool(cfg.Worker.Count, cfg.Worker.BufferSize)
	pool.Start(ctx)

	urls := make(map[models.SourceKind]string)
	for _, src := range cfg.Sources.All() {
		urls[src.Kind] = src.URL
	}
	mgr := feeds.NewManager(cfg, feeds.NewClient(urls), pool, nil, metrics)
	mgr.Start(ctx)

	// Single selection register; the aggregator recomputes local updates on
	// every selection change
	register := selection.NewRegister()
	aggregator := updates.NewAggregator(mgr, cfg.Updates, nil)
	aggregator.Watch(ctx, register)

	revealer := reveal.NewScheduler(nil)
	chatLog := chat.NewLog()
	orchestrator := chat.NewOrchestrator(
		chat.NewClient(cfg.Chat.URL, cfg.Chat.Timeout),
		chatLog, register, revealer, mgr, metrics, sessionID,
	)
	uploader := chat.NewUploader(cfg.Chat.UploadURL, cfg.Chat.UploadBase)

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(10, 20))

	handler := api.NewHandler(register, aggregator, orchestrator, uploader, revealer, mgr, metrics)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	mgr.Stop()
	aggregator.Stop()
	register.Close()
	pool.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
