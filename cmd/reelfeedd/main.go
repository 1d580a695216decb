package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/reelfeed/reelfeed/internal/catalog"
	"github.com/reelfeed/reelfeed/internal/comment"
	"github.com/reelfeed/reelfeed/internal/config"
	"github.com/reelfeed/reelfeed/internal/database"
	"github.com/reelfeed/reelfeed/internal/server"
	"github.com/reelfeed/reelfeed/internal/storage"
)

func newLogger(level string) *slog.Logger {
	handler := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	if lvl, err := log.ParseLevel(level); err == nil {
		handler.SetLevel(lvl)
	}
	return slog.New(handler)
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	slog.SetDefault(newLogger(cfg.LogLevel))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		fatal("database connection failed", err)
	}
	defer db.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		fatal("database migration failed", err)
	}
	slog.Info("database migrations applied")

	store, err := storage.New(ctx, storage.Config{
		Endpoint:       cfg.S3Endpoint,
		PublicEndpoint: cfg.S3PublicEndpoint,
		Bucket:         cfg.S3Bucket,
		AccessKey:      cfg.S3AccessKey,
		SecretKey:      cfg.S3SecretKey,
		Region:         cfg.S3Region,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	if err != nil {
		fatal("storage initialization failed", err)
	}

	if err := store.EnsureBucket(ctx); err != nil {
		fatal("storage bucket check failed", err)
	}
	if len(cfg.CORSOrigins) > 0 {
		if err := store.SetCORS(ctx, cfg.CORSOrigins); err != nil {
			slog.Warn("storage: failed to set bucket CORS", "error", err)
		}
	}
	slog.Info("storage bucket ready", "bucket", cfg.S3Bucket)

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	hub := comment.NewHub(comment.NewStore(db.Pool))
	var publisher comment.Publisher = hub

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			fatal("redis connection failed", err)
		}

		broker := comment.NewBroker(rdb, hub)
		publisher = broker

		ready := make(chan struct{})
		brokerErr := make(chan error, 1)
		go func() { brokerErr <- broker.Run(bgCtx, ready) }()
		select {
		case <-ready:
		case err := <-brokerErr:
			fatal("comment broker failed to start", err)
		}
		slog.Info("comment fan-out over redis enabled", "addr", cfg.RedisAddr)
	}

	srv, err := server.New(server.Config{
		DB:               db.Pool,
		Pinger:           db,
		Storage:          store,
		JWTSecret:        cfg.JWTSecret,
		BaseURL:          cfg.BaseURL,
		MaxUploadBytes:   cfg.MaxUploadBytes,
		S3PublicEndpoint: cfg.S3PublicEndpoint,
		CORSOrigins:      cfg.CORSOrigins,
		EnableDocs:       cfg.APIDocsEnabled,
		Hub:              hub,
		CommentPublisher: publisher,
	})
	if err != nil {
		fatal("server setup failed", err)
	}

	srv.StartCleanupLoop(bgCtx, 5*time.Minute)
	catalog.StartCleanupLoop(bgCtx, db.Pool, store, 10*time.Minute)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("reelfeedd listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("http server failed", err)
		}
	}()

	<-shutdownCh
	slog.Info("shutting down...")
	bgCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fatal("shutdown failed", err)
	}
	slog.Info("shutdown complete")
}
