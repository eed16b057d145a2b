package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/habit-proofs/internal/api"
	"github.com/dom/habit-proofs/internal/config"
	"github.com/dom/habit-proofs/internal/repository/postgres"
	"github.com/dom/habit-proofs/internal/service"
	"github.com/dom/habit-proofs/internal/storage"
	"github.com/dom/habit-proofs/internal/websocket"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Initialize database
	logLevel := logger.Warn
	if cfg.IsDevelopment() {
		logLevel = logger.Info
	}
	db, err := postgres.NewConnection(cfg.DatabaseURL, logLevel)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Initialize repositories
	repos := postgres.NewRepositories(db)

	// Initialize blob storage
	blobs, err := storage.NewS3Store(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Initialize realtime delivery
	presence := websocket.NewPresence()
	dispatcher := websocket.NewDispatcher(presence)

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}

		relay := websocket.NewRedisRelay(rdb)
		dispatcher.SetRelay(relay)
		go relay.Run(ctx, dispatcher)
		log.Printf("Event relay enabled via %s", cfg.RedisAddr)
	}

	// Initialize identity provider
	var provider service.IdentityProvider
	if google := service.NewGoogleProvider(cfg); google != nil {
		provider = google
	} else {
		log.Println("WARN [main] Google OAuth is not configured, /auth/google is disabled")
	}

	// Initialize services
	services := service.NewServices(repos, cfg, provider, blobs, dispatcher)

	// Initialize router
	router := api.NewRouter(services, presence, cfg)

	// Create server
	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	stop()

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
	presence.CloseAll()

	log.Println("Server stopped")
}
