package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studybuddy/backend/internal/api/handler"
	"studybuddy/backend/internal/auth"
	"studybuddy/backend/internal/chathub"
	"studybuddy/backend/internal/config"
	"studybuddy/backend/internal/scheduler"
	"studybuddy/backend/internal/session"
	"studybuddy/backend/internal/storage"

	"github.com/redis/go-redis/v9"
)

func setupRelay(ctx context.Context, cfg config.RedisConfig) (chathub.Relay, *redis.Client) {
	if !cfg.Enabled {
		log.Println("INFO: Redis disabled, room events stay in this process.")
		return chathub.NewLocalRelay(config.SendBufferSize), nil
	}

	rdb, err := storage.ConnectRedis(ctx, cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}
	log.Printf("INFO: Redis relay connected at %s", cfg.Addr)
	return storage.NewRedisRelay(rdb), rdb
}

func main() {
	log.Println("Starting StudyBuddy Backend...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Dependencies
	db, err := storage.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Database setup failed: %v", err)
	}
	s := storage.NewStorageService(db)
	relay, rdb := setupRelay(ctx, cfg.Redis)

	// 2. Services
	hub := chathub.NewManagerService(s, relay)
	sessions := session.NewManager(s, hub)
	tokens := auth.NewTokenIssuer(cfg.Auth)
	authService := auth.NewService(s, tokens)

	go hub.Run(ctx)

	cron, err := scheduler.Start(&scheduler.Housekeeper{Locks: sessions, Rooms: hub}, cfg.Housekeeping.Interval)
	if err != nil {
		log.Fatalf("Housekeeping setup failed: %v", err)
	}
	defer cron.Stop()

	// 3. HTTP
	h := handler.NewHandler(sessions, hub, authService, s)
	if rdb != nil {
		h.Checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	r := handler.NewRouter(h, tokens, cfg.CORS)

	server := &http.Server{
		Addr:           cfg.Server.Addr(),
		Handler:        r,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Printf("INFO: Listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("INFO: Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: HTTP shutdown: %v", err)
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Printf("ERROR: Redis close: %v", err)
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Println("INFO: Stopped.")
}
