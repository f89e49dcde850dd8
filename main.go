package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmarban/tasklane-be/internal/api"
	"github.com/lmarban/tasklane-be/internal/auth"
	"github.com/lmarban/tasklane-be/internal/config"
	"github.com/lmarban/tasklane-be/internal/database"
	"github.com/lmarban/tasklane-be/internal/logger"
	"github.com/lmarban/tasklane-be/internal/monitoring"
	"github.com/lmarban/tasklane-be/internal/services"
	"github.com/lmarban/tasklane-be/internal/websocket"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to apply database migrations: %v", err)
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up token signing
	authManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	// Set up services
	userService := services.NewUserService(db)
	tokenService := services.NewTokenService(db, authManager, userService)
	activityService := services.NewActivityService(db, hub)
	taskService := services.NewTaskService(db, activityService)

	// Set up and run the background refresh token purger
	tokenPurger, err := monitoring.NewTokenPurger(tokenService, cfg.TokenPurgeSchedule)
	if err != nil {
		log.Fatalf("Invalid token purge schedule: %v", err)
	}
	go tokenPurger.Run()

	// Set up and run the background stats updater
	statUpdater := monitoring.NewStatUpdater(hub, cfg.StatInterval)
	go statUpdater.Run()

	// Set up router
	router := api.NewRouter(authManager, hub, userService, tokenService, taskService, activityService, cfg.CORSOrigin)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on port %d\n", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	statUpdater.Stop()
	tokenPurger.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
