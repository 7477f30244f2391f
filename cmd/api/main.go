// Command api serves the placement workflow HTTP API and websocket gateway.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"live-placement-backend/internal/config"
	"live-placement-backend/internal/database"
	"live-placement-backend/internal/server"
	"live-placement-backend/internal/telemetry"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")
	stop()

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

// @title Live Placement API
// @version 1.0
// @description Placement workflow API: shortlists, interview stages, offers and process completion. Changes are pushed to websocket rooms at /api/v1/ws.
// @BasePath /api/v1
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %s", err)
	}

	shutdownTracing, err := telemetry.Setup(context.Background(), cfg.OTelEndpoint, cfg.OTelEnabled)
	if err != nil {
		log.Printf("Tracing disabled: %s", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Printf("Failed to flush traces: %s", err)
		}
	}()

	db, err := database.NewDBInstance(&cfg.Database)
	if err != nil {
		log.Fatalf("Database failed to initialized: %s", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Failed to close database: %s", err)
		}
	}()

	apiServer := server.NewServer(cfg, db)

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(apiServer, done)

	log.Printf("Listening on %s", apiServer.Addr)
	err = apiServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("http server error: %s", err)
		return
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")
}
