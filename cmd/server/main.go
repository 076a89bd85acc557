/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the premium allocation server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags (and optional YAML config)
  2. Initialize SQLite store
  3. Create dispatcher and API handler
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: atlas.db)
           Use ":memory:" for an in-memory database
  -out     Directory for CSV artifacts (default: current directory)
  -config  Optional YAML config file; flags win over file values

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Wait for in-flight allocation runs to reach a terminal state
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/atlas.db"

  # Run with a config file, overriding the port
  ./server -config=config.yaml -port=3000

SEE ALSO:
  - config/config.go: YAML configuration shape
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chefomid/ATLAS-2/api"
	"github.com/chefomid/ATLAS-2/config"
	"github.com/chefomid/ATLAS-2/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "Optional YAML config file")
	port := flag.Int("port", 0, "HTTP server port")
	dbPath := flag.String("db", "", "SQLite database path")
	outDir := flag.String("out", "", "Directory for CSV artifacts")
	flag.Parse()

	cfg := config.LoadOrDefault(*configPath)
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Storage.DatabasePath = *dbPath
	}
	if *outDir != "" {
		cfg.Storage.OutputDir = *outDir
	}

	// Initialize store
	store, err := sqlite.New(cfg.Storage.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Dispatcher and handler
	dispatcher := api.NewDispatcher(store, cfg.Storage.OutputDir)
	handler := api.NewHandler(store, dispatcher)

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", cfg.Server.Port)
		log.Printf("API available at http://localhost:%d/api", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	// Let in-flight runs record their terminal state before the store closes.
	dispatcher.Wait()

	log.Println("Server stopped")
}
