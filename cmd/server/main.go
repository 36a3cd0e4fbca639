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

	"naratmalsami/internal/api"
	"naratmalsami/internal/config"
	"naratmalsami/internal/db"
	"naratmalsami/internal/docsync"
	"naratmalsami/internal/loader"
	"naratmalsami/internal/repository"
	"naratmalsami/internal/services/collaboration"
	"naratmalsami/internal/store"
	"naratmalsami/internal/telemetry"
)

const version = "0.1.0"

func main() {
	log.Println("🚀 Starting naratmalsami document sync server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	// Tracing first so every later operation is traced
	jaegerShutdown, err := telemetry.InitJaeger("naratmalsami", version, cfg.JaegerEndpoint, 1)
	if err != nil {
		log.Printf("⚠️  Failed to initialize Jaeger: %v (continuing without tracing)", err)
		jaegerShutdown = telemetry.NoopShutdown
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := jaegerShutdown(ctx); err != nil {
			log.Printf("⚠️  Failed to shutdown Jaeger: %v", err)
		}
	}()

	database, err := db.NewGorm(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer database.Close()

	docRepo := repository.NewDocumentRepository(database.DB)
	revRepo := repository.NewRevisionRepository(database.DB)

	// Shared in-memory document store; flushes write through to postgres
	var persister store.Persister
	if cfg.PersistFlushes {
		persister = docRepo
	}
	memStore := store.NewMemoryStore(persister)

	// Initial documents come from the remote files API when configured
	var docLoader docsync.DocumentLoader = loader.NewRepositoryLoader(docRepo)
	if cfg.APIURL != "" {
		docLoader = loader.NewHTTPLoader(cfg.APIURL, cfg.APIToken)
		log.Printf("✓ Loading documents from %s", cfg.APIURL)
	}

	sessionManager := collaboration.NewSessionManager(memStore, docLoader, revRepo, collaboration.ManagerConfig{
		IdleDuration:  cfg.IdleDuration,
		RevisionsKept: cfg.RevisionsKept,
	})
	sessionManager.Start()

	wsHandler := collaboration.NewWebSocketHandler(sessionManager)
	handler := api.NewHandler(docRepo, revRepo, memStore, wsHandler)
	router := api.SetupRoutes(handler)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🌐 Server listening on http://%s (idle flush after %s)", addr, cfg.IdleDuration)
		log.Printf("   POST   /api/documents                 - Create document")
		log.Printf("   GET    /api/documents/:id             - Get document (live content if open)")
		log.Printf("   GET    /api/documents/:id/revisions   - Flush history")
		log.Printf("   WS     /ws/document/:id               - Editing session")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Editing sessions are hijacked connections that server.Shutdown does not
	// track, so tear them down explicitly
	sessionManager.Shutdown()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️  Server forced to shutdown: %v", err)
	}

	log.Println("✓ Server shutdown complete")
}
