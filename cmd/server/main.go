package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dactylogame/internal/config"
	"dactylogame/internal/corpus"
	"dactylogame/internal/database"
	"dactylogame/internal/handlers"
	"dactylogame/internal/repository"
	"dactylogame/internal/security"
	"dactylogame/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	if cfg.JWTSecret == "" {
		// Tokens won't survive a restart without a configured secret
		cfg.JWTSecret = security.GenerateSessionToken()
		log.Println("Warning: JWT_SECRET not set, using an ephemeral secret")
	}

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Word corpus is loaded lazily on the first game start
	words := corpus.NewSource(cfg.CorpusPath)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	gameRepo := repository.NewGameRepository(db)
	scoreRepo := repository.NewScoreRepository(db)

	// Initialize services
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenDuration)
	gameService := service.NewGameService(gameRepo, words,
		cfg.RoundDuration, cfg.DurationTolerance, cfg.WordCountMin, cfg.WordCountMax)
	rankingService := service.NewRankingService(scoreRepo, userRepo)

	// Initialize handlers
	limiter := security.NewRateLimiter(10, time.Minute)
	middleware := handlers.NewMiddleware(authService, limiter)
	authHandler := handlers.NewAuthHandler(authService)
	gameHandler := handlers.NewGameHandler(gameService, rankingService)

	// Setup routes
	mux := http.NewServeMux()

	// Static assets (frontend, word corpus)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticFilesPath))))

	// Auth routes
	mux.HandleFunc("POST /api/auth/register", middleware.RateLimit(authHandler.Register))
	mux.HandleFunc("POST /api/auth/login", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("GET /api/auth/me", middleware.RequireAuth(authHandler.Me))

	// Game routes, playable with or without authentication
	mux.HandleFunc("POST /api/start-game", middleware.OptionalAuth(gameHandler.StartGame))
	mux.HandleFunc("POST /api/check-word", gameHandler.CheckWord)
	mux.HandleFunc("POST /api/end-game", gameHandler.EndGame)
	mux.HandleFunc("GET /api/ranking", middleware.OptionalAuth(gameHandler.Ranking))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Sweep abandoned sessions in the background
	go cleanupStaleSessions(gameRepo, cfg.SessionRetention)

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// cleanupStaleSessions periodically removes sessions that were started but
// never finalized
func cleanupStaleSessions(gameRepo *repository.GameRepository, retention time.Duration) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		removed, err := gameRepo.DeleteStaleSessions(time.Now().Add(-retention))
		if err != nil {
			log.Printf("Error cleaning up stale sessions: %v", err)
		} else if removed > 0 {
			log.Printf("Removed %d stale game sessions", removed)
		}
	}
}
