package main

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/gestionhq/gestion-backend/internal/server/api"
	"github.com/gestionhq/gestion-backend/internal/server/config"
	"github.com/gestionhq/gestion-backend/internal/server/services"
	"github.com/gestionhq/gestion-backend/internal/server/setup"
	"github.com/gestionhq/gestion-backend/internal/server/storage"
	"github.com/gestionhq/gestion-backend/pkg/version"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var rootCmd = &cobra.Command{
	Use:   "gestion-server",
	Short: "User administration backend with passwordless email authentication",
	Long:  "Backend for the user administration system: one-time login codes by email, signed sessions and session revocation",
	// Default to serve command if no subcommand provided
	Run: func(cmd *cobra.Command, args []string) {
		runServe(cmd, args)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Run:   runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.GetVersion("gestion-server"))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, adminCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	log.Printf("=== Gestión de Usuarios ===")
	log.Printf("%s", version.GetVersion("gestion-server"))

	// Auth configuration is fatal at startup: serving login routes with a
	// missing or weak signing secret is not an option.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := setup.CheckAndSetupDatabase(); err != nil {
		log.Fatalf("Failed to setup database: %v", err)
	}

	log.Println("Connecting to database...")
	db, err := storage.NewPostgresDB()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("Running database migrations...")
	if err := runEmbeddedMigrations(db.DB.DB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Repositories
	userRepo := storage.NewUserRepository(db)
	tokenRepo := storage.NewTokenRepository(db)
	sessionRepo := storage.NewSessionRepository(db)

	// Notification sink
	var sender services.CodeSender
	if os.Getenv("EMAIL_MODE") == "demo" {
		log.Println("Email demo mode: login codes will be logged, not sent")
		sender = services.DemoSender{}
	} else {
		emailService, err := services.NewEmailService()
		if err != nil {
			log.Fatalf("Failed to initialize email service: %v", err)
		}
		sender = emailService
	}

	// Rate-limit counters: in-process by default, redis when configured
	var counters services.CounterStore
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Fatalf("Invalid REDIS_URL: %v", err)
		}
		counters = services.NewRedisCounterStore(redis.NewClient(opts))
		log.Println("Rate limit counters: redis")
	} else {
		counters = services.NewMemoryCounterStore()
		log.Println("Rate limit counters: in-memory")
	}

	requestLimiter := services.NewFixedWindowLimiter(counters, "rl:token-request", cfg.RequestLimit, cfg.RateWindow)
	verifyLimiter := services.NewFixedWindowLimiter(counters, "rl:token-verify", cfg.VerifyLimit, cfg.RateWindow)

	authService := services.NewAuthService(cfg, tokenRepo, sessionRepo, userRepo, sender)
	authHandler := api.NewAuthHandler(authService)

	// Router
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(api.CORSMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","service":"gestion-backend"}`))
	})

	r.Route("/auth", func(r chi.Router) {
		r.With(api.RateLimit(requestLimiter, api.ClientIPKey)).
			Post("/request-token", authHandler.RequestToken)
		r.With(api.RateLimit(verifyLimiter, api.ClientIPKey)).
			Post("/verify-token", authHandler.VerifyToken)

		r.Group(func(r chi.Router) {
			r.Use(api.AuthMiddleware(authService))
			r.Get("/status", authHandler.Status)
			r.Post("/logout", authHandler.Logout)

			r.With(api.RequireAdmin).Post("/sweep-expired", authHandler.SweepExpired)
		})
	})

	host := os.Getenv("API_HOST")
	if host == "" {
		host = "0.0.0.0"
	}
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	addr := fmt.Sprintf("%s:%s", host, port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Background reaper
	go runSweeper(authService, cfg.SweepInterval)

	go func() {
		log.Printf("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func runSweeper(authService *services.AuthService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		ctx := context.Background()
		tokens, sessions, err := authService.SweepExpired(ctx)
		if err != nil {
			log.Printf("Failed to sweep expired auth state: %v", err)
			continue
		}
		if tokens > 0 || sessions > 0 {
			log.Printf("Sweep: deleted %d expired tokens, deactivated %d expired sessions", tokens, sessions)
		}
	}
}

func runEmbeddedMigrations(db *sql.DB) error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	// Sort migrations by filename to ensure correct order
	var migrations []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".sql" {
			migrations = append(migrations, entry.Name())
		}
	}
	sort.Strings(migrations)

	for _, migration := range migrations {
		log.Printf("Applying migration: %s", migration)

		content, err := migrationsFS.ReadFile(filepath.Join("migrations", migration))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", migration, err)
		}

		if _, err := db.Exec(string(content)); err != nil {
			log.Printf("Warning: Migration %s: %v (may already exist)", migration, err)
		}
	}

	return nil
}
