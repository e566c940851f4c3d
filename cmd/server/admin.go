package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/gestionhq/gestion-backend/internal/server/config"
	"github.com/gestionhq/gestion-backend/internal/server/services"
	"github.com/gestionhq/gestion-backend/internal/server/storage"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrative commands",
	Long:  "Administrative commands for inspecting sessions and cleaning up expired auth state",
}

var sweepExpiredCmd = &cobra.Command{
	Use:   "sweep-expired",
	Short: "Delete expired login tokens and deactivate expired sessions",
	Run:   runSweepExpiredCommand,
}

var listSessionsCmd = &cobra.Command{
	Use:   "list-sessions",
	Short: "List sessions for a user",
	Run:   runListSessionsCommand,
}

func init() {
	listSessionsCmd.Flags().String("email", "", "User email (required)")
	listSessionsCmd.MarkFlagRequired("email")

	adminCmd.AddCommand(sweepExpiredCmd, listSessionsCmd)
}

func adminAuthService() (*services.AuthService, *storage.DB) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, err := storage.NewPostgresDB()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	tokenRepo := storage.NewTokenRepository(db)
	sessionRepo := storage.NewSessionRepository(db)
	userRepo := storage.NewUserRepository(db)

	// Admin commands never issue codes, so the demo sender is enough.
	return services.NewAuthService(cfg, tokenRepo, sessionRepo, userRepo, services.DemoSender{}), db
}

func runSweepExpiredCommand(cmd *cobra.Command, args []string) {
	authService, db := adminAuthService()
	defer db.Close()

	tokens, sessions, err := authService.SweepExpired(context.Background())
	if err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}

	fmt.Printf("Deleted %d expired tokens\n", tokens)
	fmt.Printf("Deactivated %d expired sessions\n", sessions)
}

func runListSessionsCommand(cmd *cobra.Command, args []string) {
	email, _ := cmd.Flags().GetString("email")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	db, err := storage.NewPostgresDB()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	userRepo := storage.NewUserRepository(db)
	sessionRepo := storage.NewSessionRepository(db)

	ctx := context.Background()

	user, err := userRepo.GetActiveByEmail(ctx, email)
	if err != nil {
		log.Fatalf("Failed to look up user: %v", err)
	}
	if user == nil {
		log.Fatalf("User not found or inactive: %s", email)
	}

	sessions, err := sessionRepo.ListByUser(ctx, user.ID)
	if err != nil {
		log.Fatalf("Failed to list sessions: %v", err)
	}

	fmt.Printf("User: %s %s <%s> (%s)\n\n", user.FirstName, user.LastName, user.Email, user.Role)

	if len(sessions) == 0 {
		fmt.Println("No sessions recorded for this user.")
		return
	}

	fmt.Printf("Sessions (%d):\n", len(sessions))
	fmt.Println(strings.Repeat("=", 100))
	fmt.Printf("%-36s %-8s %-20s %-20s %s\n", "ID", "Active", "Created", "Expires", "IP")
	fmt.Println(strings.Repeat("=", 100))

	for _, s := range sessions {
		active := "yes"
		if !s.Active {
			active = "no"
		}
		fmt.Printf("%-36s %-8s %-20s %-20s %s\n",
			s.ID,
			active,
			s.CreatedAt.Format("2006-01-02 15:04:05"),
			s.ExpiresAt.Format("2006-01-02 15:04:05"),
			s.IPAddress,
		)
	}
	fmt.Println(strings.Repeat("=", 100))
}
