package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dimitrije/taskhub-api/internal/config"
	"github.com/dimitrije/taskhub-api/internal/database"
	"github.com/dimitrije/taskhub-api/internal/models"
	"github.com/dimitrije/taskhub-api/pkg/logger"
	"github.com/google/uuid"
)

// grant-admin restores an admin on a project, e.g. when a project was left
// without one by direct database edits.
func main() {
	if len(os.Args) != 3 {
		fmt.Println("Usage: grant-admin <project-id> <email>")
		os.Exit(1)
	}

	projectID, err := uuid.Parse(os.Args[1])
	if err != nil {
		logger.Fatalf("Invalid project id: %v", err)
	}
	email := os.Args[2]

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	result, err := db.Pool.Exec(ctx, `
		UPDATE project_members pm SET role = $1
		FROM users u, projects p
		WHERE pm.user_id = u.id AND pm.project_id = p.id
		  AND p.id = $2 AND p.deleted_at IS NULL AND u.email = lower($3)
	`, models.RoleAdmin, projectID, email)
	if err != nil {
		logger.Fatalf("Failed to update member: %v", err)
	}

	if result.RowsAffected() == 0 {
		logger.Fatalf("%s is not a member of project %s", email, projectID)
	}

	fmt.Printf("Successfully granted admin on %s to %s\n", projectID, email)
}
