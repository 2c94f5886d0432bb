package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dimitrije/taskhub-api/internal/config"
	"github.com/dimitrije/taskhub-api/internal/database"
	"github.com/dimitrije/taskhub-api/internal/handlers"
	"github.com/dimitrije/taskhub-api/internal/hub"
	authmw "github.com/dimitrije/taskhub-api/internal/middleware"
	"github.com/dimitrije/taskhub-api/internal/models"
	"github.com/dimitrije/taskhub-api/internal/queue"
	"github.com/dimitrije/taskhub-api/internal/services"
	"github.com/dimitrije/taskhub-api/pkg/logger"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
	"github.com/robfig/cron/v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.LogLevel, cfg.LogFile)

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	channels := hub.NewHub()
	go channels.Run()

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	inviteTokens := services.NewInviteTokenService(cfg.InviteSecret, cfg.InviteExpiry)
	userService := services.NewUserService(db)
	tokenService := services.NewTokenService(db)
	membershipService := services.NewMembershipService(db)
	projectService := services.NewProjectService(db, membershipService, channels)
	taskLogService := services.NewTaskLogService(db)
	notificationService := services.NewNotificationService(db, membershipService, channels)
	emailService := services.NewEmailService(cfg.SMTP)

	dispatcher := queue.New(cfg.Queue, notificationService.HandleFanOut)
	defer func() {
		if err := dispatcher.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close fan-out queue")
		}
	}()

	taskService := services.NewTaskService(db, membershipService, taskLogService, dispatcher)
	inviteService := services.NewInviteService(membershipService, projectService, userService,
		inviteTokens, emailService, channels, cfg.BaseURL, cfg.FrontendURL)

	authHandler := handlers.NewAuthHandler(userService, tokenService, jwtService)
	userHandler := handlers.NewUserHandler(userService)
	projectHandler := handlers.NewProjectHandler(projectService, membershipService)
	taskHandler := handlers.NewTaskHandler(taskService, taskLogService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	inviteHandler := handlers.NewInviteHandler(inviteService, cfg.InviteExpiry)
	realtimeHandler := handlers.NewRealtimeHandler(channels, membershipService, userService, jwtService)

	limiter := authmw.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.TrustProxy)
	defer limiter.Stop()

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())
	app.Use(authmw.RequestLogger())

	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Use(limiter.Middleware())
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.RefreshToken)
	auth.Post("/logout", authHandler.Logout)

	// Public invite redemption (no auth required)
	invites := api.Group("/invites")
	invites.Use(limiter.Middleware())
	invites.Post("/redeem", inviteHandler.Redeem)
	invites.Get("/:token/accept", inviteHandler.Accept)

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService))
	protected.Use(authmw.RequireProjectRole(membershipService, models.AnyMember))

	protected.Post("/auth/logout-all", authHandler.LogoutAll)

	protected.Get("/users/me", userHandler.GetMe)
	protected.Patch("/users/me", userHandler.UpdateMe)

	protected.Get("/notifications", notificationHandler.ListAll)
	protected.Get("/notifications/unread", notificationHandler.ListUnread)
	protected.Post("/notifications/read", notificationHandler.MarkAllRead)

	protected.Get("/projects", projectHandler.List)
	protected.Post("/projects", projectHandler.Create)
	protected.Get("/projects/:projectId", projectHandler.Get)
	protected.Patch("/projects/:projectId", projectHandler.Update)
	protected.Delete("/projects/:projectId", projectHandler.Delete)
	protected.Get("/projects/:projectId/members", projectHandler.ListMembers)
	protected.Patch("/projects/:projectId/members/:userId", projectHandler.ChangeMemberRole)
	protected.Delete("/projects/:projectId/members/:userId", projectHandler.RemoveMember)
	protected.Post("/projects/:projectId/invites", inviteHandler.Create)

	protected.Get("/projects/:projectId/tasks", taskHandler.List)
	protected.Post("/projects/:projectId/tasks", taskHandler.Create)
	protected.Get("/projects/:projectId/tasks/:taskId", taskHandler.Get)
	protected.Patch("/projects/:projectId/tasks/:taskId", taskHandler.Update)
	protected.Delete("/projects/:projectId/tasks/:taskId", taskHandler.Delete)
	protected.Patch("/projects/:projectId/tasks/:taskId/status", taskHandler.ChangeStatus)
	protected.Patch("/projects/:projectId/tasks/:taskId/priority", taskHandler.ChangePriority)
	protected.Patch("/projects/:projectId/tasks/:taskId/assignee", taskHandler.Reassign)
	protected.Get("/projects/:projectId/tasks/:taskId/logs", taskHandler.Logs)

	api.Get("/health", func(c *drift.Context) {
		queueBackend := "local"
		if dispatcher.IsAsync() {
			queueBackend = "redis"
		}
		_ = c.JSON(200, map[string]any{
			"status":  "ok",
			"clients": channels.ClientCount(),
			"queue":   queueBackend,
		})
	})

	// Live channels authenticate with ?token= as browsers cannot set headers on them.
	api.Get("/ws", realtimeHandler.Connect)
	api.Get("/events", realtimeHandler.Stream)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@hourly", func() {
		removed, err := tokenService.CleanupExpired(context.Background())
		if err != nil {
			logger.Error().Err(err).Msg("[Cron] refresh token cleanup failed")
			return
		}
		logger.Debug().Int64("removed", removed).Msg("[Cron] expired refresh tokens removed")
	}); err != nil {
		logger.Fatalf("Failed to schedule token cleanup: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
