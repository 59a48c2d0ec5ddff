package router

import (
	"log"

	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/schlyythetech/taskmaster/internal/handlers"
	"github.com/schlyythetech/taskmaster/internal/middleware"
	"github.com/schlyythetech/taskmaster/internal/notifications"
	"github.com/schlyythetech/taskmaster/internal/repositories"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Logger())
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, pgdb *gorm.DB, mgClient *mongo.Client) {
	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	projectRepo := repositories.NewPostgresProjectRepository(pgdb)
	membershipRepo := repositories.NewPostgresMembershipRepository(pgdb)
	taskRepo := repositories.NewPostgresTaskRepository(pgdb)
	commentRepo := repositories.NewPostgresCommentRepository(pgdb)
	connectionRepo := repositories.NewPostgresConnectionRepository(pgdb)
	notificationRepo := repositories.NewPostgresNotificationRepository(pgdb)

	var attachmentRepo repositories.AttachmentRepository
	if mgClient != nil {
		attachmentRepo = repositories.NewMongoAttachmentRepository(mgClient.Database("taskmaster"))
	}

	workflowEngine := notifications.NewEngine(pgdb)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userRepo)
	authHandler.RegisterAuthRoutes(authGroup)
	log.Println("Auth routes configured.")

	// --- Protected routes (require JWT authentication and, for writes, CSRF) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware())
	api.Use(middleware.RequireCSRF())
	log.Println("JWT authentication middleware applied to /api/v1 group.")

	// User profile routes
	userHandler := handlers.NewUserHandler(userRepo)
	userHandler.RegisterProfileRoutes(api)
	api.GET("/users/search", userHandler.SearchUsers)
	log.Println("User profile routes configured.")

	// Project and membership routes
	projectHandler := handlers.NewProjectHandler(projectRepo, membershipRepo, userRepo, notificationRepo)
	projectHandler.RegisterProjectRoutes(api)
	log.Println("Project routes configured.")

	// Task routes
	taskHandler := handlers.NewTaskHandler(taskRepo, projectRepo, membershipRepo, userRepo, notificationRepo, attachmentRepo)
	taskHandler.RegisterTaskRoutes(api)
	log.Println("Task routes configured.")

	// Comment routes
	commentHandler := handlers.NewCommentHandler(commentRepo, taskRepo, userRepo, notificationRepo)
	commentHandler.RegisterCommentRoutes(api)
	log.Println("Comment routes configured.")

	// Connection routes
	connectionHandler := handlers.NewConnectionHandler(connectionRepo, userRepo, notificationRepo)
	connectionHandler.RegisterConnectionRoutes(api)
	log.Println("Connection routes configured.")

	// Attachment metadata routes (MongoDB-backed; skipped when Mongo is not configured)
	if attachmentRepo != nil {
		attachmentHandler := handlers.NewAttachmentHandler(attachmentRepo, taskRepo)
		attachmentHandler.RegisterAttachmentRoutes(api)
		log.Println("Attachment routes configured.")
	}

	// Notification mailbox routes
	notificationHandler := handlers.NewNotificationHandler(notificationRepo, userRepo, workflowEngine)
	notificationHandler.RegisterNotificationRoutes(api)
	log.Println("Notification routes configured.")

	log.Println("All routes configured.")
}
