// @title Quiz Class API
// @version 1.0
// @description API for assigning quizzes to learners and tracking their attempts.
// @termsOfService http://swagger.io/terms/
// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8090
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"quiz-class/internal/adapter"
	"quiz-class/internal/cache"
	"quiz-class/internal/config"
	"quiz-class/internal/database"
	"quiz-class/internal/domain"
	"quiz-class/internal/grading"
	"quiz-class/internal/handler"
	"quiz-class/internal/logger"
	"quiz-class/internal/middleware"
	"quiz-class/internal/repository"
	"quiz-class/internal/service"
	"strconv"
	"syscall"
	"time"

	_ "quiz-class/cmd/api/docs"

	"github.com/gofiber/swagger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// requestLogger is a middleware that logs HTTP requests
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()

		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()

		logger.Get().Info("HTTP Request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.String("ip", c.IP()),
			zap.String("user_agent", c.Get("User-Agent")),
		)

		return err
	}
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	// Connect to database
	db, err := database.NewSQLXOracleDB(cfg.GetDSN())
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Initialize repositories
	quizRepository := repository.NewSQLXQuizRepository(db)
	questionRepository := repository.NewSQLXQuestionRepository(db)
	subjectRepository := repository.NewSQLXSubjectRepository(db)
	attemptRepository := repository.NewSQLXAttemptRepository(db)
	responseRepository := repository.NewSQLXResponseRepository(db)
	assignmentRepository := repository.NewSQLXAssignmentRepository(db)
	userRepository := repository.NewSQLXUserRepository(db)
	txManager := repository.NewTransactionManagerAdapter(db)

	// Initialize Redis client
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	appLogger.Info("Successfully connected to Redis")
	cacheAdapter := adapter.NewRedisCacheAdapter(redisClient)

	// Grading is deterministic over the stored answer keys. The drafting
	// pipeline in cmd/genquestions is the only place an LLM is involved.
	evaluator := grading.NewGrader()

	// Initialize services
	quizService := service.NewQuizService(quizRepository, questionRepository, subjectRepository, cacheAdapter, cfg)
	attemptService := service.NewAttemptService(
		attemptRepository,
		responseRepository,
		quizRepository,
		questionRepository,
		assignmentRepository,
		evaluator,
		txManager,
		cacheAdapter,
		cfg,
	)
	assignmentService := service.NewAssignmentService(assignmentRepository, attemptRepository, quizRepository, userRepository, txManager)

	authService, err := service.NewAuthService(userRepository, cacheAdapter, cfg)
	if err != nil {
		appLogger.Fatal("Failed to create AuthService", zap.Error(err))
	}
	appLogger.Info("AuthService initialized")

	userService := service.NewUserService(userRepository)

	// Initialize handlers
	quizHandler := handler.NewQuizHandler(quizService)
	attemptHandler := handler.NewAttemptHandler(attemptService)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService)
	authHandler := handler.NewAuthHandler(authService, cfg)
	userHandler := handler.NewUserHandler(userService)

	validate := middleware.NewValidationMiddleware()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  20 * time.Second,
		BodyLimit:    10 * 1024 * 1024,
	})

	// Add request logging middleware
	app.Use(requestLogger())
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,PUT,DELETE,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept,Authorization", MaxAge: 300}))
	app.Use(recover.New())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Swagger handler
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Auth routes sit outside /api so the OAuth redirect URL registered with
	// Google stays stable.
	authGroup := app.Group("/auth")
	authGroup.Get("/google/login", authHandler.GoogleLogin)
	authGroup.Get("/google/callback", authHandler.GoogleCallback)
	authGroup.Post("/refresh", authHandler.RefreshToken)
	authGroup.Post("/logout", middleware.Protected(authService), authHandler.Logout)

	// User routes (all protected)
	userGroup := app.Group("/users", middleware.Protected(authService))
	userGroup.Get("/me", userHandler.GetMyProfile)
	userGroup.Put("/me/profile", userHandler.UpdateMyProfile)
	userGroup.Delete("/me", userHandler.DeleteMyAccount)

	// API group
	apiGroup := app.Group("/api")

	// Catalog routes. Listing and quiz detail are public; question bodies are
	// only served to logged-in users.
	apiGroup.Get("/subjects", quizHandler.GetAllSubjects)
	quizGroup := apiGroup.Group("/quizzes")
	quizGroup.Get("/", middleware.OptionalAuth(authService), validate.ValidateQuizListParams(), quizHandler.ListQuizzes)
	quizGroup.Get("/:id", middleware.OptionalAuth(authService), validate.ValidateIDParam("id"), quizHandler.GetQuizByID)
	quizGroup.Get("/:id/questions", middleware.Protected(authService), validate.ValidateIDParam("id"), quizHandler.GetQuizQuestions)

	// Attempt routes (all protected)
	attemptGroup := apiGroup.Group("/attempts", middleware.Protected(authService))
	attemptGroup.Post("/start", attemptHandler.StartAttempt)
	attemptGroup.Get("/", attemptHandler.GetUserAttempts)
	attemptGroup.Get("/:id", validate.ValidateIDParam("id"), attemptHandler.GetAttemptByID)
	attemptGroup.Get("/:id/responses", validate.ValidateIDParam("id"), attemptHandler.GetAttemptResponses)
	attemptGroup.Post("/:id/answers", validate.ValidateIDParam("id"), attemptHandler.SubmitAnswer)
	attemptGroup.Post("/:id/complete", validate.ValidateIDParam("id"), attemptHandler.CompleteAttempt)

	// Assignment routes. Learners read their own list; management operations
	// require the assigner or admin role.
	assignmentGroup := apiGroup.Group("/assignments", middleware.Protected(authService))
	assignmentGroup.Get("/my", assignmentHandler.GetMyAssignments)
	assignerOnly := middleware.RequireRole(domain.RoleAssigner, domain.RoleAdmin)
	assignmentGroup.Get("/", assignerOnly, assignmentHandler.ListCreatedAssignments)
	assignmentGroup.Post("/", assignerOnly, assignmentHandler.CreateAssignment)
	assignmentGroup.Post("/bulk", assignerOnly, assignmentHandler.CreateBulkAssignments)
	assignmentGroup.Put("/:id", assignerOnly, validate.ValidateIDParam("id"), assignmentHandler.UpdateAssignment)
	assignmentGroup.Delete("/:id", assignerOnly, validate.ValidateIDParam("id"), assignmentHandler.DeleteAssignment)

	// Start server
	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", os.Getenv("ENV")))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
