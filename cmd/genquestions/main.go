package main

import (
	"context"
	"flag"
	"fmt"

	"quiz-class/internal/adapter"
	"quiz-class/internal/adapter/embedding"
	"quiz-class/internal/adapter/quizgen"
	"quiz-class/internal/cache"
	"quiz-class/internal/config"
	"quiz-class/internal/database"
	"quiz-class/internal/domain"
	"quiz-class/internal/logger"
	"quiz-class/internal/repository"
	"quiz-class/internal/service"

	"go.uber.org/zap"
)

func main() {
	quizID := flag.String("quiz", "", "ID of the quiz to draft questions for")
	numQuestions := flag.Int("n", 0, "number of drafts to generate (0 uses the configured default)")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		return
	}

	// Initialize logger
	err = logger.Initialize(cfg.Logger)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		return
	}
	defer logger.Sync()

	if *quizID == "" {
		logger.Get().Fatal("No quiz ID given. Run with -quiz <id>.")
	}

	logger.Get().Info("Question drafting starting up...", zap.String("quiz_id", *quizID))

	dsn := cfg.GetDSN()
	if dsn == "" {
		logger.Get().Fatal("Generated DSN is empty. Check DB configuration.")
	}

	// Establish DB connection
	db, err := database.NewSQLXOracleDB(dsn)
	if err != nil {
		logger.Get().Fatal("Failed to connect to Oracle database", zap.Error(err))
	}
	defer db.Close()
	logger.Get().Info("Successfully connected to Oracle database.")

	// Initialize repositories
	quizRepo := repository.NewSQLXQuizRepository(db)
	questionRepo := repository.NewSQLXQuestionRepository(db)
	subjectRepo := repository.NewSQLXSubjectRepository(db)

	// Initialize cache adapter. The embedding provider caches vectors in
	// Redis, and saving drafts invalidates the quiz's cached projections.
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Get().Fatal("Failed to initialize Redis client", zap.Error(err))
	}
	cacheAdapter := adapter.NewRedisCacheAdapter(redisClient)
	logger.Get().Info("Redis cache initialized successfully.")

	// Initialize embedding service
	var embedService domain.EmbeddingService
	switch cfg.Embedding.Source {
	case "openai":
		if cfg.Embedding.OpenAI.APIKey == "" {
			logger.Get().Fatal("OpenAI API key is not configured.")
		}
		embedService, err = embedding.NewOpenAIEmbeddingService(cfg.Embedding.OpenAI.APIKey, cfg.Embedding.OpenAI.Model, cacheAdapter, cfg.CacheTTLs.Embedding)
		if err != nil {
			logger.Get().Fatal("Failed to initialize OpenAI Embedding Service", zap.Error(err))
		}
		logger.Get().Info("Initialized OpenAI Embedding Service.")
	case "ollama":
		embedService, err = embedding.NewOllamaEmbeddingService(cfg.Embedding.Ollama.ServerURL, cfg.Embedding.Ollama.Model)
		if err != nil {
			logger.Get().Fatal("Failed to initialize Ollama Embedding Service", zap.Error(err))
		}
		logger.Get().Info("Ollama Embedding Service initialized successfully.")
	default:
		logger.Get().Fatal("Unsupported embedding source specified in configuration", zap.String("source", cfg.Embedding.Source))
	}

	// Initialize the question generator
	questionGenerator, err := quizgen.NewOllamaQuestionGenerator(cfg.LLM.ServerURL, cfg.LLM.Model)
	if err != nil {
		logger.Get().Fatal("Failed to initialize question generator", zap.Error(err))
	}
	logger.Get().Info("Initialized question generator.", zap.String("model", cfg.LLM.Model))

	quizService := service.NewQuizService(quizRepo, questionRepo, subjectRepo, cacheAdapter, cfg)
	generationSvc := service.NewGenerationService(quizRepo, questionRepo, subjectRepo, embedService, questionGenerator, quizService, cfg, logger.Get())

	ctx := context.Background()

	logger.Get().Info("Starting question drafting...")
	summary, err := generationSvc.GenerateQuestions(ctx, *quizID, *numQuestions)
	if err != nil {
		logger.Get().Fatal("Question drafting failed", zap.Error(err))
	}

	logger.Get().Info("Question drafting completed.",
		zap.String("quiz_id", summary.QuizID),
		zap.Int("requested", summary.Requested),
		zap.Int("drafted", summary.Drafted),
		zap.Int("duplicates", summary.Duplicates),
		zap.Int("saved", summary.Saved),
	)
}
