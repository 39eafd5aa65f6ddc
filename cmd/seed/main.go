package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"quiz-class/cmd/seed/internal/seedmodels"
	"quiz-class/internal/config"
	"quiz-class/internal/database"
	"quiz-class/internal/domain"
	"quiz-class/internal/logger"
	"quiz-class/internal/repository"
	"quiz-class/internal/util"

	"go.uber.org/zap"
)

const defaultSeedFilePath = "configs/seed_data/initial_quizzes.json"

func firstN(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}

func main() {
	seedFilePath := flag.String("file", defaultSeedFilePath, "path to the JSON seed file")
	flag.Parse()

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Get()

	log.Info("Starting initial data seeding process...")
	db, err := database.NewSQLXOracleDB(cfg.GetDSN())
	if err != nil {
		log.Fatal("Failed to connect to Oracle database", zap.Error(err))
	}
	defer db.Close()

	log.Info("Loading seed data from file", zap.String("path", *seedFilePath))
	byteValue, err := os.ReadFile(*seedFilePath)
	if err != nil {
		log.Fatal("Failed to read seed file", zap.String("path", *seedFilePath), zap.Error(err))
	}

	var seedSubjects []seedmodels.SeedSubject
	if err := json.Unmarshal(byteValue, &seedSubjects); err != nil {
		log.Fatal("Failed to unmarshal seed data", zap.Error(err))
	}
	log.Info("Successfully unmarshalled seed data", zap.Int("subjects_loaded", len(seedSubjects)))

	subjectRepo := repository.NewSQLXSubjectRepository(db)
	quizRepo := repository.NewSQLXQuizRepository(db)
	questionRepo := repository.NewSQLXQuestionRepository(db)
	txManager := repository.NewTransactionManagerAdapter(db)

	// Subjects are matched by name so reruns reuse what a previous run
	// created. Quizzes are always inserted.
	existing, err := subjectRepo.GetAllSubjects(ctx)
	if err != nil {
		log.Fatal("Failed to list existing subjects", zap.Error(err))
	}
	subjectsByName := make(map[string]*domain.Subject, len(existing))
	for _, s := range existing {
		subjectsByName[s.Name] = s
	}

	for _, ss := range seedSubjects {
		ss := ss
		err := txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			return seedSubjectData(txCtx, log, subjectRepo, quizRepo, questionRepo, subjectsByName, ss)
		})
		if err != nil {
			log.Error("Error seeding subject, transaction rolled back", zap.String("subject", ss.Name), zap.Error(err))
		}
	}
	log.Info("Initial data seeding process completed.")
}

func seedSubjectData(
	ctx context.Context,
	log *zap.Logger,
	subjectRepo domain.SubjectRepository,
	quizRepo domain.QuizRepository,
	questionRepo domain.QuestionRepository,
	subjectsByName map[string]*domain.Subject,
	seedSub seedmodels.SeedSubject,
) error {
	log.Info("Processing subject", zap.String("name", seedSub.Name))

	dbSubject := subjectsByName[seedSub.Name]
	if dbSubject == nil {
		log.Info("Subject not found, creating.", zap.String("name", seedSub.Name))
		dbSubject = domain.NewSubject(seedSub.Name, seedSub.Description)
		dbSubject.ID = util.NewULID()
		if err := dbSubject.Validate(); err != nil {
			return fmt.Errorf("invalid subject %s: %w", seedSub.Name, err)
		}
		if err := subjectRepo.SaveSubject(ctx, dbSubject); err != nil {
			return fmt.Errorf("failed to save subject %s: %w", seedSub.Name, err)
		}
		subjectsByName[dbSubject.Name] = dbSubject
		log.Info("Created subject.", zap.String("id", dbSubject.ID), zap.String("name", dbSubject.Name))
	} else {
		log.Info("Subject exists.", zap.String("id", dbSubject.ID), zap.String("name", dbSubject.Name))
	}

	for _, seedQuiz := range seedSub.Quizzes {
		log.Info("Processing quiz", zap.String("title", firstN(seedQuiz.Title, 40)), zap.String("subject", dbSubject.Name))

		domainQuiz := domain.NewQuiz(dbSubject.ID, seedQuiz.Title, domain.DifficultyToInt(seedQuiz.Difficulty))
		domainQuiz.ID = util.NewULID()
		domainQuiz.Description = seedQuiz.Description
		domainQuiz.Tags = seedQuiz.Tags
		domainQuiz.MinAge = seedQuiz.MinAge
		domainQuiz.MaxAge = seedQuiz.MaxAge
		domainQuiz.EstimatedMinutes = seedQuiz.EstimatedMinutes
		domainQuiz.Published = seedQuiz.Published
		if err := domainQuiz.Validate(); err != nil {
			return fmt.Errorf("invalid quiz '%s': %w", firstN(seedQuiz.Title, 40), err)
		}
		if err := quizRepo.SaveQuiz(ctx, domainQuiz); err != nil {
			return fmt.Errorf("failed to save quiz '%s': %w", firstN(seedQuiz.Title, 40), err)
		}

		for i, seedQuestion := range seedQuiz.Questions {
			var content domain.QuestionContent
			if err := json.Unmarshal(seedQuestion.Content, &content); err != nil {
				return fmt.Errorf("failed to decode content of question %d of '%s': %w", i+1, firstN(seedQuiz.Title, 40), err)
			}
			domainQuestion := &domain.Question{
				ID:       util.NewULID(),
				QuizID:   domainQuiz.ID,
				Type:     domain.QuestionType(seedQuestion.Type),
				Prompt:   seedQuestion.Prompt,
				Points:   seedQuestion.Points,
				Position: i + 1,
				Content:  content,
			}
			if err := domainQuestion.Validate(); err != nil {
				return fmt.Errorf("invalid question %d of '%s': %w", i+1, firstN(seedQuiz.Title, 40), err)
			}
			if err := questionRepo.SaveQuestion(ctx, domainQuestion); err != nil {
				return fmt.Errorf("failed to save question %d of '%s': %w", i+1, firstN(seedQuiz.Title, 40), err)
			}
		}
		log.Info("Successfully created quiz.", zap.String("id", domainQuiz.ID), zap.Int("questions", len(seedQuiz.Questions)))
	}
	return nil
}
