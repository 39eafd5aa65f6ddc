package service

import (
	"context"
	"time"

	"quiz-class/internal/domain"
	"quiz-class/internal/dto"
	"quiz-class/internal/logger"
	"quiz-class/internal/util"

	"go.uber.org/zap"
)

// AssignmentService defines the interface for assignment management.
type AssignmentService interface {
	// CreateAssignment assigns a quiz to one learner.
	CreateAssignment(ctx context.Context, assignerID string, req *dto.CreateAssignmentRequest) (*dto.AssignmentResponse, error)

	// CreateBulkAssignments assigns one quiz to many learners in a single
	// transaction. Learners that cannot receive the assignment are reported
	// as skipped instead of failing the batch.
	CreateBulkAssignments(ctx context.Context, assignerID string, req *dto.BulkCreateAssignmentsRequest) (*dto.BulkAssignmentResult, error)

	// GetMyAssignments returns the learner's assignments with computed status.
	GetMyAssignments(ctx context.Context, learnerID string, filters dto.AssignmentFilters, pagination dto.Pagination) (*dto.AssignmentListResponse, error)

	// ListCreatedAssignments returns the assignments the caller handed out.
	ListCreatedAssignments(ctx context.Context, assignerID string, filters dto.AssignmentFilters, pagination dto.Pagination) (*dto.AssignmentListResponse, error)

	// UpdateAssignment patches due date, quota, mandatory flag and notes.
	UpdateAssignment(ctx context.Context, callerID, assignmentID string, req *dto.UpdateAssignmentRequest) (*dto.AssignmentResponse, error)

	// DeleteAssignment cancels the assignment. The row stays; attempts made
	// under it keep their history.
	DeleteAssignment(ctx context.Context, callerID, assignmentID string) error
}

type assignmentServiceImpl struct {
	assignmentRepo domain.AssignmentRepository
	attemptRepo    domain.AttemptRepository
	quizRepo       domain.QuizRepository
	userRepo       domain.UserRepository
	txManager      domain.TransactionManager
}

// NewAssignmentService creates a new instance of AssignmentService.
func NewAssignmentService(
	assignmentRepo domain.AssignmentRepository,
	attemptRepo domain.AttemptRepository,
	quizRepo domain.QuizRepository,
	userRepo domain.UserRepository,
	txManager domain.TransactionManager,
) AssignmentService {
	return &assignmentServiceImpl{
		assignmentRepo: assignmentRepo,
		attemptRepo:    attemptRepo,
		quizRepo:       quizRepo,
		userRepo:       userRepo,
		txManager:      txManager,
	}
}

// CreateAssignment implements AssignmentService.
func (s *assignmentServiceImpl) CreateAssignment(ctx context.Context, assignerID string, req *dto.CreateAssignmentRequest) (*dto.AssignmentResponse, error) {
	quiz, err := s.validateAssignableQuiz(ctx, req.QuizID)
	if err != nil {
		return nil, err
	}

	learner, err := s.userRepo.GetUserByID(ctx, req.LearnerID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get learner", err)
	}
	if learner == nil {
		return nil, domain.NewNotFoundError("Learner not found with ID: " + req.LearnerID)
	}

	existing, err := s.assignmentRepo.GetAssignmentByQuizAndLearner(ctx, req.QuizID, req.LearnerID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to check for existing assignment", err)
	}
	if existing != nil {
		return nil, domain.NewValidationError("learner already has an active assignment for this quiz")
	}

	assignment, err := s.buildAssignment(assignerID, req.QuizID, req.LearnerID, req.DueAt, req.MaxAttempts, req.IsMandatory, req.Notes)
	if err != nil {
		return nil, err
	}
	if err := s.assignmentRepo.CreateAssignment(ctx, assignment); err != nil {
		return nil, domain.NewInternalError("Failed to create assignment", err)
	}

	logger.Get().Info("Assignment created",
		zap.String("assignmentID", assignment.ID),
		zap.String("quizID", assignment.QuizID),
		zap.String("learnerID", assignment.LearnerID),
		zap.String("assignedBy", assignerID))

	resp := s.toAssignmentResponse(assignment, 0, false, quiz)
	return &resp, nil
}

// CreateBulkAssignments implements AssignmentService. The whole batch commits
// or rolls back together; per-learner skips are business outcomes, not
// failures, and do not abort the transaction.
func (s *assignmentServiceImpl) CreateBulkAssignments(ctx context.Context, assignerID string, req *dto.BulkCreateAssignmentsRequest) (*dto.BulkAssignmentResult, error) {
	if len(req.LearnerIDs) == 0 {
		return nil, domain.NewValidationError("learner_ids must not be empty")
	}

	quiz, err := s.validateAssignableQuiz(ctx, req.QuizID)
	if err != nil {
		return nil, err
	}

	result := &dto.BulkAssignmentResult{
		Created: []dto.AssignmentResponse{},
		Skipped: []dto.BulkSkipped{},
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		seen := make(map[string]bool, len(req.LearnerIDs))
		for _, learnerID := range req.LearnerIDs {
			if seen[learnerID] {
				continue
			}
			seen[learnerID] = true

			learner, err := s.userRepo.GetUserByID(txCtx, learnerID)
			if err != nil {
				return domain.NewInternalError("Failed to get learner", err)
			}
			if learner == nil {
				result.Skipped = append(result.Skipped, dto.BulkSkipped{LearnerID: learnerID, Reason: "learner not found"})
				continue
			}

			existing, err := s.assignmentRepo.GetAssignmentByQuizAndLearner(txCtx, req.QuizID, learnerID)
			if err != nil {
				return domain.NewInternalError("Failed to check for existing assignment", err)
			}
			if existing != nil {
				result.Skipped = append(result.Skipped, dto.BulkSkipped{LearnerID: learnerID, Reason: "already assigned"})
				continue
			}

			assignment, err := s.buildAssignment(assignerID, req.QuizID, learnerID, req.DueAt, req.MaxAttempts, req.IsMandatory, req.Notes)
			if err != nil {
				return err
			}
			if err := s.assignmentRepo.CreateAssignment(txCtx, assignment); err != nil {
				return domain.NewInternalError("Failed to create assignment", err)
			}
			result.Created = append(result.Created, s.toAssignmentResponse(assignment, 0, false, quiz))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Info("Bulk assignments created",
		zap.String("quizID", req.QuizID),
		zap.String("assignedBy", assignerID),
		zap.Int("created", len(result.Created)),
		zap.Int("skipped", len(result.Skipped)))
	return result, nil
}

// GetMyAssignments implements AssignmentService.
func (s *assignmentServiceImpl) GetMyAssignments(ctx context.Context, learnerID string, filters dto.AssignmentFilters, pagination dto.Pagination) (*dto.AssignmentListResponse, error) {
	assignments, total, err := s.assignmentRepo.GetAssignmentsByLearnerID(ctx, learnerID, filters, pagination)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get assignments", err)
	}
	return s.buildAssignmentList(ctx, assignments, total, pagination)
}

// ListCreatedAssignments implements AssignmentService.
func (s *assignmentServiceImpl) ListCreatedAssignments(ctx context.Context, assignerID string, filters dto.AssignmentFilters, pagination dto.Pagination) (*dto.AssignmentListResponse, error) {
	assignments, total, err := s.assignmentRepo.GetAssignmentsByAssignerID(ctx, assignerID, filters, pagination)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get created assignments", err)
	}
	return s.buildAssignmentList(ctx, assignments, total, pagination)
}

// UpdateAssignment implements AssignmentService. Absent fields stay as they
// are; the Clear flags reset a nullable field back to null.
func (s *assignmentServiceImpl) UpdateAssignment(ctx context.Context, callerID, assignmentID string, req *dto.UpdateAssignmentRequest) (*dto.AssignmentResponse, error) {
	assignment, err := s.loadManagedAssignment(ctx, callerID, assignmentID)
	if err != nil {
		return nil, err
	}
	if assignment.IsCancelled() {
		return nil, domain.NewAssignmentCancelledError(assignmentID)
	}

	if req.ClearDueAt {
		assignment.DueAt = nil
	} else if req.DueAt != nil {
		assignment.DueAt = req.DueAt
	}
	if req.ClearMaxAttempts {
		assignment.MaxAttempts = nil
	} else if req.MaxAttempts != nil {
		assignment.MaxAttempts = req.MaxAttempts
	}
	if req.IsMandatory != nil {
		assignment.IsMandatory = *req.IsMandatory
	}
	if req.Notes != nil {
		assignment.Notes = *req.Notes
	}
	assignment.UpdatedAt = time.Now()

	if err := assignment.Validate(); err != nil {
		return nil, err
	}
	if err := s.assignmentRepo.UpdateAssignment(ctx, assignment); err != nil {
		return nil, domain.NewInternalError("Failed to update assignment", err)
	}

	completed, inProgress, err := s.attemptRepo.CountAttemptsByAssignment(ctx, assignment.ID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to count attempts", err)
	}
	resp := s.toAssignmentResponse(assignment, completed, inProgress > 0, nil)
	return &resp, nil
}

// DeleteAssignment implements AssignmentService. Deleting an already
// cancelled assignment is a no-op, so retried deletes succeed.
func (s *assignmentServiceImpl) DeleteAssignment(ctx context.Context, callerID, assignmentID string) error {
	assignment, err := s.loadManagedAssignment(ctx, callerID, assignmentID)
	if err != nil {
		return err
	}
	if assignment.IsCancelled() {
		return nil
	}

	now := time.Now()
	assignment.CancelledAt = &now
	assignment.UpdatedAt = now
	if err := s.assignmentRepo.UpdateAssignment(ctx, assignment); err != nil {
		return domain.NewInternalError("Failed to cancel assignment", err)
	}

	logger.Get().Info("Assignment cancelled",
		zap.String("assignmentID", assignmentID),
		zap.String("cancelledBy", callerID))
	return nil
}

// validateAssignableQuiz checks the quiz exists and is published.
func (s *assignmentServiceImpl) validateAssignableQuiz(ctx context.Context, quizID string) (*domain.Quiz, error) {
	if quizID == "" {
		return nil, domain.NewValidationError("quiz_id is required")
	}
	quiz, err := s.quizRepo.GetQuizByID(ctx, quizID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get quiz", err)
	}
	if quiz == nil {
		return nil, domain.NewQuizNotFoundError(quizID)
	}
	if !quiz.Published {
		return nil, domain.NewQuizNotPublishedError(quizID)
	}
	return quiz, nil
}

// loadManagedAssignment fetches an assignment the caller may manage: its
// creator, or an admin.
func (s *assignmentServiceImpl) loadManagedAssignment(ctx context.Context, callerID, assignmentID string) (*domain.Assignment, error) {
	assignment, err := s.assignmentRepo.GetAssignmentByID(ctx, assignmentID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to get assignment", err)
	}
	if assignment == nil {
		return nil, domain.NewAssignmentNotFoundError(assignmentID)
	}
	if assignment.AssignedBy != callerID {
		caller, err := s.userRepo.GetUserByID(ctx, callerID)
		if err != nil {
			return nil, domain.NewInternalError("Failed to get caller", err)
		}
		if caller == nil || caller.Role != domain.RoleAdmin {
			return nil, domain.NewForbiddenError("only the assigner or an admin may manage this assignment")
		}
	}
	return assignment, nil
}

func (s *assignmentServiceImpl) buildAssignment(assignerID, quizID, learnerID string, dueAt *time.Time, maxAttempts *int, isMandatory bool, notes string) (*domain.Assignment, error) {
	assignment := domain.NewAssignment(quizID, learnerID, assignerID)
	assignment.ID = util.NewULID()
	assignment.DueAt = dueAt
	assignment.MaxAttempts = maxAttempts
	assignment.IsMandatory = isMandatory
	assignment.Notes = notes
	if err := assignment.Validate(); err != nil {
		return nil, err
	}
	return assignment, nil
}

// buildAssignmentList enriches assignments with computed status, attempt
// usage and a quiz summary. One count + one quiz read per row, same as the
// attempt-history listing.
func (s *assignmentServiceImpl) buildAssignmentList(ctx context.Context, assignments []*domain.Assignment, total int, pagination dto.Pagination) (*dto.AssignmentListResponse, error) {
	items := make([]dto.AssignmentResponse, len(assignments))
	for i, assignment := range assignments {
		completed, inProgress, err := s.attemptRepo.CountAttemptsByAssignment(ctx, assignment.ID)
		if err != nil {
			return nil, domain.NewInternalError("Failed to count attempts", err)
		}

		var quiz *domain.Quiz
		quiz, err = s.quizRepo.GetQuizByID(ctx, assignment.QuizID)
		if err != nil {
			return nil, domain.NewInternalError("Failed to get quiz for assignment", err)
		}

		items[i] = s.toAssignmentResponse(assignment, completed, inProgress > 0, quiz)
	}

	return &dto.AssignmentListResponse{
		Assignments:    items,
		PaginationInfo: dto.NewPaginationInfo(pagination, total),
	}, nil
}

func (s *assignmentServiceImpl) toAssignmentResponse(assignment *domain.Assignment, completedAttempts int, hasInProgress bool, quiz *domain.Quiz) dto.AssignmentResponse {
	resp := dto.AssignmentResponse{
		ID:           assignment.ID,
		QuizID:       assignment.QuizID,
		LearnerID:    assignment.LearnerID,
		AssignedBy:   assignment.AssignedBy,
		DueAt:        assignment.DueAt,
		MaxAttempts:  assignment.MaxAttempts,
		IsMandatory:  assignment.IsMandatory,
		Notes:        assignment.Notes,
		Status:       string(assignment.ComputeStatus(time.Now(), completedAttempts > 0, hasInProgress)),
		AttemptsUsed: completedAttempts,
		CreatedAt:    assignment.CreatedAt,
	}
	if quiz != nil {
		quizResp := toQuizResponse(quiz, "", 0)
		resp.Quiz = &quizResp
	}
	return resp
}
