package domain

import (
	"testing"
	"time"
)

func TestAssignmentValidate(t *testing.T) {
	one := 1
	zero := 0

	tests := []struct {
		name    string
		mutate  func(a *Assignment)
		errText string
	}{
		{"valid", func(a *Assignment) {}, ""},
		{"valid with quota", func(a *Assignment) { a.MaxAttempts = &one }, ""},
		{"missing quiz", func(a *Assignment) { a.QuizID = "" }, "quiz_id is required"},
		{"missing learner", func(a *Assignment) { a.LearnerID = "" }, "learner_id is required"},
		{"missing assigner", func(a *Assignment) { a.AssignedBy = "" }, "assigned_by is required"},
		{"zero quota", func(a *Assignment) { a.MaxAttempts = &zero }, "max_attempts must be at least 1 when set"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAssignment("quiz1", "learner1", "teacher1")
			tt.mutate(a)
			assertValidationError(t, a.Validate(), tt.errText)
		})
	}
}

func TestAssignmentComputeStatus(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name         string
		cancelledAt  *time.Time
		dueAt        *time.Time
		hasCompleted bool
		hasOpen      bool
		want         AssignmentStatus
	}{
		{"fresh assignment", nil, nil, false, false, AssignmentStatusAssigned},
		{"open attempt", nil, nil, false, true, AssignmentStatusInProgress},
		{"completed attempt", nil, nil, true, false, AssignmentStatusCompleted},
		{"past due, untouched", nil, &past, false, false, AssignmentStatusOverdue},
		{"future due, untouched", nil, &future, false, false, AssignmentStatusAssigned},
		{"overdue beats in_progress", nil, &past, false, true, AssignmentStatusOverdue},
		{"completed beats overdue", nil, &past, true, false, AssignmentStatusCompleted},
		{"completed with another open", nil, nil, true, true, AssignmentStatusCompleted},
		{"cancelled beats everything", &past, &past, true, true, AssignmentStatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAssignment("quiz1", "learner1", "teacher1")
			a.CancelledAt = tt.cancelledAt
			a.DueAt = tt.dueAt
			if got := a.ComputeStatus(now, tt.hasCompleted, tt.hasOpen); got != tt.want {
				t.Errorf("ComputeStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAssignmentQuotaExhausted(t *testing.T) {
	two := 2

	tests := []struct {
		name        string
		maxAttempts *int
		completed   int
		want        bool
	}{
		{"unlimited never exhausts", nil, 100, false},
		{"under quota", &two, 1, false},
		{"at quota", &two, 2, true},
		{"over quota", &two, 3, true},
		{"untouched", &two, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAssignment("quiz1", "learner1", "teacher1")
			a.MaxAttempts = tt.maxAttempts
			if got := a.QuotaExhausted(tt.completed); got != tt.want {
				t.Errorf("QuotaExhausted(%d) = %v, want %v", tt.completed, got, tt.want)
			}
		})
	}
}

func TestAssignmentIsCancelled(t *testing.T) {
	a := NewAssignment("quiz1", "learner1", "teacher1")
	if a.IsCancelled() {
		t.Error("fresh assignment reports cancelled")
	}

	now := time.Now()
	a.CancelledAt = &now
	if !a.IsCancelled() {
		t.Error("cancelled assignment not detected")
	}
}
