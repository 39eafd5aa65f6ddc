package dto

import "encoding/json"

// QuizFilters defines parameters for filtering the quiz catalog.
// These are typically query parameters.
type QuizFilters struct {
	SubjectID  string `query:"subject_id"`
	Difficulty string `query:"difficulty"` // easy, medium or hard
	Age        int    `query:"age"`        // learner age the quiz must suit
	Tag        string `query:"tag"`
}

// QuizResponse represents a quiz in the API response
// @Description Quiz catalog entry
type QuizResponse struct {
	ID               string   `json:"id"`
	SubjectID        string   `json:"subject_id"`
	SubjectName      string   `json:"subject_name,omitempty"`
	Title            string   `json:"title"`
	Description      string   `json:"description,omitempty"`
	Difficulty       string   `json:"difficulty"`
	Tags             []string `json:"tags"`
	MinAge           int      `json:"min_age,omitempty"`
	MaxAge           int      `json:"max_age,omitempty"`
	EstimatedMinutes int      `json:"estimated_minutes,omitempty"`
	Published        bool     `json:"published"`
	QuestionCount    int      `json:"question_count,omitempty"`
}

// QuizListResponse is the paginated quiz catalog.
type QuizListResponse struct {
	Quizzes        []QuizResponse `json:"quizzes"`
	PaginationInfo PaginationInfo `json:"pagination"`
}

// QuestionResponse represents a question in the API response. Content is the
// public projection of the authoring payload: answer keys are never present.
// @Description Question of a quiz, without answer keys
type QuestionResponse struct {
	ID       string          `json:"id"`
	QuizID   string          `json:"quiz_id"`
	Type     string          `json:"type"`
	Prompt   string          `json:"prompt"`
	Points   float64         `json:"points"`
	Position int             `json:"position"`
	Content  json.RawMessage `json:"content"`
}

// QuizQuestionsResponse lists the questions of one quiz in taking order.
type QuizQuestionsResponse struct {
	QuizID    string             `json:"quiz_id"`
	Questions []QuestionResponse `json:"questions"`
}

// SubjectResponse represents a subject in the API response
type SubjectResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
