package seedmodels

import "encoding/json"

// SeedQuestion defines the structure for a question in the JSON seed file.
// Content carries the type-specific authoring payload verbatim.
type SeedQuestion struct {
	Type    string          `json:"type"`
	Prompt  string          `json:"prompt"`
	Points  float64         `json:"points"`
	Content json.RawMessage `json:"content"`
}

// SeedQuiz defines the structure for a quiz in the JSON seed file.
type SeedQuiz struct {
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	Difficulty       string         `json:"difficulty"`
	Tags             []string       `json:"tags"`
	MinAge           int            `json:"min_age"`
	MaxAge           int            `json:"max_age"`
	EstimatedMinutes int            `json:"estimated_minutes"`
	Published        bool           `json:"published"`
	Questions        []SeedQuestion `json:"questions"`
}

// SeedSubject defines the structure for a subject in the JSON seed file.
type SeedSubject struct {
	Name        string     `json:"subject_name"`
	Description string     `json:"subject_description"`
	Quizzes     []SeedQuiz `json:"quizzes"`
}
