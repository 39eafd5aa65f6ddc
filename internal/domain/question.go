package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// QuestionType identifies the interaction model of a question.
type QuestionType string

const (
	QuestionTypeSingleChoice        QuestionType = "single_choice"
	QuestionTypeMultiChoice         QuestionType = "multi_choice"
	QuestionTypeFillInBlank         QuestionType = "fill_in_blank"
	QuestionTypeFillInBlankDragDrop QuestionType = "fill_in_blank_drag_drop"
	QuestionTypeMatching            QuestionType = "matching"
	QuestionTypeOrdering            QuestionType = "ordering"
)

// AllQuestionTypes lists every supported question type.
var AllQuestionTypes = []QuestionType{
	QuestionTypeSingleChoice,
	QuestionTypeMultiChoice,
	QuestionTypeFillInBlank,
	QuestionTypeFillInBlankDragDrop,
	QuestionTypeMatching,
	QuestionTypeOrdering,
}

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeSingleChoice, QuestionTypeMultiChoice, QuestionTypeFillInBlank,
		QuestionTypeFillInBlankDragDrop, QuestionTypeMatching, QuestionTypeOrdering:
		return true
	}
	return false
}

// Option is one selectable choice of a single_choice or multi_choice question.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Blank is one gap of a fill-in question. AcceptedAnswers applies to typed
// blanks, CorrectTokenID to drag-and-drop blanks.
type Blank struct {
	ID              string   `json:"id"`
	AcceptedAnswers []string `json:"accepted_answers,omitempty"`
	CorrectTokenID  string   `json:"correct_token_id,omitempty"`
}

// Token is a draggable answer piece of a fill_in_blank_drag_drop question.
type Token struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// MatchItem is one side of a matching question.
type MatchItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// MatchPair connects a prompt to its match. Also the element type of a
// matching answer payload.
type MatchPair struct {
	PromptID string `json:"prompt_id"`
	MatchID  string `json:"match_id"`
}

// OrderItem is one element the learner arranges in an ordering question.
type OrderItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// QuestionContent carries the type-specific authoring payload of a question.
// Only the fields belonging to the question's type are populated.
type QuestionContent struct {
	// single_choice / multi_choice
	Options          []Option `json:"options,omitempty"`
	CorrectOptionID  string   `json:"correct_option_id,omitempty"`
	CorrectOptionIDs []string `json:"correct_option_ids,omitempty"`

	// fill_in_blank / fill_in_blank_drag_drop
	TextWithBlanks string  `json:"text_with_blanks,omitempty"`
	Blanks         []Blank `json:"blanks,omitempty"`
	Tokens         []Token `json:"tokens,omitempty"`

	// matching
	Prompts      []MatchItem `json:"prompts,omitempty"`
	Matches      []MatchItem `json:"matches,omitempty"`
	CorrectPairs []MatchPair `json:"correct_pairs,omitempty"`

	// ordering
	Items        []OrderItem `json:"items,omitempty"`
	CorrectOrder []string    `json:"correct_order,omitempty"`
}

// ValidateFor checks that the content carries what the given type requires.
func (c *QuestionContent) ValidateFor(t QuestionType) error {
	switch t {
	case QuestionTypeSingleChoice:
		if len(c.Options) < 2 {
			return NewValidationError("single_choice requires at least two options")
		}
		if c.CorrectOptionID == "" {
			return NewValidationError("single_choice requires correct_option_id")
		}
		if !hasOption(c.Options, c.CorrectOptionID) {
			return NewValidationError("correct_option_id does not reference an option")
		}
	case QuestionTypeMultiChoice:
		if len(c.Options) < 2 {
			return NewValidationError("multi_choice requires at least two options")
		}
		if len(c.CorrectOptionIDs) == 0 {
			return NewValidationError("multi_choice requires correct_option_ids")
		}
		for _, id := range c.CorrectOptionIDs {
			if !hasOption(c.Options, id) {
				return NewValidationError("correct_option_ids references a missing option")
			}
		}
	case QuestionTypeFillInBlank:
		if len(c.Blanks) == 0 {
			return NewValidationError("fill_in_blank requires at least one blank")
		}
		for _, b := range c.Blanks {
			if len(b.AcceptedAnswers) == 0 {
				return NewValidationError("each blank requires accepted_answers")
			}
		}
	case QuestionTypeFillInBlankDragDrop:
		if len(c.Blanks) == 0 {
			return NewValidationError("fill_in_blank_drag_drop requires at least one blank")
		}
		if len(c.Tokens) == 0 {
			return NewValidationError("fill_in_blank_drag_drop requires tokens")
		}
		for _, b := range c.Blanks {
			if b.CorrectTokenID == "" {
				return NewValidationError("each blank requires correct_token_id")
			}
		}
	case QuestionTypeMatching:
		if len(c.Prompts) == 0 || len(c.Matches) == 0 {
			return NewValidationError("matching requires prompts and matches")
		}
		if len(c.CorrectPairs) == 0 {
			return NewValidationError("matching requires correct_pairs")
		}
	case QuestionTypeOrdering:
		if len(c.Items) < 2 {
			return NewValidationError("ordering requires at least two items")
		}
		if len(c.CorrectOrder) != len(c.Items) {
			return NewValidationError("correct_order must cover every item")
		}
	default:
		return NewValidationError("unknown question type")
	}
	return nil
}

func hasOption(options []Option, id string) bool {
	for _, o := range options {
		if o.ID == id {
			return true
		}
	}
	return false
}

// Public returns a copy of the content with every answer key stripped,
// safe to serve to learners.
func (c QuestionContent) Public() QuestionContent {
	public := c
	public.CorrectOptionID = ""
	public.CorrectOptionIDs = nil
	public.CorrectPairs = nil
	public.CorrectOrder = nil
	if len(c.Blanks) > 0 {
		public.Blanks = make([]Blank, len(c.Blanks))
		for i, b := range c.Blanks {
			public.Blanks[i] = Blank{ID: b.ID}
		}
	}
	return public
}

// Question represents one question of a quiz.
type Question struct {
	ID        string
	QuizID    string
	Type      QuestionType
	Prompt    string
	Points    float64
	Position  int
	Content   QuestionContent
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// Validate validates the question
func (q *Question) Validate() error {
	if q.QuizID == "" {
		return NewValidationError("quiz_id is required")
	}
	if !q.Type.Valid() {
		return NewValidationError("question type is not supported")
	}
	if q.Prompt == "" {
		return NewValidationError("prompt is required")
	}
	if q.Points <= 0 {
		return NewValidationError("points must be positive")
	}
	return q.Content.ValidateFor(q.Type)
}

var (
	emptyString = json.RawMessage(`""`)
	emptyArray  = json.RawMessage(`[]`)
	emptyObject = json.RawMessage(`{}`)
)

// EmptyAnswerFor returns the canonical empty answer payload for a question
// type: the empty string for single_choice, the empty object for
// fill_in_blank_drag_drop, the empty array for everything else.
func EmptyAnswerFor(t QuestionType) json.RawMessage {
	switch t {
	case QuestionTypeSingleChoice:
		return append(json.RawMessage(nil), emptyString...)
	case QuestionTypeFillInBlankDragDrop:
		return append(json.RawMessage(nil), emptyObject...)
	default:
		return append(json.RawMessage(nil), emptyArray...)
	}
}

// IsEmptyAnswer reports whether a payload carries no answer content:
// JSON null, the empty string, an empty array or an empty object.
func IsEmptyAnswer(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return true
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return false
		}
		return s == ""
	case '[':
		var arr []json.RawMessage
		if err := json.Unmarshal(trimmed, &arr); err != nil {
			return false
		}
		return len(arr) == 0
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return false
		}
		return len(obj) == 0
	}
	return false
}

// ValidateAnswerShape checks that a payload decodes into the shape the
// question type expects. It accepts empty payloads: a skip carries the
// type's empty value.
func ValidateAnswerShape(t QuestionType, raw json.RawMessage) error {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return NewInvalidAnswerError("answer payload is missing")
	}
	switch t {
	case QuestionTypeSingleChoice:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return NewInvalidAnswerError("single_choice answer must be a string")
		}
	case QuestionTypeMultiChoice, QuestionTypeFillInBlank, QuestionTypeOrdering:
		var arr []string
		if err := json.Unmarshal(raw, &arr); err != nil {
			return NewInvalidAnswerError(string(t) + " answer must be an array of strings")
		}
	case QuestionTypeFillInBlankDragDrop:
		var m map[string]string
		if err := json.Unmarshal(raw, &m); err != nil {
			return NewInvalidAnswerError("fill_in_blank_drag_drop answer must be an object")
		}
	case QuestionTypeMatching:
		var pairs []MatchPair
		if err := json.Unmarshal(raw, &pairs); err != nil {
			return NewInvalidAnswerError("matching answer must be an array of pairs")
		}
	default:
		return NewInvalidAnswerError("unknown question type")
	}
	return nil
}
