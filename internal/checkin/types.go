package checkin

import "time"

// QuestionType identifies how an answer to a question is interpreted and scored.
type QuestionType string

const (
	TypeScale          QuestionType = "scale"
	TypeRating         QuestionType = "rating"
	TypeNumber         QuestionType = "number"
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeSelect         QuestionType = "select"
	TypeBoolean        QuestionType = "boolean"
	TypeText           QuestionType = "text"
	TypeTextarea       QuestionType = "textarea"
)

// Question is a single item on a check-in form. Text and weight may be edited
// over time without changing the id; historical submissions keep the values
// they were scored with.
type Question struct {
	ID             string       `json:"id"`
	Text           string       `json:"text"`
	Type           QuestionType `json:"type"`
	Options        []Option     `json:"options,omitempty"`
	QuestionWeight *float64     `json:"questionWeight,omitempty"`
	Weight         *float64     `json:"weight,omitempty"`
	YesIsPositive  *bool        `json:"yesIsPositive,omitempty"`
	Required       *bool        `json:"required,omitempty"`
	IsRequired     *bool        `json:"isRequired,omitempty"`
}

// EffectiveWeight resolves questionWeight over weight over the default.
// Textarea is always unscored regardless of configuration.
func (q Question) EffectiveWeight() float64 {
	if q.Type == TypeTextarea {
		return 0
	}
	if q.QuestionWeight != nil {
		return *q.QuestionWeight
	}
	if q.Weight != nil {
		return *q.Weight
	}
	return DefaultQuestionWeight
}

// IsRequiredField reports whether an answer must be present before a
// submission is accepted. Questions are required unless explicitly opted out
// through either flag.
func (q Question) IsRequiredField() bool {
	if q.Required != nil && !*q.Required {
		return false
	}
	if q.IsRequired != nil && !*q.IsRequired {
		return false
	}
	return true
}

// Answer is a client's raw response to one question within one submission.
// Value holds whatever the document layer stored: string, number, boolean or
// nil.
type Answer struct {
	QuestionID string `json:"questionId"`
	Value      any    `json:"answer"`
	Comment    string `json:"comment,omitempty"`
}

// AnnotatedResponse is an answer plus the score and weight computed at
// submission time. It is created once and never recomputed, even when the
// question's configuration changes later.
type AnnotatedResponse struct {
	QuestionID   string       `json:"questionId"`
	QuestionText string       `json:"questionText,omitempty"`
	Type         QuestionType `json:"type"`
	Value        any          `json:"answer"`
	Comment      string       `json:"comment,omitempty"`
	Score        float64      `json:"score"`
	Weight       float64      `json:"weight"`

	// Answered marks responses that carry a usable value. Unanswered
	// responses are dropped before persistence rather than stored as zeros.
	Answered bool `json:"-"`
}

// ScoredSubmission is the immutable result of aggregating one submission.
type ScoredSubmission struct {
	Score             int                 `json:"score"`
	TotalQuestions    int                 `json:"totalQuestions"`
	AnsweredQuestions int                 `json:"answeredQuestions"`
	Responses         []AnnotatedResponse `json:"responses"`
}

// Submission is one stored check-in as the timeline consumes it.
type Submission struct {
	AssignmentID string              `json:"assignmentId,omitempty"`
	FormID       string              `json:"formId,omitempty"`
	SubmittedAt  time.Time           `json:"submittedAt"`
	Responses    []AnnotatedResponse `json:"responses"`
}

// Status is the traffic-light state of a question in a given week.
type Status string

const (
	StatusGreen  Status = "green"
	StatusOrange Status = "orange"
	StatusRed    Status = "red"
	StatusGrey   Status = "grey"
)

// WeekEntry records one appearance of a question in the timeline. Weeks in
// which the question was absent simply have no entry; the grid renders those
// as gaps, distinct from grey.
type WeekEntry struct {
	Week   int          `json:"week"`
	Date   time.Time    `json:"date"`
	Score  float64      `json:"score"`
	Status Status       `json:"status"`
	Answer any          `json:"answer"`
	Type   QuestionType `json:"type"`
	Weight float64      `json:"weight"`
}

// QuestionTrack is the reconciled history of one logical question id across
// a client's submissions.
type QuestionTrack struct {
	QuestionID    string      `json:"questionId"`
	QuestionText  string      `json:"questionText"`
	Weeks         []WeekEntry `json:"weeks"`
	FirstSeenWeek int         `json:"firstSeenWeek"`
	LastSeenWeek  int         `json:"lastSeenWeek"`
	IsActive      bool        `json:"isActive"`
	TextChanges   []string    `json:"textChanges"`
}

// Trend labels how a current value compares to its historical baseline.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)
