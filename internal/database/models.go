package database

import (
	"time"

	"github.com/google/uuid"

	"github.com/brettearl18/checkin-v5-sub001/internal/checkin"
)

// Coach is an account that owns clients and check-in forms.
type Coach struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	IsPaid    bool      `json:"is_paid" db:"is_paid"`
	StripeID  string    `json:"-" db:"stripe_customer_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Client is a coached person who submits check-ins.
type Client struct {
	ID        string    `json:"id" db:"id"`
	CoachID   string    `json:"coach_id" db:"coach_id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email,omitempty" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CheckinForm is a versionless questionnaire definition. Question edits keep
// ids stable; stored submissions are never re-scored against the new text or
// weights.
type CheckinForm struct {
	ID        string             `json:"id" db:"id"`
	CoachID   string             `json:"coach_id" db:"coach_id"`
	Title     string             `json:"title" db:"title"`
	Questions []checkin.Question `json:"questions"`
	CreatedAt time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" db:"updated_at"`
}

// CheckinRecord is one stored, already-scored submission.
type CheckinRecord struct {
	ID           string                      `json:"id" db:"id"`
	ClientID     string                      `json:"client_id" db:"client_id"`
	FormID       string                      `json:"form_id" db:"form_id"`
	AssignmentID string                      `json:"assignment_id,omitempty" db:"assignment_id"`
	Score        int                         `json:"score" db:"score"`
	Total        int                         `json:"total_questions" db:"total_questions"`
	Answered     int                         `json:"answered_questions" db:"answered_questions"`
	Responses    []checkin.AnnotatedResponse `json:"responses"`
	SubmittedAt  time.Time                   `json:"submitted_at" db:"submitted_at"`
}

// Measurement is a scalar metric sample (body weight and similar) used by
// trend classification alongside check-in scores.
type Measurement struct {
	ID         string    `json:"id" db:"id"`
	ClientID   string    `json:"client_id" db:"client_id"`
	Metric     string    `json:"metric" db:"metric"`
	Value      float64   `json:"value" db:"value"`
	RecordedAt time.Time `json:"recorded_at" db:"recorded_at"`
}

// Payment records a coach subscription or one-off charge.
type Payment struct {
	ID              string    `json:"id" db:"id"`
	CoachID         string    `json:"coach_id" db:"coach_id"`
	StripePaymentID string    `json:"stripe_payment_id" db:"stripe_payment_id"`
	Amount          int64     `json:"amount" db:"amount"` // cents
	Currency        string    `json:"currency" db:"currency"`
	Status          string    `json:"status" db:"status"`
	Type            string    `json:"type" db:"type"` // subscription, one_off
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// NewCoach creates a coach with a generated ID
func NewCoach(email, name string) *Coach {
	now := time.Now()
	return &Coach{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewClient creates a client with a generated ID
func NewClient(coachID, name, email string) *Client {
	now := time.Now()
	return &Client{
		ID:        uuid.New().String(),
		CoachID:   coachID,
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewCheckinForm creates a form with a generated ID
func NewCheckinForm(coachID, title string, questions []checkin.Question) *CheckinForm {
	now := time.Now()
	return &CheckinForm{
		ID:        uuid.New().String(),
		CoachID:   coachID,
		Title:     title,
		Questions: questions,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
