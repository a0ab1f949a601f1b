package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/brettearl18/checkin-v5-sub001/internal/checkin"
)

// Repository handles database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// GetOrCreateCoach fetches a coach account by email, creating it on first
// login.
func (r *Repository) GetOrCreateCoach(email, name string) (*Coach, error) {
	var coach Coach
	err := r.db.QueryRow(`
		SELECT id, email, name, is_paid, stripe_customer_id, created_at, updated_at
		FROM coaches
		WHERE email = ?
	`, email).Scan(
		&coach.ID, &coach.Email, &coach.Name,
		&coach.IsPaid, &coach.StripeID, &coach.CreatedAt, &coach.UpdatedAt,
	)

	if err == nil {
		return &coach, nil
	}

	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to query coach: %w", err)
	}

	coach = *NewCoach(email, name)
	_, err = r.db.Exec(`
		INSERT INTO coaches (id, email, name, is_paid, stripe_customer_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, coach.ID, coach.Email, coach.Name, coach.IsPaid, coach.StripeID, coach.CreatedAt, coach.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create coach: %w", err)
	}

	return &coach, nil
}

// UpdateCoachSubscription flips a coach's paid status after a billing event.
func (r *Repository) UpdateCoachSubscription(coachID string, isPaid bool, stripeCustomerID string) error {
	_, err := r.db.Exec(`
		UPDATE coaches SET is_paid = ?, stripe_customer_id = ?, updated_at = ? WHERE id = ?
	`, isPaid, stripeCustomerID, time.Now(), coachID)
	if err != nil {
		return fmt.Errorf("failed to update coach subscription: %w", err)
	}
	return nil
}

// CreateClient stores a new client for a coach.
func (r *Repository) CreateClient(coachID, name, email string) (*Client, error) {
	client := NewClient(coachID, name, email)
	_, err := r.db.Exec(`
		INSERT INTO clients (id, coach_id, name, email, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, client.ID, client.CoachID, client.Name, client.Email, client.CreatedAt, client.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return client, nil
}

// GetClient fetches one client by id.
func (r *Repository) GetClient(clientID string) (*Client, error) {
	var client Client
	err := r.db.stmt("get_client").QueryRow(clientID).Scan(
		&client.ID, &client.CoachID, &client.Name, &client.Email,
		&client.CreatedAt, &client.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &client, nil
}

// ListClients returns all clients belonging to a coach.
func (r *Repository) ListClients(coachID string) ([]Client, error) {
	rows, err := r.db.Query(`
		SELECT id, coach_id, name, email, created_at, updated_at
		FROM clients
		WHERE coach_id = ?
		ORDER BY created_at ASC
	`, coachID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.CoachID, &c.Name, &c.Email, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// CreateForm stores a check-in form, serializing its questions as JSON.
func (r *Repository) CreateForm(coachID, title string, questions []checkin.Question) (*CheckinForm, error) {
	form := NewCheckinForm(coachID, title, questions)

	payload, err := json.Marshal(form.Questions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode questions: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO checkin_forms (id, coach_id, title, questions, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, form.ID, form.CoachID, form.Title, string(payload), form.CreatedAt, form.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create form: %w", err)
	}

	return form, nil
}

// GetForm fetches one form with its questions decoded.
func (r *Repository) GetForm(formID string) (*CheckinForm, error) {
	var form CheckinForm
	var payload string

	err := r.db.QueryRow(`
		SELECT id, coach_id, title, questions, created_at, updated_at
		FROM checkin_forms
		WHERE id = ?
	`, formID).Scan(&form.ID, &form.CoachID, &form.Title, &payload, &form.CreatedAt, &form.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(payload), &form.Questions); err != nil {
		return nil, fmt.Errorf("failed to decode questions: %w", err)
	}

	return &form, nil
}

// UpdateFormQuestions replaces a form's question set. Stored submissions keep
// the scores they were written with.
func (r *Repository) UpdateFormQuestions(formID string, questions []checkin.Question) error {
	payload, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("failed to encode questions: %w", err)
	}

	_, err = r.db.Exec(`
		UPDATE checkin_forms SET questions = ?, updated_at = ? WHERE id = ?
	`, string(payload), time.Now(), formID)
	if err != nil {
		return fmt.Errorf("failed to update form: %w", err)
	}
	return nil
}

// CreateSubmission persists an already-scored check-in.
func (r *Repository) CreateSubmission(clientID, formID, assignmentID string, scored checkin.ScoredSubmission, submittedAt time.Time) (*CheckinRecord, error) {
	payload, err := json.Marshal(scored.Responses)
	if err != nil {
		return nil, fmt.Errorf("failed to encode responses: %w", err)
	}

	record := &CheckinRecord{
		ID:           uuid.New().String(),
		ClientID:     clientID,
		FormID:       formID,
		AssignmentID: assignmentID,
		Score:        scored.Score,
		Total:        scored.TotalQuestions,
		Answered:     scored.AnsweredQuestions,
		Responses:    scored.Responses,
		SubmittedAt:  submittedAt,
	}

	_, err = r.db.Exec(`
		INSERT INTO checkin_records
			(id, client_id, form_id, assignment_id, score, total_questions, answered_questions, responses, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, record.ID, record.ClientID, record.FormID, record.AssignmentID,
		record.Score, record.Total, record.Answered, string(payload), record.SubmittedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	return record, nil
}

// ListSubmissions returns a client's check-ins in ascending submission order,
// shaped for the timeline engine.
func (r *Repository) ListSubmissions(clientID string) ([]checkin.Submission, error) {
	rows, err := r.db.stmt("list_submissions").Query(clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var subs []checkin.Submission
	for rows.Next() {
		var rec CheckinRecord
		var assignmentID sql.NullString
		var payload string

		if err := rows.Scan(&rec.ID, &rec.ClientID, &rec.FormID, &assignmentID,
			&rec.Score, &rec.Total, &rec.Answered, &payload, &rec.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}

		var responses []checkin.AnnotatedResponse
		if err := json.Unmarshal([]byte(payload), &responses); err != nil {
			return nil, fmt.Errorf("failed to decode responses: %w", err)
		}

		subs = append(subs, checkin.Submission{
			AssignmentID: assignmentID.String,
			FormID:       rec.FormID,
			SubmittedAt:  rec.SubmittedAt,
			Responses:    responses,
		})
	}
	return subs, rows.Err()
}

// ListScores returns a client's submission scores in ascending order.
func (r *Repository) ListScores(clientID string) ([]float64, error) {
	rows, err := r.db.stmt("list_scores").Query(clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	defer rows.Close()

	var scores []float64
	for rows.Next() {
		var s float64
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

// RecordMeasurement stores a scalar metric sample for a client.
func (r *Repository) RecordMeasurement(clientID, metric string, value float64, recordedAt time.Time) (*Measurement, error) {
	m := &Measurement{
		ID:         uuid.New().String(),
		ClientID:   clientID,
		Metric:     metric,
		Value:      value,
		RecordedAt: recordedAt,
	}

	_, err := r.db.Exec(`
		INSERT INTO measurements (id, client_id, metric, value, recorded_at)
		VALUES (?, ?, ?, ?, ?)
	`, m.ID, m.ClientID, m.Metric, m.Value, m.RecordedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to record measurement: %w", err)
	}

	return m, nil
}

// ListMeasurements returns a client's samples for one metric in ascending
// order.
func (r *Repository) ListMeasurements(clientID, metric string) ([]float64, error) {
	rows, err := r.db.Query(`
		SELECT value FROM measurements
		WHERE client_id = ? AND metric = ?
		ORDER BY recorded_at ASC
	`, clientID, metric)
	if err != nil {
		return nil, fmt.Errorf("failed to list measurements: %w", err)
	}
	defer rows.Close()

	var values []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan measurement: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// CreatePayment records a billing event for a coach.
func (r *Repository) CreatePayment(coachID, stripePaymentID, currency, status, paymentType string, amount int64) (*Payment, error) {
	payment := &Payment{
		ID:              uuid.New().String(),
		CoachID:         coachID,
		StripePaymentID: stripePaymentID,
		Amount:          amount,
		Currency:        currency,
		Status:          status,
		Type:            paymentType,
		CreatedAt:       time.Now(),
	}

	_, err := r.db.Exec(`
		INSERT INTO payments (id, coach_id, stripe_payment_id, amount, currency, status, type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, payment.ID, payment.CoachID, payment.StripePaymentID, payment.Amount,
		payment.Currency, payment.Status, payment.Type, payment.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	return payment, nil
}
