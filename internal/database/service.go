package database

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CoachService provides account and session logic for coaches.
type CoachService struct {
	repo      *Repository
	jwtSecret []byte
}

// NewCoachService creates a new coach service
func NewCoachService(repo *Repository, jwtSecret string) *CoachService {
	return &CoachService{
		repo:      repo,
		jwtSecret: []byte(jwtSecret),
	}
}

// Login fetches or provisions a coach account and returns a session token.
// Identity verification happens upstream; this layer only mints sessions.
func (s *CoachService) Login(email, name string) (*Coach, string, error) {
	coach, err := s.repo.GetOrCreateCoach(email, name)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get/create coach: %w", err)
	}

	token, err := s.GenerateSessionToken(coach.ID)
	if err != nil {
		return nil, "", err
	}

	return coach, token, nil
}

// GenerateSessionToken generates a JWT token for the coach session
func (s *CoachService) GenerateSessionToken(coachID string) (string, error) {
	claims := jwt.MapClaims{
		"coach_id": coachID,
		"exp":      time.Now().Add(24 * time.Hour).Unix(),
		"iat":      time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	return tokenString, nil
}

// ValidateSessionToken validates a JWT token and returns the coach ID
func (s *CoachService) ValidateSessionToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		return "", err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		coachID, ok := claims["coach_id"].(string)
		if !ok {
			return "", fmt.Errorf("coach_id not found in token")
		}
		return coachID, nil
	}

	return "", fmt.Errorf("invalid token")
}

// UpgradeCoachToPaid upgrades a coach after a completed subscription checkout
func (s *CoachService) UpgradeCoachToPaid(coachID, stripeCustomerID string) error {
	return s.repo.UpdateCoachSubscription(coachID, true, stripeCustomerID)
}

// CreatePaymentRecord creates a payment record in the database
func (s *CoachService) CreatePaymentRecord(coachID, stripePaymentID, currency, status, paymentType string, amount int64) (*Payment, error) {
	return s.repo.CreatePayment(coachID, stripePaymentID, currency, status, paymentType, amount)
}
