package billing

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/brettearl18/checkin-v5-sub001/internal/database"
	appErrors "github.com/brettearl18/checkin-v5-sub001/internal/errors"
)

// Config holds Stripe configuration for coach subscriptions
type Config struct {
	SecretKey     string
	WebhookSecret string
	ProPriceID    string
	SuccessURL    string
	CancelURL     string
}

// Service handles checkout sessions and webhook events for coach
// subscription billing.
type Service struct {
	config       Config
	stripeClient *client.API
	coaches      *database.CoachService
}

// NewService creates a billing service. A missing secret key leaves the
// service disabled; handlers respond 503 until it is configured.
func NewService(config Config, coaches *database.CoachService) *Service {
	s := &Service{config: config, coaches: coaches}
	if config.SecretKey != "" {
		stripe.Key = config.SecretKey
		s.stripeClient = &client.API{}
		s.stripeClient.Init(config.SecretKey, nil)
	}
	return s
}

// Enabled reports whether Stripe is configured
func (s *Service) Enabled() bool {
	return s.stripeClient != nil
}

type checkoutRequest struct {
	Plan string `json:"plan" binding:"required"`
}

// CreateCheckoutSession creates a Stripe checkout session for the
// authenticated coach's subscription upgrade.
func (s *Service) CreateCheckoutSession(c *gin.Context) {
	if !s.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "payment system not configured"})
		return
	}

	coachID := c.GetString("coach_id")
	if coachID == "" {
		appErr := appErrors.NewAuthError("coach not identified")
		appErrors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	var req checkoutRequest
	if err := c.BindJSON(&req); err != nil {
		appErr := appErrors.ToAppError(err)
		appErrors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	if req.Plan != "pro" {
		appErr := appErrors.NewValidationError(fmt.Sprintf("unknown plan %q", req.Plan))
		appErrors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	sessionParams := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(s.config.ProPriceID),
				Quantity: stripe.Int64(1),
			},
		},
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL:        stripe.String(s.config.SuccessURL),
		CancelURL:         stripe.String(s.config.CancelURL),
		ClientReferenceID: stripe.String(coachID),
		Metadata: map[string]string{
			"coach_id": coachID,
			"plan":     req.Plan,
		},
	}

	session, err := s.stripeClient.CheckoutSessions.New(sessionParams)
	if err != nil {
		appErr := appErrors.NewExternalAPIError("stripe", err)
		appErrors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": session.ID,
		"url":        session.URL,
	})
}

// HandleWebhook processes Stripe webhook events
func (s *Service) HandleWebhook(c *gin.Context) {
	if !s.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "payment system not configured"})
		return
	}

	const maxBodyBytes = int64(65536)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	event, err := webhook.ConstructEvent(body, c.GetHeader("Stripe-Signature"), s.config.WebhookSecret)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse webhook"})
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse session"})
			return
		}

		coachID := session.ClientReferenceID
		if coachID == "" {
			slog.Error("Coach ID is empty in webhook")
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid coach ID"})
			return
		}

		customerID := ""
		if session.Customer != nil {
			customerID = session.Customer.ID
		}
		if err := s.coaches.UpgradeCoachToPaid(coachID, customerID); err != nil {
			slog.Error("Failed to upgrade coach", "error", err, "coach_id", coachID)
		}

		amount := session.AmountTotal / 100
		if _, err := s.coaches.CreatePaymentRecord(coachID, session.ID, string(session.Currency), "completed", "subscription", amount); err != nil {
			slog.Error("Failed to record payment", "error", err, "coach_id", coachID)
		}

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse subscription"})
			return
		}
		slog.Info("Subscription cancelled", "customer_id", sub.Customer.ID)
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
