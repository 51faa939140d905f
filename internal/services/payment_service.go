// internal/services/payment_service.go
package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/customer"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"github.com/stripe/stripe-go/v74/webhook"
	"gorm.io/gorm"

	"github.com/policystack/agency-backend/internal/config"
	"github.com/policystack/agency-backend/internal/models"
)

type PaymentService struct {
	db     *gorm.DB
	config *config.Config
}

type SubscriptionIntentResponse struct {
	ClientSecret   string  `json:"client_secret"`
	PaymentID      string  `json:"payment_id"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	PublishableKey string  `json:"publishable_key"`
}

type SubscriptionStatusResponse struct {
	Status             models.SubscriptionStatus `json:"status"`
	TrialEndsAt        *time.Time                `json:"trial_ends_at,omitempty"`
	SubscriptionEndsAt *time.Time                `json:"subscription_ends_at,omitempty"`
	CanWrite           bool                      `json:"can_write"`
}

func NewPaymentService(db *gorm.DB, config *config.Config) *PaymentService {
	// Initialize Stripe
	stripe.Key = config.Payment.StripeSecretKey

	return &PaymentService{
		db:     db,
		config: config,
	}
}

// CreateSubscriptionIntent opens a payment for one subscription period. The
// account is activated only when the webhook confirms the charge.
func (s *PaymentService) CreateSubscriptionIntent(userID uuid.UUID) (*SubscriptionIntentResponse, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if user.SubscriptionStatus == models.SubscriptionStatusLocked {
		return nil, errors.New("account is locked")
	}

	customerID, err := s.ensureCustomer(&user)
	if err != nil {
		return nil, err
	}

	amountInCents := int64(s.config.Payment.SubscriptionAmount * 100)

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountInCents),
		Currency: stripe.String("inr"),
		Customer: stripe.String(customerID),
	}
	params.AddMetadata("user_id", user.ID.String())
	params.AddMetadata("purpose", "subscription")

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &SubscriptionIntentResponse{
		ClientSecret:   pi.ClientSecret,
		PaymentID:      pi.ID,
		Amount:         s.config.Payment.SubscriptionAmount,
		Currency:       "inr",
		PublishableKey: s.config.Payment.StripePublishableKey,
	}, nil
}

func (s *PaymentService) ensureCustomer(user *models.User) (string, error) {
	if user.StripeCustomerID != "" {
		return user.StripeCustomerID, nil
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(user.Email),
		Name:  stripe.String(user.Name),
	}
	params.AddMetadata("user_id", user.ID.String())

	c, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create stripe customer: %w", err)
	}

	if err := s.db.Model(user).Update("stripe_customer_id", c.ID).Error; err != nil {
		return "", fmt.Errorf("failed to persist stripe customer id: %w", err)
	}
	user.StripeCustomerID = c.ID

	return c.ID, nil
}

// HandleWebhook verifies and processes a Stripe event. Activation happens
// here, never on the client's say-so.
func (s *PaymentService) HandleWebhook(payload []byte, signature string) error {
	event, err := webhook.ConstructEvent(payload, signature, s.config.Payment.StripeWebhookSecret)
	if err != nil {
		return fmt.Errorf("webhook signature verification failed: %w", err)
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return fmt.Errorf("failed to parse payment intent: %w", err)
		}
		if pi.Metadata["purpose"] != "subscription" {
			return nil
		}
		return s.activateSubscription(pi.Metadata["user_id"], pi.ID)

	case "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return fmt.Errorf("failed to parse payment intent: %w", err)
		}
		logrus.WithFields(logrus.Fields{
			"payment_id": pi.ID,
			"user_id":    pi.Metadata["user_id"],
		}).Warn("Subscription payment failed")
		return nil

	default:
		logrus.WithField("type", event.Type).Debug("Ignoring stripe event")
		return nil
	}
}

func (s *PaymentService) activateSubscription(userIDRaw, paymentID string) error {
	userID, err := uuid.Parse(userIDRaw)
	if err != nil {
		return fmt.Errorf("invalid user id in payment metadata: %w", err)
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return fmt.Errorf("user not found for payment %s: %w", paymentID, err)
	}

	// One payment buys one subscription period. An early renewal extends
	// from the current end rather than resetting it.
	base := time.Now()
	if user.SubscriptionEndsAt != nil && user.SubscriptionEndsAt.After(base) {
		base = *user.SubscriptionEndsAt
	}
	endsAt := base.AddDate(0, 1, 0)

	updates := map[string]interface{}{
		"subscription_status":  models.SubscriptionStatusActive,
		"subscription_ends_at": endsAt,
	}
	if err := s.db.Model(&user).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to activate subscription: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    user.ID,
		"payment_id": paymentID,
		"ends_at":    endsAt,
	}).Info("Subscription activated")

	return nil
}

func (s *PaymentService) GetSubscriptionStatus(userID uuid.UUID) (*SubscriptionStatusResponse, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &SubscriptionStatusResponse{
		Status:             user.SubscriptionStatus,
		TrialEndsAt:        user.TrialEndsAt,
		SubscriptionEndsAt: user.SubscriptionEndsAt,
		CanWrite:           user.CanWrite(),
	}, nil
}

// LockAccount is an admin action that blocks all access for the user and
// their team members until unlocked.
func (s *PaymentService) LockAccount(rc RequestContext, userID uuid.UUID) error {
	if !rc.IsAdmin {
		return errors.New("admin access required")
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("user not found")
		}
		return fmt.Errorf("database error: %w", err)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"subscription_status": models.SubscriptionStatusLocked,
		"locked_at":           now,
	}
	if err := s.db.Model(&user).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to lock account: %w", err)
	}

	return nil
}

// UnlockAccount restores the status the account's dates warrant.
func (s *PaymentService) UnlockAccount(rc RequestContext, userID uuid.UUID) error {
	if !rc.IsAdmin {
		return errors.New("admin access required")
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("user not found")
		}
		return fmt.Errorf("database error: %w", err)
	}

	if user.SubscriptionStatus != models.SubscriptionStatusLocked {
		return errors.New("account is not locked")
	}

	now := time.Now()
	status := models.SubscriptionStatusExpired
	if user.SubscriptionEndsAt != nil && user.SubscriptionEndsAt.After(now) {
		status = models.SubscriptionStatusActive
	} else if user.TrialEndsAt != nil && user.TrialEndsAt.After(now) {
		status = models.SubscriptionStatusTrial
	}

	updates := map[string]interface{}{
		"subscription_status": status,
		"locked_at":           nil,
	}
	if err := s.db.Model(&user).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to unlock account: %w", err)
	}

	return nil
}
