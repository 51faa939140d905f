// internal/services/webhook_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/policystack/agency-backend/internal/config"
	"github.com/policystack/agency-backend/internal/models"
)

// WebhookService relays signup events to an external workflow URL. The
// relay is pure passthrough: the caller is never blocked and failures are
// only logged.
type WebhookService struct {
	cfg    *config.Config
	client *http.Client
}

func NewWebhookService(cfg *config.Config) *WebhookService {
	return &WebhookService{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.Webhooks.RelayTimeout) * time.Second,
		},
	}
}

type signupRelayPayload struct {
	Event     string    `json:"event"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *WebhookService) RelaySignup(user *models.User) {
	if s.cfg.Webhooks.SignupRelayURL == "" {
		return
	}

	payload := signupRelayPayload{
		Event:     "user.signup",
		UserID:    user.ID.String(),
		Name:      user.Name,
		Email:     user.Email,
		Phone:     user.Phone,
		Timestamp: time.Now().UTC(),
	}

	if err := s.post(context.Background(), s.cfg.Webhooks.SignupRelayURL, payload); err != nil {
		logrus.WithError(err).WithField("email", user.Email).Warn("Signup relay failed")
		return
	}

	logrus.WithField("email", user.Email).Info("Signup relayed")
}

func (s *WebhookService) post(ctx context.Context, url string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal relay payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("relay request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("relay returned status %d", resp.StatusCode)
	}

	return nil
}
