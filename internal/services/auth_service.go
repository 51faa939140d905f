// internal/services/auth_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/policystack/agency-backend/internal/config"
	"github.com/policystack/agency-backend/internal/models"
	"github.com/policystack/agency-backend/internal/utils"
)

type AuthService struct {
	db             *gorm.DB
	cfg            *config.Config
	webhookService *WebhookService
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Name        string                 `json:"name" validate:"required,min=2,max=100"`
	Email       string                 `json:"email" validate:"required,email"`
	Phone       string                 `json:"phone" validate:"omitempty,phone"`
	Password    string                 `json:"password" validate:"required,strong_password"`
	AgencyName  string                 `json:"agency_name,omitempty"`
	ProfileData map[string]interface{} `json:"profile_data,omitempty"`
}

type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"` // in seconds
}

type TeamLoginResponse struct {
	Member      *models.TeamMember `json:"member"`
	AccessToken string             `json:"access_token"`
	TokenType   string             `json:"token_type"`
	ExpiresIn   int                `json:"expires_in"` // in seconds
}

func NewAuthService(db *gorm.DB, cfg *config.Config, webhookService *WebhookService) *AuthService {
	return &AuthService{
		db:             db,
		cfg:            cfg,
		webhookService: webhookService,
	}
}

func (s *AuthService) Register(req *RegisterRequest) (*AuthResponse, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	// Check if user already exists
	var existingUser models.User
	if err := s.db.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
		return nil, errors.New("user with this email already exists")
	}

	profile := models.JSONB(req.ProfileData)
	if req.AgencyName != "" {
		if profile == nil {
			profile = models.JSONB{}
		}
		profile["agency_name"] = req.AgencyName
	}

	trialEnd := time.Now().AddDate(0, 0, s.cfg.Trial.DurationDays)

	// Create new user on trial
	user := &models.User{
		Name:               req.Name,
		Email:              req.Email,
		Phone:              req.Phone,
		Role:               models.UserRoleAgent,
		SubscriptionStatus: models.SubscriptionStatusTrial,
		TrialEndsAt:        &trialEnd,
		ProfileData:        profile,
	}

	// Set password
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// Save user
	if err := s.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Generate tokens
	accessToken, err := utils.GenerateJWT(
		user.ID,
		user.Email,
		string(user.Role),
		utils.AccountTypeUser,
		s.cfg.JWT.AccessTokenTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := utils.GenerateRefreshToken(user.ID, s.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	// Relay the signup to the external workflow (async, never blocks
	// registration)
	if s.webhookService != nil {
		go s.webhookService.RelaySignup(user)
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.cfg.JWT.AccessTokenTTL * 3600, // Convert hours to seconds
	}, nil
}

func (s *AuthService) Login(req *LoginRequest) (*AuthResponse, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	// Find user by email
	var user models.User
	if err := s.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("invalid email or password")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	// Locked accounts cannot log in at all
	if user.SubscriptionStatus == models.SubscriptionStatusLocked {
		return nil, errors.New("account is locked")
	}

	// Check password
	if err := user.CheckPassword(req.Password); err != nil {
		return nil, errors.New("invalid email or password")
	}

	// Expire lapsed trials on login
	s.refreshSubscriptionState(&user)

	// Update last login
	now := time.Now()
	s.db.Model(&user).UpdateColumn("last_login_at", &now)

	// Generate tokens
	accessToken, err := utils.GenerateJWT(
		user.ID,
		user.Email,
		string(user.Role),
		utils.AccountTypeUser,
		s.cfg.JWT.AccessTokenTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := utils.GenerateRefreshToken(user.ID, s.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthResponse{
		User:         &user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.cfg.JWT.AccessTokenTTL * 3600,
	}, nil
}

// TeamLogin authenticates a team-member sub-account. The issued token
// carries the owner's account id and the member's page ACL.
func (s *AuthService) TeamLogin(req *LoginRequest) (*TeamLoginResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var member models.TeamMember
	if err := s.db.Where("email = ?", req.Email).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("invalid email or password")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !member.IsActive {
		return nil, errors.New("account is deactivated")
	}

	if err := member.CheckPassword(req.Password); err != nil {
		return nil, errors.New("invalid email or password")
	}

	now := time.Now()
	s.db.Model(&member).UpdateColumn("last_login_at", &now)

	accessToken, err := utils.GenerateTeamMemberJWT(
		member.ID,
		member.OwnerID,
		member.Email,
		member.AllowedPages,
		s.cfg.JWT.AccessTokenTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &TeamLoginResponse{
		Member:      &member,
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   s.cfg.JWT.AccessTokenTTL * 3600,
	}, nil
}

func (s *AuthService) RefreshToken(refreshToken string) (*AuthResponse, error) {
	userIDStr, err := utils.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, errors.New("invalid refresh token")
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, errors.New("invalid refresh token")
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, errors.New("user not found")
	}

	if user.SubscriptionStatus == models.SubscriptionStatusLocked {
		return nil, errors.New("account is locked")
	}

	accessToken, err := utils.GenerateJWT(
		user.ID,
		user.Email,
		string(user.Role),
		utils.AccountTypeUser,
		s.cfg.JWT.AccessTokenTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	newRefreshToken, err := utils.GenerateRefreshToken(user.ID, s.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthResponse{
		User:         &user,
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.cfg.JWT.AccessTokenTTL * 3600,
	}, nil
}

func (s *AuthService) GetProfile(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	s.refreshSubscriptionState(&user)
	return &user, nil
}

// refreshSubscriptionState flips trial/active accounts to expired when their
// end date has passed. Locked accounts are never touched here.
func (s *AuthService) refreshSubscriptionState(user *models.User) {
	now := time.Now()

	switch user.SubscriptionStatus {
	case models.SubscriptionStatusTrial:
		if user.TrialEndsAt != nil && user.TrialEndsAt.Before(now) {
			user.SubscriptionStatus = models.SubscriptionStatusExpired
			s.db.Model(user).UpdateColumn("subscription_status", models.SubscriptionStatusExpired)
		}
	case models.SubscriptionStatusActive:
		if user.SubscriptionEndsAt != nil && user.SubscriptionEndsAt.Before(now) {
			user.SubscriptionStatus = models.SubscriptionStatusExpired
			s.db.Model(user).UpdateColumn("subscription_status", models.SubscriptionStatusExpired)
		}
	}
}
