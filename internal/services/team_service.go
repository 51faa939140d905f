// internal/services/team_service.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/policystack/agency-backend/internal/models"
	"github.com/policystack/agency-backend/internal/utils"
)

// KnownPages are the page names a team member ACL may reference.
var KnownPages = []string{
	"dashboard",
	"policies",
	"leads",
	"follow_ups",
	"claims",
	"deleted_policies",
	"documents",
	"activity",
	"settings",
}

type TeamService struct {
	db              *gorm.DB
	activityService *ActivityService
}

type CreateTeamMemberRequest struct {
	Name         string   `json:"name" validate:"required,min=2,max=100"`
	Email        string   `json:"email" validate:"required,email"`
	Password     string   `json:"password" validate:"required,strong_password"`
	AllowedPages []string `json:"allowed_pages" validate:"required,min=1"`
}

type UpdateTeamMemberRequest struct {
	Name         string   `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Password     string   `json:"password,omitempty" validate:"omitempty,strong_password"`
	AllowedPages []string `json:"allowed_pages,omitempty"`
	IsActive     *bool    `json:"is_active,omitempty"`
}

func NewTeamService(db *gorm.DB, activityService *ActivityService) *TeamService {
	return &TeamService{
		db:              db,
		activityService: activityService,
	}
}

func validatePages(pages []string) error {
	for _, page := range pages {
		known := false
		for _, k := range KnownPages {
			if page == k {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("unknown page: %s", page)
		}
	}
	return nil
}

func (s *TeamService) CreateMember(rc RequestContext, req *CreateTeamMemberRequest) (*models.TeamMember, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if err := validatePages(req.AllowedPages); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var count int64
	s.db.Model(&models.TeamMember{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		return nil, errors.New("email already in use")
	}
	s.db.Model(&models.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		return nil, errors.New("email already in use")
	}

	member := &models.TeamMember{
		OwnerID:      rc.ActorID,
		Name:         req.Name,
		Email:        email,
		AllowedPages: pq.StringArray(req.AllowedPages),
		IsActive:     true,
	}
	if err := member.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.Create(member).Error; err != nil {
		return nil, fmt.Errorf("failed to create team member: %w", err)
	}

	s.activityService.RecordAsync(&rc.ActorID, models.ActivityActionCreate, "team_member", &member.ID, nil, member, rc.IPAddress, rc.UserAgent)

	return member, nil
}

func (s *TeamService) ListMembers(rc RequestContext) ([]models.TeamMember, error) {
	var members []models.TeamMember
	if err := s.db.Where("owner_id = ?", rc.ActorID).Order("created_at ASC").Find(&members).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch team members: %w", err)
	}
	return members, nil
}

func (s *TeamService) GetMember(rc RequestContext, memberID uuid.UUID) (*models.TeamMember, error) {
	var member models.TeamMember
	if err := s.db.First(&member, "id = ?", memberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("team member not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if member.OwnerID != rc.ActorID && !rc.IsAdmin {
		return nil, errors.New("unauthorized to view this team member")
	}

	return &member, nil
}

func (s *TeamService) UpdateMember(rc RequestContext, memberID uuid.UUID, req *UpdateTeamMemberRequest) (*models.TeamMember, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if req.AllowedPages != nil {
		if err := validatePages(req.AllowedPages); err != nil {
			return nil, err
		}
	}

	member, err := s.GetMember(rc, memberID)
	if err != nil {
		return nil, err
	}

	before := *member

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.AllowedPages != nil {
		updates["allowed_pages"] = pq.StringArray(req.AllowedPages)
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.Password != "" {
		if err := member.SetPassword(req.Password); err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		updates["password_hash"] = member.PasswordHash
	}

	if len(updates) > 0 {
		if err := s.db.Model(member).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update team member: %w", err)
		}
	}

	s.db.First(member, "id = ?", memberID)

	s.activityService.RecordAsync(&rc.ActorID, models.ActivityActionUpdate, "team_member", &member.ID, &before, member, rc.IPAddress, rc.UserAgent)

	return member, nil
}

func (s *TeamService) DeleteMember(rc RequestContext, memberID uuid.UUID) error {
	member, err := s.GetMember(rc, memberID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(member).Error; err != nil {
		return fmt.Errorf("failed to delete team member: %w", err)
	}

	s.activityService.RecordAsync(&rc.ActorID, models.ActivityActionDelete, "team_member", &member.ID, member, nil, rc.IPAddress, rc.UserAgent)

	return nil
}
