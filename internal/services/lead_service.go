// internal/services/lead_service.go
package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/policystack/agency-backend/internal/models"
	"github.com/policystack/agency-backend/internal/utils"
)

type LeadService struct {
	db              *gorm.DB
	activityService *ActivityService
}

type CreateLeadRequest struct {
	Name        string              `json:"name" validate:"required,min=2,max=255"`
	Phone       string              `json:"phone" validate:"omitempty,phone"`
	Email       string              `json:"email" validate:"omitempty,email"`
	City        string              `json:"city,omitempty"`
	Status      models.LeadStatus   `json:"status,omitempty"`
	Priority    models.LeadPriority `json:"priority,omitempty"`
	Source      string              `json:"source,omitempty"`
	ProductType string              `json:"product_type,omitempty"`
	Notes       string              `json:"notes,omitempty"`
	FollowUpDate *time.Time         `json:"follow_up_date,omitempty"`
}

// UpdateLeadRequest uses pointers for free-text fields so an explicit empty
// string clears the stored value while an absent field leaves it alone.
type UpdateLeadRequest struct {
	Name         string               `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	Phone        string               `json:"phone,omitempty" validate:"omitempty,phone"`
	Email        string               `json:"email,omitempty" validate:"omitempty,email"`
	City         string               `json:"city,omitempty"`
	Status       *models.LeadStatus   `json:"status,omitempty"`
	Priority     *models.LeadPriority `json:"priority,omitempty"`
	Source       *string              `json:"source,omitempty"`
	ProductType  string               `json:"product_type,omitempty"`
	Notes        *string              `json:"notes,omitempty"`
	FollowUpDate *time.Time           `json:"follow_up_date,omitempty"`
}

// changes builds the column map for a partial update.
func (req *UpdateLeadRequest) changes() map[string]interface{} {
	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Phone != "" {
		updates["phone"] = req.Phone
	}
	if req.Email != "" {
		updates["email"] = req.Email
	}
	if req.City != "" {
		updates["city"] = req.City
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}
	if req.Source != nil {
		updates["source"] = *req.Source
	}
	if req.ProductType != "" {
		updates["product_type"] = req.ProductType
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if req.FollowUpDate != nil {
		updates["follow_up_date"] = req.FollowUpDate
	}
	return updates
}

type RecordFollowUpRequest struct {
	Status           models.FollowUpStatus `json:"status" validate:"required,oneof=completed missed rescheduled"`
	Notes            string                `json:"notes" validate:"required,min=2"`
	NextFollowUpDate *time.Time            `json:"next_follow_up_date,omitempty"`
}

// FollowUpBucket selects a slice of the follow-up calendar.
type FollowUpBucket string

const (
	BucketToday    FollowUpBucket = "today"
	BucketTomorrow FollowUpBucket = "tomorrow"
	BucketThisWeek FollowUpBucket = "this_week"
	BucketOverdue  FollowUpBucket = "overdue"
	BucketCustom   FollowUpBucket = "custom"
)

func NewLeadService(db *gorm.DB, activityService *ActivityService) *LeadService {
	return &LeadService{
		db:              db,
		activityService: activityService,
	}
}

func (s *LeadService) CreateLead(rc RequestContext, req *CreateLeadRequest) (*models.Lead, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	status := req.Status
	if status == "" {
		status = models.LeadStatusNew
	}
	priority := req.Priority
	if priority == "" {
		priority = models.LeadPriorityMedium
	}

	lead := &models.Lead{
		UserID:       rc.ActorID,
		Name:         req.Name,
		Phone:        req.Phone,
		Email:        req.Email,
		City:         req.City,
		Status:       status,
		Priority:     priority,
		Source:       req.Source,
		ProductType:  req.ProductType,
		Notes:        req.Notes,
		FollowUpDate: req.FollowUpDate,
	}

	if err := s.db.Create(lead).Error; err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}

	s.activityService.RecordAsync(&rc.ActorID, models.ActivityActionCreate, "lead", &lead.ID, nil, lead, rc.IPAddress, rc.UserAgent)

	return lead, nil
}

func (s *LeadService) GetLead(rc RequestContext, id uuid.UUID) (*models.Lead, error) {
	var lead models.Lead
	if err := s.db.Preload("FollowUpHistory", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	}).First(&lead, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("lead not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if lead.UserID != rc.ActorID && !rc.IsAdmin {
		return nil, errors.New("unauthorized to view this lead")
	}

	return &lead, nil
}

func (s *LeadService) UpdateLead(rc RequestContext, id uuid.UUID, req *UpdateLeadRequest) (*models.Lead, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var lead models.Lead
	if err := s.db.First(&lead, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("lead not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if lead.UserID != rc.ActorID && !rc.IsAdmin {
		return nil, errors.New("unauthorized to update this lead")
	}

	before := lead

	if err := s.db.Model(&lead).Updates(req.changes()).Error; err != nil {
		return nil, fmt.Errorf("failed to update lead: %w", err)
	}

	s.db.First(&lead, "id = ?", id)

	s.activityService.RecordAsync(&rc.ActorID, models.ActivityActionUpdate, "lead", &lead.ID, &before, &lead, rc.IPAddress, rc.UserAgent)

	return &lead, nil
}

func (s *LeadService) DeleteLead(rc RequestContext, id uuid.UUID) error {
	var lead models.Lead
	if err := s.db.First(&lead, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("lead not found")
		}
		return fmt.Errorf("database error: %w", err)
	}

	if lead.UserID != rc.ActorID && !rc.IsAdmin {
		return errors.New("unauthorized to delete this lead")
	}

	if err := s.db.Delete(&lead).Error; err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}

	s.activityService.RecordAsync(&rc.ActorID, models.ActivityActionDelete, "lead", &lead.ID, &lead, nil, rc.IPAddress, rc.UserAgent)

	return nil
}

func (s *LeadService) SearchLeads(rc RequestContext, params utils.PaginationParams, status *models.LeadStatus, priority *models.LeadPriority) ([]models.Lead, int64, error) {
	query := s.db.Model(&models.Lead{})

	if !rc.IsAdmin {
		query = query.Where("user_id = ?", rc.ActorID)
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if priority != nil {
		query = query.Where("priority = ?", *priority)
	}

	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ?", searchTerm, searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count leads: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "name", "status", "priority", "follow_up_date"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var leads []models.Lead
	if err := query.Find(&leads).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch leads: %w", err)
	}

	return leads, total, nil
}

// FollowUps returns the date-bucketed follow-up view, sorted by follow-up
// date ascending.
func (s *LeadService) FollowUps(rc RequestContext, bucket FollowUpBucket, from, to *time.Time) ([]models.Lead, error) {
	query := s.db.Model(&models.Lead{}).Where("follow_up_date IS NOT NULL")

	if !rc.IsAdmin {
		query = query.Where("user_id = ?", rc.ActorID)
	}

	var leads []models.Lead
	if err := query.Find(&leads).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch leads: %w", err)
	}

	return FilterFollowUps(leads, bucket, from, to, time.Now()), nil
}

// FilterFollowUps buckets a lead list by follow-up date. The overdue bucket
// never contains leads in a terminal status: a won, lost or canceled lead
// has nothing left to follow up on.
func FilterFollowUps(leads []models.Lead, bucket FollowUpBucket, from, to *time.Time, now time.Time) []models.Lead {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var lo, hi time.Time
	switch bucket {
	case BucketToday:
		lo, hi = dayStart, dayStart.AddDate(0, 0, 1)
	case BucketTomorrow:
		lo, hi = dayStart.AddDate(0, 0, 1), dayStart.AddDate(0, 0, 2)
	case BucketThisWeek:
		lo, hi = dayStart, dayStart.AddDate(0, 0, 7)
	case BucketOverdue:
		lo, hi = time.Time{}, dayStart
	case BucketCustom:
		if from == nil || to == nil {
			return nil
		}
		lo = *from
		hi = to.AddDate(0, 0, 1) // inclusive upper bound
	default:
		return nil
	}

	filtered := make([]models.Lead, 0, len(leads))
	for _, lead := range leads {
		if lead.FollowUpDate == nil {
			continue
		}
		d := *lead.FollowUpDate
		if d.Before(lo) && !lo.IsZero() {
			continue
		}
		if !d.Before(hi) {
			continue
		}
		if bucket == BucketOverdue && lead.Status.IsTerminal() {
			continue
		}
		filtered = append(filtered, lead)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].FollowUpDate.Before(*filtered[j].FollowUpDate)
	})

	return filtered
}

// RecordFollowUp appends a history entry. History is append-only: prior
// rows are never touched. Unless the contact was missed, a provided next
// date advances the lead's schedule; nothing is rescheduled automatically.
func (s *LeadService) RecordFollowUp(rc RequestContext, leadID uuid.UUID, req *RecordFollowUpRequest) (*models.Lead, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var lead models.Lead
	if err := s.db.First(&lead, "id = ?", leadID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("lead not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if lead.UserID != rc.ActorID && !rc.IsAdmin {
		return nil, errors.New("unauthorized to update this lead")
	}

	entry := &models.FollowUpHistory{
		LeadID:           lead.ID,
		Status:           req.Status,
		LeadStatus:       lead.Status,
		Notes:            req.Notes,
		NextFollowUpDate: req.NextFollowUpDate,
		CreatedBy:        rc.ActorID,
	}

	if err := s.db.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to record follow-up: %w", err)
	}

	if req.Status != models.FollowUpStatusMissed && req.NextFollowUpDate != nil {
		updates := map[string]interface{}{
			"follow_up_date":      req.NextFollowUpDate,
			"next_follow_up_date": req.NextFollowUpDate,
		}
		if err := s.db.Model(&lead).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to advance follow-up date: %w", err)
		}
	}

	s.db.Preload("FollowUpHistory", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	}).First(&lead, "id = ?", leadID)

	return &lead, nil
}

// ConvertLead creates a policy from a lead and marks the lead won.
func (s *LeadService) ConvertLead(rc RequestContext, leadID uuid.UUID, policyID uuid.UUID) (*models.Lead, error) {
	var lead models.Lead
	if err := s.db.First(&lead, "id = ?", leadID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("lead not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if lead.UserID != rc.ActorID && !rc.IsAdmin {
		return nil, errors.New("unauthorized to convert this lead")
	}

	var policy models.Policy
	if err := s.db.First(&policy, "id = ?", policyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("policy not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	before := lead

	updates := map[string]interface{}{
		"status":              models.LeadStatusWon,
		"converted_policy_id": policyID,
	}
	if err := s.db.Model(&lead).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to convert lead: %w", err)
	}

	s.db.First(&lead, "id = ?", leadID)

	s.activityService.RecordAsync(&rc.ActorID, models.ActivityActionUpdate, "lead", &lead.ID, &before, &lead, rc.IPAddress, rc.UserAgent)

	return &lead, nil
}
