// internal/services/activity_service.go
package services

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/policystack/agency-backend/internal/models"
	"github.com/policystack/agency-backend/internal/utils"
)

// ActivityService writes the immutable audit trail. Records are only ever
// created; there is no update or delete path.
type ActivityService struct {
	db *gorm.DB
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{db: db}
}

type ActivityFilter struct {
	utils.PaginationParams
	Action       *models.ActivityAction `json:"action,omitempty"`
	ResourceType string                 `json:"resource_type,omitempty"`
	UserID       *uuid.UUID             `json:"user_id,omitempty"`
}

// Record persists an audit entry with before/after snapshots. Snapshots are
// marshalled through JSON so only exported model fields are captured.
func (s *ActivityService) Record(actorID *uuid.UUID, action models.ActivityAction, resourceType string, resourceID *uuid.UUID, oldValue, newValue interface{}, ip, userAgent string) error {
	entry := &models.ActivityLog{
		UserID:       actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		OldValues:    snapshot(oldValue),
		NewValues:    snapshot(newValue),
		IPAddress:    ip,
		UserAgent:    userAgent,
	}

	if err := s.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to write activity log: %w", err)
	}

	return nil
}

// RecordAsync logs in the background; audit failures never fail the
// triggering mutation, they are only reported.
func (s *ActivityService) RecordAsync(actorID *uuid.UUID, action models.ActivityAction, resourceType string, resourceID *uuid.UUID, oldValue, newValue interface{}, ip, userAgent string) {
	go func() {
		if err := s.Record(actorID, action, resourceType, resourceID, oldValue, newValue, ip, userAgent); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"action":        action,
				"resource_type": resourceType,
			}).Error("Failed to create activity log")
		}
	}()
}

func (s *ActivityService) List(filter ActivityFilter) ([]models.ActivityLog, int64, error) {
	query := s.db.Model(&models.ActivityLog{})

	if filter.Action != nil {
		query = query.Where("action = ?", *filter.Action)
	}
	if filter.ResourceType != "" {
		query = query.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count activity logs: %w", err)
	}

	allowedSortFields := []string{"created_at", "action", "resource_type"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var logs []models.ActivityLog
	if err := query.Preload("User").Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch activity logs: %w", err)
	}

	return logs, total, nil
}

func snapshot(v interface{}) models.JSONB {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}

	var out models.JSONB
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}

	return out
}
