// internal/services/deletion_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/policystack/agency-backend/internal/database"
	"github.com/policystack/agency-backend/internal/models"
	"github.com/policystack/agency-backend/internal/utils"
)

// DeletionService runs the permanent-deletion approval workflow:
// active -> deletion requested -> approved (policy permanently erased)
//                               | rejected (policy stays active, untouched).
// A request transitions exactly once; the pending -> terminal update is
// guarded so a concurrent second decision fails instead of overwriting.
type DeletionService struct {
	db              *gorm.DB
	activityService *ActivityService
}

var (
	ErrPasswordMismatch     = errors.New("password confirmation does not match")
	ErrRequestAlreadyClosed = errors.New("deletion request has already been decided")
)

type RequestDeletionRequest struct {
	PolicyID uuid.UUID `json:"policy_id" validate:"required"`
	Reason   string    `json:"reason" validate:"required,min=5"`
	Password string    `json:"password" validate:"required"`
}

type ReviewDeletionRequest struct {
	Comments string `json:"comments,omitempty"`
}

func NewDeletionService(db *gorm.DB, activityService *ActivityService) *DeletionService {
	return &DeletionService{
		db:              db,
		activityService: activityService,
	}
}

// RequestDeletion verifies the requester's password before touching
// anything else; a mismatch is a local validation error and no request is
// created. The policy itself is not removed.
func (s *DeletionService) RequestDeletion(rc RequestContext, req *RequestDeletionRequest) (*models.PolicyDeletionRequest, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var requester models.User
	if err := s.db.First(&requester, "id = ?", rc.ActorID).Error; err != nil {
		return nil, fmt.Errorf("requester not found: %w", err)
	}

	if err := requester.CheckPassword(req.Password); err != nil {
		return nil, ErrPasswordMismatch
	}

	var policy models.Policy
	if err := s.db.First(&policy, "id = ?", req.PolicyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("policy not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if policy.UserID != rc.ActorID && !rc.IsAdmin {
		return nil, errors.New("unauthorized to request deletion of this policy")
	}

	// One open request per policy
	var pendingCount int64
	if err := s.db.Model(&models.PolicyDeletionRequest{}).
		Where("policy_id = ? AND status = ?", req.PolicyID, models.DeletionRequestStatusPending).
		Count(&pendingCount).Error; err != nil {
		return nil, fmt.Errorf("failed to check pending requests: %w", err)
	}
	if pendingCount > 0 {
		return nil, errors.New("a deletion request for this policy is already pending")
	}

	request := &models.PolicyDeletionRequest{
		PolicyID:     policy.ID,
		PolicyNumber: policy.PolicyNumber,
		RequestedBy:  rc.ActorID,
		Reason:       req.Reason,
		Status:       models.DeletionRequestStatusPending,
	}

	if err := s.db.Create(request).Error; err != nil {
		return nil, fmt.Errorf("failed to create deletion request: %w", err)
	}

	return request, nil
}

// Approve moves the request to approved and permanently erases the policy.
// Both happen in one transaction; the guarded status update makes the
// transition single-shot.
func (s *DeletionService) Approve(rc RequestContext, requestID uuid.UUID, req *ReviewDeletionRequest) (*models.PolicyDeletionRequest, error) {
	if !rc.IsAdmin {
		return nil, errors.New("only admins can approve deletion requests")
	}

	var request models.PolicyDeletionRequest
	if err := s.db.First(&request, "id = ?", requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("deletion request not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	var removed models.Policy

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		now := time.Now()

		result := tx.Model(&models.PolicyDeletionRequest{}).
			Where("id = ? AND status = ?", requestID, models.DeletionRequestStatusPending).
			Updates(map[string]interface{}{
				"status":          models.DeletionRequestStatusApproved,
				"reviewed_by":     rc.ActorID,
				"review_comments": req.Comments,
				"reviewed_at":     now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update deletion request: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrRequestAlreadyClosed
		}

		// The policy may sit in either store; pull it unscoped and erase it
		// from both.
		if err := tx.Unscoped().First(&removed, "id = ?", request.PolicyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Already gone; the approval still stands.
				return nil
			}
			return fmt.Errorf("failed to load policy: %w", err)
		}

		if err := tx.Unscoped().Delete(&models.Policy{}, "id = ?", request.PolicyID).Error; err != nil {
			return fmt.Errorf("failed to permanently delete policy: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if removed.ID != uuid.Nil {
		s.activityService.RecordAsync(&rc.ActorID, models.ActivityActionPermanentDelete, "policy", &removed.ID, &removed, nil, rc.IPAddress, rc.UserAgent)
	}

	if err := s.db.First(&request, "id = ?", requestID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload deletion request: %w", err)
	}
	return &request, nil
}

// Reject closes the request; the policy is untouched and remains in the
// active listing exactly as it was before the request.
func (s *DeletionService) Reject(rc RequestContext, requestID uuid.UUID, req *ReviewDeletionRequest) (*models.PolicyDeletionRequest, error) {
	if !rc.IsAdmin {
		return nil, errors.New("only admins can reject deletion requests")
	}

	var request models.PolicyDeletionRequest
	if err := s.db.First(&request, "id = ?", requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("deletion request not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	now := time.Now()

	result := s.db.Model(&models.PolicyDeletionRequest{}).
		Where("id = ? AND status = ?", requestID, models.DeletionRequestStatusPending).
		Updates(map[string]interface{}{
			"status":          models.DeletionRequestStatusRejected,
			"reviewed_by":     rc.ActorID,
			"review_comments": req.Comments,
			"reviewed_at":     now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update deletion request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrRequestAlreadyClosed
	}

	if err := s.db.First(&request, "id = ?", requestID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload deletion request: %w", err)
	}
	return &request, nil
}

func (s *DeletionService) ListRequests(rc RequestContext, status *models.DeletionRequestStatus, params utils.PaginationParams) ([]models.PolicyDeletionRequest, int64, error) {
	query := s.db.Model(&models.PolicyDeletionRequest{})

	if !rc.IsAdmin {
		query = query.Where("requested_by = ?", rc.ActorID)
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count deletion requests: %w", err)
	}

	allowedSortFields := []string{"created_at", "status", "reviewed_at"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var requests []models.PolicyDeletionRequest
	if err := query.Preload("Requester").Preload("Reviewer").Find(&requests).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch deletion requests: %w", err)
	}

	return requests, total, nil
}
