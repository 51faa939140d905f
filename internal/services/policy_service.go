// internal/services/policy_service.go
package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/policystack/agency-backend/internal/models"
	"github.com/policystack/agency-backend/internal/utils"
)

type PolicyService struct {
	db              *gorm.DB
	activityService *ActivityService
}

type CreatePolicyRequest struct {
	PolicyNumber  string   `json:"policy_number" validate:"required,policy_number"`
	CustomerName  string   `json:"customer_name" validate:"required,min=2,max=255"`
	CustomerPhone string   `json:"customer_phone" validate:"omitempty,phone"`
	CustomerEmail string   `json:"customer_email" validate:"omitempty,email"`
	PolicyType    string   `json:"policy_type" validate:"required"`
	ProductType   string   `json:"product_type,omitempty"`
	BusinessType  string   `json:"business_type,omitempty"`
	InsurerName   string   `json:"insurer_name,omitempty"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	ExpiryDate    *time.Time `json:"expiry_date,omitempty"`
	IssueDate     *time.Time `json:"issue_date,omitempty"`
	ODPremium     float64  `json:"od_premium" validate:"min=0"`
	TPPremium     float64  `json:"tp_premium" validate:"min=0"`
	NetPremium    float64  `json:"net_premium" validate:"min=0"`
	GSTAmount     float64  `json:"gst_amount" validate:"min=0"`
	TotalPremium  float64  `json:"total_premium" validate:"min=0"`
	SumInsured    float64  `json:"sum_insured" validate:"min=0"`
	VehicleNumber string   `json:"vehicle_number,omitempty"`
	VehicleMake   string   `json:"vehicle_make,omitempty"`
	VehicleModel  string   `json:"vehicle_model,omitempty"`
	VehicleYear   int      `json:"vehicle_year,omitempty"`
	DocumentURLs  []string `json:"document_urls,omitempty"`
	Notes         string   `json:"notes,omitempty"`
}

type UpdatePolicyRequest struct {
	CustomerName  string     `json:"customer_name,omitempty" validate:"omitempty,min=2,max=255"`
	CustomerPhone string     `json:"customer_phone,omitempty" validate:"omitempty,phone"`
	CustomerEmail string     `json:"customer_email,omitempty" validate:"omitempty,email"`
	PolicyType    string     `json:"policy_type,omitempty"`
	ProductType   string     `json:"product_type,omitempty"`
	BusinessType  string     `json:"business_type,omitempty"`
	InsurerName   string     `json:"insurer_name,omitempty"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	ExpiryDate    *time.Time `json:"expiry_date,omitempty"`
	ODPremium     *float64   `json:"od_premium,omitempty" validate:"omitempty,min=0"`
	TPPremium     *float64   `json:"tp_premium,omitempty" validate:"omitempty,min=0"`
	NetPremium    *float64   `json:"net_premium,omitempty" validate:"omitempty,min=0"`
	GSTAmount     *float64   `json:"gst_amount,omitempty" validate:"omitempty,min=0"`
	TotalPremium  *float64   `json:"total_premium,omitempty" validate:"omitempty,min=0"`
	SumInsured    *float64   `json:"sum_insured,omitempty" validate:"omitempty,min=0"`
	VehicleNumber string     `json:"vehicle_number,omitempty"`
	VehicleMake   string     `json:"vehicle_make,omitempty"`
	VehicleModel  string     `json:"vehicle_model,omitempty"`
	VehicleYear   *int       `json:"vehicle_year,omitempty"`
	DocumentURLs  []string   `json:"document_urls,omitempty"`
	Notes         string     `json:"notes,omitempty"`
}

type UpdateClaimRequest struct {
	ClaimStatus    models.ClaimStatus `json:"claim_status" validate:"required,oneof=none in_progress settled"`
	SettledAmount  float64            `json:"settled_amount,omitempty"`
	SettlementDate *time.Time         `json:"settlement_date,omitempty"`
}

type PolicySearchParams struct {
	utils.PaginationParams
	PolicyType   string              `json:"policy_type,omitempty"`
	ProductType  string              `json:"product_type,omitempty"`
	ClaimStatus  *models.ClaimStatus `json:"claim_status,omitempty"`
	ExpiringFrom *time.Time          `json:"expiring_from,omitempty"`
	ExpiringTo   *time.Time          `json:"expiring_to,omitempty"`
}

// RequestContext carries the actor and request metadata into audit records.
type RequestContext struct {
	ActorID   uuid.UUID
	IsAdmin   bool
	IPAddress string
	UserAgent string
}

func NewPolicyService(db *gorm.DB, activityService *ActivityService) *PolicyService {
	return &PolicyService{
		db:              db,
		activityService: activityService,
	}
}

func (s *PolicyService) CreatePolicy(rc RequestContext, req *CreatePolicyRequest) (*models.Policy, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	// Policy numbers are unique per owner among active policies
	var count int64
	if err := s.db.Model(&models.Policy{}).
		Where("user_id = ? AND policy_number = ?", rc.ActorID, req.PolicyNumber).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check policy number: %w", err)
	}
	if count > 0 {
		return nil, errors.New("policy with this number already exists")
	}

	policy := &models.Policy{
		UserID:        rc.ActorID,
		PolicyNumber:  req.PolicyNumber,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		PolicyType:    req.PolicyType,
		ProductType:   req.ProductType,
		BusinessType:  req.BusinessType,
		InsurerName:   req.InsurerName,
		StartDate:     req.StartDate,
		ExpiryDate:    req.ExpiryDate,
		IssueDate:     req.IssueDate,
		ODPremium:     req.ODPremium,
		TPPremium:     req.TPPremium,
		NetPremium:    req.NetPremium,
		GSTAmount:     req.GSTAmount,
		TotalPremium:  req.TotalPremium,
		SumInsured:    req.SumInsured,
		VehicleNumber: req.VehicleNumber,
		VehicleMake:   req.VehicleMake,
		VehicleModel:  req.VehicleModel,
		VehicleYear:   req.VehicleYear,
		ClaimStatus:   models.ClaimStatusNone,
		DocumentURLs:  req.DocumentURLs,
		Notes:         req.Notes,
	}

	if err := s.db.Create(policy).Error; err != nil {
		return nil, fmt.Errorf("failed to create policy: %w", err)
	}

	s.activityService.RecordAsync(&rc.ActorID, models.ActivityActionCreate, "policy", &policy.ID, nil, policy, rc.IPAddress, rc.UserAgent)

	return policy, nil
}

func (s *PolicyService) GetPolicy(rc RequestContext, id uuid.UUID) (*models.Policy, error) {
	var policy models.Policy
	if err := s.db.First(&policy, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("policy not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if policy.UserID != rc.ActorID && !rc.IsAdmin {
		return nil, errors.New("unauthorized to view this policy")
	}

	return &policy, nil
}

func (s *PolicyService) UpdatePolicy(rc RequestContext, id uuid.UUID, req *UpdatePolicyRequest) (*models.Policy, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var policy models.Policy
	if err := s.db.First(&policy, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("policy not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if policy.UserID != rc.ActorID && !rc.IsAdmin {
		return nil, errors.New("unauthorized to update this policy")
	}

	before := policy

	updates := make(map[string]interface{})
	if req.CustomerName != "" {
		updates["customer_name"] = req.CustomerName
	}
	if req.CustomerPhone != "" {
		updates["customer_phone"] = req.CustomerPhone
	}
	if req.CustomerEmail != "" {
		updates["customer_email"] = req.CustomerEmail
	}
	if req.PolicyType != "" {
		updates["policy_type"] = req.PolicyType
	}
	if req.ProductType != "" {
		updates["product_type"] = req.ProductType
	}
	if req.BusinessType != "" {
		updates["business_type"] = req.BusinessType
	}
	if req.InsurerName != "" {
		updates["insurer_name"] = req.InsurerName
	}
	if req.StartDate != nil {
		updates["start_date"] = req.StartDate
	}
	if req.ExpiryDate != nil {
		updates["expiry_date"] = req.ExpiryDate
	}
	if req.ODPremium != nil {
		updates["od_premium"] = *req.ODPremium
	}
	if req.TPPremium != nil {
		updates["tp_premium"] = *req.TPPremium
	}
	if req.NetPremium != nil {
		updates["net_premium"] = *req.NetPremium
	}
	if req.GSTAmount != nil {
		updates["gst_amount"] = *req.GSTAmount
	}
	if req.TotalPremium != nil {
		updates["total_premium"] = *req.TotalPremium
	}
	if req.SumInsured != nil {
		updates["sum_insured"] = *req.SumInsured
	}
	if req.VehicleNumber != "" {
		updates["vehicle_number"] = req.VehicleNumber
	}
	if req.VehicleMake != "" {
		updates["vehicle_make"] = req.VehicleMake
	}
	if req.VehicleModel != "" {
		updates["vehicle_model"] = req.VehicleModel
	}
	if req.VehicleYear != nil {
		updates["vehicle_year"] = *req.VehicleYear
	}
	if req.DocumentURLs != nil {
		updates["document_urls"] = req.DocumentURLs
	}
	if req.Notes != "" {
		updates["notes"] = req.Notes
	}

	if err := s.db.Model(&policy).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update policy: %w", err)
	}

	s.db.First(&policy, "id = ?", id)

	s.activityService.RecordAsync(&rc.ActorID, models.ActivityActionUpdate, "policy", &policy.ID, &before, &policy, rc.IPAddress, rc.UserAgent)

	return &policy, nil
}

// UpdateClaim validates the settlement before anything is persisted: a
// settled claim requires a positive amount, checked locally first.
func (s *PolicyService) UpdateClaim(rc RequestContext, id uuid.UUID, req *UpdateClaimRequest) (*models.Policy, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if req.ClaimStatus == models.ClaimStatusSettled && req.SettledAmount <= 0 {
		return nil, errors.New("settlement amount must be greater than zero")
	}

	var policy models.Policy
	if err := s.db.First(&policy, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("policy not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if policy.UserID != rc.ActorID && !rc.IsAdmin {
		return nil, errors.New("unauthorized to update this policy")
	}

	before := policy

	updates := map[string]interface{}{
		"claim_status": req.ClaimStatus,
	}
	if req.ClaimStatus == models.ClaimStatusSettled {
		updates["settled_amount"] = req.SettledAmount
		settlementDate := req.SettlementDate
		if settlementDate == nil {
			now := time.Now()
			settlementDate = &now
		}
		updates["settlement_date"] = settlementDate
	} else {
		updates["settled_amount"] = 0
		updates["settlement_date"] = nil
	}

	if err := s.db.Model(&policy).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update claim: %w", err)
	}

	s.db.First(&policy, "id = ?", id)

	s.activityService.RecordAsync(&rc.ActorID, models.ActivityActionUpdate, "policy", &policy.ID, &before, &policy, rc.IPAddress, rc.UserAgent)

	return &policy, nil
}

// DeletePolicy soft deletes: the record moves to the deleted-policies store
// and disappears from active listings. Permanent removal only happens
// through an approved deletion request.
func (s *PolicyService) DeletePolicy(rc RequestContext, id uuid.UUID) error {
	var policy models.Policy
	if err := s.db.First(&policy, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("policy not found")
		}
		return fmt.Errorf("database error: %w", err)
	}

	if policy.UserID != rc.ActorID && !rc.IsAdmin {
		return errors.New("unauthorized to delete this policy")
	}

	if err := s.db.Delete(&policy).Error; err != nil {
		return fmt.Errorf("failed to delete policy: %w", err)
	}

	s.activityService.RecordAsync(&rc.ActorID, models.ActivityActionDelete, "policy", &policy.ID, &policy, nil, rc.IPAddress, rc.UserAgent)

	return nil
}

// RestorePolicy moves a soft-deleted policy back to the active store.
func (s *PolicyService) RestorePolicy(rc RequestContext, id uuid.UUID) (*models.Policy, error) {
	var policy models.Policy
	if err := s.db.Unscoped().First(&policy, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("policy not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !policy.DeletedAt.Valid {
		return nil, errors.New("policy is not deleted")
	}

	if policy.UserID != rc.ActorID && !rc.IsAdmin {
		return nil, errors.New("unauthorized to restore this policy")
	}

	if err := s.db.Unscoped().Model(&policy).UpdateColumn("deleted_at", nil).Error; err != nil {
		return nil, fmt.Errorf("failed to restore policy: %w", err)
	}

	policy.DeletedAt = gorm.DeletedAt{}

	s.activityService.RecordAsync(&rc.ActorID, models.ActivityActionRestore, "policy", &policy.ID, nil, &policy, rc.IPAddress, rc.UserAgent)

	return &policy, nil
}

func (s *PolicyService) SearchPolicies(rc RequestContext, params PolicySearchParams) ([]models.Policy, int64, error) {
	query := s.db.Model(&models.Policy{})

	if !rc.IsAdmin {
		query = query.Where("user_id = ?", rc.ActorID)
	}

	if params.PolicyType != "" {
		query = query.Where("policy_type = ?", params.PolicyType)
	}
	if params.ProductType != "" {
		query = query.Where("product_type = ?", params.ProductType)
	}
	if params.ClaimStatus != nil {
		query = query.Where("claim_status = ?", *params.ClaimStatus)
	}
	if params.ExpiringFrom != nil {
		query = query.Where("expiry_date >= ?", *params.ExpiringFrom)
	}
	if params.ExpiringTo != nil {
		query = query.Where("expiry_date <= ?", *params.ExpiringTo)
	}

	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where(
			"LOWER(customer_name) LIKE ? OR LOWER(policy_number) LIKE ? OR LOWER(vehicle_number) LIKE ?",
			searchTerm, searchTerm, searchTerm,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count policies: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "policy_number", "customer_name", "expiry_date", "total_premium"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var policies []models.Policy
	if err := query.Find(&policies).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch policies: %w", err)
	}

	return policies, total, nil
}

// ListDeletedPolicies returns the deleted-policies store.
func (s *PolicyService) ListDeletedPolicies(rc RequestContext, params utils.PaginationParams) ([]models.Policy, int64, error) {
	query := s.db.Unscoped().Model(&models.Policy{}).Where("deleted_at IS NOT NULL")

	if !rc.IsAdmin {
		query = query.Where("user_id = ?", rc.ActorID)
	}

	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(customer_name) LIKE ? OR LOWER(policy_number) LIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count deleted policies: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "policy_number", "customer_name"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var policies []models.Policy
	if err := query.Find(&policies).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch deleted policies: %w", err)
	}

	return policies, total, nil
}

// ExpiringPolicies lists active policies whose expiry falls within the next
// n days, soonest first.
func (s *PolicyService) ExpiringPolicies(rc RequestContext, days int) ([]models.Policy, error) {
	if days <= 0 {
		days = 30
	}

	now := time.Now()
	until := now.AddDate(0, 0, days)

	query := s.db.Model(&models.Policy{}).
		Where("expiry_date >= ? AND expiry_date <= ?", now, until)

	if !rc.IsAdmin {
		query = query.Where("user_id = ?", rc.ActorID)
	}

	var policies []models.Policy
	if err := query.Order("expiry_date ASC").Find(&policies).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch expiring policies: %w", err)
	}

	return policies, nil
}
