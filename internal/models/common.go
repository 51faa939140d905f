// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type UserRole string

const (
	UserRoleAgent UserRole = "agent"
	UserRoleAdmin UserRole = "admin"
)

type SubscriptionStatus string

const (
	SubscriptionStatusTrial   SubscriptionStatus = "trial"
	SubscriptionStatusActive  SubscriptionStatus = "active"
	SubscriptionStatusExpired SubscriptionStatus = "expired"
	SubscriptionStatusLocked  SubscriptionStatus = "locked"
)

type ClaimStatus string

const (
	ClaimStatusNone       ClaimStatus = "none"
	ClaimStatusInProgress ClaimStatus = "in_progress"
	ClaimStatusSettled    ClaimStatus = "settled"
)

type LeadStatus string

const (
	LeadStatusNew         LeadStatus = "new"
	LeadStatusContacted   LeadStatus = "contacted"
	LeadStatusInterested  LeadStatus = "interested"
	LeadStatusFollowUp    LeadStatus = "follow_up"
	LeadStatusQuoted      LeadStatus = "quoted"
	LeadStatusNegotiation LeadStatus = "negotiation"
	LeadStatusWon         LeadStatus = "won"
	LeadStatusLost        LeadStatus = "lost"
	LeadStatusCanceled    LeadStatus = "canceled"
)

// IsTerminal reports whether a lead no longer needs follow-up attention.
func (s LeadStatus) IsTerminal() bool {
	return s == LeadStatusWon || s == LeadStatusLost || s == LeadStatusCanceled
}

type LeadPriority string

const (
	LeadPriorityLow    LeadPriority = "low"
	LeadPriorityMedium LeadPriority = "medium"
	LeadPriorityHigh   LeadPriority = "high"
)

type FollowUpStatus string

const (
	FollowUpStatusCompleted   FollowUpStatus = "completed"
	FollowUpStatusMissed      FollowUpStatus = "missed"
	FollowUpStatusRescheduled FollowUpStatus = "rescheduled"
)

type DeletionRequestStatus string

const (
	DeletionRequestStatusPending  DeletionRequestStatus = "pending"
	DeletionRequestStatusApproved DeletionRequestStatus = "approved"
	DeletionRequestStatusRejected DeletionRequestStatus = "rejected"
)

type ActivityAction string

const (
	ActivityActionCreate          ActivityAction = "CREATE"
	ActivityActionUpdate          ActivityAction = "UPDATE"
	ActivityActionDelete          ActivityAction = "DELETE"
	ActivityActionRestore         ActivityAction = "RESTORE"
	ActivityActionPermanentDelete ActivityAction = "PERMANENT_DELETE"
)

type ExtractionFileStatus string

const (
	ExtractionFileStatusQueued    ExtractionFileStatus = "queued"
	ExtractionFileStatusExtracted ExtractionFileStatus = "extracted"
	ExtractionFileStatusSaved     ExtractionFileStatus = "saved"
	ExtractionFileStatusFailed    ExtractionFileStatus = "failed"
)
