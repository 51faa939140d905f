// internal/models/lead.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Lead struct {
	BaseModel
	UserID uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`

	Name  string `json:"name" gorm:"size:255;not null"`
	Phone string `json:"phone" gorm:"size:20;index"`
	Email string `json:"email" gorm:"size:255"`
	City  string `json:"city" gorm:"size:100"`

	Status      LeadStatus   `json:"status" gorm:"type:varchar(20);default:'new';index"`
	Priority    LeadPriority `json:"priority" gorm:"type:varchar(10);default:'medium';index"`
	Source      string       `json:"source" gorm:"size:100"`
	ProductType string       `json:"product_type" gorm:"size:50"`
	Notes       string       `json:"notes" gorm:"type:text"`

	FollowUpDate     *time.Time `json:"follow_up_date" gorm:"type:date;index"`
	NextFollowUpDate *time.Time `json:"next_follow_up_date" gorm:"type:date"`

	// Set when the lead is converted into a policy.
	ConvertedPolicyID *uuid.UUID `json:"converted_policy_id" gorm:"type:uuid"`

	// Relationships
	Owner           User              `json:"owner,omitempty" gorm:"foreignKey:UserID"`
	FollowUpHistory []FollowUpHistory `json:"follow_up_history,omitempty" gorm:"foreignKey:LeadID"`
}

// FollowUpHistory rows are append-only: they are created and never updated
// or deleted.
type FollowUpHistory struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	LeadID           uuid.UUID      `json:"lead_id" gorm:"type:uuid;not null;index"`
	Status           FollowUpStatus `json:"status" gorm:"type:varchar(20);not null"`
	LeadStatus       LeadStatus     `json:"lead_status" gorm:"type:varchar(20);not null"`
	Notes            string         `json:"notes" gorm:"type:text;not null"`
	NextFollowUpDate *time.Time     `json:"next_follow_up_date" gorm:"type:date"`
	CreatedBy        uuid.UUID      `json:"created_by" gorm:"type:uuid;not null"`
}
