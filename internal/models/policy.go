// internal/models/policy.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Policy is soft deleted through BaseModel.DeletedAt: the default gorm scope
// is the "active" store, Unscoped()+deleted_at IS NOT NULL is the deleted
// store. A policy is therefore never in both at once.
type Policy struct {
	BaseModel
	UserID       uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	PolicyNumber string    `json:"policy_number" gorm:"size:100;not null;index:idx_policies_number_owner,unique,where:deleted_at IS NULL"`

	// Customer
	CustomerName  string `json:"customer_name" gorm:"size:255;not null"`
	CustomerPhone string `json:"customer_phone" gorm:"size:20"`
	CustomerEmail string `json:"customer_email" gorm:"size:255"`

	// Classification
	PolicyType   string `json:"policy_type" gorm:"size:50;index"`
	ProductType  string `json:"product_type" gorm:"size:50;index"`
	BusinessType string `json:"business_type" gorm:"size:50"`
	InsurerName  string `json:"insurer_name" gorm:"size:255"`

	// Dates
	StartDate  *time.Time `json:"start_date" gorm:"type:date"`
	ExpiryDate *time.Time `json:"expiry_date" gorm:"type:date;index"`
	IssueDate  *time.Time `json:"issue_date" gorm:"type:date"`

	// Premium components
	ODPremium    float64 `json:"od_premium" gorm:"type:decimal(12,2);default:0"`
	TPPremium    float64 `json:"tp_premium" gorm:"type:decimal(12,2);default:0"`
	NetPremium   float64 `json:"net_premium" gorm:"type:decimal(12,2);default:0"`
	GSTAmount    float64 `json:"gst_amount" gorm:"type:decimal(12,2);default:0"`
	TotalPremium float64 `json:"total_premium" gorm:"type:decimal(12,2);default:0"`
	SumInsured   float64 `json:"sum_insured" gorm:"type:decimal(14,2);default:0"`

	// Vehicle (motor policies only)
	VehicleNumber string `json:"vehicle_number,omitempty" gorm:"size:20"`
	VehicleMake   string `json:"vehicle_make,omitempty" gorm:"size:100"`
	VehicleModel  string `json:"vehicle_model,omitempty" gorm:"size:100"`
	VehicleYear   int    `json:"vehicle_year,omitempty"`

	// Claim sub-state
	ClaimStatus    ClaimStatus `json:"claim_status" gorm:"type:varchar(20);default:'none';index"`
	SettledAmount  float64     `json:"settled_amount" gorm:"type:decimal(12,2);default:0"`
	SettlementDate *time.Time  `json:"settlement_date" gorm:"type:date"`

	DocumentURLs pq.StringArray `json:"document_urls" gorm:"type:text[]"`
	Notes        string         `json:"notes" gorm:"type:text"`

	// Relationships
	Owner            User                   `json:"owner,omitempty" gorm:"foreignKey:UserID"`
	DeletionRequests []PolicyDeletionRequest `json:"deletion_requests,omitempty" gorm:"foreignKey:PolicyID"`
}

// PolicyDeletionRequest links a policy to a requester and records the
// reviewer's decision. It transitions exactly once: pending -> approved or
// pending -> rejected.
type PolicyDeletionRequest struct {
	BaseModel
	PolicyID       uuid.UUID             `json:"policy_id" gorm:"type:uuid;not null;index"`
	PolicyNumber   string                `json:"policy_number" gorm:"size:100;not null"`
	RequestedBy    uuid.UUID             `json:"requested_by" gorm:"type:uuid;not null;index"`
	Reason         string                `json:"reason" gorm:"type:text;not null"`
	Status         DeletionRequestStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	ReviewedBy     *uuid.UUID            `json:"reviewed_by" gorm:"type:uuid"`
	ReviewComments string                `json:"review_comments" gorm:"type:text"`
	ReviewedAt     *time.Time            `json:"reviewed_at"`

	// Relationships
	Policy    Policy `json:"policy,omitempty" gorm:"foreignKey:PolicyID"`
	Requester User   `json:"requester,omitempty" gorm:"foreignKey:RequestedBy"`
	Reviewer  *User  `json:"reviewer,omitempty" gorm:"foreignKey:ReviewedBy"`
}
