// internal/models/activity.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// ActivityLog is an immutable audit record written for every mutation,
// capturing before/after snapshots of the resource.
type ActivityLog struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	UserID       *uuid.UUID     `json:"user_id" gorm:"type:uuid;index"`
	Action       ActivityAction `json:"action" gorm:"type:varchar(20);not null;index"`
	ResourceType string         `json:"resource_type" gorm:"size:50;not null;index"`
	ResourceID   *uuid.UUID     `json:"resource_id" gorm:"type:uuid;index"`
	OldValues    JSONB          `json:"old_values" gorm:"type:jsonb"`
	NewValues    JSONB          `json:"new_values" gorm:"type:jsonb"`
	IPAddress    string         `json:"ip_address" gorm:"size:45"`
	UserAgent    string         `json:"user_agent" gorm:"type:text"`

	// Relationships
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
