// internal/models/user.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Name                 string             `json:"name" gorm:"size:100;not null"`
	Email                string             `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Phone                string             `json:"phone" gorm:"size:20"`
	PasswordHash         string             `json:"-" gorm:"size:255;not null"`
	Role                 UserRole           `json:"role" gorm:"type:varchar(20);default:'agent'"`
	SubscriptionStatus   SubscriptionStatus `json:"subscription_status" gorm:"type:varchar(20);default:'trial';index"`
	TrialEndsAt          *time.Time         `json:"trial_ends_at"`
	SubscriptionEndsAt   *time.Time         `json:"subscription_ends_at"`
	StripeCustomerID     string             `json:"-" gorm:"size:64"`
	StripeSubscriptionID string             `json:"-" gorm:"size:64"`
	LockedAt             *time.Time         `json:"locked_at"`
	ProfileData          JSONB              `json:"profile_data" gorm:"type:jsonb"`
	LastLoginAt          *time.Time         `json:"last_login_at"`

	// Relationships
	Policies    []Policy     `json:"policies,omitempty" gorm:"foreignKey:UserID"`
	Leads       []Lead       `json:"leads,omitempty" gorm:"foreignKey:UserID"`
	TeamMembers []TeamMember `json:"team_members,omitempty" gorm:"foreignKey:OwnerID"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

// CanWrite reports whether the account may perform mutating operations.
// Expired and locked accounts keep read access so data can still be exported.
func (u *User) CanWrite() bool {
	return u.SubscriptionStatus == SubscriptionStatusTrial ||
		u.SubscriptionStatus == SubscriptionStatusActive
}

// TeamMember is a sub-account owned by an agency user. Access is limited to
// the pages listed in AllowedPages.
type TeamMember struct {
	BaseModel
	OwnerID      uuid.UUID      `json:"owner_id" gorm:"type:uuid;not null;index"`
	Name         string         `json:"name" gorm:"size:100;not null"`
	Email        string         `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string         `json:"-" gorm:"size:255;not null"`
	AllowedPages pq.StringArray `json:"allowed_pages" gorm:"type:text[]"`
	IsActive     bool           `json:"is_active" gorm:"default:true"`
	LastLoginAt  *time.Time     `json:"last_login_at"`

	// Relationships
	Owner User `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
}

func (m *TeamMember) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	m.PasswordHash = string(hashedPassword)
	return nil
}

func (m *TeamMember) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(password))
}

// HasPageAccess checks the member's page ACL.
func (m *TeamMember) HasPageAccess(page string) bool {
	for _, p := range m.AllowedPages {
		if p == page {
			return true
		}
	}
	return false
}
