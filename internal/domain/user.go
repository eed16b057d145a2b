package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	GoogleID    string    `json:"googleId" gorm:"uniqueIndex;not null"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
	Avatar      string    `json:"avatar"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Derived from habit_members on read
	JoinedHabits []uuid.UUID `json:"joinedHabits" gorm:"-"`
}

// UserSummary is the display projection of a user attached to habits and
// proofs when they are listed.
type UserSummary struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	DisplayName string    `json:"displayName"`
	Avatar      string    `json:"avatar"`
}

// TableName returns the table name for GORM
func (UserSummary) TableName() string {
	return "users"
}

// Profile is what the identity provider reports about a signed-in user.
type Profile struct {
	ExternalID  string
	DisplayName string
	Email       string
	Avatar      string
}
