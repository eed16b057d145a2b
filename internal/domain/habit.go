package domain

import (
	"time"

	"github.com/google/uuid"
)

type Habit struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Title       string    `json:"title" gorm:"not null"`
	Description string    `json:"description"`
	CreatorID   uuid.UUID `json:"creatorId" gorm:"type:uuid;not null;index"`
	Streak      int       `json:"streak" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"createdAt"`

	// Relations
	Creator *UserSummary `json:"creator,omitempty" gorm:"foreignKey:CreatorID"`

	// Derived from habit_members on read
	Members []uuid.UUID `json:"members" gorm:"-"`
}

// HabitMember is the membership relation between a user and a habit. It backs
// both Habit.Members and User.JoinedHabits.
type HabitMember struct {
	HabitID  uuid.UUID `json:"habitId" gorm:"type:uuid;primaryKey"`
	UserID   uuid.UUID `json:"userId" gorm:"type:uuid;primaryKey;index"`
	JoinedAt time.Time `json:"joinedAt" gorm:"not null"`
}

// TableName returns the table name for GORM
func (HabitMember) TableName() string {
	return "habit_members"
}
