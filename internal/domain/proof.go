package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
	MediaKindFile  MediaKind = "file"
)

// ClassifyMedia derives the media kind from an upload's content type.
func ClassifyMedia(contentType string) MediaKind {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return MediaKindImage
	case strings.HasPrefix(contentType, "video/"):
		return MediaKindVideo
	default:
		return MediaKindFile
	}
}

type VoteAction string

const (
	VoteActionVerify VoteAction = "verify"
	VoteActionReject VoteAction = "reject"
)

// ParseVoteAction maps a client-supplied action to a vote. Anything other
// than "verify" counts as a rejection.
func ParseVoteAction(s string) VoteAction {
	if VoteAction(s) == VoteActionVerify {
		return VoteActionVerify
	}
	return VoteActionReject
}

type Proof struct {
	ID         uuid.UUID                     `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	HabitID    uuid.UUID                     `json:"habitId" gorm:"type:uuid;not null;index"`
	UserID     uuid.UUID                     `json:"userId" gorm:"type:uuid;not null"`
	MediaURL   string                        `json:"mediaUrl" gorm:"not null"`
	MediaType  MediaKind                     `json:"mediaType" gorm:"type:varchar(10);not null"`
	VerifiedBy datatypes.JSONSlice[uuid.UUID] `json:"verifiedBy" gorm:"type:jsonb;not null;default:'[]'"`
	RejectedBy datatypes.JSONSlice[uuid.UUID] `json:"rejectedBy" gorm:"type:jsonb;not null;default:'[]'"`
	CreatedAt  time.Time                     `json:"createdAt"`

	// Relations
	User  *UserSummary `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Habit *Habit       `json:"-" gorm:"foreignKey:HabitID"`
}

// AddVote appends userID to the vote set selected by action, the rejected set
// for anything but verify. It reports false
// when the user is already in that set. The opposite set is not consulted: a
// user may both verify and reject the same proof.
func (p *Proof) AddVote(action VoteAction, userID uuid.UUID) bool {
	set := &p.RejectedBy
	if action == VoteActionVerify {
		set = &p.VerifiedBy
	}
	for _, id := range *set {
		if id == userID {
			return false
		}
	}
	*set = append(*set, userID)
	return true
}
