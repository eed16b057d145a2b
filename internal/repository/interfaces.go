package repository

import (
	"context"

	"github.com/dom/habit-proofs/internal/domain"
	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

type HabitRepository interface {
	// CreateWithMember stores the habit and the creator's membership together.
	CreateWithMember(ctx context.Context, habit *domain.Habit, member *domain.HabitMember) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Habit, error)
	List(ctx context.Context) ([]*domain.Habit, error)
}

type MembershipRepository interface {
	// Add inserts the membership; an existing pair is left untouched.
	Add(ctx context.Context, member *domain.HabitMember) error
	MemberIDs(ctx context.Context, habitID uuid.UUID) ([]uuid.UUID, error)
	MemberIDsForHabits(ctx context.Context, habitIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error)
	HabitIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type ProofRepository interface {
	Create(ctx context.Context, proof *domain.Proof) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Proof, error)
	ListByHabit(ctx context.Context, habitID uuid.UUID) ([]*domain.Proof, error)
	// UpdateVotes loads the proof under a row lock, applies mutate, and saves
	// the vote sets when mutate reports a change.
	UpdateVotes(ctx context.Context, id uuid.UUID, mutate func(*domain.Proof) bool) (*domain.Proof, error)
}

type Repositories struct {
	User       UserRepository
	Habit      HabitRepository
	Membership MembershipRepository
	Proof      ProofRepository
}
