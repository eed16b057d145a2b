package service

import (
	"context"
	"strings"
	"time"

	"github.com/dom/habit-proofs/internal/domain"
	"github.com/dom/habit-proofs/internal/repository"
	"github.com/google/uuid"
)

type HabitService struct {
	habitRepo      repository.HabitRepository
	membershipRepo repository.MembershipRepository
}

func NewHabitService(habitRepo repository.HabitRepository, membershipRepo repository.MembershipRepository) *HabitService {
	return &HabitService{
		habitRepo:      habitRepo,
		membershipRepo: membershipRepo,
	}
}

type CreateHabitInput struct {
	CreatorID   uuid.UUID
	Title       string
	Description string
}

func (s *HabitService) CreateHabit(ctx context.Context, input CreateHabitInput) (*domain.Habit, error) {
	if input.CreatorID == uuid.Nil {
		return nil, domain.ErrUnauthenticated
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, domain.ErrEmptyTitle
	}

	now := time.Now()
	habit := &domain.Habit{
		ID:          uuid.New(),
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		CreatorID:   input.CreatorID,
		CreatedAt:   now,
	}
	member := &domain.HabitMember{
		HabitID:  habit.ID,
		UserID:   input.CreatorID,
		JoinedAt: now,
	}

	if err := s.habitRepo.CreateWithMember(ctx, habit, member); err != nil {
		return nil, domain.Upstream("create habit", err)
	}

	habit.Members = []uuid.UUID{input.CreatorID}
	return habit, nil
}

// JoinHabit adds the user to the habit. Joining again is a no-op.
func (s *HabitService) JoinHabit(ctx context.Context, userID, habitID uuid.UUID) (*domain.Habit, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrUnauthenticated
	}

	habit, err := s.habitRepo.GetByID(ctx, habitID)
	if err != nil {
		return nil, storeError("get habit", err)
	}

	err = s.membershipRepo.Add(ctx, &domain.HabitMember{
		HabitID:  habit.ID,
		UserID:   userID,
		JoinedAt: time.Now(),
	})
	if err != nil {
		return nil, domain.Upstream("add member", err)
	}

	if err := s.attachMembers(ctx, habit); err != nil {
		return nil, err
	}
	return habit, nil
}

func (s *HabitService) GetHabit(ctx context.Context, habitID uuid.UUID) (*domain.Habit, error) {
	habit, err := s.habitRepo.GetByID(ctx, habitID)
	if err != nil {
		return nil, storeError("get habit", err)
	}

	if err := s.attachMembers(ctx, habit); err != nil {
		return nil, err
	}
	return habit, nil
}

// ListHabits returns every habit with its creator and members.
func (s *HabitService) ListHabits(ctx context.Context) ([]*domain.Habit, error) {
	habits, err := s.habitRepo.List(ctx)
	if err != nil {
		return nil, domain.Upstream("list habits", err)
	}

	ids := make([]uuid.UUID, len(habits))
	for i, h := range habits {
		ids[i] = h.ID
	}

	members, err := s.membershipRepo.MemberIDsForHabits(ctx, ids)
	if err != nil {
		return nil, domain.Upstream("list members", err)
	}

	for _, h := range habits {
		h.Members = nonNil(members[h.ID])
	}
	if habits == nil {
		habits = []*domain.Habit{}
	}
	return habits, nil
}

func (s *HabitService) attachMembers(ctx context.Context, habit *domain.Habit) error {
	members, err := s.membershipRepo.MemberIDs(ctx, habit.ID)
	if err != nil {
		return domain.Upstream("list members", err)
	}
	habit.Members = nonNil(members)
	return nil
}
