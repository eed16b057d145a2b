package postgres

import (
	"context"

	"github.com/dom/habit-proofs/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type membershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) *membershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) Add(ctx context.Context, member *domain.HabitMember) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "habit_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(member).Error
}

func (r *membershipRepository) MemberIDs(ctx context.Context, habitID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&domain.HabitMember{}).
		Where("habit_id = ?", habitID).
		Order("joined_at").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *membershipRepository) MemberIDsForHabits(ctx context.Context, habitIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	members := make(map[uuid.UUID][]uuid.UUID, len(habitIDs))
	if len(habitIDs) == 0 {
		return members, nil
	}

	var rows []domain.HabitMember
	err := r.db.WithContext(ctx).
		Where("habit_id IN ?", habitIDs).
		Order("joined_at").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		members[row.HabitID] = append(members[row.HabitID], row.UserID)
	}
	return members, nil
}

func (r *membershipRepository) HabitIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&domain.HabitMember{}).
		Where("user_id = ?", userID).
		Order("joined_at").
		Pluck("habit_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
