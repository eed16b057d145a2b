package postgres

import (
	"context"
	"errors"

	"github.com/dom/habit-proofs/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type habitRepository struct {
	db *gorm.DB
}

func NewHabitRepository(db *gorm.DB) *habitRepository {
	return &habitRepository{db: db}
}

func (r *habitRepository) CreateWithMember(ctx context.Context, habit *domain.Habit, member *domain.HabitMember) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Creator").Create(habit).Error; err != nil {
			return err
		}
		member.HabitID = habit.ID
		return tx.Create(member).Error
	})
}

func (r *habitRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Habit, error) {
	var habit domain.Habit
	err := r.db.WithContext(ctx).
		Preload("Creator").
		First(&habit, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrHabitNotFound
		}
		return nil, err
	}
	return &habit, nil
}

func (r *habitRepository) List(ctx context.Context) ([]*domain.Habit, error) {
	var habits []*domain.Habit
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Order("created_at DESC").
		Find(&habits).Error
	if err != nil {
		return nil, err
	}
	return habits, nil
}
