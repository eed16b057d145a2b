package postgres

import (
	"context"
	"errors"

	"github.com/dom/habit-proofs/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type proofRepository struct {
	db *gorm.DB
}

func NewProofRepository(db *gorm.DB) *proofRepository {
	return &proofRepository{db: db}
}

func (r *proofRepository) Create(ctx context.Context, proof *domain.Proof) error {
	return r.db.WithContext(ctx).Omit("User", "Habit").Create(proof).Error
}

func (r *proofRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Proof, error) {
	var proof domain.Proof
	err := r.db.WithContext(ctx).First(&proof, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProofNotFound
		}
		return nil, err
	}
	return &proof, nil
}

func (r *proofRepository) ListByHabit(ctx context.Context, habitID uuid.UUID) ([]*domain.Proof, error) {
	var proofs []*domain.Proof
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("habit_id = ?", habitID).
		Order("created_at DESC").
		Find(&proofs).Error
	if err != nil {
		return nil, err
	}
	return proofs, nil
}

func (r *proofRepository) UpdateVotes(ctx context.Context, id uuid.UUID, mutate func(*domain.Proof) bool) (*domain.Proof, error) {
	var proof domain.Proof
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&proof, "id = ?", id).Error
		if err != nil {
			return err
		}

		if !mutate(&proof) {
			return nil
		}

		return tx.Model(&proof).
			Select("verified_by", "rejected_by").
			Updates(&proof).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProofNotFound
		}
		return nil, err
	}
	return &proof, nil
}
