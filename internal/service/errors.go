package service

import (
	"errors"

	"github.com/dom/habit-proofs/internal/domain"
	"github.com/google/uuid"
)

// storeError passes lookup misses through and marks everything else as an
// upstream failure.
func storeError(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrHabitNotFound),
		errors.Is(err, domain.ErrProofNotFound):
		return err
	}
	return domain.Upstream(op, err)
}

func nonNil(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}
