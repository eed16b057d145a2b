package service

import (
	"github.com/dom/habit-proofs/internal/config"
	"github.com/dom/habit-proofs/internal/repository"
	"github.com/dom/habit-proofs/internal/storage"
)

type Services struct {
	Auth  *AuthService
	Habit *HabitService
	Proof *ProofService
}

func NewServices(repos *repository.Repositories, cfg *config.Config, provider IdentityProvider, blobs storage.BlobStore, notifier Notifier) *Services {
	return &Services{
		Auth:  NewAuthService(repos.User, repos.Membership, provider, cfg),
		Habit: NewHabitService(repos.Habit, repos.Membership),
		Proof: NewProofService(repos.Habit, repos.Membership, repos.Proof, blobs, notifier),
	}
}
