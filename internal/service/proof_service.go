package service

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/dom/habit-proofs/internal/domain"
	"github.com/dom/habit-proofs/internal/repository"
	"github.com/dom/habit-proofs/internal/storage"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Notifier pushes realtime events to connected users.
type Notifier interface {
	NotifyHabitMembers(habitID uuid.UUID, memberIDs []uuid.UUID, event string, payload any)
	NotifyUser(userID uuid.UUID, event string, payload any)
}

type ProofService struct {
	habitRepo      repository.HabitRepository
	membershipRepo repository.MembershipRepository
	proofRepo      repository.ProofRepository
	blobs          storage.BlobStore
	notifier       Notifier
	now            func() time.Time
}

func NewProofService(
	habitRepo repository.HabitRepository,
	membershipRepo repository.MembershipRepository,
	proofRepo repository.ProofRepository,
	blobs storage.BlobStore,
	notifier Notifier,
) *ProofService {
	return &ProofService{
		habitRepo:      habitRepo,
		membershipRepo: membershipRepo,
		proofRepo:      proofRepo,
		blobs:          blobs,
		notifier:       notifier,
		now:            time.Now,
	}
}

// MediaUpload is an uploaded file as received from the client.
type MediaUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type SubmitProofInput struct {
	UserID  uuid.UUID
	HabitID uuid.UUID
	Media   *MediaUpload
}

func (s *ProofService) SubmitProof(ctx context.Context, input SubmitProofInput) (*domain.Proof, error) {
	if input.UserID == uuid.Nil {
		return nil, domain.ErrUnauthenticated
	}

	habit, err := s.habitRepo.GetByID(ctx, input.HabitID)
	if err != nil {
		return nil, storeError("get habit", err)
	}

	if input.Media == nil || input.Media.Body == nil {
		return nil, domain.ErrMissingMedia
	}

	now := s.now()
	key := storage.ProofObjectKey(now, input.Media.Filename)
	mediaURL, err := s.blobs.Put(ctx, key, input.Media.ContentType, input.Media.Body, input.Media.Size)
	if err != nil {
		return nil, domain.Upstream("upload media", err)
	}

	proof := &domain.Proof{
		ID:         uuid.New(),
		HabitID:    habit.ID,
		UserID:     input.UserID,
		MediaURL:   mediaURL,
		MediaType:  domain.ClassifyMedia(input.Media.ContentType),
		VerifiedBy: datatypes.JSONSlice[uuid.UUID]{},
		RejectedBy: datatypes.JSONSlice[uuid.UUID]{},
		CreatedAt:  now,
	}

	if err := s.proofRepo.Create(ctx, proof); err != nil {
		return nil, domain.Upstream("create proof", err)
	}

	s.dispatch("new-proof", func() {
		members, err := s.membershipRepo.MemberIDs(ctx, habit.ID)
		if err != nil {
			log.Printf("ERROR [ProofService.SubmitProof] failed to load members of habit %s: %v", habit.ID, err)
			return
		}
		s.notifier.NotifyHabitMembers(habit.ID, members, domain.EventNewProof, domain.NewProofEvent{
			HabitID: habit.ID,
			Proof:   proof,
		})
	})

	return proof, nil
}

func (s *ProofService) ListProofs(ctx context.Context, habitID uuid.UUID) ([]*domain.Proof, error) {
	proofs, err := s.proofRepo.ListByHabit(ctx, habitID)
	if err != nil {
		return nil, domain.Upstream("list proofs", err)
	}
	if proofs == nil {
		proofs = []*domain.Proof{}
	}
	return proofs, nil
}

// CastVote records the user's decision on a proof and tells the submitter.
// Any action other than verify is a rejection. Repeating a decision leaves
// the vote sets unchanged.
func (s *ProofService) CastVote(ctx context.Context, userID, proofID uuid.UUID, action string) (*domain.Proof, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrUnauthenticated
	}
	vote := domain.ParseVoteAction(action)

	proof, err := s.proofRepo.UpdateVotes(ctx, proofID, func(p *domain.Proof) bool {
		return p.AddVote(vote, userID)
	})
	if err != nil {
		return nil, storeError("update votes", err)
	}

	s.dispatch("proof-verified", func() {
		s.notifier.NotifyUser(proof.UserID, domain.EventProofVerified, domain.ProofVerifiedEvent{
			ProofID: proof.ID,
			Action:  vote,
			By:      userID,
		})
	})

	return proof, nil
}

// dispatch runs fn so that a notification failure never reaches the caller.
func (s *ProofService) dispatch(event string, fn func()) {
	if s.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR [ProofService.dispatch] %s notification panicked: %v", event, r)
		}
	}()
	fn()
}
