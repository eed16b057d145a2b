package service_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dom/habit-proofs/internal/domain"
	"github.com/dom/habit-proofs/internal/repository"
	"github.com/dom/habit-proofs/internal/service"
	"github.com/dom/habit-proofs/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type proofFixture struct {
	repos    *repository.Repositories
	store    *testutil.MemoryStore
	blobs    *testutil.FakeBlobStore
	notifier *testutil.RecordingNotifier
	habits   *service.HabitService
	proofs   *service.ProofService
	creator  uuid.UUID
	member   uuid.UUID
	habit    *domain.Habit
}

func newProofFixture(t *testing.T) *proofFixture {
	t.Helper()

	repos, store := testutil.NewMemoryRepositories()
	f := &proofFixture{
		repos:    repos,
		store:    store,
		blobs:    testutil.NewFakeBlobStore(),
		notifier: &testutil.RecordingNotifier{},
		creator:  uuid.New(),
		member:   uuid.New(),
	}
	f.habits = service.NewHabitService(repos.Habit, repos.Membership)
	f.proofs = service.NewProofService(repos.Habit, repos.Membership, repos.Proof, f.blobs, f.notifier)

	ctx := context.Background()
	habit, err := f.habits.CreateHabit(ctx, service.CreateHabitInput{CreatorID: f.creator, Title: "Run"})
	require.NoError(t, err)
	_, err = f.habits.JoinHabit(ctx, f.member, habit.ID)
	require.NoError(t, err)
	f.habit = habit

	return f
}

func media(name, contentType string) *service.MediaUpload {
	body := []byte("media for " + name)
	return &service.MediaUpload{
		Filename:    name,
		ContentType: contentType,
		Size:        int64(len(body)),
		Body:        bytes.NewReader(body),
	}
}

func TestProofService_SubmitProof(t *testing.T) {
	f := newProofFixture(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		input     service.SubmitProofInput
		wantErr   error
		wantMedia domain.MediaKind
	}{
		{
			name:      "image",
			input:     service.SubmitProofInput{UserID: f.member, HabitID: f.habit.ID, Media: media("a.jpg", "image/jpeg")},
			wantMedia: domain.MediaKindImage,
		},
		{
			name:      "video",
			input:     service.SubmitProofInput{UserID: f.member, HabitID: f.habit.ID, Media: media("a.mov", "video/quicktime")},
			wantMedia: domain.MediaKindVideo,
		},
		{
			name:      "generic file",
			input:     service.SubmitProofInput{UserID: f.member, HabitID: f.habit.ID, Media: media("a.txt", "text/plain")},
			wantMedia: domain.MediaKindFile,
		},
		{
			name:    "unauthenticated wins over everything",
			input:   service.SubmitProofInput{HabitID: uuid.New()},
			wantErr: domain.ErrUnauthenticated,
		},
		{
			name:    "unknown habit checked before media",
			input:   service.SubmitProofInput{UserID: f.member, HabitID: uuid.New()},
			wantErr: domain.ErrHabitNotFound,
		},
		{
			name:    "missing media",
			input:   service.SubmitProofInput{UserID: f.member, HabitID: f.habit.ID},
			wantErr: domain.ErrMissingMedia,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := f.store.ProofCount()

			proof, err := f.proofs.SubmitProof(ctx, tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, before, f.store.ProofCount())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantMedia, proof.MediaType)
			assert.Equal(t, f.member, proof.UserID)
			assert.NotNil(t, proof.VerifiedBy)
			assert.NotNil(t, proof.RejectedBy)
			assert.Contains(t, proof.MediaURL, "proofs/")
			assert.Equal(t, before+1, f.store.ProofCount())
		})
	}
}

func TestProofService_SubmitNotifiesMembers(t *testing.T) {
	f := newProofFixture(t)

	proof, err := f.proofs.SubmitProof(context.Background(), service.SubmitProofInput{
		UserID:  f.member,
		HabitID: f.habit.ID,
		Media:   media("run.png", "image/png"),
	})
	require.NoError(t, err)

	calls := f.notifier.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, domain.EventNewProof, calls[0].Event)
	assert.Equal(t, f.habit.ID, calls[0].HabitID)
	assert.ElementsMatch(t, []uuid.UUID{f.creator, f.member}, calls[0].Recipients)

	event, ok := calls[0].Payload.(domain.NewProofEvent)
	require.True(t, ok)
	assert.Equal(t, proof.ID, event.Proof.ID)
}

func TestProofService_SubmitUploadFailure(t *testing.T) {
	f := newProofFixture(t)
	f.blobs.Err = errors.New("bucket unreachable")

	_, err := f.proofs.SubmitProof(context.Background(), service.SubmitProofInput{
		UserID:  f.member,
		HabitID: f.habit.ID,
		Media:   media("run.png", "image/png"),
	})

	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Contains(t, err.Error(), "bucket unreachable")
	assert.Zero(t, f.store.ProofCount())
	assert.Empty(t, f.notifier.Calls())
}

func TestProofService_PanickingNotifier(t *testing.T) {
	f := newProofFixture(t)
	f.notifier.Panic = true

	var proof *domain.Proof
	require.NotPanics(t, func() {
		var err error
		proof, err = f.proofs.SubmitProof(context.Background(), service.SubmitProofInput{
			UserID:  f.member,
			HabitID: f.habit.ID,
			Media:   media("run.png", "image/png"),
		})
		require.NoError(t, err)
	})
	require.NotNil(t, proof)

	require.NotPanics(t, func() {
		_, err := f.proofs.CastVote(context.Background(), f.creator, proof.ID, "verify")
		require.NoError(t, err)
	})
}

func TestProofService_ListProofs(t *testing.T) {
	f := newProofFixture(t)
	ctx := context.Background()

	proofs, err := f.proofs.ListProofs(ctx, f.habit.ID)
	require.NoError(t, err)
	assert.NotNil(t, proofs)
	assert.Empty(t, proofs)

	first, err := f.proofs.SubmitProof(ctx, service.SubmitProofInput{UserID: f.member, HabitID: f.habit.ID, Media: media("1.png", "image/png")})
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := f.proofs.SubmitProof(ctx, service.SubmitProofInput{UserID: f.creator, HabitID: f.habit.ID, Media: media("2.png", "image/png")})
	require.NoError(t, err)

	proofs, err = f.proofs.ListProofs(ctx, f.habit.ID)
	require.NoError(t, err)
	require.Len(t, proofs, 2)
	assert.Equal(t, second.ID, proofs[0].ID)
	assert.Equal(t, first.ID, proofs[1].ID)

	others, err := f.proofs.ListProofs(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestProofService_CastVote(t *testing.T) {
	f := newProofFixture(t)
	ctx := context.Background()

	proof, err := f.proofs.SubmitProof(ctx, service.SubmitProofInput{UserID: f.member, HabitID: f.habit.ID, Media: media("run.png", "image/png")})
	require.NoError(t, err)

	t.Run("verify twice keeps one entry", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			voted, err := f.proofs.CastVote(ctx, f.creator, proof.ID, "verify")
			require.NoError(t, err)
			assert.Equal(t, []uuid.UUID{f.creator}, []uuid.UUID(voted.VerifiedBy))
			assert.Empty(t, voted.RejectedBy)
		}
	})

	t.Run("submitter is notified", func(t *testing.T) {
		calls := f.notifier.Calls()
		last := calls[len(calls)-1]
		assert.Equal(t, domain.EventProofVerified, last.Event)
		assert.Equal(t, []uuid.UUID{f.member}, last.Recipients)
		assert.Equal(t, domain.ProofVerifiedEvent{
			ProofID: proof.ID,
			Action:  domain.VoteActionVerify,
			By:      f.creator,
		}, last.Payload)
	})

	t.Run("reject lands in the rejected set", func(t *testing.T) {
		voted, err := f.proofs.CastVote(ctx, f.member, proof.ID, "reject")
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{f.member}, []uuid.UUID(voted.RejectedBy))
	})

	t.Run("unknown proof leaves everything untouched", func(t *testing.T) {
		before := len(f.notifier.Calls())

		for _, action := range []string{"verify", "approve", ""} {
			_, err := f.proofs.CastVote(ctx, f.creator, uuid.New(), action)
			assert.ErrorIs(t, err, domain.ErrProofNotFound)
		}
		assert.Len(t, f.notifier.Calls(), before)
	})

	t.Run("unrecognized action counts as a rejection", func(t *testing.T) {
		voter := uuid.New()

		voted, err := f.proofs.CastVote(ctx, voter, proof.ID, "approve")
		require.NoError(t, err)
		testutil.AssertContainsUser(t, voted.RejectedBy, voter)
		testutil.AssertNotContainsUser(t, voted.VerifiedBy, voter)

		calls := f.notifier.Calls()
		payload, ok := calls[len(calls)-1].Payload.(domain.ProofVerifiedEvent)
		require.True(t, ok)
		assert.Equal(t, domain.VoteActionReject, payload.Action)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		_, err := f.proofs.CastVote(ctx, uuid.Nil, proof.ID, "verify")
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})
}
