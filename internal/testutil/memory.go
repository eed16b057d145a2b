package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/dom/habit-proofs/internal/domain"
	"github.com/dom/habit-proofs/internal/repository"
	"github.com/google/uuid"
)

// MemoryStore is an in-process stand-in for the Postgres repositories. All
// four repositories share one lock so habits, memberships and proofs stay
// consistent with each other.
type MemoryStore struct {
	mu      sync.Mutex
	users   map[uuid.UUID]*domain.User
	habits  map[uuid.UUID]*domain.Habit
	members []domain.HabitMember
	proofs  map[uuid.UUID]*domain.Proof

	// Fail makes every call return the error when set.
	Fail error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:  make(map[uuid.UUID]*domain.User),
		habits: make(map[uuid.UUID]*domain.Habit),
		proofs: make(map[uuid.UUID]*domain.Proof),
	}
}

// NewMemoryRepositories returns repositories backed by a fresh MemoryStore.
func NewMemoryRepositories() (*repository.Repositories, *MemoryStore) {
	store := NewMemoryStore()
	return store.Repositories(), store
}

func (s *MemoryStore) Repositories() *repository.Repositories {
	return &repository.Repositories{
		User:       memoryUsers{s},
		Habit:      memoryHabits{s},
		Membership: memoryMembers{s},
		Proof:      memoryProofs{s},
	}
}

// MembershipCount returns the number of membership rows for the pair.
func (s *MemoryStore) MembershipCount(habitID, userID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.members {
		if m.HabitID == habitID && m.UserID == userID {
			n++
		}
	}
	return n
}

// ProofCount returns the number of stored proofs.
func (s *MemoryStore) ProofCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.proofs)
}

func (s *MemoryStore) summary(id uuid.UUID) *domain.UserSummary {
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	return &domain.UserSummary{ID: u.ID, DisplayName: u.DisplayName, Avatar: u.Avatar}
}

type memoryUsers struct{ s *MemoryStore }

func (r memoryUsers) Create(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return r.s.Fail
	}
	copied := *user
	r.s.users[user.ID] = &copied
	return nil
}

func (r memoryUsers) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return nil, r.s.Fail
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (r memoryUsers) GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return nil, r.s.Fail
	}
	for _, u := range r.s.users {
		if u.GoogleID == googleID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r memoryUsers) Update(ctx context.Context, user *domain.User) error {
	return r.Create(ctx, user)
}

type memoryHabits struct{ s *MemoryStore }

func (r memoryHabits) CreateWithMember(ctx context.Context, habit *domain.Habit, member *domain.HabitMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return r.s.Fail
	}
	copied := *habit
	copied.Members = nil
	r.s.habits[habit.ID] = &copied
	r.s.members = append(r.s.members, *member)
	return nil
}

func (r memoryHabits) GetByID(ctx context.Context, id uuid.UUID) (*domain.Habit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return nil, r.s.Fail
	}
	h, ok := r.s.habits[id]
	if !ok {
		return nil, domain.ErrHabitNotFound
	}
	copied := *h
	copied.Creator = r.s.summary(h.CreatorID)
	return &copied, nil
}

func (r memoryHabits) List(ctx context.Context) ([]*domain.Habit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return nil, r.s.Fail
	}
	out := make([]*domain.Habit, 0, len(r.s.habits))
	for _, h := range r.s.habits {
		copied := *h
		copied.Creator = r.s.summary(h.CreatorID)
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type memoryMembers struct{ s *MemoryStore }

func (r memoryMembers) Add(ctx context.Context, member *domain.HabitMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return r.s.Fail
	}
	for _, m := range r.s.members {
		if m.HabitID == member.HabitID && m.UserID == member.UserID {
			return nil
		}
	}
	r.s.members = append(r.s.members, *member)
	return nil
}

func (r memoryMembers) MemberIDs(ctx context.Context, habitID uuid.UUID) ([]uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return nil, r.s.Fail
	}
	var ids []uuid.UUID
	for _, m := range r.s.members {
		if m.HabitID == habitID {
			ids = append(ids, m.UserID)
		}
	}
	return ids, nil
}

func (r memoryMembers) MemberIDsForHabits(ctx context.Context, habitIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return nil, r.s.Fail
	}
	wanted := make(map[uuid.UUID]bool, len(habitIDs))
	for _, id := range habitIDs {
		wanted[id] = true
	}
	out := make(map[uuid.UUID][]uuid.UUID)
	for _, m := range r.s.members {
		if wanted[m.HabitID] {
			out[m.HabitID] = append(out[m.HabitID], m.UserID)
		}
	}
	return out, nil
}

func (r memoryMembers) HabitIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return nil, r.s.Fail
	}
	var ids []uuid.UUID
	for _, m := range r.s.members {
		if m.UserID == userID {
			ids = append(ids, m.HabitID)
		}
	}
	return ids, nil
}

type memoryProofs struct{ s *MemoryStore }

func (r memoryProofs) Create(ctx context.Context, proof *domain.Proof) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return r.s.Fail
	}
	copied := *proof
	r.s.proofs[proof.ID] = &copied
	return nil
}

func (r memoryProofs) GetByID(ctx context.Context, id uuid.UUID) (*domain.Proof, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return nil, r.s.Fail
	}
	p, ok := r.s.proofs[id]
	if !ok {
		return nil, domain.ErrProofNotFound
	}
	return r.s.cloneProof(p), nil
}

func (r memoryProofs) ListByHabit(ctx context.Context, habitID uuid.UUID) ([]*domain.Proof, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return nil, r.s.Fail
	}
	var out []*domain.Proof
	for _, p := range r.s.proofs {
		if p.HabitID == habitID {
			out = append(out, r.s.cloneProof(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memoryProofs) UpdateVotes(ctx context.Context, id uuid.UUID, mutate func(*domain.Proof) bool) (*domain.Proof, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return nil, r.s.Fail
	}
	p, ok := r.s.proofs[id]
	if !ok {
		return nil, domain.ErrProofNotFound
	}
	working := r.s.cloneProof(p)
	if mutate(working) {
		p.VerifiedBy = append(p.VerifiedBy[:0:0], working.VerifiedBy...)
		p.RejectedBy = append(p.RejectedBy[:0:0], working.RejectedBy...)
	}
	return working, nil
}

func (s *MemoryStore) cloneProof(p *domain.Proof) *domain.Proof {
	copied := *p
	copied.VerifiedBy = append(p.VerifiedBy[:0:0], p.VerifiedBy...)
	copied.RejectedBy = append(p.RejectedBy[:0:0], p.RejectedBy...)
	copied.User = s.summary(p.UserID)
	return &copied
}
