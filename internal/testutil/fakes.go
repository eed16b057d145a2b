package testutil

import (
	"context"
	"errors"
	"io"
	"net/url"
	"sync"

	"github.com/dom/habit-proofs/internal/domain"
	"github.com/google/uuid"
)

// FakeBlobStore keeps uploaded objects in memory.
type FakeBlobStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Types   map[string]string

	// Err is returned from Put when set.
	Err error
}

func NewFakeBlobStore() *FakeBlobStore {
	return &FakeBlobStore{
		Objects: make(map[string][]byte),
		Types:   make(map[string]string),
	}
}

func (f *FakeBlobStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.Objects[key] = data
	f.Types[key] = contentType
	return "https://blobs.test/" + key, nil
}

func (f *FakeBlobStore) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Objects)
}

// Notification is one call observed by RecordingNotifier.
type Notification struct {
	HabitID    uuid.UUID
	Recipients []uuid.UUID
	Event      string
	Payload    any
}

// RecordingNotifier records notifications instead of delivering them.
type RecordingNotifier struct {
	mu    sync.Mutex
	calls []Notification

	// Panic makes every call panic, for exercising fault boundaries.
	Panic bool
}

func (n *RecordingNotifier) NotifyHabitMembers(habitID uuid.UUID, memberIDs []uuid.UUID, event string, payload any) {
	if n.Panic {
		panic("notifier exploded")
	}
	n.record(Notification{HabitID: habitID, Recipients: memberIDs, Event: event, Payload: payload})
}

func (n *RecordingNotifier) NotifyUser(userID uuid.UUID, event string, payload any) {
	if n.Panic {
		panic("notifier exploded")
	}
	n.record(Notification{Recipients: []uuid.UUID{userID}, Event: event, Payload: payload})
}

func (n *RecordingNotifier) record(call Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, call)
}

func (n *RecordingNotifier) Calls() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.calls...)
}

// FakeIdentityProvider answers OAuth exchanges from a code→profile table.
type FakeIdentityProvider struct {
	mu       sync.Mutex
	profiles map[string]*domain.Profile
}

func NewFakeIdentityProvider() *FakeIdentityProvider {
	return &FakeIdentityProvider{profiles: make(map[string]*domain.Profile)}
}

// Expect makes code exchange to profile.
func (p *FakeIdentityProvider) Expect(code string, profile *domain.Profile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.profiles[code] = profile
}

func (p *FakeIdentityProvider) AuthCodeURL(state string) string {
	return "https://accounts.test/o/oauth2/auth?state=" + url.QueryEscape(state)
}

func (p *FakeIdentityProvider) Exchange(ctx context.Context, code string) (*domain.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	profile, ok := p.profiles[code]
	if !ok {
		return nil, errors.New("oauth2: invalid_grant")
	}
	return profile, nil
}
