package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dom/habit-proofs/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRelay struct {
	mu         sync.Mutex
	published  chan struct{}
	recipients []uuid.UUID
	data       []byte
}

func newFakeRelay() *fakeRelay {
	return &fakeRelay{published: make(chan struct{}, 1)}
}

func (f *fakeRelay) Publish(ctx context.Context, recipients []uuid.UUID, data []byte) error {
	f.mu.Lock()
	f.recipients = recipients
	f.data = data
	f.mu.Unlock()
	f.published <- struct{}{}
	return nil
}

func decodeFrame(t *testing.T, data []byte) *Message {
	t.Helper()
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return &msg
}

func TestDispatcher_NotifyHabitMembers(t *testing.T) {
	presence := NewPresence()
	dispatcher := NewDispatcher(presence)

	online, offline, full := uuid.New(), uuid.New(), uuid.New()
	onlineCh := newFakeChannel("online")
	fullCh := newFakeChannel("full")
	fullCh.full = true
	presence.Register(online, onlineCh)
	presence.Register(full, fullCh)

	habitID := uuid.New()
	proof := &domain.Proof{ID: uuid.New(), HabitID: habitID, MediaType: domain.MediaKindImage}

	dispatcher.NotifyHabitMembers(habitID, []uuid.UUID{online, offline, full}, domain.EventNewProof,
		domain.NewProofEvent{HabitID: habitID, Proof: proof})

	frames := onlineCh.Frames()
	require.Len(t, frames, 1)
	assert.Empty(t, fullCh.Frames())

	msg := decodeFrame(t, frames[0])
	assert.Equal(t, MessageTypeNewProof, msg.Type)

	var payload domain.NewProofEvent
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, habitID, payload.HabitID)
	assert.Equal(t, proof.ID, payload.Proof.ID)
}

func TestDispatcher_NotifyUser(t *testing.T) {
	presence := NewPresence()
	dispatcher := NewDispatcher(presence)

	owner, other := uuid.New(), uuid.New()
	ownerCh, otherCh := newFakeChannel("owner"), newFakeChannel("other")
	presence.Register(owner, ownerCh)
	presence.Register(other, otherCh)

	event := domain.ProofVerifiedEvent{ProofID: uuid.New(), Action: domain.VoteActionVerify, By: other}
	dispatcher.NotifyUser(owner, domain.EventProofVerified, event)

	require.Len(t, ownerCh.Frames(), 1)
	assert.Empty(t, otherCh.Frames())

	msg := decodeFrame(t, ownerCh.Frames()[0])
	assert.Equal(t, MessageTypeProofVerified, msg.Type)
	var payload domain.ProofVerifiedEvent
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, event, payload)
}

func TestDispatcher_NoChannelIsSilent(t *testing.T) {
	dispatcher := NewDispatcher(NewPresence())
	assert.NotPanics(t, func() {
		dispatcher.NotifyUser(uuid.New(), domain.EventProofVerified, domain.ProofVerifiedEvent{})
	})
}

func TestDispatcher_UnencodablePayload(t *testing.T) {
	presence := NewPresence()
	user := uuid.New()
	ch := newFakeChannel("c")
	presence.Register(user, ch)

	NewDispatcher(presence).NotifyUser(user, "bad", make(chan int))
	assert.Empty(t, ch.Frames())
}

func TestDispatcher_PublishesToRelay(t *testing.T) {
	dispatcher := NewDispatcher(NewPresence())
	relay := newFakeRelay()
	dispatcher.SetRelay(relay)

	user := uuid.New()
	dispatcher.NotifyUser(user, domain.EventProofVerified, domain.ProofVerifiedEvent{By: user})

	select {
	case <-relay.published:
	case <-time.After(2 * time.Second):
		t.Fatal("relay was not called")
	}

	relay.mu.Lock()
	defer relay.mu.Unlock()
	assert.Equal(t, []uuid.UUID{user}, relay.recipients)
	assert.Equal(t, MessageTypeProofVerified, decodeFrame(t, relay.data).Type)
}
