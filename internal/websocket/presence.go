package websocket

import (
	"sync"

	"github.com/google/uuid"
)

// Channel is a live connection that can receive pushed events.
type Channel interface {
	ID() string
	// Deliver queues data without blocking and reports whether it was queued.
	Deliver(data []byte) bool
	Close()
}

// Presence maps each online user to the one channel their events go to. The
// last registration for a user wins.
type Presence struct {
	mu        sync.RWMutex
	byUser    map[uuid.UUID]Channel
	byChannel map[string]uuid.UUID
}

func NewPresence() *Presence {
	return &Presence{
		byUser:    make(map[uuid.UUID]Channel),
		byChannel: make(map[string]uuid.UUID),
	}
}

// Register points userID at ch, replacing any channel registered before.
func (p *Presence) Register(userID uuid.UUID, ch Channel) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if prev, ok := p.byUser[userID]; ok && prev.ID() != ch.ID() {
		delete(p.byChannel, prev.ID())
	}

	// A channel serves a single user; re-registering it under another user
	// releases the old mapping.
	if prevUser, ok := p.byChannel[ch.ID()]; ok && prevUser != userID {
		if cur, ok := p.byUser[prevUser]; ok && cur.ID() == ch.ID() {
			delete(p.byUser, prevUser)
		}
	}

	p.byUser[userID] = ch
	p.byChannel[ch.ID()] = userID
}

// Unregister drops the mapping held by channelID. It reports false when the
// channel is not the current channel of any user.
func (p *Presence) Unregister(channelID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	userID, ok := p.byChannel[channelID]
	if !ok {
		return false
	}
	delete(p.byChannel, channelID)

	if cur, ok := p.byUser[userID]; ok && cur.ID() == channelID {
		delete(p.byUser, userID)
	}
	return true
}

func (p *Presence) Lookup(userID uuid.UUID) (Channel, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ch, ok := p.byUser[userID]
	return ch, ok
}

func (p *Presence) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byUser)
}

// CloseAll closes every registered channel. Used on shutdown.
func (p *Presence) CloseAll() {
	p.mu.RLock()
	channels := make([]Channel, 0, len(p.byUser))
	for _, ch := range p.byUser {
		channels = append(channels, ch)
	}
	p.mu.RUnlock()

	// Close re-enters Unregister, so it runs without the lock held
	for _, ch := range channels {
		ch.Close()
	}
}
