package websocket

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
)

const relayPublishTimeout = 5 * time.Second

// RelayPublisher forwards an encoded event to other server instances.
type RelayPublisher interface {
	Publish(ctx context.Context, recipients []uuid.UUID, data []byte) error
}

// Dispatcher pushes events to whichever recipients currently have a channel
// registered. Delivery is best effort: recipients without a channel, or with a
// full send buffer, are skipped and nothing is retried.
type Dispatcher struct {
	presence *Presence
	relay    RelayPublisher
}

func NewDispatcher(presence *Presence) *Dispatcher {
	return &Dispatcher{presence: presence}
}

// SetRelay enables cross-instance fan out. Must be called before serving.
func (d *Dispatcher) SetRelay(relay RelayPublisher) {
	d.relay = relay
}

func (d *Dispatcher) NotifyHabitMembers(habitID uuid.UUID, memberIDs []uuid.UUID, event string, payload any) {
	data, err := encodeEvent(event, payload)
	if err != nil {
		log.Printf("ERROR [Dispatcher.NotifyHabitMembers] habit %s: %v", habitID, err)
		return
	}

	d.DeliverLocal(memberIDs, data)
	d.publish(memberIDs, data)
}

func (d *Dispatcher) NotifyUser(userID uuid.UUID, event string, payload any) {
	data, err := encodeEvent(event, payload)
	if err != nil {
		log.Printf("ERROR [Dispatcher.NotifyUser] user %s: %v", userID, err)
		return
	}

	recipients := []uuid.UUID{userID}
	d.DeliverLocal(recipients, data)
	d.publish(recipients, data)
}

// DeliverLocal hands data to the channels registered in this process and
// returns how many accepted it.
func (d *Dispatcher) DeliverLocal(recipients []uuid.UUID, data []byte) int {
	delivered := 0
	for _, userID := range recipients {
		ch, ok := d.presence.Lookup(userID)
		if !ok {
			continue
		}
		if ch.Deliver(data) {
			delivered++
		}
	}
	return delivered
}

func (d *Dispatcher) publish(recipients []uuid.UUID, data []byte) {
	if d.relay == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), relayPublishTimeout)
		defer cancel()
		if err := d.relay.Publish(ctx, recipients, data); err != nil {
			log.Printf("ERROR [Dispatcher.publish] relay publish failed: %v", err)
		}
	}()
}

func encodeEvent(event string, payload any) ([]byte, error) {
	msg, err := NewMessage(MessageType(event), payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(msg)
}
