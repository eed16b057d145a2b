package websocket

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const relayChannel = "habit-proofs:events"

// relayEnvelope is what travels over Redis pub/sub between instances.
type relayEnvelope struct {
	Origin     string          `json:"origin"`
	Recipients []uuid.UUID     `json:"recipients"`
	Data       json.RawMessage `json:"data"`
}

// RedisRelay shares dispatched events between server instances so users
// connected to a different instance still receive them.
type RedisRelay struct {
	rdb    *redis.Client
	origin string
}

func NewRedisRelay(rdb *redis.Client) *RedisRelay {
	return &RedisRelay{
		rdb:    rdb,
		origin: uuid.NewString(),
	}
}

func (r *RedisRelay) Publish(ctx context.Context, recipients []uuid.UUID, data []byte) error {
	payload, err := r.encode(recipients, data)
	if err != nil {
		return err
	}
	return r.rdb.Publish(ctx, relayChannel, payload).Err()
}

// Run delivers events published by other instances until ctx is done.
func (r *RedisRelay) Run(ctx context.Context, dispatcher *Dispatcher) {
	sub := r.rdb.Subscribe(ctx, relayChannel)
	defer sub.Close()

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			r.handle(msg.Payload, dispatcher)
		}
	}
}

func (r *RedisRelay) encode(recipients []uuid.UUID, data []byte) ([]byte, error) {
	return json.Marshal(relayEnvelope{
		Origin:     r.origin,
		Recipients: recipients,
		Data:       data,
	})
}

func (r *RedisRelay) handle(payload string, dispatcher *Dispatcher) {
	var env relayEnvelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		log.Printf("ERROR [RedisRelay.handle] bad envelope: %v", err)
		return
	}
	// Events from this instance were already delivered locally
	if env.Origin == r.origin {
		return
	}
	dispatcher.DeliverLocal(env.Recipients, env.Data)
}
