// Package broadcast keeps isolated memstore processes converged. After every
// mutating code operation the full code snapshot is published on a Redis
// channel; every other process merges it (see memstore.Merge). Delivery is
// at-least-once and unordered, which the merge tolerates.
package broadcast

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/rollcall/attendance-server-go/internal/memstore"
	"github.com/rollcall/attendance-server-go/internal/model"
	redisclient "github.com/rollcall/attendance-server-go/internal/redis"
)

type Message struct {
	Origin string                `json:"origin"`
	Codes  []model.GeneratedCode `json:"codes"`
}

type Broadcaster struct {
	redis  *redisclient.Client
	store  *memstore.Store
	origin string
	ctx    context.Context
	cancel context.CancelFunc
}

func New(redisClient *redisclient.Client, store *memstore.Store) *Broadcaster {
	ctx, cancel := context.WithCancel(context.Background())
	return &Broadcaster{
		redis:  redisClient,
		store:  store,
		origin: uuid.NewString(),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (b *Broadcaster) Start() {
	go b.listen()
	log.Info().Str("origin", b.origin).Msg("snapshot broadcaster started")
}

func (b *Broadcaster) Close() {
	b.cancel()
}

// Publish sends the current full code snapshot to all other contexts.
func (b *Broadcaster) Publish(ctx context.Context) error {
	data, err := json.Marshal(Message{
		Origin: b.origin,
		Codes:  b.store.Snapshot(),
	})
	if err != nil {
		return err
	}
	return b.redis.Publish(ctx, redisclient.SnapshotChannel, data).Err()
}

func (b *Broadcaster) listen() {
	pubsub := b.redis.Subscribe(b.ctx, redisclient.SnapshotChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for {
		select {
		case <-b.ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}

			var message Message
			if err := json.Unmarshal([]byte(msg.Payload), &message); err != nil {
				log.Error().Err(err).Msg("failed to unmarshal snapshot")
				continue
			}

			if message.Origin == b.origin {
				continue
			}

			b.store.Merge(message.Codes)
			log.Debug().
				Str("origin", message.Origin).
				Int("codes", len(message.Codes)).
				Msg("merged snapshot")
		}
	}
}
