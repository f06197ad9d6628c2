package sse

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	redisclient "github.com/rollcall/attendance-server-go/internal/redis"
)

const (
	HeartbeatInterval = 30 * time.Second
)

// Event types sent on lesson channels.
const (
	EventCodeStarted        = "code_started"
	EventCodeStopped        = "code_stopped"
	EventAttendanceRecorded = "attendance_recorded"
)

type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type Client struct {
	LessonID string
	Events   chan Event
	Done     chan struct{}
}

// Broker fans lesson events out to connected SSE clients. Events travel
// through Redis pub/sub so every server instance sees every mutation.
type Broker struct {
	redis   *redisclient.Client
	clients map[string]map[*Client]bool // lessonID -> set of clients
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewBroker(redisClient *redisclient.Client) *Broker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Broker{
		redis:   redisClient,
		clients: make(map[string]map[*Client]bool),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (b *Broker) Subscribe(lessonID string) *Client {
	client := &Client{
		LessonID: lessonID,
		Events:   make(chan Event, 100),
		Done:     make(chan struct{}),
	}

	b.mu.Lock()
	if b.clients[lessonID] == nil {
		b.clients[lessonID] = make(map[*Client]bool)
		go b.subscribeToRedis(lessonID)
	}
	b.clients[lessonID][client] = true
	clientCount := len(b.clients[lessonID])
	b.mu.Unlock()

	log.Info().
		Str("lessonId", lessonID).
		Int("clientCount", clientCount).
		Msg("sse client subscribed")

	return client
}

func (b *Broker) Unsubscribe(client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if clients, ok := b.clients[client.LessonID]; ok {
		delete(clients, client)
		close(client.Done)

		if len(clients) == 0 {
			delete(b.clients, client.LessonID)
		}

		log.Info().
			Str("lessonId", client.LessonID).
			Int("clientCount", len(clients)).
			Msg("sse client unsubscribed")
	}
}

// Publish marshals data and sends it on the lesson's Redis channel.
func (b *Broker) Publish(ctx context.Context, lessonID string, eventType string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(Event{Type: eventType, Data: raw})
	if err != nil {
		return err
	}

	channel := redisclient.LessonChannel(lessonID)
	return b.redis.Publish(ctx, channel, payload).Err()
}

func (b *Broker) subscribeToRedis(lessonID string) {
	channel := redisclient.LessonChannel(lessonID)
	pubsub := b.redis.Subscribe(b.ctx, channel)
	defer pubsub.Close()

	log.Debug().
		Str("lessonId", lessonID).
		Str("channel", channel).
		Msg("redis pubsub subscribed")

	ch := pubsub.Channel()

	for {
		select {
		case <-b.ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Error().Err(err).Msg("failed to unmarshal event")
				continue
			}

			b.broadcast(lessonID, event)
		}
	}
}

func (b *Broker) broadcast(lessonID string, event Event) {
	b.mu.RLock()
	clients := b.clients[lessonID]
	b.mu.RUnlock()

	for client := range clients {
		select {
		case client.Events <- event:
		default:
			log.Warn().
				Str("lessonId", lessonID).
				Msg("client event buffer full, dropping event")
		}
	}
}

func (b *Broker) Close() {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, clients := range b.clients {
		for client := range clients {
			close(client.Done)
		}
	}
	b.clients = make(map[string]map[*Client]bool)
}

func (b *Broker) ClientCount(lessonID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients[lessonID])
}
