package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-realtime-api/internal/models"
)

// DefaultRelayChannel is the pub/sub channel shared by every instance.
const DefaultRelayChannel = "realtime:broadcast"

type relayEnvelope struct {
	Kind    string            `json:"kind"`
	Target  string            `json:"target,omitempty"`
	Roles   []models.UserRole `json:"roles,omitempty"`
	Rooms   []string          `json:"rooms,omitempty"`
	Event   string            `json:"event"`
	Payload json.RawMessage   `json:"payload,omitempty"`
}

// RedisRelay publishes emissions on a Redis channel and applies every received
// emission to its local hub, so rooms span all instances.
type RedisRelay struct {
	hub     *Hub
	client  redis.UniversalClient
	channel string
	logger  *zap.Logger

	mu     sync.Mutex
	pubsub *redis.PubSub
	wg     sync.WaitGroup
}

// NewRedisRelay wraps hub with a Redis pub/sub relay.
func NewRedisRelay(hub *Hub, client redis.UniversalClient, channel string, logger *zap.Logger) *RedisRelay {
	if channel == "" {
		channel = DefaultRelayChannel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisRelay{hub: hub, client: client, channel: channel, logger: logger}
}

// Start subscribes to the relay channel and begins applying remote emissions.
func (r *RedisRelay) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pubsub != nil {
		return nil
	}

	pubsub := r.client.Subscribe(ctx, r.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	r.pubsub = pubsub

	r.wg.Add(1)
	go r.consume(pubsub.Channel())
	r.logger.Info("realtime relay subscribed", zap.String("channel", r.channel))
	return nil
}

// Close stops the subscription and closes the local hub.
func (r *RedisRelay) Close() error {
	r.mu.Lock()
	pubsub := r.pubsub
	r.pubsub = nil
	r.mu.Unlock()

	var err error
	if pubsub != nil {
		err = pubsub.Close()
		r.wg.Wait()
	}
	if hubErr := r.hub.Close(); err == nil {
		err = hubErr
	}
	return err
}

// EmitToClass relays an emission to class-<classID> on every instance.
func (r *RedisRelay) EmitToClass(classID, event string, payload any) {
	r.publish(relayEnvelope{Kind: "class", Target: classID, Event: event}, payload)
}

// EmitToRoles relays an emission to the role rooms on every instance.
func (r *RedisRelay) EmitToRoles(roles []models.UserRole, event string, payload any) {
	r.publish(relayEnvelope{Kind: "roles", Roles: roles, Event: event}, payload)
}

// EmitToUser relays an emission to user-<userID> on every instance.
func (r *RedisRelay) EmitToUser(userID, event string, payload any) {
	r.publish(relayEnvelope{Kind: "user", Target: userID, Event: event}, payload)
}

// EmitToAll relays an emission to every connection on every instance.
func (r *RedisRelay) EmitToAll(event string, payload any) {
	r.publish(relayEnvelope{Kind: "all", Event: event}, payload)
}

// EmitToRooms relays one emission to several rooms on every instance.
func (r *RedisRelay) EmitToRooms(rooms []string, event string, payload any) {
	r.publish(relayEnvelope{Kind: "rooms", Rooms: rooms, Event: event}, payload)
}

func (r *RedisRelay) publish(env relayEnvelope, payload any) {
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			r.logger.Error("encode relay payload", zap.String("event", env.Event), zap.Error(err))
			return
		}
		env.Payload = data
	}

	body, err := json.Marshal(env)
	if err != nil {
		r.logger.Error("encode relay envelope", zap.String("event", env.Event), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.client.Publish(ctx, r.channel, body).Err(); err != nil {
		r.logger.Warn("relay publish failed, emitting locally", zap.String("event", env.Event), zap.Error(err))
		r.apply(env)
	}
}

func (r *RedisRelay) consume(messages <-chan *redis.Message) {
	defer r.wg.Done()
	for msg := range messages {
		var env relayEnvelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			r.logger.Warn("discarding malformed relay message", zap.Error(err))
			continue
		}
		r.apply(env)
	}
}

func (r *RedisRelay) apply(env relayEnvelope) {
	var payload any
	if len(env.Payload) > 0 {
		payload = env.Payload
	}
	switch env.Kind {
	case "class":
		r.hub.EmitToClass(env.Target, env.Event, payload)
	case "roles":
		r.hub.EmitToRoles(env.Roles, env.Event, payload)
	case "user":
		r.hub.EmitToUser(env.Target, env.Event, payload)
	case "all":
		r.hub.EmitToAll(env.Event, payload)
	case "rooms":
		r.hub.EmitToRooms(env.Rooms, env.Event, payload)
	default:
		r.logger.Warn("unknown relay target", zap.String("kind", env.Kind))
	}
}
