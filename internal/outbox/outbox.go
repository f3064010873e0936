// Package outbox collects broadcasts produced inside a unit of work and releases
// them only after the unit commits.
package outbox

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-realtime-api/internal/models"
	"github.com/noah-isme/sma-realtime-api/internal/realtime"
)

// ErrNoBatch is returned when staging outside a unit of work.
var ErrNoBatch = errors.New("outbox: no batch bound to context")

// TargetKind selects the audience of a message.
type TargetKind string

const (
	TargetClass TargetKind = "class"
	TargetRoles TargetKind = "roles"
	TargetUser  TargetKind = "user"
	TargetAll   TargetKind = "all"
	TargetRooms TargetKind = "rooms"
)

// Target is the audience of a message.
type Target struct {
	Kind  TargetKind
	ID    string
	Roles []models.UserRole
	Rooms []string
}

// ToClass addresses class-<id>.
func ToClass(classID string) Target { return Target{Kind: TargetClass, ID: classID} }

// ToRoles addresses the role rooms.
func ToRoles(roles ...models.UserRole) Target { return Target{Kind: TargetRoles, Roles: roles} }

// ToUser addresses user-<id>.
func ToUser(userID string) Target { return Target{Kind: TargetUser, ID: userID} }

// ToAll addresses every connection.
func ToAll() Target { return Target{Kind: TargetAll} }

// ToRooms addresses the named rooms as one emission.
func ToRooms(rooms ...string) Target { return Target{Kind: TargetRooms, Rooms: rooms} }

// Merge folds targets into a single multi-room target so a connection sitting in
// several of them receives the message once. An all-target absorbs the rest.
func Merge(targets ...Target) Target {
	if len(targets) == 1 {
		return targets[0]
	}
	var rooms []string
	seen := make(map[string]struct{})
	for _, t := range targets {
		if t.Kind == TargetAll {
			return ToAll()
		}
		for _, room := range t.roomNames() {
			if _, ok := seen[room]; ok {
				continue
			}
			seen[room] = struct{}{}
			rooms = append(rooms, room)
		}
	}
	return ToRooms(rooms...)
}

func (t Target) roomNames() []string {
	switch t.Kind {
	case TargetClass:
		return []string{realtime.ClassRoom(t.ID)}
	case TargetUser:
		return []string{realtime.UserRoom(t.ID)}
	case TargetRoles:
		out := make([]string, 0, len(t.Roles))
		for _, role := range t.Roles {
			out = append(out, realtime.RoleRoom(role))
		}
		return out
	case TargetRooms:
		return t.Rooms
	}
	return nil
}

// Message is a broadcast waiting for commit.
type Message struct {
	Target  Target
	Event   string
	Payload any
}

// Batch accumulates messages of one unit of work.
type Batch struct {
	mu       sync.Mutex
	messages []Message
}

// Messages returns a copy of the staged messages in staging order.
func (b *Batch) Messages() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Message(nil), b.messages...)
}

func (b *Batch) add(msg Message) {
	b.mu.Lock()
	b.messages = append(b.messages, msg)
	b.mu.Unlock()
}

type batchKey struct{}

// WithBatch binds a fresh batch to ctx.
func WithBatch(ctx context.Context) (context.Context, *Batch) {
	b := &Batch{}
	return context.WithValue(ctx, batchKey{}, b), b
}

// FromContext returns the batch bound to ctx.
func FromContext(ctx context.Context) (*Batch, bool) {
	b, ok := ctx.Value(batchKey{}).(*Batch)
	return b, ok && b != nil
}

// Stage appends msg to the batch bound to ctx.
func Stage(ctx context.Context, msg Message) error {
	b, ok := FromContext(ctx)
	if !ok {
		return ErrNoBatch
	}
	b.add(msg)
	return nil
}

// Dispatcher hands committed messages to the broadcaster.
type Dispatcher struct {
	broadcaster realtime.Broadcaster
	logger      *zap.Logger
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(broadcaster realtime.Broadcaster, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{broadcaster: broadcaster, logger: logger}
}

// Dispatch emits messages in order. A nil dispatcher drops them.
func (d *Dispatcher) Dispatch(messages []Message) {
	if d == nil || d.broadcaster == nil {
		return
	}
	for _, msg := range messages {
		switch msg.Target.Kind {
		case TargetClass:
			d.broadcaster.EmitToClass(msg.Target.ID, msg.Event, msg.Payload)
		case TargetRoles:
			d.broadcaster.EmitToRoles(msg.Target.Roles, msg.Event, msg.Payload)
		case TargetUser:
			d.broadcaster.EmitToUser(msg.Target.ID, msg.Event, msg.Payload)
		case TargetAll:
			d.broadcaster.EmitToAll(msg.Event, msg.Payload)
		case TargetRooms:
			d.broadcaster.EmitToRooms(msg.Target.Rooms, msg.Event, msg.Payload)
		default:
			d.logger.Warn("dropping message with unknown target", zap.String("event", msg.Event), zap.String("kind", string(msg.Target.Kind)))
		}
	}
}
