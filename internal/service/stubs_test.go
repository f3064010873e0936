package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/noah-isme/sma-realtime-api/internal/authz"
	"github.com/noah-isme/sma-realtime-api/internal/models"
	"github.com/noah-isme/sma-realtime-api/internal/outbox"
)

// schoolGraph is an in-memory relation graph backing a real resolver.
type schoolGraph struct {
	teacherClasses map[string][]string
	parentChildren map[string][]string
	studentClass   map[string]string
}

func newSchoolGraph() *schoolGraph {
	return &schoolGraph{
		teacherClasses: map[string][]string{"tA": {"C1"}, "tB": {"C1"}, "tC": {"C2"}},
		parentChildren: map[string][]string{"p1": {"s1"}},
		studentClass:   map[string]string{"s1": "C1", "s2": "C2"},
	}
}

func (g *schoolGraph) TeacherClassIDs(_ context.Context, teacherID string) ([]string, error) {
	return g.teacherClasses[teacherID], nil
}

func (g *schoolGraph) ParentChildIDs(_ context.Context, parentID string) ([]string, error) {
	return g.parentChildren[parentID], nil
}

func (g *schoolGraph) ParentChildClassIDs(_ context.Context, parentID string) ([]string, error) {
	var out []string
	for _, child := range g.parentChildren[parentID] {
		if c := g.studentClass[child]; c != "" {
			out = append(out, c)
		}
	}
	return out, nil
}

func (g *schoolGraph) StudentClassID(_ context.Context, studentID string) (string, error) {
	return g.studentClass[studentID], nil
}

func (g *schoolGraph) ClassParentIDs(_ context.Context, classIDs []string) ([]string, error) {
	var out []string
	for parent, children := range g.parentChildren {
		for _, child := range children {
			for _, c := range classIDs {
				if g.studentClass[child] == c {
					out = append(out, parent)
				}
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func (g *schoolGraph) StudentParentIDs(_ context.Context, studentID string) ([]string, error) {
	var out []string
	for parent, children := range g.parentChildren {
		for _, child := range children {
			if child == studentID {
				out = append(out, parent)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func newTestResolver(g *schoolGraph) *authz.Resolver {
	return authz.NewResolver(g, nil, nil)
}

type sentMessage struct {
	target string
	event  string
	data   any
}

// committedBroadcasts records what a unit of work releases on commit.
type committedBroadcasts struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (b *committedBroadcasts) add(target, event string, data any) {
	b.mu.Lock()
	b.sent = append(b.sent, sentMessage{target, event, data})
	b.mu.Unlock()
}

func (b *committedBroadcasts) EmitToClass(classID, event string, payload any) {
	b.add("class-"+classID, event, payload)
}

func (b *committedBroadcasts) EmitToRoles(roles []models.UserRole, event string, payload any) {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	b.add("role-"+strings.Join(names, ","), event, payload)
}

func (b *committedBroadcasts) EmitToUser(userID, event string, payload any) {
	b.add("user-"+userID, event, payload)
}

func (b *committedBroadcasts) EmitToAll(event string, payload any) {
	b.add("all", event, payload)
}

// EmitToRooms records one entry per emission; the rooms are comma-joined.
func (b *committedBroadcasts) EmitToRooms(rooms []string, event string, payload any) {
	b.add(strings.Join(rooms, ","), event, payload)
}

func (b *committedBroadcasts) targets(event string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, m := range b.sent {
		if m.event == event {
			out = append(out, m.target)
		}
	}
	return out
}

// memTx mimics the transaction manager: staged messages are released only when fn
// succeeds.
type memTx struct {
	out *committedBroadcasts
}

func newMemTx() *memTx {
	return &memTx{out: &committedBroadcasts{}}
}

func (m *memTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, batch := outbox.WithBatch(ctx)
	if err := fn(ctx); err != nil {
		return err
	}
	outbox.NewDispatcher(m.out, nil).Dispatch(batch.Messages())
	return nil
}

func principal(id string, role models.UserRole) authz.Principal {
	return authz.Principal{ID: id, Role: role}
}

func strPtr(s string) *string { return &s }
