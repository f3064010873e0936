package outbox

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-realtime-api/internal/models"
)

type recordedEmit struct {
	kind   string
	target string
	event  string
}

type broadcasterStub struct {
	emits []recordedEmit
}

func (b *broadcasterStub) EmitToClass(classID, event string, payload any) {
	b.emits = append(b.emits, recordedEmit{"class", classID, event})
}

func (b *broadcasterStub) EmitToRoles(roles []models.UserRole, event string, payload any) {
	target := ""
	for _, r := range roles {
		target += string(r)
	}
	b.emits = append(b.emits, recordedEmit{"roles", target, event})
}

func (b *broadcasterStub) EmitToUser(userID, event string, payload any) {
	b.emits = append(b.emits, recordedEmit{"user", userID, event})
}

func (b *broadcasterStub) EmitToAll(event string, payload any) {
	b.emits = append(b.emits, recordedEmit{"all", "", event})
}

func (b *broadcasterStub) EmitToRooms(rooms []string, event string, payload any) {
	b.emits = append(b.emits, recordedEmit{"rooms", strings.Join(rooms, ","), event})
}

func TestStageWithoutBatch(t *testing.T) {
	err := Stage(context.Background(), Message{Target: ToAll(), Event: "x"})
	assert.ErrorIs(t, err, ErrNoBatch)
}

func TestStageAndDispatchInOrder(t *testing.T) {
	ctx, batch := WithBatch(context.Background())
	require.NoError(t, Stage(ctx, Message{Target: ToClass("C1"), Event: "newAnnouncement"}))
	require.NoError(t, Stage(ctx, Message{Target: ToRoles(models.RoleTeacher), Event: "eventCreated"}))
	require.NoError(t, Stage(ctx, Message{Target: ToUser("u1"), Event: "unreadCount"}))
	require.NoError(t, Stage(ctx, Message{Target: ToAll(), Event: "deleteEvent"}))

	stub := &broadcasterStub{}
	NewDispatcher(stub, nil).Dispatch(batch.Messages())

	assert.Equal(t, []recordedEmit{
		{"class", "C1", "newAnnouncement"},
		{"roles", "TEACHER", "eventCreated"},
		{"user", "u1", "unreadCount"},
		{"all", "", "deleteEvent"},
	}, stub.emits)
}

func TestNilDispatcherDrops(t *testing.T) {
	var d *Dispatcher
	assert.NotPanics(t, func() {
		d.Dispatch([]Message{{Target: ToAll(), Event: "x"}})
	})
}

func TestMergeFoldsTargetsIntoOneEmission(t *testing.T) {
	target := Merge(ToClass("C1"), ToUser("s1"), ToRoles(models.RoleStudent), ToUser("s1"))
	assert.Equal(t, ToRooms("class-C1", "user-s1", "role-STUDENT"), target)

	assert.Equal(t, ToAll(), Merge(ToClass("C1"), ToAll()))
	assert.Equal(t, ToClass("C1"), Merge(ToClass("C1")))

	ctx, batch := WithBatch(context.Background())
	require.NoError(t, Stage(ctx, Message{Target: target, Event: "markAttendance"}))
	stub := &broadcasterStub{}
	NewDispatcher(stub, nil).Dispatch(batch.Messages())
	assert.Equal(t, []recordedEmit{{"rooms", "class-C1,user-s1,role-STUDENT", "markAttendance"}}, stub.emits)
}
