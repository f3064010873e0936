package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-realtime-api/internal/authz"
	"github.com/noah-isme/sma-realtime-api/internal/models"
)

func newRelayPair(t *testing.T) (*RedisRelay, *RedisRelay) {
	t.Helper()
	mr := miniredis.RunT(t)

	newRelay := func() *RedisRelay {
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		relay := NewRedisRelay(NewHub(nil, nil), client, "", nil)
		require.NoError(t, relay.Start(context.Background()))
		t.Cleanup(func() { _ = relay.Close() })
		return relay
	}
	return newRelay(), newRelay()
}

func waitFrame(t *testing.T, c *Client) Frame {
	t.Helper()
	select {
	case f := <-c.Send():
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for relayed frame")
		return Frame{}
	}
}

func TestRelayDeliversAcrossInstances(t *testing.T) {
	a, b := newRelayPair(t)

	remote := NewClient(authz.Principal{ID: "s1", Role: models.RoleStudent}, 8)
	require.NoError(t, b.hub.Register(remote))
	b.hub.Join(remote, ClassRoom("C1"))

	a.EmitToClass("C1", EventNewAnnouncement, map[string]string{"id": "a1"})

	frame := waitFrame(t, remote)
	assert.Equal(t, EventNewAnnouncement, frame.Event)
	raw, ok := frame.Data.(json.RawMessage)
	require.True(t, ok)
	assert.JSONEq(t, `{"id":"a1"}`, string(raw))
}

func TestRelayAppliesToLocalHubToo(t *testing.T) {
	a, _ := newRelayPair(t)

	local := NewClient(authz.Principal{ID: "t1", Role: models.RoleTeacher}, 8)
	require.NoError(t, a.hub.Register(local))
	a.hub.Join(local, RoleRoom(models.RoleTeacher))

	a.EmitToRoles([]models.UserRole{models.RoleTeacher}, EventEventCreated, nil)

	frame := waitFrame(t, local)
	assert.Equal(t, EventEventCreated, frame.Event)
	assert.Nil(t, frame.Data)
	select {
	case f := <-local.Send():
		t.Fatalf("unexpected duplicate frame %q", f.Event)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRelayEmitToAllAndUser(t *testing.T) {
	a, b := newRelayPair(t)

	c := NewClient(authz.Principal{ID: "p1", Role: models.RoleParent}, 8)
	require.NoError(t, b.hub.Register(c))
	b.hub.Join(c, UserRoom("p1"))

	a.EmitToUser("p1", EventUnreadCount, map[string]int{"count": 3})
	a.EmitToAll(EventEventsUpdated, map[string]string{"message": "done"})

	assert.Equal(t, EventUnreadCount, waitFrame(t, c).Event)
	assert.Equal(t, EventEventsUpdated, waitFrame(t, c).Event)
}

func TestRelayEmitToRoomsDeliversOnce(t *testing.T) {
	a, b := newRelayPair(t)

	c := NewClient(authz.Principal{ID: "s1", Role: models.RoleStudent}, 8)
	require.NoError(t, b.hub.Register(c))
	b.hub.Join(c, RoleRoom(models.RoleStudent), ClassRoom("C1"))

	a.EmitToRooms([]string{RoleRoom(models.RoleStudent), ClassRoom("C1")}, EventEventCreated, nil)

	assert.Equal(t, EventEventCreated, waitFrame(t, c).Event)
	select {
	case f := <-c.Send():
		t.Fatalf("unexpected duplicate frame %q", f.Event)
	case <-time.After(100 * time.Millisecond):
	}
}
