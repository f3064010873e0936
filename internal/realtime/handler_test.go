package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-realtime-api/internal/authz"
	"github.com/noah-isme/sma-realtime-api/internal/models"
	appErrors "github.com/noah-isme/sma-realtime-api/pkg/errors"
)

type tokenStub map[string]*models.JWTClaims

func (s tokenStub) ValidateToken(token string) (*models.JWTClaims, error) {
	claims, ok := s[token]
	if !ok {
		return nil, appErrors.ErrInvalidToken
	}
	return claims, nil
}

type classAccessStub map[string][]string

func (s classAccessStub) CanAccessClass(ctx context.Context, p authz.Principal, classID string) error {
	for _, id := range s[p.ID] {
		if id == classID {
			return nil
		}
	}
	return errors.New("forbidden")
}

func newTestServer(t *testing.T, cfg HandlerConfig) (*Hub, string) {
	t.Helper()
	hub := NewHub(nil, nil)
	tokens := tokenStub{
		"student-token": {UserID: "s1", Role: models.RoleStudent},
		"teacher-token": {UserID: "t1", Role: models.RoleTeacher},
	}
	access := classAccessStub{"s1": {"C1"}, "t1": {"C1", "C2"}}
	srv := httptest.NewServer(NewHandler(hub, tokens, access, cfg, nil))
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string, header http.Header) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPHeader: header})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) inboundFrame {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var frame inboundFrame
	require.NoError(t, wsjson.Read(ctx, conn, &frame))
	return frame
}

func writeFrame(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, wsjson.Write(ctx, conn, Frame{Event: event, Data: data}))
}

func errorMessage(t *testing.T, frame inboundFrame) string {
	t.Helper()
	require.Equal(t, EventError, frame.Event)
	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(frame.Data, &payload))
	return payload.Message
}

func assertPolicyClose(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, _, err := conn.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusPolicyViolation, websocket.CloseStatus(err))
}

func TestHandshakeWithHeaderTokenSendsConnected(t *testing.T) {
	hub, url := newTestServer(t, HandlerConfig{})
	conn := dial(t, url, http.Header{"Authorization": {"Bearer student-token"}})

	frame := readFrame(t, conn)
	require.Equal(t, EventConnected, frame.Event)
	var payload ConnectedPayload
	require.NoError(t, json.Unmarshal(frame.Data, &payload))
	assert.Equal(t, "s1", payload.UserID)
	assert.Equal(t, 1, hub.ClientCount())
}

func TestHandshakeWithQueryToken(t *testing.T) {
	_, url := newTestServer(t, HandlerConfig{})
	conn := dial(t, url+"?token=teacher-token", nil)

	assert.Equal(t, EventConnected, readFrame(t, conn).Event)
}

func TestHandshakeWithAuthenticateFrame(t *testing.T) {
	_, url := newTestServer(t, HandlerConfig{})
	conn := dial(t, url, nil)

	writeFrame(t, conn, EventAuthenticate, AuthenticatePayload{Token: "student-token"})
	assert.Equal(t, EventConnected, readFrame(t, conn).Event)
}

func TestHandshakeRejectsInvalidTokenWithoutConnected(t *testing.T) {
	hub, url := newTestServer(t, HandlerConfig{})
	conn := dial(t, url, http.Header{"Authorization": {"Bearer expired-token"}})

	assert.Equal(t, MsgInvalidToken, errorMessage(t, readFrame(t, conn)))
	assertPolicyClose(t, conn)
	assert.Zero(t, hub.ClientCount())
}

func TestHandshakeRequiresToken(t *testing.T) {
	_, url := newTestServer(t, HandlerConfig{})
	conn := dial(t, url, nil)

	writeFrame(t, conn, EventJoinRooms, JoinRoomsRequest{Role: models.RoleStudent, UserID: "s1"})
	assert.Equal(t, MsgTokenRequired, errorMessage(t, readFrame(t, conn)))
	assertPolicyClose(t, conn)
}

func TestHandshakeTimesOut(t *testing.T) {
	_, url := newTestServer(t, HandlerConfig{HandshakeTimeout: 50 * time.Millisecond})
	conn := dial(t, url, nil)

	assert.Equal(t, MsgAuthTimeout, errorMessage(t, readFrame(t, conn)))
	assertPolicyClose(t, conn)
}

func TestJoinRoomsAndReceiveClassEvent(t *testing.T) {
	hub, url := newTestServer(t, HandlerConfig{})
	conn := dial(t, url, http.Header{"Authorization": {"Bearer student-token"}})
	require.Equal(t, EventConnected, readFrame(t, conn).Event)

	writeFrame(t, conn, EventJoinRooms, JoinRoomsRequest{Role: models.RoleStudent, ClassID: "C1", UserID: "s1"})
	require.Eventually(t, func() bool { return hub.RoomSize(ClassRoom("C1")) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, hub.RoomSize(RoleRoom(models.RoleStudent)))
	assert.Equal(t, 1, hub.RoomSize(UserRoom("s1")))

	hub.EmitToClass("C1", EventNewAnnouncement, map[string]string{"id": "a1"})
	frame := readFrame(t, conn)
	assert.Equal(t, EventNewAnnouncement, frame.Event)
	assert.JSONEq(t, `{"id":"a1"}`, string(frame.Data))
}

func TestJoinRoomsDeniedClassStillJoinsOwnRooms(t *testing.T) {
	hub, url := newTestServer(t, HandlerConfig{})
	conn := dial(t, url, http.Header{"Authorization": {"Bearer student-token"}})
	require.Equal(t, EventConnected, readFrame(t, conn).Event)

	writeFrame(t, conn, EventJoinRooms, JoinRoomsRequest{Role: models.RoleStudent, ClassID: "C2", UserID: "s1"})
	assert.Contains(t, errorMessage(t, readFrame(t, conn)), "C2")
	require.Eventually(t, func() bool { return hub.RoomSize(UserRoom("s1")) == 1 }, time.Second, 10*time.Millisecond)
	assert.Zero(t, hub.RoomSize(ClassRoom("C2")))
}

func TestJoinRoomsRejectsMismatchedIdentity(t *testing.T) {
	hub, url := newTestServer(t, HandlerConfig{})
	conn := dial(t, url, http.Header{"Authorization": {"Bearer student-token"}})
	require.Equal(t, EventConnected, readFrame(t, conn).Event)

	writeFrame(t, conn, EventJoinRooms, JoinRoomsRequest{Role: models.RoleAdmin, UserID: "s1"})
	assert.NotEmpty(t, errorMessage(t, readFrame(t, conn)))
	assert.Empty(t, hub.Rooms())
}

func TestDisconnectUnregisters(t *testing.T) {
	hub, url := newTestServer(t, HandlerConfig{})
	conn := dial(t, url, http.Header{"Authorization": {"Bearer teacher-token"}})
	require.Equal(t, EventConnected, readFrame(t, conn).Event)

	writeFrame(t, conn, EventJoinRooms, JoinRoomsRequest{Role: models.RoleTeacher, UserID: "t1"})
	require.Eventually(t, func() bool { return hub.RoomSize(UserRoom("t1")) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "bye"))
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
	assert.Empty(t, hub.Rooms())
}
