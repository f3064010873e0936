package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-realtime-api/internal/authz"
	"github.com/noah-isme/sma-realtime-api/internal/models"
)

// TokenValidator verifies access tokens presented at the handshake.
type TokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// ClassAccess decides whether a principal may join a class room.
type ClassAccess interface {
	CanAccessClass(ctx context.Context, p authz.Principal, classID string) error
}

// HandlerConfig tunes the websocket endpoint.
type HandlerConfig struct {
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	SendBuffer       int
	OriginPatterns   []string
}

// Handler upgrades HTTP requests into hub connections.
type Handler struct {
	hub       *Hub
	tokens    TokenValidator
	access    ClassAccess
	cfg       HandlerConfig
	validator *validator.Validate
	logger    *zap.Logger
}

type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type readResult struct {
	frame inboundFrame
	err   error
}

// NewHandler constructs the websocket handler.
func NewHandler(hub *Hub, tokens TokenValidator, access ClassAccess, cfg HandlerConfig, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 5 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	return &Handler{hub: hub, tokens: tokens, access: access, cfg: cfg, validator: validator.New(), logger: logger}
}

// ServeHTTP runs one connection from upgrade to disconnect.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	opts := &websocket.AcceptOptions{}
	if len(h.cfg.OriginPatterns) > 0 {
		opts.OriginPatterns = h.cfg.OriginPatterns
	}
	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	principal, ok := h.authenticate(ctx, conn, r)
	if !ok {
		return
	}

	client := NewClient(principal, h.cfg.SendBuffer)
	if err := h.hub.Register(client); err != nil {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer h.hub.Unregister(client)

	started := time.Now()
	h.logger.Info("ws_connected",
		zap.String("connection_id", client.ID()),
		zap.String("user_id", principal.ID),
		zap.String("role", string(principal.Role)),
	)
	h.hub.SendTo(client, EventConnected, ConnectedPayload{Message: "Successfully connected", UserID: principal.ID})

	go h.readLoop(ctx, cancel, conn, client)
	h.writeLoop(ctx, conn, client)

	h.logger.Info("ws_disconnected",
		zap.String("connection_id", client.ID()),
		zap.String("user_id", principal.ID),
		zap.Duration("duration", time.Since(started)),
	)
}

func (h *Handler) authenticate(ctx context.Context, conn *websocket.Conn, r *http.Request) (authz.Principal, bool) {
	token := bearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = strings.TrimSpace(r.URL.Query().Get("token"))
	}

	if token == "" {
		results := make(chan readResult, 1)
		go func() {
			var frame inboundFrame
			err := wsjson.Read(ctx, conn, &frame)
			results <- readResult{frame: frame, err: err}
		}()

		timer := time.NewTimer(h.cfg.HandshakeTimeout)
		defer timer.Stop()

		select {
		case <-timer.C:
			h.reject(ctx, conn, MsgAuthTimeout)
			return authz.Principal{}, false
		case res := <-results:
			if res.err != nil {
				return authz.Principal{}, false
			}
			if res.frame.Event == EventAuthenticate {
				var payload AuthenticatePayload
				if err := json.Unmarshal(res.frame.Data, &payload); err == nil {
					token = strings.TrimSpace(payload.Token)
				}
			}
		}
	}

	if token == "" {
		h.reject(ctx, conn, MsgTokenRequired)
		return authz.Principal{}, false
	}

	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		h.reject(ctx, conn, MsgInvalidToken)
		return authz.Principal{}, false
	}
	return authz.Principal{ID: claims.UserID, Role: claims.Role}, true
}

func (h *Handler) reject(ctx context.Context, conn *websocket.Conn, message string) {
	h.logger.Info("ws_auth_failed", zap.String("reason", message))
	writeCtx, cancel := context.WithTimeout(ctx, h.cfg.WriteTimeout)
	_ = wsjson.Write(writeCtx, conn, Frame{Event: EventError, Data: ErrorPayload{Message: message}})
	cancel()
	_ = conn.Close(websocket.StatusPolicyViolation, message)
}

func (h *Handler) writeLoop(ctx context.Context, conn *websocket.Conn, client *Client) {
	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "closed")
			return
		case <-client.Done():
			status, reason := client.CloseStatus()
			_ = conn.Close(status, reason)
			return
		case frame := <-client.Send():
			writeCtx, cancel := context.WithTimeout(ctx, h.cfg.WriteTimeout)
			err := wsjson.Write(writeCtx, conn, frame)
			cancel()
			if err != nil {
				h.logger.Debug("websocket write failed", zap.String("connection_id", client.ID()), zap.Error(err))
				_ = conn.Close(websocket.StatusInternalError, "write_failed")
				return
			}
		}
	}
}

func (h *Handler) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, client *Client) {
	defer cancel()
	for {
		var frame inboundFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			return
		}
		switch frame.Event {
		case EventJoinRooms:
			h.joinRooms(ctx, client, frame.Data)
		case EventAuthenticate:
			h.hub.SendTo(client, EventError, ErrorPayload{Message: "Already authenticated"})
		default:
			h.hub.SendTo(client, EventError, ErrorPayload{Message: "Unknown event: " + frame.Event})
		}
	}
}

func (h *Handler) joinRooms(ctx context.Context, client *Client, data json.RawMessage) {
	var req JoinRoomsRequest
	if err := json.Unmarshal(data, &req); err != nil || h.validator.Struct(req) != nil {
		h.hub.SendTo(client, EventError, ErrorPayload{Message: "Invalid joinRooms payload"})
		return
	}

	p := client.Principal()
	if req.Role != p.Role || req.UserID != p.ID {
		h.hub.SendTo(client, EventError, ErrorPayload{Message: "Room request does not match the authenticated user"})
		return
	}

	rooms := []string{RoleRoom(p.Role), UserRoom(p.ID)}
	if req.ClassID != "" {
		if err := h.access.CanAccessClass(ctx, p, req.ClassID); err != nil {
			h.hub.SendTo(client, EventError, ErrorPayload{Message: "Not allowed to join class " + req.ClassID})
		} else {
			rooms = append(rooms, ClassRoom(req.ClassID))
		}
	}
	h.hub.Join(client, rooms...)
	h.logger.Debug("ws_rooms_joined", zap.String("connection_id", client.ID()), zap.Strings("rooms", rooms))
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
