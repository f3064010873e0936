package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-realtime-api/internal/authz"
	"github.com/noah-isme/sma-realtime-api/internal/handler"
	"github.com/noah-isme/sma-realtime-api/internal/models"
	"github.com/noah-isme/sma-realtime-api/internal/service"
	"github.com/noah-isme/sma-realtime-api/pkg/config"
	appErrors "github.com/noah-isme/sma-realtime-api/pkg/errors"
)

type tokens map[string]*models.JWTClaims

func (t tokens) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := t[token]; ok {
		return claims, nil
	}
	return nil, appErrors.ErrInvalidToken
}

type teachesC1 struct{}

func (teachesC1) CanAccessStudent(context.Context, authz.Principal, string) error {
	return appErrors.ErrForbidden
}

func (teachesC1) CanAccessClass(_ context.Context, _ authz.Principal, classID string) error {
	if classID == "C1" {
		return nil
	}
	return appErrors.ErrForbidden
}

type classesStub struct{}

func (classesStub) List(context.Context, authz.Principal) ([]models.Class, error) {
	return []models.Class{{ID: "C1", Name: "X-A"}}, nil
}

func newTestRouter(t *testing.T, ready map[string]ReadinessCheck) http.Handler {
	t.Helper()
	metrics := service.NewMetricsService()
	return NewRouter(Options{
		Config:  &config.Config{Env: config.EnvDevelopment, APIPrefix: "/api/v1"},
		Logger:  zap.NewNop(),
		Tokens:  tokens{"teacher": {UserID: "tA", Role: models.RoleTeacher}, "student": {UserID: "s1", Role: models.RoleStudent}},
		Guard:   authz.NewGuard(teachesC1{}, metrics, nil),
		Metrics: metrics,
		Ready:   ready,
		Handlers: Handlers{
			Classes: handler.NewClassHandler(classesStub{}),
			Realtime: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUpgradeRequired)
			}),
		},
	})
}

func serve(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestOperationalEndpoints(t *testing.T) {
	r := newTestRouter(t, map[string]ReadinessCheck{"postgres": func(context.Context) error { return nil }})

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ready", "").Code)
	assert.Equal(t, http.StatusUpgradeRequired, serve(r, http.MethodGet, "/ws", "").Code)

	rec := serve(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "goroutines_total")
}

func TestReadinessReportsFailingDependency(t *testing.T) {
	r := newTestRouter(t, map[string]ReadinessCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})

	rec := serve(r, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"not_ready","checks":{"postgres":"ok","redis":"connection refused"}}`, rec.Body.String())
}

func TestSecuredRoutes(t *testing.T) {
	r := newTestRouter(t, nil)

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/api/v1/classes", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/v1/classes", "teacher").Code)

	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodPost, "/api/v1/events", "student").Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodPost, "/api/v1/classes/C2/attendance", "teacher").Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/api/v1/parents/me/children", "teacher").Code)
}
