package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-realtime-api/internal/authz"
	"github.com/noah-isme/sma-realtime-api/internal/models"
	"github.com/noah-isme/sma-realtime-api/internal/service"
	appErrors "github.com/noah-isme/sma-realtime-api/pkg/errors"
)

type tokenStub map[string]*models.JWTClaims

func (s tokenStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.ErrInvalidToken
}

// membershipStub grants teachers and parents access to the listed ids only.
type membershipStub struct {
	students map[string][]string
	classes  map[string][]string
}

func (m membershipStub) CanAccessStudent(_ context.Context, p authz.Principal, studentID string) error {
	for _, id := range m.students[p.ID] {
		if id == studentID {
			return nil
		}
	}
	return appErrors.ErrForbidden
}

func (m membershipStub) CanAccessClass(_ context.Context, p authz.Principal, classID string) error {
	for _, id := range m.classes[p.ID] {
		if id == classID {
			return nil
		}
	}
	return appErrors.ErrForbidden
}

var testTokens = tokenStub{
	"admin":   {UserID: "a1", Role: models.RoleAdmin},
	"super":   {UserID: "su", Role: models.RoleSuperAdmin},
	"teacher": {UserID: "tA", Role: models.RoleTeacher},
	"parent":  {UserID: "p1", Role: models.RoleParent},
	"student": {UserID: "s1", Role: models.RoleStudent},
}

func newRouter(metrics *service.MetricsService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	guard := authz.NewGuard(membershipStub{
		students: map[string][]string{"tA": {"s1"}, "p1": {"s1"}},
		classes:  map[string][]string{"tA": {"C1"}, "p1": {"C1"}},
	}, metrics, nil)

	r := gin.New()
	r.Use(Metrics(metrics), WithResponseMeta())
	api := r.Group("/api", JWT(testTokens))
	api.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": PrincipalFromContext(c).ID})
	})
	api.GET("/classes/:classId/attendance", Authorize(guard, models.RoleAdmin, models.RoleTeacher), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	api.GET("/grades", Authorize(guard, models.RoleAdmin, models.RoleTeacher, models.RoleParent), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return body.Error.Code
}

func TestJWTRequiresBearerToken(t *testing.T) {
	r := newRouter(nil)

	rec := do(r, http.MethodGet, "/api/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, appErrors.ErrUnauthenticated.Code, errorCode(t, rec))

	rec = do(r, http.MethodGet, "/api/me", "forged")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, appErrors.ErrInvalidToken.Code, errorCode(t, rec))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(r, http.MethodGet, "/api/me", "student")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"s1"}`, rec.Body.String())
}

func TestAuthorizeRolesAndTargets(t *testing.T) {
	r := newRouter(nil)

	cases := []struct {
		name   string
		path   string
		token  string
		status int
	}{
		{"admin any class", "/api/classes/C9/attendance", "admin", http.StatusNoContent},
		{"super admin bypasses role list", "/api/classes/C9/attendance", "super", http.StatusNoContent},
		{"teacher own class", "/api/classes/C1/attendance", "teacher", http.StatusNoContent},
		{"teacher foreign class", "/api/classes/C2/attendance", "teacher", http.StatusForbidden},
		{"student role not allowed", "/api/classes/C1/attendance", "student", http.StatusForbidden},
		{"parent own child by query", "/api/grades?studentId=s1", "parent", http.StatusNoContent},
		{"parent other child by query", "/api/grades?studentId=s2", "parent", http.StatusForbidden},
		{"parent without target", "/api/grades", "parent", http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(r, http.MethodGet, tc.path, tc.token)
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusForbidden {
				assert.Equal(t, appErrors.ErrForbidden.Code, errorCode(t, rec))
			}
		})
	}
}

func TestAuthorizeWithoutPrincipalIsUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/open", Authorize(authz.NewGuard(membershipStub{}, nil, nil)), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	rec := do(r, http.MethodGet, "/open", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMetricsMiddlewareRecordsRouteAndDenials(t *testing.T) {
	metrics := service.NewMetricsService()
	r := newRouter(metrics)

	do(r, http.MethodGet, "/api/classes/C2/attendance", "teacher")
	do(r, http.MethodGet, "/api/me", "student")

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `authz_denials_total{reason="target"} 1`)
	assert.True(t, strings.Contains(body, `path="/api/classes/:classId/attendance"`))
	assert.Contains(t, body, `http_requests_total{method="GET",path="/api/me",status="200"} 1`)
}

func TestResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var captured map[string]interface{}
	r := gin.New()
	r.Use(WithResponseMeta())
	r.GET("/", func(c *gin.Context) {
		SetMeta(c, "scope", "restricted")
		captured = ExtractMeta(c)
		c.Status(http.StatusNoContent)
	})

	do(r, http.MethodGet, "/", "")
	require.NotNil(t, captured)
	assert.Equal(t, "restricted", captured["scope"])
	assert.Contains(t, captured, "processing_time_ms")
}
