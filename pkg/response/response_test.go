package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-realtime-api/internal/models"
	appErrors "github.com/noah-isme/sma-realtime-api/pkg/errors"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestPageCarriesPaginationAndMeta(t *testing.T) {
	c, w := newContext()
	Page(c, []string{"s1"}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, map[string]interface{}{"processing_time_ms": 3})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	body := decode(t, w)
	assert.JSONEq(t, `["s1"]`, string(body["data"]))
	assert.JSONEq(t, `{"page":1,"page_size":20,"total_count":1}`, string(body["pagination"]))
	assert.JSONEq(t, `{"processing_time_ms":3}`, string(body["meta"]))
}

func TestJSONOmitsListFields(t *testing.T) {
	c, w := newContext()
	JSON(c, http.StatusOK, map[string]int{"count": 2})

	body := decode(t, w)
	assert.NotContains(t, body, "pagination")
	assert.NotContains(t, body, "meta")
	assert.NotContains(t, body, "error")
}

func TestErrorAttachesServerFailures(t *testing.T) {
	c, w := newContext()
	Error(c, errors.New("connection reset"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Len(t, c.Errors, 1)

	c, w = newContext()
	Error(c, appErrors.ErrForbidden)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, c.Errors)
	assert.Contains(t, decode(t, w), "error")
}
