package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-realtime-api/internal/authz"
	"github.com/noah-isme/sma-realtime-api/internal/middleware"
	"github.com/noah-isme/sma-realtime-api/internal/models"
	appErrors "github.com/noah-isme/sma-realtime-api/pkg/errors"
	"github.com/noah-isme/sma-realtime-api/pkg/response"
)

// principalFromContext returns the caller, writing 401 when none is present.
func principalFromContext(c *gin.Context) (authz.Principal, bool) {
	p := middleware.PrincipalFromContext(c)
	if p == nil {
		response.Error(c, appErrors.ErrUnauthenticated)
		return authz.Principal{}, false
	}
	return *p, true
}

func pageFromQuery(c *gin.Context) models.PageRequest {
	var page models.PageRequest
	if v, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		page.Page = v
	}
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		page.PageSize = v
	}
	return page
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

// timeQuery parses an optional RFC 3339 or date-only query value.
func timeQuery(c *gin.Context, key string) (*time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, true
		}
	}
	response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid "+key+" parameter"))
	return nil, false
}

// list writes a paginated list response with the request metadata.
func list(c *gin.Context, data interface{}, pagination *models.Pagination) {
	response.Page(c, data, pagination, middleware.ExtractMeta(c))
}
