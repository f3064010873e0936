// Package response writes the HTTP envelope shared by every REST endpoint:
//
//	{"data": ..., "pagination": {...}, "meta": {"processing_time_ms": ...}}
//	{"error": {"code": ..., "message": ..., "status": ...}}
//
// Pagination is only present on list endpoints. Meta carries request-scoped
// values collected by middleware.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-realtime-api/internal/models"
	appErrors "github.com/noah-isme/sma-realtime-api/pkg/errors"
)

// Envelope is the body of every REST response.
type Envelope struct {
	Data       interface{}            `json:"data,omitempty"`
	Error      *appErrors.Error       `json:"error,omitempty"`
	Pagination *models.Pagination     `json:"pagination,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// JSON sends a single resource.
func JSON(c *gin.Context, status int, data interface{}) {
	write(c, status, Envelope{Data: data})
}

// Page sends one page of a scoped list with its pagination and request meta.
func Page(c *gin.Context, data interface{}, pagination *models.Pagination, meta map[string]interface{}) {
	write(c, http.StatusOK, Envelope{Data: data, Pagination: pagination, Meta: meta})
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data)
}

// Error maps err onto its typed error. Server-side failures are attached to the
// gin context so the access log records the cause.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	if appErr.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	write(c, appErr.Status, Envelope{Error: appErr})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Scoped responses differ per principal and must never be cached by intermediaries.
func write(c *gin.Context, status int, body Envelope) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, body)
}
