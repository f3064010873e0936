package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-realtime-api/internal/authz"
	"github.com/noah-isme/sma-realtime-api/internal/models"
	appErrors "github.com/noah-isme/sma-realtime-api/pkg/errors"
	"github.com/noah-isme/sma-realtime-api/pkg/response"
)

type eventService interface {
	List(ctx context.Context, p authz.Principal, filter models.EventFilter) ([]models.Event, *models.Pagination, error)
	Create(ctx context.Context, p authz.Principal, req models.EventRequest) (*models.Event, error)
	Update(ctx context.Context, p authz.Principal, id string, req models.EventRequest) (*models.Event, error)
	Delete(ctx context.Context, p authz.Principal, id string) error
}

// EventHandler exposes calendar event endpoints.
type EventHandler struct {
	events eventService
}

// NewEventHandler constructs EventHandler.
func NewEventHandler(events eventService) *EventHandler {
	return &EventHandler{events: events}
}

// List godoc
// @Summary List events
// @Tags Events
// @Produce json
// @Param status query string false "SCHEDULED, COMPLETED or CANCELLED"
// @Param from query string false "Events starting at or after"
// @Param to query string false "Events starting at or before"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	from, ok := timeQuery(c, "from")
	if !ok {
		return
	}
	to, ok := timeQuery(c, "to")
	if !ok {
		return
	}
	filter := models.EventFilter{PageRequest: pageFromQuery(c), From: from, To: to}
	if raw := c.Query("status"); raw != "" {
		status := models.EventStatus(raw)
		if !status.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid status parameter"))
			return
		}
		filter.Status = &status
	}
	items, pagination, err := h.events.List(c.Request.Context(), p, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	list(c, items, pagination)
}

// Create godoc
// @Summary Create event
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body models.EventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /events [post]
func (h *EventHandler) Create(c *gin.Context) {
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req models.EventRequest
	if !bindJSON(c, &req, "invalid event payload") {
		return
	}
	event, err := h.events.Create(c.Request.Context(), p, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Update godoc
// @Summary Update event
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body models.EventRequest true "Event payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /events/{id} [put]
func (h *EventHandler) Update(c *gin.Context) {
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req models.EventRequest
	if !bindJSON(c, &req, "invalid event payload") {
		return
	}
	event, err := h.events.Update(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event)
}

// Delete godoc
// @Summary Delete event
// @Tags Events
// @Param id path string true "Event ID"
// @Success 204
// @Security BearerAuth
// @Router /events/{id} [delete]
func (h *EventHandler) Delete(c *gin.Context) {
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	if err := h.events.Delete(c.Request.Context(), p, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
