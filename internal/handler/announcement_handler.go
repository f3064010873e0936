package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-realtime-api/internal/authz"
	"github.com/noah-isme/sma-realtime-api/internal/models"
	"github.com/noah-isme/sma-realtime-api/pkg/response"
)

type announcementService interface {
	List(ctx context.Context, p authz.Principal, filter models.AnnouncementFilter) ([]models.Announcement, *models.Pagination, error)
	Create(ctx context.Context, p authz.Principal, req models.AnnouncementRequest) (*models.Announcement, error)
	Update(ctx context.Context, p authz.Principal, id string, req models.AnnouncementRequest) (*models.Announcement, error)
	Delete(ctx context.Context, p authz.Principal, id string) error
	MarkRead(ctx context.Context, p authz.Principal, id string) (int, error)
	UnreadCount(ctx context.Context, p authz.Principal) (int, error)
	SetArchived(ctx context.Context, p authz.Principal, id string, archived bool) error
}

// AnnouncementHandler exposes announcement endpoints.
type AnnouncementHandler struct {
	announcements announcementService
}

// NewAnnouncementHandler constructs AnnouncementHandler.
func NewAnnouncementHandler(announcements announcementService) *AnnouncementHandler {
	return &AnnouncementHandler{announcements: announcements}
}

// List godoc
// @Summary List announcements
// @Tags Announcements
// @Produce json
// @Param includeArchived query bool false "Include archived announcements"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /announcements [get]
func (h *AnnouncementHandler) List(c *gin.Context) {
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	filter := models.AnnouncementFilter{
		PageRequest:     pageFromQuery(c),
		IncludeArchived: c.Query("includeArchived") == "true",
	}
	items, pagination, err := h.announcements.List(c.Request.Context(), p, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	list(c, items, pagination)
}

// Create godoc
// @Summary Publish announcement
// @Tags Announcements
// @Accept json
// @Produce json
// @Param payload body models.AnnouncementRequest true "Announcement payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /announcements [post]
func (h *AnnouncementHandler) Create(c *gin.Context) {
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req models.AnnouncementRequest
	if !bindJSON(c, &req, "invalid announcement payload") {
		return
	}
	announcement, err := h.announcements.Create(c.Request.Context(), p, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, announcement)
}

// Update godoc
// @Summary Update announcement
// @Tags Announcements
// @Accept json
// @Produce json
// @Param id path string true "Announcement ID"
// @Param payload body models.AnnouncementRequest true "Announcement payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /announcements/{id} [put]
func (h *AnnouncementHandler) Update(c *gin.Context) {
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req models.AnnouncementRequest
	if !bindJSON(c, &req, "invalid announcement payload") {
		return
	}
	announcement, err := h.announcements.Update(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, announcement)
}

// Delete godoc
// @Summary Delete announcement
// @Tags Announcements
// @Param id path string true "Announcement ID"
// @Success 204
// @Security BearerAuth
// @Router /announcements/{id} [delete]
func (h *AnnouncementHandler) Delete(c *gin.Context) {
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	if err := h.announcements.Delete(c.Request.Context(), p, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MarkRead godoc
// @Summary Mark announcement as read
// @Tags Announcements
// @Produce json
// @Param id path string true "Announcement ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /announcements/{id}/read [post]
func (h *AnnouncementHandler) MarkRead(c *gin.Context) {
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	unread, err := h.announcements.MarkRead(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"announcement_id": c.Param("id"), "is_read": true, "unread_count": unread})
}

// UnreadCount godoc
// @Summary Count unread announcements
// @Tags Announcements
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /announcements/unread-count [get]
func (h *AnnouncementHandler) UnreadCount(c *gin.Context) {
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	count, err := h.announcements.UnreadCount(c.Request.Context(), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"count": count})
}

// Archive godoc
// @Summary Archive or restore announcement
// @Tags Announcements
// @Accept json
// @Produce json
// @Param id path string true "Announcement ID"
// @Param payload body models.ArchiveRequest true "Archive flag"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /announcements/{id}/archive [patch]
func (h *AnnouncementHandler) Archive(c *gin.Context) {
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req models.ArchiveRequest
	if !bindJSON(c, &req, "invalid archive payload") {
		return
	}
	if err := h.announcements.SetArchived(c.Request.Context(), p, c.Param("id"), req.IsArchived); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"id": c.Param("id"), "is_archived": req.IsArchived})
}
