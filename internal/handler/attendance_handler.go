package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-realtime-api/internal/authz"
	"github.com/noah-isme/sma-realtime-api/internal/models"
	"github.com/noah-isme/sma-realtime-api/pkg/response"
)

type attendanceService interface {
	List(ctx context.Context, p authz.Principal, filter models.AttendanceFilter) ([]models.Attendance, *models.Pagination, error)
	Mark(ctx context.Context, p authz.Principal, classID string, req models.MarkAttendanceRequest) (*models.Attendance, error)
}

// AttendanceHandler exposes attendance endpoints.
type AttendanceHandler struct {
	attendance attendanceService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance attendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// List godoc
// @Summary List attendance
// @Tags Attendance
// @Produce json
// @Param classId query string false "Filter by class"
// @Param studentId query string false "Filter by student"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
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
	filter := models.AttendanceFilter{
		PageRequest: pageFromQuery(c),
		ClassID:     c.Query("classId"),
		StudentID:   c.Query("studentId"),
		DateFrom:    from,
		DateTo:      to,
	}
	items, pagination, err := h.attendance.List(c.Request.Context(), p, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	list(c, items, pagination)
}

// Mark godoc
// @Summary Mark attendance for a student of a class
// @Tags Attendance
// @Accept json
// @Produce json
// @Param classId path string true "Class ID"
// @Param payload body models.MarkAttendanceRequest true "Attendance payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /classes/{classId}/attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req models.MarkAttendanceRequest
	if !bindJSON(c, &req, "invalid attendance payload") {
		return
	}
	record, err := h.attendance.Mark(c.Request.Context(), p, c.Param("classId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}
