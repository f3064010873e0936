package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-realtime-api/internal/authz"
	"github.com/noah-isme/sma-realtime-api/internal/models"
	"github.com/noah-isme/sma-realtime-api/pkg/response"
)

type gradeService interface {
	List(ctx context.Context, p authz.Principal, filter models.GradeFilter) ([]models.Grade, *models.Pagination, error)
	Record(ctx context.Context, p authz.Principal, classID string, req models.RecordGradeRequest) (*models.Grade, error)
}

// GradeHandler exposes grade endpoints.
type GradeHandler struct {
	grades gradeService
}

// NewGradeHandler constructs GradeHandler.
func NewGradeHandler(grades gradeService) *GradeHandler {
	return &GradeHandler{grades: grades}
}

// List godoc
// @Summary List grades
// @Tags Grades
// @Produce json
// @Param classId query string false "Filter by class"
// @Param studentId query string false "Filter by student"
// @Param subject query string false "Filter by subject"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /grades [get]
func (h *GradeHandler) List(c *gin.Context) {
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	filter := models.GradeFilter{
		PageRequest: pageFromQuery(c),
		ClassID:     c.Query("classId"),
		StudentID:   c.Query("studentId"),
		Subject:     c.Query("subject"),
	}
	items, pagination, err := h.grades.List(c.Request.Context(), p, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	list(c, items, pagination)
}

// Record godoc
// @Summary Record a grade
// @Tags Grades
// @Accept json
// @Produce json
// @Param classId path string true "Class ID"
// @Param payload body models.RecordGradeRequest true "Grade payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /classes/{classId}/grades [post]
func (h *GradeHandler) Record(c *gin.Context) {
	p, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req models.RecordGradeRequest
	if !bindJSON(c, &req, "invalid grade payload") {
		return
	}
	grade, err := h.grades.Record(c.Request.Context(), p, c.Param("classId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, grade)
}
