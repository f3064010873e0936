package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-realtime-api/internal/authz"
	"github.com/noah-isme/sma-realtime-api/internal/models"
	appErrors "github.com/noah-isme/sma-realtime-api/pkg/errors"
)

type gradeRepository interface {
	List(ctx context.Context, filter models.GradeFilter, scope authz.Scope) ([]models.Grade, int, error)
	Create(ctx context.Context, grade *models.Grade) error
}

// GradeService records and lists grades.
type GradeService struct {
	repo      gradeRepository
	students  studentLookup
	access    accessResolver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeService constructs the service.
func NewGradeService(repo gradeRepository, students studentLookup, access accessResolver, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{repo: repo, students: students, access: access, validator: validate, logger: logger}
}

// List returns grades visible to p.
func (s *GradeService) List(ctx context.Context, p authz.Principal, filter models.GradeFilter) ([]models.Grade, *models.Pagination, error) {
	scope, err := s.access.Resolve(ctx, p, authz.KindGrades)
	if err != nil {
		return nil, nil, err
	}
	items, total, err := s.repo.List(ctx, filter, scope)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list grades")
	}
	return items, paginationFor(filter.PageRequest, total), nil
}

// Record stores a grade for a student of classID.
func (s *GradeService) Record(ctx context.Context, p authz.Principal, classID string, req models.RecordGradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid grade payload")
	}
	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		return nil, lookupError(err, "student not found", "failed to load student")
	}
	if student.ClassID == nil || *student.ClassID != classID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student is not enrolled in this class")
	}
	attrs := authz.Attributes{}.Set(authz.FieldClassID, classID).Set(authz.FieldStudentID, student.ID)
	if err := s.access.AuthorizeWrite(ctx, p, authz.KindGrades, attrs); err != nil {
		return nil, err
	}

	grade := &models.Grade{
		StudentID: student.ID,
		ClassID:   classID,
		Subject:   req.Subject,
		Score:     req.Score,
		CreatedBy: p.ID,
	}
	if err := s.repo.Create(ctx, grade); err != nil {
		return nil, appErrors.Internal(err, "failed to record grade")
	}
	return grade, nil
}
