package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-realtime-api/internal/authz"
	"github.com/noah-isme/sma-realtime-api/internal/models"
	appErrors "github.com/noah-isme/sma-realtime-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter, scope authz.Scope) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Student, error)
}

// StudentService handles student reads.
type StudentService struct {
	repo   studentRepository
	access accessResolver
	logger *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, access accessResolver, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, access: access, logger: logger}
}

// List returns students visible to p and pagination metadata.
func (s *StudentService) List(ctx context.Context, p authz.Principal, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	scope, err := s.access.Resolve(ctx, p, authz.KindStudents)
	if err != nil {
		return nil, nil, err
	}
	students, total, err := s.repo.List(ctx, filter, scope)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list students")
	}
	return students, paginationFor(filter.PageRequest, total), nil
}

// Get returns one student when p may see it.
func (s *StudentService) Get(ctx context.Context, p authz.Principal, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "student not found", "failed to load student")
	}
	attrs := authz.Attributes{}.Set(authz.FieldID, student.ID).SetPtr(authz.FieldClassID, student.ClassID)
	if err := s.access.CanRead(ctx, p, authz.KindStudents, attrs); err != nil {
		return nil, err
	}
	return student, nil
}

// ListChildren returns the students linked to a parent.
func (s *StudentService) ListChildren(ctx context.Context, p authz.Principal) ([]models.Student, error) {
	ids, err := s.access.ChildIDs(ctx, p)
	if err != nil {
		return nil, err
	}
	students, err := s.repo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load children")
	}
	return students, nil
}
