package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-realtime-api/internal/authz"
	"github.com/noah-isme/sma-realtime-api/internal/models"
	appErrors "github.com/noah-isme/sma-realtime-api/pkg/errors"
)

type assignmentRepository interface {
	List(ctx context.Context, filter models.AssignmentFilter, scope authz.Scope) ([]models.Assignment, int, error)
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, id string) error
}

// AssignmentService manages class assignments.
type AssignmentService struct {
	repo      assignmentRepository
	access    accessResolver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssignmentService constructs the service.
func NewAssignmentService(repo assignmentRepository, access accessResolver, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{repo: repo, access: access, validator: validate, logger: logger}
}

func assignmentAttrs(a *models.Assignment) authz.Attributes {
	return authz.Attributes{}.
		Set(authz.FieldID, a.ID).
		Set(authz.FieldClassID, a.ClassID).
		Set(authz.FieldCreatedBy, a.CreatedBy)
}

// List returns assignments visible to p.
func (s *AssignmentService) List(ctx context.Context, p authz.Principal, filter models.AssignmentFilter) ([]models.Assignment, *models.Pagination, error) {
	scope, err := s.access.Resolve(ctx, p, authz.KindAssignments)
	if err != nil {
		return nil, nil, err
	}
	items, total, err := s.repo.List(ctx, filter, scope)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list assignments")
	}
	return items, paginationFor(filter.PageRequest, total), nil
}

// Create adds an assignment to a class p teaches.
func (s *AssignmentService) Create(ctx context.Context, p authz.Principal, req models.CreateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid assignment payload")
	}
	assignment := &models.Assignment{
		Title:       req.Title,
		Description: req.Description,
		ClassID:     req.ClassID,
		DueDate:     req.DueDate,
		CreatedBy:   p.ID,
	}
	if err := s.access.AuthorizeWrite(ctx, p, authz.KindAssignments, assignmentAttrs(assignment)); err != nil {
		return nil, err
	}
	if err := s.access.CanAccessClass(ctx, p, req.ClassID); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, assignment); err != nil {
		return nil, appErrors.Internal(err, "failed to create assignment")
	}
	return assignment, nil
}

// Update edits an assignment. Teachers may only edit assignments they created.
func (s *AssignmentService) Update(ctx context.Context, p authz.Principal, id string, req models.UpdateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid assignment payload")
	}
	assignment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.access.AuthorizeWrite(ctx, p, authz.KindAssignments, assignmentAttrs(assignment)); err != nil {
		return nil, err
	}
	assignment.Title = req.Title
	assignment.Description = req.Description
	assignment.DueDate = req.DueDate
	if err := s.repo.Update(ctx, assignment); err != nil {
		return nil, lookupError(err, "assignment not found", "failed to update assignment")
	}
	return assignment, nil
}

// Delete removes an assignment under the same ownership rule as Update.
func (s *AssignmentService) Delete(ctx context.Context, p authz.Principal, id string) error {
	assignment, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.access.AuthorizeWrite(ctx, p, authz.KindAssignments, assignmentAttrs(assignment)); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "assignment not found", "failed to delete assignment")
	}
	return nil
}

func (s *AssignmentService) load(ctx context.Context, id string) (*models.Assignment, error) {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "assignment not found", "failed to load assignment")
	}
	return assignment, nil
}
