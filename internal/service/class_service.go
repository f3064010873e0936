package service

import (
	"context"

	"github.com/noah-isme/sma-realtime-api/internal/authz"
	"github.com/noah-isme/sma-realtime-api/internal/models"
	appErrors "github.com/noah-isme/sma-realtime-api/pkg/errors"
)

type classRepository interface {
	List(ctx context.Context, scope authz.Scope) ([]models.Class, error)
}

// ClassService lists the classes a principal can see.
type ClassService struct {
	repo   classRepository
	access accessResolver
}

// NewClassService constructs the service.
func NewClassService(repo classRepository, access accessResolver) *ClassService {
	return &ClassService{repo: repo, access: access}
}

// List returns the classes visible to p.
func (s *ClassService) List(ctx context.Context, p authz.Principal) ([]models.Class, error) {
	scope, err := s.access.Resolve(ctx, p, authz.KindClasses)
	if err != nil {
		return nil, err
	}
	classes, err := s.repo.List(ctx, scope)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list classes")
	}
	return classes, nil
}
