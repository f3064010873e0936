package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-realtime-api/internal/authz"
	"github.com/noah-isme/sma-realtime-api/internal/models"
	"github.com/noah-isme/sma-realtime-api/internal/outbox"
	"github.com/noah-isme/sma-realtime-api/internal/realtime"
	appErrors "github.com/noah-isme/sma-realtime-api/pkg/errors"
)

type eventRepository interface {
	List(ctx context.Context, filter models.EventFilter, scope authz.Scope) ([]models.Event, int, error)
	FindByID(ctx context.Context, id string) (*models.Event, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id string) error
}

// EventService manages calendar events.
type EventService struct {
	repo      eventRepository
	tx        transactor
	access    accessResolver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEventService constructs the service.
func NewEventService(repo eventRepository, tx transactor, access accessResolver, validate *validator.Validate, logger *zap.Logger) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{repo: repo, tx: tx, access: access, validator: validate, logger: logger}
}

func eventAttrs(e *models.Event) authz.Attributes {
	return authz.Attributes{}.
		Set(authz.FieldID, e.ID).
		SetPtr(authz.FieldClassID, e.ClassID).
		Set(authz.FieldCreatedBy, e.CreatedBy).
		SetAll(authz.FieldTargetRoles, e.TargetRoles)
}

// eventTarget addresses the listed roles plus the class room when class scoped. An
// event without roles goes to its class, or to everyone when it has no class either.
func eventTarget(e *models.Event) outbox.Target {
	hasClass := e.ClassID != nil && *e.ClassID != ""
	switch {
	case len(e.TargetRoles) == 0 && !hasClass:
		return outbox.ToAll()
	case len(e.TargetRoles) == 0:
		return outbox.ToClass(*e.ClassID)
	case hasClass:
		return outbox.Merge(outbox.ToRoles(models.ParseRoles(e.TargetRoles)...), outbox.ToClass(*e.ClassID))
	default:
		return outbox.ToRoles(models.ParseRoles(e.TargetRoles)...)
	}
}

func stageEvent(ctx context.Context, e *models.Event, name string, payload any) error {
	return outbox.Stage(ctx, outbox.Message{Target: eventTarget(e), Event: name, Payload: payload})
}

// List returns the events visible to p.
func (s *EventService) List(ctx context.Context, p authz.Principal, filter models.EventFilter) ([]models.Event, *models.Pagination, error) {
	scope, err := s.access.Resolve(ctx, p, authz.KindEvents)
	if err != nil {
		return nil, nil, err
	}
	items, total, err := s.repo.List(ctx, filter, scope)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list events")
	}
	return items, paginationFor(filter.PageRequest, total), nil
}

// Create schedules an event and notifies its audience.
func (s *EventService) Create(ctx context.Context, p authz.Principal, req models.EventRequest) (*models.Event, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	event := &models.Event{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Status:      models.EventStatusScheduled,
		TargetRoles: models.RoleStrings(req.TargetRoles),
		ClassID:     req.ClassID,
		CreatedBy:   p.ID,
	}
	if err := s.authorizeAudience(ctx, p, event); err != nil {
		return nil, err
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, event); err != nil {
			return err
		}
		return stageEvent(ctx, event, realtime.EventEventCreated, realtime.EventCreatedPayload{
			Message:     "New event: " + event.Title,
			Event:       event,
			TargetRoles: req.TargetRoles,
		})
	})
	if err != nil {
		return nil, txError(err, "failed to create event")
	}
	return event, nil
}

// Update edits an event owned by p, or any event for administrators.
func (s *EventService) Update(ctx context.Context, p authz.Principal, id string, req models.EventRequest) (*models.Event, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	event, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.access.AuthorizeWrite(ctx, p, authz.KindEvents, eventAttrs(event)); err != nil {
		return nil, err
	}

	event.Title = req.Title
	event.Description = req.Description
	event.Location = req.Location
	event.StartTime = req.StartTime
	event.EndTime = req.EndTime
	event.TargetRoles = models.RoleStrings(req.TargetRoles)
	event.ClassID = req.ClassID
	if err := s.authorizeAudience(ctx, p, event); err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, event); err != nil {
			return err
		}
		return stageEvent(ctx, event, realtime.EventEventUpdated, realtime.EventUpdatedPayload{
			Message: "Event updated: " + event.Title,
			Event:   event,
		})
	})
	if err != nil {
		return nil, txError(err, "failed to update event")
	}
	return event, nil
}

// Delete removes an event and notifies its former audience.
func (s *EventService) Delete(ctx context.Context, p authz.Principal, id string) error {
	event, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.access.AuthorizeWrite(ctx, p, authz.KindEvents, eventAttrs(event)); err != nil {
		return err
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, id); err != nil {
			return err
		}
		return stageEvent(ctx, event, realtime.EventDeleteEvent, realtime.MessagePayload{
			Message: "Event cancelled: " + event.Title,
		})
	})
	if err != nil {
		return txError(err, "failed to delete event")
	}
	return nil
}

func (s *EventService) validateRequest(req models.EventRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid event payload")
	}
	if !req.EndTime.After(req.StartTime) {
		return validationError(errors.New("end_time must be after start_time"), "invalid event payload")
	}
	return nil
}

func (s *EventService) load(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "event not found", "failed to load event")
	}
	return event, nil
}

func (s *EventService) authorizeAudience(ctx context.Context, p authz.Principal, e *models.Event) error {
	if err := s.access.AuthorizeWrite(ctx, p, authz.KindEvents, eventAttrs(e)); err != nil {
		return err
	}
	if e.ClassID != nil && *e.ClassID != "" {
		return s.access.CanAccessClass(ctx, p, *e.ClassID)
	}
	return nil
}
