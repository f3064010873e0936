package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-realtime-api/internal/authz"
	"github.com/noah-isme/sma-realtime-api/internal/models"
	"github.com/noah-isme/sma-realtime-api/internal/outbox"
	"github.com/noah-isme/sma-realtime-api/internal/realtime"
	appErrors "github.com/noah-isme/sma-realtime-api/pkg/errors"
)

type announcementRepository interface {
	List(ctx context.Context, filter models.AnnouncementFilter, scope authz.Scope) ([]models.Announcement, int, error)
	FindByID(ctx context.Context, id string) (*models.Announcement, error)
	ExistsActiveTitle(ctx context.Context, title, excludeID string) (bool, error)
	Create(ctx context.Context, announcement *models.Announcement) error
	Update(ctx context.Context, announcement *models.Announcement) error
	SetArchived(ctx context.Context, id string, archived bool, at time.Time) error
	Delete(ctx context.Context, id string) error
	MarkRead(ctx context.Context, announcementID, userID string, at time.Time) error
	UnreadCount(ctx context.Context, userID string, scope authz.Scope) (int, error)
}

// AnnouncementService handles announcement workflows and their broadcasts.
type AnnouncementService struct {
	repo      announcementRepository
	tx        transactor
	access    accessResolver
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAnnouncementService constructs the service.
func NewAnnouncementService(repo announcementRepository, tx transactor, access accessResolver, validate *validator.Validate, logger *zap.Logger) *AnnouncementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementService{repo: repo, tx: tx, access: access, validator: validate, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

func announcementAttrs(a *models.Announcement) authz.Attributes {
	return authz.Attributes{}.
		Set(authz.FieldID, a.ID).
		SetPtr(authz.FieldClassID, a.ClassID).
		Set(authz.FieldCreatedBy, a.CreatedBy).
		SetAll(authz.FieldTargetRoles, a.TargetRoles)
}

// List returns the announcements visible to p.
func (s *AnnouncementService) List(ctx context.Context, p authz.Principal, filter models.AnnouncementFilter) ([]models.Announcement, *models.Pagination, error) {
	scope, err := s.access.Resolve(ctx, p, authz.KindAnnouncements)
	if err != nil {
		return nil, nil, err
	}
	items, total, err := s.repo.List(ctx, filter, scope)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list announcements")
	}
	return items, paginationFor(filter.PageRequest, total), nil
}

// Create stores an announcement and pushes it to its audience after commit.
func (s *AnnouncementService) Create(ctx context.Context, p authz.Principal, req models.AnnouncementRequest) (*models.Announcement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid announcement payload")
	}
	announcement := &models.Announcement{
		Title:       req.Title,
		Content:     req.Content,
		Priority:    req.Priority,
		TargetRoles: models.RoleStrings(req.TargetRoles),
		ClassID:     req.ClassID,
		CreatedBy:   p.ID,
	}
	if err := s.authorizeAudience(ctx, p, announcement); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueTitle(ctx, req.Title, ""); err != nil {
		return nil, err
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, announcement); err != nil {
			return err
		}
		return outbox.Stage(ctx, outbox.Message{
			Target:  audienceTarget(announcement.ClassID, announcement.TargetRoles),
			Event:   realtime.EventNewAnnouncement,
			Payload: announcement,
		})
	})
	if err != nil {
		return nil, txError(err, "failed to create announcement")
	}
	s.logger.Info("announcement created", zap.String("announcement_id", announcement.ID), zap.String("created_by", p.ID))
	return announcement, nil
}

// Update edits an announcement. Teachers may only edit their own.
func (s *AnnouncementService) Update(ctx context.Context, p authz.Principal, id string, req models.AnnouncementRequest) (*models.Announcement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid announcement payload")
	}
	announcement, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.access.AuthorizeWrite(ctx, p, authz.KindAnnouncements, announcementAttrs(announcement)); err != nil {
		return nil, err
	}

	announcement.Title = req.Title
	announcement.Content = req.Content
	if req.Priority != "" {
		announcement.Priority = req.Priority
	}
	announcement.TargetRoles = models.RoleStrings(req.TargetRoles)
	announcement.ClassID = req.ClassID
	if err := s.authorizeAudience(ctx, p, announcement); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueTitle(ctx, req.Title, id); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, announcement); err != nil {
		return nil, lookupError(err, "announcement not found", "failed to update announcement")
	}
	return announcement, nil
}

// MarkRead records that p read an announcement and refreshes p's unread count.
func (s *AnnouncementService) MarkRead(ctx context.Context, p authz.Principal, id string) (int, error) {
	announcement, err := s.load(ctx, id)
	if err != nil {
		return 0, err
	}
	if err := s.access.CanRead(ctx, p, authz.KindAnnouncements, announcementAttrs(announcement)); err != nil {
		return 0, err
	}
	scope, err := s.access.Resolve(ctx, p, authz.KindAnnouncements)
	if err != nil {
		return 0, err
	}

	var unread int
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.MarkRead(ctx, id, p.ID, s.now()); err != nil {
			return err
		}
		count, err := s.repo.UnreadCount(ctx, p.ID, scope)
		if err != nil {
			return err
		}
		unread = count
		if err := outbox.Stage(ctx, outbox.Message{
			Target:  outbox.ToUser(p.ID),
			Event:   realtime.EventReadStatus,
			Payload: realtime.ReadStatusPayload{AnnouncementID: id, IsRead: true},
		}); err != nil {
			return err
		}
		return outbox.Stage(ctx, outbox.Message{
			Target:  outbox.ToUser(p.ID),
			Event:   realtime.EventUnreadCount,
			Payload: realtime.UnreadCountPayload{Count: count},
		})
	})
	if err != nil {
		return 0, txError(err, "failed to mark announcement as read")
	}
	return unread, nil
}

// UnreadCount returns how many visible, active announcements p has not read.
func (s *AnnouncementService) UnreadCount(ctx context.Context, p authz.Principal) (int, error) {
	scope, err := s.access.Resolve(ctx, p, authz.KindAnnouncements)
	if err != nil {
		return 0, err
	}
	count, err := s.repo.UnreadCount(ctx, p.ID, scope)
	if err != nil {
		return 0, appErrors.Internal(err, "failed to count unread announcements")
	}
	return count, nil
}

// SetArchived archives or restores an announcement.
func (s *AnnouncementService) SetArchived(ctx context.Context, p authz.Principal, id string, archived bool) error {
	announcement, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.access.AuthorizeWrite(ctx, p, authz.KindAnnouncements, announcementAttrs(announcement)); err != nil {
		return err
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.SetArchived(ctx, id, archived, s.now()); err != nil {
			return err
		}
		return outbox.Stage(ctx, outbox.Message{
			Target:  outbox.ToAll(),
			Event:   realtime.EventAnnouncementArchiveStatus,
			Payload: realtime.ArchiveStatusPayload{ID: id, IsArchived: archived},
		})
	})
	if err != nil {
		return txError(err, "failed to update archive status")
	}
	return nil
}

// Delete removes an announcement and tells every client.
func (s *AnnouncementService) Delete(ctx context.Context, p authz.Principal, id string) error {
	announcement, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.access.AuthorizeWrite(ctx, p, authz.KindAnnouncements, announcementAttrs(announcement)); err != nil {
		return err
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, id); err != nil {
			return err
		}
		return outbox.Stage(ctx, outbox.Message{
			Target:  outbox.ToAll(),
			Event:   realtime.EventAnnouncementDeleted,
			Payload: realtime.AnnouncementDeletedPayload{ID: id},
		})
	})
	if err != nil {
		return txError(err, "failed to delete announcement")
	}
	s.logger.Info("announcement deleted", zap.String("announcement_id", id), zap.String("deleted_by", p.ID))
	return nil
}

func (s *AnnouncementService) load(ctx context.Context, id string) (*models.Announcement, error) {
	announcement, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "announcement not found", "failed to load announcement")
	}
	return announcement, nil
}

// authorizeAudience checks that p may publish to the record's audience.
func (s *AnnouncementService) authorizeAudience(ctx context.Context, p authz.Principal, a *models.Announcement) error {
	if err := s.access.AuthorizeWrite(ctx, p, authz.KindAnnouncements, announcementAttrs(a)); err != nil {
		return err
	}
	if a.ClassID != nil && *a.ClassID != "" {
		return s.access.CanAccessClass(ctx, p, *a.ClassID)
	}
	return nil
}

func (s *AnnouncementService) ensureUniqueTitle(ctx context.Context, title, excludeID string) error {
	exists, err := s.repo.ExistsActiveTitle(ctx, title, excludeID)
	if err != nil {
		return appErrors.Internal(err, "failed to validate announcement title")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "an active announcement with this title already exists")
	}
	return nil
}
