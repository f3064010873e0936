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

type attendanceRepository interface {
	List(ctx context.Context, filter models.AttendanceFilter, scope authz.Scope) ([]models.Attendance, int, error)
	Upsert(ctx context.Context, attendance *models.Attendance) error
}

type studentLookup interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type parentLookup interface {
	StudentParentIDs(ctx context.Context, studentID string) ([]string, error)
}

// AttendanceService records daily attendance.
type AttendanceService struct {
	repo      attendanceRepository
	students  studentLookup
	parents   parentLookup
	tx        transactor
	access    accessResolver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the service.
func NewAttendanceService(repo attendanceRepository, students studentLookup, parents parentLookup, tx transactor, access accessResolver, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, students: students, parents: parents, tx: tx, access: access, validator: validate, logger: logger}
}

// List returns attendance visible to p.
func (s *AttendanceService) List(ctx context.Context, p authz.Principal, filter models.AttendanceFilter) ([]models.Attendance, *models.Pagination, error) {
	scope, err := s.access.Resolve(ctx, p, authz.KindAttendance)
	if err != nil {
		return nil, nil, err
	}
	items, total, err := s.repo.List(ctx, filter, scope)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list attendance")
	}
	return items, paginationFor(filter.PageRequest, total), nil
}

// Mark records a student's attendance in classID and notifies the class, the
// student and the student's parents.
func (s *AttendanceService) Mark(ctx context.Context, p authz.Principal, classID string, req models.MarkAttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid attendance payload")
	}
	if !req.Status.Valid() {
		return nil, validationError(errors.New("unknown status "+string(req.Status)), "invalid attendance status")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		return nil, lookupError(err, "student not found", "failed to load student")
	}
	if student.ClassID == nil || *student.ClassID != classID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student is not enrolled in this class")
	}

	attrs := authz.Attributes{}.
		Set(authz.FieldClassID, classID).
		Set(authz.FieldStudentID, student.ID)
	if err := s.access.AuthorizeWrite(ctx, p, authz.KindAttendance, attrs); err != nil {
		return nil, err
	}

	record := &models.Attendance{
		StudentID: student.ID,
		ClassID:   classID,
		Date:      req.Date,
		Status:    req.Status,
		Notes:     req.Notes,
		MarkedBy:  p.ID,
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Upsert(ctx, record); err != nil {
			return err
		}
		parentIDs, err := s.parents.StudentParentIDs(ctx, student.ID)
		if err != nil {
			return err
		}
		payload := realtime.MarkAttendancePayload{
			Message:    student.FullName + " marked " + string(record.Status),
			Attendance: record,
		}
		targets := []outbox.Target{outbox.ToClass(classID), outbox.ToUser(student.ID)}
		for _, parentID := range parentIDs {
			targets = append(targets, outbox.ToUser(parentID))
		}
		return outbox.Stage(ctx, outbox.Message{
			Target:  outbox.Merge(targets...),
			Event:   realtime.EventMarkAttendance,
			Payload: payload,
		})
	})
	if err != nil {
		return nil, txError(err, "failed to record attendance")
	}
	return record, nil
}
