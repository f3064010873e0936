// Package tasks runs the periodic lifecycle transitions for events and announcements.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-realtime-api/internal/models"
	"github.com/noah-isme/sma-realtime-api/internal/outbox"
	"github.com/noah-isme/sma-realtime-api/internal/realtime"
)

// ErrTickInProgress is returned when a tick is requested while another one runs.
var ErrTickInProgress = errors.New("tasks: tick already in progress")

// Category names one transition performed by a tick.
type Category string

const (
	CategoryEventCompletion      Category = "event_completion"
	CategoryAnnouncementArchival Category = "announcement_archival"
	CategoryAnnouncementDeletion Category = "announcement_deletion"
)

// Transactor runs fn inside a unit of work that dispatches staged broadcasts on commit.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventStore transitions overdue events.
type EventStore interface {
	CompleteOverdue(ctx context.Context, now time.Time) ([]models.Event, error)
}

// AnnouncementStore archives and purges old announcements.
type AnnouncementStore interface {
	ArchiveStale(ctx context.Context, createdBefore, now time.Time) ([]models.Announcement, error)
	DeleteExpired(ctx context.Context, createdBefore, archivedBefore time.Time) ([]string, error)
}

// Metrics records runner outcomes.
type Metrics interface {
	RecordTaskTransitions(category string, count int)
	RecordTaskFailure(category string)
	RecordTickSkipped()
}

type nopMetrics struct{}

func (nopMetrics) RecordTaskTransitions(string, int) {}
func (nopMetrics) RecordTaskFailure(string)          {}
func (nopMetrics) RecordTickSkipped()                {}

// Config controls scheduling and retention windows.
type Config struct {
	Interval     time.Duration
	// TickTimeout bounds each category of a tick separately.
	TickTimeout  time.Duration
	ArchiveAfter time.Duration
	DeleteAfter  time.Duration
}

// CategoryResult is the outcome of one category within a tick.
type CategoryResult struct {
	Category Category
	Count    int
	Err      error
}

// TickReport summarises a tick.
type TickReport struct {
	StartedAt time.Time
	Results   []CategoryResult
}

// Count returns the number of rows transitioned by category.
func (r TickReport) Count(category Category) int {
	for _, res := range r.Results {
		if res.Category == category {
			return res.Count
		}
	}
	return 0
}

// Failed reports whether any category failed.
func (r TickReport) Failed() bool {
	for _, res := range r.Results {
		if res.Err != nil {
			return true
		}
	}
	return false
}

// Runner executes ticks on a cron schedule.
type Runner struct {
	tx            Transactor
	events        EventStore
	announcements AnnouncementStore
	cfg           Config
	metrics       Metrics
	logger        *zap.Logger
	now           func() time.Time

	running atomic.Bool

	mu      sync.Mutex
	cron    *cron.Cron
	started bool
}

// NewRunner constructs a Runner, filling zero config values with defaults.
func NewRunner(tx Transactor, events EventStore, announcements AnnouncementStore, cfg Config, metrics Metrics, logger *zap.Logger) *Runner {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.TickTimeout <= 0 {
		cfg.TickTimeout = 30 * time.Second
	}
	if cfg.ArchiveAfter <= 0 {
		cfg.ArchiveAfter = 30 * 24 * time.Hour
	}
	if cfg.DeleteAfter <= 0 {
		cfg.DeleteAfter = 60 * 24 * time.Hour
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		tx:            tx,
		events:        events,
		announcements: announcements,
		cfg:           cfg,
		metrics:       metrics,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Start schedules ticks every configured interval. Safe to call once.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return nil
	}

	clog := cronLogger{logger: r.logger.Sugar(), metrics: r.metrics}
	c := cron.New(cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)))
	if _, err := c.AddFunc("@every "+r.cfg.Interval.String(), func() { r.scheduled(ctx) }); err != nil {
		return fmt.Errorf("schedule tasks: %w", err)
	}
	c.Start()
	r.cron = c
	r.started = true
	r.logger.Sugar().Infow("scheduled tasks started", "interval", r.cfg.Interval.String())
	return nil
}

// Stop halts scheduling and waits for a running tick to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	c := r.cron
	r.started = false
	r.mu.Unlock()

	<-c.Stop().Done()
	r.logger.Sugar().Infow("scheduled tasks stopped")
}

func (r *Runner) scheduled(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := r.Tick(ctx); errors.Is(err, ErrTickInProgress) {
		r.logger.Debug("tick skipped, previous still running")
	}
}

// Tick runs event completion, announcement archival and announcement deletion in
// that order. A failed category does not stop the ones after it.
func (r *Runner) Tick(ctx context.Context) (TickReport, error) {
	if !r.running.CompareAndSwap(false, true) {
		r.metrics.RecordTickSkipped()
		return TickReport{}, ErrTickInProgress
	}
	defer r.running.Store(false)

	now := r.now()
	report := TickReport{StartedAt: now}
	report.Results = append(report.Results,
		r.runCategory(ctx, CategoryEventCompletion, func(ctx context.Context) (int, error) { return r.completeEvents(ctx, now) }),
		r.runCategory(ctx, CategoryAnnouncementArchival, func(ctx context.Context) (int, error) { return r.archiveAnnouncements(ctx, now) }),
		r.runCategory(ctx, CategoryAnnouncementDeletion, func(ctx context.Context) (int, error) { return r.deleteAnnouncements(ctx, now) }),
	)

	r.logger.Info("scheduled_tick",
		zap.Time("started_at", now),
		zap.Duration("duration", r.now().Sub(now)),
		zap.Int("events_completed", report.Count(CategoryEventCompletion)),
		zap.Int("announcements_archived", report.Count(CategoryAnnouncementArchival)),
		zap.Int("announcements_deleted", report.Count(CategoryAnnouncementDeletion)),
		zap.Bool("failed", report.Failed()),
	)
	return report, nil
}

func (r *Runner) runCategory(ctx context.Context, category Category, fn func(context.Context) (int, error)) (res CategoryResult) {
	res.Category = category
	defer func() {
		if rec := recover(); rec != nil {
			res.Count = 0
			res.Err = fmt.Errorf("panic: %v", rec)
		}
		if res.Err != nil {
			r.metrics.RecordTaskFailure(string(category))
			r.logger.Error("scheduled task failed", zap.String("category", string(category)), zap.Error(res.Err))
			return
		}
		if res.Count > 0 {
			r.metrics.RecordTaskTransitions(string(category), res.Count)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, r.cfg.TickTimeout)
	defer cancel()

	var count int
	err := r.tx.WithinTx(ctx, func(txCtx context.Context) error {
		n, err := fn(txCtx)
		count = n
		return err
	})
	if err != nil {
		res.Err = err
		return res
	}
	res.Count = count
	return res
}

func (r *Runner) completeEvents(ctx context.Context, now time.Time) (int, error) {
	events, err := r.events.CompleteOverdue(ctx, now)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}
	err = outbox.Stage(ctx, outbox.Message{
		Target: outbox.ToAll(),
		Event:  realtime.EventEventsUpdated,
		Payload: realtime.EventsUpdatedPayload{
			Message:   fmt.Sprintf("%d event(s) marked as completed", len(events)),
			Events:    events,
			Timestamp: now,
		},
	})
	return len(events), err
}

func (r *Runner) archiveAnnouncements(ctx context.Context, now time.Time) (int, error) {
	archived, err := r.announcements.ArchiveStale(ctx, now.Add(-r.cfg.ArchiveAfter), now)
	if err != nil {
		return 0, err
	}
	for _, a := range archived {
		msg := outbox.Message{
			Target: outbox.ToAll(),
			Event:  realtime.EventAnnouncementArchived,
			Payload: realtime.AnnouncementArchivedPayload{
				Message:        fmt.Sprintf("Announcement %q has been archived", a.Title),
				AnnouncementID: a.ID,
				Timestamp:      now,
			},
		}
		if err := outbox.Stage(ctx, msg); err != nil {
			return 0, err
		}
	}
	return len(archived), nil
}

// deleteAnnouncements removes announcements past the delete window that have also
// spent at least DeleteAfter-ArchiveAfter in the archive.
func (r *Runner) deleteAnnouncements(ctx context.Context, now time.Time) (int, error) {
	createdBefore := now.Add(-r.cfg.DeleteAfter)
	archivedBefore := now.Add(-(r.cfg.DeleteAfter - r.cfg.ArchiveAfter))
	ids, err := r.announcements.DeleteExpired(ctx, createdBefore, archivedBefore)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		msg := outbox.Message{
			Target:  outbox.ToAll(),
			Event:   realtime.EventAnnouncementDeleted,
			Payload: realtime.AnnouncementDeletedPayload{ID: id},
		}
		if err := outbox.Stage(ctx, msg); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}

// cronLogger adapts zap to cron.Logger and counts ticks dropped by SkipIfStillRunning.
type cronLogger struct {
	logger  *zap.SugaredLogger
	metrics Metrics
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if msg == "skip" {
		l.metrics.RecordTickSkipped()
	}
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
