package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-realtime-api/internal/authz"
	"github.com/noah-isme/sma-realtime-api/internal/models"
	"github.com/noah-isme/sma-realtime-api/internal/realtime"
	appErrors "github.com/noah-isme/sma-realtime-api/pkg/errors"
)

type memEvents struct {
	items map[string]*models.Event
}

func (m *memEvents) List(_ context.Context, _ models.EventFilter, scope authz.Scope) ([]models.Event, int, error) {
	var out []models.Event
	for _, e := range m.items {
		if scope.Allows(eventAttrs(e)) {
			out = append(out, *e)
		}
	}
	return out, len(out), nil
}

func (m *memEvents) FindByID(_ context.Context, id string) (*models.Event, error) {
	e, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *e
	return &cp, nil
}

func (m *memEvents) Create(_ context.Context, e *models.Event) error {
	e.ID = fmt.Sprintf("ev%d", len(m.items)+1)
	cp := *e
	m.items[e.ID] = &cp
	return nil
}

func (m *memEvents) Update(_ context.Context, e *models.Event) error {
	cp := *e
	m.items[e.ID] = &cp
	return nil
}

func (m *memEvents) Delete(_ context.Context, id string) error {
	delete(m.items, id)
	return nil
}

func newEventFixture() (*EventService, *memEvents, *memTx) {
	repo := &memEvents{items: map[string]*models.Event{}}
	tx := newMemTx()
	return NewEventService(repo, tx, newTestResolver(newSchoolGraph()), nil, nil), repo, tx
}

func eventRequest(title string) models.EventRequest {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	return models.EventRequest{Title: title, StartTime: start, EndTime: start.Add(2 * time.Hour)}
}

func TestEventCreateFansOutToRolesAndClass(t *testing.T) {
	svc, _, tx := newEventFixture()

	req := eventRequest("Science fair")
	req.TargetRoles = []models.UserRole{models.RoleStudent}
	req.ClassID = strPtr("C1")

	event, err := svc.Create(context.Background(), principal("tA", models.RoleTeacher), req)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusScheduled, event.Status)
	assert.Equal(t, []string{"role-STUDENT,class-C1"}, tx.out.targets(realtime.EventEventCreated))

	payload := tx.out.sent[0].data.(realtime.EventCreatedPayload)
	assert.Equal(t, "New event: Science fair", payload.Message)
	assert.Equal(t, []models.UserRole{models.RoleStudent}, payload.TargetRoles)
}

func TestUntargetedEventGoesToEveryone(t *testing.T) {
	svc, _, tx := newEventFixture()

	_, err := svc.Create(context.Background(), principal("a1", models.RoleAdmin), eventRequest("Assembly"))
	require.NoError(t, err)
	assert.Equal(t, []string{"all"}, tx.out.targets(realtime.EventEventCreated))
}

func TestClassEventWithoutRolesStaysInClass(t *testing.T) {
	svc, _, tx := newEventFixture()
	ctx := context.Background()

	req := eventRequest("Field trip")
	req.ClassID = strPtr("C1")
	_, err := svc.Create(ctx, principal("tA", models.RoleTeacher), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"class-C1"}, tx.out.targets(realtime.EventEventCreated))

	own, _, err := svc.List(ctx, principal("s1", models.RoleStudent), models.EventFilter{})
	require.NoError(t, err)
	assert.Len(t, own, 1)

	other, _, err := svc.List(ctx, principal("s2", models.RoleStudent), models.EventFilter{})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestEventRejectsEndBeforeStart(t *testing.T) {
	svc, repo, tx := newEventFixture()

	req := eventRequest("Backwards")
	req.EndTime = req.StartTime.Add(-time.Hour)
	_, err := svc.Create(context.Background(), principal("a1", models.RoleAdmin), req)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, repo.items)
	assert.Empty(t, tx.out.sent)
}

func TestEventMutationRequiresOwnership(t *testing.T) {
	svc, _, tx := newEventFixture()
	ctx := context.Background()

	event, err := svc.Create(ctx, principal("tA", models.RoleTeacher), eventRequest("Parents evening"))
	require.NoError(t, err)

	_, err = svc.Update(ctx, principal("tB", models.RoleTeacher), event.ID, eventRequest("Hijacked"))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, principal("tB", models.RoleTeacher), event.ID), appErrors.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, principal("p1", models.RoleParent), event.ID), appErrors.ErrForbidden)

	updated, err := svc.Update(ctx, principal("tA", models.RoleTeacher), event.ID, eventRequest("Parents evening (moved)"))
	require.NoError(t, err)
	assert.Equal(t, "Parents evening (moved)", updated.Title)
	assert.Equal(t, []string{"all"}, tx.out.targets(realtime.EventEventUpdated))

	require.NoError(t, svc.Delete(ctx, principal("tA", models.RoleTeacher), event.ID))
	assert.Equal(t, []string{"all"}, tx.out.targets(realtime.EventDeleteEvent))
}

func TestTeacherCannotTargetForeignClass(t *testing.T) {
	svc, _, _ := newEventFixture()

	req := eventRequest("Quiz")
	req.ClassID = strPtr("C2")
	_, err := svc.Create(context.Background(), principal("tA", models.RoleTeacher), req)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestEventListIsScoped(t *testing.T) {
	svc, _, _ := newEventFixture()
	ctx := context.Background()

	staff := eventRequest("Staff briefing")
	staff.TargetRoles = []models.UserRole{models.RoleTeacher}
	_, err := svc.Create(ctx, principal("a1", models.RoleAdmin), staff)
	require.NoError(t, err)
	_, err = svc.Create(ctx, principal("a1", models.RoleAdmin), eventRequest("Sports day"))
	require.NoError(t, err)

	items, page, err := svc.List(ctx, principal("s1", models.RoleStudent), models.EventFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Sports day", items[0].Title)
	assert.Equal(t, 1, page.TotalCount)
}
