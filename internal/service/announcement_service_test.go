package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-realtime-api/internal/authz"
	"github.com/noah-isme/sma-realtime-api/internal/models"
	"github.com/noah-isme/sma-realtime-api/internal/realtime"
	appErrors "github.com/noah-isme/sma-realtime-api/pkg/errors"
)

type memAnnouncements struct {
	items map[string]*models.Announcement
	reads map[string]map[string]bool
	seq   int
}

func newMemAnnouncements() *memAnnouncements {
	return &memAnnouncements{items: map[string]*models.Announcement{}, reads: map[string]map[string]bool{}}
}

func (m *memAnnouncements) List(_ context.Context, _ models.AnnouncementFilter, scope authz.Scope) ([]models.Announcement, int, error) {
	var out []models.Announcement
	for _, a := range m.items {
		if scope.Allows(announcementAttrs(a)) {
			out = append(out, *a)
		}
	}
	return out, len(out), nil
}

func (m *memAnnouncements) FindByID(_ context.Context, id string) (*models.Announcement, error) {
	a, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (m *memAnnouncements) ExistsActiveTitle(_ context.Context, title, excludeID string) (bool, error) {
	for id, a := range m.items {
		if id != excludeID && !a.IsArchived && strings.EqualFold(a.Title, title) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memAnnouncements) Create(_ context.Context, a *models.Announcement) error {
	m.seq++
	a.ID = "an" + string(rune('0'+m.seq))
	cp := *a
	m.items[a.ID] = &cp
	return nil
}

func (m *memAnnouncements) Update(_ context.Context, a *models.Announcement) error {
	cp := *a
	m.items[a.ID] = &cp
	return nil
}

func (m *memAnnouncements) SetArchived(_ context.Context, id string, archived bool, at time.Time) error {
	a, ok := m.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	a.IsArchived = archived
	return nil
}

func (m *memAnnouncements) Delete(_ context.Context, id string) error {
	delete(m.items, id)
	delete(m.reads, id)
	return nil
}

func (m *memAnnouncements) MarkRead(_ context.Context, announcementID, userID string, _ time.Time) error {
	if m.reads[announcementID] == nil {
		m.reads[announcementID] = map[string]bool{}
	}
	m.reads[announcementID][userID] = true
	return nil
}

func (m *memAnnouncements) UnreadCount(_ context.Context, userID string, scope authz.Scope) (int, error) {
	count := 0
	for id, a := range m.items {
		if !a.IsArchived && scope.Allows(announcementAttrs(a)) && !m.reads[id][userID] {
			count++
		}
	}
	return count, nil
}

func newAnnouncementFixture() (*AnnouncementService, *memAnnouncements, *memTx) {
	repo := newMemAnnouncements()
	tx := newMemTx()
	svc := NewAnnouncementService(repo, tx, newTestResolver(newSchoolGraph()), nil, nil)
	return svc, repo, tx
}

func TestClassAnnouncementReachesOnlyClassRoom(t *testing.T) {
	svc, _, tx := newAnnouncementFixture()

	created, err := svc.Create(context.Background(), principal("tA", models.RoleTeacher), models.AnnouncementRequest{
		Title: "Field trip", Content: "Bring lunch", ClassID: strPtr("C1"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"class-C1"}, tx.out.targets(realtime.EventNewAnnouncement))
	assert.Equal(t, created.ID, tx.out.sent[0].data.(*models.Announcement).ID)
}

func TestRoleAnnouncementTargetsRoleRooms(t *testing.T) {
	svc, _, tx := newAnnouncementFixture()

	_, err := svc.Create(context.Background(), principal("a1", models.RoleAdmin), models.AnnouncementRequest{
		Title: "Staff meeting", Content: "Friday", TargetRoles: []models.UserRole{models.RoleTeacher},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"role-TEACHER"}, tx.out.targets(realtime.EventNewAnnouncement))
}

func TestAnnouncementCreateRules(t *testing.T) {
	svc, _, tx := newAnnouncementFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, principal("tC", models.RoleTeacher), models.AnnouncementRequest{Title: "Quiz", Content: "x", ClassID: strPtr("C1")})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.Create(ctx, principal("p1", models.RoleParent), models.AnnouncementRequest{Title: "Hello", Content: "x"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.Create(ctx, principal("a1", models.RoleAdmin), models.AnnouncementRequest{Title: "Holiday", Content: "x"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, principal("a1", models.RoleAdmin), models.AnnouncementRequest{Title: "holiday", Content: "y"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = svc.Create(ctx, principal("a1", models.RoleAdmin), models.AnnouncementRequest{Content: "no title"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	assert.Equal(t, []string{"all"}, tx.out.targets(realtime.EventNewAnnouncement))
}

func TestMarkReadPushesStatusAndCountToReader(t *testing.T) {
	svc, _, tx := newAnnouncementFixture()
	ctx := context.Background()
	admin := principal("a1", models.RoleAdmin)

	first, err := svc.Create(ctx, admin, models.AnnouncementRequest{Title: "One", Content: "x"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin, models.AnnouncementRequest{Title: "Two", Content: "x", TargetRoles: []models.UserRole{models.RoleStudent}})
	require.NoError(t, err)

	student := principal("s1", models.RoleStudent)
	before, err := svc.UnreadCount(ctx, student)
	require.NoError(t, err)
	assert.Equal(t, 2, before)

	unread, err := svc.MarkRead(ctx, student, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)
	assert.Equal(t, []string{"user-s1"}, tx.out.targets(realtime.EventReadStatus))
	assert.Equal(t, []string{"user-s1"}, tx.out.targets(realtime.EventUnreadCount))
	last := tx.out.sent[len(tx.out.sent)-1]
	assert.Equal(t, realtime.UnreadCountPayload{Count: 1}, last.data)
}

func TestMarkReadOutsideAudienceIsForbidden(t *testing.T) {
	svc, _, tx := newAnnouncementFixture()
	ctx := context.Background()

	staff, err := svc.Create(ctx, principal("a1", models.RoleAdmin), models.AnnouncementRequest{
		Title: "Staff only", Content: "x", TargetRoles: []models.UserRole{models.RoleTeacher},
	})
	require.NoError(t, err)

	_, err = svc.MarkRead(ctx, principal("s1", models.RoleStudent), staff.ID)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Empty(t, tx.out.targets(realtime.EventReadStatus))
}

func TestAnnouncementOwnershipOnMutation(t *testing.T) {
	svc, repo, tx := newAnnouncementFixture()
	ctx := context.Background()

	mine, err := svc.Create(ctx, principal("tA", models.RoleTeacher), models.AnnouncementRequest{Title: "Homework", Content: "x", ClassID: strPtr("C1")})
	require.NoError(t, err)

	err = svc.Delete(ctx, principal("tB", models.RoleTeacher), mine.ID)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	_, err = svc.Update(ctx, principal("tB", models.RoleTeacher), mine.ID, models.AnnouncementRequest{Title: "Mine now", Content: "x"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	require.NoError(t, svc.SetArchived(ctx, principal("tA", models.RoleTeacher), mine.ID, true))
	assert.Equal(t, []string{"all"}, tx.out.targets(realtime.EventAnnouncementArchiveStatus))

	require.NoError(t, svc.Delete(ctx, principal("a1", models.RoleAdmin), mine.ID))
	assert.Equal(t, []string{"all"}, tx.out.targets(realtime.EventAnnouncementDeleted))
	assert.Empty(t, repo.items)

	err = svc.Delete(ctx, principal("a1", models.RoleAdmin), mine.ID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
