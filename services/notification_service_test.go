package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolpulse/api/model"
)

func TestNotifications(t *testing.T) {
	db := newTestDB(t)
	// No redis in tests; the unread counter falls back to the database.
	svc := NewNotificationService(db, nil)
	ctx := context.Background()

	subject := seedSubject(t, db, "Mathematics", model.SubjectTypeAcademic)
	student := seedStudent(t, db, "student.notif", "STU-701")

	notify := func(title string) *model.Notification {
		t.Helper()
		n, err := svc.Create(ctx, CreateNotificationInput{
			Title:     title,
			Message:   "message body",
			Type:      model.NotificationAcademic,
			StudentID: &student.ID,
			SubjectID: &subject.ID,
		})
		require.NoError(t, err)
		return n
	}

	first := notify("Exam scheduled")
	notify("Marks published")

	t.Run("unread count reflects unread rows", func(t *testing.T) {
		count, err := svc.UnreadCount(ctx, student.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)
	})

	t.Run("mark read drops the count", func(t *testing.T) {
		read, err := svc.MarkRead(ctx, first.ID)
		require.NoError(t, err)
		assert.True(t, read.IsRead)

		count, err := svc.UnreadCount(ctx, student.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})

	t.Run("mark all read clears the rest", func(t *testing.T) {
		marked, err := svc.MarkAllRead(ctx, student.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, marked)

		count, err := svc.UnreadCount(ctx, student.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 0, count)
	})

	t.Run("list filters by read state", func(t *testing.T) {
		notify("Fresh one")

		unread := false
		rows, total, err := svc.List(ctx, NotificationFilter{StudentID: &student.ID, IsRead: &unread}, 0, 20)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, rows, 1)
		assert.Equal(t, "Fresh one", rows[0].Title)
	})

	t.Run("missing student reports the gap", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateNotificationInput{
			Title:     "Nobody home",
			Message:   "message body",
			Type:      model.NotificationGeneral,
			StudentID: uintPtr(99999),
		})
		assert.ErrorIs(t, err, ErrDependencyGap)
	})

	t.Run("cleanup removes only old read rows", func(t *testing.T) {
		stale := &model.Notification{
			Title:     "Ancient",
			Message:   "m",
			Type:      model.NotificationGeneral,
			StudentID: &student.ID,
			IsRead:    true,
		}
		require.NoError(t, db.Create(stale).Error)
		require.NoError(t, db.Model(stale).
			Update("created_at", time.Now().AddDate(0, -6, 0)).Error)

		removed, err := svc.DeleteOldRead(ctx, time.Now().AddDate(0, -3, 0))
		require.NoError(t, err)
		assert.EqualValues(t, 1, removed)

		// The recently read ones survive.
		read := true
		_, total, err := svc.List(ctx, NotificationFilter{StudentID: &student.ID, IsRead: &read}, 0, 20)
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
	})
}
