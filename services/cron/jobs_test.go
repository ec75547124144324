package cron

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/schoolpulse/api/database"
	"github.com/schoolpulse/api/model"
	"github.com/schoolpulse/api/services"
	"github.com/schoolpulse/api/utils/auth"
)

func newJobsFixture(t *testing.T) (*Jobs, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:cron_jobs_test?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	jobs := NewJobs(db, auth.NewBlacklistService(db), services.NewNotificationService(db, nil))
	return jobs, db
}

func TestPurgeExpiredBlacklist(t *testing.T) {
	jobs, db := newJobsFixture(t)
	blacklist := auth.NewBlacklistService(db)
	ctx := context.Background()

	require.NoError(t, blacklist.RevokeToken(ctx, "jti-live", 1, time.Now().Add(time.Hour), "logout"))
	require.NoError(t, blacklist.RevokeToken(ctx, "jti-stale", 1, time.Now().Add(-time.Hour), "logout"))

	msg, err := jobs.PurgeExpiredBlacklist()
	require.NoError(t, err)
	assert.Equal(t, "purged 1 expired blacklist entries", msg)

	var remaining int64
	require.NoError(t, db.Model(&model.JWTTokenBlacklist{}).Count(&remaining).Error)
	assert.EqualValues(t, 1, remaining)
}

func TestCleanupOldNotifications(t *testing.T) {
	jobs, db := newJobsFixture(t)

	old := &model.Notification{Title: "old", Message: "m", Type: model.NotificationGeneral, IsRead: true}
	require.NoError(t, db.Create(old).Error)
	require.NoError(t, db.Model(old).Update("created_at", time.Now().AddDate(0, -4, 0)).Error)

	fresh := &model.Notification{Title: "fresh", Message: "m", Type: model.NotificationGeneral, IsRead: true}
	require.NoError(t, db.Create(fresh).Error)

	msg, err := jobs.CleanupOldNotifications()
	require.NoError(t, err)
	assert.Equal(t, "deleted 1 old read notifications", msg)

	var remaining int64
	require.NoError(t, db.Model(&model.Notification{}).Count(&remaining).Error)
	assert.EqualValues(t, 1, remaining)
}

func TestAttendanceSnapshotEmptyDay(t *testing.T) {
	jobs, _ := newJobsFixture(t)

	msg, err := jobs.AttendanceSnapshot()
	require.NoError(t, err)
	assert.Contains(t, msg, "total=0")
}
