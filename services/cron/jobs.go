package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/schoolpulse/api/model"
	"github.com/schoolpulse/api/services"
	"github.com/schoolpulse/api/utils/auth"
)

// Jobs holds the bodies of the scheduled maintenance tasks.
type Jobs struct {
	db            *gorm.DB
	blacklist     *auth.BlacklistService
	notifications *services.NotificationService
}

func NewJobs(db *gorm.DB, blacklist *auth.BlacklistService, notifications *services.NotificationService) *Jobs {
	return &Jobs{db: db, blacklist: blacklist, notifications: notifications}
}

const oldNotificationAge = 90 * 24 * time.Hour

// PurgeExpiredBlacklist drops blacklist rows whose tokens have expired
// on their own.
func (j *Jobs) PurgeExpiredBlacklist() (string, error) {
	removed, err := j.blacklist.PurgeExpired(context.Background())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("purged %d expired blacklist entries", removed), nil
}

// CleanupOldNotifications deletes read notifications older than 90 days.
func (j *Jobs) CleanupOldNotifications() (string, error) {
	cutoff := time.Now().Add(-oldNotificationAge)
	removed, err := j.notifications.DeleteOldRead(context.Background(), cutoff)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("deleted %d old read notifications", removed), nil
}

// AttendanceSnapshot records yesterday's attendance counts per status.
func (j *Jobs) AttendanceSnapshot() (string, error) {
	yesterday := time.Now().AddDate(0, 0, -1)
	start := time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 0, 0, 0, 0, yesterday.Location())
	end := start.AddDate(0, 0, 1)

	type counts struct {
		Total   int64
		Present int64
		Absent  int64
		Late    int64
		Excused int64
	}
	var c counts
	err := j.db.Model(&model.Attendance{}).
		Where("attendance_date >= ? AND attendance_date < ?", start, end).
		Select("COUNT(*) AS total, " +
			"SUM(CASE WHEN status = 'Present' THEN 1 ELSE 0 END) AS present, " +
			"SUM(CASE WHEN status = 'Absent' THEN 1 ELSE 0 END) AS absent, " +
			"SUM(CASE WHEN status = 'Late' THEN 1 ELSE 0 END) AS late, " +
			"SUM(CASE WHEN status = 'Excused' THEN 1 ELSE 0 END) AS excused").
		Scan(&c).Error
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s: total=%d present=%d absent=%d late=%d excused=%d",
		start.Format("2006-01-02"), c.Total, c.Present, c.Absent, c.Late, c.Excused), nil
}
