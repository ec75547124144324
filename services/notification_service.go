package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/schoolpulse/api/model"
	"github.com/schoolpulse/api/utils/cache"
	"github.com/schoolpulse/api/utils/validation"
)

// NotificationService manages per-student notifications. Unread counts
// are cached in redis and invalidated on every write; the service works
// without redis, it just skips the cache.
type NotificationService struct {
	db    *gorm.DB
	cache *cache.RedisCache
}

func NewNotificationService(db *gorm.DB, redisCache *cache.RedisCache) *NotificationService {
	return &NotificationService{db: db, cache: redisCache}
}

const (
	unreadCountKeyPrefix = "notifications:unread:"
	unreadCountTTL       = 5 * time.Minute
)

type cachedUnreadCount struct {
	Count    int64     `json:"count"`
	CachedAt time.Time `json:"cached_at"`
}

type CreateNotificationInput struct {
	Title     string                 `json:"title" validate:"required,max=200"`
	Message   string                 `json:"message" validate:"required"`
	Type      model.NotificationType `json:"type" validate:"required"`
	StudentID *uint                  `json:"studentId"`
	SubjectID *uint                  `json:"subjectId"`
}

// NotificationFilter narrows List.
type NotificationFilter struct {
	StudentID *uint
	Type      *model.NotificationType
	IsRead    *bool
}

// Create inserts a notification and drops the target student's cached
// unread count.
func (s *NotificationService) Create(ctx context.Context, input CreateNotificationInput) (*model.Notification, error) {
	if err := validation.ValidateStruct(input); err != nil {
		return nil, FieldErrors(validation.FormatValidationErrors(err))
	}
	if !input.Type.Valid() {
		return nil, FieldErrors{"type": "type must be 1 (academic), 2 (non-academic) or 3 (general)"}
	}

	notification := &model.Notification{
		Title:     input.Title,
		Message:   input.Message,
		Type:      input.Type,
		StudentID: input.StudentID,
		SubjectID: input.SubjectID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if input.StudentID != nil {
			if err := ensureStudent(tx, *input.StudentID); err != nil {
				return err
			}
		}
		if input.SubjectID != nil {
			if err := ensureSubject(tx, *input.SubjectID); err != nil {
				return err
			}
		}
		return tx.Create(notification).Error
	})
	if err != nil {
		return nil, err
	}

	s.invalidateUnreadCount(ctx, input.StudentID)
	return notification, nil
}

// List returns notifications matching the filter, newest first.
func (s *NotificationService) List(ctx context.Context, filter NotificationFilter, offset, limit int) ([]model.Notification, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.Notification{})
	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.IsRead != nil {
		query = query.Where("is_read = ?", *filter.IsRead)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []model.Notification
	err := query.
		Preload("Subject").
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

// Get loads one notification.
func (s *NotificationService) Get(ctx context.Context, id uint) (*model.Notification, error) {
	var notification model.Notification
	err := s.db.WithContext(ctx).Preload("Subject").First(&notification, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: notification %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &notification, nil
}

// MarkRead flags one notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, id uint) (*model.Notification, error) {
	var notification model.Notification
	if err := s.db.WithContext(ctx).First(&notification, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: notification %d", ErrNotFound, id)
		}
		return nil, err
	}
	if !notification.IsRead {
		if err := s.db.WithContext(ctx).Model(&notification).Update("is_read", true).Error; err != nil {
			return nil, err
		}
		s.invalidateUnreadCount(ctx, notification.StudentID)
	}
	return &notification, nil
}

// MarkAllRead flags all of a student's unread notifications as read and
// returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, studentID uint) (int64, error) {
	result := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("student_id = ? AND is_read = ?", studentID, false).
		Update("is_read", true)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		s.invalidateUnreadCount(ctx, &studentID)
	}
	return result.RowsAffected, nil
}

// Delete removes one notification.
func (s *NotificationService) Delete(ctx context.Context, id uint) error {
	var notification model.Notification
	if err := s.db.WithContext(ctx).First(&notification, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: notification %d", ErrNotFound, id)
		}
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&notification).Error; err != nil {
		return err
	}
	s.invalidateUnreadCount(ctx, notification.StudentID)
	return nil
}

// UnreadCount returns the student's unread notification count, served
// from redis when a fresh value is cached.
func (s *NotificationService) UnreadCount(ctx context.Context, studentID uint) (int64, error) {
	key := unreadCountKeyPrefix + strconv.FormatUint(uint64(studentID), 10)

	if s.cache != nil {
		var entry cachedUnreadCount
		if err := s.cache.GetJSON(ctx, key, &entry); err == nil {
			return entry.Count, nil
		}
	}

	var count int64
	err := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("student_id = ? AND is_read = ?", studentID, false).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, cachedUnreadCount{Count: count, CachedAt: time.Now()}, unreadCountTTL)
	}
	return count, nil
}

// DeleteOldRead removes read notifications older than the cutoff and
// returns how many rows went away. Used by the nightly cleanup job.
func (s *NotificationService) DeleteOldRead(ctx context.Context, olderThan time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("is_read = ? AND created_at < ?", true, olderThan).
		Delete(&model.Notification{})
	return result.RowsAffected, result.Error
}

func (s *NotificationService) invalidateUnreadCount(ctx context.Context, studentID *uint) {
	if s.cache == nil || studentID == nil {
		return
	}
	key := unreadCountKeyPrefix + strconv.FormatUint(uint64(*studentID), 10)
	_ = s.cache.Delete(ctx, key)
}
