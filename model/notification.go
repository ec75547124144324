package model

import (
	"time"
)

// NotificationType categorizes a notification.
type NotificationType int8

const (
	NotificationAcademic    NotificationType = 1
	NotificationNonAcademic NotificationType = 2
	NotificationGeneral     NotificationType = 3
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationAcademic, NotificationNonAcademic, NotificationGeneral:
		return true
	}
	return false
}

// Notification is a message optionally targeted at a student and/or scoped
// to a subject.
type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	SubjectID *uint            `json:"subject_id"`
	StudentID *uint            `gorm:"index" json:"student_id"`
	Title     string           `gorm:"type:varchar(200);not null" json:"title"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	Type      NotificationType `gorm:"type:smallint;not null" json:"type"`
	IsRead    bool             `gorm:"default:false" json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`

	Subject *Subject `gorm:"foreignKey:SubjectID;constraint:OnDelete:CASCADE" json:"subject,omitempty"`
	Student *Student `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
}
