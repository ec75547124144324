package model

import (
	"gorm.io/datatypes"
)

// AttendanceStatus is the recorded state for one student/subject/day.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "Present"
	AttendanceAbsent  AttendanceStatus = "Absent"
	AttendanceLate    AttendanceStatus = "Late"
	AttendanceExcused AttendanceStatus = "Excused"
)

func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	}
	return false
}

// Attendance records one student's presence for a subject on a date.
// Unique per (student, subject, date); writes for an existing key update
// the mutable fields instead of inserting.
type Attendance struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	StudentID uint             `gorm:"not null;uniqueIndex:idx_student_subject_date;index:idx_student_date" json:"student_id"`
	SubjectID uint             `gorm:"not null;uniqueIndex:idx_student_subject_date" json:"subject_id"`
	Date      datatypes.Date   `gorm:"column:attendance_date;not null;uniqueIndex:idx_student_subject_date;index:idx_student_date" json:"date"`
	Status    AttendanceStatus `gorm:"type:varchar(10);not null;default:'Present'" json:"status"`
	Remarks   string           `gorm:"type:text" json:"remarks"`
	TeacherID *uint            `json:"teacher_id"` // users.id of the recorder

	Student *Student `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Subject *Subject `gorm:"foreignKey:SubjectID" json:"subject,omitempty"`
	Teacher *User    `gorm:"foreignKey:TeacherID;constraint:OnDelete:SET NULL" json:"teacher,omitempty"`
}

func (Attendance) TableName() string {
	return "attendance"
}
