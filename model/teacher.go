package model

import (
	"gorm.io/datatypes"
)

// Teacher is the role profile for RoleTeacher users.
type Teacher struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	UserID         uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	EmployeeNumber string `gorm:"type:varchar(20);uniqueIndex;not null" json:"employee_number"`
	Department     string `gorm:"type:varchar(100)" json:"department"`
	Specialization string `gorm:"type:varchar(100)" json:"specialization"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TeacherSubject assigns a teacher (by user id) to a subject.
// A teacher is assigned to a subject at most once.
type TeacherSubject struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	TeacherID    uint           `gorm:"not null;uniqueIndex:idx_teacher_subject" json:"teacher_id"` // users.id
	SubjectID    uint           `gorm:"not null;uniqueIndex:idx_teacher_subject" json:"subject_id"`
	AssignedDate datatypes.Date `gorm:"not null" json:"assigned_date"`

	Teacher *User    `gorm:"foreignKey:TeacherID;constraint:OnDelete:CASCADE" json:"teacher,omitempty"`
	Subject *Subject `gorm:"foreignKey:SubjectID;constraint:OnDelete:CASCADE" json:"subject,omitempty"`
}

func (TeacherSubject) TableName() string {
	return "teacher_subjects"
}
