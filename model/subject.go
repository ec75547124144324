package model

import (
	"time"
)

// SubjectType classifies a subject as academic or non-academic.
type SubjectType int8

const (
	SubjectTypeAcademic    SubjectType = 1
	SubjectTypeNonAcademic SubjectType = 2
)

func (t SubjectType) Valid() bool {
	return t == SubjectTypeAcademic || t == SubjectTypeNonAcademic
}

// Subject represents a taught subject. Attendance is recorded per subject.
type Subject struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Name        string      `gorm:"type:varchar(100);not null" json:"name"`
	Type        SubjectType `gorm:"type:smallint;not null" json:"type"`
	Description string      `gorm:"type:text" json:"description"`
	CreatedAt   time.Time   `json:"created_at"`

	// Relationships
	Tests              []Test           `gorm:"foreignKey:SubjectID;constraint:OnDelete:CASCADE" json:"tests,omitempty"`
	Attendance         []Attendance     `gorm:"foreignKey:SubjectID;constraint:OnDelete:CASCADE" json:"-"`
	TeacherAssignments []TeacherSubject `gorm:"foreignKey:SubjectID;constraint:OnDelete:CASCADE" json:"teacher_assignments,omitempty"`
}
