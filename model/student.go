package model

import (
	"gorm.io/datatypes"
)

// Student is the role profile for RoleStudent users.
//
// ParentID references the parent's *user* id. The parent row itself never
// stores a student reference; "children of parent" is always computed by
// filtering students on ParentID.
type Student struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	UserID         uint            `gorm:"uniqueIndex;not null" json:"user_id"`
	ParentID       *uint           `gorm:"index" json:"parent_id"` // users.id of the parent
	GradeID        *uint           `gorm:"index" json:"grade_id"`
	StudentNumber  string          `gorm:"type:varchar(20);uniqueIndex;not null" json:"student_number"`
	DateOfBirth    *datatypes.Date `json:"date_of_birth"`
	EnrollmentDate *datatypes.Date `json:"enrollment_date"`
	GradeLabel     string          `gorm:"type:varchar(20)" json:"grade"` // free-text, e.g. "Grade 10A"
	Section        string          `gorm:"type:varchar(10)" json:"section"`

	// Relationships
	User          *User               `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Parent        *User               `gorm:"foreignKey:ParentID;constraint:OnDelete:SET NULL" json:"parent,omitempty"`
	GradeLevel    *Grade              `gorm:"foreignKey:GradeID;constraint:OnDelete:SET NULL" json:"grade_level,omitempty"`
	Attendance    []Attendance        `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"attendance,omitempty"`
	TestResults   []StudentTestResult `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"test_results,omitempty"`
	Notifications []Notification      `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
}
