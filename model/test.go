package model

import (
	"time"

	"gorm.io/datatypes"
)

// TestType discriminates which sub-record a test owns.
type TestType int8

const (
	TestTypeExam        TestType = 1
	TestTypeNonAcademic TestType = 2
)

func (t TestType) Valid() bool {
	return t == TestTypeExam || t == TestTypeNonAcademic
}

// Test is a recorded assessment. Exactly one of Exam or NonAcademic exists
// for each test, matching Type.
type Test struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Type        TestType       `gorm:"type:smallint;not null;index" json:"type"`
	Mark        *int           `json:"mark"`
	Date        datatypes.Date `gorm:"not null;index" json:"date"`
	SubjectRank *int           `json:"subject_rank"`
	SubjectID   *uint          `gorm:"index" json:"subject_id"`
	TeacherID   *uint          `gorm:"index" json:"teacher_id"` // users.id of the author

	// Relationships
	Subject     *Subject            `gorm:"foreignKey:SubjectID" json:"subject,omitempty"`
	Teacher     *User               `gorm:"foreignKey:TeacherID;constraint:OnDelete:SET NULL" json:"teacher,omitempty"`
	Exam        *Exam               `gorm:"foreignKey:TestID;constraint:OnDelete:CASCADE" json:"exam,omitempty"`
	NonAcademic *NonAcademic        `gorm:"foreignKey:TestID;constraint:OnDelete:CASCADE" json:"non_academic,omitempty"`
	Results     []StudentTestResult `gorm:"foreignKey:TestID;constraint:OnDelete:CASCADE" json:"results,omitempty"`
}

// Exam is the sub-record for TestTypeExam tests.
type Exam struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	TestID      uint   `gorm:"uniqueIndex;not null" json:"test_id"`
	Class       int    `gorm:"not null" json:"class"`
	Description string `gorm:"type:text" json:"description"`
}

// NonAcademic is the sub-record for TestTypeNonAcademic tests.
type NonAcademic struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	TestID      uint           `gorm:"uniqueIndex;not null" json:"test_id"`
	EventType   string         `gorm:"type:varchar(100);not null" json:"event_type"`
	EventDate   datatypes.Date `gorm:"not null" json:"event_date"`
	Rank        *int           `json:"rank"`
	Description string         `gorm:"type:text" json:"description"`
	Level       string         `gorm:"type:varchar(50)" json:"level"`
}

func (NonAcademic) TableName() string {
	return "non_academic"
}
