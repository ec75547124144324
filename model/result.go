package model

// StudentTestResult records a student's outcome for one test. Unique per
// (student, test); the upsert path overwrites the mutable fields.
type StudentTestResult struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	StudentID     uint   `gorm:"not null;uniqueIndex:idx_student_test" json:"student_id"`
	TestID        uint   `gorm:"not null;uniqueIndex:idx_student_test" json:"test_id"`
	MarksObtained int    `gorm:"not null" json:"marks_obtained"`
	Grade         string `gorm:"type:varchar(5)" json:"grade"`
	Remarks       string `gorm:"type:text" json:"remarks"`

	Student *Student `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Test    *Test    `gorm:"foreignKey:TestID" json:"test,omitempty"`
}
