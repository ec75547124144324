package model

// Grade represents a class level, e.g. "Grade 10".
type Grade struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Level       string `gorm:"type:varchar(10);not null" json:"level"`
	Description string `gorm:"type:text" json:"description"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`

	Students []Student `gorm:"foreignKey:GradeID" json:"students,omitempty"`
}
