package model

// Parent is the role profile for RoleParent users. Children are linked from
// the student side (Student.ParentID); this row intentionally carries no
// student reference.
type Parent struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	UserID     uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	Occupation string `gorm:"type:varchar(100)" json:"occupation"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
