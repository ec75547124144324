package model

// AdminLevel distinguishes super admins from regular admins.
type AdminLevel int8

const (
	AdminLevelSuper   AdminLevel = 1
	AdminLevelRegular AdminLevel = 2
)

func (l AdminLevel) Valid() bool {
	return l == AdminLevelSuper || l == AdminLevelRegular
}

// Admin is the role profile for RoleAdmin users.
type Admin struct {
	ID     uint       `gorm:"primaryKey" json:"id"`
	UserID uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	Level  AdminLevel `gorm:"type:smallint;not null;default:2" json:"level"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
