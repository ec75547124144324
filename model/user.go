package model

import (
	"time"
)

// Role identifies which profile table a user owns.
type Role int8

const (
	RoleAdmin   Role = 1
	RoleTeacher Role = 2
	RoleStudent Role = 3
	RoleParent  Role = 4
)

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent, RoleParent:
		return true
	}
	return false
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleTeacher:
		return "teacher"
	case RoleStudent:
		return "student"
	case RoleParent:
		return "parent"
	}
	return "unknown"
}

// User represents a registered account. Every user owns exactly one
// role-profile record (Admin, Teacher, Student or Parent) matching Role,
// created in the same transaction as the user row.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Name         string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Email        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"` // Never expose password in JSON
	Contact      string    `gorm:"type:varchar(20)" json:"contact"`
	Role         Role      `gorm:"type:smallint;not null;index" json:"role"`

	// Relationships
	AdminProfile   *Admin   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"admin_profile,omitempty"`
	TeacherProfile *Teacher `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"teacher_profile,omitempty"`
	StudentProfile *Student `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"student_profile,omitempty"`
	ParentProfile  *Parent  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"parent_profile,omitempty"`
}
