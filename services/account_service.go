package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/schoolpulse/api/model"
	"github.com/schoolpulse/api/utils/auth"
	"github.com/schoolpulse/api/utils/validation"
)

// AccountService creates and maintains user accounts together with their
// role profile rows. All multi-row writes run in a single transaction.
type AccountService struct {
	db *gorm.DB
}

func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{db: db}
}

// CreateAccountInput carries the user fields plus the profile fields for
// the requested role. Profile fields outside the requested role are
// ignored.
type CreateAccountInput struct {
	Name     string     `json:"name" validate:"required,min=2,max=100"`
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required,min=8"`
	Contact  string     `json:"contact" validate:"omitempty,max=20"`
	Role     model.Role `json:"role" validate:"required"`

	// Admin profile
	AdminLevel model.AdminLevel `json:"adminLevel" validate:"omitempty"`

	// Teacher profile
	EmployeeNumber string `json:"employeeNumber" validate:"omitempty,max=20"`
	Department     string `json:"department" validate:"omitempty,max=100"`
	Specialization string `json:"specialization" validate:"omitempty,max=100"`

	// Student profile
	StudentNumber  string  `json:"studentNumber" validate:"omitempty,max=20"`
	GradeID        *uint   `json:"gradeId"`
	ParentID       *uint   `json:"parentId"`
	Grade          string  `json:"grade" validate:"omitempty,max=20"`
	Section        string  `json:"section" validate:"omitempty,max=10"`
	DateOfBirth    *string `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	EnrollmentDate *string `json:"enrollmentDate" validate:"omitempty,datetime=2006-01-02"`

	// Parent profile
	Occupation string `json:"occupation" validate:"omitempty,max=100"`
}

// UpdateAccountInput holds the mutable user and profile fields. Nil
// pointers leave the current value untouched.
type UpdateAccountInput struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=100"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=8"`
	Contact  *string `json:"contact" validate:"omitempty,max=20"`

	Department     *string `json:"department" validate:"omitempty,max=100"`
	Specialization *string `json:"specialization" validate:"omitempty,max=100"`

	GradeID  *uint   `json:"gradeId"`
	ParentID *uint   `json:"parentId"`
	Grade    *string `json:"grade" validate:"omitempty,max=20"`
	Section  *string `json:"section" validate:"omitempty,max=10"`

	Occupation *string `json:"occupation" validate:"omitempty,max=100"`

	AdminLevel *model.AdminLevel `json:"adminLevel"`
}

// CreateAccount inserts the user row and its role profile atomically.
// A failure inserting the profile rolls back the user row as well.
func (s *AccountService) CreateAccount(ctx context.Context, input CreateAccountInput) (*model.User, error) {
	if err := validation.ValidateStruct(input); err != nil {
		return nil, FieldErrors(validation.FormatValidationErrors(err))
	}
	if !input.Role.Valid() {
		return nil, FieldErrors{"role": "role must be 1 (admin), 2 (teacher), 3 (student) or 4 (parent)"}
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return nil, FieldErrors{"password": "password must be at least 8 characters"}
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Contact:      input.Contact,
		Role:         input.Role,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.User{}).
			Where("name = ? OR email = ?", input.Name, input.Email).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: username or email taken", ErrConflict)
		}

		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		switch input.Role {
		case model.RoleAdmin:
			level := input.AdminLevel
			if level == 0 {
				level = model.AdminLevelRegular
			}
			if !level.Valid() {
				return FieldErrors{"adminLevel": "admin level must be 1 (super) or 2 (regular)"}
			}
			if err := tx.Create(&model.Admin{UserID: user.ID, Level: level}).Error; err != nil {
				return fmt.Errorf("failed to create admin profile: %w", err)
			}
		case model.RoleTeacher:
			if input.EmployeeNumber == "" {
				return FieldErrors{"employeeNumber": "employee number is required for teachers"}
			}
			if err := tx.Model(&model.Teacher{}).
				Where("employee_number = ?", input.EmployeeNumber).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return FieldErrors{"employeeNumber": "employee number already in use"}
			}
			teacher := &model.Teacher{
				UserID:         user.ID,
				EmployeeNumber: input.EmployeeNumber,
				Department:     input.Department,
				Specialization: input.Specialization,
			}
			if err := tx.Create(teacher).Error; err != nil {
				return fmt.Errorf("failed to create teacher profile: %w", err)
			}
		case model.RoleStudent:
			if input.StudentNumber == "" {
				return FieldErrors{"studentNumber": "student number is required for students"}
			}
			if err := tx.Model(&model.Student{}).
				Where("student_number = ?", input.StudentNumber).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return FieldErrors{"studentNumber": "student number already in use"}
			}
			if input.ParentID != nil {
				if err := ensureParentUser(tx, *input.ParentID); err != nil {
					return err
				}
			}
			student := &model.Student{
				UserID:        user.ID,
				ParentID:      input.ParentID,
				GradeID:       input.GradeID,
				StudentNumber: input.StudentNumber,
				GradeLabel:    input.Grade,
				Section:       input.Section,
			}
			if input.DateOfBirth != nil {
				d, err := parseDate(*input.DateOfBirth)
				if err != nil {
					return FieldErrors{"dateOfBirth": "date must be in YYYY-MM-DD format"}
				}
				student.DateOfBirth = &d
			}
			if input.EnrollmentDate != nil {
				d, err := parseDate(*input.EnrollmentDate)
				if err != nil {
					return FieldErrors{"enrollmentDate": "date must be in YYYY-MM-DD format"}
				}
				student.EnrollmentDate = &d
			}
			if err := tx.Create(student).Error; err != nil {
				return fmt.Errorf("failed to create student profile: %w", err)
			}
		case model.RoleParent:
			parent := &model.Parent{UserID: user.ID, Occupation: input.Occupation}
			if err := tx.Create(parent).Error; err != nil {
				return fmt.Errorf("failed to create parent profile: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateAccount applies the non-nil fields to the user row and its role
// profile.
func (s *AccountService) UpdateAccount(ctx context.Context, userID uint, input UpdateAccountInput) (*model.User, error) {
	if err := validation.ValidateStruct(input); err != nil {
		return nil, FieldErrors(validation.FormatValidationErrors(err))
	}

	var user model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: user %d", ErrNotFound, userID)
			}
			return err
		}

		userUpdates := map[string]interface{}{}
		if input.Name != nil && *input.Name != user.Name {
			var count int64
			if err := tx.Model(&model.User{}).
				Where("name = ? AND id <> ?", *input.Name, user.ID).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return FieldErrors{"name": "username already taken"}
			}
			userUpdates["name"] = *input.Name
		}
		if input.Email != nil && *input.Email != user.Email {
			var count int64
			if err := tx.Model(&model.User{}).
				Where("email = ? AND id <> ?", *input.Email, user.ID).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return FieldErrors{"email": "email already taken"}
			}
			userUpdates["email"] = *input.Email
		}
		if input.Password != nil {
			hash, err := auth.HashPassword(*input.Password)
			if err != nil {
				if errors.Is(err, auth.ErrPasswordTooShort) {
					return FieldErrors{"password": "password must be at least 8 characters"}
				}
				return err
			}
			userUpdates["password_hash"] = hash
		}
		if input.Contact != nil {
			userUpdates["contact"] = *input.Contact
		}
		if len(userUpdates) > 0 {
			if err := tx.Model(&user).Updates(userUpdates).Error; err != nil {
				return fmt.Errorf("failed to update user: %w", err)
			}
		}

		switch user.Role {
		case model.RoleAdmin:
			if input.AdminLevel != nil {
				if !input.AdminLevel.Valid() {
					return FieldErrors{"adminLevel": "admin level must be 1 (super) or 2 (regular)"}
				}
				if err := tx.Model(&model.Admin{}).Where("user_id = ?", user.ID).
					Update("level", *input.AdminLevel).Error; err != nil {
					return fmt.Errorf("failed to update admin profile: %w", err)
				}
			}
		case model.RoleTeacher:
			updates := map[string]interface{}{}
			if input.Department != nil {
				updates["department"] = *input.Department
			}
			if input.Specialization != nil {
				updates["specialization"] = *input.Specialization
			}
			if len(updates) > 0 {
				if err := tx.Model(&model.Teacher{}).Where("user_id = ?", user.ID).Updates(updates).Error; err != nil {
					return fmt.Errorf("failed to update teacher profile: %w", err)
				}
			}
		case model.RoleStudent:
			updates := map[string]interface{}{}
			if input.GradeID != nil {
				updates["grade_id"] = *input.GradeID
			}
			if input.ParentID != nil {
				if err := ensureParentUser(tx, *input.ParentID); err != nil {
					return err
				}
				updates["parent_id"] = *input.ParentID
			}
			if input.Grade != nil {
				updates["grade_label"] = *input.Grade
			}
			if input.Section != nil {
				updates["section"] = *input.Section
			}
			if len(updates) > 0 {
				if err := tx.Model(&model.Student{}).Where("user_id = ?", user.ID).Updates(updates).Error; err != nil {
					return fmt.Errorf("failed to update student profile: %w", err)
				}
			}
		case model.RoleParent:
			if input.Occupation != nil {
				if err := tx.Model(&model.Parent{}).Where("user_id = ?", user.ID).
					Update("occupation", *input.Occupation).Error; err != nil {
					return fmt.Errorf("failed to update parent profile: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser loads a user with its role profile preloaded.
func (s *AccountService) GetUser(ctx context.Context, userID uint) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).
		Preload("AdminProfile").
		Preload("TeacherProfile").
		Preload("StudentProfile").
		Preload("ParentProfile").
		First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		return nil, err
	}
	return &user, nil
}

// ListUsers returns users, optionally filtered by role.
func (s *AccountService) ListUsers(ctx context.Context, role *model.Role, offset, limit int) ([]model.User, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.User{})
	if role != nil {
		query = query.Where("role = ?", *role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []model.User
	if err := query.Order("id").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// DeleteUser removes the user row. Profile rows, attendance, results and
// notifications follow through foreign key cascades. Deleting a parent
// first detaches any linked students.
func (s *AccountService) DeleteUser(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: user %d", ErrNotFound, userID)
			}
			return err
		}

		if user.Role == model.RoleParent {
			if err := tx.Model(&model.Student{}).
				Where("parent_id = ?", user.ID).
				Update("parent_id", nil).Error; err != nil {
				return fmt.Errorf("failed to detach students: %w", err)
			}
		}

		if err := tx.Delete(&user).Error; err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
}

// LinkStudentToParent points the student at the given parent user.
// Relinking an already linked student overwrites the previous link.
func (s *AccountService) LinkStudentToParent(ctx context.Context, studentID, parentUserID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var student model.Student
		if err := tx.First(&student, studentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: student %d", ErrNotFound, studentID)
			}
			return err
		}
		if err := ensureParentUser(tx, parentUserID); err != nil {
			return err
		}
		return tx.Model(&student).Update("parent_id", parentUserID).Error
	})
}

// UnlinkStudentFromParent clears the student's parent link.
func (s *AccountService) UnlinkStudentFromParent(ctx context.Context, studentID uint) error {
	result := s.db.WithContext(ctx).Model(&model.Student{}).
		Where("id = ?", studentID).
		Update("parent_id", nil)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: student %d", ErrNotFound, studentID)
	}
	return nil
}

// StudentsWithoutParent lists students with no parent link, for the
// admin linking screen.
func (s *AccountService) StudentsWithoutParent(ctx context.Context) ([]model.Student, error) {
	var students []model.Student
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("parent_id IS NULL").
		Order("id").
		Find(&students).Error
	if err != nil {
		return nil, err
	}
	return students, nil
}

// StudentsOfParent lists the students linked to a parent user.
func (s *AccountService) StudentsOfParent(ctx context.Context, parentUserID uint) ([]model.Student, error) {
	var students []model.Student
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("GradeLevel").
		Where("parent_id = ?", parentUserID).
		Order("id").
		Find(&students).Error
	if err != nil {
		return nil, err
	}
	return students, nil
}

// ChangePassword verifies the current password before replacing it.
func (s *AccountService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		return err
	}
	if err := auth.VerifyPassword(user.PasswordHash, current); err != nil {
		return fmt.Errorf("%w: current password incorrect", ErrUnauthorized)
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return FieldErrors{"newPassword": "password must be at least 8 characters"}
		}
		return err
	}
	return s.db.WithContext(ctx).Model(&user).Update("password_hash", hash).Error
}

// ensureParentUser checks that the given user exists and has the parent
// role.
func ensureParentUser(tx *gorm.DB, parentUserID uint) error {
	var parent model.User
	if err := tx.First(&parent, parentUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: parent user %d", ErrDependencyGap, parentUserID)
		}
		return err
	}
	if parent.Role != model.RoleParent {
		return FieldErrors{"parentId": "referenced user is not a parent"}
	}
	return nil
}

func parseDate(s string) (datatypes.Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return datatypes.Date{}, err
	}
	return datatypes.Date(t), nil
}
