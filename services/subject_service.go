package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/schoolpulse/api/model"
	"github.com/schoolpulse/api/utils/validation"
)

// SubjectService maintains subjects and the teacher assignment m2m.
type SubjectService struct {
	db *gorm.DB
}

func NewSubjectService(db *gorm.DB) *SubjectService {
	return &SubjectService{db: db}
}

type SubjectInput struct {
	Name        string            `json:"name" validate:"required,max=100"`
	Type        model.SubjectType `json:"type" validate:"required"`
	Description string            `json:"description" validate:"omitempty,max=500"`
}

type UpdateSubjectInput struct {
	Name        *string            `json:"name" validate:"omitempty,max=100"`
	Type        *model.SubjectType `json:"type"`
	Description *string            `json:"description" validate:"omitempty,max=500"`
}

// Create inserts a subject.
func (s *SubjectService) Create(ctx context.Context, input SubjectInput) (*model.Subject, error) {
	if err := validation.ValidateStruct(input); err != nil {
		return nil, FieldErrors(validation.FormatValidationErrors(err))
	}
	if !input.Type.Valid() {
		return nil, FieldErrors{"type": "type must be 1 (academic) or 2 (non-academic)"}
	}

	subject := &model.Subject{
		Name:        input.Name,
		Type:        input.Type,
		Description: input.Description,
	}
	if err := s.db.WithContext(ctx).Create(subject).Error; err != nil {
		return nil, fmt.Errorf("failed to create subject: %w", err)
	}
	return subject, nil
}

// Update applies non-nil fields to a subject.
func (s *SubjectService) Update(ctx context.Context, subjectID uint, input UpdateSubjectInput) (*model.Subject, error) {
	if err := validation.ValidateStruct(input); err != nil {
		return nil, FieldErrors(validation.FormatValidationErrors(err))
	}

	var subject model.Subject
	if err := s.db.WithContext(ctx).First(&subject, subjectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: subject %d", ErrNotFound, subjectID)
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Type != nil {
		if !input.Type.Valid() {
			return nil, FieldErrors{"type": "type must be 1 (academic) or 2 (non-academic)"}
		}
		updates["type"] = *input.Type
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&subject).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return &subject, nil
}

// Get loads a subject with its teacher assignments.
func (s *SubjectService) Get(ctx context.Context, subjectID uint) (*model.Subject, error) {
	var subject model.Subject
	err := s.db.WithContext(ctx).
		Preload("TeacherAssignments").
		Preload("TeacherAssignments.Teacher").
		First(&subject, subjectID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: subject %d", ErrNotFound, subjectID)
		}
		return nil, err
	}
	return &subject, nil
}

// List returns subjects, optionally filtered by type.
func (s *SubjectService) List(ctx context.Context, subjectType *model.SubjectType) ([]model.Subject, error) {
	query := s.db.WithContext(ctx).Model(&model.Subject{})
	if subjectType != nil {
		query = query.Where("type = ?", *subjectType)
	}
	var subjects []model.Subject
	if err := query.Order("name").Find(&subjects).Error; err != nil {
		return nil, err
	}
	return subjects, nil
}

// Delete removes a subject together with its tests, results, attendance,
// notifications and teacher assignments.
func (s *SubjectService) Delete(ctx context.Context, subjectID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var subject model.Subject
		if err := tx.First(&subject, subjectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: subject %d", ErrNotFound, subjectID)
			}
			return err
		}

		var testIDs []uint
		if err := tx.Model(&model.Test{}).Where("subject_id = ?", subjectID).Pluck("id", &testIDs).Error; err != nil {
			return err
		}
		if len(testIDs) > 0 {
			if err := tx.Where("test_id IN ?", testIDs).Delete(&model.Exam{}).Error; err != nil {
				return err
			}
			if err := tx.Where("test_id IN ?", testIDs).Delete(&model.NonAcademic{}).Error; err != nil {
				return err
			}
			if err := tx.Where("test_id IN ?", testIDs).Delete(&model.StudentTestResult{}).Error; err != nil {
				return err
			}
			if err := tx.Where("subject_id = ?", subjectID).Delete(&model.Test{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("subject_id = ?", subjectID).Delete(&model.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Where("subject_id = ?", subjectID).Delete(&model.TeacherSubject{}).Error; err != nil {
			return err
		}
		if err := tx.Where("subject_id = ?", subjectID).Delete(&model.Attendance{}).Error; err != nil {
			return err
		}
		return tx.Delete(&subject).Error
	})
}

// AssignTeacher links a teacher user to a subject. Assigning an already
// assigned pair is a no-op.
func (s *SubjectService) AssignTeacher(ctx context.Context, subjectID, teacherUserID uint) (*model.TeacherSubject, bool, error) {
	var assignment model.TeacherSubject
	var created bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureSubject(tx, subjectID); err != nil {
			return err
		}
		var teacher model.User
		if err := tx.First(&teacher, teacherUserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: teacher user %d", ErrDependencyGap, teacherUserID)
			}
			return err
		}
		if teacher.Role != model.RoleTeacher {
			return FieldErrors{"teacherId": "referenced user is not a teacher"}
		}

		err := tx.Where("teacher_id = ? AND subject_id = ?", teacherUserID, subjectID).
			First(&assignment).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		assignment = model.TeacherSubject{
			TeacherID:    teacherUserID,
			SubjectID:    subjectID,
			AssignedDate: datatypes.Date(time.Now()),
		}
		created = true
		return tx.Create(&assignment).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &assignment, created, nil
}

// RemoveTeacher unlinks a teacher user from a subject.
func (s *SubjectService) RemoveTeacher(ctx context.Context, subjectID, teacherUserID uint) error {
	result := s.db.WithContext(ctx).
		Where("teacher_id = ? AND subject_id = ?", teacherUserID, subjectID).
		Delete(&model.TeacherSubject{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: assignment of teacher %d to subject %d", ErrNotFound, teacherUserID, subjectID)
	}
	return nil
}

// SubjectsOfTeacher lists the subjects assigned to a teacher user.
func (s *SubjectService) SubjectsOfTeacher(ctx context.Context, teacherUserID uint) ([]model.Subject, error) {
	var subjects []model.Subject
	err := s.db.WithContext(ctx).
		Joins("JOIN teacher_subjects ON teacher_subjects.subject_id = subjects.id").
		Where("teacher_subjects.teacher_id = ?", teacherUserID).
		Order("subjects.name").
		Find(&subjects).Error
	if err != nil {
		return nil, err
	}
	return subjects, nil
}
