package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/schoolpulse/api/model"
	"github.com/schoolpulse/api/utils/validation"
)

// ResultService records marks students obtained in tests. One result
// row exists per (student, test) pair.
type ResultService struct {
	db *gorm.DB
}

func NewResultService(db *gorm.DB) *ResultService {
	return &ResultService{db: db}
}

type ResultInput struct {
	StudentID     uint   `json:"studentId" validate:"required"`
	TestID        uint   `json:"testId" validate:"required"`
	MarksObtained int    `json:"marksObtained" validate:"gte=0"`
	Grade         string `json:"grade" validate:"omitempty,max=5"`
	Remarks       string `json:"remarks" validate:"omitempty,max=500"`
}

type UpdateResultInput struct {
	MarksObtained *int    `json:"marksObtained" validate:"omitempty,gte=0"`
	Grade         *string `json:"grade" validate:"omitempty,max=5"`
	Remarks       *string `json:"remarks" validate:"omitempty,max=500"`
}

// CreateResult inserts a new result and fails with ErrConflict when the
// pair already has one.
func (s *ResultService) CreateResult(ctx context.Context, input ResultInput) (*model.StudentTestResult, error) {
	if err := validation.ValidateStruct(input); err != nil {
		return nil, FieldErrors(validation.FormatValidationErrors(err))
	}

	result := &model.StudentTestResult{
		StudentID:     input.StudentID,
		TestID:        input.TestID,
		MarksObtained: input.MarksObtained,
		Grade:         input.Grade,
		Remarks:       input.Remarks,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureStudentAndTest(tx, input.StudentID, input.TestID); err != nil {
			return err
		}

		var existing model.StudentTestResult
		err := tx.Where("student_id = ? AND test_id = ?", input.StudentID, input.TestID).
			First(&existing).Error
		if err == nil {
			return fmt.Errorf("%w: result for student %d on test %d", ErrConflict, input.StudentID, input.TestID)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return tx.Create(result).Error
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpsertResult inserts a result or overwrites the existing one for the
// same (student, test) pair. The lookup and the write run in one
// transaction.
func (s *ResultService) UpsertResult(ctx context.Context, input ResultInput) (*model.StudentTestResult, bool, error) {
	if err := validation.ValidateStruct(input); err != nil {
		return nil, false, FieldErrors(validation.FormatValidationErrors(err))
	}

	var out model.StudentTestResult
	var created bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureStudentAndTest(tx, input.StudentID, input.TestID); err != nil {
			return err
		}

		err := tx.Where("student_id = ? AND test_id = ?", input.StudentID, input.TestID).
			First(&out).Error
		switch {
		case err == nil:
			out.MarksObtained = input.MarksObtained
			out.Grade = input.Grade
			out.Remarks = input.Remarks
			return tx.Save(&out).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			out = model.StudentTestResult{
				StudentID:     input.StudentID,
				TestID:        input.TestID,
				MarksObtained: input.MarksObtained,
				Grade:         input.Grade,
				Remarks:       input.Remarks,
			}
			created = true
			return tx.Create(&out).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, false, err
	}
	return &out, created, nil
}

// UpdateResult applies non-nil fields to an existing result of the
// given student.
func (s *ResultService) UpdateResult(ctx context.Context, studentID, resultID uint, input UpdateResultInput) (*model.StudentTestResult, error) {
	if err := validation.ValidateStruct(input); err != nil {
		return nil, FieldErrors(validation.FormatValidationErrors(err))
	}

	var result model.StudentTestResult
	if err := s.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		First(&result, resultID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: result %d", ErrNotFound, resultID)
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.MarksObtained != nil {
		updates["marks_obtained"] = *input.MarksObtained
	}
	if input.Grade != nil {
		updates["grade"] = *input.Grade
	}
	if input.Remarks != nil {
		updates["remarks"] = *input.Remarks
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&result).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update result: %w", err)
		}
	}
	return &result, nil
}

// DeleteResult removes one result row of the given student.
func (s *ResultService) DeleteResult(ctx context.Context, studentID, resultID uint) error {
	result := s.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Delete(&model.StudentTestResult{}, resultID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: result %d", ErrNotFound, resultID)
	}
	return nil
}

// ResultsForTest lists all results of one test with students preloaded.
func (s *ResultService) ResultsForTest(ctx context.Context, testID uint) ([]model.StudentTestResult, error) {
	if err := ensureTest(s.db.WithContext(ctx), testID); err != nil {
		return nil, err
	}
	var results []model.StudentTestResult
	err := s.db.WithContext(ctx).
		Preload("Student").
		Preload("Student.User").
		Where("test_id = ?", testID).
		Order("marks_obtained DESC, student_id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ResultsForStudent lists all results of one student with tests
// preloaded, newest test first.
func (s *ResultService) ResultsForStudent(ctx context.Context, studentID uint) ([]model.StudentTestResult, error) {
	if err := ensureStudent(s.db.WithContext(ctx), studentID); err != nil {
		return nil, err
	}
	var results []model.StudentTestResult
	err := s.db.WithContext(ctx).
		Preload("Test").
		Preload("Test.Subject").
		Preload("Test.Exam").
		Preload("Test.NonAcademic").
		Joins("JOIN tests ON tests.id = student_test_results.test_id").
		Where("student_test_results.student_id = ?", studentID).
		Order("tests.date DESC, student_test_results.id DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func ensureStudent(tx *gorm.DB, studentID uint) error {
	var student model.Student
	if err := tx.First(&student, studentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: student %d", ErrDependencyGap, studentID)
		}
		return err
	}
	return nil
}

func ensureTest(tx *gorm.DB, testID uint) error {
	var test model.Test
	if err := tx.First(&test, testID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: test %d", ErrDependencyGap, testID)
		}
		return err
	}
	return nil
}

func ensureStudentAndTest(tx *gorm.DB, studentID, testID uint) error {
	if err := ensureStudent(tx, studentID); err != nil {
		return err
	}
	return ensureTest(tx, testID)
}
