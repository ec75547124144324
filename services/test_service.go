package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/schoolpulse/api/model"
	"github.com/schoolpulse/api/utils/validation"
)

// TestService maintains tests and their type-specific sub-records. An
// exam test always carries exactly one exam row, a non-academic test
// exactly one non_academic row. Both rows are written in one
// transaction.
type TestService struct {
	db *gorm.DB
}

func NewTestService(db *gorm.DB) *TestService {
	return &TestService{db: db}
}

type CreateTestInput struct {
	Type      model.TestType `json:"type" validate:"required"`
	Mark      *int           `json:"mark" validate:"omitempty,gte=0"`
	Date      string         `json:"date" validate:"required,datetime=2006-01-02"`
	SubjectID *uint          `json:"subjectId"`
	TeacherID *uint          `json:"teacherId"`

	// Exam sub-record
	Class       *int   `json:"class" validate:"omitempty,gte=1,lte=12"`
	Description string `json:"description" validate:"omitempty,max=500"`

	// Non-academic sub-record
	EventType string  `json:"eventType" validate:"omitempty,max=100"`
	EventDate *string `json:"eventDate" validate:"omitempty,datetime=2006-01-02"`
	Rank      *int    `json:"rank" validate:"omitempty,gte=1"`
	Level     string  `json:"level" validate:"omitempty,max=50"`
}

type UpdateTestInput struct {
	Mark      *int    `json:"mark" validate:"omitempty,gte=0"`
	Date      *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	SubjectID *uint   `json:"subjectId"`
	TeacherID *uint   `json:"teacherId"`

	Class       *int    `json:"class" validate:"omitempty,gte=1,lte=12"`
	Description *string `json:"description" validate:"omitempty,max=500"`

	EventType *string `json:"eventType" validate:"omitempty,max=100"`
	EventDate *string `json:"eventDate" validate:"omitempty,datetime=2006-01-02"`
	Rank      *int    `json:"rank" validate:"omitempty,gte=1"`
	Level     *string `json:"level" validate:"omitempty,max=50"`
}

// TestFilter narrows ListTests.
type TestFilter struct {
	Type      *model.TestType
	SubjectID *uint
	TeacherID *uint
	From      *string
	To        *string
}

// CreateTest inserts the test row together with its sub-record.
func (s *TestService) CreateTest(ctx context.Context, input CreateTestInput) (*model.Test, error) {
	if err := validation.ValidateStruct(input); err != nil {
		return nil, FieldErrors(validation.FormatValidationErrors(err))
	}
	if !input.Type.Valid() {
		return nil, FieldErrors{"type": "type must be 1 (exam) or 2 (non-academic)"}
	}

	date, err := parseDate(input.Date)
	if err != nil {
		return nil, FieldErrors{"date": "date must be in YYYY-MM-DD format"}
	}

	// Sub-record requirements are checked before any row is written.
	switch input.Type {
	case model.TestTypeExam:
		if input.Class == nil {
			return nil, FieldErrors{"class": "class is required for exam tests"}
		}
	case model.TestTypeNonAcademic:
		fields := FieldErrors{}
		if input.EventType == "" {
			fields["eventType"] = "event type is required for non-academic tests"
		}
		if input.EventDate == nil {
			fields["eventDate"] = "event date is required for non-academic tests"
		}
		if len(fields) > 0 {
			return nil, fields
		}
	}

	test := &model.Test{
		Type:      input.Type,
		Mark:      input.Mark,
		Date:      date,
		SubjectID: input.SubjectID,
		TeacherID: input.TeacherID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if input.SubjectID != nil {
			if err := ensureSubject(tx, *input.SubjectID); err != nil {
				return err
			}
		}

		if err := tx.Create(test).Error; err != nil {
			return fmt.Errorf("failed to create test: %w", err)
		}

		switch input.Type {
		case model.TestTypeExam:
			exam := &model.Exam{
				TestID:      test.ID,
				Class:       *input.Class,
				Description: input.Description,
			}
			if err := tx.Create(exam).Error; err != nil {
				return fmt.Errorf("failed to create exam record: %w", err)
			}
			test.Exam = exam
		case model.TestTypeNonAcademic:
			eventDate, err := parseDate(*input.EventDate)
			if err != nil {
				return FieldErrors{"eventDate": "date must be in YYYY-MM-DD format"}
			}
			na := &model.NonAcademic{
				TestID:      test.ID,
				EventType:   input.EventType,
				EventDate:   eventDate,
				Rank:        input.Rank,
				Description: input.Description,
				Level:       input.Level,
			}
			if err := tx.Create(na).Error; err != nil {
				return fmt.Errorf("failed to create non-academic record: %w", err)
			}
			test.NonAcademic = na
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return test, nil
}

// UpdateTest applies non-nil fields to the test row and to the
// sub-record matching its type. The type itself never changes.
func (s *TestService) UpdateTest(ctx context.Context, testID uint, input UpdateTestInput) (*model.Test, error) {
	if err := validation.ValidateStruct(input); err != nil {
		return nil, FieldErrors(validation.FormatValidationErrors(err))
	}

	var test model.Test
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&test, testID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: test %d", ErrNotFound, testID)
			}
			return err
		}

		updates := map[string]interface{}{}
		if input.Mark != nil {
			updates["mark"] = *input.Mark
		}
		if input.Date != nil {
			d, err := parseDate(*input.Date)
			if err != nil {
				return FieldErrors{"date": "date must be in YYYY-MM-DD format"}
			}
			updates["date"] = d
		}
		if input.SubjectID != nil {
			if err := ensureSubject(tx, *input.SubjectID); err != nil {
				return err
			}
			updates["subject_id"] = *input.SubjectID
		}
		if input.TeacherID != nil {
			updates["teacher_id"] = *input.TeacherID
		}
		if len(updates) > 0 {
			if err := tx.Model(&test).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update test: %w", err)
			}
		}

		switch test.Type {
		case model.TestTypeExam:
			examUpdates := map[string]interface{}{}
			if input.Class != nil {
				examUpdates["class"] = *input.Class
			}
			if input.Description != nil {
				examUpdates["description"] = *input.Description
			}
			if len(examUpdates) > 0 {
				if err := tx.Model(&model.Exam{}).Where("test_id = ?", test.ID).Updates(examUpdates).Error; err != nil {
					return fmt.Errorf("failed to update exam record: %w", err)
				}
			}
		case model.TestTypeNonAcademic:
			naUpdates := map[string]interface{}{}
			if input.EventType != nil {
				naUpdates["event_type"] = *input.EventType
			}
			if input.EventDate != nil {
				d, err := parseDate(*input.EventDate)
				if err != nil {
					return FieldErrors{"eventDate": "date must be in YYYY-MM-DD format"}
				}
				naUpdates["event_date"] = d
			}
			if input.Rank != nil {
				naUpdates["rank"] = *input.Rank
			}
			if input.Level != nil {
				naUpdates["level"] = *input.Level
			}
			if input.Description != nil {
				naUpdates["description"] = *input.Description
			}
			if len(naUpdates) > 0 {
				if err := tx.Model(&model.NonAcademic{}).Where("test_id = ?", test.ID).Updates(naUpdates).Error; err != nil {
					return fmt.Errorf("failed to update non-academic record: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetTest(ctx, test.ID)
}

// GetTest loads a test with its sub-record and subject preloaded.
func (s *TestService) GetTest(ctx context.Context, testID uint) (*model.Test, error) {
	var test model.Test
	err := s.db.WithContext(ctx).
		Preload("Exam").
		Preload("NonAcademic").
		Preload("Subject").
		Preload("Teacher").
		Preload("Results").
		First(&test, testID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: test %d", ErrNotFound, testID)
		}
		return nil, err
	}
	return &test, nil
}

// ListTests returns tests matching the filter, newest first.
func (s *TestService) ListTests(ctx context.Context, filter TestFilter, offset, limit int) ([]model.Test, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.Test{})
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.SubjectID != nil {
		query = query.Where("subject_id = ?", *filter.SubjectID)
	}
	if filter.TeacherID != nil {
		query = query.Where("teacher_id = ?", *filter.TeacherID)
	}
	if filter.From != nil {
		d, err := parseDate(*filter.From)
		if err != nil {
			return nil, 0, FieldErrors{"from": "date must be in YYYY-MM-DD format"}
		}
		query = query.Where("date >= ?", d)
	}
	if filter.To != nil {
		d, err := parseDate(*filter.To)
		if err != nil {
			return nil, 0, FieldErrors{"to": "date must be in YYYY-MM-DD format"}
		}
		query = query.Where("date <= ?", d)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tests []model.Test
	err := query.
		Preload("Exam").
		Preload("NonAcademic").
		Preload("Subject").
		Order("date DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&tests).Error
	if err != nil {
		return nil, 0, err
	}
	return tests, total, nil
}

// DeleteTest removes the test. Sub-records and results follow through
// cascades.
func (s *TestService) DeleteTest(ctx context.Context, testID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var test model.Test
		if err := tx.First(&test, testID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: test %d", ErrNotFound, testID)
			}
			return err
		}
		// sqlite does not always enforce cascades, so child rows are
		// removed explicitly.
		if err := tx.Where("test_id = ?", test.ID).Delete(&model.Exam{}).Error; err != nil {
			return err
		}
		if err := tx.Where("test_id = ?", test.ID).Delete(&model.NonAcademic{}).Error; err != nil {
			return err
		}
		if err := tx.Where("test_id = ?", test.ID).Delete(&model.StudentTestResult{}).Error; err != nil {
			return err
		}
		return tx.Delete(&test).Error
	})
}

func ensureSubject(tx *gorm.DB, subjectID uint) error {
	var subject model.Subject
	if err := tx.First(&subject, subjectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: subject %d", ErrDependencyGap, subjectID)
		}
		return err
	}
	return nil
}
