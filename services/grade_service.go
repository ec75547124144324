package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/schoolpulse/api/model"
	"github.com/schoolpulse/api/utils/validation"
)

// GradeService maintains grade levels.
type GradeService struct {
	db *gorm.DB
}

func NewGradeService(db *gorm.DB) *GradeService {
	return &GradeService{db: db}
}

type GradeInput struct {
	Name        string `json:"name" validate:"required,max=50"`
	Level       string `json:"level" validate:"omitempty,max=10"`
	Description string `json:"description" validate:"omitempty,max=500"`
	IsActive    *bool  `json:"isActive"`
}

func (s *GradeService) Create(ctx context.Context, input GradeInput) (*model.Grade, error) {
	if err := validation.ValidateStruct(input); err != nil {
		return nil, FieldErrors(validation.FormatValidationErrors(err))
	}

	grade := &model.Grade{
		Name:        input.Name,
		Level:       input.Level,
		Description: input.Description,
		IsActive:    true,
	}
	if input.IsActive != nil {
		grade.IsActive = *input.IsActive
	}
	if err := s.db.WithContext(ctx).Create(grade).Error; err != nil {
		return nil, fmt.Errorf("failed to create grade: %w", err)
	}
	return grade, nil
}

func (s *GradeService) Update(ctx context.Context, gradeID uint, input GradeInput) (*model.Grade, error) {
	if err := validation.ValidateStruct(input); err != nil {
		return nil, FieldErrors(validation.FormatValidationErrors(err))
	}

	var grade model.Grade
	if err := s.db.WithContext(ctx).First(&grade, gradeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: grade %d", ErrNotFound, gradeID)
		}
		return nil, err
	}

	updates := map[string]interface{}{
		"name":        input.Name,
		"level":       input.Level,
		"description": input.Description,
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if err := s.db.WithContext(ctx).Model(&grade).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &grade, nil
}

func (s *GradeService) Get(ctx context.Context, gradeID uint) (*model.Grade, error) {
	var grade model.Grade
	err := s.db.WithContext(ctx).Preload("Students").First(&grade, gradeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: grade %d", ErrNotFound, gradeID)
		}
		return nil, err
	}
	return &grade, nil
}

// List returns grades ordered by level. activeOnly hides inactive ones.
func (s *GradeService) List(ctx context.Context, activeOnly bool) ([]model.Grade, error) {
	query := s.db.WithContext(ctx).Model(&model.Grade{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var grades []model.Grade
	if err := query.Order("level, id").Find(&grades).Error; err != nil {
		return nil, err
	}
	return grades, nil
}

func (s *GradeService) Delete(ctx context.Context, gradeID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var grade model.Grade
		if err := tx.First(&grade, gradeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: grade %d", ErrNotFound, gradeID)
			}
			return err
		}
		if err := tx.Model(&model.Student{}).
			Where("grade_id = ?", gradeID).
			Update("grade_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&grade).Error
	})
}
