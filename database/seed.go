package database

import (
	"fmt"
	"log"
	"os"

	"github.com/schoolpulse/api/model"
	"github.com/schoolpulse/api/utils/auth"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations.
type Seeder struct {
	db *gorm.DB
}

func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// RunSeeds runs all seed functions.
func RunSeeds(db *gorm.DB) error {
	return NewSeeder(db).SeedAll()
}

// SeedAll runs every seed in dependency order.
func (s *Seeder) SeedAll() error {
	log.Println("Starting database seeding...")

	if err := s.SeedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := s.SeedGrades(); err != nil {
		return fmt.Errorf("failed to seed grades: %w", err)
	}

	log.Println("Database seeding completed successfully!")
	return nil
}

// SeedAdminUser creates the default super admin account.
func (s *Seeder) SeedAdminUser() error {
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Admin user already exists, skipping")
		return nil
	}

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "ChangeMe123!"
		log.Println("SEED_ADMIN_PASSWORD not set, using default (change it immediately)")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		user := model.User{
			Name:         "admin",
			Email:        "admin@school.local",
			PasswordHash: hash,
			Role:         model.RoleAdmin,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		admin := model.Admin{
			UserID: user.ID,
			Level:  model.AdminLevelSuper,
		}
		return tx.Create(&admin).Error
	})
}

// SeedGrades creates the standard grade levels.
func (s *Seeder) SeedGrades() error {
	var count int64
	if err := s.db.Model(&model.Grade{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Grades already exist, skipping")
		return nil
	}

	for level := 1; level <= 12; level++ {
		grade := model.Grade{
			Name:     fmt.Sprintf("Grade %d", level),
			Level:    fmt.Sprintf("%d", level),
			IsActive: true,
		}
		if err := s.db.Create(&grade).Error; err != nil {
			return err
		}
	}

	log.Println("Seeded 12 grade levels")
	return nil
}
