package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/schoolpulse/api/database"
	"github.com/schoolpulse/api/model"
)

var testDBCounter uint64

// newTestDB opens a fresh in-memory sqlite database with the full schema
// migrated. Each call gets its own named database so parallel tests never
// share state.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := atomic.AddUint64(&testDBCounter, 1)
	dsn := fmt.Sprintf("file:services_test_%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// ==================== FIXTURES ====================

func seedStudent(t *testing.T, db *gorm.DB, name, number string) *model.Student {
	t.Helper()
	user := &model.User{
		Name:         name,
		Email:        name + "@school.test",
		PasswordHash: "not-a-real-hash",
		Role:         model.RoleStudent,
	}
	require.NoError(t, db.Create(user).Error)
	student := &model.Student{
		UserID:        user.ID,
		StudentNumber: number,
		GradeLabel:    "Grade 10",
		Section:       "A",
	}
	require.NoError(t, db.Create(student).Error)
	student.User = user
	return student
}

func seedTeacher(t *testing.T, db *gorm.DB, name, employeeNumber string) *model.Teacher {
	t.Helper()
	user := &model.User{
		Name:         name,
		Email:        name + "@school.test",
		PasswordHash: "not-a-real-hash",
		Role:         model.RoleTeacher,
	}
	require.NoError(t, db.Create(user).Error)
	teacher := &model.Teacher{UserID: user.ID, EmployeeNumber: employeeNumber}
	require.NoError(t, db.Create(teacher).Error)
	teacher.User = user
	return teacher
}

func seedParentUser(t *testing.T, db *gorm.DB, name string) *model.User {
	t.Helper()
	user := &model.User{
		Name:         name,
		Email:        name + "@school.test",
		PasswordHash: "not-a-real-hash",
		Role:         model.RoleParent,
	}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Create(&model.Parent{UserID: user.ID}).Error)
	return user
}

func seedSubject(t *testing.T, db *gorm.DB, name string, subjectType model.SubjectType) *model.Subject {
	t.Helper()
	subject := &model.Subject{Name: name, Type: subjectType}
	require.NoError(t, db.Create(subject).Error)
	return subject
}

func seedExamTest(t *testing.T, db *gorm.DB, svc *TestService, subjectID uint, date string) *model.Test {
	t.Helper()
	class := 10
	test, err := svc.CreateTest(context.Background(), CreateTestInput{
		Type:      model.TestTypeExam,
		Date:      date,
		SubjectID: &subjectID,
		Class:     &class,
	})
	require.NoError(t, err)
	return test
}

func countRows(t *testing.T, db *gorm.DB, value interface{}) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(value).Count(&count).Error)
	return count
}

func uintPtr(v uint) *uint { return &v }

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func floatPtr(v float64) *float64 { return &v }
