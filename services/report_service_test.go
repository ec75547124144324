package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolpulse/api/model"
)

// The monitoring flow end to end: accounts, a test, a result and two
// attendance marks, then the aggregates the dashboards read.
func TestMonitoringFlow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	accounts := NewAccountService(db)
	grades := NewGradeService(db)
	subjects := NewSubjectService(db)
	tests := NewTestService(db)
	results := NewResultService(db)
	attendance := NewAttendanceService(db)
	reports := NewReportService(db)

	grade, err := grades.Create(ctx, GradeInput{Name: "Grade 10", Level: "10"})
	require.NoError(t, err)

	teacher, err := accounts.CreateAccount(ctx, CreateAccountInput{
		Name:           "teacher.t1",
		Email:          "t1@school.test",
		Password:       "secret-pass-1",
		Role:           model.RoleTeacher,
		EmployeeNumber: "EMP-T1",
		Department:     "Math",
	})
	require.NoError(t, err)

	studentUser, err := accounts.CreateAccount(ctx, CreateAccountInput{
		Name:          "student.s1",
		Email:         "s1@school.test",
		Password:      "secret-pass-1",
		Role:          model.RoleStudent,
		StudentNumber: "STU-601",
		GradeID:       &grade.ID,
		Grade:         "Grade 10",
		Section:       "A",
	})
	require.NoError(t, err)

	var student model.Student
	require.NoError(t, db.Where("user_id = ?", studentUser.ID).First(&student).Error)

	algebra, err := subjects.Create(ctx, SubjectInput{Name: "Algebra", Type: model.SubjectTypeAcademic})
	require.NoError(t, err)

	exam, err := tests.CreateTest(ctx, CreateTestInput{
		Type:      model.TestTypeExam,
		Date:      "2024-01-08",
		SubjectID: &algebra.ID,
		TeacherID: &teacher.ID,
		Class:     intPtr(10),
	})
	require.NoError(t, err)

	_, err = results.CreateResult(ctx, ResultInput{
		StudentID:     student.ID,
		TestID:        exam.ID,
		MarksObtained: 85,
		Grade:         "B",
	})
	require.NoError(t, err)

	performance, err := reports.StudentPerformanceFor(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 85.0, performance.AverageMarks)
	assert.EqualValues(t, 1, performance.TotalTests)

	for _, mark := range []struct {
		date   string
		status string
	}{
		{"2024-01-10", "Present"},
		{"2024-01-11", "Absent"},
	} {
		_, _, err := attendance.Upsert(ctx, AttendanceInput{
			StudentID: student.ID,
			SubjectID: algebra.ID,
			Date:      mark.date,
			Status:    mark.status,
		})
		require.NoError(t, err)
	}

	stats, err := attendance.Statistics(ctx, student.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 50.0, stats.PresentRate)

	report, err := reports.ComprehensiveReportFor(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 85.0, report.Summary.AverageMarks)
	assert.Equal(t, 50.0, report.Summary.OverallAttendance)
	require.Len(t, report.SubjectAttendance, 1)
	assert.Equal(t, "Algebra", report.SubjectAttendance[0].SubjectName)
}

func TestOverallPerformance(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	tests := NewTestService(db)
	results := NewResultService(db)
	reports := NewReportService(db)

	subject := seedSubject(t, db, "Mathematics", model.SubjectTypeAcademic)
	strong := seedStudent(t, db, "student.strong", "STU-602")
	weak := seedStudent(t, db, "student.weak", "STU-603")
	t1 := seedExamTest(t, db, tests, subject.ID, "2026-01-10")
	t2 := seedExamTest(t, db, tests, subject.ID, "2026-02-10")

	marks := map[*model.Student][2]int{
		strong: {90, 80},
		weak:   {30, 40},
	}
	for student, pair := range marks {
		for i, test := range []*model.Test{t1, t2} {
			_, err := results.CreateResult(ctx, ResultInput{
				StudentID:     student.ID,
				TestID:        test.ID,
				MarksObtained: pair[i],
			})
			require.NoError(t, err)
		}
	}

	t.Run("orders students by average descending", func(t *testing.T) {
		rows, err := reports.OverallPerformance(ctx, nil)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, strong.ID, rows[0].StudentID)
		assert.Equal(t, 85.0, rows[0].AverageMarks)
		assert.Equal(t, weak.ID, rows[1].StudentID)
		assert.Equal(t, 35.0, rows[1].AverageMarks)
	})

	t.Run("minimum average cuts the tail", func(t *testing.T) {
		rows, err := reports.OverallPerformance(ctx, floatPtr(50.0))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, strong.ID, rows[0].StudentID)
	})

	t.Run("top performers honor the limit", func(t *testing.T) {
		rows, err := reports.TopPerformers(ctx, 1)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, strong.ID, rows[0].StudentID)
	})

	t.Run("struggling students come lowest first", func(t *testing.T) {
		rows, err := reports.StrugglingStudents(ctx, 50.0)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, weak.ID, rows[0].StudentID)
	})

	t.Run("class report averages the class", func(t *testing.T) {
		report, err := reports.ClassReportFor(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, 10, report.Class)
		require.Len(t, report.Students, 2)
		assert.Equal(t, 60.0, report.ClassAverage)
	})

	t.Run("subject scope matches the overall view here", func(t *testing.T) {
		rows, err := reports.SubjectPerformance(ctx, subject.ID)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, 85.0, rows[0].AverageMarks)
	})
}

func TestStudentReportsEdgeCases(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	reports := NewReportService(db)

	student := seedStudent(t, db, "student.blank", "STU-604")

	t.Run("no results reports zero averages", func(t *testing.T) {
		performance, err := reports.StudentPerformanceFor(ctx, student.ID)
		require.NoError(t, err)
		assert.Equal(t, 0.0, performance.AverageMarks)
		assert.EqualValues(t, 0, performance.TotalTests)
		assert.Empty(t, performance.Subjects)
	})

	t.Run("unknown student is not found", func(t *testing.T) {
		_, err := reports.ComprehensiveReportFor(ctx, 99999)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestAttendanceReport(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	attendance := NewAttendanceService(db)
	reports := NewReportService(db)

	subject := seedSubject(t, db, "Science", model.SubjectTypeAcademic)
	student := seedStudent(t, db, "student.attrep", "STU-605")

	for _, mark := range []struct {
		date   string
		status string
	}{
		{"2026-03-02", "Present"},
		{"2026-03-03", "Absent"},
		{"2026-04-01", "Present"},
	} {
		_, _, err := attendance.Upsert(ctx, AttendanceInput{
			StudentID: student.ID,
			SubjectID: subject.ID,
			Date:      mark.date,
			Status:    mark.status,
		})
		require.NoError(t, err)
	}

	t.Run("covers the full history by default", func(t *testing.T) {
		rows, err := reports.AttendanceReport(ctx, nil, nil)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.EqualValues(t, 3, rows[0].TotalDays)
		assert.EqualValues(t, 2, rows[0].PresentDays)
	})

	t.Run("date range narrows the window", func(t *testing.T) {
		rows, err := reports.AttendanceReport(ctx, strPtr("2026-03-01"), strPtr("2026-03-31"))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.EqualValues(t, 2, rows[0].TotalDays)
		assert.Equal(t, 50.0, rows[0].PresentRate)
	})
}
