package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolpulse/api/model"
)

func TestCreateTest(t *testing.T) {
	db := newTestDB(t)
	svc := NewTestService(db)
	ctx := context.Background()

	subject := seedSubject(t, db, "Mathematics", model.SubjectTypeAcademic)

	t.Run("exam test gets an exam sub-record", func(t *testing.T) {
		test, err := svc.CreateTest(ctx, CreateTestInput{
			Type:        model.TestTypeExam,
			Date:        "2026-03-10",
			SubjectID:   &subject.ID,
			Class:       intPtr(10),
			Description: "Midterm",
		})
		require.NoError(t, err)
		require.NotNil(t, test.Exam)
		assert.Nil(t, test.NonAcademic)
		assert.Equal(t, 10, test.Exam.Class)
		assert.Equal(t, test.ID, test.Exam.TestID)
	})

	t.Run("non-academic test gets a non-academic sub-record", func(t *testing.T) {
		test, err := svc.CreateTest(ctx, CreateTestInput{
			Type:      model.TestTypeNonAcademic,
			Date:      "2026-03-12",
			EventType: "debate",
			EventDate: strPtr("2026-03-12"),
			Rank:      intPtr(2),
			Level:     "district",
		})
		require.NoError(t, err)
		require.NotNil(t, test.NonAcademic)
		assert.Nil(t, test.Exam)
		assert.Equal(t, "debate", test.NonAcademic.EventType)
		assert.Equal(t, "district", test.NonAcademic.Level)
	})

	t.Run("exam without class writes nothing", func(t *testing.T) {
		before := countRows(t, db, &model.Test{})

		_, err := svc.CreateTest(ctx, CreateTestInput{
			Type: model.TestTypeExam,
			Date: "2026-03-10",
		})
		require.Error(t, err)
		fields, ok := AsFieldErrors(err)
		require.True(t, ok)
		assert.Contains(t, fields, "class")
		assert.Equal(t, before, countRows(t, db, &model.Test{}))
	})

	t.Run("non-academic missing fields are reported together", func(t *testing.T) {
		before := countRows(t, db, &model.Test{})

		_, err := svc.CreateTest(ctx, CreateTestInput{
			Type: model.TestTypeNonAcademic,
			Date: "2026-03-10",
		})
		require.Error(t, err)
		fields, ok := AsFieldErrors(err)
		require.True(t, ok)
		assert.Contains(t, fields, "eventType")
		assert.Contains(t, fields, "eventDate")
		assert.Equal(t, before, countRows(t, db, &model.Test{}))
	})

	t.Run("missing subject reports the gap", func(t *testing.T) {
		_, err := svc.CreateTest(ctx, CreateTestInput{
			Type:      model.TestTypeExam,
			Date:      "2026-03-10",
			SubjectID: uintPtr(99999),
			Class:     intPtr(8),
		})
		assert.ErrorIs(t, err, ErrDependencyGap)
	})
}

func TestUpdateTest(t *testing.T) {
	db := newTestDB(t)
	svc := NewTestService(db)
	ctx := context.Background()

	subject := seedSubject(t, db, "Science", model.SubjectTypeAcademic)
	test := seedExamTest(t, db, svc, subject.ID, "2026-02-01")

	t.Run("updates shared and exam fields", func(t *testing.T) {
		updated, err := svc.UpdateTest(ctx, test.ID, UpdateTestInput{
			Mark:  intPtr(50),
			Class: intPtr(11),
		})
		require.NoError(t, err)
		require.NotNil(t, updated.Mark)
		assert.Equal(t, 50, *updated.Mark)
		require.NotNil(t, updated.Exam)
		assert.Equal(t, 11, updated.Exam.Class)
	})

	t.Run("unknown test is not found", func(t *testing.T) {
		_, err := svc.UpdateTest(ctx, 99999, UpdateTestInput{Mark: intPtr(10)})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestListTests(t *testing.T) {
	db := newTestDB(t)
	svc := NewTestService(db)
	ctx := context.Background()

	math := seedSubject(t, db, "Mathematics", model.SubjectTypeAcademic)
	sports := seedSubject(t, db, "Sports", model.SubjectTypeNonAcademic)

	seedExamTest(t, db, svc, math.ID, "2026-01-10")
	seedExamTest(t, db, svc, math.ID, "2026-02-10")
	_, err := svc.CreateTest(ctx, CreateTestInput{
		Type:      model.TestTypeNonAcademic,
		Date:      "2026-01-20",
		SubjectID: &sports.ID,
		EventType: "race",
		EventDate: strPtr("2026-01-20"),
	})
	require.NoError(t, err)

	t.Run("filters by type", func(t *testing.T) {
		examType := model.TestTypeExam
		tests, total, err := svc.ListTests(ctx, TestFilter{Type: &examType}, 0, 20)
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		assert.Len(t, tests, 2)
	})

	t.Run("filters by subject and date range", func(t *testing.T) {
		tests, total, err := svc.ListTests(ctx, TestFilter{
			SubjectID: &math.ID,
			From:      strPtr("2026-02-01"),
			To:        strPtr("2026-02-28"),
		}, 0, 20)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, tests, 1)
	})

	t.Run("newest tests come first", func(t *testing.T) {
		tests, _, err := svc.ListTests(ctx, TestFilter{}, 0, 20)
		require.NoError(t, err)
		require.Len(t, tests, 3)
		require.NotNil(t, tests[0].SubjectID)
		assert.Equal(t, math.ID, *tests[0].SubjectID)
	})
}

func TestDeleteTest(t *testing.T) {
	db := newTestDB(t)
	testSvc := NewTestService(db)
	resultSvc := NewResultService(db)
	ctx := context.Background()

	subject := seedSubject(t, db, "History", model.SubjectTypeAcademic)
	student := seedStudent(t, db, "student.hist", "STU-301")
	test := seedExamTest(t, db, testSvc, subject.ID, "2026-02-01")

	_, err := resultSvc.CreateResult(ctx, ResultInput{
		StudentID:     student.ID,
		TestID:        test.ID,
		MarksObtained: 70,
	})
	require.NoError(t, err)

	require.NoError(t, testSvc.DeleteTest(ctx, test.ID))

	assert.EqualValues(t, 0, countRows(t, db, &model.Test{}))
	assert.EqualValues(t, 0, countRows(t, db, &model.Exam{}))
	assert.EqualValues(t, 0, countRows(t, db, &model.StudentTestResult{}))

	t.Run("deleting again is not found", func(t *testing.T) {
		assert.ErrorIs(t, testSvc.DeleteTest(ctx, test.ID), ErrNotFound)
	})
}
