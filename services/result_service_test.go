package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolpulse/api/model"
)

func TestCreateResult(t *testing.T) {
	db := newTestDB(t)
	testSvc := NewTestService(db)
	svc := NewResultService(db)
	ctx := context.Background()

	subject := seedSubject(t, db, "Mathematics", model.SubjectTypeAcademic)
	student := seedStudent(t, db, "student.res", "STU-401")
	test := seedExamTest(t, db, testSvc, subject.ID, "2026-02-01")

	t.Run("creates a result", func(t *testing.T) {
		result, err := svc.CreateResult(ctx, ResultInput{
			StudentID:     student.ID,
			TestID:        test.ID,
			MarksObtained: 82,
			Grade:         "A",
		})
		require.NoError(t, err)
		assert.NotZero(t, result.ID)
		assert.Equal(t, 82, result.MarksObtained)
	})

	t.Run("second plain insert for the same pair is a conflict", func(t *testing.T) {
		_, err := svc.CreateResult(ctx, ResultInput{
			StudentID:     student.ID,
			TestID:        test.ID,
			MarksObtained: 90,
		})
		assert.ErrorIs(t, err, ErrConflict)
		assert.EqualValues(t, 1, countRows(t, db, &model.StudentTestResult{}))
	})

	t.Run("missing student reports the gap", func(t *testing.T) {
		_, err := svc.CreateResult(ctx, ResultInput{
			StudentID:     99999,
			TestID:        test.ID,
			MarksObtained: 50,
		})
		assert.ErrorIs(t, err, ErrDependencyGap)
	})
}

func TestUpsertResult(t *testing.T) {
	db := newTestDB(t)
	testSvc := NewTestService(db)
	svc := NewResultService(db)
	ctx := context.Background()

	subject := seedSubject(t, db, "Science", model.SubjectTypeAcademic)
	student := seedStudent(t, db, "student.upsert", "STU-402")
	test := seedExamTest(t, db, testSvc, subject.ID, "2026-02-01")

	first, created, err := svc.UpsertResult(ctx, ResultInput{
		StudentID:     student.ID,
		TestID:        test.ID,
		MarksObtained: 60,
		Grade:         "B",
	})
	require.NoError(t, err)
	assert.True(t, created)

	// Same pair again: overwrites in place, row count stays at one.
	second, created, err := svc.UpsertResult(ctx, ResultInput{
		StudentID:     student.ID,
		TestID:        test.ID,
		MarksObtained: 75,
		Grade:         "A",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 75, second.MarksObtained)
	assert.Equal(t, "A", second.Grade)
	assert.EqualValues(t, 1, countRows(t, db, &model.StudentTestResult{}))
}

func TestResultQueriesAndMutations(t *testing.T) {
	db := newTestDB(t)
	testSvc := NewTestService(db)
	svc := NewResultService(db)
	ctx := context.Background()

	subject := seedSubject(t, db, "English", model.SubjectTypeAcademic)
	alpha := seedStudent(t, db, "student.alpha", "STU-403")
	beta := seedStudent(t, db, "student.beta", "STU-404")
	older := seedExamTest(t, db, testSvc, subject.ID, "2026-01-10")
	newer := seedExamTest(t, db, testSvc, subject.ID, "2026-02-10")

	for _, seed := range []struct {
		student *model.Student
		test    *model.Test
		marks   int
	}{
		{alpha, older, 55},
		{alpha, newer, 88},
		{beta, older, 71},
	} {
		_, err := svc.CreateResult(ctx, ResultInput{
			StudentID:     seed.student.ID,
			TestID:        seed.test.ID,
			MarksObtained: seed.marks,
		})
		require.NoError(t, err)
	}

	t.Run("results for a test rank by marks", func(t *testing.T) {
		results, err := svc.ResultsForTest(ctx, older.ID)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, beta.ID, results[0].StudentID)
		assert.Equal(t, alpha.ID, results[1].StudentID)
	})

	t.Run("results for a student come newest first", func(t *testing.T) {
		results, err := svc.ResultsForStudent(ctx, alpha.ID)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, newer.ID, results[0].TestID)
	})

	t.Run("update is scoped to the student", func(t *testing.T) {
		results, err := svc.ResultsForStudent(ctx, alpha.ID)
		require.NoError(t, err)
		target := results[0]

		updated, err := svc.UpdateResult(ctx, alpha.ID, target.ID, UpdateResultInput{
			MarksObtained: intPtr(91),
		})
		require.NoError(t, err)
		assert.Equal(t, 91, updated.MarksObtained)

		// Another student's id never reaches this row.
		_, err = svc.UpdateResult(ctx, beta.ID, target.ID, UpdateResultInput{
			MarksObtained: intPtr(10),
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete is scoped to the student", func(t *testing.T) {
		results, err := svc.ResultsForStudent(ctx, beta.ID)
		require.NoError(t, err)
		require.Len(t, results, 1)

		assert.ErrorIs(t, svc.DeleteResult(ctx, alpha.ID, results[0].ID), ErrNotFound)
		require.NoError(t, svc.DeleteResult(ctx, beta.ID, results[0].ID))
		assert.EqualValues(t, 2, countRows(t, db, &model.StudentTestResult{}))
	})
}
