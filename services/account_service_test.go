package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolpulse/api/model"
	"github.com/schoolpulse/api/utils/auth"
)

func TestCreateAccount(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccountService(db)
	ctx := context.Background()

	t.Run("creates teacher with profile", func(t *testing.T) {
		user, err := svc.CreateAccount(ctx, CreateAccountInput{
			Name:           "teacher.jones",
			Email:          "jones@school.test",
			Password:       "secret-pass-1",
			Role:           model.RoleTeacher,
			EmployeeNumber: "EMP-001",
			Department:     "Mathematics",
		})
		require.NoError(t, err)
		assert.NotZero(t, user.ID)

		var teacher model.Teacher
		require.NoError(t, db.Where("user_id = ?", user.ID).First(&teacher).Error)
		assert.Equal(t, "EMP-001", teacher.EmployeeNumber)
		assert.Equal(t, "Mathematics", teacher.Department)
	})

	t.Run("teacher without employee number is rejected", func(t *testing.T) {
		before := countRows(t, db, &model.User{})

		_, err := svc.CreateAccount(ctx, CreateAccountInput{
			Name:     "teacher.nobody",
			Email:    "nobody@school.test",
			Password: "secret-pass-1",
			Role:     model.RoleTeacher,
		})
		require.Error(t, err)
		fields, ok := AsFieldErrors(err)
		require.True(t, ok)
		assert.Contains(t, fields, "employeeNumber")

		// The user row must have rolled back with the profile.
		assert.Equal(t, before, countRows(t, db, &model.User{}))
	})

	t.Run("duplicate student number is reported per field", func(t *testing.T) {
		_, err := svc.CreateAccount(ctx, CreateAccountInput{
			Name:          "student.one",
			Email:         "student.one@school.test",
			Password:      "secret-pass-1",
			Role:          model.RoleStudent,
			StudentNumber: "STU-100",
		})
		require.NoError(t, err)

		before := countRows(t, db, &model.User{})
		_, err = svc.CreateAccount(ctx, CreateAccountInput{
			Name:          "student.two",
			Email:         "student.two@school.test",
			Password:      "secret-pass-1",
			Role:          model.RoleStudent,
			StudentNumber: "STU-100",
		})
		require.Error(t, err)
		fields, ok := AsFieldErrors(err)
		require.True(t, ok)
		assert.Contains(t, fields, "studentNumber")

		// The user row must have rolled back with the profile.
		assert.Equal(t, before, countRows(t, db, &model.User{}))
	})

	t.Run("duplicate employee number is reported per field", func(t *testing.T) {
		seedTeacher(t, db, "teacher.first", "EMP-200")

		before := countRows(t, db, &model.User{})
		_, err := svc.CreateAccount(ctx, CreateAccountInput{
			Name:           "teacher.second",
			Email:          "teacher.second@school.test",
			Password:       "secret-pass-1",
			Role:           model.RoleTeacher,
			EmployeeNumber: "EMP-200",
		})
		require.Error(t, err)
		fields, ok := AsFieldErrors(err)
		require.True(t, ok)
		assert.Contains(t, fields, "employeeNumber")
		assert.Equal(t, before, countRows(t, db, &model.User{}))
	})

	t.Run("duplicate username is a conflict", func(t *testing.T) {
		_, err := svc.CreateAccount(ctx, CreateAccountInput{
			Name:     "teacher.jones",
			Email:    "jones2@school.test",
			Password: "secret-pass-1",
			Role:     model.RoleParent,
		})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		_, err := svc.CreateAccount(ctx, CreateAccountInput{
			Name:     "who.knows",
			Email:    "who@school.test",
			Password: "secret-pass-1",
			Role:     model.Role(9),
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("student linked to a non-parent user is rejected", func(t *testing.T) {
		teacher := seedTeacher(t, db, "teacher.link", "EMP-900")

		before := countRows(t, db, &model.User{})
		_, err := svc.CreateAccount(ctx, CreateAccountInput{
			Name:          "student.badlink",
			Email:         "badlink@school.test",
			Password:      "secret-pass-1",
			Role:          model.RoleStudent,
			StudentNumber: "STU-901",
			ParentID:      &teacher.UserID,
		})
		require.Error(t, err)
		fields, ok := AsFieldErrors(err)
		require.True(t, ok)
		assert.Contains(t, fields, "parentId")
		assert.Equal(t, before, countRows(t, db, &model.User{}))
	})
}

func TestParentLinking(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccountService(db)
	ctx := context.Background()

	parent := seedParentUser(t, db, "parent.smith")
	s1 := seedStudent(t, db, "student.alpha", "STU-201")
	s2 := seedStudent(t, db, "student.beta", "STU-202")
	s3 := seedStudent(t, db, "student.gamma", "STU-203")

	t.Run("linked students fan out as children", func(t *testing.T) {
		require.NoError(t, svc.LinkStudentToParent(ctx, s1.ID, parent.ID))
		require.NoError(t, svc.LinkStudentToParent(ctx, s2.ID, parent.ID))

		children, err := svc.StudentsOfParent(ctx, parent.ID)
		require.NoError(t, err)
		require.Len(t, children, 2)
		assert.Equal(t, s1.ID, children[0].ID)
		assert.Equal(t, s2.ID, children[1].ID)
	})

	t.Run("relink overwrites the previous parent", func(t *testing.T) {
		other := seedParentUser(t, db, "parent.jones")
		require.NoError(t, svc.LinkStudentToParent(ctx, s1.ID, other.ID))

		children, err := svc.StudentsOfParent(ctx, parent.ID)
		require.NoError(t, err)
		require.Len(t, children, 1)
		assert.Equal(t, s2.ID, children[0].ID)
	})

	t.Run("linking to a missing parent reports the gap", func(t *testing.T) {
		err := svc.LinkStudentToParent(ctx, s3.ID, 99999)
		assert.ErrorIs(t, err, ErrDependencyGap)
	})

	t.Run("unlinked students show up on the linking screen", func(t *testing.T) {
		unlinked, err := svc.StudentsWithoutParent(ctx)
		require.NoError(t, err)
		require.Len(t, unlinked, 1)
		assert.Equal(t, s3.ID, unlinked[0].ID)
	})

	t.Run("deleting the parent detaches its students", func(t *testing.T) {
		require.NoError(t, svc.DeleteUser(ctx, parent.ID))

		var s model.Student
		require.NoError(t, db.First(&s, s2.ID).Error)
		assert.Nil(t, s.ParentID)
	})
}

func TestUpdateAccount(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccountService(db)
	ctx := context.Background()

	teacher := seedTeacher(t, db, "teacher.update", "EMP-100")
	seedTeacher(t, db, "teacher.taken", "EMP-101")

	t.Run("applies partial updates", func(t *testing.T) {
		updated, err := svc.UpdateAccount(ctx, teacher.UserID, UpdateAccountInput{
			Contact:    strPtr("555-0101"),
			Department: strPtr("Physics"),
		})
		require.NoError(t, err)
		assert.Equal(t, "teacher.update", updated.Name)

		var profile model.Teacher
		require.NoError(t, db.Where("user_id = ?", teacher.UserID).First(&profile).Error)
		assert.Equal(t, "Physics", profile.Department)
	})

	t.Run("taken username is reported per field", func(t *testing.T) {
		_, err := svc.UpdateAccount(ctx, teacher.UserID, UpdateAccountInput{
			Name: strPtr("teacher.taken"),
		})
		require.Error(t, err)
		fields, ok := AsFieldErrors(err)
		require.True(t, ok)
		assert.Contains(t, fields, "name")
	})

	t.Run("password change re-hashes", func(t *testing.T) {
		_, err := svc.UpdateAccount(ctx, teacher.UserID, UpdateAccountInput{
			Password: strPtr("brand-new-pass"),
		})
		require.NoError(t, err)

		var reloaded model.User
		require.NoError(t, db.First(&reloaded, teacher.UserID).Error)
		assert.NoError(t, auth.VerifyPassword(reloaded.PasswordHash, "brand-new-pass"))
	})

	t.Run("admin level is patchable", func(t *testing.T) {
		admin, err := svc.CreateAccount(ctx, CreateAccountInput{
			Name:     "admin.patch",
			Email:    "admin.patch@school.test",
			Password: "secret-pass-1",
			Role:     model.RoleAdmin,
		})
		require.NoError(t, err)

		level := model.AdminLevelSuper
		_, err = svc.UpdateAccount(ctx, admin.ID, UpdateAccountInput{AdminLevel: &level})
		require.NoError(t, err)

		var profile model.Admin
		require.NoError(t, db.Where("user_id = ?", admin.ID).First(&profile).Error)
		assert.Equal(t, model.AdminLevelSuper, profile.Level)

		bad := model.AdminLevel(7)
		_, err = svc.UpdateAccount(ctx, admin.ID, UpdateAccountInput{AdminLevel: &bad})
		require.Error(t, err)
		fields, ok := AsFieldErrors(err)
		require.True(t, ok)
		assert.Contains(t, fields, "adminLevel")
	})

	t.Run("unknown user is not found", func(t *testing.T) {
		_, err := svc.UpdateAccount(ctx, 99999, UpdateAccountInput{Contact: strPtr("x")})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestChangePassword(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccountService(db)
	ctx := context.Background()

	user, err := svc.CreateAccount(ctx, CreateAccountInput{
		Name:     "password.user",
		Email:    "pw@school.test",
		Password: "original-pass",
		Role:     model.RoleParent,
	})
	require.NoError(t, err)

	t.Run("wrong current password is unauthorized", func(t *testing.T) {
		err := svc.ChangePassword(ctx, user.ID, "wrong-pass", "replacement-pass")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("correct current password replaces the hash", func(t *testing.T) {
		require.NoError(t, svc.ChangePassword(ctx, user.ID, "original-pass", "replacement-pass"))

		var reloaded model.User
		require.NoError(t, db.First(&reloaded, user.ID).Error)
		assert.NoError(t, auth.VerifyPassword(reloaded.PasswordHash, "replacement-pass"))
	})
}
