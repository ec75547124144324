package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/schoolpulse/api/model"
	"github.com/schoolpulse/api/utils/auth"
)

type authFixture struct {
	app        *fiber.App
	jwtManager *auth.JWTManager
	blacklist  *auth.BlacklistService
	admin      *model.User
	teacher    *model.User
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:middleware_test?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.JWTTokenBlacklist{}))

	admin := &model.User{Name: "admin.root", Email: "root@school.test", PasswordHash: "x", Role: model.RoleAdmin}
	teacher := &model.User{Name: "teacher.jones", Email: "jones@school.test", PasswordHash: "x", Role: model.RoleTeacher}
	require.NoError(t, db.Create(admin).Error)
	require.NoError(t, db.Create(teacher).Error)

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret: "test-secret",
		Expiry: time.Hour,
	})
	authMiddleware := NewAuthMiddleware(jwtManager, db)

	app := fiber.New()
	app.Get("/open", authMiddleware.Required(), func(c *fiber.Ctx) error {
		userID, _ := GetUserID(c)
		return c.JSON(fiber.Map{"user_id": userID})
	})
	app.Get("/admin-only", authMiddleware.RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	t.Cleanup(func() {
		db.Where("1 = 1").Delete(&model.JWTTokenBlacklist{})
		db.Where("1 = 1").Delete(&model.User{})
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return &authFixture{
		app:        app,
		jwtManager: jwtManager,
		blacklist:  auth.NewBlacklistService(db),
		admin:      admin,
		teacher:    teacher,
	}
}

func (f *authFixture) get(t *testing.T, path, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestRequired(t *testing.T) {
	f := newAuthFixture(t)

	t.Run("missing token is unauthorized", func(t *testing.T) {
		resp := f.get(t, "/open", "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("garbage token is unauthorized", func(t *testing.T) {
		resp := f.get(t, "/open", "not-a-token")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid token passes", func(t *testing.T) {
		token, _, err := f.jwtManager.GenerateAccessToken(f.teacher)
		require.NoError(t, err)

		resp := f.get(t, "/open", token)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("refresh token never opens a route", func(t *testing.T) {
		token, _, err := f.jwtManager.GenerateRefreshToken(f.teacher)
		require.NoError(t, err)

		resp := f.get(t, "/open", token)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("revoked token is unauthorized", func(t *testing.T) {
		token, jti, err := f.jwtManager.GenerateAccessToken(f.teacher)
		require.NoError(t, err)
		require.NoError(t, f.blacklist.RevokeToken(context.Background(), jti, f.teacher.ID,
			time.Now().Add(time.Hour), "logout"))

		resp := f.get(t, "/open", token)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestRequireRole(t *testing.T) {
	f := newAuthFixture(t)

	t.Run("wrong role is forbidden", func(t *testing.T) {
		token, _, err := f.jwtManager.GenerateAccessToken(f.teacher)
		require.NoError(t, err)

		resp := f.get(t, "/admin-only", token)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("matching role passes", func(t *testing.T) {
		token, _, err := f.jwtManager.GenerateAccessToken(f.admin)
		require.NoError(t, err)

		resp := f.get(t, "/admin-only", token)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("no token at all is unauthorized, not forbidden", func(t *testing.T) {
		resp := f.get(t, "/admin-only", "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
