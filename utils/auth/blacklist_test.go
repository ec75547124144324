package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/schoolpulse/api/model"
)

func newBlacklistDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:blacklist_test?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.JWTTokenBlacklist{}))

	t.Cleanup(func() {
		db.Where("1 = 1").Delete(&model.JWTTokenBlacklist{})
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestTokenRevocation(t *testing.T) {
	db := newBlacklistDB(t)
	svc := NewBlacklistService(db)
	ctx := context.Background()

	require.NoError(t, svc.RevokeToken(ctx, "jti-live", 1, time.Now().Add(time.Hour), "logout"))
	require.NoError(t, svc.RevokeToken(ctx, "jti-stale", 1, time.Now().Add(-time.Hour), "logout"))

	t.Run("revoked token is reported while it lives", func(t *testing.T) {
		revoked, err := svc.IsTokenRevoked(ctx, "jti-live")
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("expired entries no longer block", func(t *testing.T) {
		revoked, err := svc.IsTokenRevoked(ctx, "jti-stale")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("unknown jti is clean", func(t *testing.T) {
		revoked, err := svc.IsTokenRevoked(ctx, "jti-unknown")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("purge removes only expired entries", func(t *testing.T) {
		removed, err := svc.PurgeExpired(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, removed)

		revoked, err := svc.IsTokenRevoked(ctx, "jti-live")
		require.NoError(t, err)
		assert.True(t, revoked)
	})
}
