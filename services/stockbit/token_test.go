package stockbit

import (
	"fmt"
	"testing"
	"time"

	"github.com/rizalgs/adimology/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.MigrateSessionModels(db))
	return db
}

func setSessionToken(t *testing.T, db *gorm.DB, value string) {
	t.Helper()
	var session models.Session
	err := db.Where("key = ?", models.SessionTokenKey).First(&session).Error
	if err == gorm.ErrRecordNotFound {
		require.NoError(t, db.Create(&models.Session{Key: models.SessionTokenKey, Value: value}).Error)
		return
	}
	require.NoError(t, err)
	require.NoError(t, db.Model(&session).Update("value", value).Error)
}

func TestTokenPrefersSessionStore(t *testing.T) {
	db := newTestDB(t)
	setSessionToken(t, db, "session-token")

	provider := NewTokenProvider(db, "env-token")

	token, err := provider.Token()
	require.NoError(t, err)
	require.Equal(t, "session-token", token)
}

func TestTokenFallsBackToEnv(t *testing.T) {
	db := newTestDB(t)

	provider := NewTokenProvider(db, "env-token")

	token, err := provider.Token()
	require.NoError(t, err)
	require.Equal(t, "env-token", token)
}

func TestTokenNoSourceAvailable(t *testing.T) {
	db := newTestDB(t)

	provider := NewTokenProvider(db, "")

	_, err := provider.Token()
	require.ErrorIs(t, err, ErrNoToken)
}

func TestTokenCachedWithinTTL(t *testing.T) {
	db := newTestDB(t)
	setSessionToken(t, db, "first")

	provider := NewTokenProvider(db, "")

	token, err := provider.Token()
	require.NoError(t, err)
	require.Equal(t, "first", token)

	// A fresher token in the store is not picked up until the TTL lapses
	setSessionToken(t, db, "second")

	token, err = provider.Token()
	require.NoError(t, err)
	require.Equal(t, "first", token)
}

func TestTokenRefetchedAfterTTL(t *testing.T) {
	db := newTestDB(t)
	setSessionToken(t, db, "first")

	provider := NewTokenProvider(db, "")

	_, err := provider.Token()
	require.NoError(t, err)

	setSessionToken(t, db, "second")

	// Age the cache past the TTL instead of sleeping
	provider.mu.Lock()
	provider.fetchedAt = time.Now().Add(-TokenTTL - time.Second)
	provider.mu.Unlock()

	token, err := provider.Token()
	require.NoError(t, err)
	require.Equal(t, "second", token)
}

func TestInvalidateDropsCache(t *testing.T) {
	db := newTestDB(t)
	setSessionToken(t, db, "first")

	provider := NewTokenProvider(db, "")

	_, err := provider.Token()
	require.NoError(t, err)

	setSessionToken(t, db, "second")
	provider.Invalidate()

	token, err := provider.Token()
	require.NoError(t, err)
	require.Equal(t, "second", token)
}
