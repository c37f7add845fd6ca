package savedcv

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"cvbuilder/internal/database"
	"cvbuilder/internal/redistest"
	"cvbuilder/internal/resume"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func record(role string) resume.SavedRecord {
	return resume.SavedRecord{
		Input:     resume.CvInput{Role: role, Experience: "x"},
		Result:    "Summary: " + role,
		CreatedAt: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestStore_DurableRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, cache := redistest.New(t)
	db := newTestDB(t)
	s := NewStore(cache, db, 0, nil)

	require.NoError(t, s.Save(ctx, "p1", record("Chef"), true))
	assert.Equal(t, DefaultSessionTTL, mr.TTL("cv:saved:p1"))

	got, err := s.Load(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Chef", got.Input.Role)

	mr.FastForward(DefaultSessionTTL)
	require.False(t, mr.Exists("cv:saved:p1"))
	got, err = s.Load(ctx, "p1")
	require.NoError(t, err, "durable scope survives session expiry")
	assert.Equal(t, "Summary: Chef", got.Result)
	assert.True(t, got.CreatedAt.Equal(record("Chef").CreatedAt))
}

func TestStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	_, cache := redistest.New(t)
	s := NewStore(cache, db, time.Hour, nil)

	require.NoError(t, s.Save(ctx, "p1", record("Chef"), true))
	require.NoError(t, s.Save(ctx, "p1", record("Baker"), true))

	var count int64
	require.NoError(t, db.Model(&database.SavedCV{}).Where("profile_id = ?", "p1").Count(&count).Error)
	assert.EqualValues(t, 1, count)

	got, err := s.Load(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Baker", got.Input.Role)
}

func TestStore_EphemeralSaveDropsDurable(t *testing.T) {
	ctx := context.Background()
	mr, cache := redistest.New(t)
	s := NewStore(cache, newTestDB(t), time.Hour, nil)

	require.NoError(t, s.Save(ctx, "p1", record("Chef"), true))
	require.NoError(t, s.Save(ctx, "p1", record("Baker"), false))

	got, err := s.Load(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Baker", got.Input.Role)

	mr.FastForward(time.Hour)
	_, err = s.Load(ctx, "p1")
	assert.ErrorIs(t, err, ErrNoSavedRecord)
}

func TestStore_MissingAndClear(t *testing.T) {
	ctx := context.Background()
	_, cache := redistest.New(t)
	s := NewStore(cache, newTestDB(t), time.Hour, nil)

	_, err := s.Load(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNoSavedRecord)

	require.NoError(t, s.Save(ctx, "p1", record("Chef"), true))
	require.NoError(t, s.Clear(ctx, "p1"))
	_, err = s.Load(ctx, "p1")
	assert.ErrorIs(t, err, ErrNoSavedRecord)

	require.NoError(t, s.Save(ctx, "p1", record("Chef"), true), "save after clear must not hit the unique index")
}

func TestStore_CorruptDataIsNoData(t *testing.T) {
	ctx := context.Background()
	mr, cache := redistest.New(t)
	db := newTestDB(t)
	s := NewStore(cache, db, time.Hour, nil)

	require.NoError(t, mr.Set("cv:saved:p1", "{not json"))
	_, err := s.Load(ctx, "p1")
	assert.ErrorIs(t, err, ErrNoSavedRecord)

	require.NoError(t, db.Create(&database.SavedCV{ProfileID: "p2", Input: []byte(`"oops"`), SavedAt: time.Now()}).Error)
	_, err = s.Load(ctx, "p2")
	assert.ErrorIs(t, err, ErrNoSavedRecord)
}
