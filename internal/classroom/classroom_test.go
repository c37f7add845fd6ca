package classroom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"cvbuilder/internal/config"
	"cvbuilder/internal/database"
	"cvbuilder/internal/resume"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	svc := NewService(db, config.ClassroomConfig{CodeLength: 6, TTL: time.Hour, MaxCreateAttempts: 3}, nil)
	return svc, db
}

func TestCreate_ConfigRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestService(t)

	created, err := svc.Create(ctx, json.RawMessage(`{"allowedTemplates":["classic","modern"],"forceSafeMode":true}`))
	require.NoError(t, err)
	assert.Len(t, created.ClassCode, 6)
	assert.NotContains(t, created.ClassCode, "0")
	assert.NotContains(t, created.ClassCode, "O")
	assert.NotEmpty(t, created.TeacherSecret)

	var row database.ClassSession
	require.NoError(t, db.First(&row).Error)
	assert.NotEqual(t, created.TeacherSecret, row.TeacherSecretHash, "secret must not be stored in clear")
	assert.Len(t, row.TeacherSecretHash, 64)

	view, err := svc.Config(ctx, " "+strings.ToLower(created.ClassCode)+" ")
	require.NoError(t, err)
	assert.JSONEq(t, `{"allowedTemplates":["classic","modern"],"forceSafeMode":true}`, string(view.Config))
}

func TestConfig_NotFoundAndExpired(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Config(ctx, "ZZZZZZ")
	assert.ErrorIs(t, err, ErrNotFound)

	created, err := svc.Create(ctx, nil)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.Config(ctx, created.ClassCode)
	assert.ErrorIs(t, err, ErrExpired)

	n, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	_, err = svc.Config(ctx, created.ClassCode)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreate_RetriesOnCollision(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	zeros := make([]byte, 32+6)
	svc.random = bytes.NewReader(zeros)
	first, err := svc.Create(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "AAAAAA", first.ClassCode)

	seq := append(make([]byte, 32+6), bytes.Repeat([]byte{1}, 6)...)
	svc.random = bytes.NewReader(seq)
	second, err := svc.Create(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "BBBBBB", second.ClassCode)

	svc.random = bytes.NewReader(make([]byte, 32+6*3))
	_, err = svc.Create(ctx, nil)
	assert.ErrorIs(t, err, ErrCodeExhausted)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	created, err := svc.Create(ctx, nil)
	require.NoError(t, err)

	ok, err := svc.Update(ctx, created.ClassCode, "wrong-secret", json.RawMessage(`{"forceSafeMode":true}`))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.Update(ctx, "NOPE22", created.TeacherSecret, json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.Update(ctx, created.ClassCode, created.TeacherSecret, json.RawMessage(`{"forceSafeMode":true}`))
	require.NoError(t, err)
	assert.True(t, ok)

	view, err := svc.Config(ctx, created.ClassCode)
	require.NoError(t, err)
	assert.JSONEq(t, `{"forceSafeMode":true}`, string(view.Config))

	_, err = svc.Update(ctx, created.ClassCode, created.TeacherSecret, json.RawMessage(`{"allowedTemplates":["neon"]}`))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestParseConfig_Schema(t *testing.T) {
	_, err := ParseConfig([]byte(`{"allowedRegions":["FR"]}`))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = ParseConfig([]byte(`{"sections":{"photo":true}}`))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = ParseConfig([]byte(`[1,2]`))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg, err := ParseConfig([]byte(`{"allowedRegions":["US"],"sections":{"references":false}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"US"}, cfg.AllowedRegions)
}

func TestClassConfig_Apply(t *testing.T) {
	cfg := ClassConfig{
		AllowedTemplates: []string{"modern", "classic"},
		AllowedRegions:   []string{"US"},
		Sections:         map[string]bool{"references": false, "skills": true},
		ForceSafeMode:    true,
	}

	in := resume.CvInput{Template: "bold", Region: "UK", SectionConfig: map[string]bool{"skills": false}}
	cfg.Apply(&in)
	assert.Equal(t, "modern", in.Template)
	assert.Equal(t, "US", in.Region)
	assert.False(t, in.SectionConfig["references"])
	assert.False(t, in.SectionConfig["skills"], "a class may disable but never re-enable a section")
	assert.True(t, in.StudentSafeMode)

	in = resume.CvInput{Template: "classic"}
	cfg.Apply(&in)
	assert.Equal(t, "classic", in.Template)

	in = resume.CvInput{Template: "bold", Region: "CA"}
	ClassConfig{}.Apply(&in)
	assert.Equal(t, "bold", in.Template)
	assert.Equal(t, "CA", in.Region)
	assert.False(t, in.StudentSafeMode)
}

func TestRestrictiveConfig(t *testing.T) {
	in := resume.CvInput{Template: "executive", Region: "AU"}
	RestrictiveConfig().Apply(&in)
	assert.Equal(t, "classic", in.Template)
	assert.Equal(t, "UK", in.Region)
	assert.True(t, in.StudentSafeMode)
}
