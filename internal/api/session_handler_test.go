package api

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvbuilder/internal/api/middleware"
	"cvbuilder/internal/auth"
	"cvbuilder/internal/entitlement"
	"cvbuilder/internal/redistest"
	"cvbuilder/internal/storage"
)

type fakeTeacherIssuer struct{}

func (fakeTeacherIssuer) IssueTeacherSession(profile string) (string, error) {
	return "teacher-" + profile, nil
}

type fakeArchive struct {
	prefixes []string
	err      error
}

func (f *fakeArchive) DeletePrefix(_ context.Context, prefix string) error {
	f.prefixes = append(f.prefixes, prefix)
	return f.err
}

func newSessionHandler(t *testing.T, saved *fakeSaved, archive *fakeArchive) (*SessionHandler, *miniredis.Miniredis) {
	mr, client := redistest.New(t)
	return NewSessionHandler(client, fakeTeacherIssuer{}, saved, archive, "", 3, time.Minute), mr
}

func storePIN(t *testing.T, mr *miniredis.Miniredis, pin string) {
	t.Helper()
	hash, err := auth.HashPIN(pin)
	require.NoError(t, err)
	require.NoError(t, mr.Set(auth.PINHashKey(testProfile), hash))
}

func TestEnableTeacher_SetsUpPINAndClearsDurable(t *testing.T) {
	saved := newFakeSaved()
	require.NoError(t, saved.Save(context.Background(), testProfile, savedRecord("classic"), true))
	h, mr := newSessionHandler(t, saved, &fakeArchive{})

	c, w := newTestContext(t, http.MethodPost, "/v1/teacher-mode/enable", pinRequest{PIN: "1234"}, entitlement.SessionContext{})
	h.EnableTeacher(c)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decodeJSON(t, w)["teacherMode"])

	ck := findCookie(w, middleware.TeacherCookie)
	require.NotNil(t, ck)
	assert.Equal(t, "teacher-"+testProfile, ck.Value)
	assert.Zero(t, ck.MaxAge, "teacher mode lives for the browser session only")

	hash, err := mr.Get(auth.PINHashKey(testProfile))
	require.NoError(t, err)
	assert.True(t, auth.CheckPINHash("1234", hash))

	assert.False(t, mr.Exists(auth.PINAttemptKey(testProfile)), "a correct pin resets the attempt counter")

	session, durable := saved.has(testProfile)
	assert.True(t, session)
	assert.False(t, durable)
}

func TestEnableTeacher_WrongPIN(t *testing.T) {
	h, mr := newSessionHandler(t, newFakeSaved(), &fakeArchive{})
	storePIN(t, mr, "1234")

	c, w := newTestContext(t, http.MethodPost, "/v1/teacher-mode/enable", pinRequest{PIN: "9999"}, entitlement.SessionContext{})
	h.EnableTeacher(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Nil(t, findCookie(w, middleware.TeacherCookie))
}

func TestEnableTeacher_RateLimited(t *testing.T) {
	h, mr := newSessionHandler(t, newFakeSaved(), &fakeArchive{})
	storePIN(t, mr, "1234")

	for i := 0; i < 3; i++ {
		c, w := newTestContext(t, http.MethodPost, "/v1/teacher-mode/enable", pinRequest{PIN: "0000"}, entitlement.SessionContext{})
		h.EnableTeacher(c)
		require.Equal(t, http.StatusForbidden, w.Code)
	}
	assert.Equal(t, time.Minute, mr.TTL(auth.PINAttemptKey(testProfile)))

	c, w := newTestContext(t, http.MethodPost, "/v1/teacher-mode/enable", pinRequest{PIN: "1234"}, entitlement.SessionContext{})
	h.EnableTeacher(c)
	assert.Equal(t, http.StatusTooManyRequests, w.Code, "the limit applies even to the correct pin")
}

func TestEnableTeacher_AttemptWindowResets(t *testing.T) {
	h, mr := newSessionHandler(t, newFakeSaved(), &fakeArchive{})
	storePIN(t, mr, "1234")

	for i := 0; i < 4; i++ {
		c, _ := newTestContext(t, http.MethodPost, "/v1/teacher-mode/enable", pinRequest{PIN: "0000"}, entitlement.SessionContext{})
		h.EnableTeacher(c)
	}
	c, w := newTestContext(t, http.MethodPost, "/v1/teacher-mode/enable", pinRequest{PIN: "1234"}, entitlement.SessionContext{})
	h.EnableTeacher(c)
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	mr.FastForward(time.Minute)
	require.False(t, mr.Exists(auth.PINAttemptKey(testProfile)))

	c, w = newTestContext(t, http.MethodPost, "/v1/teacher-mode/enable", pinRequest{PIN: "1234"}, entitlement.SessionContext{})
	h.EnableTeacher(c)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotNil(t, findCookie(w, middleware.TeacherCookie))
}

func TestEnableTeacher_InvalidPINFormat(t *testing.T) {
	h, _ := newSessionHandler(t, newFakeSaved(), &fakeArchive{})

	for _, pin := range []string{"", "12", "12345", "abcd"} {
		c, w := newTestContext(t, http.MethodPost, "/v1/teacher-mode/enable", pinRequest{PIN: pin}, entitlement.SessionContext{})
		h.EnableTeacher(c)
		assert.Equal(t, http.StatusBadRequest, w.Code, pin)
	}
}

func TestDisableTeacher(t *testing.T) {
	h, mr := newSessionHandler(t, newFakeSaved(), &fakeArchive{})

	t.Run("no pin configured", func(t *testing.T) {
		c, w := newTestContext(t, http.MethodPost, "/v1/teacher-mode/disable", pinRequest{PIN: "1234"}, entitlement.SessionContext{TeacherModeActive: true})
		h.DisableTeacher(c)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	storePIN(t, mr, "1234")

	t.Run("matching pin clears cookie", func(t *testing.T) {
		c, w := newTestContext(t, http.MethodPost, "/v1/teacher-mode/disable", pinRequest{PIN: "1234"}, entitlement.SessionContext{TeacherModeActive: true})
		h.DisableTeacher(c)

		require.Equal(t, http.StatusOK, w.Code)
		ck := findCookie(w, middleware.TeacherCookie)
		require.NotNil(t, ck)
		assert.Empty(t, ck.Value)
		assert.Negative(t, ck.MaxAge)
	})
}

func TestSetSafeMode(t *testing.T) {
	saved := newFakeSaved()
	require.NoError(t, saved.Save(context.Background(), testProfile, savedRecord("classic"), true))
	h, _ := newSessionHandler(t, saved, &fakeArchive{})

	c, w := newTestContext(t, http.MethodPost, "/v1/session/safe-mode", safeModeRequest{Enabled: true}, entitlement.SessionContext{})
	h.SetSafeMode(c)

	require.Equal(t, http.StatusOK, w.Code)
	ck := findCookie(w, middleware.SafeCookie)
	require.NotNil(t, ck)
	assert.Equal(t, "1", ck.Value)
	_, durable := saved.has(testProfile)
	assert.False(t, durable)

	c, w = newTestContext(t, http.MethodPost, "/v1/session/safe-mode", safeModeRequest{Enabled: false}, entitlement.SessionContext{StudentSafeModeActive: true})
	h.SetSafeMode(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeJSON(t, w)["safeMode"])
	ck = findCookie(w, middleware.SafeCookie)
	require.NotNil(t, ck)
	assert.Negative(t, ck.MaxAge)
}

func TestClearFlags(t *testing.T) {
	h, mr := newSessionHandler(t, newFakeSaved(), &fakeArchive{})
	require.NoError(t, mr.Set(middleware.ProFlagKey(testProfile), "1"))
	mr.SetTTL(middleware.ProFlagKey(testProfile), time.Hour)

	c, w := newTestContext(t, http.MethodDelete, "/v1/session/flags", nil, entitlement.SessionContext{ProUnlocked: true})
	h.ClearFlags(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "locked", decodeJSON(t, w)["state"])
	assert.False(t, mr.Exists(middleware.ProFlagKey(testProfile)))
	for _, name := range []string{middleware.AccessCookie, middleware.TeacherCookie, middleware.SafeCookie} {
		assert.NotNil(t, findCookie(w, name), name)
	}
}

func TestForgetData(t *testing.T) {
	saved := newFakeSaved()
	require.NoError(t, saved.Save(context.Background(), testProfile, savedRecord("classic"), true))
	archive := &fakeArchive{}
	h, _ := newSessionHandler(t, saved, archive)

	c, w := newTestContext(t, http.MethodDelete, "/v1/session/data", nil, entitlement.SessionContext{})
	h.ForgetData(c)
	c.Writer.WriteHeaderNow()

	require.Equal(t, http.StatusNoContent, w.Code)
	session, durable := saved.has(testProfile)
	assert.False(t, session)
	assert.False(t, durable)
	assert.Equal(t, []string{storage.ExportPrefix(testProfile)}, archive.prefixes)

	archive.err = errors.New("minio down")
	c, w = newTestContext(t, http.MethodDelete, "/v1/session/data", nil, entitlement.SessionContext{})
	h.ForgetData(c)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
