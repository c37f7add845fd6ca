package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"cvbuilder/internal/api/middleware"
	"cvbuilder/internal/database"
	"cvbuilder/internal/entitlement"
	"cvbuilder/internal/redistest"
	"cvbuilder/internal/resume"
	"cvbuilder/internal/savedcv"
)

const testProfile = "8d0f5c1e-5a4b-4f0e-9a59-3f2f1f4b8c11"

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestContext 构造带会话的 gin 测试上下文。body 为 nil 时不写请求体。
func newTestContext(t *testing.T, method, target string, body any, sc entitlement.SessionContext) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, reader)
	if body != nil {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	middleware.WithSession(c, testProfile, sc)
	return c, w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := database.Open(sqlite.Open(dsn))
	require.NoError(t, err)
	return db
}

// newRedis 返回连到独立 miniredis 的客户端，用于不关心 Redis 内容的用例。
func newRedis(t *testing.T) *redis.Client {
	_, client := redistest.New(t)
	return client
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range w.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

// fakeSaved 记录每个档案的会话与持久两个范围。
type fakeSaved struct {
	mu      sync.Mutex
	session map[string]resume.SavedRecord
	durable map[string]resume.SavedRecord
	err     error
}

func newFakeSaved() *fakeSaved {
	return &fakeSaved{
		session: map[string]resume.SavedRecord{},
		durable: map[string]resume.SavedRecord{},
	}
}

func (f *fakeSaved) Save(_ context.Context, profile string, rec resume.SavedRecord, durable bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.session[profile] = rec
	if durable {
		f.durable[profile] = rec
	} else {
		delete(f.durable, profile)
	}
	return nil
}

func (f *fakeSaved) Load(_ context.Context, profile string) (resume.SavedRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return resume.SavedRecord{}, f.err
	}
	if rec, ok := f.session[profile]; ok {
		return rec, nil
	}
	if rec, ok := f.durable[profile]; ok {
		return rec, nil
	}
	return resume.SavedRecord{}, savedcv.ErrNoSavedRecord
}

func (f *fakeSaved) Clear(_ context.Context, profile string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.session, profile)
	delete(f.durable, profile)
	return nil
}

func (f *fakeSaved) ClearDurable(_ context.Context, profile string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.durable, profile)
	return nil
}

func (f *fakeSaved) has(profile string) (session, durable bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, session = f.session[profile]
	_, durable = f.durable[profile]
	return session, durable
}

func savedRecord(template string) resume.SavedRecord {
	return resume.SavedRecord{
		Input: resume.CvInput{
			Name:       "Jane Doe",
			Role:       "Barista",
			Experience: "Two years at a busy cafe.",
			Template:   template,
			Region:     "UK",
		},
		Result: "Summary\nFriendly barista.\n\nExperience\n- Served 200 customers a day\n\nSkills\nLatte art, Cash handling",
	}
}
