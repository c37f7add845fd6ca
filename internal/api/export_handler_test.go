package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvbuilder/internal/api/middleware"
	"cvbuilder/internal/entitlement"
	"cvbuilder/internal/pdf"
	"cvbuilder/internal/redistest"
	"cvbuilder/internal/resume"
	"cvbuilder/internal/tasks"
)

type fakeRenderer struct {
	data []byte
	err  error
	html string
}

func (f *fakeRenderer) Render(_ context.Context, html string) ([]byte, error) {
	f.html = html
	return f.data, f.err
}

type fakeQueue struct {
	task *asynq.Task
	err  error
}

func (f *fakeQueue) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.task = task
	return &asynq.TaskInfo{ID: "0b6f1d2c-8f0e-4d4b-9c1f-1a2b3c4d5e6f", Type: task.Type()}, nil
}

type fakePresigner struct {
	key string
	ttl time.Duration
}

func (f *fakePresigner) PresignedDownloadURL(_ context.Context, objectKey, _ string, ttl time.Duration) (string, error) {
	f.key = objectKey
	f.ttl = ttl
	return "https://files.example.test/" + objectKey, nil
}

func newExportHandler(renderer pdf.Renderer, saved *fakeSaved, queue *fakeQueue, records *redis.Client, links *fakePresigner) *ExportHandler {
	return NewExportHandler(renderer, saved, entitlement.Gate{PriceMinor: 499}, queue, records, links, 0)
}

func TestExport_PaywallForPremiumTemplate(t *testing.T) {
	renderer := &fakeRenderer{data: []byte("%PDF-1.7")}
	h := newExportHandler(renderer, newFakeSaved(), &fakeQueue{}, newRedis(t), &fakePresigner{})

	c, w := newTestContext(t, http.MethodPost, "/v1/export", exportRequest{
		HTML:     "<html><body>hi</body></html>",
		Template: "executive",
		Region:   "US",
	}, entitlement.SessionContext{})
	h.Export(c)

	require.Equal(t, http.StatusPaymentRequired, w.Code)
	paywall := decodeJSON(t, w)["paywall"].(map[string]any)
	assert.Equal(t, entitlement.ReasonExport, paywall["reason"])
	assert.Equal(t, "executive", paywall["template"])
	assert.NotEmpty(t, paywall["price_label"])
	assert.Empty(t, renderer.html, "renderer must not run when export is refused")
}

func TestExport_ClientHTML(t *testing.T) {
	renderer := &fakeRenderer{data: []byte("%PDF-1.7")}
	h := newExportHandler(renderer, newFakeSaved(), &fakeQueue{}, newRedis(t), &fakePresigner{})

	c, w := newTestContext(t, http.MethodPost, "/v1/export", exportRequest{
		HTML:     "<html><body>hi</body></html>",
		Filename: "my cv",
		Template: "classic",
	}, entitlement.SessionContext{PaidAccessValid: true})
	h.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="my_cv.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.7", w.Body.String())
}

func TestExport_ClientHTMLRequiresUnlock(t *testing.T) {
	in := savedRecord("modern").Input
	html, err := resume.RenderExportHTML(resume.Assemble(in, resume.ParseGenerated(savedRecord("modern").Result)))
	require.NoError(t, err)

	renderer := &fakeRenderer{data: []byte("%PDF-1.7")}
	queue := &fakeQueue{}
	h := newExportHandler(renderer, newFakeSaved(), queue, newRedis(t), &fakePresigner{})

	for _, tmpl := range []string{"", "classic"} {
		c, w := newTestContext(t, http.MethodPost, "/v1/export", exportRequest{HTML: html, Template: tmpl}, entitlement.SessionContext{})
		h.Export(c)

		require.Equal(t, http.StatusPaymentRequired, w.Code, tmpl)
		paywall := decodeJSON(t, w)["paywall"].(map[string]any)
		assert.Equal(t, entitlement.ReasonExport, paywall["reason"])
		assert.Equal(t, "classic", paywall["template"])
	}
	assert.Empty(t, renderer.html, "locked sessions cannot print client html")

	c, w := newTestContext(t, http.MethodPost, "/v1/export/async", exportRequest{HTML: html}, entitlement.SessionContext{StudentSafeModeActive: true})
	h.ExportAsync(c)
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Nil(t, queue.task)
}

func TestExportCV_FromSavedRecord(t *testing.T) {
	saved := newFakeSaved()
	require.NoError(t, saved.Save(context.Background(), testProfile, savedRecord("modern"), true))
	renderer := &fakeRenderer{data: []byte("%PDF-1.7")}
	h := newExportHandler(renderer, saved, &fakeQueue{}, newRedis(t), &fakePresigner{})

	c, w := newTestContext(t, http.MethodPost, "/v1/export/cv", nil, entitlement.SessionContext{PaidAccessValid: true})
	h.ExportCV(c)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, `attachment; filename="Jane_Doe_CV.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Contains(t, renderer.html, "Friendly barista.")

	session, durable := saved.has(testProfile)
	assert.True(t, session, "paid exports keep the saved record")
	assert.True(t, durable)
}

func TestExportCV_EphemeralClearsRecord(t *testing.T) {
	saved := newFakeSaved()
	require.NoError(t, saved.Save(context.Background(), testProfile, savedRecord("classic"), false))
	h := newExportHandler(&fakeRenderer{data: []byte("%PDF")}, saved, &fakeQueue{}, newRedis(t), &fakePresigner{})

	c, w := newTestContext(t, http.MethodPost, "/v1/export/cv", nil, entitlement.SessionContext{StudentSafeModeActive: true})
	h.ExportCV(c)

	require.Equal(t, http.StatusOK, w.Code)
	session, durable := saved.has(testProfile)
	assert.False(t, session)
	assert.False(t, durable)
}

func TestExportCV_Errors(t *testing.T) {
	t.Run("no saved record", func(t *testing.T) {
		h := newExportHandler(&fakeRenderer{}, newFakeSaved(), &fakeQueue{}, newRedis(t), &fakePresigner{})
		c, w := newTestContext(t, http.MethodPost, "/v1/export/cv", nil, entitlement.SessionContext{})
		h.ExportCV(c)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("empty document", func(t *testing.T) {
		saved := newFakeSaved()
		require.NoError(t, saved.Save(context.Background(), testProfile, savedRecord("classic"), true))
		h := newExportHandler(&fakeRenderer{err: pdf.ErrEmptyDocument}, saved, &fakeQueue{}, newRedis(t), &fakePresigner{})
		c, w := newTestContext(t, http.MethodPost, "/v1/export/cv", nil, entitlement.SessionContext{})
		h.ExportCV(c)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("renderer failure", func(t *testing.T) {
		saved := newFakeSaved()
		require.NoError(t, saved.Save(context.Background(), testProfile, savedRecord("classic"), true))
		h := newExportHandler(&fakeRenderer{err: errors.New("browser gone")}, saved, &fakeQueue{}, newRedis(t), &fakePresigner{})
		c, w := newTestContext(t, http.MethodPost, "/v1/export/cv", nil, entitlement.SessionContext{})
		h.ExportCV(c)
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, exportFailedMessage, decodeJSON(t, w)["error"])
	})
}

func TestExportAsync_Enqueues(t *testing.T) {
	saved := newFakeSaved()
	require.NoError(t, saved.Save(context.Background(), testProfile, savedRecord("classic"), false))
	queue := &fakeQueue{}
	h := newExportHandler(&fakeRenderer{}, saved, queue, newRedis(t), &fakePresigner{})

	c, w := newTestContext(t, http.MethodPost, "/v1/export/async", nil, entitlement.SessionContext{TeacherModeActive: true})
	h.ExportAsync(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.NotEmpty(t, decodeJSON(t, w)["task_id"])

	require.NotNil(t, queue.task)
	assert.Equal(t, tasks.TypeExportPDF, queue.task.Type())
	var payload tasks.ExportPDFPayload
	require.NoError(t, json.Unmarshal(queue.task.Payload(), &payload))
	assert.Equal(t, testProfile, payload.Profile)
	assert.True(t, payload.ClearAfter)
	assert.True(t, strings.Contains(payload.HTML, "<!DOCTYPE html>"))
	assert.Equal(t, "classic", payload.Template)
}

func TestExportAsync_QueueFailure(t *testing.T) {
	saved := newFakeSaved()
	require.NoError(t, saved.Save(context.Background(), testProfile, savedRecord("classic"), true))
	h := newExportHandler(&fakeRenderer{}, saved, &fakeQueue{err: errors.New("redis down")}, newRedis(t), &fakePresigner{})

	c, w := newTestContext(t, http.MethodPost, "/v1/export/async", nil, entitlement.SessionContext{})
	h.ExportAsync(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestExportLink(t *testing.T) {
	taskID := uuid.NewString()
	_, records := redistest.New(t)
	links := &fakePresigner{}
	h := newExportHandler(&fakeRenderer{}, newFakeSaved(), &fakeQueue{}, records, links)

	linkContext := func(t *testing.T, id string) (*gin.Context, *httptest.ResponseRecorder) {
		c, w := newTestContext(t, http.MethodGet, "/v1/export/"+id+"/link", nil, entitlement.SessionContext{})
		c.Params = gin.Params{{Key: "taskID", Value: id}}
		return c, w
	}

	t.Run("invalid id", func(t *testing.T) {
		c, w := linkContext(t, "not-a-uuid")
		h.ExportLink(c)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("not ready", func(t *testing.T) {
		c, w := linkContext(t, taskID)
		h.ExportLink(c)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	raw, err := json.Marshal(tasks.ExportRecord{
		Profile:   testProfile,
		ObjectKey: "exports/" + testProfile + "/" + taskID + ".pdf",
		Filename:  "Jane_Doe_CV.pdf",
	})
	require.NoError(t, err)
	require.NoError(t, records.Set(context.Background(), tasks.ExportRecordKey(taskID), raw, tasks.ExportRecordTTL).Err())

	t.Run("ready", func(t *testing.T) {
		c, w := linkContext(t, taskID)
		h.ExportLink(c)

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeJSON(t, w)
		assert.Equal(t, "Jane_Doe_CV.pdf", body["filename"])
		assert.Contains(t, body["url"], taskID)
		assert.Equal(t, defaultLinkTTL, links.ttl)
	})

	t.Run("other profile", func(t *testing.T) {
		c, w := linkContext(t, taskID)
		middleware.WithSession(c, "someone-else", entitlement.SessionContext{})
		h.ExportLink(c)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
