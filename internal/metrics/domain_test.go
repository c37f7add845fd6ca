package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainCounters(t *testing.T) {
	before := testutil.ToFloat64(paywallPromptsTotal.WithLabelValues("export"))
	ObservePaywall("export")
	assert.Equal(t, before+1, testutil.ToFloat64(paywallPromptsTotal.WithLabelValues("export")))

	ObserveExport("sync", "classic")
	assert.GreaterOrEqual(t, testutil.ToFloat64(exportsTotal.WithLabelValues("sync", "classic")), 1.0)

	ObserveGeneration("ok")
	assert.GreaterOrEqual(t, testutil.ToFloat64(generationsTotal.WithLabelValues("ok")), 1.0)
}

func TestTaskOutcome(t *testing.T) {
	assert.Equal(t, TaskOK, TaskOutcome(nil))
	assert.Equal(t, TaskRetry, TaskOutcome(errors.New("render failed")))
	assert.Equal(t, TaskDropped, TaskOutcome(fmt.Errorf("bad payload: %w", asynq.SkipRetry)))
}

func TestAsynqMetricsMiddleware(t *testing.T) {
	handler := AsynqMetricsMiddleware()(asynq.HandlerFunc(func(context.Context, *asynq.Task) error {
		return fmt.Errorf("empty: %w", asynq.SkipRetry)
	}))

	counter := taskResultsTotal.WithLabelValues("export:test", TaskDropped)
	before := testutil.ToFloat64(counter)
	err := handler.ProcessTask(context.Background(), asynq.NewTask("export:test", nil))
	require.ErrorIs(t, err, asynq.SkipRetry)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
	assert.Zero(t, testutil.ToFloat64(tasksInFlight.WithLabelValues("export:test")))
}

func TestGinMiddleware_RouteLabels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware("/health"))
	r.GET("/v1/export/:taskID/link", func(c *gin.Context) { c.Status(http.StatusConflict) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/v1/export/a/link", "/v1/export/b/link", "/health", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	// 两个 taskID 归入同一路由模板，未注册路径归入 unmatched，/health 不计入。
	assert.Equal(t, 2, testutil.CollectAndCount(requestDuration))
}
