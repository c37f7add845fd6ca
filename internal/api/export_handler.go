package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"cvbuilder/internal/api/middleware"
	"cvbuilder/internal/entitlement"
	"cvbuilder/internal/metrics"
	"cvbuilder/internal/pdf"
	"cvbuilder/internal/region"
	"cvbuilder/internal/resume"
	"cvbuilder/internal/savedcv"
	"cvbuilder/internal/storage"
	"cvbuilder/internal/tasks"
	"cvbuilder/internal/theme"
)

const (
	exportFailedMessage = "We couldn't create your PDF right now. Please try again."
	defaultLinkTTL      = 5 * time.Minute
)

type taskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type exportRecordReader interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

type linkPresigner interface {
	PresignedDownloadURL(ctx context.Context, objectKey, filename string, ttl time.Duration) (string, error)
}

// ExportHandler 负责同步 PDF 导出、异步导出入队与下载链接。
type ExportHandler struct {
	renderer pdf.Renderer
	saved    savedStore
	gate     entitlement.Gate
	queue    taskEnqueuer
	records  exportRecordReader
	links    linkPresigner
	linkTTL  time.Duration
}

// NewExportHandler 构造 ExportHandler。
func NewExportHandler(renderer pdf.Renderer, saved savedStore, gate entitlement.Gate, queue taskEnqueuer, records exportRecordReader, links linkPresigner, linkTTL time.Duration) *ExportHandler {
	if linkTTL <= 0 {
		linkTTL = defaultLinkTTL
	}
	return &ExportHandler{
		renderer: renderer,
		saved:    saved,
		gate:     gate,
		queue:    queue,
		records:  records,
		links:    links,
		linkTTL:  linkTTL,
	}
}

type exportRequest struct {
	HTML     string `json:"html"`
	Filename string `json:"filename"`
	Template string `json:"template"`
	Region   string `json:"region"`
}

type preparedExport struct {
	html     string
	filename string
	template theme.Key
}

// prepare 重新检查导出权益，然后得到要打印的 HTML。
// 客户端自带 HTML 只对已解锁会话开放；其余情况由服务端从已保存记录装配。
func (h *ExportHandler) prepare(c *gin.Context, req exportRequest) (preparedExport, bool) {
	ctx := c.Request.Context()
	sc := middleware.SessionFromContext(c)
	state := sc.State()

	if strings.TrimSpace(req.HTML) != "" {
		k := theme.Resolve(req.Template)
		if prompt := h.gate.CheckRawExport(k, state, region.Parse(req.Region)); prompt != nil {
			PaymentRequired(c, prompt)
			return preparedExport{}, false
		}
		return preparedExport{
			html:     req.HTML,
			filename: resume.SanitizeFilename(req.Filename, "CV.pdf"),
			template: k,
		}, true
	}

	rec, err := h.saved.Load(ctx, middleware.ProfileFromContext(c))
	if err != nil {
		if errors.Is(err, savedcv.ErrNoSavedRecord) {
			NotFound(c, "no saved cv to export")
			return preparedExport{}, false
		}
		middleware.LoggerFromContext(c).Error("load saved cv failed", slog.Any("error", err))
		Internal(c, "failed to load saved cv")
		return preparedExport{}, false
	}

	in := rec.Input
	if r := strings.TrimSpace(req.Region); r != "" {
		in.Region = r
	}
	if t := strings.TrimSpace(req.Template); t != "" {
		in.Template = t
	}
	k := theme.Resolve(in.Template)
	if prompt := h.gate.CheckExport(k, state, region.Parse(in.Region)); prompt != nil {
		PaymentRequired(c, prompt)
		return preparedExport{}, false
	}

	doc := resume.Assemble(in, resume.ParseGenerated(rec.Result))
	html, err := resume.RenderExportHTML(doc)
	if err != nil {
		middleware.LoggerFromContext(c).Error("render export html failed", slog.Any("error", err))
		Internal(c, "failed to render cv")
		return preparedExport{}, false
	}
	filename := resume.Filename(doc)
	if req.Filename != "" {
		filename = resume.SanitizeFilename(req.Filename, filename)
	}
	return preparedExport{html: html, filename: filename, template: doc.Template}, true
}

// Export 同步打印 PDF 并直接返回二进制内容。
func (h *ExportHandler) Export(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body")
		return
	}
	h.export(c, req)
}

// ExportCV 总是由服务端从已保存记录装配，忽略客户端 HTML。
func (h *ExportHandler) ExportCV(c *gin.Context) {
	var req exportRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, "invalid request body")
			return
		}
	}
	req.HTML = ""
	h.export(c, req)
}

func (h *ExportHandler) export(c *gin.Context, req exportRequest) {
	prepared, ok := h.prepare(c, req)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	log := middleware.LoggerFromContext(c)

	data, err := h.renderer.Render(ctx, prepared.html)
	if err != nil {
		if errors.Is(err, pdf.ErrEmptyDocument) {
			BadRequest(c, "nothing to export")
			return
		}
		log.Error("render pdf failed", slog.Any("error", err))
		BadGateway(c, exportFailedMessage)
		return
	}

	sc := middleware.SessionFromContext(c)
	if sc.EphemeralOnly() {
		if err := h.saved.Clear(ctx, middleware.ProfileFromContext(c)); err != nil {
			log.Warn("clear saved cv after export failed", slog.Any("error", err))
		}
	}
	metrics.ObserveExport("sync", prepared.template.String())

	c.Header("Content-Disposition", `attachment; filename="`+prepared.filename+`"`)
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", data)
}

// ExportAsync 将打印任务入队，完成后经 WebSocket 通知。
func (h *ExportHandler) ExportAsync(c *gin.Context) {
	var req exportRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, "invalid request body")
			return
		}
	}

	prepared, ok := h.prepare(c, req)
	if !ok {
		return
	}

	sc := middleware.SessionFromContext(c)
	taskID := uuid.NewString()
	task, err := tasks.NewExportPDFTask(taskID, tasks.ExportPDFPayload{
		Profile:       middleware.ProfileFromContext(c),
		HTML:          prepared.html,
		Filename:      prepared.filename,
		Template:      prepared.template.String(),
		ClearAfter:    sc.EphemeralOnly(),
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		Internal(c, "failed to create task")
		return
	}

	info, err := h.queue.EnqueueContext(c.Request.Context(), task)
	if err != nil {
		middleware.LoggerFromContext(c).Error("enqueue export task failed", slog.Any("error", err))
		Internal(c, "failed to enqueue export")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "PDF export request accepted",
		"task_id": info.ID,
	})
}

// ExportLink 返回已完成导出的短期下载链接。
func (h *ExportHandler) ExportLink(c *gin.Context) {
	taskID := strings.TrimSpace(c.Param("taskID"))
	if _, err := uuid.Parse(taskID); err != nil {
		BadRequest(c, "invalid task id")
		return
	}

	ctx := c.Request.Context()
	raw, err := h.records.Get(ctx, tasks.ExportRecordKey(taskID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			Conflict(c, "export not ready")
			return
		}
		middleware.LoggerFromContext(c).Error("read export record failed", slog.Any("error", err))
		Internal(c, "failed to read export")
		return
	}

	var rec tasks.ExportRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil || rec.ObjectKey == "" {
		NotFound(c, "export not found")
		return
	}
	if rec.Profile != middleware.ProfileFromContext(c) {
		NotFound(c, "export not found")
		return
	}

	url, err := h.links.PresignedDownloadURL(ctx, rec.ObjectKey, rec.Filename, h.linkTTL)
	if err != nil {
		if storage.IsNoSuchKey(err) {
			NotFound(c, "export not found")
			return
		}
		middleware.LoggerFromContext(c).Error("presign export link failed", slog.Any("error", err))
		Internal(c, "failed to create download link")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":        url,
		"filename":   rec.Filename,
		"expires_at": time.Now().Add(h.linkTTL).UnixMilli(),
	})
}
