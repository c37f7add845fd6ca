package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"cvbuilder/internal/errcode"
	"cvbuilder/internal/metrics"
	"cvbuilder/internal/pdf"
	"cvbuilder/internal/storage"
	"cvbuilder/internal/tasks"
)

type pdfStore interface {
	PutPDF(ctx context.Context, objectKey string, data []byte) error
}

type notifier interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

type savedRecordClearer interface {
	Clear(ctx context.Context, profile string) error
}

// ExportTaskHandler 负责消费 PDF 导出任务。
type ExportTaskHandler struct {
	renderer pdf.Renderer
	storage  pdfStore
	redis    notifier
	saved    savedRecordClearer
	logger   *slog.Logger
}

// NewExportTaskHandler 创建任务处理器。
func NewExportTaskHandler(renderer pdf.Renderer, store pdfStore, redisClient notifier, saved savedRecordClearer, logger *slog.Logger) *ExportTaskHandler {
	return &ExportTaskHandler{
		renderer: renderer,
		storage:  store,
		redis:    redisClient,
		saved:    saved,
		logger:   logger,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *ExportTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	var payload tasks.ExportPDFPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return fmt.Errorf("unmarshal export payload: %v: %w", err, asynq.SkipRetry)
	}

	taskID, _ := asynq.GetTaskID(ctx)
	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.String("task_id", taskID),
	)
	log.Info("starting pdf export task")

	errorCode := errcode.SystemError
	defer func() {
		if retErr == nil {
			return
		}
		if !errors.Is(retErr, asynq.SkipRetry) && !isFinalAsynqAttempt(ctx) {
			return
		}
		notify := ExportNotifyMessage{
			Status:        StatusError,
			TaskID:        taskID,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     errorCode,
			ErrorMessage:  "PDF export failed. Please try again.",
		}
		if err := h.publish(ctx, payload.Profile, notify); err != nil {
			log.Error("publish export error notification failed", slog.Any("error", err))
		}
	}()

	if payload.Profile == "" {
		errorCode = errcode.InvalidPayload
		return fmt.Errorf("export payload has no profile: %w", asynq.SkipRetry)
	}

	data, err := h.renderer.Render(ctx, payload.HTML)
	if err != nil {
		if errors.Is(err, pdf.ErrEmptyDocument) {
			errorCode = errcode.EmptyDocument
			return fmt.Errorf("render pdf: %v: %w", err, asynq.SkipRetry)
		}
		errorCode = errcode.RenderFailed
		log.Error("render pdf failed", slog.Any("error", err))
		return fmt.Errorf("render pdf: %w", err)
	}

	objectKey := storage.ExportKey(payload.Profile, uuid.NewString())
	if err := h.storage.PutPDF(ctx, objectKey, data); err != nil {
		errorCode = errcode.StorageFailed
		log.Error("upload pdf to minio failed", slog.Any("error", err))
		return err
	}

	record, err := json.Marshal(tasks.ExportRecord{
		Profile:   payload.Profile,
		ObjectKey: objectKey,
		Filename:  payload.Filename,
	})
	if err != nil {
		return fmt.Errorf("marshal export record: %w", err)
	}
	if err := h.redis.Set(ctx, tasks.ExportRecordKey(taskID), record, tasks.ExportRecordTTL).Err(); err != nil {
		log.Error("store export record failed", slog.Any("error", err))
		return fmt.Errorf("store export record: %w", err)
	}

	if payload.ClearAfter {
		if err := h.saved.Clear(ctx, payload.Profile); err != nil {
			log.Warn("clear saved cv after export failed", slog.Any("error", err))
		}
	}

	metrics.ObserveExport("async", payload.Template)

	notify := ExportNotifyMessage{
		Status:        StatusCompleted,
		TaskID:        taskID,
		CorrelationID: payload.CorrelationID,
		Filename:      payload.Filename,
		ErrorCode:     errcode.OK,
	}
	if err := h.publish(ctx, payload.Profile, notify); err != nil {
		log.Error("publish redis notification failed", slog.Any("error", err))
		return err
	}

	log.Info("pdf export task completed", slog.Int("bytes", len(data)))
	return nil
}

func (h *ExportTaskHandler) publish(ctx context.Context, profile string, notify ExportNotifyMessage) error {
	if strings.TrimSpace(profile) == "" {
		return nil
	}
	data, err := json.Marshal(notify)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := tasks.NotifyChannel(profile)
	if err := h.redis.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
