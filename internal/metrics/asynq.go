package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 任务结果标签。dropped 表示 SkipRetry，不会再重试。
const (
	TaskOK      = "ok"
	TaskRetry   = "retry"
	TaskDropped = "dropped"
)

var (
	taskResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cvbuilder",
			Subsystem: "worker",
			Name:      "task_results_total",
			Help:      "后台任务按结果分类的处理次数。",
		},
		[]string{"task_type", "outcome"},
	)

	taskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cvbuilder",
			Subsystem: "worker",
			Name:      "task_duration_seconds",
			Help:      "单次任务处理耗时（秒），包含浏览器打印与上传。",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"task_type"},
	)

	tasksInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "cvbuilder",
			Subsystem: "worker",
			Name:      "tasks_in_flight",
			Help:      "当前正在处理的任务数量。",
		},
		[]string{"task_type"},
	)
)

// TaskOutcome 把处理结果归入 ok、retry 或 dropped。
func TaskOutcome(err error) string {
	switch {
	case err == nil:
		return TaskOK
	case errors.Is(err, asynq.SkipRetry):
		return TaskDropped
	default:
		return TaskRetry
	}
}

// AsynqMetricsMiddleware 记录导出任务的结果、耗时与并发数。
func AsynqMetricsMiddleware() asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
			taskType := task.Type()
			tasksInFlight.WithLabelValues(taskType).Inc()
			defer tasksInFlight.WithLabelValues(taskType).Dec()

			start := time.Now()
			err := next.ProcessTask(ctx, task)
			taskDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())
			taskResultsTotal.WithLabelValues(taskType, TaskOutcome(err)).Inc()
			return err
		})
	}
}
