package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	exportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cvbuilder",
			Name:      "cv_exports_total",
			Help:      "成功导出的 PDF 数量。",
		},
		[]string{"target", "template"},
	)

	paywallPromptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cvbuilder",
			Name:      "paywall_prompts_total",
			Help:      "付费弹窗请求次数。",
		},
		[]string{"reason"},
	)

	generationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cvbuilder",
			Name:      "generations_total",
			Help:      "文本生成调用次数。",
		},
		[]string{"outcome"},
	)
)

// ObserveExport 记录一次导出。target 为 sync 或 async。
func ObserveExport(target, template string) {
	exportsTotal.WithLabelValues(target, template).Inc()
}

func ObservePaywall(reason string) {
	paywallPromptsTotal.WithLabelValues(reason).Inc()
}

// ObserveGeneration 记录文本生成结果：ok、empty 或 error。
func ObserveGeneration(outcome string) {
	generationsTotal.WithLabelValues(outcome).Inc()
}
