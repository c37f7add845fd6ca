package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cvbuilder/internal/api/middleware"
	"cvbuilder/internal/config"
	"cvbuilder/internal/metrics"
)

// NewRouter 构建 Gin 引擎：恢复、Correlation ID、请求日志与指标，外加健康检查和 /metrics。
func NewRouter(cfg *config.Config, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.CorrelationIDMiddleware(),
		middleware.SlogLoggerMiddleware(logger),
		metrics.GinMiddleware("/health", "/metrics"),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics",
		middleware.InternalSecretMiddleware(cfg.API.InternalSecret),
		gin.WrapH(promhttp.Handler()),
	)

	return router
}
