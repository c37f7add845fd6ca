package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cvbuilder/internal/entitlement"
	"cvbuilder/internal/metrics"
	"cvbuilder/internal/resume"
)

func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

func BadRequest(c *gin.Context, msg string) { Error(c, http.StatusBadRequest, msg) }
func Forbidden(c *gin.Context, msg string)  { Error(c, http.StatusForbidden, msg) }
func NotFound(c *gin.Context, msg string)   { Error(c, http.StatusNotFound, msg) }
func Conflict(c *gin.Context, msg string)   { Error(c, http.StatusConflict, msg) }
func Internal(c *gin.Context, msg string)   { Error(c, http.StatusInternalServerError, msg) }

// BadGateway 用于外部协作方失败：一条可读信息，不自动重试。
func BadGateway(c *gin.Context, msg string) { Error(c, http.StatusBadGateway, msg) }

// ValidationFailed 返回逐字段的校验信息。
func ValidationFailed(c *gin.Context, err *resume.ValidationError) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": err.Fields})
}

// PaymentRequired 返回前端弹出付费窗口所需的信息。这不是错误，不记 error 日志。
func PaymentRequired(c *gin.Context, prompt *entitlement.PaywallPrompt) {
	metrics.ObservePaywall(prompt.Reason)
	c.JSON(http.StatusPaymentRequired, gin.H{"paywall": prompt})
}
