package api

import (
	"github.com/gin-gonic/gin"
)

// Handlers 汇总所有路由处理器，由 cmd/api 组装。
type Handlers struct {
	Session  gin.HandlerFunc
	CV       *CVHandler
	Export   *ExportHandler
	Payments *PaymentHandler
	Sessions *SessionHandler
	Classes  *ClassHandler
	Ws       *WsHandler
}

// RegisterRoutes 注册 API 路由，不包含 /api 前缀。
func RegisterRoutes(router *gin.Engine, h Handlers) {
	v1 := router.Group("/v1")
	v1.Use(h.Session)
	{
		v1.GET("/ws", h.Ws.HandleConnection)

		v1.GET("/templates", h.CV.Templates)
		v1.GET("/regions", h.CV.Regions)
		v1.POST("/generate", h.CV.Generate)
		v1.GET("/preview", h.CV.Preview)

		exportGroup := v1.Group("/export")
		{
			exportGroup.POST("", h.Export.Export)
			exportGroup.POST("/cv", h.Export.ExportCV)
			exportGroup.POST("/async", h.Export.ExportAsync)
			exportGroup.GET("/:taskID/link", h.Export.ExportLink)
		}

		paymentGroup := v1.Group("/payments")
		{
			paymentGroup.POST("/checkout", h.Payments.Checkout)
			paymentGroup.POST("/verify", h.Payments.Verify)
			paymentGroup.GET("/verify", h.Payments.Verify)
		}
		v1.GET("/access", h.Payments.Access)

		teacherGroup := v1.Group("/teacher-mode")
		{
			teacherGroup.POST("/enable", h.Sessions.EnableTeacher)
			teacherGroup.POST("/disable", h.Sessions.DisableTeacher)
		}

		sessionGroup := v1.Group("/session")
		{
			sessionGroup.POST("/safe-mode", h.Sessions.SetSafeMode)
			sessionGroup.DELETE("/flags", h.Sessions.ClearFlags)
			sessionGroup.DELETE("/data", h.Sessions.ForgetData)
		}

		classGroup := v1.Group("/classes")
		{
			classGroup.POST("/create", h.Classes.Create)
			classGroup.GET("/config", h.Classes.Config)
			classGroup.POST("/update", h.Classes.Update)
		}
	}
}
