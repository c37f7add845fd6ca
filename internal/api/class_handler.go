package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cvbuilder/internal/api/middleware"
	"cvbuilder/internal/classroom"
)

type classService interface {
	Create(ctx context.Context, raw json.RawMessage) (classroom.Created, error)
	Config(ctx context.Context, code string) (classroom.View, error)
	Update(ctx context.Context, code, secret string, raw json.RawMessage) (bool, error)
}

// ClassHandler 暴露课堂会话的创建、公开读取与教师更新。
type ClassHandler struct {
	classes classService
}

func NewClassHandler(classes classService) *ClassHandler {
	return &ClassHandler{classes: classes}
}

type createClassRequest struct {
	Config json.RawMessage `json:"config"`
}

type updateClassRequest struct {
	ClassCode     string          `json:"classCode" binding:"required"`
	TeacherSecret string          `json:"teacherSecret" binding:"required"`
	Config        json.RawMessage `json:"config"`
}

// Create 新建课堂。教师密钥只在此处明文返回一次。
func (h *ClassHandler) Create(c *gin.Context) {
	var req createClassRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, "invalid request body")
			return
		}
	}

	created, err := h.classes.Create(c.Request.Context(), req.Config)
	if err != nil {
		if errors.Is(err, classroom.ErrInvalidConfig) {
			BadRequest(c, err.Error())
			return
		}
		middleware.LoggerFromContext(c).Error("create class failed", slog.Any("error", err))
		Internal(c, "failed to create class")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Config 按课堂代码公开读取配置。
func (h *ClassHandler) Config(c *gin.Context) {
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		BadRequest(c, "code is required")
		return
	}

	view, err := h.classes.Config(c.Request.Context(), code)
	switch {
	case errors.Is(err, classroom.ErrNotFound):
		NotFound(c, "class not found")
	case errors.Is(err, classroom.ErrExpired):
		Error(c, http.StatusGone, "class session expired")
	case err != nil:
		middleware.LoggerFromContext(c).Error("load class config failed", slog.Any("error", err))
		Internal(c, "failed to load class")
	default:
		c.JSON(http.StatusOK, view)
	}
}

// Update 用教师密钥替换配置。代码、密钥或有效期任何一项不符都统一返回 403。
func (h *ClassHandler) Update(c *gin.Context) {
	var req updateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body")
		return
	}

	ok, err := h.classes.Update(c.Request.Context(), req.ClassCode, req.TeacherSecret, req.Config)
	if err != nil {
		if errors.Is(err, classroom.ErrInvalidConfig) {
			BadRequest(c, err.Error())
			return
		}
		middleware.LoggerFromContext(c).Error("update class failed", slog.Any("error", err))
		Internal(c, "failed to update class")
		return
	}
	if !ok {
		Forbidden(c, "class code or teacher secret is invalid")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
