package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"cvbuilder/internal/api/middleware"
	"cvbuilder/internal/auth"
	"cvbuilder/internal/storage"
)

type sessionRedis interface {
	attemptCounter
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type teacherSessionIssuer interface {
	IssueTeacherSession(profile string) (string, error)
}

type exportArchive interface {
	DeletePrefix(ctx context.Context, prefix string) error
}

// SessionHandler 管理 Teacher Mode、Safe Mode 与会话标志。
type SessionHandler struct {
	redis        sessionRedis
	passes       teacherSessionIssuer
	saved        savedStore
	archive      exportArchive
	cookieDomain string
	pinAttempts  attemptLimiter
}

// NewSessionHandler 构造 SessionHandler。archive 为 nil 时不清理导出归档。
func NewSessionHandler(redisClient sessionRedis, passes teacherSessionIssuer, saved savedStore, archive exportArchive, cookieDomain string, maxPINAttempts int, pinWindow time.Duration) *SessionHandler {
	if maxPINAttempts <= 0 {
		maxPINAttempts = 5
	}
	if pinWindow <= 0 {
		pinWindow = 15 * time.Minute
	}
	return &SessionHandler{
		redis:        redisClient,
		passes:       passes,
		saved:        saved,
		archive:      archive,
		cookieDomain: cookieDomain,
		pinAttempts: attemptLimiter{
			counter: redisClient,
			max:     int64(maxPINAttempts),
			window:  pinWindow,
		},
	}
}

type pinRequest struct {
	PIN string `json:"pin"`
}

// checkPIN 计数后校验 PIN。档案首次设置时保存哈希并视为通过。
func (h *SessionHandler) checkPIN(ctx context.Context, profile, pin string, allowSetup bool) (bool, error) {
	if err := h.pinAttempts.hit(ctx, auth.PINAttemptKey(profile)); err != nil {
		return false, err
	}

	hash, err := h.redis.Get(ctx, auth.PINHashKey(profile)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		if !allowSetup {
			return false, nil
		}
		hash, err = auth.HashPIN(pin)
		if err != nil {
			return false, err
		}
		if err := h.redis.Set(ctx, auth.PINHashKey(profile), hash, 0).Err(); err != nil {
			return false, err
		}
	case err != nil:
		return false, err
	default:
		if !auth.CheckPINHash(pin, hash) {
			return false, nil
		}
	}

	h.pinAttempts.reset(ctx, auth.PINAttemptKey(profile))
	return true, nil
}

func (h *SessionHandler) bindPIN(c *gin.Context) (string, bool) {
	var req pinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body")
		return "", false
	}
	if !auth.ValidPIN(req.PIN) {
		BadRequest(c, auth.ErrInvalidPIN.Error())
		return "", false
	}
	return req.PIN, true
}

func (h *SessionHandler) replyPINError(c *gin.Context, err error) {
	if errors.Is(err, errTooManyAttempts) {
		Error(c, http.StatusTooManyRequests, "too many attempts, try again later")
		return
	}
	middleware.LoggerFromContext(c).Error("check teacher pin failed", slog.Any("error", err))
	Internal(c, "internal error")
}

// EnableTeacher 校验 PIN 后写入 Teacher Mode 会话 cookie，并清除该档案的持久记录。
func (h *SessionHandler) EnableTeacher(c *gin.Context) {
	pin, ok := h.bindPIN(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	log := middleware.LoggerFromContext(c)
	profile := middleware.ProfileFromContext(c)

	match, err := h.checkPIN(ctx, profile, pin, true)
	if err != nil {
		h.replyPINError(c, err)
		return
	}
	if !match {
		Forbidden(c, "incorrect pin")
		return
	}

	token, err := h.passes.IssueTeacherSession(profile)
	if err != nil {
		log.Error("issue teacher session failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	middleware.SetCookie(c, middleware.TeacherCookie, token, 0, h.cookieDomain)

	if err := h.saved.ClearDurable(ctx, profile); err != nil {
		log.Warn("clear durable cv failed", slog.Any("error", err))
	}

	log.Info("teacher mode enabled")
	c.JSON(http.StatusOK, gin.H{"teacherMode": true})
}

// DisableTeacher 需要同一个 PIN 才能退出 Teacher Mode。
func (h *SessionHandler) DisableTeacher(c *gin.Context) {
	pin, ok := h.bindPIN(c)
	if !ok {
		return
	}

	match, err := h.checkPIN(c.Request.Context(), middleware.ProfileFromContext(c), pin, false)
	if err != nil {
		h.replyPINError(c, err)
		return
	}
	if !match {
		Forbidden(c, "incorrect pin")
		return
	}

	middleware.ClearCookie(c, middleware.TeacherCookie, h.cookieDomain)
	c.JSON(http.StatusOK, gin.H{"teacherMode": false})
}

type safeModeRequest struct {
	Enabled bool `json:"enabled"`
}

// SetSafeMode 开启时写入会话 cookie 并清除持久记录，关闭时删除 cookie。
func (h *SessionHandler) SetSafeMode(c *gin.Context) {
	var req safeModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body")
		return
	}

	if !req.Enabled {
		middleware.ClearCookie(c, middleware.SafeCookie, h.cookieDomain)
		c.JSON(http.StatusOK, gin.H{"safeMode": false})
		return
	}

	middleware.SetCookie(c, middleware.SafeCookie, "1", 0, h.cookieDomain)
	if err := h.saved.ClearDurable(c.Request.Context(), middleware.ProfileFromContext(c)); err != nil {
		middleware.LoggerFromContext(c).Warn("clear durable cv failed", slog.Any("error", err))
	}
	c.JSON(http.StatusOK, gin.H{"safeMode": true})
}

// ClearFlags 删除 Pro 标记与全部会话 cookie，回到 Locked。
func (h *SessionHandler) ClearFlags(c *gin.Context) {
	profile := middleware.ProfileFromContext(c)
	if err := h.redis.Del(c.Request.Context(), middleware.ProFlagKey(profile)).Err(); err != nil {
		middleware.LoggerFromContext(c).Error("clear pro flag failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	for _, name := range []string{middleware.AccessCookie, middleware.TeacherCookie, middleware.SafeCookie} {
		middleware.ClearCookie(c, name, h.cookieDomain)
	}
	c.JSON(http.StatusOK, gin.H{"state": "locked"})
}

// ForgetData 删除该档案的已保存记录与导出归档。
func (h *SessionHandler) ForgetData(c *gin.Context) {
	ctx := c.Request.Context()
	log := middleware.LoggerFromContext(c)
	profile := middleware.ProfileFromContext(c)

	if err := h.saved.Clear(ctx, profile); err != nil {
		log.Error("clear saved cv failed", slog.Any("error", err))
		Internal(c, "failed to clear saved cv")
		return
	}
	if h.archive != nil {
		if err := h.archive.DeletePrefix(ctx, storage.ExportPrefix(profile)); err != nil {
			log.Error("delete export archive failed", slog.Any("error", err))
			Internal(c, "failed to delete exports")
			return
		}
	}
	c.Status(http.StatusNoContent)
}
