package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"cvbuilder/internal/auth"
	"cvbuilder/internal/entitlement"
)

const (
	sessionKey       = "sessionContext"
	profileKey       = "profileID"
	accessExpiryKey  = "accessExpiresAt"
	proFlagKeyPrefix = "cv:pro:"
)

// PassValidator 校验访问 cookie 与 Teacher Mode cookie。
type PassValidator interface {
	ValidateAccessPass(token string) (*auth.PassClaims, error)
	ValidateTeacherSession(token, profile string) error
}

type proFlagReader interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
}

// ProFlagKey 返回档案 Pro 标记的 Redis 键。
func ProFlagKey(profile string) string {
	return proFlagKeyPrefix + profile
}

// SessionMiddleware 每个请求只构建一次 SessionContext，之后由 handler 显式读取。
func SessionMiddleware(passes PassValidator, pro proFlagReader, cookieDomain string) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile := ""
		if raw, err := c.Cookie(ProfileCookie); err == nil {
			if id, err := uuid.Parse(raw); err == nil {
				profile = id.String()
			}
		}
		if profile == "" {
			profile = uuid.NewString()
			SetCookie(c, ProfileCookie, profile, ProfileCookieTTL, cookieDomain)
		}
		c.Set(profileKey, profile)

		var sc entitlement.SessionContext
		log := LoggerFromContext(c)

		if token, err := c.Cookie(AccessCookie); err == nil && token != "" {
			claims, err := passes.ValidateAccessPass(token)
			if err == nil && claims.Paid {
				sc.PaidAccessValid = true
				if claims.ExpiresAt != nil {
					c.Set(accessExpiryKey, claims.ExpiresAt.Time)
				}
			} else if err != nil {
				log.Debug("access cookie rejected", slog.Any("error", err))
			}
		}

		if token, err := c.Cookie(TeacherCookie); err == nil && token != "" {
			sc.TeacherModeActive = passes.ValidateTeacherSession(token, profile) == nil
		}

		if v, err := c.Cookie(SafeCookie); err == nil && v == "1" {
			sc.StudentSafeModeActive = true
		}

		if pro != nil {
			n, err := pro.Exists(c.Request.Context(), ProFlagKey(profile)).Result()
			if err != nil {
				log.Warn("read pro flag failed", slog.Any("error", err))
			}
			sc.ProUnlocked = n > 0
		}

		c.Set(sessionKey, sc)
		c.Next()
	}
}

// SessionFromContext 返回本次请求的 SessionContext，缺省为 Locked。
func SessionFromContext(c *gin.Context) entitlement.SessionContext {
	if value, ok := c.Get(sessionKey); ok {
		if sc, ok := value.(entitlement.SessionContext); ok {
			return sc
		}
	}
	return entitlement.SessionContext{}
}

// ProfileFromContext 返回浏览器档案 id。
func ProfileFromContext(c *gin.Context) string {
	return c.GetString(profileKey)
}

// AccessExpiryFromContext 返回访问 cookie 的过期时间。
func AccessExpiryFromContext(c *gin.Context) (time.Time, bool) {
	if value, ok := c.Get(accessExpiryKey); ok {
		if t, ok := value.(time.Time); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// WithSession 供测试与内部调用直接注入会话。
func WithSession(c *gin.Context, profile string, sc entitlement.SessionContext) {
	c.Set(profileKey, profile)
	c.Set(sessionKey, sc)
}
