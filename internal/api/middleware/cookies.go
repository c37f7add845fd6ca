package middleware

import (
	stdhttp "net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	ProfileCookie = "cv_profile"
	AccessCookie  = "cv_access"
	TeacherCookie = "cv_teacher"
	SafeCookie    = "cv_safe"
)

// ProfileCookieTTL 是浏览器档案 cookie 的寿命。
const ProfileCookieTTL = 365 * 24 * time.Hour

// SetCookie 写入 HttpOnly、SameSite=Lax 的 cookie。maxAge 为 0 时是会话 cookie。
func SetCookie(c *gin.Context, name, value string, maxAge time.Duration, domain string) {
	cookie := &stdhttp.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Secure:   IsHTTPS(c),
		HttpOnly: true,
		SameSite: stdhttp.SameSiteLaxMode,
		Domain:   strings.TrimSpace(domain),
	}
	if maxAge > 0 {
		cookie.MaxAge = int(maxAge.Seconds())
		cookie.Expires = time.Now().Add(maxAge)
	}
	stdhttp.SetCookie(c.Writer, cookie)
}

// ClearCookie 让浏览器立即删除 cookie。
func ClearCookie(c *gin.Context, name, domain string) {
	stdhttp.SetCookie(c.Writer, &stdhttp.Cookie{
		Name:     name,
		Value:    "",
		MaxAge:   -1,
		Path:     "/",
		Secure:   IsHTTPS(c),
		HttpOnly: true,
		SameSite: stdhttp.SameSiteLaxMode,
		Domain:   strings.TrimSpace(domain),
	})
}

// IsHTTPS 同时识别直连 TLS 与反向代理头。
func IsHTTPS(c *gin.Context) bool {
	if c.Request == nil {
		return false
	}
	if c.Request.TLS != nil {
		return true
	}
	return strings.EqualFold(c.Request.Header.Get("X-Forwarded-Proto"), "https")
}
