package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cvbuilder/internal/api/middleware"
	"cvbuilder/internal/database"
	"cvbuilder/internal/entitlement"
	"cvbuilder/internal/mailer"
	"cvbuilder/internal/payment"
	"cvbuilder/internal/region"
)

const (
	EmailSent        = "sent"
	EmailSkipped     = "skipped"
	EmailFailed      = "failed"
	EmailAlreadySent = "already_sent"
)

type checkoutCreator interface {
	CreateCheckout(ctx context.Context, r region.Code) (payment.Checkout, error)
}

type accessIssuer interface {
	IssueAccessPass(sessionID string) (string, time.Time, error)
}

type proFlagWriter interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// PaymentHandler 负责 Stripe checkout 的创建、核验与访问状态查询。
type PaymentHandler struct {
	verifier     payment.Verifier
	checkout     checkoutCreator
	passes       accessIssuer
	pro          proFlagWriter
	db           *gorm.DB
	mail         mailer.Sender
	cookieDomain string
	manageURL    string
}

// NewPaymentHandler 构造 PaymentHandler。mail 为 nil 时不发送收据。
func NewPaymentHandler(verifier payment.Verifier, checkout checkoutCreator, passes accessIssuer, pro proFlagWriter, db *gorm.DB, mail mailer.Sender, cookieDomain, manageURL string) *PaymentHandler {
	return &PaymentHandler{
		verifier:     verifier,
		checkout:     checkout,
		passes:       passes,
		pro:          pro,
		db:           db,
		mail:         mail,
		cookieDomain: cookieDomain,
		manageURL:    manageURL,
	}
}

type verifyRequest struct {
	SessionID string `json:"sessionId"`
}

type verifyResponse struct {
	OK            bool   `json:"ok"`
	ExpiresAt     int64  `json:"expiresAt,omitempty"`
	CustomerEmail string `json:"customerEmail,omitempty"`
	EmailStatus   string `json:"emailStatus,omitempty"`
}

// Verify 核验 checkout 后签发 30 天访问 cookie，记录购买并只发送一次收据。
func (h *PaymentHandler) Verify(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Query("session_id"))
	if c.Request.Method == http.MethodPost {
		var req verifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, "invalid request body")
			return
		}
		sessionID = strings.TrimSpace(req.SessionID)
	}
	if sessionID == "" {
		BadRequest(c, "sessionId is required")
		return
	}

	ctx := c.Request.Context()
	log := middleware.LoggerFromContext(c)

	v, err := h.verifier.Verify(ctx, sessionID)
	if err != nil {
		if errors.Is(err, payment.ErrNotPaid) || errors.Is(err, payment.ErrUnknownSession) {
			log.Info("checkout not verified", slog.Any("reason", err))
			c.JSON(http.StatusOK, verifyResponse{OK: false})
			return
		}
		log.Error("verify checkout failed", slog.Any("error", err))
		BadGateway(c, "We couldn't confirm your payment right now. Please try again.")
		return
	}

	token, expiresAt, err := h.passes.IssueAccessPass(v.SessionID)
	if err != nil {
		log.Error("issue access pass failed", slog.Any("error", err))
		Internal(c, "failed to issue access")
		return
	}
	middleware.SetCookie(c, middleware.AccessCookie, token, time.Until(expiresAt), h.cookieDomain)

	profile := middleware.ProfileFromContext(c)
	if err := h.pro.Set(ctx, middleware.ProFlagKey(profile), "1", payment.AccessWindow).Err(); err != nil {
		log.Warn("set pro flag failed", slog.Any("error", err))
	}

	emailStatus, err := h.recordPurchase(ctx, log, v, expiresAt)
	if err != nil {
		log.Error("record purchase failed", slog.Any("error", err))
		emailStatus = EmailFailed
	}

	c.JSON(http.StatusOK, verifyResponse{
		OK:            true,
		ExpiresAt:     expiresAt.UnixMilli(),
		CustomerEmail: v.CustomerEmail,
		EmailStatus:   emailStatus,
	})
}

// recordPurchase 以 session id 幂等写入购买记录，并通过条件更新保证收据只发送一次。
func (h *PaymentHandler) recordPurchase(ctx context.Context, log *slog.Logger, v payment.Verification, expiresAt time.Time) (string, error) {
	row := database.Purchase{
		CheckoutSessionID: v.SessionID,
		CustomerEmail:     v.CustomerEmail,
		AmountTotal:       v.AmountTotal,
		Currency:          v.Currency,
		AccessExpiresAt:   expiresAt,
	}
	err := h.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "checkout_session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_expires_at", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return "", err
	}

	if h.mail == nil || strings.TrimSpace(v.CustomerEmail) == "" {
		return EmailSkipped, nil
	}

	now := time.Now().UTC()
	res := h.db.WithContext(ctx).Model(&database.Purchase{}).
		Where("checkout_session_id = ? AND receipt_sent_at IS NULL", v.SessionID).
		Update("receipt_sent_at", now)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		return EmailAlreadySent, nil
	}

	msg, err := mailer.BuildReceipt(mailer.Receipt{
		To:          v.CustomerEmail,
		Region:      region.Parse(currencyRegion(v.Currency)),
		AmountMinor: v.AmountTotal,
		ExpiresAt:   expiresAt,
		Reference:   v.SessionID,
		ManageURL:   h.manageURL,
	})
	if err == nil {
		err = h.mail.Send(ctx, msg)
	}
	if err != nil {
		// 发送失败时释放标记，下一次核验可以重试。
		_ = h.db.WithContext(ctx).Model(&database.Purchase{}).
			Where("checkout_session_id = ?", v.SessionID).
			Update("receipt_sent_at", nil).Error
		log.Warn("send receipt failed", slog.Any("error", err))
		return EmailFailed, nil
	}
	return EmailSent, nil
}

// currencyRegion 用付款币种推断收据的地区格式。
func currencyRegion(currency string) string {
	switch strings.ToLower(currency) {
	case "usd":
		return "US"
	case "eur":
		return "IE"
	case "aud":
		return "AU"
	case "nzd":
		return "NZ"
	case "cad":
		return "CA"
	default:
		return "UK"
	}
}

type checkoutRequest struct {
	Region string `json:"region"`
}

// Checkout 创建一次性付款的 checkout session。
func (h *PaymentHandler) Checkout(c *gin.Context) {
	var req checkoutRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, "invalid request body")
			return
		}
	}

	co, err := h.checkout.CreateCheckout(c.Request.Context(), region.Parse(req.Region))
	if err != nil {
		middleware.LoggerFromContext(c).Error("create checkout failed", slog.Any("error", err))
		BadGateway(c, "We couldn't start checkout right now. Please try again.")
		return
	}
	c.JSON(http.StatusOK, co)
}

type accessResponse struct {
	State       entitlement.State `json:"state"`
	Paid        bool              `json:"paid"`
	Pro         bool              `json:"pro"`
	TeacherMode bool              `json:"teacherMode"`
	SafeMode    bool              `json:"safeMode"`
	ExpiresAt   *int64            `json:"expiresAt"`
}

// Access 返回当前会话的权益状态。
func (h *PaymentHandler) Access(c *gin.Context) {
	sc := middleware.SessionFromContext(c)
	resp := accessResponse{
		State:       sc.State(),
		Paid:        sc.PaidAccessValid,
		Pro:         sc.ProUnlocked,
		TeacherMode: sc.TeacherModeActive,
		SafeMode:    sc.StudentSafeModeActive,
	}
	if exp, ok := middleware.AccessExpiryFromContext(c); ok {
		ms := exp.UnixMilli()
		resp.ExpiresAt = &ms
	}
	c.JSON(http.StatusOK, resp)
}
