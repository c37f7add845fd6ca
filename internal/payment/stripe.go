// Package payment 使用 Stripe Checkout 创建与核验一次性付款。
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"cvbuilder/internal/config"
	"cvbuilder/internal/region"
)

var (
	ErrNotPaid        = errors.New("checkout session is not paid")
	ErrUnknownSession = errors.New("unknown checkout session")
)

// AccessWindow 是付款成功后解锁的时长，从核验时刻起算。
const AccessWindow = 30 * 24 * time.Hour

// Verification 是一次成功核验的结果。
type Verification struct {
	SessionID     string
	CustomerEmail string
	AmountTotal   int64
	Currency      string
	ExpiresAt     time.Time
}

// Verifier 核验 checkout session 是否已完成付款。
type Verifier interface {
	Verify(ctx context.Context, sessionID string) (Verification, error)
}

type checkoutSessions interface {
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// StripeService 实现 Verifier 并负责创建 checkout。
type StripeService struct {
	sessions   checkoutSessions
	priceID    string
	successURL string
	cancelURL  string
	now        func() time.Time
}

func NewStripeService(cfg config.StripeConfig) (*StripeService, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("stripe secret key is required")
	}
	sc := &client.API{}
	sc.Init(cfg.SecretKey, nil)
	return &StripeService{
		sessions:   sc.CheckoutSessions,
		priceID:    cfg.PriceID,
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
		now:        time.Now,
	}, nil
}

// ValidSessionID 只接受 Stripe checkout session 的 id 格式。
func ValidSessionID(id string) bool {
	return strings.HasPrefix(id, "cs_") && len(id) <= 255 && !strings.ContainsAny(id, " /?#")
}

// Verify 要求 status=complete 且 payment_status 为 paid 或 no_payment_required。
func (s *StripeService) Verify(ctx context.Context, sessionID string) (Verification, error) {
	sessionID = strings.TrimSpace(sessionID)
	if !ValidSessionID(sessionID) {
		return Verification{}, ErrUnknownSession
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("customer_details")

	sess, err := s.sessions.Get(sessionID, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing {
			return Verification{}, ErrUnknownSession
		}
		return Verification{}, fmt.Errorf("get checkout session: %w", err)
	}

	if sess.Status != stripe.CheckoutSessionStatusComplete {
		return Verification{}, ErrNotPaid
	}
	switch sess.PaymentStatus {
	case stripe.CheckoutSessionPaymentStatusPaid, stripe.CheckoutSessionPaymentStatusNoPaymentRequired:
	default:
		return Verification{}, ErrNotPaid
	}

	v := Verification{
		SessionID:   sess.ID,
		AmountTotal: sess.AmountTotal,
		Currency:    string(sess.Currency),
		ExpiresAt:   s.now().Add(AccessWindow),
	}
	if sess.CustomerDetails != nil && sess.CustomerDetails.Email != "" {
		v.CustomerEmail = sess.CustomerDetails.Email
	} else {
		v.CustomerEmail = sess.CustomerEmail
	}
	return v, nil
}

// Checkout 是新建 checkout session 的结果。
type Checkout struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreateCheckout 创建一次性付款的 checkout session。
func (s *StripeService) CreateCheckout(ctx context.Context, r region.Code) (Checkout, error) {
	if s.priceID == "" {
		return Checkout{}, errors.New("stripe price id is not configured")
	}

	successURL := s.successURL
	if !strings.Contains(successURL, "{CHECKOUT_SESSION_ID}") {
		sep := "?"
		if strings.Contains(successURL, "?") {
			sep = "&"
		}
		successURL += sep + "session_id={CHECKOUT_SESSION_ID}"
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(s.priceID),
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(s.cancelURL),
		Locale:     stripe.String(checkoutLocale(r)),
	}
	params.Context = ctx
	params.AddMetadata("region", string(r))

	sess, err := s.sessions.New(params)
	if err != nil {
		return Checkout{}, fmt.Errorf("create checkout session: %w", err)
	}
	return Checkout{ID: sess.ID, URL: sess.URL}, nil
}

func checkoutLocale(r region.Code) string {
	if r.Document() == region.US {
		return "en"
	}
	return "en-GB"
}
