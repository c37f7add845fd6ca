// Package mailer 发送购买回执邮件。
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/gomail.v2"

	"cvbuilder/internal/config"
	"cvbuilder/internal/region"
)

// Message 是一封待发送的 HTML 邮件。
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender 抽象邮件发送。
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender 通过 SMTP 中继（例如 Resend 的 smtp.resend.com）发送。
type SMTPSender struct {
	from   string
	dialer *gomail.Dialer
}

func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

var receiptTemplate = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<body style="font-family: Arial, sans-serif; color: #111827;">
<h1 style="font-size: 20px;">Thanks for your purchase</h1>
<p>Your premium access is active until <strong>{{.Until}}</strong>.</p>
{{- if .Amount}}
<p>Amount paid: {{.Amount}}</p>
{{- end}}
<p>All templates and PDF export are unlocked in the browser you used to pay.
If you switch device, open the link below from the same e-mail address to restore access.</p>
{{- if .ManageURL}}
<p><a href="{{.ManageURL}}">{{.ManageURL}}</a></p>
{{- end}}
<p style="color: #6b7280; font-size: 12px;">Reference: {{.Reference}}</p>
</body>
</html>`))

// Receipt 是回执邮件的内容。
type Receipt struct {
	To          string
	Region      region.Code
	AmountMinor int64
	ExpiresAt   time.Time
	Reference   string
	ManageURL   string
}

// BuildReceipt 渲染回执邮件。
func BuildReceipt(r Receipt) (Message, error) {
	view := struct {
		Lang      string
		Until     string
		Amount    string
		ManageURL string
		Reference string
	}{
		Lang:      region.LocaleString(r.Region),
		Until:     region.FormatDate(r.ExpiresAt, r.Region),
		ManageURL: r.ManageURL,
		Reference: r.Reference,
	}
	if r.AmountMinor > 0 {
		view.Amount = region.PriceLabel(r.Region, r.AmountMinor)
	}

	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, view); err != nil {
		return Message{}, fmt.Errorf("render receipt: %w", err)
	}
	return Message{
		To:      r.To,
		Subject: "Your " + region.DocumentLabel(r.Region) + " builder access receipt",
		HTML:    buf.String(),
	}, nil
}
