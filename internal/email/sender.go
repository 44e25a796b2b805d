// Package email delivers transactional notifications over SMTP.
package email

import (
	"context"

	"leadflow_backend/platform/config"
)

type Sender interface {
	SendSaleWonEmail(ctx context.Context, toEmail, leadName, saleURL string, amountCents int64, durationDays int) error
	SendLeadTransferredEmail(ctx context.Context, toEmail, leadName, leadURL string, score float64) error
}

// NoopSender swallows every mail. Used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendSaleWonEmail(ctx context.Context, toEmail, leadName, saleURL string, amountCents int64, durationDays int) error {
	return nil
}

func (NoopSender) SendLeadTransferredEmail(ctx context.Context, toEmail, leadName, leadURL string, score float64) error {
	return nil
}

// NewSender picks the delivery backend from config. Email disabled means
// every send becomes a no-op, so callers never have to branch.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}, nil
	}

	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	), nil
}
