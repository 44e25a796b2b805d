package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements the Sender interface using a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendSaleWonEmail(ctx context.Context, toEmail, leadName, saleURL string, amountCents int64, durationDays int) error {
	subject := fmt.Sprintf(subjectSaleWonFmt, leadName)
	content, err := renderEmailTemplate("sale_won.html", saleWonEmailData{
		baseEmailData: baseEmailData{
			Title:    "Deal closed",
			Heading:  "Deal closed",
			CTALabel: "Open sale",
			CTAURL:   saleURL,
		},
		LeadName:        leadName,
		AmountFormatted: formatCurrencyEUR(amountCents),
		DurationDays:    durationDays,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}

func (s *SMTPSender) SendLeadTransferredEmail(ctx context.Context, toEmail, leadName, leadURL string, score float64) error {
	subject := fmt.Sprintf(subjectLeadTransferredFmt, leadName)
	content, err := renderEmailTemplate("lead_transferred.html", leadTransferredEmailData{
		baseEmailData: baseEmailData{
			Title:    "New sales handoff",
			Heading:  "New sales handoff",
			CTALabel: "Open lead",
			CTAURL:   leadURL,
		},
		LeadName:       leadName,
		ScoreFormatted: fmt.Sprintf("%.0f%%", score*100),
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}
