package schedule

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/gomail.v2"

	"github.com/newsroom-cloud/analytics/internal/config"
	"github.com/newsroom-cloud/analytics/internal/logger"
)

// subjectPrefix brands outgoing report emails.
const subjectPrefix = "Newsroom Analytics"

// EmailSender delivers scheduled reports over SMTP.
type EmailSender struct {
	dialer *gomail.Dialer
	from   string
	log    logger.Logger
}

// NewEmailSender creates the SMTP sender.
func NewEmailSender(cfg *config.EmailConfig, log logger.Logger) *EmailSender {
	return &EmailSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		log:    log,
	}
}

// Send mails one scheduled report with its attachments.
func (e *EmailSender) Send(_ context.Context, s *Schedule, attachments []Attachment) error {
	body := s.Body
	if body == "" {
		body = fmt.Sprintf("%s - %s", subjectPrefix, s.Name)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", e.from)
	msg.SetHeader("To", s.Recipients...)
	msg.SetHeader("Subject", fmt.Sprintf("%s - %s", subjectPrefix, s.Name))
	msg.SetBody("text/plain", body)

	for _, attachment := range attachments {
		attachment := attachment
		msg.Attach(attachment.Filename,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(attachment.Data)
				return err
			}),
			gomail.SetHeader(map[string][]string{
				"Content-Type": {attachment.MimeType},
			}))
	}

	if err := e.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send report email: %w", err)
	}

	e.log.Info("sent scheduled report email",
		logger.String("schedule_id", s.ID),
		logger.Int("recipients", len(s.Recipients)),
		logger.Int("attachments", len(attachments)))
	return nil
}
