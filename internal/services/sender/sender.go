// Package sender turns notification events into emails. It consumes the
// notification queues, picks a template by event kind and delivers the
// rendered message over SMTP.
package sender

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Manaslohe/TechReportProBE/internal/lib/sl"
	"github.com/Manaslohe/TechReportProBE/internal/lib/smtp"
	"github.com/Manaslohe/TechReportProBE/internal/models"
)

// Service delivers notification emails.
type Service struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// New creates the sender service.
func New(transport smtp.TransportInterface, log *slog.Logger) *Service {
	return &Service{
		transport: transport,
		log:       log,
	}
}

// Send renders the event into an email and delivers it. Returning an error
// makes the consumer nack the delivery for a retry.
func (s *Service) Send(event models.NotificationEvent) error {
	const op = "sender.Send"

	subject, body, err := render(event.Kind, event.Payload)
	if err != nil {
		// unknown kinds are dropped, retrying cannot fix them
		s.log.Error("unroutable notification event",
			slog.String("kind", event.Kind), sl.Err(err))
		return nil
	}

	if err := s.deliver(event.Email, subject, body); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("email sent",
		slog.String("kind", event.Kind),
		slog.String("routing_key", models.RoutingKey(event.Kind)))
	return nil
}

func (s *Service) deliver(to, subject, body string) error {
	client, err := s.transport.Connect()
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Quit(); err != nil {
			s.log.Error("failed to close SMTP session", sl.Err(err))
		}
	}()

	from := s.transport.GetSMTPUser()
	if err := client.Mail(from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}

	msg := buildMessage(from, to, subject, body)
	if _, err := w.Write([]byte(msg)); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func buildMessage(from, to, subject, body string) string {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return b.String()
}
