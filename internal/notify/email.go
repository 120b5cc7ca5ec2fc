package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/adnanqureshi/dosealert/internal/models"
)

type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// EmailSender delivers reminders over SMTP with STARTTLS.
type EmailSender struct {
	cfg EmailConfig
	log zerolog.Logger
}

func NewEmailSender(cfg EmailConfig, log zerolog.Logger) *EmailSender {
	return &EmailSender{cfg: cfg, log: log.With().Str("component", "email").Logger()}
}

func (s *EmailSender) Send(ctx context.Context, user *models.User, medicineName, dosage, localTime string) error {
	if user.Email == "" {
		return &DeliveryError{Permanent: true, Err: errors.New("user has no email address")}
	}

	subject := fmt.Sprintf("Medicine Reminder: %s", medicineName)
	msg := s.buildMessage(user.Email, subject, reminderBody(user, medicineName, dosage, localTime))

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	if err := s.deliver(ctx, addr, user.Email, msg); err != nil {
		s.log.Error().Err(err).Str("to", user.Email).Msg("smtp delivery failed")
		return &DeliveryError{Err: err}
	}

	s.log.Info().Str("to", user.Email).Str("medicine", medicineName).Str("time", localTime).Msg("reminder email sent")
	return nil
}

// deliver runs the SMTP session by hand so the connection carries the
// context deadline. smtp.SendMail dials and reads without any deadline,
// which would let a stalled server block a dispatch cycle indefinitely.
func (s *EmailSender) deliver(ctx context.Context, addr, to string, msg []byte) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			conn.Close()
			return err
		}
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			return err
		}
	}
	if s.cfg.Username != "" {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(s.cfg.From); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func (s *EmailSender) buildMessage(to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", s.cfg.FromName, s.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

func reminderBody(user *models.User, medicineName, dosage, localTime string) string {
	name := user.FullName
	if name == "" {
		name = user.Username
	}
	return fmt.Sprintf(
		"Hi %s,\r\n\r\n"+
			"It's time to take your medicine.\r\n\r\n"+
			"Medicine: %s\r\n"+
			"Dosage: %s\r\n"+
			"Time: %s\r\n\r\n"+
			"Stay healthy!\r\n",
		name, medicineName, dosage, localTime,
	)
}
