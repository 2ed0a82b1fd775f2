package smtp

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/studygroup-api/internal/domain"
)

// Settings capture the SMTP relay the mailer talks to.
type Settings struct {
	Host     string
	Port     string
	From     string
	FromName string
	Username string
	Password string
}

// Mailer sends HTML email over SMTP. Used with MailHog in development.
type Mailer struct {
	cfg  Settings
	send func(e *email.Email, addr string, a smtp.Auth) error
}

func NewMailer(cfg Settings) *Mailer {
	return &Mailer{
		cfg:  cfg,
		send: func(e *email.Email, addr string, a smtp.Auth) error { return e.Send(addr, a) },
	}
}

func (m *Mailer) SendEmail(ctx context.Context, msg domain.Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.To == "" {
		return errors.New("smtp: recipient is required")
	}

	e := email.NewEmail()
	e.From = m.cfg.From
	if m.cfg.FromName != "" {
		e.From = fmt.Sprintf("%s <%s>", m.cfg.FromName, m.cfg.From)
	}
	e.To = []string{msg.To}
	e.Subject = msg.Subject
	e.Text = []byte(msg.Text)
	e.HTML = []byte(msg.HTML)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%s", m.cfg.Host, m.cfg.Port)
	if err := m.send(e, addr, auth); err != nil {
		return fmt.Errorf("smtp: send to %s: %w", addr, err)
	}
	return nil
}
