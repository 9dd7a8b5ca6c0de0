package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-contactform/internal/config"
)

// SMTPMailer renders templates and delivers them over SMTP.
type SMTPMailer struct {
	cfg       config.MailConfig
	fromName  string
	templates *Templates
	now       func() time.Time

	// deliver is the transport seam; defaults to a real SMTP session.
	deliver func(ctx context.Context, from string, to []string, msg []byte) error
}

// NewSMTPMailer returns a mailer for cfg. fromName is the display name used
// in the From header (usually the shop name).
func NewSMTPMailer(cfg config.MailConfig, fromName string, tpl *Templates) *SMTPMailer {
	m := &SMTPMailer{cfg: cfg, fromName: fromName, templates: tpl, now: time.Now}
	m.deliver = m.deliverSMTP
	return m
}

// Send implements Mailer.
func (s *SMTPMailer) Send(ctx context.Context, m Mail) error {
	msg, from, err := build(s.templates, s.defaultFrom(), m, s.now())
	if err != nil {
		return err
	}
	if err := s.deliver(ctx, from.Address, []string{m.To}, msg); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Debug().
		Str("template", m.Template).
		Int("bytes", len(msg)).
		Msg("mail sent")
	return nil
}

func (s *SMTPMailer) defaultFrom() *mail.Address {
	addr := s.cfg.SMTPFrom
	if addr == "" {
		addr = s.cfg.SMTPUser
	}
	if addr == "" {
		addr = "noreply@localhost"
	}
	return &mail.Address{Name: s.fromName, Address: addr}
}

func (s *SMTPMailer) deliverSMTP(ctx context.Context, from string, to []string, msg []byte) error {
	client, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := s.authenticate(client); err != nil {
		return err
	}
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", rcpt, err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to initiate data transfer: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data transfer: %w", err)
	}
	if err := client.Quit(); err != nil {
		return fmt.Errorf("failed to quit SMTP session: %w", err)
	}
	return nil
}

func (s *SMTPMailer) dial(ctx context.Context) (*smtp.Client, error) {
	addr := s.cfg.SMTPHost + ":" + strconv.Itoa(s.cfg.SMTPPort)
	tlsConfig := &tls.Config{ServerName: s.cfg.SMTPHost}
	netDialer := &net.Dialer{Timeout: 15 * time.Second}
	mode := strings.ToLower(s.cfg.SMTPTLSMode)

	var (
		conn net.Conn
		err  error
	)
	if mode == "smtps" {
		conn, err = (&tls.Dialer{NetDialer: netDialer, Config: tlsConfig}).DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect via SMTPS: %w", err)
		}
	} else {
		conn, err = netDialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SMTP server: %w", err)
		}
	}
	// The deadline covers every read and write of the session, so a stalled
	// server cannot hold the request past it.
	if err := conn.SetDeadline(s.sessionDeadline(ctx)); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to set SMTP deadline: %w", err)
	}

	client, err := smtp.NewClient(conn, s.cfg.SMTPHost)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}
	if mode == "starttls" {
		if err := client.StartTLS(tlsConfig); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to start TLS: %w", err)
		}
	}
	return client, nil
}

// sessionDeadline is the earlier of the ctx deadline and now+SMTPTimeout.
func (s *SMTPMailer) sessionDeadline(ctx context.Context) time.Time {
	timeout := s.cfg.SMTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	deadline := s.now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	return deadline
}

func (s *SMTPMailer) authenticate(client *smtp.Client) error {
	if s.cfg.SMTPUser == "" || s.cfg.SMTPPassword == "" {
		return nil
	}
	var auth smtp.Auth
	switch strings.ToLower(strings.TrimSpace(s.cfg.SMTPAuthType)) {
	case "login":
		auth = &loginAuth{username: s.cfg.SMTPUser, password: s.cfg.SMTPPassword}
	default:
		auth = smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	return nil
}

// loginAuth implements SMTP LOGIN authentication.
type loginAuth struct {
	username, password string
}

func (a *loginAuth) Start(_ *smtp.ServerInfo) (string, []byte, error) {
	return "LOGIN", []byte{}, nil
}

func (a *loginAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}
	switch string(fromServer) {
	case "Username:":
		return []byte(a.username), nil
	case "Password:":
		return []byte(a.password), nil
	default:
		return nil, fmt.Errorf("unexpected server challenge: %s", fromServer)
	}
}

// build renders m and composes the final message bytes.
func build(tpl *Templates, defaultFrom *mail.Address, m Mail, now time.Time) ([]byte, *mail.Address, error) {
	if m.To == "" {
		return nil, nil, ErrNoRecipient
	}
	htmlBody, textBody, err := tpl.Render(m.Lang, m.Template, m.Vars)
	if err != nil {
		return nil, nil, err
	}
	from := defaultFrom
	if m.From != "" {
		from = &mail.Address{Name: m.FromName, Address: m.From}
	}
	msg, err := Compose(from, m, htmlBody, textBody, now)
	if err != nil {
		return nil, nil, err
	}
	return msg, from, nil
}
