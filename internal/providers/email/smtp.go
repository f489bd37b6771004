package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"os"
	"strings"
	"time"

	jwemail "github.com/jordan-wright/email"
)

// defaultSendTimeout bounds a send whose context carries no deadline.
const defaultSendTimeout = 30 * time.Second

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

var ErrNoRecipients = errors.New("email: no recipients")

type SMTPProvider struct {
	cfg  Config
	send func(ctx context.Context, e *jwemail.Email, addr string, auth smtp.Auth) error
}

func NewSMTP(cfg Config) *SMTPProvider {
	return &SMTPProvider{
		cfg:  cfg,
		send: sendContext,
	}
}

func (p *SMTPProvider) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	return p.SendWithAttachments(ctx, to, subject, htmlBody, nil)
}

func (p *SMTPProvider) SendWithAttachments(ctx context.Context, to []string, subject string, htmlBody string, attachments []Attachment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := p.build(to, subject, htmlBody, attachments)
	if err != nil {
		return err
	}
	addr := fmt.Sprintf("%s:%d", p.cfg.Host, p.cfg.Port)
	if err := p.send(ctx, msg, addr, p.auth()); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (p *SMTPProvider) build(to []string, subject string, htmlBody string, attachments []Attachment) (*jwemail.Email, error) {
	recipients := make([]string, 0, len(to))
	for _, addr := range to {
		if addr = strings.TrimSpace(addr); addr != "" {
			recipients = append(recipients, addr)
		}
	}
	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}

	e := jwemail.NewEmail()
	e.From = p.cfg.From
	e.To = recipients
	e.Subject = subject
	e.HTML = []byte(htmlBody)
	for _, a := range attachments {
		contentType := a.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		if _, err := e.Attach(bytes.NewReader(a.Content), a.Filename, contentType); err != nil {
			return nil, fmt.Errorf("attach %s: %w", a.Filename, err)
		}
	}
	return e, nil
}

// auth is nil for unauthenticated relays such as a local mail catcher.
func (p *SMTPProvider) auth() smtp.Auth {
	if p.cfg.Username == "" {
		return nil
	}
	return smtp.PlainAuth("", p.cfg.Username, p.cfg.Password, p.cfg.Host)
}

// sendContext delivers e over one SMTP session bound to ctx. The connection
// deadline follows the context, so a stalled relay cannot outlive the caller.
func sendContext(ctx context.Context, e *jwemail.Email, addr string, auth smtp.Auth) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultSendTimeout)
		defer cancel()
	}

	from, err := mail.ParseAddress(e.From)
	if err != nil {
		return fmt.Errorf("parse sender: %w", err)
	}
	recipients := make([]string, 0, len(e.To)+len(e.Cc)+len(e.Bcc))
	for _, list := range [][]string{e.To, e.Cc, e.Bcc} {
		for _, raw := range list {
			addr, err := mail.ParseAddress(raw)
			if err != nil {
				return fmt.Errorf("parse recipient: %w", err)
			}
			recipients = append(recipients, addr.Address)
		}
	}
	raw, err := e.Bytes()
	if err != nil {
		return err
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return contextErr(ctx, err)
	}
	deadline, _ := ctx.Deadline()
	_ = conn.SetDeadline(deadline)
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	host, _, _ := net.SplitHostPort(addr)
	client, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return contextErr(ctx, err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return contextErr(ctx, err)
		}
	}
	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return contextErr(ctx, err)
			}
		}
	}
	if err := client.Mail(from.Address); err != nil {
		return contextErr(ctx, err)
	}
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return contextErr(ctx, err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return contextErr(ctx, err)
	}
	if _, err := w.Write(raw); err != nil {
		return contextErr(ctx, err)
	}
	if err := w.Close(); err != nil {
		return contextErr(ctx, err)
	}
	return contextErr(ctx, client.Quit())
}

// contextErr prefers the context's error once it has fired, since a closed
// connection only reports an opaque i/o timeout.
func contextErr(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %v", ctxErr, err)
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return err
}

var _ AttachmentSender = (*SMTPProvider)(nil)
