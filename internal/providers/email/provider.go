package email

import "context"

//go:generate mockgen -destination=mock/provider.go -package=mock github.com/smallbiznis/formpay/internal/providers/email Provider,AttachmentSender

// Provider delivers a rendered HTML message.
type Provider interface {
	Send(ctx context.Context, to []string, subject string, htmlBody string) error
}

// Attachment is a file carried alongside a message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// AttachmentSender is implemented by providers that can carry files.
type AttachmentSender interface {
	Provider
	SendWithAttachments(ctx context.Context, to []string, subject string, htmlBody string, attachments []Attachment) error
}

type NoOpProvider struct{}

func (p *NoOpProvider) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	return nil
}
