package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/formpay/internal/clock"
	"github.com/smallbiznis/formpay/internal/config"
	formdomain "github.com/smallbiznis/formpay/internal/form/domain"
	obsmetrics "github.com/smallbiznis/formpay/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/formpay/internal/payment/domain"
	"github.com/smallbiznis/formpay/internal/providers/email"
	"github.com/smallbiznis/formpay/internal/providers/pdf"
	"github.com/smallbiznis/formpay/internal/receipt/domain"
	"github.com/smallbiznis/formpay/internal/receipt/format"
	"github.com/smallbiznis/formpay/pkg/telemetry"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const receiptDateLayout = "January 2, 2006"

type Params struct {
	fx.In

	Forms      formdomain.Repository
	Email      email.Provider
	PDF        pdf.Provider                `optional:"true"`
	Deliveries domain.DeliveryRepository   `optional:"true"`
	Config     *config.ReceiptConfigHolder `optional:"true"`
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Metrics    *obsmetrics.Metrics `optional:"true"`
	Pipeline   *telemetry.Metrics  `optional:"true"`
}

type Notifier struct {
	forms      formdomain.Repository
	email      email.Provider
	pdf        pdf.Provider
	deliveries domain.DeliveryRepository
	config     *config.ReceiptConfigHolder
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	metrics    *obsmetrics.Metrics
	pipeline   *telemetry.Metrics
}

func New(p Params) *Notifier {
	clk := p.Clock
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Notifier{
		forms:      p.Forms,
		email:      p.Email,
		pdf:        p.PDF,
		deliveries: p.Deliveries,
		config:     p.Config,
		log:        p.Log.Named("receipt.notifier"),
		genID:      p.GenID,
		clock:      clk,
		metrics:    p.Metrics,
		pipeline:   p.Pipeline,
	}
}

// Notify sends one receipt for the event. Every failure is returned wrapped
// in ErrNotifyFailed; callers log it and move on.
func (n *Notifier) Notify(ctx context.Context, event paymentdomain.PaymentEvent) (domain.NotifyOutcome, error) {
	recipient := strings.TrimSpace(event.CustomerEmail)
	if recipient == "" {
		n.finish(ctx, event, recipient, domain.Skipped, nil)
		return domain.Skipped, nil
	}

	err := n.send(ctx, event, recipient)
	if err != nil {
		err = fmt.Errorf("%w: %v", domain.ErrNotifyFailed, err)
		n.finish(ctx, event, recipient, domain.Failed, err)
		return domain.Failed, err
	}
	n.finish(ctx, event, recipient, domain.Sent, nil)
	return domain.Sent, nil
}

func (n *Notifier) send(ctx context.Context, event paymentdomain.PaymentEvent, recipient string) error {
	form, err := n.forms.FindByID(ctx, event.FormID)
	if err != nil {
		return fmt.Errorf("load form %q: %w", event.FormID, err)
	}

	cfg := n.config.Get()
	data := n.templateData(event, form, cfg)
	body, err := Render(data)
	if err != nil {
		return err
	}
	subject := Subject(form.Title)
	to := []string{recipient}

	if cfg.AttachPDF {
		if sender, ok := n.email.(email.AttachmentSender); ok && n.pdf != nil {
			attachment, err := n.renderPDF(ctx, data, recipient)
			if err == nil {
				return sender.SendWithAttachments(ctx, to, subject, body, []email.Attachment{attachment})
			}
			n.log.Warn("receipt pdf render failed, sending without attachment",
				zap.String("provider_payment_id", event.ProviderPaymentID),
				zap.Error(err),
			)
		}
	}
	return n.email.Send(ctx, to, subject, body)
}

func (n *Notifier) templateData(event paymentdomain.PaymentEvent, form *formdomain.Form, cfg config.ReceiptConfig) domain.TemplateData {
	paidAt := event.OccurredAt
	if paidAt.IsZero() {
		paidAt = n.clock.Now()
	}
	return domain.TemplateData{
		FormTitle: form.Title,
		Amount:    format.FormatAmount(event.Amount, event.Currency),
		PaymentID: event.ProviderPaymentID,
		Date:      paidAt.UTC().Format(receiptDateLayout),
		Items: []domain.LineItem{
			{Name: form.Title, Description: form.PaymentDescription},
		},
		SenderName:   cfg.SenderName,
		SupportEmail: cfg.SupportEmail,
		FooterNote:   cfg.FooterNote,
	}
}

func (n *Notifier) renderPDF(ctx context.Context, data domain.TemplateData, recipient string) (email.Attachment, error) {
	items := make([]pdf.ReceiptItem, 0, len(data.Items))
	for _, item := range data.Items {
		items = append(items, pdf.ReceiptItem{Name: item.Name, Description: item.Description, Amount: data.Amount})
	}
	doc, err := n.pdf.GenerateReceipt(ctx, pdf.ReceiptData{
		SenderName:   data.SenderName,
		SupportEmail: data.SupportEmail,
		FormTitle:    data.FormTitle,
		PaymentID:    data.PaymentID,
		DatePaid:     data.Date,
		PayerEmail:   recipient,
		Total:        data.Amount,
		FooterNote:   data.FooterNote,
		Items:        items,
	})
	if err != nil {
		return email.Attachment{}, err
	}
	if len(doc) == 0 {
		return email.Attachment{}, errors.New("empty pdf document")
	}
	return email.Attachment{
		Filename:    AttachmentName(data.FormTitle, data.PaymentID),
		ContentType: "application/pdf",
		Content:     doc,
	}, nil
}

// AttachmentName builds a filesystem-safe file name for the receipt PDF.
func AttachmentName(formTitle, paymentID string) string {
	base := slug.Make(formTitle)
	if base == "" {
		base = "receipt"
	} else {
		base += "-receipt"
	}
	return base + "-" + slug.Make(paymentID) + ".pdf"
}

func (n *Notifier) finish(ctx context.Context, event paymentdomain.PaymentEvent, recipient string, outcome domain.NotifyOutcome, cause error) {
	n.metrics.RecordReceipt(ctx, string(outcome))
	n.pipeline.RecordReceiptDelivery(string(outcome))

	fields := []zap.Field{
		zap.String("provider_payment_id", event.ProviderPaymentID),
		zap.String("form_id", event.FormID),
		zap.String("outcome", string(outcome)),
	}
	switch outcome {
	case domain.Failed:
		n.log.Error("receipt delivery failed", append(fields, zap.Error(cause))...)
	case domain.Skipped:
		n.log.Info("receipt skipped: no recipient", fields...)
	default:
		n.log.Info("receipt sent", fields...)
	}

	if n.deliveries == nil {
		return
	}
	delivery := &domain.Delivery{
		ID:                n.genID.Generate(),
		ProviderPaymentID: event.ProviderPaymentID,
		FormID:            event.FormID,
		Recipient:         recipient,
		Status:            string(outcome),
		CreatedAt:         n.clock.Now().UTC(),
	}
	if cause != nil {
		delivery.Error = cause.Error()
	}
	if err := n.deliveries.Insert(ctx, delivery); err != nil {
		n.log.Warn("failed to log receipt delivery", append(fields, zap.Error(err))...)
	}
}

var _ domain.Notifier = (*Notifier)(nil)
