package pdf

import (
	"context"

	"go.uber.org/fx"
)

var Module = fx.Module("providers.pdf",
	fx.Provide(
		fx.Annotate(NewPDFProvider, fx.As(new(Provider))),
	),
)

type Provider interface {
	GenerateReceipt(ctx context.Context, data ReceiptData) ([]byte, error)
}

type NoOpProvider struct{}

func (p *NoOpProvider) GenerateReceipt(ctx context.Context, data ReceiptData) ([]byte, error) {
	return nil, nil
}

type PDFProvider struct{}

func NewPDFProvider() *PDFProvider {
	return &PDFProvider{}
}
