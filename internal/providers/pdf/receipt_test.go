package pdf

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReceipt(t *testing.T) {
	p := NewPDFProvider()

	doc, err := p.GenerateReceipt(context.Background(), ReceiptData{
		SenderName: "Formpay",
		FormTitle:  "Workshop Signup",
		PaymentID:  "pi_123",
		DatePaid:   "2024-01-01",
		PayerEmail: "payer@example.com",
		Total:      "$25.00",
		Items: []ReceiptItem{
			{Name: "Workshop Signup", Description: "Saturday seat", Amount: "$25.00"},
		},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))
}

func TestGenerateReceiptCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPDFProvider().GenerateReceipt(ctx, ReceiptData{})
	assert.ErrorIs(t, err, context.Canceled)
}
