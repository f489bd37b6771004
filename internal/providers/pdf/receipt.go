package pdf

import (
	"context"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type ReceiptItem struct {
	Name        string
	Description string
	Amount      string
}

type ReceiptData struct {
	SenderName   string
	SupportEmail string
	FormTitle    string
	PaymentID    string
	DatePaid     string
	PayerEmail   string
	Total        string
	FooterNote   string
	Items        []ReceiptItem
}

func (p *PDFProvider) GenerateReceipt(ctx context.Context, receipt ReceiptData) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(6, "Receipt", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(6, receipt.SenderName, props.Text{
			Size:  12,
			Style: fontstyle.Bold,
			Align: align.Right,
		}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Payment ID: "+receipt.PaymentID, props.Text{Top: 0}),
			text.New("Date paid: "+receipt.DatePaid, props.Text{Top: 4}),
			text.New("Form: "+receipt.FormTitle, props.Text{Top: 8}),
		),
		col.New(6).Add(
			text.New("Paid by", props.Text{Style: fontstyle.Bold, Align: align.Right}),
			text.New(receipt.PayerEmail, props.Text{Top: 5, Align: align.Right}),
		),
	)

	m.AddRow(15,
		text.NewCol(12, receipt.Total+" paid on "+receipt.DatePaid, props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Top:   5,
		}),
	)

	m.AddRow(10,
		text.NewCol(4, "Item", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	for _, item := range receipt.Items {
		m.AddRow(12,
			text.NewCol(4, item.Name, props.Text{Size: 9}),
			text.NewCol(6, item.Description, props.Text{Size: 9}),
			text.NewCol(2, item.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Size: 9, Style: fontstyle.Bold}),
		text.NewCol(2, receipt.Total, props.Text{Size: 9, Align: align.Right}),
	)

	if receipt.FooterNote != "" || receipt.SupportEmail != "" {
		footer := receipt.FooterNote
		if receipt.SupportEmail != "" {
			footer += " Questions? " + receipt.SupportEmail
		}
		m.AddRow(15,
			text.NewCol(12, footer, props.Text{Size: 8, Top: 5}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}
