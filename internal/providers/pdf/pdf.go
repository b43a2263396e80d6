// Package pdf renders invoices and financial statements. All money fields
// arrive pre-formatted; rendering never does arithmetic.
package pdf

import (
	"context"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type TaxLine struct {
	Label  string
	Amount string
}

type InvoiceDocument struct {
	Number    string
	IssueDate string

	SellerName    string
	SellerAddress string
	SellerEmail   string

	BuyerName  string
	BuyerEmail string

	Description string
	Reference   string

	Subtotal string
	TaxLines []TaxLine
	Total    string
}

type StatementRow struct {
	Date        string
	Description string
	Reference   string
	Amount      string
	Status      string
}

type StatementDocument struct {
	Number        string
	PeriodFrom    string
	PeriodTo      string
	InvestorName  string
	InvestorEmail string
	Detailed      bool

	Rows []StatementRow

	TotalGross string
	TaxLines   []TaxLine
	TotalNet   string
}

type Renderer struct{}

func NewRenderer() *Renderer { return &Renderer{} }

func newDocument() core.Maroto {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()
	return maroto.New(cfg)
}

func (r *Renderer) RenderInvoice(ctx context.Context, doc InvoiceDocument) ([]byte, error) {
	m := newDocument()

	m.AddRow(12,
		text.NewCol(12, "Tax Invoice", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(16,
		col.New(6).Add(
			text.New("Invoice number: "+doc.Number, props.Text{Top: 0}),
			text.New("Date of issue: "+doc.IssueDate, props.Text{Top: 5}),
			text.New("Reference: "+doc.Reference, props.Text{Top: 10}),
		),
		col.New(6),
	)

	m.AddRow(32,
		col.New(6).Add(
			text.New(doc.SellerName, props.Text{Style: fontstyle.Bold}),
			text.New(doc.SellerAddress, props.Text{Top: 5}),
			text.New(doc.SellerEmail, props.Text{Top: 15}),
		),
		col.New(6).Add(
			text.New("Billed to", props.Text{Style: fontstyle.Bold}),
			text.New(doc.BuyerName, props.Text{Top: 5}),
			text.New(doc.BuyerEmail, props.Text{Top: 10}),
		),
	)

	m.AddRow(10,
		text.NewCol(9, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(12,
		text.NewCol(9, doc.Description, props.Text{Size: 9}),
		text.NewCol(3, doc.Subtotal, props.Text{Size: 9, Align: align.Right}),
	)

	m.AddRow(8,
		col.New(7),
		text.NewCol(3, "Subtotal", props.Text{Size: 9}),
		text.NewCol(2, doc.Subtotal, props.Text{Size: 9, Align: align.Right}),
	)
	for _, line := range doc.TaxLines {
		m.AddRow(8,
			col.New(7),
			text.NewCol(3, line.Label, props.Text{Size: 9}),
			text.NewCol(2, line.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(10,
		col.New(7),
		text.NewCol(3, "Total", props.Text{Style: fontstyle.Bold, Size: 10}),
		text.NewCol(2, doc.Total, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
	)

	rendered, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return rendered.GetBytes(), nil
}

func (r *Renderer) RenderStatement(ctx context.Context, doc StatementDocument) ([]byte, error) {
	m := newDocument()

	m.AddRow(12,
		text.NewCol(12, "Financial Statement", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Statement number: "+doc.Number, props.Text{Top: 0}),
			text.New("Period: "+doc.PeriodFrom+" to "+doc.PeriodTo, props.Text{Top: 5}),
		),
		col.New(6).Add(
			text.New(doc.InvestorName, props.Text{Style: fontstyle.Bold}),
			text.New(doc.InvestorEmail, props.Text{Top: 5}),
		),
	)

	if doc.Detailed {
		m.AddRow(10,
			text.NewCol(2, "Date", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.NewCol(4, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.NewCol(3, "Reference", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
			text.NewCol(1, "Status", props.Text{Style: fontstyle.Bold, Size: 9}),
		)
		for _, row := range doc.Rows {
			m.AddRow(8,
				text.NewCol(2, row.Date, props.Text{Size: 8}),
				text.NewCol(4, row.Description, props.Text{Size: 8}),
				text.NewCol(3, row.Reference, props.Text{Size: 8}),
				text.NewCol(2, row.Amount, props.Text{Size: 8, Align: align.Right}),
				text.NewCol(1, row.Status, props.Text{Size: 8}),
			)
		}
	}

	m.AddRow(10,
		col.New(7),
		text.NewCol(3, "Gross total", props.Text{Size: 9}),
		text.NewCol(2, doc.TotalGross, props.Text{Size: 9, Align: align.Right}),
	)
	for _, line := range doc.TaxLines {
		m.AddRow(8,
			col.New(7),
			text.NewCol(3, line.Label, props.Text{Size: 9}),
			text.NewCol(2, line.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(10,
		col.New(7),
		text.NewCol(3, "Net total", props.Text{Style: fontstyle.Bold, Size: 10}),
		text.NewCol(2, doc.TotalNet, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
	)

	rendered, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return rendered.GetBytes(), nil
}
