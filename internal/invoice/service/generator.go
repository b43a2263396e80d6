package service

import (
	"context"
	"fmt"

	"github.com/askroshan/india-angel-forge-sub003/internal/clock"
	docgendomain "github.com/askroshan/india-angel-forge-sub003/internal/docgen/domain"
	"github.com/askroshan/india-angel-forge-sub003/internal/docnum"
	"github.com/askroshan/india-angel-forge-sub003/internal/invoice/domain"
	notifdomain "github.com/askroshan/india-angel-forge-sub003/internal/notification/domain"
	paymentdomain "github.com/askroshan/india-angel-forge-sub003/internal/payment/domain"
	"github.com/askroshan/india-angel-forge-sub003/internal/providers/pdf"
	"github.com/askroshan/india-angel-forge-sub003/internal/providers/storage"
	"github.com/askroshan/india-angel-forge-sub003/internal/tax"
	userdomain "github.com/askroshan/india-angel-forge-sub003/internal/user/domain"
	"github.com/askroshan/india-angel-forge-sub003/pkg/money"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	sellerName    = "India Angel Forge"
	sellerAddress = "Bengaluru, Karnataka, India"
	sellerEmail   = "billing@angelforge.in"
)

type GeneratorParams struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	Payments  paymentdomain.Repository
	Users     userdomain.Repository
	Tax       tax.Calculator
	Renderer  *pdf.Renderer
	Storage   storage.Provider
	Publisher notifdomain.Publisher
}

// Generator renders the invoice PDF for a completed payment. Runs as the
// INVOICE job kind; every step is idempotent so retries resume cleanly.
type Generator struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	payments  paymentdomain.Repository
	users     userdomain.Repository
	tax       tax.Calculator
	renderer  *pdf.Renderer
	storage   storage.Provider
	publisher notifdomain.Publisher
}

func NewGenerator(p GeneratorParams) *Generator {
	return &Generator{
		db:        p.DB,
		log:       p.Log.Named("invoice.generator"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		payments:  p.Payments,
		users:     p.Users,
		tax:       p.Tax,
		renderer:  p.Renderer,
		storage:   p.Storage,
		publisher: p.Publisher,
	}
}

func (g *Generator) Kind() docgendomain.JobKind { return docgendomain.JobKindInvoice }

func (g *Generator) Generate(ctx context.Context, job *docgendomain.GenerationJob) error {
	paymentID := job.SubjectID

	payment, err := g.payments.FindByID(ctx, g.db, paymentID, false)
	if err != nil {
		return err
	}
	if payment == nil {
		return fmt.Errorf("payment %s: %w", paymentID, paymentdomain.ErrPaymentNotFound)
	}
	if payment.Status != paymentdomain.PaymentStatusCompleted && payment.Status != paymentdomain.PaymentStatusRefunded {
		return fmt.Errorf("payment %s not completed: %s", paymentID, payment.Status)
	}

	user, err := g.users.FindByID(ctx, payment.UserID)
	if err != nil {
		return err
	}

	invoice, err := g.repo.FindByPaymentID(ctx, g.db, paymentID)
	if err != nil {
		return err
	}
	if invoice != nil && invoice.DocumentURL != "" {
		// A previous attempt finished after its job row was lost.
		return nil
	}

	if invoice == nil {
		invoice, err = g.issue(ctx, payment)
		if err != nil {
			return err
		}
	}

	url, err := g.render(ctx, invoice, payment, user)
	if err != nil {
		return err
	}
	if err := g.repo.UpdateDocumentURL(ctx, g.db, invoice.ID, url); err != nil {
		return err
	}
	invoice.DocumentURL = url

	g.publisher.Publish(ctx, notifdomain.Event{
		Template:    notifdomain.TemplateInvoiceReady,
		UserID:      payment.UserID,
		PaymentID:   payment.ID,
		Amount:      payment.Amount,
		Currency:    payment.Currency,
		Description: payment.Description,
		Reference:   invoice.Number,
		DocumentURL: url,
		OccurredAt:  g.clock.Now(),
	})

	g.log.Info("invoice issued",
		zap.String("number", invoice.Number),
		zap.String("payment_id", payment.ID.String()),
	)
	return nil
}

// issue allocates the number and inserts the invoice row in one transaction.
// The document URL is bound afterwards; an empty URL marks an unfinished
// render that the next attempt completes.
func (g *Generator) issue(ctx context.Context, payment *paymentdomain.Payment) (*domain.Invoice, error) {
	now := g.clock.Now()
	taxLines := g.tax.Calculate(payment.Amount)

	var invoice *domain.Invoice
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := docnum.Next(ctx, tx, docnum.KindInvoice, now)
		if err != nil {
			return err
		}
		// The payment is settled before generation runs, so the invoice
		// is issued already paid.
		invoice = &domain.Invoice{
			ID:        g.genID.Generate(),
			Number:    number,
			UserID:    payment.UserID,
			PaymentID: payment.ID,
			Status:    domain.InvoiceStatusPaid,
			Amount:    payment.Amount,
			TaxAmount: tax.Total(taxLines),
			Currency:  payment.Currency,
			IssuedAt:  now,
		}
		return g.repo.Insert(ctx, tx, invoice)
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

func (g *Generator) render(ctx context.Context, invoice *domain.Invoice, payment *paymentdomain.Payment, user *userdomain.User) (string, error) {
	taxLines := g.tax.Calculate(payment.Amount)
	pdfTaxLines := make([]pdf.TaxLine, 0, len(taxLines))
	for _, line := range taxLines {
		pdfTaxLines = append(pdfTaxLines, pdf.TaxLine{
			Label:  line.Label,
			Amount: money.Format(line.Amount, payment.Currency),
		})
	}

	reference := ""
	if payment.GatewayPaymentID != nil {
		reference = *payment.GatewayPaymentID
	}
	description := payment.Description
	if description == "" {
		description = string(payment.Purpose)
	}

	doc := pdf.InvoiceDocument{
		Number:        invoice.Number,
		IssueDate:     invoice.IssuedAt.Format("02 Jan 2006"),
		SellerName:    sellerName,
		SellerAddress: sellerAddress,
		SellerEmail:   sellerEmail,
		BuyerName:     user.FullName,
		BuyerEmail:    user.Email,
		Description:   description,
		Reference:     reference,
		Subtotal:      money.Format(invoice.Amount, invoice.Currency),
		TaxLines:      pdfTaxLines,
		Total:         money.Format(invoice.Amount+invoice.TaxAmount, invoice.Currency),
	}

	rendered, err := g.renderer.RenderInvoice(ctx, doc)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("invoices/%s.pdf", invoice.Number)
	return g.storage.Put(ctx, key, rendered, "application/pdf")
}
