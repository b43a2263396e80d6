package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/askroshan/india-angel-forge-sub003/internal/clock"
	docgendomain "github.com/askroshan/india-angel-forge-sub003/internal/docgen/domain"
	notifdomain "github.com/askroshan/india-angel-forge-sub003/internal/notification/domain"
	paymentdomain "github.com/askroshan/india-angel-forge-sub003/internal/payment/domain"
	"github.com/askroshan/india-angel-forge-sub003/internal/providers/pdf"
	"github.com/askroshan/india-angel-forge-sub003/internal/providers/storage"
	"github.com/askroshan/india-angel-forge-sub003/internal/statement/domain"
	"github.com/askroshan/india-angel-forge-sub003/internal/tax"
	userdomain "github.com/askroshan/india-angel-forge-sub003/internal/user/domain"
	"github.com/askroshan/india-angel-forge-sub003/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type GeneratorParams struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	Repo      domain.Repository
	Users     userdomain.Repository
	Tax       tax.Calculator
	Renderer  *pdf.Renderer
	Storage   storage.Provider
	Publisher notifdomain.Publisher
}

// Generator computes period totals and renders the statement PDF. Runs as
// the STATEMENT job kind; the subject is the financial_statements row.
type Generator struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	repo      domain.Repository
	users     userdomain.Repository
	tax       tax.Calculator
	renderer  *pdf.Renderer
	storage   storage.Provider
	publisher notifdomain.Publisher
}

func NewGenerator(p GeneratorParams) *Generator {
	return &Generator{
		db:        p.DB,
		log:       p.Log.Named("statement.generator"),
		clock:     p.Clock,
		repo:      p.Repo,
		users:     p.Users,
		tax:       p.Tax,
		renderer:  p.Renderer,
		storage:   p.Storage,
		publisher: p.Publisher,
	}
}

func (g *Generator) Kind() docgendomain.JobKind { return docgendomain.JobKindStatement }

func (g *Generator) Generate(ctx context.Context, job *docgendomain.GenerationJob) error {
	statement, err := g.repo.FindByID(ctx, g.db, job.SubjectID)
	if err != nil {
		return err
	}
	if statement == nil {
		return fmt.Errorf("statement %s: %w", job.SubjectID, domain.ErrStatementNotFound)
	}
	if statement.DocumentURL != "" {
		return nil
	}

	user, err := g.users.FindByID(ctx, statement.UserID)
	if err != nil {
		return err
	}

	payments, err := g.periodPayments(ctx, statement)
	if err != nil {
		return err
	}

	currency := "INR"
	var invested, refunded int64
	for _, p := range payments {
		currency = p.Currency
		invested += p.Amount
		if p.Status == paymentdomain.PaymentStatusRefunded && p.RefundAmount != nil {
			refunded += *p.RefundAmount
		}
	}
	taxLines := g.tax.Calculate(invested - refunded)
	taxTotal := tax.Total(taxLines)

	statement.Currency = currency
	statement.TotalInvested = invested
	statement.TotalRefunded = refunded
	statement.TotalTax = taxTotal
	statement.NetInvestment = invested - refunded - taxTotal
	statement.GeneratedAt = g.clock.Now()

	url, err := g.render(ctx, statement, user, payments, taxLines)
	if err != nil {
		return err
	}
	statement.DocumentURL = url

	if err := g.repo.UpdateResult(ctx, g.db, statement); err != nil {
		return err
	}

	recipients := decodeRecipients([]byte(job.Payload))

	g.publisher.Publish(ctx, notifdomain.Event{
		Template:             notifdomain.TemplateStatementReady,
		UserID:               statement.UserID,
		Amount:               statement.NetInvestment,
		Currency:             statement.Currency,
		Description:          periodLabel(statement),
		Reference:            statement.Number,
		DocumentURL:          url,
		AdditionalRecipients: recipients,
		OccurredAt:           g.clock.Now(),
	})

	g.log.Info("statement generated",
		zap.String("number", statement.Number),
		zap.Int64("net_investment", statement.NetInvestment),
	)
	return nil
}

// periodPayments reads settled payments for the statement window. REFUNDED
// rows stay in scope so refunds net out of the totals.
func (g *Generator) periodPayments(ctx context.Context, statement *domain.FinancialStatement) ([]paymentdomain.Payment, error) {
	var payments []paymentdomain.Payment
	err := g.db.WithContext(ctx).Raw(
		`SELECT id, user_id, amount, currency, purpose, gateway,
		        gateway_order_id, gateway_payment_id, status, description,
		        refund_amount, refund_reason, created_at, completed_at, refunded_at
		 FROM payments
		 WHERE user_id = ? AND status IN (?, ?) AND created_at >= ? AND created_at <= ?
		 ORDER BY created_at ASC`,
		statement.UserID,
		paymentdomain.PaymentStatusCompleted,
		paymentdomain.PaymentStatusRefunded,
		statement.PeriodFrom,
		statement.PeriodTo,
	).Scan(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (g *Generator) render(ctx context.Context, statement *domain.FinancialStatement, user *userdomain.User, payments []paymentdomain.Payment, taxLines []tax.Line) (string, error) {
	rows := make([]pdf.StatementRow, 0, len(payments))
	currency := statement.Currency
	for _, p := range payments {
		reference := ""
		if p.GatewayPaymentID != nil {
			reference = *p.GatewayPaymentID
		}
		date := p.CreatedAt
		if p.CompletedAt != nil {
			date = *p.CompletedAt
		}
		description := p.Description
		if description == "" {
			description = string(p.Purpose)
		}
		rows = append(rows, pdf.StatementRow{
			Date:        date.Format("02 Jan 2006"),
			Description: description,
			Reference:   reference,
			Amount:      money.Format(p.Amount, p.Currency),
			Status:      string(p.Status),
		})
	}

	pdfTaxLines := make([]pdf.TaxLine, 0, len(taxLines))
	for _, line := range taxLines {
		pdfTaxLines = append(pdfTaxLines, pdf.TaxLine{
			Label:  line.Label,
			Amount: money.Format(line.Amount, currency),
		})
	}

	doc := pdf.StatementDocument{
		Number:        statement.Number,
		PeriodFrom:    statement.PeriodFrom.Format("02 Jan 2006"),
		PeriodTo:      statement.PeriodTo.Format("02 Jan 2006"),
		InvestorName:  user.FullName,
		InvestorEmail: user.Email,
		Detailed:      statement.Format == domain.FormatDetailed,
		Rows:          rows,
		TotalGross:    money.Format(statement.TotalInvested, currency),
		TaxLines:      pdfTaxLines,
		TotalNet:      money.Format(statement.NetInvestment, currency),
	}

	rendered, err := g.renderer.RenderStatement(ctx, doc)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("statements/%s.pdf", statement.Number)
	return g.storage.Put(ctx, key, rendered, "application/pdf")
}

func periodLabel(statement *domain.FinancialStatement) string {
	return fmt.Sprintf("Statement %s to %s",
		statement.PeriodFrom.Format("02 Jan 2006"),
		statement.PeriodTo.Format("02 Jan 2006"),
	)
}

func decodeRecipients(raw []byte) []string {
	var payload docgendomain.StatementRequest
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}
	return payload.EmailTo
}
