package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/askroshan/india-angel-forge-sub003/internal/clock"
	"github.com/askroshan/india-angel-forge-sub003/internal/config"
	docgendomain "github.com/askroshan/india-angel-forge-sub003/internal/docgen/domain"
	notifdomain "github.com/askroshan/india-angel-forge-sub003/internal/notification/domain"
	"github.com/askroshan/india-angel-forge-sub003/internal/payment/adapters"
	paymentdomain "github.com/askroshan/india-angel-forge-sub003/internal/payment/domain"
	"github.com/askroshan/india-angel-forge-sub003/internal/payment/repository"
)

type fakeAdapter struct {
	orderID  string
	orderErr error
}

func (a *fakeAdapter) Gateway() string { return "testpay" }

func (a *fakeAdapter) CreateOrder(ctx context.Context, params paymentdomain.OrderParams) (string, error) {
	if a.orderErr != nil {
		return "", a.orderErr
	}
	return a.orderID, nil
}

func (a *fakeAdapter) VerifySignature(orderID, paymentID, signature string) error {
	if signature != "valid" {
		return paymentdomain.ErrInvalidSignature
	}
	return nil
}

type fakeEnqueuer struct {
	mu   sync.Mutex
	jobs []docgendomain.JobKind
}

func (e *fakeEnqueuer) Enqueue(ctx context.Context, kind docgendomain.JobKind, subjectID snowflake.ID, payload any) (*docgendomain.GenerationJob, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.jobs = append(e.jobs, kind)
	return &docgendomain.GenerationJob{Kind: kind, SubjectID: subjectID}, nil
}

func (e *fakeEnqueuer) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.jobs)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []notifdomain.Event
}

func (p *fakePublisher) Publish(ctx context.Context, event notifdomain.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *fakePublisher) templates() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.events))
	for _, event := range p.events {
		names = append(names, event.Template)
	}
	return names
}

type fixture struct {
	svc       paymentdomain.Service
	db        *gorm.DB
	clock     *clock.FakeClock
	adapter   *fakeAdapter
	enqueuer  *fakeEnqueuer
	publisher *fakePublisher
	userID    snowflake.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&paymentdomain.Payment{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	fc := clock.NewFakeClock(time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC))
	adapter := &fakeAdapter{orderID: "order_test_1"}
	enqueuer := &fakeEnqueuer{}
	publisher := &fakePublisher{}

	svc := NewService(Params{
		DB:        db,
		Log:       zap.NewNop(),
		Cfg:       config.Config{GatewayTimeout: time.Second},
		GenID:     node,
		Clock:     fc,
		Repo:      repository.Provide(),
		Adapters:  adapters.NewRegistry(adapter),
		Enqueuer:  enqueuer,
		Publisher: publisher,
	})

	return &fixture{
		svc:       svc,
		db:        db,
		clock:     fc,
		adapter:   adapter,
		enqueuer:  enqueuer,
		publisher: publisher,
		userID:    node.Generate(),
	}
}

func (f *fixture) createOrder(t *testing.T, amount int64) paymentdomain.CreateOrderResponse {
	t.Helper()
	resp, err := f.svc.CreateOrder(context.Background(), paymentdomain.CreateOrderRequest{
		UserID:   f.userID,
		Amount:   amount,
		Currency: "INR",
		Purpose:  paymentdomain.PurposeDealCommitment,
		Gateway:  "testpay",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return resp
}

func TestCreateOrderPersistsPending(t *testing.T) {
	f := newFixture(t)

	resp := f.createOrder(t, 30000000)
	assert.Equal(t, "order_test_1", resp.OrderID)

	payment, err := f.svc.GetByID(context.Background(), resp.PaymentID)
	if err != nil {
		t.Fatalf("get payment: %v", err)
	}
	assert.Equal(t, paymentdomain.PaymentStatusPending, payment.Status)
	assert.Equal(t, int64(30000000), payment.Amount)
	assert.Equal(t, "INR", payment.Currency)
	assert.Equal(t, "testpay", payment.Gateway)
	assert.Nil(t, payment.CompletedAt)

	assert.Equal(t, []string{notifdomain.TemplatePaymentInitiated}, f.publisher.templates())
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateOrder(ctx, paymentdomain.CreateOrderRequest{
		UserID: f.userID, Amount: 0, Currency: "INR",
		Purpose: paymentdomain.PurposeOther, Gateway: "testpay",
	})
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidAmount)

	_, err = f.svc.CreateOrder(ctx, paymentdomain.CreateOrderRequest{
		UserID: f.userID, Amount: 25000, Currency: "GBP",
		Purpose: paymentdomain.PurposeOther, Gateway: "testpay",
	})
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidCurrency)

	_, err = f.svc.CreateOrder(ctx, paymentdomain.CreateOrderRequest{
		UserID: f.userID, Amount: 25000, Currency: "INR",
		Purpose: "DONATION", Gateway: "testpay",
	})
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidPurpose)

	_, err = f.svc.CreateOrder(ctx, paymentdomain.CreateOrderRequest{
		UserID: f.userID, Amount: 25000, Currency: "INR",
		Purpose: paymentdomain.PurposeOther, Gateway: "stripe",
	})
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidGateway)

	// Nothing persisted and nothing published for rejected requests.
	var count int64
	f.db.Model(&paymentdomain.Payment{}).Count(&count)
	assert.Equal(t, int64(0), count)
	assert.Empty(t, f.publisher.templates())
}

func TestCreateOrderGatewayFailure(t *testing.T) {
	f := newFixture(t)
	f.adapter.orderErr = paymentdomain.ErrGatewayUnavailable

	_, err := f.svc.CreateOrder(context.Background(), paymentdomain.CreateOrderRequest{
		UserID: f.userID, Amount: 25000, Currency: "inr",
		Purpose: paymentdomain.PurposeMembershipFee, Gateway: "testpay",
	})
	assert.ErrorIs(t, err, paymentdomain.ErrGatewayUnavailable)

	var count int64
	f.db.Model(&paymentdomain.Payment{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestVerifyCompletesPayment(t *testing.T) {
	f := newFixture(t)
	resp := f.createOrder(t, 30000000)

	payment, err := f.svc.Verify(context.Background(), paymentdomain.VerifyRequest{
		OrderID: resp.OrderID, PaymentID: "pay_gw_1", Signature: "valid", Gateway: "testpay",
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	assert.Equal(t, paymentdomain.PaymentStatusCompleted, payment.Status)
	if payment.CompletedAt == nil {
		t.Fatal("completed_at not set")
	}
	assert.Equal(t, "pay_gw_1", *payment.GatewayPaymentID)

	assert.Equal(t, 1, f.enqueuer.count())
	assert.Equal(t, []string{
		notifdomain.TemplatePaymentInitiated,
		notifdomain.TemplatePaymentSuccess,
	}, f.publisher.templates())
}

func TestVerifyIsIdempotentOnRedelivery(t *testing.T) {
	f := newFixture(t)
	resp := f.createOrder(t, 30000000)

	req := paymentdomain.VerifyRequest{
		OrderID: resp.OrderID, PaymentID: "pay_gw_1", Signature: "valid", Gateway: "testpay",
	}
	if _, err := f.svc.Verify(context.Background(), req); err != nil {
		t.Fatalf("first verify: %v", err)
	}

	payment, err := f.svc.Verify(context.Background(), req)
	if err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	assert.Equal(t, paymentdomain.PaymentStatusCompleted, payment.Status)

	// No second invoice job, no second success email.
	assert.Equal(t, 1, f.enqueuer.count())
	assert.Equal(t, []string{
		notifdomain.TemplatePaymentInitiated,
		notifdomain.TemplatePaymentSuccess,
	}, f.publisher.templates())
}

func TestVerifyConflictingConfirmation(t *testing.T) {
	f := newFixture(t)
	resp := f.createOrder(t, 30000000)

	if _, err := f.svc.Verify(context.Background(), paymentdomain.VerifyRequest{
		OrderID: resp.OrderID, PaymentID: "pay_gw_1", Signature: "valid", Gateway: "testpay",
	}); err != nil {
		t.Fatalf("first verify: %v", err)
	}

	// Same order, different gateway payment id: not a re-delivery.
	_, err := f.svc.Verify(context.Background(), paymentdomain.VerifyRequest{
		OrderID: resp.OrderID, PaymentID: "pay_gw_2", Signature: "valid", Gateway: "testpay",
	})
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidTransition)
}

func TestVerifyBadSignatureFailsPayment(t *testing.T) {
	f := newFixture(t)
	resp := f.createOrder(t, 30000000)

	payment, err := f.svc.Verify(context.Background(), paymentdomain.VerifyRequest{
		OrderID: resp.OrderID, PaymentID: "pay_gw_1", Signature: "forged", Gateway: "testpay",
	})
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidSignature)
	assert.Equal(t, paymentdomain.PaymentStatusFailed, payment.Status)

	stored, err := f.svc.GetByID(context.Background(), resp.PaymentID)
	if err != nil {
		t.Fatalf("get payment: %v", err)
	}
	assert.Equal(t, paymentdomain.PaymentStatusFailed, stored.Status)

	// FAILED is terminal; a later valid confirmation is rejected.
	_, err = f.svc.Verify(context.Background(), paymentdomain.VerifyRequest{
		OrderID: resp.OrderID, PaymentID: "pay_gw_1", Signature: "valid", Gateway: "testpay",
	})
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidTransition)

	assert.Equal(t, 0, f.enqueuer.count())
	assert.Equal(t, []string{
		notifdomain.TemplatePaymentInitiated,
		notifdomain.TemplatePaymentFailed,
	}, f.publisher.templates())
}

func TestVerifyUnknownOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Verify(context.Background(), paymentdomain.VerifyRequest{
		OrderID: "order_missing", PaymentID: "pay_gw_1", Signature: "valid", Gateway: "testpay",
	})
	assert.ErrorIs(t, err, paymentdomain.ErrOrderNotFound)
}

func TestRefundPartialAmount(t *testing.T) {
	f := newFixture(t)
	resp := f.createOrder(t, 30000000)
	if _, err := f.svc.Verify(context.Background(), paymentdomain.VerifyRequest{
		OrderID: resp.OrderID, PaymentID: "pay_gw_1", Signature: "valid", Gateway: "testpay",
	}); err != nil {
		t.Fatalf("verify: %v", err)
	}

	refunded, err := f.svc.Refund(context.Background(), paymentdomain.RefundRequest{
		PaymentID: resp.PaymentID, Amount: 7000000, Reason: "Deal fell through",
	})
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	assert.Equal(t, paymentdomain.PaymentStatusRefunded, refunded.Status)
	assert.Equal(t, int64(7000000), *refunded.RefundAmount)
	assert.Equal(t, "Deal fell through", *refunded.RefundReason)
	if refunded.RefundedAt == nil {
		t.Fatal("refunded_at not set")
	}

	names := f.publisher.templates()
	assert.Equal(t, notifdomain.TemplateRefundProcessed, names[len(names)-1])
}

func TestRefundRules(t *testing.T) {
	f := newFixture(t)
	resp := f.createOrder(t, 30000000)

	// PENDING payments cannot be refunded.
	_, err := f.svc.Refund(context.Background(), paymentdomain.RefundRequest{
		PaymentID: resp.PaymentID, Amount: 25000,
	})
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidTransition)

	if _, err := f.svc.Verify(context.Background(), paymentdomain.VerifyRequest{
		OrderID: resp.OrderID, PaymentID: "pay_gw_1", Signature: "valid", Gateway: "testpay",
	}); err != nil {
		t.Fatalf("verify: %v", err)
	}

	_, err = f.svc.Refund(context.Background(), paymentdomain.RefundRequest{
		PaymentID: resp.PaymentID, Amount: 30000001,
	})
	assert.ErrorIs(t, err, paymentdomain.ErrRefundExceedsAmount)

	_, err = f.svc.Refund(context.Background(), paymentdomain.RefundRequest{
		PaymentID: resp.PaymentID, Amount: 0,
	})
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidAmount)

	_, err = f.svc.Refund(context.Background(), paymentdomain.RefundRequest{
		PaymentID: snowflake.ID(424242), Amount: 25000,
	})
	assert.ErrorIs(t, err, paymentdomain.ErrPaymentNotFound)

	// A second refund of an already refunded payment is rejected.
	if _, err := f.svc.Refund(context.Background(), paymentdomain.RefundRequest{
		PaymentID: resp.PaymentID, Amount: 25000,
	}); err != nil {
		t.Fatalf("refund: %v", err)
	}
	_, err = f.svc.Refund(context.Background(), paymentdomain.RefundRequest{
		PaymentID: resp.PaymentID, Amount: 25000,
	})
	if !errors.Is(err, paymentdomain.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestListFiltersByStatusAndUser(t *testing.T) {
	f := newFixture(t)
	first := f.createOrder(t, 25000)
	f.adapter.orderID = "order_test_2"
	f.createOrder(t, 7000000)

	if _, err := f.svc.Verify(context.Background(), paymentdomain.VerifyRequest{
		OrderID: first.OrderID, PaymentID: "pay_gw_1", Signature: "valid", Gateway: "testpay",
	}); err != nil {
		t.Fatalf("verify: %v", err)
	}

	completed, err := f.svc.List(context.Background(), paymentdomain.ListPaymentsRequest{
		UserID: f.userID, Status: paymentdomain.PaymentStatusCompleted,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(completed) != 1 {
		t.Fatalf("expected 1 completed payment, got %d", len(completed))
	}
	assert.Equal(t, first.PaymentID, completed[0].ID)

	all, err := f.svc.List(context.Background(), paymentdomain.ListPaymentsRequest{UserID: f.userID})
	assert.NoError(t, err)
	assert.Len(t, all, 2)

	other, err := f.svc.List(context.Background(), paymentdomain.ListPaymentsRequest{UserID: snowflake.ID(999)})
	assert.NoError(t, err)
	assert.Empty(t, other)
}
