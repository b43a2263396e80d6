package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/askroshan/india-angel-forge-sub003/internal/clock"
	docgendomain "github.com/askroshan/india-angel-forge-sub003/internal/docgen/domain"
	notifdomain "github.com/askroshan/india-angel-forge-sub003/internal/notification/domain"
	paymentdomain "github.com/askroshan/india-angel-forge-sub003/internal/payment/domain"
	"github.com/askroshan/india-angel-forge-sub003/internal/providers/pdf"
	"github.com/askroshan/india-angel-forge-sub003/internal/statement/domain"
	statementrepo "github.com/askroshan/india-angel-forge-sub003/internal/statement/repository"
	"github.com/askroshan/india-angel-forge-sub003/internal/tax"
	userdomain "github.com/askroshan/india-angel-forge-sub003/internal/user/domain"
)

type fakeUserRepo struct {
	users map[snowflake.ID]*userdomain.User
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id snowflake.ID) (*userdomain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, userdomain.ErrUserNotFound
	}
	return user, nil
}

type fakeEnqueuer struct {
	kinds    []docgendomain.JobKind
	subjects []snowflake.ID
	payloads []any
}

func (e *fakeEnqueuer) Enqueue(ctx context.Context, kind docgendomain.JobKind, subjectID snowflake.ID, payload any) (*docgendomain.GenerationJob, error) {
	e.kinds = append(e.kinds, kind)
	e.subjects = append(e.subjects, subjectID)
	e.payloads = append(e.payloads, payload)
	return &docgendomain.GenerationJob{Kind: kind, SubjectID: subjectID}, nil
}

type memoryStorage struct {
	objects map[string][]byte
}

func (s *memoryStorage) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if s.objects == nil {
		s.objects = map[string][]byte{}
	}
	s.objects[key] = data
	return "/documents/" + key, nil
}

type recordingPublisher struct {
	events []notifdomain.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event notifdomain.Event) {
	p.events = append(p.events, event)
}

type fixture struct {
	svc       domain.Service
	gen       *Generator
	db        *gorm.DB
	node      *snowflake.Node
	enqueuer  *fakeEnqueuer
	publisher *recordingPublisher
	user      *userdomain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&paymentdomain.Payment{}, &domain.FinancialStatement{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.Exec(`CREATE TABLE document_sequences (
		kind TEXT NOT NULL,
		period TEXT NOT NULL,
		last_value INTEGER NOT NULL,
		PRIMARY KEY (kind, period)
	)`).Error; err != nil {
		t.Fatalf("create sequences table: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	fc := clock.NewFakeClock(time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC))

	user := &userdomain.User{ID: node.Generate(), Email: "anita@example.in", FullName: "Anita Rao"}
	userRepo := &fakeUserRepo{users: map[snowflake.ID]*userdomain.User{user.ID: user}}
	enqueuer := &fakeEnqueuer{}
	publisher := &recordingPublisher{}
	repo := statementrepo.Provide()

	svc := New(Params{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     fc,
		Repo:      repo,
		Users:     userRepo,
		Enqueuer:  enqueuer,
		Publisher: publisher,
	})
	gen := NewGenerator(GeneratorParams{
		DB:        db,
		Log:       zap.NewNop(),
		Clock:     fc,
		Repo:      repo,
		Users:     userRepo,
		Tax:       tax.NewDefault(),
		Renderer:  pdf.NewRenderer(),
		Storage:   &memoryStorage{},
		Publisher: publisher,
	})

	return &fixture{svc: svc, gen: gen, db: db, node: node, enqueuer: enqueuer, publisher: publisher, user: user}
}

func (f *fixture) insertPayment(t *testing.T, status paymentdomain.PaymentStatus, amount int64, refund *int64, createdAt time.Time) {
	t.Helper()
	payment := paymentdomain.Payment{
		ID:             f.node.Generate(),
		UserID:         f.user.ID,
		Amount:         amount,
		Currency:       "INR",
		Purpose:        paymentdomain.PurposeDealCommitment,
		Gateway:        "razorpay",
		GatewayOrderID: "order_" + f.node.Generate().String(),
		Status:         status,
		RefundAmount:   refund,
		CreatedAt:      createdAt,
	}
	if err := f.db.Create(&payment).Error; err != nil {
		t.Fatalf("insert payment: %v", err)
	}
}

var (
	periodFrom = time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	periodTo   = time.Date(2026, 7, 31, 23, 59, 59, 0, time.UTC)
)

func TestGenerateRequestValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Generate(ctx, domain.GenerateRequest{
		UserID: f.user.ID, From: periodTo, To: periodFrom,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)

	_, err = f.svc.Generate(ctx, domain.GenerateRequest{
		UserID: f.user.ID, From: periodFrom, To: periodTo, Format: "FULL",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidFormat)

	_, err = f.svc.Generate(ctx, domain.GenerateRequest{
		UserID: snowflake.ID(404), From: periodFrom, To: periodTo,
	})
	assert.ErrorIs(t, err, userdomain.ErrUserNotFound)
}

func TestGenerateRecordsAndEnqueues(t *testing.T) {
	f := newFixture(t)

	statement, err := f.svc.Generate(context.Background(), domain.GenerateRequest{
		UserID:  f.user.ID,
		From:    periodFrom,
		To:      periodTo,
		EmailTo: []string{"ca@taxfirm.in"},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	assert.Equal(t, "FS-2026-08-00001", statement.Number)
	// Defaulted format.
	assert.Equal(t, domain.FormatSummary, statement.Format)
	assert.Empty(t, statement.DocumentURL)

	if len(f.enqueuer.kinds) != 1 {
		t.Fatalf("expected 1 enqueued job, got %d", len(f.enqueuer.kinds))
	}
	assert.Equal(t, docgendomain.JobKindStatement, f.enqueuer.kinds[0])
	assert.Equal(t, statement.ID, f.enqueuer.subjects[0])

	payload, ok := f.enqueuer.payloads[0].(docgendomain.StatementRequest)
	if !ok {
		t.Fatalf("unexpected payload type %T", f.enqueuer.payloads[0])
	}
	assert.Equal(t, []string{"ca@taxfirm.in"}, payload.EmailTo)
}

func TestGeneratorComputesTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// ₹3,00,000 completed plus ₹1,00,000 completed-then-refunded for ₹70,000.
	f.insertPayment(t, paymentdomain.PaymentStatusCompleted, 30000000, nil, periodFrom.Add(24*time.Hour))
	refund := int64(7000000)
	f.insertPayment(t, paymentdomain.PaymentStatusRefunded, 10000000, &refund, periodFrom.Add(48*time.Hour))
	// Outside the window and non-settled rows stay out of the totals.
	f.insertPayment(t, paymentdomain.PaymentStatusCompleted, 5000000, nil, periodTo.Add(24*time.Hour))
	f.insertPayment(t, paymentdomain.PaymentStatusPending, 5000000, nil, periodFrom.Add(24*time.Hour))

	statement, err := f.svc.Generate(ctx, domain.GenerateRequest{
		UserID: f.user.ID, From: periodFrom, To: periodTo, Format: domain.FormatDetailed,
	})
	if err != nil {
		t.Fatalf("request statement: %v", err)
	}

	job := &docgendomain.GenerationJob{
		Kind:      docgendomain.JobKindStatement,
		SubjectID: statement.ID,
		Payload:   mustJSON(docgendomain.StatementRequest{UserID: f.user.ID}),
	}
	if err := f.gen.Generate(ctx, job); err != nil {
		t.Fatalf("generate: %v", err)
	}

	stored, err := f.svc.GetByID(ctx, statement.ID)
	if err != nil {
		t.Fatalf("get statement: %v", err)
	}
	assert.Equal(t, int64(40000000), stored.TotalInvested)
	assert.Equal(t, int64(7000000), stored.TotalRefunded)
	// 19% of the net invested 3,30,000.
	assert.Equal(t, int64(6270000), stored.TotalTax)
	assert.Equal(t, int64(26730000), stored.NetInvestment)
	assert.Equal(t, "/documents/statements/"+statement.Number+".pdf", stored.DocumentURL)

	if len(f.publisher.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(f.publisher.events))
	}
	assert.Equal(t, notifdomain.TemplateStatementReady, f.publisher.events[0].Template)
	assert.Equal(t, stored.NetInvestment, f.publisher.events[0].Amount)
}

func TestGeneratorUsesPaymentCurrency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	payment := paymentdomain.Payment{
		ID:             f.node.Generate(),
		UserID:         f.user.ID,
		Amount:         500000,
		Currency:       "USD",
		Purpose:        paymentdomain.PurposeDealCommitment,
		Gateway:        "razorpay",
		GatewayOrderID: "order_usd_1",
		Status:         paymentdomain.PaymentStatusCompleted,
		CreatedAt:      periodFrom.Add(24 * time.Hour),
	}
	if err := f.db.Create(&payment).Error; err != nil {
		t.Fatalf("insert payment: %v", err)
	}

	statement, err := f.svc.Generate(ctx, domain.GenerateRequest{
		UserID: f.user.ID, From: periodFrom, To: periodTo,
	})
	if err != nil {
		t.Fatalf("request statement: %v", err)
	}
	job := &docgendomain.GenerationJob{Kind: docgendomain.JobKindStatement, SubjectID: statement.ID}
	if err := f.gen.Generate(ctx, job); err != nil {
		t.Fatalf("generate: %v", err)
	}

	stored, err := f.svc.GetByID(ctx, statement.ID)
	if err != nil {
		t.Fatalf("get statement: %v", err)
	}
	assert.Equal(t, "USD", stored.Currency)
	assert.Equal(t, "USD", f.publisher.events[0].Currency)

	// The re-send carries the stored currency too.
	if _, err := f.svc.Email(ctx, statement.ID, domain.EmailRequest{To: []string{"ca@taxfirm.in"}}); err != nil {
		t.Fatalf("email: %v", err)
	}
	assert.Equal(t, "USD", f.publisher.events[1].Currency)
}

func TestGeneratorPassesRecipientsFromPayload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	statement, err := f.svc.Generate(ctx, domain.GenerateRequest{
		UserID: f.user.ID, From: periodFrom, To: periodTo,
		EmailTo: []string{"ca@taxfirm.in", "audit@taxfirm.in"},
	})
	if err != nil {
		t.Fatalf("request statement: %v", err)
	}

	raw, _ := json.Marshal(f.enqueuer.payloads[0])
	job := &docgendomain.GenerationJob{
		Kind:      docgendomain.JobKindStatement,
		SubjectID: statement.ID,
		Payload:   datatypes.JSON(raw),
	}
	if err := f.gen.Generate(ctx, job); err != nil {
		t.Fatalf("generate: %v", err)
	}

	assert.Equal(t, []string{"ca@taxfirm.in", "audit@taxfirm.in"}, f.publisher.events[0].AdditionalRecipients)
}

func TestGeneratorIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	statement, err := f.svc.Generate(ctx, domain.GenerateRequest{
		UserID: f.user.ID, From: periodFrom, To: periodTo,
	})
	if err != nil {
		t.Fatalf("request statement: %v", err)
	}

	job := &docgendomain.GenerationJob{Kind: docgendomain.JobKindStatement, SubjectID: statement.ID}
	if err := f.gen.Generate(ctx, job); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := f.gen.Generate(ctx, job); err != nil {
		t.Fatalf("second run: %v", err)
	}

	assert.Len(t, f.publisher.events, 1)
}

func TestEmailRenderedStatement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	statement, err := f.svc.Generate(ctx, domain.GenerateRequest{
		UserID: f.user.ID, From: periodFrom, To: periodTo,
		EmailTo: []string{"ca@taxfirm.in"},
	})
	if err != nil {
		t.Fatalf("request statement: %v", err)
	}
	job := &docgendomain.GenerationJob{Kind: docgendomain.JobKindStatement, SubjectID: statement.ID}
	if err := f.gen.Generate(ctx, job); err != nil {
		t.Fatalf("generate: %v", err)
	}

	resent, err := f.svc.Email(ctx, statement.ID, domain.EmailRequest{
		To:               []string{"ca@taxfirm.in"},
		AdditionalEmails: []string{"audit@taxfirm.in", " "},
	})
	if err != nil {
		t.Fatalf("email: %v", err)
	}

	// Generator event plus the re-send.
	if len(f.publisher.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(f.publisher.events))
	}
	resend := f.publisher.events[1]
	assert.Equal(t, notifdomain.TemplateStatementReady, resend.Template)
	assert.Equal(t, []string{"ca@taxfirm.in", "audit@taxfirm.in"}, resend.AdditionalRecipients)
	assert.NotEmpty(t, resend.DocumentURL)

	var emailed []string
	if err := json.Unmarshal(resent.EmailedTo, &emailed); err != nil {
		t.Fatalf("decode emailed_to: %v", err)
	}
	assert.Equal(t, []string{"ca@taxfirm.in", "audit@taxfirm.in"}, emailed)
}

func TestEmailStatementValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	statement, err := f.svc.Generate(ctx, domain.GenerateRequest{
		UserID: f.user.ID, From: periodFrom, To: periodTo,
	})
	if err != nil {
		t.Fatalf("request statement: %v", err)
	}

	_, err = f.svc.Email(ctx, statement.ID, domain.EmailRequest{})
	assert.ErrorIs(t, err, domain.ErrNoRecipients)

	// Document not rendered yet.
	_, err = f.svc.Email(ctx, statement.ID, domain.EmailRequest{To: []string{"ca@taxfirm.in"}})
	assert.ErrorIs(t, err, domain.ErrStatementNotReady)

	_, err = f.svc.Email(ctx, f.node.Generate(), domain.EmailRequest{To: []string{"ca@taxfirm.in"}})
	assert.ErrorIs(t, err, domain.ErrStatementNotFound)

	assert.Empty(t, f.publisher.events)
}

func TestGeneratorMissingStatement(t *testing.T) {
	f := newFixture(t)

	err := f.gen.Generate(context.Background(), &docgendomain.GenerationJob{
		Kind:      docgendomain.JobKindStatement,
		SubjectID: f.node.Generate(),
	})
	assert.ErrorIs(t, err, domain.ErrStatementNotFound)
}
