package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/askroshan/india-angel-forge-sub003/internal/clock"
	docgendomain "github.com/askroshan/india-angel-forge-sub003/internal/docgen/domain"
	"github.com/askroshan/india-angel-forge-sub003/internal/docnum"
	notifdomain "github.com/askroshan/india-angel-forge-sub003/internal/notification/domain"
	"github.com/askroshan/india-angel-forge-sub003/internal/statement/domain"
	userdomain "github.com/askroshan/india-angel-forge-sub003/internal/user/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	Users     userdomain.Repository
	Enqueuer  docgendomain.Enqueuer
	Publisher notifdomain.Publisher
}

type service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	users     userdomain.Repository
	enqueuer  docgendomain.Enqueuer
	publisher notifdomain.Publisher
}

func New(p Params) domain.Service {
	return &service{
		db:        p.DB,
		log:       p.Log.Named("statement.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		users:     p.Users,
		enqueuer:  p.Enqueuer,
		publisher: p.Publisher,
	}
}

// Generate records the statement request and queues rendering. The returned
// statement has its number but no totals or document yet.
func (s *service) Generate(ctx context.Context, req domain.GenerateRequest) (*domain.FinancialStatement, error) {
	if !req.From.Before(req.To) {
		return nil, domain.ErrInvalidPeriod
	}
	if req.Format == "" {
		req.Format = domain.FormatSummary
	}
	if !domain.ValidFormat(req.Format) {
		return nil, domain.ErrInvalidFormat
	}
	if _, err := s.users.FindByID(ctx, req.UserID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var statement *domain.FinancialStatement
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := docnum.Next(ctx, tx, docnum.KindStatement, now)
		if err != nil {
			return err
		}
		statement = &domain.FinancialStatement{
			ID:          s.genID.Generate(),
			Number:      number,
			UserID:      req.UserID,
			PeriodFrom:  req.From.UTC(),
			PeriodTo:    req.To.UTC(),
			Format:      req.Format,
			Currency:    "INR",
			EmailedTo:   mustJSON(req.EmailTo),
			GeneratedAt: now,
		}
		return s.repo.Insert(ctx, tx, statement)
	})
	if err != nil {
		return nil, err
	}

	payload := docgendomain.StatementRequest{
		UserID:  req.UserID,
		From:    req.From.UTC(),
		To:      req.To.UTC(),
		Format:  string(req.Format),
		EmailTo: req.EmailTo,
	}
	if _, err := s.enqueuer.Enqueue(ctx, docgendomain.JobKindStatement, statement.ID, payload); err != nil {
		s.log.Error("enqueue statement generation",
			zap.String("statement_id", statement.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}
	return statement, nil
}

// Email re-sends a rendered statement to the named recipients. Explicit
// recipients bypass the owner's statement preference; each send attempt is
// logged by the dispatcher.
func (s *service) Email(ctx context.Context, id snowflake.ID, req domain.EmailRequest) (*domain.FinancialStatement, error) {
	recipients := mergeRecipients(nil, append(req.To, req.AdditionalEmails...))
	if len(recipients) == 0 {
		return nil, domain.ErrNoRecipients
	}

	statement, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if statement == nil {
		return nil, domain.ErrStatementNotFound
	}
	if statement.DocumentURL == "" {
		return nil, domain.ErrStatementNotReady
	}

	s.publisher.Publish(ctx, notifdomain.Event{
		Template:             notifdomain.TemplateStatementReady,
		UserID:               statement.UserID,
		Amount:               statement.NetInvestment,
		Currency:             statement.Currency,
		Description:          periodLabel(statement),
		Reference:            statement.Number,
		DocumentURL:          statement.DocumentURL,
		AdditionalRecipients: recipients,
		OccurredAt:           s.clock.Now(),
	})

	var emailed []string
	_ = json.Unmarshal(statement.EmailedTo, &emailed)
	statement.EmailedTo = mustJSON(mergeRecipients(emailed, recipients))
	if err := s.repo.UpdateResult(ctx, s.db, statement); err != nil {
		return nil, err
	}

	s.log.Info("statement emailed",
		zap.String("number", statement.Number),
		zap.Int("recipients", len(recipients)),
	)
	return statement, nil
}

func (s *service) GetByID(ctx context.Context, id snowflake.ID) (*domain.FinancialStatement, error) {
	statement, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if statement == nil {
		return nil, domain.ErrStatementNotFound
	}
	return statement, nil
}

func (s *service) ListByUser(ctx context.Context, userID snowflake.ID) ([]domain.FinancialStatement, error) {
	return s.repo.ListByUser(ctx, s.db, userID)
}

// mergeRecipients appends trimmed, deduplicated addresses onto base,
// preserving order of first appearance.
func mergeRecipients(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base)+len(extra))
	merged := make([]string, 0, len(base)+len(extra))
	for _, addr := range append(base, extra...) {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		merged = append(merged, addr)
	}
	return merged
}

func mustJSON(v any) datatypes.JSON {
	if v == nil {
		return datatypes.JSON([]byte(`[]`))
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON([]byte(`[]`))
	}
	return datatypes.JSON(raw)
}
