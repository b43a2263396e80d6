// Package dispatcher turns domain events into emails. Sends are gated by
// user preference; every attempted send leaves an email log row whatever the
// outcome.
package dispatcher

import (
	"context"
	"fmt"
	"sync"

	"github.com/askroshan/india-angel-forge-sub003/internal/clock"
	"github.com/askroshan/india-angel-forge-sub003/internal/config"
	"github.com/askroshan/india-angel-forge-sub003/internal/notification/domain"
	"github.com/askroshan/india-angel-forge-sub003/internal/notification/repository"
	"github.com/askroshan/india-angel-forge-sub003/internal/notification/templates"
	obsmetrics "github.com/askroshan/india-angel-forge-sub003/internal/observability/metrics"
	"github.com/askroshan/india-angel-forge-sub003/internal/providers/email"
	userdomain "github.com/askroshan/india-angel-forge-sub003/internal/user/domain"
	"github.com/askroshan/india-angel-forge-sub003/pkg/money"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const eventBuffer = 256

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Cfg        config.Config
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       repository.Repository
	Users      userdomain.Repository
	Provider   email.Provider
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Dispatcher struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       repository.Repository
	users      userdomain.Repository
	provider   email.Provider
	obsMetrics *obsmetrics.Metrics

	contactEmail string

	events chan domain.Event
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(p Params) *Dispatcher {
	return &Dispatcher{
		db:           p.DB,
		log:          p.Log.Named("notification.dispatcher"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		users:        p.Users,
		provider:     p.Provider,
		obsMetrics:   p.ObsMetrics,
		contactEmail: p.Cfg.ContactEmail,
		events:       make(chan domain.Event, eventBuffer),
	}
}

// Publish hands the event to the consumer goroutine. A full buffer falls
// back to dispatching on a fresh goroutine so state transitions never block
// on SMTP.
func (d *Dispatcher) Publish(ctx context.Context, event domain.Event) {
	select {
	case d.events <- event:
	default:
		go d.dispatchLogged(event)
	}
}

func (d *Dispatcher) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-d.events:
				d.dispatchLogged(event)
			}
		}
	}()
}

func (d *Dispatcher) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
	// Drain whatever arrived after the consumer quit.
	for {
		select {
		case event := <-d.events:
			d.dispatchLogged(event)
		default:
			return
		}
	}
}

func (d *Dispatcher) dispatchLogged(event domain.Event) {
	if err := d.Dispatch(context.Background(), event); err != nil {
		d.log.Error("dispatch failed",
			zap.String("template", event.Template),
			zap.String("user_id", event.UserID.String()),
			zap.Error(err),
		)
	}
}

// Dispatch resolves the user, applies the preference gate, renders the
// template, and sends one email per recipient. A recipient disabled by
// preference gets neither a send nor a log row.
func (d *Dispatcher) Dispatch(ctx context.Context, event domain.Event) error {
	user, err := d.users.FindByID(ctx, event.UserID)
	if err != nil {
		return err
	}

	var recipients []string
	if categoryEnabled(user, event.Template) {
		recipients = append(recipients, user.Email)
	} else {
		d.log.Debug("notification suppressed by preference",
			zap.String("template", event.Template),
			zap.String("user_id", user.ID.String()),
		)
	}
	// Explicitly requested extra recipients bypass the owner's preference.
	recipients = append(recipients, event.AdditionalRecipients...)
	if len(recipients) == 0 {
		return nil
	}

	subject, body, err := templates.Render(event.Template, templates.Data{
		Name:         user.FullName,
		Amount:       money.Format(event.Amount, event.Currency),
		Description:  event.Description,
		Reference:    event.Reference,
		DocumentURL:  event.DocumentURL,
		ContactEmail: d.contactEmail,
	})
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrUnknownTemplate, event.Template)
	}

	var firstErr error
	for _, recipient := range recipients {
		if err := d.send(ctx, user.ID, recipient, subject, body, event.Template); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (d *Dispatcher) send(ctx context.Context, userID snowflake.ID, recipient, subject, body, templateName string) error {
	now := d.clock.Now()
	entry := domain.EmailLog{
		ID:           d.genID.Generate(),
		UserID:       userID,
		Recipient:    recipient,
		Subject:      subject,
		TemplateName: templateName,
		Provider:     "smtp",
		Status:       domain.EmailStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := d.repo.Insert(ctx, d.db, &entry); err != nil {
		return err
	}

	sendErr := d.provider.Send(ctx, []string{recipient}, subject, body)

	entry.UpdatedAt = d.clock.Now()
	if sendErr != nil {
		message := sendErr.Error()
		entry.Status = domain.EmailStatusFailed
		entry.Error = &message
	} else {
		entry.Status = domain.EmailStatusSent
	}
	if err := d.repo.MarkOutcome(ctx, d.db, &entry); err != nil {
		return err
	}

	if d.obsMetrics != nil {
		d.obsMetrics.EmailOutcomes.WithLabelValues(templateName, string(entry.Status)).Inc()
	}
	return sendErr
}

func categoryEnabled(user *userdomain.User, template string) bool {
	switch template {
	case domain.TemplateStatementReady:
		return user.EmailStatements
	default:
		return user.EmailPayments
	}
}
