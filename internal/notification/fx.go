package notification

import (
	"context"

	"github.com/askroshan/india-angel-forge-sub003/internal/notification/dispatcher"
	"github.com/askroshan/india-angel-forge-sub003/internal/notification/domain"
	"github.com/askroshan/india-angel-forge-sub003/internal/notification/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("notification",
	fx.Provide(
		repository.Provide,
		dispatcher.New,
		func(d *dispatcher.Dispatcher) domain.Publisher { return d },
		func(d *dispatcher.Dispatcher) domain.Dispatcher { return d },
	),
	fx.Invoke(run),
)

func run(lc fx.Lifecycle, d *dispatcher.Dispatcher) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			d.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			d.Stop()
			return nil
		},
	})
}
