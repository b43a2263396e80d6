package invoice

import (
	docgendomain "github.com/askroshan/india-angel-forge-sub003/internal/docgen/domain"
	"github.com/askroshan/india-angel-forge-sub003/internal/invoice/repository"
	"github.com/askroshan/india-angel-forge-sub003/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice",
	fx.Provide(
		repository.Provide,
		service.New,
		service.NewGenerator,
		fx.Annotate(
			func(g *service.Generator) docgendomain.Generator { return g },
			fx.ResultTags(`group:"docgen.generators"`),
		),
	),
)
