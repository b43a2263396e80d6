package statement

import (
	docgendomain "github.com/askroshan/india-angel-forge-sub003/internal/docgen/domain"
	"github.com/askroshan/india-angel-forge-sub003/internal/statement/repository"
	"github.com/askroshan/india-angel-forge-sub003/internal/statement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("statement",
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
