package providers

import (
	"github.com/askroshan/india-angel-forge-sub003/internal/providers/email"
	"github.com/askroshan/india-angel-forge-sub003/internal/providers/pdf"
	"github.com/askroshan/india-angel-forge-sub003/internal/providers/storage"
	"go.uber.org/fx"
)

var Module = fx.Options(
	email.Module,
	storage.Module,
	fx.Provide(pdf.NewRenderer),
)
