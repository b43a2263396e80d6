package main

import (
	"github.com/askroshan/india-angel-forge-sub003/internal/clock"
	"github.com/askroshan/india-angel-forge-sub003/internal/config"
	"github.com/askroshan/india-angel-forge-sub003/internal/docgen"
	"github.com/askroshan/india-angel-forge-sub003/internal/invoice"
	"github.com/askroshan/india-angel-forge-sub003/internal/migration"
	"github.com/askroshan/india-angel-forge-sub003/internal/notification"
	"github.com/askroshan/india-angel-forge-sub003/internal/observability"
	"github.com/askroshan/india-angel-forge-sub003/internal/payment"
	"github.com/askroshan/india-angel-forge-sub003/internal/providers"
	"github.com/askroshan/india-angel-forge-sub003/internal/ratelimit"
	"github.com/askroshan/india-angel-forge-sub003/internal/server"
	"github.com/askroshan/india-angel-forge-sub003/internal/statement"
	"github.com/askroshan/india-angel-forge-sub003/internal/tax"
	"github.com/askroshan/india-angel-forge-sub003/internal/user"
	"github.com/askroshan/india-angel-forge-sub003/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Providers
		providers.Module,

		// Functional domains
		user.Module,
		tax.Module,
		notification.Module,
		docgen.Module,
		ratelimit.Module,
		payment.Module,
		invoice.Module,
		statement.Module,

		// HTTP surface
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
