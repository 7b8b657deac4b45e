package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/rsudds/bludpay/internal/audit"
	"github.com/rsudds/bludpay/internal/budget"
	"github.com/rsudds/bludpay/internal/clock"
	"github.com/rsudds/bludpay/internal/coa"
	"github.com/rsudds/bludpay/internal/config"
	"github.com/rsudds/bludpay/internal/migration"
	"github.com/rsudds/bludpay/internal/observability"
	"github.com/rsudds/bludpay/internal/sequence"
	"github.com/rsudds/bludpay/internal/server"
	"github.com/rsudds/bludpay/internal/taxrule"
	"github.com/rsudds/bludpay/internal/voucher"
	"github.com/rsudds/bludpay/pkg/db"
	"github.com/rsudds/bludpay/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		log.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Functional domains
		coa.Module,
		taxrule.Module,
		budget.Module,
		sequence.Module,
		audit.Module,
		voucher.Module,

		server.Module,
	)
	app.Run()
}

func registerSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
