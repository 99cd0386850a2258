package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/inkworks/atelier/internal/audit"
	"github.com/inkworks/atelier/internal/backup"
	"github.com/inkworks/atelier/internal/clock"
	"github.com/inkworks/atelier/internal/config"
	"github.com/inkworks/atelier/internal/events"
	"github.com/inkworks/atelier/internal/extrato"
	"github.com/inkworks/atelier/internal/migration"
	"github.com/inkworks/atelier/internal/observability"
	"github.com/inkworks/atelier/internal/scheduler"
	"github.com/inkworks/atelier/internal/server"
	"github.com/inkworks/atelier/pkg/db"
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

		// Functional domains
		audit.Module,
		backup.Module,
		events.Module,
		extrato.Module,
		scheduler.Module,

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
