package main

import (
	"github.com/smallbiznis/viptagger/internal/classify"
	"github.com/smallbiznis/viptagger/internal/clock"
	"github.com/smallbiznis/viptagger/internal/config"
	"github.com/smallbiznis/viptagger/internal/lock"
	"github.com/smallbiznis/viptagger/internal/observability"
	"github.com/smallbiznis/viptagger/internal/server"
	"github.com/smallbiznis/viptagger/internal/shopify"
	"github.com/smallbiznis/viptagger/internal/sweep"
	"github.com/smallbiznis/viptagger/internal/webhook"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		clock.Module,
		lock.Module,

		// Platform access and classification
		shopify.Module,
		classify.Module,

		// Entry points: scheduled sweep and webhook ingestion
		sweep.Module,
		webhook.Module,
		server.Module,
	)
	app.Run()
}
