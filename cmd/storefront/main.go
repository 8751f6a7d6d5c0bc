package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/storefront/internal/buildinfo"
	"github.com/dmitrijs2005/storefront/internal/client/app"
	"github.com/dmitrijs2005/storefront/internal/client/cli"
	"github.com/dmitrijs2005/storefront/internal/client/config"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/observability"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	shutdown, err := observability.SetupTracing(ctx, "storefront", buildinfo.Version, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer a.Close()

	if err := a.Start(ctx); err != nil {
		logger.Error(ctx, "start failed", "error", err)
		return
	}

	cli.NewApp(a, os.Stdin, os.Stdout).Run(ctx)

}
