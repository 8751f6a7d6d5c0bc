package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/storefront/internal/buildinfo"
	"github.com/dmitrijs2005/storefront/internal/client/app"
	"github.com/dmitrijs2005/storefront/internal/client/config"
	"github.com/dmitrijs2005/storefront/internal/client/httpapi"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/observability"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	shutdown, err := observability.SetupTracing(ctx, "storefrontd", buildinfo.Version, cfg.OTLPEndpoint)
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

	h := httpapi.NewHandler(a.Session, a.Cart, a.Wishlist, a.Catalog, a.Checkout, a.Log)
	srv := httpapi.NewServer(cfg.HTTPAddr, httpapi.NewRouter(h, httpapi.NewMetrics()), a.Log)
	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Error(ctx, "http api failed", "error", err)
	}

}
