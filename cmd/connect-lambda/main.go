package main

import (
	"context"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/lambda"
	crmconnect "github.com/goliatone/go-crm-connect"
	"github.com/goliatone/go-crm-connect/adapters/s3config"
	"github.com/goliatone/go-crm-connect/core"
	sqlstore "github.com/goliatone/go-crm-connect/store/sql"
	glog "github.com/goliatone/go-logger/glog"
)

func main() {
	ctx := context.Background()
	logger := glog.NewLogger(
		glog.WithLoggerTypeJSON(),
		glog.WithWriter(os.Stdout),
		glog.WithLevel(os.Getenv("LOG_LEVEL")),
	)

	var documents core.DocumentLoader
	if strings.TrimSpace(os.Getenv("CONFIG_LOCATION")) != "" {
		loader, err := s3config.NewDefaultLoader(ctx, logger.GetLogger("s3config"))
		if err != nil {
			logger.Fatal("aws config failed", "error", err)
		}
		documents = loader
	}

	cfg, err := crmconnect.LoadConfig(ctx, documents, nil)
	if err != nil {
		logger.Fatal("configuration failed", "error", err)
	}
	logger.WithLevel(cfg.LogLevel)

	opts := []crmconnect.Option{crmconnect.WithLoggerProvider(logger)}
	if cfg.Activity.Enabled() {
		client, err := sqlstore.OpenClient(ctx, cfg.Activity)
		if err != nil {
			logger.Fatal("activity store failed", "error", err, "driver", cfg.Activity.Driver)
		}
		defer func() { _ = client.Close() }()
		store, err := sqlstore.NewActivityStoreFromPersistence(client)
		if err != nil {
			logger.Fatal("activity store failed", "error", err)
		}
		opts = append(opts, crmconnect.WithActivitySink(store))
	}

	handler, err := crmconnect.NewHandler(cfg, opts...)
	if err != nil {
		logger.Fatal("handler wiring failed", "error", err)
	}
	logger.Info("connect lambda ready", "service", cfg.ServiceName, "api_version", cfg.Salesforce.Version, "activity", cfg.Activity.Enabled())
	lambda.Start(handler.Handle)
}
