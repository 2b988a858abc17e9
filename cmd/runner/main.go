package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/rs/zerolog"

	"github.com/mumzworld-tech/lifecyclerunner/internal/buffer"
	"github.com/mumzworld-tech/lifecyclerunner/internal/config"
	"github.com/mumzworld-tech/lifecyclerunner/internal/dispatcher"
	"github.com/mumzworld-tech/lifecyclerunner/internal/ecsclient"
	"github.com/mumzworld-tech/lifecyclerunner/internal/logger"
	"github.com/mumzworld-tech/lifecyclerunner/internal/loki"
)

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		logger.Fatalf("Failed to set log level: %v", err)
	}

	var fwd *loki.Forwarder
	if cfg.ForwardingEnabled() {
		// Forwarder errors go to stdout only so they are never re-buffered
		stdoutOnly := logger.Get()
		buf := buffer.New(cfg.BufferSize)
		logger.SetOutput(zerolog.MultiLevelWriter(os.Stdout, buf))
		fwd = loki.NewForwarder(loki.NewClient(cfg), buf, lambdaLabels(cfg), cfg.BatchSize, stdoutOnly)
	}

	client, err := ecsclient.New(context.Background(), ecsclient.Options{
		Region:      cfg.Region,
		EndpointURL: cfg.EndpointURL,
	})
	if err != nil {
		logger.Fatalf("Failed to create ECS client: %v", err)
	}

	d := dispatcher.New(client, cfg, logger.Get())

	handler := d.Handle
	if fwd != nil {
		handler = loki.Wrap[events.CloudWatchEvent](fwd, d.Handle)
		logger.Infof("Forwarding logs to %s", cfg.LokiEndpoint)
	}

	lambda.Start(handler)
}

func lambdaLabels(cfg *config.Config) map[string]string {
	labels := make(map[string]string, len(cfg.Labels)+3)
	for k, v := range cfg.Labels {
		labels[k] = v
	}
	labels["function_name"] = lambdacontext.FunctionName
	labels["function_version"] = lambdacontext.FunctionVersion
	if cfg.Region != "" {
		labels["region"] = cfg.Region
	}
	return labels
}
