// Command eventsplit-lambda is the AWS Lambda entrypoint for the enrichment
// step of an EventBridge Pipe reading a DynamoDB stream.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/jacoelho/eventsplit/internal/config"
	"github.com/jacoelho/eventsplit/internal/handler"
	"github.com/jacoelho/eventsplit/internal/logging"
	"github.com/jacoelho/eventsplit/internal/telemetry"
)

const serviceName = "eventsplit-lambda"

func main() {
	h, shutdown, err := setup(context.Background())
	if err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}

	lambda.StartWithOptions(h.Handle, lambda.WithEnableSIGTERM(shutdown))
}

// setup reads the environment once per container; a configuration error fails
// the cold start instead of every invocation.
func setup(ctx context.Context) (*handler.Handler, func(), error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, nil, err
	}

	settings, err := cfg.Compile()
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}

	provider, err := telemetry.Setup(ctx, serviceName, telemetry.Options{
		Endpoint: cfg.OTelEndpoint,
		Enabled:  cfg.OTelEnabled,
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Info("configured",
		"split_path", settings.SplitPath.String(),
		"propagate", settings.Spec.PathStrings(),
		"prefix", settings.Spec.Prefix,
		"image", string(settings.Image),
		"tracing", provider.Enabled(),
	)

	opts := []handler.Option{handler.WithLogger(logger)}
	if provider.Enabled() {
		opts = append(opts, handler.WithFlusher(provider))
	}

	shutdown := func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}

	return handler.New(settings, opts...), shutdown, nil
}
