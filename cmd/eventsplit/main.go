package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jacoelho/eventsplit/internal/config"
	"github.com/jacoelho/eventsplit/internal/handler"
	"github.com/jacoelho/eventsplit/internal/logging"
	"github.com/jacoelho/eventsplit/internal/normalize"
	"github.com/jacoelho/eventsplit/internal/output"
	"github.com/jacoelho/eventsplit/internal/telemetry"
)

const serviceName = "eventsplit"

func main() {
	os.Exit(run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cli, exitResult := config.ParseArgs(args)
	if exitResult != nil {
		exitResult.Print(stdout, stderr)
		return exitResult.ExitCode
	}

	settings, err := cli.Compile()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	logger, err := logging.New(stderr, cli.LogLevel, cli.LogFormat)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	provider, err := telemetry.Setup(ctx, serviceName, telemetry.Options{
		Endpoint: cli.OTelEndpoint,
		Enabled:  cli.OTelEnabled,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to set up tracing: %v\n", err)
		return 1
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	payload, err := readInput(cli.Input, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	opts := []handler.Option{handler.WithLogger(logger)}
	if cli.Source == config.SourceJSON {
		opts = append(opts, handler.WithNormalizer(normalize.Passthrough{}))
	}

	results, err := handler.New(settings, opts...).Handle(ctx, payload)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if err := output.Write(stdout, cli.Format, results); err != nil {
		fmt.Fprintf(stderr, "Error: failed to write output: %v\n", err)
		return 1
	}

	return 0
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file %s: %w", path, err)
	}
	return data, nil
}
