package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"wdiviz/domain/core"
	"wdiviz/internal"
	"wdiviz/internal/config"
	"wdiviz/internal/container"
	apperrors "wdiviz/internal/errors"

	"github.com/joho/godotenv"
)

// Exit codes of a one-shot run
const (
	exitOK         = 0
	exitFailed     = 1
	exitInputError = 2
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := internal.NewLogger(internal.ParseLogLevel(appConfig.LogLevel))
	code := run(appConfig, logger)
	logger.Sync()
	os.Exit(code)
}

// run executes the pipeline once and maps the outcome to an exit code
func run(appConfig *config.Config, logger *internal.Logger) int {
	c, err := container.New(appConfig, logger, container.Options{})
	if err != nil {
		logger.Error("Failed to initialize pipeline: %v", err)
		return exitFailed
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := c.Pipeline.Run(ctx, appConfig.Source.Path)
	if err != nil {
		logger.Error("Run failed [%s]: %v", apperrors.GetCode(err), err)
		return exitCode(err)
	}

	for _, f := range result.Report.Failures() {
		logger.Warn("%s failed: %s", f.StageName, f.Error)
	}
	if appConfig.Output.Dir != "" {
		logger.Info("Outputs written to %s", appConfig.Output.Dir)
	}
	return exitOK
}

// exitCode separates unusable input from other failures
func exitCode(err error) int {
	if core.IsInputError(err) || apperrors.GetCode(err) == apperrors.CodeSourceError {
		return exitInputError
	}
	return exitFailed
}
