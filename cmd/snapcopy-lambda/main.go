package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/faciam-dev/snapcopy/internal/app"
	"github.com/faciam-dev/snapcopy/internal/config"
	"github.com/faciam-dev/snapcopy/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L.Error("config", "err", err)
		os.Exit(1)
	}
	a, err := app.Setup(context.Background(), cfg)
	if err != nil {
		logger.L.Error("setup", "err", err)
		os.Exit(1)
	}
	// lambda.Start never returns; sinks are released when the runtime
	// signals shutdown.
	lambda.StartWithOptions(a.Handle, lambda.WithEnableSIGTERM(a.Close))
}
