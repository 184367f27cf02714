package main

import (
	"context"

	"github.com/faciam-dev/snapcopy/internal/app"
	"github.com/faciam-dev/snapcopy/internal/config"
)

// setup resolves configuration from the environment and builds the app.
// Configuration errors are fatal for every subcommand.
func setup(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return app.Setup(ctx, cfg)
}
