package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/spf13/cobra"

	"github.com/faciam-dev/snapcopy/internal/logger"
	"github.com/faciam-dev/snapcopy/internal/server"
)

func newServeCmd() *cobra.Command {
	var runAtStart bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run copy passes on the SCHEDULE cron and expose /metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			health := &server.Health{}
			pass := func() {
				_, err := a.RunOnce(ctx)
				health.Record(time.Now(), err)
				if err != nil {
					logger.L.Error("copy pass", "err", err)
				}
			}

			s := gocron.NewScheduler(time.UTC)
			s.SingletonModeAll()
			job := s.Cron(a.Config.Schedule)
			if runAtStart {
				job = job.StartImmediately()
			}
			if _, err := job.Do(pass); err != nil {
				return err
			}
			s.StartAsync()
			defer s.Stop()

			srv := server.Listen(a.Config.MetricsAddr, health)
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			logger.L.Info("listening", "addr", a.Config.MetricsAddr, "schedule", a.Config.Schedule, "region", a.Config.Region)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&runAtStart, "run-at-start", false, "run one pass immediately instead of waiting for the first tick")
	return cmd
}
