package app

import (
	"context"
	"os/signal"
	"syscall"

	"retail-demand-optimizer/internal/server"
	"retail-demand-optimizer/internal/storage"
)

// Serve runs the HTTP API until SIGINT or SIGTERM.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client, err := storage.Open(ctx, a.Config.Database)
	if err != nil {
		return err
	}
	defer client.Close()

	repo := storage.NewRepository(client)
	svc, err := a.newService(repo)
	if err != nil {
		return err
	}

	srv := server.New(server.Deps{
		Views:      a.newDashboard(repo),
		Forecaster: svc,
		DB:         client,
		Metrics:    a.metrics.Handler(),
		Observer:   a.metrics,
	}, a.Config.Server, a.Logger)

	a.Logger.Info().Str("driver", client.Driver()).Msg("starting dashboard api")
	return srv.Run(ctx)
}
