package app

import (
	"context"
	"fmt"
	"io"

	"retail-demand-optimizer/internal/render"
	"retail-demand-optimizer/internal/service"
)

// Forecast runs the forecast for one store series, prints it and writes the
// requested exports.
func (a *App) Forecast(ctx context.Context, opts ForecastOptions) error {
	repo, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	svc, err := a.newService(repo)
	if err != nil {
		return err
	}

	outcome, err := svc.Forecast(ctx, service.Request{
		Store:     opts.Store,
		Dept:      opts.Dept,
		Horizon:   opts.Horizon,
		Window:    opts.Window,
		Threshold: opts.Threshold,
		Notify:    opts.Notify,
	})
	if err != nil {
		return err
	}

	if err := render.ForecastSummary(a.Out, outcome.Summary); err != nil {
		return err
	}
	fmt.Fprintln(a.Out)
	if err := render.Forecast(a.Out, outcome.Result); err != nil {
		return err
	}

	if opts.CSVPath != "" {
		path := a.exportPath(opts.CSVPath)
		if err := render.WriteFile(path, func(w io.Writer) error {
			return render.ForecastCSV(w, outcome.Result)
		}); err != nil {
			return err
		}
		a.Logger.Info().Str("path", path).Msg("forecast csv written")
	}

	if opts.PNGPath != "" {
		chartOpts := render.ChartOptions{
			Title:  outcome.Summary.Series,
			Width:  a.Config.Export.ChartWidth,
			Height: a.Config.Export.ChartHeight,
		}
		if err := a.writePNG(opts.PNGPath, func(w io.Writer) error {
			return render.ForecastChart(w, outcome.Result, chartOpts)
		}); err != nil {
			return err
		}
	}

	if opts.Notify && !outcome.Notified {
		a.Logger.Info().Str("series", outcome.Summary.Series).Msg("no anomaly digest sent")
	}
	return nil
}
