package app

import (
	"context"
	"fmt"
	"io"

	"retail-demand-optimizer/internal/insights"
	"retail-demand-optimizer/internal/render"
)

// View prints raw rows of a dataset.
func (a *App) View(ctx context.Context, opts ViewOptions) error {
	repo, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	preview, err := a.newDashboard(repo).Preview(ctx, opts.Dataset, opts.Limit)
	if err != nil {
		return err
	}
	if len(preview.Rows) == 0 {
		fmt.Fprintf(a.Out, "no rows in %s\n", opts.Dataset)
		return nil
	}
	if err := render.Rows(a.Out, preview.Rows); err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.Out, "\n%d of %d rows\n", len(preview.Rows), preview.Total)
	return err
}

// EDA prints column statistics and the first rows of a dataset.
func (a *App) EDA(ctx context.Context, dataset string) error {
	repo, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	eda, err := a.newDashboard(repo).Describe(ctx, dataset)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.Out, "%s: %d sampled rows\n\n", eda.Dataset, eda.Sampled)
	if err := render.Describe(a.Out, eda.Columns); err != nil {
		return err
	}
	fmt.Fprintln(a.Out)
	return render.Rows(a.Out, eda.Head)
}

// Insights prints the summary panel of a dataset and optionally charts it.
func (a *App) Insights(ctx context.Context, opts InsightsOptions) error {
	repo, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	report, err := a.newDashboard(repo).Insights(ctx, opts.Dataset)
	if err != nil {
		return err
	}

	chartOpts := render.ChartOptions{Width: a.Config.Export.ChartWidth, Height: a.Config.Export.ChartHeight}
	switch {
	case report.Superstore != nil:
		if err := render.SuperstoreSummary(a.Out, *report.Superstore); err != nil {
			return err
		}
		if opts.PNGPath != "" {
			chartOpts.Title = "Sales by category"
			groups := make([]insights.Group[float64], 0, len(report.Superstore.TopCategories))
			for _, g := range report.Superstore.TopCategories {
				groups = append(groups, insights.Group[float64]{Key: g.Key, Value: g.Value.InexactFloat64()})
			}
			return a.writePNG(opts.PNGPath, func(w io.Writer) error {
				return render.TopGroupsChart(w, groups, chartOpts)
			})
		}
	case report.Walmart != nil:
		if err := render.WalmartSummary(a.Out, *report.Walmart); err != nil {
			return err
		}
		if opts.PNGPath != "" {
			weekly, err := repo.WeeklyTotals(ctx)
			if err != nil {
				return err
			}
			chartOpts.Title = "Weekly sales, all stores"
			return a.writePNG(opts.PNGPath, func(w io.Writer) error {
				return render.WeeklySalesChart(w, weekly, chartOpts)
			})
		}
	}
	return nil
}

// Stores lists the stores with sales history.
func (a *App) Stores(ctx context.Context) error {
	repo, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	stores, err := a.newDashboard(repo).Stores(ctx)
	if err != nil {
		return err
	}
	if len(stores) == 0 {
		fmt.Fprintln(a.Out, "no stores found")
		return nil
	}
	return render.Stores(a.Out, stores)
}

func (a *App) writePNG(path string, draw func(io.Writer) error) error {
	path = a.exportPath(path)
	if err := render.WriteFile(path, draw); err != nil {
		return err
	}
	a.Logger.Info().Str("path", path).Msg("chart written")
	return nil
}
