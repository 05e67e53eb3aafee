package app

import (
	"context"
	"errors"

	"retail-demand-optimizer/internal/ingest"
	"retail-demand-optimizer/internal/render"
)

// maxListedFailures caps the failed rows printed after an ingest run.
const maxListedFailures = 20

// Ingest loads the given CSV files in dependency order and prints a report
// per file. Bad rows are reported, not fatal.
func (a *App) Ingest(ctx context.Context, opts IngestOptions) error {
	if len(opts.Files) == 0 {
		return errors.New("no input files given")
	}

	repo, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if opts.InitSchema {
		if err := repo.InitSchema(ctx); err != nil {
			return err
		}
		a.Logger.Info().Msg("schema initialised")
	}

	loader := ingest.NewLoader(repo, a.ingestOptions(), a.metrics, a.Logger)
	reports := make([]*ingest.Report, 0, len(opts.Files))
	for _, kind := range ingest.Kinds {
		path, ok := opts.Files[kind]
		if !ok || path == "" {
			continue
		}
		report, err := loader.LoadFile(ctx, kind, path)
		if err != nil {
			return err
		}
		reports = append(reports, report)
	}

	a.Logger.Info().
		Str("run_id", loader.RunID().String()).
		Int("files", len(reports)).
		Msg("ingest finished")
	return render.IngestReports(a.Out, reports, maxListedFailures)
}
