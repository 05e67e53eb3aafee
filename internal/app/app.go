package app

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"retail-demand-optimizer/internal/alerting"
	"retail-demand-optimizer/internal/config"
	"retail-demand-optimizer/internal/ingest"
	"retail-demand-optimizer/internal/metrics"
	"retail-demand-optimizer/internal/service"
	"retail-demand-optimizer/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Out    io.Writer

	metrics *metrics.Recorder
}

// NewApp constructs a new application handle. Tables and reports go to out,
// os.Stdout when nil.
func NewApp(cfg *config.Config, logger zerolog.Logger, out io.Writer) *App {
	if out == nil {
		out = os.Stdout
	}
	return &App{
		Config:  cfg,
		Logger:  logger.With().Str("component", "app").Logger(),
		Out:     out,
		metrics: metrics.New(),
	}
}

func (a *App) newNotifier() alerting.Notifier {
	if !a.Config.Alerting.Enabled || !a.Config.Alerting.Telegram.Enabled {
		return nil
	}
	cfg := a.Config.Alerting.Telegram
	return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, cfg.Timeout, a.Logger)
}

// openStore opens the configured backend. The returned closer must be called
// once the command is done with the repository.
func (a *App) openStore(ctx context.Context) (*storage.Repository, func(), error) {
	client, err := storage.Open(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}
	a.Logger.Debug().Str("driver", client.Driver()).Msg("storage opened")

	repo := storage.NewRepository(client)
	closer := func() {
		client.Close()
	}
	return repo, closer, nil
}

func (a *App) newService(repo *storage.Repository) (*service.Service, error) {
	fitter, err := service.NewSeasonalModel(a.Config.Forecast.Seasonal)
	if err != nil {
		return nil, err
	}
	return service.New(a.Config, repo, fitter, a.newNotifier(), a.metrics, a.Logger), nil
}

func (a *App) newDashboard(repo *storage.Repository) *service.Dashboard {
	return service.NewDashboard(repo, a.Config.Insights)
}

func (a *App) ingestOptions() ingest.Options {
	return ingest.Options{
		SuperstoreEncoding:   a.Config.Ingest.SuperstoreEncoding,
		SuperstoreDateLayout: a.Config.Ingest.SuperstoreDate,
		WalmartDateLayout:    a.Config.Ingest.WalmartDate,
	}
}

// exportPath places bare file names under the configured export directory.
func (a *App) exportPath(path string) string {
	if path == "" || filepath.IsAbs(path) || filepath.Base(path) != path || a.Config.Export.Dir == "" {
		return path
	}
	return filepath.Join(a.Config.Export.Dir, path)
}

// IngestOptions name the CSV files to load; empty paths are skipped.
type IngestOptions struct {
	Files      map[ingest.Kind]string
	InitSchema bool
}

// ViewOptions configure the view command.
type ViewOptions struct {
	Dataset string
	Limit   int
}

// InsightsOptions configure the insights command.
type InsightsOptions struct {
	Dataset string
	PNGPath string
}

// ForecastOptions configure the forecast command. Zero overrides keep the
// configured defaults.
type ForecastOptions struct {
	Store     int64
	Dept      *int64
	Horizon   int
	Window    int
	Threshold float64
	CSVPath   string
	PNGPath   string
	Notify    bool
}
