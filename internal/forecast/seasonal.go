package forecast

import (
	"fmt"
	"math"
	"strings"
	"time"

	forecaster "github.com/aouyang1/go-forecaster"
	"github.com/aouyang1/go-forecaster/forecast/options"

	"retail-demand-optimizer/internal/timeseries"
)

// SeasonalityMode selects how seasonal effects combine with the trend.
type SeasonalityMode string

const (
	ModeMultiplicative SeasonalityMode = "multiplicative"
	ModeAdditive       SeasonalityMode = "additive"
)

// Toggle is a three-state switch for seasonal components.
type Toggle string

const (
	ToggleAuto Toggle = "auto"
	ToggleOn   Toggle = "on"
	ToggleOff  Toggle = "off"
)

const (
	yearlyPeriod = time.Duration(365.25 * 24 * float64(time.Hour))

	// yearly seasonality switches on automatically once two cycles are observed
	yearlyAutoSpan = 2 * 365 * 24 * time.Hour
)

// SeasonalConfig mirrors the knobs of the seasonal model. Zero values are
// replaced by DefaultSeasonalConfig values in NewSeasonalModel.
type SeasonalConfig struct {
	Mode               SeasonalityMode `mapstructure:"mode"`
	WeeklySeasonality  Toggle          `mapstructure:"weekly_seasonality"`
	YearlySeasonality  Toggle          `mapstructure:"yearly_seasonality"`
	DailySeasonality   Toggle          `mapstructure:"daily_seasonality"`
	WeeklyFourierOrder int             `mapstructure:"weekly_fourier_order"`
	YearlyFourierOrder int             `mapstructure:"yearly_fourier_order"`
	DailyFourierOrder  int             `mapstructure:"daily_fourier_order"`
	IntervalWidth      float64         `mapstructure:"interval_width"`
	Cadence            time.Duration   `mapstructure:"cadence"`
}

// DefaultSeasonalConfig matches the dashboard defaults: weekly cadence,
// multiplicative seasonality, weekly on, daily off, yearly when the history
// covers two years.
func DefaultSeasonalConfig() SeasonalConfig {
	return SeasonalConfig{
		Mode:               ModeMultiplicative,
		WeeklySeasonality:  ToggleOn,
		YearlySeasonality:  ToggleAuto,
		DailySeasonality:   ToggleOff,
		WeeklyFourierOrder: 3,
		YearlyFourierOrder: 10,
		DailyFourierOrder:  4,
		IntervalWidth:      0.8,
		Cadence:            7 * 24 * time.Hour,
	}
}

func (c SeasonalConfig) withDefaults() SeasonalConfig {
	def := DefaultSeasonalConfig()
	if c.Mode == "" {
		c.Mode = def.Mode
	}
	if c.WeeklySeasonality == "" {
		c.WeeklySeasonality = def.WeeklySeasonality
	}
	if c.YearlySeasonality == "" {
		c.YearlySeasonality = def.YearlySeasonality
	}
	if c.DailySeasonality == "" {
		c.DailySeasonality = def.DailySeasonality
	}
	if c.WeeklyFourierOrder == 0 {
		c.WeeklyFourierOrder = def.WeeklyFourierOrder
	}
	if c.YearlyFourierOrder == 0 {
		c.YearlyFourierOrder = def.YearlyFourierOrder
	}
	if c.DailyFourierOrder == 0 {
		c.DailyFourierOrder = def.DailyFourierOrder
	}
	if c.IntervalWidth == 0 {
		c.IntervalWidth = def.IntervalWidth
	}
	if c.Cadence == 0 {
		c.Cadence = def.Cadence
	}
	return c
}

// Validate checks ranges after defaults have been applied.
func (c SeasonalConfig) Validate() error {
	switch c.Mode {
	case ModeMultiplicative, ModeAdditive:
	default:
		return &ConfigError{Param: "mode", Value: c.Mode, Reason: "must be multiplicative or additive"}
	}
	for name, toggle := range map[string]Toggle{
		"weekly_seasonality": c.WeeklySeasonality,
		"yearly_seasonality": c.YearlySeasonality,
		"daily_seasonality":  c.DailySeasonality,
	} {
		switch toggle {
		case ToggleAuto, ToggleOn, ToggleOff:
		default:
			return &ConfigError{Param: name, Value: toggle, Reason: "must be auto, on or off"}
		}
	}
	if c.WeeklyFourierOrder < 0 || c.YearlyFourierOrder < 0 || c.DailyFourierOrder < 0 {
		return &ConfigError{Param: "fourier_order", Value: "negative", Reason: "must not be negative"}
	}
	if c.IntervalWidth <= 0 || c.IntervalWidth >= 1 {
		return &ConfigError{Param: "interval_width", Value: c.IntervalWidth, Reason: "must be between 0 and 1"}
	}
	if c.Cadence <= 0 {
		return &ConfigError{Param: "cadence", Value: c.Cadence, Reason: "must be positive"}
	}
	return nil
}

// Fitter is the seasonal model contract consumed by the orchestrator. Fit
// returns in-sample points for every observation followed by horizon future
// points at the series cadence.
type Fitter interface {
	Fit(series timeseries.Slice, horizon int) (Result, error)
}

// SeasonalModel adapts go-forecaster (trend plus Fourier seasonality with a
// residual uncertainty model) to the Result shape. Multiplicative mode fits
// the log of the series, so every observation must be positive. The fit is
// deterministic.
type SeasonalModel struct {
	cfg SeasonalConfig
}

var _ Fitter = (*SeasonalModel)(nil)

func NewSeasonalModel(cfg SeasonalConfig) (*SeasonalModel, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &SeasonalModel{cfg: cfg}, nil
}

// Config returns the effective configuration.
func (m *SeasonalModel) Config() SeasonalConfig {
	return m.cfg
}

func (m *SeasonalModel) seasonalities(span time.Duration) ([]options.SeasonalityConfig, []string) {
	var (
		configs []options.SeasonalityConfig
		names   []string
	)
	if enabled(m.cfg.WeeklySeasonality, true) && m.cfg.WeeklyFourierOrder > 0 {
		configs = append(configs, options.NewWeeklySeasonalityConfig(m.cfg.WeeklyFourierOrder))
		names = append(names, "weekly")
	}
	if enabled(m.cfg.YearlySeasonality, span >= yearlyAutoSpan) && m.cfg.YearlyFourierOrder > 0 {
		configs = append(configs, options.SeasonalityConfig{Name: "yearly", Orders: m.cfg.YearlyFourierOrder, Period: yearlyPeriod})
		names = append(names, "yearly")
	}
	if enabled(m.cfg.DailySeasonality, false) && m.cfg.DailyFourierOrder > 0 {
		configs = append(configs, options.NewDailySeasonalityConfig(m.cfg.DailyFourierOrder))
		names = append(names, "daily")
	}
	return configs, names
}

func enabled(t Toggle, auto bool) bool {
	switch t {
	case ToggleOn:
		return true
	case ToggleOff:
		return false
	default:
		return auto
	}
}

// residualWindow sizes the rolling residual window of the uncertainty model
// in observations.
func residualWindow(n int) int {
	return max(4, min(52, n/8))
}

func (m *SeasonalModel) engineOptions(n int, seasonalities []options.SeasonalityConfig) *forecaster.Options {
	opt := forecaster.NewDefaultOptions()
	opt.SeriesOptions.ForecastOptions.SeasonalityOptions.SeasonalityConfigs = seasonalities
	opt.UncertaintyOptions.ForecastOptions.SeasonalityOptions.SeasonalityConfigs = seasonalities
	opt.UncertaintyOptions.ResidualWindow = residualWindow(n)
	opt.UncertaintyOptions.ResidualZscore = zScore(m.cfg.IntervalWidth)
	return opt
}

// Fit implements Fitter. Every failure is reported as a *ModelFitError.
func (m *SeasonalModel) Fit(series timeseries.Slice, horizon int) (Result, error) {
	n := series.Len()
	if n < 2 {
		return Result{}, fitError("need at least 2 observations, got %d", n)
	}
	if horizon < 0 {
		return Result{}, fitError("negative horizon %d", horizon)
	}
	span := series.Span()
	if span <= 0 {
		return Result{}, fitError("series has zero time span")
	}

	times := series.Times()
	values := series.Values()
	multiplicative := m.cfg.Mode == ModeMultiplicative

	target := values
	if multiplicative {
		target = make([]float64, n)
		for i, v := range values {
			if v <= 0 {
				return Result{}, fitError("multiplicative mode needs positive values, got %.4f at %s", v, times[i].Format(time.DateOnly))
			}
			target[i] = math.Log(v)
		}
	}

	at := make([]time.Time, n, n+horizon)
	copy(at, times)
	for h := 1; h <= horizon; h++ {
		at = append(at, times[n-1].Add(time.Duration(h)*m.cfg.Cadence))
	}

	seasonalities, names := m.seasonalities(span)
	engine, err := forecaster.New(m.engineOptions(n, seasonalities))
	if err != nil {
		return Result{}, fitError("configure forecaster: %v", err)
	}
	if err := engine.Fit(times, target); err != nil {
		return Result{}, fitError("fit: %v", err)
	}
	res, err := engine.Predict(at)
	if err != nil {
		return Result{}, fitError("predict: %v", err)
	}
	if len(res.Forecast) != len(at) || len(res.Upper) != len(at) || len(res.Lower) != len(at) {
		return Result{}, fitError("forecaster returned %d points for %d timestamps", len(res.Forecast), len(at))
	}

	points := make([]Point, len(at))
	for i, ts := range at {
		estimate, lower, upper := res.Forecast[i], res.Lower[i], res.Upper[i]
		if multiplicative {
			estimate, lower, upper = math.Exp(estimate), math.Exp(lower), math.Exp(upper)
		}
		// a negative uncertainty estimate swaps the band edges
		lower, upper = math.Min(lower, math.Min(upper, estimate)), math.Max(upper, math.Max(lower, estimate))
		if !allFinite([]float64{estimate, lower, upper}) {
			return Result{}, fitError("non-finite estimate at %s", ts.Format(time.DateOnly))
		}

		p := Point{
			Timestamp:     ts,
			PointEstimate: estimate,
			LowerBound:    floatPtr(lower),
			UpperBound:    floatPtr(upper),
		}
		if i < n {
			observed := values[i]
			p.Observed = floatPtr(observed)
			p.IsAnomaly = observed < lower || observed > upper
		}
		points[i] = p
	}

	return Result{
		Points:    points,
		ModelUsed: ModelSeasonal,
		Horizon:   horizon,
		Params: map[string]any{
			"mode":            string(m.cfg.Mode),
			"seasonalities":   strings.Join(names, ","),
			"interval_width":  m.cfg.IntervalWidth,
			"residual_window": residualWindow(n),
		},
	}, nil
}

// zScore converts a central interval width such as 0.8 into the matching
// standard normal quantile.
func zScore(width float64) float64 {
	return math.Sqrt2 * math.Erfinv(width)
}

func allFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// String summarises the configuration for logs.
func (c SeasonalConfig) String() string {
	return fmt.Sprintf("mode=%s weekly=%s yearly=%s daily=%s width=%.2f", c.Mode, c.WeeklySeasonality, c.YearlySeasonality, c.DailySeasonality, c.IntervalWidth)
}
