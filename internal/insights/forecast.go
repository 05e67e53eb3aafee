package insights

import (
	"fmt"

	"retail-demand-optimizer/internal/forecast"
)

// ForecastSummary describes a forecast result for display and alerting.
type ForecastSummary struct {
	Series           string                  `json:"series"`
	ModelUsed        forecast.ModelUsed      `json:"model_used"`
	Fallback         forecast.FallbackReason `json:"fallback,omitempty"`
	InsufficientData bool                    `json:"insufficient_data"`
	Observed         int                     `json:"observed"`
	AnomalyCount     int                     `json:"anomaly_count"`
	Anomalies        []forecast.Point        `json:"anomalies"`
	Upcoming         []forecast.Point        `json:"upcoming"`
	Notes            []string                `json:"notes"`
}

// SummarizeForecast lists the flagged weeks and the forecast horizon.
func SummarizeForecast(series string, result forecast.Result) ForecastSummary {
	anomalies := result.Anomalies()
	future := result.Future()

	summary := ForecastSummary{
		Series:           series,
		ModelUsed:        result.ModelUsed,
		Fallback:         result.Fallback,
		InsufficientData: result.InsufficientData(),
		Observed:         len(result.Points) - len(future),
		AnomalyCount:     len(anomalies),
		Anomalies:        anomalies,
		Upcoming:         future,
	}

	switch result.ModelUsed {
	case forecast.ModelSeasonal:
		summary.Notes = append(summary.Notes,
			fmt.Sprintf("%d weeks fall outside the %s interval.", len(anomalies), intervalLabel(result)))
	default:
		summary.Notes = append(summary.Notes,
			fmt.Sprintf("%d weeks exceed the rolling average by more than the anomaly threshold.", len(anomalies)))
	}
	switch result.Fallback {
	case forecast.FallbackInsufficientData:
		summary.Notes = append(summary.Notes, "Not enough history for the seasonal model; no future weeks are projected.")
	case forecast.FallbackFitFailed:
		summary.Notes = append(summary.Notes, "The seasonal model could not be fitted; rolling average shown instead.")
	}
	return summary
}

func intervalLabel(result forecast.Result) string {
	if width, ok := result.Params["interval_width"].(float64); ok {
		return fmt.Sprintf("%.0f%% prediction", width*100)
	}
	return "prediction"
}
