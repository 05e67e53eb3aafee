package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"retail-demand-optimizer/internal/app"
)

var (
	forecastStore     int64
	forecastDept      int64
	forecastHorizon   int
	forecastWindow    int
	forecastThreshold float64
	forecastCSVPath   string
	forecastPNGPath   string
	forecastNotify    bool
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Forecast weekly sales for a store and flag anomalous weeks",
	RunE: func(cmd *cobra.Command, args []string) error {
		if forecastStore <= 0 {
			return fmt.Errorf("--store must be greater than zero")
		}

		opts := app.ForecastOptions{
			Store:     forecastStore,
			Horizon:   forecastHorizon,
			Window:    forecastWindow,
			Threshold: forecastThreshold,
			CSVPath:   forecastCSVPath,
			PNGPath:   forecastPNGPath,
			Notify:    forecastNotify,
		}
		if cmd.Flags().Changed("dept") {
			dept := forecastDept
			opts.Dept = &dept
		}

		return getApp().Forecast(cmd.Context(), opts)
	},
}

func init() {
	forecastCmd.Flags().Int64Var(&forecastStore, "store", 0, "Store number")
	forecastCmd.Flags().Int64Var(&forecastDept, "dept", 0, "Restrict to one department")
	forecastCmd.Flags().IntVar(&forecastHorizon, "horizon", 0, "Weeks to forecast (defaults to config)")
	forecastCmd.Flags().IntVar(&forecastWindow, "window", 0, "Rolling average window (defaults to config)")
	forecastCmd.Flags().Float64Var(&forecastThreshold, "threshold", 0, "Rolling anomaly multiplier (defaults to config)")
	forecastCmd.Flags().StringVar(&forecastCSVPath, "csv", "", "Path to write CSV data")
	forecastCmd.Flags().StringVar(&forecastPNGPath, "png", "", "Path to write PNG chart")
	forecastCmd.Flags().BoolVar(&forecastNotify, "notify", false, "Send an anomaly digest when alerting is enabled")
	_ = forecastCmd.MarkFlagRequired("store")
}
