package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"retail-demand-optimizer/internal/app"
)

var (
	viewDataset string
	viewLimit   int
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Display raw rows of a dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		if viewLimit < 0 {
			return fmt.Errorf("--limit must not be negative")
		}
		return getApp().View(cmd.Context(), app.ViewOptions{Dataset: viewDataset, Limit: viewLimit})
	},
}

var edaCmd = &cobra.Command{
	Use:   "eda",
	Short: "Describe the numeric columns of a dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().EDA(cmd.Context(), viewDataset)
	},
}

var (
	insightsPNGPath string
)

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Summarise a dataset (superstore or walmart)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Insights(cmd.Context(), app.InsightsOptions{Dataset: viewDataset, PNGPath: insightsPNGPath})
	},
}

var storesCmd = &cobra.Command{
	Use:   "stores",
	Short: "List stores with sales history",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Stores(cmd.Context())
	},
}

func init() {
	for _, cmd := range []*cobra.Command{viewCmd, edaCmd, insightsCmd} {
		cmd.Flags().StringVar(&viewDataset, "dataset", "walmart", "Dataset: superstore, walmart, stores, features or test")
	}
	viewCmd.Flags().IntVar(&viewLimit, "limit", 0, "Number of rows to display (defaults to config)")
	insightsCmd.Flags().StringVar(&insightsPNGPath, "png", "", "Path to write a PNG chart")
}
