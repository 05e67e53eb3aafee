package cli

import (
	"github.com/spf13/cobra"

	"retail-demand-optimizer/internal/app"
	"retail-demand-optimizer/internal/ingest"
)

var (
	ingestFiles      = map[ingest.Kind]*string{}
	ingestInitSchema bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load Superstore and Walmart CSV exports into the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := getApp()
		opts := app.IngestOptions{
			Files:      make(map[ingest.Kind]string),
			InitSchema: a.Config.Ingest.InitSchema,
		}
		if cmd.Flags().Changed("init-schema") {
			opts.InitSchema = ingestInitSchema
		}
		for kind, path := range ingestFiles {
			if *path != "" {
				opts.Files[kind] = *path
			}
		}
		return a.Ingest(cmd.Context(), opts)
	},
}

func init() {
	for _, kind := range ingest.Kinds {
		ingestFiles[kind] = ingestCmd.Flags().String(string(kind), "", "Path to the "+string(kind)+" CSV file")
	}
	ingestCmd.Flags().BoolVar(&ingestInitSchema, "init-schema", false, "Create tables before loading (defaults to config)")
}
