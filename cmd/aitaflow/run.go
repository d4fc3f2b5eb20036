package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"aitaflow/app"
	"aitaflow/domain/labels"
	"aitaflow/internal/config"

	"github.com/spf13/cobra"
)

type runFlags struct {
	subreddit    string
	start        string
	end          string
	dayIncrement int
	dataDir      string
	minWeight    int
	threshold    float64
	workers      int
	xlsx         string
	report       string
	jsonOut      bool
}

func newRunCmd(globals *globalFlags) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Search posts, fetch their responses and write the label table",
		Long: `Run the whole flow: partition the date range, search each window for posts,
fetch every post's top-level responses (read from the cache when present),
aggregate the judgements and derive the four label encodings.

Flags override the environment and the --config file.

Example: aitaflow run --start 2020-01-01 --end 2020-01-31 --xlsx labels.xlsx --report report.md`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(globals)
			if err != nil {
				return err
			}
			applyRunFlags(cmd, flags, &cfg.Flow)
			if err := cfg.Validate(); err != nil {
				return err
			}

			pipeline, res, err := buildPipeline(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer res.Close()

			opts := app.OptionsFromConfig(cfg.Flow)
			opts.ExportPath = flags.xlsx

			result, err := pipeline.Run(cmd.Context(), opts)
			if result != nil {
				for _, s := range result.Stages {
					logger.Info("stage %s: success=%t items=%d duration=%dms", s.StageName, s.Success, s.Items, s.Duration)
				}
			}
			if err != nil {
				return err
			}

			if flags.report != "" {
				if err := writeReport(flags.report, result.Rows); err != nil {
					return err
				}
				logger.Info("report written to %s", flags.report)
			}
			if flags.jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run %s labelled %d posts\n", result.RunID, len(result.Rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.subreddit, "subreddit", "", "Community to search")
	cmd.Flags().StringVar(&flags.start, "start", "", "First day to search (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flags.end, "end", "", "Last day to search (YYYY-MM-DD, default today)")
	cmd.Flags().IntVar(&flags.dayIncrement, "day-increment", 0, "Days per search window")
	cmd.Flags().StringVar(&flags.dataDir, "data-dir", "", "Response cache directory")
	cmd.Flags().IntVar(&flags.minWeight, "min-weight", 0, "Responses need a score above this to count")
	cmd.Flags().Float64Var(&flags.threshold, "threshold", 0, "Share needed to switch a multilabel entry on")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "Posts processed in parallel")
	cmd.Flags().StringVar(&flags.xlsx, "xlsx", "", "Write the label table to this .xlsx file")
	cmd.Flags().StringVar(&flags.report, "report", "", "Write a summary report (.md or .html)")
	cmd.Flags().BoolVar(&flags.jsonOut, "json", false, "Print the full result as JSON")
	return cmd
}

// applyRunFlags copies the flags the user actually set over the configuration
func applyRunFlags(cmd *cobra.Command, flags *runFlags, flow *config.FlowConfig) {
	changed := cmd.Flags().Changed
	if changed("subreddit") {
		flow.Subreddit = flags.subreddit
	}
	if changed("start") {
		flow.StartDate = flags.start
	}
	if changed("end") {
		flow.EndDate = flags.end
	}
	if changed("day-increment") {
		flow.DayIncrement = flags.dayIncrement
	}
	if changed("data-dir") {
		flow.DataDir = flags.dataDir
	}
	if changed("min-weight") {
		flow.MinWeight = flags.minWeight
	}
	if changed("threshold") {
		flow.Threshold = flags.threshold
	}
	if changed("workers") {
		flow.Workers = flags.workers
	}
}

// writeReport renders HTML for .html paths and markdown otherwise
func writeReport(path string, rows []labels.Row) error {
	report, err := app.Summarize(rows)
	if err != nil {
		return err
	}

	content := []byte(report.Markdown())
	if strings.EqualFold(filepath.Ext(path), ".html") {
		content = report.HTML()
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
