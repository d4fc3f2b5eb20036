package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"aitaflow/adapters/excel"
	"aitaflow/app"
	"aitaflow/domain/daterange"
	"aitaflow/domain/judgement"
	"aitaflow/domain/labels"

	"github.com/spf13/cobra"
)

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify [text]",
		Short: "Extract the judgement of a single response",
		Long: `Print the judgement code found in the text, or "none" when the text holds
no code, several different codes, or comes from an automated account.

Example: aitaflow classify "NTA, your brother owes you an apology"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := strings.Join(args, " ")
			if j, ok := judgement.Classify(body); ok {
				fmt.Fprintln(cmd.OutOrStdout(), j)
				return nil
			}
			if judgement.IsAutomated(body) {
				fmt.Fprintln(cmd.OutOrStdout(), "none (automated)")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "none")
			return nil
		},
	}
}

func newLabelsCmd() *cobra.Command {
	var threshold float64

	cmd := &cobra.Command{
		Use:   "labels [CODE=share...]",
		Short: "Encode a distribution into the four label vectors",
		Long: `Every judgement must be given exactly once.

Example: aitaflow labels YTA=0.44 NTA=0.12 NAH=0.18 ESH=0.26 --threshold 0.2`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseShares(args)
			if err != nil {
				return err
			}
			dist, err := labels.DistributionFromMap(values)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]interface{}{
				"judgement":    dist.Top(),
				"distribution": dist,
				"labels":       labels.Encode(dist, threshold),
			})
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", labels.DefaultThreshold, "Share needed to switch a multilabel entry on")
	return cmd
}

// parseShares reads CODE=value pairs. Unknown codes and repeats are rejected.
func parseShares(args []string) (map[string]float64, error) {
	values := make(map[string]float64, len(args))
	for _, arg := range args {
		code, raw, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected CODE=share, got %q", arg)
		}
		j, err := judgement.Parse(strings.TrimSpace(code))
		if err != nil {
			return nil, err
		}
		if _, dup := values[j.String()]; dup {
			return nil, fmt.Errorf("%s given twice", j)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid share for %s: %w", j, err)
		}
		values[j.String()] = v
	}
	return values, nil
}

func newRangesCmd() *cobra.Command {
	var dayIncrement int

	cmd := &cobra.Command{
		Use:   "ranges [start] [end]",
		Short: "Print the search windows covering a period",
		Long: `Both dates are YYYY-MM-DD and inclusive. The last window is shorter when the
period does not divide evenly.

Example: aitaflow ranges 2020-01-01 2020-01-10 --day-increment 3`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ranges, err := daterange.Partition(args[0], args[1], dayIncrement)
			if err != nil {
				return err
			}
			for _, r := range ranges {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d\n", r.Start, r.End, r.Days())
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&dayIncrement, "day-increment", daterange.DefaultDayIncrement, "Days per window")
	return cmd
}

func newReportCmd() *cobra.Command {
	var html bool

	cmd := &cobra.Command{
		Use:   "report [labels.xlsx]",
		Short: "Summarize a label table written by run --xlsx",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := excel.ReadLabelTable(args[0])
			if err != nil {
				return err
			}
			report, err := app.Summarize(rows)
			if err != nil {
				return err
			}
			if html {
				_, err = cmd.OutOrStdout().Write(report.HTML())
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), report.Markdown())
			return nil
		},
	}

	cmd.Flags().BoolVar(&html, "html", false, "Render HTML instead of markdown")
	return cmd
}
