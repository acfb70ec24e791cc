package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/biasprep/internal/duckdb"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the latest recorded hyperparameter run",
		Long: `Print the parameters of the most recent run recorded with
"hyperparams --stats-db" and a per-fold summary of its regions.`,
		Example: `  biasprep stats --stats-db output/stats.duckdb`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(cmd); err != nil {
				return err
			}
			path := viper.GetString("stats-db")
			if path == "" {
				return fmt.Errorf("--stats-db is required")
			}
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("opening stats database: %w", err)
			}
			store, err := duckdb.Open(path)
			if err != nil {
				return err
			}
			defer store.Close()
			return runStats(store, cmd.OutOrStdout())
		},
	}

	cmd.Flags().String("stats-db", "", "DuckDB file written by the hyperparams command")
	return cmd
}

func runStats(store *duckdb.Store, out io.Writer) error {
	run, err := store.LatestRun()
	if err != nil {
		return err
	}
	if run == nil {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}

	fmt.Fprintf(out, "Run:                %s\n", run.ID)
	fmt.Fprintf(out, "Created:            %s\n", run.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Peaks:              %s (%d bytes)\n", run.Peaks.Path, run.Peaks.Size)
	fmt.Fprintf(out, "BigWig:             %s (%d bytes)\n", run.BigWig.Path, run.BigWig.Size)
	fmt.Fprintf(out, "Lengths:            input %d, output %d, jitter %d\n",
		run.Model.InputLen, run.Model.OutputLen, run.Model.MaxJitter)
	fmt.Fprintf(out, "Counts threshold:   %.2f\n", run.Data.CountsSumMaxThresh)
	fmt.Fprintf(out, "Counts loss weight: %.2f\n", run.Model.CountsLossWeight)
	fmt.Fprintf(out, "Training points:    %d\n", run.Data.TrainingPtsPostThresh)
	if run.LowDepth {
		fmt.Fprintln(out, "Warning: low depth, counts loss weight was clamped to 1.0")
	}

	summary, err := store.Summarize(run.ID)
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FOLD\tREGIONS\tKEPT\tMAX COUNTS\tMEDIAN COUNTS")
	for _, fs := range summary {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", fs.Fold, fs.Regions, fs.Kept,
			nullFloat(fs.MaxCounts.Valid, fs.MaxCounts.Float64),
			nullFloat(fs.Median.Valid, fs.Median.Float64))
	}
	return tw.Flush()
}

func nullFloat(valid bool, v float64) string {
	if !valid {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}
