package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/biasprep/internal/duckdb"
	"github.com/inodb/biasprep/internal/hyperparams"
	"github.com/inodb/biasprep/internal/region"
	"github.com/inodb/biasprep/internal/signal"
)

func newHyperparamsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hyperparams",
		Short: "Find count thresholds and hyperparameters for bias model training",
		Long: `Filter peaks too close to contig edges, derive count thresholds and the counts
loss weight from the train and valid folds, and write the filtered peak set and
parameter records under the output prefix:

  <prefix>filtered.bias_peaks.bed
  <prefix>bias_data_params.tsv
  <prefix>bias_model_params.tsv`,
		Example: `  biasprep hyperparams -i sample.bw -p peaks.bed --chr-fold-path fold_0.json \
    --inputlen 2114 --outputlen 1000 -o output/sample_`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(cmd); err != nil {
				return err
			}
			logger, err := newLogger()
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			defer logger.Sync() //nolint:errcheck
			return runHyperparams(cmd.Context(), logger)
		},
	}

	f := cmd.Flags()
	f.StringP("bigwig", "i", "", "BigWig signal track")
	f.StringP("peaks", "p", "", "10 column peak file; windows are centered at start (col 2) + summit (col 10)")
	f.String("chr-fold-path", "", "Fold JSON with train, valid and test chromosome lists")
	f.IntP("max-jitter", "j", hyperparams.DefaultMaxJitter, "Maximum jitter applied on either side of a region")
	f.Int("inputlen", 0, "Sequence input length")
	f.Int("outputlen", 0, "Prediction output length")
	f.Int("filters", hyperparams.DefaultFilters, "Number of convolution filters")
	f.Int("n-dilation-layers", hyperparams.DefaultDilationLayers, "Number of dilated convolution layers")
	f.StringP("output-prefix", "o", "", "Prefix for the output files")
	f.String("stats-db", "", "DuckDB file to record per-region count sums (optional)")

	return cmd
}

func runHyperparams(ctx context.Context, logger *zap.Logger) error {
	opts := hyperparams.Options{
		InputLen:       viper.GetInt("inputlen"),
		OutputLen:      viper.GetInt("outputlen"),
		MaxJitter:      viper.GetInt("max-jitter"),
		Filters:        viper.GetInt("filters"),
		DilationLayers: viper.GetInt("n-dilation-layers"),
		ChrFoldPath:    viper.GetString("chr-fold-path"),
	}
	bigwigPath := viper.GetString("bigwig")
	peaksPath := viper.GetString("peaks")
	prefix := viper.GetString("output-prefix")

	for _, req := range []struct{ name, value string }{
		{"bigwig", bigwigPath},
		{"peaks", peaksPath},
		{"chr-fold-path", opts.ChrFoldPath},
		{"output-prefix", prefix},
	} {
		if req.value == "" {
			return fmt.Errorf("--%s is required", req.name)
		}
	}
	if opts.InputLen <= 0 || opts.OutputLen <= 0 {
		return fmt.Errorf("--inputlen and --outputlen must be positive")
	}

	folds, err := region.LoadFoldSplit(opts.ChrFoldPath)
	if err != nil {
		return err
	}
	peaks, err := region.ReadFile(peaksPath)
	if err != nil {
		return err
	}
	bw, err := signal.OpenBigWig(bigwigPath)
	if err != nil {
		return err
	}
	defer bw.Close()

	finder := hyperparams.NewFinder(bw)
	finder.SetLogger(logger)

	res, err := finder.Find(ctx, opts, peaks, folds)
	if err != nil {
		return err
	}
	if err := hyperparams.WriteOutputs(prefix, res); err != nil {
		return err
	}
	logger.Info("wrote hyperparameters",
		zap.String("prefix", prefix),
		zap.Int("regions", len(res.Regions)),
		zap.Float64("counts_loss_weight", res.Model.CountsLossWeight),
		zap.Float64("counts_sum_max_thresh", res.Data.CountsSumMaxThresh))

	if dbPath := viper.GetString("stats-db"); dbPath != "" {
		if err := recordRun(dbPath, peaksPath, bigwigPath, res, folds); err != nil {
			return err
		}
		logger.Info("recorded run statistics", zap.String("db", dbPath))
	}
	return nil
}

func recordRun(dbPath, peaksPath, bigwigPath string, res *hyperparams.Result, folds *region.FoldSplit) error {
	peaksFP, err := duckdb.StatFile(peaksPath)
	if err != nil {
		return fmt.Errorf("stat peaks: %w", err)
	}
	bigwigFP, err := duckdb.StatFile(bigwigPath)
	if err != nil {
		return fmt.Errorf("stat bigwig: %w", err)
	}

	store, err := duckdb.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	run := duckdb.NewRun(peaksFP, bigwigFP, res)
	return store.WriteRun(run, duckdb.RegionCounts(res, folds))
}
