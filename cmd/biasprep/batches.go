package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/biasprep/internal/batchgen"
	"github.com/inodb/biasprep/internal/genome"
	"github.com/inodb/biasprep/internal/hyperparams"
	"github.com/inodb/biasprep/internal/signal"
)

func newBatchesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batches",
		Short: "Generate training batches for a fold and report them per epoch",
		Long: `Load the peaks of one fold, crop and augment them the way the given mode does,
and walk every batch for the requested number of epochs, regenerating crops
between epochs. One summary line per batch is written as TSV.

Modes:
  train  stored lengths, full jitter, shuffled every epoch
  valid  stored lengths, no jitter, input order
  test   --inputlen/--outputlen, no jitter, input order`,
		Example: `  biasprep batches --mode train -g hg38.fa -i sample.bw -p output/sample_filtered.bias_peaks.bed \
    --params output/sample_bias_model_params.tsv --epochs 2 --seed 1234`,
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

			var out io.Writer = os.Stdout
			if path := viper.GetString("output"); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("creating output file: %w", err)
				}
				defer f.Close()
				out = f
			}
			return runBatches(cmd.Context(), logger, out)
		},
	}

	f := cmd.Flags()
	f.String("mode", "train", "Generator mode: train, valid or test")
	f.StringP("genome", "g", "", "Genome FASTA (indexed when a .fai file is present)")
	f.StringP("bigwig", "i", "", "BigWig signal track")
	f.StringP("peaks", "p", "", "10 column peak file, or \"none\"")
	f.String("params", "", "Model hyperparameter TSV written by the hyperparams command")
	f.String("chr-fold-path", "", "Fold JSON (default: chr_fold_path from --params)")
	f.Int("inputlen", 0, "Sequence input length (test mode)")
	f.Int("outputlen", 0, "Prediction output length (test mode)")
	f.Int("batch-size", 64, "Examples per batch")
	f.Int("epochs", 1, "Number of epochs to generate")
	f.Uint64("seed", 0, "Random seed for cropping and shuffling (0: random)")
	f.Bool("return-coords", false, "Include example coordinates in the report")
	f.StringP("output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runBatches(ctx context.Context, logger *zap.Logger, out io.Writer) error {
	mode, err := batchgen.ParseMode(viper.GetString("mode"))
	if err != nil {
		return err
	}

	var params *hyperparams.ModelParams
	if path := viper.GetString("params"); path != "" {
		raw, err := hyperparams.ReadParams(path)
		if err != nil {
			return err
		}
		params, err = hyperparams.ParseModelParams(raw)
		if err != nil {
			return err
		}
	} else if mode != batchgen.ModeTest {
		return fmt.Errorf("--params is required in %s mode", mode)
	}

	foldPath := viper.GetString("chr-fold-path")
	if foldPath == "" && params != nil {
		foldPath = params.ChrFoldPath
	}

	genomePath := viper.GetString("genome")
	bigwigPath := viper.GetString("bigwig")
	if genomePath == "" || bigwigPath == "" {
		return fmt.Errorf("--genome and --bigwig are required")
	}

	g, err := genome.Open(genomePath)
	if err != nil {
		return err
	}
	if c, ok := g.(io.Closer); ok {
		defer c.Close()
	}
	bw, err := signal.OpenBigWig(bigwigPath)
	if err != nil {
		return err
	}
	defer bw.Close()

	initializer := batchgen.NewInitializer(g, bw)
	initializer.SetLogger(logger)

	opts := batchgen.Options{
		PeaksPath:    viper.GetString("peaks"),
		FoldPath:     foldPath,
		BatchSize:    viper.GetInt("batch-size"),
		ReturnCoords: viper.GetBool("return-coords"),
		InputLen:     viper.GetInt("inputlen"),
		OutputLen:    viper.GetInt("outputlen"),
	}
	gen, err := initializer.Initialize(ctx, opts, mode, params, newRand(viper.GetUint64("seed")))
	if err != nil {
		return err
	}

	return writeEpochs(ctx, gen, viper.GetInt("epochs"), out, logger)
}

// writeEpochs drives the generator like a training loop: every batch of an
// epoch is requested in order and crops are regenerated between epochs.
func writeEpochs(ctx context.Context, gen *batchgen.Generator, epochs int, out io.Writer, logger *zap.Logger) error {
	w := bufio.NewWriter(out)
	header := []string{"epoch", "batch", "examples", "mean_log_counts"}
	if gen.Config().ReturnCoords {
		header = append(header, "coords")
	}
	if _, err := w.WriteString(strings.Join(header, "\t") + "\n"); err != nil {
		return err
	}

	for epoch := range epochs {
		if epoch > 0 {
			if err := gen.Regenerate(); err != nil {
				return err
			}
		}
		for i := range gen.Len() {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, err := gen.Item(i)
			if err != nil {
				return err
			}
			if _, err := w.WriteString(formatBatch(epoch, i, b) + "\n"); err != nil {
				return err
			}
		}
		logger.Info("epoch complete",
			zap.Int("epoch", epoch),
			zap.Int("batches", gen.Len()),
			zap.Int("examples", gen.Size()))
	}
	return w.Flush()
}

func formatBatch(epoch, idx int, b *batchgen.Batch) string {
	var mean float64
	for _, v := range b.LogCounts {
		mean += float64(v)
	}
	if b.Len() > 0 {
		mean /= float64(b.Len())
	}

	values := []string{
		strconv.Itoa(epoch),
		strconv.Itoa(idx),
		strconv.Itoa(b.Len()),
		strconv.FormatFloat(mean, 'f', 4, 64),
	}
	if b.Coords != nil {
		coords := make([]string, len(b.Coords))
		for i, c := range b.Coords {
			coords[i] = fmt.Sprintf("%s:%d:%c", c.Chrom, c.Center, c.Strand)
		}
		values = append(values, strings.Join(coords, ","))
	}
	return strings.Join(values, "\t")
}
