package hyperparams

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"go.uber.org/zap"

	"github.com/inodb/biasprep/internal/loader"
	"github.com/inodb/biasprep/internal/region"
	"github.com/inodb/biasprep/internal/signal"
)

// ErrPrecondition marks input data that cannot produce usable training
// parameters.
var ErrPrecondition = errors.New("precondition failed")

// Default architecture parameters.
const (
	DefaultFilters        = 128
	DefaultDilationLayers = 4
	DefaultMaxJitter      = 50
)

// Output file suffixes appended to the output prefix.
const (
	FilteredPeaksSuffix = "filtered.bias_peaks.bed"
	DataParamsSuffix    = "bias_data_params.tsv"
	ModelParamsSuffix   = "bias_model_params.tsv"
)

// Options configures a hyperparameter search.
type Options struct {
	InputLen       int
	OutputLen      int
	MaxJitter      int
	Filters        int
	DilationLayers int
	ChrFoldPath    string
}

// Result is the outcome of Find.
type Result struct {
	// Regions is the filtered train+valid set followed by the filtered test set.
	Regions    region.Set
	TrainValid region.Set
	Test       region.Set
	Removed    region.Set

	// CountSums holds the summit window count sum of each TrainValid region.
	CountSums []float64
	LowDepth  bool

	Data  DataParams
	Model ModelParams
}

// Finder computes bias model thresholds and hyperparameters.
type Finder struct {
	signal signal.Provider
	logger *zap.Logger
}

// NewFinder creates a finder reading counts from sig.
func NewFinder(sig signal.Provider) *Finder {
	return &Finder{signal: sig, logger: zap.NewNop()}
}

// SetLogger sets the logger for progress and warning messages.
func (f *Finder) SetLogger(l *zap.Logger) {
	f.logger = l
}

// Find filters edge regions and derives count thresholds and the counts loss
// weight from the train and valid folds. Test regions are only filtered.
func (f *Finder) Find(ctx context.Context, opts Options, peaks region.Set, folds *region.FoldSplit) (*Result, error) {
	if len(peaks) == 0 {
		return nil, fmt.Errorf("peak set is empty: %w", ErrPrecondition)
	}
	if opts.InputLen < opts.OutputLen {
		return nil, fmt.Errorf("input length %d is smaller than output length %d: %w",
			opts.InputLen, opts.OutputLen, ErrPrecondition)
	}

	trainValidChroms := slices.Concat(folds.Train, folds.Valid)
	f.logger.Info("evaluating hyperparameters", zap.Strings("chroms", trainValidChroms))

	trainValid, removedTV := FilterEdgeRegions(peaks.FilterChroms(trainValidChroms), f.signal, opts.InputLen)
	test, removedTest := FilterEdgeRegions(peaks.FilterChroms(folds.Test), f.signal, opts.InputLen)
	removed := removedTV.Concat(removedTest)
	f.logger.Info("filtered edge regions",
		zap.Int("train_valid", len(trainValid)),
		zap.Int("test", len(test)),
		zap.Int("removed", len(removed)))

	sums, err := loader.CountSums(ctx, trainValid, f.signal, opts.OutputLen)
	if err != nil {
		return nil, fmt.Errorf("count sums: %w", err)
	}
	if len(sums) != len(trainValid) {
		return nil, fmt.Errorf("got %d count sums for %d regions: %w", len(sums), len(trainValid), ErrPrecondition)
	}
	if len(sums) == 0 {
		return nil, fmt.Errorf("no train or valid regions left after filtering: %w", ErrPrecondition)
	}

	upper := slices.Max(sums)
	if upper <= 0 {
		return nil, fmt.Errorf("counts threshold is %v, no usable signal: %w", upper, ErrPrecondition)
	}
	lower := 0.0

	weight := median(sums) / 10
	f.logger.Info("counts loss weight", zap.Float64("counts_loss_weight", weight))
	if weight == 0 {
		return nil, fmt.Errorf("counts loss weight is 0: %w", ErrPrecondition)
	}
	lowDepth := false
	if weight < 1.0 {
		weight = 1.0
		lowDepth = true
		f.logger.Warn("training on low-read depth data, counts loss weight clamped to 1.0")
	}

	pts := 0
	for _, s := range sums {
		if s < upper && s > lower {
			pts++
		}
	}

	return &Result{
		Regions:    trainValid.Concat(test),
		TrainValid: trainValid,
		Test:       test,
		Removed:    removed,
		CountSums:  sums,
		LowDepth:   lowDepth,
		Data: DataParams{
			CountsSumMinThresh:    lower,
			CountsSumMaxThresh:    upper,
			TrainingPtsPostThresh: pts,
		},
		Model: ModelParams{
			CountsLossWeight:      weight,
			Filters:               opts.Filters,
			NDilLayers:            opts.DilationLayers,
			InputLen:              opts.InputLen,
			OutputLen:             opts.OutputLen,
			MaxJitter:             opts.MaxJitter,
			ChrFoldPath:           opts.ChrFoldPath,
			NegativeSamplingRatio: 1.0,
		},
	}, nil
}

// median returns the median of v, averaging the middle pair for even lengths.
func median(v []float64) float64 {
	s := slices.Clone(v)
	slices.Sort(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// WriteOutputs writes the filtered region file and both parameter records
// under prefix.
func WriteOutputs(prefix string, res *Result) error {
	if err := region.WriteFile(prefix+FilteredPeaksSuffix, res.Regions); err != nil {
		return err
	}
	if err := writeRecord(prefix+DataParamsSuffix, res.Data); err != nil {
		return fmt.Errorf("write data params: %w", err)
	}
	if err := writeRecord(prefix+ModelParamsSuffix, res.Model); err != nil {
		return fmt.Errorf("write model params: %w", err)
	}
	return nil
}

func writeRecord(path string, rec io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := rec.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
