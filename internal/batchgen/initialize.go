package batchgen

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/biasprep/internal/genome"
	"github.com/inodb/biasprep/internal/hyperparams"
	"github.com/inodb/biasprep/internal/loader"
	"github.com/inodb/biasprep/internal/region"
	"github.com/inodb/biasprep/internal/signal"
)

// Options locates the inputs of a generator.
type Options struct {
	// PeaksPath is the region file; "" or "none" yields an empty generator.
	PeaksPath    string
	FoldPath     string
	BatchSize    int
	ReturnCoords bool

	// Test mode lengths.
	InputLen  int
	OutputLen int
}

// Initializer builds generators for a mode from region, fold, genome and
// signal inputs.
type Initializer struct {
	genome genome.Provider
	signal signal.Provider
	logger *zap.Logger
}

// NewInitializer creates an initializer over the given providers.
func NewInitializer(g genome.Provider, sig signal.Provider) *Initializer {
	return &Initializer{genome: g, signal: sig, logger: zap.NewNop()}
}

// SetLogger sets the logger for progress messages.
func (in *Initializer) SetLogger(l *zap.Logger) {
	in.logger = l
}

// Initialize loads the regions of mode's fold and returns a generator over
// them. params may be nil in test mode.
func (in *Initializer) Initialize(ctx context.Context, opts Options, mode Mode,
	params *hyperparams.ModelParams, rng *rand.Rand) (*Generator, error) {

	cfg, err := ModeConfig(mode, params, opts.InputLen, opts.OutputLen)
	if err != nil {
		return nil, err
	}
	cfg.BatchSize = opts.BatchSize
	cfg.ReturnCoords = opts.ReturnCoords

	var peaks region.Set
	if opts.PeaksPath != "" && strings.ToLower(opts.PeaksPath) != "none" {
		folds, err := region.LoadFoldSplit(opts.FoldPath)
		if err != nil {
			return nil, err
		}

		in.logger.Info("loading peaks", zap.String("path", opts.PeaksPath))
		all, err := region.ReadFile(opts.PeaksPath)
		if err != nil {
			return nil, err
		}
		peaks, err = folds.Select(all, mode.Fold())
		if err != nil {
			return nil, err
		}
		in.logger.Info("got split for peak regions",
			zap.Stringer("mode", mode),
			zap.Int("regions", len(peaks)))
	}

	if len(peaks) == 0 {
		in.logger.Warn("peak set is empty", zap.Stringer("mode", mode))
	}

	data, err := loader.Load(ctx, peaks, in.genome, in.signal, cfg.InputLen, cfg.OutputLen, cfg.MaxJitter)
	if err != nil {
		return nil, fmt.Errorf("load %s data: %w", mode, err)
	}

	gen, err := New(data, cfg, rng)
	if err != nil {
		return nil, fmt.Errorf("create %s generator: %w", mode, err)
	}
	in.logger.Info("generator ready",
		zap.Stringer("mode", mode),
		zap.Int("examples", gen.Size()),
		zap.Int("batches", gen.Len()))
	return gen, nil
}
