package batchgen

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/inodb/biasprep/internal/augment"
	"github.com/inodb/biasprep/internal/genome"
	"github.com/inodb/biasprep/internal/signal"
)

// Batch is one contiguous slice of the current epoch's examples.
type Batch struct {
	Seqs   []genome.OneHot
	Counts [][]float32
	// LogCounts is log(1 + sum(counts)) per example.
	LogCounts []float32
	// Coords is nil unless the generator was configured to return them.
	Coords []augment.Coord
}

// Len returns the number of examples in the batch.
func (b *Batch) Len() int {
	return len(b.Seqs)
}

// Generator holds a mode's full-width examples in memory and serves batches
// of the current epoch's crops. It is not safe for concurrent use.
type Generator struct {
	full *augment.Data
	cur  *augment.Data
	cfg  Config
	rng  *rand.Rand
}

// New creates a generator over data, whose sequences and count vectors are
// cfg.MaxJitter wider than the model lengths on each side, and draws the
// first epoch's crops.
func New(data *augment.Data, cfg Config, rng *rand.Rand) (*Generator, error) {
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", cfg.BatchSize)
	}
	if cfg.InputLen < cfg.OutputLen {
		return nil, fmt.Errorf("input length %d is smaller than output length %d", cfg.InputLen, cfg.OutputLen)
	}
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if data == nil {
		data = &augment.Data{}
	}
	if err := checkWidths(data, cfg); err != nil {
		return nil, err
	}

	g := &Generator{full: data, cfg: cfg, rng: rng}
	if err := g.Regenerate(); err != nil {
		return nil, err
	}
	return g, nil
}

// checkWidths requires every example to carry exactly cfg.MaxJitter extra
// bases and count values on each side, so the crop offset range matches the
// configured jitter.
func checkWidths(data *augment.Data, cfg Config) error {
	seqWidth := cfg.InputLen + 2*cfg.MaxJitter
	ctsWidth := cfg.OutputLen + 2*cfg.MaxJitter
	for i := range data.Seqs {
		if len(data.Seqs[i]) != seqWidth {
			return fmt.Errorf("example %d: sequence width %d, want %d (inputlen %d, jitter %d)",
				i, len(data.Seqs[i]), seqWidth, cfg.InputLen, cfg.MaxJitter)
		}
		if i < len(data.Counts) && len(data.Counts[i]) != ctsWidth {
			return fmt.Errorf("example %d: count width %d, want %d (outputlen %d, jitter %d)",
				i, len(data.Counts[i]), ctsWidth, cfg.OutputLen, cfg.MaxJitter)
		}
	}
	return nil
}

// Regenerate draws new crop offsets and, when configured, reverse-complement
// copies and a new order. Call it between epochs.
func (g *Generator) Regenerate() error {
	cur, err := augment.CropRevcompAugment(g.rng, g.full, g.cfg.InputLen, g.cfg.OutputLen,
		g.cfg.AddRevcomp, g.cfg.Shuffle)
	if err != nil {
		return fmt.Errorf("regenerate epoch: %w", err)
	}
	g.cur = cur
	return nil
}

// Config returns the generator configuration.
func (g *Generator) Config() Config {
	return g.cfg
}

// Size returns the number of examples in the current epoch.
func (g *Generator) Size() int {
	return g.cur.Len()
}

// Len returns the number of batches per epoch. The last batch may be short.
func (g *Generator) Len() int {
	return (g.cur.Len() + g.cfg.BatchSize - 1) / g.cfg.BatchSize
}

// Item returns batch idx of the current epoch.
func (g *Generator) Item(idx int) (*Batch, error) {
	if idx < 0 || idx >= g.Len() {
		return nil, fmt.Errorf("batch index %d out of range [0, %d)", idx, g.Len())
	}
	lo := idx * g.cfg.BatchSize
	hi := min(lo+g.cfg.BatchSize, g.cur.Len())

	b := &Batch{
		Seqs:      g.cur.Seqs[lo:hi],
		Counts:    g.cur.Counts[lo:hi],
		LogCounts: make([]float32, hi-lo),
	}
	for i, cts := range b.Counts {
		b.LogCounts[i] = float32(math.Log1p(signal.Sum(cts)))
	}
	if g.cfg.ReturnCoords {
		b.Coords = g.cur.Coords[lo:hi]
	}
	return b, nil
}
