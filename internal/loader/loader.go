// Package loader extracts one-hot sequence windows and per-base count
// vectors centered on region summits.
package loader

import (
	"context"
	"fmt"

	"github.com/inodb/biasprep/internal/augment"
	"github.com/inodb/biasprep/internal/genome"
	"github.com/inodb/biasprep/internal/region"
	"github.com/inodb/biasprep/internal/signal"
)

// Window returns the half-open interval of width bases centered at center,
// widened by jitter on both sides.
func Window(center int64, width, jitter int) (start, end int64) {
	start = center - int64(width/2) - int64(jitter)
	end = start + int64(width) + 2*int64(jitter)
	return start, end
}

// Load extracts, for every interval in order, a sequence window of
// inputlen+2*maxJitter bases and a count vector of outputlen+2*maxJitter
// values, both centered at the summit. NaN counts become zero.
func Load(ctx context.Context, set region.Set, g genome.Provider, sig signal.Provider,
	inputlen, outputlen, maxJitter int) (*augment.Data, error) {

	data := &augment.Data{
		Seqs:   make([]genome.OneHot, 0, len(set)),
		Counts: make([][]float32, 0, len(set)),
		Coords: make([]augment.Coord, 0, len(set)),
	}

	for _, iv := range set {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		center := iv.Center()

		start, end := Window(center, inputlen, maxJitter)
		seq, err := g.Get(iv.Chrom, start, end)
		if err != nil {
			return nil, fmt.Errorf("load sequence %s:%d: %w", iv.Chrom, center, err)
		}

		start, end = Window(center, outputlen, maxJitter)
		cts, err := sig.Values(iv.Chrom, start, end)
		if err != nil {
			return nil, fmt.Errorf("load counts %s:%d: %w", iv.Chrom, center, err)
		}

		data.Seqs = append(data.Seqs, genome.Encode(seq))
		data.Counts = append(data.Counts, signal.NaNToZero(cts))
		data.Coords = append(data.Coords, augment.Coord{
			Chrom:  iv.Chrom,
			Center: center,
			Strand: augment.StrandForward,
		})
	}

	if data.Len() != len(set) || len(data.Counts) != len(set) {
		return nil, fmt.Errorf("loaded %d sequences and %d count vectors for %d regions",
			data.Len(), len(data.Counts), len(set))
	}
	return data, nil
}

// CountSums returns the total signal in the outputlen window at each
// interval's summit, in interval order.
func CountSums(ctx context.Context, set region.Set, sig signal.Provider, outputlen int) ([]float64, error) {
	sums := make([]float64, 0, len(set))
	for _, iv := range set {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start, end := Window(iv.Center(), outputlen, 0)
		cts, err := sig.Values(iv.Chrom, start, end)
		if err != nil {
			return nil, fmt.Errorf("load counts %s:%d: %w", iv.Chrom, iv.Center(), err)
		}
		sums = append(sums, signal.Sum(signal.NaNToZero(cts)))
	}
	return sums, nil
}
