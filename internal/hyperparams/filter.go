// Package hyperparams derives count thresholds and model hyperparameters for
// bias model training from a peak set and its signal track.
package hyperparams

import (
	"github.com/inodb/biasprep/internal/loader"
	"github.com/inodb/biasprep/internal/region"
)

// ContigLengths reports contig lengths known to a signal track.
type ContigLengths interface {
	ContigLength(chrom string) (int64, bool)
}

// FilterEdgeRegions drops intervals whose half-open window of width bases
// around the summit, as the loader extracts it, does not fit on the contig:
// start below zero, end past the contig length, or a contig the track does
// not know. It never fails.
func FilterEdgeRegions(set region.Set, contigs ContigLengths, width int) (kept, removed region.Set) {
	for _, iv := range set {
		size, ok := contigs.ContigLength(iv.Chrom)
		start, end := loader.Window(iv.Center(), width, 0)
		if !ok || start < 0 || end > size {
			removed = append(removed, iv)
			continue
		}
		kept = append(kept, iv)
	}
	return kept, removed
}
