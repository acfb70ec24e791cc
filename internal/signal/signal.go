// Package signal provides per-base signal tracks such as BigWig coverage.
package signal

import (
	"fmt"
	"math"
)

// Provider returns per-base values and contig lengths of a signal track.
type Provider interface {
	// ContigLength reports the length of chrom and whether the track knows it.
	ContigLength(chrom string) (int64, bool)

	// Values returns one value per base in [start, end). Positions without
	// data may be NaN.
	Values(chrom string, start, end int64) ([]float32, error)
}

// Track is an in-memory Provider holding a dense vector per contig.
type Track map[string][]float32

// ContigLength implements Provider.
func (t Track) ContigLength(chrom string) (int64, bool) {
	v, ok := t[chrom]
	return int64(len(v)), ok
}

// Values implements Provider.
func (t Track) Values(chrom string, start, end int64) ([]float32, error) {
	v, ok := t[chrom]
	if !ok {
		return nil, fmt.Errorf("contig not found: %s", chrom)
	}
	if start < 0 || end > int64(len(v)) || end <= start {
		return nil, fmt.Errorf("invalid query range %d - %d for contig %s with length %d",
			start, end, chrom, len(v))
	}
	out := make([]float32, end-start)
	copy(out, v[start:end])
	return out, nil
}

// NaNToZero replaces NaN values in v with zero, in place.
func NaNToZero(v []float32) []float32 {
	for i, x := range v {
		if math.IsNaN(float64(x)) {
			v[i] = 0
		}
	}
	return v
}

// Sum adds v up in float64.
func Sum(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x)
	}
	return s
}
