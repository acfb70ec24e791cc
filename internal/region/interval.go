// Package region provides genomic interval sets read from 10-column
// narrowPeak-style BED files and their chromosome fold splits.
package region

import "fmt"

// NumColumns is the number of tab-separated columns in a region file.
const NumColumns = 10

// Interval is one row of a region file. Sequences and labels are extracted
// centered at Start + Summit.
type Interval struct {
	Chrom  string
	Start  int64
	End    int64
	Extra  [6]string // columns 4-9, carried through unchanged
	Summit int64
}

// Center returns the absolute genomic position of the summit.
func (iv Interval) Center() int64 {
	return iv.Start + iv.Summit
}

// Validate checks that end > start and the summit lies within the interval.
func (iv Interval) Validate() error {
	if iv.End <= iv.Start {
		return fmt.Errorf("interval %s:%d-%d: end must be greater than start", iv.Chrom, iv.Start, iv.End)
	}
	if iv.Summit < 0 || iv.Summit >= iv.End-iv.Start {
		return fmt.Errorf("interval %s:%d-%d: summit offset %d outside [0, %d)",
			iv.Chrom, iv.Start, iv.End, iv.Summit, iv.End-iv.Start)
	}
	return nil
}

// Set is an ordered collection of intervals.
type Set []Interval

// FilterChroms returns the intervals whose chromosome is in chroms, in input order.
func (s Set) FilterChroms(chroms []string) Set {
	keep := make(map[string]bool, len(chroms))
	for _, c := range chroms {
		keep[c] = true
	}
	var out Set
	for _, iv := range s {
		if keep[iv.Chrom] {
			out = append(out, iv)
		}
	}
	return out
}

// Concat returns a new set holding s followed by each of others.
func (s Set) Concat(others ...Set) Set {
	n := len(s)
	for _, o := range others {
		n += len(o)
	}
	out := make(Set, 0, n)
	out = append(out, s...)
	for _, o := range others {
		out = append(out, o...)
	}
	return out
}
