// Package augment crops jittered training windows to model size and applies
// reverse-complement and shuffle augmentation.
package augment

import (
	"fmt"
	"math/rand/v2"

	"github.com/inodb/biasprep/internal/genome"
)

// Strand marks whether an example is in reference or reverse-complement orientation.
const (
	StrandForward = '+'
	StrandReverse = '-'
)

// Coord is the origin of an example: the center of its window on the genome.
type Coord struct {
	Chrom  string
	Center int64
	Strand byte
}

// Data holds parallel example slices. All three have the same length and
// index i of each describes the same example.
type Data struct {
	Seqs   []genome.OneHot
	Counts [][]float32
	Coords []Coord
}

// Len returns the number of examples.
func (d *Data) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Seqs)
}

func (d *Data) validate() error {
	if len(d.Counts) != len(d.Seqs) || len(d.Coords) != len(d.Seqs) {
		return fmt.Errorf("mismatched example slices: %d sequences, %d count vectors, %d coords",
			len(d.Seqs), len(d.Counts), len(d.Coords))
	}
	return nil
}

// RandomCrop crops every example to inputlen bases of sequence and outputlen
// count values. Sequence and counts must both be wider than the target by
// the same margin 2*J; one offset in [0, 2*J] is drawn per example and
// applied to both. With J = 0 no random numbers are drawn.
//
// Cropped slices share memory with data.
func RandomCrop(rng *rand.Rand, data *Data, inputlen, outputlen int) (*Data, error) {
	if err := data.validate(); err != nil {
		return nil, err
	}
	n := data.Len()
	out := &Data{
		Seqs:   make([]genome.OneHot, n),
		Counts: make([][]float32, n),
		Coords: make([]Coord, n),
	}
	if n == 0 {
		return out, nil
	}

	maxStart := len(data.Seqs[0]) - inputlen
	if maxStart < 0 {
		return nil, fmt.Errorf("sequence width %d smaller than input length %d", len(data.Seqs[0]), inputlen)
	}
	jitter := int64(maxStart / 2)

	for i := range n {
		seq, cts := data.Seqs[i], data.Counts[i]
		if len(seq)-inputlen != maxStart || len(cts)-outputlen != maxStart {
			return nil, fmt.Errorf("example %d: sequence width %d and count width %d do not share a %d base margin",
				i, len(seq), len(cts), maxStart)
		}

		o := 0
		if maxStart > 0 {
			o = rng.IntN(maxStart + 1)
		}
		out.Seqs[i] = seq[o : o+inputlen]
		out.Counts[i] = cts[o : o+outputlen]

		c := data.Coords[i]
		c.Center += int64(o) - jitter
		out.Coords[i] = c
	}
	return out, nil
}

// ReverseCounts returns a reversed copy of counts.
func ReverseCounts(counts []float32) []float32 {
	n := len(counts)
	out := make([]float32, n)
	for i, v := range counts {
		out[n-1-i] = v
	}
	return out
}

// Augment optionally appends a reverse-complement copy of every example
// after the originals, then optionally shuffles the combined set uniformly.
// Without shuffle the input order is kept.
func Augment(rng *rand.Rand, data *Data, addRevcomp, shuffle bool) (*Data, error) {
	if err := data.validate(); err != nil {
		return nil, err
	}
	n := data.Len()
	size := n
	if addRevcomp {
		size *= 2
	}

	out := &Data{
		Seqs:   make([]genome.OneHot, 0, size),
		Counts: make([][]float32, 0, size),
		Coords: make([]Coord, 0, size),
	}
	out.Seqs = append(out.Seqs, data.Seqs...)
	out.Counts = append(out.Counts, data.Counts...)
	out.Coords = append(out.Coords, data.Coords...)

	if addRevcomp {
		for i := range n {
			out.Seqs = append(out.Seqs, genome.ReverseComplement(data.Seqs[i]))
			out.Counts = append(out.Counts, ReverseCounts(data.Counts[i]))
			c := data.Coords[i]
			c.Strand = StrandReverse
			out.Coords = append(out.Coords, c)
		}
	}

	if shuffle {
		rng.Shuffle(out.Len(), func(i, j int) {
			out.Seqs[i], out.Seqs[j] = out.Seqs[j], out.Seqs[i]
			out.Counts[i], out.Counts[j] = out.Counts[j], out.Counts[i]
			out.Coords[i], out.Coords[j] = out.Coords[j], out.Coords[i]
		})
	}
	return out, nil
}

// CropRevcompAugment runs RandomCrop followed by Augment.
func CropRevcompAugment(rng *rand.Rand, data *Data, inputlen, outputlen int, addRevcomp, shuffle bool) (*Data, error) {
	cropped, err := RandomCrop(rng, data, inputlen, outputlen)
	if err != nil {
		return nil, fmt.Errorf("crop: %w", err)
	}
	return Augment(rng, cropped, addRevcomp, shuffle)
}
