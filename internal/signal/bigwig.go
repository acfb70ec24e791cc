package signal

import (
	"fmt"
	"math"
	"os"
	"regexp"

	"github.com/pbenner/gonetics"
)

// BigWig reads per-base values from a BigWig file.
type BigWig struct {
	file    *os.File
	reader  *gonetics.BigWigReader
	lengths map[string]int64
}

// OpenBigWig opens a BigWig file and reads its chromosome list.
func OpenBigWig(path string) (*BigWig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bigwig file: %w", err)
	}

	bwr, err := gonetics.NewBigWigReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read bigwig header: %w", err)
	}

	lengths := make(map[string]int64, len(bwr.Genome.Seqnames))
	for i, name := range bwr.Genome.Seqnames {
		lengths[name] = int64(bwr.Genome.Lengths[i])
	}

	return &BigWig{file: f, reader: bwr, lengths: lengths}, nil
}

// ContigLength implements Provider.
func (b *BigWig) ContigLength(chrom string) (int64, bool) {
	n, ok := b.lengths[chrom]
	return n, ok
}

// Values implements Provider. Bases without coverage come back as NaN.
func (b *BigWig) Values(chrom string, start, end int64) ([]float32, error) {
	n, ok := b.lengths[chrom]
	if !ok {
		return nil, fmt.Errorf("contig not found: %s", chrom)
	}
	if start < 0 || end > n || end <= start {
		return nil, fmt.Errorf("invalid query range %d - %d for contig %s with length %d",
			start, end, chrom, n)
	}

	// The reader matches sequence names as a regular expression.
	values, _, err := b.reader.QuerySlice(regexp.QuoteMeta(chrom), int(start), int(end),
		gonetics.BinMean, 1, 0, math.NaN())
	if err != nil {
		return nil, fmt.Errorf("query %s:%d-%d: %w", chrom, start, end, err)
	}
	if int64(len(values)) != end-start {
		return nil, fmt.Errorf("query %s:%d-%d: got %d values, want %d",
			chrom, start, end, len(values), end-start)
	}

	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out, nil
}

// Close closes the underlying file.
func (b *BigWig) Close() error {
	return b.file.Close()
}
