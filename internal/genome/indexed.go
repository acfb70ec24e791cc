package genome

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/biogo/hts/fai"
)

// Indexed reads sequence ranges from an uncompressed FASTA file using its
// samtools faidx index. Close releases the underlying file.
type Indexed struct {
	file     *os.File
	idx      fai.Index
	fasta    *fai.File
	seqNames []string
}

// OpenIndexed opens fastaPath for random access using the index at faiPath.
func OpenIndexed(fastaPath, faiPath string) (*Indexed, error) {
	idxFile, err := os.Open(faiPath)
	if err != nil {
		return nil, fmt.Errorf("open FASTA index: %w", err)
	}
	defer idxFile.Close()

	idx, err := fai.ReadFrom(idxFile)
	if err != nil {
		return nil, fmt.Errorf("read FASTA index: %w", err)
	}

	f, err := os.Open(fastaPath)
	if err != nil {
		return nil, fmt.Errorf("open FASTA file: %w", err)
	}

	names := make([]string, 0, len(idx))
	for name := range idx {
		names = append(names, name)
	}
	// Index order is file order.
	sort.Slice(names, func(i, j int) bool {
		return idx[names[i]].Start < idx[names[j]].Start
	})

	return &Indexed{
		file:     f,
		idx:      idx,
		fasta:    fai.NewFile(f, idx),
		seqNames: names,
	}, nil
}

// Get implements Provider.
func (g *Indexed) Get(chrom string, start, end int64) (string, error) {
	rec, ok := g.idx[chrom]
	if !ok {
		return "", fmt.Errorf("sequence not found: %s", chrom)
	}
	if err := checkRange(chrom, start, end, int64(rec.Length)); err != nil {
		return "", err
	}

	r, err := g.fasta.SeqRange(chrom, int(start), int(end))
	if err != nil {
		return "", fmt.Errorf("seek %s:%d-%d: %w", chrom, start, end, err)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read %s:%d-%d: %w", chrom, start, end, err)
	}
	return string(b), nil
}

// Len implements Provider.
func (g *Indexed) Len(chrom string) (int64, error) {
	rec, ok := g.idx[chrom]
	if !ok {
		return 0, fmt.Errorf("sequence not found: %s", chrom)
	}
	return int64(rec.Length), nil
}

// SeqNames implements Provider.
func (g *Indexed) SeqNames() []string {
	return g.seqNames
}

// Close closes the FASTA file.
func (g *Indexed) Close() error {
	return g.file.Close()
}
