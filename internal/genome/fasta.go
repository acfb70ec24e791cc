// Package genome provides reference sequence lookup and one-hot encoding of
// sequence windows.
package genome

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Provider returns reference sequence by chromosome name.
type Provider interface {
	// Get returns the bases of chrom in the 0-based half-open interval
	// [start, end). It fails when the range falls outside the sequence.
	Get(chrom string, start, end int64) (string, error)

	// Len returns the length of chrom.
	Len(chrom string) (int64, error)

	// SeqNames returns the sequence names in file order.
	SeqNames() []string
}

// Open opens a FASTA file. When an uncompressed FASTA has a samtools .fai
// index next to it, sequences are read on demand; otherwise the whole file is
// loaded into memory.
func Open(path string) (Provider, error) {
	if !strings.HasSuffix(path, ".gz") {
		if _, err := os.Stat(path + ".fai"); err == nil {
			return OpenIndexed(path, path+".fai")
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open FASTA file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f

	// Handle gzipped files
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	return NewInMemory(reader)
}

type inMemory struct {
	seqs     map[string]string
	seqNames []string
}

// NewInMemory reads all FASTA records from r. Sequence names stop at the
// first space after '>'.
func NewInMemory(r io.Reader) (Provider, error) {
	g := &inMemory{seqs: make(map[string]string)}

	scanner := bufio.NewScanner(r)
	// Chromosome-sized lines are possible in unwrapped FASTA.
	scanner.Buffer(make([]byte, 0, 64*1024), 512*1024*1024)

	var name string
	var seq strings.Builder
	flush := func() {
		if name == "" {
			return
		}
		g.seqs[name] = seq.String()
		g.seqNames = append(g.seqNames, name)
		seq.Reset()
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		if line[0] == '>' {
			flush()
			fields := strings.Fields(line[1:])
			if len(fields) == 0 {
				return nil, fmt.Errorf("malformed FASTA: empty header")
			}
			name = fields[0]
			continue
		}
		if name == "" {
			return nil, fmt.Errorf("malformed FASTA: sequence data before first header")
		}
		seq.WriteString(strings.TrimSpace(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan FASTA: %w", err)
	}
	flush()

	return g, nil
}

func (g *inMemory) Get(chrom string, start, end int64) (string, error) {
	s, ok := g.seqs[chrom]
	if !ok {
		return "", fmt.Errorf("sequence not found: %s", chrom)
	}
	if err := checkRange(chrom, start, end, int64(len(s))); err != nil {
		return "", err
	}
	return s[start:end], nil
}

func (g *inMemory) Len(chrom string) (int64, error) {
	s, ok := g.seqs[chrom]
	if !ok {
		return 0, fmt.Errorf("sequence not found: %s", chrom)
	}
	return int64(len(s)), nil
}

func (g *inMemory) SeqNames() []string {
	return g.seqNames
}

func checkRange(chrom string, start, end, length int64) error {
	if end <= start {
		return fmt.Errorf("invalid query range %d - %d: start must be less than end", start, end)
	}
	if start < 0 || end > length {
		return fmt.Errorf("invalid query range %d - %d for sequence %s with length %d",
			start, end, chrom, length)
	}
	return nil
}
