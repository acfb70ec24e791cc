package region

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// ReadFile reads a region file. Gzipped files are detected by magic bytes.
func ReadFile(path string) (Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open region file: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read region header: %w", err)
	}

	var r io.Reader = br
	// Check for gzip magic number (0x1f, 0x8b)
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	return Read(r)
}

// Read parses tab-separated region rows. Empty lines are skipped; any other
// row must carry exactly NumColumns fields.
func Read(r io.Reader) (Set, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var set Set
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		iv, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNumber, err)
		}
		set = append(set, iv)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan region file: %w", err)
	}
	return set, nil
}

func parseLine(line string) (Interval, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != NumColumns {
		return Interval{}, fmt.Errorf("expected %d columns, got %d", NumColumns, len(fields))
	}

	start, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Interval{}, fmt.Errorf("invalid start %q: %w", fields[1], err)
	}
	end, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return Interval{}, fmt.Errorf("invalid end %q: %w", fields[2], err)
	}
	summit, err := strconv.ParseInt(fields[9], 10, 64)
	if err != nil {
		return Interval{}, fmt.Errorf("invalid summit %q: %w", fields[9], err)
	}

	iv := Interval{
		Chrom:  fields[0],
		Start:  start,
		End:    end,
		Summit: summit,
	}
	copy(iv.Extra[:], fields[3:9])

	if err := iv.Validate(); err != nil {
		return Interval{}, err
	}
	return iv, nil
}
