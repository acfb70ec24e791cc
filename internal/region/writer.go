package region

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Writer writes intervals in the 10-column tab-separated format, no header.
type Writer struct {
	w *bufio.Writer
}

// NewWriter creates a new region writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write writes a single interval.
func (rw *Writer) Write(iv Interval) error {
	values := make([]string, 0, NumColumns)
	values = append(values,
		iv.Chrom,
		strconv.FormatInt(iv.Start, 10),
		strconv.FormatInt(iv.End, 10),
	)
	values = append(values, iv.Extra[:]...)
	values = append(values, strconv.FormatInt(iv.Summit, 10))

	_, err := rw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data.
func (rw *Writer) Flush() error {
	return rw.w.Flush()
}

// WriteFile writes the whole set to path.
func WriteFile(path string, set Set) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create region file: %w", err)
	}

	w := NewWriter(f)
	for _, iv := range set {
		if err := w.Write(iv); err != nil {
			f.Close()
			return fmt.Errorf("write region: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush region file: %w", err)
	}
	return f.Close()
}
