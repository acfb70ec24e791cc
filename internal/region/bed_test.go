package region

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBED = "chr1\t100\t600\t.\t0\t.\t12.5\t-1\t3.2\t250\n" +
	"chr2\t1000\t1400\tpeak2\t10\t+\t8.1\t-1\t2.0\t199\n"

func TestRead(t *testing.T) {
	set, err := Read(strings.NewReader(sampleBED))
	require.NoError(t, err)
	require.Len(t, set, 2)

	assert.Equal(t, "chr1", set[0].Chrom)
	assert.Equal(t, int64(100), set[0].Start)
	assert.Equal(t, int64(600), set[0].End)
	assert.Equal(t, int64(250), set[0].Summit)
	assert.Equal(t, int64(350), set[0].Center())
	assert.Equal(t, [6]string{"peak2", "10", "+", "8.1", "-1", "2.0"}, set[1].Extra)
}

func TestRead_SkipsEmptyLines(t *testing.T) {
	set, err := Read(strings.NewReader("\n" + sampleBED + "\n"))
	require.NoError(t, err)
	assert.Len(t, set, 2)
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"too few columns", "chr1\t100\t600\n"},
		{"bad start", "chr1\tx\t600\t.\t0\t.\t0\t0\t0\t10\n"},
		{"bad summit", "chr1\t100\t600\t.\t0\t.\t0\t0\t0\tx\n"},
		{"end before start", "chr1\t600\t100\t.\t0\t.\t0\t0\t0\t10\n"},
		{"summit outside", "chr1\t100\t600\t.\t0\t.\t0\t0\t0\t500\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.line))
			assert.Error(t, err)
		})
	}
}

func TestWriteRoundTrip(t *testing.T) {
	set, err := Read(strings.NewReader(sampleBED))
	require.NoError(t, err)

	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, iv := range set {
		require.NoError(t, w.Write(iv))
	}
	require.NoError(t, w.Flush())

	assert.Equal(t, sampleBED, buf.String())
}

func TestReadFile_Gzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "peaks.bed.gz")

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(sampleBED))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	set, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, set, 2)
}

func TestWriteFile(t *testing.T) {
	set, err := Read(strings.NewReader(sampleBED))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.bed")
	require.NoError(t, WriteFile(path, set))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, set, got)
}

func TestSetConcat(t *testing.T) {
	a := Set{{Chrom: "chr1"}, {Chrom: "chr2"}}
	b := Set{{Chrom: "chr3"}}
	got := a.Concat(b)
	require.Len(t, got, 3)
	assert.Equal(t, "chr3", got[2].Chrom)
	assert.Len(t, a, 2)
}
