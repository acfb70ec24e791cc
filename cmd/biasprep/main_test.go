package main

import (
	"bytes"
	"context"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/inodb/biasprep/internal/augment"
	"github.com/inodb/biasprep/internal/batchgen"
	"github.com/inodb/biasprep/internal/duckdb"
	"github.com/inodb/biasprep/internal/genome"
	"github.com/inodb/biasprep/internal/hyperparams"
	"github.com/inodb/biasprep/internal/region"
)

func TestParseConfigValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"true", true},
		{"off", false},
		{"2114", 2114},
		{"/data/hg38.fa", "/data/hg38.fa"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseConfigValue(tt.in))
		})
	}
}

func TestConfigKeys(t *testing.T) {
	keys := configKeys(newRootCmd())

	assert.NotContains(t, keys, "config")
	assert.Contains(t, keys["hyperparams"], "max-jitter")
	assert.Contains(t, keys["hyperparams"], "stats-db")
	assert.Contains(t, keys["batches"], "seed")
	assert.Contains(t, keys["batches"], "genome")
	assert.Equal(t, []string{"stats-db"}, keys["stats"])
}

func TestRunConfigShow(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	var buf bytes.Buffer
	require.NoError(t, runConfigShow(&buf, map[string][]string{"stats": {"stats-db"}}))
	assert.Contains(t, buf.String(), "# No configuration set.")
	assert.Contains(t, buf.String(), "# Known keys:")
	assert.Contains(t, buf.String(), "stats-db")

	viper.Set("max-jitter", 25)
	buf.Reset()
	require.NoError(t, runConfigShow(&buf, nil))
	assert.Contains(t, buf.String(), "max-jitter: 25")
}

func TestFormatBatch(t *testing.T) {
	b := &batchgen.Batch{
		Seqs:      []genome.OneHot{genome.Encode("AC"), genome.Encode("GT")},
		LogCounts: []float32{1, 2},
		Coords: []augment.Coord{
			{Chrom: "chr1", Center: 150, Strand: augment.StrandForward},
			{Chrom: "chr2", Center: 90, Strand: augment.StrandReverse},
		},
	}
	assert.Equal(t, "1\t3\t2\t1.5000\tchr1:150:+,chr2:90:-", formatBatch(1, 3, b))

	b.Coords = nil
	assert.Equal(t, "0\t0\t2\t1.5000", formatBatch(0, 0, b))
}

func TestWriteEpochs(t *testing.T) {
	data := &augment.Data{}
	for i := range 5 {
		data.Seqs = append(data.Seqs, genome.Encode("ACGTAC"))
		data.Counts = append(data.Counts, []float32{0, 1, 1, 0})
		data.Coords = append(data.Coords, augment.Coord{Chrom: "chr1", Center: int64(100 * i), Strand: augment.StrandForward})
	}
	cfg := batchgen.Config{InputLen: 4, OutputLen: 2, MaxJitter: 1, Shuffle: true, BatchSize: 2}
	gen, err := batchgen.New(data, cfg, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeEpochs(context.Background(), gen, 2, &buf, zap.NewNop()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1+2*3)
	assert.Equal(t, "epoch\tbatch\texamples\tmean_log_counts", lines[0])
	assert.True(t, strings.HasPrefix(lines[3], "0\t2\t1\t"))
	assert.True(t, strings.HasPrefix(lines[4], "1\t0\t2\t"))
}

func TestWriteEpochsCancelled(t *testing.T) {
	data := &augment.Data{
		Seqs:   []genome.OneHot{genome.Encode("ACGT")},
		Counts: [][]float32{{1, 1}},
		Coords: []augment.Coord{{Chrom: "chr1", Center: 10, Strand: augment.StrandForward}},
	}
	gen, err := batchgen.New(data, batchgen.Config{InputLen: 4, OutputLen: 2, BatchSize: 1}, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = writeEpochs(ctx, gen, 1, &bytes.Buffer{}, zap.NewNop())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunStats(t *testing.T) {
	store, err := duckdb.Open("")
	require.NoError(t, err)
	defer store.Close()

	var buf bytes.Buffer
	require.NoError(t, runStats(store, &buf))
	assert.Equal(t, "No runs recorded.\n", buf.String())

	iv := func(chrom string, start int64) region.Interval {
		return region.Interval{Chrom: chrom, Start: start, End: start + 100, Summit: 50}
	}
	res := &hyperparams.Result{
		TrainValid: region.Set{iv("chr1", 1000), iv("chr2", 500)},
		Test:       region.Set{iv("chr3", 700)},
		Regions:    region.Set{iv("chr1", 1000), iv("chr2", 500), iv("chr3", 700)},
		CountSums:  []float64{12, 40},
		LowDepth:   true,
		Data:       hyperparams.DataParams{CountsSumMaxThresh: 40, TrainingPtsPostThresh: 1},
		Model:      hyperparams.ModelParams{CountsLossWeight: 1, InputLen: 2114, OutputLen: 1000, MaxJitter: 50},
	}
	folds := &region.FoldSplit{Train: []string{"chr1"}, Valid: []string{"chr2"}, Test: []string{"chr3"}}
	run := duckdb.NewRun(duckdb.FileFingerprint{Path: "peaks.bed"}, duckdb.FileFingerprint{Path: "sample.bw"}, res)
	require.NoError(t, store.WriteRun(run, duckdb.RegionCounts(res, folds)))

	buf.Reset()
	require.NoError(t, runStats(store, &buf))
	out := buf.String()
	assert.Contains(t, out, run.ID)
	assert.Contains(t, out, "Counts threshold:   40.00")
	assert.Contains(t, out, "low depth")
	assert.Contains(t, out, "train")
	assert.Contains(t, out, "test")
}
