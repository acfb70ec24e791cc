package hyperparams

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/inodb/biasprep/internal/loader"
	"github.com/inodb/biasprep/internal/region"
	"github.com/inodb/biasprep/internal/signal"
)

func fill(v []float32, center, half int, value float32) {
	for i := center - half; i < center+half; i++ {
		v[i] = value
	}
}

func testTrack() signal.Track {
	chr1 := make([]float32, 1000)
	fill(chr1, 100, 10, 1)
	fill(chr1, 500, 10, 3)
	fill(chr1, 900, 10, 0.5)
	chr2 := make([]float32, 1000)
	fill(chr2, 500, 10, 5)
	chr3 := make([]float32, 1000)
	fill(chr3, 500, 10, 7)
	return signal.Track{"chr1": chr1, "chr2": chr2, "chr3": chr3}
}

func peak(chrom string, center int64) region.Interval {
	return region.Interval{Chrom: chrom, Start: center - 5, End: center + 5, Summit: 5}
}

func testPeaks() region.Set {
	return region.Set{
		peak("chr3", 500),
		peak("chr1", 100),
		peak("chr1", 30),  // window starts below zero
		peak("chr1", 500),
		peak("chr2", 500),
		peak("chr1", 960), // window ends past the contig
		peak("chr1", 900),
		peak("chrUn", 500), // contig unknown to the track
		peak("chr3", 10),
		peak("chr9", 500), // not in any fold
	}
}

var testFolds = &region.FoldSplit{
	Train: []string{"chr1"},
	Valid: []string{"chr2"},
	Test:  []string{"chr3"},
}

func testOptions() Options {
	return Options{
		InputLen:       100,
		OutputLen:      20,
		MaxJitter:      DefaultMaxJitter,
		Filters:        DefaultFilters,
		DilationLayers: DefaultDilationLayers,
		ChrFoldPath:    "folds/fold_0.json",
	}
}

func TestFilterEdgeRegions(t *testing.T) {
	peaks := testPeaks()
	kept, removed := FilterEdgeRegions(peaks, testTrack(), 100)

	assert.Equal(t, len(peaks), len(kept)+len(removed))
	for _, iv := range removed {
		size, ok := testTrack().ContigLength(iv.Chrom)
		outside := !ok || iv.Center()-50 < 0 || iv.Center()+50 > size
		assert.True(t, outside, "%s:%d should not be removed", iv.Chrom, iv.Center())
	}
	for _, iv := range kept {
		size, ok := testTrack().ContigLength(iv.Chrom)
		require.True(t, ok)
		assert.GreaterOrEqual(t, iv.Center()-50, int64(0))
		assert.LessOrEqual(t, iv.Center()+50, size)
	}
	assert.Len(t, removed, 5)
}

func TestFilterEdgeRegions_WindowEndingAtContigLengthIsKept(t *testing.T) {
	track := signal.Track{"chr1": make([]float32, 100)}

	// [0, 100) covers the contig exactly and loads without error.
	kept, removed := FilterEdgeRegions(region.Set{peak("chr1", 50)}, track, 100)
	require.Len(t, kept, 1)
	assert.Empty(t, removed)
	start, end := loader.Window(kept[0].Center(), 100, 0)
	_, err := track.Values("chr1", start, end)
	assert.NoError(t, err)

	// [0, 101) and [-1, 99) each overhang by one base.
	kept, removed = FilterEdgeRegions(region.Set{peak("chr1", 51), peak("chr1", 49)}, track, 100)
	assert.Empty(t, kept)
	assert.Len(t, removed, 2)

	// Odd widths: [1, 100) for center 50.
	kept, _ = FilterEdgeRegions(region.Set{peak("chr1", 50)}, track, 99)
	assert.Len(t, kept, 1)
}

func TestFind(t *testing.T) {
	f := NewFinder(testTrack())
	res, err := f.Find(context.Background(), testOptions(), testPeaks(), testFolds)
	require.NoError(t, err)

	// chr1:100, chr1:500, chr2:500, chr1:900 then the test peak chr3:500.
	require.Len(t, res.TrainValid, 4)
	require.Len(t, res.Test, 1)
	require.Len(t, res.Regions, 5)
	assert.Equal(t, "chr3", res.Regions[4].Chrom)
	assert.Equal(t, int64(500), res.Regions[2].Center())
	assert.Equal(t, "chr2", res.Regions[2].Chrom)

	assert.Equal(t, []float64{20, 60, 100, 10}, res.CountSums)
	assert.Equal(t, 100.0, res.Data.CountsSumMaxThresh)
	assert.Equal(t, 0.0, res.Data.CountsSumMinThresh)
	assert.Equal(t, 3, res.Data.TrainingPtsPostThresh)

	// median(10, 20, 60, 100) / 10
	assert.InDelta(t, 4.0, res.Model.CountsLossWeight, 1e-9)
	assert.False(t, res.LowDepth)
	assert.Equal(t, 1.0, res.Model.NegativeSamplingRatio)
	assert.Equal(t, 100, res.Model.InputLen)
	assert.Equal(t, "folds/fold_0.json", res.Model.ChrFoldPath)
}

func TestFind_LowDepthClampsWeight(t *testing.T) {
	track := signal.Track{"chr1": make([]float32, 1000)}
	fill(track["chr1"], 500, 10, 0.01)

	core, logs := observer.New(zap.WarnLevel)
	f := NewFinder(track)
	f.SetLogger(zap.New(core))

	res, err := f.Find(context.Background(), testOptions(), region.Set{peak("chr1", 500)}, testFolds)
	require.NoError(t, err)
	assert.True(t, res.LowDepth)
	assert.Equal(t, 1.0, res.Model.CountsLossWeight)
	assert.Equal(t, 1, logs.Len())
}

func TestFind_Preconditions(t *testing.T) {
	zero := signal.Track{"chr1": make([]float32, 1000), "chr2": make([]float32, 1000)}

	medianZero := signal.Track{"chr1": make([]float32, 1000)}
	fill(medianZero["chr1"], 500, 10, 1)

	tests := []struct {
		name  string
		track signal.Track
		peaks region.Set
		opts  func(*Options)
	}{
		{"empty peaks", testTrack(), nil, nil},
		{"input shorter than output", testTrack(), testPeaks(), func(o *Options) { o.InputLen = 10 }},
		{"no signal", zero, region.Set{peak("chr1", 500), peak("chr2", 500)}, nil},
		{"zero median", medianZero, region.Set{peak("chr1", 200), peak("chr1", 300), peak("chr1", 500)}, nil},
		{"nothing left after filtering", testTrack(), region.Set{peak("chr1", 10)}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			if tt.opts != nil {
				tt.opts(&opts)
			}
			_, err := NewFinder(tt.track).Find(context.Background(), opts, tt.peaks, testFolds)
			assert.ErrorIs(t, err, ErrPrecondition)
		})
	}
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 2.0, median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, median([]float64{4, 1, 3, 2}))
	in := []float64{3, 1, 2}
	median(in)
	assert.Equal(t, []float64{3, 1, 2}, in)
}

func TestWriteOutputs(t *testing.T) {
	res, err := NewFinder(testTrack()).Find(context.Background(), testOptions(), testPeaks(), testFolds)
	require.NoError(t, err)

	prefix := filepath.Join(t.TempDir(), "run_")
	require.NoError(t, WriteOutputs(prefix, res))

	data, err := os.ReadFile(prefix + DataParamsSuffix)
	require.NoError(t, err)
	assert.Equal(t, "counts_sum_min_thresh\t0.0\ncounts_sum_max_thresh\t100.0\ntrainings_pts_post_thresh\t3\n", string(data))

	model, err := ReadParams(prefix + ModelParamsSuffix)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"counts_loss_weight":      "4.0",
		"filters":                 "128",
		"n_dil_layers":            "4",
		"inputlen":                "100",
		"outputlen":               "20",
		"max_jitter":              "50",
		"chr_fold_path":           "folds/fold_0.json",
		"negative_sampling_ratio": "1.0",
	}, model)

	peaks, err := region.ReadFile(prefix + FilteredPeaksSuffix)
	require.NoError(t, err)
	assert.Equal(t, res.Regions, peaks)
}
