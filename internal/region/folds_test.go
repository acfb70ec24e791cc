package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFoldSplit(t *testing.T) {
	fs, err := ParseFoldSplit([]byte(`{"train":["chr2","chr3"],"valid":["chr8"],"test":["chr1"]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"chr2", "chr3"}, fs.Train)
	assert.Equal(t, []string{"chr8"}, fs.Valid)
	assert.Equal(t, []string{"chr1"}, fs.Test)
}

func TestParseFoldSplit_MissingKey(t *testing.T) {
	_, err := ParseFoldSplit([]byte(`{"train":["chr2"],"valid":["chr8"]}`))
	assert.ErrorContains(t, err, `"test"`)
}

func TestFoldSplitSelect(t *testing.T) {
	set := Set{
		{Chrom: "chr1", Start: 1, End: 10},
		{Chrom: "chr2", Start: 2, End: 10},
		{Chrom: "chr8", Start: 3, End: 10},
		{Chrom: "chr2", Start: 4, End: 10},
	}
	fs := &FoldSplit{Train: []string{"chr2"}, Valid: []string{"chr8"}, Test: []string{"chr1"}}

	train, err := fs.Select(set, FoldTrain)
	require.NoError(t, err)
	require.Len(t, train, 2)
	assert.Equal(t, int64(2), train[0].Start)
	assert.Equal(t, int64(4), train[1].Start)

	test, err := fs.Select(set, FoldTest)
	require.NoError(t, err)
	require.Len(t, test, 1)

	_, err = fs.Select(set, Fold("holdout"))
	assert.Error(t, err)
}
