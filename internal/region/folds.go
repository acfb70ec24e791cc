package region

import (
	"encoding/json"
	"fmt"
	"os"
)

// Fold names a partition of the chromosome split.
type Fold string

const (
	FoldTrain Fold = "train"
	FoldValid Fold = "valid"
	FoldTest  Fold = "test"
)

// FoldSplit assigns chromosomes to the train, valid and test folds.
type FoldSplit struct {
	Train []string `json:"train"`
	Valid []string `json:"valid"`
	Test  []string `json:"test"`
}

// LoadFoldSplit reads a fold split JSON file. All three keys are required.
func LoadFoldSplit(path string) (*FoldSplit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fold file: %w", err)
	}
	return ParseFoldSplit(data)
}

// ParseFoldSplit decodes fold split JSON.
func ParseFoldSplit(data []byte) (*FoldSplit, error) {
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode fold file: %w", err)
	}
	for _, key := range []Fold{FoldTrain, FoldValid, FoldTest} {
		if _, ok := raw[string(key)]; !ok {
			return nil, fmt.Errorf("fold file missing %q key", key)
		}
	}
	return &FoldSplit{
		Train: raw[string(FoldTrain)],
		Valid: raw[string(FoldValid)],
		Test:  raw[string(FoldTest)],
	}, nil
}

// Chroms returns the chromosomes assigned to fold.
func (fs *FoldSplit) Chroms(fold Fold) ([]string, error) {
	switch fold {
	case FoldTrain:
		return fs.Train, nil
	case FoldValid:
		return fs.Valid, nil
	case FoldTest:
		return fs.Test, nil
	}
	return nil, fmt.Errorf("unknown fold %q", fold)
}

// Select returns the rows of set that belong to fold.
func (fs *FoldSplit) Select(set Set, fold Fold) (Set, error) {
	chroms, err := fs.Chroms(fold)
	if err != nil {
		return nil, err
	}
	return set.FilterChroms(chroms), nil
}
