package hyperparams

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Parameter record keys.
const (
	KeyCountsSumMinThresh    = "counts_sum_min_thresh"
	KeyCountsSumMaxThresh    = "counts_sum_max_thresh"
	KeyTrainingPtsPostThresh = "trainings_pts_post_thresh"

	KeyCountsLossWeight      = "counts_loss_weight"
	KeyFilters               = "filters"
	KeyNDilLayers            = "n_dil_layers"
	KeyInputLen              = "inputlen"
	KeyOutputLen             = "outputlen"
	KeyMaxJitter             = "max_jitter"
	KeyChrFoldPath           = "chr_fold_path"
	KeyNegativeSamplingRatio = "negative_sampling_ratio"
)

// DataParams records the count thresholds applied to training regions.
type DataParams struct {
	CountsSumMinThresh    float64
	CountsSumMaxThresh    float64
	TrainingPtsPostThresh int
}

// ModelParams records the hyperparameters handed to model training.
type ModelParams struct {
	CountsLossWeight      float64
	Filters               int
	NDilLayers            int
	InputLen              int
	OutputLen             int
	MaxJitter             int
	ChrFoldPath           string
	NegativeSamplingRatio float64
}

type kv struct {
	key, value string
}

func (p DataParams) pairs() []kv {
	return []kv{
		{KeyCountsSumMinThresh, formatFloat(p.CountsSumMinThresh)},
		{KeyCountsSumMaxThresh, formatFloat(p.CountsSumMaxThresh)},
		{KeyTrainingPtsPostThresh, strconv.Itoa(p.TrainingPtsPostThresh)},
	}
}

func (p ModelParams) pairs() []kv {
	return []kv{
		{KeyCountsLossWeight, formatFloat(p.CountsLossWeight)},
		{KeyFilters, strconv.Itoa(p.Filters)},
		{KeyNDilLayers, strconv.Itoa(p.NDilLayers)},
		{KeyInputLen, strconv.Itoa(p.InputLen)},
		{KeyOutputLen, strconv.Itoa(p.OutputLen)},
		{KeyMaxJitter, strconv.Itoa(p.MaxJitter)},
		{KeyChrFoldPath, p.ChrFoldPath},
		{KeyNegativeSamplingRatio, formatFloat(p.NegativeSamplingRatio)},
	}
}

// WriteTo writes the record as key<TAB>value lines.
func (p DataParams) WriteTo(w io.Writer) (int64, error) {
	return writePairs(w, p.pairs())
}

// WriteTo writes the record as key<TAB>value lines.
func (p ModelParams) WriteTo(w io.Writer) (int64, error) {
	return writePairs(w, p.pairs())
}

func writePairs(w io.Writer, pairs []kv) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, p := range pairs {
		m, err := bw.WriteString(p.key + "\t" + p.value + "\n")
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// formatFloat rounds to two decimals and always prints a fractional part,
// so 1 is written as "1.0" and 12.346 as "12.35".
func formatFloat(v float64) string {
	r := math.Round(v*100) / 100
	s := strconv.FormatFloat(r, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// ReadParams reads a key<TAB>value record. Blank lines are ignored.
func ReadParams(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open params file: %w", err)
	}
	defer f.Close()
	return parseParams(f)
}

func parseParams(r io.Reader) (map[string]string, error) {
	params := make(map[string]string)
	scanner := bufio.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, fmt.Errorf("line %d: expected key and value separated by a tab", lineNumber)
		}
		params[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan params file: %w", err)
	}
	return params, nil
}

// ParseModelParams decodes a model hyperparameter record.
func ParseModelParams(params map[string]string) (*ModelParams, error) {
	var p ModelParams
	var err error

	getInt := func(key string) int {
		if err != nil {
			return 0
		}
		v, ok := params[key]
		if !ok {
			err = fmt.Errorf("missing %q", key)
			return 0
		}
		n, e := strconv.Atoi(v)
		if e != nil {
			err = fmt.Errorf("invalid %s %q: %w", key, v, e)
		}
		return n
	}
	getFloat := func(key string, def float64) float64 {
		if err != nil {
			return 0
		}
		v, ok := params[key]
		if !ok {
			return def
		}
		f, e := strconv.ParseFloat(v, 64)
		if e != nil {
			err = fmt.Errorf("invalid %s %q: %w", key, v, e)
		}
		return f
	}

	p.InputLen = getInt(KeyInputLen)
	p.OutputLen = getInt(KeyOutputLen)
	p.MaxJitter = getInt(KeyMaxJitter)
	p.Filters = getInt(KeyFilters)
	p.NDilLayers = getInt(KeyNDilLayers)
	p.CountsLossWeight = getFloat(KeyCountsLossWeight, 1.0)
	p.NegativeSamplingRatio = getFloat(KeyNegativeSamplingRatio, 1.0)
	p.ChrFoldPath = params[KeyChrFoldPath]
	if err != nil {
		return nil, fmt.Errorf("parse model params: %w", err)
	}
	return &p, nil
}
