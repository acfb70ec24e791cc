// Package batchgen serves fixed-size training batches over cropped and
// augmented examples, regenerating crops once per epoch.
package batchgen

import (
	"fmt"

	"github.com/inodb/biasprep/internal/hyperparams"
	"github.com/inodb/biasprep/internal/region"
)

// Mode selects how a generator crops, augments and orders its examples.
type Mode int

const (
	ModeTrain Mode = iota
	ModeValid
	ModeTest
)

var modeNames = [...]string{
	ModeTrain: "train",
	ModeValid: "valid",
	ModeTest:  "test",
}

// String implements fmt.Stringer.
func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// Fold returns the chromosome fold the mode draws regions from.
func (m Mode) Fold() region.Fold {
	return region.Fold(m.String())
}

// ParseMode parses "train", "valid" or "test".
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if name == s {
			return Mode(m), nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q: only train, valid and test are allowed", s)
}

// Config controls cropping, augmentation and batching.
type Config struct {
	InputLen     int
	OutputLen    int
	MaxJitter    int
	AddRevcomp   bool
	Shuffle      bool
	BatchSize    int
	ReturnCoords bool
}

// ModeConfig derives the crop and augmentation settings of mode. Train and
// valid take lengths from params; test takes the caller's inputlen and
// outputlen. Only train jitters and shuffles. Reverse complement
// augmentation is off in every mode.
func ModeConfig(mode Mode, params *hyperparams.ModelParams, inputlen, outputlen int) (Config, error) {
	var cfg Config
	switch mode {
	case ModeTrain:
		if params == nil {
			return cfg, fmt.Errorf("train mode requires model params")
		}
		cfg = Config{
			InputLen:  params.InputLen,
			OutputLen: params.OutputLen,
			MaxJitter: params.MaxJitter,
			Shuffle:   true,
		}
	case ModeValid:
		if params == nil {
			return cfg, fmt.Errorf("valid mode requires model params")
		}
		// Validation is scored at summits only.
		cfg = Config{
			InputLen:  params.InputLen,
			OutputLen: params.OutputLen,
		}
	case ModeTest:
		if inputlen <= 0 || outputlen <= 0 {
			return cfg, fmt.Errorf("test mode requires input and output lengths, got %d and %d", inputlen, outputlen)
		}
		cfg = Config{
			InputLen:  inputlen,
			OutputLen: outputlen,
		}
	default:
		return cfg, fmt.Errorf("unknown mode %v", mode)
	}
	return cfg, nil
}
