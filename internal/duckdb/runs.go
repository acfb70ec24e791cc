package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/biasprep/internal/hyperparams"
	"github.com/inodb/biasprep/internal/region"
)

// Run describes one hyperparameter search and the inputs it read.
type Run struct {
	ID        string
	CreatedAt time.Time
	Peaks     FileFingerprint
	BigWig    FileFingerprint
	Data      hyperparams.DataParams
	Model     hyperparams.ModelParams
	LowDepth  bool
}

// RegionCount is one input region's fate in a run. CountsSum is nil for
// regions whose counts were not evaluated (test fold or removed).
type RegionCount struct {
	Chrom     string
	Start     int64
	End       int64
	Summit    int64
	Fold      region.Fold
	Kept      bool
	CountsSum *float64
}

// FoldSummary aggregates a run's regions in one fold.
type FoldSummary struct {
	Fold      region.Fold
	Regions   int
	Kept      int
	MaxCounts sql.NullFloat64
	Median    sql.NullFloat64
}

// NewRun creates a run record with a fresh ID from a search result.
func NewRun(peaks, bigwig FileFingerprint, res *hyperparams.Result) Run {
	return Run{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Peaks:     peaks,
		BigWig:    bigwig,
		Data:      res.Data,
		Model:     res.Model,
		LowDepth:  res.LowDepth,
	}
}

// RegionCounts lists every region a search saw: kept train/valid regions
// with their count sums, kept test regions, then removed regions.
func RegionCounts(res *hyperparams.Result, folds *region.FoldSplit) []RegionCount {
	foldOf := make(map[string]region.Fold)
	for _, f := range []region.Fold{region.FoldTrain, region.FoldValid, region.FoldTest} {
		chroms, _ := folds.Chroms(f)
		for _, c := range chroms {
			foldOf[c] = f
		}
	}

	rows := make([]RegionCount, 0, len(res.Regions)+len(res.Removed))
	add := func(iv region.Interval, kept bool, sum *float64) {
		rows = append(rows, RegionCount{
			Chrom:     iv.Chrom,
			Start:     iv.Start,
			End:       iv.End,
			Summit:    iv.Summit,
			Fold:      foldOf[iv.Chrom],
			Kept:      kept,
			CountsSum: sum,
		})
	}
	for i, iv := range res.TrainValid {
		sum := res.CountSums[i]
		add(iv, true, &sum)
	}
	for _, iv := range res.Test {
		add(iv, true, nil)
	}
	for _, iv := range res.Removed {
		add(iv, false, nil)
	}
	return rows
}

// WriteRun stores a run and its region rows.
func (s *Store) WriteRun(run Run, rows []RegionCount) error {
	_, err := s.db.Exec(`INSERT INTO runs VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt,
		run.Peaks.Path, run.Peaks.Size, run.Peaks.ModTime,
		run.BigWig.Path, run.BigWig.Size, run.BigWig.ModTime,
		run.Model.ChrFoldPath, run.Model.InputLen, run.Model.OutputLen, run.Model.MaxJitter,
		run.Data.CountsSumMinThresh, run.Data.CountsSumMaxThresh, run.Data.TrainingPtsPostThresh,
		run.Model.CountsLossWeight, run.LowDepth,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return s.writeRegionCounts(run.ID, rows)
}

// writeRegionCounts batch-inserts region rows using the Appender API.
func (s *Store) writeRegionCounts(runID string, rows []RegionCount) error {
	if len(rows) == 0 {
		return nil
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "region_counts")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, r := range rows {
		var sum driver.Value
		if r.CountsSum != nil {
			sum = *r.CountsSum
		}
		if err := appender.AppendRow(
			runID, r.Chrom, r.Start, r.End, r.Summit, string(r.Fold), r.Kept, sum,
		); err != nil {
			return fmt.Errorf("append region count: %w", err)
		}
	}

	return appender.Flush()
}

// LatestRun returns the most recently created run, or nil if there is none.
func (s *Store) LatestRun() (*Run, error) {
	row := s.db.QueryRow(`SELECT
		run_id, created_at,
		peaks_path, peaks_size, peaks_modtime,
		bigwig_path, bigwig_size, bigwig_modtime,
		chr_fold_path, inputlen, outputlen, max_jitter,
		counts_sum_min_thresh, counts_sum_max_thresh, trainings_pts_post_thresh,
		counts_loss_weight, low_depth
		FROM runs ORDER BY created_at DESC LIMIT 1`)

	var r Run
	err := row.Scan(
		&r.ID, &r.CreatedAt,
		&r.Peaks.Path, &r.Peaks.Size, &r.Peaks.ModTime,
		&r.BigWig.Path, &r.BigWig.Size, &r.BigWig.ModTime,
		&r.Model.ChrFoldPath, &r.Model.InputLen, &r.Model.OutputLen, &r.Model.MaxJitter,
		&r.Data.CountsSumMinThresh, &r.Data.CountsSumMaxThresh, &r.Data.TrainingPtsPostThresh,
		&r.Model.CountsLossWeight, &r.LowDepth,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest run: %w", err)
	}
	return &r, nil
}

// Summarize aggregates a run's regions per fold.
func (s *Store) Summarize(runID string) ([]FoldSummary, error) {
	rows, err := s.db.Query(`SELECT
		fold,
		count(*) AS regions,
		count(*) FILTER (WHERE kept) AS kept,
		max(counts_sum),
		median(counts_sum)
		FROM region_counts
		WHERE run_id=?
		GROUP BY fold
		ORDER BY fold`, runID)
	if err != nil {
		return nil, fmt.Errorf("query fold summary: %w", err)
	}
	defer rows.Close()

	var out []FoldSummary
	for rows.Next() {
		var fs FoldSummary
		var fold string
		if err := rows.Scan(&fold, &fs.Regions, &fs.Kept, &fs.MaxCounts, &fs.Median); err != nil {
			return nil, fmt.Errorf("scan fold summary: %w", err)
		}
		fs.Fold = region.Fold(fold)
		out = append(out, fs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fold summary: %w", err)
	}
	return out, nil
}
