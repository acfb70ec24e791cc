// Package duckdb records hyperparameter runs and per-region count sums in a
// DuckDB database so threshold decisions can be queried after the fact.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection for run statistics.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create stats directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		run_id VARCHAR PRIMARY KEY,
		created_at TIMESTAMP,
		peaks_path VARCHAR,
		peaks_size BIGINT,
		peaks_modtime TIMESTAMP,
		bigwig_path VARCHAR,
		bigwig_size BIGINT,
		bigwig_modtime TIMESTAMP,
		chr_fold_path VARCHAR,
		inputlen INTEGER,
		outputlen INTEGER,
		max_jitter INTEGER,
		counts_sum_min_thresh DOUBLE,
		counts_sum_max_thresh DOUBLE,
		trainings_pts_post_thresh INTEGER,
		counts_loss_weight DOUBLE,
		low_depth BOOLEAN
	)`); err != nil {
		return err
	}
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS region_counts (
		run_id VARCHAR,
		chrom VARCHAR,
		start_pos BIGINT,
		end_pos BIGINT,
		summit BIGINT,
		fold VARCHAR,
		kept BOOLEAN,
		counts_sum DOUBLE
	)`)
	return err
}
