package my

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"microbench/bench"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS microbench_runs (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		suite VARCHAR(255) NOT NULL,
		started_at DATETIME(6) NOT NULL,
		times INT NOT NULL,
		run_order VARCHAR(32) NOT NULL,
		INDEX microbench_runs_suite_idx (suite, started_at)
	)`,
	`CREATE TABLE IF NOT EXISTS microbench_summaries (
		run_id BIGINT NOT NULL,
		position INT NOT NULL,
		label VARCHAR(255) NOT NULL,
		min_ns DOUBLE NOT NULL,
		lq_ns DOUBLE NOT NULL,
		mean_ns DOUBLE NOT NULL,
		median_ns DOUBLE NOT NULL,
		uq_ns DOUBLE NOT NULL,
		max_ns DOUBLE NOT NULL,
		neval INT NOT NULL,
		PRIMARY KEY (run_id, position),
		FOREIGN KEY (run_id) REFERENCES microbench_runs(id) ON DELETE CASCADE
	)`,
}

// Store implements bench.Store on MySQL.
type Store struct {
	db *sql.DB
}

func NewStore(ctx context.Context, c bench.ConnConfig) (*Store, error) {
	db, err := Connect(ctx, c)
	if err != nil {
		return nil, err
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

func (s *Store) Save(ctx context.Context, run bench.Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO microbench_runs (suite, started_at, times, run_order) VALUES (?, ?, ?, ?)`,
		run.Suite, run.Timestamp.UTC(), run.Times, string(run.Order))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, sum := range run.Summaries {
		_, err := tx.ExecContext(ctx, `INSERT INTO microbench_summaries
			(run_id, position, label, min_ns, lq_ns, mean_ns, median_ns, uq_ns, max_ns, neval)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, i, sum.Label, sum.Min, sum.LQ, sum.Mean, sum.Median, sum.UQ, sum.Max, sum.NEval)
		if err != nil {
			return fmt.Errorf("insert summary %q: %w", sum.Label, err)
		}
	}
	return tx.Commit()
}

func (s *Store) LoadLatest(ctx context.Context, suite string) (*bench.Run, error) {
	var (
		id  int64
		run = bench.Run{Suite: suite}
		ord string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, times, run_order FROM microbench_runs
		 WHERE suite = ? ORDER BY started_at DESC, id DESC LIMIT 1`, suite).
		Scan(&id, &run.Timestamp, &run.Times, &ord)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load latest run: %w", err)
	}
	run.Order = bench.Order(ord)
	if run.Summaries, err = s.summaries(ctx, id); err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *Store) LoadAll(ctx context.Context, suite string) ([]bench.Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, times, run_order FROM microbench_runs
		 WHERE suite = ? ORDER BY started_at, id`, suite)
	if err != nil {
		return nil, fmt.Errorf("load runs: %w", err)
	}
	var (
		ids  []int64
		runs []bench.Run
	)
	for rows.Next() {
		var (
			id  int64
			run = bench.Run{Suite: suite}
			ord string
		)
		if err := rows.Scan(&id, &run.Timestamp, &run.Times, &ord); err != nil {
			rows.Close()
			return nil, err
		}
		run.Order = bench.Order(ord)
		ids = append(ids, id)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i, id := range ids {
		if runs[i].Summaries, err = s.summaries(ctx, id); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *Store) summaries(ctx context.Context, runID int64) ([]bench.Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT label, min_ns, lq_ns, mean_ns, median_ns, uq_ns, max_ns, neval
		 FROM microbench_summaries WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("load summaries: %w", err)
	}
	defer rows.Close()

	var out []bench.Summary
	for rows.Next() {
		var s bench.Summary
		if err := rows.Scan(&s.Label, &s.Min, &s.LQ, &s.Mean, &s.Median, &s.UQ, &s.Max, &s.NEval); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

var _ bench.Store = (*Store)(nil)
