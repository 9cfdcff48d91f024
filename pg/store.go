package pg

import (
	"context"
	"errors"
	"fmt"

	"microbench/bench"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const schema = `
CREATE TABLE IF NOT EXISTS microbench_runs (
	id BIGSERIAL PRIMARY KEY,
	suite TEXT NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	times INT NOT NULL,
	run_order TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS microbench_summaries (
	run_id BIGINT NOT NULL REFERENCES microbench_runs(id) ON DELETE CASCADE,
	position INT NOT NULL,
	label TEXT NOT NULL,
	min_ns DOUBLE PRECISION NOT NULL,
	lq_ns DOUBLE PRECISION NOT NULL,
	mean_ns DOUBLE PRECISION NOT NULL,
	median_ns DOUBLE PRECISION NOT NULL,
	uq_ns DOUBLE PRECISION NOT NULL,
	max_ns DOUBLE PRECISION NOT NULL,
	neval INT NOT NULL,
	PRIMARY KEY (run_id, position)
);
CREATE INDEX IF NOT EXISTS microbench_runs_suite_idx ON microbench_runs (suite, started_at);
`

var summaryColumns = []string{
	"run_id", "position", "label",
	"min_ns", "lq_ns", "mean_ns", "median_ns", "uq_ns", "max_ns", "neval",
}

// conn is satisfied by *pgxpool.Pool.
type conn interface {
	Querier
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// Store implements bench.Store on PostgreSQL.
type Store struct {
	pool conn
}

func NewStore(ctx context.Context, c bench.ConnConfig) (*Store, error) {
	pool, err := Connect(ctx, c)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Save(ctx context.Context, run bench.Run) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO microbench_runs (suite, started_at, times, run_order) VALUES ($1, $2, $3, $4) RETURNING id`,
		run.Suite, run.Timestamp, run.Times, string(run.Order)).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	rows := make([][]any, len(run.Summaries))
	for i, sum := range run.Summaries {
		rows[i] = []any{id, i, sum.Label, sum.Min, sum.LQ, sum.Mean, sum.Median, sum.UQ, sum.Max, sum.NEval}
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"microbench_summaries"}, summaryColumns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("insert summaries: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *Store) LoadLatest(ctx context.Context, suite string) (*bench.Run, error) {
	var (
		id  int64
		run = bench.Run{Suite: suite}
		ord string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, started_at, times, run_order FROM microbench_runs
		 WHERE suite = $1 ORDER BY started_at DESC, id DESC LIMIT 1`, suite).
		Scan(&id, &run.Timestamp, &run.Times, &ord)
	if errors.Is(err, pgx.ErrNoRows) {
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
	rows, err := s.pool.Query(ctx,
		`SELECT id, started_at, times, run_order FROM microbench_runs
		 WHERE suite = $1 ORDER BY started_at, id`, suite)
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
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, id := range ids {
		if runs[i].Summaries, err = s.summaries(ctx, id); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *Store) summaries(ctx context.Context, runID int64) ([]bench.Summary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT label, min_ns, lq_ns, mean_ns, median_ns, uq_ns, max_ns, neval
		 FROM microbench_summaries WHERE run_id = $1 ORDER BY position`, runID)
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
	s.pool.Close()
	return nil
}

var _ bench.Store = (*Store)(nil)
