package pg

import (
	"context"
	"math/rand"

	"microbench/bench"

	"github.com/jackc/pgx/v5"
)

// Querier is the part of a pgxpool.Pool that candidates use.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QueryCandidate times one execution of query, including reading every row
// it returns.
func QueryCandidate(ctx context.Context, q Querier, label, query string, args ...any) bench.Candidate {
	return bench.Candidate{
		Label: label,
		Fn: func() error {
			rows, err := q.Query(ctx, query, args...)
			if err != nil {
				return err
			}
			for rows.Next() {
			}
			rows.Close()
			return rows.Err()
		},
	}
}

// AccountCandidates compares ways of reading the seeded accounts table.
func AccountCandidates(ctx context.Context, q Querier, rows int, rng *rand.Rand) []bench.Candidate {
	if rows < 1 {
		rows = 1
	}
	return []bench.Candidate{
		{
			Label: "point-select",
			Fn: func() error {
				var (
					id      int
					name    string
					balance float64
				)
				return q.QueryRow(ctx,
					"SELECT id, name, balance FROM accounts WHERE id = $1",
					rng.Intn(rows)+1).Scan(&id, &name, &balance)
			},
		},
		QueryCandidate(ctx, q, "range-scan",
			"SELECT id, name, balance FROM accounts WHERE id BETWEEN $1 AND $2", 1, 100),
		QueryCandidate(ctx, q, "aggregate", "SELECT SUM(balance) FROM accounts"),
	}
}
