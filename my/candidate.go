package my

import (
	"context"
	"database/sql"
	"math/rand"

	"microbench/bench"
)

// QueryCandidate times one execution of query, including reading every row
// it returns.
func QueryCandidate(ctx context.Context, db *sql.DB, label, query string, args ...any) bench.Candidate {
	return bench.Candidate{
		Label: label,
		Fn: func() error {
			rows, err := db.QueryContext(ctx, query, args...)
			if err != nil {
				return err
			}
			for rows.Next() {
			}
			if err := rows.Err(); err != nil {
				rows.Close()
				return err
			}
			return rows.Close()
		},
	}
}

// AccountCandidates compares ways of reading the seeded accounts table.
func AccountCandidates(ctx context.Context, db *sql.DB, rows int, rng *rand.Rand) []bench.Candidate {
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
				return db.QueryRowContext(ctx,
					"SELECT id, name, balance FROM accounts WHERE id = ?",
					rng.Intn(rows)+1).Scan(&id, &name, &balance)
			},
		},
		QueryCandidate(ctx, db, "range-scan",
			"SELECT id, name, balance FROM accounts WHERE id BETWEEN ? AND ?", 1, 100),
		QueryCandidate(ctx, db, "aggregate", "SELECT SUM(balance) FROM accounts"),
	}
}
