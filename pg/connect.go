package pg

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"microbench/bench"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// DSN builds a postgres:// connection string. Params defaults to
// sslmode=disable.
func DSN(c bench.ConnConfig) string {
	params := c.Params
	if params == "" {
		params = "sslmode=disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: params,
	}
	return u.String()
}

// Connect opens a small pool and pings it. Candidates execute serially, so
// one or two connections are enough.
func Connect(ctx context.Context, c bench.ConnConfig) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(DSN(c))
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	config.MaxConns = 2
	config.MinConns = 1

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect postgres %s:%d: %w", c.Host, c.Port, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres %s:%d: %w", c.Host, c.Port, err)
	}
	return pool, nil
}

// SeedData makes sure the accounts fixture table holds at least rows rows.
func SeedData(ctx context.Context, pool *pgxpool.Pool, rows int, log logrus.FieldLogger) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS accounts (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			balance DECIMAL(15,2) NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM accounts").Scan(&count); err != nil {
		return fmt.Errorf("seed check: %w", err)
	}
	if count >= rows {
		log.Debugf("Data already seeded (%d rows)", count)
		return nil
	}

	log.Infof("Seeding %d rows", rows-count)
	_, err = pool.Exec(ctx, `
		INSERT INTO accounts (name, balance)
		SELECT 'user_' || i, (random() * 10000)::decimal(15,2)
		FROM generate_series($1::int, $2::int) i
	`, count+1, rows)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return nil
}
