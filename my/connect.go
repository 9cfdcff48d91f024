package my

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"microbench/bench"

	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
)

// DSN builds a go-sql-driver connection string. parseTime is always on so
// DATETIME columns scan into time.Time.
func DSN(c bench.ConnConfig) string {
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", c.Host, c.Port)
	cfg.DBName = c.Database
	cfg.ParseTime = true
	cfg.InterpolateParams = true
	cfg.Timeout = 30 * time.Second
	cfg.Params = map[string]string{}
	for _, kv := range strings.Split(c.Params, "&") {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			cfg.Params[k] = v
		}
	}
	return cfg.FormatDSN()
}

func Connect(ctx context.Context, c bench.ConnConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", DSN(c))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql %s:%d: %w", c.Host, c.Port, err)
	}
	return db, nil
}

// SeedData makes sure the accounts fixture table holds at least rows rows.
func SeedData(ctx context.Context, db *sql.DB, rows int, log logrus.FieldLogger) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS accounts (
			id INT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			balance DECIMAL(15,2) NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM accounts").Scan(&count); err != nil {
		return fmt.Errorf("seed check: %w", err)
	}
	if count >= rows {
		log.Debugf("Data already seeded (%d rows)", count)
		return nil
	}

	log.Infof("Seeding %d rows", rows-count)

	// Batch insert 500 at a time
	const batchSize = 500
	for i := count; i < rows; i += batchSize {
		end := min(i+batchSize, rows)

		var sb strings.Builder
		sb.WriteString("INSERT INTO accounts (name, balance) VALUES ")
		vals := make([]any, 0, (end-i)*2)
		for j := i; j < end; j++ {
			if j > i {
				sb.WriteByte(',')
			}
			sb.WriteString("(?,?)")
			vals = append(vals, fmt.Sprintf("user_%d", j+1), rand.Float64()*10000)
		}

		if _, err := db.ExecContext(ctx, sb.String(), vals...); err != nil {
			return fmt.Errorf("seed batch at %d: %w", i, err)
		}
	}
	return nil
}
