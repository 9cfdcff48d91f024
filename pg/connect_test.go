package pg

import (
	"testing"

	"microbench/bench"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	c := bench.ConnConfig{Host: "db", Port: 5433, User: "bench", Password: "p@ss word", Database: "micro"}

	dsn := DSN(c)
	assert.Equal(t, "postgres://bench:p%40ss%20word@db:5433/micro?sslmode=disable", dsn)

	cfg, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)
	assert.Equal(t, "db", cfg.ConnConfig.Host)
	assert.Equal(t, uint16(5433), cfg.ConnConfig.Port)
	assert.Equal(t, "p@ss word", cfg.ConnConfig.Password)
	assert.Equal(t, "micro", cfg.ConnConfig.Database)

	c.Params = "sslmode=require&application_name=microbench"
	assert.Contains(t, DSN(c), "?sslmode=require&application_name=microbench")
}
