// Package config handles environment and suite file loading
package config

import (
	"fmt"
	"os"
	"strconv"

	"microbench/bench"

	"github.com/joho/godotenv"
)

// Config holds connection settings taken from the environment.
type Config struct {
	Postgres  bench.ConnConfig
	MySQL     bench.ConnConfig
	StoreFile string
}

// LoadEnv reads configuration from environment variables and a .env file
func LoadEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// It's okay if the file doesn't exist
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	pgPort, err := strconv.Atoi(getEnv("MICROBENCH_PG_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid MICROBENCH_PG_PORT: %w", err)
	}
	myPort, err := strconv.Atoi(getEnv("MICROBENCH_MYSQL_PORT", "3306"))
	if err != nil {
		return nil, fmt.Errorf("invalid MICROBENCH_MYSQL_PORT: %w", err)
	}

	return &Config{
		Postgres: bench.ConnConfig{
			Host:     getEnv("MICROBENCH_PG_HOST", "localhost"),
			Port:     pgPort,
			User:     getEnv("MICROBENCH_PG_USER", "postgres"),
			Password: getEnv("MICROBENCH_PG_PASSWORD", ""),
			Database: getEnv("MICROBENCH_PG_DATABASE", "microbench"),
			Params:   getEnv("MICROBENCH_PG_PARAMS", ""),
		},
		MySQL: bench.ConnConfig{
			Host:     getEnv("MICROBENCH_MYSQL_HOST", "localhost"),
			Port:     myPort,
			User:     getEnv("MICROBENCH_MYSQL_USER", "root"),
			Password: getEnv("MICROBENCH_MYSQL_PASSWORD", ""),
			Database: getEnv("MICROBENCH_MYSQL_DATABASE", "microbench"),
			Params:   getEnv("MICROBENCH_MYSQL_PARAMS", ""),
		},
		StoreFile: getEnv("MICROBENCH_STORE_FILE", ".microbench/runs.json"),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) String() string {
	return fmt.Sprintf(`Configuration:
  Postgres:   %s
  MySQL:      %s
  Store file: %s`,
		connString(c.Postgres), connString(c.MySQL), c.StoreFile)
}

func connString(c bench.ConnConfig) string {
	password := "(not set)"
	if c.Password != "" {
		password = "********"
	}
	return fmt.Sprintf("%s@%s:%d/%s (password %s)", c.User, c.Host, c.Port, c.Database, password)
}
