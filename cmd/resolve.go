package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"microbench/bench"
	"microbench/config"
	"microbench/my"
	"microbench/pg"
	"microbench/workload"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// resolver turns candidate specs into runnable candidates, opening database
// connections only when a spec needs them.
type resolver struct {
	ctx  context.Context
	cfg  *config.Config
	log  logrus.FieldLogger
	rng  *rand.Rand
	pool *pgxpool.Pool
	db   *sql.DB
}

func newResolver(ctx context.Context, cfg *config.Config, log logrus.FieldLogger, seed int64) *resolver {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &resolver{
		ctx: ctx,
		cfg: cfg,
		log: log.WithField("component", "resolver"),
		rng: rand.New(rand.NewSource(seed)),
	}
}

func (r *resolver) resolve(suite *config.Suite) ([]bench.Candidate, error) {
	var out []bench.Candidate
	for _, spec := range suite.Candidates {
		cands, err := r.resolveOne(spec, suite.WorkloadSize())
		if err != nil {
			return nil, err
		}
		out = append(out, cands...)
	}
	return out, nil
}

func (r *resolver) resolveOne(spec config.CandidateSpec, size int) ([]bench.Candidate, error) {
	switch {
	case spec.Workload != "":
		cands, err := workload.Lookup(spec.Workload, size)
		if err != nil {
			return nil, err
		}
		if spec.Label != "" && len(cands) == 1 {
			cands[0].Label = spec.Label
		}
		return cands, nil

	case spec.Query != "":
		switch spec.Driver {
		case config.DriverPostgres:
			pool, err := r.postgres()
			if err != nil {
				return nil, err
			}
			return []bench.Candidate{pg.QueryCandidate(r.ctx, pool, spec.Label, spec.Query, spec.Args...)}, nil
		case config.DriverMySQL:
			db, err := r.mysql()
			if err != nil {
				return nil, err
			}
			return []bench.Candidate{my.QueryCandidate(r.ctx, db, spec.Label, spec.Query, spec.Args...)}, nil
		}

	case spec.Fixture == config.FixtureAccounts:
		rows := spec.Rows
		if rows <= 0 {
			rows = 10000
		}
		var cands []bench.Candidate
		switch spec.Driver {
		case config.DriverPostgres:
			pool, err := r.postgres()
			if err != nil {
				return nil, err
			}
			if err := pg.SeedData(r.ctx, pool, rows, r.log); err != nil {
				return nil, err
			}
			cands = pg.AccountCandidates(r.ctx, pool, rows, r.rng)
		case config.DriverMySQL:
			db, err := r.mysql()
			if err != nil {
				return nil, err
			}
			if err := my.SeedData(r.ctx, db, rows, r.log); err != nil {
				return nil, err
			}
			cands = my.AccountCandidates(r.ctx, db, rows, r.rng)
		}
		prefix := spec.Label
		if prefix == "" {
			prefix = spec.Driver
		}
		for i := range cands {
			cands[i].Label = prefix + "/" + cands[i].Label
		}
		return cands, nil
	}
	return nil, fmt.Errorf("cannot resolve candidate %+v", spec)
}

func (r *resolver) postgres() (*pgxpool.Pool, error) {
	if r.pool == nil {
		r.log.Infof("Connecting to PostgreSQL at %s:%d", r.cfg.Postgres.Host, r.cfg.Postgres.Port)
		pool, err := pg.Connect(r.ctx, r.cfg.Postgres)
		if err != nil {
			return nil, err
		}
		r.pool = pool
	}
	return r.pool, nil
}

func (r *resolver) mysql() (*sql.DB, error) {
	if r.db == nil {
		r.log.Infof("Connecting to MySQL at %s:%d", r.cfg.MySQL.Host, r.cfg.MySQL.Port)
		db, err := my.Connect(r.ctx, r.cfg.MySQL)
		if err != nil {
			return nil, err
		}
		r.db = db
	}
	return r.db, nil
}

func (r *resolver) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
	if r.db != nil {
		r.db.Close()
	}
}

const (
	storeFile     = "file"
	storePostgres = "postgres"
	storeMySQL    = "mysql"
)

// newStoreFunc allows mocking in tests.
var newStoreFunc = func(ctx context.Context, kind string, cfg *config.Config) (bench.Store, error) {
	switch kind {
	case storeFile, "":
		return bench.NewFileStore(cfg.StoreFile)
	case storePostgres:
		return pg.NewStore(ctx, cfg.Postgres)
	case storeMySQL:
		return my.NewStore(ctx, cfg.MySQL)
	}
	return nil, fmt.Errorf("unknown store %q (want file, postgres or mysql)", kind)
}
