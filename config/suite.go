package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"microbench/bench"

	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"

	FixtureAccounts = "accounts"

	DefaultSize = 1000
)

// Suite is a benchmark definition loaded from YAML.
type Suite struct {
	Name       string          `yaml:"name"`
	Times      int             `yaml:"times"`
	Warmup     *int            `yaml:"warmup"`
	Order      string          `yaml:"order"`
	Unit       string          `yaml:"unit"`
	Seed       int64           `yaml:"seed"`
	Runs       int             `yaml:"runs"`
	Size       int             `yaml:"size"`
	Candidates []CandidateSpec `yaml:"candidates"`
}

// CandidateSpec describes where a candidate comes from. Exactly one of
// Workload, Query and Fixture is set.
type CandidateSpec struct {
	Label    string `yaml:"label"`
	Workload string `yaml:"workload"` // "group" or "group/label"
	Driver   string `yaml:"driver"`   // postgres or mysql
	Query    string `yaml:"query"`
	Args     []any  `yaml:"args"`
	Fixture  string `yaml:"fixture"` // accounts
	Rows     int    `yaml:"rows"`    // fixture size
}

// LoadSuite reads and validates a suite file. A missing name defaults to the
// file name without extension.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read suite: %w", err)
	}
	suite, err := ParseSuite(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if suite.Name == "" {
		suite.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return suite, nil
}

func ParseSuite(data []byte) (*Suite, error) {
	var suite Suite
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&suite); err != nil {
		return nil, fmt.Errorf("parse suite: %w", err)
	}
	if err := suite.Validate(); err != nil {
		return nil, err
	}
	return &suite, nil
}

func (s *Suite) Validate() error {
	var errs []error
	if len(s.Candidates) == 0 {
		errs = append(errs, bench.ErrNoCandidates)
	}
	if s.Times < 0 {
		errs = append(errs, fmt.Errorf("times must not be negative, got %d", s.Times))
	}
	if s.Warmup != nil && *s.Warmup < 0 {
		errs = append(errs, fmt.Errorf("warmup must not be negative, got %d", *s.Warmup))
	}
	if _, err := bench.ParseOrder(s.Order); err != nil {
		errs = append(errs, err)
	}
	if _, err := bench.ParseUnit(s.Unit); err != nil {
		errs = append(errs, err)
	}
	for i, c := range s.Candidates {
		if err := c.validate(); err != nil {
			errs = append(errs, fmt.Errorf("candidate #%d: %w", i+1, err))
		}
	}
	return errors.Join(errs...)
}

func (c CandidateSpec) validate() error {
	sources := 0
	for _, v := range []string{c.Workload, c.Query, c.Fixture} {
		if v != "" {
			sources++
		}
	}
	if sources != 1 {
		return errors.New("exactly one of workload, query or fixture must be set")
	}

	switch {
	case c.Workload != "":
		if c.Driver != "" {
			return errors.New("driver is only valid with query or fixture")
		}
		return nil
	case c.Query != "":
		if c.Label == "" {
			return errors.New("query candidates need a label")
		}
	case c.Fixture != "":
		if c.Fixture != FixtureAccounts {
			return fmt.Errorf("unknown fixture %q", c.Fixture)
		}
	}

	if c.Driver != DriverPostgres && c.Driver != DriverMySQL {
		return fmt.Errorf("driver must be %s or %s, got %q", DriverPostgres, DriverMySQL, c.Driver)
	}
	return nil
}

// Params applies the suite's settings on top of base. Zero values in the
// suite leave base untouched.
func (s *Suite) Params(base bench.BenchParams) bench.BenchParams {
	p := base
	if s.Times > 0 {
		p.Times = s.Times
	}
	if s.Warmup != nil {
		p.Warmup = *s.Warmup
	}
	if s.Order != "" {
		p.Order = bench.Order(s.Order)
	}
	if s.Seed != 0 {
		p.Seed = s.Seed
	}
	if s.Runs > 0 {
		p.Runs = s.Runs
	}
	return p
}

// WorkloadSize returns the input size for built-in workloads.
func (s *Suite) WorkloadSize() int {
	if s.Size > 0 {
		return s.Size
	}
	return DefaultSize
}
