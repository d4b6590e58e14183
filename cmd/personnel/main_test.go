package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"personnel/internal/employee/baseline"
	"personnel/internal/employee/store"
	"personnel/internal/platform/config"
)

// =============================================================================
// CLI Test Suite
// =============================================================================
// Drives the root command end to end against in-memory backends and checks
// operator output and exit codes per mode.

type CLISuite struct {
	suite.Suite
	store    *store.InMemoryStore
	baseline *baseline.InMemoryStore
	stdout   *bytes.Buffer
	stderr   *bytes.Buffer
	connects int
	env      map[string]string
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLISuite))
}

func (s *CLISuite) SetupTest() {
	s.store = store.NewInMemory()
	s.baseline = baseline.NewInMemory()
	s.stdout = &bytes.Buffer{}
	s.stderr = &bytes.Buffer{}
	s.connects = 0
	s.env = map[string]string{"LOG_LEVEL": "error"}
}

func (s *CLISuite) environment() environment {
	return environment{
		stdout: s.stdout,
		stderr: s.stderr,
		getenv: func(k string) string { return s.env[k] },
		connect: func(context.Context, config.Config, int, *slog.Logger) (backends, error) {
			s.connects++
			return backends{store: s.store, baseline: s.baseline}, nil
		},
		now: func() time.Time { return time.Date(2026, time.May, 14, 0, 0, 0, 0, time.UTC) },
	}
}

func (s *CLISuite) run(args ...string) int {
	s.stdout.Reset()
	s.stderr.Reset()
	return execute(context.Background(), args, s.environment())
}

func (s *CLISuite) lines() []string {
	return strings.Split(strings.TrimRight(s.stdout.String(), "\n"), "\n")
}

// =============================================================================
// Usage
// =============================================================================

func (s *CLISuite) TestUsage() {
	for _, args := range [][]string{nil, {"0"}, {"7"}, {"abc"}} {
		s.Run(strings.Join(args, " "), func() {
			s.Equal(0, s.run(args...))
			s.Contains(s.stdout.String(), "Usage: personnel")
			s.Zero(s.connects)
		})
	}

	s.Run("unknown flag", func() {
		s.Equal(0, s.run("--bogus", "1"))
		s.Contains(s.stdout.String(), "unknown flag")
	})
}

// =============================================================================
// Mode 1 and 2
// =============================================================================

func (s *CLISuite) TestSchemaAndAdd() {
	s.Require().Equal(0, s.run("1"))
	s.Equal("Employees table created\n", s.stdout.String())

	s.Require().Equal(0, s.run("1"))
	s.Equal("Employees table already exists\n", s.stdout.String())

	s.Require().Equal(0, s.run("2", "Ivanov Petr Sergeevich", "1990-05-15", "Male"))
	s.Equal([]string{
		"Employee added with id 1",
		"Full name: Ivanov Petr Sergeevich, Date of birth: 1990-05-15, Gender: Male, Age: 35",
	}, s.lines())
}

func (s *CLISuite) TestAddRejectsBadInput() {
	s.Run("wrong arity prints example", func() {
		s.Equal(0, s.run("2", "Ivanov Petr Sergeevich", "1990-05-15"))
		s.Contains(s.stdout.String(), "Example: personnel 2")
	})

	s.Run("bad date prints format error", func() {
		s.Equal(0, s.run("2", "Ivanov Petr Sergeevich", "15.05.1990", "Male"))
		s.Contains(s.stdout.String(), "use YYYY-MM-DD")
	})

	s.Run("overlong gender", func() {
		s.Equal(0, s.run("2", "Ivanov Petr Sergeevich", "1990-05-15", "Undisclosed!"))
		s.Contains(s.stdout.String(), "gender must be at most 10 characters")
	})

	n, err := s.store.Count(context.Background())
	s.Require().NoError(err)
	s.Zero(n)
	s.Zero(s.connects)
}

// =============================================================================
// Mode 3 to 6
// =============================================================================

func (s *CLISuite) TestGenerateQueryOptimize() {
	s.Require().Equal(0, s.run("4", "--total", "10", "--specific", "3", "--batch-size", "4", "--seed", "42"))
	s.Equal([]string{
		"4 employees inserted (of 10)",
		"8 employees inserted (of 10)",
		"10 employees inserted (of 10)",
	}, s.lines())

	s.Require().Equal(0, s.run("5"))
	lines := s.lines()
	s.Require().Len(lines, 4)
	for _, line := range lines[:3] {
		s.True(strings.HasPrefix(line, "Full name: F"), line)
		s.Contains(line, "Gender: Male")
	}
	s.True(strings.HasPrefix(lines[3], "Query time: "))

	s.Require().Equal(0, s.run("6"))
	out := s.stdout.String()
	s.Contains(out, "Index ensured: idx_gender_fullname")
	s.Contains(out, "Index ensured: idx_male_fullname")
	s.Contains(out, "Query time: ")
	s.Contains(out, "Previous query time: ")
	s.Equal(1, s.store.MaintenanceRuns())

	s.Require().Equal(0, s.run("3", "--limit", "5"))
	s.Len(s.lines(), 5)
}

func (s *CLISuite) TestConfigValidation() {
	s.Equal(0, s.run("4", "--total", "3", "--specific", "5"))
	s.Contains(s.stdout.String(), "must not exceed")
	s.Zero(s.connects)

	s.Equal(0, s.run("4", "--write-method", "bulk"))
	s.Contains(s.stdout.String(), "write_method")
}

func (s *CLISuite) TestTracingExporter() {
	s.env["OTEL_TRACES_EXPORTER"] = "stdout"

	s.Require().Equal(0, s.run("5"))
	spans := s.stderr.String()
	s.Contains(spans, "personnel.run")
	s.Contains(spans, "employee.query")
	s.True(strings.HasPrefix(s.stdout.String(), "Query time: "))

	s.env["OTEL_TRACES_EXPORTER"] = "jaeger"
	s.Equal(0, s.run("5"))
	s.Contains(s.stdout.String(), "tracing.exporter")
}

// =============================================================================
// Storage failures
// =============================================================================

func (s *CLISuite) TestStorageFailureExitsNonZero() {
	env := s.environment()
	env.connect = func(context.Context, config.Config, int, *slog.Logger) (backends, error) {
		return backends{}, errors.New("dial tcp 127.0.0.1:5432: connection refused")
	}

	code := execute(context.Background(), []string{"5"}, env)
	s.Equal(1, code)
	s.Contains(s.stderr.String(), "Error: failed to connect to storage")
	s.Empty(s.stdout.String())
}
