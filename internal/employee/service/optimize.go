package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"personnel/internal/employee/baseline"
	"personnel/internal/employee/models"
	dErrors "personnel/pkg/domain-errors"
)

// IndexStatement is one index the optimizer ensures exists.
type IndexStatement struct {
	Name string
	SQL  string
}

type OptimizeResult struct {
	Indexes  []string
	Query    QueryResult
	Previous *baseline.Entry
}

// IndexStatements lists the indexes Optimize creates for a query on gender.
// Every statement is idempotent.
func (s *Service) IndexStatements(gender string) []IndexStatement {
	return indexStatements(gender)
}

func indexStatements(gender string) []IndexStatement {
	quoted := "'" + strings.ReplaceAll(gender, "'", "''") + "'"
	partial := partialIndexName(gender)
	return []IndexStatement{
		{
			Name: "idx_gender_fullname",
			SQL:  "CREATE INDEX IF NOT EXISTS idx_gender_fullname ON employees (gender, full_name)",
		},
		{
			Name: "idx_gender",
			SQL:  "CREATE INDEX IF NOT EXISTS idx_gender ON employees (gender)",
		},
		{
			Name: "idx_fullname",
			SQL:  "CREATE INDEX IF NOT EXISTS idx_fullname ON employees (full_name)",
		},
		{
			Name: partial,
			SQL:  "CREATE INDEX IF NOT EXISTS " + partial + " ON employees (full_name) WHERE gender = " + quoted,
		},
	}
}

// partialIndexName names the partial index for gender. A title-cased
// alphanumeric gender maps to idx_<gender>_fullname in lower case. Any other
// spelling gets a hash suffix, so distinct genders never share a name.
func partialIndexName(gender string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, gender)

	name := "idx_" + slug + "_fullname"
	if strings.Contains(slug, "_") || gender != titleCase(slug) {
		name += fmt.Sprintf("_%08x", uint32(xxhash.Sum64String(gender)))
	}
	return name
}

func titleCase(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-('a'-'A')) + s[1:]
}

// Optimize ensures the query indexes exist, refreshes planner statistics and
// reruns the query. Previous carries the latest plain query latency recorded
// by an earlier run, if any.
func (s *Service) Optimize(ctx context.Context, f models.Filter) (OptimizeResult, error) {
	if f.Gender == "" {
		return OptimizeResult{}, dErrors.New(dErrors.CodeValidation, "query gender is required")
	}

	ctx, span := s.tracer.Start(ctx, "employee.optimize")
	defer span.End()

	previous := s.lastBaseline(ctx, baseline.StageQuery)

	stmts := indexStatements(f.Gender)
	names := make([]string, 0, len(stmts))
	for _, stmt := range stmts {
		if err := s.store.Exec(ctx, stmt.SQL); err != nil {
			return OptimizeResult{}, fail(span, dErrors.Wrap(err, dErrors.CodeStorage,
				fmt.Sprintf("failed to create index %s", stmt.Name)))
		}
		names = append(names, stmt.Name)
	}
	s.logger.InfoContext(ctx, "indexes ensured", "indexes", names)

	if err := s.store.Maintain(ctx); err != nil {
		return OptimizeResult{}, fail(span, dErrors.Wrap(err, dErrors.CodeStorage, "failed to vacuum analyze employees"))
	}

	q, err := s.queryTimed(ctx, f, baseline.StageOptimized)
	if err != nil {
		return OptimizeResult{}, fail(span, err)
	}
	return OptimizeResult{Indexes: names, Query: q, Previous: previous}, nil
}
