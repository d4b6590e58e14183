package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"personnel/internal/employee/baseline"
	"personnel/internal/employee/models"
	dErrors "personnel/pkg/domain-errors"
)

type QueryResult struct {
	Records []models.Employee
	Elapsed time.Duration
}

// QueryTimed runs the gender/name-prefix query. Elapsed covers the storage
// call up to a fully materialized result set and nothing else.
func (s *Service) QueryTimed(ctx context.Context, f models.Filter) (QueryResult, error) {
	return s.queryTimed(ctx, f, baseline.StageQuery)
}

func (s *Service) queryTimed(ctx context.Context, f models.Filter, stage string) (QueryResult, error) {
	if f.Gender == "" {
		return QueryResult{}, dErrors.New(dErrors.CodeValidation, "query gender is required")
	}

	ctx, span := s.tracer.Start(ctx, "employee.query", trace.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("gender", f.Gender),
		attribute.String("name_prefix", f.NamePrefix),
	))
	defer span.End()

	start := time.Now()
	records, err := s.store.FindByGenderAndNamePrefix(ctx, f)
	elapsed := time.Since(start)
	if err != nil {
		return QueryResult{}, fail(span, dErrors.Wrap(err, dErrors.CodeStorage, "failed to query employees"))
	}

	res := QueryResult{Records: records, Elapsed: elapsed}
	span.SetAttributes(attribute.Int("rows", len(records)))
	s.metrics.ObserveQuery(stage, elapsed)
	s.saveBaseline(ctx, stage, res)
	s.logger.InfoContext(ctx, "query complete",
		"stage", stage,
		"rows", len(records),
		"elapsed_ms", elapsed.Milliseconds())
	return res, nil
}
