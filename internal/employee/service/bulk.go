package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"personnel/internal/employee/models"
	dErrors "personnel/pkg/domain-errors"
)

// ProgressFunc is called after every committed chunk.
type ProgressFunc func(persisted, total int)

type BulkResult struct {
	Chunks    int
	Persisted int
	Elapsed   time.Duration
}

// BulkInsert writes records in contiguous chunks of batchSize, one after
// another. Each chunk is a single atomic write and completes before progress
// is reported and the next chunk starts.
//
// A failed chunk stops the pipeline. Chunks already written stay committed
// and the returned result counts them.
func (s *Service) BulkInsert(ctx context.Context, records []models.Employee, batchSize int, progress ProgressFunc) (BulkResult, error) {
	if batchSize <= 0 {
		return BulkResult{}, dErrors.Newf(dErrors.CodeValidation, "batch size must be positive, got %d", batchSize)
	}

	ctx, span := s.tracer.Start(ctx, "employee.bulk_insert", trace.WithAttributes(
		attribute.Int("records", len(records)),
		attribute.Int("batch_size", batchSize),
	))
	defer span.End()

	start := time.Now()
	total := len(records)
	var res BulkResult
	for offset := 0; offset < total; offset += batchSize {
		chunk := records[offset:min(offset+batchSize, total)]
		index := res.Chunks + 1

		if err := s.insertChunk(ctx, index, chunk); err != nil {
			res.Elapsed = time.Since(start)
			s.logger.ErrorContext(ctx, "chunk insert failed",
				"chunk", index,
				"persisted", res.Persisted,
				"error", err)
			return res, fail(span, dErrors.Wrap(err, dErrors.CodeStorage,
				chunkFailure(index, res.Persisted)))
		}

		res.Chunks++
		res.Persisted += len(chunk)
		if progress != nil {
			progress(res.Persisted, total)
		}
	}
	res.Elapsed = time.Since(start)
	span.SetAttributes(attribute.Int("chunks", res.Chunks))
	s.logger.InfoContext(ctx, "bulk insert complete",
		"chunks", res.Chunks,
		"persisted", res.Persisted,
		"elapsed", res.Elapsed)
	return res, nil
}

func (s *Service) insertChunk(ctx context.Context, index int, chunk []models.Employee) error {
	ctx, span := s.tracer.Start(ctx, "employee.insert_chunk", trace.WithAttributes(
		attribute.Int("chunk", index),
		attribute.Int("rows", len(chunk)),
	))
	defer span.End()

	start := time.Now()
	if err := s.writer.InsertBatch(ctx, chunk); err != nil {
		return fail(span, err)
	}
	s.metrics.ObserveBatch(start, len(chunk))
	s.logger.DebugContext(ctx, "chunk committed", "chunk", index, "rows", len(chunk))
	return nil
}

func chunkFailure(index, persisted int) string {
	return fmt.Sprintf("failed to insert chunk %d (%d rows already persisted)", index, persisted)
}
