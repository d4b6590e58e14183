package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"personnel/internal/employee/models"
)

var copyColumns = []string{"full_name", "date_of_birth", "gender"}

// CopyWriter writes batches with the COPY protocol through pgx. A single
// COPY statement is atomic, so a failed chunk leaves nothing behind.
type CopyWriter struct {
	pool *pgxpool.Pool
}

// NewCopyWriter constructs a COPY-based batch writer.
func NewCopyWriter(pool *pgxpool.Pool) *CopyWriter {
	return &CopyWriter{pool: pool}
}

func (w *CopyWriter) InsertBatch(ctx context.Context, records []models.Employee) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = []any{r.FullName, models.Date(r.DateOfBirth), r.Gender}
	}

	n, err := w.pool.CopyFrom(ctx, pgx.Identifier{Table}, copyColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copy employee batch: %w", err)
	}
	if n != int64(len(records)) {
		return fmt.Errorf("copy employee batch: copied %d of %d rows", n, len(records))
	}
	return nil
}
