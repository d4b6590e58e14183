package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"personnel/internal/employee/baseline"
	"personnel/internal/employee/metrics"
	"personnel/internal/employee/models"
	dErrors "personnel/pkg/domain-errors"
	"personnel/pkg/platform/sentinel"
)

// TracerName is the instrumentation scope of the service spans.
const TracerName = "personnel/internal/employee/service"

type Store interface {
	Migrate(ctx context.Context) ([]string, error)
	Insert(ctx context.Context, e models.Employee) (int64, error)
	InsertBatch(ctx context.Context, records []models.Employee) error
	FindByID(ctx context.Context, id int64) (models.Employee, error)
	FindUnique(ctx context.Context, limit int) ([]models.Employee, error)
	FindByGenderAndNamePrefix(ctx context.Context, f models.Filter) ([]models.Employee, error)
	Exec(ctx context.Context, statement string) error
	Maintain(ctx context.Context) error
}

// BatchWriter persists one chunk atomically. Store satisfies it; CopyWriter
// is the COPY-based alternative.
type BatchWriter interface {
	InsertBatch(ctx context.Context, records []models.Employee) error
}

type BaselineStore interface {
	Save(ctx context.Context, e baseline.Entry) error
	Last(ctx context.Context, stage string) (*baseline.Entry, error)
}

// Service orchestrates the generate/insert, dedupe, query and index tuning
// workflows over a single Store.
type Service struct {
	store    Store
	writer   BatchWriter
	baseline BaselineStore
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	runID    string
	now      func() time.Time
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithBatchWriter routes BulkInsert chunks to w instead of the Store.
func WithBatchWriter(w BatchWriter) Option {
	return func(s *Service) {
		s.writer = w
	}
}

// WithBaseline records query latencies so later runs can compare against them.
func WithBaseline(b BaselineStore) Option {
	return func(s *Service) {
		s.baseline = b
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func WithRunID(id string) Option {
	return func(s *Service) {
		s.runID = id
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New constructs a Service.
func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("employee store is required")
	}
	s := &Service{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
		tracer: otel.Tracer(TracerName),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.writer == nil {
		s.writer = store
	}
	return s, nil
}

// EnsureSchema applies pending migrations and returns the versions it applied.
func (s *Service) EnsureSchema(ctx context.Context) ([]string, error) {
	applied, err := s.store.Migrate(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to create employees table")
	}
	if len(applied) == 0 {
		s.logger.InfoContext(ctx, "schema up to date")
	} else {
		s.logger.InfoContext(ctx, "migrations applied", "versions", applied)
	}
	return applied, nil
}

// AddEmployee validates and stores one record, returning it as persisted.
func (s *Service) AddEmployee(ctx context.Context, fullName string, dateOfBirth time.Time, gender string) (models.Employee, error) {
	e, err := models.NewEmployee(fullName, dateOfBirth, gender)
	if err != nil {
		return models.Employee{}, err
	}
	id, err := s.store.Insert(ctx, e)
	if err != nil {
		return models.Employee{}, dErrors.Wrap(err, dErrors.CodeStorage, "failed to insert employee")
	}
	stored, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Employee{}, dErrors.Newf(dErrors.CodeInternal, "employee %d missing after insert", id)
		}
		return models.Employee{}, dErrors.Wrap(err, dErrors.CodeStorage, "failed to load employee")
	}
	s.logger.InfoContext(ctx, "employee added", "id", id)
	return stored, nil
}

// ListUnique returns up to limit records distinct by (full name, date of
// birth), keeping the lowest id of each group.
func (s *Service) ListUnique(ctx context.Context, limit int) ([]models.Employee, error) {
	if limit <= 0 {
		return nil, dErrors.Newf(dErrors.CodeValidation, "limit must be positive, got %d", limit)
	}
	records, err := s.store.FindUnique(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to list unique employees")
	}
	return records, nil
}

func (s *Service) saveBaseline(ctx context.Context, stage string, q QueryResult) {
	if s.baseline == nil {
		return
	}
	err := s.baseline.Save(ctx, baseline.Entry{
		RunID:      s.runID,
		Stage:      stage,
		Elapsed:    q.Elapsed,
		Rows:       len(q.Records),
		RecordedAt: s.now().UTC(),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to save baseline", "stage", stage, "error", err)
	}
}

func (s *Service) lastBaseline(ctx context.Context, stage string) *baseline.Entry {
	if s.baseline == nil {
		return nil
	}
	e, err := s.baseline.Last(ctx, stage)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "failed to load baseline", "stage", stage, "error", err)
		}
		return nil
	}
	return e
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
