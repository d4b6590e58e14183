package main

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strconv"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"personnel/internal/employee/generator"
	employeemetrics "personnel/internal/employee/metrics"
	"personnel/internal/employee/models"
	"personnel/internal/employee/report"
	"personnel/internal/employee/service"
	"personnel/internal/platform/config"
	"personnel/internal/platform/logger"
	platformmetrics "personnel/internal/platform/metrics"
	"personnel/internal/platform/tracing"
	dErrors "personnel/pkg/domain-errors"
)

const (
	modeSchema = iota + 1
	modeAdd
	modeUnique
	modeGenerate
	modeQuery
	modeOptimize
)

// generateProgressEvery matches the insert progress cadence of the default
// batch size.
const generateProgressEvery = 100_000

func runMode(ctx context.Context, env environment, cfg config.Config, inv invocation) (err error) {
	runID := uuid.NewString()
	log := logger.New(env.stderr, cfg.LogLevel).With("run_id", runID, "mode", inv.mode)
	out := report.NewPrinter(env.stdout, env.now())

	// Operator input is validated before storage is touched.
	var pending models.Employee
	if inv.mode == modeAdd {
		dob, err := models.ParseDate(inv.args[1])
		if err != nil {
			return err
		}
		if pending, err = models.NewEmployee(inv.args[0], dob, inv.args[2]); err != nil {
			return err
		}
	}

	tp, err := tracing.New(cfg.Tracing, env.stderr, runID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to set up tracing")
	}
	defer func() {
		if err := tp.Shutdown(context.WithoutCancel(ctx)); err != nil {
			log.WarnContext(ctx, "trace flush failed", "error", err)
		}
	}()

	ctx, span := tp.Tracer("personnel/cmd/personnel").Start(ctx, "personnel.run", trace.WithAttributes(
		attribute.Int("mode", inv.mode),
		attribute.String("run_id", runID),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	b, err := env.connect(ctx, cfg, inv.mode, log)
	if err != nil {
		log.ErrorContext(ctx, "connect failed", "error", err)
		return dErrors.Wrap(err, dErrors.CodeStorage, "failed to connect to storage")
	}
	if b.close != nil {
		defer b.close()
	}

	registry := platformmetrics.New(cfg.PushgatewayURL)
	m := employeemetrics.New(registry)

	opts := []service.Option{
		service.WithLogger(log),
		service.WithTracer(tp.Tracer(service.TracerName)),
		service.WithMetrics(m),
		service.WithRunID(runID),
		service.WithClock(env.now),
	}
	if b.writer != nil {
		opts = append(opts, service.WithBatchWriter(b.writer))
	}
	if b.baseline != nil {
		opts = append(opts, service.WithBaseline(b.baseline))
	}
	svc, err := service.New(b.store, opts...)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build service")
	}

	filter := models.Filter{Gender: cfg.Query.Gender, NamePrefix: cfg.Query.NamePrefix}

	switch inv.mode {
	case modeSchema:
		applied, err := svc.EnsureSchema(ctx)
		if err != nil {
			return logFailure(ctx, log, err)
		}
		out.Schema(applied)

	case modeAdd:
		e, err := svc.AddEmployee(ctx, pending.FullName, pending.DateOfBirth, pending.Gender)
		if err != nil {
			return logFailure(ctx, log, err)
		}
		out.Added(e)
		out.Employee(e)

	case modeUnique:
		records, err := svc.ListUnique(ctx, cfg.Dedupe.Limit)
		if err != nil {
			return logFailure(ctx, log, err)
		}
		out.Employees(records)

	case modeGenerate:
		if err := generate(ctx, svc, cfg.Generate, out, m, log); err != nil {
			return logFailure(ctx, log, err)
		}

	case modeQuery:
		res, err := svc.QueryTimed(ctx, filter)
		if err != nil {
			return logFailure(ctx, log, err)
		}
		out.Employees(res.Records)
		out.QueryTime(res.Elapsed)

	case modeOptimize:
		res, err := svc.Optimize(ctx, filter)
		if err != nil {
			return logFailure(ctx, log, err)
		}
		out.Indexes(res.Indexes)
		out.Employees(res.Query.Records)
		out.QueryTime(res.Query.Elapsed)
		out.Comparison(res.Previous, res.Query.Elapsed)
	}

	if err := registry.Push(ctx, strconv.Itoa(inv.mode)); err != nil {
		log.WarnContext(ctx, "metrics push failed", "error", err)
	}
	return nil
}

func generate(ctx context.Context, svc *service.Service, cfg config.GenerateConfig, out *report.Printer, m *employeemetrics.Metrics, log *slog.Logger) error {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	log.InfoContext(ctx, "generating corpus",
		"total", cfg.Total,
		"specific", cfg.Specific,
		"batch_size", cfg.BatchSize,
		"write_method", cfg.WriteMethod,
		"seed", seed)

	gen := generator.NewSeeded(seed, generator.WithProgress(generateProgressEvery, out.Generated))
	records, err := gen.Generate(cfg.Total, cfg.Specific)
	if err != nil {
		return err
	}
	m.AddGenerated(len(records))

	_, err = svc.BulkInsert(ctx, records, cfg.BatchSize, out.Progress)
	return err
}

// logFailure records a failed stage with the run attributes before the error
// reaches the entry point.
func logFailure(ctx context.Context, log *slog.Logger, err error) error {
	log.ErrorContext(ctx, "mode failed", "code", string(dErrors.CodeOf(err)), "error", err)
	return err
}
