package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"sheetetl/internal/dataprocessing"
	"sheetetl/internal/exporter"
	"sheetetl/internal/infrastructure"
	"sheetetl/internal/storage"
	"sheetetl/internal/validation"
	"sheetetl/pkg/contracts/domain"
)

// Stage names a step of the pipeline
type Stage string

const (
	StageLoad    Stage = "load"
	StageFlatten Stage = "flatten"
	StageAugment Stage = "augment"
	StageReshape Stage = "reshape"
	StageTotals  Stage = "totals"
	StageWrite   Stage = "write"
	StageExport  Stage = "export"
	// StageReport prints the clean table before the write, so it is shown
	// even when the write fails.
	StageReport Stage = "report"
	// StageSummary prints the totals once the table is written.
	StageSummary Stage = "summary"
)

// Result is the outcome of a successful run
type Result struct {
	RunID       string
	Seed        uint64
	RowsLoaded  int
	Clean       *domain.CleanTable
	Totals      []domain.DailyTotal
	RowsWritten int64
	Duration    time.Duration
}

// Runner executes the load, reshape and persist pipeline once per Run
type Runner struct {
	opts      Options
	tracer    trace.Tracer
	metrics   *infrastructure.RunMetrics
	logger    *slog.Logger
	validator *validation.FileValidator
}

// NewRunner creates a runner. telemetry may be nil.
func NewRunner(opts Options, telemetry *infrastructure.OTelProviders, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = infrastructure.WithComponent(logger, "pipeline")
	r := &Runner{
		opts:      opts,
		tracer:    noop.NewTracerProvider().Tracer(infrastructure.MeterName),
		logger:    logger,
		validator: validation.NewFileValidator(logger),
	}
	if telemetry != nil {
		r.tracer = telemetry.Tracer
		r.metrics = telemetry.Metrics
	}
	return r
}

// Run executes every stage in order and stops at the first failure, which
// is returned as a *StageError.
func (r *Runner) Run(ctx context.Context) (res *Result, err error) {
	ctx = infrastructure.EnsureRunID(ctx)
	start := time.Now()

	seed := r.opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	res = &Result{RunID: infrastructure.GetRunID(ctx), Seed: seed}

	ctx, span := r.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("run.id", res.RunID),
		attribute.String("source", r.opts.SourcePath),
		attribute.String("table", r.opts.Table),
		attribute.Int64("seed", int64(seed)),
	))
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if r.metrics != nil {
			r.metrics.RecordRun(ctx, err)
		}
	}()

	r.logger.InfoContext(ctx, "Pipeline started",
		slog.String("source", r.opts.SourcePath),
		slog.String("sheet", r.opts.Sheet),
		slog.String("table", r.opts.Table),
		slog.String("if_exists", string(r.opts.IfExists)),
		slog.String("group_policy", string(r.opts.GroupPolicy)),
		slog.Uint64("seed", seed))

	var (
		sheet *dataprocessing.RawSheet
		flat  *dataprocessing.Table
	)

	if err := r.stage(ctx, StageLoad, func(ctx context.Context) error {
		if err := r.validator.ValidateWorkbook(r.opts.SourcePath); err != nil {
			return err
		}
		var err error
		sheet, err = dataprocessing.ParseFile(r.opts.SourcePath, dataprocessing.LoadOptions{Sheet: r.opts.Sheet})
		if err != nil {
			return err
		}
		res.RowsLoaded = len(sheet.Rows)
		if r.metrics != nil {
			r.metrics.RowsLoaded.Add(ctx, int64(res.RowsLoaded))
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err := r.stage(ctx, StageFlatten, func(context.Context) error {
		var err error
		flat, err = dataprocessing.FlattenHeader(sheet, r.opts.Schema)
		return err
	}); err != nil {
		return nil, err
	}

	if err := r.stage(ctx, StageAugment, func(context.Context) error {
		rng := rand.New(rand.NewPCG(seed, seed))
		return dataprocessing.AddSyntheticDates(flat, r.opts.DateRange, rng, r.opts.Schema.DateColumn)
	}); err != nil {
		return nil, err
	}

	if err := r.stage(ctx, StageReshape, func(ctx context.Context) error {
		var err error
		res.Clean, err = dataprocessing.Reshape(flat, dataprocessing.ReshapeOptions{
			Schema: r.opts.Schema,
			Policy: r.opts.GroupPolicy,
			Logger: r.logger,
		})
		if err != nil {
			return err
		}
		if r.metrics != nil {
			r.metrics.RecordsReshaped.Add(ctx, int64(res.Clean.Len()))
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err := r.stage(ctx, StageTotals, func(context.Context) error {
		var err error
		res.Totals, err = dataprocessing.Totals(res.Clean)
		return err
	}); err != nil {
		return nil, err
	}

	if r.opts.Console != nil {
		if err := r.stage(ctx, StageReport, func(context.Context) error {
			return exporter.PrintTable(r.opts.Console, res.Clean)
		}); err != nil {
			return nil, err
		}
	}

	if err := r.stage(ctx, StageWrite, func(ctx context.Context) error {
		return r.write(ctx, res)
	}); err != nil {
		return nil, err
	}

	if r.opts.CSV != nil || r.opts.WorkbookPath != "" {
		if err := r.stage(ctx, StageExport, func(context.Context) error {
			return r.export(res)
		}); err != nil {
			return nil, err
		}
	}

	if r.opts.Console != nil {
		if err := r.stage(ctx, StageSummary, func(context.Context) error {
			return exporter.PrintTotals(r.opts.Console, res.Totals)
		}); err != nil {
			return nil, err
		}
	}

	res.Duration = time.Since(start)
	r.logger.InfoContext(ctx, "Pipeline completed",
		slog.Int("rows_loaded", res.RowsLoaded),
		slog.Int("records", res.Clean.Len()),
		slog.Int("dates", len(res.Totals)),
		slog.Int64("rows_written", res.RowsWritten),
		slog.Duration("duration", res.Duration))

	return res, nil
}

// stage runs fn inside a span, records its duration and wraps failures.
func (r *Runner) stage(ctx context.Context, name Stage, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return &StageError{Stage: name, Cause: err}
	}

	ctx, span := r.tracer.Start(ctx, "pipeline."+string(name))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	if r.metrics != nil {
		r.metrics.RecordStage(ctx, string(name), elapsed, err)
	}
	if err != nil {
		infrastructure.RecordError(ctx, err)
		r.logger.ErrorContext(ctx, "Stage failed",
			slog.String("stage", string(name)),
			slog.Duration("duration", elapsed),
			slog.String("error", err.Error()))
		return &StageError{Stage: name, Cause: err}
	}

	r.logger.DebugContext(ctx, "Stage completed",
		slog.String("stage", string(name)),
		slog.Duration("duration", elapsed))
	return nil
}

func (r *Runner) write(ctx context.Context, res *Result) (err error) {
	store, err := storage.Open(ctx, r.opts.Target)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close store: %w", cerr)
		}
	}()

	res.RowsWritten, err = store.WriteTable(ctx, r.opts.Table, res.Clean, r.opts.IfExists)
	if err != nil {
		return err
	}
	if r.metrics != nil {
		r.metrics.RowsWritten.Add(ctx, res.RowsWritten)
	}
	return nil
}

func (r *Runner) export(res *Result) error {
	var dirs []string
	if r.opts.CSV != nil {
		dirs = append(dirs, r.opts.CSV.Dir())
	}
	if r.opts.WorkbookPath != "" {
		dirs = append(dirs, filepath.Dir(r.opts.WorkbookPath))
	}
	for _, dir := range dirs {
		if err := r.validator.ValidateOutputDirectory(dir); err != nil {
			return err
		}
	}

	var errs []error
	if r.opts.CSV != nil {
		if err := r.opts.CSV.WriteCleanTable(exporter.CleanCSVFile, res.Clean); err != nil {
			errs = append(errs, fmt.Errorf("clean csv: %w", err))
		}
		if err := r.opts.CSV.WriteTotals(exporter.TotalsCSVFile, res.Totals); err != nil {
			errs = append(errs, fmt.Errorf("totals csv: %w", err))
		}
	}
	if r.opts.WorkbookPath != "" {
		if err := exporter.WriteWorkbook(r.opts.WorkbookPath, res.Clean, res.Totals); err != nil {
			errs = append(errs, fmt.Errorf("workbook: %w", err))
		}
	}
	return errors.Join(errs...)
}
