package operations

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"clcconvert/internal/config"
	"clcconvert/internal/dataprocessing"
	apperrors "clcconvert/internal/errors"
	"clcconvert/internal/exporter"
	"clcconvert/internal/files"
	"clcconvert/internal/infrastructure"
	"clcconvert/internal/validation"
)

// Options controls one converter
type Options struct {
	Quote       rune
	Banner      string
	Attribution string
	UseCRLF     bool
	// OutputDir replaces each input's directory as destination when set
	OutputDir string
}

// OptionsFromConfig builds converter options from the conversion config
func OptionsFromConfig(cfg config.ConversionConfig) Options {
	return Options{
		Quote:       cfg.QuoteRune(),
		Banner:      cfg.Banner,
		Attribution: cfg.Attribution,
		UseCRLF:     cfg.UseCRLF(),
		OutputDir:   cfg.OutputDir,
	}
}

// Converter turns input files into CLC files. It holds no per-file state,
// so one converter can serve any number of batches.
type Converter struct {
	opts      Options
	logger    *slog.Logger
	tracer    *ConversionTracer
	validator *validation.FileValidator
	files     *files.Manager
	writer    *exporter.CSVWriter
	notifier  Notifier
}

// NewConverter creates a converter. A nil tracer disables metrics.
func NewConverter(opts Options, logger *slog.Logger, tracer *ConversionTracer) *Converter {
	if tracer == nil {
		tracer, _ = NewConversionTracer(nil)
	}
	logger = infrastructure.WithComponent(logger, "converter")

	return &Converter{
		opts:      opts,
		logger:    logger,
		tracer:    tracer,
		validator: validation.NewFileValidator(logger),
		files:     files.NewManager(logger),
		writer:    exporter.NewCSVWriter(opts.UseCRLF),
		notifier:  nopNotifier{},
	}
}

// SetNotifier routes batch progress to n. Call before the converter is shared.
func (c *Converter) SetNotifier(n Notifier) {
	if n == nil {
		n = nopNotifier{}
	}
	c.notifier = n
}

// WithOutputDir returns a converter writing into dir
func (c *Converter) WithOutputDir(dir string) *Converter {
	clone := *c
	clone.opts.OutputDir = dir
	return &clone
}

// ConvertBatchTo is ConvertBatch with a per-call output directory. An empty
// outputDir keeps the converter's own setting.
func (c *Converter) ConvertBatchTo(ctx context.Context, paths []string, outputDir string) *BatchReport {
	if outputDir == "" {
		return c.ConvertBatch(ctx, paths)
	}
	return c.WithOutputDir(outputDir).ConvertBatch(ctx, paths)
}

// ConvertBatch converts paths one after another in input order. A failed
// file never stops the batch; cancelling ctx skips the files not yet started.
func (c *Converter) ConvertBatch(ctx context.Context, paths []string) *BatchReport {
	ctx = infrastructure.EnsureTraceID(ctx)
	report := &BatchReport{
		ID:        infrastructure.GetTraceID(ctx),
		StartedAt: time.Now(),
		Results:   make([]Result, 0, len(paths)),
	}

	ctx, span := c.tracer.TraceBatch(ctx, report.ID, len(paths))
	defer span.End()

	c.logger.InfoContext(ctx, "batch_started", slog.Int("files", len(paths)))
	c.notifier.BatchStarted(ctx, report.ID, len(paths))

	for i, path := range paths {
		var res Result
		if err := ctx.Err(); err != nil {
			res = c.fail(Result{Input: path}, StageValidate, apperrors.NewCancelledError(err))
			c.logger.WarnContext(ctx, "conversion_skipped",
				slog.String("file", path),
				slog.Int("position", i+1))
		} else {
			res = c.Convert(ctx, path)
		}
		report.add(res)
		c.notifier.FileConverted(ctx, report.ID, i+1, res)
	}

	report.DurationMS = time.Since(report.StartedAt).Milliseconds()
	c.notifier.BatchCompleted(ctx, report)
	c.logger.InfoContext(ctx, "batch_completed",
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", report.Failed),
		slog.Int64("duration_ms", report.DurationMS))
	return report
}

// Convert runs the whole pipeline for one file. Either every output is
// written or none is.
func (c *Converter) Convert(ctx context.Context, path string) Result {
	start := time.Now()
	ctx, span := c.tracer.TraceFile(ctx, path)
	defer span.End()

	res := c.convert(ctx, path)
	duration := time.Since(start)
	res.DurationMS = duration.Milliseconds()
	c.tracer.RecordFileCompletion(ctx, span, res, duration)

	if res.OK() {
		c.logger.InfoContext(ctx, "conversion_complete",
			slog.String("file", path),
			slog.String("output", res.Output),
			slog.Int("tags", res.Tags),
			slog.Int("samples", res.Samples),
			slog.Int("bad_samples", res.BadSamples),
			slog.Int("warnings", len(res.Warnings)))
	} else {
		c.logger.ErrorContext(ctx, "conversion_failed",
			slog.String("file", path),
			slog.String("stage", string(res.Stage)),
			slog.String("kind", string(res.Kind)),
			slog.String("error", res.Message))
	}
	return res
}

func (c *Converter) convert(ctx context.Context, path string) Result {
	res := Result{Input: path}

	var (
		kind    dataprocessing.SourceKind
		outputs files.OutputPaths
		table   *dataprocessing.Table
		tags    []dataprocessing.TagMetadata
		warns   []dataprocessing.Warning
		period  dataprocessing.SamplingPeriod
		samples [][]dataprocessing.Sample
		stats   dataprocessing.CoercionStats
		doc     *exporter.Document
	)

	err := c.runStage(ctx, StageValidate, func() error {
		var err error
		if kind, err = c.validator.ValidateInputFile(path); err != nil {
			return err
		}
		outputs = files.DeriveOutputPaths(path, c.opts.OutputDir)
		if c.opts.OutputDir != "" {
			return c.validator.ValidateOutputDirectory(c.opts.OutputDir)
		}
		return nil
	})
	if err != nil {
		return c.fail(res, StageValidate, err)
	}

	err = c.runStage(ctx, StageLoad, func() error {
		var err error
		table, err = dataprocessing.Load(path, kind, dataprocessing.LoadOptions{
			Quote:  c.opts.Quote,
			Logger: c.logger,
		})
		if err != nil {
			return err
		}
		return table.Validate()
	})
	if err != nil {
		return c.fail(res, StageLoad, err)
	}

	_ = c.runStage(ctx, StageNormalize, func() error {
		tags, warns = dataprocessing.NormalizeTags(table)
		return nil
	})

	err = c.runStage(ctx, StageTimestamps, func() error {
		var err error
		period, err = dataprocessing.InferPeriod(table)
		return err
	})
	if err != nil {
		return c.fail(res, StageTimestamps, err)
	}

	_ = c.runStage(ctx, StageCoerce, func() error {
		samples, stats = dataprocessing.CoerceRows(table)
		return nil
	})

	err = c.runStage(ctx, StageAssemble, func() error {
		var err error
		doc, err = exporter.Assemble(exporter.Input{
			Tags:     tags,
			Warnings: warns,
			Period:   period,
			Samples:  samples,
		}, exporter.Options{
			Banner:      c.opts.Banner,
			Attribution: c.opts.Attribution,
		})
		if err != nil {
			return apperrors.NewAppError(apperrors.ErrTypeInternal, "failed to assemble document", err)
		}
		return nil
	})
	if err != nil {
		return c.fail(res, StageAssemble, err)
	}

	err = c.runStage(ctx, StageWrite, func() error {
		return c.write(outputs, doc)
	})
	if err != nil {
		return c.fail(res, StageWrite, err)
	}

	res.Status = StatusSuccess
	res.Output = outputs.Data
	if doc.HasDiagnostics() {
		res.ErrorsFile = outputs.Errors
		res.Warnings = doc.Diagnostics
	}
	res.Tags = len(tags)
	res.Samples = len(samples)
	res.BadSamples = stats.Bad
	return res
}

// write commits the data file and, when there are diagnostics, the errors
// file. A leftover errors file from an earlier run is removed otherwise.
func (c *Converter) write(outputs files.OutputPaths, doc *exporter.Document) error {
	tx := c.files.Begin()
	defer tx.Discard()

	if err := tx.Stage(outputs.Data, func(w io.Writer) error {
		return c.writer.WriteDocument(w, doc)
	}); err != nil {
		return err
	}

	if doc.HasDiagnostics() {
		if err := tx.Stage(outputs.Errors, func(w io.Writer) error {
			return c.writer.WriteDiagnostics(w, doc)
		}); err != nil {
			return err
		}
	} else {
		tx.RemoveOnCommit(outputs.Errors)
	}

	return tx.Commit()
}

func (c *Converter) runStage(ctx context.Context, stage Stage, fn func() error) error {
	start := time.Now()
	ctx, span := c.tracer.TraceStage(ctx, stage)
	defer span.End()

	err := fn()
	duration := time.Since(start)
	c.tracer.RecordStageCompletion(ctx, span, stage, duration, err)

	c.logger.DebugContext(ctx, "stage_finished",
		slog.String("stage", string(stage)),
		slog.Duration("duration", duration),
		slog.Bool("ok", err == nil))
	return err
}

func (c *Converter) fail(res Result, stage Stage, err error) Result {
	res.Status = StatusFailure
	res.Stage = stage
	res.Kind = apperrors.TypeOf(err)
	res.Message = failureMessage(err)
	return res
}

// failureMessage renders err without the type tag
func failureMessage(err error) string {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return err.Error()
	}
	if appErr.Cause != nil {
		return appErr.Message + ": " + appErr.Cause.Error()
	}
	return appErr.Message
}
