package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"unicode/utf8"

	"clcconvert/internal/config"
	"clcconvert/internal/files"
	"clcconvert/internal/infrastructure"
	"clcconvert/internal/operations"
	"clcconvert/internal/validation"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

type cliOptions struct {
	configPath string
	outDir     string
	quote      string
	logLevel   string
	inputs     []string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "configuration error: %v\n", err)
		return exitUsage
	}
	if opts.outDir != "" {
		cfg.Conversion.OutputDir = opts.outDir
	}
	if opts.quote != "" {
		cfg.Conversion.Quote = opts.quote
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	// no scrape endpoint in a one-shot run
	cfg.Telemetry.MetricExporter = "none"

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize logger: %v\n", err)
		return exitFailure
	}
	defer infrastructure.CloseLogFile()

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize telemetry: %v\n", err)
		return exitFailure
	}
	defer providers.Shutdown(context.Background())

	tracer, err := operations.NewConversionTracer(providers)
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize tracer: %v\n", err)
		return exitFailure
	}

	if cfg.Conversion.OutputDir != "" {
		if err := files.NewManager(logger).EnsureDirectory(cfg.Conversion.OutputDir); err != nil {
			fmt.Fprintln(stderr, err)
			return exitFailure
		}
	}

	paths := expandInputs(opts.inputs, logger)
	if len(paths) == 0 {
		fmt.Fprintln(stderr, "no input files found")
		return exitUsage
	}

	converter := operations.NewConverter(operations.OptionsFromConfig(cfg.Conversion), logger, tracer)
	report := converter.ConvertBatch(ctx, paths)

	for _, res := range report.Successes() {
		fmt.Fprintln(stdout, res.Notice())
	}
	for _, res := range report.Failures() {
		fmt.Fprintln(stderr, res.Notice())
	}

	if report.Failed > 0 {
		return exitFailure
	}
	return exitOK
}

func parseFlags(args []string, stderr io.Writer) (*cliOptions, error) {
	fs := flag.NewFlagSet(config.AppName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: %s [-out DIR] [-quote C] [-config FILE] [-log-level LEVEL] FILE|DIR...\n", config.AppName)
		fs.PrintDefaults()
	}

	opts := &cliOptions{}
	fs.StringVar(&opts.configPath, "config", "", "configuration file (defaults to clcconvert.yaml when present)")
	fs.StringVar(&opts.outDir, "out", "", "output directory, created when missing (defaults to each input's directory)")
	fs.StringVar(&opts.quote, "quote", "", "quote character of delimited inputs (default ')")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.quote != "" && (utf8.RuneCountInString(opts.quote) != 1 || opts.quote == ",") {
		fs.Usage()
		return nil, fmt.Errorf("-quote must be a single character other than a comma, got %q", opts.quote)
	}

	opts.inputs = fs.Args()
	if len(opts.inputs) == 0 {
		fs.Usage()
		return nil, fmt.Errorf("at least one input file or directory is required")
	}
	return opts, nil
}

// expandInputs replaces each directory argument by the supported files it
// contains, in name order. Other arguments pass through unchanged so that a
// missing file is reported by the converter like any other failure.
func expandInputs(args []string, logger *slog.Logger) []string {
	discovery := files.NewDiscovery("")
	validator := validation.NewFileValidator(logger)
	paths := make([]string, 0, len(args))

	for _, arg := range args {
		if validator.ValidateInputDirectory(arg) != nil {
			paths = append(paths, arg)
			continue
		}

		found, err := discovery.FindFiles(arg, validation.SupportedExtensions()...)
		if err != nil {
			logger.Warn("directory_scan_failed",
				slog.String("dir", arg),
				slog.String("error", err.Error()))
			paths = append(paths, arg)
			continue
		}
		for _, f := range found {
			paths = append(paths, f.Path)
		}
		logger.Debug("directory_expanded",
			slog.String("dir", arg),
			slog.Int("files", len(found)))
	}
	return paths
}
