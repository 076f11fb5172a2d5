// Command sheetetl loads a resource export workbook, reshapes it to long
// format with synthetic dates and writes the result to a SQL table.
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
	"time"

	"sheetetl/internal/config"
	"sheetetl/internal/infrastructure"
	"sheetetl/internal/pipeline"
	"sheetetl/pkg/contracts"
)

// cliFlags holds the command line values. Only flags that were set override
// the loaded configuration.
type cliFlags struct {
	configFile  string
	in          string
	sheet       string
	db          string
	table       string
	ifExists    string
	minDate     string
	maxDate     string
	seed        uint64
	groupPolicy string
	csvDir      string
	xlsx        string
	logLevel    string
	print       bool
	version     bool
}

func newFlagSet(output io.Writer) (*flag.FlagSet, *cliFlags) {
	f := &cliFlags{}
	fs := flag.NewFlagSet(config.AppName, flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&f.configFile, "config", "", "YAML config file (defaults to sheetetl.yaml or configs/sheetetl.yaml)")
	fs.StringVar(&f.in, "in", "", "source workbook (default "+config.DefaultSourceFile+")")
	fs.StringVar(&f.sheet, "sheet", "", "sheet to read (defaults to the first sheet)")
	fs.StringVar(&f.db, "db", "", "database: a SQLite path, sqlite://path or mysql://dsn (default "+config.DefaultDatabase+")")
	fs.StringVar(&f.table, "table", "", "destination table (default "+config.DefaultTable+")")
	fs.StringVar(&f.ifExists, "if-exists", "", "existing table policy: replace, append or fail")
	fs.StringVar(&f.minDate, "min-date", "", "first synthetic date, YYYY-MM-DD")
	fs.StringVar(&f.maxDate, "max-date", "", "last synthetic date, YYYY-MM-DD")
	fs.Uint64Var(&f.seed, "seed", 0, "random seed for synthetic dates (0 picks one)")
	fs.StringVar(&f.groupPolicy, "group-policy", "", "duplicate key policy: first, strict or sum")
	fs.StringVar(&f.csvDir, "csv-dir", "", "write clean and totals CSV files to this directory")
	fs.StringVar(&f.xlsx, "xlsx", "", "write clean and totals sheets to this workbook")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn or error")
	fs.BoolVar(&f.print, "print", true, "print the clean and totals tables")
	fs.BoolVar(&f.version, "version", false, "print version and exit")

	return fs, f
}

// applyFlags overlays the flags that were explicitly set onto cfg.
func applyFlags(fs *flag.FlagSet, f *cliFlags, cfg *config.Config) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "in":
			cfg.Source.Path = f.in
		case "sheet":
			cfg.Source.Sheet = f.sheet
		case "db":
			cfg.Storage.Target = f.db
		case "table":
			cfg.Storage.Table = f.table
		case "if-exists":
			cfg.Storage.IfExists = f.ifExists
		case "min-date":
			cfg.Dates.Min = f.minDate
		case "max-date":
			cfg.Dates.Max = f.maxDate
		case "seed":
			cfg.Dates.Seed = f.seed
		case "group-policy":
			cfg.Reshape.GroupPolicy = f.groupPolicy
		case "csv-dir":
			cfg.Export.CSVDir = f.csvDir
		case "xlsx":
			cfg.Export.XLSXPath = f.xlsx
		case "log-level":
			cfg.Logging.Level = f.logLevel
		case "print":
			cfg.Export.PrintConsole = f.print
		}
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one ETL run and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs, f := newFlagSet(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if f.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return 0
	}

	cfg, err := config.Load(f.configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}
	applyFlags(fs, f, cfg)
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		return 1
	}

	paths, err := config.GetPaths(cfg)
	if err != nil {
		slog.Error("Failed to initialize paths", "error", err)
		return 1
	}
	cfg.Logging.FilePath = paths.LogFile

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		return 1
	}
	defer infrastructure.CloseLogFile()

	logger.Info("Starting sheetetl",
		slog.String("version", contracts.Version),
		slog.String("source", paths.SourceFile),
		slog.String("target", cfg.Storage.Target),
		slog.String("table", cfg.Storage.Table))
	paths.LogPathResolution(logger)

	if err := paths.EnsureDirectories(); err != nil {
		logger.Error("Failed to create required directories", slog.String("error", err.Error()))
		return 1
	}
	if err := paths.ValidateRequiredFiles(); err != nil {
		logger.Error("Source workbook not found", slog.String("error", err.Error()))
		return 1
	}

	providers, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry, contracts.Version), logger)
	if err != nil {
		logger.Error("Failed to initialize telemetry", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	opts, err := pipeline.OptionsFromConfig(cfg, paths, stdout)
	if err != nil {
		logger.Error("Invalid run options", slog.String("error", err.Error()))
		return 1
	}

	res, err := pipeline.NewRunner(opts, providers, logger).Run(ctx)
	if err != nil {
		attrs := []any{slog.String("error", err.Error())}
		var stageErr *pipeline.StageError
		if errors.As(err, &stageErr) {
			attrs = append(attrs, slog.String("stage", string(stageErr.Stage)))
		}
		logger.Error("Run failed", attrs...)
		return 1
	}

	logger.Info("Run finished",
		slog.String("run_id", res.RunID),
		slog.Uint64("seed", res.Seed),
		slog.Int64("rows_written", res.RowsWritten),
		slog.Duration("duration", res.Duration))
	return 0
}
