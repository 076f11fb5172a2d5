package pipeline

import (
	"fmt"
	"io"
	"strings"

	"sheetetl/internal/config"
	"sheetetl/internal/dataprocessing"
	"sheetetl/internal/exporter"
	"sheetetl/internal/storage"
)

// Options configures one pipeline run
type Options struct {
	SourcePath string
	Sheet      string

	Schema    dataprocessing.Schema
	DateRange dataprocessing.DateRange
	// Seed drives the synthetic dates; 0 picks a random seed.
	Seed        uint64
	GroupPolicy dataprocessing.GroupPolicy

	Target   string
	Table    string
	IfExists storage.IfExists

	// CSV is nil when CSV export is disabled.
	CSV *exporter.CSVWriter
	// WorkbookPath is empty when XLSX export is disabled.
	WorkbookPath string
	// Console receives the printed tables; nil disables printing.
	Console io.Writer
}

// OptionsFromConfig converts a validated configuration into run options.
func OptionsFromConfig(cfg *config.Config, paths *config.Paths, console io.Writer) (Options, error) {
	dates, err := dataprocessing.ParseDateRange(cfg.Dates.Min, cfg.Dates.Max)
	if err != nil {
		return Options{}, err
	}
	policy, err := dataprocessing.ParseGroupPolicy(cfg.Reshape.GroupPolicy)
	if err != nil {
		return Options{}, err
	}
	ifExists, err := storage.ParseIfExists(cfg.Storage.IfExists)
	if err != nil {
		return Options{}, err
	}

	schema := dataprocessing.DefaultSchema()
	schema.Separator = cfg.Reshape.Separator
	schema.Metrics = cfg.Reshape.Metrics
	schema.ResourceTypes = cfg.Reshape.ResourceTypes
	schema.DataTypes = cfg.Reshape.DataTypes

	opts := Options{
		SourcePath:   paths.SourceFile,
		Sheet:        cfg.Source.Sheet,
		Schema:       schema,
		DateRange:    dates,
		Seed:         cfg.Dates.Seed,
		GroupPolicy:  policy,
		Target:       resolveTarget(paths, cfg.Storage.Target),
		Table:        cfg.Storage.Table,
		IfExists:     ifExists,
		WorkbookPath: paths.WorkbookFile,
	}
	if cfg.Export.CSVDir != "" {
		opts.CSV = exporter.NewCSVWriter(paths)
	}
	if cfg.Export.PrintConsole {
		opts.Console = console
	}

	if opts.SourcePath == "" || opts.Table == "" || opts.Target == "" {
		return Options{}, fmt.Errorf("source, target and table are required")
	}
	return opts, nil
}

// resolveTarget anchors a plain SQLite path to the base directory. URLs are
// passed through.
func resolveTarget(paths *config.Paths, target string) string {
	if strings.Contains(target, "://") {
		return target
	}
	return paths.Resolve(target)
}
