package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetetl/internal/config"
	"sheetetl/internal/dataprocessing"
	"sheetetl/internal/exporter"
	"sheetetl/internal/infrastructure"
	"sheetetl/internal/shared/testutil"
	"sheetetl/internal/storage"
	"sheetetl/internal/validation"
)

func sampleRows() []testutil.ResourceRow {
	return []testutil.ResourceRow{
		{ID: 1, Company: "company1", Values: []any{1, 2, 3, 4, 5, 6, 7, 8}},
		{ID: 1, Company: "company1", Values: []any{1, 2, 3, 4, 5, 6, 7, 8}},
		{ID: 2, Company: "company2", Values: []any{10, 20, 30, 40, 50, 60, 70, 80}},
	}
}

func testOptions(t *testing.T) Options {
	t.Helper()
	dir := t.TempDir()
	source := testutil.WriteResourceWorkbook(t, dir, "export.xlsx", testutil.StandardColumns(), sampleRows())

	dates, err := dataprocessing.ParseDateRange("2022-04-01", "2022-04-30")
	require.NoError(t, err)

	return Options{
		SourcePath:  source,
		Schema:      dataprocessing.DefaultSchema(),
		DateRange:   dates,
		Seed:        42,
		GroupPolicy: dataprocessing.GroupFirst,
		Target:      filepath.Join(dir, "out.sqlite"),
		Table:       "test_data",
		IfExists:    storage.IfExistsReplace,
	}
}

func TestRunWritesTable(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	opts := testOptions(t)

	res, err := NewRunner(opts, nil, logger).Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, uint64(42), res.Seed)
	assert.Equal(t, 3, res.RowsLoaded)
	assert.Equal(t, 8, res.Clean.Len())
	assert.Equal(t, int64(8), res.RowsWritten)
	assert.NotEmpty(t, res.Totals)

	store, err := storage.Open(context.Background(), opts.Target)
	require.NoError(t, err)
	defer store.Close()

	n, err := store.CountRows(context.Background(), opts.Table)
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)

	assert.True(t, handler.ContainsMessage("Pipeline completed"))
	assert.True(t, handler.ContainsAttr("rows_written", int64(8)))
}

func TestRunSameSeedSameDates(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	opts := testOptions(t)

	first, err := NewRunner(opts, nil, logger).Run(context.Background())
	require.NoError(t, err)
	second, err := NewRunner(opts, nil, logger).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, second.Totals, len(first.Totals))
	for i := range first.Totals {
		assert.True(t, first.Totals[i].Date.Equal(second.Totals[i].Date))
	}
}

func TestRunRandomSeed(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	opts := testOptions(t)
	opts.Seed = 0

	res, err := NewRunner(opts, nil, logger).Run(context.Background())
	require.NoError(t, err)
	assert.NotZero(t, res.Seed)
}

func TestRunExports(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	opts := testOptions(t)
	reports := t.TempDir()

	cfg := config.Default()
	cfg.Export.CSVDir = reports
	cfg.Export.XLSXPath = filepath.Join(reports, "result.xlsx")
	paths := config.NewPaths(reports, cfg)

	var console bytes.Buffer
	opts.CSV = exporter.NewCSVWriter(paths)
	opts.WorkbookPath = paths.WorkbookFile
	opts.Console = &console

	_, err := NewRunner(opts, nil, logger).Run(context.Background())
	require.NoError(t, err)

	for _, name := range []string{exporter.CleanCSVFile, exporter.TotalsCSVFile, "result.xlsx"} {
		_, err := os.Stat(filepath.Join(reports, name))
		assert.NoError(t, err, name)
	}
	assert.Contains(t, console.String(), "[8 rows x 7 columns]")
}

func TestRunPrintsCleanTableBeforeWrite(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	opts := testOptions(t)
	opts.Target = "postgres://localhost/db"
	var console bytes.Buffer
	opts.Console = &console

	_, err := NewRunner(opts, nil, logger).Run(context.Background())

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageWrite, stageErr.Stage)
	assert.Contains(t, console.String(), "DATAFRAME:")
	assert.Contains(t, console.String(), "[8 rows x 7 columns]")
	assert.NotContains(t, console.String(), "TOTAL:")
}

func TestRunStageErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
		stage  Stage
		target error
	}{
		{
			name:   "missing source",
			modify: func(o *Options) { o.SourcePath = filepath.Join(t.TempDir(), "missing.xlsx") },
			stage:  StageLoad,
		},
		{
			name: "not a workbook",
			modify: func(o *Options) {
				path := filepath.Join(t.TempDir(), "data.xlsx")
				require.NoError(t, os.WriteFile(path, []byte("id,company\n"), 0644))
				o.SourcePath = path
			},
			stage:  StageLoad,
			target: validation.ErrNotWorkbook,
		},
		{
			name:   "bad sheet",
			modify: func(o *Options) { o.Sheet = "nope" },
			stage:  StageLoad,
		},
		{
			name: "strict conflict",
			modify: func(o *Options) {
				// Rows 0 and 1 always share a date, so their values collide.
				rows := sampleRows()
				rows[1].Values = []any{9, 2, 3, 4, 5, 6, 7, 8}
				o.SourcePath = testutil.WriteResourceWorkbook(t, t.TempDir(), "conflict.xlsx", testutil.StandardColumns(), rows)
				o.GroupPolicy = dataprocessing.GroupStrict
			},
			stage:  StageReshape,
			target: dataprocessing.ErrAmbiguousGroup,
		},
		{
			name:   "unsupported target",
			modify: func(o *Options) { o.Target = "postgres://localhost/db" },
			stage:  StageWrite,
			target: storage.ErrUnsupportedTarget,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, handler := testutil.NewTestLogger(t)
			opts := testOptions(t)
			tt.modify(&opts)

			res, err := NewRunner(opts, nil, logger).Run(context.Background())
			require.Error(t, err)
			assert.Nil(t, res)

			var stageErr *StageError
			require.True(t, errors.As(err, &stageErr))
			assert.Equal(t, tt.stage, stageErr.Stage)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			assert.True(t, handler.ContainsMessage("Stage failed"))
		})
	}
}

func TestRunStrictAcceptsIdenticalDuplicates(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	opts := testOptions(t)
	opts.GroupPolicy = dataprocessing.GroupStrict

	res, err := NewRunner(opts, nil, logger).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, res.Clean.Len())
}

func TestRunFailWhenTableExists(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	opts := testOptions(t)

	_, err := NewRunner(opts, nil, logger).Run(context.Background())
	require.NoError(t, err)

	opts.IfExists = storage.IfExistsFail
	_, err = NewRunner(opts, nil, logger).Run(context.Background())
	assert.ErrorIs(t, err, storage.ErrTableExists)
}

func TestRunCanceled(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(testOptions(t), nil, logger).Run(ctx)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageLoad, stageErr.Stage)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunRecordsMetrics(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	var spans bytes.Buffer

	providers, err := infrastructure.InitializeOTel(&infrastructure.OTelConfig{
		ServiceName:    "sheetetl-test",
		ServiceVersion: "test",
		TraceExporter:  "stdout",
		TraceWriter:    &spans,
	}, logger)
	require.NoError(t, err)

	_, err = NewRunner(testOptions(t), providers, logger).Run(context.Background())
	require.NoError(t, err)

	families, err := providers.Registry.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["sheetetl_rows_written_total"], "metrics: %v", names)
	assert.True(t, names["sheetetl_runs_total"], "metrics: %v", names)

	require.NoError(t, providers.Shutdown(context.Background()))
	assert.Contains(t, spans.String(), `"Name": "pipeline.reshape"`)
	assert.Contains(t, spans.String(), `"Name": "pipeline.run"`)
}

func TestOptionsFromConfig(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Storage.Target = "out/db.sqlite"
	cfg.Reshape.GroupPolicy = "sum"
	cfg.Dates.Seed = 9
	cfg.Export.PrintConsole = false
	paths := config.NewPaths(base, cfg)

	opts, err := OptionsFromConfig(cfg, paths, os.Stdout)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, config.DefaultSourceFile), opts.SourcePath)
	assert.Equal(t, filepath.Join(base, "out/db.sqlite"), opts.Target)
	assert.Equal(t, dataprocessing.GroupSum, opts.GroupPolicy)
	assert.Equal(t, uint64(9), opts.Seed)
	assert.Nil(t, opts.CSV)
	assert.Nil(t, opts.Console)
	assert.Empty(t, opts.WorkbookPath)

	cfg.Storage.Target = "mysql://user:pw@tcp(localhost:3306)/db"
	opts, err = OptionsFromConfig(cfg, paths, os.Stdout)
	require.NoError(t, err)
	assert.Equal(t, cfg.Storage.Target, opts.Target)

	cfg.Dates.Min = "2022-05-01"
	cfg.Dates.Max = "2022-04-01"
	_, err = OptionsFromConfig(cfg, paths, os.Stdout)
	assert.Error(t, err)
}
