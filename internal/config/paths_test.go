package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaths(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.Export.XLSXPath = "out/report.xlsx"

	p := NewPaths(base, cfg)

	assert.Equal(t, filepath.Join(base, DefaultSourceFile), p.SourceFile)
	assert.Equal(t, filepath.Join(base, DefaultReportsDir), p.ReportsDir)
	assert.Equal(t, filepath.Join(base, "logs"), p.LogsDir)
	assert.Equal(t, filepath.Join(base, "out", "report.xlsx"), p.WorkbookFile)
	assert.Equal(t, filepath.Join(base, DefaultReportsDir, "totals.csv"), p.GetReportPath("totals.csv"))
	assert.Equal(t, filepath.Join(base, "logs", "x.log"), p.GetLogPath("x.log"))

	abs := filepath.Join(base, "abs.xlsx")
	assert.Equal(t, abs, p.Resolve(abs))
	assert.Equal(t, "", p.Resolve(""))
}

func TestEnsureDirectoriesAndRequiredFiles(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.Export.CSVDir = "csv"
	cfg.Export.XLSXPath = "xlsx/report.xlsx"
	p := NewPaths(base, cfg)

	require.NoError(t, p.EnsureDirectories())
	for _, dir := range []string{"csv", "logs", "xlsx"} {
		info, err := os.Stat(filepath.Join(base, dir))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	err := p.ValidateRequiredFiles()
	require.Error(t, err)
	assert.Contains(t, err.Error(), DefaultSourceFile)

	require.NoError(t, os.WriteFile(p.SourceFile, []byte("x"), 0644))
	assert.NoError(t, p.ValidateRequiredFiles())
	assert.True(t, FileExists(p.SourceFile))
	assert.False(t, FileExists(filepath.Join(base, "nope")))
}
