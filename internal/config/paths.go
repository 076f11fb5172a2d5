package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Paths contains the resolved file system paths of one run.
// Relative config values are resolved against BaseDir, the working directory.
type Paths struct {
	BaseDir    string
	SourceFile string
	ReportsDir string
	LogsDir    string
	LogFile    string
	// WorkbookFile is the XLSX export; empty when disabled.
	WorkbookFile string
}

// GetPaths resolves the paths named by cfg against the working directory.
func GetPaths(cfg *Config) (*Paths, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewPaths(wd, cfg), nil
}

// NewPaths resolves the paths named by cfg against baseDir.
func NewPaths(baseDir string, cfg *Config) *Paths {
	p := &Paths{BaseDir: baseDir}
	p.SourceFile = p.Resolve(cfg.Source.Path)
	p.LogFile = p.Resolve(cfg.Logging.FilePath)
	p.LogsDir = filepath.Dir(p.LogFile)

	reports := cfg.Export.CSVDir
	if reports == "" {
		reports = DefaultReportsDir
	}
	p.ReportsDir = p.Resolve(reports)

	if cfg.Export.XLSXPath != "" {
		p.WorkbookFile = p.Resolve(cfg.Export.XLSXPath)
	}
	return p
}

// Resolve returns path unchanged when absolute, else joined to BaseDir.
func (p *Paths) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.BaseDir, path)
}

// EnsureDirectories creates the output directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{p.ReportsDir, p.LogsDir}
	if p.WorkbookFile != "" {
		directories = append(directories, filepath.Dir(p.WorkbookFile))
	}

	for _, dir := range directories {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// GetReportPath returns the path for a report file
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs the resolved paths for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("Path resolution summary",
		slog.String("base", p.BaseDir),
		slog.String("source", p.SourceFile),
		slog.String("reports", p.ReportsDir),
		slog.String("log_file", p.LogFile),
		slog.String("workbook", p.WorkbookFile))
}

// ValidateRequiredFiles checks that the source workbook exists
func (p *Paths) ValidateRequiredFiles() error {
	var missing []string
	if !FileExists(p.SourceFile) {
		missing = append(missing, fmt.Sprintf("source workbook (%s)", p.SourceFile))
	}
	if len(missing) > 0 {
		return fmt.Errorf("required files missing: %s", strings.Join(missing, ", "))
	}
	return nil
}
