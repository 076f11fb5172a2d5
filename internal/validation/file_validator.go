package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var (
	// ErrNotWorkbook is returned for files that are not OOXML workbooks.
	ErrNotWorkbook = errors.New("not an xlsx workbook")
	// ErrTempFile is returned for the ~$ lock files Excel leaves behind.
	ErrTempFile = errors.New("temporary excel file")
)

// zipMagic starts every OOXML package.
var zipMagic = []byte("PK\x03\x04")

var workbookExtensions = []string{".xlsx", ".xlsm", ".xltx", ".xltm"}

// FileValidator checks input and output locations before a run touches
// them. Every rejection is logged.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator returns a validator logging to logger, or to the default
// logger when nil.
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{logger: logger}
}

// ValidateOutputDirectory creates dir when needed and probes it with a
// throwaway file.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return v.fail("Cannot create output directory", dir, fmt.Errorf("create output directory %s: %w", dir, err))
	}

	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return v.fail("Output directory is not writable", dir, fmt.Errorf("output directory %s is not writable: %w", dir, err))
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)

	v.logger.Debug("Output directory validated", slog.String("directory", dir))
	return nil
}

// ValidateFile checks that path is a regular file that can be opened.
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	switch {
	case err != nil:
		return v.fail("Cannot stat file", path, fmt.Errorf("stat %s: %w", path, err))
	case info.IsDir():
		return v.fail("Expected a file, found a directory", path, fmt.Errorf("%s is a directory, not a file", path))
	}

	f, err := os.Open(path)
	if err != nil {
		return v.fail("File is not readable", path, fmt.Errorf("open %s: %w", path, err))
	}
	f.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateWorkbook checks that path is a readable xlsx package. Legacy
// binary .xls files are rejected.
func (v *FileValidator) ValidateWorkbook(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	if strings.HasPrefix(filepath.Base(path), "~$") {
		return v.fail("Refusing Excel lock file", path, fmt.Errorf("%w: %s", ErrTempFile, path))
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(workbookExtensions, ext) {
		return v.fail("Unsupported workbook extension", path, fmt.Errorf("%w: %s (extension %q)", ErrNotWorkbook, path, ext))
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, len(zipMagic))
	if _, err := io.ReadFull(f, head); err != nil || !bytes.Equal(head, zipMagic) {
		return v.fail("Workbook has no zip signature", path, fmt.Errorf("%w: %s has no zip signature", ErrNotWorkbook, path))
	}
	return nil
}

// fail logs msg for path and returns err.
func (v *FileValidator) fail(msg, path string, err error) error {
	v.logger.Error(msg,
		slog.String("path", path),
		slog.String("error", err.Error()))
	return err
}
