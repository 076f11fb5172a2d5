package dataprocessing

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoadOptions selects what to read from a workbook.
type LoadOptions struct {
	// Sheet is the worksheet name; empty selects the first sheet.
	Sheet string
}

// ParseFile reads a resource export workbook with a three-row header block.
func ParseFile(filePath string, opts LoadOptions) (*RawSheet, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrSourceUnreadable, filePath, err)
	}
	defer f.Close()

	slog.Info("Opened source workbook", slog.String("file_path", filePath))
	return parseWorkbook(f, opts)
}

// ParseReader is like ParseFile but reads the workbook from r.
func ParseReader(r io.Reader, opts LoadOptions) (*RawSheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}
	defer f.Close()

	return parseWorkbook(f, opts)
}

func parseWorkbook(f *excelize.File, opts LoadOptions) (*RawSheet, error) {
	sheetName, err := resolveSheet(f, opts.Sheet)
	if err != nil {
		return nil, err
	}

	// Number formats only affect display; metrics are summed from stored values.
	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrSourceUnreadable, sheetName, err)
	}
	if len(rows) < HeaderLevels {
		return nil, fmt.Errorf("%w: sheet %q has %d rows, need at least %d header rows",
			ErrMalformedHeader, sheetName, len(rows), HeaderLevels)
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	sheet := &RawSheet{
		Name:   sheetName,
		Header: normalizeHeader(rows[:HeaderLevels], width),
	}

	skipped := 0
	for _, row := range rows[HeaderLevels:] {
		if isBlankRow(row) {
			skipped++
			continue
		}
		sheet.Rows = append(sheet.Rows, padRow(row, width))
	}

	slog.Info("Sheet loaded",
		slog.String("sheet_name", sheetName),
		slog.Int("columns", width),
		slog.Int("data_rows", len(sheet.Rows)),
		slog.Int("blank_rows_skipped", skipped))

	return sheet, nil
}

// resolveSheet returns the requested sheet or the first sheet in the workbook.
func resolveSheet(f *excelize.File, requested string) (string, error) {
	sheets := f.GetSheetList()
	if requested == "" {
		if len(sheets) == 0 {
			return "", fmt.Errorf("%w: workbook has no sheets", ErrSheetNotFound)
		}
		return sheets[0], nil
	}

	for _, name := range sheets {
		if name == requested {
			return name, nil
		}
	}
	// Exported sheet names sometimes carry stray padding.
	for _, name := range sheets {
		if strings.EqualFold(strings.TrimSpace(name), strings.TrimSpace(requested)) {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: %q (available: %s)", ErrSheetNotFound, requested, strings.Join(sheets, ", "))
}

// normalizeHeader turns the header rows into per-column level parts.
//
// Blank cells are forward-filled from the left as long as no higher level
// started a new group at that column, which reproduces merged header spans.
// Cells left blank are named "Unnamed: <col>_level_<level>".
func normalizeHeader(headerRows [][]string, width int) [][]string {
	levels := make([][]string, len(headerRows))
	control := make([]bool, width)
	for i := range control {
		control[i] = true
	}

	for lvl, raw := range headerRows {
		row := padRow(raw, width)
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
		if width > 0 {
			last := row[0]
			for i := 1; i < width; i++ {
				if !control[i] {
					last = row[i]
				}
				if row[i] == "" {
					row[i] = last
				} else {
					control[i] = false
					last = row[i]
				}
			}
		}
		levels[lvl] = row
	}

	header := make([][]string, width)
	for col := 0; col < width; col++ {
		parts := make([]string, len(levels))
		for lvl := range levels {
			part := levels[lvl][col]
			if part == "" {
				part = fmt.Sprintf("%s%d_level_%d", placeholderPrefix, col, lvl)
			}
			parts[lvl] = part
		}
		header[col] = parts
	}
	return header
}

func padRow(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}
