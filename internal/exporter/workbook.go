package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"sheetetl/pkg/contracts/domain"
)

// Workbook sheet names
const (
	CleanSheet  = "clean"
	TotalsSheet = "totals"
)

// WriteWorkbook saves the clean table and the totals as two sheets of one
// XLSX file. Dates are real date cells; metrics are numbers.
func WriteWorkbook(path string, clean *domain.CleanTable, totals []domain.DailyTotal) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	dateFormat := "yyyy-mm-dd"
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFormat})
	if err != nil {
		return fmt.Errorf("create date style: %w", err)
	}

	// The default sheet becomes the clean sheet.
	if err := f.SetSheetName(f.GetSheetName(0), CleanSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(TotalsSheet); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	cleanRows := make([][]any, 0, clean.Len())
	for _, rec := range clean.Records {
		row := []any{rec.ID, rec.Company, rec.DataType, rec.ResourceType, rec.Date}
		for _, m := range clean.Metrics {
			row = append(row, rec.Value(m).InexactFloat64())
		}
		cleanRows = append(cleanRows, row)
	}
	if err := writeSheet(f, CleanSheet, clean.Columns(), cleanRows, headerStyle, dateStyle, 5); err != nil {
		return err
	}

	totalRows := make([][]any, 0, len(totals))
	for _, tot := range totals {
		totalRows = append(totalRows, []any{tot.Date, tot.TotalFact.InexactFloat64(), tot.TotalForecast.InexactFloat64()})
	}
	if err := writeSheet(f, TotalsSheet, TotalsColumns, totalRows, headerStyle, dateStyle, 1); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}

	slog.Info("Workbook written",
		slog.String("file_path", path),
		slog.Int("clean_rows", len(cleanRows)),
		slog.Int("total_rows", len(totalRows)))
	return nil
}

// writeSheet writes a bold header row followed by rows; dateCol is the
// 1-based column holding dates.
func writeSheet(f *excelize.File, sheet string, header []string, rows [][]any, headerStyle, dateStyle, dateCol int) error {
	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}

	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i, err)
		}
	}

	if len(rows) > 0 {
		top, _ := excelize.CoordinatesToCellName(dateCol, 2)
		bottom, _ := excelize.CoordinatesToCellName(dateCol, len(rows)+1)
		if err := f.SetCellStyle(sheet, top, bottom, dateStyle); err != nil {
			return fmt.Errorf("style %s dates: %w", sheet, err)
		}
	}
	return nil
}
