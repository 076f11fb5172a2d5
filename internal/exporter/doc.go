// Package exporter renders reshaped resource data for people and
// spreadsheets.
//
// Console output prints the clean table and the per-date totals under
// DATAFRAME: and TOTAL: headings, aligned with a tab writer.
//
// CSVWriter writes CSV files with a UTF-8 BOM for Excel compatibility;
// relative file names land in the configured reports directory. Large
// tables are written through a StreamWriter.
//
// WriteWorkbook saves both tables as sheets of one XLSX file.
//
// Example usage:
//
//	writer := exporter.NewCSVWriter(paths)
//	if err := writer.WriteCleanTable(exporter.CleanCSVFile, clean); err != nil {
//		return err
//	}
//	err := exporter.WriteWorkbook(paths.WorkbookFile, clean, totals)
package exporter
