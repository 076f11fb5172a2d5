// Package pipeline runs the load, reshape and persist stages of one ETL run.
//
// A Runner loads the source workbook, flattens its multi-row header, stamps
// synthetic dates, reshapes the wide table into one record per key, sums
// daily totals and writes the result to the configured database. Optional
// stages export CSV and XLSX files and print both tables to the console.
// Each stage runs inside its own span and reports its duration to the run
// metrics; failures come back as *StageError.
package pipeline
