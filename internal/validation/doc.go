// Package validation checks the source workbook and output directories
// before the pipeline reads or writes them.
package validation
