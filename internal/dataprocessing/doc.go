// Package dataprocessing turns wide resource exports into a normalized long
// table.
//
// # Pipeline
//
// A resource export is a workbook whose first sheet carries a three-row
// header: the metric (fact, forecast), the resource type and the data type.
// Two identifier columns, id and company, are named only in the first header
// row. The package processes it in four steps:
//
//  1. ParseFile reads the workbook into a RawSheet, filling merged header
//     spans and naming blank header cells "Unnamed: <col>_level_<level>".
//  2. FlattenHeader joins the header levels with "_" and restores the
//     identifier column names.
//  3. AddSyntheticDates assigns one random date per pair of rows.
//  4. Reshape splits every metric column by the Schema and sums the
//     resulting fragments per (id, company, data type, resource type, date).
//
// Totals then sums fact and forecast per date.
//
// # Usage
//
//	sheet, err := dataprocessing.ParseFile("test_data.xlsx", dataprocessing.LoadOptions{})
//	if err != nil {
//	    return err
//	}
//	table, err := dataprocessing.FlattenHeader(sheet, dataprocessing.DefaultSchema())
//	...
//	clean, err := dataprocessing.Reshape(table, dataprocessing.DefaultReshapeOptions())
//	totals, err := dataprocessing.Totals(clean)
//
// # Error Handling
//
// Malformed input is reported through the sentinel errors in errors.go,
// wrapped with the offending row or column; use errors.Is to classify them.
package dataprocessing
