package testutil

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// FixtureSheet is the sheet name used by fixture workbooks.
const FixtureSheet = "Sheet1"

// ResourceColumn is one metric column of a fixture export.
type ResourceColumn struct {
	Metric       string
	ResourceType string
	DataType     string
}

// ResourceRow is one data row of a fixture export. Values line up with the
// workbook columns; a nil value leaves the cell blank.
type ResourceRow struct {
	ID      any
	Company string
	Values  []any
}

// StandardColumns returns the fact/forecast x Qliq/Qoil x data1/data2 layout
// of the usual export.
func StandardColumns() []ResourceColumn {
	var cols []ResourceColumn
	for _, metric := range []string{"fact", "forecast"} {
		for _, resource := range []string{"Qliq", "Qoil"} {
			for _, data := range []string{"data1", "data2"} {
				cols = append(cols, ResourceColumn{Metric: metric, ResourceType: resource, DataType: data})
			}
		}
	}
	return cols
}

// WriteResourceWorkbook saves a resource export to dir and returns its path.
// The header spans three rows; repeated metric and resource type names are
// written once and merged across their span, like the real export.
func WriteResourceWorkbook(t testing.TB, dir, name string, cols []ResourceColumn, rows []ResourceRow) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	set := func(col, row int, value any) {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			t.Fatalf("cell name %d,%d: %v", col, row, err)
		}
		if err := f.SetCellValue(FixtureSheet, cell, value); err != nil {
			t.Fatalf("set %s: %v", cell, err)
		}
	}
	merge := func(fromCol, toCol, row int) {
		if toCol <= fromCol {
			return
		}
		from, _ := excelize.CoordinatesToCellName(fromCol, row)
		to, _ := excelize.CoordinatesToCellName(toCol, row)
		if err := f.MergeCell(FixtureSheet, from, to); err != nil {
			t.Fatalf("merge %s:%s: %v", from, to, err)
		}
	}

	set(1, 1, "id")
	set(2, 1, "company")

	metricStart, resourceStart := 0, 0
	for i, c := range cols {
		col := i + 3
		newMetric := i == 0 || cols[i-1].Metric != c.Metric
		newResource := newMetric || cols[i-1].ResourceType != c.ResourceType
		if newMetric {
			if i > 0 {
				merge(metricStart, col-1, 1)
			}
			set(col, 1, c.Metric)
			metricStart = col
		}
		if newResource {
			if i > 0 {
				merge(resourceStart, col-1, 2)
			}
			set(col, 2, c.ResourceType)
			resourceStart = col
		}
		set(col, 3, c.DataType)
	}
	if len(cols) > 0 {
		last := len(cols) + 2
		merge(metricStart, last, 1)
		merge(resourceStart, last, 2)
	}

	for r, row := range rows {
		rowNum := r + 4
		if row.ID != nil {
			set(1, rowNum, row.ID)
		}
		if row.Company != "" {
			set(2, rowNum, row.Company)
		}
		for i, v := range row.Values {
			if v == nil {
				continue
			}
			set(i+3, rowNum, v)
		}
	}

	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}
