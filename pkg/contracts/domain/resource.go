package domain

import (
	"slices"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Well-known metric names carried by resource exports.
const (
	MetricFact     = "fact"
	MetricForecast = "forecast"
)

// Column names of the long-format table, in storage order.
const (
	ColumnID           = "id"
	ColumnCompany      = "company"
	ColumnDataType     = "data_type"
	ColumnResourceType = "resource_type"
	ColumnDate         = "date"
)

// KeyColumns lists the columns that identify a clean record.
var KeyColumns = []string{ColumnID, ColumnCompany, ColumnDataType, ColumnResourceType, ColumnDate}

// RecordKey identifies one clean record.
type RecordKey struct {
	ID           int64     `json:"id" db:"id"`
	Company      string    `json:"company" db:"company"`
	DataType     string    `json:"data_type" db:"data_type"`
	ResourceType string    `json:"resource_type" db:"resource_type"`
	Date         time.Time `json:"date" db:"date"`
}

// Less orders keys by id, company, data type, resource type, then date.
func (k RecordKey) Less(o RecordKey) bool {
	if k.ID != o.ID {
		return k.ID < o.ID
	}
	if k.Company != o.Company {
		return k.Company < o.Company
	}
	if k.DataType != o.DataType {
		return k.DataType < o.DataType
	}
	if k.ResourceType != o.ResourceType {
		return k.ResourceType < o.ResourceType
	}
	return k.Date.Before(o.Date)
}

// CleanRecord is one row of the long-format table: a key plus one value per metric.
type CleanRecord struct {
	RecordKey
	Values map[string]decimal.Decimal `json:"values"`
}

// Value returns the metric value, zero when the metric is absent.
func (r CleanRecord) Value(metric string) decimal.Decimal {
	if v, ok := r.Values[metric]; ok {
		return v
	}
	return decimal.Zero
}

// CleanTable is the normalized result of reshaping a wide resource export.
type CleanTable struct {
	// Metrics holds the metric column names; Reshape emits them sorted.
	Metrics []string      `json:"metrics"`
	Records []CleanRecord `json:"records"`
}

// Columns returns the full column list: key columns followed by metrics.
func (t *CleanTable) Columns() []string {
	cols := make([]string, 0, len(KeyColumns)+len(t.Metrics))
	cols = append(cols, KeyColumns...)
	return append(cols, t.Metrics...)
}

// HasMetric reports whether the table carries the named metric column.
func (t *CleanTable) HasMetric(metric string) bool {
	return slices.Contains(t.Metrics, metric)
}

// Len returns the number of records.
func (t *CleanTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Sort orders records by their key.
func (t *CleanTable) Sort() {
	sort.SliceStable(t.Records, func(i, j int) bool {
		return t.Records[i].RecordKey.Less(t.Records[j].RecordKey)
	})
}
