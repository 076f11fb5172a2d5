package exporter

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"sheetetl/pkg/contracts/domain"
)

// TotalsColumns is the header of the totals table.
var TotalsColumns = []string{domain.ColumnDate, "total_fact", "total_forecast"}

// formatDecimal formats a metric value without trailing zeros
func formatDecimal(d decimal.Decimal) string {
	return d.String()
}

// formatDate formats a record date as YYYY-MM-DD
func formatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// cleanRow renders one clean record in column order.
func cleanRow(metrics []string, rec domain.CleanRecord) []string {
	row := make([]string, 0, len(domain.KeyColumns)+len(metrics))
	row = append(row,
		formatInt(rec.ID),
		rec.Company,
		rec.DataType,
		rec.ResourceType,
		formatDate(rec.Date),
	)
	for _, m := range metrics {
		row = append(row, formatDecimal(rec.Value(m)))
	}
	return row
}

func totalsRow(t domain.DailyTotal) []string {
	return []string{
		formatDate(t.Date),
		formatDecimal(t.TotalFact),
		formatDecimal(t.TotalForecast),
	}
}
