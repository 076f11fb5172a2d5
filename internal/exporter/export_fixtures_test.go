package exporter

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"sheetetl/internal/config"
	"sheetetl/pkg/contracts/domain"
)

func sampleClean() *domain.CleanTable {
	d1 := time.Date(2022, 4, 3, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2022, 4, 17, 0, 0, 0, 0, time.UTC)
	rec := func(id int64, company, resource string, date time.Time, fact, forecast string) domain.CleanRecord {
		return domain.CleanRecord{
			RecordKey: domain.RecordKey{ID: id, Company: company, DataType: "data1", ResourceType: resource, Date: date},
			Values: map[string]decimal.Decimal{
				domain.MetricFact:     decimal.RequireFromString(fact),
				domain.MetricForecast: decimal.RequireFromString(forecast),
			},
		}
	}
	return &domain.CleanTable{
		Metrics: []string{domain.MetricFact, domain.MetricForecast},
		Records: []domain.CleanRecord{
			rec(1, "company1", "Qliq", d1, "10.50", "12"),
			rec(1, "company1", "Qoil", d1, "3", "4"),
			rec(2, "company2, LLC", "Qliq", d2, "7", "8.25"),
		},
	}
}

func sampleTotals() []domain.DailyTotal {
	return []domain.DailyTotal{
		{Date: time.Date(2022, 4, 3, 0, 0, 0, 0, time.UTC), TotalFact: decimal.RequireFromString("13.5"), TotalForecast: decimal.NewFromInt(16)},
		{Date: time.Date(2022, 4, 17, 0, 0, 0, 0, time.UTC), TotalFact: decimal.NewFromInt(7), TotalForecast: decimal.RequireFromString("8.25")},
	}
}

func testPaths(t *testing.T) (*config.Paths, string) {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Export.CSVDir = "reports"
	return config.NewPaths(base, cfg), base
}
