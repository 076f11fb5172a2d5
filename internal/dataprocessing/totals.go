package dataprocessing

import (
	"fmt"
	"slices"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"sheetetl/pkg/contracts/domain"
)

// Totals sums fact and forecast per date across every company and resource
// type. The input table is not modified; dates are returned in ascending order.
func Totals(t *domain.CleanTable) ([]domain.DailyTotal, error) {
	for _, m := range []string{domain.MetricFact, domain.MetricForecast} {
		if !t.HasMetric(m) {
			return nil, fmt.Errorf("%w: table has no %q column (metrics: %v)", ErrMissingMetric, m, t.Metrics)
		}
	}

	byDate := lo.GroupBy(t.Records, func(r domain.CleanRecord) time.Time { return r.Date })
	dates := lo.Keys(byDate)
	slices.SortFunc(dates, func(a, b time.Time) int { return a.Compare(b) })

	totals := make([]domain.DailyTotal, 0, len(dates))
	for _, d := range dates {
		records := byDate[d]
		totals = append(totals, domain.DailyTotal{
			Date:          d,
			TotalFact:     sumMetric(records, domain.MetricFact),
			TotalForecast: sumMetric(records, domain.MetricForecast),
		})
	}
	return totals, nil
}

func sumMetric(records []domain.CleanRecord, metric string) decimal.Decimal {
	return lo.Reduce(records, func(acc decimal.Decimal, r domain.CleanRecord, _ int) decimal.Decimal {
		return acc.Add(r.Value(metric))
	}, decimal.Zero)
}
