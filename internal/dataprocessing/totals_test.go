package dataprocessing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetetl/pkg/contracts/domain"
)

func record(id int64, company, resource, date string, fact, forecast string) domain.CleanRecord {
	return domain.CleanRecord{
		RecordKey: domain.RecordKey{
			ID:           id,
			Company:      company,
			DataType:     "data1",
			ResourceType: resource,
			Date:         day(date),
		},
		Values: map[string]decimal.Decimal{
			domain.MetricFact:     dec(fact),
			domain.MetricForecast: dec(forecast),
		},
	}
}

func TestTotals(t *testing.T) {
	table := &domain.CleanTable{
		Metrics: []string{domain.MetricFact, domain.MetricForecast},
		Records: []domain.CleanRecord{
			record(2, "b", "Qoil", "2022-04-09", "4", "0.5"),
			record(1, "a", "Qliq", "2022-04-02", "1.25", "2"),
			record(1, "a", "Qoil", "2022-04-02", "3", "4"),
			record(2, "b", "Qliq", "2022-04-09", "6", "1"),
			record(3, "c", "Qliq", "2022-04-02", "0", "10"),
		},
	}
	before := len(table.Records)

	totals, err := Totals(table)
	require.NoError(t, err)
	require.Len(t, totals, 2)

	assert.Equal(t, day("2022-04-02"), totals[0].Date)
	assert.True(t, totals[0].TotalFact.Equal(dec("4.25")))
	assert.True(t, totals[0].TotalForecast.Equal(dec("16")))

	assert.Equal(t, day("2022-04-09"), totals[1].Date)
	assert.True(t, totals[1].TotalFact.Equal(dec("10")))
	assert.True(t, totals[1].TotalForecast.Equal(dec("1.5")))

	assert.Len(t, table.Records, before)
}

func TestTotalsMatchPerDateSums(t *testing.T) {
	clean, err := Reshape(standardDatedTable(), DefaultReshapeOptions())
	require.NoError(t, err)

	totals, err := Totals(clean)
	require.NoError(t, err)

	for _, tot := range totals {
		fact, forecast := decimal.Zero, decimal.Zero
		for _, r := range clean.Records {
			if r.Date.Equal(tot.Date) {
				fact = fact.Add(r.Value(domain.MetricFact))
				forecast = forecast.Add(r.Value(domain.MetricForecast))
			}
		}
		assert.True(t, tot.TotalFact.Equal(fact), "fact on %s", tot.Date)
		assert.True(t, tot.TotalForecast.Equal(forecast), "forecast on %s", tot.Date)
	}
}

func TestTotalsUnsortedMetrics(t *testing.T) {
	table := &domain.CleanTable{
		Metrics: []string{domain.MetricForecast, domain.MetricFact},
		Records: []domain.CleanRecord{
			record(1, "a", "Qliq", "2022-04-02", "1", "2"),
		},
	}

	totals, err := Totals(table)
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.True(t, totals[0].TotalFact.Equal(dec("1")))
	assert.True(t, totals[0].TotalForecast.Equal(dec("2")))
}

func TestTotalsEmptyAndMissingMetric(t *testing.T) {
	totals, err := Totals(&domain.CleanTable{Metrics: []string{domain.MetricFact, domain.MetricForecast}})
	require.NoError(t, err)
	assert.Empty(t, totals)

	_, err = Totals(&domain.CleanTable{Metrics: []string{domain.MetricFact}})
	assert.ErrorIs(t, err, ErrMissingMetric)
}
