package exporter

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatDecimal(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"0", "0"},
		{"123.000", "123"},
		{"-456", "-456"},
		{"123.456000", "123.456"},
		{"0.1", "0.1"},
		{"1234567.89", "1234567.89"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatDecimal(decimal.RequireFromString(tt.input)))
		})
	}
}

func TestFormatRows(t *testing.T) {
	clean := sampleClean()
	assert.Equal(t,
		[]string{"1", "company1", "data1", "Qoil", "2022-04-03", "3", "4"},
		cleanRow(clean.Metrics, clean.Records[1]))

	assert.Equal(t, []string{"2022-04-17", "7", "8.25"}, totalsRow(sampleTotals()[1]))
	assert.Equal(t, "2022-12-31", formatDate(time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "-42", formatInt(-42))
}
