package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyTotal holds fact and forecast sums for one date across all companies
// and resource types.
type DailyTotal struct {
	Date          time.Time       `json:"date"`
	TotalFact     decimal.Decimal `json:"total_fact"`
	TotalForecast decimal.Decimal `json:"total_forecast"`
}
