package dataprocessing

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

// DateLayout is the cell format of the synthetic date column.
const DateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Min time.Time
	Max time.Time
}

// ParseDateRange parses YYYY-MM-DD bounds into an inclusive range.
func ParseDateRange(minDate, maxDate string) (DateRange, error) {
	start, err := time.Parse(DateLayout, minDate)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: min date %q: %v", ErrInvalidDateRange, minDate, err)
	}
	end, err := time.Parse(DateLayout, maxDate)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: max date %q: %v", ErrInvalidDateRange, maxDate, err)
	}
	r := DateRange{Min: start, Max: end}
	if err := r.validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

// Days returns the number of calendar days in the range. Bounds are
// midnight UTC, so the count is exact for any span; time.Duration would
// saturate past roughly 292 years.
func (r DateRange) Days() int {
	return int((r.Max.Unix()-r.Min.Unix())/secondsPerDay) + 1
}

func (r DateRange) validate() error {
	if r.Max.Before(r.Min) {
		return fmt.Errorf("%w: min %s is after max %s", ErrInvalidDateRange,
			r.Min.Format(DateLayout), r.Max.Format(DateLayout))
	}
	return nil
}

// draw picks a day uniformly from the range.
func (r DateRange) draw(rng *rand.Rand) time.Time {
	return r.Min.AddDate(0, 0, rng.IntN(r.Days()))
}

// AddSyntheticDates appends a date column to t in place. Rows are dated in
// pairs: every even row draws a new random day from r and the following odd
// row reuses it. A trailing unpaired row keeps the date of the row before it.
func AddSyntheticDates(t *Table, r DateRange, rng *rand.Rand, column string) error {
	if column == "" {
		column = DefaultSchema().DateColumn
	}
	if t.ColumnIndex(column) >= 0 {
		return fmt.Errorf("%w: table already has a %q column", ErrMalformedHeader, column)
	}
	if err := r.validate(); err != nil {
		return err
	}

	t.Columns = append(t.Columns, column)

	last := len(t.Rows) - 1
	var current time.Time
	for i := range t.Rows {
		if i%2 == 0 && (i == 0 || i != last) {
			current = r.draw(rng)
		}
		t.Rows[i] = append(t.Rows[i], current.Format(DateLayout))
	}

	slog.Debug("Synthetic dates assigned",
		slog.Int("rows", len(t.Rows)),
		slog.Int("draws", drawCount(len(t.Rows))),
		slog.String("min_date", r.Min.Format(DateLayout)),
		slog.String("max_date", r.Max.Format(DateLayout)))

	return nil
}

// drawCount is the number of dates AddSyntheticDates draws for n rows.
func drawCount(n int) int {
	if n == 1 {
		return 1
	}
	return n / 2
}
