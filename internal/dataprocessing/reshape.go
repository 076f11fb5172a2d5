package dataprocessing

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"sheetetl/pkg/contracts/domain"
)

// groupKey identifies the source rows that collapse into one value per column.
type groupKey struct {
	ID      int64
	Company string
	Date    string
}

// mergeKey identifies one output record.
type mergeKey struct {
	ID           int64
	Company      string
	DataType     string
	ResourceType string
	Date         string
}

// fragment is one metric value of one output record, produced from a single
// source column.
type fragment struct {
	key    mergeKey
	metric string
	value  decimal.Decimal
}

// cellValue is a parsed metric cell; ok is false for blank cells.
type cellValue struct {
	row   int
	value decimal.Decimal
	ok    bool
}

// Reshape turns a flat, dated wide table into long format.
//
// Every metric column is split into (metric, resource type, data type) by the
// schema, reduced to one value per (id, company, date) group according to the
// group policy, and emitted as a fragment. Fragments are then summed per
// (id, company, data type, resource type, date); metrics missing for a key
// are zero. Rows with a blank id or company are dropped.
func Reshape(t *Table, opts ReshapeOptions) (*domain.CleanTable, error) {
	if opts.Policy == "" {
		opts.Policy = GroupFirst
	}
	schema := opts.Schema
	if len(schema.IdentifierColumns) != 2 {
		return nil, fmt.Errorf("%w: schema needs an id and a company column, got %v",
			ErrMalformedHeader, schema.IdentifierColumns)
	}

	specs, err := schema.Validate(t.Columns)
	if err != nil {
		return nil, err
	}

	idIdx := t.ColumnIndex(schema.IdentifierColumns[0])
	companyIdx := t.ColumnIndex(schema.IdentifierColumns[1])
	dateIdx := t.ColumnIndex(schema.dateColumn())
	log := opts.logger()

	keys := make([]groupKey, len(t.Rows))
	valid := make([]int, 0, len(t.Rows))
	for i, row := range t.Rows {
		k, ok, err := parseGroupKey(row, idIdx, companyIdx, dateIdx)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if !ok {
			log.Warn("Dropping row without identifier", slog.Int("row", i))
			continue
		}
		keys[i] = k
		valid = append(valid, i)
	}

	rowKey := func(i int) groupKey { return keys[i] }
	order := lo.Uniq(lo.Map(valid, func(i int, _ int) groupKey { return keys[i] }))
	members := lo.GroupBy(valid, rowKey)

	fragments := make([]fragment, 0, len(specs)*len(order))
	for _, spec := range specs {
		col := t.ColumnIndex(spec.Name)
		for _, k := range order {
			cells := make([]cellValue, 0, len(members[k]))
			for _, i := range members[k] {
				v, ok, err := parseDecimal(cellAt(t.Rows[i], col))
				if err != nil {
					return nil, fmt.Errorf("row %d column %q: %w", i, spec.Name, err)
				}
				cells = append(cells, cellValue{row: i, value: v, ok: ok})
			}

			value, err := resolveGroup(opts.Policy, cells)
			if err != nil {
				return nil, fmt.Errorf("column %q id %d company %q date %s: %w",
					spec.Name, k.ID, k.Company, k.Date, err)
			}
			if opts.Policy == GroupFirst && hasConflict(cells) {
				log.Warn("Group carries differing values, keeping first",
					slog.String("column", spec.Name),
					slog.Int64("id", k.ID),
					slog.String("company", k.Company),
					slog.String("date", k.Date))
			}

			fragments = append(fragments, fragment{
				key: mergeKey{
					ID:           k.ID,
					Company:      k.Company,
					DataType:     spec.DataType,
					ResourceType: spec.ResourceType,
					Date:         k.Date,
				},
				metric: spec.Metric,
				value:  value,
			})
		}
	}

	metrics := lo.Uniq(lo.Map(specs, func(s ColumnSpec, _ int) string { return s.Metric }))
	table, err := mergeFragments(fragments, metrics)
	if err != nil {
		return nil, err
	}

	log.Info("Reshape complete",
		slog.Int("source_rows", len(t.Rows)),
		slog.Int("metric_columns", len(specs)),
		slog.Int("groups", len(order)),
		slog.Int("fragments", len(fragments)),
		slog.Int("records", table.Len()),
		slog.String("group_policy", string(opts.Policy)))

	return table, nil
}

// mergeFragments sums fragments per output key into a sorted clean table.
func mergeFragments(fragments []fragment, metrics []string) (*domain.CleanTable, error) {
	metrics = append([]string(nil), metrics...)
	slices.Sort(metrics)

	table := &domain.CleanTable{Metrics: metrics}
	index := make(map[mergeKey]int, len(fragments))

	for _, f := range fragments {
		pos, ok := index[f.key]
		if !ok {
			date, err := time.Parse(DateLayout, f.key.Date)
			if err != nil {
				return nil, fmt.Errorf("%w: date %q: %v", ErrMalformedColumn, f.key.Date, err)
			}
			values := make(map[string]decimal.Decimal, len(metrics))
			for _, m := range metrics {
				values[m] = decimal.Zero
			}
			table.Records = append(table.Records, domain.CleanRecord{
				RecordKey: domain.RecordKey{
					ID:           f.key.ID,
					Company:      f.key.Company,
					DataType:     f.key.DataType,
					ResourceType: f.key.ResourceType,
					Date:         date,
				},
				Values: values,
			})
			pos = len(table.Records) - 1
			index[f.key] = pos
		}
		rec := &table.Records[pos]
		rec.Values[f.metric] = rec.Values[f.metric].Add(f.value)
	}

	table.Sort()
	return table, nil
}

// resolveGroup reduces the cells of one group to a single value.
func resolveGroup(policy GroupPolicy, cells []cellValue) (decimal.Decimal, error) {
	present := lo.Filter(cells, func(c cellValue, _ int) bool { return c.ok })
	if len(present) == 0 {
		return decimal.Zero, nil
	}

	switch policy {
	case GroupFirst:
		return present[0].value, nil
	case GroupStrict:
		if hasConflict(cells) {
			return decimal.Zero, fmt.Errorf("%w: %s", ErrAmbiguousGroup, describeCells(present))
		}
		return present[0].value, nil
	case GroupSum:
		return lo.Reduce(present, func(acc decimal.Decimal, c cellValue, _ int) decimal.Decimal {
			return acc.Add(c.value)
		}, decimal.Zero), nil
	default:
		return decimal.Zero, fmt.Errorf("unknown group policy %q", policy)
	}
}

// hasConflict reports whether non-blank cells disagree.
func hasConflict(cells []cellValue) bool {
	var first *decimal.Decimal
	for i := range cells {
		if !cells[i].ok {
			continue
		}
		if first == nil {
			first = &cells[i].value
			continue
		}
		if !cells[i].value.Equal(*first) {
			return true
		}
	}
	return false
}

func describeCells(cells []cellValue) string {
	parts := lo.Map(cells, func(c cellValue, _ int) string {
		return fmt.Sprintf("row %d=%s", c.row, c.value.String())
	})
	return strings.Join(parts, ", ")
}

func parseGroupKey(row []string, idIdx, companyIdx, dateIdx int) (groupKey, bool, error) {
	idCell := cellAt(row, idIdx)
	company := cellAt(row, companyIdx)
	if idCell == "" || company == "" {
		return groupKey{}, false, nil
	}

	id, err := parseID(idCell)
	if err != nil {
		return groupKey{}, false, err
	}

	date := cellAt(row, dateIdx)
	if _, err := time.Parse(DateLayout, date); err != nil {
		return groupKey{}, false, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return groupKey{ID: id, Company: company, Date: date}, true, nil
}

// parseID accepts integer cells, including integral decimals such as "3.0".
func parseID(cell string) (int64, error) {
	d, ok, err := parseDecimal(cell)
	if err != nil {
		return 0, fmt.Errorf("id: %w", err)
	}
	if !ok || !d.IsInteger() {
		return 0, fmt.Errorf("%w: id %q is not an integer", ErrNonNumericValue, cell)
	}
	return d.IntPart(), nil
}

// parseDecimal parses a stored metric value. Blank cells report ok=false.
// Text cells with separators such as "1,5" are rejected rather than guessed.
func parseDecimal(cell string) (decimal.Decimal, bool, error) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return decimal.Zero, false, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("%w: %q", ErrNonNumericValue, cell)
	}
	return d, true, nil
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
