package dataprocessing

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"

	"sheetetl/pkg/contracts/domain"
)

// DefaultSeparator joins header levels into flat column names.
const DefaultSeparator = "_"

// Schema describes the naming convention of a resource export. Metric
// columns are named <metric><sep><resource_type><sep><data_type>; an empty
// enumeration accepts any value for that part.
type Schema struct {
	Separator         string   `yaml:"separator"`
	IdentifierColumns []string `yaml:"identifier_columns"`
	DateColumn        string   `yaml:"date_column"`
	Metrics           []string `yaml:"metrics"`
	ResourceTypes     []string `yaml:"resource_types"`
	DataTypes         []string `yaml:"data_types"`
}

// DefaultSchema returns the schema of the standard fact/forecast export.
func DefaultSchema() Schema {
	return Schema{
		Separator:         DefaultSeparator,
		IdentifierColumns: []string{domain.ColumnID, domain.ColumnCompany},
		DateColumn:        domain.ColumnDate,
		Metrics:           []string{domain.MetricFact, domain.MetricForecast},
	}
}

// ColumnSpec is a metric column split into its parts.
type ColumnSpec struct {
	Name         string
	Metric       string
	ResourceType string
	DataType     string
}

func (s Schema) separator() string {
	if s.Separator == "" {
		return DefaultSeparator
	}
	return s.Separator
}

func (s Schema) dateColumn() string {
	if s.DateColumn == "" {
		return domain.ColumnDate
	}
	return s.DateColumn
}

// IsMetricColumn reports whether a flat column carries metric values.
func (s Schema) IsMetricColumn(name string) bool {
	return name != s.dateColumn() && !slices.Contains(s.IdentifierColumns, name)
}

// ParseColumn splits a flat metric column name and checks each part against
// the schema enumerations.
func (s Schema) ParseColumn(name string) (ColumnSpec, error) {
	parts := strings.Split(name, s.separator())
	if len(parts) != 3 {
		return ColumnSpec{}, fmt.Errorf("%w: %q splits into %d parts, want 3",
			ErrMalformedColumn, name, len(parts))
	}
	for i, p := range parts {
		if p == "" {
			return ColumnSpec{}, fmt.Errorf("%w: %q has an empty part at position %d",
				ErrMalformedColumn, name, i)
		}
	}

	spec := ColumnSpec{
		Name:         name,
		Metric:       parts[0],
		ResourceType: parts[1],
		DataType:     parts[2],
	}

	checks := []struct {
		kind    string
		value   string
		allowed []string
	}{
		{"metric", spec.Metric, s.Metrics},
		{"resource type", spec.ResourceType, s.ResourceTypes},
		{"data type", spec.DataType, s.DataTypes},
	}
	for _, c := range checks {
		if len(c.allowed) > 0 && !slices.Contains(c.allowed, c.value) {
			return ColumnSpec{}, fmt.Errorf("%w: %q has unknown %s %q (allowed: %s)",
				ErrMalformedColumn, name, c.kind, c.value, strings.Join(c.allowed, ", "))
		}
	}
	return spec, nil
}

// Validate checks a flat column list against the schema: identifier and date
// columns must be present and every other column must parse as a metric
// column. It returns the metric column specs in column order.
func (s Schema) Validate(columns []string) ([]ColumnSpec, error) {
	required := append(slices.Clone(s.IdentifierColumns), s.dateColumn())
	if missing := lo.Without(required, columns...); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	if dups := lo.FindDuplicates(columns); len(dups) > 0 {
		return nil, fmt.Errorf("%w: duplicate columns %s", ErrMalformedHeader, strings.Join(dups, ", "))
	}

	var specs []ColumnSpec
	for _, name := range columns {
		if !s.IsMetricColumn(name) {
			continue
		}
		spec, err := s.ParseColumn(name)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
