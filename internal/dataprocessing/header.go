package dataprocessing

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

// FlattenHeader joins each column's header parts with the schema separator
// and renames the identifier columns back to their top-level names.
//
// Identifier columns are recognized by placeholder text in every level below
// the first. Exactly len(schema.IdentifierColumns) such columns must exist and
// their names must match the schema. The returned table shares nothing with
// the input sheet.
func FlattenHeader(sheet *RawSheet, schema Schema) (*Table, error) {
	if sheet == nil || sheet.Width() == 0 {
		return nil, fmt.Errorf("%w: no columns", ErrMalformedHeader)
	}

	columns := make([]string, sheet.Width())
	var identifiers []string

	for i, parts := range sheet.Header {
		if len(parts) != HeaderLevels {
			return nil, fmt.Errorf("%w: column %d has %d header levels, want %d",
				ErrMalformedHeader, i, len(parts), HeaderLevels)
		}

		if isIdentifierHeader(parts) {
			columns[i] = parts[0]
			identifiers = append(identifiers, parts[0])
			continue
		}
		columns[i] = strings.Join(parts, schema.separator())
	}

	if len(identifiers) != len(schema.IdentifierColumns) {
		return nil, fmt.Errorf("%w: found %d identifier columns %v, want %d %v",
			ErrMalformedHeader, len(identifiers), identifiers,
			len(schema.IdentifierColumns), schema.IdentifierColumns)
	}
	for _, want := range schema.IdentifierColumns {
		if !slices.Contains(identifiers, want) {
			return nil, fmt.Errorf("%w: identifier column %q not found (got %v)",
				ErrMalformedHeader, want, identifiers)
		}
	}

	table := (&Table{Columns: columns, Rows: sheet.Rows}).Clone()

	slog.Debug("Header flattened",
		slog.Int("columns", len(columns)),
		slog.Any("identifiers", identifiers))

	return table, nil
}

// isIdentifierHeader reports whether only the top level of a column is named.
func isIdentifierHeader(parts []string) bool {
	if len(parts) == 0 || isPlaceholder(parts[0]) {
		return false
	}
	for _, p := range parts[1:] {
		if !isPlaceholder(p) {
			return false
		}
	}
	return true
}
