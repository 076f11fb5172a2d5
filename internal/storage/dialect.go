package storage

import (
	"strings"
	"time"
)

// SQLiteDateLayout is how dates are stored in SQLite TEXT columns.
const SQLiteDateLayout = "2006-01-02 15:04:05"

// dialect captures the SQL differences between backends.
type dialect struct {
	name      string
	quoteChar string

	intType  string
	textType string
	dateType string
	realType string

	existsQuery  string
	columnsQuery string

	dateValue func(time.Time) any
}

var sqliteDialect = dialect{
	name:      "sqlite",
	quoteChar: `"`,
	intType:   "INTEGER",
	textType:  "TEXT",
	dateType:  "TEXT",
	realType:  "REAL",

	existsQuery:  `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`,
	columnsQuery: `SELECT name FROM pragma_table_info(?) ORDER BY cid`,

	dateValue: func(t time.Time) any { return t.Format(SQLiteDateLayout) },
}

var mysqlDialect = dialect{
	name:      "mysql",
	quoteChar: "`",
	intType:   "BIGINT",
	textType:  "VARCHAR(255)",
	dateType:  "DATETIME",
	realType:  "DOUBLE",

	existsQuery: `SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_name = ?`,
	columnsQuery: `SELECT column_name FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ? ORDER BY ordinal_position`,

	dateValue: func(t time.Time) any { return t },
}

func (d dialect) quote(ident string) string {
	return d.quoteChar + strings.ReplaceAll(ident, d.quoteChar, d.quoteChar+d.quoteChar) + d.quoteChar
}

func (d dialect) quoteAll(idents []string) string {
	quoted := make([]string, len(idents))
	for i, id := range idents {
		quoted[i] = d.quote(id)
	}
	return strings.Join(quoted, ", ")
}

// columnDef is one column of the clean table with its backend type.
type columnDef struct {
	name    string
	sqlType string
}

func (d dialect) createTable(table string, cols []columnDef) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = d.quote(c.name) + " " + c.sqlType
	}
	return "CREATE TABLE " + d.quote(table) + " (" + strings.Join(defs, ", ") + ")"
}

func (d dialect) dropTable(table string) string {
	return "DROP TABLE IF EXISTS " + d.quote(table)
}

func (d dialect) insert(table string, cols []string) string {
	ph := strings.TrimRight(strings.Repeat("?, ", len(cols)), ", ")
	return "INSERT INTO " + d.quote(table) + " (" + d.quoteAll(cols) + ") VALUES (" + ph + ")"
}

func (d dialect) countRows(table string) string {
	return "SELECT COUNT(*) FROM " + d.quote(table)
}
