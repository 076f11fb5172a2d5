// Package shared groups helpers used by more than one sheetetl package.
//
// The testutil subpackage builds fixture resource workbooks with excelize
// and captures slog output so tests can assert on warnings, for example the
// conflict warning Reshape emits under the "first" group policy.
package shared
