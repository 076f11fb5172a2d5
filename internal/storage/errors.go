package storage

import "errors"

var (
	ErrUnsupportedTarget = errors.New("unsupported storage target")
	ErrInvalidPolicy     = errors.New("invalid if-exists policy")
	ErrTableExists       = errors.New("table already exists")
	ErrSchemaMismatch    = errors.New("table schema mismatch")
)
