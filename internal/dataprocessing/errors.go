package dataprocessing

import "errors"

// Source errors
var (
	ErrSourceUnreadable = errors.New("source workbook unreadable")
	ErrSheetNotFound    = errors.New("sheet not found")
)

// Header and schema errors
var (
	ErrMalformedHeader = errors.New("malformed header")
	ErrMalformedColumn = errors.New("malformed metric column")
	ErrMissingColumn   = errors.New("missing column")
)

// Value errors
var (
	ErrNonNumericValue  = errors.New("non-numeric value")
	ErrAmbiguousGroup   = errors.New("conflicting values in group")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidDateRange = errors.New("invalid date range")
	ErrMissingMetric    = errors.New("missing metric")
)
