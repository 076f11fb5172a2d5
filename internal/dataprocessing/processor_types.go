package dataprocessing

import (
	"fmt"
	"log/slog"
	"strings"
)

// GroupPolicy decides how several source rows sharing an (id, company, date)
// key are reduced to one value per metric column.
type GroupPolicy string

const (
	// GroupFirst keeps the first non-blank value and warns about conflicts.
	GroupFirst GroupPolicy = "first"
	// GroupStrict fails when non-blank values in a group differ.
	GroupStrict GroupPolicy = "strict"
	// GroupSum adds all values in a group.
	GroupSum GroupPolicy = "sum"
)

// ParseGroupPolicy converts a config string into a GroupPolicy.
func ParseGroupPolicy(s string) (GroupPolicy, error) {
	switch p := GroupPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case GroupFirst, GroupStrict, GroupSum:
		return p, nil
	case "":
		return GroupFirst, nil
	default:
		return "", fmt.Errorf("unknown group policy %q (want first, strict or sum)", s)
	}
}

// ReshapeOptions configures Reshape.
type ReshapeOptions struct {
	Schema Schema
	Policy GroupPolicy
	// Logger receives conflict warnings; nil uses slog.Default.
	Logger *slog.Logger
}

// DefaultReshapeOptions returns the options of the standard export.
func DefaultReshapeOptions() ReshapeOptions {
	return ReshapeOptions{
		Schema: DefaultSchema(),
		Policy: GroupFirst,
	}
}

func (o ReshapeOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}
