// Package timeexpr parses the time expressions accepted by the query
// commands: "now", unix epoch seconds, RFC3339 timestamps, and relative
// offsets like "now-15m".
package timeexpr

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Parse resolves expr against now and returns the instant in UTC.
// Accepted forms:
//
//	now
//	1700000000            unix epoch seconds
//	2024-05-10T12:00:00Z  RFC3339
//	now-15m               relative offset, units s, m, h, d, w
func Parse(expr string, now time.Time) (time.Time, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "now" {
		return now.UTC(), nil
	}

	if unix, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}

	if offset, ok := strings.CutPrefix(trimmed, "now-"); ok {
		return parseRelative(offset, now)
	}

	t, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("unsupported time format %q", trimmed)
	}
	return t.UTC(), nil
}

func parseRelative(offset string, now time.Time) (time.Time, error) {
	if len(offset) < 2 {
		return time.Time{}, fmt.Errorf("invalid relative time %q, expected e.g. now-15m", offset)
	}

	value, unit := offset[:len(offset)-1], offset[len(offset)-1:]
	quantity, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid relative duration quantity %q", value)
	}

	var d time.Duration
	switch unit {
	case "s":
		d = time.Duration(quantity) * time.Second
	case "m":
		d = time.Duration(quantity) * time.Minute
	case "h":
		d = time.Duration(quantity) * time.Hour
	case "d":
		d = time.Duration(quantity) * 24 * time.Hour
	case "w":
		d = time.Duration(quantity) * 7 * 24 * time.Hour
	default:
		return time.Time{}, fmt.Errorf("invalid relative duration unit %q, use one of s,m,h,d,w", unit)
	}
	return now.Add(-d).UTC(), nil
}
