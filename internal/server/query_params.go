package server

import (
	"strings"
	"time"

	"github.com/smallbiznis/formpay/internal/analytics/rollup"
)

const dateOnlyLayout = "2006-01-02"

// parseDateBound accepts a calendar date or an RFC 3339 timestamp. A bare
// end date covers the whole UTC day.
func parseDateBound(value string, isEnd bool) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(dateOnlyLayout, trimmed); err == nil {
		if isEnd {
			t := rollup.EndOfDay(parsed)
			return &t, nil
		}
		t := rollup.StartOfDay(parsed)
		return &t, nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, trimmed)
	if err != nil {
		return nil, err
	}
	t := parsed.UTC()
	return &t, nil
}
