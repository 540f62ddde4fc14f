package common

import (
	"fmt"
	"strings"
	"time"
)

// DateTimeLayouts are the date-time forms accepted from API callers, most specific first.
var DateTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339Nano,
}

// DateLayout is the accepted form for calendar dates.
const DateLayout = "2006-01-02"

// ParseTime returns the first successful parse of s against layouts. Values carrying a
// zone offset are converted to UTC.
func ParseTime(s string, layouts ...string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time value")
	}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q; expected one of %s", s, strings.Join(layouts, ", "))
}
